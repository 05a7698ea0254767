package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"scrappify-bff/internal/auth"
	"scrappify-bff/internal/services"
	"scrappify-bff/internal/session"
)

// ChangePlan forwards the plan change. When the backend re-issues the
// token the new claims replace the old ones; otherwise the plan shown to
// the user is updated optimistically for this response only.
func (h *Handler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())

	var req struct {
		Plan        string          `json:"plan"`
		CardDetails json.RawMessage `json:"cardDetails,omitempty"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	plan := strings.TrimSpace(req.Plan)
	if plan == "" {
		writeError(w, http.StatusBadRequest, "plan is required")
		return
	}

	upd, err := h.svc.ChangePlan(r.Context(), sc, services.PlanChange{Plan: plan, CardDetails: req.CardDetails})
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}

	user := newUserView(sc.Claims)
	user.Plan = session.ParsePlan(plan)
	if upd.Token != "" {
		claims, ok := h.storeToken(w, upd.Token)
		if !ok {
			writeError(w, http.StatusBadGateway, "invalid token from authentication service")
			return
		}
		user = newUserView(claims)
	}

	slog.Info("Plan changed", "user_id", sc.Claims.SubjectID(), "plan", user.Plan)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": upd.Message,
		"user":    user,
	})
}

// ChangePassword ends the session on success; the user logs in again with
// the new password. A wrong current password leaves the session alone.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "currentPassword and newPassword are required")
		return
	}

	upd, err := h.svc.ChangePassword(r.Context(), sc, req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.credentialsError(w, r, err)
		return
	}

	h.auth.ClearToken(w)
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  upd.Message,
		"redirect": auth.LoginPath,
	})
}

func (h *Handler) SendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())

	if err := h.svc.SendVerificationEmail(r.Context(), sc); err != nil {
		h.upstreamError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

const maxPictureSize = 5 << 20

var pictureTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// ChangeProfilePicture takes a multipart "file" field, checks type and size
// before uploading, and stores the re-issued token when there is one.
func (h *Handler) ChangeProfilePicture(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxPictureSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !pictureTypes[contentType] {
		writeError(w, http.StatusBadRequest, "image must be JPEG or PNG")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxPictureSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read file")
		return
	}
	if len(data) > maxPictureSize {
		writeError(w, http.StatusRequestEntityTooLarge, "image must be at most 5MB")
		return
	}

	upd, err := h.svc.ChangeProfilePicture(r.Context(), sc, services.Picture{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}

	user := newUserView(sc.Claims)
	user.ProfilePicture = upd.ProfilePicture
	if upd.Token != "" {
		claims, ok := h.storeToken(w, upd.Token)
		if !ok {
			writeError(w, http.StatusBadGateway, "invalid token from authentication service")
			return
		}
		user = newUserView(claims)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"profilePicture": upd.ProfilePicture,
		"user":           user,
	})
}
