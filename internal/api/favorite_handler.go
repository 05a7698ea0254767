package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"scrappify-bff/internal/catalog"
	"scrappify-bff/internal/models"
	"scrappify-bff/internal/session"
)

func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())

	favorites, err := h.svc.Favorites(r.Context(), sc)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}

	views := make([]models.FavoriteView, 0, len(favorites))
	for _, fav := range favorites {
		product := models.Product{ID: fav.ProductID}
		if fav.Product != nil {
			product = *fav.Product
		}
		alerts := fav.Alerts
		if alerts == nil {
			alerts = []models.Alert{}
		}
		views = append(views, models.FavoriteView{
			ID:        fav.ID,
			ProductID: fav.ProductID,
			Alerts:    alerts,
			Product:   catalog.Project(product),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorites": views})
}

func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())

	var req struct {
		ProductID string `json:"productId"`
		AlertType string `json:"alertType"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}
	if strings.TrimSpace(req.AlertType) == "" {
		writeError(w, http.StatusBadRequest, "select an alert type")
		return
	}

	fav, err := h.svc.AddFavorite(r.Context(), sc, req.ProductID, strings.TrimSpace(req.AlertType))
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"favorite": fav})
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())

	if err := h.svc.RemoveFavorite(r.Context(), sc, chi.URLParam(r, "id")); err != nil {
		h.upstreamError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())

	notifications, err := h.svc.Notifications(r.Context(), sc)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}
