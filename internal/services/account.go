package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"scrappify-bff/internal/session"
)

// PlanChange is forwarded untouched; card details are validated and
// charged by the backend only.
type PlanChange struct {
	Plan        string          `json:"plan"`
	CardDetails json.RawMessage `json:"cardDetails,omitempty"`
}

// AccountUpdate is the backend's answer to account mutations. Token is set
// when the backend re-issued the session with new claims.
type AccountUpdate struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

func (s *ServiceClient) ChangePlan(ctx context.Context, sc *session.Context, change PlanChange) (*AccountUpdate, error) {
	var resp AccountUpdate
	err := s.doJSON(ctx, call{
		service: "auth",
		method:  http.MethodPut,
		url:     s.cfg.AuthServiceURL + "/api/users/plan",
		session: sc,
		body:    change,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *ServiceClient) ChangePassword(ctx context.Context, sc *session.Context, current, next string) (*AccountUpdate, error) {
	var resp AccountUpdate
	err := s.doJSON(ctx, call{
		service: "auth",
		method:  http.MethodPut,
		url:     s.cfg.AuthServiceURL + "/api/users/changepassword",
		session: sc,
		body: map[string]string{
			"currentPassword": current,
			"password":        next,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Picture is an uploaded profile image.
type Picture struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PictureUpdate carries the stored image URL and, when the backend
// re-issued the session, the new token.
type PictureUpdate struct {
	ProfilePicture string
	Token          string
}

// ChangeProfilePicture uploads pic as the multipart field "file".
func (s *ServiceClient) ChangeProfilePicture(ctx context.Context, sc *session.Context, pic Picture) (*PictureUpdate, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, pic.Filename))
	header.Set("Content-Type", pic.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("encode upload: %w", err)
	}
	if _, err := part.Write(pic.Data); err != nil {
		return nil, fmt.Errorf("encode upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("encode upload: %w", err)
	}

	var resp struct {
		User struct {
			ProfilePicture string `json:"profilePicture"`
		} `json:"user"`
		Token string `json:"token"`
	}
	err = s.doJSON(ctx, call{
		service:     "auth",
		method:      http.MethodPost,
		url:         s.cfg.AuthServiceURL + "/api/users/changeProfilePicture",
		session:     sc,
		rawBody:     buf.Bytes(),
		contentType: mw.FormDataContentType(),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.User.ProfilePicture == "" {
		return nil, ErrBadPayload
	}
	return &PictureUpdate{ProfilePicture: resp.User.ProfilePicture, Token: resp.Token}, nil
}
