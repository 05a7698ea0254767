package services

import (
	"context"
	"net/http"
	"net/url"

	"scrappify-bff/internal/session"
)

type Registration struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	BirthDate string `json:"birthDate,omitempty"`
	Sex       string `json:"sex,omitempty"`
}

type VerifiedEmail struct {
	Email    string `json:"email"`
	NewToken string `json:"newToken"`
}

// Login exchanges credentials for a session token.
func (s *ServiceClient) Login(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := s.doJSON(ctx, call{
		service: "auth",
		method:  http.MethodPost,
		url:     s.cfg.AuthServiceURL + "/api/auth/login",
		body:    map[string]string{"email": email, "password": password},
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", ErrBadPayload
	}
	return resp.Token, nil
}

// Register returns the backend's confirmation message.
func (s *ServiceClient) Register(ctx context.Context, reg Registration) (string, error) {
	var resp struct {
		Msg string `json:"msg"`
	}
	err := s.doJSON(ctx, call{
		service: "auth",
		method:  http.MethodPost,
		url:     s.cfg.AuthServiceURL + "/api/users/register",
		body:    reg,
	}, &resp)
	return resp.Msg, err
}

func (s *ServiceClient) VerifyEmail(ctx context.Context, token string) (*VerifiedEmail, error) {
	var resp VerifiedEmail
	err := s.doJSON(ctx, call{
		service: "auth",
		method:  http.MethodGet,
		url:     s.cfg.AuthServiceURL + "/api/auth/verify-email?token=" + url.QueryEscape(token),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *ServiceClient) SendVerificationEmail(ctx context.Context, sc *session.Context) error {
	return s.doJSON(ctx, call{
		service: "auth",
		method:  http.MethodPost,
		url:     s.cfg.AuthServiceURL + "/api/auth/send-verification-email",
		session: sc,
		body:    map[string]string{},
	}, nil)
}

// GoogleAuthURL is where the browser starts the backend-run OAuth flow.
func (s *ServiceClient) GoogleAuthURL() string {
	return s.cfg.AuthServiceURL + "/api/auth/google"
}
