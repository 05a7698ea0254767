package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"scrappify-bff/internal/config"
	"scrappify-bff/internal/session"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *ServiceClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		AuthServiceURL:      server.URL,
		ProductServiceURL:   server.URL,
		FavoritesServiceURL: server.URL,
		UpstreamTimeout:     2 * time.Second,
	}
	c := NewServiceClient(cfg)
	c.retryDelay = time.Millisecond
	return c
}

var testSession = &session.Context{Token: "tok-123", DeviceID: "dev-1"}

func TestProduct_SendsCredentialsAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products/p-1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get(DeviceIDHeader); got != "dev-1" {
			t.Errorf("%s = %q", DeviceIDHeader, got)
		}
		io.WriteString(w, `{"product": {"_id": "p-1", "name": "Phone", "offers": [{"source": "Worten", "prices": [{"date": "2024-01-01", "value": 10}]}]}}`)
	})

	p, err := c.Product(context.Background(), testSession, "p-1")
	if err != nil {
		t.Fatalf("Product: %v", err)
	}
	if p.ID != "p-1" || *p.Name != "Phone" || len(p.Offers) != 1 || p.Offers[0].Prices[0].Value != 10 {
		t.Errorf("product = %+v", p)
	}
}

func TestProduct_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		is     error
		msg    string
	}{
		{http.StatusUnauthorized, `{"msg": "Token inválido"}`, ErrUnauthorized, "Token inválido"},
		{http.StatusNotFound, `{"message": "not here"}`, ErrNotFound, "not here"},
		{http.StatusBadRequest, `{"error": "bad id"}`, nil, "bad id"},
	}

	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			io.WriteString(w, tt.body)
		})

		_, err := c.Product(context.Background(), testSession, "x")

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: err = %v, want *APIError", tt.status, err)
		}
		if apiErr.Status != tt.status || apiErr.Message != tt.msg {
			t.Errorf("apiErr = %+v", apiErr)
		}
		if tt.is != nil && !errors.Is(err, tt.is) {
			t.Errorf("status %d: errors.Is(%v) = false", tt.status, tt.is)
		}
		if errors.Is(err, ErrUnauthorized) && tt.status != http.StatusUnauthorized {
			t.Errorf("status %d must not match ErrUnauthorized", tt.status)
		}
	}
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"favorites": []}`)
	})

	favs, err := c.Favorites(context.Background(), testSession)
	if err != nil {
		t.Fatalf("Favorites: %v", err)
	}
	if favs == nil || len(favs) != 0 {
		t.Errorf("favorites = %#v", favs)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestSearch_NotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := c.Search(context.Background(), testSession, "phone", []string{"Amazon"}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestSearch_RequestAndResponseShapes(t *testing.T) {
	shapes := map[string]string{
		"array":   `[{"_id": "a"}, {"_id": "b"}]`,
		"wrapped": `{"products": [{"_id": "a"}, {"_id": "b"}]}`,
		"single":  `{"_id": "a", "name": "Only"}`,
	}
	wantLen := map[string]int{"array": 2, "wrapped": 2, "single": 1}

	for name, body := range shapes {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/api/products/search" {
					t.Errorf("%s %s", r.Method, r.URL.Path)
				}
				var req struct {
					Query  string   `json:"query"`
					Stores []string `json:"stores"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if req.Query != "iphone" || strings.Join(req.Stores, ",") != "Worten" {
					t.Errorf("request = %+v", req)
				}
				io.WriteString(w, body)
			})

			products, err := c.Search(context.Background(), testSession, "iphone", []string{"Worten"})
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(products) != wantLen[name] || products[0].ID != "a" {
				t.Errorf("products = %+v", products)
			}
		})
	}
}

func TestSearch_InvalidPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `"nope"`)
	})

	_, err := c.Search(context.Background(), testSession, "x", nil)
	if !errors.Is(err, ErrBadPayload) {
		t.Errorf("err = %v, want ErrBadPayload", err)
	}
}

func TestProductsByCategory_Endpoints(t *testing.T) {
	var gotPath, gotStores, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		gotStores = strings.Join(r.URL.Query()["stores[]"], ",")
		io.WriteString(w, `[]`)
	})

	if _, err := c.ProductsByCategory(context.Background(), testSession, "Smart Phones", []string{"Amazon", "Worten"}); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/products/category/Smart%20Phones" || gotStores != "Amazon,Worten" {
		t.Errorf("path=%s stores=%s", gotPath, gotStores)
	}

	if _, err := c.ProductsByCategory(context.Background(), testSession, "Smart Phones", []string{"Worten"}); err != nil {
		t.Fatal(err)
	}
	if gotQuery != "stores%5B%5D=Worten" {
		t.Errorf("query = %s", gotQuery)
	}

	if _, err := c.ProductsByCategory(context.Background(), testSession, NoCategory, nil); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/products/last-no-category" {
		t.Errorf("path = %s", gotPath)
	}
}

func TestFavorites_PopulatedProductReference(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"favorites": [
			{"_id": "f-1", "productId": {"_id": "p-1", "name": "Phone"}, "alerts": [{"type": "price_drop"}]},
			{"_id": "f-2", "productId": "p-2", "alerts": []}
		]}`)
	})

	favs, err := c.Favorites(context.Background(), testSession)
	if err != nil {
		t.Fatal(err)
	}
	if len(favs) != 2 {
		t.Fatalf("len = %d", len(favs))
	}
	if favs[0].ID != "f-1" || favs[0].ProductID != "p-1" || favs[0].Product == nil || favs[0].Alerts[0].Type != "price_drop" {
		t.Errorf("favs[0] = %+v", favs[0])
	}
	if favs[1].ProductID != "p-2" || favs[1].Product != nil {
		t.Errorf("favs[1] = %+v", favs[1])
	}
}

func TestAddFavorite_Body(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["productId"] != "p-1" {
			t.Errorf("productId = %v", body["productId"])
		}
		if v, ok := body["offerId"]; !ok || v != nil {
			t.Errorf("offerId = %v (present=%v), want explicit null", v, ok)
		}
		io.WriteString(w, `{"favorite": {"_id": "f-9", "productId": "p-1", "alerts": [{"type": "any_change"}]}}`)
	})

	fav, err := c.AddFavorite(context.Background(), testSession, "p-1", "any_change")
	if err != nil {
		t.Fatal(err)
	}
	if fav.ID != "f-9" {
		t.Errorf("favorite = %+v", fav)
	}
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not send a bearer token")
		}
		io.WriteString(w, `{"token": "new-token"}`)
	})

	token, err := c.Login(context.Background(), "a@b.c", "pw")
	if err != nil || token != "new-token" {
		t.Errorf("Login = %q, %v", token, err)
	}
}

func TestChangePlan_ReturnsReissuedToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/users/plan" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{"message": "Plano atualizado", "token": "tok-pro"}`)
	})

	upd, err := c.ChangePlan(context.Background(), testSession, PlanChange{Plan: "pro"})
	if err != nil {
		t.Fatal(err)
	}
	if upd.Token != "tok-pro" || upd.Message != "Plano atualizado" {
		t.Errorf("update = %+v", upd)
	}
}

func TestChangePassword_SendsNewPasswordAsPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/users/changepassword" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["currentPassword"] != "old" || body["password"] != "new" {
			t.Errorf("body = %v", body)
		}
		if _, ok := body["newPassword"]; ok {
			t.Errorf("unexpected newPassword key in %v", body)
		}
		io.WriteString(w, `{"message": "Senha alterada"}`)
	})

	upd, err := c.ChangePassword(context.Background(), testSession, "old", "new")
	if err != nil {
		t.Fatal(err)
	}
	if upd.Message != "Senha alterada" {
		t.Errorf("message = %q", upd.Message)
	}
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message": "Senha atual incorreta"}`)
	})

	_, err := c.ChangePassword(context.Background(), testSession, "bad", "new")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Senha atual incorreta" {
		t.Fatalf("err = %v", err)
	}
}

func TestChangeProfilePicture_UploadsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/users/changeProfilePicture" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "me.png" || header.Header.Get("Content-Type") != "image/png" || string(data) != "png-bytes" {
			t.Errorf("upload = %q %q %q", header.Filename, header.Header.Get("Content-Type"), data)
		}
		io.WriteString(w, `{"user": {"profilePicture": "https://cdn.example.com/me.png"}, "token": "tok-new"}`)
	})

	upd, err := c.ChangeProfilePicture(context.Background(), testSession, Picture{
		Filename:    "me.png",
		ContentType: "image/png",
		Data:        []byte("png-bytes"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if upd.ProfilePicture != "https://cdn.example.com/me.png" || upd.Token != "tok-new" {
		t.Errorf("update = %+v", upd)
	}
}

func TestChangeProfilePicture_MissingURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"user": {}}`)
	})

	_, err := c.ChangeProfilePicture(context.Background(), testSession, Picture{Filename: "a.png", ContentType: "image/png", Data: []byte("x")})
	if !errors.Is(err, ErrBadPayload) {
		t.Fatalf("err = %v, want ErrBadPayload", err)
	}
}
