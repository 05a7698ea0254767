package services

import (
	"context"
	"net/http"
	"net/url"

	"scrappify-bff/internal/models"
	"scrappify-bff/internal/session"
)

func (s *ServiceClient) Favorites(ctx context.Context, sc *session.Context) ([]models.Favorite, error) {
	var resp struct {
		Favorites []models.Favorite `json:"favorites"`
	}
	err := s.doJSON(ctx, call{
		service: "favorites",
		method:  http.MethodGet,
		url:     s.cfg.FavoritesServiceURL + "/api/favorites/",
		session: sc,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Favorites == nil {
		resp.Favorites = []models.Favorite{}
	}
	return resp.Favorites, nil
}

// AddFavorite creates a product-level favorite (no specific offer) with a
// single alert.
func (s *ServiceClient) AddFavorite(ctx context.Context, sc *session.Context, productID, alertType string) (*models.Favorite, error) {
	var resp struct {
		Favorite models.Favorite `json:"favorite"`
	}
	err := s.doJSON(ctx, call{
		service: "favorites",
		method:  http.MethodPost,
		url:     s.cfg.FavoritesServiceURL + "/api/favorites/",
		session: sc,
		body: map[string]any{
			"productId": productID,
			"offerId":   nil,
			"alerts":    []models.Alert{{Type: alertType}},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Favorite.ProductID == "" {
		resp.Favorite.ProductID = productID
	}
	return &resp.Favorite, nil
}

func (s *ServiceClient) RemoveFavorite(ctx context.Context, sc *session.Context, favoriteID string) error {
	return s.doJSON(ctx, call{
		service: "favorites",
		method:  http.MethodDelete,
		url:     s.cfg.FavoritesServiceURL + "/api/favorites/" + url.PathEscape(favoriteID),
		session: sc,
	}, nil)
}

func (s *ServiceClient) Notifications(ctx context.Context, sc *session.Context) ([]models.Notification, error) {
	var resp struct {
		Notifications []models.Notification `json:"notifications"`
	}
	err := s.doJSON(ctx, call{
		service: "favorites",
		method:  http.MethodGet,
		url:     s.cfg.FavoritesServiceURL + "/api/favorites/notifications",
		session: sc,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Notifications == nil {
		resp.Notifications = []models.Notification{}
	}
	return resp.Notifications, nil
}
