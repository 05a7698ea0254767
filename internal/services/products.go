package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"scrappify-bff/internal/models"
	"scrappify-bff/internal/session"
)

// NoCategory selects the products the backend has not yet categorised.
const NoCategory = "No Category"

func (s *ServiceClient) Search(ctx context.Context, sc *session.Context, query string, stores []string) ([]models.Product, error) {
	var raw json.RawMessage
	err := s.doJSON(ctx, call{
		service: "products",
		method:  http.MethodPost,
		url:     s.cfg.ProductServiceURL + "/api/products/search",
		session: sc,
		body: map[string]any{
			"query":  query,
			"stores": stores,
		},
	}, &raw)
	if err != nil {
		return nil, err
	}
	return decodeProductList(raw)
}

func (s *ServiceClient) ProductsByCategory(ctx context.Context, sc *session.Context, category string, stores []string) ([]models.Product, error) {
	endpoint := s.cfg.ProductServiceURL + "/api/products/last-no-category"
	if category != NoCategory {
		endpoint = s.cfg.ProductServiceURL + "/api/products/category/" + url.PathEscape(category)
	}
	// Bracketed keys keep a single store decoded as a list by the backend's
	// query parser.
	q := url.Values{}
	for _, store := range stores {
		q.Add("stores[]", store)
	}
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var raw json.RawMessage
	err := s.doJSON(ctx, call{
		service: "products",
		method:  http.MethodGet,
		url:     endpoint,
		session: sc,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return decodeProductList(raw)
}

func (s *ServiceClient) UncategorizedProducts(ctx context.Context, sc *session.Context) ([]models.Product, error) {
	var raw json.RawMessage
	err := s.doJSON(ctx, call{
		service: "products",
		method:  http.MethodGet,
		url:     s.cfg.ProductServiceURL + "/api/products/list-no-category",
		session: sc,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return decodeProductList(raw)
}

// AssignCategory returns how many products the backend updated.
func (s *ServiceClient) AssignCategory(ctx context.Context, sc *session.Context, productIDs []string, category string) (int, error) {
	var resp struct {
		ModifiedCount int `json:"modifiedCount"`
	}
	err := s.doJSON(ctx, call{
		service: "products",
		method:  http.MethodPost,
		url:     s.cfg.ProductServiceURL + "/api/products/assign-category",
		session: sc,
		body: map[string]any{
			"productIds": productIDs,
			"category":   category,
		},
	}, &resp)
	return resp.ModifiedCount, err
}

func (s *ServiceClient) Product(ctx context.Context, sc *session.Context, id string) (*models.Product, error) {
	var resp struct {
		Product *models.Product `json:"product"`
	}
	err := s.doJSON(ctx, call{
		service: "products",
		method:  http.MethodGet,
		url:     s.cfg.ProductServiceURL + "/api/products/" + url.PathEscape(id),
		session: sc,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Product == nil {
		return nil, fmt.Errorf("%w: product %s missing from response", ErrNotFound, id)
	}
	return resp.Product, nil
}

// decodeProductList accepts the three shapes the search endpoints use: a
// bare array, {"products": [...]}, or a single product object.
func decodeProductList(raw json.RawMessage) ([]models.Product, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrBadPayload
	}

	switch raw[0] {
	case '[':
		var products []models.Product
		if err := json.Unmarshal(raw, &products); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return products, nil
	case '{':
		var wrapped struct {
			Products *[]models.Product `json:"products"`
		}
		if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Products != nil {
			return *wrapped.Products, nil
		}
		var single models.Product
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return []models.Product{single}, nil
	default:
		return nil, ErrBadPayload
	}
}
