// Command product-service serves a fixed phone catalogue shaped like the
// Scrappify products API, for running the gateway locally.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"

	"scrappify-bff/internal/config"
	"scrappify-bff/internal/logging"
	"scrappify-bff/internal/services"
)

type pricePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type offer struct {
	Source      string       `json:"source"`
	URL         string       `json:"url"`
	LastUpdated string       `json:"lastUpdated"`
	Prices      []pricePoint `json:"prices"`
}

type product struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Model    string  `json:"model"`
	Color    string  `json:"color,omitempty"`
	Memory   string  `json:"memory,omitempty"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Currency string  `json:"currency"`
	Category string  `json:"category"`
	Offers   []offer `json:"offers"`
}

var (
	mu      sync.RWMutex
	catalog = []product{
		{
			ID: "p1", Name: "Galaxy S24 128GB", Brand: "Samsung", Model: "S24", Color: "Black", Memory: "128GB",
			ImageURL: "https://images.example.com/s24.jpg", Currency: "EUR", Category: "Smartphones",
			Offers: []offer{
				{Source: "Worten", URL: "https://www.worten.pt/s24", LastUpdated: "2024-03-02",
					Prices: []pricePoint{{Date: "2024-03-02", Value: 799}, {Date: "2024-02-01", Value: 849}}},
				{Source: "Amazon", URL: "https://www.amazon.es/s24", LastUpdated: "2024-03-01",
					Prices: []pricePoint{{Date: "2024-03-01", Value: 779}}},
			},
		},
		{
			ID: "p2", Name: "iPhone 15 256GB", Brand: "Apple", Model: "iPhone 15", Memory: "256GB",
			Currency: "EUR", Category: "Smartphones",
			Offers: []offer{
				{Source: "MediaMarket", URL: "https://www.mediamarkt.es/iphone15", LastUpdated: "2024-03-03",
					Prices: []pricePoint{{Date: "2024-03-03", Value: 1049}}},
			},
		},
		{
			ID: "p3", Name: "Redmi Note 13", Brand: "Xiaomi", Model: "Note 13", Currency: "EUR",
			Category: "No Category",
			Offers: []offer{
				{Source: "Worten", URL: "https://www.worten.pt/note13", LastUpdated: "2024-02-20",
					Prices: []pricePoint{{Date: "2024-02-20", Value: 199.99}}},
			},
		},
	}
)

// inStores keeps the offers sold by the requested stores and drops
// products left without any.
func inStores(products []product, stores []string) []product {
	if len(stores) == 0 {
		return products
	}
	var out []product
	for _, p := range products {
		var offers []offer
		for _, o := range p.Offers {
			if slices.Contains(stores, o.Source) {
				offers = append(offers, o)
			}
		}
		if len(offers) > 0 {
			p.Offers = offers
			out = append(out, p)
		}
	}
	return out
}

func byCategory(category string) []product {
	mu.RLock()
	defer mu.RUnlock()

	var out []product
	for _, p := range catalog {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("JSON encode error", "error", err)
	}
}

func authorized(w http.ResponseWriter, r *http.Request) bool {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "No token"})
		return false
	}
	return true
}

func main() {
	cfg := config.NewConfig()
	slog.SetDefault(logging.New(os.Stdout, cfg.LogLevel))

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/products/search", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		var req struct {
			Query  string   `json:"query"`
			Stores []string `json:"stores"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid body"})
			return
		}

		query := strings.ToLower(req.Query)
		mu.RLock()
		var hits []product
		for _, p := range catalog {
			if strings.Contains(strings.ToLower(p.Name+" "+p.Brand+" "+p.Model), query) {
				hits = append(hits, p)
			}
		}
		mu.RUnlock()

		hits = inStores(hits, req.Stores)
		slog.Info("Search", "query", req.Query, "stores", req.Stores, "device_id", r.Header.Get(services.DeviceIDHeader), "hits", len(hits))
		writeJSON(w, http.StatusOK, hits)
	})

	mux.HandleFunc("GET /api/products/category/{category}", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, inStores(byCategory(r.PathValue("category")), r.URL.Query()["stores[]"]))
	})

	mux.HandleFunc("GET /api/products/last-no-category", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, inStores(byCategory(services.NoCategory), r.URL.Query()["stores[]"]))
	})

	mux.HandleFunc("GET /api/products/list-no-category", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": byCategory(services.NoCategory)})
	})

	mux.HandleFunc("POST /api/products/assign-category", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		var req struct {
			ProductIDs []string `json:"productIds"`
			Category   string   `json:"category"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Category == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid body"})
			return
		}

		mu.Lock()
		modified := 0
		for i := range catalog {
			if slices.Contains(req.ProductIDs, catalog[i].ID) {
				catalog[i].Category = req.Category
				modified++
			}
		}
		mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]int{"modifiedCount": modified})
	})

	mux.HandleFunc("GET /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		id := r.PathValue("id")
		mu.RLock()
		defer mu.RUnlock()
		for _, p := range catalog {
			if p.ID == id {
				writeJSON(w, http.StatusOK, map[string]any{"product": p})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Product not found"})
	})

	addr := ":" + envOr("PRODUCT_SERVICE_PORT", "8083")
	slog.Info("Product service listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
