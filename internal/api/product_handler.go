package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"scrappify-bff/internal/catalog"
	"scrappify-bff/internal/models"
	"scrappify-bff/internal/search"
	"scrappify-bff/internal/services"
	"scrappify-bff/internal/session"
)

type filterParams struct {
	PriceRanges []string `json:"priceRanges"`
	Min         *float64 `json:"min"`
	Max         *float64 `json:"max"`
	Vendors     []string `json:"vendors"`
}

func (p filterParams) toFilter(plan session.Plan) search.Filter {
	f := search.DefaultFilter(plan)
	f.Buckets = p.PriceRanges
	f.Vendors = p.Vendors
	if p.Min != nil {
		f.Min = *p.Min
	}
	if p.Max != nil {
		f.Max = *p.Max
	}
	return f
}

type searchResponse struct {
	Query    string                    `json:"query,omitempty"`
	Category string                    `json:"category,omitempty"`
	Stores   []string                  `json:"stores"`
	Total    int                       `json:"total"`
	Products []models.ProductViewModel `json:"products"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())

	var req struct {
		Query string `json:"query"`
		filterParams
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if h.rateLimited(w, r, sc) {
		return
	}

	stores := search.StoresFor(sc.Plan(), req.Vendors)
	start := time.Now()

	products, err := h.svc.Search(r.Context(), sc, query, stores)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}

	hits := catalog.ProjectAll(products)
	filtered := search.Apply(hits, req.toFilter(sc.Plan()))

	slog.Info("Search processed", "user_id", sc.Claims.SubjectID(), "stores", stores,
		"hits", len(hits), "shown", len(filtered), "duration", time.Since(start))
	writeJSON(w, http.StatusOK, searchResponse{
		Query:    query,
		Stores:   stores,
		Total:    len(hits),
		Products: filtered,
	})
}

// Filter narrows results the browser already holds. It never calls the
// backend.
func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())

	var req struct {
		Products []models.ProductViewModel `json:"products"`
		filterParams
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filtered := search.Apply(req.Products, req.toFilter(sc.Plan()))
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    len(req.Products),
		"products": filtered,
	})
}

func (h *Handler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())
	category := chi.URLParam(r, "category")
	if strings.TrimSpace(category) == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}
	if h.rateLimited(w, r, sc) {
		return
	}

	stores := search.StoresFor(sc.Plan(), nil)
	products, err := h.svc.ProductsByCategory(r.Context(), sc, category, stores)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}

	hits := catalog.ProjectAll(products)
	writeJSON(w, http.StatusOK, searchResponse{
		Category: category,
		Stores:   stores,
		Total:    len(hits),
		Products: hits,
	})
}

// callerError reports upstream answers about this caller's request (4xx).
// They say nothing about the favorites service's health.
func callerError(err error) bool {
	var apiErr *services.APIError
	return errors.As(err, &apiErr) && apiErr.Status < 500
}

// GetProduct loads the product and, alongside it, the user's favorites to
// tell whether this product is one of them. The favorites lookup is
// optional: when it fails the page still renders as "not favorite". A 401
// from either call still ends the session.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc := session.FromContext(ctx)
	id := chi.URLParam(r, "id")
	start := time.Now()

	var (
		wg          sync.WaitGroup
		product     *models.Product
		productErr  error
		favorites   []models.Favorite
		favoriteErr error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		product, productErr = h.svc.Product(ctx, sc, id)
	}()

	go func() {
		defer wg.Done()
		var callerErr error
		favoriteErr = h.favoriteCB.Execute(func() error {
			var err error
			favorites, err = h.svc.Favorites(ctx, sc)
			if callerError(err) {
				callerErr = err
				return nil
			}
			return err
		})
		if favoriteErr == nil {
			favoriteErr = callerErr
		}
	}()

	wg.Wait()

	if productErr != nil {
		slog.Error("Failed to get product", "product_id", id, "error", productErr)
		h.upstreamError(w, r, productErr)
		return
	}
	if errors.Is(favoriteErr, services.ErrUnauthorized) {
		h.upstreamError(w, r, favoriteErr)
		return
	}
	if favoriteErr != nil {
		slog.Warn("Favorites fallback", "product_id", id, "error", favoriteErr)
	}

	vm := catalog.Project(*product)
	detail := models.ProductDetail{
		Product: vm,
		Chart:   catalog.BuildChart(vm),
	}
	for _, fav := range favorites {
		if fav.ProductID == id {
			detail.IsFavorite = true
			detail.FavoriteID = fav.ID
			break
		}
	}

	slog.Info("Request processed", "product_id", id, "duration", time.Since(start))
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) UncategorizedProducts(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())

	products, err := h.svc.UncategorizedProducts(r.Context(), sc)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": catalog.ProjectAll(products)})
}

func (h *Handler) AssignCategory(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())

	var req struct {
		ProductIDs []string `json:"productIds"`
		Category   string   `json:"category"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.ProductIDs) == 0 || strings.TrimSpace(req.Category) == "" {
		writeError(w, http.StatusBadRequest, "productIds and category are required")
		return
	}

	modified, err := h.svc.AssignCategory(r.Context(), sc, req.ProductIDs, strings.TrimSpace(req.Category))
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"modifiedCount": modified})
}
