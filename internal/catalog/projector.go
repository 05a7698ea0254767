// Package catalog turns raw backend product records into the view-models
// the UI renders. Nothing here performs I/O or returns errors: partial or
// malformed records degrade to defaults.
package catalog

import (
	"strconv"
	"strings"

	"scrappify-bff/internal/models"
)

// Project derives the view-model for p. It never mutates p, and projecting
// the same value twice yields equal results.
func Project(p models.Product) models.ProductViewModel {
	currency := textOr(p.Currency)

	vm := models.ProductViewModel{
		ID:                   p.ID,
		Title:                textOr(p.Name),
		Image:                imageOr(p.ImageURL),
		Price:                models.NotAvailable,
		Brand:                textOr(p.Brand),
		Model:                textOr(p.Model),
		Color:                textOr(p.Color),
		Memory:               textOr(p.Memory),
		Source:               models.NotAvailable,
		LastUpdated:          models.NotAvailable,
		Currency:             currency,
		Link:                 textOr(p.URL),
		Offers:               make([]models.OfferView, 0, len(p.Offers)),
		PriceHistoryBySource: make([]models.SourceSeries, 0, len(p.Offers)),
	}

	for i, offer := range p.Offers {
		latest := LatestPrice(offer.Prices)
		view := models.OfferView{
			Source:      textOr(offer.Source),
			URL:         textOr(offer.URL),
			LastUpdated: textOr(offer.LastUpdated),
			Price:       FormatPrice(latest, p.Currency),
		}
		vm.Offers = append(vm.Offers, view)

		if i == 0 {
			vm.Source = view.Source
			vm.LastUpdated = view.LastUpdated
			vm.Price = view.Price
			vm.LatestPrice = latest
		}

		if len(offer.Prices) == 0 {
			continue
		}
		data := make([]models.SeriesPoint, len(offer.Prices))
		for j, pt := range offer.Prices {
			data[j] = models.SeriesPoint{Date: pt.Date, Value: pt.Value}
		}
		vm.PriceHistoryBySource = append(vm.PriceHistoryBySource, models.SourceSeries{
			Source: view.Source,
			Data:   data,
		})
	}

	return vm
}

// ProjectAll projects each product in order.
func ProjectAll(products []models.Product) []models.ProductViewModel {
	out := make([]models.ProductViewModel, len(products))
	for i, p := range products {
		out[i] = Project(p)
	}
	return out
}

// LatestPrice returns the value of the chronologically latest point, or nil
// when there are none.
func LatestPrice(prices []models.PricePoint) *float64 {
	idx := latestIndex(prices)
	if idx < 0 {
		return nil
	}
	v := prices[idx].Value
	return &v
}

// FormatPrice renders "{value} {currency}" in the shortest decimal form.
// No locale or conversion is applied.
func FormatPrice(value *float64, currency *string) string {
	if value == nil {
		return models.NotAvailable
	}
	s := strconv.FormatFloat(*value, 'f', -1, 64)
	if c := trimmed(currency); c != "" {
		s += " " + c
	}
	return s
}

func textOr(s *string) string {
	if v := trimmed(s); v != "" {
		return v
	}
	return models.NotAvailable
}

func imageOr(s *string) string {
	v := trimmed(s)
	if strings.HasPrefix(v, "http") || strings.HasPrefix(v, "/") {
		return v
	}
	return models.PlaceholderImage
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
