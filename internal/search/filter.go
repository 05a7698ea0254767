// Package search holds the client-side narrowing of search results and the
// plan rules that decide which stores a search may query.
package search

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"scrappify-bff/internal/models"
	"scrappify-bff/internal/session"
)

const (
	VendorAmazon      = "Amazon"
	VendorWorten      = "Worten"
	VendorMediaMarket = "MediaMarket"

	// FreemiumVendor is the only store a freemium account sees.
	FreemiumVendor = VendorWorten

	DefaultMinPrice = 0
	DefaultMaxPrice = 3000
)

var (
	Vendors      = []string{VendorAmazon, VendorWorten, VendorMediaMarket}
	PriceBuckets = []string{
		"0-200", "200-400", "400-600", "600-800", "800-1000",
		"1000-1200", "1200-1500", "1500-2000+",
	}
)

type Filter struct {
	Buckets []string     `json:"priceRanges"`
	Min     float64      `json:"min"`
	Max     float64      `json:"max"`
	Vendors []string     `json:"vendors"`
	Plan    session.Plan `json:"-"`
}

// DefaultFilter matches the UI's initial state.
func DefaultFilter(plan session.Plan) Filter {
	return Filter{Min: DefaultMinPrice, Max: DefaultMaxPrice, Plan: plan}
}

// Apply returns the hits that pass every filter, in their original order.
// It never refetches; callers recompute on each filter change.
func Apply(hits []models.ProductViewModel, f Filter) []models.ProductViewModel {
	buckets := parseBuckets(f.Buckets)
	out := make([]models.ProductViewModel, 0, len(hits))
	for _, hit := range hits {
		price := priceOf(hit)
		if len(f.Buckets) > 0 && !inBuckets(price, buckets) {
			continue
		}
		if price < f.Min || price > f.Max {
			continue
		}
		if !vendorAllowed(hit.Source, f) {
			continue
		}
		out = append(out, hit)
	}
	return out
}

// StoresFor picks the stores a backend search may hit for plan.
func StoresFor(plan session.Plan, selected []string) []string {
	if plan == session.PlanFreemium {
		return []string{FreemiumVendor}
	}
	if len(selected) > 0 {
		return slices.Clone(selected)
	}
	return slices.Clone(Vendors)
}

type bucket struct {
	min, max float64
}

// parseBuckets reads "min-max" labels. An unparseable upper bound, such as
// "2000+", leaves the bucket open-ended; an unparseable lower bound drops
// the label.
func parseBuckets(labels []string) []bucket {
	out := make([]bucket, 0, len(labels))
	for _, label := range labels {
		lo, hi, _ := strings.Cut(label, "-")
		lower, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		if err != nil {
			continue
		}
		upper, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil || upper == 0 {
			upper = math.Inf(1)
		}
		out = append(out, bucket{min: lower, max: upper})
	}
	return out
}

func inBuckets(price float64, buckets []bucket) bool {
	for _, b := range buckets {
		if price >= b.min && price < b.max {
			return true
		}
	}
	return false
}

func vendorAllowed(source string, f Filter) bool {
	if f.Plan == session.PlanFreemium {
		return source == FreemiumVendor
	}
	return len(f.Vendors) == 0 || slices.Contains(f.Vendors, source)
}

func priceOf(hit models.ProductViewModel) float64 {
	if hit.LatestPrice == nil {
		return 0
	}
	return *hit.LatestPrice
}
