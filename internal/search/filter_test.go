package search

import (
	"reflect"
	"testing"

	"scrappify-bff/internal/models"
	"scrappify-bff/internal/session"
)

func hit(id, source string, price float64) models.ProductViewModel {
	return models.ProductViewModel{ID: id, Source: source, LatestPrice: &price}
}

func ids(hits []models.ProductViewModel) []string {
	out := []string{}
	for _, h := range hits {
		out = append(out, h.ID)
	}
	return out
}

func TestApply_FreemiumOverridesVendorSelection(t *testing.T) {
	hits := []models.ProductViewModel{
		hit("worten", VendorWorten, 100),
		hit("amazon", VendorAmazon, 100),
	}
	f := DefaultFilter(session.PlanFreemium)
	f.Vendors = []string{VendorAmazon, VendorWorten}

	got := ids(Apply(hits, f))

	if !reflect.DeepEqual(got, []string{"worten"}) {
		t.Errorf("got %v, want [worten]", got)
	}
}

func TestApply(t *testing.T) {
	hits := []models.ProductViewModel{
		hit("a", VendorAmazon, 150),
		hit("b", VendorWorten, 200),
		hit("c", VendorMediaMarket, 2500),
		hit("d", VendorAmazon, 450),
		{ID: "e", Source: VendorWorten},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"defaults pass everything", DefaultFilter(session.PlanPremium), []string{"a", "b", "c", "d", "e"}},
		{"bucket upper bound exclusive", Filter{Buckets: []string{"0-200"}, Max: 3000}, []string{"a", "e"}},
		{"several buckets", Filter{Buckets: []string{"200-400", "400-600"}, Max: 3000}, []string{"b", "d"}},
		{"open ended bucket", Filter{Buckets: []string{"1500-2000+"}, Max: 3000}, []string{"c"}},
		{"unparseable buckets match nothing", Filter{Buckets: []string{"cheap"}, Max: 3000}, []string{}},
		{"custom range inclusive", Filter{Min: 150, Max: 450}, []string{"a", "b", "d"}},
		{"bucket and range both apply", Filter{Buckets: []string{"0-200", "400-600"}, Min: 100, Max: 400}, []string{"a"}},
		{"vendor selection", Filter{Vendors: []string{VendorAmazon}, Max: 3000}, []string{"a", "d"}},
		{"freemium ignores empty selection", Filter{Plan: session.PlanFreemium, Max: 3000}, []string{"b", "e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(hits, tt.filter))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStoresFor(t *testing.T) {
	tests := []struct {
		plan     session.Plan
		selected []string
		want     []string
	}{
		{session.PlanFreemium, []string{VendorAmazon}, []string{VendorWorten}},
		{session.PlanPremium, nil, Vendors},
		{session.PlanPro, []string{VendorMediaMarket}, []string{VendorMediaMarket}},
		{session.PlanUnset, []string{}, Vendors},
	}
	for _, tt := range tests {
		got := StoresFor(tt.plan, tt.selected)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("StoresFor(%q, %v) = %v, want %v", tt.plan, tt.selected, got, tt.want)
		}
	}

	got := StoresFor(session.PlanAgency, nil)
	got[0] = "mutated"
	if Vendors[0] != VendorAmazon {
		t.Error("StoresFor must not expose the package vendor list")
	}
}
