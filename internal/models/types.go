package models

import "encoding/json"

// Backend payloads. Optional fields are pointers so that "absent" and
// "empty" stay distinguishable until the projector fills defaults.

type PricePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type Offer struct {
	Source      *string      `json:"source,omitempty"`
	URL         *string      `json:"url,omitempty"`
	LastUpdated *string      `json:"lastUpdated,omitempty"`
	Prices      []PricePoint `json:"prices,omitempty"`
}

type Product struct {
	ID       string  `json:"id"`
	Name     *string `json:"name,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
	Brand    *string `json:"brand,omitempty"`
	Model    *string `json:"model,omitempty"`
	Color    *string `json:"color,omitempty"`
	Memory   *string `json:"memory,omitempty"`
	Currency *string `json:"currency,omitempty"`
	URL      *string `json:"url,omitempty"`
	Category *string `json:"category,omitempty"`
	Offers   []Offer `json:"offers,omitempty"`
}

// UnmarshalJSON accepts the backend's Mongo-style "_id" alongside "id".
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Product(aux.plain)
	if p.ID == "" {
		p.ID = aux.MongoID
	}
	return nil
}

type Alert struct {
	Type string `json:"type"`
}

// Favorite.Product is populated when the backend expands productId into
// the full record; ProductID always carries the reference.
type Favorite struct {
	ID        string   `json:"id"`
	ProductID string   `json:"productId"`
	Product   *Product `json:"product,omitempty"`
	Alerts    []Alert  `json:"alerts"`
}

func (f *Favorite) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID        string          `json:"id"`
		MongoID   string          `json:"_id"`
		ProductID json.RawMessage `json:"productId"`
		Alerts    []Alert         `json:"alerts"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.ID = aux.ID
	if f.ID == "" {
		f.ID = aux.MongoID
	}
	f.Alerts = aux.Alerts
	f.Product = nil
	f.ProductID = ""

	if len(aux.ProductID) == 0 || string(aux.ProductID) == "null" {
		return nil
	}
	if aux.ProductID[0] == '{' {
		var p Product
		if err := json.Unmarshal(aux.ProductID, &p); err != nil {
			return err
		}
		f.Product = &p
		f.ProductID = p.ID
		return nil
	}
	return json.Unmarshal(aux.ProductID, &f.ProductID)
}

type Notification struct {
	ID        string          `json:"id"`
	Title     string          `json:"title,omitempty"`
	Message   string          `json:"message,omitempty"`
	ProductID string          `json:"productId,omitempty"`
	Read      bool            `json:"read"`
	CreatedAt string          `json:"createdAt,omitempty"`
	Extra     json.RawMessage `json:"data,omitempty"`
}

// View-models returned to the browser. Every field is filled; text fields
// use NotAvailable instead of being empty.

const (
	NotAvailable     = "N/A"
	PlaceholderImage = "/images/placeholder-phone.jpg"
)

type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type SourceSeries struct {
	Source string        `json:"source"`
	Data   []SeriesPoint `json:"data"`
}

type OfferView struct {
	Source      string `json:"source"`
	URL         string `json:"url"`
	LastUpdated string `json:"lastUpdated"`
	Price       string `json:"price"`
}

type ProductViewModel struct {
	ID                   string         `json:"id"`
	Title                string         `json:"title"`
	Image                string         `json:"image"`
	Price                string         `json:"price"`
	LatestPrice          *float64       `json:"latestPrice"`
	Brand                string         `json:"brand"`
	Model                string         `json:"model"`
	Color                string         `json:"color"`
	Memory               string         `json:"memory"`
	Source               string         `json:"source"`
	LastUpdated          string         `json:"lastUpdated"`
	Currency             string         `json:"currency"`
	Link                 string         `json:"link"`
	Offers               []OfferView    `json:"offers"`
	PriceHistoryBySource []SourceSeries `json:"priceHistoryBySource"`
}

type ChartPoint struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

type ChartDataset struct {
	Label  string       `json:"label"`
	Source string       `json:"source"`
	Data   []ChartPoint `json:"data"`
}

type Chart struct {
	YAxisLabel string         `json:"yAxisLabel"`
	Datasets   []ChartDataset `json:"datasets"`
}

type FavoriteView struct {
	ID        string           `json:"id"`
	ProductID string           `json:"productId"`
	Alerts    []Alert          `json:"alerts"`
	Product   ProductViewModel `json:"product"`
}

type ProductDetail struct {
	Product    ProductViewModel `json:"product"`
	Chart      Chart            `json:"chart"`
	IsFavorite bool             `json:"isFavorite"`
	FavoriteID string           `json:"favoriteId,omitempty"`
}
