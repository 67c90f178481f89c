package httphandler

import "time"

type (
	Product struct {
		ProductID  string        `json:"product_id"`
		Name       string        `json:"name"`
		ImageURL   string        `json:"image_url"`
		Price      float64       `json:"price"`
		BulkPrice  float64       `json:"bulk_price"`
		PcsPerCase int           `json:"pcs_per_case"`
		BasePrice  string        `json:"base_price,omitempty"`
		Pricing    []PricingTier `json:"pricing"`
	}

	PricingTier struct {
		CaseRange    string `json:"case"`
		PricePerUnit string `json:"pricePerUnit"`
	}
)

// Quantity is a pointer so an omitted field (defaults to one case) is
// distinguishable from an explicit zero (rejected).
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

type (
	CartLine struct {
		ProductID     string        `json:"product_id"`
		Name          string        `json:"name"`
		ImageURL      string        `json:"image_url"`
		Quantity      int           `json:"quantity"`
		PcsPerCase    int           `json:"pcs_per_case"`
		UnitPrice     string        `json:"unit_price"`
		LineTotal     string        `json:"line_total"`
		ContactOffice bool          `json:"contact_office,omitempty"`
		Pricing       []PricingTier `json:"pricing"`
	}

	Cart struct {
		CartID       string     `json:"cart_id"`
		Lines        []CartLine `json:"lines"`
		Total        string     `json:"total"`
		TotalPartial bool       `json:"total_partial,omitempty"`
	}
)

type Warning struct {
	Warning string `json:"warning"`
}

type CartActivity struct {
	CartID     string    `json:"cart_id"`
	Events     int       `json:"events"`
	LastAction string    `json:"last_action"`
	LastSeen   time.Time `json:"last_seen"`
}
