package types

import "time"

// Holding is one row of the holdings table. Rows sharing a Name are
// aggregated into one Allocation. Cells keeps the raw cell text so callers
// can reach columns the parser does not name.
type Holding struct {
	Name      string   `json:"name"`
	Valuation int64    `json:"valuation"`
	Cells     []string `json:"cells,omitempty"`
}

// Allocation is the share of the grand total held in one group.
type Allocation struct {
	Name    string  `json:"name"`
	Total   int64   `json:"total"`
	Percent float64 `json:"percent"`
}

type Portfolio struct {
	Holdings    []Holding    `json:"holdings"`
	Allocations []Allocation `json:"allocations"`
	Total       int64        `json:"total"`
	FetchedAt   time.Time    `json:"fetched_at"`
}

// SellOrder carries the caller-supplied part of a spot sell order; every
// other field of the order form is fixed.
type SellOrder struct {
	Code     string
	Quantity int
	Price    string
}

type OrderResult struct {
	Status  string   `json:"status"`
	Message []string `json:"message"`
}
