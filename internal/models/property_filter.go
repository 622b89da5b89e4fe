package models

// Page-size bounds for the public search endpoint.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// PropertyFilter carries the search criteria for the public listing endpoint.
// Zero values mean "no constraint".
type PropertyFilter struct {
	City      string
	PriceFrom float64
	PriceTo   float64
	Bedrooms  int
	Bathrooms int
	MinRating int
	Page      int
	Size      int
}
