package catalog

type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product as published by the catalog API
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}
