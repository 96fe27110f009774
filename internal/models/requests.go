package models

// ScrapeRequest asks for one dealer page to be scraped.
type ScrapeRequest struct {
	URL  string `json:"url" binding:"required" example:"https://www.downtowntoyota.example/inventory"`
	Save bool   `json:"save" example:"false"`
}

// ScrapeResponse carries the listings found on one dealer page.
type ScrapeResponse struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
	Cars  []*Car `json:"cars"`
	Saved *int   `json:"saved,omitempty"`
}

// SaveCarsRequest submits listings for storage.
type SaveCarsRequest struct {
	Cars []*Car `json:"cars" binding:"required,min=1,max=1000"`
}

// SaveCarsResponse reports a batch insert.
type SaveCarsResponse struct {
	Inserted int `json:"inserted"`
	Failed   int `json:"failed"`
}

// DealershipsResponse lists the stored dealerships of one region.
type DealershipsResponse struct {
	ZipCode     string        `json:"zipCode"`
	Count       int           `json:"count"`
	Dealerships []*Dealership `json:"dealerships"`
}

// CarsResponse is a page of stored cars.
type CarsResponse struct {
	Count int    `json:"count"`
	Cars  []*Car `json:"cars"`
}
