package models

import (
	"strconv"
	"time"
)

// UnknownToken stands in for a make or model the listing text did not yield.
const UnknownToken = "Unknown"

// Car represents one extracted inventory listing
type Car struct {
	ID        int64     `json:"id" yaml:"id"`
	Make      string    `json:"make" yaml:"make"`
	Model     string    `json:"model" yaml:"model"`
	Year      int       `json:"year" yaml:"year"`
	Mileage   *int      `json:"mileage" yaml:"mileage"`
	Price     *int      `json:"price" yaml:"price"`
	Location  string    `json:"location" yaml:"location"` // source dealer URL
	Color     *string   `json:"color" yaml:"color"`
	ImageURL  *string   `json:"imageUrl" yaml:"image_url"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// Dealership represents a brand-filtered map search result
type Dealership struct {
	ID         int64     `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Address    *string   `json:"address" yaml:"address"`
	Phone      *string   `json:"phone" yaml:"phone"`
	WebsiteURL string    `json:"websiteUrl" yaml:"website_url"`
	Brand      *string   `json:"brand" yaml:"brand"`
	ZipCode    string    `json:"zipCode" yaml:"zip_code"`
	CreatedAt  time.Time `json:"createdAt" yaml:"created_at"`
}

// CarFilter narrows browsing queries. Zero values mean "no constraint".
type CarFilter struct {
	Location string `form:"location"`
	Make     string `form:"make"`
	MinYear  int    `form:"min_year" binding:"omitempty,min=1900"`
	MaxYear  int    `form:"max_year" binding:"omitempty,min=1900"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// RegionSummary reports the outcome of refreshing one region
type RegionSummary struct {
	ZipCode        string        `json:"zipCode" yaml:"zip_code"`
	Dealerships    int           `json:"dealerships" yaml:"dealerships"`
	NewDealerships int           `json:"newDealerships" yaml:"new_dealerships"`
	DealersVisited int           `json:"dealersVisited" yaml:"dealers_visited"`
	DealersFailed  int           `json:"dealersFailed" yaml:"dealers_failed"`
	CarsFound      int           `json:"carsFound" yaml:"cars_found"`
	CarsSaved      int           `json:"carsSaved" yaml:"cars_saved"`
	Cached         bool          `json:"cached" yaml:"cached"`
	Duration       time.Duration `json:"duration" yaml:"duration"`
	FinishedAt     time.Time     `json:"finishedAt" yaml:"finished_at"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Title renders the car as "2020 Toyota Camry".
func (c *Car) Title() string {
	return strconv.Itoa(c.Year) + " " + c.Make + " " + c.Model
}
