package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dealerscout/internal/database"
	"dealerscout/internal/models"
	"dealerscout/internal/pipeline"
	"dealerscout/internal/util"
	"dealerscout/internal/validation"
)

// Service is the pipeline surface used by the HTTP API.
type Service interface {
	Dealerships(ctx context.Context, zip string) ([]*models.Dealership, error)
	RunDiscovery(ctx context.Context, zip string, force bool) (*pipeline.DiscoveryResult, error)
	RefreshRegion(ctx context.Context, zip string, force bool) (models.RegionSummary, error)
	ScrapeInventory(ctx context.Context, dealerURL string) []*models.Car
	SaveCars(ctx context.Context, cars []*models.Car) (database.WriteResult, error)
	Cars(ctx context.Context, filter models.CarFilter) ([]*models.Car, error)
}

type RegionHandler struct {
	svc Service
}

func NewRegionHandler(svc Service) *RegionHandler {
	return &RegionHandler{svc: svc}
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/health [get]
func (h *RegionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// GetDealerships godoc
// @Summary List stored dealerships for a region
// @Tags regions
// @Produce json
// @Param zip path string true "ZIP code or city"
// @Success 200 {object} models.DealershipsResponse
// @Failure 400 {object} map[string]interface{} "Invalid location"
// @Router /api/regions/{zip}/dealerships [get]
func (h *RegionHandler) GetDealerships(c *gin.Context) {
	zip, ok := zipParam(c)
	if !ok {
		return
	}

	dealers, err := h.svc.Dealerships(c.Request.Context(), zip)
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to load dealerships", err)
		return
	}
	c.JSON(http.StatusOK, models.DealershipsResponse{ZipCode: zip, Count: len(dealers), Dealerships: dealers})
}

// Discover godoc
// @Summary Search the map for dealerships in a region
// @Description Runs a browser crawl when the region has no stored dealerships, or always with force=true. Requires the admin key and is throttled per region.
// @Tags regions
// @Produce json
// @Param zip path string true "ZIP code or city"
// @Param force query bool false "Crawl even if dealerships are already stored"
// @Param X-Admin-Key header string true "Admin key"
// @Success 200 {object} pipeline.DiscoveryResult
// @Failure 400 {object} map[string]interface{} "Invalid location"
// @Failure 401 {object} map[string]interface{} "Admin access required"
// @Failure 409 {object} map[string]interface{} "Discovery already running"
// @Failure 429 {object} map[string]interface{} "Request too frequent"
// @Failure 502 {object} map[string]interface{} "Browser session failed"
// @Router /api/regions/{zip}/discover [post]
func (h *RegionHandler) Discover(c *gin.Context) {
	zip, ok := zipParam(c)
	if !ok {
		return
	}

	result, err := h.svc.RunDiscovery(c.Request.Context(), zip, queryBool(c, "force"))
	if err != nil {
		if errors.Is(err, pipeline.ErrInProgress) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Discovery already running for this region"})
			return
		}
		util.SafeErrorResponse(c, util.StatusFor(err), "Dealership discovery failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Refresh godoc
// @Summary Refresh a region's inventory
// @Description Discovers dealerships if needed, scrapes every dealer site and saves the listings. Answers from the freshness cache unless force=true.
// @Tags regions
// @Produce json
// @Param zip path string true "ZIP code or city"
// @Param force query bool false "Ignore the freshness cache"
// @Param X-Admin-Key header string true "Admin key"
// @Success 200 {object} models.RegionSummary
// @Failure 400 {object} map[string]interface{} "Invalid location"
// @Failure 401 {object} map[string]interface{} "Admin access required"
// @Failure 429 {object} map[string]interface{} "Request too frequent"
// @Failure 409 {object} map[string]interface{} "Discovery already running"
// @Failure 502 {object} map[string]interface{} "Browser session failed"
// @Router /api/regions/{zip}/refresh [post]
func (h *RegionHandler) Refresh(c *gin.Context) {
	zip, ok := zipParam(c)
	if !ok {
		return
	}

	summary, err := h.svc.RefreshRegion(c.Request.Context(), zip, queryBool(c, "force"))
	if err != nil {
		if errors.Is(err, pipeline.ErrInProgress) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Discovery already running for this region"})
			return
		}
		util.SafeErrorResponse(c, util.StatusFor(err), "Region refresh failed", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Scrape godoc
// @Summary Scrape one dealer page
// @Description Fetches the page and returns every listing found. Fetch failures yield an empty list.
// @Tags inventory
// @Accept json
// @Produce json
// @Param request body models.ScrapeRequest true "Dealer page"
// @Param X-Admin-Key header string true "Admin key"
// @Success 200 {object} models.ScrapeResponse
// @Failure 400 {object} map[string]interface{} "Invalid URL"
// @Failure 401 {object} map[string]interface{} "Admin access required"
// @Router /api/scrape [post]
func (h *RegionHandler) Scrape(c *gin.Context) {
	var req models.ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
		return
	}
	dealerURL, err := validation.ValidateDealerURL(req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	cars := h.svc.ScrapeInventory(c.Request.Context(), dealerURL)
	resp := models.ScrapeResponse{URL: dealerURL, Count: len(cars), Cars: cars}

	if req.Save && len(cars) > 0 {
		write, err := h.svc.SaveCars(c.Request.Context(), cars)
		if err != nil {
			util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to save cars", err)
			return
		}
		resp.Saved = &write.Inserted
	}
	c.JSON(http.StatusOK, resp)
}

// SaveCars godoc
// @Summary Store listings
// @Tags inventory
// @Accept json
// @Produce json
// @Param request body models.SaveCarsRequest true "Listings to store"
// @Success 201 {object} models.SaveCarsResponse
// @Failure 400 {object} map[string]interface{} "Invalid listing"
// @Router /api/cars [post]
func (h *RegionHandler) SaveCars(c *gin.Context) {
	var req models.SaveCarsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
		return
	}
	for i, car := range req.Cars {
		if err := validateCar(car); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": fmt.Sprintf("car %d: %v", i, err)})
			return
		}
	}

	write, err := h.svc.SaveCars(c.Request.Context(), req.Cars)
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to save cars", err)
		return
	}
	c.JSON(http.StatusCreated, models.SaveCarsResponse{Inserted: write.Inserted, Failed: write.Failed})
}

// GetCars godoc
// @Summary Browse stored cars
// @Tags inventory
// @Produce json
// @Param location query string false "Source dealer URL"
// @Param make query string false "Make (case-insensitive)"
// @Param min_year query int false "Minimum model year"
// @Param max_year query int false "Maximum model year"
// @Param limit query int false "Maximum results (default 100, max 500)"
// @Success 200 {object} models.CarsResponse
// @Failure 400 {object} map[string]interface{} "Invalid filter"
// @Router /api/cars [get]
func (h *RegionHandler) GetCars(c *gin.Context) {
	var filter models.CarFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid filter"})
		return
	}
	if filter.MinYear > 0 && filter.MaxYear > 0 && filter.MinYear > filter.MaxYear {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "min_year must not exceed max_year"})
		return
	}

	cars, err := h.svc.Cars(c.Request.Context(), filter)
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to load cars", err)
		return
	}
	c.JSON(http.StatusOK, models.CarsResponse{Count: len(cars), Cars: cars})
}

func zipParam(c *gin.Context) (string, bool) {
	zip, err := validation.ValidateLocation(c.Param("zip"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return "", false
	}
	return zip, true
}

func queryBool(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.Query(name))
	return err == nil && v
}

func validateCar(car *models.Car) error {
	if car == nil {
		return errors.New("car is required")
	}
	if car.Make == "" || car.Model == "" {
		return errors.New("make and model are required")
	}
	if car.Year < 1900 || car.Year > 2099 {
		return errors.New("year must be between 1900 and 2099")
	}
	if car.Price == nil || *car.Price < 0 {
		return errors.New("price must be a non-negative number")
	}
	if car.Mileage == nil || *car.Mileage < 0 {
		return errors.New("mileage must be a non-negative number")
	}
	if _, err := validation.ValidateDealerURL(car.Location); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	return nil
}
