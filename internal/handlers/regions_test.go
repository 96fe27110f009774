package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"dealerscout/internal/database"
	"dealerscout/internal/discovery"
	"dealerscout/internal/errs"
	"dealerscout/internal/models"
	"dealerscout/internal/pipeline"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	dealers     []*models.Dealership
	discoverErr error
	refreshErr  error
	scraped     []*models.Car
	saved       [][]*models.Car
	lastFilter  models.CarFilter
	lastForce   bool
	lastZip     string
	scrapeCalls int
}

func (f *fakeService) Dealerships(ctx context.Context, zip string) ([]*models.Dealership, error) {
	f.lastZip = zip
	return f.dealers, nil
}

func (f *fakeService) RunDiscovery(ctx context.Context, zip string, force bool) (*pipeline.DiscoveryResult, error) {
	f.lastZip, f.lastForce = zip, force
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	return &pipeline.DiscoveryResult{
		ZipCode: zip,
		Run: &discovery.RunResult{
			ZipCode: zip,
			States:  []discovery.State{discovery.StateIdle, discovery.StateDone},
			Write:   database.WriteResult{Inserted: 2},
		},
	}, nil
}

func (f *fakeService) RefreshRegion(ctx context.Context, zip string, force bool) (models.RegionSummary, error) {
	f.lastZip, f.lastForce = zip, force
	if f.refreshErr != nil {
		return models.RegionSummary{}, f.refreshErr
	}
	return models.RegionSummary{ZipCode: zip, Dealerships: 3, CarsSaved: 7}, nil
}

func (f *fakeService) ScrapeInventory(ctx context.Context, dealerURL string) []*models.Car {
	f.scrapeCalls++
	return f.scraped
}

func (f *fakeService) SaveCars(ctx context.Context, cars []*models.Car) (database.WriteResult, error) {
	f.saved = append(f.saved, cars)
	return database.WriteResult{Inserted: len(cars)}, nil
}

func (f *fakeService) Cars(ctx context.Context, filter models.CarFilter) ([]*models.Car, error) {
	f.lastFilter = filter
	return []*models.Car{{Make: "Toyota", Model: "Camry", Year: 2020}}, nil
}

func newTestRouter(svc Service) *gin.Engine {
	r := gin.New()
	RegisterRoutes(r, NewRegionHandler(svc), RouteOptions{
		AdminKey:         "s3cret",
		RateLimit:        1000,
		RateBurst:        1000,
		DiscoverInterval: time.Hour,
	})
	return r
}

func performRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	rec := performRequest(newTestRouter(&fakeService{}), http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	decode(t, rec, &resp)
	if resp["status"] != "ok" {
		t.Fatalf("unexpected body: %v", resp)
	}
}

func TestGetDealerships(t *testing.T) {
	svc := &fakeService{dealers: []*models.Dealership{
		{Name: "Downtown Toyota", WebsiteURL: "https://toyota.example", ZipCode: "10001"},
	}}
	r := newTestRouter(svc)

	rec := performRequest(r, http.MethodGet, "/api/regions/10001/dealerships", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.DealershipsResponse
	decode(t, rec, &resp)
	if resp.Count != 1 || resp.Dealerships[0].Name != "Downtown Toyota" || resp.ZipCode != "10001" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	rec = performRequest(r, http.MethodGet, "/api/regions/%3Cscript%3E/dealerships", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid location, got %d", rec.Code)
	}
}

func TestDiscoverRequiresAdminKey(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	rec := performRequest(r, http.MethodPost, "/api/regions/10001/discover", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}
	if svc.lastZip != "" {
		t.Fatal("discovery must not run without the admin key")
	}
}

func TestDiscoverRunsAndThrottles(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)
	admin := map[string]string{"X-Admin-Key": "s3cret"}

	rec := performRequest(r, http.MethodPost, "/api/regions/10001/discover?force=true", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !svc.lastForce || svc.lastZip != "10001" {
		t.Fatalf("expected forced discovery for 10001, got zip=%q force=%v", svc.lastZip, svc.lastForce)
	}

	var resp map[string]interface{}
	decode(t, rec, &resp)
	run := resp["run"].(map[string]interface{})
	states := run["states"].([]interface{})
	if states[len(states)-1] != "done" {
		t.Fatalf("expected named states, got %v", states)
	}

	rec = performRequest(r, http.MethodPost, "/api/regions/10001/discover", nil, admin)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on repeat discovery, got %d", rec.Code)
	}
}

func TestDiscoverErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"in progress", pipeline.ErrInProgress, http.StatusConflict},
		{"browser", errs.Browser("open session", "", errors.New("no chrome")), http.StatusBadGateway},
		{"persistence", errs.Persistence("commit", "dealerships", errors.New("locked")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakeService{discoverErr: tt.err})
			rec := performRequest(r, http.MethodPost, "/api/regions/10001/discover", nil, map[string]string{"X-Admin-Key": "s3cret"})
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestRefreshRequiresAdminKey(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	rec := performRequest(r, http.MethodPost, "/api/regions/10001/refresh", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}
	rec = performRequest(r, http.MethodPost, "/api/regions/10001/refresh", nil, map[string]string{"X-Admin-Key": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", rec.Code)
	}
	if svc.lastZip != "" {
		t.Fatal("refresh must not run without the admin key")
	}
}

func TestRefresh(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)
	admin := map[string]string{"X-Admin-Key": "s3cret"}

	rec := performRequest(r, http.MethodPost, "/api/regions/Austin,%20TX/refresh", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summary models.RegionSummary
	decode(t, rec, &summary)
	if summary.ZipCode != "Austin, TX" || summary.CarsSaved != 7 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if svc.lastForce {
		t.Fatal("expected unforced refresh by default")
	}

	rec = performRequest(r, http.MethodPost, "/api/regions/Austin,%20TX/refresh", nil, admin)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on repeat refresh, got %d", rec.Code)
	}

	r = newTestRouter(&fakeService{refreshErr: context.DeadlineExceeded})
	rec = performRequest(r, http.MethodPost, "/api/regions/10001/refresh", nil, admin)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504 on deadline, got %d", rec.Code)
	}
}

func TestScrapeRequiresAdminKey(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	rec := performRequest(r, http.MethodPost, "/api/scrape", models.ScrapeRequest{URL: "http://127.0.0.1:8080/admin"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}
	if svc.scrapeCalls != 0 {
		t.Fatal("scrape must not fetch without the admin key")
	}
}

func TestScrape(t *testing.T) {
	svc := &fakeService{scraped: []*models.Car{
		{Make: "Toyota", Model: "Camry", Year: 2020, Price: models.IntPtr(15000), Location: "https://toyota.example"},
	}}
	r := newTestRouter(svc)
	admin := map[string]string{"X-Admin-Key": "s3cret"}

	rec := performRequest(r, http.MethodPost, "/api/scrape", models.ScrapeRequest{URL: "https://toyota.example"}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.ScrapeResponse
	decode(t, rec, &resp)
	if resp.Count != 1 || resp.Saved != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(svc.saved) != 0 {
		t.Fatal("scrape without save must not persist")
	}

	rec = performRequest(r, http.MethodPost, "/api/scrape", models.ScrapeRequest{URL: "https://toyota.example", Save: true}, admin)
	decode(t, rec, &resp)
	if resp.Saved == nil || *resp.Saved != 1 || len(svc.saved) != 1 {
		t.Fatalf("expected one saved car, got %+v", resp)
	}

	rec = performRequest(r, http.MethodPost, "/api/scrape", models.ScrapeRequest{URL: "ftp://toyota.example"}, admin)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-http url, got %d", rec.Code)
	}
}

func TestScrapeEmptyResult(t *testing.T) {
	r := newTestRouter(&fakeService{})
	rec := performRequest(r, http.MethodPost, "/api/scrape", models.ScrapeRequest{URL: "https://down.example"}, map[string]string{"X-Admin-Key": "s3cret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]interface{}
	decode(t, rec, &resp)
	if resp["count"].(float64) != 0 {
		t.Fatalf("expected zero cars, got %v", resp)
	}
}

func TestSaveCars(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	body := models.SaveCarsRequest{Cars: []*models.Car{
		{Make: "Honda", Model: "Civic", Year: 2018, Price: models.IntPtr(9000), Mileage: models.IntPtr(60000), Location: "https://honda.example"},
	}}
	rec := performRequest(r, http.MethodPost, "/api/cars", body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.SaveCarsResponse
	decode(t, rec, &resp)
	if resp.Inserted != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	bad := []models.SaveCarsRequest{
		{},
		{Cars: []*models.Car{{Make: "Honda", Model: "Civic", Year: 1850, Location: "https://honda.example"}}},
		{Cars: []*models.Car{{Make: "", Model: "Civic", Year: 2018, Location: "https://honda.example"}}},
		{Cars: []*models.Car{{Make: "Honda", Model: "Civic", Year: 2018, Location: "not a url"}}},
		{Cars: []*models.Car{{Make: "Honda", Model: "Civic", Year: 2018, Mileage: models.IntPtr(60000), Location: "https://honda.example"}}},
		{Cars: []*models.Car{{Make: "Honda", Model: "Civic", Year: 2018, Price: models.IntPtr(9000), Location: "https://honda.example"}}},
		{Cars: []*models.Car{{Make: "Honda", Model: "Civic", Year: 2018, Price: models.IntPtr(-1), Mileage: models.IntPtr(60000), Location: "https://honda.example"}}},
		{Cars: []*models.Car{{Make: "Honda", Model: "Civic", Year: 2018, Price: models.IntPtr(9000), Mileage: models.IntPtr(-5), Location: "https://honda.example"}}},
	}
	for i, b := range bad {
		rec := performRequest(r, http.MethodPost, "/api/cars", b, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d", i, rec.Code)
		}
	}
	if len(svc.saved) != 1 {
		t.Fatalf("invalid batches must not be saved, got %d batches", len(svc.saved))
	}
}

func TestGetCars(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	rec := performRequest(r, http.MethodGet, "/api/cars?make=toyota&min_year=2015&max_year=2021&limit=10", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := models.CarFilter{Make: "toyota", MinYear: 2015, MaxYear: 2021, Limit: 10}
	if svc.lastFilter != want {
		t.Fatalf("expected filter %+v, got %+v", want, svc.lastFilter)
	}

	for _, q := range []string{"?limit=0&min_year=abc", "?min_year=2021&max_year=2015", "?limit=900"} {
		rec := performRequest(r, http.MethodGet, "/api/cars"+q, nil, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}
