package sponsors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ukpython/ukpython/pkg/ukpython/dates"
	"github.com/ukpython/ukpython/pkg/ukpython/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db)
	api := r.Group("/api")
	handler.RegisterRoutes(api)
	return r
}

func createTestSponsor(t *testing.T, db *gorm.DB, key, name string) models.Sponsor {
	sponsor := models.Sponsor{Record: models.Record{Key: key}, Name: name}
	if err := db.Create(&sponsor).Error; err != nil {
		t.Fatalf("Failed to create test sponsor: %v", err)
	}
	return sponsor
}

func TestListSponsors(t *testing.T) {
	db := setupTestDB(t)
	createTestSponsor(t, db, "zeta", "Zeta Corp")
	createTestSponsor(t, db, "acme", "Acme Ltd")
	r := setupTestRouter(db)

	req := httptest.NewRequest(http.MethodGet, "/api/sponsors?per_page=1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var page struct {
		Items   []SponsorResponse `json:"items"`
		PerPage int               `json:"per_page"`
		Total   int64             `json:"total"`
	}
	json.Unmarshal(w.Body.Bytes(), &page)
	if page.Total != 2 || page.PerPage != 1 {
		t.Errorf("Expected total 2 and per_page 1, got %d and %d", page.Total, page.PerPage)
	}
	if len(page.Items) != 1 || page.Items[0].Name != "Acme Ltd" {
		t.Errorf("Expected Acme Ltd first, got %+v", page.Items)
	}
}

func TestListSponsorsBadParams(t *testing.T) {
	r := setupTestRouter(setupTestDB(t))

	req := httptest.NewRequest(http.MethodGet, "/api/sponsors?page=0", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetSponsor(t *testing.T) {
	db := setupTestDB(t)
	acme := createTestSponsor(t, db, "acme", "Acme Ltd")
	other := createTestSponsor(t, db, "zeta", "Zeta Corp")
	for _, item := range []models.SponsoredNewsItem{
		{Record: models.Record{Key: "2024-01-01-acme"}, SponsorID: acme.ID, Date: dates.Date(2024, time.January, 1)},
		{Record: models.Record{Key: "2024-03-01-acme"}, SponsorID: acme.ID, Date: dates.Date(2024, time.March, 1)},
		{Record: models.Record{Key: "2024-02-01-zeta"}, SponsorID: other.ID, Date: dates.Date(2024, time.February, 1)},
	} {
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("Failed to create sponsored news: %v", err)
		}
	}
	r := setupTestRouter(db)

	req := httptest.NewRequest(http.MethodGet, "/api/sponsors/acme", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp SponsorDetailResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.NewsItems) != 2 {
		t.Fatalf("Expected 2 news items, got %d", len(resp.NewsItems))
	}
	if resp.NewsItems[0].Key != "2024-03-01-acme" {
		t.Errorf("Expected newest item first, got %s", resp.NewsItems[0].Key)
	}
	if resp.NewsItems[0].SponsorKey != "acme" {
		t.Errorf("Expected sponsor key acme, got %s", resp.NewsItems[0].SponsorKey)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sponsors/nobody", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
