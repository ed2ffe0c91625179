package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brickfund/config"
	"brickfund/internal/analytics"
	"brickfund/internal/database"
	"brickfund/internal/models"
	"brickfund/internal/service"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewTestDB()
	require.NoError(t, err)
	require.NoError(t, database.MigrateSchema(db))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	require.NoError(t, config.LoadCategories(filepath.Join(t.TempDir(), "categories.json")))

	router := gin.New()
	SetupRoutes(router, service.NewService(db, nil, nil, logger), logger)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func createPublishedProperty(t *testing.T, router *gin.Engine, lat, lon float64) models.Property {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/properties", gin.H{
		"owner_id":   "owner-1",
		"title":      "Canal house",
		"categories": []string{"residential"},
		"price":      500000,
		"tig":        100000,
		"mia":        500,
		"latitude":   lat,
		"longitude":  lon,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var property models.Property
	decode(t, w, &property)

	for _, status := range []string{"under_review", "published"} {
		w = doJSON(t, router, http.MethodPut, "/api/properties/"+property.ID+"/status", gin.H{"status": status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	return property
}

func TestCreateProperty(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"valid", gin.H{"owner_id": "o", "title": "Loft", "categories": []string{"commercial"}}, http.StatusCreated},
		{"missing title", gin.H{"owner_id": "o"}, http.StatusBadRequest},
		{"unknown category", gin.H{"owner_id": "o", "title": "Loft", "categories": []string{"moonbase"}}, http.StatusBadRequest},
		{"minimum above goal", gin.H{"owner_id": "o", "title": "Loft", "tig": 100, "mia": 200}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/properties", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestPropertyLifecycle(t *testing.T) {
	router := setupRouter(t)
	property := createPublishedProperty(t, router, 52.37, 4.89)

	w := doJSON(t, router, http.MethodPut, "/api/properties/"+property.ID+"/status", gin.H{"status": "draft"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/properties/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	for i := 0; i < 2; i++ {
		w = doJSON(t, router, http.MethodGet, "/api/properties/"+property.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/properties/"+property.ID+"/aggregate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var agg models.PropertyAggregate
	decode(t, w, &agg)
	assert.Equal(t, int64(2), agg.VisitCount)

	w = doJSON(t, router, http.MethodDelete, "/api/properties/"+property.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/properties/"+property.ID+"/aggregate", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListProperties_Filters(t *testing.T) {
	router := setupRouter(t)
	amsterdam := createPublishedProperty(t, router, 52.37, 4.89)
	createPublishedProperty(t, router, 48.85, 2.35)

	w := doJSON(t, router, http.MethodGet, "/api/properties?bbox=4.7,52.2,5.1,52.5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var properties []models.Property
	decode(t, w, &properties)
	require.Len(t, properties, 1)
	assert.Equal(t, amsterdam.ID, properties[0].ID)

	w = doJSON(t, router, http.MethodGet, "/api/properties?status=published&category=residential", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &properties)
	assert.Len(t, properties, 2)

	for _, query := range []string{"bbox=1,2,3", "min_price=cheap", "status=lost", "bbox=5,52,4,53"} {
		w = doJSON(t, router, http.MethodGet, "/api/properties?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestInvestmentsAndReviews(t *testing.T) {
	router := setupRouter(t)
	property := createPublishedProperty(t, router, 52.37, 4.89)

	w := doJSON(t, router, http.MethodPost, "/api/investments", gin.H{
		"property_id": property.ID, "investor_id": "investor-1", "amount": 100,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "below minimum investment")

	w = doJSON(t, router, http.MethodPost, "/api/investments", gin.H{
		"property_id": property.ID, "investor_id": "investor-1", "amount": 1000,
		"estimated_returns": 1100, "status": "finish",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv models.Investment
	decode(t, w, &inv)

	w = doJSON(t, router, http.MethodPatch, "/api/investments/"+inv.ID, gin.H{"estimated_returns": 1200})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/reviews", gin.H{
		"property_id": property.ID, "reviewer_id": "reviewer-1", "rating": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var review models.Review
	decode(t, w, &review)

	w = doJSON(t, router, http.MethodPost, "/api/reviews", gin.H{
		"property_id": property.ID, "reviewer_id": "reviewer-1", "rating": 2,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPatch, "/api/reviews/"+review.ID, gin.H{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/properties/"+property.ID+"/aggregate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var agg models.PropertyAggregate
	decode(t, w, &agg)
	assert.Equal(t, 20.0, agg.Yield)
	assert.Equal(t, int64(1), agg.NumberOfInvestors)
	assert.Equal(t, 4.0, agg.OverallRating)

	w = doJSON(t, router, http.MethodDelete, "/api/reviews/"+review.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, router, http.MethodDelete, "/api/investments/"+inv.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, router, http.MethodGet, "/api/investments/"+inv.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTokenomicsEndpoint(t *testing.T) {
	router := setupRouter(t)
	property := createPublishedProperty(t, router, 52.37, 4.89)

	w := doJSON(t, router, http.MethodPut, "/api/properties/"+property.ID+"/tokenomics", gin.H{
		"total_token_supply": 1000, "token_price": 10, "team": 50, "investors": 40,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/properties/"+property.ID+"/tokenomics", gin.H{
		"total_token_supply": 1000, "token_price": 10, "team": 50, "investors": 50,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/investments", gin.H{
		"property_id": property.ID, "investor_id": "investor-1", "amount": 20000,
	})
	assert.Equal(t, http.StatusConflict, w.Code, "only 1000 tokens exist")
}

func TestReports(t *testing.T) {
	router := setupRouter(t)
	property := createPublishedProperty(t, router, 52.37, 4.89)

	w := doJSON(t, router, http.MethodPost, "/api/investments", gin.H{
		"property_id": property.ID, "investor_id": "investor-1", "amount": 1000,
		"estimated_returns": 1100, "status": "finish",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/metrics?period=week", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report analytics.MetricsReport
	decode(t, w, &report)
	assert.Equal(t, analytics.PeriodWeek, report.Period)
	assert.Equal(t, 1000.0, report.Revenue.Current)

	w = doJSON(t, router, http.MethodGet, "/api/metrics?period=decade", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, router, http.MethodGet, "/api/metrics?anchor=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/investors/investor-1/metrics?period=day", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &report)
	assert.Equal(t, "investor", report.Scope)
	assert.Equal(t, 1.0, report.Investments.Current)

	w = doJSON(t, router, http.MethodGet, "/api/investors/investor-1/portfolio", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var portfolio analytics.PortfolioReport
	decode(t, w, &portfolio)
	assert.Equal(t, 1000.0, portfolio.TotalInvested)
	assert.Len(t, portfolio.Positions, 1)
}

func TestCategoryRoutes(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var categories []config.Category
	decode(t, w, &categories)
	assert.Len(t, categories, len(config.DefaultCategories))

	w = doJSON(t, router, http.MethodPut, "/api/categories/Farmland", gin.H{"description": "Agricultural plots"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, config.IsSupportedCategory("farmland"))

	w = doJSON(t, router, http.MethodDelete, "/api/categories/farmland", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, config.IsSupportedCategory("farmland"))

	w = doJSON(t, router, http.MethodDelete, "/api/categories/farmland", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
