package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khumo/server/internal/database"
	"khumo/server/internal/intel"
	"khumo/server/internal/models"
	"khumo/server/internal/queue"
	"khumo/server/internal/search"
)

type testServer struct {
	router *gin.Engine
	db     *database.Database
	queue  *queue.ListingQueue
}

func newTestServer(t *testing.T, intelClient *intel.Client) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.NewDatabase(dbPath, 5*time.Minute, logger)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	if intelClient == nil {
		// Disabled provider: no credential configured
		intelClient = intel.NewClient("http://example.invalid", "", time.Second, logger)
	}

	aggregator := search.NewAggregator(db, intelClient, 20, 100, logger)
	listingQueue := queue.NewListingQueue(4, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	SetupRoutes(router, NewHandler(db, aggregator, listingQueue, logger))

	return &testServer{router: router, db: db, queue: listingQueue}
}

func (s *testServer) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func seedViaStore(t *testing.T, db *database.Database, title, address, city string, price float64) {
	t.Helper()

	beds := 3
	record := &models.PropertyRecord{
		Title:        title,
		Address:      address,
		City:         city,
		PropertyType: "house",
		Status:       "active",
		Price:        price,
		Bedrooms:     &beds,
	}
	require.NoError(t, db.CreateProperty(record))
}

func TestSearchEndpoint_ExternalDownStillReturns200(t *testing.T) {
	// Provider configured but unreachable: the request must still succeed
	// with local-only results
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()
	intelClient := intel.NewClient(dead.URL, "test-key", time.Second, logger)

	server := newTestServer(t, intelClient)
	seedViaStore(t, server.db, "Local House", "9 Tlokweng Road", "Gaborone", 450000)

	w := server.request(t, http.MethodGet, "/api/search?q=house", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var response models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "house", response.Query)
	assert.Equal(t, 0, response.Stats.External)
	assert.Equal(t, 1, response.Stats.Local)
	require.Len(t, response.Results, 1)
	assert.Equal(t, "Local House", response.Results[0].Title)
}

func TestSearchEndpoint_EmptyResultIsNotAnError(t *testing.T) {
	server := newTestServer(t, nil)

	w := server.request(t, http.MethodGet, "/api/search?q=house+in+kasane", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var response models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotNil(t, response.Results)
	assert.Empty(t, response.Results)
	assert.Equal(t, models.SearchStats{}, response.Stats)
}

func TestSearchEndpoint_LimitParsing(t *testing.T) {
	server := newTestServer(t, nil)
	for i := 0; i < 5; i++ {
		seedViaStore(t, server.db, fmt.Sprintf("House %d", i), fmt.Sprintf("%d Side Rd", i), "Gaborone", 400000)
	}

	w := server.request(t, http.MethodGet, "/api/search?q=house&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Results, 2)

	// Garbage limit falls back to the default rather than failing
	w = server.request(t, http.MethodGet, "/api/search?q=house&limit=banana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Results, 5)
}

func TestGetProperties_InvalidFilterRejected(t *testing.T) {
	server := newTestServer(t, nil)

	for _, path := range []string{
		"/api/properties?limit=500",
		"/api/properties?min_price=-5",
		"/api/properties?status=exploded",
		"/api/properties?sort=sideways",
		"/api/properties?min_lat=95",
	} {
		w := server.request(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "path %s", path)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Contains(t, body, "error")
		assert.Contains(t, body, "details")
	}
}

func TestGetProperties_FilterAndCount(t *testing.T) {
	server := newTestServer(t, nil)
	seedViaStore(t, server.db, "Cheap", "1 A St", "Gaborone", 100000)
	seedViaStore(t, server.db, "Pricey", "2 B St", "Gaborone", 900000)

	w := server.request(t, http.MethodGet, "/api/properties?min_price=500000", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Properties []models.PropertyRecord `json:"properties"`
		Count      int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Properties, 1)
	assert.Equal(t, "Pricey", body.Properties[0].Title)
}

func TestPropertyCRUD(t *testing.T) {
	server := newTestServer(t, nil)

	// Create
	w := server.request(t, http.MethodPost, "/api/properties", map[string]interface{}{
		"title": "New Listing",
		"city":  "Gaborone",
		"price": 350000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.PropertyRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	assert.Equal(t, "active", created.Status)

	// Read
	w = server.request(t, http.MethodGet, fmt.Sprintf("/api/properties/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Update
	w = server.request(t, http.MethodPut, fmt.Sprintf("/api/properties/%d", created.ID), map[string]interface{}{
		"title":  "Renamed Listing",
		"city":   "Gaborone",
		"status": "pending",
		"price":  360000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Delete
	w = server.request(t, http.MethodDelete, fmt.Sprintf("/api/properties/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = server.request(t, http.MethodGet, fmt.Sprintf("/api/properties/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPropertyCRUD_Validation(t *testing.T) {
	server := newTestServer(t, nil)

	// Missing title
	w := server.request(t, http.MethodPost, "/api/properties", map[string]interface{}{
		"city": "Gaborone",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Negative price
	w = server.request(t, http.MethodPost, "/api/properties", map[string]interface{}{
		"title": "Bad",
		"price": -5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Update of a missing row
	w = server.request(t, http.MethodPut, "/api/properties/424242", map[string]interface{}{
		"title": "Ghost",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Bad id formats
	w = server.request(t, http.MethodGet, "/api/properties/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = server.request(t, http.MethodDelete, "/api/properties/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchUpload(t *testing.T) {
	server := newTestServer(t, nil)

	var received []*models.PropertyRecord
	done := make(chan struct{})
	server.queue.Subscribe(func(batch []*models.PropertyRecord) error {
		received = batch
		close(done)
		return nil
	})
	server.queue.Start()

	w := server.request(t, http.MethodPost, "/api/properties/batch", map[string]interface{}{
		"listings": []map[string]interface{}{
			{"title": "Batch One", "city": "Gaborone", "price": 100000},
			{"title": "Batch Two", "city": "Maun", "price": 200000},
		},
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("batch was not delivered to the queue handler")
	}
	require.Len(t, received, 2)
	assert.Equal(t, "Batch One", received[0].Title)
}

func TestBatchUpload_Validation(t *testing.T) {
	server := newTestServer(t, nil)

	w := server.request(t, http.MethodPost, "/api/properties/batch", map[string]interface{}{
		"listings": []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = server.request(t, http.MethodPost, "/api/properties/batch", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchUpload_QueueFull(t *testing.T) {
	server := newTestServer(t, nil)

	// No consumer running and a buffer of 4: the fifth push overflows
	payload := map[string]interface{}{
		"listings": []map[string]interface{}{{"title": "X"}},
	}
	for i := 0; i < 4; i++ {
		w := server.request(t, http.MethodPost, "/api/properties/batch", payload)
		require.Equal(t, http.StatusAccepted, w.Code)
	}

	w := server.request(t, http.MethodPost, "/api/properties/batch", payload)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
