package api

import (
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"khumo/server/internal/database"
	"khumo/server/internal/models"
	"khumo/server/internal/queue"
	"khumo/server/internal/search"
)

type Handler struct {
	db         *database.Database
	aggregator *search.Aggregator
	queue      *queue.ListingQueue
	logger     *logrus.Logger
}

type BatchRequest struct {
	Listings []*models.PropertyRecord `json:"listings" binding:"required"`
}

func NewHandler(db *database.Database, aggregator *search.Aggregator, listingQueue *queue.ListingQueue, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:         db,
		aggregator: aggregator,
		queue:      listingQueue,
		logger:     logger,
	}
}

// Search is the aggregation endpoint. Any string is a valid query, so the
// only parsing here is the result limit; partial upstream failures have
// already been degraded to empty branches by the time this responds.
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	sortKey := c.DefaultQuery("sort", "relevance")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	response := h.aggregator.Search(c.Request.Context(), query, sortKey, limit)
	c.JSON(http.StatusOK, response)
}

// GetProperties serves the plain listing browse endpoint backed by the
// repository filter query.
func (h *Handler) GetProperties(c *gin.Context) {
	var filter models.PropertyFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.logger.WithError(err).Error("Failed to parse property filter")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid filter parameters",
			"details": err.Error(),
		})
		return
	}

	records, err := h.db.FilterProperties(filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to filter properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get properties"})
		return
	}
	if records == nil {
		records = []models.PropertyRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": records,
		"count":      len(records),
	})
}

func (h *Handler) GetProperty(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	record, err := h.db.GetProperty(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *Handler) CreateProperty(c *gin.Context) {
	var record models.PropertyRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		h.logger.WithError(err).Error("Failed to parse property payload")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid property payload",
			"details": err.Error(),
		})
		return
	}

	if record.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}
	if record.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must not be negative"})
		return
	}
	if record.Status == "" {
		record.Status = "active"
	}
	if record.ListingType == "" {
		record.ListingType = "sale"
	}

	if err := h.db.CreateProperty(&record); err != nil {
		h.logger.WithError(err).Error("Failed to create property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create property"})
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *Handler) UpdateProperty(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	var record models.PropertyRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		h.logger.WithError(err).Error("Failed to parse property payload")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid property payload",
			"details": err.Error(),
		})
		return
	}
	record.ID = id

	existing, err := h.db.GetProperty(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update property"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	if err := h.db.UpdateProperty(&record); err != nil {
		h.logger.WithError(err).Error("Failed to update property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update property"})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *Handler) DeleteProperty(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	existing, err := h.db.GetProperty(id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete property"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	if err := h.db.DeleteProperty(id); err != nil {
		h.logger.WithError(err).Error("Failed to delete property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete property"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// BatchUpload accepts a batch of listings and hands them to the ingest
// queue. The write happens asynchronously in the batch processor.
func (h *Handler) BatchUpload(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse batch payload")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid batch payload",
			"details": err.Error(),
		})
		return
	}

	if len(req.Listings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Batch must contain at least one listing"})
		return
	}

	if err := h.queue.Push(req.Listings); err != nil {
		h.logger.WithError(err).Error("Failed to enqueue listing batch")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ingest queue unavailable, try again later"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":     "queued",
		"batch_size": len(req.Listings),
	})
}
