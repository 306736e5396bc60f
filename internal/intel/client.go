// Package intel talks to the external AI search provider. The provider is a
// soft dependency: every failure mode (missing credential, network error,
// non-2xx status, unparseable body, timeout) degrades to an empty result
// list so a search can still answer from local data alone.
package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"khumo/server/internal/models"
	"khumo/server/internal/normalize"
)

const defaultScore = 0.8

type Client struct {
	logger  *logrus.Logger
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		logger:  logger,
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Enabled reports whether a provider credential is configured. Running
// without one is a valid state, not an error.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type searchRequest struct {
	Query   string                `json:"query"`
	Filters models.SearchCriteria `json:"filters"`
}

type searchResponse struct {
	Results []map[string]interface{} `json:"results"`
}

// Search forwards the query and derived criteria to the provider and maps
// its results into unified records. It never returns an error: failures are
// logged and collapsed to an empty list at this boundary.
func (c *Client) Search(ctx context.Context, query string, criteria models.SearchCriteria) []models.UnifiedProperty {
	if !c.Enabled() {
		c.logger.Debug("External intelligence disabled, skipping")
		return []models.UnifiedProperty{}
	}

	results, err := c.search(ctx, query, criteria)
	if err != nil {
		c.logger.WithError(err).WithField("query", query).
			Warn("External intelligence search failed, continuing with local results only")
		return []models.UnifiedProperty{}
	}
	return results
}

func (c *Client) search(ctx context.Context, query string, criteria models.SearchCriteria) ([]models.UnifiedProperty, error) {
	payload, err := json.Marshal(searchRequest{Query: query, Filters: criteria})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/intel/search", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("intelligence request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("intelligence API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}

	results := make([]models.UnifiedProperty, 0, len(parsed.Results))
	for i, item := range parsed.Results {
		results = append(results, mapResult(i, item))
	}

	c.logger.WithFields(logrus.Fields{
		"query":   query,
		"results": len(results),
	}).Info("External intelligence search completed")

	return results, nil
}

// mapResult converts one provider item into a unified record, coercing the
// provider's loosely typed fields defensively.
func mapResult(index int, item map[string]interface{}) models.UnifiedProperty {
	id := externalID(index, item["id"])

	score := defaultScore
	if s := normalize.Float(item["score"]); s != nil {
		score = *s
	}

	propertyType := normalize.String(item["property_type"])
	if propertyType == "" {
		propertyType = normalize.String(item["type"])
	}

	agency := models.Agency{Name: "External Agent"}
	if rawAgency, ok := item["agency"].(map[string]interface{}); ok {
		if name := normalize.String(rawAgency["name"]); name != "" {
			agency.Name = name
		}
		agency.Contact = normalize.String(rawAgency["contact"])
	}

	coordinates := normalize.Coordinates(item["latitude"], item["longitude"])
	if rawCoords, ok := item["coordinates"].(map[string]interface{}); ok {
		coordinates = normalize.Coordinates(rawCoords["lat"], rawCoords["lng"])
	}

	return models.UnifiedProperty{
		ID:           id,
		Title:        normalize.String(item["title"]),
		Description:  normalize.String(item["description"]),
		Address:      normalize.String(item["address"]),
		City:         normalize.String(item["city"]),
		Price:        normalize.Price(item["price"]),
		Bedrooms:     normalize.Int(item["bedrooms"]),
		Bathrooms:    normalize.Float(item["bathrooms"]),
		PropertyType: propertyType,
		Source:       models.SourceExternal,
		Score:        &score,
		Images:       normalize.StringList(item["images"]),
		Coordinates:  coordinates,
		Agency:       agency,
	}
}

// externalID builds a source-prefixed id, falling back to the result's
// position when the provider omits one.
func externalID(index int, raw interface{}) string {
	switch v := raw.(type) {
	case string:
		if v != "" {
			return "external_" + v
		}
	case float64:
		return "external_" + strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprintf("external_%d", index)
}
