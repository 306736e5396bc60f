// Package search implements the aggregated property search: structured
// criteria derivation, the local and external query branches, merge/dedupe,
// and ranking. Both branches are best-effort; neither failing can fail the
// request.
package search

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"khumo/server/internal/database"
	"khumo/server/internal/intel"
	"khumo/server/internal/models"
	"khumo/server/internal/textquery"
)

type Aggregator struct {
	db           *database.Database
	intel        *intel.Client
	logger       *logrus.Logger
	defaultLimit int
	maxLimit     int
}

func NewAggregator(db *database.Database, intelClient *intel.Client, defaultLimit, maxLimit int, logger *logrus.Logger) *Aggregator {
	return &Aggregator{
		db:           db,
		intel:        intelClient,
		logger:       logger,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Search runs the full aggregation pipeline for one request: parse, query
// local, query external, merge, rank, truncate. It always produces a
// response; a search that matches nothing is an empty result list with zero
// stats, not an error.
func (a *Aggregator) Search(ctx context.Context, query, sortKey string, limit int) models.SearchResponse {
	if limit <= 0 {
		limit = a.defaultLimit
	}
	if limit > a.maxLimit {
		limit = a.maxLimit
	}

	criteria := textquery.Parse(query)

	local, err := a.db.SearchProperties(query, sortKey)
	if err != nil {
		a.logger.WithError(err).WithField("query", query).
			Error("Local property search failed, continuing with external results only")
		local = nil
	}

	external := a.intel.Search(ctx, query, criteria)

	merged := MergeAndDedupe(local, external)
	ranked := Rank(merged, sortKey)

	results := ranked
	if len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []models.UnifiedProperty{}
	}

	a.logger.WithFields(logrus.Fields{
		"query":    query,
		"local":    len(local),
		"external": len(external),
		"merged":   len(merged),
		"returned": len(results),
	}).Info("Aggregated search completed")

	return models.SearchResponse{
		Query:   query,
		Results: results,
		Stats: models.SearchStats{
			Total:    len(results),
			Local:    len(local),
			External: len(external),
			Merged:   len(merged),
		},
		Timestamp: time.Now().UTC(),
	}
}
