package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"khumo/server/config"
	"khumo/server/internal/database"
	"khumo/server/internal/models"
	"khumo/server/internal/queue"
)

// BatchProcessor drains listing batches from the ingest queue and upserts
// them transactionally, invalidating the repository query cache after each
// committed batch.
type BatchProcessor struct {
	gdb       *gorm.DB
	store     *database.Database
	logger    *logrus.Logger
	config    *config.Config
	queue     *queue.ListingQueue
	waitGroup sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance.
func NewBatchProcessor(gdb *gorm.DB, store *database.Database, listingQueue *queue.ListingQueue, cfg *config.Config, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		gdb:    gdb,
		store:  store,
		queue:  listingQueue,
		config: cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing batches from the queue.
func (p *BatchProcessor) Start() {
	for i := 0; i < p.config.BatchProcessing.ProcessorCount; i++ {
		p.waitGroup.Add(1)
		go p.processLoop()
	}
}

// Stop gracefully shuts down the processor.
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.waitGroup.Wait()
}

func (p *BatchProcessor) processLoop() {
	defer p.waitGroup.Done()

	p.queue.Subscribe(func(batch []*models.PropertyRecord) error {
		return p.processBatch(batch)
	})
}

// processBatch handles a single batch of listings with transaction and
// retry logic.
func (p *BatchProcessor) processBatch(batch []*models.PropertyRecord) error {
	var err error
	for attempt := 0; attempt <= p.config.BatchProcessing.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.BatchProcessing.MaxRetries)
			time.Sleep(time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second)
		}

		err = p.gdb.Transaction(func(tx *gorm.DB) error {
			if err := database.UpsertProperties(tx, batch); err != nil {
				return fmt.Errorf("failed to upsert listing batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.store.InvalidateCache()
			p.logger.Infof("Successfully processed batch of %d listings", len(batch))
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", p.config.BatchProcessing.MaxRetries, err)
}
