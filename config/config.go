package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// Server configuration
	Server struct {
		Port   string `env:"SERVER_PORT" envDefault:"5280"`
		DBPath string `env:"DB_PATH" envDefault:"database/khumo.db"`
	}

	// External intelligence provider configuration. An empty API key means
	// the provider is disabled and searches run local-only.
	Intel struct {
		BaseURL        string `env:"INTEL_BASE_URL" envDefault:"https://intel.khumo.co.bw"`
		APIKey         string `env:"INTEL_API_KEY"`
		TimeoutSeconds int    `env:"INTEL_TIMEOUT_SECONDS" envDefault:"8"`
	}

	// Search limits for the aggregation endpoint
	Search struct {
		DefaultLimit int `env:"SEARCH_DEFAULT_LIMIT" envDefault:"20"`
		MaxLimit     int `env:"SEARCH_MAX_LIMIT" envDefault:"100"`
	}

	// Repository query cache
	Cache struct {
		// TTL for filter-keyed listing query results (in seconds)
		TTLSeconds int `env:"CACHE_TTL_SECONDS" envDefault:"300"`
	}

	// BatchProcessing configuration for the listing ingest path
	BatchProcessing struct {
		// Maximum number of listings to accumulate before processing
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`

		// Queue buffer size in batches
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"50"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
