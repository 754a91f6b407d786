package bootstrap

import (
	"fmt"
	"time"

	"search-backend/config"
	"search-backend/driver"
	"search-backend/logger"

	"github.com/meilisearch/meilisearch-go"
)

// initMeilisearchClient initializes the Meilisearch client with retry logic.
func initMeilisearchClient(cfg *config.Config) (meilisearch.ServiceManager, error) {
	const maxRetries = 5
	const retryDelay = 5 * time.Second

	logger.Logger.Info("Connecting to Meilisearch", "host", cfg.Meilisearch.Host)

	var msClient meilisearch.ServiceManager

	for i := range maxRetries {
		msClient = driver.NewMeilisearchClient(cfg.Meilisearch.Host, cfg.Meilisearch.APIKey)

		if _, healthErr := msClient.Health(); healthErr != nil {
			logger.Logger.Warn("Meilisearch not ready, retrying", "attempt", i+1, "max", maxRetries, "err", healthErr)
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to connect to Meilisearch after %d attempts: %w", maxRetries, healthErr)
		}

		logger.Logger.Info("Connected to Meilisearch successfully")
		break
	}

	return msClient, nil
}
