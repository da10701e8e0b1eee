package db

import (
	"context"
	"fmt"

	"github.com/urbanpizzeria/pos-backend/pkg/config"
	"github.com/urbanpizzeria/pos-backend/pkg/db/models"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
)

// MaybeAutoMigrate creates the local store schema when the feature flag allows it.
// The local store is an embedded cache, so schema management stays in-process.
func MaybeAutoMigrate(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	logg.Info(logg.WithField(ctx, "driver", cfg.DB.Driver), "running local store auto-migration")

	err := client.DB().WithContext(ctx).AutoMigrate(
		&models.CachedProduct{},
		&models.CachedVariety{},
		&models.DraftLine{},
		&models.QueuedOrder{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrating local store: %w", err)
	}
	return nil
}
