package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/grocery-backend/pkg/config"
	"github.com/angelmondragon/grocery-backend/pkg/db"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations on boot when running in dev with
// GROCERY_AUTO_MIGRATE set. Other environments migrate through cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	applied, err := Up(ctx, sqlDB)
	ctx = logg.WithField(ctx, "applied_versions", applied)
	if err != nil {
		return err
	}
	logg.Info(ctx, "dev auto-migrate complete")
	return nil
}
