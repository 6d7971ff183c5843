package migration

import (
	"context"

	"github.com/matchpoll/backend/internal/entity"
)

// AutoMigrate creates or updates the tables from the entities and seeds the default categories.
// When this migrator is called, no need to call Migrate.
func AutoMigrate(ctx context.Context) error {
	return entity.MigrateTable(ctx)
}
