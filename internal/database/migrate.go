package database

import (
	"context"
	"fmt"

	"github.com/Lelcaren/mwangaza-rentals/internal/models"
)

// Migrate creates or updates every table from the model definitions.
func (db *Database) Migrate(ctx context.Context) error {
	if err := db.DB.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
