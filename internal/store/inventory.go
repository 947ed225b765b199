package store

import (
	"context"

	"pos-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateInventoryChange appends an audit entry. deltaStock is nil for
// changes that do not move stock by a known amount.
func (s *Store) CreateInventoryChange(ctx context.Context, barcode, details string, deltaStock *int) error {
	_, err := s.ext.ExecContext(ctx,
		"INSERT INTO inventory_changes (barcode, details, delta_stock) VALUES ($1, $2, $3)",
		barcode, details, deltaStock)
	return err
}

// ListInventoryChanges retrieves the most recent audit entries
func (s *Store) ListInventoryChanges(ctx context.Context, limit int) ([]models.InventoryChange, error) {
	changes := []models.InventoryChange{}
	err := sqlx.SelectContext(ctx, s.ext, &changes,
		"SELECT id, timestamp, barcode, details, delta_stock FROM inventory_changes ORDER BY timestamp DESC, id DESC LIMIT $1",
		limit)
	return changes, err
}
