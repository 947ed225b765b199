package store

import (
	"context"

	"pos-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateSale inserts a sale header and fills in the generated id and timestamp
func (s *Store) CreateSale(ctx context.Context, sale *models.Sale) error {
	query := `
		INSERT INTO sales (total)
		VALUES ($1)
		RETURNING id, created_at, total`

	return sqlx.GetContext(ctx, s.ext, sale, query, sale.Total)
}

// CreateSaleItem inserts one line of a sale
func (s *Store) CreateSaleItem(ctx context.Context, item *models.SaleItem) error {
	_, err := s.ext.ExecContext(ctx,
		"INSERT INTO sale_items (sale_id, barcode, qty, price) VALUES ($1, $2, $3, $4)",
		item.SaleID, item.Barcode, item.Qty, item.Price)
	return err
}

// ListSales retrieves the most recent sales
func (s *Store) ListSales(ctx context.Context, limit int) ([]models.Sale, error) {
	sales := []models.Sale{}
	err := sqlx.SelectContext(ctx, s.ext, &sales,
		"SELECT id, created_at, total FROM sales ORDER BY created_at DESC, id DESC LIMIT $1", limit)
	return sales, err
}
