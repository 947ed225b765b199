package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pos-service/internal/models"

	"github.com/jmoiron/sqlx"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListProducts returns products ordered by name, optionally filtered by a
// case-insensitive substring of the name.
func (s *Store) ListProducts(ctx context.Context, query string, limit int) ([]models.Product, error) {
	sqlText := "SELECT barcode, name, price, stock FROM products"
	args := []interface{}{}
	if query != "" {
		sqlText += " WHERE lower(name) LIKE lower($1)"
		args = append(args, "%"+likeEscaper.Replace(query)+"%")
	}
	sqlText += fmt.Sprintf(" ORDER BY name LIMIT $%d", len(args)+1)
	args = append(args, limit)

	products := []models.Product{}
	err := sqlx.SelectContext(ctx, s.ext, &products, sqlText, args...)
	return products, err
}

// GetProduct retrieves a product by barcode
func (s *Store) GetProduct(ctx context.Context, barcode string) (*models.Product, error) {
	return s.getProduct(ctx,
		"SELECT barcode, name, price, stock FROM products WHERE barcode = $1 LIMIT 1", barcode)
}

// GetProductForUpdate retrieves a product and locks its row until the
// surrounding transaction ends.
func (s *Store) GetProductForUpdate(ctx context.Context, barcode string) (*models.Product, error) {
	return s.getProduct(ctx,
		"SELECT barcode, name, price, stock FROM products WHERE barcode = $1 FOR UPDATE", barcode)
}

func (s *Store) getProduct(ctx context.Context, query, barcode string) (*models.Product, error) {
	var product models.Product
	err := sqlx.GetContext(ctx, s.ext, &product, query, barcode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// UpsertProduct inserts a product or replaces name, price and stock of the
// existing row with the same barcode.
func (s *Store) UpsertProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (barcode, name, price, stock)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (barcode) DO UPDATE SET
			name       = excluded.name,
			price      = excluded.price,
			stock      = excluded.stock,
			updated_at = NOW()`

	_, err := s.ext.ExecContext(ctx, query, p.Barcode, p.Name, p.Price, p.Stock)
	return err
}

// DecrementStock lowers stock by qty, never below zero.
func (s *Store) DecrementStock(ctx context.Context, barcode string, qty int) error {
	_, err := s.ext.ExecContext(ctx,
		"UPDATE products SET stock = GREATEST(0, stock - $1), updated_at = NOW() WHERE barcode = $2",
		qty, barcode)
	return err
}
