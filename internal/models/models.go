package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry keyed by barcode. Name may be NULL for rows
// written outside this service.
type Product struct {
	Barcode string          `db:"barcode"`
	Name    *string         `db:"name"`
	Price   decimal.Decimal `db:"price"`
	Stock   int             `db:"stock"`
}

// Sale is a checkout header. Total is stored as supplied by the client.
type Sale struct {
	ID        int64           `db:"id"`
	CreatedAt time.Time       `db:"created_at"`
	Total     decimal.Decimal `db:"total"`
}

// SaleItem is one line of a sale with the product price snapshotted at sale time.
type SaleItem struct {
	SaleID  int64           `db:"sale_id"`
	Barcode string          `db:"barcode"`
	Qty     int             `db:"qty"`
	Price   decimal.Decimal `db:"price"`
}

// InventoryChange is an append-only audit entry. DeltaStock is nil for upserts.
type InventoryChange struct {
	ID         int64     `db:"id"`
	Timestamp  time.Time `db:"timestamp"`
	Barcode    string    `db:"barcode"`
	Details    string    `db:"details"`
	DeltaStock *int      `db:"delta_stock"`
}
