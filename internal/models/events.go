package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeProductUpserted = "PRODUCT_UPSERTED"
	EventTypeSaleRecorded    = "SALE_RECORDED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductUpsertedEvent published after a product upsert commits
type ProductUpsertedEvent struct {
	BaseEvent
	Barcode string          `json:"barcode"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Stock   int             `json:"stock"`
}

// SaleRecordedEvent published after a paid sale commits
type SaleRecordedEvent struct {
	BaseEvent
	SaleID int64           `json:"sale_id"`
	Total  decimal.Decimal `json:"total"`
	Items  []SaleItemData  `json:"items"`
}

// SaleItemData represents item data in events
type SaleItemData struct {
	Barcode string          `json:"barcode"`
	Qty     int             `json:"qty"`
	Price   decimal.Decimal `json:"price"`
}
