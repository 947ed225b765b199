package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// ProductListLimit caps the product listing.
	ProductListLimit = 100
	// DefaultListLimit applies to sales and inventory listings when no limit is given.
	DefaultListLimit = 50

	idempotencyLockTTL  = 30 * time.Second
	eventPublishTimeout = 2 * time.Second
)

// EventPublisher publishes domain events once the data they describe is committed.
type EventPublisher interface {
	PublishProductUpserted(ctx context.Context, event *models.ProductUpsertedEvent) error
	PublishSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error
}

// IdempotencyStore remembers completed checkouts by client supplied key.
type IdempotencyStore interface {
	GetIdempotencyKey(ctx context.Context, key string) (string, bool, error)
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// PosService handles product, sale and inventory audit operations
type PosService struct {
	store          *store.Store
	publisher      EventPublisher
	idempotency    IdempotencyStore
	idempotencyTTL time.Duration
	publishTimeout time.Duration
	logger         *zap.Logger
}

// Option configures optional collaborators of PosService.
type Option func(*PosService)

// WithEventPublisher enables domain event publishing.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *PosService) { s.publisher = p }
}

// WithIdempotency enables Idempotency-Key handling for checkouts.
func WithIdempotency(is IdempotencyStore, ttl time.Duration) Option {
	return func(s *PosService) {
		s.idempotency = is
		s.idempotencyTTL = ttl
	}
}

// NewPosService creates a new POS service
func NewPosService(store *store.Store, opts ...Option) *PosService {
	s := &PosService{
		store:          store,
		idempotencyTTL: 24 * time.Hour,
		publishTimeout: eventPublishTimeout,
		logger:         util.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpsertProductRequest represents a request to create or replace a product
type UpsertProductRequest struct {
	Barcode string           `json:"barcode" binding:"required"`
	Name    *string          `json:"name"`
	Price   *decimal.Decimal `json:"price" binding:"required"`
	Stock   *int             `json:"stock" binding:"required"`
}

// SaleItemRequest represents one scanned line of a checkout
type SaleItemRequest struct {
	Barcode string `json:"barcode"`
	Qty     int    `json:"qty"`
}

// RecordSaleRequest represents a paid checkout
type RecordSaleRequest struct {
	Items          []SaleItemRequest `json:"items"`
	Total          *decimal.Decimal  `json:"total" binding:"required"`
	IdempotencyKey string            `json:"-"`
}

// RecordSaleResponse is returned after a sale is recorded
type RecordSaleResponse struct {
	OK     bool  `json:"ok"`
	SaleID int64 `json:"sale_id"`
}

// Ping reports whether the database is reachable
func (s *PosService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ListProducts lists products by name, optionally filtered by a substring
func (s *PosService) ListProducts(ctx context.Context, query string) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "PosService.ListProducts")
	defer span.End()

	return s.store.ListProducts(ctx, query, ProductListLimit)
}

// GetProduct retrieves a product by barcode
func (s *PosService) GetProduct(ctx context.Context, barcode string) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "PosService.GetProduct")
	defer span.End()

	product, err := s.store.GetProduct(ctx, barcode)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// UpsertProduct creates or replaces a product and records the change in the
// inventory log, both in one transaction.
func (s *PosService) UpsertProduct(ctx context.Context, req *UpsertProductRequest) error {
	ctx, span := util.StartSpan(ctx, "PosService.UpsertProduct")
	defer span.End()

	if strings.TrimSpace(req.Barcode) == "" {
		return badRequest("Barcode is required")
	}
	barcode := req.Barcode
	if req.Price == nil || req.Price.IsNegative() {
		return badRequest("Price must be a non-negative number")
	}
	if req.Stock == nil || *req.Stock < 0 {
		return badRequest("Stock must be a non-negative integer")
	}

	name := ""
	if req.Name != nil {
		name = *req.Name
	}

	product := &models.Product{
		Barcode: barcode,
		Name:    &name,
		Price:   *req.Price,
		Stock:   *req.Stock,
	}
	details := fmt.Sprintf("Upsert %s → %s price %s stock %d",
		barcode, name, product.Price.StringFixed(2), product.Stock)

	err := s.store.InTx(ctx, func(tx *store.Store) error {
		if err := tx.UpsertProduct(ctx, product); err != nil {
			return fmt.Errorf("failed to upsert product: %w", err)
		}
		if err := tx.CreateInventoryChange(ctx, barcode, details, nil); err != nil {
			return fmt.Errorf("failed to record inventory change: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	util.ProductsUpsertedTotal.Inc()
	s.logger.Info("Product upserted",
		zap.String("barcode", barcode),
		zap.String("price", product.Price.String()),
		zap.Int("stock", product.Stock))

	if s.publisher != nil {
		event := &models.ProductUpsertedEvent{
			BaseEvent: newBaseEvent(models.EventTypeProductUpserted),
			Barcode:   barcode,
			Name:      name,
			Price:     product.Price,
			Stock:     product.Stock,
		}
		pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()
		if err := s.publisher.PublishProductUpserted(pubCtx, event); err != nil {
			s.logger.Error("Failed to publish ProductUpserted event", zap.Error(err))
		}
	}

	return nil
}

// ListInventoryChanges lists the most recent inventory audit entries
func (s *PosService) ListInventoryChanges(ctx context.Context, limit int) ([]models.InventoryChange, error) {
	ctx, span := util.StartSpan(ctx, "PosService.ListInventoryChanges")
	defer span.End()

	if limit < 0 {
		return nil, badRequest("limit must not be negative")
	}
	return s.store.ListInventoryChanges(ctx, limit)
}

// ListSales lists the most recent sales
func (s *PosService) ListSales(ctx context.Context, limit int) ([]models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "PosService.ListSales")
	defer span.End()

	if limit < 0 {
		return nil, badRequest("limit must not be negative")
	}
	return s.store.ListSales(ctx, limit)
}

// RecordSale records a paid checkout. The sale header, its lines, the stock
// decrements and the inventory log entries are written in one transaction:
// an unknown barcode on any line leaves no trace of the request.
func (s *PosService) RecordSale(ctx context.Context, req *RecordSaleRequest) (*RecordSaleResponse, error) {
	ctx, span := util.StartSpan(ctx, "PosService.RecordSale")
	defer span.End()

	start := time.Now()
	defer func() {
		util.SaleRecordLatency.Observe(time.Since(start).Seconds())
	}()

	if len(req.Items) == 0 {
		util.SalesFailedTotal.WithLabelValues("empty_items").Inc()
		return nil, badRequest("No items provided")
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.Barcode) == "" {
			util.SalesFailedTotal.WithLabelValues("invalid_item").Inc()
			return nil, badRequest("Item barcode is required")
		}
		if item.Qty <= 0 {
			util.SalesFailedTotal.WithLabelValues("invalid_item").Inc()
			return nil, badRequest("Invalid quantity %d for barcode %s", item.Qty, item.Barcode)
		}
	}
	if req.Total == nil {
		return nil, badRequest("Total is required")
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		resp, release, err := s.claimIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil || resp != nil {
			return resp, err
		}
		defer release()
	}

	sale := &models.Sale{Total: *req.Total}
	lines := make([]models.SaleItemData, 0, len(req.Items))

	err := s.store.InTx(ctx, func(tx *store.Store) error {
		if err := tx.CreateSale(ctx, sale); err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}

		for _, item := range req.Items {
			product, err := tx.GetProductForUpdate(ctx, item.Barcode)
			if errors.Is(err, store.ErrNotFound) {
				return badRequest("Unknown barcode %s", item.Barcode)
			}
			if err != nil {
				return fmt.Errorf("failed to load product %s: %w", item.Barcode, err)
			}

			saleItem := &models.SaleItem{
				SaleID:  sale.ID,
				Barcode: item.Barcode,
				Qty:     item.Qty,
				Price:   product.Price,
			}
			if err := tx.CreateSaleItem(ctx, saleItem); err != nil {
				return fmt.Errorf("failed to create sale item: %w", err)
			}

			if err := tx.DecrementStock(ctx, item.Barcode, item.Qty); err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}

			delta := -item.Qty
			details := fmt.Sprintf("Sale %d: -%d", sale.ID, item.Qty)
			if err := tx.CreateInventoryChange(ctx, item.Barcode, details, &delta); err != nil {
				return fmt.Errorf("failed to record inventory change: %w", err)
			}

			lines = append(lines, models.SaleItemData{
				Barcode: item.Barcode,
				Qty:     item.Qty,
				Price:   product.Price,
			})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBadRequest) {
			util.SalesFailedTotal.WithLabelValues("unknown_barcode").Inc()
		} else {
			util.SalesFailedTotal.WithLabelValues("db_error").Inc()
		}
		return nil, err
	}

	util.SalesRecordedTotal.Inc()
	util.SaleItemsTotal.Add(float64(len(lines)))
	s.logger.Info("Sale recorded",
		zap.Int64("sale_id", sale.ID),
		zap.String("total", sale.Total.String()),
		zap.Int("items", len(lines)))

	if req.IdempotencyKey != "" && s.idempotency != nil {
		key := idempotencyKey(req.IdempotencyKey)
		if err := s.idempotency.SetIdempotencyKey(ctx, key, sale.ID, s.idempotencyTTL); err != nil {
			s.logger.Error("Failed to store idempotency key",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Error(err))
		}
	}

	if s.publisher != nil {
		event := &models.SaleRecordedEvent{
			BaseEvent: newBaseEvent(models.EventTypeSaleRecorded),
			SaleID:    sale.ID,
			Total:     sale.Total,
			Items:     lines,
		}
		pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()
		if err := s.publisher.PublishSaleRecorded(pubCtx, event); err != nil {
			s.logger.Error("Failed to publish SaleRecorded event", zap.Error(err))
		}
	}

	return &RecordSaleResponse{OK: true, SaleID: sale.ID}, nil
}

// claimIdempotencyKey returns the stored response for a completed key, or
// takes the in-flight lock for a new one. The key is read again once the lock
// is held, since another request may have completed it in between. Redis
// errors are logged and the checkout proceeds without deduplication.
func (s *PosService) claimIdempotencyKey(ctx context.Context, clientKey string) (*RecordSaleResponse, func(), error) {
	noop := func() {}
	key := idempotencyKey(clientKey)

	resp, err := s.storedSale(ctx, key, clientKey)
	if err != nil {
		s.logger.Warn("Idempotency lookup failed, continuing without it",
			zap.String("idempotency_key", clientKey),
			zap.Error(err))
		return nil, noop, nil
	}
	if resp != nil {
		return resp, noop, nil
	}

	acquired, err := s.idempotency.AcquireLock(ctx, key, idempotencyLockTTL)
	if err != nil {
		s.logger.Warn("Idempotency lock failed, continuing without it",
			zap.String("idempotency_key", clientKey),
			zap.Error(err))
		return nil, noop, nil
	}
	if !acquired {
		return nil, noop, conflict("A checkout with this Idempotency-Key is already in progress")
	}

	release := func() {
		if err := s.idempotency.ReleaseLock(context.Background(), key); err != nil {
			s.logger.Error("Failed to release idempotency lock",
				zap.String("idempotency_key", clientKey),
				zap.Error(err))
		}
	}

	resp, err = s.storedSale(ctx, key, clientKey)
	if err != nil {
		s.logger.Warn("Idempotency lookup failed, continuing without it",
			zap.String("idempotency_key", clientKey),
			zap.Error(err))
		return nil, release, nil
	}
	if resp != nil {
		release()
		return resp, noop, nil
	}
	return nil, release, nil
}

// storedSale returns the replayed response for a completed key, or nil when
// the key is unknown or its value is not a sale id.
func (s *PosService) storedSale(ctx context.Context, key, clientKey string) (*RecordSaleResponse, error) {
	stored, found, err := s.idempotency.GetIdempotencyKey(ctx, key)
	if err != nil || !found {
		return nil, err
	}

	saleID, err := strconv.ParseInt(stored, 10, 64)
	if err != nil {
		s.logger.Warn("Ignoring malformed idempotency record",
			zap.String("idempotency_key", clientKey),
			zap.String("value", stored))
		return nil, nil
	}

	util.IdempotentReplaysTotal.Inc()
	s.logger.Info("Duplicate checkout detected",
		zap.String("idempotency_key", clientKey),
		zap.Int64("sale_id", saleID))
	return &RecordSaleResponse{OK: true, SaleID: saleID}, nil
}

func idempotencyKey(clientKey string) string {
	return "sale:" + clientKey
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
