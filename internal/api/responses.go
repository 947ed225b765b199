package api

import (
	"time"

	"pos-service/internal/models"
)

// Wire shapes. Money is exact decimal everywhere inside the service and is
// converted to float64 only here, when the JSON body is built. The precision
// loss of that conversion is accepted.

type productResponse struct {
	Barcode string  `json:"barcode"`
	Name    *string `json:"name"`
	Price   float64 `json:"price"`
	Stock   int     `json:"stock"`
}

type saleResponse struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Total     float64   `json:"total"`
}

type inventoryChangeResponse struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Barcode    string    `json:"barcode"`
	Details    string    `json:"details"`
	DeltaStock *int      `json:"delta_stock"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

func toProductResponse(p *models.Product) productResponse {
	return productResponse{
		Barcode: p.Barcode,
		Name:    p.Name,
		Price:   p.Price.InexactFloat64(),
		Stock:   p.Stock,
	}
}

func toProductList(products []models.Product) listResponse[productResponse] {
	items := make([]productResponse, 0, len(products))
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}
	return listResponse[productResponse]{Items: items}
}

func toSaleList(sales []models.Sale) listResponse[saleResponse] {
	items := make([]saleResponse, 0, len(sales))
	for _, s := range sales {
		items = append(items, saleResponse{
			ID:        s.ID,
			CreatedAt: s.CreatedAt,
			Total:     s.Total.InexactFloat64(),
		})
	}
	return listResponse[saleResponse]{Items: items}
}

func toInventoryChangeList(changes []models.InventoryChange) listResponse[inventoryChangeResponse] {
	items := make([]inventoryChangeResponse, 0, len(changes))
	for _, c := range changes {
		items = append(items, inventoryChangeResponse{
			ID:         c.ID,
			Timestamp:  c.Timestamp,
			Barcode:    c.Barcode,
			Details:    c.Details,
			DeltaStock: c.DeltaStock,
		})
	}
	return listResponse[inventoryChangeResponse]{Items: items}
}
