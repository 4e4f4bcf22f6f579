package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           string          `db:"id" json:"id"`
	SKU          string          `db:"sku" json:"sku"`
	Name         string          `db:"name" json:"name"`
	Supplier     string          `db:"supplier" json:"supplier"`
	Unit         string          `db:"unit" json:"unit"` // e.g. "kg"
	CostPerUnit  decimal.Decimal `db:"cost_per_unit" json:"cost_per_unit"`
	PricePerUnit decimal.Decimal `db:"price_per_unit" json:"price_per_unit"`
	CurrentStock decimal.Decimal `db:"current_stock" json:"current_stock"`
	MinStock     decimal.Decimal `db:"min_stock" json:"min_stock"`
	IsActive     bool            `db:"is_active" json:"is_active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// LowStock reports whether the product is at or below its minimum threshold.
func (p *Product) LowStock() bool {
	return p.CurrentStock.LessThanOrEqual(p.MinStock)
}

type Client struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	TaxID        string    `db:"tax_id" json:"tax_id"` // unique, e.g. Chilean RUT
	Address      string    `db:"address" json:"address"`
	Commune      string    `db:"commune" json:"commune"`
	ContactName  string    `db:"contact_name" json:"contact_name"`
	ContactPhone string    `db:"contact_phone" json:"contact_phone"`
	Email        *string   `db:"email" json:"email"` // Nullable
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
