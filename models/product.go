package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the gelato catalog record. Weight and base figures are
// per-unit values joined into report rows at aggregation time; they are
// never copied onto order items.
type Product struct {
	ID               int             `gorm:"primary_key" json:"id"`
	Name             string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Description      string          `gorm:"type:text" json:"description"`
	Type             string          `gorm:"size:50;not null" json:"type" binding:"required"`
	GelatoType       string          `gorm:"size:20;not null" json:"gelato_type" binding:"required"`
	WeightKg         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"weight_kg"`
	MilkBasePerUnit  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"milk_base_per_unit"`
	SugarBasePerUnit decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sugar_base_per_unit"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	IsActive         *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
