package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is owned by the ordering side of the portal; the report engine
// only ever reads it. An order counts toward reports once it carries an
// invoice number and resolves to a customer record.
type Order struct {
	ID           int             `gorm:"primary_key" json:"id"`
	DeliveryDate time.Time       `gorm:"type:date;index;not null" json:"delivery_date" binding:"required"`
	CustomerID   int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	Customer     *Customer       `json:"customer"`
	InvoiceNo    string          `gorm:"index;size:50" json:"invoice_no"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Items        []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type OrderItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	OrderID     int             `gorm:"index;not null" json:"order_id"`
	ProductID   int             `gorm:"index;not null" json:"product_id" binding:"required"`
	ProductName string          `gorm:"size:100;not null" json:"product_name"`
	Type        string          `gorm:"size:50" json:"type"`
	GelatoType  string          `gorm:"size:20" json:"gelato_type"`
	Quantity    int             `gorm:"not null" json:"quantity" binding:"required,gt=0"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
}

// Invoiced reports whether the order has left the draft/cancelled part of
// the workflow and should count toward production demand.
func (o *Order) Invoiced() bool {
	return o.InvoiceNo != ""
}
