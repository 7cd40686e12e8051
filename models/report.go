package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProductionItem is one denormalized row of a delivery-date aggregate.
// ProductID and InvoiceNo are carried so stored entries can be revalidated
// against the order store later; neither appears on exported sheets.
type ProductionItem struct {
	DeliveryDate time.Time       `json:"delivery_date"`
	CustomerName string          `json:"customer_name"`
	ProductName  string          `json:"product_name"`
	ProductID    int             `json:"product_id"`
	Type         string          `json:"type"`
	Quantity     int             `json:"quantity"`
	GelatoType   string          `json:"gelato_type"`
	Weight       decimal.Decimal `json:"weight"`
	InvoiceNo    string          `json:"invoice_no"`
}

// DeliveryDateAggregate is the per-date production summary. An aggregate
// with no items is never stored; callers treat it as absent instead.
type DeliveryDateAggregate struct {
	DeliveryDate           time.Time        `json:"delivery_date"`
	TotalOrders            int              `json:"total_orders"`
	TotalItems             int              `json:"total_items"`
	MilkProductionKg       decimal.Decimal  `json:"milk_production_kg"`
	SugarSyrupProductionKg decimal.Decimal  `json:"sugar_syrup_production_kg"`
	TypeTotals             map[string]int   `json:"type_totals"`
	Items                  []ProductionItem `json:"items"`
}

type ConsolidatedItem struct {
	ProductName  string          `json:"product_name"`
	Type         string          `json:"type"`
	Quantity     int             `json:"quantity"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	// CostRatioPct is total_cost/total_sales*100 (0 when sales are 0).
	// The arithmetic is kept as historically built; downstream consumers
	// depend on the as-built values.
	CostRatioPct decimal.Decimal `json:"cost_ratio_pct"`
}

type ConsolidatedMonthAggregate struct {
	MonthKey string             `json:"month_key"`
	Items    []ConsolidatedItem `json:"items"`
}

// ReportEntry is a tagged union: exactly one of Date or Consolidated is
// set, discriminated by Kind. Entries of both kinds share one map inside
// a YearlyReport, so callers must switch on Kind before use.
type ReportEntry struct {
	Kind         EntryKind                   `json:"kind"`
	Date         *DeliveryDateAggregate      `json:"date,omitempty"`
	Consolidated *ConsolidatedMonthAggregate `json:"consolidated,omitempty"`
}

func NewDateEntry(agg *DeliveryDateAggregate) ReportEntry {
	return ReportEntry{Kind: EntryKindDate, Date: agg}
}

func NewConsolidatedEntry(agg *ConsolidatedMonthAggregate) ReportEntry {
	return ReportEntry{Kind: EntryKindConsolidated, Consolidated: agg}
}

// Empty reports whether the entry carries no items and should be pruned.
func (e ReportEntry) Empty() bool {
	switch e.Kind {
	case EntryKindDate:
		return e.Date == nil || len(e.Date.Items) == 0
	case EntryKindConsolidated:
		return e.Consolidated == nil || len(e.Consolidated.Items) == 0
	}
	return true
}

// ReportEntries maps entry keys (ISO date, or "<month> Consolidated") to
// entries. Stored as a JSON document column.
type ReportEntries map[string]ReportEntry

func (m ReportEntries) Value() (driver.Value, error) {
	if m == nil {
		m = ReportEntries{}
	}
	return json.Marshal(m)
}

func (m *ReportEntries) Scan(value interface{}) error {
	if value == nil {
		*m = ReportEntries{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for report entries column")
	}
	if len(raw) == 0 {
		*m = ReportEntries{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

const consolidatedKeySuffix = " Consolidated"

// DateEntryKey renders the map key of a delivery-date entry.
func DateEntryKey(date time.Time) string {
	return date.Format("2006-01-02")
}

// ConsolidatedEntryKey renders the map key of a month roll-up entry,
// e.g. "Jun 2025 Consolidated".
func ConsolidatedEntryKey(monthKey string) string {
	return monthKey + consolidatedKeySuffix
}

// YearlyReport is the single report document per (report_type, year). It
// is rewritten in place on every regeneration; Version implements the
// optimistic-concurrency check on upsert.
type YearlyReport struct {
	SummaryID  string        `gorm:"primaryKey;size:36" json:"summary_id"`
	ReportType ReportType    `gorm:"size:20;not null;uniqueIndex:idx_report_type_year,priority:1" json:"report_type"`
	Year       int           `gorm:"not null;uniqueIndex:idx_report_type_year,priority:2" json:"year"`
	CreatedBy  string        `gorm:"size:100" json:"created_by"`
	Version    int           `gorm:"not null;default:0" json:"version"`
	Entries    ReportEntries `gorm:"type:json" json:"entries"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// DateEntries returns the date-kind entries keyed by entry key.
func (r *YearlyReport) DateEntries() map[string]*DeliveryDateAggregate {
	out := make(map[string]*DeliveryDateAggregate)
	for key, entry := range r.Entries {
		if entry.Kind == EntryKindDate && entry.Date != nil {
			out[key] = entry.Date
		}
	}
	return out
}

func (r *YearlyReport) String() string {
	return fmt.Sprintf("%s report %d (%d entries)", r.ReportType, r.Year, len(r.Entries))
}
