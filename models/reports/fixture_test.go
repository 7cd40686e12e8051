package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/utils"
	"github.com/shopspring/decimal"
)

func day(t *testing.T, iso string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", iso)
	if err != nil {
		t.Fatalf("bad date %q: %v", iso, err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	d, err := utils.ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// memorySource is a deterministic OrderSource fixture. Per-date errors can
// be injected to exercise the failure paths.
type memorySource struct {
	ordersByDate map[string][]models.Order
	catalog      CatalogSnapshot
	failDates    map[string]error
}

func newMemorySource() *memorySource {
	return &memorySource{
		ordersByDate: make(map[string][]models.Order),
		catalog:      CatalogSnapshot{},
		failDates:    make(map[string]error),
	}
}

func (m *memorySource) addOrder(order models.Order) {
	key := models.DateEntryKey(order.DeliveryDate)
	m.ordersByDate[key] = append(m.ordersByDate[key], order)
}

func (m *memorySource) removeOrder(dateKey string, orderID int) {
	kept := m.ordersByDate[dateKey][:0]
	for _, o := range m.ordersByDate[dateKey] {
		if o.ID != orderID {
			kept = append(kept, o)
		}
	}
	m.ordersByDate[dateKey] = kept
}

func (m *memorySource) DeliveryDates(ctx context.Context, year int) ([]time.Time, error) {
	var dates []time.Time
	for key, orders := range m.ordersByDate {
		if len(orders) == 0 {
			continue
		}
		d, err := utils.ParseDateOnly(key)
		if err != nil {
			return nil, err
		}
		if d.Year() == year {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func (m *memorySource) DeliveryYears(ctx context.Context) ([]int, error) {
	seen := make(map[int]bool)
	for key, orders := range m.ordersByDate {
		if len(orders) == 0 {
			continue
		}
		d, err := utils.ParseDateOnly(key)
		if err != nil {
			return nil, err
		}
		seen[d.Year()] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, nil
}

func (m *memorySource) OrdersForDate(ctx context.Context, date time.Time) ([]models.Order, error) {
	key := models.DateEntryKey(date)
	if err := m.failDates[key]; err != nil {
		return nil, err
	}
	return m.ordersByDate[key], nil
}

func (m *memorySource) Catalog(ctx context.Context) (CatalogSnapshot, error) {
	return m.catalog, nil
}

// gelatoFixtureCatalog covers the products used across the package tests.
func gelatoFixtureCatalog() CatalogSnapshot {
	return CatalogSnapshot{
		1: {Type: "Tub 5L", WeightKg: dec("3.5"), MilkBasePerUnit: dec("0.5"), UnitCost: dec("10"), UnitPrice: dec("25")},
		2: {Type: "Tub 5L", WeightKg: dec("3.2"), SugarBasePerUnit: dec("1.2"), UnitCost: dec("8"), UnitPrice: dec("20")},
		3: {Type: "Cup 120ml", WeightKg: dec("0.1"), MilkBasePerUnit: dec("0.05"), UnitCost: dec("0.5"), UnitPrice: dec("2")},
	}
}

func customer(id int, name string) *models.Customer {
	return &models.Customer{ID: id, Name: name}
}

func fixtureOrder(id int, date time.Time, invoiceNo string, cust *models.Customer, items ...models.OrderItem) models.Order {
	custID := 0
	if cust != nil {
		custID = cust.ID
	}
	return models.Order{
		ID:           id,
		DeliveryDate: date,
		CustomerID:   custID,
		Customer:     cust,
		InvoiceNo:    invoiceNo,
		Items:        items,
	}
}

func dairyItem(productID int, name string, qty int) models.OrderItem {
	return models.OrderItem{ProductID: productID, ProductName: name, Type: "Tub 5L", GelatoType: models.GelatoTypeDairy, Quantity: qty}
}

func sorbetItem(productID int, name string, qty int) models.OrderItem {
	return models.OrderItem{ProductID: productID, ProductName: name, Type: "Tub 5L", GelatoType: models.GelatoTypeSorbet, Quantity: qty}
}

// cloneEntries deep-copies an entry map through JSON, the same round-trip
// the stored document column goes through.
func cloneEntries(t *testing.T, entries models.ReportEntries) models.ReportEntries {
	t.Helper()
	raw, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal entries: %v", err)
	}
	var out models.ReportEntries
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal entries: %v", err)
	}
	return out
}

func entryKeys(entries models.ReportEntries) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fmtKeys(entries models.ReportEntries) string {
	return fmt.Sprint(entryKeys(entries))
}
