package reports

import (
	"context"
	"time"

	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogEntry is the per-unit catalog data joined into report rows.
type CatalogEntry struct {
	Type             string
	WeightKg         decimal.Decimal
	MilkBasePerUnit  decimal.Decimal
	SugarBasePerUnit decimal.Decimal
	UnitCost         decimal.Decimal
	UnitPrice        decimal.Decimal
}

// CatalogSnapshot is a point-in-time copy of the product catalog, loaded
// once per run and passed explicitly into the aggregation functions. A
// missing product reads as all-zero values; the enclosing row is kept.
type CatalogSnapshot map[int]CatalogEntry

func (c CatalogSnapshot) Lookup(productID int) CatalogEntry {
	return c[productID]
}

// OrderSource is the read-only view of the order store that the engine
// consumes. The gorm implementation backs production; tests supply
// in-memory fixtures.
type OrderSource interface {
	// DeliveryDates lists the distinct delivery dates with at least one
	// order in the year, ascending.
	DeliveryDates(ctx context.Context, year int) ([]time.Time, error)
	// DeliveryYears lists the distinct years with at least one order,
	// ascending.
	DeliveryYears(ctx context.Context) ([]int, error)
	// OrdersForDate returns the orders delivered on the date, with items
	// and customer relation loaded.
	OrdersForDate(ctx context.Context, date time.Time) ([]models.Order, error)
	// Catalog snapshots the current product catalog.
	Catalog(ctx context.Context) (CatalogSnapshot, error)
}

type DBOrderSource struct {
	db *gorm.DB
}

func NewDBOrderSource(db *gorm.DB) *DBOrderSource {
	return &DBOrderSource{db: db}
}

func (s *DBOrderSource) DeliveryDates(ctx context.Context, year int) ([]time.Time, error) {
	var dates []time.Time
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Distinct("delivery_date").
		Where("YEAR(delivery_date) = ?", year).
		Order("delivery_date ASC").
		Pluck("delivery_date", &dates).Error
	if err != nil {
		return nil, err
	}
	// parseTime hands back the driver's location; entry keys need stable
	// midnight-UTC dates.
	for i := range dates {
		dates[i] = utils.DateOnly(dates[i])
	}
	return dates, nil
}

func (s *DBOrderSource) DeliveryYears(ctx context.Context) ([]int, error) {
	var years []int
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Distinct("YEAR(delivery_date)").
		Order("YEAR(delivery_date) ASC").
		Pluck("YEAR(delivery_date)", &years).Error
	if err != nil {
		return nil, err
	}
	return years, nil
}

func (s *DBOrderSource) OrdersForDate(ctx context.Context, date time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Where("delivery_date = ?", date.Format(utils.DateOnlyFormat)).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *DBOrderSource) Catalog(ctx context.Context) (CatalogSnapshot, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, err
	}
	snapshot := make(CatalogSnapshot, len(products))
	for _, p := range products {
		snapshot[p.ID] = CatalogEntry{
			Type:             p.Type,
			WeightKg:         p.WeightKg,
			MilkBasePerUnit:  p.MilkBasePerUnit,
			SugarBasePerUnit: p.SugarBasePerUnit,
			UnitCost:         p.UnitCost,
			UnitPrice:        p.UnitPrice,
		}
	}
	return snapshot, nil
}

// validOrders applies the report validity filter: an order counts only if
// it has been invoiced and resolves to a customer record. Anything else is
// an incomplete or cancelled workflow state, not production demand.
func validOrders(orders []models.Order) []models.Order {
	valid := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.Invoiced() && o.Customer != nil {
			valid = append(valid, o)
		}
	}
	return valid
}
