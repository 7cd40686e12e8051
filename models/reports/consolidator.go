package reports

import (
	"context"
	"sort"
	"time"

	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ConsolidateMonth rolls every valid order item across the month's
// delivery dates into one cost/sales summary, grouped by (product name,
// type) and sorted by product name. When distinct catalog products fall
// into the same group, the lowest product ID supplies the group's unit
// cost and price.
//
// Cost and price are read from the catalog snapshot taken for this run:
// this is a deliberate point-in-time simplification, not the price that
// was effective on the original order date. Callers needing audit-accurate
// historical margins must snapshot pricing at order time upstream.
//
// The consolidation is independent of, and never mutates, the per-date
// aggregates that feed it.
func ConsolidateMonth(ctx context.Context, src OrderSource, catalog CatalogSnapshot, monthKey string, dates []time.Time) (*models.ConsolidatedMonthAggregate, error) {
	type groupKey struct {
		productName string
		itemType    string
	}

	quantities := make(map[groupKey]int)
	productIDs := make(map[groupKey]int)

	for _, date := range dates {
		orders, err := src.OrdersForDate(ctx, date)
		if err != nil {
			return nil, err
		}
		for _, order := range validOrders(orders) {
			for _, item := range order.Items {
				key := groupKey{productName: item.ProductName, itemType: item.Type}
				quantities[key] += item.Quantity
				// Two catalog rows can share (name, type); the lowest
				// product ID prices the whole group.
				if id, seen := productIDs[key]; !seen || item.ProductID < id {
					productIDs[key] = item.ProductID
				}
			}
		}
	}

	items := make([]models.ConsolidatedItem, 0, len(quantities))
	for key, quantity := range quantities {
		entry := catalog.Lookup(productIDs[key])
		qty := decimal.NewFromInt(int64(quantity))
		totalCost := entry.UnitCost.Mul(qty)
		totalSales := entry.UnitPrice.Mul(qty)

		costRatio := decimal.Zero
		if totalSales.IsPositive() {
			costRatio = totalCost.Div(totalSales).Mul(oneHundred).Round(2)
		}

		items = append(items, models.ConsolidatedItem{
			ProductName:  key.productName,
			Type:         key.itemType,
			Quantity:     quantity,
			CostPerUnit:  entry.UnitCost,
			PricePerUnit: entry.UnitPrice,
			TotalCost:    totalCost,
			TotalSales:   totalSales,
			CostRatioPct: costRatio,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ProductName != items[j].ProductName {
			return items[i].ProductName < items[j].ProductName
		}
		return items[i].Type < items[j].Type
	})

	return &models.ConsolidatedMonthAggregate{MonthKey: monthKey, Items: items}, nil
}
