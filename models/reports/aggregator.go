package reports

import (
	"context"
	"sort"
	"time"

	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models"
	"github.com/shopspring/decimal"
)

const customerNameFallback = "N/A"

// ComputeDeliveryAggregate builds the production aggregate for one
// delivery date from the current order store. It returns (nil, nil) when
// no valid orders exist for the date; callers must treat that as "nothing
// to aggregate", never as an empty aggregate to store.
//
// Row ordering — (customer_name, product_name) ascending, case-sensitive —
// is an observable contract: the exporter emits rows exactly as stored.
func ComputeDeliveryAggregate(ctx context.Context, src OrderSource, catalog CatalogSnapshot, date time.Time) (*models.DeliveryDateAggregate, error) {
	orders, err := src.OrdersForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	valid := validOrders(orders)
	if len(valid) == 0 {
		return nil, nil
	}

	agg := &models.DeliveryDateAggregate{
		DeliveryDate: date,
		TypeTotals:   make(map[string]int),
	}
	milk := decimal.Zero
	sugar := decimal.Zero

	for _, order := range valid {
		agg.TotalOrders++

		customerName := customerNameFallback
		if order.Customer != nil && order.Customer.Name != "" {
			customerName = order.Customer.Name
		}

		for _, item := range order.Items {
			entry := catalog.Lookup(item.ProductID)
			qty := decimal.NewFromInt(int64(item.Quantity))

			switch item.GelatoType {
			case models.GelatoTypeDairy:
				milk = milk.Add(entry.MilkBasePerUnit.Mul(qty))
			case models.GelatoTypeSorbet:
				sugar = sugar.Add(entry.SugarBasePerUnit.Mul(qty))
			}

			agg.TypeTotals[item.Type] += item.Quantity
			agg.TotalItems += item.Quantity
			agg.Items = append(agg.Items, models.ProductionItem{
				DeliveryDate: date,
				CustomerName: customerName,
				ProductName:  item.ProductName,
				ProductID:    item.ProductID,
				Type:         item.Type,
				Quantity:     item.Quantity,
				GelatoType:   item.GelatoType,
				Weight:       entry.WeightKg.Mul(qty).Round(1),
				InvoiceNo:    order.InvoiceNo,
			})
		}
	}

	agg.MilkProductionKg = milk.Round(0)
	agg.SugarSyrupProductionKg = sugar.Round(0)
	sortProductionItems(agg.Items)

	return agg, nil
}

func sortProductionItems(items []models.ProductionItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CustomerName != items[j].CustomerName {
			return items[i].CustomerName < items[j].CustomerName
		}
		return items[i].ProductName < items[j].ProductName
	})
}
