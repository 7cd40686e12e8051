package reports

import (
	"context"

	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/config"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ReconcileEntry merges newEntry under targetKey into a stored report's
// entry map and revalidates every other entry against the current order
// store, pruning anything stale. This is what keeps a report generated
// months ago trustworthy after orders have been edited or deleted.
//
//  1. Every date-kind entry other than targetKey is re-checked: rows whose
//     invoice no longer resolves among the date's valid orders are dropped,
//     totals are recomputed from the surviving rows, and an entry whose row
//     list empties is removed outright. Consolidated entries carry no
//     invoice identity; they are refreshed by their own reconcile pass each
//     run and pass through here untouched.
//  2. A nil newEntry (or one with no items) removes targetKey.
//  3. Otherwise entries[targetKey] is overwritten unconditionally — the
//     fresh aggregate is authoritative for its key, old and new rows are
//     never merged.
//
// A failed revalidation sub-query for one entry is logged and leaves that
// entry as-is for this run; it never blocks the target update.
func ReconcileEntry(ctx context.Context, src OrderSource, catalog CatalogSnapshot, entries models.ReportEntries, targetKey string, newEntry *models.ReportEntry, logger *logrus.Logger) models.ReportEntries {
	cleaned := make(models.ReportEntries, len(entries)+1)

	for key, entry := range entries {
		if key == targetKey {
			continue
		}
		if entry.Kind != models.EntryKindDate || entry.Date == nil {
			cleaned[key] = entry
			continue
		}

		revalidated, err := revalidateDateEntry(ctx, src, catalog, entry.Date)
		if err != nil {
			config.LogError(logger, "reconciler.go", "ReconcileEntry", "Revalidating stored entry failed; keeping entry for this run", key, err)
			cleaned[key] = entry
			continue
		}
		if revalidated != nil {
			cleaned[key] = models.NewDateEntry(revalidated)
		}
	}

	if newEntry != nil && !newEntry.Empty() {
		cleaned[targetKey] = *newEntry
	}

	return cleaned
}

// revalidateDateEntry re-queries the entry's delivery date and drops rows
// whose invoice is no longer among the date's valid orders. Returns nil
// when no rows survive.
func revalidateDateEntry(ctx context.Context, src OrderSource, catalog CatalogSnapshot, agg *models.DeliveryDateAggregate) (*models.DeliveryDateAggregate, error) {
	orders, err := src.OrdersForDate(ctx, agg.DeliveryDate)
	if err != nil {
		return nil, err
	}

	validInvoices := make(map[string]bool)
	for _, order := range validOrders(orders) {
		validInvoices[order.InvoiceNo] = true
	}

	surviving := make([]models.ProductionItem, 0, len(agg.Items))
	for _, item := range agg.Items {
		if validInvoices[item.InvoiceNo] {
			surviving = append(surviving, item)
		}
	}

	if len(surviving) == 0 {
		return nil, nil
	}
	if len(surviving) == len(agg.Items) {
		return agg, nil
	}
	return rebuildAggregate(agg, surviving, catalog), nil
}

// rebuildAggregate recomputes the aggregate totals from surviving rows so
// a pruned entry stays internally consistent. Row order is preserved (the
// surviving slice keeps the stored ordering).
func rebuildAggregate(old *models.DeliveryDateAggregate, rows []models.ProductionItem, catalog CatalogSnapshot) *models.DeliveryDateAggregate {
	agg := &models.DeliveryDateAggregate{
		DeliveryDate: old.DeliveryDate,
		TypeTotals:   make(map[string]int),
		Items:        rows,
	}
	milk := decimal.Zero
	sugar := decimal.Zero
	invoices := make(map[string]bool)

	for _, row := range rows {
		entry := catalog.Lookup(row.ProductID)
		qty := decimal.NewFromInt(int64(row.Quantity))

		switch row.GelatoType {
		case models.GelatoTypeDairy:
			milk = milk.Add(entry.MilkBasePerUnit.Mul(qty))
		case models.GelatoTypeSorbet:
			sugar = sugar.Add(entry.SugarBasePerUnit.Mul(qty))
		}

		agg.TypeTotals[row.Type] += row.Quantity
		agg.TotalItems += row.Quantity
		invoices[row.InvoiceNo] = true
	}

	agg.TotalOrders = len(invoices)
	agg.MilkProductionKg = milk.Round(0)
	agg.SugarSyrupProductionKg = sugar.Round(0)
	return agg
}
