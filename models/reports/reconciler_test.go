package reports

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// buildEntries computes real aggregates for the given dates and returns
// them as a stored entry map, round-tripped through JSON like the report
// document column.
func buildEntries(t *testing.T, src *memorySource, dates ...string) models.ReportEntries {
	t.Helper()
	ctx := context.Background()
	entries := models.ReportEntries{}
	for _, iso := range dates {
		agg, err := ComputeDeliveryAggregate(ctx, src, src.catalog, day(t, iso))
		if err != nil {
			t.Fatalf("aggregate %s: %v", iso, err)
		}
		if agg == nil {
			t.Fatalf("aggregate %s unexpectedly absent", iso)
		}
		entries[iso] = models.NewDateEntry(agg)
	}
	return cloneEntries(t, entries)
}

func TestReconcileEntry_RemovesStaleSiblingAndKeepsValidOne(t *testing.T) {
	ctx := context.Background()
	src := newMemorySource()
	src.catalog = gelatoFixtureCatalog()

	src.addOrder(fixtureOrder(1, day(t, "2025-06-01"), "INV-001", customer(1, "Bar Roma"),
		dairyItem(1, "Fior di Latte", 2)))
	src.addOrder(fixtureOrder(2, day(t, "2025-06-02"), "INV-002", customer(2, "Gelateria Nord"),
		sorbetItem(2, "Limone", 4)))

	entries := buildEntries(t, src, "2025-06-01", "2025-06-02")

	// Order O1 is deleted after the report was generated. Regenerating
	// 2025-06-01 finds nothing valid: the target reconciles to absent,
	// while the untouched sibling date revalidates clean.
	src.removeOrder("2025-06-01", 1)

	cleaned := ReconcileEntry(ctx, src, src.catalog, entries, "2025-06-01", nil, quietLogger())

	if _, ok := cleaned["2025-06-01"]; ok {
		t.Errorf("stale target key still present: %s", fmtKeys(cleaned))
	}
	sibling, ok := cleaned["2025-06-02"]
	if !ok {
		t.Fatalf("valid sibling was dropped: %s", fmtKeys(cleaned))
	}
	if sibling.Date.TotalItems != 4 {
		t.Errorf("sibling TotalItems = %d, want 4 (must be unchanged)", sibling.Date.TotalItems)
	}
}

func TestReconcileEntry_NewAggregateIsAuthoritative(t *testing.T) {
	ctx := context.Background()
	src := newMemorySource()
	src.catalog = gelatoFixtureCatalog()
	src.addOrder(fixtureOrder(1, day(t, "2025-06-01"), "INV-001", customer(1, "Bar Roma"),
		dairyItem(1, "Fior di Latte", 2)))

	entries := buildEntries(t, src, "2025-06-01")

	// The order grows an extra item; the fresh aggregate replaces the old
	// entry wholesale, no merging of row lists.
	src.removeOrder("2025-06-01", 1)
	src.addOrder(fixtureOrder(1, day(t, "2025-06-01"), "INV-001", customer(1, "Bar Roma"),
		dairyItem(1, "Fior di Latte", 2), sorbetItem(2, "Limone", 9)))

	agg, err := ComputeDeliveryAggregate(ctx, src, src.catalog, day(t, "2025-06-01"))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	entry := models.NewDateEntry(agg)
	cleaned := ReconcileEntry(ctx, src, src.catalog, entries, "2025-06-01", &entry, quietLogger())

	got := cleaned["2025-06-01"]
	if got.Date.TotalItems != 11 {
		t.Errorf("TotalItems = %d, want 11", got.Date.TotalItems)
	}
	if len(got.Date.Items) != 2 {
		t.Errorf("rows = %d, want 2", len(got.Date.Items))
	}
}

func TestReconcileEntry_PartialPruneRecomputesTotals(t *testing.T) {
	ctx := context.Background()
	src := newMemorySource()
	src.catalog = gelatoFixtureCatalog()

	date := day(t, "2025-06-02")
	src.addOrder(fixtureOrder(1, date, "INV-001", customer(1, "Bar Roma"),
		dairyItem(1, "Fior di Latte", 2)))
	src.addOrder(fixtureOrder(2, date, "INV-002", customer(2, "Gelateria Nord"),
		sorbetItem(2, "Limone", 5)))

	entries := buildEntries(t, src, "2025-06-02")

	// One of the two invoices disappears; reconciling a different key
	// must prune just the stale rows and recompute the totals.
	src.removeOrder("2025-06-02", 2)

	cleaned := ReconcileEntry(ctx, src, src.catalog, entries, "2025-06-30", nil, quietLogger())

	entry, ok := cleaned["2025-06-02"]
	if !ok {
		t.Fatalf("entry was dropped instead of pruned: %s", fmtKeys(cleaned))
	}
	agg := entry.Date
	if len(agg.Items) != 1 {
		t.Fatalf("rows = %d, want 1", len(agg.Items))
	}
	if agg.Items[0].InvoiceNo != "INV-001" {
		t.Errorf("surviving row invoice = %s, want INV-001", agg.Items[0].InvoiceNo)
	}
	if agg.TotalOrders != 1 || agg.TotalItems != 2 {
		t.Errorf("totals = (%d orders, %d items), want (1, 2)", agg.TotalOrders, agg.TotalItems)
	}
	if got := agg.SugarSyrupProductionKg.String(); got != "0" {
		t.Errorf("SugarSyrupProductionKg = %s, want 0 after pruning the sorbet invoice", got)
	}

	// Pruning invariant: no entry may survive with an empty row list.
	for key, e := range cleaned {
		if e.Empty() {
			t.Errorf("entry %s is empty after reconcile", key)
		}
	}
}

func TestReconcileEntry_RevalidationFailureLeavesEntryUntouched(t *testing.T) {
	ctx := context.Background()
	src := newMemorySource()
	src.catalog = gelatoFixtureCatalog()

	src.addOrder(fixtureOrder(1, day(t, "2025-06-01"), "INV-001", customer(1, "Bar Roma"),
		dairyItem(1, "Fior di Latte", 2)))
	src.addOrder(fixtureOrder(2, day(t, "2025-06-02"), "INV-002", customer(2, "Gelateria Nord"),
		sorbetItem(2, "Limone", 4)))

	entries := buildEntries(t, src, "2025-06-01", "2025-06-02")

	// The sibling's revalidation query fails; the target update must
	// still go through and the sibling stays as-is for this run.
	src.failDates["2025-06-02"] = errors.New("connection reset")

	cleaned := ReconcileEntry(ctx, src, src.catalog, entries, "2025-06-01", nil, quietLogger())

	if _, ok := cleaned["2025-06-01"]; ok {
		t.Error("target key should have been removed")
	}
	sibling, ok := cleaned["2025-06-02"]
	if !ok {
		t.Fatal("failing sibling was dropped; it must be kept best-effort")
	}
	if sibling.Date.TotalItems != 4 {
		t.Errorf("sibling mutated despite failed revalidation: %+v", sibling.Date)
	}
}

func TestReconcileEntry_ConsolidatedSiblingPassesThrough(t *testing.T) {
	ctx := context.Background()
	src := newMemorySource()
	src.catalog = gelatoFixtureCatalog()
	src.addOrder(fixtureOrder(1, day(t, "2025-06-01"), "INV-001", customer(1, "Bar Roma"),
		dairyItem(1, "Fior di Latte", 2)))

	entries := buildEntries(t, src, "2025-06-01")
	entries[models.ConsolidatedEntryKey("Jun 2025")] = models.NewConsolidatedEntry(&models.ConsolidatedMonthAggregate{
		MonthKey: "Jun 2025",
		Items:    []models.ConsolidatedItem{{ProductName: "Fior di Latte", Type: "Tub 5L", Quantity: 2}},
	})

	cleaned := ReconcileEntry(ctx, src, src.catalog, entries, "2025-06-01", nil, quietLogger())

	if _, ok := cleaned["Jun 2025 Consolidated"]; !ok {
		t.Errorf("consolidated sibling was dropped: %s", fmtKeys(cleaned))
	}
}
