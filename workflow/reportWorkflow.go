package workflow

import (
	"context"
	"errors"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/config"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models/reports"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/utils"
	"github.com/sirupsen/logrus"
)

const reportCreatedBy = "report-engine"

const (
	upsertAttempts = 3
	upsertBackoff  = 200 * time.Millisecond
)

// UnitFailure records one failed unit of work (a delivery date or a
// consolidated month) within a batch run.
type UnitFailure struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// RunSummary partitions a batch run into succeeded and failed units so
// callers can report partial success.
type RunSummary struct {
	Year      int           `json:"year"`
	Succeeded []string      `json:"succeeded"`
	Failed    []UnitFailure `json:"failed"`
}

// Env: REPORT_UNIT_TIMEOUT_SECONDS (default 30s). A stalled store call for
// one date times out and is recorded as that date's failure instead of
// hanging the whole batch.
func unitTimeout() time.Duration {
	seconds := 30
	if v := strings.TrimSpace(os.Getenv("REPORT_UNIT_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			seconds = n
		}
	}
	return time.Duration(seconds) * time.Second
}

func RunProductionReportWorkflow(ctx context.Context, src reports.OrderSource, store reports.ReportStore, logger *logrus.Logger, year int) (RunSummary, error) {
	return RunReportWorkflow(ctx, src, store, logger, models.ReportTypeProduction, year)
}

func RunDeliveryReportWorkflow(ctx context.Context, src reports.OrderSource, store reports.ReportStore, logger *logrus.Logger, year int) (RunSummary, error) {
	return RunReportWorkflow(ctx, src, store, logger, models.ReportTypeDelivery, year)
}

// RunReportWorkflow regenerates the yearly report document of the given
// type: every distinct delivery date of the year is aggregated and
// reconciled into the document one date at a time, and (for the
// production type) every month is then consolidated and reconciled the
// same way. Each unit of work commits before the next begins, so the run
// can be cancelled between units without leaving a half-written entry.
//
// A failing unit is recorded in the summary and never aborts its
// siblings; only enumeration/catalog errors (the store being unusable for
// the entire run) and context cancellation surface as a run error.
func RunReportWorkflow(ctx context.Context, src reports.OrderSource, store reports.ReportStore, logger *logrus.Logger, reportType models.ReportType, year int) (RunSummary, error) {
	summary := RunSummary{Year: year, Succeeded: []string{}, Failed: []UnitFailure{}}

	catalog, err := src.Catalog(ctx)
	if err != nil {
		return summary, err
	}
	dates, err := src.DeliveryDates(ctx, year)
	if err != nil {
		return summary, err
	}

	for _, date := range dates {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		key := models.DateEntryKey(date)
		if err := processDate(ctx, src, store, logger, catalog, reportType, year, date); err != nil {
			config.LogError(logger, "reportWorkflow.go", "RunReportWorkflow", "Processing delivery date", key, err)
			summary.Failed = append(summary.Failed, UnitFailure{Key: key, Reason: err.Error()})
			continue
		}
		summary.Succeeded = append(summary.Succeeded, key)
	}

	if reportType == models.ReportTypeProduction {
		consolidateYear(ctx, src, store, logger, catalog, year, &summary)
	}

	return summary, ctx.Err()
}

// RunReportWorkflowAllYears enumerates every year with at least one order
// and runs the workflow per year. Years are independent; a year whose run
// fails outright is recorded as a one-failure summary and processing
// continues.
func RunReportWorkflowAllYears(ctx context.Context, src reports.OrderSource, store reports.ReportStore, logger *logrus.Logger, reportType models.ReportType) ([]RunSummary, error) {
	years, err := src.DeliveryYears(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]RunSummary, 0, len(years))
	for _, year := range years {
		if ctx.Err() != nil {
			return summaries, ctx.Err()
		}
		summary, err := RunReportWorkflow(ctx, src, store, logger, reportType, year)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return append(summaries, summary), err
			}
			summary.Failed = append(summary.Failed, UnitFailure{Key: strconv.Itoa(year), Reason: err.Error()})
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// processDate runs one self-contained read-reconcile-upsert cycle for a
// delivery date, holding the year lock and retrying lost version races
// from a fresh read.
func processDate(ctx context.Context, src reports.OrderSource, store reports.ReportStore, logger *logrus.Logger, catalog reports.CatalogSnapshot, reportType models.ReportType, year int, date time.Time) error {
	dctx, cancel := context.WithTimeout(ctx, unitTimeout())
	defer cancel()

	lock, err := ObtainYearLock(dctx, reportType, year)
	if err != nil {
		return err
	}
	defer ReleaseYearLock(dctx, lock)

	agg, err := reports.ComputeDeliveryAggregate(dctx, src, catalog, date)
	if err != nil {
		return err
	}
	var entry *models.ReportEntry
	if agg != nil {
		e := models.NewDateEntry(agg)
		entry = &e
	}

	return upsertWithRetry(dctx, store, func(report *models.YearlyReport) models.ReportEntries {
		return reports.ReconcileEntry(dctx, src, catalog, report.Entries, models.DateEntryKey(date), entry, logger)
	}, reportType, year)
}

// consolidateYear refreshes every "<month> Consolidated" entry of the
// production report after the year's dates have been processed. Months
// are derived from the document's surviving date entries plus any stale
// consolidated keys left over from earlier runs (which reconcile to
// absent when their month no longer has dates).
func consolidateYear(ctx context.Context, src reports.OrderSource, store reports.ReportStore, logger *logrus.Logger, catalog reports.CatalogSnapshot, year int, summary *RunSummary) {
	report, err := store.GetReport(ctx, models.ReportTypeProduction, year)
	if err != nil {
		config.LogError(logger, "reportWorkflow.go", "consolidateYear", "Loading report before consolidation", year, err)
		summary.Failed = append(summary.Failed, UnitFailure{Key: strconv.Itoa(year) + " consolidation", Reason: err.Error()})
		return
	}
	if report == nil {
		return
	}

	months := make(map[string][]time.Time)
	for _, agg := range report.DateEntries() {
		key := utils.MonthKey(agg.DeliveryDate)
		months[key] = append(months[key], agg.DeliveryDate)
	}
	for _, entry := range report.Entries {
		if entry.Kind == models.EntryKindConsolidated && entry.Consolidated != nil {
			if _, ok := months[entry.Consolidated.MonthKey]; !ok {
				months[entry.Consolidated.MonthKey] = nil
			}
		}
	}

	monthKeys := make([]string, 0, len(months))
	for key := range months {
		monthKeys = append(monthKeys, key)
	}
	sort.Slice(monthKeys, func(i, j int) bool {
		ti, _ := time.Parse("Jan 2006", monthKeys[i])
		tj, _ := time.Parse("Jan 2006", monthKeys[j])
		return ti.Before(tj)
	})

	for _, monthKey := range monthKeys {
		if ctx.Err() != nil {
			return
		}
		targetKey := models.ConsolidatedEntryKey(monthKey)
		if err := processMonth(ctx, src, store, logger, catalog, year, monthKey, months[monthKey]); err != nil {
			config.LogError(logger, "reportWorkflow.go", "consolidateYear", "Processing consolidated month", targetKey, err)
			summary.Failed = append(summary.Failed, UnitFailure{Key: targetKey, Reason: err.Error()})
			continue
		}
		summary.Succeeded = append(summary.Succeeded, targetKey)
	}
}

func processMonth(ctx context.Context, src reports.OrderSource, store reports.ReportStore, logger *logrus.Logger, catalog reports.CatalogSnapshot, year int, monthKey string, dates []time.Time) error {
	mctx, cancel := context.WithTimeout(ctx, unitTimeout())
	defer cancel()

	lock, err := ObtainYearLock(mctx, models.ReportTypeProduction, year)
	if err != nil {
		return err
	}
	defer ReleaseYearLock(mctx, lock)

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var entry *models.ReportEntry
	if len(dates) > 0 {
		agg, err := reports.ConsolidateMonth(mctx, src, catalog, monthKey, dates)
		if err != nil {
			return err
		}
		if len(agg.Items) > 0 {
			e := models.NewConsolidatedEntry(agg)
			entry = &e
		}
	}

	return upsertWithRetry(mctx, store, func(report *models.YearlyReport) models.ReportEntries {
		return reports.ReconcileEntry(mctx, src, catalog, report.Entries, models.ConsolidatedEntryKey(monthKey), entry, logger)
	}, models.ReportTypeProduction, year)
}

// upsertWithRetry performs the read-reconcile-write cycle with bounded
// retries on optimistic-version conflicts, re-reading the document before
// every attempt. The delivery report variant deletes the whole document
// once its entry map empties; the production variant upserts regardless.
func upsertWithRetry(ctx context.Context, store reports.ReportStore, reconcile func(*models.YearlyReport) models.ReportEntries, reportType models.ReportType, year int) error {
	var lastErr error
	for attempt := 1; attempt <= upsertAttempts; attempt++ {
		report, err := store.GetReport(ctx, reportType, year)
		if err != nil {
			return err
		}
		if report == nil {
			report = &models.YearlyReport{
				ReportType: reportType,
				Year:       year,
				CreatedBy:  reportCreatedBy,
				Entries:    models.ReportEntries{},
			}
		}

		cleaned := reconcile(report)

		if reportType == models.ReportTypeDelivery && len(cleaned) == 0 {
			if report.SummaryID != "" {
				if err := store.DeleteReport(ctx, reportType, year); err != nil {
					return err
				}
			}
			reports.InvalidateReportCache(reportType, year)
			return nil
		}

		report.Entries = cleaned
		err = store.UpsertReport(ctx, report)
		if err == nil {
			reports.InvalidateReportCache(reportType, year)
			return nil
		}
		if !errors.Is(err, utils.ErrorVersionConflict) {
			return err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(upsertBackoff * time.Duration(attempt)):
		}
	}
	return lastErr
}
