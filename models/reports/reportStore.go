package reports

import (
	"context"
	"errors"

	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportStore owns the one-document-per-year report records. The yearly
// report is a shared mutable document, so UpsertReport performs an
// optimistic version check: a lost race surfaces as
// utils.ErrorVersionConflict and callers retry from a fresh read.
type ReportStore interface {
	// GetReport fetches the document for (reportType, year), nil when absent.
	GetReport(ctx context.Context, reportType models.ReportType, year int) (*models.YearlyReport, error)
	// UpsertReport creates the document or rewrites its entries, bumping
	// Version. Returns utils.ErrorVersionConflict when a concurrent writer
	// got there first.
	UpsertReport(ctx context.Context, report *models.YearlyReport) error
	// DeleteReport removes the whole document for (reportType, year).
	DeleteReport(ctx context.Context, reportType models.ReportType, year int) error
}

type DBReportStore struct {
	db *gorm.DB
}

func NewDBReportStore(db *gorm.DB) *DBReportStore {
	return &DBReportStore{db: db}
}

func (s *DBReportStore) GetReport(ctx context.Context, reportType models.ReportType, year int) (*models.YearlyReport, error) {
	var report models.YearlyReport
	err := s.db.WithContext(ctx).
		Where("report_type = ? AND year = ?", reportType, year).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func (s *DBReportStore) UpsertReport(ctx context.Context, report *models.YearlyReport) error {
	if report.SummaryID == "" {
		report.SummaryID = uuid.NewString()
		report.Version = 1
		err := s.db.WithContext(ctx).Create(report).Error
		if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent writer created the year's document between our
			// read and this insert.
			return utils.ErrorVersionConflict
		}
		return err
	}

	current := report.Version
	result := s.db.WithContext(ctx).Model(&models.YearlyReport{}).
		Where("summary_id = ? AND version = ?", report.SummaryID, current).
		Updates(map[string]interface{}{
			"entries": report.Entries,
			"version": current + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorVersionConflict
	}
	report.Version = current + 1
	return nil
}

func (s *DBReportStore) DeleteReport(ctx context.Context, reportType models.ReportType, year int) error {
	return s.db.WithContext(ctx).
		Where("report_type = ? AND year = ?", reportType, year).
		Delete(&models.YearlyReport{}).Error
}
