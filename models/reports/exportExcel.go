package reports

import (
	"fmt"
	"sort"
	"time"

	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models"
	"github.com/xuri/excelize/v2"
)

// The spreadsheet layout below is a fixed visual contract with the
// business: column positions, the shared-row summary column and the sheet
// ordering must not drift even when the data driving them is sparse.

var dateSheetHeaders = []string{"Delivery Date", "Customer", "Product", "Type", "Qty", "Gelato Type", "Weight (kg)"}

var consolidatedSheetHeaders = []string{"Product", "Type", "Qty", "Cost/Unit", "Price/Unit", "Total Cost", "Total Sales", "Cost Ratio (%)"}

// Summary cells sit in column I, sharing rows with the data columns: extra
// summary rows extend past the item list with only column I filled, and
// extra item rows leave column I blank.
const summaryColumn = "I"

const noDataSheetName = "No Data"

// ExportReportExcel renders a yearly report document into a workbook and
// returns it with the suggested download filename. One sheet per date
// entry (ascending, labeled with the short date form), then one sheet per
// consolidated entry (ascending by month, labeled with the month key). A
// nil or empty report produces a placeholder workbook instead of failing.
func ExportReportExcel(reportType models.ReportType, year int, report *models.YearlyReport) (*excelize.File, string, error) {
	f := excelize.NewFile()
	filename := fmt.Sprintf("%s_%d.xlsx", reportType.FileLabel(), year)

	if report == nil || len(report.Entries) == 0 {
		writeNoDataSheet(f)
		return f, filename, nil
	}

	dateAggs, monthAggs := splitEntries(report.Entries)
	if len(dateAggs) == 0 && len(monthAggs) == 0 {
		writeNoDataSheet(f)
		return f, filename, nil
	}

	dateHeaderStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", err
	}
	monthHeaderStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"70AD47"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", err
	}
	currencyFmt := "#,##0.00"
	currencyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFmt})
	if err != nil {
		return nil, "", err
	}

	first := true
	addSheet := func(label string) (string, error) {
		if first {
			first = false
			if err := f.SetSheetName("Sheet1", label); err != nil {
				return "", err
			}
			return label, nil
		}
		if _, err := f.NewSheet(label); err != nil {
			return "", err
		}
		return label, nil
	}

	for _, agg := range dateAggs {
		sheet, err := addSheet(agg.DeliveryDate.Format("Jan 2"))
		if err != nil {
			return nil, "", err
		}
		if err := writeDateSheet(f, sheet, agg, dateHeaderStyle); err != nil {
			return nil, "", err
		}
	}

	for _, agg := range monthAggs {
		sheet, err := addSheet(agg.MonthKey)
		if err != nil {
			return nil, "", err
		}
		if err := writeConsolidatedSheet(f, sheet, agg, monthHeaderStyle, currencyStyle); err != nil {
			return nil, "", err
		}
	}

	return f, filename, nil
}

// splitEntries discriminates the entry union into date aggregates
// (ascending by date) and consolidated aggregates (ascending by month).
func splitEntries(entries models.ReportEntries) ([]*models.DeliveryDateAggregate, []*models.ConsolidatedMonthAggregate) {
	var dateAggs []*models.DeliveryDateAggregate
	var monthAggs []*models.ConsolidatedMonthAggregate

	for _, entry := range entries {
		switch entry.Kind {
		case models.EntryKindDate:
			if entry.Date != nil && len(entry.Date.Items) > 0 {
				dateAggs = append(dateAggs, entry.Date)
			}
		case models.EntryKindConsolidated:
			if entry.Consolidated != nil && len(entry.Consolidated.Items) > 0 {
				monthAggs = append(monthAggs, entry.Consolidated)
			}
		}
	}

	sort.SliceStable(dateAggs, func(i, j int) bool {
		return dateAggs[i].DeliveryDate.Before(dateAggs[j].DeliveryDate)
	})
	sort.SliceStable(monthAggs, func(i, j int) bool {
		return monthSortValue(monthAggs[i].MonthKey).Before(monthSortValue(monthAggs[j].MonthKey))
	})

	return dateAggs, monthAggs
}

func monthSortValue(monthKey string) time.Time {
	t, err := time.Parse("Jan 2006", monthKey)
	if err != nil {
		return time.Time{}
	}
	return t
}

func writeNoDataSheet(f *excelize.File) {
	_ = f.SetSheetName("Sheet1", noDataSheetName)
	_ = f.SetCellValue(noDataSheetName, "A1", "No report data available")
}

func writeDateSheet(f *excelize.File, sheet string, agg *models.DeliveryDateAggregate, headerStyle int) error {
	col := 'A'
	for _, h := range dateSheetHeaders {
		if err := f.SetCellValue(sheet, string(col)+"1", h); err != nil {
			return err
		}
		col++
	}
	if err := f.SetCellValue(sheet, summaryColumn+"1", "Summary"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", summaryColumn+"1", headerStyle); err != nil {
		return err
	}

	summaryCells := buildSummaryCells(agg)

	// Data rows and summary rows share the same row budget; whichever list
	// is longer decides how many rows the sheet gets.
	rowCount := len(agg.Items)
	if len(summaryCells) > rowCount {
		rowCount = len(summaryCells)
	}

	for i := 0; i < rowCount; i++ {
		rowNo := i + 2
		if i < len(agg.Items) {
			item := agg.Items[i]
			if err := f.SetCellValue(sheet, "A"+fmt.Sprint(rowNo), item.DeliveryDate.Format("2006-01-02")); err != nil {
				return err
			}
			f.SetCellValue(sheet, "B"+fmt.Sprint(rowNo), item.CustomerName)
			f.SetCellValue(sheet, "C"+fmt.Sprint(rowNo), item.ProductName)
			f.SetCellValue(sheet, "D"+fmt.Sprint(rowNo), item.Type)
			f.SetCellValue(sheet, "E"+fmt.Sprint(rowNo), item.Quantity)
			f.SetCellValue(sheet, "F"+fmt.Sprint(rowNo), item.GelatoType)
			f.SetCellValue(sheet, "G"+fmt.Sprint(rowNo), item.Weight.InexactFloat64())
		}
		if i < len(summaryCells) {
			if summaryCells[i] == nil {
				continue
			}
			if err := f.SetCellValue(sheet, summaryColumn+fmt.Sprint(rowNo), summaryCells[i]); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildSummaryCells emits the summary column top-down in its fixed order:
// dairy total, blank, sugar-syrup header, sorbet total, blank, then a
// (label, value, blank) triple per type total, types sorted by name.
func buildSummaryCells(agg *models.DeliveryDateAggregate) []interface{} {
	cells := []interface{}{
		fmt.Sprintf("Milk Production: %s kg", agg.MilkProductionKg.String()),
		nil,
		"Sugar Syrup Production",
		fmt.Sprintf("%s kg", agg.SugarSyrupProductionKg.String()),
		nil,
	}

	types := make([]string, 0, len(agg.TypeTotals))
	for t := range agg.TypeTotals {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		cells = append(cells, t, agg.TypeTotals[t], nil)
	}
	return cells
}

func writeConsolidatedSheet(f *excelize.File, sheet string, agg *models.ConsolidatedMonthAggregate, headerStyle int, currencyStyle int) error {
	col := 'A'
	for _, h := range consolidatedSheetHeaders {
		if err := f.SetCellValue(sheet, string(col)+"1", h); err != nil {
			return err
		}
		col++
	}
	if err := f.SetCellStyle(sheet, "A1", "H1", headerStyle); err != nil {
		return err
	}

	for i, item := range agg.Items {
		rowNo := i + 2
		f.SetCellValue(sheet, "A"+fmt.Sprint(rowNo), item.ProductName)
		f.SetCellValue(sheet, "B"+fmt.Sprint(rowNo), item.Type)
		f.SetCellValue(sheet, "C"+fmt.Sprint(rowNo), item.Quantity)
		f.SetCellValue(sheet, "D"+fmt.Sprint(rowNo), item.CostPerUnit.InexactFloat64())
		f.SetCellValue(sheet, "E"+fmt.Sprint(rowNo), item.PricePerUnit.InexactFloat64())
		f.SetCellValue(sheet, "F"+fmt.Sprint(rowNo), item.TotalCost.InexactFloat64())
		f.SetCellValue(sheet, "G"+fmt.Sprint(rowNo), item.TotalSales.InexactFloat64())
		f.SetCellValue(sheet, "H"+fmt.Sprint(rowNo), item.CostRatioPct.InexactFloat64())
	}

	if len(agg.Items) > 0 {
		lastRow := len(agg.Items) + 1
		if err := f.SetCellStyle(sheet, "D2", "G"+fmt.Sprint(lastRow), currencyStyle); err != nil {
			return err
		}
	}

	return nil
}
