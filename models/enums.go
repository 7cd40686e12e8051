package models

import "errors"

type ReportType string

const (
	ReportTypeProduction ReportType = "production"
	ReportTypeDelivery   ReportType = "delivery"
)

func ParseReportType(s string) (ReportType, error) {
	switch s {
	case "production":
		return ReportTypeProduction, nil
	case "delivery":
		return ReportTypeDelivery, nil
	}
	return "", errors.New("invalid report type")
}

// FileLabel is the prefix of the suggested export filename.
func (t ReportType) FileLabel() string {
	switch t {
	case ReportTypeProduction:
		return "ProductionReport"
	case ReportTypeDelivery:
		return "DeliveryReport"
	}
	return "Report"
}

type EntryKind string

const (
	EntryKindDate         EntryKind = "date"
	EntryKindConsolidated EntryKind = "consolidated"
)

const (
	GelatoTypeDairy  = "Dairy"
	GelatoTypeSorbet = "Sorbet"
)
