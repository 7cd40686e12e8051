package reports

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/config"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models"
)

func reportCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_REPORT_CACHE"))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

func reportCacheTTL() time.Duration {
	// Env: REPORT_CACHE_TTL_SECONDS (default 120s)
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func reportCacheKey(reportType models.ReportType, year int) string {
	return fmt.Sprintf("report:%s:%d", reportType, year)
}

// GetCachedReport returns the cached document for (reportType, year), or
// (nil, false) on a miss, cache disabled, or redis unavailable.
func GetCachedReport(reportType models.ReportType, year int) (*models.YearlyReport, bool) {
	if !reportCacheEnabled() {
		return nil, false
	}
	var report models.YearlyReport
	found, err := config.GetRedisObject(reportCacheKey(reportType, year), &report)
	if err != nil || !found {
		return nil, false
	}
	return &report, true
}

// SetCachedReport stores the document with the configured TTL. Best effort.
func SetCachedReport(report *models.YearlyReport) {
	if report == nil || !reportCacheEnabled() {
		return
	}
	_ = config.SetRedisObject(reportCacheKey(report.ReportType, report.Year), report, reportCacheTTL())
}

// InvalidateReportCache drops the cached document after a write. Best effort.
func InvalidateReportCache(reportType models.ReportType, year int) {
	_ = config.RemoveRedisKey(reportCacheKey(reportType, year))
}
