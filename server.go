package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/config"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models/reports"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/utils"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/workflow"
)

const defaultPort = "8080"

const excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func main() {
	logger := config.GetLogger()

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(customErrorLogger(logger))

	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate report endpoints on dependency readiness.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	r.Use(cors.New(corsConfig))

	api := r.Group("/api")
	api.POST("/reports/:type/generate", generateReportsHandler)
	api.GET("/reports/:type/:year", getReportHandler)
	api.GET("/reports/:type/:year/export", exportReportHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Start listening first; dependencies connect behind the readiness gate.
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{"port": port}).Info("report engine listening")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
	if db := config.GetDB(); db != nil {
		if sqlDB, err := db.DB(); err == nil && sqlDB != nil {
			_ = sqlDB.Close()
		}
	}
}

type generateRequest struct {
	Year *int `form:"year" binding:"omitempty,gte=2000,lte=2100"`
}

// generateReportsHandler is the single batch trigger the UI calls:
// "generate reports for year | for all years". It responds with the run
// summary so the UI can show partial success.
func generateReportsHandler(c *gin.Context) {
	reportType, err := models.ParseReportType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req generateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}

	db := config.GetDB()
	src := reports.NewDBOrderSource(db)
	store := reports.NewDBReportStore(db)
	logger := config.GetLogger()

	// Validation pins a bound year to >= 2000, so zero means "all years".
	year := utils.DereferencePtr(req.Year)
	if year == 0 {
		summaries, err := workflow.RunReportWorkflowAllYears(c.Request.Context(), src, store, logger, reportType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "runs": summaries})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": summaries})
		return
	}

	summary, err := workflow.RunReportWorkflow(c.Request.Context(), src, store, logger, reportType, year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "run": summary})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": summary})
}

func getReportHandler(c *gin.Context) {
	reportType, year, ok := reportParams(c)
	if !ok {
		return
	}

	if cached, hit := reports.GetCachedReport(reportType, year); hit {
		c.JSON(http.StatusOK, cached)
		return
	}

	report, err := reports.NewDBReportStore(config.GetDB()).GetReport(c.Request.Context(), reportType, year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": utils.ErrorRecordNotFound.Error()})
		return
	}
	reports.SetCachedReport(report)
	c.JSON(http.StatusOK, report)
}

func exportReportHandler(c *gin.Context) {
	reportType, year, ok := reportParams(c)
	if !ok {
		return
	}

	report, err := reports.NewDBReportStore(config.GetDB()).GetReport(c.Request.Context(), reportType, year)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	f, filename, err := reports.ExportReportExcel(reportType, year, report)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, excelContentType, buf.Bytes())
}

func reportParams(c *gin.Context) (models.ReportType, int, bool) {
	reportType, err := models.ParseReportType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", 0, false
	}
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 || year > 2100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return "", 0, false
	}
	return reportType, year, true
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// customErrorLogger logs only requests that recorded errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}
