package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/config"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/models/reports"
	"github.com/evegendelacruz/Gelato-Wholesale-Collective-Ordering-System-sub001/workflow"
)

// One-shot regeneration of the yearly report documents, for operators and
// cron. The HTTP trigger in server.go does the same work on demand.
func main() {
	reportTypeFlag := flag.String("type", "production", "Report type: production or delivery")
	yearFlag := flag.Int("year", 0, "Target year (0 = all years with orders)")
	flag.Parse()

	reportType, err := models.ParseReportType(*reportTypeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	src := reports.NewDBOrderSource(db)
	store := reports.NewDBReportStore(db)
	logger := config.GetLogger()

	var summaries []workflow.RunSummary
	if *yearFlag == 0 {
		summaries, err = workflow.RunReportWorkflowAllYears(ctx, src, store, logger, reportType)
	} else {
		var summary workflow.RunSummary
		summary, err = workflow.RunReportWorkflow(ctx, src, store, logger, reportType, *yearFlag)
		summaries = []workflow.RunSummary{summary}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(summaries, "", "  ")
	fmt.Println(string(out))

	for _, s := range summaries {
		if len(s.Failed) > 0 {
			fmt.Fprintf(os.Stderr, "year %d: %d unit(s) failed\n", s.Year, len(s.Failed))
			os.Exit(2)
		}
	}
}
