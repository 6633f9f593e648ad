package main

import (
	"context"
	"flag"
	"time"

	log "github.com/sirupsen/logrus"

	"interval-collector/internal/collector"
	"interval-collector/internal/config"
	"interval-collector/internal/db"
	"interval-collector/internal/export"
)

func main() {
	outputDir := flag.String("output-dir", "", "Directory for the CSV files (overrides EXPORT_DIR)")
	batchSize := flag.Int("batch-size", 0, "Rows fetched per query (overrides EXPORT_BATCH_SIZE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.SetupLogging()

	dir := cfg.ExportDir
	if *outputDir != "" {
		dir = *outputDir
	}
	size := cfg.ExportBatchSize
	if *batchSize > 0 {
		size = *batchSize
	}

	ctx := collector.SetupSignalHandler(context.Background(), nil)

	store, err := db.Open(ctx, cfg.DatabaseURL, cfg.DatabaseAuthToken)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	start := time.Now()
	counts, err := export.New(store, size).ExportAll(ctx, dir)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	for _, table := range export.Tables {
		log.Printf("  %-10s %d rows", table, counts[table])
	}
	log.Printf("Export complete in %s -> %s", time.Since(start).Round(time.Millisecond), dir)
}
