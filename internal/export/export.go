package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"interval-collector/internal/db"
)

const DefaultBatchSize = 10000

// Tables are exported in this order, one CSV per table.
var Tables = []string{db.TableMatches, db.TablePlayers, db.TableIntervals}

// Exporter dumps stored records to CSV.
type Exporter struct {
	scanner   db.Scanner
	batchSize int
}

// New creates an exporter. A non-positive batch size uses DefaultBatchSize.
func New(scanner db.Scanner, batchSize int) *Exporter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Exporter{scanner: scanner, batchSize: batchSize}
}

// ExportAll writes <table>.csv for every table into dir and returns the row
// count per table.
func (e *Exporter) ExportAll(ctx context.Context, dir string) (map[string]int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}

	counts := make(map[string]int, len(Tables))
	for _, table := range Tables {
		n, err := e.ExportTable(ctx, table, filepath.Join(dir, table+".csv"))
		if err != nil {
			return counts, err
		}
		counts[table] = n
	}
	return counts, nil
}

// ExportTable writes one table to path. The file is written under a temporary
// name and renamed once complete.
func (e *Exporter) ExportTable(ctx context.Context, table, path string) (int, error) {
	cols, err := db.Columns(table)
	if err != nil {
		return 0, err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	defer os.Remove(tmp)

	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		f.Close()
		return 0, err
	}

	total := 0
	record := make([]string, len(cols))
	err = e.scanner.ScanBatches(ctx, table, e.batchSize, func(rows [][]any) error {
		for _, row := range rows {
			for i, v := range row {
				record[i] = formatValue(v)
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		total += len(rows)
		w.Flush()
		log.Debugf("[Export] %s: %d rows", table, total)
		return w.Error()
	})
	if err == nil {
		w.Flush()
		err = w.Error()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to export %s: %w", table, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return 0, err
	}
	log.Printf("[Export] Wrote %d rows to %s", total, path)
	return total, nil
}

// formatValue renders a column value. NULL is an empty field.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}
