package storage

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const (
	// Rotation triggers
	MaxMatchesPerFile = 1000
	MaxFileAge        = 1 * time.Hour
)

// FileRotator writes archive records to rotating JSONL files.
// Files move hot -> warm on rotation and warm -> cold (gzip) on CompressWarm.
type FileRotator struct {
	mu sync.Mutex

	// Directories
	hotDir  string // Active writes
	warmDir string // Closed files
	coldDir string // Compressed archives

	maxMatches int
	maxAge     time.Duration
	now        func() time.Time

	// Current file state
	currentFile   *os.File
	currentWriter *bufio.Writer
	currentPath   string
	matchCount    int
	fileOpenedAt  time.Time
	seq           int
}

// RotatorOption configures a FileRotator
type RotatorOption func(*FileRotator)

// WithMaxMatches sets how many matches a file holds before rotating
func WithMaxMatches(n int) RotatorOption {
	return func(r *FileRotator) {
		if n > 0 {
			r.maxMatches = n
		}
	}
}

// WithMaxAge sets how long a file stays open before rotating
func WithMaxAge(d time.Duration) RotatorOption {
	return func(r *FileRotator) {
		if d > 0 {
			r.maxAge = d
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) RotatorOption {
	return func(r *FileRotator) {
		r.now = now
	}
}

// NewFileRotator creates a new rotator with the given base directory
func NewFileRotator(baseDir string, opts ...RotatorOption) (*FileRotator, error) {
	r := &FileRotator{
		hotDir:     filepath.Join(baseDir, "hot"),
		warmDir:    filepath.Join(baseDir, "warm"),
		coldDir:    filepath.Join(baseDir, "cold"),
		maxMatches: MaxMatchesPerFile,
		maxAge:     MaxFileAge,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, dir := range []string{r.hotDir, r.warmDir, r.coldDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := r.rotate(); err != nil {
		return nil, err
	}
	return r, nil
}

// SetColdDir allows setting a different cold storage path (e.g., HDD)
func (r *FileRotator) SetColdDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create cold directory: %w", err)
	}
	r.mu.Lock()
	r.coldDir = path
	r.mu.Unlock()
	return nil
}

// Append writes one match record, flushes, and rotates if a trigger is hit.
func (r *FileRotator) Append(record *ArchiveRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentFile == nil {
		return fmt.Errorf("rotator is closed")
	}
	if _, err := r.currentWriter.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := r.currentWriter.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	r.matchCount++

	// Flush after each match
	if err := r.currentWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	if r.shouldRotate() {
		return r.rotate()
	}
	return nil
}

func (r *FileRotator) shouldRotate() bool {
	if r.currentFile == nil {
		return true
	}
	if r.matchCount >= r.maxMatches {
		return true
	}
	return r.now().Sub(r.fileOpenedAt) >= r.maxAge
}

// rotate closes the current file, moves it to warm, and opens a new one
func (r *FileRotator) rotate() error {
	if err := r.retire(); err != nil {
		return err
	}

	r.seq++
	filename := fmt.Sprintf("raw_timelines_%s_%04d.jsonl", r.now().Format("2006-01-02_15-04-05"), r.seq)
	r.currentPath = filepath.Join(r.hotDir, filename)

	file, err := os.Create(r.currentPath)
	if err != nil {
		return fmt.Errorf("failed to create new file: %w", err)
	}

	r.currentFile = file
	r.currentWriter = bufio.NewWriterSize(file, 64*1024) // 64KB buffer
	r.matchCount = 0
	r.fileOpenedAt = r.now()

	log.Debugf("[Rotator] Opened new file: %s", filename)
	return nil
}

// retire flushes and closes the current file. Files with data move to warm,
// empty ones are removed.
func (r *FileRotator) retire() error {
	if r.currentFile == nil {
		return nil
	}
	if err := r.currentWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush before rotation: %w", err)
	}
	if err := r.currentFile.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	r.currentFile = nil

	if r.matchCount == 0 {
		os.Remove(r.currentPath)
		return nil
	}

	warmPath := filepath.Join(r.warmDir, filepath.Base(r.currentPath))
	if err := os.Rename(r.currentPath, warmPath); err != nil {
		return fmt.Errorf("failed to move to warm storage: %w", err)
	}
	log.Printf("[Rotator] Moved %s to warm storage (%d matches)", filepath.Base(r.currentPath), r.matchCount)
	return nil
}

// Close flushes and closes the current file
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retire()
}

// Stats returns current rotator statistics
func (r *FileRotator) Stats() (matchesInCurrentFile int, currentFileName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matchCount, filepath.Base(r.currentPath)
}

// WarmFiles lists closed files awaiting compression, oldest first
func (r *FileRotator) WarmFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.warmDir, "*.jsonl"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// CompressWarm moves every warm file to cold storage and returns how many it moved.
func (r *FileRotator) CompressWarm() (int, error) {
	files, err := r.WarmFiles()
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	coldDir := r.coldDir
	r.mu.Unlock()

	for i, path := range files {
		if err := CompressToCold(path, coldDir); err != nil {
			return i, fmt.Errorf("failed to compress %s: %w", filepath.Base(path), err)
		}
	}
	return len(files), nil
}

// CompressToCold compresses a warm file and moves it to cold storage
func CompressToCold(warmPath, coldDir string) error {
	src, err := os.Open(warmPath)
	if err != nil {
		return err
	}
	defer src.Close()

	coldPath := filepath.Join(coldDir, filepath.Base(warmPath)+".gz")
	dst, err := os.Create(coldPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	gzWriter := gzip.NewWriter(dst)
	if _, err := io.Copy(gzWriter, src); err != nil {
		return err
	}
	if err := gzWriter.Close(); err != nil {
		return err
	}

	if err := os.Remove(warmPath); err != nil {
		return err
	}

	log.Printf("[Rotator] Compressed %s to cold storage", filepath.Base(warmPath))
	return nil
}
