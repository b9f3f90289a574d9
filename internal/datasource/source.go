// Package datasource discovers the places a workspace's orders can come
// from, validates them, and selects the freshest valid one. Orders live
// either in orders.jsonl next to the other workspace files or in an
// orders.db SQLite database written by the ordering service.
package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vanderheijden86/orbview/pkg/loader"
	"github.com/vanderheijden86/orbview/pkg/model"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeSQLite is a SQLite orders database (orders.db)
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSONL is an orders.jsonl file
	SourceTypeJSONL SourceType = "jsonl"
)

// DatabaseFile is the SQLite orders database name inside a workspace.
const DatabaseFile = "orders.db"

// Priority values for source types (higher = more authoritative)
const (
	PrioritySQLite = 100
	PriorityJSONL  = 50
)

// ErrNoSources is returned when no valid source exists.
var ErrNoSources = errors.New("no valid order sources")

// DataSource represents a potential source of orders
type DataSource struct {
	Type            SourceType `json:"type"`
	Path            string     `json:"path"`
	Priority        int        `json:"priority"`
	ModTime         time.Time  `json:"mod_time"`
	Valid           bool       `json:"valid"`
	ValidationError string     `json:"validation_error,omitempty"`
	OrderCount      int        `json:"order_count"`
	Size            int64      `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, orders=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.OrderCount, status)
}

// DiscoveryOptions configures source discovery behavior
type DiscoveryOptions struct {
	// Dir is the workspace directory
	Dir string
	// ValidateAfterDiscovery runs validation on each discovered source
	ValidateAfterDiscovery bool
	// IncludeInvalid includes sources that failed validation in results
	IncludeInvalid bool
	// Logger receives discovery messages when set
	Logger func(msg string)
}

// DiscoverSources finds the order sources of a workspace, freshest first.
func DiscoverSources(opts DiscoveryOptions) ([]DataSource, error) {
	logf := func(format string, args ...any) {
		if opts.Logger != nil {
			opts.Logger(fmt.Sprintf(format, args...))
		}
	}
	if opts.Dir == "" {
		return nil, fmt.Errorf("discovering sources: empty workspace directory")
	}

	var sources []DataSource
	for _, c := range []struct {
		name     string
		typ      SourceType
		priority int
	}{
		{DatabaseFile, SourceTypeSQLite, PrioritySQLite},
		{loader.OrdersFile, SourceTypeJSONL, PriorityJSONL},
	} {
		path := filepath.Join(opts.Dir, c.name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		sources = append(sources, DataSource{
			Type:     c.typ,
			Path:     path,
			Priority: c.priority,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
		logf("found %s: %s (mod=%s)", c.typ, path, info.ModTime().Format(time.RFC3339))
	}

	if opts.ValidateAfterDiscovery {
		for i := range sources {
			if err := ValidateSource(&sources[i]); err != nil {
				logf("validation failed for %s: %v", sources[i].Path, err)
			}
		}
		if !opts.IncludeInvalid {
			valid := sources[:0]
			for _, s := range sources {
				if s.Valid {
					valid = append(valid, s)
				}
			}
			sources = valid
		}
	}

	sortSources(sources)
	logf("discovered %d sources", len(sources))
	return sources, nil
}

// sortSources orders by modification time, newest first, and by priority
// when timestamps are equal.
func sortSources(sources []DataSource) {
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})
}

// ValidateSource opens the source and counts its orders, recording the
// outcome on s.
func ValidateSource(s *DataSource) error {
	var count int
	var err error
	switch s.Type {
	case SourceTypeSQLite:
		var store *SQLiteStore
		store, err = OpenSQLiteStore(s.Path, true)
		if err == nil {
			count, err = store.CountOrders()
			store.Close()
		}
	case SourceTypeJSONL:
		var orders []model.Order
		orders, err = loader.LoadOrdersFromFile(s.Path, loader.ParseOptions{WarningHandler: func(string) {}})
		count = len(orders)
	default:
		err = fmt.Errorf("unknown source type: %s", s.Type)
	}
	if err != nil {
		s.Valid = false
		s.ValidationError = err.Error()
		return err
	}
	s.Valid = true
	s.ValidationError = ""
	s.OrderCount = count
	return nil
}

// SelectBestSource returns the freshest valid source. Among sources with
// the same modification time the higher priority wins.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	candidates := make([]DataSource, 0, len(sources))
	for _, s := range sources {
		if s.Valid {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return DataSource{}, ErrNoSources
	}
	sortSources(candidates)
	return candidates[0], nil
}
