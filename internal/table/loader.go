package table

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
)

// Options controls how files are read into a Table.
type Options struct {
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, picked from the extension.
	Delimiter rune
	// Format pins numeric separators for every column.
	Format NumberFormat
	// SheetName / SheetIndex select an XLSX sheet (index is 1-based).
	SheetName  string
	SheetIndex int
	// Debug enables loader tracing.
	Debug bool
}

// DefaultOptions returns reasonable defaults for dataset loading.
func DefaultOptions() Options {
	return Options{MaxRows: 100000, SheetIndex: 1}
}

// Loader reads one file format into a Table.
type Loader interface {
	CanLoad(path string) bool
	Load(path string, opt Options) (*Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates no loader accepts the file.
var ErrUnsupported = errors.New("unsupported table format")

// Load selects a loader based on the filename.
func Load(path string, opt Options) (*Table, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			if opt.Debug {
				log.Printf("[TableLoader] %T reading %s", l, path)
			}
			t, err := l.Load(path, opt)
			if err != nil {
				return nil, err
			}
			if t.Name == "" {
				t.Name = filepath.Base(path)
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

func hasExt(path string, exts ...string) bool {
	lower := strings.ToLower(path)
	for _, e := range exts {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}

func applyFormat(t *Table, f NumberFormat) {
	if f == (NumberFormat{}) {
		return
	}
	for _, c := range t.cols {
		c.Format = f
	}
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}
