// internal/export/csv.go
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	homedir "github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/Hamza-bouzid/pagine-bianche/api/schemas"
	"github.com/Hamza-bouzid/pagine-bianche/internal/config"
)

// Header is the fixed first row of every exported table.
var Header = []string{"Nome", "Telefono", "Indirizzo"}

// utf8BOM lets spreadsheet software detect the encoding of accented names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// unsafeNameChars are replaced in file names. They cover path separators and
// characters rejected by common filesystems.
var unsafeNameChars = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f]+`)

// Options control the table encoding.
type Options struct {
	Delimiter rune
	WriteBOM  bool
}

// DefaultOptions produce a plain comma separated table.
var DefaultOptions = Options{Delimiter: ','}

// WriteCSV encodes records as a header row followed by one row per record, in order.
// Fields are quoted when they contain the delimiter, quotes or line breaks.
func WriteCSV(w io.Writer, records []schemas.ContactRecord, opts Options) error {
	if opts.WriteBOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write byte order mark: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write([]string{r.Name, r.Phone, r.Address}); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV decodes a table produced by WriteCSV.
func ReadCSV(r io.Reader, opts Options) ([]schemas.ContactRecord, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = len(Header)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("table is empty")
	}
	rows[0][0] = strings.TrimPrefix(rows[0][0], string(utf8BOM))
	for i, col := range Header {
		if rows[0][i] != col {
			return nil, fmt.Errorf("unexpected header %q, want %q", rows[0], Header)
		}
	}

	records := make([]schemas.ContactRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, schemas.ContactRecord{Name: row[0], Phone: row[1], Address: row[2]})
	}
	return records, nil
}

// FileName derives "<term>_<location>_<timestamp>.csv". The timestamp is the
// ISO-8601 UTC instant with every non-alphanumeric character removed, for
// example 20251026T101530123Z.
func FileName(q schemas.SearchQuery, at time.Time) string {
	at = at.UTC()
	stamp := fmt.Sprintf("%s%03dZ", at.Format("20060102T150405"), at.Nanosecond()/int(time.Millisecond))
	return fmt.Sprintf("%s_%s_%s.csv", sanitize(q.Term), sanitize(q.Location), stamp)
}

func sanitize(s string) string {
	return unsafeNameChars.ReplaceAllString(strings.TrimSpace(s), "-")
}

// CSVExporter writes one table per run into a configured directory.
type CSVExporter struct {
	dir    string
	opts   Options
	now    func() time.Time
	logger *zap.Logger
}

// NewCSVExporter resolves the output directory, expanding a leading "~".
func NewCSVExporter(cfg config.ExportConfig, logger *zap.Logger) (*CSVExporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dir, err := homedir.Expand(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand output directory '%s': %w", cfg.OutputDir, err)
	}
	delim, _ := utf8.DecodeRuneInString(cfg.Delimiter)
	return &CSVExporter{
		dir:    dir,
		opts:   Options{Delimiter: delim, WriteBOM: cfg.WriteBOM},
		now:    time.Now,
		logger: logger.Named("export"),
	}, nil
}

// Dir returns the resolved output directory.
func (e *CSVExporter) Dir() string { return e.dir }

// Export writes the records and returns the absolute path of the new file.
// The directory is created if missing. The file appears atomically, so a
// failed export never leaves a partial table behind.
func (e *CSVExporter) Export(q schemas.SearchQuery, records []schemas.ContactRecord) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory '%s': %w", e.dir, err)
	}
	path, err := filepath.Abs(filepath.Join(e.dir, FileName(q, e.now())))
	if err != nil {
		return "", fmt.Errorf("failed to resolve output path: %w", err)
	}

	tmp, err := os.CreateTemp(e.dir, ".export-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	// No-op once renamed.
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, records, e.opts); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize table: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("failed to set table permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move table into place: %w", err)
	}

	e.logger.Info("Table written.", zap.String("path", path), zap.Int("records", len(records)))
	return path, nil
}
