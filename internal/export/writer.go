package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"

	"github.com/fortuna/stintstats/internal/pipeline"
)

// Exporter maintains the CSV tables in a directory.
type Exporter struct {
	dir string
}

// NewExporter writes into dir, creating it when missing.
func NewExporter(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Exporter{dir: dir}, nil
}

// Path returns the location of a table file.
func (e *Exporter) Path(t Table) string {
	return filepath.Join(e.dir, t.File)
}

// Backup copies every existing table file, CSV and spreadsheet, to <file>.bak.
func (e *Exporter) Backup() error {
	for _, t := range Tables() {
		for _, src := range []string{e.Path(t), e.XLSXPath(t)} {
			name := filepath.Base(src)
			data, err := os.ReadFile(src)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return fmt.Errorf("reading %s: %w", name, err)
			}
			if err := os.WriteFile(src+".bak", data, 0o644); err != nil {
				return fmt.Errorf("backing up %s: %w", name, err)
			}
			log.Printf("[export] backed up %s", name)
		}
	}
	return nil
}

// SavedGameIDs returns the game ids already present in the games table.
func (e *Exporter) SavedGameIDs() (map[string]bool, error) {
	games := Tables()[0]
	_, rows, err := readTable(e.Path(games))
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(rows))
	for _, r := range rows {
		if len(r) > 0 {
			ids[r[0]] = true
		}
	}
	return ids, nil
}

// Write merges results into every table. Rows of games present in results
// replace any stored rows of the same games; other rows are kept in place.
// The CSV file is the source of the merge; the .xlsx copy is rewritten from it.
func (e *Exporter) Write(results []*pipeline.Result) error {
	if len(results) == 0 {
		return nil
	}
	ids := make(map[string]bool, len(results))
	for _, r := range results {
		ids[r.Game.GameID] = true
	}

	for _, t := range Tables() {
		path := e.Path(t)
		header, rows, err := readTable(path)
		if err != nil {
			return err
		}
		if header != nil && !slices.Equal(header, t.Columns) {
			return fmt.Errorf("%s: header does not match the %s table columns", t.File, t.Name)
		}

		kept := rows[:0]
		for _, r := range rows {
			if len(r) > 0 && !ids[r[0]] {
				kept = append(kept, r)
			}
		}
		for _, res := range results {
			kept = append(kept, t.rows(res)...)
		}

		if err := writeTable(path, t.Columns, kept); err != nil {
			return fmt.Errorf("writing %s: %w", t.File, err)
		}
		if err := writeXLSX(e.XLSXPath(t), t.Name, t.Columns, kept); err != nil {
			return fmt.Errorf("writing %s: %w", filepath.Base(e.XLSXPath(t)), err)
		}
		log.Printf("[export] ✓ %s: %d rows", t.File, len(kept))
	}
	return nil
}

// WriteTo renders one table for the given results, header first.
func WriteTo(w io.Writer, t Table, results []*pipeline.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, res := range results {
		if err := cw.WriteAll(t.rows(res)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// readTable returns a file's header and rows; a missing file is empty.
func readTable(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

func writeTable(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cw := csv.NewWriter(tmp)
	cw.Write(header)
	cw.WriteAll(rows)
	if err := cw.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
