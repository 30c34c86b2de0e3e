// Package manifest turns a selection into export artifacts: a CSV listing of
// every selected file and a compact request body for bulk operations.
package manifest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"filegrip/internal/domain"
	"filegrip/internal/selection"
)

var baseColumns = []string{"id", "name", "path", "size"}

// Fetcher loads the records of a selection
type Fetcher interface {
	FetchAll(ctx context.Context, sel selection.Selection) ([]domain.FileDetail, error)
}

// Request is the body of a bulk operation over a selection
type Request struct {
	Operation string                       `json:"operation"`
	Count     int                          `json:"count"`
	Selection []selection.CompactSelection `json:"selection"`
}

// NewRequest describes op applied to every position in sel
func NewRequest(op string, sel selection.Selection) Request {
	return Request{
		Operation: op,
		Count:     sel.Count(),
		Selection: sel.ToCompactSelectionList(),
	}
}

// WriteRequest encodes req as indented JSON
func WriteRequest(w io.Writer, req Request) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(req); err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return nil
}

// AnnotationColumns returns the sorted union of annotation names in records
func AnnotationColumns(records []domain.FileDetail) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range records {
		for name := range r.Annotations {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// WriteCSV writes one row per record. The fixed columns are followed by one
// column per annotation name; nil annotations means every name present.
func WriteCSV(w io.Writer, records []domain.FileDetail, annotations []string) error {
	if annotations == nil {
		annotations = AnnotationColumns(records)
	}

	cw := csv.NewWriter(w)
	header := append(append([]string(nil), baseColumns...), annotations...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write manifest header: %w", err)
	}

	row := make([]string, len(header))
	for _, r := range records {
		row[0] = r.ID
		row[1] = r.Name
		row[2] = r.Path
		row[3] = strconv.FormatInt(r.Size, 10)
		for i, name := range annotations {
			row[len(baseColumns)+i] = r.Annotations[name]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write manifest row for %s: %w", r.Path, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush manifest: %w", err)
	}
	return nil
}

// Exporter writes manifests for selections
type Exporter struct {
	fetcher Fetcher
}

// NewExporter creates an exporter loading records through fetcher
func NewExporter(fetcher Fetcher) *Exporter {
	return &Exporter{fetcher: fetcher}
}

// Export fetches every selected record and writes them as CSV. Nothing is
// written when the fetch fails. It returns the number of rows written.
func (e *Exporter) Export(ctx context.Context, sel selection.Selection, w io.Writer) (int, error) {
	records, err := e.fetcher.FetchAll(ctx, sel)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(w, records, nil); err != nil {
		return 0, err
	}
	return len(records), nil
}
