// Package stocktake applies a counted-stock sheet as ledger adjustments.
package stocktake

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/NanayasWorkshop/MakerManager/internal/ledger"
	"github.com/NanayasWorkshop/MakerManager/internal/session"
)

var ErrNoHeader = errors.New("no header with material_id and counted columns")

// Column names accepted in the header row.
var (
	idColumns      = []string{"material_id", "material", "id"}
	countedColumns = []string{"counted", "counted_stock", "stock"}
)

// Count is one line of a stocktake sheet. Row is 1-based in the source file.
type Count struct {
	Row        int
	MaterialID string
	Counted    decimal.Decimal
}

type RowError struct {
	Row        int
	MaterialID string
	Err        error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Row, e.MaterialID, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Parse reads a sheet separated by ';' or ','. Rows that cannot be read are
// returned as row errors next to the counts that could.
func Parse(r io.Reader) ([]Count, []*RowError, error) {
	utf8r, err := utf8Reader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("detect encoding: %w", err)
	}

	raw, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet: %w", err)
	}

	sep := separator(string(raw))

	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}

	header, idIdx, countedIdx := findHeader(rows)
	if header < 0 {
		return nil, nil, ErrNoHeader
	}

	var (
		counts []Count
		errs   []*RowError
	)

	for i, row := range rows[header+1:] {
		rowNum := header + i + 2

		id := cell(row, idIdx)
		if id == "" {
			continue
		}

		counted, err := parseQuantity(cell(row, countedIdx), sep)
		if err != nil {
			errs = append(errs, &RowError{Row: rowNum, MaterialID: id, Err: err})
			continue
		}

		counts = append(counts, Count{Row: rowNum, MaterialID: id, Counted: counted})
	}

	return counts, errs, nil
}

// separator picks ';' when the first line uses it, as spreadsheets with a
// decimal comma export that way.
func separator(content string) rune {
	first, _, _ := strings.Cut(content, "\n")
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}

	return ','
}

func findHeader(rows [][]string) (int, int, int) {
	for i, row := range rows {
		idIdx, countedIdx := -1, -1

		for j, c := range row {
			name := strings.ToLower(strings.TrimSpace(c))

			switch {
			case idIdx < 0 && slices.Contains(idColumns, name):
				idIdx = j
			case countedIdx < 0 && slices.Contains(countedColumns, name):
				countedIdx = j
			}
		}

		if idIdx >= 0 && countedIdx >= 0 {
			return i, idIdx, countedIdx
		}
	}

	return -1, 0, 0
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func parseQuantity(s string, sep rune) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, errors.New("missing count")
	}

	// "1.250,5" style decimals only appear in ';' separated sheets.
	if sep == ';' && strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid count %q", s)
	}

	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ledger.ErrInvalidQuantity, d)
	}

	return d, nil
}

//go:generate mockgen -source=stocktake.go -destination=adjuster_mock.go -package=stocktake
type Adjuster interface {
	Adjust(ctx context.Context, sess *session.Session, materialID string, newStock decimal.Decimal) (*ledger.Movement, error)
}

type Report struct {
	Applied   int
	Unchanged int
	Errors    []*RowError
}

type Service struct {
	ledger Adjuster
}

func NewService(a Adjuster) *Service {
	return &Service{ledger: a}
}

// Import adjusts every counted material to its sheet value. Each row is its
// own ledger operation; a failing row is reported and the rest still apply.
func (s *Service) Import(ctx context.Context, sess *session.Session, r io.Reader) (*Report, error) {
	counts, rowErrs, err := Parse(r)
	if err != nil {
		return nil, err
	}

	rep := &Report{Errors: rowErrs}

	for _, c := range counts {
		mv, err := s.ledger.Adjust(ctx, sess, c.MaterialID, c.Counted)
		if err != nil {
			rep.Errors = append(rep.Errors, &RowError{Row: c.Row, MaterialID: c.MaterialID, Err: err})
			continue
		}

		if mv.Transaction == nil {
			rep.Unchanged++
			continue
		}

		rep.Applied++
	}

	slices.SortStableFunc(rep.Errors, func(a, b *RowError) int { return a.Row - b.Row })

	return rep, nil
}
