package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Kind is the inferred semantic type of a column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindFloat
	KindOther // booleans
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindOther:
		return "other"
	default:
		return "text"
	}
}

// Numeric reports whether values of this kind take part in statistics and charts.
func (k Kind) Numeric() bool { return k == KindInteger || k == KindFloat }

// missingTokens mirrors the null markers a dataframe CSV reader recognizes by default.
var missingTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsMissingToken reports whether a raw CSV cell denotes a missing value.
func IsMissingToken(s string) bool {
	_, ok := missingTokens[strings.TrimSpace(s)]
	return ok
}

// Column is one named, typed column. It is read-only once built.
type Column struct {
	name    string
	kind    Kind
	raw     []string
	missing []bool
	nums    []float64 // NaN where missing; nil for non-numeric kinds
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind   { return c.kind }
func (c *Column) Len() int     { return len(c.raw) }

// IsMissing reports whether row i holds a null value.
func (c *Column) IsMissing(i int) bool { return c.missing[i] }

// MissingCount returns the number of null cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.missing {
		if m {
			n++
		}
	}
	return n
}

// Float returns the numeric value at row i. ok is false for missing cells
// and for non-numeric columns.
func (c *Column) Float(i int) (v float64, ok bool) {
	if c.nums == nil || c.missing[i] {
		return 0, false
	}
	return c.nums[i], true
}

// Text returns the display form of row i; missing cells render as NaN.
func (c *Column) Text(i int) string {
	if c.missing[i] {
		return "NaN"
	}
	return strings.TrimSpace(c.raw[i])
}

// Floats returns the non-missing numeric values in row order.
func (c *Column) Floats() []float64 {
	if c.nums == nil {
		return nil
	}
	out := make([]float64, 0, len(c.nums))
	for i, v := range c.nums {
		if !c.missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// Table is an immutable, column-oriented dataset. All columns have the same length.
type Table struct {
	Name string
	cols []*Column
	rows int
}

// Rows returns the number of data rows.
func (t *Table) Rows() int {
	if t == nil {
		return 0
	}
	return t.rows
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	if t == nil {
		return 0
	}
	return len(t.cols)
}

// Columns returns the columns in header order.
func (t *Table) Columns() []*Column {
	if t == nil {
		return nil
	}
	out := make([]*Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	if t == nil {
		return nil, false
	}
	for _, c := range t.cols {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Names returns the column names in header order.
func (t *Table) Names() []string {
	out := make([]string, 0, t.NumColumns())
	for _, c := range t.Columns() {
		out = append(out, c.name)
	}
	return out
}

// NamesOfKind returns the names of columns accepted by keep.
func (t *Table) NamesOfKind(keep func(Kind) bool) []string {
	var out []string
	for _, c := range t.Columns() {
		if keep(c.kind) {
			out = append(out, c.name)
		}
	}
	return out
}

// NumericNames returns integer and float column names.
func (t *Table) NumericNames() []string { return t.NamesOfKind(Kind.Numeric) }

// CategoricalNames returns columns usable as bar-chart categories.
func (t *Table) CategoricalNames() []string {
	return t.NamesOfKind(func(k Kind) bool { return k == KindText || k == KindOther })
}

// Row returns the display form of row i.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Text(i)
	}
	return out
}

// ReadOptions controls CSV parsing.
type ReadOptions struct {
	// Delimiter for CSV. If 0, ',' is used.
	Delimiter rune
}

// ReadCSV parses a header-first CSV stream into a Table and infers column kinds.
// An empty stream yields a table with no rows and no columns.
func ReadCSV(r io.Reader, opt ReadOptions) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	ncol := len(header)

	var records [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		if len(rec) > ncol {
			return nil, fmt.Errorf("row %d: expected %d fields, saw %d", len(records)+1, ncol, len(rec))
		}
		if len(rec) < ncol {
			// pad short rows with missing cells
			tmp := make([]string, ncol)
			copy(tmp, rec)
			rec = tmp
		}
		records = append(records, rec)
	}
	return NewTable(header, records)
}

// NewTable builds a Table from a header and row-major records, inferring each
// column's kind. Every record must have len(header) fields.
func NewTable(header []string, records [][]string) (*Table, error) {
	names := dedupeNames(header)
	t := &Table{cols: make([]*Column, len(names)), rows: len(records)}
	for j, name := range names {
		raw := make([]string, len(records))
		for i, rec := range records {
			if len(rec) != len(names) {
				return nil, fmt.Errorf("row %d: expected %d fields, saw %d", i+1, len(names), len(rec))
			}
			raw[i] = rec[j]
		}
		t.cols[j] = buildColumn(name, raw)
	}
	return t, nil
}

func buildColumn(name string, raw []string) *Column {
	c := &Column{name: name, raw: raw, missing: make([]bool, len(raw))}
	var nonMissing, ints, floats, bools int
	for i, v := range raw {
		if IsMissingToken(v) {
			c.missing[i] = true
			continue
		}
		nonMissing++
		s := strings.TrimSpace(v)
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			ints++
			floats++
			continue
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			floats++
			continue
		}
		if isBool(s) {
			bools++
		}
	}

	switch {
	case len(raw) == 0:
		c.kind = KindText
	case nonMissing == 0:
		// all-null columns are float columns of NaN
		c.kind = KindFloat
	case ints == nonMissing && nonMissing == len(raw):
		c.kind = KindInteger
	case floats == nonMissing:
		// integers with gaps widen to float
		c.kind = KindFloat
	case bools == nonMissing:
		c.kind = KindOther
	default:
		c.kind = KindText
	}

	if c.kind.Numeric() {
		c.nums = make([]float64, len(raw))
		for i, v := range raw {
			if c.missing[i] {
				c.nums[i] = math.NaN()
				continue
			}
			f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
			c.nums[i] = f
		}
	}
	return c
}

func isBool(s string) bool {
	switch s {
	case "True", "False", "true", "false", "TRUE", "FALSE":
		return true
	}
	return false
}

// dedupeNames mangles repeated header names as name.1, name.2, ...
func dedupeNames(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if _, dup := seen[name]; dup {
			base, n := name, seen[name]
			for {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}
