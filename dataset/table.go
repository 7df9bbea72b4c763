package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// Table はメモリ上に全行を保持する Source です。
type Table struct {
	schema *Schema
	rows   []Row
}

var (
	_ Source = (*Table)(nil)
	_ Sizer  = (*Table)(nil)
)

// NewTable creates a table. Every row must have exactly one cell per column.
// Rows without a key get "Row<i>".
func NewTable(schema *Schema, rows []Row) (*Table, error) {
	if schema == nil {
		return nil, errors.NewValidationError("schema", "schema must not be nil", nil)
	}
	t := &Table{schema: schema, rows: make([]Row, 0, len(rows))}
	for _, r := range rows {
		if err := t.Append(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Append adds a copy of r to the end of the table.
func (t *Table) Append(r Row) error {
	if len(r.Cells) != t.schema.Len() {
		return errors.NewDimensionError("Table.Append", t.schema.Len(), len(r.Cells), 1)
	}
	key := r.Key
	if key == "" {
		key = defaultRowKey(len(t.rows))
	}
	t.rows = append(t.rows, Row{Key: key, Cells: append([]Cell(nil), r.Cells...)})
	return nil
}

// TableFromMatrix creates a table of Float columns from a gonum matrix.
// NaN entries are kept as values, not turned into missing cells.
func TableFromMatrix(m mat.Matrix, names []string) (*Table, error) {
	r, c := m.Dims()
	if len(names) != c {
		return nil, errors.NewDimensionError("TableFromMatrix", c, len(names), 1)
	}
	cols := make([]Column, c)
	for j, n := range names {
		cols[j] = Column{Name: n, Type: Float}
	}
	schema, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}

	t := &Table{schema: schema, rows: make([]Row, r)}
	for i := 0; i < r; i++ {
		cells := make([]Cell, c)
		for j := 0; j < c; j++ {
			cells[j] = Value(m.At(i, j))
		}
		t.rows[i] = Row{Key: defaultRowKey(i), Cells: cells}
	}
	return t, nil
}

// Schema implements Source.
func (t *Table) Schema() *Schema { return t.schema }

// Len implements Sizer.
func (t *Table) Len() int { return len(t.rows) }

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) Row {
	r := t.rows[i]
	return Row{Key: r.Key, Cells: append([]Cell(nil), r.Cells...)}
}

// Iterator implements Source.
func (t *Table) Iterator() (RowIterator, error) {
	return &tableIterator{rows: t.rows, pos: -1}, nil
}

type tableIterator struct {
	rows []Row
	pos  int
}

func (it *tableIterator) Next() bool {
	if it.pos+1 >= len(it.rows) {
		it.pos = len(it.rows)
		return false
	}
	it.pos++
	return true
}

func (it *tableIterator) Row() Row     { return it.rows[it.pos] }
func (it *tableIterator) Err() error   { return nil }
func (it *tableIterator) Close() error { return nil }

func defaultRowKey(i int) string {
	return fmt.Sprintf("Row%d", i)
}
