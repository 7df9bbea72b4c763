package linear

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/linreg/dataset"
)

// na marks a missing cell in newTable input.
var na = math.NaN()

// newTable builds a table of Float columns. NaN entries become missing cells.
func newTable(t testing.TB, names []string, rows ...[]float64) *dataset.Table {
	t.Helper()
	cols := make([]dataset.Column, len(names))
	for i, n := range names {
		cols[i] = dataset.Column{Name: n, Type: dataset.Float}
	}
	schema, err := dataset.NewSchema(cols...)
	require.NoError(t, err)

	out := make([]dataset.Row, len(rows))
	for i, r := range rows {
		cells := make([]dataset.Cell, len(r))
		for j, v := range r {
			if math.IsNaN(v) {
				cells[j] = dataset.MissingCell()
			} else {
				cells[j] = dataset.Value(v)
			}
		}
		out[i] = dataset.Row{Cells: cells}
	}
	tbl, err := dataset.NewTable(schema, out)
	require.NoError(t, err)
	return tbl
}

// unsizedSource hides the row count of a source.
type unsizedSource struct {
	inner dataset.Source
}

func (u unsizedSource) Schema() *dataset.Schema { return u.inner.Schema() }

func (u unsizedSource) Iterator() (dataset.RowIterator, error) { return u.inner.Iterator() }

// passSource returns passes[i] on the i-th call to Iterator and the last
// table for any later call.
type passSource struct {
	passes []*dataset.Table
	calls  int
}

func (p *passSource) Schema() *dataset.Schema { return p.passes[0].Schema() }

func (p *passSource) Iterator() (dataset.RowIterator, error) {
	i := p.calls
	if i >= len(p.passes) {
		i = len(p.passes) - 1
	}
	p.calls++
	return p.passes[i].Iterator()
}

// panicSource panics when iterated.
type panicSource struct {
	schema *dataset.Schema
}

func (p panicSource) Schema() *dataset.Schema { return p.schema }

func (p panicSource) Iterator() (dataset.RowIterator, error) {
	panic("source exploded")
}

func xy() DesignSpec {
	return DesignSpec{Target: "y", Predictors: []string{"x"}}
}

// closeFailSource returns iterators whose Close fails on the failOn-th call
// to Iterator (0-based).
type closeFailSource struct {
	*dataset.Table
	failOn int
	err    error
	calls  int
}

func (c *closeFailSource) Iterator() (dataset.RowIterator, error) {
	it, err := c.Table.Iterator()
	if err != nil {
		return nil, err
	}
	call := c.calls
	c.calls++
	if call != c.failOn {
		return it, nil
	}
	return closeFailIterator{RowIterator: it, err: c.err}, nil
}

type closeFailIterator struct {
	dataset.RowIterator
	err error
}

func (c closeFailIterator) Close() error { return c.err }
