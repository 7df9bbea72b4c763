package preprocessing

import (
	"github.com/YuminosukeSato/linreg/dataset"
	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// transformedSource applies fn to the selected columns of every row read
// from the inner source. Missing cells stay missing.
type transformedSource struct {
	inner   dataset.Source
	columns []int
	fn      func(k int, x float64) float64
}

type sizedTransformedSource struct {
	*transformedSource
	sizer dataset.Sizer
}

func (s sizedTransformedSource) Len() int { return s.sizer.Len() }

func wrap(src dataset.Source, names []string, fn func(k int, x float64) float64) (dataset.Source, error) {
	if src == nil {
		return nil, errors.NewValidationError("source", "source must not be nil", nil)
	}
	idx, err := numericColumns(src.Schema(), names)
	if err != nil {
		return nil, err
	}
	ts := &transformedSource{inner: src, columns: idx, fn: fn}
	if sz, ok := src.(dataset.Sizer); ok {
		return sizedTransformedSource{transformedSource: ts, sizer: sz}, nil
	}
	return ts, nil
}

func (s *transformedSource) Schema() *dataset.Schema { return s.inner.Schema() }

func (s *transformedSource) Iterator() (dataset.RowIterator, error) {
	it, err := s.inner.Iterator()
	if err != nil {
		return nil, err
	}
	return &transformedIterator{RowIterator: it, src: s}, nil
}

type transformedIterator struct {
	dataset.RowIterator
	src *transformedSource
	row dataset.Row
}

func (it *transformedIterator) Next() bool {
	if !it.RowIterator.Next() {
		return false
	}
	in := it.RowIterator.Row()
	if cap(it.row.Cells) < len(in.Cells) {
		it.row.Cells = make([]dataset.Cell, len(in.Cells))
	}
	it.row.Cells = it.row.Cells[:len(in.Cells)]
	copy(it.row.Cells, in.Cells)
	it.row.Key = in.Key
	for k, j := range it.src.columns {
		if j >= len(in.Cells) {
			continue
		}
		c := in.Cells[j]
		if !c.Missing() {
			it.row.Cells[j] = dataset.Value(it.src.fn(k, c.Float()))
		}
	}
	return true
}

func (it *transformedIterator) Row() dataset.Row { return it.row }
