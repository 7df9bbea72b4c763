package dataset

import (
	"io"
	"math"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// ReadNpy reads a two-dimensional numpy array into a Table with one Float
// column per array column. names gives the column names and must match the
// array width. NaN entries are read as missing cells, which is how numpy
// data usually encodes missing values.
func ReadNpy(r io.Reader, names []string) (*Table, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "read npy header")
	}

	var m mat.Dense
	if err := nr.Read(&m); err != nil {
		return nil, errors.Wrap(err, "read npy data")
	}

	t, err := TableFromMatrix(&m, names)
	if err != nil {
		return nil, err
	}
	for i := range t.rows {
		for j, c := range t.rows[i].Cells {
			if math.IsNaN(c.value) {
				t.rows[i].Cells[j] = MissingCell()
			}
		}
	}
	return t, nil
}

// ReadNpyFile opens path and calls ReadNpy.
func ReadNpyFile(path string, names []string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return ReadNpy(f, names)
}

// WriteNpy writes the numeric columns of src as a two-dimensional float64
// array. Missing cells are written as NaN.
func WriteNpy(w io.Writer, src Source) error {
	rows, err := Collect(src)
	if err != nil {
		return err
	}
	cols := src.Schema().Len()
	if len(rows) == 0 || cols == 0 {
		return errors.NewModelError("WriteNpy", "no data", errors.ErrEmptyData)
	}

	m := mat.NewDense(len(rows), cols, nil)
	for i, r := range rows {
		for j, c := range r.Cells {
			if c.Missing() {
				m.Set(i, j, math.NaN())
				continue
			}
			m.Set(i, j, c.Float())
		}
	}
	return errors.Wrap(npyio.Write(w, m), "write npy")
}

// Collect reads every row of src into memory.
func Collect(src Source) (rows []Row, err error) {
	it, err := src.Iterator()
	if err != nil {
		return nil, err
	}
	defer CloseIterator(it, &err)

	for it.Next() {
		r := it.Row()
		rows = append(rows, Row{Key: r.Key, Cells: append([]Cell(nil), r.Cells...)})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
