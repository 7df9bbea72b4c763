package dataset

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/linreg/pkg/errors"
)

func readAll(t *testing.T, src Source) []Row {
	t.Helper()
	rows, err := Collect(src)
	require.NoError(t, err)
	return rows
}

func TestSchema(t *testing.T) {
	s, err := NewSchema(Column{"x", Float}, Column{"y", Int}, Column{"name", String})
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"x", "y", "name"}, s.Names())

	i, ok := s.Index("y")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = s.Index("z")
	assert.False(t, ok)

	assert.True(t, s.Column(0).Type.Numeric())
	assert.True(t, s.Column(1).Type.Numeric())
	assert.False(t, s.Column(2).Type.Numeric())
}

func TestSchemaRejectsBadNames(t *testing.T) {
	_, err := NewSchema(Column{"x", Float}, Column{"x", Float})
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = NewSchema(Column{"", Float})
	assert.True(t, errors.As(err, &verr))
}

func TestCell(t *testing.T) {
	assert.False(t, Value(math.NaN()).Missing(), "NaN is a value, not a missing cell")
	assert.True(t, MissingCell().Missing())
	assert.Equal(t, 2.5, Value(2.5).Float())
}

func TestTableIteratorRestarts(t *testing.T) {
	s, err := NewSchema(Column{"x", Float})
	require.NoError(t, err)
	tbl, err := NewTable(s, []Row{
		{Cells: []Cell{Value(1)}},
		{Key: "custom", Cells: []Cell{MissingCell()}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	for pass := 0; pass < 3; pass++ {
		rows := readAll(t, tbl)
		require.Len(t, rows, 2)
		assert.Equal(t, "Row0", rows[0].Key)
		assert.Equal(t, "custom", rows[1].Key)
		assert.True(t, rows[1].Cells[0].Missing())
	}

	n, ok := Size(tbl)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestTableAppendDimensionMismatch(t *testing.T) {
	s, err := NewSchema(Column{"x", Float}, Column{"y", Float})
	require.NoError(t, err)
	_, err = NewTable(s, []Row{{Cells: []Cell{Value(1)}}})

	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestTableFromMatrix(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	tbl, err := TableFromMatrix(m, []string{"a", "b"})
	require.NoError(t, err)

	rows := readAll(t, tbl)
	assert.Equal(t, 3.0, rows[1].Cells[0].Float())
	assert.Equal(t, Float, tbl.Schema().Column(1).Type)

	_, err = TableFromMatrix(m, []string{"a"})
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	input := `id,x,y,label
r1,1,2.5,a
r2,?,3,b
r3,3,,c
r4,4,1e2,d
`
	tbl, err := ReadCSV(strings.NewReader(input), WithRowKeyColumn("id"))
	require.NoError(t, err)

	s := tbl.Schema()
	assert.Equal(t, []string{"x", "y", "label"}, s.Names())
	assert.Equal(t, Int, s.Column(0).Type)
	assert.Equal(t, Float, s.Column(1).Type)
	assert.Equal(t, String, s.Column(2).Type)

	rows := readAll(t, tbl)
	require.Len(t, rows, 4)
	assert.Equal(t, "r2", rows[1].Key)
	assert.True(t, rows[1].Cells[0].Missing())
	assert.True(t, rows[2].Cells[1].Missing())
	assert.Equal(t, 100.0, rows[3].Cells[1].Float())
	assert.True(t, rows[0].Cells[2].Missing(), "string cells are not numeric")
}

func TestCSVTypeInference(t *testing.T) {
	input := "a,b,c,d\n1,1.5,x,?\n2,2,3,?\n-7,3,4,\n"
	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	s := tbl.Schema()
	assert.Equal(t, Int, s.Column(0).Type)
	assert.Equal(t, Float, s.Column(1).Type, "a float cell widens the column")
	assert.Equal(t, String, s.Column(2).Type)
	assert.Equal(t, Int, s.Column(3).Type, "all-missing columns stay numeric")
}

func TestReadCSVOptions(t *testing.T) {
	input := "x;y\n1;NA\n2;4\n"
	tbl, err := ReadCSV(strings.NewReader(input), WithComma(';'), WithMissingMarkers("NA"))
	require.NoError(t, err)

	rows := readAll(t, tbl)
	assert.Equal(t, "Row0", rows[0].Key)
	assert.True(t, rows[0].Cells[1].Missing())
	assert.Equal(t, 4.0, rows[1].Cells[1].Float())
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = ReadCSV(strings.NewReader("x\n1\n"), WithRowKeyColumn("id"))
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = ReadCSV(strings.NewReader("x,y\n1\n"))
	assert.Error(t, err)
}

func TestOpenCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,y\n1,2\n2,?\n3,6\n"), 0o600))

	src, err := OpenCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 3, src.Len())
	assert.Equal(t, Int, src.Schema().Column(0).Type)

	first := readAll(t, src)
	second := readAll(t, src)
	assert.Equal(t, first, second)
	assert.True(t, first[1].Cells[1].Missing())
	assert.Equal(t, 6.0, first[2].Cells[1].Float())
}

func TestOpenCSVMissingFile(t *testing.T) {
	_, err := OpenCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestNpyRoundTrip(t *testing.T) {
	s, err := NewSchema(Column{"x", Float}, Column{"y", Float})
	require.NoError(t, err)
	tbl, err := NewTable(s, []Row{
		{Cells: []Cell{Value(1), Value(2)}},
		{Cells: []Cell{MissingCell(), Value(4)}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteNpy(&buf, tbl))

	back, err := ReadNpy(&buf, []string{"x", "y"})
	require.NoError(t, err)

	rows := readAll(t, back)
	require.Len(t, rows, 2)
	assert.Equal(t, 1.0, rows[0].Cells[0].Float())
	assert.True(t, rows[1].Cells[0].Missing())
	assert.Equal(t, 4.0, rows[1].Cells[1].Float())
}

func TestReadNpyNameMismatch(t *testing.T) {
	tbl, err := TableFromMatrix(mat.NewDense(1, 2, []float64{1, 2}), []string{"a", "b"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteNpy(&buf, tbl))

	_, err = ReadNpy(&buf, []string{"a"})
	assert.Error(t, err)
}

type failingClose struct {
	RowIterator
	err error
}

func (f failingClose) Close() error { return f.err }

type failingCloseSource struct {
	*Table
	err error
}

func (s failingCloseSource) Iterator() (RowIterator, error) {
	it, err := s.Table.Iterator()
	if err != nil {
		return nil, err
	}
	return failingClose{RowIterator: it, err: s.err}, nil
}

func TestCloseIterator(t *testing.T) {
	closeErr := errors.New("close failed")
	tbl, err := TableFromMatrix(mat.NewDense(2, 1, []float64{1, 2}), []string{"x"})
	require.NoError(t, err)

	it, err := tbl.Iterator()
	require.NoError(t, err)
	var got error
	CloseIterator(failingClose{RowIterator: it, err: closeErr}, &got)
	assert.True(t, errors.Is(got, closeErr))

	earlier := errors.New("read failed")
	got = earlier
	CloseIterator(failingClose{RowIterator: it, err: closeErr}, &got)
	assert.Equal(t, earlier, got, "an earlier error is kept")

	_, err = Collect(failingCloseSource{Table: tbl, err: closeErr})
	assert.True(t, errors.Is(err, closeErr))
}
