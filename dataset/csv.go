package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// DefaultMissingMarkers are the cell texts read as missing values.
var DefaultMissingMarkers = []string{"", "?"}

type csvOptions struct {
	comma     rune
	missing   map[string]struct{}
	keyColumn string
}

// CSVOption configures ReadCSV and OpenCSV.
type CSVOption func(*csvOptions)

// WithComma sets the field delimiter. The default is ','.
func WithComma(r rune) CSVOption {
	return func(o *csvOptions) { o.comma = r }
}

// WithMissingMarkers replaces the texts read as missing values.
func WithMissingMarkers(markers ...string) CSVOption {
	return func(o *csvOptions) {
		o.missing = make(map[string]struct{}, len(markers))
		for _, m := range markers {
			o.missing[m] = struct{}{}
		}
	}
}

// WithRowKeyColumn uses the named column as the row key instead of a data
// column.
func WithRowKeyColumn(name string) CSVOption {
	return func(o *csvOptions) { o.keyColumn = name }
}

func newCSVOptions(opts []CSVOption) *csvOptions {
	o := &csvOptions{comma: ','}
	WithMissingMarkers(DefaultMissingMarkers...)(o)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *csvOptions) isMissing(s string) bool {
	_, ok := o.missing[strings.TrimSpace(s)]
	return ok
}

func (o *csvOptions) newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = o.comma
	cr.ReuseRecord = true
	return cr
}

// csvLayout maps record fields to schema columns.
type csvLayout struct {
	header   []string
	keyField int   // -1 when rows get generated keys
	fields   []int // record field of each schema column
}

func newCSVLayout(header []string, o *csvOptions) (*csvLayout, error) {
	l := &csvLayout{header: append([]string(nil), header...), keyField: -1}
	for i, h := range header {
		name := strings.TrimSpace(h)
		if o.keyColumn != "" && name == o.keyColumn {
			l.keyField = i
			continue
		}
		l.fields = append(l.fields, i)
	}
	if o.keyColumn != "" && l.keyField < 0 {
		return nil, errors.NewValidationError("row_key_column", "column not found in header", o.keyColumn)
	}
	return l, nil
}

// typeInference narrows a column type while scanning values: Int, then
// Float, then String.
type typeInference []ColumnType

// newTypeInference starts every column at Int, the narrowest type.
func newTypeInference(n int) typeInference {
	ti := make(typeInference, n)
	for i := range ti {
		ti[i] = Int
	}
	return ti
}

func (ti typeInference) observe(record []string, l *csvLayout, o *csvOptions) {
	for c, f := range l.fields {
		s := strings.TrimSpace(record[f])
		if o.isMissing(s) || ti[c] == String {
			continue
		}
		if ti[c] == Int {
			if _, err := strconv.ParseInt(s, 10, 64); err == nil {
				continue
			}
			ti[c] = Float
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			ti[c] = String
		}
	}
}

func (l *csvLayout) schema(types typeInference) (*Schema, error) {
	cols := make([]Column, len(l.fields))
	for c, f := range l.fields {
		cols[c] = Column{Name: strings.TrimSpace(l.header[f]), Type: types[c]}
	}
	return NewSchema(cols...)
}

// parseRow fills dst from record. String columns always yield missing
// cells.
func (l *csvLayout) parseRow(dst *Row, record []string, index int, schema *Schema, o *csvOptions) error {
	if cap(dst.Cells) < len(l.fields) {
		dst.Cells = make([]Cell, len(l.fields))
	}
	dst.Cells = dst.Cells[:len(l.fields)]
	if l.keyField >= 0 {
		dst.Key = record[l.keyField]
	} else {
		dst.Key = defaultRowKey(index)
	}
	for c, f := range l.fields {
		s := strings.TrimSpace(record[f])
		if o.isMissing(s) || !schema.Column(c).Type.Numeric() {
			dst.Cells[c] = MissingCell()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.Wrapf(err, "row %d, column %q", index, schema.Column(c).Name)
		}
		dst.Cells[c] = Value(v)
	}
	return nil
}

// ReadCSV reads a whole CSV document with a header row into a Table.
//
// Column types are inferred from the non-missing cells: a column whose
// cells all parse as integers is Int, one whose cells all parse as numbers
// is Float, anything else is String. Cells matching a missing marker ("?"
// or empty by default) become missing cells.
func ReadCSV(r io.Reader, opts ...CSVOption) (*Table, error) {
	o := newCSVOptions(opts)
	cr := o.newReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.NewModelError("ReadCSV", "missing header", errors.ErrEmptyData)
		}
		return nil, errors.Wrap(err, "read csv header")
	}
	layout, err := newCSVLayout(header, o)
	if err != nil {
		return nil, err
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}

	types := newTypeInference(len(layout.fields))
	for _, rec := range records {
		types.observe(rec, layout, o)
	}
	schema, err := layout.schema(types)
	if err != nil {
		return nil, err
	}

	t := &Table{schema: schema, rows: make([]Row, len(records))}
	for i, rec := range records {
		if err := layout.parseRow(&t.rows[i], rec, i, schema, o); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// CSVFile は CSV ファイルをパスごとに読み直す Source です。
// 行はメモリに保持されず、Iterator のたびにファイルを開き直します。
type CSVFile struct {
	path   string
	opts   *csvOptions
	layout *csvLayout
	schema *Schema
	rows   int
}

var (
	_ Source = (*CSVFile)(nil)
	_ Sizer  = (*CSVFile)(nil)
)

// OpenCSV scans the file once to infer the schema and count rows. The file
// must not change between passes.
func OpenCSV(path string, opts ...CSVOption) (*CSVFile, error) {
	o := newCSVOptions(opts)

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	cr := o.newReader(f)
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.NewModelError("OpenCSV", "missing header", errors.ErrEmptyData)
		}
		return nil, errors.Wrapf(err, "read header of %s", path)
	}
	layout, err := newCSVLayout(header, o)
	if err != nil {
		return nil, err
	}

	types := newTypeInference(len(layout.fields))
	rows := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s", path)
		}
		types.observe(rec, layout, o)
		rows++
	}

	schema, err := layout.schema(types)
	if err != nil {
		return nil, err
	}
	return &CSVFile{path: path, opts: o, layout: layout, schema: schema, rows: rows}, nil
}

// Schema implements Source.
func (c *CSVFile) Schema() *Schema { return c.schema }

// Len implements Sizer.
func (c *CSVFile) Len() int { return c.rows }

// Iterator implements Source.
func (c *CSVFile) Iterator() (RowIterator, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", c.path)
	}
	cr := c.opts.newReader(f)
	if _, err := cr.Read(); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "read header of %s", c.path)
	}
	return &csvIterator{file: f, reader: cr, src: c}, nil
}

type csvIterator struct {
	file   *os.File
	reader *csv.Reader
	src    *CSVFile
	row    Row
	index  int
	err    error
}

func (it *csvIterator) Next() bool {
	if it.err != nil {
		return false
	}
	rec, err := it.reader.Read()
	if err == io.EOF {
		return false
	}
	if err != nil {
		it.err = errors.Wrapf(err, "read %s", it.src.path)
		return false
	}
	if err := it.src.layout.parseRow(&it.row, rec, it.index, it.src.schema, it.src.opts); err != nil {
		it.err = err
		return false
	}
	it.index++
	return true
}

func (it *csvIterator) Row() Row   { return it.row }
func (it *csvIterator) Err() error { return it.err }

func (it *csvIterator) Close() error {
	return it.file.Close()
}
