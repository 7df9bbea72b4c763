// Package dataset は回帰学習器が読み込む行データの抽象を提供します。
//
// 学習器はデータを一度にメモリへ載せず、Source から Iterator を取り出して
// 行を順番に引き出します。学習は複数パスで行われるため、Source は
// 何度でも同じ順序で同じ行を返せなければなりません。
package dataset

import (
	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// ColumnType はカラムの型を表します。
type ColumnType int

const (
	// Float は浮動小数点数のカラムです。
	Float ColumnType = iota
	// Int は整数のカラムです。値は float64 として読み出されます。
	Int
	// String は数値として扱えないカラムです。
	String
)

// String returns the lower-case type name.
func (t ColumnType) String() string {
	switch t {
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// Numeric reports whether values of the type can be used as a regression
// variable.
func (t ColumnType) Numeric() bool {
	return t == Float || t == Int
}

// Column は名前と型の組です。
type Column struct {
	Name string
	Type ColumnType
}

// Schema はカラムの並びです。生成後は変更されません。
type Schema struct {
	columns []Column
	index   map[string]int
}

// NewSchema creates a schema. Column names must be non-empty and unique.
func NewSchema(columns ...Column) (*Schema, error) {
	s := &Schema{
		columns: append([]Column(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if c.Name == "" {
			return nil, errors.NewValidationError("column", "column name must not be empty", i)
		}
		if _, dup := s.index[c.Name]; dup {
			return nil, errors.NewValidationError("column", "duplicate column name", c.Name)
		}
		s.index[c.Name] = i
	}
	return s, nil
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.columns) }

// Column returns the i-th column.
func (s *Schema) Column(i int) Column { return s.columns[i] }

// Index returns the position of the named column.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Names returns the column names in schema order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Cell は欠損状態を持てる数値です。欠損は NaN とは区別されます。
type Cell struct {
	value float64
	valid bool
}

// Value returns a present cell holding v.
func Value(v float64) Cell { return Cell{value: v, valid: true} }

// MissingCell returns a missing cell.
func MissingCell() Cell { return Cell{} }

// Missing reports whether the cell has no value.
func (c Cell) Missing() bool { return !c.valid }

// Float returns the value of a present cell and 0 for a missing one.
func (c Cell) Float() float64 { return c.value }

// Row は行キーとセルの並びです。
//
// Row は Source が所有しており、RowIterator.Next を呼ぶと内容が
// 書き換えられることがあります。保持したい場合はコピーしてください。
type Row struct {
	Key   string
	Cells []Cell
}

// RowIterator は行を順方向に一度だけ走査します。
//
//	it, err := src.Iterator()
//	if err != nil { ... }
//	defer dataset.CloseIterator(it, &err)
//	for it.Next() {
//	    row := it.Row()
//	}
//	if err := it.Err(); err != nil { ... }
type RowIterator interface {
	// Next advances to the next row and reports whether there is one.
	Next() bool
	// Row returns the current row. It is valid until the next call to Next.
	Row() Row
	// Err returns the first error encountered while iterating.
	Err() error
	// Close releases the resources held by the iterator.
	Close() error
}

// CloseIterator closes it and stores the close error in *err unless *err
// already holds an error. Use it with a named error result:
//
//	defer dataset.CloseIterator(it, &err)
func CloseIterator(it RowIterator, err *error) {
	if cerr := it.Close(); cerr != nil && *err == nil {
		*err = errors.Wrap(cerr, "close row iterator")
	}
}

// Source は再走査可能な行の供給元です。
//
// Iterator を呼ぶたびに先頭から走査する新しい RowIterator を返し、
// 各走査は同じ行を同じ順序で返す必要があります。
type Source interface {
	Schema() *Schema
	Iterator() (RowIterator, error)
}

// Sizer is implemented by sources that know their row count in advance.
type Sizer interface {
	Len() int
}

// Size returns the number of rows of src if it implements Sizer.
func Size(src Source) (int, bool) {
	if s, ok := src.(Sizer); ok {
		return s.Len(), true
	}
	return 0, false
}
