package linear

import (
	"github.com/yourbasic/bit"
)

// SkipMask records which rows were skipped in the accumulation pass because
// of missing values. One bit per row in source order; once sealed it is
// read-only.
type SkipMask struct {
	set    *bit.Set
	length int
	sealed bool
}

func newSkipMask() *SkipMask {
	return &SkipMask{set: bit.New()}
}

// grow appends one row and marks it skipped if skip is true.
func (m *SkipMask) grow(skip bool) {
	if m.sealed {
		panic("linear: SkipMask modified after accumulation")
	}
	if skip {
		m.set.Add(m.length)
	}
	m.length++
}

func (m *SkipMask) seal() { m.sealed = true }

// Len returns the number of rows the mask covers.
func (m *SkipMask) Len() int { return m.length }

// Skipped reports whether row i was skipped. Rows beyond Len are never
// skipped.
func (m *SkipMask) Skipped(i int) bool {
	if i < 0 || i >= m.length {
		return false
	}
	return m.set.Contains(i)
}

// Count returns the number of skipped rows.
func (m *SkipMask) Count() int { return m.set.Size() }
