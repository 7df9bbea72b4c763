package linear

import (
	"context"

	"github.com/YuminosukeSato/linreg/dataset"
	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// Stage は学習のどのパスを実行中かを表します。
type Stage string

const (
	StageAccumulate Stage = "accumulate"
	StageInvert     Stage = "invert"
	StageSolve      Stage = "solve"
	StageError      Stage = "error"
)

// Progress は1行処理するごとに通知される進捗です。
type Progress struct {
	Stage  Stage
	Row    int    // 0-based row index within the pass
	RowKey string // key of the row just processed
	// Fraction is the share of the total work done, in [0, 1], or -1 when
	// the source does not know its size.
	Fraction float64
}

// ProgressFunc receives progress updates. It is called synchronously from
// the goroutine running Fit.
type ProgressFunc func(Progress)

// monitor tracks progress across the passes of one solve. The total work is
// (2 + computeError) passes over all rows.
type monitor struct {
	fn       ProgressFunc
	rows     int
	known    bool
	passes   int
	finished int
}

func newMonitor(fn ProgressFunc, src dataset.Source, computeError bool) *monitor {
	m := &monitor{fn: fn, passes: 2}
	if computeError {
		m.passes = 3
	}
	m.rows, m.known = dataset.Size(src)
	return m
}

func (m *monitor) report(stage Stage, row int, key string) {
	if m.fn == nil {
		return
	}
	frac := -1.0
	if m.known {
		total := float64(m.passes * m.rows)
		if total > 0 {
			frac = (float64(m.finished*m.rows) + float64(row+1)) / total
			if frac > 1 {
				frac = 1
			}
		}
	}
	m.fn(Progress{Stage: stage, Row: row, RowKey: key, Fraction: frac})
}

// passDone marks one full pass over the rows as finished. After the
// accumulation pass the row count is known even for unsized sources.
func (m *monitor) passDone(rows int) {
	m.finished++
	if !m.known {
		m.rows = rows
		m.known = true
	}
}

// rowPass drives a single pass over the source: it checks cancellation,
// row width and reports progress once per row.
type rowPass struct {
	stage    Stage
	it       dataset.RowIterator
	done     <-chan struct{}
	ctx      context.Context
	width    int
	monitor  *monitor
	index    int
	row      dataset.Row
	err      error
	finished bool
}

func startPass(ctx context.Context, stage Stage, src dataset.Source, m *monitor) (*rowPass, error) {
	it, err := src.Iterator()
	if err != nil {
		return nil, errors.Wrapf(err, "open row iterator for %s pass", stage)
	}
	return &rowPass{
		stage:   stage,
		it:      it,
		done:    ctx.Done(),
		ctx:     ctx,
		width:   src.Schema().Len(),
		monitor: m,
		index:   -1,
	}, nil
}

// next advances to the next row. It returns false at the end of the pass or
// on error; check err afterwards.
func (p *rowPass) next() bool {
	if p.err != nil || p.finished {
		return false
	}
	if p.index >= 0 {
		p.monitor.report(p.stage, p.index, p.row.Key)
	}
	select {
	case <-p.done:
		p.err = errors.NewCancelledError("Learner.Fit", string(p.stage), p.index+1, p.ctx.Err())
		return false
	default:
	}
	if !p.it.Next() {
		p.finished = true
		if err := p.it.Err(); err != nil {
			p.err = errors.Wrapf(err, "read row %d in %s pass", p.index+1, p.stage)
		}
		return false
	}
	p.index++
	p.row = p.it.Row()
	if len(p.row.Cells) != p.width {
		p.err = errors.NewSourceMismatchError("Learner.Fit", string(p.stage), p.index,
			"row width differs from schema")
		return false
	}
	return true
}

// rows returns the number of rows read so far.
func (p *rowPass) rows() int { return p.index + 1 }

// closeInto closes the iterator; see dataset.CloseIterator.
func (p *rowPass) closeInto(err *error) {
	dataset.CloseIterator(p.it, err)
}
