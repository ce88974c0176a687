// Package spread maps page numbers to on-screen spreads and tracks the
// current spread while the reader pages through a document.
//
// In Double mode spread 0 is the cover (page 1) alone and spread n >= 1 is
// pages {2n, 2n+1}, the right page dropped when it is past the end. In
// Single mode spread n is page n+1.
package spread

import (
	"fmt"
	"strconv"
)

// Mode selects how many pages a spread holds.
type Mode int

const (
	// Single shows one page per spread (narrow viewports).
	Single Mode = iota
	// Double shows two facing pages, with the cover alone.
	Double
)

func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case Double:
		return "double"
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

// ModeFor picks the mode for a viewport width. Widths below the breakpoint
// are narrow. An unmeasured (zero) width is treated as wide so that the
// first layout does not flip modes once the real size arrives.
func ModeFor(width, breakpoint float32) Mode {
	if width > 0 && width < breakpoint {
		return Single
	}
	return Double
}

// MaxIndex returns the last valid spread index for a document of total pages.
func MaxIndex(total int, mode Mode) int {
	if total <= 1 {
		return 0
	}
	if mode == Single {
		return total - 1
	}
	// cover + ceil((total-1)/2) facing spreads
	return total / 2
}

// Pages returns the 1-based page numbers shown at index.
func Pages(index, total int, mode Mode) []int {
	if total <= 0 || index < 0 || index > MaxIndex(total, mode) {
		return nil
	}
	if mode == Single {
		return []int{index + 1}
	}
	if index == 0 {
		return []int{1}
	}
	left := index * 2
	if left+1 <= total {
		return []int{left, left + 1}
	}
	return []int{left}
}

// IndexOf returns the spread index that contains page. Pages outside the
// document are clamped to the first or last spread.
func IndexOf(page, total int, mode Mode) int {
	if total <= 0 || page <= 1 {
		return 0
	}
	if page > total {
		page = total
	}
	if mode == Single {
		return page - 1
	}
	return page / 2
}

// Pager is the pagination state machine. The zero value is an empty
// document in Single mode.
type Pager struct {
	total int
	mode  Mode
	index int
}

// New returns a pager at the cover.
func New(total int, mode Mode) *Pager {
	return &Pager{total: total, mode: mode}
}

// Index returns the current spread index.
func (p *Pager) Index() int { return p.index }

// Total returns the document page count.
func (p *Pager) Total() int { return p.total }

// Mode returns the current viewport mode.
func (p *Pager) Mode() Mode { return p.mode }

// MaxIndex returns the last valid index for the current total and mode.
func (p *Pager) MaxIndex() int { return MaxIndex(p.total, p.mode) }

// Pages returns the page numbers of the current spread.
func (p *Pager) Pages() []int { return Pages(p.index, p.total, p.mode) }

// AtStart reports whether Prev would be a no-op.
func (p *Pager) AtStart() bool { return p.index == 0 }

// AtEnd reports whether Next would be a no-op.
func (p *Pager) AtEnd() bool { return p.index >= p.MaxIndex() }

// Next advances one spread. It reports whether the index changed; at the
// last spread it does nothing.
func (p *Pager) Next() bool {
	if p.total == 0 || p.index >= p.MaxIndex() {
		return false
	}
	p.index++
	return true
}

// Prev goes back one spread. It reports whether the index changed.
func (p *Pager) Prev() bool {
	if p.total == 0 || p.index <= 0 {
		return false
	}
	p.index--
	return true
}

// First jumps to the cover.
func (p *Pager) First() bool {
	return p.set(0)
}

// Last jumps to the final spread.
func (p *Pager) Last() bool {
	return p.set(p.MaxIndex())
}

// JumpTo shows the spread containing page.
func (p *Pager) JumpTo(page int) bool {
	if p.total == 0 {
		return false
	}
	return p.set(IndexOf(page, p.total, p.mode))
}

// SetMode switches between Single and Double. The index is kept unless it
// is past the new last spread, in which case it is clamped.
func (p *Pager) SetMode(mode Mode) bool {
	if mode == p.mode {
		return false
	}
	p.mode = mode
	p.clamp()
	return true
}

// SetTotal replaces the page count, e.g. once a document finishes loading.
// A new document starts at the cover.
func (p *Pager) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	p.total = total
	p.index = 0
}

// Label formats the current position, e.g. "2-3 / 5" or "1 / -" while the
// page count is unknown.
func (p *Pager) Label() string {
	pages := p.Pages()
	total := "-"
	if p.total > 0 {
		total = strconv.Itoa(p.total)
	}
	switch len(pages) {
	case 0:
		return "1 / " + total
	case 1:
		return fmt.Sprintf("%d / %s", pages[0], total)
	default:
		return fmt.Sprintf("%d-%d / %s", pages[0], pages[1], total)
	}
}

func (p *Pager) set(index int) bool {
	if index < 0 {
		index = 0
	}
	if max := p.MaxIndex(); index > max {
		index = max
	}
	if index == p.index {
		return false
	}
	p.index = index
	return true
}

func (p *Pager) clamp() {
	if max := p.MaxIndex(); p.index > max {
		p.index = max
	}
	if p.index < 0 {
		p.index = 0
	}
}
