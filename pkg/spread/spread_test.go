package spread

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func allSpreads(total int, mode Mode) [][]int {
	var out [][]int
	for i := 0; i <= MaxIndex(total, mode); i++ {
		out = append(out, Pages(i, total, mode))
	}
	return out
}

func TestSpreadLayouts(t *testing.T) {
	tests := []struct {
		name  string
		total int
		mode  Mode
		want  [][]int
	}{
		{"five pages wide", 5, Double, [][]int{{1}, {2, 3}, {4, 5}}},
		{"four pages wide", 4, Double, [][]int{{1}, {2, 3}, {4}}},
		{"five pages narrow", 5, Single, [][]int{{1}, {2}, {3}, {4}, {5}}},
		{"single page wide", 1, Double, [][]int{{1}}},
		{"two pages wide", 2, Double, [][]int{{1}, {2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, allSpreads(tt.total, tt.mode)); diff != "" {
				t.Errorf("spreads mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMaxIndex(t *testing.T) {
	assert.Equal(t, 2, MaxIndex(5, Double))
	assert.Equal(t, 2, MaxIndex(4, Double))
	assert.Equal(t, 4, MaxIndex(5, Single))
	assert.Equal(t, 0, MaxIndex(0, Double))
}

func TestCoverIsAlwaysAlone(t *testing.T) {
	for total := 1; total <= 40; total++ {
		for _, mode := range []Mode{Single, Double} {
			assert.Equal(t, []int{1}, Pages(0, total, mode), "total=%d mode=%v", total, mode)
			for i := 1; i <= MaxIndex(total, mode); i++ {
				for _, page := range Pages(i, total, mode) {
					assert.NotEqual(t, 1, page, "page 1 paired at index %d (total=%d)", i, total)
				}
			}
		}
	}
}

func TestEverySpreadIsOneOrTwoPages(t *testing.T) {
	for total := 1; total <= 40; total++ {
		seen := 0
		for i := 0; i <= MaxIndex(total, Double); i++ {
			pages := Pages(i, total, Double)
			assert.NotEmpty(t, pages)
			assert.LessOrEqual(t, len(pages), 2)
			for _, p := range pages {
				seen++
				assert.Equal(t, seen, p, "pages must appear in order exactly once")
			}
		}
		assert.Equal(t, total, seen)
	}
}

func TestIndexOfRoundTrip(t *testing.T) {
	for total := 1; total <= 20; total++ {
		for _, mode := range []Mode{Single, Double} {
			for page := 1; page <= total; page++ {
				idx := IndexOf(page, total, mode)
				assert.Contains(t, Pages(idx, total, mode), page)
			}
		}
	}
	assert.Equal(t, 0, IndexOf(-3, 5, Double))
	assert.Equal(t, 2, IndexOf(99, 5, Double))
}

func TestNavigationSaturates(t *testing.T) {
	p := New(5, Double)

	assert.False(t, p.Prev(), "prev at the cover")
	assert.Equal(t, 0, p.Index())

	assert.True(t, p.Next())
	assert.True(t, p.Next())
	assert.True(t, p.AtEnd())
	assert.False(t, p.Next(), "next at the last spread")
	assert.Equal(t, 2, p.Index())
	assert.Equal(t, []int{4, 5}, p.Pages())
}

func TestNavigationOnEmptyDocument(t *testing.T) {
	p := New(0, Double)
	assert.False(t, p.Next())
	assert.False(t, p.Prev())
	assert.False(t, p.JumpTo(3))
	assert.Equal(t, "1 / -", p.Label())
}

func TestJumpTo(t *testing.T) {
	p := New(9, Double)

	assert.True(t, p.JumpTo(7))
	assert.Equal(t, []int{6, 7}, p.Pages())
	assert.True(t, p.JumpTo(1))
	assert.Equal(t, 0, p.Index())
	assert.False(t, p.JumpTo(1), "already there")
}

func TestSetModeClamps(t *testing.T) {
	p := New(5, Single)
	p.Last()
	assert.Equal(t, 4, p.Index())

	assert.True(t, p.SetMode(Double))
	assert.Equal(t, 2, p.Index())
	assert.Equal(t, []int{4, 5}, p.Pages())

	assert.True(t, p.SetMode(Single))
	assert.Equal(t, 2, p.Index(), "a still valid index is kept")
	assert.False(t, p.SetMode(Single))
}

func TestLabel(t *testing.T) {
	p := New(5, Double)
	assert.Equal(t, "1 / 5", p.Label())
	p.Next()
	assert.Equal(t, "2-3 / 5", p.Label())
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, Single, ModeFor(500, 768))
	assert.Equal(t, Double, ModeFor(768, 768))
	assert.Equal(t, Double, ModeFor(0, 768))
}
