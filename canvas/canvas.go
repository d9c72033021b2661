// Package canvas provides the minimal committed render target: lines of
// text with terminal-cell-aware width measurement.
package canvas

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Width reports the number of terminal cells s occupies, measured per
// grapheme cluster so that emoji and combining sequences count as their
// rendered width rather than their rune count.
func Width(s string) int {
	var w int
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w += clusterWidth(g.Str())
	}
	return w
}

// clusterWidth is the cell width of a single grapheme cluster.
func clusterWidth(cluster string) int {
	w := runewidth.StringWidth(cluster)
	// multi-rune clusters (emoji ZWJ sequences etc) render as one glyph
	if w > 2 && uniseg.GraphemeClusterCount(cluster) == 1 {
		w = 2
	}
	return w
}

// Truncate returns s cut to at most width cells, never splitting a grapheme
// cluster.
func Truncate(s string, width int) string {
	if Width(s) <= width {
		return s
	}
	var b strings.Builder
	var w int
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cw := clusterWidth(g.Str())
		if w+cw > width {
			break
		}
		w += cw
		b.WriteString(g.Str())
	}
	return b.String()
}

// Canvas is an append-only sequence of rendered text lines, produced by a
// component render and committed by the scheduler.
type Canvas struct {
	lines []string
	width int // 0 means unconstrained
}

// New constructs a Canvas. A width <= 0 leaves line lengths unconstrained;
// otherwise lines are truncated to the given number of cells.
func New(width int) *Canvas {
	return &Canvas{width: width}
}

// WriteLine appends one line, truncated to the canvas width if constrained.
func (c *Canvas) WriteLine(s string) {
	if c.width > 0 {
		s = Truncate(s, c.width)
	}
	c.lines = append(c.lines, s)
}

// Lines returns the committed lines. The returned slice is owned by the
// canvas.
func (c *Canvas) Lines() []string {
	return c.lines
}

// Empty reports whether nothing has been written.
func (c *Canvas) Empty() bool {
	return len(c.lines) == 0
}

// String renders the canvas as newline-terminated text; an empty canvas
// renders as the empty string.
func (c *Canvas) String() string {
	if len(c.lines) == 0 {
		return ``
	}
	return strings.Join(c.lines, "\n") + "\n"
}
