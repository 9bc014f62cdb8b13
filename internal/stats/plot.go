package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight   = 6
	minPlotWidth        = 10
	axisSeparator       = " │ "
	axisLabelWidth      = 4
	terminalWidthBackup = 80
)

// PlotSeries renders a braille line plot of the series on a shared vertical scale.
// A width of 0 sizes the plot to the terminal behind w.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	series = filterSeries(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth(w))
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	lo, hi := seriesBounds(series)
	c := newCanvas(width, height)
	for _, s := range series {
		points := resample(s.Values, c.dotsX())
		prevX, prevY := -1, -1
		for x, v := range points {
			y := valueToDot(v, lo, hi, c.dotsY())
			if prevX >= 0 {
				drawLine(prevX, prevY, x, y, c.set)
			} else {
				c.set(x, y)
			}
			prevX, prevY = x, y
		}
	}

	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for row, line := range c.lines() {
		label := ""
		switch row {
		case 0:
			label = formatAxis(hi)
		case height - 1:
			label = formatAxis(lo)
		}
		if _, err := fmt.Fprintf(w, "%*s%s%s\n", axisLabelWidth, label, axisSeparator, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, renderLegend(series))
	return err
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - axisLabelWidth - runewidth.StringWidth(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return terminalWidthBackup
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func filterSeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func seriesBounds(series []Series) (float64, float64) {
	lo, hi := minMax(series[0].Values)
	for _, s := range series[1:] {
		l, h := minMax(s.Values)
		lo = math.Min(lo, l)
		hi = math.Max(hi, h)
	}
	if math.Abs(hi-lo) < 1e-9 {
		lo--
		hi++
	}
	return lo, hi
}

func formatAxis(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

func renderLegend(series []Series) string {
	parts := make([]string, 0, len(series))
	for _, s := range series {
		lo, hi := minMax(s.Values)
		parts = append(parts, fmt.Sprintf("%s (min %.0f, max %.0f)", s.Name, lo, hi))
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// resample stretches or shrinks values to n points by linear interpolation.
func resample(values []float64, n int) []float64 {
	out := make([]float64, n)
	if len(values) == 1 || n == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	last := float64(len(values) - 1)
	for i := range out {
		pos := float64(i) * last / float64(n-1)
		j := int(pos)
		if j >= len(values)-1 {
			out[i] = values[len(values)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = values[j] + (values[j+1]-values[j])*frac
	}
	return out
}

// valueToDot maps v onto [0, dots) with 0 at the bottom.
func valueToDot(v, lo, hi float64, dots int) int {
	pos := (v - lo) / (hi - lo)
	return clamp(int(math.Round(pos*float64(dots-1))), 0, dots-1)
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// canvas is a grid of braille cells, each holding 2x4 dots.
type canvas struct {
	cells [][]uint8
}

func newCanvas(width, height int) *canvas {
	cells := make([][]uint8, height)
	for i := range cells {
		cells[i] = make([]uint8, width)
	}
	return &canvas{cells: cells}
}

func (c *canvas) dotsX() int { return len(c.cells[0]) * 2 }
func (c *canvas) dotsY() int { return len(c.cells) * 4 }

// set lights the dot at (x, y), y counted from the bottom.
func (c *canvas) set(x, y int) {
	if x < 0 || x >= c.dotsX() || y < 0 || y >= c.dotsY() {
		return
	}
	fromTop := c.dotsY() - 1 - y
	c.cells[fromTop/4][x/2] |= brailleBit(x%2, fromTop%4)
}

func (c *canvas) lines() []string {
	out := make([]string, len(c.cells))
	for i, row := range c.cells {
		var b strings.Builder
		for _, mask := range row {
			if mask == 0 {
				b.WriteByte(' ')
				continue
			}
			b.WriteRune(rune(0x2800 + int(mask)))
		}
		out[i] = b.String()
	}
	return out
}

var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func brailleBit(col, row int) uint8 {
	return brailleBits[col][row]
}
