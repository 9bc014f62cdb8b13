package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/keymaster/internal/model"
)

// RenderWords prints the custom word bank as an aligned table.
func RenderWords(w io.Writer, words []model.CustomWord) error {
	if len(words) == 0 {
		_, err := fmt.Fprintln(w, "No custom words found.")
		return err
	}
	headers := []string{"Difficulty", "Word", "Length", "Added"}
	rows := make([][]string, 0, len(words))
	for _, cw := range words {
		rows = append(rows, []string{
			string(cw.Difficulty),
			cw.Word,
			fmt.Sprintf("%d", len([]rune(cw.Word))),
			cw.AddedAt.Local().Format("2006-01-02"),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, width, rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	padding := width - runewidth.StringWidth(value)
	if padding <= 0 {
		return value
	}
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}
