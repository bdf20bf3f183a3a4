package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// cell is one table value. A nil style renders the text unstyled.
type cell struct {
	text  string
	style *lipgloss.Style
}

func plainCell(text string) cell {
	return cell{text: text}
}

func styledCell(text string, style lipgloss.Style) cell {
	return cell{text: text, style: &style}
}

// renderTable writes a borderless table. Styles are applied per cell after
// column widths are measured, so colour codes never skew alignment.
func renderTable(w io.Writer, st *Styles, headers []string, rows [][]cell) {
	data := make([][]string, len(rows))
	for i, row := range rows {
		data[i] = make([]string, len(row))
		for j, c := range row {
			data[i][j] = c.text
		}
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		Headers(headers...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.Header.PaddingRight(2)
			}
			if row >= 0 && row < len(rows) && col < len(rows[row]) {
				if s := rows[row][col].style; s != nil {
					return s.PaddingRight(2)
				}
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})

	fmt.Fprintln(w, t.Render())
}
