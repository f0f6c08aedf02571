package table

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	subtitleStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	italicCell    = cellStyle.Italic(true)
)

// Terminal renders the table with box borders for interactive output.
func (t *Table) Terminal() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(t.Title))
	b.WriteString("\n")
	if t.Subtitle != "" {
		b.WriteString(subtitleStyle.Render(t.Subtitle))
		b.WriteString("\n")
	}
	lt := ltable.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == ltable.HeaderRow:
				return headerStyle
			case col == 0 && t.ItalicFirstColumn:
				return italicCell
			}
			return cellStyle
		})
	b.WriteString(lt.Render())
	b.WriteString("\n")
	return b.String()
}
