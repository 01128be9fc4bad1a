package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	splitStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderTable formats the report as one row per split and class, followed by
// a line of file counts per split.
func RenderTable(r *Report) string {
	var rows [][]string
	for _, s := range r.Splits {
		for _, c := range s.Classes {
			rows = append(rows, []string{
				s.Name,
				c.Name,
				strconv.Itoa(c.Count),
				fmt.Sprintf("%.3f", c.Width.Mean),
				fmt.Sprintf("%.3f..%.3f", c.Width.Min, c.Width.Max),
				fmt.Sprintf("%.3f", c.Height.Mean),
				fmt.Sprintf("%.3f..%.3f", c.Height.Min, c.Height.Max),
				fmt.Sprintf("%.4f", c.Area.Mean),
			})
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("Split", "Class", "Boxes", "W mean", "W range", "H mean", "H range", "Area mean").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			if col == 0 {
				return splitStyle.Padding(0, 1)
			}
			return cellStyle
		})

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	for _, s := range r.Splits {
		b.WriteString(footerStyle.Render(fmt.Sprintf(
			"%s: %d images, %d label files, %d unlabeled, %d malformed lines",
			s.Name, s.Images, s.LabelFiles, s.Unlabeled, s.Malformed,
		)))
		b.WriteString("\n")
	}
	return b.String()
}
