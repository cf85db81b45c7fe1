package dashboard

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const barWidth = 30

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 1)

var (
	cardValueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle     = lipgloss.NewStyle().Width(12)
	barStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// Render writes cards in a row followed by one horizontal bar chart per
// chart. Bars are scaled to the largest bucket of their chart.
func Render(w io.Writer, cards []Card, charts []Chart) error {
	boxes := make([]string, 0, len(cards))
	for _, c := range cards {
		boxes = append(boxes, cardStyle.Render(c.Title+"\n"+cardValueStyle.Render(fmt.Sprint(c.Value))))
	}

	sections := []string{lipgloss.JoinHorizontal(lipgloss.Top, boxes...)}
	for _, ch := range charts {
		sections = append(sections, renderChart(ch))
	}
	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, sections...))
	return err
}

func renderChart(ch Chart) string {
	peak := 0
	for _, v := range ch.Counts {
		peak = max(peak, v)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(ch.Title))
	for i, l := range ch.Labels {
		n := 0
		if peak > 0 {
			n = ch.Counts[i] * barWidth / peak
		}
		fmt.Fprintf(&b, "\n%s %s %d", labelStyle.Render(l), barStyle.Render(strings.Repeat("█", n)), ch.Counts[i])
	}
	return b.String()
}
