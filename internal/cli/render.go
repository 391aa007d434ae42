package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"wallet/internal/core"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	statusStyles = map[core.Status]lipgloss.Style{
		core.StatusOK:      lipgloss.NewStyle().Foreground(ColorGreen),
		core.StatusWarning: lipgloss.NewStyle().Foreground(ColorOrange),
		core.StatusOver:    lipgloss.NewStyle().Foreground(ColorRed).Bold(true),
	}
)

// Table represents a bordered text table for CLI output. The first
// column is left-aligned, the rest right-aligned unless LeftAligned
// marks them.
type Table struct {
	Title       string
	Headers     []string
	Rows        [][]string
	LeftAligned map[int]bool
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

func rule(b *strings.Builder, widths []int, left, mid, right string) {
	b.WriteString(dimStyle.Render(left))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < len(widths)-1 {
			b.WriteString(dimStyle.Render(mid))
		}
	}
	b.WriteString(dimStyle.Render(right))
	b.WriteString("\n")
}

// pad aligns by display width; "₹" is one cell but three bytes.
func pad(s string, w int, left bool) string {
	gap := w - lipgloss.Width(s)
	if gap < 0 {
		gap = 0
	}
	if left {
		return " " + s + strings.Repeat(" ", gap) + " "
	}
	return " " + strings.Repeat(" ", gap) + s + " "
}

// RenderTable renders a bordered table with headers and rows. A row whose
// only cell is "---" becomes a separator.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule(&b, widths, "╭", "┬", "╮")
	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(pad(h, widths[i], true)))
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
		rule(&b, widths, "├", "┼", "┤")
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule(&b, widths, "├", "┼", "┤")
			continue
		}
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(valueStyle.Render(pad(cell, widths[i], i == 0 || t.LeftAligned[i])))
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
	}
	rule(&b, widths, "╰", "┴", "╯")
	return b.String()
}

// RenderSummary renders the four dashboard cards as a two-column table,
// colouring the remaining amount by budget status.
func RenderSummary(s core.Summary) string {
	style, ok := statusStyles[s.Status]
	if !ok {
		style = valueStyle
	}
	var b strings.Builder
	b.WriteString(RenderTable(Table{
		Rows: [][]string{
			{"Monthly Budget", FormatRupees(s.Budget)},
			{"Total Spent", FormatRupees(s.TotalSpent)},
			{"Expenses", FormatNumber(int64(s.Count))},
			{"---"},
			{"Remaining", FormatRupees(s.Remaining)},
		},
	}))
	switch s.Status {
	case core.StatusOver:
		b.WriteString("  " + style.Render("Over budget by "+FormatRupees(core.Money{Cents: -s.Remaining.Cents})) + "\n")
	case core.StatusWarning:
		b.WriteString("  " + style.Render("Less than 20% of the budget left") + "\n")
	}
	return b.String()
}

// RenderExpenses renders the expense table in the order given.
func RenderExpenses(expenses []core.Expense) string {
	if len(expenses) == 0 {
		return "  " + mutedStyle.Render("No expenses recorded yet.") + "\n"
	}
	rows := make([][]string, 0, len(expenses))
	var total core.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
		rows = append(rows, []string{
			e.Date.String(),
			Truncate(e.Description, 32),
			e.Category,
			e.PaymentMethod,
			FormatRupees(e.Amount),
			fmt.Sprint(e.ID),
		})
	}
	rows = append(rows, []string{"---"}, []string{"Total", "", "", "", FormatRupees(total), ""})
	return RenderTable(Table{
		Headers:     []string{"Date", "Description", "Category", "Payment", "Amount", "ID"},
		Rows:        rows,
		LeftAligned: map[int]bool{1: true, 2: true, 3: true},
	})
}

// RenderBars renders one horizontal bar per entry, scaled to the largest.
func RenderBars(title string, labels []string, amounts []core.Money, maxWidth int) string {
	if len(labels) == 0 {
		return ""
	}
	var maxCents int64
	labelWidth := 0
	for i, l := range labels {
		if amounts[i].Cents > maxCents {
			maxCents = amounts[i].Cents
		}
		if w := lipgloss.Width(l); w > labelWidth {
			labelWidth = w
		}
	}

	var b strings.Builder
	b.WriteString("  " + headerStyle.Render(title) + "\n")
	for i, l := range labels {
		barLen := 0
		if maxCents > 0 {
			barLen = int(amounts[i].Cents * int64(maxWidth) / maxCents)
		}
		fmt.Fprintf(&b, "  %s %s %s\n",
			valueStyle.Render(pad(l, labelWidth, true)),
			headerStyle.Render(strings.Repeat("█", barLen)),
			mutedStyle.Render(FormatRupees(amounts[i])))
	}
	return b.String()
}
