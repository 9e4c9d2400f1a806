package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lehigh-university-libraries/mangacat/internal/models"
)

var (
	pink   = lipgloss.Color("205")
	cyan   = lipgloss.Color("86")
	green  = lipgloss.Color("82")
	yellow = lipgloss.Color("220")
	red    = lipgloss.Color("196")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(pink).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(cyan).
			Width(12)

	statStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(yellow)

	missStyle = lipgloss.NewStyle().
			Foreground(red)
)

// printSummary renders the tallies of a finished batch
func printSummary(w io.Writer, batch *models.Batch) {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Batch " + batch.ID))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("Requested", statStyle.Render(fmt.Sprint(batch.Requested())))
	row("Found", statStyle.Render(fmt.Sprint(len(batch.Records))))
	row("Missing", missStyle.Render(fmt.Sprint(len(batch.Missing))))
	row("Warnings", warnStyle.Render(fmt.Sprint(batch.WarningCount())))
	if n := len(batch.Records); n > 0 && batch.Records[0].Barcode != "" {
		row("Barcodes", batch.Records[0].Barcode+" - "+batch.Records[n-1].Barcode)
	}

	for _, ref := range batch.Missing {
		b.WriteString(missStyle.Render(fmt.Sprintf("  not found: %s volume %d", ref.Series, ref.Volume)))
		b.WriteString("\n")
	}
	for _, rec := range batch.Records {
		for _, warning := range rec.Warnings {
			b.WriteString(warnStyle.Render(fmt.Sprintf("  %s: %s", rec.BookTitle, warning)))
			b.WriteString("\n")
		}
	}

	fmt.Fprint(w, b.String())
}
