package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ahoffer/cogito/pkg/query"
	"github.com/ahoffer/cogito/pkg/thinkmodel"
)

// Centralized style definitions for terminal output.
var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")) // cyan
	modelTagStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")) // magenta
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))            // gray
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))            // green
	ruleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	errorBlockStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("1"))
)

// mdRenderer renders markdown to terminal-formatted output.
var mdRenderer *glamour.TermRenderer

func initMarkdownRenderer(width int) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return
	}
	mdRenderer = r
}

// renderMarkdown converts markdown text to terminal-formatted output.
func renderMarkdown(text string) string {
	if mdRenderer == nil {
		return text
	}
	out, err := mdRenderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// terminalWidth reads COLUMNS when set; the renderer falls back to its own
// default otherwise.
func terminalWidth() int {
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil {
		return cols
	}
	return 0
}

// fmtDuration formats a duration for display.
func fmtDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	min := int(d.Minutes())
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", min, sec)
}

func printResult(res query.Result) {
	fmt.Println(headerStyle.Render("Query: ") + res.Query)

	if len(res.SelectedModels) > 0 {
		tags := make([]string, 0, len(res.SelectedModels))
		for _, id := range res.SelectedModels {
			tags = append(tags, modelTagStyle.Render(id))
		}
		fmt.Println(dimStyle.Render("Thinking models: ") + strings.Join(tags, ", "))
	} else {
		fmt.Println(dimStyle.Render("Thinking models: none (direct answer)"))
	}

	fmt.Println()

	if res.Failed() {
		fmt.Println(errorBlockStyle.Render(res.Solution))
	} else {
		fmt.Println(renderMarkdown(res.Solution))
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("Took " + fmtDuration(res.ProcessingTime)))
}

func printModelList(models []thinkmodel.Model) {
	if len(models) == 0 {
		fmt.Println(dimStyle.Render("No models loaded."))
		return
	}

	for _, m := range models {
		fmt.Printf("%s  %s\n", modelTagStyle.Render(m.ID),
			dimStyle.Render(fmt.Sprintf("[%s / %s]", m.Kind, m.Field)))
	}
	fmt.Println()
	fmt.Println(dimStyle.Render(fmt.Sprintf("%d models", len(models))))
}

func printModel(m thinkmodel.Model) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", m.ID)
	fmt.Fprintf(&sb, "**Type:** %s  \n**Field:** %s\n\n", m.Kind, m.Field)
	fmt.Fprintf(&sb, "## Definition\n\n%s\n", m.Definition)

	if len(m.Examples) > 0 {
		sb.WriteString("\n## Examples\n")
		for i, ex := range m.Examples {
			fmt.Fprintf(&sb, "\n%d. %s\n", i+1, ex)
		}
	}

	fmt.Println(renderMarkdown(sb.String()))
}

func printSummary(s thinkmodel.Summary) {
	fmt.Println(headerStyle.Render("Library summary"))
	fmt.Printf("Total models: %d\n", s.TotalModels)

	if len(s.Kinds) > 0 {
		parts := make([]string, 0, len(s.Kinds))
		for _, k := range s.Kinds {
			parts = append(parts, fmt.Sprintf("%s (%d)", k, s.CountsByKind[k]))
		}
		fmt.Println("Types: " + strings.Join(parts, ", "))
	}

	if len(s.Fields) > 0 {
		fmt.Println("Fields: " + strings.Join(s.Fields, ", "))
	}
}
