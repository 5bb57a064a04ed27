package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Palette
var (
	upColor      = lipgloss.Color("#EF4444") // rising prices are red on CN boards
	downColor    = lipgloss.Color("#10B981")
	accentColor  = lipgloss.Color("#7C3AED")
	warnColor    = lipgloss.Color("#F59E0B")
	infoColor    = lipgloss.Color("#06B6D4")
	mutedColor   = lipgloss.Color("#6B7280")
	borderColor  = lipgloss.Color("#374151")
	neutralColor = lipgloss.Color("#F9FAFB")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(downColor)
	errorStyle   = lipgloss.NewStyle().Foreground(upColor)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
	infoStyle    = lipgloss.NewStyle().Foreground(infoColor)
	dimStyle     = lipgloss.NewStyle().Foreground(mutedColor)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	writer := cmd.OutOrStdout()
	return &Output{
		writer:       writer,
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && colorWanted && writer == io.Writer(os.Stdout) && isTerminal(),
	}
}

// colorWanted mirrors ui.color_enabled; it is set by the root command.
var colorWanted = true

func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as indented JSON.
func (o *Output) JSON(data any) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(data)
}

// Println prints its arguments followed by a newline.
func (o *Output) Println(args ...any) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...any) {
	fmt.Fprintf(o.writer, format, args...)
}

func (o *Output) Success(format string, args ...any) { o.styled(successStyle, format, args...) }
func (o *Output) Error(format string, args ...any)   { o.styled(errorStyle, format, args...) }
func (o *Output) Warning(format string, args ...any) { o.styled(warnStyle, format, args...) }
func (o *Output) Info(format string, args ...any)    { o.styled(infoStyle, format, args...) }
func (o *Output) Bold(format string, args ...any)    { o.styled(titleStyle, format, args...) }
func (o *Output) Dim(format string, args ...any)     { o.styled(dimStyle, format, args...) }

func (o *Output) styled(style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(o.writer, o.render(style, fmt.Sprintf(format, args...)))
}

func (o *Output) render(style lipgloss.Style, text string) string {
	if !o.colorEnabled {
		return text
	}
	return style.Render(text)
}

// DimText returns dimmed text.
func (o *Output) DimText(text string) string {
	return o.render(dimStyle, text)
}

// Change renders a signed percentage coloured by direction.
func (o *Output) Change(pct float64) string {
	text := FormatChange(pct)
	switch {
	case pct > 0:
		return o.render(lipgloss.NewStyle().Foreground(upColor), text)
	case pct < 0:
		return o.render(lipgloss.NewStyle().Foreground(downColor), text)
	}
	return o.render(lipgloss.NewStyle().Foreground(neutralColor), text)
}

// Table represents a simple table for output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{headers: headers, output: output}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table. Column widths are measured in terminal cells so
// CJK names line up.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	t.printRow(t.headers, widths, true)
	var sep []string
	for _, w := range widths {
		sep = append(sep, strings.Repeat("─", w))
	}
	t.output.Println(t.output.render(dimStyle, strings.Join(sep, "──")))
	for _, row := range t.rows {
		t.printRow(row, widths, false)
	}
}

func (t *Table) printRow(cells []string, widths []int, isHeader bool) {
	var parts []string
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		padded := cell + strings.Repeat(" ", max(widths[i]-lipgloss.Width(cell), 0))
		if isHeader {
			padded = t.output.render(headerStyle, padded)
		}
		parts = append(parts, padded)
	}
	t.output.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

// Box draws a bordered box around content.
func (o *Output) Box(title string, content []string) {
	body := strings.Join(content, "\n")
	if !o.colorEnabled {
		o.Println("== " + title + " ==")
		o.Println(body)
		return
	}
	o.Println(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), body)))
}
