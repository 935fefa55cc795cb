package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jinzhu/inflection"
	"gopkg.in/yaml.v3"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/logging"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/models"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/services"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/store"
)

// Format selects how a single report is written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json or yaml in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

const separatorWidth = 50

// Printer writes operator-facing output.
type Printer struct {
	w   io.Writer
	now func() time.Time

	heading *color.Color
	good    *color.Color
	warn    *color.Color
	bad     *color.Color
	faint   *color.Color
}

// NewPrinter creates a Printer. With colorEnabled false no escape codes are written.
func NewPrinter(w io.Writer, colorEnabled bool) *Printer {
	p := &Printer{
		w:       w,
		now:     time.Now,
		heading: color.New(color.FgCyan, color.Bold),
		good:    color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		bad:     color.New(color.FgRed),
		faint:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.heading, p.good, p.warn, p.bad, p.faint} {
		if colorEnabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) println(args ...any) {
	fmt.Fprintln(p.w, args...)
}

// Heading writes "==== title ====" preceded by a blank line.
func (p *Printer) Heading(title string) {
	p.println()
	p.heading.Fprintf(p.w, "==== %s ====\n", title)
}

func (p *Printer) Success(format string, args ...any) {
	p.good.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Warning(format string, args ...any) {
	p.warn.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Failure(format string, args ...any) {
	p.bad.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Separator() {
	p.faint.Fprintln(p.w, strings.Repeat("-", separatorWidth))
}

// countNoun returns "1 report", "3 reports".
func countNoun(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %s", n, inflection.Plural(noun))
}

// Metrics writes the extractor's counts.
func (p *Printer) Metrics(m *models.SourceMetrics) {
	p.Heading("Analysis Results")
	if m.Language != "" {
		p.printf("Language: %s\n", m.Language)
	}
	p.printf("Total lines: %d\n", m.LineCount)
	p.printf("Type count: %d\n", m.TypeCount)
	p.printf("Function count: %d\n", m.FunctionCount)
	p.printf("Variable count: %d\n", m.VariableCount)
}

// AnalysisResult writes metrics, AI text and the persistence outcome.
func (p *Printer) AnalysisResult(res *services.AnalysisResult) {
	p.Metrics(res.Metrics)
	p.Heading(insightsTitle(res.Kind))
	p.println(res.AIText)
	p.println()
	switch {
	case res.Persisted:
		p.Success("Analysis results saved to database (report #%d).", res.ReportID)
	case res.PersistErr != nil && !isUnavailable(res.PersistErr):
		p.Failure("Error saving to database: %s", logging.SanitizeError(res.PersistErr))
	default:
		p.Warning("Analysis results not saved (no database connection).")
	}
}

func insightsTitle(kind models.AIKind) string {
	switch kind {
	case models.AIKindDebug:
		return "AI Debug Suggestions"
	case models.AIKindRefactor:
		return "AI Refactoring Suggestions"
	}
	return "AI Insights"
}

// ReportList writes reports as a table, newest first as given.
func (p *Printer) ReportList(reports []models.ReportSummary) {
	p.Heading("Analysis Reports")
	if len(reports) == 0 {
		p.println("No analysis reports found in the database.")
		return
	}
	p.printf("Found %s:\n\n", countNoun(len(reports), "report"))

	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "File", "Lines", "Types", "Functions", "Variables", "Kind", "Analyzed"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 40},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	now := p.now()
	for _, r := range reports {
		t.AppendRow(table.Row{
			r.ID, r.FileName, r.LineCount, r.TypeCount, r.FunctionCount, r.VariableCount,
			r.KindLabel(), relativeTime(r.AnalysisDate, now),
		})
	}
	t.Render()
}

// ReportIndex writes one line per report, used before asking for an id.
func (p *Printer) ReportIndex(reports []models.ReportSummary) {
	p.Heading("Available Reports")
	for _, r := range reports {
		p.printf("ID: %d | File: %s | Kind: %s | Date: %s\n",
			r.ID, r.FileName, r.KindLabel(), formatTime(r.AnalysisDate))
	}
	p.Separator()
}

func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// reportDocument is the exported shape of one report.
type reportDocument struct {
	ID            int64     `json:"id" yaml:"id"`
	FileName      string    `json:"file_name" yaml:"file_name"`
	FilePath      string    `json:"file_path" yaml:"file_path"`
	LineCount     int       `json:"line_count" yaml:"line_count"`
	TypeCount     int       `json:"type_count" yaml:"type_count"`
	FunctionCount int       `json:"function_count" yaml:"function_count"`
	VariableCount int       `json:"variable_count" yaml:"variable_count"`
	AnalysisDate  time.Time `json:"analysis_date" yaml:"analysis_date"`
	Kind          string    `json:"kind" yaml:"kind"`
	AIText        string    `json:"ai_text" yaml:"ai_text"`
}

func newReportDocument(r *models.Report) reportDocument {
	summary := r.Summary()
	return reportDocument{
		ID:            r.ID,
		FileName:      r.FileName,
		FilePath:      r.FilePath,
		LineCount:     r.LineCount,
		TypeCount:     r.TypeCount,
		FunctionCount: r.FunctionCount,
		VariableCount: r.VariableCount,
		AnalysisDate:  r.AnalysisDate,
		Kind:          summary.KindLabel(),
		AIText:        r.AIText(),
	}
}

// Report writes the full detail of one report in the given format.
func (p *Printer) Report(r *models.Report, format Format) error {
	doc := newReportDocument(r)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return enc.Close()
	}

	p.Heading("Detailed Analysis Report")
	p.printf("Report ID: %d\n", doc.ID)
	p.printf("File Name: %s\n", doc.FileName)
	p.printf("File Path: %s\n", doc.FilePath)
	p.printf("Analysis Date: %s (%s)\n", formatTime(doc.AnalysisDate), relativeTime(doc.AnalysisDate, p.now()))
	p.printf("Total Lines: %d\n", doc.LineCount)
	p.printf("Type Count: %d\n", doc.TypeCount)
	p.printf("Function Count: %d\n", doc.FunctionCount)
	p.printf("Variable Count: %d\n", doc.VariableCount)
	p.printf("AI Action: %s\n", doc.Kind)
	p.println()
	p.heading.Fprintln(p.w, "AI Analysis:")
	if doc.AIText == "" {
		p.println("(no AI output recorded)")
	} else {
		p.println(doc.AIText)
	}
	return nil
}

// About writes the version and the state of the store and AI client.
func (p *Printer) About(version string, st services.Status) {
	p.Heading("About Smart Code Analyzer")
	p.printf("Smart Code Analyzer %s\n", version)
	p.println("Analyzes source files and stores the results for later review.")
	p.println()
	p.println("Features:")
	p.println("- Basic code metrics (lines, types, functions, variables)")
	p.println("- AI-powered explanations, debug reports and refactoring advice")
	p.println("- Database storage of analysis results")
	p.println("- Report listing and detail views")
	p.println()

	if st.StoreAvailable {
		p.printf("Database Status: ")
		p.Success("Connected (%s, %s)", st.StoreBackend, st.StoreDialect)
	} else {
		p.printf("Database Status: ")
		p.Failure("Not Connected")
	}
	if st.RemoteErr != nil {
		p.printf("  Remote: %s\n", logging.SanitizeError(st.RemoteErr))
	}
	if st.EmbeddedErr != nil {
		p.printf("  Embedded: %s\n", logging.SanitizeError(st.EmbeddedErr))
	}

	p.printf("AI Status: ")
	p.Success("Configured (%s)", st.AIProvider)
	if len(st.AIModels) > 0 {
		p.printf("  %s: %s\n", inflection.Plural("Model"), strings.Join(st.AIModels, ", "))
	}
}

// ProbeResults writes the outcome of the doctor checks as a table.
func (p *Printer) ProbeResults(results []*store.ProbeResult) {
	p.Heading("Connectivity Checks")

	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Backend", "Dialect", "Target", "Check", "Result", "Elapsed"})
	for _, r := range results {
		for _, s := range r.Steps {
			t.AppendRow(table.Row{r.Backend, r.Dialect, logging.SanitizeConnectionString(r.Target), s.Name, stepResult(s), stepElapsed(s)})
		}
	}
	t.Render()

	for _, r := range results {
		for _, s := range r.Steps {
			if s.Err != nil {
				p.Failure("%s %s: %s", r.Backend, s.Name, logging.SanitizeError(s.Err))
			}
		}
	}
}

// Dialects lists the registered store drivers and where each one runs.
func (p *Printer) Dialects(dialects []store.Dialect) {
	p.printf("Supported drivers:\n")
	for _, d := range dialects {
		where := "remote"
		if d.Embedded {
			where = "embedded"
		}
		if d.DefaultPort > 0 {
			p.printf("  %-10s %s, %s (default port %d)\n", d.Name, d.DisplayName, where, d.DefaultPort)
			continue
		}
		p.printf("  %-10s %s, %s\n", d.Name, d.DisplayName, where)
	}
}

func stepResult(s store.ProbeStep) string {
	switch {
	case s.Skipped:
		return "skipped"
	case s.OK:
		return "ok"
	}
	return "FAILED"
}

func stepElapsed(s store.ProbeStep) string {
	if s.Skipped {
		return "-"
	}
	return s.Elapsed.Round(time.Millisecond).String()
}
