package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/apperrors"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/logging"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/services"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/store"
)

const (
	choiceExit    = 0
	choiceAnalyze = 1
	choiceList    = 2
	choiceDetail  = 3
	choiceAbout   = 4

	invalidChoice = -1
)

const unavailableSuffix = " (Unavailable - No Database Connection)"

// Menu is the interactive loop. It reads one line per prompt from in.
type Menu struct {
	svc     services.AnalysisService
	in      *bufio.Reader
	out     *Printer
	version string
	logger  *zap.Logger
}

// NewMenu creates a Menu that reads from in and prints through out.
func NewMenu(svc services.AnalysisService, in io.Reader, out *Printer, version string, logger *zap.Logger) *Menu {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Menu{
		svc:     svc,
		in:      bufio.NewReader(in),
		out:     out,
		version: version,
		logger:  logger.Named("menu"),
	}
}

// Run shows the menu until the operator picks 0, input ends or ctx is done.
// It returns nil in all of those cases.
func (m *Menu) Run(ctx context.Context) error {
	m.out.println("=========================================")
	m.out.println("   Welcome to Smart Code Analyzer " + m.version)
	m.out.println("=========================================")
	m.startupStatus()

	for {
		if ctx.Err() != nil {
			m.logger.Debug("Menu cancelled", zap.Error(ctx.Err()))
			return nil
		}

		m.printMenu()
		line, err := m.readLine()
		if err != nil {
			m.out.println()
			m.out.println("Exiting Smart Code Analyzer. Goodbye!")
			return nil
		}

		switch parseChoice(line) {
		case choiceAnalyze:
			m.analyze(ctx)
		case choiceList:
			if m.requireStore() {
				m.listReports(ctx)
			}
		case choiceDetail:
			if m.requireStore() {
				m.detail(ctx)
			}
		case choiceAbout:
			m.about()
		case choiceExit:
			m.out.println("Exiting Smart Code Analyzer. Goodbye!")
			return nil
		default:
			m.out.println("Invalid choice. Please try again.")
		}
	}
}

func (m *Menu) startupStatus() {
	st := m.svc.Status()
	switch st.StoreBackend {
	case store.BackendRemote:
		m.out.Success("Using remote %s database", st.StoreDialect)
	case store.BackendEmbedded:
		if st.RemoteErr != nil {
			m.out.Warning("Using embedded %s database (remote database not available)", st.StoreDialect)
		} else {
			m.out.Warning("Using embedded %s database", st.StoreDialect)
		}
	default:
		m.out.Failure("Database connection failed. Features will be limited.")
	}
	m.out.Success("AI service ready (%s)", st.AIProvider)
}

func (m *Menu) storeAvailable() bool {
	return m.svc.Status().StoreAvailable
}

func (m *Menu) printMenu() {
	suffix := ""
	if !m.storeAvailable() {
		suffix = unavailableSuffix
	}
	m.out.println()
	m.out.heading.Fprintln(m.out.w, "MAIN MENU")
	m.out.println("1. Analyze Source File")
	m.out.println("2. View Analysis Reports" + suffix)
	m.out.println("3. View Detailed Report" + suffix)
	m.out.println("4. About")
	m.out.println("0. Exit")
	m.out.printf("Enter your choice: ")
}

func (m *Menu) requireStore() bool {
	if m.storeAvailable() {
		return true
	}
	m.out.Failure("Database connection required for this feature.")
	return false
}

// readLine returns the next line without its terminator. A final line
// without a newline is returned before io.EOF.
func (m *Menu) readLine() (string, error) {
	line, err := m.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (m *Menu) pause() {
	m.out.println()
	m.out.println("Press Enter to continue...")
	_, _ = m.readLine()
}

func parseChoice(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return invalidChoice
	}
	return n
}

// cleanPath strips surrounding whitespace and the quotes terminals add
// when a file is dragged in.
func cleanPath(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		s = s[1 : len(s)-1]
	}
	return s
}

func (m *Menu) analyze(ctx context.Context) {
	m.out.Heading("Source File Analysis")
	m.out.printf("Enter path to source file: ")
	line, err := m.readLine()
	if err != nil {
		return
	}
	path := cleanPath(line)
	if path == "" {
		m.out.Failure("Invalid file path.")
		return
	}

	m.out.println("Analyzing file: " + path)
	m.out.println("Generating AI insights...")
	res, err := m.svc.Analyze(ctx, path)
	if err != nil {
		m.out.Failure("Error analyzing file: %s", err)
		return
	}
	m.out.AnalysisResult(res)
	m.pause()
}

func (m *Menu) listReports(ctx context.Context) {
	reports, err := m.svc.ListReports(ctx)
	if err != nil {
		m.out.Failure("Error retrieving reports: %s", logging.SanitizeError(err))
		return
	}
	m.out.ReportList(reports)
	m.pause()
}

func (m *Menu) detail(ctx context.Context) {
	reports, err := m.svc.ListReports(ctx)
	if err != nil {
		m.out.Failure("Error retrieving reports: %s", logging.SanitizeError(err))
		return
	}
	if len(reports) == 0 {
		m.out.println("No analysis reports found in the database.")
		return
	}
	m.out.ReportIndex(reports)

	m.out.printf("\nEnter report ID to view details (0 to cancel): ")
	line, err := m.readLine()
	if err != nil {
		return
	}
	id := parseChoice(line)
	if id <= 0 {
		return
	}

	report, err := m.svc.Detail(ctx, int64(id))
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		m.out.Failure("Report with ID %d not found.", id)
		return
	case err != nil:
		m.out.Failure("Error retrieving detailed report: %s", logging.SanitizeError(err))
		return
	}
	_ = m.out.Report(report, FormatText)
	m.pause()
}

func (m *Menu) about() {
	m.out.About(m.version, m.svc.Status())
	m.pause()
}

func isUnavailable(err error) bool {
	return errors.Is(err, apperrors.ErrUnavailable)
}
