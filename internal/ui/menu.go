package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/techcorp/EyeSpy/internal/store"
)

// DefaultSubnet is offered when the scan prompt is left empty.
const DefaultSubnet = "192.168.1.0/24"

// ScanAction scans subnet and returns the number of cameras found.
type ScanAction func(ctx context.Context, subnet string) (int, error)

// ReportAction writes a report from the last saved results and returns its path.
type ReportAction func(ctx context.Context) (string, error)

// Menu is the interactive loop shown when eyespy runs without arguments.
type Menu struct {
	in      io.Reader
	out     io.Writer
	version string
	scan    ScanAction
	report  ReportAction

	// lines delivers input lines from a reader goroutine so that a prompt
	// can give up when ctx is cancelled. Closed at end of input.
	lines     chan string
	startRead sync.Once
}

// NewMenu returns a Menu reading choices from in and writing to out.
func NewMenu(in io.Reader, out io.Writer, version string, scan ScanAction, report ReportAction) *Menu {
	return &Menu{
		in:      in,
		out:     out,
		version: version,
		scan:    scan,
		report:  report,
		lines:   make(chan string),
	}
}

// Run shows the banner and handles choices until the user exits, input
// ends or ctx is cancelled. Action failures are printed and the menu is
// shown again.
func (m *Menu) Run(ctx context.Context) error {
	fmt.Fprintln(m.out, Banner(m.version))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printOptions()
		choice, ok, err := m.prompt(ctx, "\nSelect an option [1/2/3]: ")
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		switch choice {
		case "1":
			subnet, ok, err := m.prompt(ctx, PromptStyle.Render(fmt.Sprintf("Enter subnet (e.g., %s) [%s]: ", DefaultSubnet, DefaultSubnet)))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if subnet == "" {
				subnet = DefaultSubnet
			}
			m.runScan(ctx, subnet)
		case "2":
			m.runReport(ctx)
		case "3":
			fmt.Fprintln(m.out, InfoStyle.Render("Goodbye! Stay secure."))
			return nil
		default:
			fmt.Fprintln(m.out, ErrorStyle.Render(fmt.Sprintf("Invalid choice %q. Choose 1, 2 or 3.", choice)))
		}
	}
}

func (m *Menu) printOptions() {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, MenuTitleStyle.Render("Main Menu:"))
	fmt.Fprintf(m.out, " %s. Scan network for cameras\n", MenuKeyStyle.Render("1"))
	fmt.Fprintf(m.out, " %s. Generate HTML report\n", MenuKeyStyle.Render("2"))
	fmt.Fprintf(m.out, " %s. Exit\n", MenuKeyStyle.Render("3"))
}

// prompt writes label and waits for one trimmed line. It returns false at
// end of input, and ctx.Err() if ctx is cancelled while waiting.
func (m *Menu) prompt(ctx context.Context, label string) (string, bool, error) {
	m.startRead.Do(func() { go m.readLines() })

	fmt.Fprint(m.out, label)
	select {
	case line, ok := <-m.lines:
		if !ok {
			fmt.Fprintln(m.out)
			return "", false, nil
		}
		return strings.TrimSpace(line), true, nil
	case <-ctx.Done():
		fmt.Fprintln(m.out)
		return "", false, ctx.Err()
	}
}

// readLines feeds m.lines until input ends. A read blocked on a terminal
// cannot be interrupted; the goroutine ends with the process.
func (m *Menu) readLines() {
	defer close(m.lines)
	scanner := bufio.NewScanner(m.in)
	for scanner.Scan() {
		m.lines <- scanner.Text()
	}
}

func (m *Menu) runScan(ctx context.Context, subnet string) {
	found, err := m.scan(ctx, subnet)
	if err != nil {
		fmt.Fprintln(m.out, ErrorStyle.Render("Scan failed: "+err.Error()))
		return
	}
	fmt.Fprintln(m.out, PanelStyle.Render(fmt.Sprintf("Scan Complete! Found %d possible cameras.", found)))
}

func (m *Menu) runReport(ctx context.Context) {
	path, err := m.report(ctx)
	if errors.Is(err, store.ErrNoResults) {
		fmt.Fprintln(m.out, ErrorStyle.Render("No results found. Run a scan first."))
		return
	}
	if err != nil {
		fmt.Fprintln(m.out, ErrorStyle.Render("Report failed: "+err.Error()))
		return
	}
	fmt.Fprintln(m.out, SuccessStyle.Render("✅ HTML report saved as "+path))
}
