// Package presenter renders the human-facing output of skillskit commands:
// status lines, catalog totals, validation issues and snapshot diffs.
// Structured diagnostics go through pkg/logger instead.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

// CatalogStats summarises a generated skill catalog
type CatalogStats struct {
	Skills     int
	Categories int
	Tags       int
	Output     string
}

// ColorMode controls whether output is colored
type ColorMode int

const (
	// ColorAuto leaves the decision to terminal detection
	ColorAuto ColorMode = iota
	// ColorAlways colors output even when it is not a terminal
	ColorAlways
	// ColorNever disables color
	ColorNever
)

// ParseColorMode maps a --color or SKILLSKIT_COLOR value to a mode. The empty
// string means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always", "force":
		return ColorAlways, nil
	case "never", "off":
		return ColorNever, nil
	default:
		return ColorAuto, errors.Errorf("invalid color mode %q, expected auto, always or never", s)
	}
}

type kind int

const (
	kindError kind = iota
	kindSuccess
	kindWarning
	kindInfo
	kindStats
	kindHeading
	kindIssue
	kindAdded
	kindRemoved
	kindHunk
)

type style struct {
	prefix string
	attrs  []color.Attribute
}

var styles = map[kind]style{
	kindError:   {"[ERROR] ", []color.Attribute{color.FgRed, color.Bold}},
	kindSuccess: {"✓ ", []color.Attribute{color.FgGreen, color.Bold}},
	kindWarning: {"⚠ ", []color.Attribute{color.FgYellow, color.Bold}},
	kindInfo:    {"", nil},
	kindStats:   {"", []color.Attribute{color.FgCyan, color.Bold}},
	kindHeading: {"", []color.Attribute{color.Bold}},
	kindIssue:   {"  - ", []color.Attribute{color.FgYellow}},
	kindAdded:   {"", []color.Attribute{color.FgGreen}},
	kindRemoved: {"", []color.Attribute{color.FgRed}},
	kindHunk:    {"", []color.Attribute{color.FgCyan}},
}

// TerminalPresenter writes command output to a pair of writers. Errors always
// go to errorOutput; everything else is suppressed in quiet mode.
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	quiet       bool
}

// New creates a presenter on stdout and stderr honouring NO_COLOR and
// SKILLSKIT_COLOR.
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a presenter on the given writers. ColorAlways and
// ColorNever override color detection process-wide.
func NewWithOptions(output, errorOutput io.Writer, mode ColorMode) *TerminalPresenter {
	applyColorMode(mode)
	return &TerminalPresenter{output: output, errorOutput: errorOutput}
}

func applyColorMode(mode ColorMode) {
	switch mode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}
	mode, err := ParseColorMode(os.Getenv("SKILLSKIT_COLOR"))
	if err != nil {
		return ColorAuto
	}
	return mode
}

func (p *TerminalPresenter) emit(w io.Writer, k kind, text string) {
	s := styles[k]
	line := s.prefix + text + "\n"
	if len(s.attrs) == 0 {
		io.WriteString(w, line)
		return
	}
	color.New(s.attrs...).Fprint(w, line)
}

func (p *TerminalPresenter) print(k kind, text string) {
	if p.quiet {
		return
	}
	p.emit(p.output, k, text)
}

// Error writes err to the error output, prefixed by what was being done.
// It is shown in quiet mode too. A nil error prints nothing.
func (p *TerminalPresenter) Error(err error, doing string) {
	if err == nil {
		return
	}
	if doing != "" {
		p.emit(p.errorOutput, kindError, fmt.Sprintf("%s: %v", doing, err))
		return
	}
	p.emit(p.errorOutput, kindError, err.Error())
}

// Success reports a completed step
func (p *TerminalPresenter) Success(message string) { p.print(kindSuccess, message) }

// Warning reports something the user should look at
func (p *TerminalPresenter) Warning(message string) { p.print(kindWarning, message) }

// Info prints a plain line
func (p *TerminalPresenter) Info(message string) { p.print(kindInfo, message) }

// Stats prints catalog totals on one line, followed by the artifact path when
// there is one.
func (p *TerminalPresenter) Stats(stats *CatalogStats) {
	if stats == nil {
		return
	}
	p.print(kindStats, fmt.Sprintf("[Catalog] Skills: %d | Categories: %d | Tags: %d",
		stats.Skills, stats.Categories, stats.Tags))
	if stats.Output != "" {
		p.print(kindStats, "[Output] "+stats.Output)
	}
}

// Issues prints an underlined title followed by one bullet per issue.
// Nothing is printed for an empty list.
func (p *TerminalPresenter) Issues(title string, issues []string) {
	if len(issues) == 0 {
		return
	}
	p.print(kindHeading, title)
	p.print(kindHeading, strings.Repeat("-", len([]rune(title))))
	for _, issue := range issues {
		p.print(kindIssue, issue)
	}
}

// Diff prints a unified diff, coloring added and removed lines and hunk
// headers.
func (p *TerminalPresenter) Diff(diff string) {
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			p.print(kindHeading, line)
		case strings.HasPrefix(line, "@@"):
			p.print(kindHunk, line)
		case strings.HasPrefix(line, "+"):
			p.print(kindAdded, line)
		case strings.HasPrefix(line, "-"):
			p.print(kindRemoved, line)
		default:
			p.print(kindInfo, line)
		}
	}
}

// SetQuiet enables or disables quiet mode
func (p *TerminalPresenter) SetQuiet(quiet bool) { p.quiet = quiet }

// IsQuiet reports whether quiet mode is enabled
func (p *TerminalPresenter) IsQuiet() bool { return p.quiet }

var defaultPresenter = New()

// Error writes err through the default presenter
func Error(err error, doing string) { defaultPresenter.Error(err, doing) }

// Success reports a completed step through the default presenter
func Success(message string) { defaultPresenter.Success(message) }

// Warning reports a warning through the default presenter
func Warning(message string) { defaultPresenter.Warning(message) }

// Info prints a plain line through the default presenter
func Info(message string) { defaultPresenter.Info(message) }

// Stats prints catalog totals through the default presenter
func Stats(stats *CatalogStats) { defaultPresenter.Stats(stats) }

// Issues prints a titled issue list through the default presenter
func Issues(title string, issues []string) { defaultPresenter.Issues(title, issues) }

// Diff prints a unified diff through the default presenter
func Diff(diff string) { defaultPresenter.Diff(diff) }

// SetQuiet toggles quiet mode on the default presenter
func SetQuiet(quiet bool) { defaultPresenter.SetQuiet(quiet) }

// IsQuiet reports quiet mode of the default presenter
func IsQuiet() bool { return defaultPresenter.IsQuiet() }

// SetColorMode overrides color detection for all presenters
func SetColorMode(mode ColorMode) { applyColorMode(mode) }
