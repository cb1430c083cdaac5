// Diagnostic system for the module and binding subsystem.
// Provides structured warnings/errors plus a freeform "diagnostic sink"
// for the WARNING: lines the resolver and assignment paths emit.
package diagnostic

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vanta-lang/vanta/internal/position"
)

// DiagnosticLevel represents the severity level of a diagnostic message.
type DiagnosticLevel int

const (
	DiagnosticError DiagnosticLevel = iota
	DiagnosticWarning
	DiagnosticInfo
	DiagnosticHint
)

func (dl DiagnosticLevel) String() string {
	switch dl {
	case DiagnosticError:
		return "error"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticInfo:
		return "info"
	case DiagnosticHint:
		return "hint"
	default:
		return "unknown"
	}
}

// DiagnosticCategory represents the category of diagnostic.
type DiagnosticCategory int

const (
	DiagnosticSemantic DiagnosticCategory = iota
	DiagnosticVisibility
	DiagnosticDeprecation
)

func (dc DiagnosticCategory) String() string {
	switch dc {
	case DiagnosticSemantic:
		return "semantic"
	case DiagnosticVisibility:
		return "visibility"
	case DiagnosticDeprecation:
		return "deprecation"
	default:
		return "unknown"
	}
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Code     string
	Title    string
	Message  string
	Span     position.Span
	Level    DiagnosticLevel
	Category DiagnosticCategory
}

// Sink is the single diagnostic sink assumed by spec section 6.4: a
// destination for freeform WARNING: lines. diagnostic.Manager implements
// it; NopSink discards everything, for tests that don't want output.
type Sink interface {
	Warn(format string, args ...any)
}

type nopSink struct{}

func (nopSink) Warn(string, ...any) {}

// NopSink discards every warning. Useful in tests that assert on return
// values rather than printed diagnostics.
var NopSink Sink = nopSink{}

// StructuredSink is implemented by sinks that, beyond the freeform
// WARNING: text every Sink must accept, also want the position-aware
// structured Diagnostic record (so a host can sort by source location,
// filter by category, or render something richer than plain text).
// Manager implements it; a bare Sink is not required to.
type StructuredSink interface {
	Sink
	AddDiagnostic(Diagnostic)
}

// Manager collects diagnostics produced while resolving or assigning
// module bindings. Module/binding operations run concurrently across
// goroutines (spec section 5), and every method here may be called from
// whichever goroutine happens to resolve or assign a binding, so mu
// guards both slices.
type Manager struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
	freeform    []string
}

// NewManager creates an empty diagnostic manager.
func NewManager() *Manager {
	return &Manager{}
}

// Warn implements Sink by recording a freeform WARNING: line, formatted
// exactly as the resolver/assignment code specifies it.
func (m *Manager) Warn(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.freeform = append(m.freeform, fmt.Sprintf(format, args...))
}

// AddDiagnostic records a structured diagnostic, implementing
// StructuredSink. Resolver/assignment/deprecation warnings that have a
// binding's DeclSpan available call this alongside Warn, so Format and
// Sort below have something to order and render beyond the freeform text.
func (m *Manager) AddDiagnostic(d Diagnostic) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.diagnostics = append(m.diagnostics, d)
}

// Diagnostics returns a snapshot of the structured diagnostics recorded
// so far.
func (m *Manager) Diagnostics() []Diagnostic {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Diagnostic(nil), m.diagnostics...)
}

// Warnings returns a snapshot of every freeform WARNING: line recorded so
// far, in emission order.
func (m *Manager) Warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.freeform...)
}

// HasErrors reports whether any error-level structured diagnostic was
// recorded.
func (m *Manager) HasErrors() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.diagnostics {
		if d.Level == DiagnosticError {
			return true
		}
	}

	return false
}

// Clear removes all recorded diagnostics and warnings.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.diagnostics = m.diagnostics[:0]
	m.freeform = m.freeform[:0]
}

// sortLocked orders structured diagnostics by position, then severity.
// Callers must hold m.mu.
func (m *Manager) sortLocked() {
	sort.Slice(m.diagnostics, func(i, j int) bool {
		a, b := m.diagnostics[i], m.diagnostics[j]

		if a.Span.Start.Filename != b.Span.Start.Filename {
			return a.Span.Start.Filename < b.Span.Start.Filename
		}

		if a.Span.Start.Line != b.Span.Start.Line {
			return a.Span.Start.Line < b.Span.Start.Line
		}

		if a.Span.Start.Column != b.Span.Start.Column {
			return a.Span.Start.Column < b.Span.Start.Column
		}

		return a.Level < b.Level
	})
}

// Sort orders structured diagnostics by position, then severity.
func (m *Manager) Sort() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sortLocked()
}

// Format renders every recorded diagnostic and freeform warning as text,
// structured diagnostics first.
func (m *Manager) Format() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.diagnostics) == 0 && len(m.freeform) == 0 {
		return ""
	}

	m.sortLocked()

	var out strings.Builder

	for i, d := range m.diagnostics {
		if i > 0 {
			out.WriteString("\n")
		}

		out.WriteString(fmt.Sprintf("%s:%d:%d: %s[%s]: %s\n",
			d.Span.Start.Filename, d.Span.Start.Line, d.Span.Start.Column,
			d.Level, d.Code, d.Title))

		if d.Message != "" {
			out.WriteString(fmt.Sprintf("  %s\n", d.Message))
		}
	}

	for _, w := range m.freeform {
		out.WriteString(w)
		out.WriteString("\n")
	}

	return out.String()
}
