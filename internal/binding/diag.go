package binding

import (
	"fmt"

	"github.com/vanta-lang/vanta/internal/diagnostic"
	"github.com/vanta-lang/vanta/internal/position"
)

// warn emits a freeform WARNING: line on sink (spec section 6.4's single
// diagnostic sink) and, when sink also implements diagnostic.StructuredSink,
// a structured Diagnostic pointing at at's declaration site. at may be nil
// when no single binding is the natural anchor (e.g. an import that found
// nothing to import); the structured record then carries the zero Span.
func warn(sink diagnostic.Sink, at *Binding, cat diagnostic.DiagnosticCategory, code, title, format string, args ...any) {
	sink.Warn(format, args...)

	ss, ok := sink.(diagnostic.StructuredSink)
	if !ok {
		return
	}

	span := position.Span{}
	if at != nil {
		span = at.DeclSpan()
	}

	ss.AddDiagnostic(diagnostic.Diagnostic{
		Code:     code,
		Title:    title,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
		Level:    diagnostic.DiagnosticWarning,
		Category: cat,
	})
}
