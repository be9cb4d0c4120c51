package template

import (
	"strings"

	"fabula/internal/story"
)

// ErrorText replaces a span whose expression failed to parse or evaluate.
const ErrorText = "ERROR"

// Markers wrapping evaluated spans in highlight mode, consumed by the
// authoring preview to surface expressions inline.
const (
	HighlightStart = "«"
	HighlightEnd   = "»"
)

// Span is one {...} placeholder from the source text with its evaluation
// result. Err is non-nil for expression errors; such spans render as
// ErrorText without aborting the surrounding text.
type Span struct {
	Raw   string
	Value string
	Err   error
}

// Rendered is the final text plus the per-span results, in source order.
type Rendered struct {
	Text  string
	Spans []Span
}

type Options struct {
	// Highlight wraps each evaluated span in markers instead of splicing
	// it in silently. Same evaluation, different output shape.
	Highlight bool
}

// Render substitutes every {...} expression in text against state. Braces
// with no matching close, or an empty body, pass through as literal text.
func Render(text string, state story.VariableState, opts Options) Rendered {
	var out strings.Builder
	var spans []Span

	i := 0
	for i < len(text) {
		open := strings.IndexByte(text[i:], '{')
		if open < 0 {
			out.WriteString(text[i:])
			break
		}
		open += i
		out.WriteString(text[i:open])

		body, end, ok := spanBody(text, open)
		if !ok || strings.TrimSpace(body) == "" {
			out.WriteByte('{')
			i = open + 1
			continue
		}

		span := evaluateSpan(body, state)
		spans = append(spans, span)

		value := span.Value
		if span.Err != nil {
			value = ErrorText
		}
		if opts.Highlight {
			out.WriteString(HighlightStart)
			out.WriteString(value)
			out.WriteString(HighlightEnd)
		} else {
			out.WriteString(value)
		}
		i = end + 1
	}

	return Rendered{Text: collapseWhitespace(out.String()), Spans: spans}
}

func evaluateSpan(body string, state story.VariableState) Span {
	span := Span{Raw: body}
	f, err := parse(body)
	if err != nil {
		span.Err = err
		return span
	}
	span.Value, span.Err = evaluate(f, state)
	return span
}

// spanBody returns the text between the brace at open and its closing brace,
// skipping braces inside quoted literals.
func spanBody(text string, open int) (string, int, bool) {
	var quote byte
	for i := open + 1; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '}':
			return text[open+1 : i], i, true
		case c == '{':
			return "", 0, false
		}
	}
	return "", 0, false
}

// collapseWhitespace folds runs of spaces and tabs into a single space.
// Newlines are preserved; spaces hugging a newline are dropped.
func collapseWhitespace(text string) string {
	var out strings.Builder
	out.Grow(len(text))
	pendingSpace := false
	lineStart := true
	for _, r := range text {
		switch r {
		case ' ', '\t':
			if !lineStart {
				pendingSpace = true
			}
		case '\n':
			pendingSpace = false
			lineStart = true
			out.WriteRune('\n')
		default:
			if pendingSpace {
				out.WriteByte(' ')
				pendingSpace = false
			}
			lineStart = false
			out.WriteRune(r)
		}
	}
	return out.String()
}
