// Package template renders narrative prose containing {...} expression
// placeholders against a variable state. The grammar is deliberately closed:
// an identifier, an allow-listed method call, a boolean negation, or a
// conditional. Everything else is an expression error localized to its span.
package template

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenBool
	tokenBang
	tokenDot
	tokenLParen
	tokenRParen
	tokenQuestion
	tokenColon
	tokenOp
)

type token struct {
	kind tokenKind
	text string
}

func lex(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '.':
			tokens = append(tokens, token{tokenDot, "."})
			i++
		case c == '(':
			tokens = append(tokens, token{tokenLParen, "("})
			i++
		case c == ')':
			tokens = append(tokens, token{tokenRParen, ")"})
			i++
		case c == '?':
			tokens = append(tokens, token{tokenQuestion, "?"})
			i++
		case c == ':':
			tokens = append(tokens, token{tokenColon, ":"})
			i++
		case c == '!':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, token{tokenOp, "!="})
				i += 2
			} else {
				tokens = append(tokens, token{tokenBang, "!"})
				i++
			}
		case c == '=':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, token{tokenOp, "=="})
				i += 2
			} else {
				return nil, fmt.Errorf("%w: unexpected %q", ErrBadExpression, "=")
			}
		case c == '>' || c == '<':
			op := string(c)
			i++
			if i < len(input) && input[i] == '=' {
				op += "="
				i++
			}
			tokens = append(tokens, token{tokenOp, op})
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			for j < len(input) && input[j] != quote {
				j++
			}
			if j >= len(input) {
				return nil, fmt.Errorf("%w: unterminated string", ErrBadExpression)
			}
			tokens = append(tokens, token{tokenString, input[i+1 : j]})
			i = j + 1
		case c >= '0' && c <= '9' || c == '-':
			j := i
			if c == '-' {
				j++
				if j >= len(input) || input[j] < '0' || input[j] > '9' {
					return nil, fmt.Errorf("%w: unexpected %q", ErrBadExpression, "-")
				}
			}
			for j < len(input) && (input[j] >= '0' && input[j] <= '9' || input[j] == '.') {
				j++
			}
			tokens = append(tokens, token{tokenNumber, input[i:j]})
			i = j
		case isIdentStart(rune(c)):
			j := i
			for j < len(input) && isIdentPart(rune(input[j])) {
				j++
			}
			word := input[i:j]
			if strings.EqualFold(word, "true") || strings.EqualFold(word, "false") {
				tokens = append(tokens, token{tokenBool, strings.ToLower(word)})
			} else {
				tokens = append(tokens, token{tokenIdent, word})
			}
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected %q", ErrBadExpression, string(c))
		}
	}
	tokens = append(tokens, token{tokenEOF, ""})
	return tokens, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
