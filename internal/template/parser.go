package template

import (
	"errors"
	"fmt"
)

var (
	// ErrBadExpression marks any span outside the four supported forms.
	ErrBadExpression = errors.New("unsupported expression")
	// ErrUnknownVariable marks an identifier with no matching variable title.
	ErrUnknownVariable = errors.New("unknown variable")
	// ErrUnknownMethod marks a call outside the method allow-list.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrTypeMismatch marks an operation applied to operands of the wrong type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// The four expression forms. Parsing rejects every other tree shape by
// construction, so evaluation only ever sees one of these.
type form interface {
	form()
}

type identifierForm struct {
	name string
}

type methodForm struct {
	target string
	method string
}

type negationForm struct {
	name string
}

type conditionalForm struct {
	test       testClause
	consequent operand
	alternate  operand
}

func (identifierForm) form()  {}
func (methodForm) form()      {}
func (negationForm) form()    {}
func (conditionalForm) form() {}

// testClause is either a bare identifier truthiness check (op == "") or a
// binary comparison.
type testClause struct {
	left  operand
	op    string
	right operand
}

type operandKind int

const (
	operandIdent operandKind = iota
	operandString
	operandNumber
	operandBool
)

type operand struct {
	kind operandKind
	text string
}

type parser struct {
	tokens []token
	pos    int
}

func parse(input string) (form, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	f, err := p.parseForm()
	if err != nil {
		return nil, err
	}
	if !p.accept(tokenEOF) {
		return nil, fmt.Errorf("%w: trailing %q", ErrBadExpression, p.peek().text)
	}
	return f, nil
}

func (p *parser) parseForm() (form, error) {
	if p.accept(tokenBang) {
		name, ok := p.acceptText(tokenIdent)
		if !ok {
			return nil, fmt.Errorf("%w: expected identifier after !", ErrBadExpression)
		}
		return negationForm{name: name}, nil
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	switch {
	case p.accept(tokenDot):
		if left.kind != operandIdent {
			return nil, fmt.Errorf("%w: method call on a literal", ErrBadExpression)
		}
		method, ok := p.acceptText(tokenIdent)
		if !ok {
			return nil, fmt.Errorf("%w: expected method name", ErrBadExpression)
		}
		if !p.accept(tokenLParen) || !p.accept(tokenRParen) {
			return nil, fmt.Errorf("%w: expected ()", ErrBadExpression)
		}
		return methodForm{target: left.text, method: method}, nil

	case p.peek().kind == tokenOp:
		op := p.next().text
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		// A bare comparison is not a renderable form; it must be the
		// test of a conditional.
		return p.parseBranches(testClause{left: left, op: op, right: right})

	case p.accept(tokenQuestion):
		if left.kind != operandIdent {
			return nil, fmt.Errorf("%w: conditional test must be an identifier or comparison", ErrBadExpression)
		}
		return p.parseBranchesAfterQuestion(testClause{left: left})

	case left.kind == operandIdent:
		return identifierForm{name: left.text}, nil

	default:
		return nil, fmt.Errorf("%w: a bare literal is not an expression", ErrBadExpression)
	}
}

func (p *parser) parseBranches(test testClause) (form, error) {
	if !p.accept(tokenQuestion) {
		return nil, fmt.Errorf("%w: comparison outside a conditional", ErrBadExpression)
	}
	return p.parseBranchesAfterQuestion(test)
}

func (p *parser) parseBranchesAfterQuestion(test testClause) (form, error) {
	consequent, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if !p.accept(tokenColon) {
		return nil, fmt.Errorf("%w: expected :", ErrBadExpression)
	}
	alternate, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return conditionalForm{test: test, consequent: consequent, alternate: alternate}, nil
}

func (p *parser) parseOperand() (operand, error) {
	tok := p.next()
	switch tok.kind {
	case tokenIdent:
		return operand{kind: operandIdent, text: tok.text}, nil
	case tokenString:
		return operand{kind: operandString, text: tok.text}, nil
	case tokenNumber:
		return operand{kind: operandNumber, text: tok.text}, nil
	case tokenBool:
		return operand{kind: operandBool, text: tok.text}, nil
	default:
		return operand{}, fmt.Errorf("%w: unexpected %q", ErrBadExpression, tok.text)
	}
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) accept(kind tokenKind) bool {
	if p.tokens[p.pos].kind == kind {
		if kind != tokenEOF {
			p.pos++
		}
		return true
	}
	return false
}

func (p *parser) acceptText(kind tokenKind) (string, bool) {
	if p.tokens[p.pos].kind == kind {
		text := p.tokens[p.pos].text
		p.pos++
		return text, true
	}
	return "", false
}
