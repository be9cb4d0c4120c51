package template

import (
	"fmt"
	"math"
	"strings"

	"fabula/internal/story"
)

func evaluate(f form, state story.VariableState) (string, error) {
	switch f := f.(type) {
	case identifierForm:
		snapshot, err := lookup(state, f.name)
		if err != nil {
			return "", err
		}
		return snapshot.Value, nil

	case methodForm:
		snapshot, err := lookup(state, f.target)
		if err != nil {
			return "", err
		}
		switch f.method {
		case "upper":
			return strings.ToUpper(snapshot.Value), nil
		case "lower":
			return strings.ToLower(snapshot.Value), nil
		default:
			return "", fmt.Errorf("%w: %s", ErrUnknownMethod, f.method)
		}

	case negationForm:
		snapshot, err := lookup(state, f.name)
		if err != nil {
			return "", err
		}
		if snapshot.Type != story.VariableBoolean {
			return "", fmt.Errorf("%w: ! requires a boolean variable", ErrTypeMismatch)
		}
		if strings.EqualFold(snapshot.Value, "true") {
			return "false", nil
		}
		return "true", nil

	case conditionalForm:
		pass, err := evaluateTest(f.test, state)
		if err != nil {
			return "", err
		}
		branch := f.alternate
		if pass {
			branch = f.consequent
		}
		return operandValue(branch, state)

	default:
		return "", ErrBadExpression
	}
}

func evaluateTest(test testClause, state story.VariableState) (bool, error) {
	if test.op == "" {
		snapshot, err := lookup(state, test.left.text)
		if err != nil {
			return false, err
		}
		return story.Truthy(snapshot), nil
	}

	left, err := resolveOperand(test.left, state)
	if err != nil {
		return false, err
	}
	right, err := resolveOperand(test.right, state)
	if err != nil {
		return false, err
	}

	switch test.op {
	case ">", ">=", "<", "<=":
		if !left.numeric || !right.numeric {
			return false, fmt.Errorf("%w: %s requires numeric operands", ErrTypeMismatch, test.op)
		}
		if math.IsNaN(left.number) || math.IsNaN(right.number) {
			return false, nil
		}
		switch test.op {
		case ">":
			return left.number > right.number, nil
		case ">=":
			return left.number >= right.number, nil
		case "<":
			return left.number < right.number, nil
		default:
			return left.number <= right.number, nil
		}
	case "==", "!=":
		equal := operandsEqual(left, right)
		if test.op == "!=" {
			return !equal, nil
		}
		return equal, nil
	default:
		return false, fmt.Errorf("%w: operator %s", ErrBadExpression, test.op)
	}
}

// resolved carries an operand's value plus what kinds of comparison it can
// participate in.
type resolved struct {
	text    string
	numeric bool
	number  float64
	boolean bool
	isBool  bool
}

func resolveOperand(op operand, state story.VariableState) (resolved, error) {
	switch op.kind {
	case operandIdent:
		snapshot, err := lookup(state, op.text)
		if err != nil {
			return resolved{}, err
		}
		r := resolved{text: snapshot.Value}
		switch snapshot.Type {
		case story.VariableNumber:
			r.numeric = true
			r.number = story.ToNumber(snapshot.Value)
		case story.VariableBoolean:
			r.isBool = true
			r.boolean = strings.EqualFold(snapshot.Value, "true")
		}
		return r, nil
	case operandNumber:
		return resolved{text: op.text, numeric: true, number: story.ToNumber(op.text)}, nil
	case operandBool:
		return resolved{text: op.text, isBool: true, boolean: op.text == "true"}, nil
	default:
		return resolved{text: op.text}, nil
	}
}

// operandsEqual compares two resolved operands: numerically when both are
// numbers, semantically when either side is boolean, and case-sensitively on
// the raw strings otherwise.
func operandsEqual(left, right resolved) bool {
	if left.numeric && right.numeric {
		if math.IsNaN(left.number) || math.IsNaN(right.number) {
			return false
		}
		return left.number == right.number
	}
	if left.isBool || right.isBool {
		lb, lok := asBool(left)
		rb, rok := asBool(right)
		if !lok || !rok {
			return false
		}
		return lb == rb
	}
	return left.text == right.text
}

func asBool(r resolved) (bool, bool) {
	if r.isBool {
		return r.boolean, true
	}
	switch strings.ToLower(r.text) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func operandValue(op operand, state story.VariableState) (string, error) {
	if op.kind == operandIdent {
		snapshot, err := lookup(state, op.text)
		if err != nil {
			return "", err
		}
		return snapshot.Value, nil
	}
	return op.text, nil
}

func lookup(state story.VariableState, name string) (story.VariableSnapshot, error) {
	_, snapshot, ok := state.ByTitle(name)
	if !ok {
		return story.VariableSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	return snapshot, nil
}
