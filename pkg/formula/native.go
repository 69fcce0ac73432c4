// Package formula evaluates the small arithmetic/string expression
// language used by Formula actions, against a single fact's fields.
package formula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hl/bingo-sub000/pkg/fact"
	"github.com/hl/bingo-sub000/pkg/value"
)

// Native evaluates the grammar:
//
//	expr   := term (('+'|'-') term)*
//	term   := factor (('*'|'/'|'%') factor)*
//	factor := literal | field | '(' expr ')'
//
// The lexer splits on whitespace, parentheses and the operators
// + - * / %, and keeps a double-quoted string literal as one token; it is
// deliberately simple.
type Native struct {
	tokens []string
	pos    int
	f      *fact.Fact
}

// Evaluate parses and evaluates expr against f's fields.
func Evaluate(expr string, f *fact.Fact) (value.Value, error) {
	n := &Native{tokens: tokenize(expr), f: f}
	v, err := n.parseExpr()
	if err != nil {
		return value.Null(), err
	}
	if n.pos != len(n.tokens) {
		return value.Null(), fmt.Errorf("formula: unexpected trailing token %q", n.tokens[n.pos])
	}
	return v, nil
}

func tokenize(expr string) []string {
	var tokens []string
	var cur strings.Builder
	inString := false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case inString:
			cur.WriteByte(c)
			if c == '"' {
				inString = false
				flush()
			}
		case c == '"':
			flush()
			inString = true
			cur.WriteByte(c)
		case c == ' ':
			flush()
		case c == '(' || c == ')' || c == '+' || c == '-' || c == '*' || c == '/' || c == '%':
			flush()
			tokens = append(tokens, string(c))
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}

func (n *Native) peek() (string, bool) {
	if n.pos >= len(n.tokens) {
		return "", false
	}
	return n.tokens[n.pos], true
}

func (n *Native) parseExpr() (value.Value, error) {
	left, err := n.parseTerm()
	if err != nil {
		return value.Null(), err
	}
	for {
		op, ok := n.peek()
		if !ok || (op != "+" && op != "-") {
			return left, nil
		}
		n.pos++
		right, err := n.parseTerm()
		if err != nil {
			return value.Null(), err
		}
		left, err = applyAdditive(op, left, right)
		if err != nil {
			return value.Null(), err
		}
	}
}

func (n *Native) parseTerm() (value.Value, error) {
	left, err := n.parseFactor()
	if err != nil {
		return value.Null(), err
	}
	for {
		op, ok := n.peek()
		if !ok || (op != "*" && op != "/" && op != "%") {
			return left, nil
		}
		n.pos++
		right, err := n.parseFactor()
		if err != nil {
			return value.Null(), err
		}
		left, err = applyMultiplicative(op, left, right)
		if err != nil {
			return value.Null(), err
		}
	}
}

func (n *Native) parseFactor() (value.Value, error) {
	tok, ok := n.peek()
	if !ok {
		return value.Null(), fmt.Errorf("formula: unexpected end of expression")
	}

	if tok == "(" {
		n.pos++
		v, err := n.parseExpr()
		if err != nil {
			return value.Null(), err
		}
		closing, ok := n.peek()
		if !ok || closing != ")" {
			return value.Null(), fmt.Errorf("formula: expected closing paren")
		}
		n.pos++
		return v, nil
	}

	n.pos++

	if strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) && len(tok) >= 2 {
		return value.String(tok[1 : len(tok)-1]), nil
	}
	if tok == "true" {
		return value.Boolean(true), nil
	}
	if tok == "false" {
		return value.Boolean(false), nil
	}
	if iv, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return value.Integer(iv), nil
	}
	if fv, err := strconv.ParseFloat(tok, 64); err == nil {
		return value.Float(fv), nil
	}

	fv, ok := n.f.Get(tok)
	if !ok {
		return value.Null(), fmt.Errorf("formula: unresolved field %q", tok)
	}
	return fv, nil
}

func applyAdditive(op string, l, r value.Value) (value.Value, error) {
	if op == "+" {
		if ls, ok := l.AsString(); ok {
			return value.String(ls + r.ToString()), nil
		}
		if rs, ok := r.AsString(); ok && l.Kind() != value.KindString {
			return value.String(l.ToString() + rs), nil
		}
	}
	return arithmetic(op, l, r)
}

func applyMultiplicative(op string, l, r value.Value) (value.Value, error) {
	return arithmetic(op, l, r)
}

func arithmetic(op string, l, r value.Value) (value.Value, error) {
	li, liok := l.AsInteger()
	ri, riok := r.AsInteger()
	if liok && riok && op != "/" {
		switch op {
		case "+":
			return value.Integer(li + ri), nil
		case "-":
			return value.Integer(li - ri), nil
		case "*":
			return value.Integer(li * ri), nil
		case "%":
			if ri == 0 {
				return value.Null(), fmt.Errorf("formula: modulo by zero")
			}
			return value.Integer(li % ri), nil
		}
	}

	lf, lok := l.AsFloat()
	rf, rok := r.AsFloat()
	if !lok || !rok {
		return value.Null(), fmt.Errorf("formula: non-numeric operand for %q", op)
	}
	switch op {
	case "+":
		return value.Float(lf + rf), nil
	case "-":
		return value.Float(lf - rf), nil
	case "*":
		return value.Float(lf * rf), nil
	case "/":
		if rf == 0 {
			return value.Null(), fmt.Errorf("formula: division by zero")
		}
		return value.Float(lf / rf), nil
	case "%":
		if rf == 0 {
			return value.Null(), fmt.Errorf("formula: modulo by zero")
		}
		return value.Float(float64(int64(lf) % int64(rf))), nil
	}
	return value.Null(), fmt.Errorf("formula: unknown operator %q", op)
}
