package einsum

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Transform is a compiled per-output elementwise transform expression.
//
// The expression language is a small prefix notation evaluated at every
// innermost loop step:
//
//	(+ @1 (* $1 $2))
//
// $k is the current element of input k (1-based), @k the current
// accumulated value of output k. Operators are + - * / min max, applied
// to one or more arguments. The default transform for output k, used
// when no expression is given, is (+ @k (* $1 … $n)): classic
// sum-of-products Einstein convention.
type Transform struct {
	root node
	src  string
}

// Eval evaluates the transform for the current loop state.
func (t *Transform) Eval(in, out []float64) float64 {
	return t.root.eval(in, out)
}

// String returns the canonical rendering of the expression, used in
// kernel cache keys.
func (t *Transform) String() string {
	return t.src
}

type node interface {
	eval(in, out []float64) float64
	render(b *strings.Builder)
}

type constNode float64

func (n constNode) eval(_, _ []float64) float64 { return float64(n) }
func (n constNode) render(b *strings.Builder) {
	b.WriteString(strconv.FormatFloat(float64(n), 'g', -1, 64))
}

type inputNode int // 0-based input operand index

func (n inputNode) eval(in, _ []float64) float64 { return in[n] }
func (n inputNode) render(b *strings.Builder)    { fmt.Fprintf(b, "$%d", int(n)+1) }

type outputNode int // 0-based output index

func (n outputNode) eval(_, out []float64) float64 { return out[n] }
func (n outputNode) render(b *strings.Builder)     { fmt.Fprintf(b, "@%d", int(n)+1) }

type opNode struct {
	op   string
	args []node
}

func (n *opNode) eval(in, out []float64) float64 {
	acc := n.args[0].eval(in, out)
	switch n.op {
	case "+":
		for _, a := range n.args[1:] {
			acc += a.eval(in, out)
		}
	case "*":
		for _, a := range n.args[1:] {
			acc *= a.eval(in, out)
		}
	case "-":
		if len(n.args) == 1 {
			return -acc
		}
		for _, a := range n.args[1:] {
			acc -= a.eval(in, out)
		}
	case "/":
		if len(n.args) == 1 {
			return 1 / acc
		}
		for _, a := range n.args[1:] {
			acc /= a.eval(in, out)
		}
	case "min":
		for _, a := range n.args[1:] {
			if v := a.eval(in, out); v < acc {
				acc = v
			}
		}
	case "max":
		for _, a := range n.args[1:] {
			if v := a.eval(in, out); v > acc {
				acc = v
			}
		}
	}
	return acc
}

func (n *opNode) render(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteString(n.op)
	for _, a := range n.args {
		b.WriteByte(' ')
		a.render(b)
	}
	b.WriteByte(')')
}

// ParseTransform parses a transform expression, validating that every
// $k and @k reference is within the declared operand counts.
func ParseTransform(expr string, numInputs, numOutputs int) (*Transform, error) {
	p := &transformParser{
		src:        expr,
		numInputs:  numInputs,
		numOutputs: numOutputs,
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, errors.Wrapf(ErrMalformedSpec, "transform %q: trailing input at offset %d", expr, p.pos)
	}

	var b strings.Builder
	root.render(&b)
	return &Transform{root: root, src: b.String()}, nil
}

type transformParser struct {
	src        string
	pos        int
	numInputs  int
	numOutputs int
}

func (p *transformParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *transformParser) parseExpr() (node, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, errors.Wrapf(ErrMalformedSpec, "transform %q: unexpected end of expression", p.src)
	}

	switch c := p.src[p.pos]; {
	case c == '(':
		return p.parseOp()
	case c == '$':
		idx, err := p.parseRef("input", p.numInputs)
		if err != nil {
			return nil, err
		}
		return inputNode(idx), nil
	case c == '@':
		idx, err := p.parseRef("output", p.numOutputs)
		if err != nil {
			return nil, err
		}
		return outputNode(idx), nil
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	default:
		return nil, errors.Wrapf(ErrMalformedSpec, "transform %q: unexpected character %q", p.src, c)
	}
}

func (p *transformParser) parseOp() (node, error) {
	p.pos++ // consume '('
	p.skipSpace()

	start := p.pos
	for p.pos < len(p.src) && !unicode.IsSpace(rune(p.src[p.pos])) && p.src[p.pos] != '(' && p.src[p.pos] != ')' {
		p.pos++
	}
	op := p.src[start:p.pos]
	switch op {
	case "+", "-", "*", "/", "min", "max":
	default:
		return nil, errors.Wrapf(ErrMalformedSpec, "transform %q: unknown operator %q", p.src, op)
	}

	var args []node
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, errors.Wrapf(ErrMalformedSpec, "transform %q: missing closing parenthesis", p.src)
		}
		if p.src[p.pos] == ')' {
			p.pos++
			break
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) == 0 {
		return nil, errors.Wrapf(ErrMalformedSpec, "transform %q: operator %q needs at least one argument", p.src, op)
	}
	return &opNode{op: op, args: args}, nil
}

func (p *transformParser) parseRef(kind string, limit int) (int, error) {
	p.pos++ // consume '$' or '@'
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, errors.Wrapf(ErrMalformedSpec, "transform %q: %s reference needs an index", p.src, kind)
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil || n < 1 || n > limit {
		return 0, errors.Wrapf(ErrMalformedSpec, "transform %q: %s reference %s out of range 1..%d", p.src, kind, p.src[start:p.pos], limit)
	}
	return n - 1, nil
}

func (p *transformParser) parseNumber() (node, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' || c == '.' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedSpec, "transform %q: bad number %q", p.src, p.src[start:p.pos])
	}
	return constNode(v), nil
}
