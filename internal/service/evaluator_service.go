package service

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"math/big"
	"slices"
	"strings"
)

// TargetValue is what a winning expression must evaluate to
const TargetValue = 24

const maxExpressionLen = 128

// Rejection reasons sent back to the client
const (
	ReasonInvalidExpression = "The expression is not valid!"
	ReasonNotTarget         = "The answer does not evaluate to 24!"
	ReasonWrongOperands     = "The expression must use each card exactly once!"
)

var errInvalidExpression = errors.New("invalid expression")

// Verdict is the outcome of checking one answer
type Verdict struct {
	Correct bool
	Reason  string // Empty when Correct
}

// EvaluatorService checks submitted answers against the dealt numbers
type EvaluatorService struct {
	strictOperands bool
}

// NewEvaluatorService creates a new evaluator.
// With strictOperands the expression must use each dealt number exactly once;
// without it only the numeric result is checked.
func NewEvaluatorService(strictOperands bool) *EvaluatorService {
	return &EvaluatorService{strictOperands: strictOperands}
}

// Check evaluates expression and reports whether it is a winning answer for numbers
func (s *EvaluatorService) Check(expression string, numbers []int) Verdict {
	root, err := parseExpression(expression)
	if err != nil {
		return Verdict{Reason: ReasonInvalidExpression}
	}

	var operands []int
	value, err := evaluate(root, &operands)
	if err != nil {
		return Verdict{Reason: ReasonInvalidExpression}
	}

	if s.strictOperands && !sameMultiset(operands, numbers) {
		return Verdict{Reason: ReasonWrongOperands}
	}
	if value.Cmp(big.NewRat(TargetValue, 1)) != 0 {
		return Verdict{Reason: ReasonNotTarget}
	}
	return Verdict{Correct: true}
}

func parseExpression(expression string) (ast.Expr, error) {
	expr := strings.TrimSpace(expression)
	if expr == "" || len(expr) > maxExpressionLen {
		return nil, errInvalidExpression
	}
	expr = strings.NewReplacer("×", "*", "÷", "/").Replace(expr)
	return parser.ParseExpr(expr)
}

// evaluate walks the arithmetic subset of a Go expression tree with exact rationals,
// collecting every literal it meets into operands.
func evaluate(node ast.Expr, operands *[]int) (*big.Rat, error) {
	switch n := node.(type) {
	case *ast.ParenExpr:
		return evaluate(n.X, operands)

	case *ast.BasicLit:
		if n.Kind != token.INT || strings.TrimLeft(n.Value, "0123456789") != "" {
			return nil, errInvalidExpression
		}
		v, ok := new(big.Int).SetString(n.Value, 10)
		if !ok || !v.IsInt64() {
			return nil, errInvalidExpression
		}
		*operands = append(*operands, int(v.Int64()))
		return new(big.Rat).SetInt(v), nil

	case *ast.BinaryExpr:
		x, err := evaluate(n.X, operands)
		if err != nil {
			return nil, err
		}
		y, err := evaluate(n.Y, operands)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.ADD:
			return new(big.Rat).Add(x, y), nil
		case token.SUB:
			return new(big.Rat).Sub(x, y), nil
		case token.MUL:
			return new(big.Rat).Mul(x, y), nil
		case token.QUO:
			if y.Sign() == 0 {
				return nil, errInvalidExpression
			}
			return new(big.Rat).Quo(x, y), nil
		}
	}
	return nil, errInvalidExpression
}

func sameMultiset(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
