package exec

import (
	"strings"

	"github.com/chocapikk/arcdb/internal/dberr"
	"github.com/chocapikk/arcdb/sqlfe"
	"github.com/chocapikk/arcdb/storage/value"
)

// evaluateExpr evaluates e against r. Subqueries, EXISTS, BETWEEN,
// IN-lists, LIKE, and CASE are not supported, matching the evaluator
// this engine's expression language was grounded on.
func evaluateExpr(e sqlfe.Expr, r row) (value.Value, error) {
	switch n := e.(type) {
	case *sqlfe.Literal:
		return literalValue(n), nil
	case *sqlfe.ColumnRef:
		return r.resolve(n)
	case *sqlfe.BinaryOp:
		left, err := evaluateExpr(n.Left, r)
		if err != nil {
			return value.Value{}, err
		}
		right, err := evaluateExpr(n.Right, r)
		if err != nil {
			return value.Value{}, err
		}
		return evaluateBinaryOp(n.Op, left, right)
	case *sqlfe.UnaryOp:
		operand, err := evaluateExpr(n.Operand, r)
		if err != nil {
			return value.Value{}, err
		}
		return evaluateUnaryOp(n.Op, operand)
	case *sqlfe.IsNull:
		operand, err := evaluateExpr(n.Operand, r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(operand.IsNull()), nil
	case *sqlfe.IsNotNull:
		operand, err := evaluateExpr(n.Operand, r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(!operand.IsNull()), nil
	case *sqlfe.Nested:
		return evaluateExpr(n.Inner, r)
	case *sqlfe.FunctionCall:
		return evaluateFunction(n, r)
	default:
		return value.Value{}, dberr.Newf(dberr.KindPlan, "unsupported expression %T", e)
	}
}

func literalValue(lit *sqlfe.Literal) value.Value {
	switch lit.Kind {
	case sqlfe.LitNull:
		return value.Null()
	case sqlfe.LitBoolean:
		return value.Bool(lit.Boolean)
	case sqlfe.LitInteger:
		return value.Int64(lit.Integer)
	case sqlfe.LitFloat:
		return value.Float64(lit.Float)
	case sqlfe.LitString:
		return value.String(lit.Str)
	default:
		return value.Null()
	}
}

func evaluateBinaryOp(op sqlfe.BinaryOperator, left, right value.Value) (value.Value, error) {
	switch op {
	case sqlfe.OpEq:
		if left.IsNull() || right.IsNull() {
			return value.Bool(left.IsNull() && right.IsNull()), nil
		}
		return value.Bool(left.Compare(right) == 0), nil
	case sqlfe.OpNeq:
		if left.IsNull() || right.IsNull() {
			return value.Bool(!(left.IsNull() && right.IsNull())), nil
		}
		return value.Bool(left.Compare(right) != 0), nil
	case sqlfe.OpLt:
		return value.Bool(left.Compare(right) < 0), nil
	case sqlfe.OpGt:
		return value.Bool(left.Compare(right) > 0), nil
	case sqlfe.OpLte:
		return value.Bool(left.Compare(right) <= 0), nil
	case sqlfe.OpGte:
		return value.Bool(left.Compare(right) >= 0), nil
	case sqlfe.OpAnd:
		return value.Bool(asBool(left) && asBool(right)), nil
	case sqlfe.OpOr:
		return value.Bool(asBool(left) || asBool(right)), nil
	case sqlfe.OpAdd:
		return arith(left, right, value.Value.Add)
	case sqlfe.OpSub:
		return arith(left, right, value.Value.Sub)
	case sqlfe.OpMul:
		return arith(left, right, value.Value.Mul)
	case sqlfe.OpDiv:
		if f, ok := right.AsFloat64Widened(); ok && f == 0 {
			return value.Value{}, dberr.New(dberr.KindType, "division by zero")
		}
		return arith(left, right, value.Value.Div)
	case sqlfe.OpConcat:
		if left.Kind() == value.KindString && right.Kind() == value.KindString {
			ls, _ := left.AsString()
			rs, _ := right.AsString()
			return value.String(ls + rs), nil
		}
		return value.String(left.String() + right.String()), nil
	default:
		return value.Value{}, dberr.Newf(dberr.KindPlan, "unsupported binary operator %v", op)
	}
}

func arith(left, right value.Value, f func(value.Value, value.Value) (value.Value, bool)) (value.Value, error) {
	result, ok := f(left, right)
	if !ok {
		return value.Value{}, dberr.Newf(dberr.KindType, "incompatible operand types %s and %s", left.TypeName(), right.TypeName())
	}
	return result, nil
}

func asBool(v value.Value) bool {
	b, _ := v.AsBool()
	return b
}

func evaluateUnaryOp(op sqlfe.UnaryOperator, operand value.Value) (value.Value, error) {
	switch op {
	case sqlfe.OpNot:
		return value.Bool(!asBool(operand)), nil
	case sqlfe.OpNeg:
		neg, ok := operand.Neg()
		if !ok {
			return value.Value{}, dberr.Newf(dberr.KindType, "cannot negate %s", operand.TypeName())
		}
		return neg, nil
	case sqlfe.OpPos:
		return operand, nil
	default:
		return value.Value{}, dberr.Newf(dberr.KindPlan, "unsupported unary operator %v", op)
	}
}

// evaluateFunction implements the small scalar function set this
// engine supports outside of aggregates: UPPER, LOWER, LENGTH. COUNT
// outside of an Aggregate node context (e.g. plain projection) returns
// a constant 1, matching a non-grouped "this row counts as one" reading.
func evaluateFunction(fn *sqlfe.FunctionCall, r row) (value.Value, error) {
	switch fn.Name {
	case "UPPER":
		v, err := evalSingleArg(fn, r)
		if err != nil {
			return value.Value{}, err
		}
		s, ok := v.AsString()
		if !ok {
			return value.Value{}, dberr.Newf(dberr.KindType, "UPPER expects a string, got %s", v.TypeName())
		}
		return value.String(strings.ToUpper(s)), nil
	case "LOWER":
		v, err := evalSingleArg(fn, r)
		if err != nil {
			return value.Value{}, err
		}
		s, ok := v.AsString()
		if !ok {
			return value.Value{}, dberr.Newf(dberr.KindType, "LOWER expects a string, got %s", v.TypeName())
		}
		return value.String(strings.ToLower(s)), nil
	case "LENGTH":
		v, err := evalSingleArg(fn, r)
		if err != nil {
			return value.Value{}, err
		}
		s, ok := v.AsString()
		if !ok {
			return value.Value{}, dberr.Newf(dberr.KindType, "LENGTH expects a string, got %s", v.TypeName())
		}
		return value.Int64(int64(len(s))), nil
	case "COUNT":
		return value.Int64(1), nil
	default:
		return value.Value{}, dberr.Newf(dberr.KindPlan, "unsupported function %q", fn.Name)
	}
}

func evalSingleArg(fn *sqlfe.FunctionCall, r row) (value.Value, error) {
	if len(fn.Args) != 1 {
		return value.Value{}, dberr.Newf(dberr.KindPlan, "%s expects exactly one argument", fn.Name)
	}
	return evaluateExpr(fn.Args[0], r)
}
