package interp

import (
	"reflect"

	"github.com/crisp-lang/crisp/pkg/ir"
	"github.com/crisp-lang/crisp/pkg/types"
)

// eval evaluates one IR expression node against the interpreter's context
// and blackboard objects (spec.md §4.8 "Expression evaluation").
func (it *Interpreter) eval(n *ir.Node, tc TickContext) (any, error) {
	if n == nil {
		return nil, runtimeErrorf("eval: nil IR expression")
	}
	switch n.Kind {
	case ir.Literal:
		return literalValue(n), nil

	case ir.MemberLoad:
		return it.loadChain(it.ctx, n.Path)

	case ir.BlackboardLoad:
		if !it.hasBB {
			return nil, runtimeErrorf("blackboard access on %q but no blackboard is configured", n.Path.String())
		}
		return it.loadChain(it.blackboard, n.Path)

	case ir.BinaryOp:
		return it.evalBinary(n, tc)

	case ir.UnaryOp:
		return it.evalUnary(n, tc)

	case ir.LogicOp:
		return it.evalLogic(n, tc)

	case ir.Call:
		return it.invoke(it.ctx, n.Method.Name, n.Args, tc)

	case ir.Convert:
		v, err := it.eval(n.Operand, tc)
		if err != nil {
			return nil, err
		}
		return convertValue(v, n.TargetType)

	default:
		return nil, runtimeErrorf("eval: %v is not an expression IR node kind", n.Kind)
	}
}

func literalValue(n *ir.Node) any {
	switch {
	case n.LiteralType.IsFloat():
		return n.FloatVal
	case n.LiteralType.IsInt():
		return n.IntVal
	case n.LiteralType.IsBool():
		return n.BoolVal
	case n.LiteralType.IsNull():
		return nil
	default:
		return n.StringVal
	}
}

// loadChain walks path on root, trying a zero-arg method (a "property
// accessor") before a field at each segment; a nil value at any point
// short-circuits to nil without visiting the remaining segments (spec.md
// §4.8).
func (it *Interpreter) loadChain(root reflect.Value, path []string) (any, error) {
	cur := root
	for _, seg := range path {
		if isNilValue(cur) {
			return nil, nil
		}
		next, err := memberOf(cur, seg)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	if isNilValue(cur) {
		return nil, nil
	}
	return normalizeScalar(cur), nil
}

// normalizeScalar converts a reflected Go value of any numeric/bool/string
// kind to the interpreter's own value representation (int64/float64/
// bool/string), so arithmetic and comparisons never have to special-case a
// host's particular sized int/float type. Struct/interface/Tickable values
// (e.g. a sub-tree returned from an action method) pass through unchanged.
func normalizeScalar(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	default:
		return rv.Interface()
	}
}

func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// memberOf reads one path segment off v: first a zero-argument method,
// then a struct field, by exact name (the name already rewritten to its
// resolved Go identifier by the IR lowerer).
func memberOf(v reflect.Value, name string) (reflect.Value, error) {
	addr := v
	if addr.Kind() != reflect.Pointer && addr.CanAddr() {
		addr = addr.Addr()
	}
	if addr.Kind() == reflect.Pointer {
		if m := addr.MethodByName(name); m.IsValid() && m.Type().NumIn() == 0 {
			out := m.Call(nil)
			if len(out) > 0 {
				return out[0], nil
			}
			return reflect.Value{}, nil
		}
	}
	s := v
	for s.Kind() == reflect.Pointer {
		if s.IsNil() {
			return reflect.Value{}, nil
		}
		s = s.Elem()
	}
	if s.Kind() == reflect.Struct {
		f := s.FieldByName(name)
		if f.IsValid() {
			return f, nil
		}
	}
	return reflect.Value{}, runtimeErrorf("member %q not found on %s", name, s.Type())
}

// invoke resolves a method on receiver by exact name and calls it with
// args' evaluated, type-coerced values (spec.md §4.8: "Call resolves a
// method on the context by name and argument count and invokes it").
func (it *Interpreter) invoke(receiver reflect.Value, name string, args []*ir.Node, tc TickContext) (any, error) {
	addr := receiver
	if addr.Kind() != reflect.Pointer && addr.CanAddr() {
		addr = addr.Addr()
	}
	m := addr.MethodByName(name)
	if !m.IsValid() {
		return nil, runtimeErrorf("method %q not found on %s", name, receiver.Type())
	}
	mt := m.Type()
	if mt.NumIn() != len(args) {
		return nil, runtimeErrorf("method %q expects %d argument(s), got %d", name, mt.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		v, err := it.eval(a, tc)
		if err != nil {
			return nil, err
		}
		rv, err := coerceTo(v, mt.In(i))
		if err != nil {
			return nil, err
		}
		in[i] = rv
	}
	out := m.Call(in)
	if len(out) == 0 {
		return nil, nil
	}
	return normalizeScalar(out[0]), nil
}

// coerceTo converts an interpreter value to the exact reflect.Type a host
// parameter declares (e.g. our int64 literal into a Go `int` parameter).
func coerceTo(v any, target reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(target) {
		return rv.Convert(target), nil
	}
	return reflect.Value{}, runtimeErrorf("cannot pass %s as %s argument", rv.Type(), target)
}

var comparisonOps = map[string]bool{"<": true, ">": true, "<=": true, ">=": true}
var equalityOps = map[string]bool{"==": true, "!=": true}

func (it *Interpreter) evalBinary(n *ir.Node, tc TickContext) (any, error) {
	lv, err := it.eval(n.Operands[0], tc)
	if err != nil {
		return nil, err
	}
	rv, err := it.eval(n.Operands[1], tc)
	if err != nil {
		return nil, err
	}

	if equalityOps[n.Op] {
		eq := valuesEqual(lv, rv)
		if n.Op == "==" {
			return eq, nil
		}
		return !eq, nil
	}

	lf, lIsFloat, lok := asNumber(lv)
	rf, rIsFloat, rok := asNumber(rv)
	if !lok || !rok {
		return nil, runtimeErrorf("operator %q requires numeric operands, got %#v and %#v", n.Op, lv, rv)
	}
	useFloat := lIsFloat || rIsFloat

	if comparisonOps[n.Op] {
		return compareNumbers(n.Op, lf, rf)
	}

	result := arithmetic(n.Op, lf, rf)
	if useFloat {
		return result, nil
	}
	return int64(result), nil
}

func arithmetic(op string, l, r float64) float64 {
	switch op {
	case "+":
		return l + r
	case "-":
		return l - r
	case "*":
		return l * r
	case "/":
		return l / r
	case "%":
		return float64(int64(l) % int64(r))
	default:
		return 0
	}
}

func compareNumbers(op string, l, r float64) bool {
	switch op {
	case "<":
		return l < r
	case ">":
		return l > r
	case "<=":
		return l <= r
	case ">=":
		return l >= r
	default:
		return false
	}
}

func asNumber(v any) (f float64, isFloat, ok bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), false, true
	case float64:
		return n, true, true
	default:
		return 0, false, false
	}
}

func valuesEqual(l, r any) bool {
	lf, _, lok := asNumber(l)
	rf, _, rok := asNumber(r)
	if lok && rok {
		return lf == rf
	}
	return l == r
}

func (it *Interpreter) evalUnary(n *ir.Node, tc TickContext) (any, error) {
	v, err := it.eval(n.Operands[0], tc)
	if err != nil {
		return nil, err
	}
	if n.Op == "not" {
		b, ok := v.(bool)
		if !ok {
			return nil, runtimeErrorf("operator \"not\" requires a bool operand, got %#v", v)
		}
		return !b, nil
	}
	// Unary "-".
	f, isFloat, ok := asNumber(v)
	if !ok {
		return nil, runtimeErrorf("unary \"-\" requires a numeric operand, got %#v", v)
	}
	if isFloat {
		return -f, nil
	}
	return -int64(f), nil
}

// evalLogic implements and/or's n-ary short-circuit (spec.md §4.8).
func (it *Interpreter) evalLogic(n *ir.Node, tc TickContext) (any, error) {
	for _, operand := range n.Operands {
		v, err := it.eval(operand, tc)
		if err != nil {
			return nil, err
		}
		b, ok := v.(bool)
		if !ok {
			return nil, runtimeErrorf("operator %q requires bool operands, got %#v", n.Op, v)
		}
		if n.Op == "and" && !b {
			return false, nil
		}
		if n.Op == "or" && b {
			return true, nil
		}
	}
	return n.Op == "and", nil
}

// convertValue implements Convert's "standard numeric/string cast rules"
// (spec.md §4.8). The lowerer only ever targets Float today, but this
// handles the full closed primitive set so a host descriptor that emits
// other Convert targets is still served correctly.
func convertValue(v any, target types.CrispType) (any, error) {
	switch {
	case target.IsFloat():
		f, _, ok := asNumber(v)
		if !ok {
			return nil, runtimeErrorf("cannot convert %#v to Float", v)
		}
		return f, nil
	case target.IsInt():
		f, _, ok := asNumber(v)
		if !ok {
			return nil, runtimeErrorf("cannot convert %#v to Int", v)
		}
		return int64(f), nil
	case target.IsBool():
		b, ok := v.(bool)
		if !ok {
			return nil, runtimeErrorf("cannot convert %#v to Bool", v)
		}
		return b, nil
	default:
		return v, nil
	}
}
