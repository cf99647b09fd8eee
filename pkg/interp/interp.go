// Package interp implements Crisp's interpreter (C10, spec.md §4.8): a
// tick-driven evaluator over IR, holding the stateful Timeout/Cooldown
// tables a behavior tree needs across ticks.
package interp

import (
	"reflect"

	"github.com/kr/pretty"
	"github.com/pkg/errors"

	"github.com/crisp-lang/crisp/pkg/ast"
	"github.com/crisp-lang/crisp/pkg/ir"
)

// BtStatus is the interpreter's runtime status (spec.md §3: "Runtime
// status. BtStatus ∈ {Success, Failure, Running}").
type BtStatus int

const (
	Success BtStatus = iota
	Failure
	Running
)

func (s BtStatus) String() string {
	switch s {
	case Success:
		return "Success"
	case Failure:
		return "Failure"
	case Running:
		return "Running"
	default:
		return "Unknown"
	}
}

// TickContext carries per-tick timing (spec.md §3, §6.4: "deltaTime: f32
// and a frame index"). Extra embedding-specific fields are the caller's to
// add via a wrapping struct; the interpreter only reads DeltaTime/FrameIndex.
type TickContext struct {
	DeltaTime  float32
	FrameIndex uint64
}

// Tickable lets a context method return a sub-behavior-tree node directly
// instead of a host BtStatus value (spec.md §4.8: "the result ... is
// further required to be BtStatus (or another tickable node)"). A host
// return value satisfying this interface is ticked in place of being
// coerced to BtStatus.
type Tickable interface {
	Tick(tc TickContext) (BtStatus, error)
}

// RuntimeError reports a tick-aborting failure (spec.md §7.3): a missing
// member, a missing method, a blackboard access with none configured, or an
// action call whose return value can't be read as BtStatus.
type RuntimeError struct {
	cause error
}

func (e *RuntimeError) Error() string { return e.cause.Error() }
func (e *RuntimeError) Unwrap() error { return e.cause }

func runtimeErrorf(format string, args ...any) error {
	return &RuntimeError{cause: errors.Errorf(format, args...)}
}

// Interpreter evaluates IR against one host context object (and optionally
// a blackboard object), per spec.md §4.8.
type Interpreter struct {
	ctx        reflect.Value
	blackboard reflect.Value
	hasBB      bool
	trees      map[string]*ir.Node

	timeouts  map[*ir.Node]float64
	cooldowns map[*ir.Node]float64

	trace bool
}

// SetTrace toggles per-tick pretty-printing of the node being evaluated,
// the same "if debug { pretty.Println(node) }" idiom used for the compile-time
// parse tree. Off by default; meant for interactive debugging, not production
// ticking.
func (it *Interpreter) SetTrace(trace bool) {
	it.trace = trace
}

// NewInterpreter constructs an interpreter over ctx (and optional
// blackboard), with trees as the tree-name -> IR registry `ref`/TreeRef
// resolve against (spec.md §9's registry resolution of the `ref` open
// question — a file's Query Store-produced IR for every tree is handed to
// one interpreter instance so trees can reference each other).
func NewInterpreter(ctx any, blackboard any, trees map[string]*ir.Node) *Interpreter {
	it := &Interpreter{
		ctx:       reflect.ValueOf(ctx),
		trees:     trees,
		timeouts:  map[*ir.Node]float64{},
		cooldowns: map[*ir.Node]float64{},
	}
	if blackboard != nil {
		it.blackboard = reflect.ValueOf(blackboard)
		it.hasBB = true
	}
	return it
}

// Reset clears every stateful decorator table (spec.md §4.8: "reset()
// clears all tables").
func (it *Interpreter) Reset() {
	it.timeouts = map[*ir.Node]float64{}
	it.cooldowns = map[*ir.Node]float64{}
}

// Tick evaluates one IR node (or tree) for one frame.
func (it *Interpreter) Tick(node *ir.Node, tc TickContext) (BtStatus, error) {
	return it.tick(node, tc)
}

func (it *Interpreter) tick(n *ir.Node, tc TickContext) (BtStatus, error) {
	if n == nil {
		return Failure, runtimeErrorf("tick: nil IR node")
	}
	if it.trace {
		_, _ = pretty.Println(n)
	}
	switch n.Kind {
	case ir.Tree:
		return it.tickTree(n, tc)
	case ir.Selector:
		return it.tickSelector(n, tc)
	case ir.Sequence:
		return it.tickSequence(n, tc)
	case ir.Parallel:
		return it.tickParallel(n, tc)
	case ir.Condition:
		return it.tickCondition(n, tc)
	case ir.Action:
		return it.tickAction(n, tc)
	case ir.Guard:
		return it.tickGuard(n, tc)
	case ir.If:
		return it.tickIf(n, tc)
	case ir.Invert:
		return it.tickInvert(n, tc)
	case ir.Repeat:
		return it.tickRepeat(n, tc)
	case ir.Timeout:
		return it.tickTimeout(n, tc)
	case ir.Cooldown:
		return it.tickCooldown(n, tc)
	case ir.While:
		return it.tickWhile(n, tc)
	case ir.Reactive:
		return it.tickReactive(n, tc)
	case ir.ReactiveSelect:
		return it.tickReactiveSelect(n, tc)
	case ir.TreeRef:
		return it.tickRef(n, tc)
	default:
		return Failure, runtimeErrorf("tick: %v is not a tickable IR node kind", n.Kind)
	}
}

// tickTree ticks each body child in order, returning the last child's
// status; an empty body is vacuously Success (spec.md §4.8).
func (it *Interpreter) tickTree(n *ir.Node, tc TickContext) (BtStatus, error) {
	status := Success
	for _, c := range n.Children {
		s, err := it.tick(c, tc)
		if err != nil {
			return Failure, err
		}
		status = s
	}
	return status, nil
}

func (it *Interpreter) tickSelector(n *ir.Node, tc TickContext) (BtStatus, error) {
	for _, c := range n.Children {
		s, err := it.tick(c, tc)
		if err != nil {
			return Failure, err
		}
		if s != Failure {
			return s, nil
		}
	}
	return Failure, nil
}

func (it *Interpreter) tickSequence(n *ir.Node, tc TickContext) (BtStatus, error) {
	for _, c := range n.Children {
		s, err := it.tick(c, tc)
		if err != nil {
			return Failure, err
		}
		if s != Success {
			return s, nil
		}
	}
	return Success, nil
}

func (it *Interpreter) tickParallel(n *ir.Node, tc TickContext) (BtStatus, error) {
	var succeeded, failed, running int
	for _, c := range n.Children {
		s, err := it.tick(c, tc)
		if err != nil {
			return Failure, err
		}
		switch s {
		case Success:
			succeeded++
		case Failure:
			failed++
		case Running:
			running++
		}
	}
	total := len(n.Children)
	switch n.Policy.Kind {
	case ast.PolicyAny:
		if succeeded > 0 {
			return Success, nil
		}
		if running > 0 {
			return Running, nil
		}
		return Failure, nil
	case ast.PolicyAll:
		if failed > 0 {
			return Failure, nil
		}
		if running > 0 {
			return Running, nil
		}
		return Success, nil
	default: // ast.PolicyN
		need := n.Policy.N
		if succeeded >= need {
			return Success, nil
		}
		if failed > total-need {
			return Failure, nil
		}
		return Running, nil
	}
}

func (it *Interpreter) tickCondition(n *ir.Node, tc TickContext) (BtStatus, error) {
	v, err := it.eval(n.Cond, tc)
	if err != nil {
		return Failure, err
	}
	b, ok := v.(bool)
	if !ok {
		return Failure, runtimeErrorf("check condition evaluated to non-bool %#v", v)
	}
	if b {
		return Success, nil
	}
	return Failure, nil
}

func (it *Interpreter) tickAction(n *ir.Node, tc TickContext) (BtStatus, error) {
	v, err := it.invoke(it.ctx, n.Method.Name, n.Args, tc)
	if err != nil {
		return Failure, err
	}
	return it.asBtStatus(v, tc)
}

func (it *Interpreter) tickGuard(n *ir.Node, tc TickContext) (BtStatus, error) {
	v, err := it.eval(n.Cond, tc)
	if err != nil {
		return Failure, err
	}
	b, ok := v.(bool)
	if !ok {
		return Failure, runtimeErrorf("guard condition evaluated to non-bool %#v", v)
	}
	if !b {
		return Failure, nil
	}
	return it.tick(n.Body, tc)
}

func (it *Interpreter) tickIf(n *ir.Node, tc TickContext) (BtStatus, error) {
	v, err := it.eval(n.Cond, tc)
	if err != nil {
		return Failure, err
	}
	b, ok := v.(bool)
	if !ok {
		return Failure, runtimeErrorf("if condition evaluated to non-bool %#v", v)
	}
	if b {
		return it.tick(n.Then, tc)
	}
	if n.Else != nil {
		return it.tick(n.Else, tc)
	}
	return Failure, nil
}

func (it *Interpreter) tickInvert(n *ir.Node, tc TickContext) (BtStatus, error) {
	s, err := it.tick(n.Body, tc)
	if err != nil {
		return Failure, err
	}
	switch s {
	case Success:
		return Failure, nil
	case Failure:
		return Success, nil
	default:
		return Running, nil
	}
}

func (it *Interpreter) tickRepeat(n *ir.Node, tc TickContext) (BtStatus, error) {
	for i := 0; i < n.Count; i++ {
		s, err := it.tick(n.Body, tc)
		if err != nil {
			return Failure, err
		}
		if s != Success {
			return s, nil
		}
	}
	return Success, nil
}

// tickTimeout accumulates deltaTime while the child is Running, keyed by IR
// node identity; reaching or exceeding the duration clears the state and
// forces Failure (spec.md §4.8).
func (it *Interpreter) tickTimeout(n *ir.Node, tc TickContext) (BtStatus, error) {
	seconds, err := it.evalSeconds(n, tc)
	if err != nil {
		return Failure, err
	}
	elapsed := it.timeouts[n] + float64(tc.DeltaTime)
	if elapsed >= seconds {
		delete(it.timeouts, n)
		return Failure, nil
	}
	s, err := it.tick(n.Body, tc)
	if err != nil {
		delete(it.timeouts, n)
		return Failure, err
	}
	if s == Running {
		it.timeouts[n] = elapsed
	} else {
		delete(it.timeouts, n)
	}
	return s, nil
}

// tickCooldown blocks the child with Failure while its timer is counting
// down; a child Success resets the timer to the full duration (spec.md
// §4.8).
func (it *Interpreter) tickCooldown(n *ir.Node, tc TickContext) (BtStatus, error) {
	if remaining, ok := it.cooldowns[n]; ok && remaining > 0 {
		remaining -= float64(tc.DeltaTime)
		if remaining > 0 {
			it.cooldowns[n] = remaining
			return Failure, nil
		}
		delete(it.cooldowns, n)
	}
	s, err := it.tick(n.Body, tc)
	if err != nil {
		return Failure, err
	}
	if s == Success {
		seconds, err := it.evalSeconds(n, tc)
		if err != nil {
			return Failure, err
		}
		it.cooldowns[n] = seconds
	}
	return s, nil
}

func (it *Interpreter) evalSeconds(n *ir.Node, tc TickContext) (float64, error) {
	v, err := it.eval(n.Seconds, tc)
	if err != nil {
		return 0, err
	}
	var seconds float64
	switch d := v.(type) {
	case int64:
		seconds = float64(d)
	case float64:
		seconds = d
	default:
		return 0, runtimeErrorf("timeout/cooldown duration evaluated to non-numeric %#v", v)
	}
	if seconds <= 0 {
		return 0, runtimeErrorf("timeout/cooldown duration must be positive, got %v", seconds)
	}
	return seconds, nil
}

func (it *Interpreter) tickWhile(n *ir.Node, tc TickContext) (BtStatus, error) {
	v, err := it.eval(n.Cond, tc)
	if err != nil {
		return Failure, err
	}
	b, ok := v.(bool)
	if !ok {
		return Failure, runtimeErrorf("while condition evaluated to non-bool %#v", v)
	}
	if !b {
		return Success, nil
	}
	return it.tick(n.Body, tc)
}

// tickReactive re-checks its condition every tick; a condition going false
// clears the body's own Running-state instead of just returning Failure,
// since the body may itself be a Timeout/Cooldown holding state keyed by its
// own node identity.
func (it *Interpreter) tickReactive(n *ir.Node, tc TickContext) (BtStatus, error) {
	v, err := it.eval(n.Cond, tc)
	if err != nil {
		return Failure, err
	}
	b, ok := v.(bool)
	if !ok {
		return Failure, runtimeErrorf("reactive condition evaluated to non-bool %#v", v)
	}
	if !b {
		it.clearState(n.Body)
		return Failure, nil
	}
	return it.tick(n.Body, tc)
}

func (it *Interpreter) tickReactiveSelect(n *ir.Node, tc TickContext) (BtStatus, error) {
	return it.tickSelector(n, tc)
}

func (it *Interpreter) tickRef(n *ir.Node, tc TickContext) (BtStatus, error) {
	target, ok := it.trees[n.TreeName]
	if !ok {
		return Failure, runtimeErrorf("ref: tree %q not found in registry", n.TreeName)
	}
	return it.tick(target, tc)
}

// clearState drops any Timeout/Cooldown state rooted anywhere under n, so a
// Reactive whose condition just went false doesn't leave a stale
// accumulator for the next time its condition turns true.
func (it *Interpreter) clearState(n *ir.Node) {
	if n == nil {
		return
	}
	delete(it.timeouts, n)
	delete(it.cooldowns, n)
	if n.Body != nil {
		it.clearState(n.Body)
	}
	if n.Cond != nil {
		it.clearState(n.Cond)
	}
	if n.Then != nil {
		it.clearState(n.Then)
	}
	if n.Else != nil {
		it.clearState(n.Else)
	}
	for _, c := range n.Children {
		it.clearState(c)
	}
}

// asBtStatus coerces an action call's return value to BtStatus (spec.md
// §4.8: "required to be BtStatus (or another tickable node) for Action").
func (it *Interpreter) asBtStatus(v any, tc TickContext) (BtStatus, error) {
	if tk, ok := v.(Tickable); ok {
		return tk.Tick(tc)
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return statusFromOrdinal(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return statusFromOrdinal(int64(rv.Uint()))
	default:
		return Failure, runtimeErrorf("action return value %#v is not a BtStatus", v)
	}
}

func statusFromOrdinal(ord int64) (BtStatus, error) {
	switch ord {
	case int64(Success), int64(Failure), int64(Running):
		return BtStatus(ord), nil
	default:
		return Failure, runtimeErrorf("action return value %d is out of BtStatus range", ord)
	}
}
