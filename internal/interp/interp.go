package interp

import (
	"fmt"
	"io"

	"github.com/stircomp/stirc/internal/lower"
)

// Interp is one running instance of a Prog (spec.md §4.8's "State").
type Interp struct {
	Prog *lower.Prog
	Out  io.Writer

	Heap [][]Cell
	L    map[string]Cell
	SL   []map[string]Cell
	Q    []lower.Statement
	SQ   [][]lower.Statement
	F    []string

	ReturnValue *Cell
	Steps       int
}

// New creates an interpreter over prog. Heap index 0 is reserved
// (spec.md §3.5) so it starts as a nil (never-allocated) entry.
func New(prog *lower.Prog, out io.Writer) *Interp {
	return NewWithCapacity(prog, out, 0)
}

// NewWithCapacity is New but preallocates heap capacity up front
// (config.HeapConfig.InitialSlots), so a run sized by a config file
// doesn't pay for repeated slice growth during warm-up allocations.
func NewWithCapacity(prog *lower.Prog, out io.Writer, initialSlots int) *Interp {
	heap := make([][]Cell, 1, initialSlots+1)
	heap[0] = nil
	return &Interp{
		Prog: prog,
		Out:  out,
		Heap: heap,
		L:    map[string]Cell{},
	}
}

// Start sets up a fresh top-level invocation of fid without running it,
// so a host (the REPL's :step/:mem/:ret commands) can drive execution one
// step at a time. Call is Start followed by RunUntilDone.
func (ip *Interp) Start(fid string, args ...Cell) {
	def := ip.Prog.ByID(fid)
	if def == nil {
		panic(fmt.Sprintf("interp: no such function %q", fid))
	}
	ip.L = make(map[string]Cell, len(def.Params))
	for i, p := range def.Params {
		ip.L[p] = args[i]
	}
	ip.Q = append([]lower.Statement(nil), def.Body...)
	ip.SQ = nil
	ip.SL = nil
	ip.F = []string{fid}
	ip.ReturnValue = nil
	ip.Steps = 0
}

// Call starts a fresh top-level invocation of fid and runs it to
// completion, returning its result.
func (ip *Interp) Call(fid string, args ...Cell) Cell {
	ip.Start(fid, args...)
	ip.RunUntilDone()
	if ip.ReturnValue == nil {
		panic("interp: function returned without setting a return value")
	}
	return *ip.ReturnValue
}

// Step executes the front of Q, if any. Returns false when Q is empty at
// the outermost frame — the interpreter's halting condition.
func (ip *Interp) Step() bool {
	if len(ip.Q) == 0 {
		return false
	}
	stmt := ip.Q[0]
	ip.Q = ip.Q[1:]
	ip.exec(stmt)
	ip.Steps++
	return true
}

// RunUntilDone steps until Q is empty at the outermost frame.
func (ip *Interp) RunUntilDone() {
	for ip.Step() {
	}
}

// RunUntilReturn steps until the call-stack depth drops below its value
// on entry (spec.md §4.8).
func (ip *Interp) RunUntilReturn() {
	entry := len(ip.F)
	for len(ip.F) >= entry {
		if !ip.Step() {
			return
		}
	}
}

// RunUntilNextMem steps until the next pending statement is one that
// touches the heap (Inc, Dec, AssignMalloc, AssignToField), without
// executing that statement — giving a host a chance to inspect state
// right before the mutation happens.
func (ip *Interp) RunUntilNextMem() {
	for len(ip.Q) > 0 && !isMemStatement(ip.Q[0]) {
		if !ip.Step() {
			return
		}
	}
}

func isMemStatement(s lower.Statement) bool {
	switch s.(type) {
	case *lower.Inc, *lower.Dec, *lower.AssignMalloc, *lower.AssignToField:
		return true
	default:
		return false
	}
}

func (ip *Interp) exec(stmt lower.Statement) {
	switch s := stmt.(type) {
	case *lower.Assign:
		ip.L[s.Name] = ip.eval(s.Value)

	case *lower.AssignMalloc:
		ip.L[s.Name] = ip.malloc(s.FieldCount)

	case *lower.AssignToField:
		p := ip.L[s.Name].Ptr
		ip.Heap[p][s.Index] = ip.eval(s.Value)

	case *lower.AssignFromField:
		p := ip.eval(s.Value).Ptr
		ip.L[s.Name] = ip.Heap[p][s.Index]

	case *lower.AssignBinaryOperation:
		ip.L[s.Name] = ip.binop(s.Op, ip.eval(s.Left).Val, ip.eval(s.Right).Val)

	case *lower.AssignTagCheck:
		ip.L[s.Name] = ip.tagCheck(s)

	case *lower.AssignFunctionCall:
		ip.execCall(s)

	case *lower.AssignReturnValue:
		if ip.ReturnValue == nil {
			panic("interp: AssignReturnValue with no pending return value")
		}
		ip.L[s.Name] = *ip.ReturnValue
		ip.ReturnValue = nil

	case *lower.AssignDropReuse:
		ip.dropReuse(s)

	case *lower.IfElse:
		ip.execIfElse(s)

	case *lower.Return:
		ip.execReturn(s)

	case *lower.Print:
		fmt.Fprintln(ip.Out, ip.eval(s.Value).Val)

	case *lower.Inc:
		ip.inc(s.Name)

	case *lower.Dec:
		ip.dec(s.Name)
		ip.trimHeapTail()

	default:
		panic(fmt.Sprintf("interp: unrecognized statement %T", s))
	}
}

func (ip *Interp) eval(op lower.Operand) Cell {
	switch o := op.(type) {
	case *lower.Ident:
		return ip.L[o.Name]
	case *lower.Int:
		return Value(int64(o.Value))
	case *lower.NonShifted:
		return Value(int64(o.Value))
	case *lower.Negate:
		return boolCell(ip.L[o.Name].IsNullPointer())
	default:
		panic(fmt.Sprintf("interp: unrecognized operand %T", op))
	}
}

func (ip *Interp) binop(op string, l, r int64) Cell {
	switch op {
	case "+":
		return Value(l + r)
	case "-":
		return Value(l - r)
	case "*":
		return Value(l * r)
	case "/":
		return Value(l / r)
	case "%":
		return Value(l % r)
	case ">":
		return boolCell(l > r)
	case "<":
		return boolCell(l < r)
	case ">=":
		return boolCell(l >= r)
	case "<=":
		return boolCell(l <= r)
	case "==":
		return boolCell(l == r)
	case "!=":
		return boolCell(l != r)
	default:
		panic(fmt.Sprintf("interp: unrecognized operator %q", op))
	}
}

func (ip *Interp) tagCheck(s *lower.AssignTagCheck) Cell {
	val := ip.eval(s.Value)
	tag := int64(s.TagShifted >> 1)
	if s.IsHeaped {
		return boolCell(val.IsLivePointer() && ip.Heap[val.Ptr][0].Val == tag)
	}
	return boolCell(val.Kind == KindValue && val.Val == tag)
}

func (ip *Interp) execCall(s *lower.AssignFunctionCall) {
	args := make([]Cell, len(s.Args))
	for i, a := range s.Args {
		args[i] = ip.eval(a)
	}
	def := ip.Prog.ByID(s.Fid)
	if def == nil {
		panic(fmt.Sprintf("interp: no such function %q", s.Fid))
	}
	ip.SQ = append(ip.SQ, ip.Q)
	ip.SL = append(ip.SL, ip.L)
	ip.F = append(ip.F, s.Fid)

	newL := make(map[string]Cell, len(def.Params))
	for i, p := range def.Params {
		newL[p] = args[i]
	}
	ip.L = newL
	ip.Q = append([]lower.Statement(nil), def.Body...)
}

func (ip *Interp) execReturn(s *lower.Return) {
	v := ip.eval(s.Value)
	ip.ReturnValue = &v
	if len(ip.SQ) > 0 {
		ip.Q = ip.SQ[len(ip.SQ)-1]
		ip.SQ = ip.SQ[:len(ip.SQ)-1]
		ip.L = ip.SL[len(ip.SL)-1]
		ip.SL = ip.SL[:len(ip.SL)-1]
	} else {
		ip.Q = nil
	}
	if len(ip.F) > 0 {
		ip.F = ip.F[:len(ip.F)-1]
	}
}

func (ip *Interp) execIfElse(s *lower.IfElse) {
	for _, br := range s.Branches {
		if ip.eval(br.Cond).Val == 1 {
			ip.Q = append(append([]lower.Statement(nil), br.Then...), ip.Q...)
			return
		}
	}
}

func (ip *Interp) dropReuse(s *lower.AssignDropReuse) {
	p := ip.L[s.Source].Ptr
	block := ip.Heap[p]
	if block[2].Val == 1 {
		for _, f := range block[3:] {
			ip.decCell(f)
		}
		ip.L[s.Name] = Pointer(p)
	} else {
		block[2].Val--
		ip.L[s.Name] = Pointer(0)
	}
	ip.trimHeapTail()
}

// malloc allocates a block for fieldCount fields plus the three header
// cells (tag, arity, refcount) that precede them.
func (ip *Interp) malloc(fieldCount int) Cell {
	size := fieldCount + 3
	for i := 1; i < len(ip.Heap); i++ {
		if len(ip.Heap[i]) == 0 {
			ip.Heap[i] = freshBlock(size)
			return Pointer(i)
		}
	}
	ip.Heap = append(ip.Heap, freshBlock(size))
	return Pointer(len(ip.Heap) - 1)
}

func freshBlock(fieldCount int) []Cell {
	block := make([]Cell, fieldCount)
	for i := range block {
		block[i] = Value(0)
	}
	return block
}

func (ip *Interp) inc(name string) {
	c := ip.L[name]
	if c.IsLivePointer() {
		ip.Heap[c.Ptr][2].Val++
	}
}

func (ip *Interp) dec(name string) {
	ip.decCell(ip.L[name])
}

// decCell decrements p's refcount, freeing it and recursively decrementing
// its pointer fields once the count reaches zero (spec.md §4.8).
func (ip *Interp) decCell(c Cell) {
	if !c.IsLivePointer() {
		return
	}
	p := c.Ptr
	ip.Heap[p][2].Val--
	if ip.Heap[p][2].Val <= 0 {
		for _, f := range ip.Heap[p][3:] {
			ip.decCell(f)
		}
		ip.Heap[p] = nil
	}
}

func (ip *Interp) trimHeapTail() {
	for len(ip.Heap) > 1 && len(ip.Heap[len(ip.Heap)-1]) == 0 {
		ip.Heap = ip.Heap[:len(ip.Heap)-1]
	}
}

// Snapshot captures enough state to resume execution later (spec.md
// §4.8/§5's checkpoint-and-restore contract). The three host-visible
// fields are Locals, Heap, and CallStack; the rest exist only so Restore
// can fully reinstate control flow.
type Snapshot struct {
	Locals    map[string]Cell
	Heap      [][]Cell
	CallStack []string

	localStack  []map[string]Cell
	pending     []lower.Statement
	pendingRest [][]lower.Statement
	returnValue *Cell
	steps       int
}

// Snapshot takes a deep-enough copy of the interpreter's current state.
func (ip *Interp) Snapshot() Snapshot {
	heap := make([][]Cell, len(ip.Heap))
	for i, block := range ip.Heap {
		heap[i] = append([]Cell(nil), block...)
	}
	locals := make(map[string]Cell, len(ip.L))
	for k, v := range ip.L {
		locals[k] = v
	}
	localStack := make([]map[string]Cell, len(ip.SL))
	for i, frame := range ip.SL {
		f := make(map[string]Cell, len(frame))
		for k, v := range frame {
			f[k] = v
		}
		localStack[i] = f
	}
	var rv *Cell
	if ip.ReturnValue != nil {
		v := *ip.ReturnValue
		rv = &v
	}
	return Snapshot{
		Locals:      locals,
		Heap:        heap,
		CallStack:   append([]string(nil), ip.F...),
		localStack:  localStack,
		pending:     append([]lower.Statement(nil), ip.Q...),
		pendingRest: append([][]lower.Statement(nil), ip.SQ...),
		returnValue: rv,
		steps:       ip.Steps,
	}
}

// Restore reinstates a prior Snapshot, provided no external mutation of
// the interpreter's state occurred in between (spec.md §5).
func (ip *Interp) Restore(snap Snapshot) {
	ip.Heap = make([][]Cell, len(snap.Heap))
	for i, block := range snap.Heap {
		ip.Heap[i] = append([]Cell(nil), block...)
	}
	ip.L = make(map[string]Cell, len(snap.Locals))
	for k, v := range snap.Locals {
		ip.L[k] = v
	}
	ip.SL = make([]map[string]Cell, len(snap.localStack))
	for i, frame := range snap.localStack {
		f := make(map[string]Cell, len(frame))
		for k, v := range frame {
			f[k] = v
		}
		ip.SL[i] = f
	}
	ip.F = append([]string(nil), snap.CallStack...)
	ip.Q = append([]lower.Statement(nil), snap.pending...)
	ip.SQ = append([][]lower.Statement(nil), snap.pendingRest...)
	if snap.returnValue != nil {
		v := *snap.returnValue
		ip.ReturnValue = &v
	} else {
		ip.ReturnValue = nil
	}
	ip.Steps = snap.steps
}
