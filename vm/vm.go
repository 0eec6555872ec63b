// Package vm is the compiled backend. Compile lowers a checked tree into a
// Unit of bytecode; the VM runs a Unit against a symbol table with the same
// semantics as the tree-walking interpreter.
package vm

import (
	"errors"
	"fmt"

	"tally/symtab"
	"tally/types"
)

// DefaultMaxStack is the operand stack limit used when MaxStack is unset
const DefaultMaxStack = 1024

// ErrStackOverflow is returned when a unit needs more than MaxStack values
var ErrStackOverflow = errors.New("stack overflow")

// VM represents the bytecode virtual machine. A VM runs one unit at a time
// and may be reused.
type VM struct {
	Stack    []types.Value // Operand stack
	SP       int           // Stack pointer
	IP       int           // Instruction pointer
	MaxStack int           // Maximum stack depth (0 = DefaultMaxStack)

	unit *Unit
	st   symtab.SymbolTable
}

// NewVM creates a new virtual machine
func NewVM() *VM {
	return &VM{
		Stack:    make([]types.Value, 0, 32),
		MaxStack: DefaultMaxStack,
	}
}

// Run executes u against st and returns the value of its last statement.
// Every failure is an *types.Error; failures of the value operations are
// ERR_RUNTIME at the source position of the failing instruction.
func (vm *VM) Run(u *Unit, st symtab.SymbolTable) (result types.Value, err error) {
	vm.unit, vm.st = u, st
	vm.SP, vm.IP = 0, 0
	defer func() {
		// malformed code underflows the stack or reads past the end
		if r := recover(); r != nil {
			result, err = nil, vm.runtimeError(vm.IP, fmt.Errorf("malformed code: %v", r))
		}
		vm.unit, vm.st = nil, nil
	}()

	for {
		if vm.IP >= len(u.Code) {
			return nil, vm.runtimeError(vm.IP, errors.New("malformed code: missing RETURN"))
		}
		start := vm.IP
		op := OpCode(vm.ReadByte())
		if op == OP_RETURN {
			return vm.Pop(), nil
		}
		if err := vm.Execute(op); err != nil {
			return nil, vm.runtimeError(start, err)
		}
	}
}

func (vm *VM) runtimeError(ip int, err error) error {
	var te *types.Error
	if errors.As(err, &te) {
		return err
	}
	line, col := vm.unit.PositionForIP(ip)
	return types.WrapError(types.ERR_RUNTIME, line, col, err)
}

// Execute dispatches an opcode
func (vm *VM) Execute(op OpCode) error {
	// Check for immediate integer
	if IsImmediateInt(op) {
		return vm.Push(types.NewInt(int64(GetImmediateValue(op))))
	}

	switch op {
	// Stack operations
	case OP_PUSH:
		idx := vm.ReadShort()
		return vm.Push(vm.unit.Constants[idx])
	case OP_NULL:
		return vm.Push(nil)
	case OP_POP:
		vm.Pop()

	// Variable operations
	case OP_GET_VAR:
		idx := vm.ReadShort()
		v, err := vm.st.Get(vm.unit.VarNames[idx])
		if err != nil {
			return err
		}
		return vm.Push(v)
	case OP_SET_VAR:
		idx := vm.ReadShort()
		t := vm.unit.Types[vm.ReadByte()]
		return vm.st.Set(vm.unit.VarNames[idx], t, vm.Peek(0))

	// Arithmetic operations
	case OP_IADD:
		return vm.intBinary(types.IntAdd)
	case OP_ISUB:
		return vm.intBinary(types.IntSub)
	case OP_IMUL:
		return vm.intBinary(types.IntMul)
	case OP_IREM:
		return vm.intBinary(types.IntRem)
	case OP_INEG:
		return vm.executeIntNeg()
	case OP_DADD:
		return vm.decBinary(types.DecAdd)
	case OP_DSUB:
		return vm.decBinary(types.DecSub)
	case OP_DMUL:
		return vm.decBinary(types.DecMul)
	case OP_DDIV:
		return vm.decBinary(types.DecQuo)
	case OP_DREM:
		return vm.decBinary(types.DecRem)
	case OP_DPOW:
		return vm.decBinary(types.DecPow)
	case OP_DNEG:
		return vm.executeDecNeg()

	// Conversions
	case OP_TO_DEC:
		return vm.executeToDecimal()
	case OP_CONVERT:
		t := vm.unit.Types[vm.ReadByte()]
		v, err := types.Coerce(vm.Pop(), t)
		if err != nil {
			return err
		}
		return vm.Push(v)

	// Comparison operations
	case OP_EQ:
		return vm.compare(types.CMP_EQ)
	case OP_NE:
		return vm.compare(types.CMP_NE)
	case OP_LT:
		return vm.compare(types.CMP_LT)
	case OP_LE:
		return vm.compare(types.CMP_LE)
	case OP_GT:
		return vm.compare(types.CMP_GT)
	case OP_GE:
		return vm.compare(types.CMP_GE)

	// Logical operations
	case OP_NOT:
		v, err := types.Not(vm.Pop())
		if err != nil {
			return err
		}
		return vm.Push(v)
	case OP_AND_JUMP:
		offset := vm.ReadShort()
		if types.IsFalse(vm.Peek(0)) {
			vm.IP += int(offset)
		}
	case OP_OR_JUMP:
		offset := vm.ReadShort()
		if types.IsTrue(vm.Peek(0)) {
			vm.IP += int(offset)
		}
	case OP_AND:
		return vm.logical(types.And)
	case OP_OR:
		return vm.logical(types.Or)

	// Control flow
	case OP_JUMP:
		offset := vm.ReadShort()
		vm.IP += int(offset)
	case OP_JUMP_IF_FALSE:
		offset := vm.ReadShort()
		if !types.IsTrue(vm.Pop()) {
			vm.IP += int(offset)
		}

	// Calls and arrays
	case OP_CALL:
		return vm.executeCall()
	case OP_INDEX:
		idx := vm.Pop()
		coll := vm.Pop()
		v, err := types.Index(coll, idx)
		if err != nil {
			return err
		}
		return vm.Push(v)
	case OP_MAKE_ARRAY:
		t := vm.unit.Types[vm.ReadByte()]
		count := vm.ReadShort()
		arr, err := types.NewArray(t, vm.PopN(int(count)))
		if err != nil {
			return err
		}
		return vm.Push(arr)

	default:
		return fmt.Errorf("malformed code: unknown opcode %d at %s", byte(op), opAt(vm.unit.Code, vm.IP-1))
	}
	return nil
}

// ============================================================================
// OPERATIONS
// ============================================================================

func (vm *VM) intBinary(f func(a, b int64) (int64, error)) error {
	b := vm.Pop()
	a := vm.Pop()
	if a == nil || b == nil {
		return vm.Push(nil)
	}
	x, ok1 := a.(types.IntValue)
	y, ok2 := b.(types.IntValue)
	if !ok1 || !ok2 {
		return fmt.Errorf("%w: integer operation on %s and %s", types.ErrType, a.Type(), b.Type())
	}
	r, err := f(x.Val, y.Val)
	if err != nil {
		return err
	}
	return vm.Push(types.NewInt(r))
}

func (vm *VM) executeIntNeg() error {
	a := vm.Pop()
	if a == nil {
		return vm.Push(nil)
	}
	x, ok := a.(types.IntValue)
	if !ok {
		return fmt.Errorf("%w: integer negation of %s", types.ErrType, a.Type())
	}
	r, err := types.IntNeg(x.Val)
	if err != nil {
		return err
	}
	return vm.Push(types.NewInt(r))
}

func (vm *VM) decBinary(f func(x, y types.DecimalValue) (types.DecimalValue, error)) error {
	b := vm.Pop()
	a := vm.Pop()
	if a == nil || b == nil {
		return vm.Push(nil)
	}
	x, ok1 := a.(types.DecimalValue)
	y, ok2 := b.(types.DecimalValue)
	if !ok1 || !ok2 {
		return fmt.Errorf("%w: decimal operation on %s and %s", types.ErrType, a.Type(), b.Type())
	}
	r, err := f(x, y)
	if err != nil {
		return err
	}
	return vm.Push(r)
}

func (vm *VM) executeDecNeg() error {
	a := vm.Pop()
	if a == nil {
		return vm.Push(nil)
	}
	x, ok := a.(types.DecimalValue)
	if !ok {
		return fmt.Errorf("%w: decimal negation of %s", types.ErrType, a.Type())
	}
	return vm.Push(types.DecNeg(x))
}

func (vm *VM) executeToDecimal() error {
	a := vm.Pop()
	if a == nil {
		return vm.Push(nil)
	}
	d, err := types.ToDecimal(a)
	if err != nil {
		return err
	}
	return vm.Push(d)
}

func (vm *VM) compare(op types.CompareOp) error {
	b := vm.Pop()
	a := vm.Pop()
	v, err := types.Compare(op, a, b)
	if err != nil {
		return err
	}
	return vm.Push(v)
}

func (vm *VM) logical(f func(a, b types.Value) (types.Value, error)) error {
	b := vm.Pop()
	a := vm.Pop()
	v, err := f(a, b)
	if err != nil {
		return err
	}
	return vm.Push(v)
}

func (vm *VM) executeCall() error {
	idx := vm.ReadShort()
	argc := vm.ReadByte()
	name := vm.unit.FuncNames[idx]
	args := vm.PopN(int(argc))
	fn, ok := vm.st.Function(name)
	if !ok {
		return fmt.Errorf("unknown function %s", name)
	}
	v, err := symtab.Invoke(fn, args)
	if err != nil {
		return err
	}
	return vm.Push(v)
}

// ============================================================================
// STACK
// ============================================================================

// Push pushes a value onto the stack
func (vm *VM) Push(v types.Value) error {
	limit := vm.MaxStack
	if limit <= 0 {
		limit = DefaultMaxStack
	}
	if vm.SP >= limit {
		return fmt.Errorf("%w: more than %d values", ErrStackOverflow, limit)
	}
	if vm.SP >= len(vm.Stack) {
		vm.Stack = append(vm.Stack, v)
	} else {
		vm.Stack[vm.SP] = v
	}
	vm.SP++
	return nil
}

// Pop pops a value from the stack
func (vm *VM) Pop() types.Value {
	if vm.SP == 0 {
		panic("stack underflow")
	}
	vm.SP--
	v := vm.Stack[vm.SP]
	vm.Stack[vm.SP] = nil
	return v
}

// Peek peeks at a value on the stack (0 = top)
func (vm *VM) Peek(offset int) types.Value {
	if vm.SP-1-offset < 0 {
		panic("stack underflow")
	}
	return vm.Stack[vm.SP-1-offset]
}

// PopN pops N values from the stack, oldest first
func (vm *VM) PopN(n int) []types.Value {
	if vm.SP < n {
		panic("stack underflow")
	}
	values := make([]types.Value, n)
	for i := n - 1; i >= 0; i-- {
		values[i] = vm.Pop()
	}
	return values
}

// ReadByte reads a byte from the instruction stream
func (vm *VM) ReadByte() byte {
	b := vm.unit.Code[vm.IP]
	vm.IP++
	return b
}

// ReadShort reads a 2-byte short from the instruction stream
func (vm *VM) ReadShort() uint16 {
	hi := vm.unit.Code[vm.IP]
	lo := vm.unit.Code[vm.IP+1]
	vm.IP += 2
	return uint16(hi)<<8 | uint16(lo)
}
