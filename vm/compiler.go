package vm

import (
	"fmt"
	"math"

	"tally/parser"
	"tally/types"
)

// Compiler lowers a checked tree to bytecode. Each Visit method emits the
// code leaving one value on the stack and returns the static type of that
// value; nil is the type of the null literal.
type Compiler struct {
	unit      *Unit
	constants map[string]int      // Constant deduplication (type + value text -> index)
	variables map[string]int      // Variable name -> index mapping
	functions map[string]int      // Function name -> index mapping
	typeIndex map[*types.Type]int // Type -> index mapping
	lastPos   parser.Position     // Last recorded position for LineInfo deduplication
}

// NewCompiler creates a new compiler
func NewCompiler() *Compiler {
	return &Compiler{
		unit: &Unit{
			Code:      make([]byte, 0, 64),
			Constants: make([]types.Value, 0, 8),
			VarNames:  make([]string, 0, 8),
			LineInfo:  make([]LineEntry, 0, 16),
		},
		constants: make(map[string]int),
		variables: make(map[string]int),
		functions: make(map[string]int),
		typeIndex: make(map[*types.Type]int),
	}
}

// Compile lowers a checked program to a Unit
func Compile(prog *parser.Program) (*Unit, error) {
	return NewCompiler().Compile(prog)
}

// Compile lowers prog. Shapes the instruction set cannot express are
// reported as ERR_TRANSLATION instead of being compiled approximately.
func (c *Compiler) Compile(prog *parser.Program) (*Unit, error) {
	if prog == nil {
		return nil, parser.UnknownNode(nil)
	}
	if _, err := parser.Walk[*types.Type](c, prog); err != nil {
		return nil, err
	}
	c.unit.Result = prog.Type()
	return c.unit, nil
}

// ============================================================================
// EMIT HELPERS
// ============================================================================

// emit adds an opcode to the bytecode
func (c *Compiler) emit(op OpCode) int {
	pos := len(c.unit.Code)
	c.unit.Code = append(c.unit.Code, byte(op))
	return pos
}

// emitByte adds a byte to the bytecode
func (c *Compiler) emitByte(b byte) {
	c.unit.Code = append(c.unit.Code, b)
}

// emitShort adds a 2-byte short to the bytecode (big-endian)
func (c *Compiler) emitShort(s uint16) {
	c.unit.Code = append(c.unit.Code, byte(s>>8), byte(s))
}

// emitConstant pushes v, using an immediate opcode for small integers
func (c *Compiler) emitConstant(n parser.Node, v types.Value) error {
	if v == nil {
		c.emit(OP_NULL)
		return nil
	}
	if i, ok := v.(types.IntValue); ok {
		if op, ok := ImmediateOp(i.Val); ok {
			c.emit(op)
			return nil
		}
	}
	idx, err := c.addConstant(n, v)
	if err != nil {
		return err
	}
	c.emit(OP_PUSH)
	c.emitShort(uint16(idx))
	return nil
}

// addConstant adds a value to the constant pool (with deduplication)
func (c *Compiler) addConstant(n parser.Node, v types.Value) (int, error) {
	key := v.Type().String() + ":" + v.String()
	if idx, ok := c.constants[key]; ok {
		return idx, nil
	}
	idx := len(c.unit.Constants)
	if idx > math.MaxUint16 {
		return 0, translationError(n, "more than %d constants", math.MaxUint16+1)
	}
	c.unit.Constants = append(c.unit.Constants, v)
	c.constants[key] = idx
	return idx, nil
}

func (c *Compiler) variable(n parser.Node, name string) (uint16, error) {
	return c.intern(n, c.variables, &c.unit.VarNames, name)
}

func (c *Compiler) function(n parser.Node, name string) (uint16, error) {
	return c.intern(n, c.functions, &c.unit.FuncNames, name)
}

func (c *Compiler) intern(n parser.Node, index map[string]int, names *[]string, name string) (uint16, error) {
	if idx, ok := index[name]; ok {
		return uint16(idx), nil
	}
	idx := len(*names)
	if idx > math.MaxUint16 {
		return 0, translationError(n, "more than %d names", math.MaxUint16+1)
	}
	*names = append(*names, name)
	index[name] = idx
	return uint16(idx), nil
}

// typeOperand returns the type table index of t
func (c *Compiler) typeOperand(n parser.Node, t *types.Type) (byte, error) {
	if idx, ok := c.typeIndex[t]; ok {
		return byte(idx), nil
	}
	idx := len(c.unit.Types)
	if idx > math.MaxUint8 {
		return 0, translationError(n, "more than %d types", math.MaxUint8+1)
	}
	c.unit.Types = append(c.unit.Types, t)
	c.typeIndex[t] = idx
	return byte(idx), nil
}

// emitJump emits a jump instruction and returns the offset to patch
func (c *Compiler) emitJump(op OpCode) int {
	c.emit(op)
	c.emitShort(0xFFFF) // Placeholder offset
	return len(c.unit.Code) - 2
}

// patchJump patches a jump instruction to jump to current location
func (c *Compiler) patchJump(n parser.Node, offset int) error {
	jump := len(c.unit.Code) - offset - 2
	if jump > math.MaxUint16 {
		return translationError(n, "jump of %d bytes does not fit in 16 bits", jump)
	}
	c.unit.Code[offset] = byte(jump >> 8)
	c.unit.Code[offset+1] = byte(jump)
	return nil
}

// trackPos records the position of node for the instructions emitted next.
// Runtime errors are reported at the position covering the failing IP.
func (c *Compiler) trackPos(node parser.Node) {
	pos := node.Position()
	if pos == c.lastPos {
		return
	}
	c.unit.LineInfo = append(c.unit.LineInfo, LineEntry{
		StartIP: len(c.unit.Code),
		Line:    pos.Line,
		Column:  pos.Column,
	})
	c.lastPos = pos
}

func translationError(n parser.Node, format string, args ...interface{}) error {
	pos := n.Position()
	return types.Errorf(types.ERR_TRANSLATION, pos.Line, pos.Column, format, args...)
}

// typed returns the checked type of an expression node
func typed(n parser.Expr) (*types.Type, error) {
	t := n.Type()
	if t == nil {
		return nil, translationError(n, "untyped %T", n)
	}
	return t, nil
}

func (c *Compiler) compile(n parser.Expr) (*types.Type, error) {
	return parser.Walk[*types.Type](c, n)
}

// emitConvert converts the top of stack from type from to type to
func (c *Compiler) emitConvert(n parser.Node, from, to *types.Type) error {
	if from == nil || to == nil || from == to {
		return nil
	}
	if from == types.Integer && to == types.Decimal {
		c.emit(OP_TO_DEC)
		return nil
	}
	if !types.Assignable(to, from) {
		return translationError(n, "cannot convert %s to %s", from, to)
	}
	idx, err := c.typeOperand(n, to)
	if err != nil {
		return err
	}
	c.trackPos(n)
	c.emit(OP_CONVERT)
	c.emitByte(idx)
	return nil
}

// ============================================================================
// NODES
// ============================================================================

func (c *Compiler) VisitProgram(n *parser.Program) (*types.Type, error) {
	if len(n.Statements) == 0 {
		c.emit(OP_NULL)
	}
	var last *types.Type
	for i, stmt := range n.Statements {
		t, err := c.compile(stmt)
		if err != nil {
			return nil, err
		}
		if i < len(n.Statements)-1 {
			c.emit(OP_POP)
		}
		last = t
	}
	if err := c.emitConvert(n, last, n.Type()); err != nil {
		return nil, err
	}
	c.emit(OP_RETURN)
	return n.Type(), nil
}

// VisitLiteral converts the value to the node's type at compile time
func (c *Compiler) VisitLiteral(n *parser.LiteralExpr) (*types.Type, error) {
	if n.Value == nil {
		c.emit(OP_NULL)
		return nil, nil
	}
	t, err := typed(n)
	if err != nil {
		return nil, err
	}
	v, err := types.Coerce(n.Value, t)
	if err != nil {
		return nil, translationError(n, "%v", err)
	}
	return t, c.emitConstant(n, v)
}

func (c *Compiler) VisitIdentifier(n *parser.IdentifierExpr) (*types.Type, error) {
	t, err := typed(n)
	if err != nil {
		return nil, err
	}
	idx, err := c.variable(n, n.Name)
	if err != nil {
		return nil, err
	}
	c.trackPos(n)
	c.emit(OP_GET_VAR)
	c.emitShort(idx)
	return t, nil
}

func (c *Compiler) VisitUnary(n *parser.UnaryExpr) (*types.Type, error) {
	t, err := typed(n)
	if err != nil {
		return nil, err
	}
	operand, err := c.compile(n.Operand)
	if err != nil {
		return nil, err
	}
	var op OpCode
	switch {
	case n.Operator == parser.TOKEN_NOT:
		op = OP_NOT
	case n.Operator == parser.TOKEN_MINUS && t == types.Integer:
		op = OP_INEG
	case n.Operator == parser.TOKEN_MINUS && t == types.Decimal:
		if err := c.emitConvert(n, operand, t); err != nil {
			return nil, err
		}
		op = OP_DNEG
	default:
		return nil, translationError(n, "no instruction for %s on %s", n.Operator.Symbol(), t)
	}
	c.trackPos(n)
	c.emit(op)
	return t, nil
}

var (
	integerOps = map[types.ArithOp]OpCode{
		types.ARITH_ADD: OP_IADD,
		types.ARITH_SUB: OP_ISUB,
		types.ARITH_MUL: OP_IMUL,
		types.ARITH_REM: OP_IREM,
	}
	decimalOps = map[types.ArithOp]OpCode{
		types.ARITH_ADD: OP_DADD,
		types.ARITH_SUB: OP_DSUB,
		types.ARITH_MUL: OP_DMUL,
		types.ARITH_DIV: OP_DDIV,
		types.ARITH_REM: OP_DREM,
		types.ARITH_POW: OP_DPOW,
	}
	compareOps = map[types.CompareOp]OpCode{
		types.CMP_EQ: OP_EQ,
		types.CMP_NE: OP_NE,
		types.CMP_LT: OP_LT,
		types.CMP_LE: OP_LE,
		types.CMP_GT: OP_GT,
		types.CMP_GE: OP_GE,
	}
)

func (c *Compiler) VisitBinary(n *parser.BinaryExpr) (*types.Type, error) {
	t, err := typed(n)
	if err != nil {
		return nil, err
	}
	if n.Operator.IsLogical() {
		return t, c.compileLogical(n)
	}
	if a, ok := n.Operator.Arith(); ok {
		return t, c.compileArith(n, a, t)
	}
	cmp, ok := n.Operator.Compare()
	if !ok {
		return nil, translationError(n, "no instruction for operator %s", n.Operator.Symbol())
	}
	if _, err := c.compile(n.Left); err != nil {
		return nil, err
	}
	if _, err := c.compile(n.Right); err != nil {
		return nil, err
	}
	c.trackPos(n)
	c.emit(compareOps[cmp])
	return t, nil
}

// compileArith picks the integer or decimal instruction from the checked
// type of the node and widens Integer operands of a decimal operation
func (c *Compiler) compileArith(n *parser.BinaryExpr, a types.ArithOp, t *types.Type) error {
	var (
		op OpCode
		ok bool
	)
	switch t {
	case types.Integer:
		op, ok = integerOps[a]
	case types.Decimal:
		op, ok = decimalOps[a]
	}
	if !ok {
		return translationError(n, "no instruction for %s on %s", a, t)
	}
	for _, operand := range []parser.Expr{n.Left, n.Right} {
		ot, err := c.compile(operand)
		if err != nil {
			return err
		}
		if ot != nil && ot != types.Integer && ot != types.Decimal {
			return translationError(operand, "%s operand of %s", ot, a)
		}
		if t == types.Integer && ot == types.Decimal {
			return translationError(operand, "Decimal operand of an Integer %s", a)
		}
		if err := c.emitConvert(operand, ot, t); err != nil {
			return err
		}
	}
	c.trackPos(n)
	c.emit(op)
	return nil
}

// compileLogical leaves the left operand and skips the right one when it
// decides the result: false && x, true || x
func (c *Compiler) compileLogical(n *parser.BinaryExpr) error {
	jumpOp, combine := OP_AND_JUMP, OP_AND
	if n.Operator == parser.TOKEN_OR {
		jumpOp, combine = OP_OR_JUMP, OP_OR
	}
	if _, err := c.compile(n.Left); err != nil {
		return err
	}
	skip := c.emitJump(jumpOp)
	if _, err := c.compile(n.Right); err != nil {
		return err
	}
	c.trackPos(n)
	c.emit(combine)
	return c.patchJump(n, skip)
}

// VisitTernary takes the else branch for a false or null condition
func (c *Compiler) VisitTernary(n *parser.TernaryExpr) (*types.Type, error) {
	t, err := typed(n)
	if err != nil {
		return nil, err
	}
	if _, err := c.compile(n.Condition); err != nil {
		return nil, err
	}
	elseJump := c.emitJump(OP_JUMP_IF_FALSE)
	then, err := c.compile(n.ThenExpr)
	if err != nil {
		return nil, err
	}
	if err := c.emitConvert(n.ThenExpr, then, t); err != nil {
		return nil, err
	}
	endJump := c.emitJump(OP_JUMP)
	if err := c.patchJump(n, elseJump); err != nil {
		return nil, err
	}
	els, err := c.compile(n.ElseExpr)
	if err != nil {
		return nil, err
	}
	if err := c.emitConvert(n.ElseExpr, els, t); err != nil {
		return nil, err
	}
	return t, c.patchJump(n, endJump)
}

func (c *Compiler) VisitAssign(n *parser.AssignExpr) (*types.Type, error) {
	t, err := typed(n)
	if err != nil {
		return nil, err
	}
	vt, err := c.compile(n.Value)
	if err != nil {
		return nil, err
	}
	if err := c.emitConvert(n, vt, t); err != nil {
		return nil, err
	}
	idx, err := c.variable(n, n.Name)
	if err != nil {
		return nil, err
	}
	ti, err := c.typeOperand(n, t)
	if err != nil {
		return nil, err
	}
	c.trackPos(n)
	c.emit(OP_SET_VAR)
	c.emitShort(idx)
	c.emitByte(ti)
	return t, nil
}

// VisitCall pushes the arguments as they are; the call converts them to
// the parameter types
func (c *Compiler) VisitCall(n *parser.CallExpr) (*types.Type, error) {
	t, err := typed(n)
	if err != nil {
		return nil, err
	}
	if len(n.Args) > math.MaxUint8 {
		return nil, translationError(n, "%s called with %d arguments", n.Name, len(n.Args))
	}
	for _, arg := range n.Args {
		if _, err := c.compile(arg); err != nil {
			return nil, err
		}
	}
	idx, err := c.function(n, n.Name)
	if err != nil {
		return nil, err
	}
	c.trackPos(n)
	c.emit(OP_CALL)
	c.emitShort(idx)
	c.emitByte(byte(len(n.Args)))
	return t, nil
}

// VisitIndex reports failures at the index expression
func (c *Compiler) VisitIndex(n *parser.IndexExpr) (*types.Type, error) {
	t, err := typed(n)
	if err != nil {
		return nil, err
	}
	if _, err := c.compile(n.Expr); err != nil {
		return nil, err
	}
	if _, err := c.compile(n.Index); err != nil {
		return nil, err
	}
	c.trackPos(n.Index)
	c.emit(OP_INDEX)
	return t, nil
}

func (c *Compiler) VisitArray(n *parser.ArrayExpr) (*types.Type, error) {
	t, err := typed(n)
	if err != nil {
		return nil, err
	}
	if !t.IsArray() {
		return nil, translationError(n, "array literal has type %s", t)
	}
	if len(n.Elements) > math.MaxUint16 {
		return nil, translationError(n, "array literal with %d elements", len(n.Elements))
	}
	for _, e := range n.Elements {
		et, err := c.compile(e)
		if err != nil {
			return nil, err
		}
		if err := c.emitConvert(e, et, t.Elem()); err != nil {
			return nil, err
		}
	}
	ti, err := c.typeOperand(n, t)
	if err != nil {
		return nil, err
	}
	c.trackPos(n)
	c.emit(OP_MAKE_ARRAY)
	c.emitByte(ti)
	c.emitShort(uint16(len(n.Elements)))
	return t, nil
}

func (c *Compiler) VisitCast(n *parser.CastExpr) (*types.Type, error) {
	t, err := typed(n)
	if err != nil {
		return nil, err
	}
	inner, err := c.compile(n.Expr)
	if err != nil {
		return nil, err
	}
	if err := c.emitConvert(n, inner, t); err != nil {
		return nil, err
	}
	return t, nil
}

// opAt names the opcode at ip, for error messages
func opAt(code []byte, ip int) string {
	if ip < 0 || ip >= len(code) {
		return fmt.Sprintf("ip %d", ip)
	}
	return OpCode(code[ip]).String()
}
