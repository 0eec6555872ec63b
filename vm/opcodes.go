package vm

// OpCode represents a bytecode instruction
type OpCode byte

// Stack Operations
const (
	OP_PUSH     OpCode = iota // Push constant from pool [index:short]
	OP_NULL                   // Push null
	OP_POP                    // Discard top of stack
	OP_IMM_BASE               // Base for immediate small integers (-16 to 127)
)

// Immediate integer opcodes (-16 to 127)
const (
	OP_IMM_MIN   = -16
	OP_IMM_MAX   = 127
	OP_IMM_RANGE = OP_IMM_MAX - OP_IMM_MIN + 1
)

// Variable Operations
const (
	OP_GET_VAR OpCode = OP_IMM_BASE + OP_IMM_RANGE + iota // Push variable [var:short]
	OP_SET_VAR                                             // Store top in variable, keep it [var:short][type:byte]
)

// Integer Arithmetic
const (
	OP_IADD OpCode = OP_SET_VAR + 1 + iota // Pop b, a; push a + b
	OP_ISUB                                // Pop b, a; push a - b
	OP_IMUL                                // Pop b, a; push a * b
	OP_IREM                                // Pop b, a; push a % b
	OP_INEG                                // Pop a; push -a
)

// Decimal Arithmetic
const (
	OP_DADD OpCode = OP_INEG + 1 + iota // Pop b, a; push a + b
	OP_DSUB                             // Pop b, a; push a - b
	OP_DMUL                             // Pop b, a; push a * b
	OP_DDIV                             // Pop b, a; push a / b
	OP_DREM                             // Pop b, a; push a % b
	OP_DPOW                             // Pop b, a; push a ^ b
	OP_DNEG                             // Pop a; push -a
)

// Conversions
const (
	OP_TO_DEC  OpCode = OP_DNEG + 1 + iota // Widen top from Integer to Decimal
	OP_CONVERT                              // Coerce top to a type [type:byte]
)

// Comparison Operations
const (
	OP_EQ OpCode = OP_CONVERT + 1 + iota // Pop b, a; push a == b
	OP_NE                                // Pop b, a; push a != b
	OP_LT                                // Pop b, a; push a < b
	OP_LE                                // Pop b, a; push a <= b
	OP_GT                                // Pop b, a; push a > b
	OP_GE                                // Pop b, a; push a >= b
)

// Logical Operations
const (
	OP_NOT      OpCode = OP_GE + 1 + iota // Pop a; push !a
	OP_AND_JUMP                           // Jump keeping top if it is false [offset]
	OP_OR_JUMP                            // Jump keeping top if it is true [offset]
	OP_AND                                // Pop b, a; push a && b
	OP_OR                                 // Pop b, a; push a || b
)

// Control Flow
const (
	OP_JUMP          OpCode = OP_OR + 1 + iota // Unconditional forward jump [offset]
	OP_JUMP_IF_FALSE                           // Pop; jump unless true [offset]
	OP_RETURN                                  // Pop and return
)

// Calls and Arrays
const (
	OP_CALL       OpCode = OP_RETURN + 1 + iota // Pop args; push fn(args) [fn:short][argc:byte]
	OP_INDEX                                    // Pop index, array; push array[index]
	OP_MAKE_ARRAY                               // Pop count values; push array [type:byte][count:short]
)

// OpCodeNames maps opcodes to their string names for debugging
var OpCodeNames = map[OpCode]string{
	OP_PUSH:          "PUSH",
	OP_NULL:          "NULL",
	OP_POP:           "POP",
	OP_GET_VAR:       "GET_VAR",
	OP_SET_VAR:       "SET_VAR",
	OP_IADD:          "IADD",
	OP_ISUB:          "ISUB",
	OP_IMUL:          "IMUL",
	OP_IREM:          "IREM",
	OP_INEG:          "INEG",
	OP_DADD:          "DADD",
	OP_DSUB:          "DSUB",
	OP_DMUL:          "DMUL",
	OP_DDIV:          "DDIV",
	OP_DREM:          "DREM",
	OP_DPOW:          "DPOW",
	OP_DNEG:          "DNEG",
	OP_TO_DEC:        "TO_DEC",
	OP_CONVERT:       "CONVERT",
	OP_EQ:            "EQ",
	OP_NE:            "NE",
	OP_LT:            "LT",
	OP_LE:            "LE",
	OP_GT:            "GT",
	OP_GE:            "GE",
	OP_NOT:           "NOT",
	OP_AND_JUMP:      "AND_JUMP",
	OP_OR_JUMP:       "OR_JUMP",
	OP_AND:           "AND",
	OP_OR:            "OR",
	OP_JUMP:          "JUMP",
	OP_JUMP_IF_FALSE: "JUMP_IF_FALSE",
	OP_RETURN:        "RETURN",
	OP_CALL:          "CALL",
	OP_INDEX:         "INDEX",
	OP_MAKE_ARRAY:    "MAKE_ARRAY",
}

// String returns the opcode name
func (op OpCode) String() string {
	if name, ok := OpCodeNames[op]; ok {
		return name
	}
	if IsImmediateInt(op) {
		return "IMM"
	}
	return "UNKNOWN"
}

// IsImmediateInt reports whether op pushes a small integer
func IsImmediateInt(op OpCode) bool {
	return int(op) >= int(OP_IMM_BASE) && int(op) < int(OP_IMM_BASE)+OP_IMM_RANGE
}

// GetImmediateValue returns the integer pushed by an immediate opcode
func GetImmediateValue(op OpCode) int {
	return int(op) - int(OP_IMM_BASE) + OP_IMM_MIN
}

// ImmediateOp returns the opcode pushing v, if v is in immediate range
func ImmediateOp(v int64) (OpCode, bool) {
	if v < OP_IMM_MIN || v > OP_IMM_MAX {
		return 0, false
	}
	return OpCode(int(OP_IMM_BASE) + int(v) - OP_IMM_MIN), true
}

// operandWidth is the number of operand bytes following op
func operandWidth(op OpCode) int {
	switch op {
	case OP_PUSH, OP_GET_VAR, OP_AND_JUMP, OP_OR_JUMP, OP_JUMP, OP_JUMP_IF_FALSE:
		return 2
	case OP_SET_VAR, OP_CALL, OP_MAKE_ARRAY:
		return 3
	case OP_CONVERT:
		return 1
	}
	return 0
}
