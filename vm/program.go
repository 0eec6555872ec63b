package vm

import (
	"fmt"
	"strings"

	"tally/symtab"
	"tally/types"
)

// Unit is a compiled program. It holds no reference to the tree it was
// compiled from and may be run any number of times, against any table
// that declares the variables it reads.
type Unit struct {
	Code      []byte        // Bytecode instructions
	Constants []types.Value // Constant pool
	VarNames  []string      // Variable name table
	FuncNames []string      // Host function name table
	Types     []*types.Type // Type table for conversions, stores and arrays
	LineInfo  []LineEntry   // Source position mapping
	Result    *types.Type   // Checked type of the program
}

// LineEntry maps a bytecode IP to the source position of the node that
// produced the instructions starting there
type LineEntry struct {
	StartIP int // First IP for this position
	Line    int // Source line number
	Column  int // Source column number
}

// PositionForIP returns the source position for a given IP
func (u *Unit) PositionForIP(ip int) (line, column int) {
	for i := len(u.LineInfo) - 1; i >= 0; i-- {
		if u.LineInfo[i].StartIP <= ip {
			return u.LineInfo[i].Line, u.LineInfo[i].Column
		}
	}
	return 0, 0
}

// Compute runs the unit against st with the default VM settings
func (u *Unit) Compute(st symtab.SymbolTable) (types.Value, error) {
	return NewVM().Run(u, st)
}

// Disassemble renders the code one instruction per line
func (u *Unit) Disassemble() string {
	var sb strings.Builder
	for ip := 0; ip < len(u.Code); {
		op := OpCode(u.Code[ip])
		line, col := u.PositionForIP(ip)
		fmt.Fprintf(&sb, "%04d %4d:%-3d %-14s", ip, line, col, op)
		width := operandWidth(op)
		if ip+width >= len(u.Code) && width > 0 {
			sb.WriteString(" <truncated>\n")
			break
		}
		operands := u.Code[ip+1 : ip+1+width]
		switch op {
		case OP_PUSH:
			idx := short(operands)
			fmt.Fprintf(&sb, " %d (%s)", idx, types.Format(u.constant(idx)))
		case OP_GET_VAR:
			idx := short(operands)
			fmt.Fprintf(&sb, " %d (%s)", idx, u.name(u.VarNames, idx))
		case OP_SET_VAR:
			idx := short(operands)
			fmt.Fprintf(&sb, " %d (%s) %s", idx, u.name(u.VarNames, idx), u.typ(int(operands[2])))
		case OP_CONVERT:
			fmt.Fprintf(&sb, " %s", u.typ(int(operands[0])))
		case OP_JUMP, OP_JUMP_IF_FALSE, OP_AND_JUMP, OP_OR_JUMP:
			fmt.Fprintf(&sb, " -> %04d", ip+3+short(operands))
		case OP_CALL:
			idx := short(operands)
			fmt.Fprintf(&sb, " %s/%d", u.name(u.FuncNames, idx), operands[2])
		case OP_MAKE_ARRAY:
			fmt.Fprintf(&sb, " %s %d", u.typ(int(operands[0])), short(operands[1:]))
		default:
			if IsImmediateInt(op) {
				fmt.Fprintf(&sb, " %d", GetImmediateValue(op))
			}
		}
		sb.WriteByte('\n')
		ip += 1 + width
	}
	return sb.String()
}

func short(b []byte) int {
	return int(b[0])<<8 | int(b[1])
}

func (u *Unit) constant(i int) types.Value {
	if i < len(u.Constants) {
		return u.Constants[i]
	}
	return nil
}

func (u *Unit) name(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return "?"
}

func (u *Unit) typ(i int) string {
	if i < len(u.Types) {
		return u.Types[i].String()
	}
	return "?"
}
