package builtins

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"tally/types"
)

// ============================================================================
// STRING BUILTINS
// ============================================================================

func stringArg(args []types.Value, i int) string {
	return args[i].(types.StrValue).Val
}

// builtinLen returns the number of characters
// len(String) -> Integer
func builtinLen(args []types.Value) (types.Value, error) {
	return types.NewInt(int64(utf8.RuneCountInString(stringArg(args, 0)))), nil
}

// builtinConcat joins its arguments; null counts as empty
// concat(String...) -> String
func builtinConcat(args []types.Value) (types.Value, error) {
	var sb strings.Builder
	for _, a := range args {
		if a != nil {
			sb.WriteString(a.(types.StrValue).Val)
		}
	}
	return types.NewStr(sb.String()), nil
}

// upper(String) -> String
func builtinUpper(args []types.Value) (types.Value, error) {
	return types.NewStr(strings.ToUpper(stringArg(args, 0))), nil
}

// lower(String) -> String
func builtinLower(args []types.Value) (types.Value, error) {
	return types.NewStr(strings.ToLower(stringArg(args, 0))), nil
}

// trim(String) -> String
func builtinTrim(args []types.Value) (types.Value, error) {
	return types.NewStr(strings.TrimSpace(stringArg(args, 0))), nil
}

// builtinSubstr returns length characters from the 0-based start; the
// result is cut short at the end of the string
// substr(String, Integer, Integer) -> String
func builtinSubstr(args []types.Value) (types.Value, error) {
	runes := []rune(stringArg(args, 0))
	start := args[1].(types.IntValue).Val
	length := args[2].(types.IntValue).Val
	if start < 0 || start > int64(len(runes)) {
		return nil, fmt.Errorf("substr: %w: start %d, length %d", types.ErrIndexOutOfRange, start, len(runes))
	}
	if length < 0 {
		return nil, fmt.Errorf("substr: negative length %d", length)
	}
	end := start + length
	if end > int64(len(runes)) {
		end = int64(len(runes))
	}
	return types.NewStr(string(runes[start:end])), nil
}
