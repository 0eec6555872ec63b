package builtins

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/ripemd160"

	"tally/types"
)

// ============================================================================
// HASHING BUILTINS
// ============================================================================

// getHasher returns a hash.Hash for the given algorithm name
func getHasher(algo string) (hash.Hash, bool) {
	switch strings.ToLower(algo) {
	case "md5":
		return md5.New(), true
	case "sha1":
		return sha1.New(), true
	case "sha256":
		return sha256.New(), true
	case "sha512":
		return sha512.New(), true
	case "ripemd160", "":
		return ripemd160.New(), true
	default:
		return nil, false
	}
}

// builtinHash returns the lowercase hex digest of a string
// hash(String [, algorithm]) -> String
func builtinHash(args []types.Value) (types.Value, error) {
	if len(args) > 2 {
		return nil, fmt.Errorf("hash: too many arguments (%d)", len(args))
	}
	algo := ""
	if len(args) == 2 {
		algo = stringArg(args, 1)
	}
	h, ok := getHasher(algo)
	if !ok {
		return nil, fmt.Errorf("hash: unknown algorithm %q", algo)
	}
	h.Write([]byte(stringArg(args, 0)))
	return types.NewStr(hex.EncodeToString(h.Sum(nil))), nil
}
