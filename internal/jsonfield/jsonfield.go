// Package jsonfield pulls single integer fields out of flat JSON responses
// by literal key search. It is deliberately not a JSON parser: upstream
// counter APIs return small, flat documents and the engine only ever needs
// one numeric field per response.
package jsonfield

import (
	"errors"
	"strings"
)

var (
	// ErrKeyNotFound means the literal key never occurs in the body.
	ErrKeyNotFound = errors.New("jsonfield: key not found")
	// ErrMalformedNumber means the key occurs but no decimal integer
	// follows it.
	ErrMalformedNumber = errors.New("jsonfield: no integer after key")
)

// ExtractInt64 finds the first occurrence of key in body and parses the
// decimal integer that follows it. The key is matched verbatim, including
// its own quoting and colon convention (e.g. `"stargazers_count":`).
// Whitespace and colons immediately after the match are skipped. Document
// structure, nesting and escape sequences are not considered.
func ExtractInt64(body, key string) (int64, error) {
	idx := strings.Index(body, key)
	if idx < 0 {
		return 0, ErrKeyNotFound
	}

	pos := idx + len(key)
	for pos < len(body) {
		switch body[pos] {
		case ' ', '\t', '\r', '\n', ':':
			pos++
			continue
		}
		break
	}

	neg := false
	if pos < len(body) && body[pos] == '-' {
		neg = true
		pos++
	}

	var (
		value  int64
		digits int
	)
	for pos < len(body) && body[pos] >= '0' && body[pos] <= '9' {
		value = value*10 + int64(body[pos]-'0')
		digits++
		pos++
	}
	if digits == 0 {
		return 0, ErrMalformedNumber
	}
	if neg {
		value = -value
	}
	return value, nil
}
