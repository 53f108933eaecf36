// Package regex provides the compiled pattern applied to every line of a
// filtered stream. A Regex is immutable after New and may be shared by any
// number of concurrent filters.
package regex

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// Regex for filtering lines.
type Regex struct {
	// The original regex string
	regexStr string
	// The Golang regexp object
	re   *regexp.Regexp
	flag Flag
	// Fields for optimized literal string matching
	isLiteral    bool
	literalStr   string
	literalBytes []byte
}

func (r Regex) String() string {
	return fmt.Sprintf("Regex(regexStr:%s,flag:%s,re==nil:%t,isLiteral:%t)",
		r.regexStr, r.flag, r.re == nil, r.isLiteral)
}

// isLiteralPattern checks if the pattern contains no regex metacharacters.
// It returns true only for patterns that can be matched using simple string contains.
func isLiteralPattern(pattern string) bool {
	metaChars := `.+*?^$[]{}()|\`
	for _, ch := range pattern {
		if strings.ContainsRune(metaChars, ch) {
			return false
		}
	}
	return true
}

// NewNoop is a noop regex (matching every line).
func NewNoop() Regex {
	return Regex{flag: Noop}
}

// New compiles regexStr. The empty pattern and ".*" match every line and are
// turned into a noop regex regardless of the flag, unless the flag inverts them.
func New(regexStr string, flag Flag) (Regex, error) {
	if flag == Noop || ((regexStr == "" || regexStr == ".*") && flag == Default) {
		return NewNoop(), nil
	}

	r := Regex{
		regexStr: regexStr,
		flag:     flag,
	}

	re, err := regexp.Compile(regexStr)
	if err != nil {
		return r, fmt.Errorf("unable to compile regex '%s': %w", regexStr, err)
	}
	r.re = re

	if isLiteralPattern(regexStr) {
		r.isLiteral = true
		r.literalStr = regexStr
		r.literalBytes = []byte(regexStr)
	}
	return r, nil
}

// MustNew is like New but panics on an invalid expression. Only for patterns
// known at compile time.
func MustNew(regexStr string, flag Flag) Regex {
	r, err := New(regexStr, flag)
	if err != nil {
		panic(err)
	}
	return r
}

// Match a byte string.
func (r Regex) Match(b []byte) bool {
	switch r.flag {
	case Noop:
		return true
	case Invert:
		return !r.match(b)
	default:
		return r.match(b)
	}
}

func (r Regex) match(b []byte) bool {
	if r.isLiteral {
		return bytes.Contains(b, r.literalBytes)
	}
	return r.re.Match(b)
}

// MatchString matches a string.
func (r Regex) MatchString(str string) bool {
	switch r.flag {
	case Noop:
		return true
	case Invert:
		return !r.matchString(str)
	default:
		return r.matchString(str)
	}
}

func (r Regex) matchString(str string) bool {
	if r.isLiteral {
		return strings.Contains(str, r.literalStr)
	}
	return r.re.MatchString(str)
}

// IsLiteral returns true if this regex is using literal string matching
func (r Regex) IsLiteral() bool {
	return r.isLiteral
}

// Flag returns the flag the regex was created with.
func (r Regex) Flag() Flag {
	return r.flag
}

// Pattern returns the original pattern string
func (r Regex) Pattern() string {
	return r.regexStr
}
