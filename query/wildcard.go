// Package query implements the filter specification applied to log events
// during IR stream decoding: an inclusive timestamp range with an early
// termination margin, plus an OR'd list of wildcard queries.
//
// Wildcard patterns support '*' (zero or more characters) and '?' (exactly
// one character); a backslash escapes either wildcard or itself. The glob
// matching itself is delegated to github.com/gobwas/glob; this package only
// canonicalizes patterns and translates them to glob syntax.
package query

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/gobwas/glob"
)

// WildcardKind selects how a pattern is anchored against the message.
type WildcardKind uint8

const (
	// KindSubstring matches any message containing the pattern; the pattern
	// is wrapped with leading and trailing '*' at construction time.
	KindSubstring WildcardKind = iota
	// KindFullString matches the pattern against the whole message; anchors
	// are expressed only through explicit wildcards in the pattern.
	KindFullString
)

// WildcardQuery is a single wildcard pattern plus its case-sensitivity flag.
// The stored pattern is canonical: shaping (substring wrapping) and escape
// normalization happen once at construction. The zero value matches only the
// empty message; construct instances through the New*WildcardQuery functions.
type WildcardQuery struct {
	pattern       string
	kind          WildcardKind
	caseSensitive bool
}

// NewSubstringWildcardQuery creates a substring-matching wildcard query.
// The pattern is wrapped in '*' and canonicalized.
func NewSubstringWildcardQuery(pattern string, caseSensitive bool) WildcardQuery {
	return WildcardQuery{
		pattern:       CanonicalizePattern("*" + pattern + "*"),
		kind:          KindSubstring,
		caseSensitive: caseSensitive,
	}
}

// NewFullStringWildcardQuery creates a full-string wildcard query from the
// canonicalized pattern.
func NewFullStringWildcardQuery(pattern string, caseSensitive bool) WildcardQuery {
	return WildcardQuery{
		pattern:       CanonicalizePattern(pattern),
		kind:          KindFullString,
		caseSensitive: caseSensitive,
	}
}

// Pattern returns the canonical pattern string.
func (w WildcardQuery) Pattern() string { return w.pattern }

// Kind returns the shaping variant the query was constructed with.
func (w WildcardQuery) Kind() WildcardKind { return w.kind }

// CaseSensitive reports whether matching is case-sensitive.
func (w WildcardQuery) CaseSensitive() bool { return w.caseSensitive }

// CanonicalizePattern normalizes a wildcard pattern:
//
//   - runs of unescaped '*' collapse to a single '*'
//   - '\' before '*', '?' or '\' is kept as an escape
//   - '\' before any other character is dropped, keeping the character
//   - a trailing lone '\' escapes nothing and is dropped
func CanonicalizePattern(pattern string) string {
	var sb strings.Builder
	sb.Grow(len(pattern))
	lastWasStar := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '\\' {
			if i+1 >= len(pattern) {
				break
			}
			next := pattern[i+1]
			if next == '*' || next == '?' || next == '\\' {
				sb.WriteByte('\\')
			}
			sb.WriteByte(next)
			i++
			lastWasStar = false

			continue
		}
		if c == '*' {
			if lastWasStar {
				continue
			}
			lastWasStar = true
		} else {
			lastWasStar = false
		}
		sb.WriteByte(c)
	}

	return sb.String()
}

// matcher compiles the query into a glob matcher, consulting the shared
// cache first.
func (w WildcardQuery) matcher() (glob.Glob, error) {
	return compileMatcher(w.pattern, w.caseSensitive)
}

// matches reports whether text matches the query.
func (w WildcardQuery) matches(text string) bool {
	g, err := w.matcher()
	if err != nil {
		return false
	}
	if !w.caseSensitive {
		text = strings.ToLower(text)
	}

	return g.Match(text)
}

type matcherEntry struct {
	pattern       string
	caseSensitive bool
	g             glob.Glob
}

// Compiled matchers are cached process-wide, keyed by an xxhash of the
// canonical pattern and the case flag. On the rare hash collision the cached
// entry is bypassed and the pattern compiled fresh.
var (
	matcherMu    sync.RWMutex
	matcherCache = make(map[uint64]matcherEntry)
)

func matcherKey(pattern string, caseSensitive bool) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(pattern)
	if caseSensitive {
		_, _ = d.Write([]byte{1})
	} else {
		_, _ = d.Write([]byte{0})
	}

	return d.Sum64()
}

func compileMatcher(pattern string, caseSensitive bool) (glob.Glob, error) {
	key := matcherKey(pattern, caseSensitive)

	matcherMu.RLock()
	entry, ok := matcherCache[key]
	matcherMu.RUnlock()
	if ok && entry.pattern == pattern && entry.caseSensitive == caseSensitive {
		return entry.g, nil
	}

	globPattern := toGlobSyntax(pattern)
	if !caseSensitive {
		globPattern = strings.ToLower(globPattern)
	}
	g, err := glob.Compile(globPattern)
	if err != nil {
		return nil, fmt.Errorf("compile wildcard pattern %q: %w", pattern, err)
	}

	if !ok {
		matcherMu.Lock()
		matcherCache[key] = matcherEntry{pattern: pattern, caseSensitive: caseSensitive, g: g}
		matcherMu.Unlock()
	}

	return g, nil
}

// toGlobSyntax escapes glob metacharacters that are not wildcards in our
// pattern language, so character classes and alternative groups cannot be
// smuggled in through log search patterns.
func toGlobSyntax(pattern string) string {
	var sb strings.Builder
	sb.Grow(len(pattern) + 4)
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '\\':
			sb.WriteByte('\\')
			if i+1 < len(pattern) {
				sb.WriteByte(pattern[i+1])
				i++
			}
		case '[', ']', '{', '}', ',':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}

	return sb.String()
}
