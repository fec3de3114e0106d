// Package secure arbitrates every agent-initiated database access. The
// validator is the single choke point: the gateway executes nothing that
// has not passed Validate.
package secure

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Kind classifies a request as read or write. The kind pins the verb set
// a request may use, independent of what its SQL text claims.
type Kind int

const (
	KindRead Kind = iota
	KindWrite
)

// Request is a proposed data-access operation.
type Request struct {
	Kind Kind
	SQL  string
}

// DenialError is returned when a request violates the access policy. The
// reason is safe to surface verbatim to the model as a tool result.
type DenialError struct {
	Reason string
}

func (e *DenialError) Error() string { return e.Reason }

func deny(format string, args ...interface{}) error {
	return &DenialError{Reason: fmt.Sprintf(format, args...)}
}

// forbiddenKeywords are operations the agent may never perform, in any
// position of the statement.
var forbiddenKeywords = []string{
	"DELETE", "DROP", "TRUNCATE", "ALTER", "EXEC", "EXECUTE",
	"GRANT", "REVOKE", "CREATE", "REPLACE", "ATTACH", "DETACH",
	"PRAGMA",
}

// readTables and writeTables are the fixed relation allow-lists.
var (
	readTables  = map[string]bool{"projects": true, "leads": true, "bookings": true}
	writeTables = map[string]bool{"leads": true, "bookings": true}
)

// blockedTables are never agent-accessible under any verb. The history and
// checkpoint tables are managed by the conversation layer only.
var blockedTables = map[string]bool{"history": true, "conversations": true, "checkpoints": true}

var (
	tablePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bFROM\s+(\w+)`),
		regexp.MustCompile(`\bJOIN\s+(\w+)`),
		regexp.MustCompile(`\bINTO\s+(\w+)`),
		regexp.MustCompile(`\bUPDATE\s+(\w+)`),
	}
	keywordPatterns = compileKeywordPatterns()
)

func compileKeywordPatterns() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(forbiddenKeywords)+2)
	for _, kw := range append(append([]string{}, forbiddenKeywords...), "SELECT", "WITH") {
		m[kw] = regexp.MustCompile(`\b` + kw + `\b`)
	}
	return m
}

// Validate checks a request against the access policy and returns the
// tables it touches. Pure and deterministic; no I/O.
func Validate(req Request) ([]string, error) {
	sql := strings.TrimSpace(req.SQL)
	if sql == "" {
		return nil, deny("empty query provided")
	}

	// Comment markers are structural injection vectors; reject rather
	// than strip so the executed text is exactly the inspected text.
	if strings.Contains(sql, "--") || strings.Contains(sql, "/*") || strings.Contains(sql, "*/") {
		return nil, deny("query contains SQL comment markers, which are not allowed")
	}

	normalized := strings.ToUpper(strings.Join(strings.Fields(sql), " "))
	normalized = strings.TrimSuffix(normalized, ";")
	if strings.Contains(normalized, ";") {
		return nil, deny("multiple statements are not allowed; provide a single query")
	}

	for _, kw := range forbiddenKeywords {
		if keywordPatterns[kw].MatchString(normalized) {
			return nil, deny("forbidden operation %q detected; only SELECT, INSERT and UPDATE are allowed", kw)
		}
	}

	verb := firstWord(normalized)
	switch req.Kind {
	case KindRead:
		if verb != "SELECT" {
			return nil, deny("operation %q not allowed for read queries; only SELECT is permitted", verb)
		}
	case KindWrite:
		for _, kw := range []string{"SELECT", "WITH"} {
			if keywordPatterns[kw].MatchString(normalized) {
				return nil, deny("read operation %q detected in a write query; only INSERT and UPDATE are allowed", kw)
			}
		}
		if verb != "INSERT" && verb != "UPDATE" {
			return nil, deny("operation %q not allowed for write queries; only INSERT and UPDATE are permitted", verb)
		}
	default:
		return nil, deny("unknown request kind")
	}

	tables := extractTables(normalized)
	if len(tables) == 0 {
		return nil, deny("no table found in query; specify a target table")
	}

	for _, table := range tables {
		if blockedTables[table] {
			return nil, deny("access to table %q is forbidden", table)
		}
	}

	allowed := readTables
	if req.Kind == KindWrite {
		allowed = writeTables
	}
	for _, table := range tables {
		if !allowed[table] {
			return nil, deny("unauthorized table %q; allowed tables: %s", table, allowedList(allowed))
		}
	}

	return tables, nil
}

// Verb returns the leading operation of an already-validated request.
func Verb(req Request) string {
	return firstWord(strings.ToUpper(strings.Join(strings.Fields(req.SQL), " ")))
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}

func extractTables(normalized string) []string {
	seen := map[string]bool{}
	var tables []string
	for _, pat := range tablePatterns {
		for _, m := range pat.FindAllStringSubmatch(normalized, -1) {
			name := strings.ToLower(m[1])
			if !seen[name] {
				seen[name] = true
				tables = append(tables, name)
			}
		}
	}
	sort.Strings(tables)
	return tables
}

func allowedList(allowed map[string]bool) string {
	names := make([]string, 0, len(allowed))
	for name := range allowed {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
