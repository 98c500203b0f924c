// Package sqlgate validates model-generated SQL before it is allowed
// anywhere near a database. It guarantees that whatever passes through is a
// single, read-only SELECT over the allow-listed analytics table with a
// bounded row count. Validation is a pure text transformation: for any input
// it either returns a sanitized statement or a *RejectionError with a
// specific reason, never an unclassified failure.
//
// The checks are regex-based on purpose. The admissible grammar is a flat,
// single-table SELECT, which plain text inspection covers; if the surface
// ever grows (more tables, subqueries) this package should be replaced with
// a real parser restricted to a SELECT-only AST.
package sqlgate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultRowCeiling caps how many rows a validated statement may return.
const DefaultRowCeiling = 200

// RejectionError reports why a candidate statement was refused. The reason
// is safe to surface verbatim to the admin UI; regenerating the query is
// always a valid recovery.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return "sql rejected: " + e.Reason
}

func reject(format string, args ...any) error {
	return &RejectionError{Reason: fmt.Sprintf(format, args...)}
}

var (
	fenceRe  = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*[ \\t]*\\r?\\n?(.*?)```\\s*$")
	selectRe = regexp.MustCompile(`(?i)^select\b`)

	// Mutation/DDL/procedural keywords. Defense in depth behind the
	// SELECT-prefix check: none of these may appear as a whole word.
	denyRe = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke|copy|execute|do)\b`)

	commentRe = regexp.MustCompile(`--|/\*`)

	// Every table reference is introduced by FROM or JOIN in the bounded
	// grammar; the captured token may be schema-qualified and/or quoted.
	tableRe = regexp.MustCompile("(?i)\\b(?:from|join)\\s+([A-Za-z0-9_.\"`]+)")

	limitRe = regexp.MustCompile(`(?i)\blimit\s+(\S+)`)
)

// Gate validates candidate SQL against a fixed single-table allow-list and
// row ceiling. The zero value is not usable; construct with New.
type Gate struct {
	allowedTables map[string]struct{}
	rowCeiling    int
}

// New builds a Gate that admits SELECTs over table (bare or schema-qualified
// with schema). A non-positive ceiling falls back to DefaultRowCeiling.
func New(schema, table string, rowCeiling int) *Gate {
	if rowCeiling <= 0 {
		rowCeiling = DefaultRowCeiling
	}
	table = strings.ToLower(table)
	schema = strings.ToLower(schema)
	return &Gate{
		allowedTables: map[string]struct{}{
			table:                {},
			schema + "." + table: {},
		},
		rowCeiling: rowCeiling,
	}
}

// Validate checks a candidate statement and returns the execution-safe form:
// the original text minus code fencing and trailing terminators, with its
// LIMIT clause clamped to the ceiling or appended when absent. Validating an
// already-sanitized statement returns it unchanged.
func (g *Gate) Validate(candidate string) (string, error) {
	body := strings.TrimSpace(candidate)

	// Models habitually wrap answers in a fenced code block; unwrap it
	// before any other rule looks at the text.
	if m := fenceRe.FindStringSubmatch(body); m != nil {
		body = strings.TrimSpace(m[1])
	}

	// At most one trailing terminator is tolerated.
	body = strings.TrimSpace(strings.TrimSuffix(body, ";"))

	if !selectRe.MatchString(body) {
		return "", reject("not a SELECT")
	}

	if strings.Contains(body, ";") {
		return "", reject("multiple statements")
	}

	if commentRe.MatchString(body) {
		return "", reject("comments not allowed")
	}

	if m := denyRe.FindString(body); m != "" {
		return "", reject("forbidden keyword: %s", strings.ToLower(m))
	}

	refs := tableRe.FindAllStringSubmatch(body, -1)
	if len(refs) == 0 {
		return "", reject("missing FROM clause")
	}
	for _, ref := range refs {
		name := normalizeTableName(ref[1])
		if _, ok := g.allowedTables[name]; !ok {
			return "", reject("table not allowed: %s", name)
		}
	}

	return g.enforceLimit(body)
}

// enforceLimit appends or clamps the LIMIT clause so the statement can never
// return more than the ceiling.
func (g *Gate) enforceLimit(body string) (string, error) {
	loc := limitRe.FindStringSubmatchIndex(body)
	if loc == nil {
		return fmt.Sprintf("%s LIMIT %d", body, g.rowCeiling), nil
	}

	raw := body[loc[2]:loc[3]]
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return "", reject("invalid LIMIT")
	}
	if n > g.rowCeiling {
		body = body[:loc[2]] + strconv.Itoa(g.rowCeiling) + body[loc[3]:]
	}
	return body, nil
}

func normalizeTableName(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '"', '`':
			return -1
		}
		return r
	}, raw)
	return strings.ToLower(strings.Trim(cleaned, "."))
}
