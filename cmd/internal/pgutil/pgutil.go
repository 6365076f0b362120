// Package pgutil holds small helpers shared by the Postgres-backed stores.
package pgutil

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

var identRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidSchema trims and validates a schema name, substituting fallback for
// the empty string. Returns an error for anything that is not a plain
// unquoted identifier.
func ValidSchema(schema, fallback string) (string, error) {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = fallback
	}
	if !identRE.MatchString(schema) {
		return "", errors.New("pgutil: invalid schema identifier")
	}
	return schema, nil
}

// Ident returns a safely quoted schema-qualified identifier.
func Ident(schema, table string) string {
	// pgx.Identifier safely quotes identifiers, preventing SQL injection.
	return pgx.Identifier{schema, table}.Sanitize()
}
