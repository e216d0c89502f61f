// Package idgen builds the human-readable identifiers printed on labels and
// draws their sequence numbers from an atomic per-prefix counter.
package idgen

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"
)

type Counter struct {
	db *sql.DB
}

func New(db *sql.DB) *Counter {
	return &Counter{db: db}
}

// Next returns the next sequence value for prefix, starting at 1.
func (c *Counter) Next(ctx context.Context, prefix string) (int64, error) {
	query := `
		INSERT INTO id_counters (prefix, value)
		VALUES ($1, 1)
		ON CONFLICT (prefix) DO UPDATE SET value = id_counters.value + 1
		RETURNING value
	`

	var value int64
	if err := c.db.QueryRowContext(ctx, query, prefix).Scan(&value); err != nil {
		return 0, fmt.Errorf("incrementing counter %s: %w", prefix, err)
	}

	return value, nil
}

// Code normalizes a category/type code to upper-case alphanumerics.
func Code(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}

		return -1
	}, s)
}

func MaterialPrefix(categoryCode, typeCode string) string {
	return Code(categoryCode) + "-" + Code(typeCode)
}

func MaterialID(categoryCode, typeCode string, seq int64) string {
	return fmt.Sprintf("%s-%05d", MaterialPrefix(categoryCode, typeCode), seq)
}

func MachinePrefix(typeCode string) string {
	return "MC-" + Code(typeCode)
}

func MachineID(typeCode string, seq int64) string {
	return fmt.Sprintf("%s-%05d", MachinePrefix(typeCode), seq)
}

// JobPrefix is the counter key for jobs; sequences restart every year.
func JobPrefix(jobType string, year int) string {
	return fmt.Sprintf("J-%s/%02d", Code(jobType), year%100)
}

func JobID(jobType string, seq int64, year int) string {
	return fmt.Sprintf("J-%s-%04d%02d", Code(jobType), seq, year%100)
}

func PersonalJobID(username string) string {
	return "PER-" + username
}
