package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"

	"github.com/google/uuid"
)

var (
	// ErrParseFailure is returned when the upload is not readable as CSV.
	ErrParseFailure = errors.New("file is not valid CSV")
	// ErrNoEmails is returned when no cell in the file looks like an email.
	ErrNoEmails = errors.New("no emails found")
)

// emailPattern is deliberately permissive and unanchored: "a@b.c" matches,
// and so does a longer cell that merely contains an address.
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// EmailSet is the deduplicated set of email-like cells found in one upload.
type EmailSet map[string]struct{}

// Add inserts v into the set.
func (s EmailSet) Add(v string) {
	s[v] = struct{}{}
}

// Contains reports whether v is in the set.
func (s EmailSet) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in lexical order.
func (s EmailSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// ParseCSV reads every row of r. Rows may have differing field counts and
// bare quotes are tolerated.
func ParseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailure, err)
	}
	return rows, nil
}

// ExtractEmails scans every cell of every row, ignoring headers and column
// positions, and collects each whole cell value that matches emailPattern.
func ExtractEmails(rows [][]string) (EmailSet, error) {
	emails := make(EmailSet)
	for _, row := range rows {
		for _, cell := range row {
			if emailPattern.MatchString(cell) {
				emails.Add(cell)
			}
		}
	}
	if len(emails) == 0 {
		return nil, ErrNoEmails
	}
	return emails, nil
}

// NewDocumentID returns a random version 4 UUID for a new upload.
func NewDocumentID() string {
	return uuid.NewString()
}
