// Package importer parses the delimited text files teachers upload: the
// monthly duty schedule and the student roster.
//
// Parsing is pure. Deciding what to replace in storage belongs to the
// caller; this package only produces validated records.
package importer

import (
	"errors"
	"fmt"
)

var (
	// ErrHeaderNotFound means no line contains the "STT" column.
	ErrHeaderNotFound = errors.New("header row not found: no line contains STT")

	// ErrNameColumnNotFound means the header has no "Họ và tên" column.
	ErrNameColumnNotFound = errors.New("missing required column: Họ và tên")

	// ErrNoDutyRecords means the file parsed but contained no marked cell.
	ErrNoDutyRecords = errors.New("no duty records found")

	// ErrNoStudents means no roster row had both a name and a class.
	ErrNoStudents = errors.New("no valid student rows found")

	// ErrInvalidMonth means the selected month is not YYYY-MM.
	ErrInvalidMonth = errors.New("invalid month")
)

// LineError locates a problem on a specific input line.
type LineError struct {
	Line int // 1-based line number in the original input
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
