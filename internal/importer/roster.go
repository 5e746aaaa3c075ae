package importer

import (
	"strings"
	"time"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
)

// Roster columns are positional.
const (
	colSTT = iota
	colName
	colBirthDate
	colGender
	colClass
	colNationalID
	colPhone
	colAddress
	colRoom
	colMealGroup
	rosterColumns
)

// RosterColumns are the header labels of the roster template.
var RosterColumns = []string{
	"STT", "Họ và tên", "Ngày sinh", "Giới tính", "Lớp",
	"CCCD", "Số điện thoại", "Địa chỉ", "Phòng", "Nhóm ăn",
}

// RosterParseReport summarises a roster parse.
type RosterParseReport struct {
	Delimiter         string `json:"delimiter"`
	DataRows          int    `json:"data_rows"`
	Accepted          int    `json:"accepted"`
	DroppedLines      []int  `json:"dropped_lines,omitempty"`
	InvalidBirthDates []int  `json:"invalid_birth_dates,omitempty"`
}

// ParseRoster parses a roster file into students ready to insert. The first
// non-comment line is the header and is skipped by position. A row is kept
// only when both the name and the class are present.
func ParseRoster(text string, now time.Time) ([]model.Student, *RosterParseReport, error) {
	lines := contentLines(text)
	if len(lines) == 0 {
		return nil, nil, ErrEmptyFile
	}

	delim := probeRosterDelimiter(lines[0].text)
	report := &RosterParseReport{Delimiter: string(delim)}

	var students []model.Student
	for _, l := range lines[1:] {
		report.DataRows++
		row := tokenize(l.text, delim)

		name := cleanName(cell(row, colName))
		classID := model.NormalizeClassID(cell(row, colClass))
		if name == "" || classID == "" {
			report.DroppedLines = append(report.DroppedLines, l.no)
			continue
		}

		st := model.Student{
			FullName:   name,
			Gender:     parseGender(cell(row, colGender)),
			ClassID:    classID,
			NationalID: cell(row, colNationalID),
			Phone:      cell(row, colPhone),
			Address:    cell(row, colAddress),
			Room:       cell(row, colRoom),
			MealGroup:  cell(row, colMealGroup),
		}
		if st.MealGroup == "" {
			st.MealGroup = model.DefaultMealGroup
		}
		if raw := cell(row, colBirthDate); raw != "" {
			if t, ok := ParseDate(raw, now); ok {
				st.BirthDate = &t
			} else {
				report.InvalidBirthDates = append(report.InvalidBirthDates, l.no)
			}
		}
		students = append(students, st)
	}

	report.Accepted = len(students)
	if len(students) == 0 {
		return nil, report, ErrNoStudents
	}
	return students, report, nil
}

// probeRosterDelimiter tries tab, then semicolon, then comma.
func probeRosterDelimiter(header string) rune {
	for _, d := range []rune{'\t', ';'} {
		if strings.ContainsRune(header, d) {
			return d
		}
	}
	return ','
}

func parseGender(s string) string {
	switch Fold(s) {
	case "nam", "male", "m":
		return "male"
	case "nu", "female", "f":
		return "female"
	default:
		return ""
	}
}
