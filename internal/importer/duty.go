package importer

// duty.go parses the monthly duty-schedule grid.
//
// Layout (see exporter.DutyTemplateCSV):
//
//	LỊCH TRỰC NỘI TRÚ THÁNG 01/2024
//	STT,Họ và tên,1,2,3,4,5,6,7 (CN),...
//	,Thứ,T2,T3,T4,T5,T6,T7,CN,...
//	1,Nguyễn Văn A,x,,,✓,...
//	# instructions
//
// A cell marked x, ✓, ✔ or 1 puts the teacher on duty that day. The day of
// a column comes from the leading integer of its own header label, so the
// column order does not matter.

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
)

var leadingInt = regexp.MustCompile(`^\s*(\d+)`)

// markTokens are the cell values that mean "on duty".
var markTokens = map[string]bool{
	"x": true,
	"✓": true,
	"✔": true,
	"1": true,
}

// guideTokens are folded name-column values of the day-of-week guide row.
var guideTokens = map[string]bool{
	"thu":             true,
	"thu trong tuan":  true,
	"ngay trong tuan": true,
	"ngay":            true,
}

// DutyRecord is one teacher on duty on one date.
type DutyRecord struct {
	TeacherName string    `json:"teacher_name"`
	DutyDate    time.Time `json:"duty_date"`
}

func (r DutyRecord) MarshalJSON() ([]byte, error) {
	type plain DutyRecord
	return json.Marshal(struct {
		plain
		DutyDate model.Date `json:"duty_date"`
	}{plain(r), model.Date(r.DutyDate)})
}

// SkippedCell is a marked cell that could not become a record.
type SkippedCell struct {
	Line    int    `json:"line"`
	Column  string `json:"column"`
	Teacher string `json:"teacher"`
	Reason  string `json:"reason"`
}

// DutyParseReport summarises a parse for the import response.
type DutyParseReport struct {
	HeaderLine   int           `json:"header_line"`
	Delimiter    string        `json:"delimiter"`
	DayColumns   int           `json:"day_columns"`
	TeacherRows  int           `json:"teacher_rows"`
	Records      int           `json:"records"`
	SkippedCells []SkippedCell `json:"skipped_cells,omitempty"`
}

// dayColumn binds a header column to its day of month.
type dayColumn struct {
	index int
	label string
	day   int
}

// ParseDutySchedule parses a duty grid for the selected month.
//
// Header day labels outside 1–31 are ignored. Labels that are valid days
// but do not exist in the selected month (31 in April) are not turned into
// dates; marked cells under them are listed in the report instead.
func ParseDutySchedule(month Month, text string) ([]DutyRecord, *DutyParseReport, error) {
	lines := contentLines(text)

	headerPos := -1
	for i, l := range lines {
		if strings.Contains(strings.ToLower(l.text), "stt") {
			headerPos = i
			break
		}
	}
	if headerPos < 0 {
		return nil, nil, ErrHeaderNotFound
	}
	header := lines[headerPos]

	delim := ','
	if strings.ContainsRune(header.text, ';') {
		delim = ';'
	}

	headerCells := tokenize(header.text, delim)
	nameCol := -1
	for i, c := range headerCells {
		if strings.Contains(Fold(c), "ho va ten") {
			nameCol = i
			break
		}
	}
	if nameCol < 0 {
		return nil, nil, &LineError{Line: header.no, Err: ErrNameColumnNotFound}
	}

	days := dayColumns(headerCells, nameCol)
	report := &DutyParseReport{
		HeaderLine: header.no,
		Delimiter:  string(delim),
		DayColumns: len(days),
	}

	monthDays := month.Days()
	var records []DutyRecord

	for _, l := range lines[headerPos+1:] {
		row := tokenize(l.text, delim)
		name := cleanName(cell(row, nameCol))
		if name == "" || guideTokens[Fold(name)] {
			continue
		}
		report.TeacherRows++

		for _, dc := range days {
			if !isMarked(cell(row, dc.index)) {
				continue
			}
			if dc.day > monthDays {
				report.SkippedCells = append(report.SkippedCells, SkippedCell{
					Line:    l.no,
					Column:  dc.label,
					Teacher: name,
					Reason:  "ngày " + strconv.Itoa(dc.day) + " không có trong tháng " + month.String(),
				})
				continue
			}
			records = append(records, DutyRecord{
				TeacherName: name,
				DutyDate:    month.Date(dc.day),
			})
		}
	}

	report.Records = len(records)
	if len(records) == 0 {
		return nil, report, ErrNoDutyRecords
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].DutyDate.Equal(records[j].DutyDate) {
			return records[i].DutyDate.Before(records[j].DutyDate)
		}
		return records[i].TeacherName < records[j].TeacherName
	})
	return records, report, nil
}

// dayColumns maps every column right of the name column whose label starts
// with an integer in 1–31.
func dayColumns(header []string, nameCol int) []dayColumn {
	var out []dayColumn
	for i := nameCol + 1; i < len(header); i++ {
		m := leadingInt.FindStringSubmatch(header[i])
		if m == nil {
			continue
		}
		day, err := strconv.Atoi(m[1])
		if err != nil || day < 1 || day > 31 {
			continue
		}
		out = append(out, dayColumn{index: i, label: strings.TrimSpace(header[i]), day: day})
	}
	return out
}

func isMarked(v string) bool {
	return markTokens[strings.ToLower(strings.TrimSpace(v))]
}

// GroupByMonth buckets records by the month of their date, in ascending
// month order.
func GroupByMonth(records []DutyRecord) ([]Month, map[Month][]DutyRecord) {
	groups := make(map[Month][]DutyRecord)
	for _, r := range records {
		m := MonthOf(r.DutyDate)
		groups[m] = append(groups[m], r)
	}

	months := make([]Month, 0, len(groups))
	for m := range groups {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].First().Before(months[j].First())
	})
	return months, groups
}
