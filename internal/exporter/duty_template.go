package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/importer"
)

// blankTeacherRows are emitted when no teacher names are supplied.
const blankTeacherRows = 10

var weekdayLabels = map[time.Weekday]string{
	time.Monday:    "T2",
	time.Tuesday:   "T3",
	time.Wednesday: "T4",
	time.Thursday:  "T5",
	time.Friday:    "T6",
	time.Saturday:  "T7",
	time.Sunday:    "CN",
}

var templateInstructions = []string{
	"# Hướng dẫn: đánh dấu x (hoặc ✓, ✔, 1) vào ô ngày giáo viên trực.",
	"# Không sửa dòng tiêu đề có cột STT và Họ và tên.",
	"# Dòng bắt đầu bằng # sẽ được bỏ qua khi nhập.",
	"# Nhập lại file sẽ thay thế toàn bộ lịch trực của tháng.",
}

// DutyTemplateFilename returns the download name of the template.
func DutyTemplateFilename(month importer.Month) string {
	return "mau-lich-truc-" + month.String() + ".csv"
}

// dutyTemplateRows builds the title, header, guide and teacher rows.
func dutyTemplateRows(month importer.Month, teachers []string) [][]string {
	days := month.Days()
	title := []string{fmt.Sprintf("LỊCH TRỰC NỘI TRÚ THÁNG %02d/%04d", int(month.Month), month.Year)}

	header := make([]string, 0, days+2)
	guide := make([]string, 0, days+2)
	header = append(header, "STT", "Họ và tên")
	guide = append(guide, "", "Thứ")
	for d := 1; d <= days; d++ {
		wd := month.Date(d).Weekday()
		label := strconv.Itoa(d)
		if wd == time.Sunday {
			label += " (CN)"
		}
		header = append(header, label)
		guide = append(guide, weekdayLabels[wd])
	}

	rows := [][]string{title, header, guide}

	n := len(teachers)
	if n == 0 {
		n = blankTeacherRows
	}
	for i := range n {
		row := make([]string, days+2)
		row[0] = strconv.Itoa(i + 1)
		if i < len(teachers) {
			row[1] = teachers[i]
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteDutyTemplate writes the duty import template for month to w.
func WriteDutyTemplate(w io.Writer, month importer.Month, teachers []string) error {
	return writeTemplate(w, dutyTemplateRows(month, teachers))
}

func writeTemplate(w io.Writer, rows [][]string) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write template rows: %w", err)
	}
	for _, line := range templateInstructions {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// DutyTemplateCSV returns the template as bytes.
func DutyTemplateCSV(month importer.Month, teachers []string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDutyTemplate(&buf, month, teachers); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
