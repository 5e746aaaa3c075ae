package exporter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/importer"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
)

func TestUsersRows(t *testing.T) {
	both := model.User{
		ID:       uuid.New(),
		FullName: "Hoàng Thị Thảo",
		Username: "thaogv",
		Phone:    "0912345678",
		Email:    "thao@example.com",
		Roles:    roles.NewSet(roles.ClassTeacher, roles.Teacher),
		ClassID:  "7a",
	}
	phoneOnly := model.User{ID: uuid.New(), FullName: "B", Phone: "0987", Email: "b@example.com"}
	emailOnly := model.User{ID: uuid.New(), FullName: "C", Email: "c@example.com", ClassID: "10x"}

	matrix := model.PermissionMatrix{
		both.ID: {model.FeatureDuty: {View: true, Edit: true}},
	}

	rows := UsersRows([]model.User{both, phoneOnly, emailOnly}, matrix)
	require.Len(t, rows, 3)

	assert.Equal(t, "1", rows[0][0])
	assert.Equal(t, "thaogv", rows[0][2], "username wins over phone")
	assert.Equal(t, "0987", rows[1][2])
	assert.Equal(t, "c@example.com", rows[2][2])

	assert.Equal(t, "Giáo viên, GVCN", rows[0][5])
	assert.Equal(t, "Lớp 7A", rows[0][6])
	assert.Equal(t, "10x", rows[2][6], "unknown class falls back to the raw id")

	header := UsersHeader()
	dutyCol := -1
	for i, h := range header {
		if h == model.FeatureDuty.Label() {
			dutyCol = i
		}
	}
	require.GreaterOrEqual(t, dutyCol, 0)
	assert.Equal(t, "Xem, Sửa", rows[0][dutyCol])
	assert.Equal(t, "-", rows[1][dutyCol])
	assert.Len(t, rows[0], len(header))
}

func TestColumnWidth(t *testing.T) {
	assert.Equal(t, 12.0, ColumnWidth("STT"))
	assert.Equal(t, 13.0, ColumnWidth("Số điện thoại"))
}

func TestUsersWorkbook_ReadsBack(t *testing.T) {
	u := model.User{ID: uuid.New(), FullName: "A", Email: "a@example.com", Roles: roles.NewSet(roles.Admin)}
	data, err := UsersWorkbook([]model.User{u}, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{usersSheet}, f.GetSheetList())
	rows, err := f.GetRows(usersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "STT", rows[0][0])
	assert.Equal(t, "a@example.com", rows[1][2])
	assert.Equal(t, "Quản trị viên", rows[1][5])
}

func TestUsersFilename(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "danh-sach-nguoi-dung-2024-03-05.xlsx", UsersFilename(now))
}

func TestDutyTemplate_Layout(t *testing.T) {
	feb := importer.Month{Year: 2024, Month: time.February}
	data, err := DutyTemplateCSV(feb, nil)
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	lines := strings.Split(strings.TrimSuffix(string(data[3:]), "\n"), "\n")

	assert.Equal(t, "LỊCH TRỰC NỘI TRÚ THÁNG 02/2024", lines[0])
	header := strings.Split(lines[1], ",")
	assert.Len(t, header, 2+29)
	assert.Equal(t, "4 (CN)", header[2+3], "2024-02-04 is a Sunday")
	guide := strings.Split(lines[2], ",")
	assert.Equal(t, "T5", guide[2], "2024-02-01 is a Thursday")

	var teacherRows, comments int
	for _, l := range lines[3:] {
		if strings.HasPrefix(l, "#") {
			comments++
			continue
		}
		teacherRows++
	}
	assert.Equal(t, blankTeacherRows, teacherRows)
	assert.Equal(t, len(templateInstructions), comments)
}

func TestDutyTemplate_ParsesBack(t *testing.T) {
	jan := importer.Month{Year: 2024, Month: time.January}
	rows := dutyTemplateRows(jan, []string{"Nguyễn Văn A", "Lò Thị B"})
	rows[3][2] = "x"  // A on the 1st
	rows[4][2+6] = "✓" // B on the 7th

	var buf bytes.Buffer
	require.NoError(t, writeTemplate(&buf, rows))

	records, report, err := importer.ParseDutySchedule(jan, buf.String())
	require.NoError(t, err)
	assert.Equal(t, 31, report.DayColumns)
	assert.Equal(t, 2, report.TeacherRows)
	require.Len(t, records, 2)
	assert.Equal(t, "Nguyễn Văn A", records[0].TeacherName)
	assert.Equal(t, jan.Date(1), records[0].DutyDate)
	assert.Equal(t, "Lò Thị B", records[1].TeacherName)
	assert.Equal(t, jan.Date(7), records[1].DutyDate)
}

func TestDutyTemplate_EmptyParsesToNoRecords(t *testing.T) {
	jan := importer.Month{Year: 2024, Month: time.January}
	data, err := DutyTemplateCSV(jan, []string{"A"})
	require.NoError(t, err)
	_, _, err = importer.ParseDutySchedule(jan, string(data))
	assert.ErrorIs(t, err, importer.ErrNoDutyRecords)
}
