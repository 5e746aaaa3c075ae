package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
)

var rosterNow = time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

func TestParseRoster_DropsRowsWithoutNameOrClass(t *testing.T) {
	input := strings.Join([]string{
		"# Danh sách học sinh nội trú",
		"STT,Họ và tên,Ngày sinh,Giới tính,Lớp,CCCD,SĐT,Địa chỉ,Phòng,Nhóm ăn",
		"1,Nguyễn Văn An,05/09/2011,Nam,7A,0123,0901,Xín Mần,P101,",
		"2,Lò Thị Bình,12/3/2012,Nữ,,,,,P102,an_sang",
		"3,,10/10/2010,,7a,,,,,",
		"4,Vàng Seo Chứ,,nam, 8 b ,,,,P103,ban_tru_2",
	}, "\n")

	students, report, err := ParseRoster(input, rosterNow)
	require.NoError(t, err)
	require.Len(t, students, 2)

	assert.Equal(t, ",", report.Delimiter)
	assert.Equal(t, 4, report.DataRows)
	assert.Equal(t, []int{4, 5}, report.DroppedLines)

	an := students[0]
	assert.Equal(t, "Nguyễn Văn An", an.FullName)
	assert.Equal(t, "7a", an.ClassID)
	assert.Equal(t, "male", an.Gender)
	assert.Equal(t, model.DefaultMealGroup, an.MealGroup)
	require.NotNil(t, an.BirthDate)
	assert.Equal(t, time.Date(2011, 9, 5, 0, 0, 0, 0, time.UTC), *an.BirthDate)

	chu := students[1]
	assert.Equal(t, "8b", chu.ClassID)
	assert.Equal(t, "ban_tru_2", chu.MealGroup)
	assert.Nil(t, chu.BirthDate)
}

func TestParseRoster_DelimiterProbe(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"tab", "STT\tHọ và tên\tNgày sinh\n1\tA\t\t\t6a", "\t"},
		{"semicolon", "STT;Họ và tên;Ngày sinh\n1;A;;;6a", ";"},
		{"comma", "STT,Họ và tên,Ngày sinh\n1,A,,,6a", ","},
		{"tab wins over semicolon", "STT\tHọ; và tên\n1\tA\t\t\t6a", "\t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			students, report, err := ParseRoster(tt.input, rosterNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.Delimiter)
			require.Len(t, students, 1)
			assert.Equal(t, "6a", students[0].ClassID)
		})
	}
}

func TestParseRoster_InvalidBirthDateKeepsRow(t *testing.T) {
	input := "STT,Họ và tên,Ngày sinh,Giới tính,Lớp\n1,A,31/02/2012,,9c"
	students, report, err := ParseRoster(input, rosterNow)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Nil(t, students[0].BirthDate)
	assert.Equal(t, []int{2}, report.InvalidBirthDates)
}

func TestParseRoster_NoValidRows(t *testing.T) {
	_, _, err := ParseRoster("STT,Họ và tên\n1,,,,\n2,B,,,", rosterNow)
	assert.ErrorIs(t, err, ErrNoStudents)

	_, _, err = ParseRoster("# chỉ có chú thích\n", rosterNow)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestRosterColumns(t *testing.T) {
	assert.Len(t, RosterColumns, rosterColumns)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"05/09/2011", time.Date(2011, 9, 5, 0, 0, 0, 0, time.UTC), true},
		{"5-9-2011", time.Date(2011, 9, 5, 0, 0, 0, 0, time.UTC), true},
		{"2011-09-05", time.Date(2011, 9, 5, 0, 0, 0, 0, time.UTC), true},
		{"5/9/11", time.Date(2011, 9, 5, 0, 0, 0, 0, time.UTC), true},
		{"5/9/99", time.Date(1999, 9, 5, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"hôm qua", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in, rosterNow)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
