package database

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
)

func TestStudentRowRoundTrip(t *testing.T) {
	birth := time.Date(2011, 9, 5, 0, 0, 0, 0, time.UTC)
	in := model.Student{
		ID:        uuid.New(),
		FullName:  "Nguyễn Văn An",
		BirthDate: &birth,
		ClassID:   "7a",
		Room:      "P101",
		MealGroup: model.DefaultMealGroup,
		CreatedAt: time.Date(2024, 9, 1, 7, 0, 0, 0, time.UTC),
	}

	row := studentRow(in)
	if row.Gender.Valid {
		t.Errorf("empty gender should be NULL")
	}
	if !row.Room.Valid || row.Room.String != "P101" {
		t.Errorf("room = %+v", row.Room)
	}

	out := studentModel(row)
	if out.ID != in.ID || out.FullName != in.FullName || out.ClassID != in.ClassID {
		t.Errorf("round trip mismatch: %+v", out)
	}
	if out.BirthDate == nil || !out.BirthDate.Equal(birth) {
		t.Errorf("birth date = %v, want %v", out.BirthDate, birth)
	}
}

func TestFromPgDate_NormalizesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	d := pgtype.Date{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, loc), Valid: true}
	got := fromPgDate(d)
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("fromPgDate = %v, want %v", got, want)
	}
	if !fromPgDate(pgtype.Date{}).IsZero() {
		t.Errorf("invalid date should map to zero time")
	}
}

func TestReportModel_DecodesSnapshot(t *testing.T) {
	id := uuid.New()
	r := AttendanceReport{
		ID:             pgID(id),
		Kind:           "meal",
		ReportDate:     toPgDate(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		TotalCount:     30,
		PresentCount:   29,
		AbsentCount:    1,
		AbsentStudents: []byte(`[{"student_id":"` + id.String() + `","full_name":"A","class_id":"7a","permitted":true}]`),
	}
	rep, err := reportModel(r)
	if err != nil {
		t.Fatalf("reportModel: %v", err)
	}
	if rep.Kind != model.ReportMeal || len(rep.AbsentStudents) != 1 || !rep.AbsentStudents[0].Permitted {
		t.Errorf("unexpected report: %+v", rep)
	}

	r.AbsentStudents = []byte("{broken")
	if _, err := reportModel(r); err == nil {
		t.Errorf("expected decode error")
	}
}

func TestUserModel_ParsesRoles(t *testing.T) {
	u := userModel(User{
		ID:    pgID(uuid.New()),
		Email: "gv@example.com",
		Roles: []string{"teacher", "bogus", "class_teacher"},
	})
	if !u.Roles.Has(roles.Teacher) || !u.Roles.Has(roles.ClassTeacher) {
		t.Errorf("roles = %v", u.Roles.Strings())
	}
	if len(u.Roles.Slice()) != 2 {
		t.Errorf("unknown role tags should be dropped, got %v", u.Roles.Strings())
	}
}

func TestNotFoundAndExpectOne(t *testing.T) {
	if !errors.Is(notFound(pgx.ErrNoRows), core.ErrNotFound) {
		t.Errorf("pgx.ErrNoRows should map to core.ErrNotFound")
	}
	other := errors.New("boom")
	if notFound(other) != other {
		t.Errorf("other errors pass through")
	}
	if !errors.Is(expectOne(0, nil), core.ErrNotFound) {
		t.Errorf("zero rows should be ErrNotFound")
	}
	if err := expectOne(1, nil); err != nil {
		t.Errorf("expectOne(1) = %v", err)
	}
	if expectOne(0, other) != other {
		t.Errorf("query error should win")
	}
}
