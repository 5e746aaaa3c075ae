package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.InsertDuty(ctx, []model.DutyEntry{{ID: uuid.New(), TeacherName: "A", DutyDate: day(1)}})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.InTx(ctx, func(tx core.Store) error {
		n, err := tx.DeleteDutyRange(ctx, day(1), day(31))
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := s.CountDutyRange(ctx, day(1), day(31))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "rolled back delete must restore the row")
}

func TestInTx_RollsBackWhenContextEndsDuringTx(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := s.InTx(ctx, func(tx core.Store) error {
		_, err := tx.InsertDuty(ctx, []model.DutyEntry{{ID: uuid.New(), TeacherName: "A", DutyDate: day(2)}})
		cancel()
		return err
	})
	assert.ErrorIs(t, err, context.Canceled)

	n, err := s.CountDutyRange(context.Background(), day(1), day(31))
	require.NoError(t, err)
	assert.Zero(t, n, "a failed transaction must not keep its writes")
}

func TestFailNext_IsConsumedOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")
	s.FailNext("InsertStudents", boom)

	_, err := s.InsertStudents(ctx, []model.Student{{ID: uuid.New(), FullName: "A", ClassID: "6a"}})
	assert.ErrorIs(t, err, boom)

	n, err := s.InsertStudents(ctx, []model.Student{{ID: uuid.New(), FullName: "A", ClassID: "6a"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestDutyRangeIsInclusive(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.InsertDuty(ctx, []model.DutyEntry{
		{ID: uuid.New(), TeacherName: "A", DutyDate: day(1)},
		{ID: uuid.New(), TeacherName: "B", DutyDate: day(31)},
		{ID: uuid.New(), TeacherName: "C", DutyDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	n, err := s.DeleteDutyRange(ctx, day(1), day(31))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	left, err := s.ListDuty(ctx, core.DutyFilter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "C", left[0].TeacherName)
}

func TestEmailByLogin(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.InsertUser(ctx, model.User{ID: uuid.New(), Username: "thaogv", Phone: "0912345678", Email: "thao@example.com"}))

	for _, login := range []string{"thaogv", "ThaoGV", "0912345678"} {
		email, err := s.EmailByLogin(ctx, login)
		require.NoError(t, err, login)
		assert.Equal(t, "thao@example.com", email)
	}

	_, err := s.EmailByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReportSnapshotIsCopied(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := model.Report{
		ID:             uuid.New(),
		Kind:           model.ReportAttendance,
		ReportDate:     day(15),
		AbsentStudents: []model.AbsentStudent{{FullName: "A"}},
	}
	require.NoError(t, s.InsertReport(ctx, r))

	r.AbsentStudents[0].FullName = "changed"
	got, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.AbsentStudents[0].FullName)
}

func TestListAudit_NewestFirstWithPaging(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, s.InsertAudit(ctx, core.AuditEntry{
			ID:           uuid.New(),
			Action:       core.ActionDutyImport,
			RowsAffected: i,
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}))
	}

	page, err := s.ListAudit(ctx, core.AuditFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 3, page[0].RowsAffected)
	assert.Equal(t, 2, page[1].RowsAffected)

	n, err := s.PurgeAudit(ctx, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
