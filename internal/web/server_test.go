package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/auth"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/config"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/store/memstore"
)

var testNow = time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)

type harness struct {
	t      *testing.T
	store  *memstore.Store
	server *Server
	tokens map[string]string
	users  map[string]model.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memstore.New()
	svc := core.NewService(store, core.Options{Clock: func() time.Time { return testNow }})
	issuer := auth.NewIssuer("0123456789abcdef", time.Hour)
	cfg := &config.Config{
		Import:   config.ImportConfig{MaxFileSize: 1 << 20},
		Security: config.SecurityConfig{EnableCSP: true},
	}
	srv := NewServer(svc, auth.NewAuthenticator(store, issuer), cfg)
	srv.now = func() time.Time { return testNow }

	h := &harness{t: t, store: store, server: srv, tokens: map[string]string{}, users: map[string]model.User{}}
	h.addUser("admin", "admin@example.com", "", roles.NewSet(roles.Admin))
	h.addUser("teacher", "gv@example.com", "", roles.NewSet(roles.Teacher))
	h.addUser("gvcn7a", "gvcn@example.com", "7a", roles.NewSet(roles.ClassTeacher))
	h.addUser("kitchen", "bep@example.com", "", roles.NewSet(roles.Kitchen))
	for name, u := range h.users {
		tok, _, err := issuer.Issue(u)
		require.NoError(t, err)
		h.tokens[name] = tok
	}
	return h
}

func (h *harness) addUser(name, email, classID string, rs roles.Set) {
	hash, err := auth.HashPassword("matkhau123")
	require.NoError(h.t, err)
	u := model.User{
		ID:           uuid.New(),
		FullName:     "User " + name,
		Username:     name,
		Email:        email,
		PasswordHash: hash,
		Roles:        rs,
		ClassID:      classID,
	}
	require.NoError(h.t, h.store.InsertUser(context.Background(), u))
	h.users[name] = u
}

func (h *harness) do(who, method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if who != "" {
		req.Header.Set("Authorization", "Bearer "+h.tokens[who])
	}
	rec := httptest.NewRecorder()
	h.server.Router().ServeHTTP(rec, req)
	return rec
}

func (h *harness) upload(who, path, month, content string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if month != "" {
		require.NoError(h.t, mw.WriteField("month", month))
	}
	fw, err := mw.CreateFormFile("file", "upload.csv")
	require.NoError(h.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+h.tokens[who])
	rec := httptest.NewRecorder()
	h.server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	rec := h.do("", http.MethodPost, "/api/auth/login", map[string]string{"identifier": "teacher", "password": "matkhau123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sess auth.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.NotEmpty(t, sess.Token)
	assert.NotEmpty(t, rec.Result().Cookies())

	rec = h.do("", http.MethodPost, "/api/auth/login", map[string]string{"identifier": "teacher", "password": "sai"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH001", decodeError(t, rec).Code)
}

func TestAuthGates(t *testing.T) {
	h := newHarness(t)

	rec := h.do("", http.MethodGet, "/api/students", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH002", decodeError(t, rec).Code)

	rec = h.do("teacher", http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "AUTH003", decodeError(t, rec).Code)

	rec = h.do("kitchen", http.MethodGet, "/api/meals/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do("teacher", http.MethodGet, "/api/meals/stats", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMe(t *testing.T) {
	h := newHarness(t)
	rec := h.do("gvcn7a", http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var me struct {
		Capabilities map[string]bool `json:"capabilities"`
		RoleLabels   []string        `json:"role_labels"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.True(t, me.Capabilities["report_meals"])
	assert.True(t, me.Capabilities["manage_students"])
	assert.False(t, me.Capabilities["manage_duty"])
	assert.Equal(t, []string{"GVCN"}, me.RoleLabels)
}

func TestDutyImportFlow(t *testing.T) {
	h := newHarness(t)
	csv := "\ufeffSTT,Họ và tên,1,2 (CN)\n1,Nguyễn Văn A,x,\n2,Lò Thị B,,✓\n"

	rec := h.upload("teacher", "/api/duty/import", "2024-01", csv)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.upload("admin", "/api/duty/import/preview", "2024-01", csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.upload("admin", "/api/duty/import", "2024-01", csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res core.DutyImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.EqualValues(t, 2, res.Inserted)

	rec = h.do("teacher", http.MethodGet, "/api/duty?from=2024-01-01&to=2024-01-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"duty_date":"2024-01-01"`)
	var entries []model.DutyEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Nguyễn Văn A", entries[0].TeacherName)

	rec = h.do("teacher", http.MethodGet, "/api/duty/calendar?month=2024-01", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDutyImportErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name, month, body, code string
		status                  int
	}{
		{"no header", "2024-01", "Họ và tên,1\nA,x\n", "IMP001", http.StatusBadRequest},
		{"no name column", "2024-01", "STT,Tên,1\n1,A,x\n", "IMP002", http.StatusBadRequest},
		{"no marks", "2024-01", "STT,Họ và tên,1\n1,A,\n", "IMP003", http.StatusBadRequest},
		{"bad month", "2024-13", "STT,Họ và tên,1\n1,A,x\n", "IMP005", http.StatusBadRequest},
		{"empty file", "2024-01", "", "FILE005", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.upload("admin", "/api/duty/import", tt.month, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestDutyTemplateDownload(t *testing.T) {
	h := newHarness(t)
	rec := h.do("admin", http.MethodGet, "/api/duty/template?month=2024-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "mau-lich-truc-2024-02.csv")
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "\ufeff"))
	assert.Contains(t, body, "User teacher")
	assert.Contains(t, body, "User gvcn7a")
	assert.NotContains(t, body, "User kitchen")
}

func TestRosterImportAndReports(t *testing.T) {
	h := newHarness(t)
	roster := "STT\tHọ và tên\tNgày sinh\tGiới tính\tLớp\n1\tA\t\t\t7A\n2\tB\t\t\t7a\n3\tC\t\t\t8b\n"

	rec := h.upload("gvcn7a", "/api/students/import", "", roster)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var imported core.RosterImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &imported))
	assert.EqualValues(t, 2, imported.Inserted)
	assert.Equal(t, []core.SkippedStudent{{FullName: "C", ClassID: "8b"}}, imported.OutsideClass)

	rec = h.do("teacher", http.MethodGet, "/api/students?class_id=7a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var students []model.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
	require.Len(t, students, 2)

	meal := core.ReportInput{
		Kind:     model.ReportMeal,
		ClassID:  "8b",
		Absences: nil,
	}
	rec = h.do("gvcn7a", http.MethodPost, "/api/reports", meal)
	assert.Equal(t, http.StatusForbidden, rec.Code, "meal report for another class")

	rec = h.do("admin", http.MethodPost, "/api/reports", core.ReportInput{Kind: model.ReportMeal})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "meal report without a class")
	assert.Equal(t, "VAL001", decodeError(t, rec).Code)

	meal.ClassID = "7a"
	meal.Absences = []core.Absence{{StudentID: students[0].ID, Reason: "ốm", Permitted: true}}
	rec = h.do("gvcn7a", http.MethodPost, "/api/reports", meal)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rep model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 2, rep.TotalCount)
	assert.Equal(t, 1, rep.AbsentCount)

	rec = h.do("teacher", http.MethodPost, "/api/reports", core.ReportInput{Kind: model.ReportAttendance, ClassID: "8b"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do("teacher", http.MethodDelete, "/api/reports/"+rep.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = h.do("admin", http.MethodDelete, "/api/reports/"+rep.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do("admin", http.MethodGet, "/api/reports/"+rep.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NF001", decodeError(t, rec).Code)
}

func TestStudentEditsScopedToHomeroomClass(t *testing.T) {
	h := newHarness(t)

	createStudent := func(who, classID string) *httptest.ResponseRecorder {
		return h.do(who, http.MethodPost, "/api/students", map[string]string{"full_name": "Hờ A Dính", "class_id": classID})
	}
	decodeStudent := func(rec *httptest.ResponseRecorder) model.Student {
		var st model.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st), rec.Body.String())
		return st
	}

	rec := createStudent("admin", "9b")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	other := decodeStudent(rec)

	rec = createStudent("gvcn7a", "9c")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "AUTH004", decodeError(t, rec).Code)

	rec = createStudent("gvcn7a", "7A")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	own := decodeStudent(rec)

	rec = h.do("gvcn7a", http.MethodPut, "/api/students/"+other.ID.String(), map[string]string{"full_name": "Hờ A Dính", "class_id": "7a"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = h.do("gvcn7a", http.MethodPut, "/api/students/"+own.ID.String(), map[string]string{"full_name": "Hờ A Dính", "class_id": "9b"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do("gvcn7a", http.MethodDelete, "/api/students/"+other.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = h.do("admin", http.MethodGet, "/api/students/"+other.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.upload("gvcn7a", "/api/students/import", "", "STT,Họ và tên,Ngày sinh,Giới tính,Lớp\n1,Thào Mí Sử,,,8d\n")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "AUTH004", decodeError(t, rec).Code)

	rec = h.do("gvcn7a", http.MethodDelete, "/api/students/"+own.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do("admin", http.MethodDelete, "/api/students/"+other.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateStudentValidation(t *testing.T) {
	h := newHarness(t)
	rec := h.do("admin", http.MethodPost, "/api/students", map[string]string{"full_name": "A"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL001", decodeError(t, rec).Code)

	rec = h.do("admin", http.MethodPost, "/api/students", map[string]string{"full_name": "A", "class_id": "6a", "bogus": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "REQ001", decodeError(t, rec).Code)

	rec = h.do("admin", http.MethodGet, "/api/students/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsersAndGroups(t *testing.T) {
	h := newHarness(t)

	rec := h.do("admin", http.MethodPost, "/api/users", map[string]any{
		"full_name": "Kế toán", "email": "kt@example.com", "password": "abc12345", "roles": []string{"accountant"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do("admin", http.MethodPost, "/api/users", map[string]any{
		"full_name": "X", "email": "x@example.com", "password": "abc12345", "roles": []string{"principal"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do("admin", http.MethodPost, "/api/permission-groups", map[string]any{
		"name":   "Lịch trực",
		"grants": map[string]any{"duty_schedule": map[string]bool{"view": true, "edit": true}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var g model.PermissionGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))

	path := "/api/users/" + h.users["teacher"].ID.String() + "/groups"
	rec = h.do("admin", http.MethodPut, path, map[string]any{"group_ids": []uuid.UUID{g.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do("admin", http.MethodPut, path, map[string]any{"group_ids": []uuid.UUID{uuid.New()}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL006", decodeError(t, rec).Code)

	rec = h.do("admin", http.MethodGet, "/api/users/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "danh-sach-nguoi-dung-2024-03-15.xlsx")
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	assert.Len(t, rows, 1+5)

	rec = h.do("admin", http.MethodGet, "/api/audit-log?action=user_groups_replace", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []core.AuditEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)
}

func TestHTMXErrorRendersAlert(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/api/students", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `role="alert"`)
	assert.Contains(t, rec.Body.String(), "AUTH002")
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	h := newHarness(t)
	rec := h.do("", http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	now := testNow
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("2.2.2.2"))

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.allow("1.1.1.1"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(badRequest("x")))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(core.ErrTooManyImports))
	assert.Equal(t, http.StatusNotFound, statusFor(core.ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
