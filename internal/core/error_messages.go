package core

// error_messages.go turns technical errors into messages teachers can act
// on. Every message carries a code that support staff can look up here.
//
// # Import errors (IMP001-IMP099)
//
//	IMP001 - Header row missing (importer.ErrHeaderNotFound)
//	IMP002 - "Họ và tên" column missing (importer.ErrNameColumnNotFound)
//	IMP003 - No marked duty cells (importer.ErrNoDutyRecords)
//	IMP004 - No valid roster rows (importer.ErrNoStudents)
//	IMP005 - Month not YYYY-MM (importer.ErrInvalidMonth)
//	IMP006 - Absence names a student outside the roster (ErrUnknownStudent)
//
// # File errors (FILE001-FILE099)
//
//	FILE001 - File too large (importer.ErrFileTooLarge)
//	FILE004 - No file in the upload form
//	FILE005 - Empty file (importer.ErrEmptyFile)
//
// # Request errors
//
//	NF001   - Record not found (ErrNotFound)
//	VAL001  - Field validation failed (validator.ValidationErrors)
//	VAL003  - Required field empty
//	VAL006  - Unknown feature, group or role
//	AUTH001 - Wrong login or password
//	AUTH002 - Missing or expired session
//	AUTH003 - Role does not allow the action
//	AUTH004 - Student belongs to another class (ErrOutsideClass)
//	UPL002  - Too many imports running (ErrTooManyImports)
//	UPL004  - Request cancelled
//	UPL005  - Request timed out
//	RATE001 - Rate limited
//
// # Database errors (DB001-DB099)
//
//	DB001 - Duplicate key
//	DB003 - Foreign key violation
//	DB004 - Connection refused
//	DB007 - Deadlock
//
// # Default (ERR000)
//
// Fallback when nothing matches. Check the server log by request id.
//
// Sentinel errors are matched with errors.Is first. Anything else falls
// back to case-insensitive substring patterns; the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/importer"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{importer.ErrHeaderNotFound, UserMessage{
		Message: "Không tìm thấy dòng tiêu đề (cột STT)",
		Action:  "Dùng file mẫu lịch trực và giữ nguyên dòng tiêu đề",
		Code:    "IMP001",
	}},
	{importer.ErrNameColumnNotFound, UserMessage{
		Message: "Thiếu cột bắt buộc: Họ và tên",
		Action:  "Thêm cột \"Họ và tên\" vào dòng tiêu đề",
		Code:    "IMP002",
	}},
	{importer.ErrNoDutyRecords, UserMessage{
		Message: "Không tìm thấy lịch trực nào trong file",
		Action:  "Đánh dấu x vào ô ngày trực của từng giáo viên",
		Code:    "IMP003",
	}},
	{importer.ErrNoStudents, UserMessage{
		Message: "Không có học sinh hợp lệ trong file",
		Action:  "Mỗi dòng cần có Họ và tên và Lớp",
		Code:    "IMP004",
	}},
	{importer.ErrInvalidMonth, UserMessage{
		Message: "Tháng không hợp lệ",
		Action:  "Chọn tháng theo dạng YYYY-MM",
		Code:    "IMP005",
	}},
	{ErrUnknownStudent, UserMessage{
		Message: "Có học sinh không thuộc danh sách lớp",
		Action:  "Tải lại danh sách học sinh rồi báo cáo lại",
		Code:    "IMP006",
	}},
	{importer.ErrFileTooLarge, UserMessage{
		Message: "File quá lớn",
		Action:  "Chia nhỏ file rồi tải lên lại",
		Code:    "FILE001",
	}},
	{importer.ErrEmptyFile, UserMessage{
		Message: "File tải lên không có dữ liệu",
		Action:  "Kiểm tra lại file trước khi tải lên",
		Code:    "FILE005",
	}},
	{ErrNotFound, UserMessage{
		Message: "Không tìm thấy dữ liệu",
		Action:  "Tải lại trang để cập nhật danh sách",
		Code:    "NF001",
	}},
	{ErrUnknownFeature, UserMessage{
		Message: "Chức năng phân quyền không tồn tại",
		Action:  "Chỉ chọn các chức năng có trong danh sách",
		Code:    "VAL006",
	}},
	{ErrUnknownGroup, UserMessage{
		Message: "Nhóm quyền không tồn tại",
		Action:  "Tải lại danh sách nhóm quyền",
		Code:    "VAL006",
	}},
	{ErrNoRoles, UserMessage{
		Message: "Người dùng cần có ít nhất một vai trò",
		Action:  "Chọn vai trò cho người dùng",
		Code:    "VAL003",
	}},
	{ErrMissingField, UserMessage{
		Message: "Thiếu thông tin bắt buộc",
		Action:  "Điền họ tên, email và mật khẩu",
		Code:    "VAL003",
	}},
	{ErrOutsideClass, UserMessage{
		Message: "Học sinh không thuộc lớp bạn chủ nhiệm",
		Action:  "Chỉ thêm, sửa hoặc xóa học sinh của lớp mình",
		Code:    "AUTH004",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "Hệ thống đang xử lý nhiều file",
		Action:  "Vui lòng thử lại sau ít phút",
		Code:    "UPL002",
	}},
	{context.Canceled, UserMessage{
		Message: "Yêu cầu đã bị hủy",
		Action:  "Vui lòng thử lại",
		Code:    "UPL004",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Yêu cầu quá thời gian",
		Action:  "Thử lại với file nhỏ hơn",
		Code:    "UPL005",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors from packages that do not export sentinels.
var errorPatterns = []errorPattern{
	{"user not found", UserMessage{
		Message: "Sai tên đăng nhập hoặc mật khẩu",
		Action:  "Kiểm tra lại thông tin đăng nhập",
		Code:    "AUTH001",
	}},
	{"unauthorized", UserMessage{
		Message: "Phiên đăng nhập đã hết hạn",
		Action:  "Vui lòng đăng nhập lại",
		Code:    "AUTH002",
	}},
	{"forbidden", UserMessage{
		Message: "Bạn không có quyền thực hiện thao tác này",
		Action:  "Liên hệ quản trị viên để được cấp quyền",
		Code:    "AUTH003",
	}},
	{"no file provided", UserMessage{
		Message: "Chưa chọn file",
		Action:  "Chọn file CSV để tải lên",
		Code:    "FILE004",
	}},
	{"required field", UserMessage{
		Message: "Thiếu thông tin bắt buộc",
		Action:  "Điền đầy đủ các trường bắt buộc",
		Code:    "VAL003",
	}},
	{"unknown role", UserMessage{
		Message: "Vai trò không hợp lệ",
		Action:  "Chỉ chọn các vai trò có trong danh sách",
		Code:    "VAL006",
	}},
	{"duplicate key", UserMessage{
		Message: "Dữ liệu đã tồn tại",
		Action:  "Kiểm tra các dòng bị trùng",
		Code:    "DB001",
	}},
	{"violates foreign key", UserMessage{
		Message: "Dữ liệu liên quan không tồn tại",
		Action:  "Tải lại trang rồi thử lại",
		Code:    "DB003",
	}},
	{"connection refused", UserMessage{
		Message: "Không kết nối được cơ sở dữ liệu",
		Action:  "Vui lòng thử lại sau ít phút",
		Code:    "DB004",
	}},
	{"deadlock", UserMessage{
		Message: "Cơ sở dữ liệu đang bận",
		Action:  "Vui lòng thử lại",
		Code:    "DB007",
	}},
	{"rate limit", UserMessage{
		Message: "Quá nhiều yêu cầu",
		Action:  "Vui lòng đợi một chút rồi thử lại",
		Code:    "RATE001",
	}},
}

var validationMessage = UserMessage{
	Message: "Dữ liệu nhập không hợp lệ",
	Action:  "Kiểm tra lại các trường đã nhập",
	Code:    "VAL001",
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "Đã xảy ra lỗi không mong muốn",
	Action:  "Vui lòng thử lại hoặc liên hệ quản trị viên",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-facing message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msg := validationMessage
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		msg.Action = "Kiểm tra lại: " + strings.Join(fields, ", ")
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Mã: CODE). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Mã: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with the message shown to users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and keeps it for logging. Returns nil for nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
