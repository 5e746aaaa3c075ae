// Package roles defines the closed set of user roles and the capability
// predicates derived from them.
//
// A user's roles form an unordered set. Predicates are plain boolean
// combinations over that set: there is no precedence and no deny rule.
package roles

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Role is a single role tag.
type Role string

const (
	Admin        Role = "admin"
	Teacher      Role = "teacher"
	ClassTeacher Role = "class_teacher"
	Accountant   Role = "accountant"
	Kitchen      Role = "kitchen"
)

// All lists every known role in display order.
var All = []Role{Admin, Teacher, ClassTeacher, Accountant, Kitchen}

var labels = map[Role]string{
	Admin:        "Quản trị viên",
	Teacher:      "Giáo viên",
	ClassTeacher: "GVCN",
	Accountant:   "Kế toán",
	Kitchen:      "Nhà bếp",
}

// Parse converts a role tag to a Role. Matching is case-insensitive.
func Parse(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := labels[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Label returns the Vietnamese display label for the role.
func (r Role) Label() string {
	if l, ok := labels[r]; ok {
		return l
	}
	return string(r)
}

// Set is an unordered collection of roles.
type Set map[Role]struct{}

// NewSet builds a set from the given roles.
func NewSet(rs ...Role) Set {
	s := make(Set, len(rs))
	for _, r := range rs {
		s[r] = struct{}{}
	}
	return s
}

// ParseSet builds a set from raw tags. Unknown tags are ignored.
func ParseSet(tags []string) Set {
	s := make(Set, len(tags))
	for _, t := range tags {
		if r, err := Parse(t); err == nil {
			s[r] = struct{}{}
		}
	}
	return s
}

// Has reports whether r is in the set.
func (s Set) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// HasAny reports whether at least one of rs is in the set.
func (s Set) HasAny(rs ...Role) bool {
	for _, r := range rs {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Slice returns the roles in display order.
func (s Set) Slice() []Role {
	out := make([]Role, 0, len(s))
	for _, r := range All {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Strings returns the raw role tags in display order.
func (s Set) Strings() []string {
	rs := s.Slice()
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// Labels returns the display labels in display order.
func (s Set) Labels() []string {
	rs := s.Slice()
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Label()
	}
	return out
}

// MarshalJSON encodes the set as a sorted array of tags.
func (s Set) MarshalJSON() ([]byte, error) {
	tags := s.Strings()
	sort.Strings(tags)
	return json.Marshal(tags)
}

// UnmarshalJSON decodes an array of tags, rejecting unknown ones.
func (s *Set) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	out := make(Set, len(tags))
	for _, t := range tags {
		r, err := Parse(t)
		if err != nil {
			return err
		}
		out[r] = struct{}{}
	}
	*s = out
	return nil
}

// IsClassTeacherOf reports whether the holder is the homeroom teacher of
// classID: the class_teacher role plus a matching class reference.
func IsClassTeacherOf(s Set, ownClassID, classID string) bool {
	return s.Has(ClassTeacher) && ownClassID != "" && strings.EqualFold(ownClassID, classID)
}

// CanReportMeals gates meal reporting.
func CanReportMeals(s Set) bool {
	return s.HasAny(Admin, ClassTeacher)
}

// CanViewMealStats gates meal statistics.
func CanViewMealStats(s Set) bool {
	return s.HasAny(Admin, ClassTeacher, Accountant, Kitchen)
}

// CanTakeAttendance gates attendance reporting.
func CanTakeAttendance(s Set) bool {
	return s.HasAny(Admin, ClassTeacher, Teacher)
}

// CanManageUsers gates user and permission-group administration.
func CanManageUsers(s Set) bool {
	return s.Has(Admin)
}

// CanManageDuty gates duty-schedule imports and edits.
func CanManageDuty(s Set) bool {
	return s.Has(Admin)
}

// CanManageStudents gates roster edits and roster imports.
func CanManageStudents(s Set) bool {
	return s.HasAny(Admin, ClassTeacher)
}
