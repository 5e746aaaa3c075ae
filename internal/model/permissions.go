package model

import "github.com/google/uuid"

// Feature names an area of the application that permission groups grant
// access to.
type Feature string

const (
	FeatureStudents    Feature = "students"
	FeatureAttendance  Feature = "attendance"
	FeatureMeals       Feature = "meals"
	FeatureDuty        Feature = "duty_schedule"
	FeatureReports     Feature = "reports"
	FeatureUsers       Feature = "users"
	FeaturePermissions Feature = "permissions"
)

// Features lists every known feature in export column order.
var Features = []Feature{
	FeatureStudents,
	FeatureAttendance,
	FeatureMeals,
	FeatureDuty,
	FeatureReports,
	FeatureUsers,
	FeaturePermissions,
}

var featureLabels = map[Feature]string{
	FeatureStudents:    "Học sinh",
	FeatureAttendance:  "Điểm danh",
	FeatureMeals:       "Báo ăn",
	FeatureDuty:        "Lịch trực",
	FeatureReports:     "Báo cáo",
	FeatureUsers:       "Người dùng",
	FeaturePermissions: "Phân quyền",
}

// Label returns the Vietnamese display label.
func (f Feature) Label() string {
	if l, ok := featureLabels[f]; ok {
		return l
	}
	return string(f)
}

// Valid reports whether f is a known feature.
func (f Feature) Valid() bool {
	_, ok := featureLabels[f]
	return ok
}

// Grant holds the view/create/edit/delete flags for one feature.
type Grant struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

// Merge returns the union of two grants.
func (g Grant) Merge(o Grant) Grant {
	return Grant{
		View:   g.View || o.View,
		Create: g.Create || o.Create,
		Edit:   g.Edit || o.Edit,
		Delete: g.Delete || o.Delete,
	}
}

// Empty reports whether no action is granted.
func (g Grant) Empty() bool {
	return !g.View && !g.Create && !g.Edit && !g.Delete
}

// ActionLabels returns the granted actions in view/create/edit/delete order.
func (g Grant) ActionLabels() []string {
	var out []string
	if g.View {
		out = append(out, "Xem")
	}
	if g.Create {
		out = append(out, "Thêm")
	}
	if g.Edit {
		out = append(out, "Sửa")
	}
	if g.Delete {
		out = append(out, "Xóa")
	}
	return out
}

// PermissionMatrix maps a user to the union of the grants of all groups the
// user belongs to.
type PermissionMatrix map[uuid.UUID]map[Feature]Grant

// BuildPermissionMatrix evaluates memberships against group grants.
// Memberships that point at unknown groups are ignored.
func BuildPermissionMatrix(groups []PermissionGroup, memberships []UserPermissionGroup) PermissionMatrix {
	byID := make(map[uuid.UUID]PermissionGroup, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	m := make(PermissionMatrix)
	for _, ms := range memberships {
		g, ok := byID[ms.GroupID]
		if !ok {
			continue
		}
		grants, ok := m[ms.UserID]
		if !ok {
			grants = make(map[Feature]Grant)
			m[ms.UserID] = grants
		}
		for f, gr := range g.Grants {
			grants[f] = grants[f].Merge(gr)
		}
	}
	return m
}

// Allows reports whether the user holds the given grant check for a feature.
func (m PermissionMatrix) Allows(userID uuid.UUID, f Feature, check func(Grant) bool) bool {
	grants, ok := m[userID]
	if !ok {
		return false
	}
	return check(grants[f])
}
