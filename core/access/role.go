package access

import (
	"sort"
	"strings"
	"time"

	"github.com/trezcool/examprep/core/exam"
)

// Role is the coarse-grained classification that determines a user's default permissions.
type Role string

// Roles
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// AllRoles lists every known Role, lowest first.
var AllRoles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

// Valid reports whether r is one of AllRoles.
func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole parses s into a Role. ok is false for unknown roles.
func ParseRole(s string) (r Role, ok bool) {
	r = Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Permission is an opaque `resource:action` token.
type Permission string

// Permissions
const (
	// Student
	PermExamTake      Permission = "exam:take"
	PermExamView      Permission = "exam:view"
	PermResultView    Permission = "result:view"
	PermDashboardView Permission = "dashboard:view"

	// Teacher
	PermQuestionView   Permission = "question:view"
	PermQuestionCreate Permission = "question:create"
	PermQuestionEdit   Permission = "question:edit"
	PermQuestionDelete Permission = "question:delete"
	PermExamCreate     Permission = "exam:create"
	PermExamEdit       Permission = "exam:edit"
	PermStudentView    Permission = "student:view"
	PermAnalyticsView  Permission = "analytics:view"

	// Admin
	PermUserCreate    Permission = "user:create"
	PermUserEdit      Permission = "user:edit"
	PermUserDelete    Permission = "user:delete"
	PermRoleView      Permission = "role:view"
	PermRoleAssign    Permission = "role:assign"
	PermPackageManage Permission = "package:manage"
	PermSettingsEdit  Permission = "settings:edit"
)

// AllPermissions is the closed vocabulary of permissions checks can be declared against.
var AllPermissions = []Permission{
	PermExamTake,
	PermExamView,
	PermResultView,
	PermDashboardView,
	PermQuestionView,
	PermQuestionCreate,
	PermQuestionEdit,
	PermQuestionDelete,
	PermExamCreate,
	PermExamEdit,
	PermStudentView,
	PermAnalyticsView,
	PermUserCreate,
	PermUserEdit,
	PermUserDelete,
	PermRoleView,
	PermRoleAssign,
	PermPackageManage,
	PermSettingsEdit,
}

var vocabulary = NewPermissionSet(AllPermissions...)

// Known reports whether p belongs to the vocabulary.
func (p Permission) Known() bool {
	_, ok := vocabulary[p]
	return ok
}

// Resource returns the part before the colon.
func (p Permission) Resource() string {
	res, _, _ := strings.Cut(string(p), ":")
	return res
}

// Action returns the part after the colon.
func (p Permission) Action() string {
	_, act, _ := strings.Cut(string(p), ":")
	return act
}

// PermissionSet is a set of permission tokens.
type PermissionSet map[Permission]struct{}

func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

func (set PermissionSet) Has(p Permission) bool {
	_, ok := set[p]
	return ok
}

func (set PermissionSet) Clone() PermissionSet {
	clone := make(PermissionSet, len(set))
	for p := range set {
		clone[p] = struct{}{}
	}
	return clone
}

// List returns the permissions sorted.
func (set PermissionSet) List() []Permission {
	perms := make([]Permission, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

// User is the authenticated identity, as mirrored from the session's user record.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	Package   exam.Level `json:"package,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
