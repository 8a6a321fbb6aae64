package access

// RolePermissionMap maps a Role to its permissions. A missing Role means no permissions.
type RolePermissionMap map[Role][]Permission

// DefaultRolePermissions are the built-in permissions of each role.
// Each role is spelled out on purpose: admin is not derived from teacher, nor teacher from student.
var DefaultRolePermissions = RolePermissionMap{
	RoleStudent: {
		PermExamTake,
		PermExamView,
		PermResultView,
		PermDashboardView,
	},
	RoleTeacher: {
		PermExamView,
		PermResultView,
		PermDashboardView,
		PermQuestionView,
		PermQuestionCreate,
		PermQuestionEdit,
		PermExamCreate,
		PermExamEdit,
		PermStudentView,
		PermAnalyticsView,
	},
	RoleAdmin: {
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
	},
}

// Resolve returns the permissions of role.
// When override is non-nil it is the only source: roles missing from it get nothing.
// Otherwise DefaultRolePermissions apply. Unknown roles always get nothing.
func Resolve(role Role, override RolePermissionMap) PermissionSet {
	if !role.Valid() {
		return PermissionSet{}
	}
	source := DefaultRolePermissions
	if override != nil {
		source = override
	}
	return NewPermissionSet(source[role]...)
}
