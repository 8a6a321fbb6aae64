package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	override := RolePermissionMap{
		RoleStudent: {PermExamTake},
		RoleTeacher: {},
	}

	tests := []struct {
		name     string
		role     Role
		override RolePermissionMap
		want     []Permission
	}{
		{name: "student defaults", role: RoleStudent, want: []Permission{PermDashboardView, PermExamTake, PermExamView, PermResultView}},
		{name: "unknown role", role: Role("guest"), want: []Permission{}},
		{name: "unknown role with override", role: Role("guest"), override: RolePermissionMap{"guest": {PermExamTake}}, want: []Permission{}},
		{name: "override used", role: RoleStudent, override: override, want: []Permission{PermExamTake}},
		{name: "override empty list", role: RoleTeacher, override: override, want: []Permission{}},
		{name: "role missing from override", role: RoleAdmin, override: override, want: []Permission{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.role, tc.override).List())
		})
	}
}

func TestDefaultRolePermissions(t *testing.T) {
	admin := Resolve(RoleAdmin, nil)
	teacher := Resolve(RoleTeacher, nil)
	student := Resolve(RoleStudent, nil)

	t.Run("admin holds the whole vocabulary", func(t *testing.T) {
		assert.Len(t, admin, len(AllPermissions))
		for _, p := range AllPermissions {
			assert.True(t, admin.Has(p), p)
		}
	})

	t.Run("teacher is a subset of admin", func(t *testing.T) {
		for p := range teacher {
			assert.True(t, admin.Has(p), p)
		}
		assert.False(t, teacher.Has(PermQuestionDelete))
		assert.False(t, teacher.Has(PermExamTake))
	})

	t.Run("student", func(t *testing.T) {
		assert.True(t, student.Has(PermExamTake))
		assert.False(t, student.Has(PermQuestionEdit))
	})

	t.Run("every default is in the vocabulary", func(t *testing.T) {
		for role, perms := range DefaultRolePermissions {
			for _, p := range perms {
				assert.True(t, p.Known(), "%s: %s", role, p)
			}
		}
	})

	t.Run("results are independent copies", func(t *testing.T) {
		perms := Resolve(RoleStudent, nil)
		delete(perms, PermExamTake)
		assert.True(t, Resolve(RoleStudent, nil).Has(PermExamTake))
	})
}

func TestPermission(t *testing.T) {
	assert.Equal(t, "question", PermQuestionEdit.Resource())
	assert.Equal(t, "edit", PermQuestionEdit.Action())
	assert.True(t, PermQuestionEdit.Known())
	assert.False(t, Permission("question:fly").Known())
	assert.Equal(t, "", Permission("nocolon").Action())
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Teacher ")
	assert.True(t, ok)
	assert.Equal(t, RoleTeacher, r)

	_, ok = ParseRole("guest")
	assert.False(t, ok)
}
