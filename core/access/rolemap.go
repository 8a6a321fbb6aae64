package access

import (
	"os"
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/examprep/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	permissionTag   = "permission"
	permissionText  = "permissions must be of the form resource:action"
	permissionRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*:[a-z][a-z0-9_]*$`)

	roleMapRules = "dive,keys,role,endkeys,dive,permission"
)

// InitValidators registers the access validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(permissionTag, permissionValidation)
	core.RegisterCustomTranslation(validate, translator, permissionTag, permissionText)
}

// roleValidation checks that the field is one of AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).Valid()
}

// permissionValidation only checks the token shape; well-formed unknown tokens are allowed.
func permissionValidation(fl validator.FieldLevel) bool {
	return permissionRegex.MatchString(fl.Field().String())
}

// ParseRoleMap decodes a YAML role map, e.g.:
//
//	student: [exam:take, exam:view]
//	teacher: []
func ParseRoleMap(data []byte, validate *validator.Validate) (RolePermissionMap, error) {
	var raw map[Role][]Permission
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding role map")
	}
	if err := validate.Var(raw, roleMapRules); err != nil {
		return nil, errors.Wrap(err, "validating role map")
	}
	m := make(RolePermissionMap, len(raw))
	for role, perms := range raw {
		if perms == nil {
			perms = []Permission{}
		}
		m[role] = perms
	}
	return m, nil
}

// LoadRoleMap reads the role map at path. An empty path means no override (nil map).
func LoadRoleMap(path string, validate *validator.Validate) (RolePermissionMap, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading role map %s", path)
	}
	return ParseRoleMap(data, validate)
}
