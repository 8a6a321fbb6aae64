package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/access"
	"github.com/trezcool/examprep/core/exam"
)

type accessApi struct {
	roleMap access.RolePermissionMap
}

func registerAccessAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := accessApi{roleMap: deps.Loader.RoleMap}

	mg := g.Group("/me", authed...)
	mg.GET("", api.me)
	mg.GET("/tiers", api.tiers, requireAccess(access.Constraints{Permission: access.PermExamView}))

	rg := g.Group("/roles", authed...)
	rg.GET("", api.roles, requireAccess(access.Constraints{Permission: access.PermRoleView}))
}

func (api *accessApi) me(ctx echo.Context) error {
	st, err := getContextState(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MeResponse{
		User:        st.User,
		Permissions: st.Permissions.List(),
		Error:       st.Error,
	})
}

// tiers lists the tiers available to the selected package, which defaults to the user's.
// A selection above the user's package (STARTER when none) is forbidden, unless the
// user manages packages.
func (api *accessApi) tiers(ctx echo.Context) error {
	st, err := getContextState(ctx)
	if err != nil {
		return err
	}

	own := exam.LevelStarter
	if st.User != nil && st.User.Package != "" {
		own = st.User.Package
	}
	pkg := own
	if sel := core.CleanString(ctx.QueryParam("package")); sel != "" {
		if pkg, err = exam.ParseLevel(sel); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "package", Error: err.Error()})
		}
		if !exam.IsSuitable(pkg, own) && !st.HasPermission(access.PermPackageManage) {
			return errPackageNotAvailable
		}
	}
	return ctx.JSON(http.StatusOK, TiersResponse{Package: pkg, Tiers: exam.AvailableTiers(pkg)})
}

func (api *accessApi) roles(ctx echo.Context) error {
	roles := make(map[access.Role][]access.Permission, len(access.AllRoles))
	for _, role := range access.AllRoles {
		roles[role] = access.Resolve(role, api.roleMap).List()
	}
	return ctx.JSON(http.StatusOK, roles)
}

type (
	MeResponse struct {
		User        *access.User        `json:"user"`
		Permissions []access.Permission `json:"permissions"`
		Error       string              `json:"error,omitempty"`
	}

	TiersResponse struct {
		Package exam.Level   `json:"package"`
		Tiers   []exam.Level `json:"tiers"`
	}
)
