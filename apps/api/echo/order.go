package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/access"
	"github.com/trezcool/examprep/core/order"
	"github.com/trezcool/examprep/core/user"
)

type orderApi struct {
	svc order.Service
}

func registerOrderAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := orderApi{svc: deps.OrderSvc}

	og := g.Group("/orders", authed...)
	og.POST("/:id/provision", api.provision, requireAccess(access.Constraints{Permission: access.PermUserCreate}))
}

func (api *orderApi) provision(ctx echo.Context) error {
	res, err := api.svc.Provision(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		switch errors.Cause(err) {
		case order.ErrNotFound:
			return errHttpNotFound
		case order.ErrNotPaid:
			return core.NewValidationError(order.ErrNotPaid)
		case order.ErrAlreadyProvisioned:
			return echo.NewHTTPError(http.StatusConflict, order.ErrAlreadyProvisioned.Error())
		}
		return errors.Wrap(err, "provisioning order")
	}

	code := http.StatusOK
	if res.Created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, ProvisionResponse{Order: res.Order, User: res.User, Created: res.Created})
}

type ProvisionResponse struct {
	Order   order.Order `json:"order"`
	User    user.User   `json:"user"`
	Created bool        `json:"created"`
}
