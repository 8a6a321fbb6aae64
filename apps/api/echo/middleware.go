package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core/access"
	sessionsvc "github.com/trezcool/examprep/services/session"
)

// sessionMiddleware checks that the token's session is still the client's current session,
// then loads the permission state of its user. Must run after the JWT middleware.
func sessionMiddleware(sessions *sessionsvc.Manager, loader access.Loader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}

			reqCtx := ctx.Request().Context()
			sess, err := sessions.Lookup(reqCtx, claims.ClientID)
			if err != nil {
				return errors.Wrap(err, "looking up session")
			}
			if sess == nil || sess.ID != claims.Id {
				return errSessionExpired
			}

			usr, err := loader.ResolveUser(reqCtx, *sess)
			if err != nil {
				if errors.Cause(err) == access.ErrUserInactive {
					return errUserInactive
				}
				return errors.Wrap(err, "resolving session user")
			}
			ctx.Set(contextSessionKey, *sess)
			ctx.Set(contextStateKey, loader.Load(reqCtx, &usr))
			return next(ctx)
		}
	}
}

// requireAccess only lets requests through when the request's permission state satisfies c.
func requireAccess(c access.Constraints) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			st, err := getContextState(ctx)
			if err != nil {
				return err
			}
			if !c.Allows(st) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

func getContextSession(ctx echo.Context) (access.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(access.Session); ok {
		return sess, nil
	}
	return access.Session{}, errUnauthorized
}

func getContextState(ctx echo.Context) (access.State, error) {
	if st, ok := ctx.Get(contextStateKey).(access.State); ok {
		return st, nil
	}
	return access.State{}, errUnauthorized
}
