package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/unigate/unigate/services/ratelimit"
)

// roleMiddleware restricts a route to actors holding one of the given roles.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := getContextActor(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context actor")
			}
			for _, role := range roles {
				if actor.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

// staffMiddleware admits staff and admin actors.
func staffMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := getContextActor(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context actor")
			}
			if !actor.IsStaff() {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := getContextActor(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context actor")
			}
			if !actor.IsAdmin() {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// rateLimitMiddleware applies the limiter keyed by the acting user.
func rateLimitMiddleware(limiter ratelimit.Limiter, prefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := getContextActor(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context actor")
			}
			ok, err := limiter.Allow(ctx.Request().Context(), prefix+":"+actor.ID)
			if err != nil {
				return errors.Wrap(err, "checking rate limit")
			}
			if !ok {
				return errRateLimited
			}
			return next(ctx)
		}
	}
}
