package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/unigate/unigate/core/audit"
)

type auditApi struct {
	svc *audit.Service
}

func registerAuditAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *audit.Service) {
	api := auditApi{svc: svc}

	ag := g.Group("/audit", jwt, adminMiddleware())
	ag.GET("", api.query)
}

func (api *auditApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	entries, err := api.svc.Query(
		ctx.Request().Context(),
		actor,
		ctx.QueryParam("object_type"),
		ctx.QueryParam("object_id"),
		limit,
	)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}
