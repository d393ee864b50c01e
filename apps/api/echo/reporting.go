package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/unigate/unigate/core/application"
	"github.com/unigate/unigate/core/reporting"
)

type reportingApi struct {
	svc *reporting.Service
}

func registerReportingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *reporting.Service) {
	api := reportingApi{svc: svc}

	rg := g.Group("/reports", jwt)
	rg.GET("/overview", api.overview, staffMiddleware())
	rg.GET("/agent", api.agent)
	rg.GET("/risk", api.risk, staffMiddleware())
}

func (api *reportingApi) overview(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	overview, err := api.svc.Overview(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, overview)
}

func (api *reportingApi) agent(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	dashboard, err := api.svc.Agent(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dashboard)
}

// risk returns the tenant's applications ranked by risk score, highest first.
func (api *reportingApi) risk(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	details, err := api.svc.Risk(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	if details == nil {
		details = []application.Detail{}
	}
	return ctx.JSON(http.StatusOK, details)
}
