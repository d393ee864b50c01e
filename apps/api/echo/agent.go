package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/unigate/unigate/core/agent"
)

type agentApi struct {
	svc      *agent.Service
	validate *validator.Validate
}

func registerAgentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *agent.Service, validate *validator.Validate) {
	api := agentApi{svc: svc, validate: validate}

	ag := g.Group("/agents", jwt)
	ag.POST("", api.create, staffMiddleware())
	ag.GET("", api.query, staffMiddleware())
	ag.GET("/me", api.retrieveOwn)
	ag.GET("/:id", api.retrieve)
	ag.DELETE("/:id", api.destroy, adminMiddleware())

	cg := g.Group("/commissions", jwt)
	cg.POST("", api.createCommission, staffMiddleware())
	cg.GET("", api.queryCommissions)
	cg.PUT("/:id/status", api.setCommissionStatus, staffMiddleware())
}

func (api *agentApi) create(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data agent.NewAgent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAgent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	agt, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating agent")
	}
	return ctx.JSON(http.StatusCreated, agt)
}

func (api *agentApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	agents, err := api.svc.Query(ctx.Request().Context(), actor, ordering.Orderings)
	if err != nil {
		return err
	}
	if agents == nil {
		agents = []agent.Agent{}
	}
	return ctx.JSON(http.StatusOK, agents)
}

func (api *agentApi) retrieveOwn(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	agt, err := api.svc.GetOwn(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, agt)
}

func (api *agentApi) retrieve(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	agt, err := api.svc.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, agt)
}

func (api *agentApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if err = api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *agentApi) createCommission(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data agent.NewCommission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCommission")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	com, err := api.svc.CreateCommission(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, com)
}

func (api *agentApi) queryCommissions(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	filter := new(agent.CommissionFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []agent.Commission{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	coms, err := api.svc.QueryCommissions(ctx.Request().Context(), actor, filter, ordering.Orderings)
	if err != nil {
		return err
	}
	if coms == nil {
		coms = []agent.Commission{}
	}
	return ctx.JSON(http.StatusOK, coms)
}

func (api *agentApi) setCommissionStatus(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data CommissionStatusRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CommissionStatusRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	com, err := api.svc.SetCommissionStatus(ctx.Request().Context(), actor, ctx.Param("id"), data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, com)
}

type CommissionStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (cr *CommissionStatusRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(cr)
}
