package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/unigate/unigate/core/application"
	"github.com/unigate/unigate/core/document"
)

type applicationApi struct {
	svc      *application.Service
	docSvc   *document.Service
	validate *validator.Validate
}

func registerApplicationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *application.Service, docSvc *document.Service, validate *validator.Validate) {
	api := applicationApi{svc: svc, docSvc: docSvc, validate: validate}

	ag := g.Group("/applications", jwt)
	ag.POST("", api.create)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id/status", api.updateStatus, staffMiddleware())
	ag.PUT("/:id/agent", api.assignAgent, staffMiddleware())
	ag.DELETE("/:id", api.destroy, adminMiddleware())
	ag.GET("/:id/documents", api.listDocuments)
}

func (api *applicationApi) create(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data application.NewApplication
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	app, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, app)
}

func (api *applicationApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	filter := new(application.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []application.Detail{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	details, err := api.svc.Query(ctx.Request().Context(), actor, filter, ordering.Orderings)
	if err != nil {
		return err
	}
	if details == nil {
		details = []application.Detail{}
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *applicationApi) retrieve(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	detail, err := api.svc.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *applicationApi) updateStatus(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data application.UpdateStatus
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	detail, err := api.svc.UpdateStatus(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *applicationApi) assignAgent(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data application.AssignAgent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignAgent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	detail, err := api.svc.AssignAgent(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *applicationApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if err = api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *applicationApi) listDocuments(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	docs, err := api.docSvc.ListByApplication(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []document.Document{}
	}
	return ctx.JSON(http.StatusOK, docs)
}
