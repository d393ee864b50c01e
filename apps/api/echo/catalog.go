package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/unigate/unigate/core/catalog"
)

type catalogApi struct {
	svc      *catalog.Service
	validate *validator.Validate
}

func registerCatalogAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *catalog.Service, validate *validator.Validate) {
	api := catalogApi{svc: svc, validate: validate}

	ug := g.Group("/universities", jwt)
	ug.POST("", api.createUniversity, staffMiddleware())
	ug.GET("", api.queryUniversities)
	ug.GET("/:id", api.retrieveUniversity)
	ug.DELETE("/:id", api.destroyUniversity, adminMiddleware())

	pg := g.Group("/programs", jwt)
	pg.POST("", api.createProgram, staffMiddleware())
	pg.GET("", api.queryPrograms)
	pg.GET("/:id", api.retrieveProgram)
	pg.DELETE("/:id", api.destroyProgram, adminMiddleware())
}

func (api *catalogApi) createUniversity(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data catalog.NewUniversity
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUniversity")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	uni, err := api.svc.CreateUniversity(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating university")
	}
	return ctx.JSON(http.StatusCreated, uni)
}

func (api *catalogApi) queryUniversities(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	filter := new(catalog.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []catalog.University{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	unis, err := api.svc.QueryUniversities(ctx.Request().Context(), actor, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying universities")
	}
	if unis == nil {
		unis = []catalog.University{}
	}
	return ctx.JSON(http.StatusOK, unis)
}

func (api *catalogApi) retrieveUniversity(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	uni, err := api.svc.GetUniversity(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, uni)
}

func (api *catalogApi) destroyUniversity(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if err = api.svc.DeleteUniversity(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *catalogApi) createProgram(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data catalog.NewProgram
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgram")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	prog, err := api.svc.CreateProgram(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating program")
	}
	return ctx.JSON(http.StatusCreated, prog)
}

func (api *catalogApi) queryPrograms(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	filter := new(catalog.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []catalog.Program{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	progs, err := api.svc.QueryPrograms(ctx.Request().Context(), actor, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying programs")
	}
	if progs == nil {
		progs = []catalog.Program{}
	}
	return ctx.JSON(http.StatusOK, progs)
}

func (api *catalogApi) retrieveProgram(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	prog, err := api.svc.GetProgram(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *catalogApi) destroyProgram(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if err = api.svc.DeleteProgram(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
