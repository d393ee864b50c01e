package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/unigate/unigate/core/notification"
)

type notificationApi struct {
	svc      *notification.Service
	validate *validator.Validate
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *notification.Service, validate *validator.Validate) {
	api := notificationApi{svc: svc, validate: validate}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.GET("/unread-count", api.unreadCount)
	ng.POST("", api.create, staffMiddleware())
	ng.PUT("/:id/read", api.markRead)
	ng.PUT("/:id/unread", api.markUnread)
	ng.POST("/read-all", api.markAllRead)
	ng.DELETE("/:id", api.destroy)
	ng.DELETE("", api.clear)
}

func (api *notificationApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	filter := new(notification.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []notification.Notification{})
	}

	notifs, err := api.svc.Query(ctx.Request().Context(), actor, filter)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) unreadCount(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	count, err := api.svc.CountUnread(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": count})
}

// create posts a staff announcement to a single user.
func (api *notificationApi) create(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data notification.NewNotification
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	notif, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, notif)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	return api.setRead(ctx, true)
}

func (api *notificationApi) markUnread(ctx echo.Context) error {
	return api.setRead(ctx, false)
}

func (api *notificationApi) setRead(ctx echo.Context, read bool) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	notif, err := api.svc.SetRead(ctx.Request().Context(), actor, ctx.Param("id"), read)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, notif)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	updated, err := api.svc.MarkAllRead(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"updated": updated})
}

func (api *notificationApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if err = api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *notificationApi) clear(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	deleted, err := api.svc.Clear(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "clearing notifications")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"deleted": deleted})
}
