package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/unigate/unigate/core/messaging"
)

type messagingApi struct {
	svc      *messaging.Service
	validate *validator.Validate
}

func registerMessagingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *messaging.Service, validate *validator.Validate) {
	api := messagingApi{svc: svc, validate: validate}

	cg := g.Group("/conversations", jwt)
	cg.POST("", api.getOrCreate)
	cg.GET("", api.list)
	cg.GET("/:id/messages", api.listMessages)
	cg.POST("/:id/messages", api.sendMessage)
	cg.POST("/broadcast", api.broadcast, staffMiddleware())

	g.GET("/contacts", api.contacts, jwt)
}

func (api *messagingApi) getOrCreate(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data messaging.StartConversation
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartConversation")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	conv, err := api.svc.GetOrCreateConversation(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, conv)
}

func (api *messagingApi) list(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	convs, err := api.svc.ListConversations(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "listing conversations")
	}
	if convs == nil {
		convs = []messaging.Summary{}
	}
	return ctx.JSON(http.StatusOK, convs)
}

func (api *messagingApi) listMessages(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	msgs, err := api.svc.ListMessages(ctx.Request().Context(), actor, ctx.Param("id"), limit)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []messaging.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messagingApi) sendMessage(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data messaging.NewMessage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	msg, err := api.svc.SendMessage(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *messagingApi) broadcast(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data messaging.NewBroadcast
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBroadcast")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	conv, err := api.svc.Broadcast(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, conv)
}

func (api *messagingApi) contacts(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	contacts, err := api.svc.Contacts(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "listing contacts")
	}
	if contacts == nil {
		contacts = []messaging.Contact{}
	}
	return ctx.JSON(http.StatusOK, contacts)
}
