package echoapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/realtime"
)

type feedApi struct {
	conf     *core.Config
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// registerFeedAPI mounts the websocket change feed. The middleware JWT check
// is bypassed: browsers cannot set headers on the upgrade request, so the
// token travels in the "token" query param (Authorization still accepted).
func registerFeedAPI(g *echo.Group, conf *core.Config, hub *realtime.Hub) {
	api := feedApi{
		conf: conf,
		hub:  hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range conf.Server.AllowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}

	g.GET("/feed", api.feed)
}

func (api *feedApi) feed(ctx echo.Context) error {
	raw := ctx.QueryParam("token")
	if raw == "" {
		raw = strings.TrimPrefix(ctx.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	}
	claims, err := parseToken(api.conf, raw)
	if err != nil {
		return err
	}
	actor := claims.Actor()

	conn, err := api.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return nil // the upgrader has already replied
	}

	sub := api.hub.Subscribe(actor.Tenant, actor.ID, actor.IsStaff())
	defer api.hub.Unsubscribe(sub)

	// reader: unmount = disconnect = unsubscribe
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok { // dropped for falling behind
				_ = conn.Close()
				return nil
			}
			if err := conn.WriteJSON(evt); err != nil {
				_ = conn.Close()
				return nil
			}
		case <-done:
			_ = conn.Close()
			return nil
		}
	}
}
