package main

import (
	_ "github.com/jeamon/library-admin/docs"
	"github.com/julienschmidt/httprouter"
	httpswagger "github.com/swaggo/http-swagger/v2"
)

// NotificationsStreamPath is the websocket endpoint of the session notifications.
const NotificationsStreamPath = "/admin/notifications/ws"

// MiddlewareMap contains the middlewares chains to use
// for public-facing, admin and ops requests.
type MiddlewareMap struct {
	public func(httprouter.Handle) httprouter.Handle
	admin  func(httprouter.Handle) httprouter.Handle
	ops    func(httprouter.Handle) httprouter.Handle
}

// SetupRoutes injects the admin and ops endpoints if required.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.NotFound = api.NotFound()
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	api.SetupAdminRoutes(router, m)
	if api.config.OpsEndpointsEnable {
		api.SetupOpsRoutes(router, m)
	}
	router.GET("/swagger/*any", m.public(api.OpsHandlerWrapper(httpswagger.WrapHandler)))
	return router
}
