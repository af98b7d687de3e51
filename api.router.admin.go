package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupAdminRoutes injects the pages endpoints of every resource. The
// routes are static per resource since httprouter does not allow a
// `:resource` wildcard next to the static admin paths.
func (api *APIHandler) SetupAdminRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	for _, resource := range ResourcePaths {
		base := "/admin/" + resource
		router.GET(base, m.admin(api.GetPage(resource)))
		router.POST(base+"/reload", m.admin(api.ReloadPage(resource)))
		router.PUT(base+"/draft", m.admin(api.UpdateDraft(resource)))
		router.POST(base+"/edit/:id", m.admin(api.BeginEdit(resource)))
		router.POST(base+"/submit", m.admin(api.SubmitDraft(resource)))
		router.POST(base+"/clear", m.admin(api.ClearDraft(resource)))
		router.DELETE(base+"/items/:id", m.admin(api.RequestDelete(resource)))
		router.POST(base+"/delete/confirm", m.admin(api.ConfirmDelete(resource)))
		router.POST(base+"/delete/cancel", m.admin(api.CancelDelete(resource)))
		router.DELETE(base+"/notification", m.admin(api.DismissNotification(resource)))
	}
	router.GET("/admin/book-details/:id", m.admin(api.GetBookDetails))
	router.GET(NotificationsStreamPath, m.admin(api.StreamNotifications))
	return router
}
