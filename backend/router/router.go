package router

import (
	"net/http"

	"esn-monitor/backend/app/controllers"
	"esn-monitor/backend/app/middleware"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Controllers struct {
	HTTP  *controllers.HTTPController
	Auth  *controllers.AuthController
	Agent *controllers.AgentController
	Admin *controllers.AdminController
}

const (
	agentPrefix = "/api/v1/agent"
	adminPrefix = "/api/v1/admin"
)

func NewRouter(c Controllers, mw *middleware.Auth) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, middleware.WithRoute(pattern, h))
	}

	// public
	handle("GET /ping", http.HandlerFunc(c.HTTP.Ping))
	handle("GET /metrics", promhttp.Handler())
	handle("POST "+adminPrefix+"/auth/login", http.HandlerFunc(c.Auth.Login))

	// agent endpoints, X-API-Key checked by the gateway
	handle("POST "+agentPrefix+"/status", http.HandlerFunc(c.Agent.Status))
	handle("POST "+agentPrefix+"/alerts", http.HandlerFunc(c.Agent.Alerts))
	handle("GET "+agentPrefix+"/commands", http.HandlerFunc(c.Agent.Commands))
	handle("POST "+agentPrefix+"/commands/{command_id}/result", http.HandlerFunc(c.Agent.Result))

	// any console user
	handle("GET "+adminPrefix+"/servers", mw.RequireAuth(http.HandlerFunc(c.Admin.Servers)))
	handle("GET "+adminPrefix+"/alerts", mw.RequireAuth(http.HandlerFunc(c.Admin.Alerts)))
	handle("GET "+adminPrefix+"/commands", mw.RequireAuth(http.HandlerFunc(c.Admin.Commands)))
	handle("GET "+adminPrefix+"/commands/{id}", mw.RequireAuth(http.HandlerFunc(c.Admin.Command)))

	// admin-only
	handle("POST "+adminPrefix+"/users", mw.RequireAdmin(http.HandlerFunc(c.Admin.CreateUser)))
	handle("DELETE "+adminPrefix+"/alerts/{filename}", mw.RequireAdmin(http.HandlerFunc(c.Admin.DeleteAlert)))
	handle("POST "+adminPrefix+"/commands/send", mw.RequireAdmin(http.HandlerFunc(c.Admin.SendCommand)))
	handle("GET "+adminPrefix+"/servers/{id}/keys", mw.RequireAdmin(http.HandlerFunc(c.Admin.ListKeys)))
	handle("POST "+adminPrefix+"/servers/{id}/keys", mw.RequireAdmin(http.HandlerFunc(c.Admin.IssueKey)))
	handle("DELETE "+adminPrefix+"/keys/{id}", mw.RequireAdmin(http.HandlerFunc(c.Admin.RevokeKey)))

	return mux
}
