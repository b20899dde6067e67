package controllers

import (
	"net/http"

	"esn-monitor/backend/app/dto"
	"esn-monitor/backend/app/models"
	"esn-monitor/backend/app/services"

	"github.com/rs/zerolog"
)

type AdminController struct {
	Users *services.UserService
	Fleet *services.FleetService
	Queue *services.CommandQueue
	Keys  *services.KeyService
	Log   zerolog.Logger
}

func NewAdminController(users *services.UserService, fleet *services.FleetService, queue *services.CommandQueue, keys *services.KeyService, log zerolog.Logger) *AdminController {
	return &AdminController{Users: users, Fleet: fleet, Queue: queue, Keys: keys, Log: log}
}

type createUserReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (c *AdminController) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserReq
	_ = decode(r, &req)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if err := c.Users.CreateUser(r.Context(), req.Username, req.Password, req.Role); err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (c *AdminController) Servers(w http.ResponseWriter, r *http.Request) {
	servers, err := c.Fleet.ListServers(r.Context())
	if err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, servers)
}

func (c *AdminController) Alerts(w http.ResponseWriter, r *http.Request) {
	serverID, ok := int64Param(r.URL.Query().Get("server_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "server_id is required")
		return
	}
	alerts, err := c.Fleet.ActiveAlerts(r.Context(), serverID)
	if err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	out := dto.AlertListResponse{ServerID: serverID, Alerts: make([]dto.AlertView, 0, len(alerts))}
	for _, a := range alerts {
		out.Alerts = append(out.Alerts, dto.AlertView{
			ID: a.ID, Severity: string(a.Severity), Source: a.Source, Alert: a.AlertText,
			Counter: a.Counter, StackTrace: a.Stacktrace, Timestamp: a.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *AdminController) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	serverID, ok := int64Param(r.URL.Query().Get("server_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "server_id is required")
		return
	}
	filename := r.PathValue("filename")
	cmd, err := c.Fleet.DeleteAlert(r.Context(), serverID, filename)
	if err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, dto.DeleteAlertResponse{Message: "Deletion command created", Filename: filename, ServerID: serverID, CommandID: cmd.ID})
}

func (c *AdminController) SendCommand(w http.ResponseWriter, r *http.Request) {
	var req dto.AdminSendCommandRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	ttl, err := services.TTLFromSeconds(req.TTLSeconds)
	if err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	cmd, err := c.Queue.Enqueue(r.Context(), services.EnqueueRequest{
		ServerID: req.ServerID,
		Type:     models.CommandType(req.Type),
		Payload:  req.Payload,
		TTL:      ttl,
	})
	if err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	resp := dto.AdminSendCommandResponse{Message: "Command queued", CommandID: cmd.ID, Status: string(cmd.Status)}
	if cmd.CorrelationID != nil {
		resp.CorrelationID = *cmd.CorrelationID
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (c *AdminController) Commands(w http.ResponseWriter, r *http.Request) {
	serverID, ok := int64Param(r.URL.Query().Get("server_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "server_id is required")
		return
	}
	cmds, err := c.Queue.List(r.Context(), serverID, models.CommandStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, cmds)
}

func (c *AdminController) Command(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid command id")
		return
	}
	detail, err := c.Queue.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (c *AdminController) ListKeys(w http.ResponseWriter, r *http.Request) {
	serverID, ok := int64Param(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid server id")
		return
	}
	keys, err := c.Keys.List(r.Context(), serverID)
	if err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (c *AdminController) IssueKey(w http.ResponseWriter, r *http.Request) {
	serverID, ok := int64Param(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid server id")
		return
	}
	issued, err := c.Keys.Issue(r.Context(), serverID)
	if err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, issued)
}

func (c *AdminController) RevokeKey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := c.Keys.Revoke(r.Context(), id); err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RevokeKeyResponse{Message: "Key revoked", ID: id})
}
