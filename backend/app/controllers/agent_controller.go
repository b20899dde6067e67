package controllers

import (
	"net/http"

	"esn-monitor/backend/app/dto"
	"esn-monitor/backend/app/models"
	"esn-monitor/backend/app/services"

	"github.com/rs/zerolog"
)

const DefaultKeyHeader = "X-API-Key"

type AgentController struct {
	Gateway   *services.Gateway
	KeyHeader string
	Log       zerolog.Logger
}

func NewAgentController(gw *services.Gateway, keyHeader string, log zerolog.Logger) *AgentController {
	if keyHeader == "" {
		keyHeader = DefaultKeyHeader
	}
	return &AgentController{Gateway: gw, KeyHeader: keyHeader, Log: log}
}

// credential returns the presented key, writing 401 when it is absent.
func (c *AgentController) credential(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := r.Header.Get(c.KeyHeader)
	if key == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return key, true
}

func (c *AgentController) Status(w http.ResponseWriter, r *http.Request) {
	key, ok := c.credential(w, r)
	if !ok {
		return
	}
	var req dto.AgentStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	rep := services.StatusReport{
		ServerID:     req.ServerID,
		RegionID:     req.RegionID,
		IP:           req.IP,
		CGMVersion:   req.CGMVersion,
		AdminVersion: req.AdminVersion,
		Timestamp:    req.Timestamp,
		RawStatus:    req.RawStatus,
	}
	if err := c.Gateway.ReportStatus(r.Context(), key, rep); err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AgentStatusResponse{Message: "Status stored", ServerID: req.ServerID})
}

func (c *AgentController) Alerts(w http.ResponseWriter, r *http.Request) {
	key, ok := c.credential(w, r)
	if !ok {
		return
	}
	var req dto.AgentAlertsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	items := make([]services.AlertItem, 0, len(req.Alerts))
	for _, a := range req.Alerts {
		items = append(items, services.AlertItem{
			Severity:   models.Severity(a.Severity),
			Source:     a.Source,
			Alert:      a.Alert,
			Counter:    a.Counter,
			Stacktrace: a.StackTrace,
			Timestamp:  a.Timestamp,
		})
	}
	n, err := c.Gateway.ReportAlerts(r.Context(), key, req.ServerID, items)
	if err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AgentAlertsResponse{Message: "Alerts stored", Count: n})
}

func (c *AgentController) Commands(w http.ResponseWriter, r *http.Request) {
	key, ok := c.credential(w, r)
	if !ok {
		return
	}
	serverID, ok := int64Param(r.URL.Query().Get("server_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "server_id is required")
		return
	}
	cmds, err := c.Gateway.PollCommands(r.Context(), key, serverID)
	if err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	out := make([]dto.AgentCommand, 0, len(cmds))
	for _, cmd := range cmds {
		out = append(out, dto.AgentCommand{ID: cmd.ID, Type: string(cmd.Type), Payload: []byte(cmd.Payload)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *AgentController) Result(w http.ResponseWriter, r *http.Request) {
	key, ok := c.credential(w, r)
	if !ok {
		return
	}
	commandID, ok := int64Param(r.PathValue("command_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid command id")
		return
	}
	var req dto.CommandResultRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	res, err := c.Gateway.ReportResult(r.Context(), key, commandID, req.Status, req.Message)
	if err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CommandResultResponse{Message: "Result saved", CommandID: commandID, ResultID: res.ID})
}
