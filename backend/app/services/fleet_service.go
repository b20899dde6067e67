package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"esn-monitor/backend/app/models"
	"esn-monitor/backend/app/repo"
)

// ServerView is a server as listed to administrators.
type ServerView struct {
	ID                int64      `json:"id"`
	RegionID          *uint      `json:"region_id"`
	RegionName        string     `json:"region_name"`
	IP                string     `json:"ip"`
	CGMVersion        string     `json:"cgm_version"`
	AdminVersion      string     `json:"admin_version"`
	LastUpdate        *time.Time `json:"last_update"`
	HasCriticalAlerts bool       `json:"has_critical_alerts"`
}

// FleetService backs the read side of the admin API and the alert deletion
// shortcut.
type FleetService struct {
	servers *repo.ServerRepository
	alerts  *repo.AlertRepository
	queue   *CommandQueue
}

func NewFleetService(servers *repo.ServerRepository, alerts *repo.AlertRepository, queue *CommandQueue) *FleetService {
	return &FleetService{servers: servers, alerts: alerts, queue: queue}
}

func (s *FleetService) ListServers(ctx context.Context) ([]ServerView, error) {
	servers, err := s.servers.ListAll(ctx)
	if err != nil {
		return nil, storeErr("list servers", err)
	}
	critical, err := s.servers.CriticalServerIDs(ctx)
	if err != nil {
		return nil, storeErr("list servers", err)
	}
	out := make([]ServerView, 0, len(servers))
	for _, srv := range servers {
		v := ServerView{
			ID:                srv.ID,
			RegionID:          srv.RegionID,
			IP:                srv.IP,
			CGMVersion:        srv.CGMVersion,
			AdminVersion:      srv.AdminVersion,
			LastUpdate:        srv.LastUpdate,
			HasCriticalAlerts: critical[srv.ID],
		}
		if srv.Region != nil {
			v.RegionName = srv.Region.Name
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *FleetService) GetServer(ctx context.Context, id int64) (*models.Server, error) {
	srv, err := s.servers.FindByID(ctx, id)
	return srv, storeErr("get server", err)
}

func (s *FleetService) ActiveAlerts(ctx context.Context, serverID int64) ([]models.Alert, error) {
	alerts, err := s.alerts.ActiveByServer(ctx, serverID)
	return alerts, storeErr("list alerts", err)
}

// DeleteAlert queues a DELETE_ALERT command asking the agent to remove an
// alert file. Nothing is deleted server-side.
func (s *FleetService) DeleteAlert(ctx context.Context, serverID int64, filename string) (*models.Command, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, validationf("filename is required")
	}
	payload, err := jsonObject(map[string]any{"filename": filename})
	if err != nil {
		return nil, err
	}
	return s.queue.Enqueue(ctx, EnqueueRequest{ServerID: serverID, Type: models.CommandDeleteAlert, Payload: payload})
}

func jsonObject(v map[string]any) (json.RawMessage, error) {
	return json.Marshal(v)
}
