package activitylog

import (
	"net"
	"net/http"
	"time"

	"github.com/frahmantamala/role-permission-api/internal"
	activityDatamodel "github.com/frahmantamala/role-permission-api/internal/core/datamodel/activitylog"
)

// Actor identifies who performed an operation and from where.
type Actor struct {
	ID *string
	IP string
}

// ActorFromRequest resolves the authenticated principal and the client address of r.
func ActorFromRequest(r *http.Request) Actor {
	var actor Actor
	if p, ok := internal.PrincipalFromContext(r.Context()); ok && p.ID != "" {
		id := p.ID
		actor.ID = &id
	}

	actor.IP = r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		actor.IP = host
	}
	return actor
}

// Entry is one audit record as produced by a handler.
type Entry struct {
	LogName     string
	Event       string
	Description string
	Actor       Actor
	Properties  map[string]interface{}
}

type ActivityLog struct {
	ID          int64                  `json:"id"`
	LogName     string                 `json:"log_name"`
	Description string                 `json:"description"`
	Event       string                 `json:"event"`
	CauserID    *string                `json:"causer_id"`
	Properties  map[string]interface{} `json:"properties"`
	CreatedAt   time.Time              `json:"created_at"`
}

func FromDataModel(row *activityDatamodel.ActivityLog) *ActivityLog {
	props := map[string]interface{}(row.Properties)
	if props == nil {
		props = map[string]interface{}{}
	}
	return &ActivityLog{
		ID:          row.ID,
		LogName:     row.LogName,
		Description: row.Description,
		Event:       row.Event,
		CauserID:    row.CauserID,
		Properties:  props,
		CreatedAt:   row.CreatedAt,
	}
}

func FromDataModels(rows []*activityDatamodel.ActivityLog) []*ActivityLog {
	logs := make([]*ActivityLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, FromDataModel(row))
	}
	return logs
}
