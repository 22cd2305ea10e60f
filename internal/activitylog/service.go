package activitylog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	activityDatamodel "github.com/frahmantamala/role-permission-api/internal/core/datamodel/activitylog"
	"github.com/frahmantamala/role-permission-api/internal/core/events"
	"gorm.io/datatypes"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Filter narrows a listing. Zero values mean "no constraint"; To is exclusive.
type Filter struct {
	LogName string
	From    time.Time
	To      time.Time
	Limit   int
	Offset  int
}

type RepositoryAPI interface {
	Create(ctx context.Context, log *activityDatamodel.ActivityLog) error
	List(ctx context.Context, filter Filter) ([]*activityDatamodel.ActivityLog, error)
}

// Service is both the audit sink used by handlers and the reader behind the activity log endpoints.
type Service struct {
	repo   RepositoryAPI
	bus    *events.EventBus
	async  bool
	logger *slog.Logger
}

// NewService subscribes the service to activity events on bus. With async set, Record returns
// before the entry is stored.
func NewService(repo RepositoryAPI, bus *events.EventBus, async bool, logger *slog.Logger) *Service {
	s := &Service{
		repo:   repo,
		bus:    bus,
		async:  async,
		logger: logger,
	}
	bus.Subscribe(events.EventTypeActivityRecorded, s.persist)
	return s
}

// Record appends entry to the activity log. Failures are logged and never reach the caller.
func (s *Service) Record(ctx context.Context, entry Entry) {
	props := make(map[string]interface{}, len(entry.Properties)+2)
	for k, v := range entry.Properties {
		props[k] = v
	}
	props["ip_address"] = entry.Actor.IP
	props["description"] = entry.Description

	event := events.NewActivityRecordedEvent(entry.LogName, entry.Event, entry.Description, entry.Actor.ID, props)

	var err error
	if s.async {
		err = s.bus.Publish(ctx, event)
	} else {
		err = s.bus.PublishSync(ctx, event)
	}
	if err != nil {
		s.logger.Error("failed to record activity",
			"log_name", entry.LogName,
			"event", entry.Event,
			"error", err)
	}
}

func (s *Service) persist(ctx context.Context, e events.Event) error {
	recorded, ok := e.(*events.ActivityRecordedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", e)
	}

	row := &activityDatamodel.ActivityLog{
		LogName:     recorded.LogName,
		Description: recorded.Description,
		Event:       recorded.Event,
		CauserID:    recorded.CauserID,
		Properties:  datatypes.JSONMap(recorded.Properties),
		CreatedAt:   recorded.OccurredAt(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return fmt.Errorf("store activity %q: %w", recorded.Event, err)
	}
	return nil
}

// Flush waits for asynchronously recorded entries to be stored.
func (s *Service) Flush() {
	s.bus.Wait()
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*ActivityLog, error) {
	return s.list(ctx, Filter{Limit: limit, Offset: offset})
}

func (s *Service) ListByLogName(ctx context.Context, logName string, limit, offset int) ([]*ActivityLog, error) {
	if logName == "" {
		return nil, errors.New("log name is required")
	}
	return s.list(ctx, Filter{LogName: logName, Limit: limit, Offset: offset})
}

// ListByDateRange returns entries created on any day from start through end, both inclusive.
func (s *Service) ListByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*ActivityLog, error) {
	from := startOfDay(start)
	to := startOfDay(end).AddDate(0, 0, 1)
	return s.list(ctx, Filter{From: from, To: to, Limit: limit, Offset: offset})
}

func (s *Service) list(ctx context.Context, filter Filter) ([]*ActivityLog, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list activity logs", "error", err, "log_name", filter.LogName)
		return nil, err
	}
	return FromDataModels(rows), nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
