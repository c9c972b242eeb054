// Package events fans import progress out over redis pub/sub so that every API
// instance (and any push gateway in front of the app) can follow a run.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/logging"
)

var ErrNotConfigured = errors.New("redis is not configured")

type EventType string

const (
	EventStarted   EventType = "import.started"
	EventProgress  EventType = "import.progress"
	EventCompleted EventType = "import.completed"
)

// ProgressEvent is the JSON payload published on the channel.
type ProgressEvent struct {
	Type    EventType             `json:"type"`
	RunID   string                `json:"run_id"`
	Status  entities.ImportStatus `json:"status"`
	Percent int                   `json:"percent"`
	Counts  entities.ImportCounts `json:"counts"`
	Message string                `json:"message,omitempty"`
	At      time.Time             `json:"at"`
}

// Publisher is a best-effort progress reporter: publish failures are logged
// and never fail the import.
type Publisher struct {
	rdb     *goredis.Client
	channel string
	log     *logging.Logger
	now     func() time.Time
}

// NewPublisher connects to cfg.Addr and pings it. An empty address returns
// ErrNotConfigured.
func NewPublisher(ctx context.Context, cfg config.Redis, log *logging.Logger) (*Publisher, error) {
	if cfg.Addr == "" {
		return nil, ErrNotConfigured
	}
	channel := cfg.Channel
	if channel == "" {
		channel = "opic:import-progress"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Publisher{
		rdb:     rdb,
		channel: channel,
		log:     log.With("component", "events", "channel", channel),
		now:     time.Now,
	}, nil
}

func (p *Publisher) Channel() string {
	return p.channel
}

func (p *Publisher) StartRun(ctx context.Context, runID string) error {
	p.publish(ctx, ProgressEvent{
		Type:   EventStarted,
		RunID:  runID,
		Status: entities.ImportStatusProcessing,
	})
	return nil
}

func (p *Publisher) UpdateProgress(ctx context.Context, runID string, percent int, counts entities.ImportCounts) error {
	p.publish(ctx, ProgressEvent{
		Type:    EventProgress,
		RunID:   runID,
		Status:  entities.ImportStatusProcessing,
		Percent: percent,
		Counts:  counts,
	})
	return nil
}

func (p *Publisher) CompleteRun(ctx context.Context, runID string, status entities.ImportStatus, counts entities.ImportCounts, message string) error {
	ev := ProgressEvent{
		Type:    EventCompleted,
		RunID:   runID,
		Status:  status,
		Counts:  counts,
		Message: message,
	}
	if status == entities.ImportStatusSuccess {
		ev.Percent = 100
	}
	p.publish(ctx, ev)
	return nil
}

func (p *Publisher) publish(ctx context.Context, ev ProgressEvent) {
	ev.At = p.now().UTC()
	raw, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("failed to encode progress event", "run_id", ev.RunID, "error", err)
		return
	}
	if err := p.rdb.Publish(ctx, p.channel, raw).Err(); err != nil {
		p.log.Warn("failed to publish progress event", "run_id", ev.RunID, "type", ev.Type, "error", err)
	}
}

// Subscribe calls onEvent for every event on the channel until ctx is done.
func (p *Publisher) Subscribe(ctx context.Context, onEvent func(ProgressEvent)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev ProgressEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				p.log.Warn("dropping malformed progress event", "error", err)
				continue
			}
			onEvent(ev)
		}
	}
}

func (p *Publisher) Close() error {
	return p.rdb.Close()
}
