package service

import (
	"context"

	"central-ai-web/internal/pkg/logger"
	"central-ai-web/pkg/events"
	pktNats "central-ai-web/pkg/nats"
	"central-ai-web/pkg/session"
)

// SessionForgetter drops the per-browser state kept in this process.
type SessionForgetter interface {
	Forget(sid string)
}

// EventSubscriber is implemented by *nats.Subscriber.
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventTypes []string, handler pktNats.EventHandler) error
}

type ISessionEventService interface {
	Start(ctx context.Context) error
}

// SessionEventService closes the chats and wizard of a browser when any
// instance logs it out.
type SessionEventService struct {
	subscriber EventSubscriber
	forgetter  SessionForgetter
	logger     logger.ILogger
}

func NewSessionEventService(sub EventSubscriber, forgetter SessionForgetter, log logger.ILogger) *SessionEventService {
	return &SessionEventService{subscriber: sub, forgetter: forgetter, logger: log}
}

func (s *SessionEventService) Start(ctx context.Context) error {
	types := []string{events.AuthLogout, events.AuthSessionInvalidated}
	if err := s.subscriber.Subscribe(ctx, types, s.handleEvent); err != nil {
		s.logger.Error("SessionEventService", "Failed to start session event subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("SessionEventService", "Listening for session events", map[string]interface{}{"types": types})
	return nil
}

func (s *SessionEventService) handleEvent(_ context.Context, event events.Event) error {
	sid, _ := event.Payload()["sid"].(string)
	if sid == "" {
		s.logger.Warn("SessionEventService", "Session event without sid", map[string]interface{}{"type": event.EventType()})
		return nil
	}
	s.forgetter.Forget(sid)
	s.logger.Debug("SessionEventService", "Browser state dropped", map[string]interface{}{"type": event.EventType(), "sid": session.Fingerprint(sid)})
	return nil
}
