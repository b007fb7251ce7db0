package service

import (
	"context"
	"encoding/json"

	"central-ai-web/internal/dto"
	"central-ai-web/internal/pkg/logger"
	"central-ai-web/pkg/session"

	"github.com/ThreeDotsLabs/watermill/message"
)

// RefreshNotifier delivers a refresh notice to the browser's open pages.
type RefreshNotifier interface {
	NotifyRefresh(sid string)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	notifier   RefreshNotifier
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	notifier RefreshNotifier,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		notifier:   notifier,
		logger:     log,
	}
}

// Consume starts forwarding refresh requests and returns once subscribed.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload dto.RefreshMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.SID == "" {
		cs.logger.Warn("RefreshConsumer", "Dropping malformed refresh message", map[string]interface{}{"uuid": msg.UUID})
		// Ack invalid messages to prevent infinite retry
		msg.Ack()
		return
	}

	cs.notifier.NotifyRefresh(payload.SID)
	cs.logger.Debug("RefreshConsumer", "Dashboard refresh forwarded", map[string]interface{}{
		"sid":    session.Fingerprint(payload.SID),
		"reason": payload.Reason,
	})
	msg.Ack()
}
