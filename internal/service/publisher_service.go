package service

import (
	"context"
	"encoding/json"

	"central-ai-web/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	RequestRefresh(ctx context.Context, sid, reason string) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) RequestRefresh(ctx context.Context, sid, reason string) error {
	payload, err := json.Marshal(dto.RefreshMessage{SID: sid, Reason: reason})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return ps.publisher.Publish(ps.topicName, msg)
}
