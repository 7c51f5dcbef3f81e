package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mesh-explorer-be/internal/dto"
	"mesh-explorer-be/internal/entity"
	"mesh-explorer-be/internal/pkg/logger"
	"mesh-explorer-be/internal/repository/unitofwork"
	"mesh-explorer-be/pkg/events"
	pkgNats "mesh-explorer-be/pkg/nats"
	"mesh-explorer-be/pkg/protocol"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pkgNats.Publisher
	log            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SessionSegmentedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("consumer", "failed to unmarshal segmented message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed, retrying will not help
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	note := &entity.ChatMessage{
		Id:        uuid.New(),
		SessionId: payload.SessionId,
		Role:      protocol.RoleSystem,
		Text:      fmt.Sprintf("Mesh segmented into %d parts.", payload.TotalSegments),
		CreatedAt: time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, note); err != nil {
		cs.log.Error("consumer", "failed to append transcript note", map[string]interface{}{
			"session_id": payload.SessionId.String(),
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	if cs.eventPublisher != nil {
		event := events.SessionSegmented(payload.SessionId.String(), payload.TotalSegments)
		if err := cs.eventPublisher.Publish(ctx, event); err != nil {
			// Notifications are best effort.
			cs.log.Warn("consumer", "failed to publish NATS event", map[string]interface{}{
				"session_id": payload.SessionId.String(),
				"error":      err.Error(),
			})
		}
	}

	msg.Ack()
}
