package message

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	CommandBus          CommandSender
	Logger              watermill.LoggerAdapter
	Notifier            NotificationSender
	PaymentsClient      PaymentsClient
	ReceiptsClient      ReceiptsClient
	RedisClient         *redis.Client
	SpreadsheetAppender SpreadsheetAppender
}

type Router struct {
	*message.Router
}

func NewRouter(deps RouterDeps) (*Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating router: %w", err)
	}

	addMiddlewares(router, deps.Logger)

	epConfig := cqrs.EventProcessorConfig{
		SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        deps.RedisClient,
				ConsumerGroup: "svc-bookings." + params.HandlerName,
			}, deps.Logger)
		},
		GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			return params.EventName, nil
		},
		Marshaler: cqrs.JSONMarshaler{
			GenerateName: cqrs.StructName,
		},
		Logger: deps.Logger,
	}

	ep, err := cqrs.NewEventProcessorWithConfig(router, epConfig)
	if err != nil {
		return nil, fmt.Errorf("creating event processor: %w", err)
	}

	h := NewHandler(deps.CommandBus, deps.Notifier, deps.ReceiptsClient, deps.SpreadsheetAppender)

	handlers := []cqrs.EventHandler{
		cqrs.NewEventHandler("append-booking-row", h.AppendBookingRow),
		cqrs.NewEventHandler("issue-receipt", h.IssueReceipt),
		cqrs.NewEventHandler("notify-booking-confirmed", h.NotifyBookingConfirmed),
		cqrs.NewEventHandler("refund-cancelled-booking", h.RefundCancelledBooking),
		cqrs.NewEventHandler("append-cancelled-row", h.AppendCancelledRow),
		cqrs.NewEventHandler("notify-participant-joined", h.NotifyParticipantJoined),
		cqrs.NewEventHandler("notify-participant-left", h.NotifyParticipantLeft),
		cqrs.NewEventHandler("append-completed-row", h.AppendCompletedRow),
	}

	if err := ep.AddHandlers(handlers...); err != nil {
		return nil, fmt.Errorf("adding event handlers: %w", err)
	}

	cpConfig := cqrs.CommandProcessorConfig{
		SubscriberConstructor: func(params cqrs.CommandProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        deps.RedisClient,
				ConsumerGroup: "svc-bookings." + params.HandlerName,
			}, deps.Logger)
		},
		GenerateSubscribeTopic: func(params cqrs.CommandProcessorGenerateSubscribeTopicParams) (string, error) {
			return commandTopicPrefix + params.CommandName, nil
		},
		Marshaler: cqrs.JSONMarshaler{
			GenerateName: cqrs.StructName,
		},
		Logger: deps.Logger,
	}

	cp, err := cqrs.NewCommandProcessorWithConfig(router, cpConfig)
	if err != nil {
		return nil, fmt.Errorf("creating command processor: %w", err)
	}

	ch := NewCommandHandler(deps.PaymentsClient, deps.ReceiptsClient)

	if err := cp.AddHandlers(cqrs.NewCommandHandler("refund-payment", ch.RefundPayment)); err != nil {
		return nil, fmt.Errorf("adding command handlers: %w", err)
	}

	return &Router{router}, nil
}
