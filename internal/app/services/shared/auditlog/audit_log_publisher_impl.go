package auditlog

import (
	"context"
	"fmt"
	"screening-service/internal/app/contracts"
	"screening-service/internal/app/models"
	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/exceptions"
	"sync"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type auditLogPublisher struct {
	ch         *amqp.Channel
	log        *zap.Logger
	queueName  string
	deployment string
	confirms   chan amqp.Confirmation
	mu         sync.Mutex
}

// NewAuditLogPublisher declares the durable audit queue and enables
// publisher confirms. Publish failures after construction are logged by the
// caller and never fail a screening request.
func NewAuditLogPublisher(conn *amqp.Connection, log *zap.Logger, queueName, deployment string) (contracts.AuditLogPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	)
	if err != nil {
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		return nil, err
	}

	return &auditLogPublisher{
		ch:         ch,
		log:        log,
		queueName:  queueName,
		deployment: deployment,
		confirms:   ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
	}, nil
}

func (p *auditLogPublisher) Publish(ctx context.Context, event models.AuditEvent) error {
	if event.Deployment == "" {
		event.Deployment = p.deployment
	}

	body, err := json.Marshal(event)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}

	if err := p.ch.PublishWithContext(ctx, "", p.queueName, false, false, msg); err != nil {
		return exceptions.ErrRabbitMQPublishMessage(err, p.queueName)
	}

	select {
	case confirmed := <-p.confirms:
		if !confirmed.Ack {
			return exceptions.ErrRabbitMQPublishMessage(fmt.Errorf("message not confirmed"), p.queueName)
		}
	case <-ctx.Done():
		return exceptions.ErrRabbitMQPublishMessage(ctx.Err(), p.queueName)
	}

	p.log.Debug("audit event published",
		zap.String("eventID", event.ID),
		zap.Strings("tags", event.Tags))
	return nil
}
