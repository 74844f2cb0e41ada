package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ENGAGEMENT_EXCHANGE      = "engagement"
	ENGAGEMENT_CHANGED_KEY   = "engagement.changed"
	ENGAGEMENT_UPDATES_QUEUE = "engagement-updates"
)

type MQConn struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func New(url string) (*MQConn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	mq := &MQConn{
		conn: conn,
		ch:   ch,
	}
	if err := mq.declare(); err != nil {
		mq.Close()
		return nil, err
	}

	return mq, nil
}

func (mq *MQConn) declare() error {
	if err := mq.ch.ExchangeDeclare(ENGAGEMENT_EXCHANGE, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return err
	}

	if _, err := mq.ch.QueueDeclare(ENGAGEMENT_UPDATES_QUEUE, true, false, false, false, nil); err != nil {
		return err
	}

	return mq.ch.QueueBind(ENGAGEMENT_UPDATES_QUEUE, ENGAGEMENT_CHANGED_KEY, ENGAGEMENT_EXCHANGE, false, nil)
}

func (mq *MQConn) PublishJSON(ctx context.Context, exchange string, key string, body interface{}) error {
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return err
	}

	return mq.ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         bodyJSON,
	})
}

func (mq *MQConn) Consume(queue string) (<-chan amqp.Delivery, error) {
	return mq.ch.Consume(queue, "", false, false, false, false, nil)
}

func (mq *MQConn) Close() error {
	if err := mq.ch.Close(); err != nil {
		mq.conn.Close()
		return err
	}
	return mq.conn.Close()
}
