package queue

import (
	"context"
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// FileProcessor is what the worker drives for each file-ready event. The
// processing itself is idempotent, so at-least-once delivery is safe.
type FileProcessor interface {
	ProcessFile(ctx context.Context, fileUUID string) error
}

// ErrNotReady signals a file that cannot be dispatched yet (unclassified,
// missing config). The event is acked; the redispatch worker will
// re-enqueue the file once it becomes dispatchable.
var ErrNotReady = errors.New("file not ready for dispatch")

type Worker struct {
	Channel   *amqp.Channel
	Processor FileProcessor
	Log       *logrus.Logger
}

func NewWorker(ch *amqp.Channel, processor FileProcessor, log *logrus.Logger) *Worker {
	return &Worker{Channel: ch, Processor: processor, Log: log}
}

// Start consumes file-ready events until ctx is cancelled. Manual acks:
// failed and malformed deliveries are dead-lettered rather than requeued
// (an immediate requeue of a transient failure just hot-loops); the
// redispatch worker re-enqueues unprocessed files on its own clock.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	w.Log.WithField("queue", queueName).Info("file worker consuming")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var payload FileReadyPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		w.Log.WithError(err).Warn("malformed file-ready payload, dead-lettering")
		d.Nack(false, false)
		return
	}

	log := w.Log.WithFields(logrus.Fields{
		"file_uuid": payload.FileUUID,
		"file_name": payload.Name,
	})

	err := w.Processor.ProcessFile(ctx, payload.FileUUID)
	switch {
	case err == nil:
		log.Info("file processed")
		d.Ack(false)
	case errors.Is(err, ErrNotReady):
		// Not an error: the file is waiting on classification or config.
		log.Info("file not yet dispatchable, will be re-enqueued later")
		d.Ack(false)
	default:
		log.WithError(err).Error("file processing failed, dead-lettering")
		d.Nack(false, false)
	}
}
