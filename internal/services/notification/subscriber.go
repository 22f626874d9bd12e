package notification

import (
	"context"
	"errors"
	"fmt"
	"io"

	"foodflow/internal/logger"
	"foodflow/internal/messaging"
	"foodflow/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// Consumer delivers message bodies until its context is done
type Consumer interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
	Close() error
}

// Subscriber prints a human-readable line for every order event
type Subscriber struct {
	consumer Consumer
	logger   *logger.Logger
	out      io.Writer
}

// NewSubscriber creates a subscriber writing notifications to out
func NewSubscriber(consumer Consumer, log *logger.Logger, out io.Writer) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   log,
		out:      out,
	}
}

// Run consumes until ctx is cancelled, then closes the consumer
func (s *Subscriber) Run(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	err := s.consumer.StartConsuming(ctx, s.HandleEvent)

	s.logger.Info("graceful_shutdown", "Stopping notification subscriber", requestID, nil)
	if closeErr := s.consumer.Close(); closeErr != nil {
		s.logger.Error("consumer_close_failed", "Failed to close consumer", requestID, closeErr, nil)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// HandleEvent decodes one order event and prints it
func (s *Subscriber) HandleEvent(ctx context.Context, body []byte) error {
	var event models.OrderEvent
	if err := messaging.ParseMessage(body, &event); err != nil {
		return fmt.Errorf("failed to parse order event: %w", err)
	}
	if event.Type == "" || event.OrderID == 0 {
		return fmt.Errorf("order event without type or order id: %w", messaging.ErrMalformed)
	}

	if _, err := fmt.Fprintln(s.out, FormatEvent(&event)); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}

	s.logger.Debug("notification_displayed", "Notification displayed", "", map[string]interface{}{
		"event":        event.Type,
		"order_id":     event.OrderID,
		"table_number": event.TableNumber,
		"changed_by":   event.ChangedBy,
	})
	return nil
}

// FormatEvent renders an order event as one line of text
func FormatEvent(event *models.OrderEvent) string {
	ts := event.Timestamp.Format(timeLayout)

	switch event.Type {
	case models.EventOrderCreated:
		urgent := ""
		if event.Urgent {
			urgent = " URGENT"
		}
		return fmt.Sprintf("[%s]%s Order %d placed for table %d by %s%s.",
			ts, urgent, event.OrderID, event.TableNumber, event.ChangedBy, formatTotal(event))
	case models.EventOrderReady:
		return fmt.Sprintf("[%s] Order %d for table %d is ready to serve.",
			ts, event.OrderID, event.TableNumber)
	case models.EventOrderProblem:
		return fmt.Sprintf("[%s] Kitchen reported a problem with order %d for table %d (%s).",
			ts, event.OrderID, event.TableNumber, event.ChangedBy)
	case models.EventOrderPaid:
		return fmt.Sprintf("[%s] Table %d paid order %d%s. Table is free.",
			ts, event.TableNumber, event.OrderID, formatTotal(event))
	default:
		return fmt.Sprintf("[%s] Order %d status changed from '%s' to '%s' by %s.",
			ts, event.OrderID, event.OldStatus, event.NewStatus, event.ChangedBy)
	}
}

func formatTotal(event *models.OrderEvent) string {
	if event.Total == nil {
		return ""
	}
	return ", total " + event.Total.StringFixed(2)
}
