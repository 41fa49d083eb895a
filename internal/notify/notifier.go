// Package notify delivers best-effort customer and business notifications.
// Delivery never blocks or fails the operation that triggered it.
package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

type Kind string

const (
	KindOrderConfirmation Kind = "order_confirmation"
	KindBusinessAlert     Kind = "business_alert"
	KindContactReceived   Kind = "contact_received"
	KindBalancePaid       Kind = "balance_paid"
)

type Message struct {
	Kind    Kind
	To      string
	Subject string
	Body    string
}

// Notifier sends a single message. Implementations may block; the Dispatcher
// bounds each call with a timeout.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the process log instead of sending mail.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, msg Message) error {
	log.Printf("[NOTIFY] [INFO] %s -> %s: %s", msg.Kind, msg.To, msg.Subject)
	return nil
}

const defaultSendTimeout = 10 * time.Second

type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Dispatcher{notifier: n, timeout: timeout}
}

// Dispatch hands each message to its own goroutine and returns immediately.
// Failures and panics are logged and dropped.
func (d *Dispatcher) Dispatch(msgs ...Message) {
	for _, msg := range msgs {
		if msg.To == "" {
			log.Printf("[NOTIFY] [WARN] %s skipped: no recipient", msg.Kind)
			continue
		}

		d.wg.Add(1)
		go func(msg Message) {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[NOTIFY] [ERROR] %s to %s panicked: %v", msg.Kind, msg.To, r)
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()

			if err := d.notifier.Send(ctx, msg); err != nil {
				log.Printf("[NOTIFY] [ERROR] %s to %s failed: %v", msg.Kind, msg.To, err)
			}
		}(msg)
	}
}

// Wait blocks until every dispatched message has been attempted.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
