// Package notify delivers notification emails for accepted submissions.
package notify

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/formgate/formgate/internal/payload"
)

// DefaultTimeout bounds a single delivery when no timeout is configured
const DefaultTimeout = 10 * time.Second

// Message is a single email
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier delivers messages
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// SubmissionMessage builds the email sent to a form owner for an accepted
// submission
func SubmissionMessage(to, formName, submissionID string, data payload.Payload) (Message, error) {
	pretty, err := data.EncodeIndent()
	if err != nil {
		return Message{}, err
	}
	body := fmt.Sprintf(
		"<h2>New submission for %s</h2>\n<p><strong>Submission ID:</strong> %s</p>\n<pre>%s</pre>\n",
		html.EscapeString(formName), html.EscapeString(submissionID), html.EscapeString(string(pretty)),
	)
	return Message{
		To:      to,
		Subject: "New form submission: " + formName,
		HTML:    body,
	}, nil
}

// Dispatcher sends messages in the background, detached from the request
// that triggered them. Failures are logged and not retried.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher creates a new Dispatcher; a nil notifier disables delivery
func NewDispatcher(notifier Notifier, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		notifier: notifier,
		timeout:  timeout,
	}
}

// Enabled reports whether messages are delivered at all
func (d *Dispatcher) Enabled() bool {
	return d != nil && d.notifier != nil
}

// Dispatch starts delivering msg and returns immediately. ref identifies the
// message in logs.
func (d *Dispatcher) Dispatch(ref string, msg Message) {
	logger := log.WithFields(log.Fields{"ref": ref})
	if !d.Enabled() || msg.To == "" {
		logger.Debug("notification.skipped")
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.notifier.Send(ctx, msg); err != nil {
			logger.WithError(err).Error("notification.failed")
			return
		}
		logger.Debug("notification.sent")
	}()
}

// Wait blocks until all dispatched messages are done or ctx is done
func (d *Dispatcher) Wait(ctx context.Context) error {
	if d == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
