package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Defaults for the resend client
const (
	DefaultResendEndpoint = "https://api.resend.com/emails"
	DefaultFrom           = "no-reply@example.com"
)

// ResendConf configures a ResendNotifier
type ResendConf struct {
	APIKey   string
	From     string
	Endpoint string
	Timeout  time.Duration
}

// ResendNotifier sends emails through the Resend HTTP API
type ResendNotifier struct {
	client   *resty.Client
	apiKey   string
	from     string
	endpoint string
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// NewResendNotifier creates a new ResendNotifier; it returns nil if no api
// key is configured
func NewResendNotifier(conf ResendConf) *ResendNotifier {
	if conf.APIKey == "" {
		return nil
	}
	if conf.From == "" {
		conf.From = DefaultFrom
	}
	if conf.Endpoint == "" {
		conf.Endpoint = DefaultResendEndpoint
	}
	if conf.Timeout <= 0 {
		conf.Timeout = DefaultTimeout
	}
	client := resty.New().
		SetTimeout(conf.Timeout).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	return &ResendNotifier{
		client:   client,
		apiKey:   conf.APIKey,
		from:     conf.From,
		endpoint: conf.Endpoint,
	}
}

// Client returns the underlying resty client
func (r *ResendNotifier) Client() *resty.Client {
	return r.client
}

// Send implements the Notifier interface
func (r *ResendNotifier) Send(ctx context.Context, msg Message) error {
	res, err := r.client.R().
		SetContext(ctx).
		SetAuthToken(r.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(
			resendEmail{
				From:    r.from,
				To:      []string{msg.To},
				Subject: msg.Subject,
				HTML:    msg.HTML,
			},
		).
		Post(r.endpoint)
	if err != nil {
		return errors.Wrap(err, "email provider unreachable")
	}
	if res.IsError() {
		return errors.Errorf("email provider error: %d %s", res.StatusCode(), res.String())
	}
	return nil
}

// NewResendDispatcher creates a Dispatcher backed by a ResendNotifier, or a
// disabled Dispatcher if no api key is configured
func NewResendDispatcher(conf ResendConf) *Dispatcher {
	if n := NewResendNotifier(conf); n != nil {
		return NewDispatcher(n, conf.Timeout)
	}
	return NewDispatcher(nil, conf.Timeout)
}
