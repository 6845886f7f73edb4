package spam

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// DefaultRecaptchaURL is Google's siteverify endpoint
const DefaultRecaptchaURL = "https://www.google.com/recaptcha/api/siteverify"

// DefaultRecaptchaTimeout bounds a verification call when no timeout is configured
const DefaultRecaptchaTimeout = 5 * time.Second

// RecaptchaConf configures a RecaptchaVerifier
type RecaptchaConf struct {
	Secret  string
	URL     string
	Timeout time.Duration
}

// RecaptchaVerifier verifies tokens against the reCAPTCHA siteverify API
type RecaptchaVerifier struct {
	client  *resty.Client
	secret  string
	url     string
	timeout time.Duration
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// NewRecaptchaVerifier creates a new RecaptchaVerifier. It returns nil if no
// secret is configured.
func NewRecaptchaVerifier(conf RecaptchaConf) *RecaptchaVerifier {
	if conf.Secret == "" {
		return nil
	}
	if conf.URL == "" {
		conf.URL = DefaultRecaptchaURL
	}
	if conf.Timeout <= 0 {
		conf.Timeout = DefaultRecaptchaTimeout
	}
	return &RecaptchaVerifier{
		client:  resty.New().SetTimeout(conf.Timeout),
		secret:  conf.Secret,
		url:     conf.URL,
		timeout: conf.Timeout,
	}
}

// Client returns the underlying resty client
func (r *RecaptchaVerifier) Client() *resty.Client {
	return r.client
}

// Verify implements the Verifier interface
func (r *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) Verdict {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	form := map[string]string{
		"secret":   r.secret,
		"response": token,
	}
	if remoteIP != "" {
		form["remoteip"] = remoteIP
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post(r.url)
	if err != nil {
		log.WithError(err).Warn("recaptcha verification request failed")
		return Verdict{Reason: ReasonRecaptchaUnavailable}
	}
	if !resp.IsSuccess() {
		log.WithField("status", resp.StatusCode()).Warn("recaptcha verification returned non-success status")
		return Verdict{Reason: ReasonRecaptchaUnavailable}
	}
	var body siteverifyResponse
	if err = json.Unmarshal(resp.Body(), &body); err != nil {
		log.WithError(err).Warn("could not decode recaptcha response")
		return Verdict{Reason: ReasonRecaptchaUnavailable}
	}
	if !body.Success {
		log.WithField("error_codes", body.ErrorCodes).Debug("recaptcha verification failed")
		return Verdict{Reason: ReasonRecaptchaFailed}
	}
	return Verdict{OK: true}
}

// NewRecaptchaEngine creates an Engine backed by a RecaptchaVerifier, or an
// Engine without external verification if no secret is configured
func NewRecaptchaEngine(conf RecaptchaConf) *Engine {
	if v := NewRecaptchaVerifier(conf); v != nil {
		return NewEngine(v)
	}
	return NewEngine(nil)
}
