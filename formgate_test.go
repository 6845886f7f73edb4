package formgate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formgate/formgate/api/ownerapi"
	"github.com/formgate/formgate/internal/credential"
	"github.com/formgate/formgate/internal/intake"
	"github.com/formgate/formgate/internal/notify"
	"github.com/formgate/formgate/internal/ratelimit"
	"github.com/formgate/formgate/internal/spam"
	"github.com/formgate/formgate/internal/version"
	"github.com/formgate/formgate/storage"
	"github.com/formgate/formgate/storage/model"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (r *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type testServer struct {
	t        *testing.T
	app      *fiber.App
	store    *storage.Storage
	notifier *recordingNotifier
	dispatch *notify.Dispatcher
}

func newTestServer(t *testing.T, limits ratelimit.Conf, pinger Pinger) *testServer {
	t.Helper()
	store, err := storage.NewStorage(storage.Config{Driver: storage.DriverSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	if pinger == nil {
		pinger = store
	}

	ts := &testServer{
		t:        t,
		store:    store,
		notifier: &recordingNotifier{},
	}
	ts.dispatch = notify.NewDispatcher(ts.notifier, time.Second)
	backends := store.Backends()
	server, err := NewServer(
		ServerConf{}, Services{
			Storage: pinger,
			Intake: intake.New(
				intake.Config{
					Limiter:       ratelimit.NewMemory(limits),
					Forms:         backends.Forms,
					Submissions:   backends.Submissions,
					Spam:          spam.NewEngine(nil),
					Notifications: ts.dispatch,
				},
			),
			Credentials:   credential.NewManager(backends.Users, backends.APIKeys),
			Forms:         backends.Forms,
			Submissions:   backends.Submissions,
			Notifications: ts.dispatch,
			AccessLog:     io.Discard,
		}, ownerapi.Options{},
	)
	require.NoError(t, err)
	ts.app = server.App()
	return ts
}

type response struct {
	status int
	header http.Header
	body   map[string]any
}

func (ts *testServer) do(method, target, apiKey, body string) response {
	ts.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if apiKey != "" {
		req.Header.Set(ownerapi.HeaderAPIKey, apiKey)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(ts.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	r := response{
		status: resp.StatusCode,
		header: resp.Header,
	}
	if len(raw) > 0 {
		require.NoError(ts.t, json.Unmarshal(raw, &r.body), string(raw))
	}
	return r
}

func (ts *testServer) register(email string) (string, map[string]any) {
	ts.t.Helper()
	r := ts.do(fiber.MethodPost, "/api/users/register", "", `{"email":"`+email+`","name":"Owner"}`)
	require.Equal(ts.t, fiber.StatusCreated, r.status, r.body)
	return r.body["api_key"].(string), r.body["user"].(map[string]any)
}

func (ts *testServer) createForm(apiKey string) string {
	ts.t.Helper()
	r := ts.do(
		fiber.MethodPost, "/api/forms", apiKey,
		`{"name":"Contact","notify_email":"Owner@Example.com","schema":{"email":{"type":"string","required":true}}}`,
	)
	require.Equal(ts.t, fiber.StatusCreated, r.status, r.body)
	form := r.body["form"].(map[string]any)
	assert.Equal(ts.t, "owner@example.com", form["notify_email"])
	assert.Equal(ts.t, true, form["is_active"])
	return form["id"].(string)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, ratelimit.Conf{}, nil)
	r := ts.do(fiber.MethodGet, "/health", "", "")
	assert.Equal(t, fiber.StatusOK, r.status)
	assert.Equal(t, true, r.body["ok"])
	assert.Equal(t, ServiceName, r.body["service"])
	assert.Equal(t, version.VERSION, r.body["version"])
	assert.NotEmpty(t, r.header.Get(fiber.HeaderXRequestID))
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error {
	return errors.New("connection refused")
}

func TestReady(t *testing.T) {
	ts := newTestServer(t, ratelimit.Conf{}, nil)
	r := ts.do(fiber.MethodGet, "/ready", "", "")
	assert.Equal(t, fiber.StatusOK, r.status)
	assert.Equal(t, true, r.body["ok"])

	ts = newTestServer(t, ratelimit.Conf{}, failingPinger{})
	r = ts.do(fiber.MethodGet, "/ready", "", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, r.status)
	assert.Equal(t, MsgDatabaseUnavailable, r.body["error"])
	assert.Equal(t, r.header.Get(fiber.HeaderXRequestID), r.body["request_id"])
}

func TestSubmissionFlow(t *testing.T) {
	ts := newTestServer(t, ratelimit.Conf{}, nil)
	apiKey, _ := ts.register("owner@example.com")
	formID := ts.createForm(apiKey)

	r := ts.do(fiber.MethodPost, "/f/"+formID, "", `{"data":{"email":"visitor@example.com","msg":"hi"}}`)
	require.Equal(t, fiber.StatusCreated, r.status, r.body)
	assert.Equal(t, true, r.body["accepted"])
	assert.NotEmpty(t, r.body["submission_id"])
	assert.NotEmpty(t, r.body["created_at"])
	assert.Equal(t, "20", r.header.Get(HeaderRateLimitLimit))
	assert.Equal(t, "19", r.header.Get(HeaderRateLimitRemaining))
	assert.Equal(t, "60", r.header.Get(HeaderRateLimitReset))

	r = ts.do(fiber.MethodPost, "/f/"+formID, "", `{"data":{"email":"bot@example.com"},"website":"x"}`)
	require.Equal(t, fiber.StatusAccepted, r.status, r.body)
	assert.Equal(t, map[string]any{"accepted": true}, r.body)

	require.NoError(t, ts.dispatch.Wait(context.Background()))
	assert.Equal(t, 1, ts.notifier.count())

	r = ts.do(fiber.MethodGet, "/api/forms/"+formID+"/submissions?limit=1", apiKey, "")
	require.Equal(t, fiber.StatusOK, r.status, r.body)
	subs := r.body["submissions"].([]any)
	require.Len(t, subs, 1)
	latest := subs[0].(map[string]any)
	assert.Equal(t, true, latest["is_spam"])
	assert.Equal(t, "honeypot_triggered", latest["spam_reason"])
	assert.NotContains(t, latest, "ip")
	assert.Equal(
		t, map[string]any{"limit": float64(1), "offset": float64(0), "total": float64(2), "has_more": true},
		r.body["pagination"],
	)
}

func TestSubmissionValidation(t *testing.T) {
	ts := newTestServer(t, ratelimit.Conf{}, nil)
	apiKey, _ := ts.register("owner@example.com")
	formID := ts.createForm(apiKey)

	r := ts.do(fiber.MethodPost, "/f/"+formID, "", `{"data":{"msg":"no email"}}`)
	require.Equal(t, fiber.StatusBadRequest, r.status)
	errBody := r.body["error"].(map[string]any)
	assert.Equal(t, []any{}, errBody["formErrors"])
	assert.Contains(t, errBody["fieldErrors"], "email")

	r = ts.do(fiber.MethodPost, "/f/"+formID, "", `not json`)
	assert.Equal(t, fiber.StatusBadRequest, r.status)
}

func TestSubmissionUnknownForm(t *testing.T) {
	ts := newTestServer(t, ratelimit.Conf{}, nil)
	r := ts.do(fiber.MethodPost, "/f/0b7c6a4e-3f7a-4a8e-9f44-7c1d1b0f5a2e", "", `{"data":{}}`)
	assert.Equal(t, fiber.StatusNotFound, r.status)
	assert.Equal(t, intake.MsgFormNotFound, r.body["error"])
	assert.NotEmpty(t, r.body["request_id"])
}

func TestSubmissionRateLimit(t *testing.T) {
	ts := newTestServer(t, ratelimit.Conf{Window: time.Minute, Max: 2}, nil)
	apiKey, _ := ts.register("owner@example.com")
	formID := ts.createForm(apiKey)
	body := `{"data":{"email":"visitor@example.com"}}`

	for i := 0; i < 2; i++ {
		r := ts.do(fiber.MethodPost, "/f/"+formID, "", body)
		require.Equal(t, fiber.StatusCreated, r.status)
	}
	r := ts.do(fiber.MethodPost, "/f/"+formID, "", body)
	assert.Equal(t, fiber.StatusTooManyRequests, r.status)
	assert.Equal(t, "Rate limit exceeded. Please retry later.", r.body["error"])
	assert.Equal(t, "0", r.header.Get(HeaderRateLimitRemaining))
	assert.NotEmpty(t, r.header.Get(fiber.HeaderRetryAfter))
	require.NoError(t, ts.dispatch.Wait(context.Background()))
}

func TestOwnerAPIAuthentication(t *testing.T) {
	ts := newTestServer(t, ratelimit.Conf{}, nil)
	r := ts.do(fiber.MethodGet, "/api/forms", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, r.status)
	assert.Equal(t, credential.MsgMissingKey, r.body["error"])

	r = ts.do(fiber.MethodGet, "/api/forms", "fgk_live_unknown", "")
	assert.Equal(t, fiber.StatusUnauthorized, r.status)
	assert.Equal(t, credential.MsgInvalidKey, r.body["error"])

	apiKey, _ := ts.register("owner@example.com")
	r = ts.do(fiber.MethodGet, "/api/forms", apiKey, "")
	assert.Equal(t, fiber.StatusOK, r.status)
	assert.Equal(t, []any{}, r.body["forms"])

	_, err := ts.store.UsersStorage().SetPlan(context.Background(), "owner@example.com", model.PlanUnpaid)
	require.NoError(t, err)
	r = ts.do(fiber.MethodGet, "/api/forms", apiKey, "")
	assert.Equal(t, fiber.StatusPaymentRequired, r.status)
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t, ratelimit.Conf{}, nil)
	r := ts.do(fiber.MethodPost, "/api/users/register", "", `{"email":"nope","name":""}`)
	require.Equal(t, fiber.StatusBadRequest, r.status)
	fieldErrors := r.body["error"].(map[string]any)["fieldErrors"].(map[string]any)
	assert.Contains(t, fieldErrors, "email")
	assert.Contains(t, fieldErrors, "name")

	ts.register("owner@example.com")
	r = ts.do(fiber.MethodPost, "/api/users/register", "", `{"email":"OWNER@example.com"}`)
	assert.Equal(t, fiber.StatusConflict, r.status)
}

func TestFormUpdate(t *testing.T) {
	ts := newTestServer(t, ratelimit.Conf{}, nil)
	apiKey, _ := ts.register("owner@example.com")
	otherKey, _ := ts.register("other@example.com")
	formID := ts.createForm(apiKey)

	r := ts.do(fiber.MethodPatch, "/api/forms/"+formID, apiKey, `{"is_active":false,"name":"Renamed"}`)
	require.Equal(t, fiber.StatusOK, r.status, r.body)
	form := r.body["form"].(map[string]any)
	assert.Equal(t, "Renamed", form["name"])
	assert.Equal(t, false, form["is_active"])

	r = ts.do(fiber.MethodPost, "/f/"+formID, "", `{"data":{"email":"visitor@example.com"}}`)
	assert.Equal(t, fiber.StatusNotFound, r.status)

	r = ts.do(fiber.MethodPatch, "/api/forms/"+formID, otherKey, `{"name":"Mine"}`)
	assert.Equal(t, fiber.StatusNotFound, r.status)
	r = ts.do(fiber.MethodGet, "/api/forms/"+formID+"/submissions", otherKey, "")
	assert.Equal(t, fiber.StatusNotFound, r.status)

	r = ts.do(fiber.MethodPatch, "/api/forms/"+formID, apiKey, `{"schema":{"age":{"minLength":5,"maxLength":1}}}`)
	assert.Equal(t, fiber.StatusBadRequest, r.status)
	r = ts.do(fiber.MethodPatch, "/api/forms/not-a-uuid", apiKey, `{}`)
	assert.Equal(t, fiber.StatusBadRequest, r.status)
}

func TestKeyLifecycle(t *testing.T) {
	ts := newTestServer(t, ratelimit.Conf{}, nil)
	first, _ := ts.register("owner@example.com")

	r := ts.do(fiber.MethodPost, "/api/keys", first, "")
	require.Equal(t, fiber.StatusCreated, r.status, r.body)
	second := r.body["api_key"].(string)
	secondID := r.body["key"].(map[string]any)["id"].(string)
	assert.NotContains(t, r.body["key"], "key_hash")

	r = ts.do(fiber.MethodGet, "/api/keys", second, "")
	require.Equal(t, fiber.StatusOK, r.status)
	keys := r.body["keys"].([]any)
	require.Len(t, keys, 2)
	var firstID string
	for _, k := range keys {
		key := k.(map[string]any)
		assert.Equal(t, key["id"] == secondID, key["is_current"])
		if key["id"] != secondID {
			firstID = key["id"].(string)
		}
	}

	r = ts.do(fiber.MethodPost, "/api/keys/"+firstID+"/revoke", second, "")
	require.Equal(t, fiber.StatusOK, r.status, r.body)
	assert.NotNil(t, r.body["key"].(map[string]any)["revoked_at"])

	r = ts.do(fiber.MethodGet, "/api/keys", first, "")
	assert.Equal(t, fiber.StatusUnauthorized, r.status)

	r = ts.do(fiber.MethodPost, "/api/keys/"+secondID+"/revoke", second, "")
	assert.Equal(t, fiber.StatusConflict, r.status)
	assert.Equal(t, credential.MsgLastActiveKey, r.body["error"])

	r = ts.do(fiber.MethodPost, "/api/keys/not-a-uuid/revoke", second, "")
	assert.Equal(t, fiber.StatusBadRequest, r.status)
}

func TestDashboardOriginBlocked(t *testing.T) {
	ts := newTestServer(t, ratelimit.Conf{}, nil)
	req := httptest.NewRequest(fiber.MethodGet, "/api/keys", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://evil.example")
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodOptions, "/f/some-form", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://any.example")
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, fiber.MethodPost)
	resp, err = ts.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestHandleErrorHidesInternals(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handleError})
	app.Get(
		"/boom", func(*fiber.Ctx) error {
			return errors.New("secret database detail")
		},
	)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.Contains(t, string(raw), MsgInternal)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
