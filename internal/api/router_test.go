package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/notifyhub/notify-dispatch/internal/api"
	"github.com/notifyhub/notify-dispatch/internal/api/handler"
	"github.com/notifyhub/notify-dispatch/internal/config"
	"github.com/notifyhub/notify-dispatch/internal/domain"
	"github.com/notifyhub/notify-dispatch/internal/queue"
	"github.com/notifyhub/notify-dispatch/internal/repository"
	"github.com/notifyhub/notify-dispatch/internal/service"
)

type testEnv struct {
	srv  http.Handler
	q    *queue.Queue
	repo *repository.MemoryNotificationLogRepository
}

func newEnv(t *testing.T, queueSize int, checks map[string]handler.Check) *testEnv {
	t.Helper()
	q := queue.New(queueSize)
	repo := repository.NewMemoryNotificationLogRepository()
	factory := service.NewFactory(config.DefaultRouting(), zap.NewNop())
	svc := service.NewNotificationService(factory, q, repo, nil, zap.NewNop())
	return &testEnv{
		srv:  api.NewRouter(svc, checks, prometheus.NewRegistry(), zap.NewNop()),
		q:    q,
		repo: repo,
	}
}

func (e *testEnv) do(method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

const validBody = `{
	"recipient": {"email": "a@b.com", "phone_number": "+15551234567", "username": "alice"},
	"notifications": [
		{"channel": "email", "payload": {"subject": "Welcome", "text_body": "Hello", "html_body": "<p>Hello</p>"}},
		{"channel": "sms", "payload": {"message": "Your code is 1234"}},
		{"channel": "log", "payload": {"log_message": "user registered"}}
	]
}`

func TestCreateNotifications_Accepted(t *testing.T) {
	env := newEnv(t, 10, nil)

	rec := env.do(http.MethodPost, "/api/v1/notifications", validBody, "X-Correlation-ID", "req-42")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Correlation-ID") != "req-42" {
		t.Fatal("correlation id should be echoed")
	}

	var resp struct {
		Message string `json:"message"`
		Queued  []struct {
			ID      string `json:"id"`
			Channel string `json:"channel"`
		} `json:"queued"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Notifications have been queued." || len(resp.Queued) != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	item, ok := env.q.Dequeue(ctx)
	if !ok || item.CorrelationID != "req-42" {
		t.Fatalf("queued item should carry the correlation id, got %+v", item)
	}
}

func TestCreateNotifications_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"recipient":`, http.StatusBadRequest},
		{"invalid email", `{"recipient":{"email":"not-an-email"},"notifications":[{"channel":"email","payload":{"subject":"s","text_body":"t"}}]}`, http.StatusUnprocessableEntity},
		{"invalid phone", `{"recipient":{"phone_number":"5551234"},"notifications":[{"channel":"sms","payload":{"message":"m"}}]}`, http.StatusUnprocessableEntity},
		{"missing field for channel", `{"recipient":{"email":"a@b.com"},"notifications":[{"channel":"log","payload":{"log_message":"m"}}]}`, http.StatusUnprocessableEntity},
		{"unknown channel", `{"recipient":{"email":"a@b.com"},"notifications":[{"channel":"fax","payload":{}}]}`, http.StatusUnprocessableEntity},
		{"empty notifications", `{"recipient":{"email":"a@b.com"},"notifications":[]}`, http.StatusUnprocessableEntity},
		{"missing payload", `{"recipient":{"email":"a@b.com"},"notifications":[{"channel":"email"}]}`, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newEnv(t, 10, nil)
			rec := env.do(http.MethodPost, "/api/v1/notifications", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tc.want, rec.Body)
			}
			if ready, _ := env.q.Depths(); ready != 0 {
				t.Fatal("nothing should be queued for a rejected request")
			}
		})
	}
}

func TestCreateNotifications_QueueFull(t *testing.T) {
	env := newEnv(t, 1, nil)
	_ = env.do(http.MethodPost, "/api/v1/notifications", validBody)

	rec := env.do(http.MethodPost, "/api/v1/notifications", validBody)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestNotificationLogs(t *testing.T) {
	env := newEnv(t, 10, nil)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, ch := range []domain.Channel{domain.ChannelEmail, domain.ChannelSMS, domain.ChannelEmail} {
		_ = env.repo.Create(context.Background(), &domain.NotificationLog{
			NotificationID: "n", RecipientIdentifier: "a@b.com", Channel: ch,
			Provider: "p", SentAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	rec := env.do(http.MethodGet, "/api/v1/notification-logs?channel=email&limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var page struct {
		Data  []domain.NotificationLog `json:"data"`
		Total int                      `json:"total"`
		Limit int                      `json:"limit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 || len(page.Data) != 1 || page.Data[0].ID != 3 || page.Limit != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	if rec := env.do(http.MethodGet, "/api/v1/notification-logs?channel=fax", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid channel filter: status = %d", rec.Code)
	}

	rec = env.do(http.MethodGet, "/api/v1/notification-logs/2", "")
	var one domain.NotificationLog
	_ = json.Unmarshal(rec.Body.Bytes(), &one)
	if rec.Code != http.StatusOK || one.Channel != domain.ChannelSMS {
		t.Fatalf("get by id: status=%d body=%s", rec.Code, rec.Body)
	}

	if rec := env.do(http.MethodGet, "/api/v1/notification-logs/999", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing id: status = %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/api/v1/notification-logs/abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id: status = %d", rec.Code)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	env := newEnv(t, 10, nil)
	_ = env.do(http.MethodPost, "/api/v1/notifications", validBody)

	rec := env.do(http.MethodGet, "/api/v1/metrics", "")
	var body struct {
		QueueDepth map[string]int `json:"queue_depth"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.QueueDepth["ready"] != 3 || body.QueueDepth["total"] != 3 {
		t.Fatalf("unexpected snapshot %+v", body.QueueDepth)
	}

	if rec := env.do(http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK {
		t.Fatalf("prometheus endpoint status = %d", rec.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	healthy := newEnv(t, 1, map[string]handler.Check{
		"database": func(context.Context) error { return nil },
	})
	if rec := healthy.do(http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if rec := healthy.do(http.MethodGet, "/ready", ""); rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d", rec.Code)
	}

	broken := newEnv(t, 1, map[string]handler.Check{
		"nats": func(context.Context) error { return errors.New("connection closed") },
	})
	rec := broken.do(http.MethodGet, "/ready", "")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "connection closed") {
		t.Fatalf("ready status = %d body = %s", rec.Code, rec.Body)
	}
}
