package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erenbektas/blossom/internal/config"
	"github.com/erenbektas/blossom/internal/metrics"
	"github.com/erenbektas/blossom/internal/store"
)

const (
	testSlackSecret    = "8f742231b10e8888abcd99yyyzzz85a5"
	testSponsorsSecret = "sponsors-secret"
)

// capturingNotifier records outbound chat traffic. Webhook processing
// happens on background goroutines, so it is mutex-guarded.
type capturingNotifier struct {
	mu      sync.Mutex
	posts   []capturedPost
	updates []capturedUpdate
}

type capturedPost struct {
	channel string
	text    string
}

type capturedUpdate struct {
	channel string
	ts      string
	blocks  []json.RawMessage
}

func (n *capturingNotifier) PostMessage(_ context.Context, channel, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.posts = append(n.posts, capturedPost{channel: channel, text: text})
	return nil
}

func (n *capturingNotifier) UpdateMessage(_ context.Context, channel, ts string, blocks []json.RawMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, capturedUpdate{channel: channel, ts: ts, blocks: blocks})
	return nil
}

func (n *capturingNotifier) allPosts() []capturedPost {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]capturedPost(nil), n.posts...)
}

func (n *capturingNotifier) allUpdates() []capturedUpdate {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]capturedUpdate(nil), n.updates...)
}

type testHarness struct {
	server   *Server
	handler  http.Handler
	store    *store.Store
	notifier *capturingNotifier
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.DefaultConfig()
	cfg.Slack.SigningSecret = testSlackSecret
	cfg.GitHub.SponsorsSecret = testSponsorsSecret
	cfg.Slack.OrgChannel = "org_running"

	notifier := &capturingNotifier{}
	srv := New(cfg, st, notifier, nil, nil, metrics.NewMetrics(), zerolog.Nop())
	t.Cleanup(func() { srv.limiter.Stop() })

	return &testHarness{
		server:   srv,
		handler:  srv.Handler(),
		store:    st,
		notifier: notifier,
	}
}

// postSlack sends a signed Slack webhook and waits for any background
// processing it triggered.
func (h *testHarness) postSlack(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	req := httptest.NewRequest(http.MethodPost, "/webhook/slack", strings.NewReader(body))
	req.Header.Set(slackTimestampHeader, timestamp)
	req.Header.Set(slackSignatureHeader, slackSign(body, timestamp, testSlackSecret))

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	h.server.inFlight.Wait()
	return rec
}

func (h *testHarness) postSponsors(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/webhook/github", strings.NewReader(body))
	req.Header.Set(sponsorSignatureHeader, sponsorsSign(body, testSponsorsSecret))

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	h.server.inFlight.Wait()
	return rec
}

func (h *testHarness) api(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHarness(t)

	rec := h.api(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestSlackWebhookRejectsBadSignature(t *testing.T) {
	h := newTestHarness(t)

	body := `{"type":"event_callback"}`
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	// No signature at all
	req := httptest.NewRequest(http.MethodPost, "/webhook/slack", strings.NewReader(body))
	req.Header.Set(slackTimestampHeader, timestamp)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Signature over different content
	req = httptest.NewRequest(http.MethodPost, "/webhook/slack", strings.NewReader(body))
	req.Header.Set(slackTimestampHeader, timestamp)
	req.Header.Set(slackSignatureHeader, slackSign("other body", timestamp, testSlackSecret))
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Empty(t, h.notifier.allPosts())
}

func TestSlackWebhookURLVerification(t *testing.T) {
	h := newTestHarness(t)

	rec := h.postSlack(t, `{"type":"url_verification","challenge":"abc123"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "abc123")
}

func TestSlackWebhookDispatchesCommand(t *testing.T) {
	h := newTestHarness(t)

	body := `{"type":"event_callback","event":{"type":"app_mention","text":"<@UTPFNCQS2> Ping","channel":"C123"}}`
	rec := h.postSlack(t, body)
	assert.Equal(t, http.StatusOK, rec.Code)

	posts := h.notifier.allPosts()
	require.Len(t, posts, 1)
	assert.Equal(t, "C123", posts[0].channel)
	assert.Equal(t, "PONG", posts[0].text)
}

func TestSlackWebhookUnparseableMessage(t *testing.T) {
	h := newTestHarness(t)

	body := `{"type":"event_callback","event":{"type":"message","text":"no mention here","channel":"C123"}}`
	h.postSlack(t, body)

	posts := h.notifier.allPosts()
	require.Len(t, posts, 1)
	assert.Contains(t, posts[0].text, "wasn't able to parse")
}

func TestSlackWebhookIgnoresBotEchoes(t *testing.T) {
	h := newTestHarness(t)

	body := `{"type":"event_callback","event":{"type":"message","text":"<@UTPFNCQS2> ping","channel":"C123","bot_id":"B123"}}`
	rec := h.postSlack(t, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, h.notifier.allPosts())
}

func TestSlackWebhookRejectsMalformedJSON(t *testing.T) {
	h := newTestHarness(t)

	rec := h.postSlack(t, `{"type": not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSlackWebhookRejectsIncompleteBlockAction(t *testing.T) {
	h := newTestHarness(t)

	rec := h.postSlack(t, `{"type":"block_actions","actions":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSlackWebhookBlockAction(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	sub, err := h.store.CreateSubmission(ctx, store.Submission{
		URL:              "https://reddit.com/r/x/comments/abc/post/",
		RemovedFromQueue: true,
	})
	require.NoError(t, err)

	body := fmt.Sprintf(`{
		"type": "block_actions",
		"actions": [{"value": "keep_submission_%d"}],
		"channel": {"id": "C123"},
		"message": {"ts": "1234.5678", "blocks": [{"type":"section","text":{"type":"mrkdwn","text":"reported"}}]}
	}`, sub.ID)

	rec := h.postSlack(t, body)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The submission is back in the queue
	updated, err := h.store.SubmissionByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, updated.RemovedFromQueue)

	// The original message was rewritten in place
	updates := h.notifier.allUpdates()
	require.Len(t, updates, 1)
	assert.Equal(t, "C123", updates[0].channel)
	assert.Equal(t, "1234.5678", updates[0].ts)
}

func TestSponsorsWebhook(t *testing.T) {
	h := newTestHarness(t)

	body := `{"action":"created","sponsorship":{"sponsor":{"login":"octocat"},"tier":{"name":"$5 a month"}}}`
	rec := h.postSponsors(t, body)
	assert.Equal(t, http.StatusOK, rec.Code)

	posts := h.notifier.allPosts()
	require.Len(t, posts, 1)
	assert.Equal(t, "org_running", posts[0].channel)
	assert.Equal(t, ":tada: GitHub Sponsors: [created] octocat ($5 a month)", posts[0].text)
}

func TestSponsorsWebhookRejectsBadSignature(t *testing.T) {
	h := newTestHarness(t)

	body := `{"action":"created"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/github", strings.NewReader(body))
	req.Header.Set(sponsorSignatureHeader, "sha1=deadbeef")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, h.notifier.allPosts())
}

func TestSubmissionRemoveEndpoint(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	sub, err := h.store.CreateSubmission(ctx, store.Submission{
		URL:      "https://reddit.com/r/x/comments/abc/post/",
		Approved: true,
	})
	require.NoError(t, err)

	// Default body means remove
	rec := h.api(t, http.MethodPatch, fmt.Sprintf("/api/submission/%d/remove", sub.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	updated, err := h.store.SubmissionByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, updated.RemovedFromQueue)
	assert.False(t, updated.Approved)

	// Explicit restore
	rec = h.api(t, http.MethodPatch, fmt.Sprintf("/api/submission/%d/remove", sub.ID),
		`{"removed_from_queue": false}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	updated, err = h.store.SubmissionByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, updated.RemovedFromQueue)

	// Unknown submission
	rec = h.api(t, http.MethodPatch, "/api/submission/9999/remove", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed id
	rec = h.api(t, http.MethodPatch, "/api/submission/abc/remove", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed body is rejected without touching the record
	rec = h.api(t, http.MethodPatch, fmt.Sprintf("/api/submission/%d/remove", sub.ID),
		`{"removed_from_queue": flase}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	updated, err = h.store.SubmissionByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, updated.RemovedFromQueue)
}

func TestVolunteerLifecycle(t *testing.T) {
	h := newTestHarness(t)

	// Create
	rec := h.api(t, http.MethodPost, "/api/volunteer/", `{"username":"alice"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Gamma    int    `json:"gamma"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, 0, created.Gamma)

	// Duplicate creation is rejected
	rec = h.api(t, http.MethodPost, "/api/volunteer/", `{"username":"Alice"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Missing username
	rec = h.api(t, http.MethodPost, "/api/volunteer/", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Summary
	rec = h.api(t, http.MethodGet, "/api/volunteer/summary?username=alice", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	rec = h.api(t, http.MethodGet, "/api/volunteer/summary?username=nobody", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Accept code of conduct, once
	rec = h.api(t, http.MethodPost, "/api/volunteer/accept_coc?username=alice", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.api(t, http.MethodPost, "/api/volunteer/accept_coc?username=alice", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Manual gamma credit
	rec = h.api(t, http.MethodPatch, fmt.Sprintf("/api/volunteer/%d/gamma_plusone", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var credited struct {
		Gamma int `json:"gamma"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &credited))
	assert.Equal(t, 1, credited.Gamma)

	rec = h.api(t, http.MethodPatch, "/api/volunteer/9999/gamma_plusone", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFindEndpoint(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	user, err := h.store.CreateUser(ctx, "alice")
	require.NoError(t, err)
	sub, err := h.store.CreateSubmission(ctx, store.Submission{
		URL:       "https://reddit.com/r/CuratedTumblr/comments/vccrxr/post_title/",
		ClaimedBy: &user.ID,
	})
	require.NoError(t, err)

	rec := h.api(t, http.MethodGet,
		"/api/find?url=https%3A%2F%2Fold.reddit.com%2Fr%2FCuratedTumblr%2Fcomments%2Fvccrxr%2Fpost_title", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf(`"id":%d`, sub.ID))
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	// Missing or non-Reddit URL
	rec = h.api(t, http.MethodGet, "/api/find", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.api(t, http.MethodGet, "/api/find?url=https%3A%2F%2Fexample.com%2Fnope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown submission
	rec = h.api(t, http.MethodGet,
		"/api/find?url=https%3A%2F%2Freddit.com%2Fr%2Fother%2Fcomments%2Fzzz%2Fpost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", clientIP(req))

	// X-Forwarded-For wins, first hop only
	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", clientIP(req))
}

func TestRateLimitedWebhook(t *testing.T) {
	h := newTestHarness(t)
	h.server.limiter.Stop()
	h.server.limiter = NewRateLimiter(1)
	h.handler = h.server.Handler()

	body := `{"type":"url_verification","challenge":"abc"}`
	rec := h.postSlack(t, body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.postSlack(t, body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
