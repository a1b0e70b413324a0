package server_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/goliatone/go-healthform/internal/metrics"
	"github.com/goliatone/go-healthform/internal/server"
	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/render"
	"github.com/goliatone/go-healthform/pkg/validation"
)

type stubSubmitter struct {
	mu      sync.Mutex
	calls   int
	results []error
}

func (s *stubSubmitter) Submit(_ context.Context, _ *validation.Record) (model.SubmissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.calls
	s.calls++
	if n < len(s.results) && s.results[n] != nil {
		return model.SubmissionResult{}, s.results[n]
	}
	return model.SubmissionResult{DiseaseProbability: 0.23, Recommendation: "Keep a balanced diet."}, nil
}

func (s *stubSubmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func validForm() url.Values {
	return url.Values{
		"height":      {"170"},
		"weight":      {"70"},
		"ap_hi":       {"120"},
		"ap_lo":       {"80"},
		"age_years":   {"45"},
		"gender":      {"1"},
		"cholesterol": {"1"},
		"gluc":        {"1"},
		"smoke":       {"0"},
		"alco":        {"0"},
		"active":      {"1"},
	}
}

type fixture struct {
	srv      *server.Server
	http     *httptest.Server
	client   *http.Client
	sub      *stubSubmitter
	registry *prometheus.Registry
}

func newFixture(t *testing.T, sub *stubSubmitter) *fixture {
	t.Helper()
	registry := prometheus.NewRegistry()
	srv, err := server.New(model.Default(), sub,
		server.WithLogger(zaptest.NewLogger(t)),
		server.WithMetrics(metrics.New(registry), registry),
	)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client := ts.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &fixture{srv: srv, http: ts, client: client, sub: sub, registry: registry}
}

func (f *fixture) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := f.client.Get(f.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (f *fixture) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := f.client.PostForm(f.http.URL+path, form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// settle polls the session page until it is no longer pending.
func (f *fixture) settle(t *testing.T, path string) string {
	t.Helper()
	var body string
	require.Eventually(t, func() bool {
		var status int
		status, body = f.get(t, path)
		return status == http.StatusOK && !strings.Contains(body, render.PendingMessage)
	}, 2*time.Second, 10*time.Millisecond)
	return body
}

func TestServer_Form(t *testing.T) {
	f := newFixture(t, &stubSubmitter{})
	status, body := f.get(t, "/")
	assert.Equal(t, http.StatusOK, status)
	for _, name := range model.Default().Names() {
		assert.Contains(t, body, `name="`+name+`"`)
	}
	assert.Contains(t, body, `<button type="submit">Submit</button>`)
	assert.Contains(t, body, `<input type="hidden" name="schema" value="cardio">`)
}

func TestServer_StaleFormIsServedAgain(t *testing.T) {
	f := newFixture(t, &stubSubmitter{})
	form := validForm()
	form.Set("schema", "cardio-v0")

	resp := f.post(t, "/submissions", form)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), `value="cardio"`)
	assert.Equal(t, 0, f.sub.count())
	assert.Equal(t, 0, f.srv.Sessions().Len())
}

func TestServer_InvalidSubmissionRendersErrors(t *testing.T) {
	f := newFixture(t, &stubSubmitter{})
	form := validForm()
	form.Set("height", "300")
	form.Del("weight")

	resp := f.post(t, "/submissions", form)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "Height must be between 130 and 230 cm")
	assert.Contains(t, string(body), "Weight is required")
	assert.Contains(t, string(body), `value="300"`)
	assert.Equal(t, 0, f.sub.count())
	assert.Equal(t, 0, f.srv.Sessions().Len())

	_, metricsBody := f.get(t, "/metrics")
	assert.Contains(t, metricsBody, `healthform_validation_failures_total{field="height"} 1`)
}

func TestServer_SuccessFlow(t *testing.T) {
	f := newFixture(t, &stubSubmitter{})

	resp := f.post(t, "/submissions", validForm())
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, "/submissions/"), location)

	body := f.settle(t, location)
	assert.Contains(t, body, `<span class="healthform__probability">0.23</span>`)
	assert.Contains(t, body, "Keep a balanced diet.")
	assert.Equal(t, 1, f.sub.count())
	assert.Equal(t, 1, f.srv.Sessions().Len())
}

func TestServer_FailureAndRetry(t *testing.T) {
	f := newFixture(t, &stubSubmitter{results: []error{errors.New("upstream 500: stack trace here")}})

	resp := f.post(t, "/submissions", validForm())
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")

	body := f.settle(t, location)
	assert.Contains(t, body, render.FailureMessage)
	assert.NotContains(t, body, "stack trace")
	assert.Contains(t, body, `action="`+location+`/retry"`)

	retry := f.post(t, location+"/retry", nil)
	require.Equal(t, http.StatusSeeOther, retry.StatusCode)
	assert.Equal(t, location, retry.Header.Get("Location"))

	body = f.settle(t, location)
	assert.Contains(t, body, "0.23")
	assert.Equal(t, 2, f.sub.count())

	// Retrying a successful session is a no-op.
	f.post(t, location+"/retry", nil)
	assert.Equal(t, 2, f.sub.count())
}

func TestServer_UnknownSession(t *testing.T) {
	f := newFixture(t, &stubSubmitter{})

	status, body := f.get(t, "/submissions/does-not-exist")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, render.MissingMessage)

	resp := f.post(t, "/submissions/does-not-exist/retry", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	status, _ = f.get(t, "/nowhere")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t, &stubSubmitter{})
	status, body := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok\n", body)
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := server.New(nil, &stubSubmitter{})
	assert.Error(t, err)
	_, err = server.New(model.Default(), nil)
	assert.Error(t, err)
}
