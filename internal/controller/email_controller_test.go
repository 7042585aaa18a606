package controller_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/order-email-api/internal/controller"
	"github.com/unclebandit/order-email-api/internal/handler"
	"github.com/unclebandit/order-email-api/internal/logging"
	"github.com/unclebandit/order-email-api/internal/queue"
	"github.com/unclebandit/order-email-api/internal/repository"
	"github.com/unclebandit/order-email-api/internal/service"
)

const testTemplate = `<html><body>
	<p>Hello |customer|! Order |order|.</p>
	<table id="collect"><tr><th>Product</th><th>Qty</th></tr><to_replace></table>
	<p>Total: |summary.Total|</p>
</body></html>`

const generatePayload = `{"customer":"Ana","order":"A-1","products":[{"Product":"Pen","Qty":2}],"summary":{"Total":"10.00"}}`

type testServer struct {
	handler http.Handler
	dir     string
}

func newTestServer(t *testing.T, strict bool) *testServer {
	t.Helper()
	dir := t.TempDir()
	templates := map[string]string{
		"order-email": filepath.Join(dir, "email_template.html"),
		"greeting":    filepath.Join(dir, "greeting.html"),
		"broken":      filepath.Join(dir, "does-not-exist.html"),
	}
	require.NoError(t, os.WriteFile(templates["order-email"], []byte(testTemplate), 0o600))
	require.NoError(t, os.WriteFile(templates["greeting"], []byte("Hello |customer|!"), 0o600))

	logger := logging.Discard()
	history := repository.NewMemoryRenderedEmailRepository(100)
	q := queue.NewInMemoryQueue(logger)
	require.NoError(t, queue.StartRenderedEmailSubscriber(q, "email_rendered", service.NewWorker(history, logger).Handle, logger))

	svc := &service.EmailService{
		Templates:       repository.NewTemplateRepository(templates),
		History:         history,
		Renderer:        service.NewTemplateService("collect", "<to_replace>"),
		Introspector:    service.NewStructureService("collect"),
		Logger:          logger,
		Queue:           q,
		RenderedTopic:   "email_rendered",
		DefaultTemplate: "order-email",
	}
	ctrl := &controller.EmailController{
		EmailService: svc,
		Logger:       logger,
		MaxBodyBytes: 1 << 20,
		StrictStatus: strict,
	}
	return &testServer{handler: handler.NewRouter(ctrl, logger), dir: dir}
}

func (s *testServer) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return res
}

func TestDiscovery(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(http.MethodGet, "/api/email", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	res := decode(t, w)
	swagger := res["swagger"].(map[string]any)
	assert.Equal(t, "POST", swagger["method"])
	assert.Equal(t, "/api/email", swagger["endpoint"])

	params := swagger["parameters"].(map[string]any)
	assert.Equal(t, "string", params["customer"])
	product := params["products"].([]any)[0].(map[string]any)
	assert.Equal(t, "int", product["Quantity"])
	assert.Equal(t, "string", params["summary"].(map[string]any)["Total"])
}

func TestGenerate(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(http.MethodPost, "/api/email", "application/json; charset=utf-8", generatePayload)
	require.Equal(t, http.StatusOK, w.Code)

	html, ok := decode(t, w)["html"].(string)
	require.True(t, ok)
	assert.Contains(t, html, "Hello Ana! Order A-1.")
	assert.Contains(t, html, "<tr><td>Pen</td><td>2</td></tr>")
	assert.Contains(t, html, "Total: 10.00")
	assert.Contains(t, html, "id='collect'")
	assert.NotContains(t, html, "\n")
	assert.NotContains(t, html, `"`)
	// HTML is not \u-escaped in the response body
	assert.Contains(t, w.Body.String(), "<tr><td>Pen</td>")
}

func TestGenerateRequestErrors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		message     string
		strict      int
	}{
		{"content type", "text/plain", generatePayload, "Invalid Content-Type. Expected application/json.", http.StatusUnsupportedMediaType},
		{"missing content type", "", generatePayload, "Invalid Content-Type. Expected application/json.", http.StatusUnsupportedMediaType},
		{"malformed json", "application/json", `{"customer":`, "Invalid JSON payload.", http.StatusBadRequest},
		{"empty body", "application/json", ``, "Invalid JSON payload.", http.StatusBadRequest},
		{"invalid utf-8", "application/json", "{\"customer\":\"A\xffB\"}", "Invalid JSON payload.", http.StatusBadRequest},
		{"missing customer", "application/json", `{"order":"1"}`, "Field 'customer' is required.", http.StatusUnprocessableEntity},
		{"missing summary", "application/json", `{"customer":"Ana","order":"1","products":[{"a":"b"}]}`, "Field 'summary' is required.", http.StatusUnprocessableEntity},
		{"not an object", "application/json", `["customer"]`, "Field 'customer' is required.", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestServer(t, false).do(http.MethodPost, "/api/email", tt.contentType, tt.body)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.message, decode(t, w)["error"])

			w = newTestServer(t, true).do(http.MethodPost, "/api/email", tt.contentType, tt.body)
			assert.Equal(t, tt.strict, w.Code)
			assert.Equal(t, tt.message, decode(t, w)["error"])
		})
	}
}

func TestGenerateBodyTooLarge(t *testing.T) {
	s := newTestServer(t, false)
	big := `{"customer":"` + strings.Repeat("a", 2<<20) + `"}`

	w := s.do(http.MethodPost, "/api/email", "application/json", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestStructure(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(http.MethodGet, "/api/email/getstructure", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"customer":"string","order":"string","summary.Total":"string","collect":["Product","Qty"]}`,
		strings.TrimSpace(w.Body.String()))

	again := s.do(http.MethodGet, "/api/email/getstructure", "", "")
	assert.Equal(t, w.Body.String(), again.Body.String())
}

func TestReplay(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(http.MethodPost, "/api/email/repl?template=greeting", "application/json", `{"customer":"Ana"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"status":"success","html":"Hello Ana!"}`, strings.TrimSpace(w.Body.String()))
}

func TestReplayWithoutContentTypeCheck(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(http.MethodPost, "/api/email/repl?template=greeting", "text/plain", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"status":"success","html":"Hello |customer|!"}`, strings.TrimSpace(w.Body.String()))
}

func TestReplayInvalidPayload(t *testing.T) {
	for _, body := range []string{`{broken`, `[1,2]`, `null`, ``, "{\"customer\":\"A\xffB\"}"} {
		w := newTestServer(t, false).do(http.MethodPost, "/api/email/repl", "application/json", body)
		require.Equal(t, http.StatusOK, w.Code)

		res := decode(t, w)
		assert.Equal(t, "error", res["status"], body)
		assert.Equal(t, "Invalid data or malformed JSON payload.", res["message"])
		assert.NotContains(t, res, "html")
	}

	w := newTestServer(t, true).do(http.MethodPost, "/api/email/repl", "application/json", `{broken`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTemplateFailures(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(http.MethodGet, "/api/email/getstructure?template=invoice", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode(t, w)["error"], "invoice")

	w = s.do(http.MethodPost, "/api/email?template=broken", "application/json", generatePayload)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Email template could not be loaded.", decode(t, w)["error"])

	w = s.do(http.MethodPost, "/api/email/repl?template=broken", "application/json", `{}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", decode(t, w)["status"])
}

func TestInvalidMethod(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(http.MethodPut, "/api/email", "application/json", generatePayload)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Invalid request method.", decode(t, w)["error"])
}

func TestHistory(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(http.MethodPost, "/api/email", "application/json", generatePayload)
	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(controller.RenderedIDHeader)
	require.NotEmpty(t, id)
	html := decode(t, w)["html"]

	// the in-memory queue stores asynchronously
	require.Eventually(t, func() bool {
		return s.do(http.MethodGet, "/api/email/history/"+id, "", "").Code == http.StatusOK
	}, time.Second, 10*time.Millisecond)

	res := decode(t, s.do(http.MethodGet, "/api/email/history/"+id, "", ""))
	assert.Equal(t, id, res["id"])
	assert.Equal(t, "generate", res["operation"])
	assert.Equal(t, "A-1", res["order_ref"])
	assert.Equal(t, html, res["html"])

	w = s.do(http.MethodGet, "/api/email/history/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestWriteFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	ctrl := &controller.EmailController{Logger: logging.NewWithWriter(&logs, "info")}

	w := brokenWriter{httptest.NewRecorder()}
	ctrl.Discovery(w, httptest.NewRequest(http.MethodGet, "/api/email", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logs.String(), "failed to write response")
	assert.Contains(t, logs.String(), "connection reset")
}
