package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xenonn21/voitzu/pkg/llm"
)

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(_ context.Context, _ []llm.Message) (string, error) {
	s.calls++
	return s.reply, s.err
}

func performCompletion(t *testing.T, client llm.Client, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/completions", NewCompletionHandler(client).Complete)

	req := httptest.NewRequest(http.MethodPost, "/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCompleteReturnsReply(t *testing.T) {
	stub := &stubCompleter{reply: "Halo, ada yang bisa kubantu?"}

	w := performCompletion(t, stub, `{"messages":[{"role":"user","content":"halo"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"text":"Halo, ada yang bisa kubantu?"}`, w.Body.String())
	assert.Equal(t, 1, stub.calls)
}

func TestCompleteMissingAPIKey(t *testing.T) {
	stub := &stubCompleter{err: llm.ErrMissingAPIKey}

	w := performCompletion(t, stub, `{"messages":[{"role":"user","content":"halo"}]}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Missing GROQ_API_KEY"}`, w.Body.String())
}

func TestCompleteUpstreamError(t *testing.T) {
	stub := &stubCompleter{err: errors.New("connection refused")}

	w := performCompletion(t, stub, `{"messages":[]}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"text":"`+llm.ErrorText+`"}`, w.Body.String())
}

func TestCompleteEmptyReplyFallsBack(t *testing.T) {
	stub := &stubCompleter{reply: ""}

	w := performCompletion(t, stub, `{"messages":[{"role":"user","content":"halo"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"text":"`+llm.FallbackText+`"}`, w.Body.String())
}

func TestCompleteMalformedBody(t *testing.T) {
	stub := &stubCompleter{reply: "tidak terpakai"}

	w := performCompletion(t, stub, `{"messages":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"text":"`+llm.FallbackText+`"}`, w.Body.String())
	require.Zero(t, stub.calls)
}
