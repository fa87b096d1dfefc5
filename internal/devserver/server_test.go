package devserver

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/app"
	"github.com/kylejryan/nail-studio-portal/internal/config"
	"github.com/kylejryan/nail-studio-portal/internal/router"
)

func newServer() *Server {
	a := app.NewMemory(config.Env{DevBypassAuth: true, MaxUploadBytes: 1 << 20}, zap.NewNop())
	return New("127.0.0.1:0", router.New(a), zap.NewNop())
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestGinPath(t *testing.T) {
	assert.Equal(t, "/admin/looks/:id/move", ginPath("/admin/looks/{id}/move"))
	assert.Equal(t, "/gallery", ginPath("/gallery"))
}

func TestHealthAndSettings(t *testing.T) {
	s := newServer()
	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/site/settings", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Blessed N Polished")
}

func TestAdminNeedsSession(t *testing.T) {
	s := newServer()
	w := serve(s, httptest.NewRequest(http.MethodGet, "/admin/looks", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/looks", nil)
	req.Header.Set("X-User-Sub", "owner")
	w = serve(s, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestPathParametersReachRouter(t *testing.T) {
	s := newServer()
	w := serve(s, httptest.NewRequest(http.MethodGet, "/technicians/nobody", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMultipartUploadIsPassedAsBase64(t *testing.T) {
	s := newServer()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("payload", `{"fields":{"title":"Glazed"}}`))
	fw, err := mw.CreateFormFile("file", "glazed.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte{0x89, 'P', 'N', 'G', 0, 1, 2})
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/looks", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-Sub", "owner")
	w := serve(s, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, strings.Contains(w.Body.String(), `"title":"Glazed"`))
	assert.Contains(t, w.Body.String(), `"path":"signature/`)
}
