package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/config"
)

func TestSendPostsTemplate(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sendPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	e := New(config.EmailJS{BaseURL: srv.URL, ServiceID: "svc", TemplateID: "tpl", PublicKey: "pub", PrivateKey: "priv"}, zap.NewNop())
	require.NoError(t, e.Send(context.Background(), map[string]string{"name": "Ana"}))

	assert.Equal(t, "svc", got.ServiceID)
	assert.Equal(t, "tpl", got.TemplateID)
	assert.Equal(t, "pub", got.UserID)
	assert.Equal(t, "priv", got.AccessToken)
	assert.Equal(t, "Ana", got.Params["name"])
}

func TestSendSurfacesRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "The template ID is invalid", http.StatusBadRequest)
	}))
	defer srv.Close()

	e := New(config.EmailJS{BaseURL: srv.URL}, zap.NewNop())
	err := e.Send(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
