package contact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/ports/mocks"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

func newService() (*Service, *mocks.Catalog, *mocks.Relay) {
	catalog := mocks.NewCatalog()
	relay := &mocks.Relay{}
	s := New(catalog, relay, zap.NewNop())
	s.NewID = func() string { return "msg1" }
	s.Now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s, catalog, relay
}

func TestValidateOrder(t *testing.T) {
	cases := []struct {
		form Form
		msg  string
	}{
		{Form{Email: "bad", Message: "x"}, "name is required"},
		{Form{Name: "Ana", Message: "hello there"}, "Add an email or phone."},
		{Form{Name: "Ana", Email: "ana@", Message: "hello there"}, "That email looks off."},
		{Form{Name: "Ana", Phone: "555", Message: "hey"}, "Add a short message."},
	}
	for _, tc := range cases {
		err := tc.form.Validate()
		require.Error(t, err)
		assert.True(t, validate.IsValidation(err))
		assert.Equal(t, tc.msg, err.Error())
	}
	assert.NoError(t, Form{Name: "Ana", Phone: "555", Message: "hello"}.Validate())
}

func TestSubmitStoresThenRelays(t *testing.T) {
	s, catalog, relay := newService()
	msg, err := s.Submit(context.Background(), Form{Name: "Ana <b>B</b>", Phone: "555", Message: "<script>x</script>Need a fill"})
	require.NoError(t, err)
	assert.Equal(t, "Ana B", msg.Name)
	assert.Equal(t, "Need a fill", msg.Message)
	assert.Equal(t, "website", msg.Source)

	var stored models.ContactMessage
	require.NoError(t, catalog.Get(context.Background(), models.CollectionContactMessages, "msg1", &stored))
	assert.Equal(t, msg, stored)

	sent := relay.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Website Contact", sent[0]["title"])
	assert.Equal(t, "no-email@site", sent[0]["email"])
	assert.Equal(t, "555", sent[0]["phone"])
	assert.Equal(t, "No preference", sent[0]["tech"])
}

func TestSubmitRelayFailureKeepsInquiry(t *testing.T) {
	s, catalog, relay := newService()
	relay.Err = errors.New("502")
	_, err := s.Submit(context.Background(), Form{Name: "Ana", Email: "a@b.co", Message: "hello"})
	assert.ErrorIs(t, err, ErrRelay)
	assert.Equal(t, 1, catalog.Count(models.CollectionContactMessages))
}

func TestSubmitHoneypotDropsSilently(t *testing.T) {
	s, catalog, relay := newService()
	_, err := s.Submit(context.Background(), Form{Name: "Bot", Email: "a@b.co", Message: "buy now", Company: "Acme"})
	assert.ErrorIs(t, err, ErrSuspectedBot)
	assert.False(t, validate.IsValidation(err))
	assert.Zero(t, catalog.Count(models.CollectionContactMessages))
	assert.Empty(t, relay.Sent())
}
