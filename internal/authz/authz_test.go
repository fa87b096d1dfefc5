package authz

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bearer(t *testing.T, sub string) map[string]string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).SignedString([]byte("k"))
	require.NoError(t, err)
	return map[string]string{"authorization": "Bearer " + tok}
}

func TestFromAPIGWv2AuthorizerClaims(t *testing.T) {
	req := events.APIGatewayV2HTTPRequest{}
	req.RequestContext.Authorizer = &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
		JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
			Claims: map[string]string{"sub": "u1", "email": "a@b.co"},
		},
	}
	s, err := FromAPIGWv2(req, false)
	require.NoError(t, err)
	assert.Equal(t, Session{Subject: "u1", Email: "a@b.co"}, s)
}

func TestFromAPIGWv2DevBypassOnly(t *testing.T) {
	req := events.APIGatewayV2HTTPRequest{Headers: map[string]string{"X-User-Sub": "dev"}}
	_, err := FromAPIGWv2(req, false)
	assert.ErrorIs(t, err, ErrUnauthorized)

	s, err := FromAPIGWv2(req, true)
	require.NoError(t, err)
	assert.Equal(t, "dev", s.Subject)

	req = events.APIGatewayV2HTTPRequest{Headers: bearer(t, "tok-user")}
	_, err = FromAPIGWv2(req, false)
	assert.ErrorIs(t, err, ErrUnauthorized, "unverified tokens are never trusted outside dev")

	s, err = FromAPIGWv2(req, true)
	require.NoError(t, err)
	assert.Equal(t, "tok-user", s.Subject)
}

func TestSessionContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), Session{Subject: "u1"})
	s, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", s.Subject)
}
