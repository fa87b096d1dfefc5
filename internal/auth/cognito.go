// Package auth signs admins in and out against a Cognito user pool.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

// ErrInvalidCredentials is wrapped by every rejected sign-in.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Error carries the provider's message for a rejected sign-in.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return ErrInvalidCredentials }

// API is the subset of the Cognito client used here.
type API interface {
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	GlobalSignOut(ctx context.Context, params *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
}

// Tokens is a signed-in session as returned to the admin client.
type Tokens struct {
	Subject      string `json:"sub"`
	Email        string `json:"email,omitempty"`
	IDToken      string `json:"idToken"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int32  `json:"expiresIn"`
}

// Service authenticates with USER_PASSWORD_AUTH.
type Service struct {
	API      API
	ClientID string
	Log      *zap.Logger
}

// New returns a Cognito-backed service.
func New(api API, clientID string, log *zap.Logger) *Service {
	return &Service{API: api, ClientID: clientID, Log: log.Named("auth")}
}

// SignIn exchanges email and password for tokens.
func (s *Service) SignIn(ctx context.Context, email, password string) (Tokens, error) {
	email = strings.TrimSpace(email)
	if err := validate.All(
		func() error { return validate.Required("email", email) },
		func() error { return validate.Required("password", password) },
	); err != nil {
		return Tokens{}, err
	}

	out, err := s.API.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(s.ClientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "NotAuthorizedException", "UserNotFoundException", "UserNotConfirmedException", "PasswordResetRequiredException":
				s.Log.Info("sign-in rejected", zap.String("code", apiErr.ErrorCode()))
				return Tokens{}, &Error{Msg: apiErr.ErrorMessage()}
			}
		}
		return Tokens{}, fmt.Errorf("initiate auth: %w", err)
	}
	if out.AuthenticationResult == nil {
		return Tokens{}, &Error{Msg: fmt.Sprintf("sign-in needs an extra step (%s)", out.ChallengeName)}
	}

	res := out.AuthenticationResult
	t := Tokens{
		IDToken:      aws.ToString(res.IdToken),
		AccessToken:  aws.ToString(res.AccessToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresIn:    res.ExpiresIn,
	}
	// Tokens come straight from Cognito over TLS; claims are read, not verified.
	t.Subject, t.Email = Claims(t.IDToken)
	return t, nil
}

// SignOut revokes every token of the session.
func (s *Service) SignOut(ctx context.Context, accessToken string) error {
	if err := validate.Required("accessToken", accessToken); err != nil {
		return err
	}
	if _, err := s.API.GlobalSignOut(ctx, &cip.GlobalSignOutInput{AccessToken: aws.String(accessToken)}); err != nil {
		return fmt.Errorf("global sign out: %w", err)
	}
	return nil
}

// Claims reads sub and email from a JWT without verifying it.
func Claims(token string) (sub, email string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", ""
	}
	sub, _ = claims["sub"].(string)
	email, _ = claims["email"].(string)
	return sub, email
}
