package websocket

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

var (
	// ErrInvalidToken is returned when token validation fails
	ErrInvalidToken = errors.New("invalid token")
	// ErrWorkspaceNotFound is returned when no workspace matches the token subject
	ErrWorkspaceNotFound = errors.New("workspace not found")
)

// WorkspaceLookup resolves the workspace owned by an Auth0 subject
type WorkspaceLookup interface {
	GetWorkspaceByAuth0ID(auth0ID string) (workspaceID int32, err error)
}

// upgradeClaims satisfies validator.CustomClaims; the upgrade path only
// needs the subject, so no profile claims are decoded here
type upgradeClaims struct{}

func (c upgradeClaims) Validate(ctx context.Context) error {
	return nil
}

// Auth0JWTValidator checks tokens presented on the WebSocket upgrade.
// Browsers cannot set an Authorization header on that request, so the
// token arrives as a query parameter and is validated here instead of
// in the HTTP middleware.
type Auth0JWTValidator struct {
	validator       *validator.Validator
	workspaceLookup WorkspaceLookup
}

// NewAuth0JWTValidator builds a validator for the given Auth0 tenant
func NewAuth0JWTValidator(domain, audience string, workspaceLookup WorkspaceLookup) (*Auth0JWTValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	keyProvider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		keyProvider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &upgradeClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &Auth0JWTValidator{
		validator:       jwtValidator,
		workspaceLookup: workspaceLookup,
	}, nil
}

// ValidateToken checks the token and resolves its subject's workspace
func (v *Auth0JWTValidator) ValidateToken(token string) (workspaceID int32, err error) {
	claims, err := v.validator.ValidateToken(context.Background(), token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	wsID, err := v.workspaceLookup.GetWorkspaceByAuth0ID(validated.RegisteredClaims.Subject)
	if err != nil {
		return 0, ErrWorkspaceNotFound
	}
	return wsID, nil
}
