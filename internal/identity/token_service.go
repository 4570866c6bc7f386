package identity

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/gs-shaykot/nex-server/pkg/variables"
)

const _ISSUER = "nex-server"

var _SESSION_TOKEN_EXPIRES_AFTER = time.Hour

// TokenService signs and verifies the session cookie tokens the web client
// carries between the HTTP surface and the signaling socket.
type TokenService struct {
	secret []byte
}

// CreateSessionToken signs the user-supplied claims into a session token.
// Registered claims (issuer, expiry) always come from the server side.
func (s *TokenService) CreateSessionToken(claims map[string]any) (string, error) {
	now := time.Now()

	b := jwt.NewBuilder().
		Issuer(_ISSUER).
		IssuedAt(now).
		Expiration(now.Add(_SESSION_TOKEN_EXPIRES_AFTER))

	if email, ok := claims["email"].(string); ok && email != "" {
		b = b.Subject(email)
	}

	token, err := b.Build()
	if err != nil {
		return "", err
	}

	for name, value := range claims {
		if err = token.Set(name, value); err != nil {
			return "", fmt.Errorf("unable set `%s` claim. Error: %s", name, err)
		}
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// ParseSessionToken verifies signature and expiry of a session token.
func (s *TokenService) ParseSessionToken(raw string) (jwt.Token, error) {
	return jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, s.secret),
		jwt.WithIssuer(_ISSUER),
		jwt.WithValidate(true),
	)
}

func NewTokenService() *TokenService {
	return &TokenService{
		secret: []byte(variables.Env(variables.JWT_SECRET_NAME, variables.JWT_SECRET_DEFAULT)),
	}
}
