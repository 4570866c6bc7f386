package identity

import (
	"net/http"

	echo "github.com/labstack/echo/v4"
)

const _TOKEN_COOKIE = "token"

const ContextTokenKey = "identity.token"

// Middleware rejects requests that do not carry a valid session cookie and
// stores the parsed token on the echo context for downstream handlers.
func (s *TokenService) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(_TOKEN_COOKIE)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, newErrorResponse(ErrTokenNotFound))
			}

			token, err := s.ParseSessionToken(cookie.Value)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, newErrorResponse(ErrTokenInvalid))
			}

			c.Set(ContextTokenKey, token)
			return next(c)
		}
	}
}
