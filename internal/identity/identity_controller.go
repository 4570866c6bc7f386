package identity

import (
	"log/slog"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"

	globalprotocol "github.com/gs-shaykot/nex-server/pkg/protocol"
	"github.com/gs-shaykot/nex-server/pkg/variables"
)

type identityController struct {
	tokens     *TokenService
	logger     *slog.Logger
	production bool
}

type sessionResponse struct {
	Success string `json:"success"`
}

func (ctrl *identityController) cookie(value string, maxAge time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     _TOKEN_COOKIE,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   ctrl.production,
		SameSite: http.SameSiteStrictMode,
	}
	if ctrl.production {
		cookie.SameSite = http.SameSiteNoneMode
	}
	if maxAge < 0 {
		cookie.MaxAge = -1
	}
	return cookie
}

func (ctrl *identityController) IdentitySessionCreate(c echo.Context) error {
	claims := make(map[string]any)
	if err := c.Bind(&claims); err != nil {
		return c.String(http.StatusBadRequest, "bad request")
	}

	token, err := ctrl.tokens.CreateSessionToken(claims)
	if err != nil {
		ctrl.logger.Error("unable sign session token", slog.String("error", err.Error()))
		return err
	}

	c.SetCookie(ctrl.cookie(token, 0))
	return c.JSON(http.StatusOK, sessionResponse{Success: "cookie created"})
}

func (ctrl *identityController) IdentitySessionDestroy(c echo.Context) error {
	c.SetCookie(ctrl.cookie("", -1))
	return c.JSON(http.StatusOK, sessionResponse{Success: "cookie cleared"})
}

func (ctrl *identityController) Resolve(router *echo.Echo) error {
	router.POST("/jwt", ctrl.IdentitySessionCreate)
	router.POST("/jwtlogout", ctrl.IdentitySessionDestroy)
	return nil
}

var _ globalprotocol.HttpResolvable = (*identityController)(nil)

type newIdentityController_Params struct {
	fx.In

	TokenService *TokenService
	Logger       *slog.Logger
}

func NewIdentityController(params newIdentityController_Params) *identityController {
	environment := variables.Env(variables.ENVIRONMENT_NAME, variables.ENVIRONMENT_DEFAULT)
	return &identityController{
		tokens:     params.TokenService,
		logger:     params.Logger,
		production: environment == "production",
	}
}
