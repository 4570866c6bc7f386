package history

import (
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/gs-shaykot/nex-server/internal/identity"
	globalprotocol "github.com/gs-shaykot/nex-server/pkg/protocol"
)

type historyController struct {
	store  *Store
	tokens *identity.TokenService
	logger *slog.Logger
}

func (ctrl *historyController) HistoryMessagesByRoom(c echo.Context) error {
	messages, err := ctrl.store.ByRoom(c.Request().Context(), c.Param("roomId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messages)
}

func (ctrl *historyController) HistoryConversationsByUser(c echo.Context) error {
	conversations, err := ctrl.store.ConversationsByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, conversations)
}

func (ctrl *historyController) Resolve(router *echo.Echo) error {
	router.GET("/messages/:roomId", ctrl.HistoryMessagesByRoom)
	router.GET("/conversations/user/:email", ctrl.HistoryConversationsByUser, ctrl.tokens.Middleware())
	return nil
}

var _ globalprotocol.HttpResolvable = (*historyController)(nil)

type newHistoryController_Params struct {
	fx.In

	Store        *Store
	TokenService *identity.TokenService
	Logger       *slog.Logger
}

func NewHistoryController(params newHistoryController_Params) *historyController {
	return &historyController{
		store:  params.Store,
		tokens: params.TokenService,
		logger: params.Logger,
	}
}
