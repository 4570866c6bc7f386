package signaling

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/gs-shaykot/nex-server/internal/provision"
	globalprotocol "github.com/gs-shaykot/nex-server/pkg/protocol"
	"github.com/gs-shaykot/nex-server/pkg/wsutils"
)

type signalingController struct {
	dispatcher  *Dispatcher
	provisioner provision.Provisioner
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

func (ctrl *signalingController) SignalingControllerHealth(c echo.Context) error {
	return c.String(http.StatusOK, "NEXCALL SERVER RUNNING")
}

type mediaTokenResponse struct {
	Token string `json:"token"`
}

// SignalingControllerMediaToken exchanges a media-session token with the
// conferencing backend. The token itself is opaque to this server.
func (ctrl *signalingController) SignalingControllerMediaToken(c echo.Context) error {
	token, err := ctrl.provisioner.MintMediaToken(
		c.Request().Context(),
		c.Param("roomId"),
		c.QueryParam("identity"),
	)
	if err != nil {
		ctrl.logger.Error("media token exchange failed",
			slog.String("room_id", c.Param("roomId")),
			slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusBadGateway, "unable to mint media token")
	}
	return c.JSON(http.StatusOK, mediaTokenResponse{Token: token})
}

func (ctrl *signalingController) SignalingControllerWebsocket(c echo.Context) error {
	conn, err := ctrl.upgrader.Upgrade(c.Response().Writer, c.Request(), nil)
	if err != nil {
		ctrl.logger.Error(fmt.Sprintf("Unable upgrade request %+v", c.Request()))
		return err
	}

	w := wsutils.NewThreadSafeWriter(conn)
	defer w.Close()

	connID := uuid.NewString()
	ctrl.dispatcher.Connect(connID, w)
	defer ctrl.dispatcher.Disconnect(connID)

	ctrl.logger.Info("connected", slog.String("connection_id", connID))

	for {
		var ev Event
		if err := w.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ctrl.logger.Error("read failed",
					slog.String("connection_id", connID),
					slog.String("error", err.Error()))
			}
			ctrl.logger.Info("disconnected", slog.String("connection_id", connID))
			return nil
		}
		ctrl.dispatcher.HandleEvent(c.Request().Context(), connID, ev)
	}
}

func (ctrl *signalingController) Resolve(router *echo.Echo) error {
	router.GET("/", ctrl.SignalingControllerHealth)
	router.GET("/ws", ctrl.SignalingControllerWebsocket)
	router.GET("/rooms/:roomId/media-token", ctrl.SignalingControllerMediaToken)
	return nil
}

var _ globalprotocol.HttpResolvable = (*signalingController)(nil)

type newSignalingController_Params struct {
	fx.In

	Dispatcher  *Dispatcher
	Provisioner provision.Provisioner
	Logger      *slog.Logger
}

func NewSignalingController(params newSignalingController_Params) *signalingController {
	return &signalingController{
		dispatcher:  params.Dispatcher,
		provisioner: params.Provisioner,
		logger:      params.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}
