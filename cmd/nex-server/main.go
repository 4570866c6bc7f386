package main

import (
	"go.uber.org/fx"

	"github.com/gs-shaykot/nex-server/internal/history"
	"github.com/gs-shaykot/nex-server/internal/identity"
	"github.com/gs-shaykot/nex-server/internal/provision"
	"github.com/gs-shaykot/nex-server/internal/signaling"
	globalprotocol "github.com/gs-shaykot/nex-server/pkg/protocol"
	"github.com/gs-shaykot/nex-server/pkg/service"
)

func main() {
	fx.New(
		fx.Provide(
			provision.NewProvisioner,
			identity.NewTokenService,

			history.NewStore,
			history.NewRecorder,

			signaling.NewRoomService,
			signaling.NewDispatcher,

			globalprotocol.AsHttpController(signaling.NewSignalingController),
			globalprotocol.AsHttpController(history.NewHistoryController),
			globalprotocol.AsHttpController(identity.NewIdentityController),
		),

		service.LoggerModule,
		service.DatabaseModule,
		service.HttpModule,
	).Run()
}
