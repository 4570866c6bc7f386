package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"github.com/gs-shaykot/nex-server/pkg/protocol"
	"github.com/gs-shaykot/nex-server/pkg/variables"
)

type httpServer_Params struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Controllers []protocol.HttpResolvable `group:"http.controller"`
	Logger      *slog.Logger
}

func httpErrorHandler(e *echo.Echo, logger *slog.Logger) func(err error, c echo.Context) {
	return func(err error, c echo.Context) {
		logger.Error(err.Error(), slog.String("request", fmt.Sprintf("%+v", c.Request())))
		e.DefaultHTTPErrorHandler(err, c)
	}
}

func corsOrigins() []string {
	raw := variables.Env(variables.CORS_ORIGINS_NAME, variables.CORS_ORIGINS_DEFAULT)
	origins := strings.Split(raw, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return origins
}

func httpServer(params httpServer_Params) error {
	router := echo.New()
	router.HideBanner = true
	router.HTTPErrorHandler = httpErrorHandler(router, params.Logger)
	router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowCredentials: true,
	}))

	for _, controller := range params.Controllers {
		if err := controller.Resolve(router); err != nil {
			return err
		}
	}

	addr := fmt.Sprintf(":%s", variables.Env(variables.HTTP_PORT_NAME, variables.HTTP_PORT_DEFAULT))

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := router.Start(addr); err != nil && err != http.ErrServerClosed {
					params.Logger.Error(fmt.Sprintf("http server stopped: %s", err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return router.Shutdown(ctx)
		},
	})
	return nil
}

var HttpModule = fx.Module("http", fx.Invoke(httpServer))
