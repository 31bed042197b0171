// Command api-server runs the POS back office HTTP API.
package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	posapp "github.com/xenking/pos-backoffice/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := posapp.LoadConfig()
		if err != nil {
			return errors.Wrap(err, "config")
		}
		return posapp.Run(ctx, lg.Named("pos"), m, cfg)
	})
}
