package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"thirteen/internal/app"
	"thirteen/internal/config"
	"thirteen/internal/store"
)

const serverConfigPath = "data/server.json"

// InitModule wires RPCs and the hub match for Nakama runtime. Every hub instance on
// this node shares one registry, service and presence table.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadServerConfig(serverConfigPath); err != nil {
		logger.Warn("InitModule: Could not load server config: %v", err)
	}
	cfg := config.GetServerConfig()
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		cfg.ApplyEnv(env)
	}

	svc := newService(cfg, logger)
	presences := newPresenceTable()

	if err := RegisterRPCs(initializer, svc); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameHub, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(svc, presences), nil
	}); err != nil {
		return err
	}

	logger.Info("Thirteen Go module loaded.")
	return nil
}

func newService(cfg *config.ServerConfig, logger runtime.Logger) *app.Service {
	var opts []app.Option
	if cfg.Voice.Enabled() {
		opts = append(opts, app.WithVoice(app.NewVivoxService(cfg.Voice.Secret, cfg.Voice.Issuer, cfg.Voice.Domain)))
	} else {
		logger.Warn("Voice credentials missing, voice tokens disabled.")
	}
	return app.NewService(store.NewRegistry(nil), nil, opts...)
}
