package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"thirteen/internal/app"
	"thirteen/internal/config"
	"thirteen/internal/logging"
	"thirteen/internal/ports/ws"
	"thirteen/internal/store"
	"thirteen/internal/telemetry"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		staticDir  string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the WebSocket lobby server",
		Long: `Run the lobby server over plain WebSockets.

Clients connect to /ws and exchange {"event","data"} frames. The
server also serves the static client, /healthz, lobby lookups under
/api/lobbies/{code} and Prometheus metrics.

Voice credentials are read from THIRTEEN_VOICE_ISSUER,
THIRTEEN_VOICE_DOMAIN and THIRTEEN_VOICE_SECRET when set.

Examples:
  thirteen serve
  thirteen serve --addr=:8080 --static=./web
  thirteen serve --config=server.json --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, addr, staticDir, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a JSON server config")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config, then :3000)")
	cmd.Flags().StringVar(&staticDir, "static", "", "Directory of static client files")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable development logging")

	return cmd
}

func runServe(ctx context.Context, configPath, addr, staticDir string, debug bool) error {
	if configPath != "" {
		if err := config.LoadServerConfig(configPath); err != nil {
			return err
		}
	}
	cfg := config.GetServerConfig()
	cfg.ApplyEnv(voiceEnv())
	if addr != "" {
		cfg.ListenAddr = addr
	}
	if staticDir != "" {
		cfg.StaticDir = staticDir
	}

	zl, err := logging.New(debug)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	logger := logging.NewZapLogger(zl)

	var opts []app.Option
	if cfg.Voice.Enabled() {
		opts = append(opts, app.WithVoice(app.NewVivoxService(cfg.Voice.Secret, cfg.Voice.Issuer, cfg.Voice.Domain)))
	} else {
		logger.Warn("Voice credentials missing, voice tokens disabled.")
	}
	svc := app.NewService(store.NewRegistry(nil), nil, opts...)
	recorder := telemetry.New(telemetry.WithLobbyCount(svc.LobbyCount))

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pterm.Info.Printfln("Thirteen %s listening on %s", version, cfg.ListenAddr)
	return ws.NewServer(cfg, svc, logger, ws.WithRecorder(recorder)).ListenAndServe(ctx)
}

// voiceEnv maps process environment variables onto the config's env keys.
func voiceEnv() map[string]string {
	env := make(map[string]string)
	for _, key := range []string{config.EnvVoiceIssuer, config.EnvVoiceDomain, config.EnvVoiceSecret} {
		env[key] = os.Getenv(strings.ToUpper(key))
	}
	return env
}
