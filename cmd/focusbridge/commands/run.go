package commands

import (
	"fmt"
	"io"

	"github.com/bryanchriswhite/focusbridge/internal/api"
	"github.com/bryanchriswhite/focusbridge/internal/bridge"
	"github.com/bryanchriswhite/focusbridge/internal/logger"
	"github.com/bryanchriswhite/focusbridge/internal/niri"
	"github.com/bryanchriswhite/focusbridge/internal/scheduler"
	"github.com/bryanchriswhite/focusbridge/internal/status"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

func runBridge(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()

	log := logger.WithComponent("bridge").With().
		Str("run_id", uuid.NewString()).
		Logger()

	log.Info().Str("config", configMgr.GetConfigPath()).Msg("Starting focusbridge")

	socketPath := cfg.SocketPath()
	sock, err := niri.Dial(socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to niri: %w", err)
	}
	log.Info().Str("socket", socketPath).Msg("Connected to niri")

	notifier, err := scheduler.Connect(cfg.Scheduler)
	if err != nil {
		sock.Close()
		return fmt.Errorf("failed to connect to scheduler: %w", err)
	}
	defer func() {
		if err := closeAll(sock, notifier); err != nil {
			log.Warn().Err(err).Msg("Failed to close connections")
		}
	}()

	tracker := status.NewTracker()
	if cfg.Status.Addr != "" {
		server := api.NewServer(tracker)
		go func() {
			if err := server.Start(cfg.Status.Addr); err != nil {
				log.Error().Err(err).Msg("Status API stopped")
			}
		}()
	}

	return bridge.New(sock, notifier,
		bridge.WithObserver(tracker),
		bridge.WithLogger(&log),
	).Run()
}

// closeAll closes every closer and reports all failures together
func closeAll(closers ...io.Closer) error {
	var result *multierror.Error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
