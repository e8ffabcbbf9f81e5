package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dubwatch/internal/daemon"
	"dubwatch/internal/engine"
	"dubwatch/internal/ipc"
	"dubwatch/internal/logging"
	"dubwatch/internal/store"
	"dubwatch/internal/watch"
)

func newDaemonCommand(cmdCtx *commandContext) *cobra.Command {
	var foreground bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the dubwatch daemon",
		Long:  "Run the watch daemon that polls the localization engine, persists job snapshots, and serves the control socket.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd, cmdCtx, foreground)
		},
	}

	cmd.Flags().BoolVar(&foreground, "foreground", false, "Log to stdout in addition to the log file")
	return cmd
}

func runDaemonProcess(cmd *cobra.Command, cmdCtx *commandContext, foreground bool) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	outputs := []string{cfg.LogFilePath()}
	if foreground {
		outputs = append(outputs, "stdout")
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
	})
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}

	engineClient := engine.NewClient(cfg, logger)
	watcher := watch.NewManager(cfg, engineClient, st, nil, logger)

	d, err := daemon.New(cfg, st, watcher, logger)
	if err != nil {
		st.Close()
		return err
	}

	socketPath := cmdCtx.socketPath()
	server, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		d.Close()
		return fmt.Errorf("start IPC server: %w", err)
	}

	if err := d.Start(ctx); err != nil {
		server.Close()
		d.Close()
		return err
	}

	server.Serve()
	fmt.Fprintf(cmd.OutOrStdout(), "dubwatch daemon running (pid %d)\n", os.Getpid())
	fmt.Fprintf(cmd.OutOrStdout(), "socket: %s\n", socketPath)
	fmt.Fprintf(cmd.OutOrStdout(), "log: %s\n", d.LogPath())

	<-ctx.Done()

	server.Close()
	if err := d.Close(); err != nil {
		logger.Warn("daemon shutdown", logging.Error(err))
	}
	return nil
}
