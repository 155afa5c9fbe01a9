package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evmap/backend/libs/logging"
	"evmap/backend/services/stations-service/internal/app"
	"evmap/backend/services/stations-service/internal/config"
	"evmap/backend/services/stations-service/internal/password"
)

const serviceName = "stations-service"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "EV charging availability map for Team Energy and Evan Charge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newRefreshCmd(), newHashPasswordCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the map, the JSON API and scheduled refreshes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, logger *zap.Logger) error {
				if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("stations service stopped with error", zap.Error(err))
					return err
				}
				logger.Info("stations service stopped")
				return nil
			})
		},
	}
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Pull both vendors once, update the cache and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, _ *zap.Logger) error {
				run, err := a.RefreshOnce(ctx)
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(run); encErr != nil {
					return encErr
				}
				return err
			})
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Read an admin password from stdin and print its bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plain, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}
			hash, err := password.NewBcryptHasher(cost).Hash(plain)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
	cmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost (0 = library default)")
	return cmd
}

func withApp(ctx context.Context, fn func(context.Context, *app.App, *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(serviceName)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init stations service", zap.Error(err))
		return err
	}
	defer application.Close()

	return fn(ctx, application, logger)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}
