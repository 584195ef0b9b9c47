// Command uploadctl uploads a single staged file from the command line using
// the same backend configuration as the API server.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/radif/uploader/internal/auth"
	"github.com/radif/uploader/internal/config"
	"github.com/radif/uploader/internal/logging"
	"github.com/radif/uploader/internal/storage"
	"github.com/radif/uploader/internal/upload"
)

func main() {
	cfg := config.Load()
	// stdout carries command output
	logging.SetupTo(os.Stderr, cfg.LogLevel, false)

	if err := newRootCmd(cfg, log.Logger).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "uploadctl",
		Short:        "Upload staged audio files to the configured object store",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", cfg.StorageConfig, "path of the storage backend INI file")

	newUploader := func() (*upload.Uploader, error) {
		backend, err := config.LoadBackend(configPath)
		if err != nil {
			return nil, err
		}
		var connector storage.Connector
		if backend.Enabled() {
			if connector, err = storage.NewConnector(backend); err != nil {
				return nil, err
			}
		}
		return upload.New(backend, connector, logger)
	}

	root.AddCommand(newPutCmd(newUploader), newStatusCmd(newUploader), newTokenCmd(cfg.JWTSecret))
	return root
}

func newPutCmd(newUploader func() (*upload.Uploader, error)) *cobra.Command {
	var (
		prefix string
		meta   map[string]string
	)

	cmd := &cobra.Command{
		Use:   "put <path>",
		Short: "Upload one file and print the resulting metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := newUploader()
			if err != nil {
				return err
			}

			metadata := make(map[string]any, len(meta)+1)
			for k, v := range meta {
				metadata[k] = v
			}
			metadata[upload.KeyFilePrefix] = prefix

			res, err := u.Upload(cmd.Context(), args[0], metadata)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "logical prefix of the object key, e.g. stations/42")
	cmd.Flags().StringToStringVar(&meta, "meta", nil, "extra metadata as key=value pairs")
	_ = cmd.MarkFlagRequired("prefix")
	return cmd
}

func newStatusCmd(newUploader func() (*upload.Uploader, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configured storage backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := newUploader()
			if err != nil {
				return err
			}
			state := "disabled"
			if u.Enabled() {
				state = "enabled"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "backend: %s\nremote upload: %s\n", u.Backend(), state)
			return err
		},
	}
}

func newTokenCmd(secret string) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for calling the upload API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.IssueToken(secret, subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "caller id recorded with each upload")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
