package cli

import (
	"context"
	"errors"
	"time"

	"ride-hail-realtime/internal/general/jwt"

	"github.com/spf13/cobra"
)

// RunFunc starts the agent with a config path and an optional role override.
type RunFunc func(ctx context.Context, configPath, role string) error

// NewRootCommand builds the command tree. run backs the "run" command.
func NewRootCommand(run RunFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "ride-hail-realtime",
		Short:         "Realtime event pipeline of the ride-hail client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand(run), newTokenCommand())
	return root
}

func newRunCommand(run RunFunc) *cobra.Command {
	var (
		configPath string
		role       string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the broker and process realtime events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, role)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config/config.yaml", "Path to the YAML config file")
	cmd.Flags().StringVar(&role, "role", "", "Override identity.role: rider | driver")
	return cmd
}

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint or inspect realtime connection tokens (dev only)",
	}

	var (
		identity string
		role     string
		secret   string
		ttl      time.Duration
	)
	mint := &cobra.Command{
		Use:   "mint",
		Short: "Sign a connection token with an HS256 secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if identity == "" || secret == "" {
				return errors.New("--identity and --secret are required")
			}
			token, claims, err := MintConnectionToken(secret, identity, role, ttl)
			if err != nil {
				return err
			}
			PrintToken(cmd.OutOrStdout(), token, claims)
			return nil
		},
	}
	mint.Flags().StringVar(&identity, "identity", "", "Identity (subject) the token is bound to")
	mint.Flags().StringVar(&role, "role", "rider", "Role: rider | driver")
	mint.Flags().StringVar(&secret, "secret", "", "HS256 secret")
	mint.Flags().DurationVar(&ttl, "ttl", 15*time.Minute, "Token lifetime")

	inspect := &cobra.Command{
		Use:   "inspect <token>",
		Short: "Decode a token's claims without verifying the signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := jwt.Inspect(args[0])
			if err != nil {
				return err
			}
			PrintToken(cmd.OutOrStdout(), "", *claims)
			return nil
		},
	}

	cmd.AddCommand(mint, inspect)
	return cmd
}
