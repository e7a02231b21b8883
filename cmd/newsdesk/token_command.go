package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"NewsDesk/internal/auth"
	"NewsDesk/internal/config"
	"NewsDesk/internal/domain"
)

func newTokenCommand(loadConfig func() config.Config) *cobra.Command {
	var userID int64
	var role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user must be a positive id")
			}
			parsed, err := domain.ParseRole(role)
			if err != nil {
				return err
			}

			cfg := loadConfig()
			if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
				return errors.New("auth.jwtSecret is required")
			}

			token, expires, err := auth.NewTokenService(cfg.Auth).Issue(domain.Principal{UserID: userID, Role: parsed})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id to embed")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleSubscriber), "Role to embed (publisher or subscriber)")
	return cmd
}
