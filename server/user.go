package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/multioauth/internal/domain/services"
	"github.com/devilmonastery/multioauth/internal/pkg/logger"
)

func newUserCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User account link commands",
	}

	cmd.AddCommand(newUserLinksCommand(configPath))
	cmd.AddCommand(newUserUnlinkCommand(configPath))

	return cmd
}

func newUserLinksCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "links UID",
		Short: "Show the provider accounts linked to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackends(cmd.Context(), *configPath, -1)
			if err != nil {
				return err
			}
			defer b.Close()

			links, err := services.NewUserDataService(b.strategies, b.users, b.links).Links(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read links of %s: %w", args[0], err)
			}

			providers := make([]string, 0, len(links))
			for p := range links {
				providers = append(providers, p)
			}
			sort.Strings(providers)
			for _, p := range providers {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p, links[p])
			}
			return nil
		},
	}
}

func newUserUnlinkCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink UID",
		Short: "Remove every provider account link of a user",
		Long:  "Deletes the forward and reverse account links, for use when the host deletes the user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackends(cmd.Context(), *configPath, -1)
			if err != nil {
				return err
			}
			defer b.Close()

			removed, err := services.NewUserDataService(b.strategies, b.users, b.links).DeleteUserData(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to unlink %s: %w", args[0], err)
			}
			logger.WithUser(commandLogger(cmd), args[0]).Info("account links removed", slog.Int("removed", removed))
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d link(s) from %s\n", removed, args[0])
			return nil
		},
	}
}
