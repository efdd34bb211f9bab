package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/devilmonastery/multioauth/internal/domain/entities"
	"github.com/devilmonastery/multioauth/internal/domain/services"
)

func newStrategyCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Strategy management commands",
		Long:  "Inspect and manage stored OAuth2 strategies",
	}

	cmd.AddCommand(newStrategyListCommand(configPath))
	cmd.AddCommand(newStrategyGetCommand(configPath))
	cmd.AddCommand(newStrategyDeleteCommand(configPath))
	cmd.AddCommand(newStrategyImportCommand(configPath))

	return cmd
}

// withStrategies opens the backends and runs fn against a strategy service.
// The registry of a running server is not reachable from here; it picks up
// changes on its next reload.
func withStrategies(ctx context.Context, configPath string, fn func(*services.StrategyService) error) error {
	b, err := openBackends(ctx, configPath, -1)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(services.NewStrategyService(b.strategies, nil, nil))
}

func newStrategyListCommand(configPath *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStrategies(cmd.Context(), *configPath, func(s *services.StrategyService) error {
				strategies, err := s.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list strategies: %w", err)
				}
				return printStrategyTable(cmd.OutOrStdout(), strategies, all)
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include disabled strategies")
	return cmd
}

func printStrategyTable(out io.Writer, strategies []*entities.StrategyConfig, all bool) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENABLED\tAUTH URL\tCALLBACK")
	for _, s := range strategies {
		if !all && !s.Enabled {
			continue
		}
		fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", s.Name, s.Enabled, s.AuthURL, s.CallbackURL)
	}
	return w.Flush()
}

func newStrategyGetCommand(configPath *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Show one strategy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStrategies(cmd.Context(), *configPath, func(s *services.StrategyService) error {
				strategy, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to get strategy %s: %w", args[0], err)
				}
				return writeStrategy(cmd.OutOrStdout(), strategy, output)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format (yaml, json)")
	return cmd
}

func writeStrategy(out io.Writer, strategy *entities.StrategyConfig, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(strategy)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(strategy)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func newStrategyDeleteCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a strategy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStrategies(cmd.Context(), *configPath, func(s *services.StrategyService) error {
				if _, err := s.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("failed to delete strategy %s: %w", args[0], err)
				}
				commandLogger(cmd).Info("strategy deleted", slog.String("strategy", services.Slug(args[0])))
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", services.Slug(args[0]))
				return nil
			})
		},
	}
}

func newStrategyImportCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import strategies from a YAML file",
		Long:  "Import a YAML document holding a list of strategies under a top-level strategies key",
		Example: `  strategies:
    - name: okta
      authUrl: https://example.okta.com/oauth2/v1/authorize
      tokenUrl: https://example.okta.com/oauth2/v1/token
      userRoute: https://example.okta.com/oauth2/v1/userinfo
      id: client-id
      secret: ${OKTA_SECRET}
      enabled: true`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategies, err := readStrategyFile(args[0])
			if err != nil {
				return err
			}
			return withStrategies(cmd.Context(), *configPath, func(s *services.StrategyService) error {
				for _, cfg := range strategies {
					if _, err := s.Save(cmd.Context(), "", cfg); err != nil {
						return fmt.Errorf("failed to import strategy %q: %w", cfg.Name, err)
					}
					commandLogger(cmd).Info("strategy imported", slog.String("strategy", services.Slug(cfg.Name)))
					fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", services.Slug(cfg.Name))
				}
				return nil
			})
		},
	}
}

// strategyFile is the import document
type strategyFile struct {
	Strategies []*entities.StrategyConfig `yaml:"strategies"`
}

// readStrategyFile parses an import document; ${VAR} references are expanded
// from the environment so secrets can stay out of the file
func readStrategyFile(path string) ([]*entities.StrategyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc strategyFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(doc.Strategies) == 0 {
		return nil, fmt.Errorf("no strategies in %s", path)
	}
	return doc.Strategies, nil
}
