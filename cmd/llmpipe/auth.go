package main

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/llm-pipeline/internal/cli"
	"github.com/Veraticus/llm-pipeline/internal/config"
	"github.com/Veraticus/llm-pipeline/internal/keychain"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys in the OS keyring",
		Long: `Store or remove LLM provider API keys in the operating system keyring.

A key set in the config file or the environment always takes precedence
over the keyring.`,
	}

	cmd.AddCommand(authSetCmd())
	cmd.AddCommand(authRemoveCmd())

	return cmd
}

func authSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <provider> [key]",
		Short: "Store an API key",
		Long: fmt.Sprintf(`Store an API key for a provider (%s).

When the key argument is omitted it is read from standard input.`, strings.Join(config.Providers(), ", ")),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := checkProvider(args[0])
			if err != nil {
				return err
			}

			var key string
			if len(args) == 2 {
				key = args[1]
			} else {
				key, err = readKey(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			store, err := keychain.Open()
			if err != nil {
				return err
			}
			if err := store.SetAPIKey(provider, key); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Stored API key for "+provider))
			return nil
		},
	}
}

func authRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <provider>",
		Short: "Remove a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := checkProvider(args[0])
			if err != nil {
				return err
			}

			store, err := keychain.Open()
			if err != nil {
				return err
			}
			if err := store.RemoveAPIKey(provider); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Removed API key for "+provider))
			return nil
		},
	}
}

func checkProvider(name string) (string, error) {
	provider := strings.ToLower(strings.TrimSpace(name))
	if !slices.Contains(config.Providers(), provider) {
		return "", fmt.Errorf("unknown provider %q (expected one of %s)", name, strings.Join(config.Providers(), ", "))
	}
	return provider, nil
}

// readKey reads the first line of r.
func readKey(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return "", fmt.Errorf("no API key given")
	}
	return key, nil
}
