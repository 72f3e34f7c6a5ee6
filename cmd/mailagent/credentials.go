package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/mail-agent/internal/credential"
	"github.com/nhle/mail-agent/internal/model"
)

func credentialsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage secrets stored in the system keyring",
	}
	cmd.AddCommand(credentialsSetCmd(configPath), credentialsDeleteCmd(configPath))
	return cmd
}

// credentialKey maps a secret name to its keyring key using the config for
// the username and provider.
func credentialKey(cfg *model.AppConfig, which string) (string, error) {
	switch which {
	case "mail":
		if cfg.Email.Username == "" {
			return "", errors.New("email.username must be set to store the mailbox password")
		}
		return credential.MailPasswordKey(cfg.Email.Username), nil
	case "api-key":
		return credential.APIKeyKey(cfg.AI.Provider), nil
	default:
		return "", fmt.Errorf("unknown secret %q (want mail or api-key)", which)
	}
}

func credentialsSetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "set {mail|api-key}",
		Short:     "Prompt for a secret and save it in the keyring",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"mail", "api-key"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			key, err := credentialKey(cfg, args[0])
			if err != nil {
				return err
			}

			var secret string
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Secret for "+key).
						Description("Stored in the system keyring, never in the config file").
						EchoMode(huh.EchoModePassword).
						Value(&secret).
						Validate(func(s string) error {
							if strings.TrimSpace(s) == "" {
								return errors.New("value is required")
							}
							return nil
						}),
				),
			)
			if err := form.RunWithContext(cmd.Context()); err != nil {
				return err
			}

			if err := credential.Set(key, secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", key)
			return nil
		},
	}
}

func credentialsDeleteCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete {mail|api-key}",
		Short: "Remove a secret from the keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			key, err := credentialKey(cfg, args[0])
			if err != nil {
				return err
			}
			if err := credential.Delete(key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", key)
			return nil
		},
	}
}
