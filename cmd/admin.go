package cmd

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/eci4ever/bizadmin/internal/adapters/in/cli/ui/styles"
	"github.com/eci4ever/bizadmin/internal/app"
)

// askPassword prompts on the terminal when --password is omitted.
var askPassword = func(message string) (string, error) {
	var password string
	prompt := &survey.Password{Message: message}
	if err := survey.AskOne(prompt, &password, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return password, nil
}

func newCreateAdminCmd(opts *rootOptions) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		Long: `Create an admin account, or promote the user that already owns the email.
The password is prompted for when --password is omitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := askPassword("Password for " + email + ":")
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = p
			}
			if password == "" {
				return errors.New("password is required")
			}

			cfg, logger, err := opts.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.CreateAdmin(ctx, name, email, password)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), styles.RenderError(err.Error()))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.RenderSuccess(fmt.Sprintf("admin %s (%s) ready", user.Email, user.ID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
