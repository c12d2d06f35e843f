package cmds

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	input "github.com/tcnksm/go-input"
)

func promptCredentials(args []string) (username, password string, err error) {
	ui := &input.UI{Writer: os.Stdout, Reader: os.Stdin}

	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}
	if username == "" {
		username, err = ui.Ask("Username", &input.Options{Required: true, Loop: true})
		if err != nil {
			return "", "", errors.Wrap(err, "read username")
		}
		username = strings.TrimSpace(username)
	}

	password, err = ui.Ask("Password", &input.Options{Required: true, Mask: true, MaskDefault: true})
	if err != nil {
		return "", "", errors.Wrap(err, "read password")
	}
	return username, password, nil
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and store the session token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv()
			if err != nil {
				return err
			}
			username, password, err := promptCredentials(args)
			if err != nil {
				return err
			}
			token, err := e.client.Login(cmd.Context(), username, password)
			if err != nil {
				return errors.Wrap(err, "login")
			}
			if err := e.store.Login(token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", username)
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register [username]",
		Short: "Create a new account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv()
			if err != nil {
				return err
			}
			username, password, err := promptCredentials(args)
			if err != nil {
				return err
			}
			if err := e.client.Register(cmd.Context(), username, password); err != nil {
				return errors.Wrap(err, "register")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %s created, run `parlor login` to continue\n", username)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := buildEnv()
			if err != nil {
				return err
			}
			if err := e.store.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}
