package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pulseapp/pulse-survey/internal/client"
	"github.com/pulseapp/pulse-survey/internal/core/domain"
)

const (
	emailFlag    = "email"
	passwordFlag = "password"
)

// credentials holds the --email/--password pair shared by register and login.
type credentials struct {
	email    string
	password string
}

func (cr *credentials) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cr.email, emailFlag, "", "Account email (required)")
	cmd.Flags().StringVar(&cr.password, passwordFlag, "", "Account password (required)")
}

func (cr *credentials) read() (string, string, error) {
	if cr.email == "" || cr.password == "" {
		return "", "", errors.New("both --email and --password are required")
	}
	return cr.email, cr.password, nil
}

func newRegisterCommand(a *app) *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an employee account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, password, err := creds.read()
			if err != nil {
				return err
			}

			user, err := client.New(a.apiURL()).Register(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", user.Email, user.Role)
			return nil
		},
	}
	creds.register(cmd)
	return cmd
}

func newLoginCommand(a *app) *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, password, err := creds.read()
			if err != nil {
				return err
			}

			res, err := client.New(a.apiURL()).Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			store, err := a.store()
			if err != nil {
				return err
			}
			sess := &client.Session{
				APIURL:      a.apiURL(),
				AccessToken: res.AccessToken,
				Identity: domain.Identity{
					UserID: res.User.ID,
					Email:  res.User.Email,
					Role:   res.User.Role,
				},
			}
			if err := store.Save(sess); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", sess.Identity.Email, sess.Identity.Role)
			return nil
		},
	}
	creds.register(cmd)
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity behind the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cl, err := a.session()
			if err != nil {
				return err
			}

			id, err := cl.Profile(cmd.Context())
			if err != nil {
				return sessionError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", id.UserID, id.Email, id.Role)
			return nil
		},
	}
}

// sessionError turns a rejected token into an actionable message.
func sessionError(err error) error {
	if client.StatusOf(err) == 401 {
		return fmt.Errorf("session expired or invalid, run pulsectl login: %w", err)
	}
	return err
}
