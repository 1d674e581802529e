package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/pulseapp/pulse-survey/internal/core/domain"
)

func newSubmitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <response...>",
		Short: "Submit a survey response (1-500 characters)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cl, err := a.session()
			if err != nil {
				return err
			}

			sv, err := cl.Submit(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return sessionError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitted %s\n", sv.ID)
			return nil
		},
	}
}

func newHistoryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List your own responses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cl, err := a.session()
			if err != nil {
				return err
			}

			surveys, err := cl.ListOwn(cmd.Context())
			if err != nil {
				return sessionError(err)
			}
			return printSurveys(cmd.OutOrStdout(), surveys, false)
		},
	}
}

const (
	formatFlag = "format"
	outFlag    = "out"
)

func newAdminCommand(a *app) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Admin-only views",
		// Gate locally on the saved role; the server enforces it regardless.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			sess, _, err := a.session()
			if err != nil {
				return err
			}
			if !sess.IsAdmin() {
				return errors.New("admin role required")
			}
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every response, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cl, err := a.session()
			if err != nil {
				return err
			}
			surveys, err := cl.ListAll(cmd.Context())
			if err != nil {
				return sessionError(err)
			}
			return printSurveys(cmd.OutOrStdout(), surveys, true)
		},
	}

	exportFlags := map[string]cobraflags.Flag{
		formatFlag: &cobraflags.StringFlag{
			Name:  formatFlag,
			Value: "csv",
			Usage: "Export format: csv or json",
		},
		outFlag: &cobraflags.StringFlag{
			Name:  outFlag,
			Value: "",
			Usage: "Write to this file instead of stdout",
		},
	}
	export := &cobra.Command{
		Use:   "export",
		Short: "Download every response as CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cl, err := a.session()
			if err != nil {
				return err
			}

			body, err := cl.Export(cmd.Context(), exportFlags[formatFlag].GetString())
			if err != nil {
				return sessionError(err)
			}

			out := exportFlags[outFlag].GetString()
			if out == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(body), out)
			return nil
		},
	}
	cobraflags.RegisterMap(export, exportFlags)

	admin.AddCommand(list, export)
	return admin
}

func printSurveys(w io.Writer, surveys []domain.Survey, withOwner bool) error {
	if len(surveys) == 0 {
		_, err := fmt.Fprintln(w, "no responses yet")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if withOwner {
		fmt.Fprintln(tw, "SUBMITTED\tID\tUSER\tRESPONSE")
	} else {
		fmt.Fprintln(tw, "SUBMITTED\tID\tRESPONSE")
	}
	for _, s := range surveys {
		when := s.CreatedAt.Local().Format(time.DateTime)
		text := strings.ReplaceAll(s.Response, "\n", " ")
		if withOwner {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", when, s.ID, s.UserID, text)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", when, s.ID, text)
		}
	}
	return tw.Flush()
}
