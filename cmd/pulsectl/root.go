package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pulseapp/pulse-survey/internal/client"
)

const (
	apiURLKey  = "api_url"
	sessionKey = "session"
)

// app carries the per-invocation configuration shared by every subcommand.
type app struct {
	v *viper.Viper
}

func (a *app) apiURL() string {
	return a.v.GetString(apiURLKey)
}

func (a *app) store() (*client.FileStore, error) {
	path := a.v.GetString(sessionKey)
	if path == "" {
		var err error
		if path, err = client.DefaultSessionPath(); err != nil {
			return nil, err
		}
	}
	return client.NewFileStore(path), nil
}

// session loads the saved login. The saved API URL wins unless --api or
// PULSE_API_URL was given explicitly.
func (a *app) session() (*client.Session, *client.Client, error) {
	store, err := a.store()
	if err != nil {
		return nil, nil, err
	}
	sess, err := store.Load()
	if err != nil {
		return nil, nil, err
	}

	url := sess.APIURL
	if a.v.IsSet(apiURLKey) || url == "" {
		url = a.apiURL()
	}
	return sess, client.New(url, client.WithToken(sess.AccessToken)), nil
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("PULSE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "pulsectl",
		Short:         "Submit and review pulse survey responses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("api", client.DefaultBaseURL, "Base URL of the pulse API (env PULSE_API_URL)")
	root.PersistentFlags().String("session", "", "Path of the saved session file (env PULSE_SESSION)")
	_ = a.v.BindPFlag(apiURLKey, root.PersistentFlags().Lookup("api"))
	_ = a.v.BindPFlag(sessionKey, root.PersistentFlags().Lookup("session"))

	root.AddCommand(
		newRegisterCommand(a),
		newLoginCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newSubmitCommand(a),
		newHistoryCommand(a),
		newAdminCommand(a),
	)
	return root
}
