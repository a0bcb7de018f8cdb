package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/nikhilsahni7/StandupX/client"
	"github.com/nikhilsahni7/StandupX/ordering"
	"github.com/spf13/cobra"
)

type app struct {
	server   string
	email    string
	password string

	api *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "standupctl",
		Short:        "Manage stand-up ceremonies from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.connect(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.server, "server", envOr("STANDUPX_SERVER", "http://localhost:8080"), "API base url")
	flags.StringVar(&a.email, "email", os.Getenv("STANDUPX_EMAIL"), "account email")
	flags.StringVar(&a.password, "password", os.Getenv("STANDUPX_PASSWORD"), "account password")

	root.AddCommand(a.questionsCmd(), a.templatesCmd(), a.submitCmd())
	return root
}

func (a *app) connect(cmd *cobra.Command) error {
	if a.email == "" || a.password == "" {
		return errors.New("--email and --password are required")
	}
	api, err := client.New(a.server)
	if err != nil {
		return err
	}
	if _, err := api.Login(cmd.Context(), a.email, a.password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	a.api = api
	return nil
}

// editor loads the ceremony's current order through the API.
func (a *app) editor(cmd *cobra.Command, ceremonyID uint) (*ordering.Editor, error) {
	ed := ordering.NewEditor(ordering.NewService(a.api), ceremonyID)
	if err := ed.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return ed, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(n), nil
}

func parseIDs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))
	for _, s := range args {
		id, err := parseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ceremonyFlag registers the required --ceremony flag on cmd.
func ceremonyFlag(cmd *cobra.Command, id *uint) {
	cmd.Flags().UintVarP(id, "ceremony", "c", 0, "ceremony id")
	_ = cmd.MarkFlagRequired("ceremony")
}
