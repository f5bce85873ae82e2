package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ghaggin/fluidbalance/internal/api"
	"github.com/ghaggin/fluidbalance/internal/auth"
	"github.com/ghaggin/fluidbalance/internal/config"
	"github.com/ghaggin/fluidbalance/internal/model"
	"github.com/ghaggin/fluidbalance/internal/slots"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "fluidbalance",
		Short:         "Clinician console for dialysis fluid balances",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the YAML config file")

	path := func() config.Path { return config.Path(configPath) }
	cmd.AddCommand(newServeCommand(path))
	cmd.AddCommand(newLoginCommand(path))
	cmd.AddCommand(newLogoutCommand(path))
	cmd.AddCommand(newStatusCommand(path))
	cmd.AddCommand(newSlotsCommand(path))
	return cmd
}

func newServeCommand(path func() config.Path) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the console to the local browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(core(path()), console())
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

type session struct {
	fx.In

	Config   *config.Config
	Clock    clockwork.Clock
	Manager  *auth.Manager
	Services *api.Services
}

// withSession builds the core graph, restores any persisted session and
// hands it to fn.
func withSession(cmd *cobra.Command, path config.Path, fn func(ctx context.Context, s session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var s session
	app := fx.New(core(path), fx.NopLogger, fx.Invoke(func(p session) { s = p }))
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = app.Stop(context.Background())
	}()

	if _, err := s.Manager.InitSessionFromStorage(ctx); err != nil {
		return err
	}
	return fn(ctx, s)
}

func newLoginCommand(path func() config.Path) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session token; the password is read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), "Contraseña: ")
			password, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}

			return withSession(cmd, path(), func(ctx context.Context, s session) error {
				tok, err := s.Manager.Login(ctx, model.Credentials{Username: username, Password: password})
				if err != nil {
					return errors.New(api.Message(err, "Usuario o contraseña incorrectos."))
				}
				if err := s.Manager.HandleLogin(ctx, tok); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sesión iniciada, expira en %s\n", s.Manager.TimeLeft().Round(time.Second))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Clinician username")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}

func newLogoutCommand(path func() config.Path) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, path(), func(ctx context.Context, s session) error {
				s.Manager.Logout(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada")
				return nil
			})
		},
	}
}

func newStatusCommand(path func() config.Path) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is signed in and how long the session has left",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, path(), func(_ context.Context, s session) error {
				out := cmd.OutOrStdout()
				if !s.Manager.SessionUsable() {
					fmt.Fprintln(out, "Sin sesión activa")
					return nil
				}
				fmt.Fprintf(out, "Usuario: %s\n", s.Manager.Subject())
				fmt.Fprintf(out, "Tiempo restante: %s\n", s.Manager.TimeLeft().Round(time.Second))
				return nil
			})
		},
	}
}

func newSlotsCommand(path func() config.Path) *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "List today's active fluid balance times",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, path(), func(ctx context.Context, s session) error {
				if !s.Manager.SessionUsable() {
					return errors.New("no active session, run fluidbalance login first")
				}
				loc, err := s.Config.Location()
				if err != nil {
					return err
				}
				times, err := s.Services.FluidDates.Active(ctx)
				if err != nil {
					return errors.New(api.Message(err, "No pudimos cargar las fechas activas."))
				}

				out := cmd.OutOrStdout()
				today := slots.Build(s.Clock.Now(), times, loc, s.Config.Display.Locale)
				if len(today) == 0 {
					fmt.Fprintln(out, "Sin fecha disponible")
					return nil
				}
				for _, slot := range today {
					fmt.Fprintf(out, "%s\t%s\n", slot.Value(), slot.Label)
				}
				return nil
			})
		},
	}
}
