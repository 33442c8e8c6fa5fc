package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/geodash/internal/client/config"
	"github.com/dmitrijs2005/geodash/internal/client/models"
	"github.com/dmitrijs2005/geodash/internal/client/view"
	"github.com/dmitrijs2005/geodash/internal/common"
	"github.com/dmitrijs2005/geodash/internal/logging"
	"github.com/spf13/cobra"
)

var ErrAmbiguousID = errors.New("ambiguous id prefix")

// Backend is the server connection the commands work against.
type Backend interface {
	view.Backend
	Ping(ctx context.Context) error
	Get(ctx context.Context, id string) (*models.User, error)
	Close() error
}

// Dialer opens a Backend once flags are parsed.
type Dialer func(cfg *config.Config) (Backend, error)

type app struct {
	cfg     *config.Config
	dial    Dialer
	logger  logging.Logger
	backend Backend
	askKey  bool
}

// NewRootCommand builds the geodash command tree. cfg holds defaults and
// JSON settings; flags are bound onto it.
func NewRootCommand(cfg *config.Config, dial Dialer, l logging.Logger) *cobra.Command {
	a := &app{cfg: cfg, dial: dial, logger: l}

	root := &cobra.Command{
		Use:           "geodash",
		Short:         "Manage users and their location data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.connect(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.backend == nil {
				return nil
			}
			return a.backend.Close()
		},
	}

	config.BindFlags(root.PersistentFlags(), cfg)
	root.PersistentFlags().BoolVar(&a.askKey, "ask-key", false, "prompt for the API key")

	root.AddCommand(
		a.newPingCommand(),
		a.newListCommand(),
		a.newAddCommand(),
		a.newEditCommand(),
		a.newDeleteCommand(),
		a.newWatchCommand(),
	)
	return root
}

func (a *app) connect(cmd *cobra.Command) error {
	if a.askKey {
		key, err := GetAPIKey(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		a.cfg.APIKey = key
	}

	b, err := a.dial(a.cfg)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", a.cfg.ServerEndpointAddr, err)
	}
	a.backend = b
	return nil
}

func (a *app) newPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.backend.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}

func (a *app) newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.backend.List(cmd.Context())
			if err != nil {
				return err
			}
			sortNewestFirst(users)
			return RenderTable(cmd.OutOrStdout(), users, "")
		},
	}
}

func (a *app) newAddCommand() *cobra.Command {
	var name, zip string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user; missing values are prompted for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			var err error
			if name == "" {
				if name, err = GetSimpleText(in, "Name", out); err != nil {
					return err
				}
			}
			if zip == "" {
				if zip, err = GetSimpleText(in, "Zip code", out); err != nil {
					return err
				}
			}

			name, zip, err = common.ValidateUserInput(name, zip)
			if err != nil {
				return err
			}

			u, err := a.backend.Create(cmd.Context(), name, zip)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Created %s\n", shortID(u.ID))
			return RenderTable(out, []models.User{*u}, "")
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "user name")
	cmd.Flags().StringVar(&zip, "zip", "", "US zip code")
	return cmd
}

func (a *app) newEditCommand() *cobra.Command {
	var name, zip string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a user's name or zip code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			id, err := a.resolveID(ctx, args[0])
			if err != nil {
				return err
			}
			current, err := a.backend.Get(ctx, id)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("name") {
				if name, err = GetTextWithDefault(in, "Name", current.Name, out); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("zip") {
				if zip, err = GetTextWithDefault(in, "Zip code", current.ZipCode, out); err != nil {
					return err
				}
			}

			name, zip, err = common.ValidateUserInput(name, zip)
			if err != nil {
				return err
			}

			u, err := a.backend.Update(ctx, id, name, zip, current.ZipCode)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Updated %s\n", shortID(u.ID))
			return RenderTable(out, []models.User{*u}, "")
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&zip, "zip", "", "new US zip code")
	return cmd
}

func (a *app) newDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			id, err := a.resolveID(ctx, args[0])
			if err != nil {
				return err
			}

			if !yes {
				ok, err := Confirm(bufio.NewReader(cmd.InOrStdin()),
					fmt.Sprintf("Delete user %s?", shortID(id)), out)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Cancelled")
					return nil
				}
			}

			if err := a.backend.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %s\n", shortID(id))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// resolveID expands a unique id prefix against the current listing.
func (a *app) resolveID(ctx context.Context, prefix string) (string, error) {
	users, err := a.backend.List(ctx)
	if err != nil {
		return "", err
	}
	return matchID(users, prefix)
}

func matchID(users []models.User, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("empty id: %w", common.ErrorNotFound)
	}

	var found []string
	for _, u := range users {
		if u.ID == prefix {
			return u.ID, nil
		}
		if strings.HasPrefix(u.ID, prefix) {
			found = append(found, u.ID)
		}
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("no user with id %q: %w", prefix, common.ErrorNotFound)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w: %q matches %d users", ErrAmbiguousID, prefix, len(found))
	}
}

func sortNewestFirst(users []models.User) {
	slices.SortStableFunc(users, func(a, b models.User) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// syncWriter serializes redraws coming from the view with prompt output.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
