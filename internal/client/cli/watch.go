package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/geodash/internal/client/models"
	"github.com/dmitrijs2005/geodash/internal/client/view"
	"github.com/dmitrijs2005/geodash/internal/common"
	"github.com/spf13/cobra"
)

const watchHelp = `Commands:
  add            create a user
  edit <id>      change a user's name or zip code
  delete <id>    delete a user
  refresh        re-list now
  help           show this help
  quit           leave the dashboard`

func (a *app) newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard that redraws when users change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &syncWriter{w: cmd.OutOrStdout()}
			v := view.New(a.backend, a.logger, view.WithStaleTime(a.cfg.RefreshInterval))
			v.OnChange(func(s view.Snapshot) {
				if s.Loading {
					return
				}
				fmt.Fprintln(out)
				RenderSnapshot(out, s)
			})

			if err := v.Mount(cmd.Context()); err != nil {
				return err
			}
			defer v.Unmount()

			fmt.Fprintln(out, watchHelp)
			return repl(cmd.Context(), v, bufio.NewReader(cmd.InOrStdin()), out)
		},
	}
}

// repl reads dashboard commands until quit, EOF or ctx is done. Failed
// writes are not returned; they land in the view's LastError and show up
// on the next redraw.
func repl(ctx context.Context, v *view.ViewState, in *bufio.Reader, out io.Writer) error {
	for ctx.Err() == nil {
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			fmt.Fprintln(out, watchHelp)
		case "refresh", "r":
			v.Refresh()
		case "add":
			name, err := GetSimpleText(in, "Name", out)
			if err != nil {
				return nil
			}
			zip, err := GetSimpleText(in, "Zip code", out)
			if err != nil {
				return nil
			}
			_ = v.Create(ctx, name, zip)
		case "edit":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: edit <id>")
				continue
			}
			u, err := lookupUser(v.Snapshot().Records, v.Find, fields[1])
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			id := u.ID
			name, err := GetTextWithDefault(in, "Name", u.Name, out)
			if err != nil {
				return nil
			}
			zip, err := GetTextWithDefault(in, "Zip code", u.ZipCode, out)
			if err != nil {
				return nil
			}
			_ = v.Update(ctx, id, name, zip, u.ZipCode)
		case "delete":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: delete <id>")
				continue
			}
			id, err := matchID(v.Snapshot().Records, fields[1])
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			ok, err := Confirm(in, fmt.Sprintf("Delete user %s?", shortID(id)), out)
			if err != nil {
				return nil
			}
			if ok {
				_ = v.Delete(ctx, id)
			}
		default:
			fmt.Fprintf(out, "unknown command %q, type help\n", fields[0])
		}
	}
	return nil
}

// lookupUser resolves prefix against records and re-reads the match through
// find, which sees the latest listing. A record gone by then is not found.
func lookupUser(records []models.User, find func(string) (models.User, bool), prefix string) (models.User, error) {
	id, err := matchID(records, prefix)
	if err != nil {
		return models.User{}, err
	}
	u, ok := find(id)
	if !ok {
		return models.User{}, fmt.Errorf("user not found: %w", common.ErrorNotFound)
	}
	return u, nil
}
