package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"onlyhate/internal/admin"
	"onlyhate/internal/auth"
	"onlyhate/internal/catalog"
	"onlyhate/internal/tui"
)

var errNotSignedIn = errors.New("not signed in; run onlyhatectl login")

type rootOptions struct {
	server string
	state  string
	sess   *session
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "onlyhatectl",
		Short:         "Manage the ONLY HATE RECORDS catalog",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession(cmd.Context(), opts.server, opts.state)
			if err != nil {
				return err
			}
			opts.sess = sess
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if opts.sess == nil {
				return nil
			}
			return opts.sess.Close()
		},
	}

	root.PersistentFlags().StringVar(&opts.server, "server", envOrDefault("ONLYHATE_SERVER", defaultServer), "catalog API base URL")
	root.PersistentFlags().StringVar(&opts.state, "state", envOrDefault("ONLYHATE_STATE", defaultStatePath()), "local session state file")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newListCmd(opts),
		newTUICmd(opts),
	)
	return root
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as the catalog administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			if err := opts.sess.Login(cmd.Context(), email, password); err != nil {
				if errors.Is(err, auth.ErrInvalidCredentials) {
					return errors.New("invalid email or password")
				}
				return err
			}
			user, _ := opts.sess.User()
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", auth.DefaultAdminEmail, "administrator email")
	cmd.Flags().StringVar(&password, "password", "", "administrator password (prompted when empty)")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.sess.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !opts.sess.IsAuthenticated() {
				return errNotSignedIn
			}
			user, err := opts.sess.client.Me(cmd.Context())
			if errors.Is(err, auth.ErrUnauthorized) {
				_ = opts.sess.Logout(cmd.Context())
				return errors.New("session expired; run onlyhatectl login")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), user.Email)
			return nil
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "list <bands|releases|products>",
		Short:     "Print a catalog collection",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(catalog.KindBands), string(catalog.KindReleases), string(catalog.KindProducts)},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.sess.IsAuthenticated() {
				return errNotSignedIn
			}
			t, err := collectionTable(cmd, opts, catalog.Kind(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func collectionTable(cmd *cobra.Command, opts *rootOptions, kind catalog.Kind) (*table.Table, error) {
	ctx := cmd.Context()
	client := opts.sess.client

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#8A0303")))

	switch kind {
	case catalog.KindBands:
		rows, err := client.Bands(ctx)
		if err != nil {
			return nil, err
		}
		t.Headers("ID", "NAME", "COUNTRY", "FORMED", "GENRES", "FEATURED")
		for _, b := range rows {
			t.Row(b.ID, b.Name, b.Country, strconv.Itoa(b.FormedIn), strings.Join(b.Genres, ", "), yesNo(b.Featured))
		}
	case catalog.KindReleases:
		rows, err := client.Releases(ctx)
		if err != nil {
			return nil, err
		}
		t.Headers("ID", "TITLE", "ARTIST", "YEAR", "TYPE", "FORMATS", "IN STOCK")
		for _, r := range rows {
			formats := make([]string, len(r.Format))
			for i, f := range r.Format {
				formats[i] = string(f)
			}
			t.Row(r.ID, r.Title, r.Artist, strconv.Itoa(r.Year), string(r.Type), strings.Join(formats, ", "), yesNo(r.InStock))
		}
	case catalog.KindProducts:
		rows, err := client.Products(ctx)
		if err != nil {
			return nil, err
		}
		t.Headers("ID", "NAME", "TYPE", "PRICE", "ARTIST", "IN STOCK")
		for _, p := range rows {
			t.Row(p.ID, p.Name, string(p.Type), p.Price.StringFixed(2), p.Artist, yesNo(p.InStock))
		}
	default:
		return nil, fmt.Errorf("unknown collection %q", kind)
	}
	return t, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive admin console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return tui.Run(cmd.Context(), admin.NewConsole(opts.sess.client), opts.sess)
		},
	}
}
