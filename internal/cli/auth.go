package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/config"
	"github.com/lu-zhengda/smartmail/internal/domain"
	"github.com/lu-zhengda/smartmail/internal/session"
	"github.com/lu-zhengda/smartmail/internal/store"
)

func newLoginCmd() *cobra.Command {
	var googleFlag, passwordStdin bool
	var userFlag string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the backend",
		Long: "Sign in with email and password, or with --google through the browser.\n" +
			"Tokens are kept in the OS keyring under the active profile.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := cmd.Context()

			var user *domain.User
			if googleFlag {
				if !e.session.Google.HasCredentials() {
					return session.ErrNoGoogleCredentials
				}
				if !structured() {
					fmt.Fprintln(os.Stderr, "Starting Google sign-in...")
				}
				user, err = e.session.LoginGoogle(ctx)
			} else {
				email, password := userFlag, ""
				if passwordStdin {
					if password, err = readSecret(os.Stdin); err != nil {
						return err
					}
				}
				if email == "" || password == "" {
					if !interactive() {
						return errors.New("--user and --password-stdin are required without a terminal")
					}
					if err := loginForm(&email, &password); err != nil {
						return err
					}
				}
				user, err = e.session.LoginPassword(ctx, email, password)
			}
			if err != nil {
				return fmt.Errorf("failed to log in: %w", err)
			}

			return render(jsonAction{OK: true, Action: "login", Profile: e.profile.Name, Email: user.Email}, func(w io.Writer) error {
				fmt.Fprintf(w, "Logged in as %s (%s) on profile %s\n", user.DisplayName(), user.Role, e.profile.Name)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&googleFlag, "google", false, "sign in with Google")
	cmd.Flags().StringVar(&userFlag, "user", "", "account email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.MarkFlagsMutuallyExclusive("google", "user")
	cmd.MarkFlagsMutuallyExclusive("google", "password-stdin")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.session.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear local session: %w", err)
			}
			return render(jsonAction{OK: true, Action: "logout", Profile: e.profile.Name}, func(w io.Writer) error {
				fmt.Fprintf(w, "Logged out of profile %s\n", e.profile.Name)
				return nil
			})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			u, err := e.require(cmd.Context(), "")
			if err != nil {
				return err
			}
			return render(u, func(w io.Writer) error {
				fmt.Fprintf(w, "Email:   %s\n", u.Email)
				if u.FullName != "" {
					fmt.Fprintf(w, "Name:    %s\n", u.FullName)
				}
				fmt.Fprintf(w, "Role:    %s\n", u.Role)
				fmt.Fprintf(w, "Profile: %s (%s)\n", e.profile.Name, e.client.BaseURL())
				return nil
			})
		},
	}
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage backend profiles",
	}
	cmd.AddCommand(newProfileAddCmd())
	cmd.AddCommand(newProfileListCmd())
	cmd.AddCommand(newProfileRemoveCmd())
	cmd.AddCommand(newProfileUseCmd())
	return cmd
}

func newProfileAddCmd() *cobra.Command {
	var urlFlag string
	var defaultFlag bool

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a backend profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New("profile name is required")
			}
			if urlFlag == "" {
				urlFlag = config.DefaultBaseURL
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			ctx := cmd.Context()

			p := &store.Profile{Name: name, BaseURL: strings.TrimRight(urlFlag, "/")}
			if err := db.SaveProfile(ctx, p); err != nil {
				return fmt.Errorf("failed to save profile: %w", err)
			}
			if defaultFlag {
				if err := db.SetDefaultProfile(ctx, name); err != nil {
					return fmt.Errorf("failed to set default profile: %w", err)
				}
			}

			return render(jsonAction{OK: true, Action: "profile_add", Profile: name}, func(w io.Writer) error {
				fmt.Fprintf(w, "Profile added: %s -> %s\n", name, p.BaseURL)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&urlFlag, "url", "", "backend API root (default "+config.DefaultBaseURL+")")
	cmd.Flags().BoolVar(&defaultFlag, "default", false, "make this the default profile")
	return cmd
}

func newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			profiles, err := db.ListProfiles(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list profiles: %w", err)
			}

			return render(toJSONProfiles(profiles), func(w io.Writer) error {
				if len(profiles) == 0 {
					fmt.Fprintln(w, "No profiles configured. Run 'smartmail login' to create the default one.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "DEFAULT\tNAME\tURL\tUSER\tROLE")
				for _, p := range profiles {
					mark := " "
					if p.IsDefault {
						mark = "*"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, p.Name, p.BaseURL, p.UserEmail, p.Role)
				}
				return tw.Flush()
			})
		},
	}
}

func newProfileRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a profile and its stored tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteProfile(cmd.Context(), name); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("profile not found: %s", name)
				}
				return fmt.Errorf("failed to delete profile: %w", err)
			}
			if err := session.NewKeyringStore(name).DeleteTokens(); err != nil {
				// Non-fatal: tokens may never have been stored.
				fmt.Fprintf(os.Stderr, "Warning: could not remove tokens from keyring: %v\n", err)
			}

			return render(jsonAction{OK: true, Action: "profile_remove", Profile: name}, func(w io.Writer) error {
				fmt.Fprintf(w, "Profile removed: %s\n", name)
				return nil
			})
		},
	}
}

func newProfileUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Make a profile the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.SetDefaultProfile(cmd.Context(), name); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("profile not found: %s", name)
				}
				return fmt.Errorf("failed to set default profile: %w", err)
			}
			return render(jsonAction{OK: true, Action: "profile_use", Profile: name}, func(w io.Writer) error {
				fmt.Fprintf(w, "Default profile: %s\n", name)
				return nil
			})
		},
	}
}
