package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/app"
	"github.com/lu-zhengda/smartmail/internal/cache"
	"github.com/lu-zhengda/smartmail/internal/config"
	"github.com/lu-zhengda/smartmail/internal/store/sqlite"
	"github.com/lu-zhengda/smartmail/internal/tui"
)

var (
	// version is set via ldflags at build time.
	version = "dev"
	cfgFile string

	// jsonFlag and yamlFlag select machine-readable output for all commands.
	jsonFlag bool
	yamlFlag bool

	profileFlag string
	apiURLFlag  string
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "smartmail",
		Short: "Terminal client for Smart Mailbox",
		Long: "A terminal dashboard and command line for the Smart Mailbox backend:\n" +
			"triage mail, generate AI drafts, review quarantine and run bulk replies.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if jsonFlag && yamlFlag {
				return fmt.Errorf("--json and --yaml are mutually exclusive")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if shell, _ := cmd.Flags().GetString("generate-completion"); shell != "" {
				switch shell {
				case "bash":
					return cmd.Root().GenBashCompletion(os.Stdout)
				case "zsh":
					return cmd.Root().GenZshCompletion(os.Stdout)
				case "fish":
					return cmd.Root().GenFishCompletion(os.Stdout, true)
				default:
					return fmt.Errorf("unsupported shell: %s (use bash, zsh, or fish)", shell)
				}
			}
			return runTUI(cmd)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("smartmail %s\n", version))
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().String("generate-completion", "", "Generate shell completion (bash, zsh, fish)")
	root.Flags().MarkHidden("generate-completion")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&yamlFlag, "yaml", false, "output in YAML format")
	root.PersistentFlags().StringVar(&profileFlag, "profile", "", "profile to use (defaults to config default or first profile)")
	root.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "override the profile's backend URL")

	root.AddCommand(newLoginCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newWhoamiCmd())
	root.AddCommand(newProfileCmd())
	root.AddCommand(newMailboxCmd())
	root.AddCommand(newEmailCmd())
	root.AddCommand(newDraftCmd())
	root.AddCommand(newBulkCmd())
	root.AddCommand(newGmailCmd())
	root.AddCommand(newJobsCmd())
	root.AddCommand(newQuarantineCmd())
	root.AddCommand(newSpamCmd())
	root.AddCommand(newGroupsCmd())
	root.AddCommand(newApprovalsCmd())
	root.AddCommand(newAnalyticsCmd())
	root.AddCommand(newAdminCmd())
	root.AddCommand(newAuditCmd())
	root.AddCommand(newHealthCmd())
	root.AddCommand(newMetricsCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI opens the dashboard. Logs go to a file so they do not corrupt the
// screen.
func runTUI(cmd *cobra.Command) error {
	if err := os.MkdirAll(config.DataDir(), 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	logPath := filepath.Join(config.DataDir(), "smartmail.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	e, err := openEnv(cmd.Context(), logFile)
	if err != nil {
		return err
	}
	defer e.Close()

	return tui.Run(cmd.Context(), tui.Deps{
		Client:  e.client,
		Session: e.session,
		Flows:   e.flows,
		Bulk:    e.bulkService(),
		Replier: &app.AutoReplier{
			Client:  e.client,
			Cache:   cache.NewMemory(e.cfg.ReplyTTL()),
			Metrics: e.telemetry.Metrics(),
			Logger:  e.logger,
		},
		Monitor: e.monitor(50),
		Config:  e.cfg,
		Profile: e.profile.Name,
		Logger:  e.logger,
	})
}

// openDB creates the data directory and opens the SQLite database.
func openDB() (*sqlite.DB, error) {
	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "smartmail.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// loadConfig loads the application configuration from the config file.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = filepath.Join(config.ConfigDir(), "config.toml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
