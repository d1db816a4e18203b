package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage users and AI settings (admin)",
	}
	cmd.AddCommand(newAdminUsersCmd())
	cmd.AddCommand(newAdminUpdateCmd())
	cmd.AddCommand(newAdminSettingsCmd())
	return cmd
}

// adminEnv opens the environment and requires an admin session.
func adminEnv(cmd *cobra.Command) (*env, error) {
	e, err := newEnv(cmd)
	if err != nil {
		return nil, err
	}
	if _, err := e.require(cmd.Context(), domain.RoleAdmin); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func newAdminUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := adminEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			users, err := e.client.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			return render(users, func(w io.Writer) error {
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tACTIVE")
				for _, u := range users {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.FullName, u.Role, yesNo(u.IsActive))
				}
				return tw.Flush()
			})
		},
	}
}

func newAdminUpdateCmd() *cobra.Command {
	var roleFlag string
	var activeFlag bool

	cmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Change a user's role or active state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var upd domain.UserUpdate
			if cmd.Flags().Changed("role") {
				if roleFlag != domain.RoleAdmin && roleFlag != domain.RoleUser {
					return fmt.Errorf("role must be %q or %q", domain.RoleAdmin, domain.RoleUser)
				}
				upd.Role = &roleFlag
			}
			if cmd.Flags().Changed("active") {
				upd.IsActive = &activeFlag
			}
			if upd.Role == nil && upd.IsActive == nil {
				return errors.New("nothing to update: pass --role or --active")
			}

			e, err := adminEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			u, err := e.client.UpdateUser(cmd.Context(), id, upd)
			if err != nil {
				return err
			}
			return render(u, func(w io.Writer) error {
				fmt.Fprintf(w, "User %s is now %s (active: %s).\n", u.Email, u.Role, yesNo(u.IsActive))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&roleFlag, "role", "", "admin or user")
	cmd.Flags().BoolVar(&activeFlag, "active", true, "activate or deactivate the account")
	return cmd
}

func newAdminSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "LLM, prompt and policy settings",
	}
	cmd.AddCommand(newSettingsLLMCmd())
	cmd.AddCommand(newSettingsLLMSetCmd())
	cmd.AddCommand(newSettingsPromptsCmd())
	cmd.AddCommand(newSettingsPromptSetCmd())
	cmd.AddCommand(newSettingsPromptAddCmd())
	cmd.AddCommand(newSettingsPoliciesCmd())
	cmd.AddCommand(newSettingsPolicyAddCmd())
	cmd.AddCommand(newSettingsPolicyRemoveCmd())
	return cmd
}

func printLLM(w io.Writer, s *domain.LLMSettings) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Provider\t%s\n", s.ModelProvider)
	fmt.Fprintf(tw, "Model\t%s\n", s.ModelName)
	fmt.Fprintf(tw, "Temperature\t%s\n", s.Temperature)
	fmt.Fprintf(tw, "Max tokens\t%d\n", s.MaxTokens)
	if s.APIBaseURL != "" {
		fmt.Fprintf(tw, "API base URL\t%s\n", s.APIBaseURL)
	}
	tw.Flush()
}

func newSettingsLLMCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "llm",
		Short: "Show the active LLM settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := adminEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.client.LLMSettings(cmd.Context())
			if err != nil {
				return err
			}
			return render(s, func(w io.Writer) error {
				printLLM(w, s)
				return nil
			})
		},
	}
}

func newSettingsLLMSetCmd() *cobra.Command {
	var providerFlag, modelFlag, temperatureFlag, apiBaseFlag string
	var maxTokensFlag int

	cmd := &cobra.Command{
		Use:   "llm-set",
		Short: "Update the LLM settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd domain.LLMSettingsUpdate
			flags := cmd.Flags()
			if flags.Changed("provider") {
				upd.ModelProvider = &providerFlag
			}
			if flags.Changed("model") {
				upd.ModelName = &modelFlag
			}
			if flags.Changed("temperature") {
				upd.Temperature = &temperatureFlag
			}
			if flags.Changed("max-tokens") {
				upd.MaxTokens = &maxTokensFlag
			}
			if flags.Changed("api-base") {
				upd.APIBaseURL = &apiBaseFlag
			}
			if upd == (domain.LLMSettingsUpdate{}) {
				return errors.New("nothing to update")
			}

			e, err := adminEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.client.UpdateLLMSettings(cmd.Context(), upd)
			if err != nil {
				return err
			}
			return render(s, func(w io.Writer) error {
				printLLM(w, s)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&providerFlag, "provider", "", "model provider, e.g. openai")
	cmd.Flags().StringVar(&modelFlag, "model", "", "model name")
	cmd.Flags().StringVar(&temperatureFlag, "temperature", "", "sampling temperature, e.g. 0.7")
	cmd.Flags().IntVar(&maxTokensFlag, "max-tokens", 0, "max tokens per generation")
	cmd.Flags().StringVar(&apiBaseFlag, "api-base", "", "custom API base URL")
	return cmd
}

func newSettingsPromptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompts",
		Short: "List prompt templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := adminEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			prompts, err := e.client.ListPrompts(cmd.Context())
			if err != nil {
				return err
			}
			return render(prompts, func(w io.Writer) error {
				if len(prompts) == 0 {
					fmt.Fprintln(w, "No prompt templates.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tNAME\tVERSION\tACTIVE\tSYSTEM PROMPT")
				for _, p := range prompts {
					fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", p.ID, p.Name, p.Version, yesNo(p.IsActive),
						truncate(strings.Join(strings.Fields(p.SystemPrompt), " "), 50))
				}
				return tw.Flush()
			})
		},
	}
}

func newSettingsPromptSetCmd() *cobra.Command {
	var descriptionFlag, systemFlag, userTemplateFlag string

	cmd := &cobra.Command{
		Use:   "prompt-set <prompt-id>",
		Short: "Update a prompt template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var upd domain.PromptTemplateUpdate
			flags := cmd.Flags()
			if flags.Changed("description") {
				upd.Description = &descriptionFlag
			}
			if flags.Changed("system") {
				s, err := readBody(systemFlag)
				if err != nil {
					return err
				}
				upd.SystemPrompt = &s
			}
			if flags.Changed("user-template") {
				upd.UserPromptTemplate = &userTemplateFlag
			}
			if upd == (domain.PromptTemplateUpdate{}) {
				return errors.New("nothing to update")
			}

			e, err := adminEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.client.UpdatePrompt(cmd.Context(), id, upd)
			if err != nil {
				return err
			}
			return render(p, func(w io.Writer) error {
				fmt.Fprintf(w, "Prompt %q updated to version %d.\n", p.Name, p.Version)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&descriptionFlag, "description", "", "description")
	cmd.Flags().StringVar(&systemFlag, "system", "", "system prompt (use '-' to read from stdin)")
	cmd.Flags().StringVar(&userTemplateFlag, "user-template", "", "user prompt template")
	return cmd
}

func newSettingsPromptAddCmd() *cobra.Command {
	var descriptionFlag, systemFlag, userTemplateFlag string

	cmd := &cobra.Command{
		Use:   "prompt-add <name>",
		Short: "Create a prompt template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			system, err := readBody(systemFlag)
			if err != nil {
				return err
			}
			if strings.TrimSpace(system) == "" {
				return errors.New("--system is required (use '-' to read from stdin)")
			}

			e, err := adminEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.client.CreatePrompt(cmd.Context(), domain.PromptTemplateCreate{
				Name:               args[0],
				Description:        descriptionFlag,
				SystemPrompt:       system,
				UserPromptTemplate: userTemplateFlag,
			})
			if err != nil {
				return err
			}
			return render(p, func(w io.Writer) error {
				fmt.Fprintf(w, "Prompt %q created (id %d).\n", p.Name, p.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&descriptionFlag, "description", "", "description")
	cmd.Flags().StringVar(&systemFlag, "system", "", "system prompt (use '-' to read from stdin)")
	cmd.Flags().StringVar(&userTemplateFlag, "user-template", "", "user prompt template")
	return cmd
}

func newSettingsPoliciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List policy rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := adminEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			policies, err := e.client.ListPolicies(cmd.Context())
			if err != nil {
				return err
			}
			return render(policies, func(w io.Writer) error {
				if len(policies) == 0 {
					fmt.Fprintln(w, "No policy rules.")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSEVERITY\tACTIVE\tCONFIG")
				for _, p := range policies {
					cfg, _ := json.Marshal(p.Config)
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.RuleType, p.Severity,
						yesNo(p.IsActive), truncate(string(cfg), 50))
				}
				return tw.Flush()
			})
		},
	}
}

func newSettingsPolicyAddCmd() *cobra.Command {
	var typeFlag, configFlag, severityFlag, descriptionFlag string

	cmd := &cobra.Command{
		Use:   "policy-add <name>",
		Short: "Create a policy rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := domain.PolicyRuleCreate{
				Name:        args[0],
				Description: descriptionFlag,
				RuleType:    typeFlag,
				Severity:    severityFlag,
				Config:      map[string]any{},
			}
			if configFlag != "" {
				if err := json.Unmarshal([]byte(configFlag), &in.Config); err != nil {
					return fmt.Errorf("--config must be a JSON object: %w", err)
				}
			}

			e, err := adminEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.client.CreatePolicy(cmd.Context(), in)
			if err != nil {
				return err
			}
			return render(p, func(w io.Writer) error {
				fmt.Fprintf(w, "Policy %q created (id %d).\n", p.Name, p.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "rule type, e.g. blocked_keywords")
	cmd.Flags().StringVar(&configFlag, "config", "", `rule config as JSON, e.g. '{"keywords":["refund"]}'`)
	cmd.Flags().StringVar(&severityFlag, "severity", "", "severity, e.g. warning or block")
	cmd.Flags().StringVar(&descriptionFlag, "description", "", "description")
	cmd.MarkFlagRequired("type")
	return cmd
}

func newSettingsPolicyRemoveCmd() *cobra.Command {
	var yesFlag bool

	cmd := &cobra.Command{
		Use:   "policy-remove <policy-id>",
		Short: "Delete a policy rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ok, err := confirm(fmt.Sprintf("Delete policy %d?", id), yesFlag)
			if err != nil || !ok {
				return err
			}

			e, err := adminEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.client.DeletePolicy(cmd.Context(), id); err != nil {
				return err
			}
			return render(jsonAction{OK: true, Action: "remove_policy", ID: id}, func(w io.Writer) error {
				fmt.Fprintf(w, "Policy %d deleted.\n", id)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
