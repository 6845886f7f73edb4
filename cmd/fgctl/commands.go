package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/formgate/formgate/storage/model"
)

var email string

func normalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(email))
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates or updates the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// the schema is migrated when the storage is loaded
		fmt.Fprintln(cmd.OutOrStdout(), "database schema is up to date")
		return nil
	},
}

var registerName string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Registers a new user and prints the first api key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var name *string
		if registerName != "" {
			name = &registerName
		}
		user, raw, err := credentials.Register(cmd.Context(), email, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user:    %s (%s)\n", user.ID, user.Email)
		fmt.Fprintf(cmd.OutOrStdout(), "api key: %s\n", raw)
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the api keys of a user",
}

var keysIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issues a new api key for a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, err := backends.Users.ByEmail(cmd.Context(), normalizedEmail())
		if err != nil {
			return err
		}
		key, raw, err := credentials.Issue(cmd.Context(), user.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "key id:  %s\n", key.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "api key: %s\n", raw)
		return nil
	},
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the api keys of a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, err := backends.Users.ByEmail(cmd.Context(), normalizedEmail())
		if err != nil {
			return err
		}
		keys, err := credentials.List(cmd.Context(), user.ID, "")
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPREFIX\tCREATED\tLAST USED\tREVOKED")
		for _, k := range keys {
			fmt.Fprintf(
				w, "%s\t%s\t%s\t%s\t%s\n", k.ID, k.KeyPrefix, k.CreatedAt.Format(time.RFC3339),
				formatTime(k.LastUsedAt), formatTime(k.RevokedAt),
			)
		}
		return w.Flush()
	},
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage the plan of a user",
}

var planSetCmd = &cobra.Command{
	Use:       "set <free|pro|unpaid>",
	Short:     "Sets the plan of a user; unpaid users cannot use the owner api",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"free", "pro", "unpaid"},
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := model.ParsePlan(args[0])
		if err != nil {
			return err
		}
		user, err := backends.Users.SetPlan(cmd.Context(), normalizedEmail(), plan)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now on plan %s\n", user.Email, user.Plan)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{registerCmd, keysCmd, planCmd} {
		cmd.PersistentFlags().StringVarP(&email, "email", "e", "", "the email address of the user")
		_ = cmd.MarkPersistentFlagRequired("email")
	}
	registerCmd.Flags().StringVarP(&registerName, "name", "n", "", "the name of the user")
	keysCmd.AddCommand(keysIssueCmd, keysListCmd)
	planCmd.AddCommand(planSetCmd)
}
