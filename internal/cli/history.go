package cli

import (
	"fmt"
	"strings"

	"github.com/mindmorass/infinity-clipboard/internal/app"
	"github.com/mindmorass/infinity-clipboard/internal/clipboard"
	"github.com/mindmorass/infinity-clipboard/internal/errors"

	"github.com/spf13/cobra"
)

var (
	listLimit  int
	listFormat string
	showFormat string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List clipboard history, newest first",
	Example: `  # Show the ten most recent entries
  infclip list --limit 10

  # Output as JSON
  infclip list --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := GetContext()
		defer cancel()

		return withApp(ctx, func(a *app.App) error {
			entries := a.GetStore().Items()
			if listLimit > 0 {
				entries = a.GetStore().Recent(listLimit)
			}

			output := NewOutputWriter(listFormat)
			output.SetWriter(cmd.OutOrStdout())

			if output.IsStructured() {
				outputs := make([]EntryOutput, 0, len(entries))
				for _, e := range entries {
					outputs = append(outputs, mapToEntryOutput(e))
				}
				return output.Write(outputs)
			}

			writeEntryTable(cmd.OutOrStdout(), entries)
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one entry's content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := GetContext()
		defer cancel()

		return withApp(ctx, func(a *app.App) error {
			entry, ok := a.GetStore().Get(id)
			if !ok {
				return errors.EntryNotFoundError(id)
			}

			output := NewOutputWriter(showFormat)
			output.SetWriter(cmd.OutOrStdout())
			if output.IsStructured() {
				return output.Write(mapToEntryOutput(entry))
			}

			content := entry.Content
			if !strings.HasSuffix(content, "\n") {
				content += "\n"
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), content)
			return err
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete one entry",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := GetContext()
		defer cancel()

		return withApp(ctx, func(a *app.App) error {
			s := a.GetStore()
			if _, ok := s.Get(id); !ok {
				return errors.EntryNotFoundError(id)
			}
			s.DeleteItem(ctx, id)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d\n", id)
			return nil
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the whole history",
	Long:  `Delete every entry and reset ids to start at 1.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed, err := ConfirmDestructive(cmd, "delete your entire clipboard history")
		if err != nil {
			return err
		}
		if !confirmed {
			return errors.CancelledError("clear history")
		}

		ctx, cancel := GetContext()
		defer cancel()

		return withApp(ctx, func(a *app.App) error {
			n := a.GetStore().Len()
			a.GetStore().ClearAll(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries\n", n)
			return nil
		})
	},
}

var langCmd = &cobra.Command{
	Use:   "lang <id> <language>",
	Short: "Change the language of a code entry",
	Example: `  # Re-tag entry 3 as python
  infclip lang 3 python`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		lang, ok := clipboard.ParseLanguage(args[1])
		if !ok {
			names := make([]string, 0, len(clipboard.Languages))
			for _, l := range clipboard.Languages {
				names = append(names, string(l))
			}
			return errors.NewWithSuggestion(errors.ExitCodeValidation,
				fmt.Sprintf("Unknown language %q", args[1]),
				"Choose one of: "+strings.Join(names, ", "))
		}

		ctx, cancel := GetContext()
		defer cancel()

		return withApp(ctx, func(a *app.App) error {
			if !a.GetStore().ChangeLanguage(ctx, id, lang) {
				return errors.EntryNotFoundError(id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry #%d is now %s\n", id, lang)
			return nil
		})
	},
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Show at most this many entries (0 for all)")
	listCmd.Flags().StringVar(&listFormat, "format", "table", "Output format (table, json, yaml)")
	showCmd.Flags().StringVar(&showFormat, "format", "table", "Output format (table, json, yaml)")
}
