package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/nbview/internal/db"
	"github.com/Dicklesworthstone/nbview/internal/viewstate"
)

var stateCmd = &cobra.Command{
	Use:   "state <command>",
	Short: "Inspect and manage persisted view state",
	Long: `View and manage the per-document view state nbview saves between runs.

Examples:
  nbview state list            # show saved view state entries
  nbview state list --json     # as JSON
  nbview state clear <uri>     # drop saved state for one document
  nbview state sessions        # show recent open/close events`,
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved view state entries",
	RunE:  runStateList,
}

var stateClearCmd = &cobra.Command{
	Use:   "clear <uri>",
	Short: "Drop saved view state for a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runStateClear,
}

var stateSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show recent session events",
	RunE:  runStateSessions,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateListCmd)
	stateCmd.AddCommand(stateClearCmd)
	stateCmd.AddCommand(stateSessionsCmd)

	stateListCmd.Flags().Bool("json", false, "output as JSON")
	stateSessionsCmd.Flags().Int("limit", 20, "number of events to show")
	stateSessionsCmd.Flags().Bool("json", false, "output as JSON")
}

func openStore() (*viewstate.Store, *db.DB, error) {
	database, err := db.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open state database: %w", err)
	}

	store := viewstate.NewStore()
	if err := store.LoadPersisted(database); err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("load persisted view state: %w", err)
	}
	return store, database, nil
}

func runStateList(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	store, database, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	entries := store.Snapshot()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].URI != entries[j].URI {
			return entries[i].URI < entries[j].URI
		}
		return entries[i].Group < entries[j].Group
	})

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved view state.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "group %d  %s  scroll=%d cell=%d\n",
			e.Group, e.URI, e.State.ScrollOffset, e.State.SelectedCell)
	}
	return nil
}

func runStateClear(cmd *cobra.Command, args []string) error {
	store, database, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	removed := store.Forget(args[0])
	if err := store.Flush(database); err != nil {
		return fmt.Errorf("flush view state: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries for %s\n", removed, args[0])
	return nil
}

func runStateSessions(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	database, err := db.Open()
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer database.Close()

	events, err := database.RecentSessionEvents(limit)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	if len(events) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No session events.")
		return nil
	}
	for _, ev := range events {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-7s %s\n",
			ev.Timestamp.Format("2006-01-02 15:04:05"), ev.EventType, ev.URI)
	}
	return nil
}
