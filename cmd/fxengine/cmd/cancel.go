package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Cancel a pending scheduled task",
	Long: `Remove a pending task's record so it never fires. Cancelling an
already-fired, already-cancelled or unknown task is a no-op, and a
cancel can never undo an order that was already submitted.`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	store, err := buildStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ok, err := store.Delete(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	if !ok {
		fmt.Printf("Task %s not pending (already fired, cancelled, or unknown)\n", args[0])
		return nil
	}
	fmt.Printf("Task %s cancelled\n", args[0])
	return nil
}
