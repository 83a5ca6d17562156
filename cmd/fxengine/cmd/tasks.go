package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List pending scheduled tasks",
	RunE:  runTasks,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, args []string) error {
	store, err := buildStore()
	if err != nil {
		return err
	}
	defer store.Close()

	tasks, err := store.ListPending(cmd.Context())
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No pending tasks")
		return nil
	}

	now := time.Now()
	for _, t := range tasks {
		when := t.FireAt.Local().Format(time.RFC3339)
		in := t.FireAt.Sub(now).Round(time.Second)
		if in < 0 {
			fmt.Printf("%s  %d intent(s)  %s (elapsed; fires on recovery)\n", t.ID, len(t.Intents), when)
			continue
		}
		fmt.Printf("%s  %d intent(s)  %s (in %s)\n", t.ID, len(t.Intents), when, in)
	}
	return nil
}
