package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tutu-network/focusera/internal/app/focus"
)

func init() {
	taskAddCmd.Flags().StringVar(&taskDue, "due", "", "Due date (YYYY-MM-DD)")
	taskAddCmd.Flags().StringVarP(&taskPriority, "priority", "p", "medium", "Priority: low, medium or high")
	taskListCmd.Flags().StringVar(&taskSort, "sort", "deadline", "Sort by deadline or priority")
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskDoneCmd, taskRmCmd)
	rootCmd.AddCommand(taskCmd)
}

var (
	taskDue      string
	taskPriority string
	taskSort     string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Plan what to focus on",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a planner task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		t, err := d.Focus.AddTask(cmd.Context(), currentUser(), args[0], taskDue, taskPriority)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (%s)\n", t.ID, t.Priority)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List planner tasks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		tasks, err := d.Focus.ListTasks(cmd.Context(), currentUser(), focus.ParseSortBy(taskSort))
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks. Run 'focusera task add <text>' to plan one.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDONE\tPRIORITY\tDUE\tTASK")
		for _, t := range tasks {
			done := " "
			if t.Done {
				done = "✓"
			}
			prio := lipgloss.NewStyle().Foreground(lipgloss.Color(focus.PriorityColor(t.Priority))).Render(string(t.Priority))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shortID(t.ID), done, prio, orDash(t.DueDate), t.Text)
		}
		return w.Flush()
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Toggle a task between done and open",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		id, err := resolveTaskID(cmd, d.Focus, args[0])
		if err != nil {
			return err
		}
		t, err := d.Focus.ToggleTask(cmd.Context(), currentUser(), id)
		if err != nil {
			return err
		}
		state := "open"
		if t.Done {
			state = "done"
		}
		fmt.Printf("%s is now %s\n", t.Text, state)
		return nil
	},
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		id, err := resolveTaskID(cmd, d.Focus, args[0])
		if err != nil {
			return err
		}
		if err := d.Focus.DeleteTask(cmd.Context(), currentUser(), id); err != nil {
			return err
		}
		fmt.Println("Deleted", id)
		return nil
	},
}

// resolveTaskID expands the short id printed by 'task list'.
func resolveTaskID(cmd *cobra.Command, svc *focus.Service, prefix string) (string, error) {
	tasks, err := svc.ListTasks(cmd.Context(), currentUser(), focus.SortDeadline)
	if err != nil {
		return "", err
	}
	match := ""
	for _, t := range tasks {
		if len(t.ID) >= len(prefix) && t.ID[:len(prefix)] == prefix {
			if match != "" {
				return "", fmt.Errorf("task id %q is ambiguous", prefix)
			}
			match = t.ID
		}
	}
	if match == "" {
		return prefix, nil
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
