package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lezoo/keep/internal/app"
	"github.com/lezoo/keep/internal/resource"
)

func newTasksCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newTaskListCmd(e))
	cmd.AddCommand(newTaskCreateCmd(e))
	cmd.AddCommand(newTaskUpdateCmd(e))
	cmd.AddCommand(newTaskCompleteCmd(e))
	cmd.AddCommand(newTaskSubtaskCmd(e))
	cmd.AddCommand(newTaskDeleteCmd(e))
	return cmd
}

func newTaskListCmd(e *env) *cobra.Command {
	var note int64
	var pending bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := refresh(ctx, a, a.Tasks.Refresh); err != nil {
					return err
				}
				tasks := a.Tasks.List()
				if note > 0 {
					tasks = a.Tasks.ForNote(note)
				}
				if pending {
					open := tasks[:0:0]
					for _, t := range tasks {
						if !t.Completed {
							open = append(open, t)
						}
					}
					tasks = open
				}
				return e.printTasks(tasks)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().Int64Var(&note, "note", 0, "only tasks attached to this note id")
	cmd.Flags().BoolVar(&pending, "pending", false, "hide completed tasks")
	return cmd
}

func newTaskCreateCmd(e *env) *cobra.Command {
	var title, description string
	var note int64
	var subtasks []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := resource.TaskInput{Title: title, Description: description}
			if cmd.Flags().Changed("note") {
				in.NoteID = &note
			}
			for _, s := range subtasks {
				in.Subtasks = append(in.Subtasks, resource.SubTask{Description: s})
			}
			return e.withApp(func(ctx context.Context, a *app.App) error {
				created, err := a.Tasks.Create(ctx, in)
				if err != nil {
					return err
				}
				return e.printTasks([]resource.Task{created})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&title, "title", "", "task title (default \"Untitled\")")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().Int64Var(&note, "note", 0, "attach to this note id")
	cmd.Flags().StringArrayVar(&subtasks, "subtask", nil, "subtask description (repeatable)")
	return cmd
}

func newTaskUpdateCmd(e *env) *cobra.Command {
	var title, description string
	var note int64
	var detach bool
	var subtasks []string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a task; omitted flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := refresh(ctx, a, a.Tasks.Refresh); err != nil {
					return err
				}
				var in resource.TaskInput
				if current, ok := a.Tasks.Get(id); ok {
					in = resource.InputFromTask(current)
				}
				if cmd.Flags().Changed("title") {
					in.Title = title
				}
				if cmd.Flags().Changed("description") {
					in.Description = description
				}
				if cmd.Flags().Changed("note") {
					in.NoteID = &note
				}
				if detach {
					in.NoteID = nil
				}
				for _, s := range subtasks {
					in.Subtasks = append(in.Subtasks, resource.SubTask{Description: s})
				}
				updated, err := a.Tasks.Update(ctx, id, in)
				if err != nil {
					return err
				}
				return e.printTasks([]resource.Task{updated})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().Int64Var(&note, "note", 0, "attach to this note id")
	cmd.Flags().BoolVar(&detach, "detach", false, "detach from its note")
	cmd.Flags().StringArrayVar(&subtasks, "subtask", nil, "append a subtask (repeatable)")
	return cmd
}

func newTaskCompleteCmd(e *env) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "complete ID",
		Short: "Mark a task as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := refresh(ctx, a, a.Tasks.Refresh); err != nil {
					return err
				}
				updated, err := a.Tasks.SetCompleted(ctx, id, !undo)
				if err != nil {
					return err
				}
				return e.printTasks([]resource.Task{updated})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark as not done")
	return cmd
}

func newTaskSubtaskCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "subtask ID SUBTASK_ID",
		Short: "Toggle a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			subID, err := parseID(args[1])
			if err != nil {
				return err
			}
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := refresh(ctx, a, a.Tasks.Refresh); err != nil {
					return err
				}
				updated, err := a.Tasks.ToggleSubtask(ctx, id, subID)
				if err != nil {
					return err
				}
				return e.printTasks([]resource.Task{updated})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newTaskDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := a.Tasks.Delete(ctx, id); err != nil {
					return err
				}
				return e.message("Deleted task %d", id)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func (e *env) printTasks(tasks []resource.Task) error {
	return e.render(nonNil(tasks), func(w io.Writer) {
		if len(tasks) == 0 {
			_, _ = fmt.Fprintln(w, "No tasks.")
			return
		}
		_, _ = fmt.Fprintln(w, "ID\tDONE\tTITLE\tDESCRIPTION\tSUBTASKS\tNOTE")
		for _, t := range tasks {
			done, total := t.Progress()
			note := "-"
			if t.NoteID != nil {
				note = fmt.Sprintf("%d", *t.NoteID)
			}
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d/%d\t%s\n", t.ID, check(t.Completed), t.Title, t.Description, done, total, note)
		}
	})
}
