package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lezoo/keep/internal/app"
	"github.com/lezoo/keep/internal/resource"
)

func newNotesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notes",
		Aliases: []string{"note"},
		Short:   "Manage notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newNoteListCmd(e))
	cmd.AddCommand(newNoteShowCmd(e))
	cmd.AddCommand(newNoteCreateCmd(e))
	cmd.AddCommand(newNoteUpdateCmd(e))
	cmd.AddCommand(newNoteDeleteCmd(e))
	return cmd
}

// loadNotes refreshes categories before notes so note categories resolve.
func loadNotes(ctx context.Context, a *app.App) error {
	return refresh(ctx, a, a.Categories.Refresh, a.Notes.Refresh)
}

func newNoteListCmd(e *env) *cobra.Command {
	var category int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := loadNotes(ctx, a); err != nil {
					return err
				}
				notes := a.Notes.List()
				if category > 0 {
					notes = a.Notes.FilterByCategory(category)
				}
				return e.printNotes(notes)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().Int64Var(&category, "category", 0, "only notes carrying this category id")
	return cmd
}

type noteDetail struct {
	resource.Note
	Tasks []resource.Task `json:"tasks"`
}

func newNoteShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a note with its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := refresh(ctx, a, a.Categories.Refresh, a.Notes.Refresh, a.Tasks.Refresh); err != nil {
					return err
				}
				note, ok := a.Notes.Get(id)
				if !ok {
					return fmt.Errorf("note %d: %w", id, resource.ErrNotFound)
				}
				out := noteDetail{Note: note, Tasks: nonNil(a.Tasks.ForNote(id))}
				return e.render(out, func(w io.Writer) {
					_, _ = fmt.Fprintf(w, "%s\n", note.Title)
					if len(note.Categories) > 0 {
						_, _ = fmt.Fprintf(w, "Categories: %s\n", categoryNames(note.Categories))
					}
					_, _ = fmt.Fprintf(w, "\n%s\n", note.Content)
					if len(out.Tasks) > 0 {
						_, _ = fmt.Fprintln(w, "\nTasks:")
						for _, t := range out.Tasks {
							_, _ = fmt.Fprintf(w, "  %s %s\n", check(t.Completed), t.Description)
						}
					}
				})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newNoteCreateCmd(e *env) *cobra.Command {
	var title, content string
	var categories []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(categories)
			if err != nil {
				return err
			}
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := refresh(ctx, a, a.Categories.Refresh); err != nil {
					return err
				}
				created, err := a.Notes.Create(ctx, resource.NoteInput{Title: title, Content: content, CategoryIDs: ids})
				if err != nil {
					return err
				}
				return e.printNotes([]resource.Note{created})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&title, "title", "", "note title")
	cmd.Flags().StringVar(&content, "content", "", "note content")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "category id (repeatable or comma-separated)")
	return cmd
}

func newNoteUpdateCmd(e *env) *cobra.Command {
	var title, content string
	var categories []string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a note; omitted flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ids, err := parseIDs(categories)
			if err != nil {
				return err
			}
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := loadNotes(ctx, a); err != nil {
					return err
				}
				var in resource.NoteInput
				if current, ok := a.Notes.Get(id); ok {
					in = resource.NoteInput{Title: current.Title, Content: current.Content, CategoryIDs: current.CategoryIDs()}
				}
				if cmd.Flags().Changed("title") {
					in.Title = title
				}
				if cmd.Flags().Changed("content") {
					in.Content = content
				}
				if cmd.Flags().Changed("category") {
					in.CategoryIDs = ids
				}
				updated, err := a.Notes.Update(ctx, id, in)
				if err != nil {
					return err
				}
				return e.printNotes([]resource.Note{updated})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "replace categories with these ids")
	return cmd
}

func newNoteDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := a.Notes.Delete(ctx, id); err != nil {
					return err
				}
				return e.message("Deleted note %d", id)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func (e *env) printNotes(notes []resource.Note) error {
	return e.render(nonNil(notes), func(w io.Writer) {
		if len(notes) == 0 {
			_, _ = fmt.Fprintln(w, "No notes.")
			return
		}
		_, _ = fmt.Fprintln(w, "ID\tTITLE\tCATEGORIES")
		for _, n := range notes {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", n.ID, n.Title, categoryNames(n.Categories))
		}
	})
}
