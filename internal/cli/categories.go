package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lezoo/keep/internal/app"
	"github.com/lezoo/keep/internal/resource"
)

func newCategoriesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Manage categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newCategoryListCmd(e))
	cmd.AddCommand(newCategoryCreateCmd(e))
	cmd.AddCommand(newCategoryUpdateCmd(e))
	cmd.AddCommand(newCategoryDeleteCmd(e))
	return cmd
}

func newCategoryListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := refresh(ctx, a, a.Categories.Refresh); err != nil {
					return err
				}
				return e.printCategories(a.Categories.List())
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newCategoryCreateCmd(e *env) *cobra.Command {
	var in resource.CategoryInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(func(ctx context.Context, a *app.App) error {
				created, err := a.Categories.Create(ctx, in)
				if err != nil {
					return err
				}
				return e.printCategories([]resource.Category{created})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "category name")
	cmd.Flags().StringVar(&in.Color, "color", "", "category color, e.g. #ff0000")
	return cmd
}

func newCategoryUpdateCmd(e *env) *cobra.Command {
	var name, color string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a category; omitted flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := refresh(ctx, a, a.Categories.Refresh); err != nil {
					return err
				}
				var in resource.CategoryInput
				if current, ok := a.Categories.Get(id); ok {
					in = resource.CategoryInput{Name: current.Name, Color: current.Color}
				}
				if cmd.Flags().Changed("name") {
					in.Name = name
				}
				if cmd.Flags().Changed("color") {
					in.Color = color
				}
				updated, err := a.Categories.Update(ctx, id, in)
				if err != nil {
					return err
				}
				return e.printCategories([]resource.Category{updated})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&color, "color", "", "new color")
	return cmd
}

func newCategoryDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := a.Categories.Delete(ctx, id); err != nil {
					return err
				}
				return e.message("Deleted category %d", id)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func (e *env) printCategories(cats []resource.Category) error {
	return e.render(nonNil(cats), func(w io.Writer) {
		if len(cats) == 0 {
			_, _ = fmt.Fprintln(w, "No categories.")
			return
		}
		_, _ = fmt.Fprintln(w, "ID\tNAME\tCOLOR")
		for _, c := range cats {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Color)
		}
	})
}
