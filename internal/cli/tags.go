package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
)

type tagRow struct {
	models.Tag `yaml:",inline"`
	Tasks      int `json:"tasks" yaml:"tasks"`
}

func (a *app) tagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}
	cmd.AddCommand(
		a.tagAddCmd(),
		a.tagListCmd(),
		a.tagRmCmd(),
		a.tagSuggestCmd(),
	)
	return cmd
}

// lookupTag accepts a tag id or a name
func (a *app) lookupTag(ref string) (models.Tag, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return a.store.Tag(id)
	}
	return a.store.TagByName(ref)
}

func (a *app) tagAddCmd() *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, args []string) error {
			tag, err := a.store.CreateTag(ctx, args[0], color)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created tag %d: %s (%s)\n", tag.ID, tag.Name, tag.Color)
			return nil
		}),
	}
	cmd.Flags().StringVar(&color, "color", "", "Color as #rrggbb (default "+store.DefaultTagColor+")")
	return cmd
}

func (a *app) tagListCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tags with the number of tasks using each",
		Args:    cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			tags, err := a.store.Tags()
			if err != nil {
				return err
			}
			usage := a.store.TagUsage()

			rows := make([]tagRow, len(tags))
			for i, t := range tags {
				rows[i] = tagRow{Tag: t, Tasks: usage[t.ID]}
			}
			if ok, err := encode(a.out, output, rows); ok {
				return err
			}

			if len(rows) == 0 {
				fmt.Fprintln(a.out, "No tags.")
				return nil
			}
			t := newTable("ID", "NAME", "COLOR", "TASKS")
			for _, r := range rows {
				t.Row(strconv.FormatInt(r.ID, 10), r.Name, r.Color, strconv.Itoa(r.Tasks))
			}
			fmt.Fprintln(a.out, t.Render())
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or yaml")
	return cmd
}

func (a *app) tagRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id|name>",
		Aliases: []string{"delete"},
		Short:   "Delete a tag and remove it from every task",
		Args:    cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, args []string) error {
			tag, err := a.lookupTag(args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteTag(ctx, tag.ID, a.confirm); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted tag %q\n", tag.Name)
			return nil
		}),
	}
}

func (a *app) tagSuggestCmd() *cobra.Command {
	var taskID int64
	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "Show tags matching a partial name",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, args []string) error {
			var exclude []int64
			if taskID != 0 {
				task, err := a.store.Task(taskID)
				if err != nil {
					return err
				}
				exclude = task.Tags
			}

			s, err := a.store.Suggest(args[0], exclude)
			if err != nil {
				return err
			}
			for _, t := range s.Tags {
				fmt.Fprintf(a.out, "%d\t%s\n", t.ID, t.Name)
			}
			if s.Create != "" {
				fmt.Fprintf(a.out, "No match; `todo tag add %q` creates it\n", s.Create)
			}
			return nil
		}),
	}
	cmd.Flags().Int64Var(&taskID, "task", 0, "Leave out tags this task already has")
	return cmd
}
