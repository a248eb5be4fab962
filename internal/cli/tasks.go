package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
	"github.com/tgienger/todo/internal/view"
)

// taskFlags are the task fields shared by add and edit
type taskFlags struct {
	description string
	priority    string
	due         string
	tags        []string
	category    string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "desc", "d", "", "Task description")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "Priority: low, medium, high or urgent")
	cmd.Flags().StringVar(&f.due, "due", "", "Due date in YYYY-MM-DD format")
	cmd.Flags().StringSliceVarP(&f.tags, "tag", "t", nil, "Tag name, created if missing (repeatable or comma-separated)")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Category: work, personal, study, health, home or other")
}

func parseDue(s string) (*civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("--due %q: use YYYY-MM-DD", s)
	}
	return &d, nil
}

// resolveTags maps tag names to ids, creating the ones that do not exist
func (a *app) resolveTags(ctx context.Context, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		tag, err := a.store.TagByName(name)
		if errors.Is(err, store.ErrNotFound) {
			tag, err = a.store.CreateTag(ctx, name, "")
			if err == nil {
				fmt.Fprintf(a.errOut, "Created tag %q\n", tag.Name)
			}
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// tagsForDisplay lists the tags when the store uses them
func (a *app) tagsForDisplay() []models.Tag {
	tags, err := a.store.Tags()
	if err != nil {
		return nil
	}
	return tags
}

func (a *app) addCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(ctx context.Context, args []string) error {
			in := store.NewTask{
				Title:       strings.Join(args, " "),
				Description: f.description,
			}

			var err error
			if f.priority != "" {
				if in.Priority, err = models.ParsePriority(f.priority); err != nil {
					return err
				}
			}
			if in.DueDate, err = parseDue(f.due); err != nil {
				return err
			}
			if f.category != "" {
				if in.Category, err = models.ParseCategory(f.category); err != nil {
					return err
				}
			}
			if len(f.tags) > 0 {
				if in.Tags, err = a.resolveTags(ctx, f.tags); err != nil {
					return err
				}
			}

			task, err := a.store.CreateTask(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created task %d: %s\n", task.ID, task.Title)
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var (
		filter, sortKey, order, category, query, output string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}

			var opts view.Options
			var err error
			if opts.Filter, err = view.ParseFilter(filter); err != nil {
				return err
			}
			if sortKey == "" && a.store.Variant() == models.VariantCategories {
				sortKey = string(view.SortCreated)
			}
			if opts.Sort, err = view.ParseSortKey(sortKey); err != nil {
				return err
			}
			switch strings.ToLower(order) {
			case "":
				opts.Ascending = view.DefaultAscending(a.store.Variant(), opts.Sort)
			case "asc":
				opts.Ascending = true
			case "desc":
				opts.Ascending = false
			default:
				return fmt.Errorf("--order %q: must be asc or desc", order)
			}
			if category != "" && category != "all" {
				if opts.Category, err = models.ParseCategory(category); err != nil {
					return err
				}
			}
			opts.Query = query

			tags := a.tagsForDisplay()
			tasks := view.Apply(a.store.Tasks(), tags, opts, a.store.Now())

			if ok, err := encode(a.out, output, tasks); ok {
				return err
			}
			renderTasks(a.out, tasks, tags)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Quick filter: all, today, overdue, high, completed or pending")
	cmd.Flags().StringVarP(&sortKey, "sort", "s", "", "Sort key: dueDate, priority, title or created")
	cmd.Flags().StringVar(&order, "order", "", "Sort order: asc or desc")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only tasks in this category")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Search title, description and tag names")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or yaml")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := a.store.Task(id)
			if err != nil {
				return err
			}
			if ok, err := encode(a.out, output, task); ok {
				return err
			}
			renderTask(a.out, task, a.tagsForDisplay())
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or yaml")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var (
		f         taskFlags
		title     string
		completed bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Long:  "Change fields of a task. Only the flags given are applied; --due \"\" clears the due date.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.Context(), false); err != nil {
				return err
			}
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var patch store.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("desc") {
				patch.Description = &f.description
			}
			if flags.Changed("priority") {
				p, err := models.ParsePriority(f.priority)
				if err != nil {
					return err
				}
				patch.Priority = &p
			}
			if flags.Changed("due") {
				if patch.DueDate, err = parseDue(f.due); err != nil {
					return err
				}
				patch.ClearDueDate = patch.DueDate == nil
			}
			if flags.Changed("category") {
				c, err := models.ParseCategory(f.category)
				if err != nil {
					return err
				}
				patch.Category = &c
			}
			if flags.Changed("tag") {
				ids, err := a.resolveTags(ctx, f.tags)
				if err != nil {
					return err
				}
				patch.Tags = &ids
			}
			if flags.Changed("completed") {
				patch.Completed = &completed
			}
			if patch.Empty() {
				return errors.New("nothing to change; see todo edit --help")
			}

			task, err := a.store.UpdateTask(ctx, id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated task %d: %s\n", task.ID, task.Title)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().BoolVar(&completed, "completed", false, "Mark completed (--completed=false reopens)")
	return cmd
}

func (a *app) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := a.store.ToggleComplete(ctx, id)
			if err != nil {
				return err
			}
			state := "reopened"
			if task.Completed {
				state = "completed"
			}
			fmt.Fprintf(a.out, "Task %d %s: %s\n", task.ID, state, task.Title)
			return nil
		}),
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteTask(ctx, id, a.confirm); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted task %d\n", id)
			return nil
		}),
	}
}

func (a *app) statsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show task counters",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			stats := view.Compute(a.store.Tasks(), a.store.Variant(), a.store.Now())
			if ok, err := encode(a.out, output, stats); ok {
				return err
			}

			fmt.Fprintf(a.out, "Total:     %d\n", stats.Total)
			fmt.Fprintf(a.out, "Completed: %d\n", stats.Completed)
			fmt.Fprintf(a.out, "Pending:   %d\n", stats.Pending)
			if a.store.Variant() == models.VariantTags {
				fmt.Fprintf(a.out, "Overdue:   %d\n", stats.Overdue)
				return nil
			}
			for _, c := range models.Categories {
				fmt.Fprintf(a.out, "  %-9s %d\n", string(c)+":", stats.Categories[string(c)])
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or yaml")
	return cmd
}
