package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tgienger/todo/internal/models"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func checkOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("--output %q: must be table, json or yaml", format)
}

// encode writes v as JSON or YAML. It reports false for the table format
// so the caller renders its own.
func encode(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func dueText(t models.Task) string {
	if t.DueDate == nil {
		return "-"
	}
	return t.DueDate.String()
}

// classText names the task's tags or its category
func classText(t models.Task, tagNames map[int64]string) string {
	if t.Category != "" {
		return string(t.Category)
	}
	names := make([]string, 0, len(t.Tags))
	for _, id := range t.Tags {
		if n, ok := tagNames[id]; ok {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

func renderTasks(w io.Writer, tasks []models.Task, tags []models.Tag) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	names := tagNames(tags)
	t := newTable("ID", "DONE", "PRIORITY", "DUE", "TITLE", "TAGS")
	if tags == nil {
		t = newTable("ID", "DONE", "PRIORITY", "DUE", "TITLE", "CATEGORY")
	}
	for _, task := range tasks {
		done := " "
		if task.Completed {
			done = "x"
		}
		t.Row(
			strconv.FormatInt(task.ID, 10),
			done,
			string(task.Priority),
			dueText(task),
			task.Title,
			classText(task, names),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func renderTask(w io.Writer, task models.Task, tags []models.Tag) {
	status := "pending"
	if task.Completed {
		status = "completed"
	}
	label := "Tags"
	if task.Category != "" {
		label = "Category"
	}

	fmt.Fprintf(w, "%d: %s\n", task.ID, task.Title)
	fmt.Fprintf(w, "  Status:      %s\n", status)
	fmt.Fprintf(w, "  Priority:    %s\n", task.Priority)
	fmt.Fprintf(w, "  Due:         %s\n", dueText(task))
	fmt.Fprintf(w, "  %-12s %s\n", label+":", classText(task, tagNames(tags)))
	if task.Description != "" {
		fmt.Fprintf(w, "  Description: %s\n", task.Description)
	}
	fmt.Fprintf(w, "  Created:     %s\n", task.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "  Updated:     %s\n", task.UpdatedAt.Local().Format("2006-01-02 15:04"))
}

func tagNames(tags []models.Tag) map[int64]string {
	m := make(map[int64]string, len(tags))
	for _, t := range tags {
		m[t.ID] = t.Name
	}
	return m
}
