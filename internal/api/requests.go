package api

import (
	"encoding/json"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
)

type createTaskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
	DueDate     *civil.Date     `json:"dueDate"`
	Tags        []int64         `json:"tags"`
	Category    models.Category `json:"category"`
}

func (r createTaskRequest) toNewTask() store.NewTask {
	return store.NewTask{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		Tags:        r.Tags,
		Category:    r.Category,
	}
}

// optionalDate tells an absent dueDate apart from an explicit null
type optionalDate struct {
	set  bool
	date *civil.Date
}

func (o *optionalDate) UnmarshalJSON(data []byte) error {
	o.set = true
	if string(data) == "null" {
		o.date = nil
		return nil
	}
	var d civil.Date
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	o.date = &d
	return nil
}

type patchTaskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *models.Priority `json:"priority"`
	DueDate     optionalDate     `json:"dueDate"`
	Tags        *[]int64         `json:"tags"`
	Category    *models.Category `json:"category"`
	Completed   *bool            `json:"completed"`
}

func (r patchTaskRequest) toPatch() store.TaskPatch {
	p := store.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Tags:        r.Tags,
		Category:    r.Category,
		Completed:   r.Completed,
	}
	if r.DueDate.set {
		if r.DueDate.date == nil {
			p.ClearDueDate = true
		} else {
			p.DueDate = r.DueDate.date
		}
	}
	return p
}

type createTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type themeRequest struct {
	Dark bool `json:"dark"`
}

// parseIDs reads a comma separated id list; blanks are skipped
func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
