package views

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
	"github.com/tgienger/todo/internal/ui/keys"
	"github.com/tgienger/todo/internal/ui/styles"
	"github.com/tgienger/todo/internal/view"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// FocusArea represents which part of the UI has focus
type FocusArea int

const (
	FocusSearchInput FocusArea = iota
	FocusFilterDropdown
	FocusTaskList
	focusAreaCount
)

// Edit form fields in tab order
const (
	fieldTitle = iota
	fieldDesc
	fieldPriority
	fieldDue
	fieldClass // tags or category
	fieldDone
	fieldSave
	fieldCount
)

// TaskListView shows the filtered and sorted task list
type TaskListView struct {
	store   *store.Store
	variant models.Variant
	styles  *styles.Styles
	keys    keys.KeyMap
	notifier

	width  int
	height int

	tasks []models.Task // visible tasks, filtered and sorted
	tags  []models.Tag
	stats view.Stats
	opts  view.Options

	// UI state
	focus       FocusArea
	cursor      int
	scrollY     int
	searchInput textinput.Model

	// Quick filter dropdown state
	filterOpen   bool
	filterCursor int

	// Task creation/editing
	editing       bool
	editingNew    bool
	editID        int64
	editTitle     textinput.Model
	editDesc      textarea.Model
	editDue       textinput.Model
	editPriority  models.Priority
	editCategory  models.Category
	editTags      []int64
	editTagCursor int
	editDone      bool
	editFocusIdx  int

	// Tag assignment popup with suggestions
	assigningTags   bool
	assigningTaskID int64
	tagQuery        textinput.Model
	suggestions     store.Suggestions
	suggestCursor   int

	// Task view mode (read-only detail view)
	viewingTask bool

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   int64
	deleteTargetName string

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewTaskListView creates a new task list view
func NewTaskListView(s *store.Store) *TaskListView {
	search := textinput.New()
	search.Placeholder = "Search tasks..."
	search.CharLimit = 100

	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"
	editTitle.CharLimit = store.MaxTitleLength

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.CharLimit = store.MaxDescriptionLength
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	editDue := textinput.New()
	editDue.Placeholder = "YYYY-MM-DD"
	editDue.CharLimit = 10

	tagQuery := textinput.New()
	tagQuery.Placeholder = "Type a tag name..."
	tagQuery.CharLimit = store.MaxTagNameLength

	variant := s.Variant()
	sortKey := view.SortDueDate
	if variant == models.VariantCategories {
		sortKey = view.SortCreated
	}

	return &TaskListView{
		store:   s,
		variant: variant,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		focus:   FocusTaskList,
		opts: view.Options{
			Filter:    view.FilterAll,
			Sort:      sortKey,
			Ascending: view.DefaultAscending(variant, sortKey),
		},
		searchInput: search,
		editTitle:   editTitle,
		editDesc:    editDesc,
		editDue:     editDue,
		tagQuery:    tagQuery,
	}
}

// OpenTagManager asks the app to switch to the tag manager
type OpenTagManager struct{}

// ToggleTheme asks the app to switch and save the color theme
type ToggleTheme struct{}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return v.reload()
}

// SetStyles replaces the view's styles after a theme change
func (v *TaskListView) SetStyles(s *styles.Styles) {
	v.styles = s
}

type tasksLoadedMsg struct {
	tasks []models.Task
	tags  []models.Tag
	stats view.Stats
}

// reload snapshots the current view options and returns a command that
// recomputes the list from the store
func (v *TaskListView) reload() tea.Cmd {
	opts := v.opts
	opts.Query = v.searchInput.Value()
	return func() tea.Msg {
		return v.load(opts)
	}
}

func (v *TaskListView) load(opts view.Options) tea.Msg {
	all := v.store.Tasks()

	var tags []models.Tag
	if v.variant == models.VariantTags {
		var err error
		if tags, err = v.store.Tags(); err != nil {
			return err
		}
	}

	now := v.store.Now()
	return tasksLoadedMsg{
		tasks: view.Apply(all, tags, opts, now),
		tags:  tags,
		stats: view.Compute(all, v.variant, now),
	}
}

func (v *TaskListView) selected() (models.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

func (v *TaskListView) tagByID(id int64) (models.Tag, bool) {
	for _, t := range v.tags {
		if t.ID == id {
			return t, true
		}
	}
	return models.Tag{}, false
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.editDesc.SetWidth(clamp(contentWidth-10, 20, 50))
		return v, nil

	case tasksLoadedMsg:
		v.tasks = msg.tasks
		v.tags = msg.tags
		v.stats = msg.stats
		if v.cursor >= len(v.tasks) {
			v.cursor = max(0, len(v.tasks)-1)
		}
		if v.viewingTask {
			if _, ok := v.selected(); !ok {
				v.viewingTask = false
			}
		}
		return v, nil

	case noticeExpiredMsg:
		v.expire(msg)
		return v, nil

	case error:
		return v, v.notifyErr(msg)

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		if v.assigningTags {
			return v.updateAssigningTags(msg)
		}

		if v.viewingTask {
			return v.updateViewingTask(msg)
		}

		if v.filterOpen {
			return v.updateFilterDropdown(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle search input typing first - don't process hotkeys while typing
	if v.focus == FocusSearchInput {
		switch {
		case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
			v.searchInput.Blur()
			v.focus = FocusTaskList
			return v, v.reload()
		default:
			var cmd tea.Cmd
			v.searchInput, cmd = v.searchInput.Update(msg)
			v.cursor, v.scrollY = 0, 0
			return v, tea.Batch(cmd, v.reload())
		}
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if v.searchInput.Value() != "" {
			v.searchInput.Reset()
			return v, v.reload()
		}
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.cycleFocus(1)
		return v, nil

	case msg.String() == "shift+tab":
		v.cycleFocus(-1)
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.focus == FocusTaskList && v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.focus == FocusTaskList && v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.focus {
		case FocusFilterDropdown:
			v.openFilter()
		case FocusTaskList:
			if len(v.tasks) > 0 {
				v.viewingTask = true
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		if task, ok := v.selected(); ok {
			v.startEditTask(task)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startNewTask()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		if task, ok := v.selected(); ok {
			v.confirmDelete(task)
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		return v, v.toggleSelected()

	case key.Matches(msg, v.keys.Search):
		v.focus = FocusSearchInput
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Filter):
		v.focus = FocusFilterDropdown
		v.openFilter()
		return v, nil

	case key.Matches(msg, v.keys.Sort):
		i := slices.Index(view.SortKeys, v.opts.Sort)
		v.opts.Sort = view.SortKeys[(i+1)%len(view.SortKeys)]
		v.opts.Ascending = view.DefaultAscending(v.variant, v.opts.Sort)
		return v, v.reload()

	case key.Matches(msg, v.keys.Order):
		v.opts.Ascending = !v.opts.Ascending
		return v, v.reload()

	case key.Matches(msg, v.keys.Category):
		if v.variant == models.VariantCategories {
			v.cycleCategory()
			v.cursor, v.scrollY = 0, 0
			return v, v.reload()
		}
		return v, nil

	case key.Matches(msg, v.keys.Tags):
		if task, ok := v.selected(); ok && v.variant == models.VariantTags {
			v.startAssigningTags(task)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Manage):
		if v.variant == models.VariantTags {
			return v, func() tea.Msg { return OpenTagManager{} }
		}
		return v, nil

	case key.Matches(msg, v.keys.Theme):
		return v, func() tea.Msg { return ToggleTheme{} }

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) cycleCategory() {
	if v.opts.Category == "" {
		v.opts.Category = models.Categories[0]
		return
	}
	i := slices.Index(models.Categories, v.opts.Category)
	if i == len(models.Categories)-1 {
		v.opts.Category = ""
		return
	}
	v.opts.Category = models.Categories[i+1]
}

func (v *TaskListView) openFilter() {
	v.filterOpen = true
	v.filterCursor = max(0, slices.Index(view.Filters, v.opts.Filter))
}

func (v *TaskListView) updateFilterDropdown(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.filterOpen = false
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.filterCursor > 0 {
			v.filterCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.filterCursor < len(view.Filters)-1 {
			v.filterCursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		v.opts.Filter = view.Filters[v.filterCursor]
		v.filterOpen = false
		v.focus = FocusTaskList
		v.cursor, v.scrollY = 0, 0
		return v, v.reload()
	}

	return v, nil
}

func (v *TaskListView) toggleSelected() tea.Cmd {
	task, ok := v.selected()
	if !ok {
		return nil
	}

	ctx, cancel := storeContext()
	defer cancel()

	updated, err := v.store.ToggleComplete(ctx, task.ID)
	if err != nil {
		return tea.Batch(v.notifyErr(err), v.reload())
	}
	text := "Task reopened"
	if updated.Completed {
		text = "Task completed"
	}
	return tea.Batch(v.notify(NoticeSuccess, text), v.reload())
}

func (v *TaskListView) confirmDelete(task models.Task) {
	v.confirmingDelete = true
	v.deleteTargetID = task.ID
	v.deleteTargetName = task.Title
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		v.viewingTask = false

		ctx, cancel := storeContext()
		defer cancel()

		// the dialog already asked
		if err := v.store.DeleteTask(ctx, v.deleteTargetID, store.AlwaysConfirm); err != nil {
			return v, tea.Batch(v.notifyErr(err), v.reload())
		}
		return v, tea.Batch(v.notify(NoticeSuccess, "Task deleted"), v.reload())
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *TaskListView) updateViewingTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	task, ok := v.selected()
	if !ok {
		v.viewingTask = false
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.viewingTask = false
		return v, nil
	case key.Matches(msg, v.keys.Edit):
		v.viewingTask = false
		v.startEditTask(task)
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Delete):
		v.confirmDelete(task)
		return v, nil
	case key.Matches(msg, v.keys.Toggle):
		return v, v.toggleSelected()
	case key.Matches(msg, v.keys.Tags):
		if v.variant == models.VariantTags {
			v.viewingTask = false
			v.startAssigningTags(task)
			return v, textinput.Blink
		}
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	}
	return v, nil
}

func (v *TaskListView) startAssigningTags(task models.Task) {
	v.assigningTags = true
	v.assigningTaskID = task.ID
	v.suggestCursor = 0
	v.tagQuery.Reset()
	v.tagQuery.Focus()
	v.refreshSuggestions()
}

// refreshSuggestions recomputes tag suggestions for the query, leaving out
// tags the task already carries
func (v *TaskListView) refreshSuggestions() {
	task, err := v.store.Task(v.assigningTaskID)
	if err != nil {
		v.suggestions = store.Suggestions{}
		return
	}
	s, err := v.store.Suggest(v.tagQuery.Value(), task.Tags)
	if err != nil {
		v.suggestions = store.Suggestions{}
		return
	}
	v.suggestions = s
	v.suggestCursor = clamp(v.suggestCursor, 0, max(0, len(s.Tags)-1))
}

func (v *TaskListView) updateAssigningTags(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.assigningTags = false
		v.tagQuery.Blur()
		return v, v.reload()

	case "up":
		if v.suggestCursor > 0 {
			v.suggestCursor--
		}
		return v, nil

	case "down":
		if v.suggestCursor < len(v.suggestions.Tags)-1 {
			v.suggestCursor++
		}
		return v, nil

	case "enter":
		return v, v.acceptSuggestion()

	case "backspace":
		// Backspace on an empty query detaches the last tag
		if v.tagQuery.Value() == "" {
			return v, v.detachLastTag()
		}
	}

	var cmd tea.Cmd
	v.tagQuery, cmd = v.tagQuery.Update(msg)
	v.refreshSuggestions()
	return v, cmd
}

func (v *TaskListView) acceptSuggestion() tea.Cmd {
	ctx, cancel := storeContext()
	defer cancel()

	var tagID int64
	switch {
	case len(v.suggestions.Tags) > 0:
		tagID = v.suggestions.Tags[v.suggestCursor].ID
	case v.suggestions.Create != "":
		tag, err := v.store.CreateTag(ctx, v.suggestions.Create, "")
		if err != nil && !errors.Is(err, store.ErrPersist) {
			return v.notifyErr(err)
		}
		tagID = tag.ID
	default:
		return nil
	}

	task, err := v.store.Task(v.assigningTaskID)
	if err != nil {
		return v.notifyErr(err)
	}
	tags := append(slices.Clone(task.Tags), tagID)

	v.tagQuery.Reset()
	defer v.refreshSuggestions()

	if _, err := v.store.UpdateTask(ctx, task.ID, store.TaskPatch{Tags: &tags}); err != nil {
		return tea.Batch(v.notifyErr(err), v.reload())
	}
	return v.reload()
}

func (v *TaskListView) detachLastTag() tea.Cmd {
	task, err := v.store.Task(v.assigningTaskID)
	if err != nil || len(task.Tags) == 0 {
		return nil
	}

	ctx, cancel := storeContext()
	defer cancel()

	tags := task.Tags[:len(task.Tags)-1]
	defer v.refreshSuggestions()
	if _, err := v.store.UpdateTask(ctx, task.ID, store.TaskPatch{Tags: &tags}); err != nil {
		return tea.Batch(v.notifyErr(err), v.reload())
	}
	return v.reload()
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + fieldCount - 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.editFocusIdx {
		case fieldTitle, fieldPriority, fieldDue:
			v.editFocusIdx++
			v.updateEditFocus()
			return v, nil
		case fieldClass:
			if v.variant == models.VariantTags {
				v.toggleEditTag()
			} else {
				v.editFocusIdx++
				v.updateEditFocus()
			}
			return v, nil
		case fieldDone:
			v.editDone = !v.editDone
			return v, nil
		case fieldSave:
			return v, v.saveTask()
		}
		// the description textarea takes enter as a newline

	case msg.String() == " ":
		switch {
		case v.editFocusIdx == fieldClass && v.variant == models.VariantTags:
			v.toggleEditTag()
			return v, nil
		case v.editFocusIdx == fieldDone:
			v.editDone = !v.editDone
			return v, nil
		}

	case key.Matches(msg, v.keys.Left), key.Matches(msg, v.keys.Right):
		step := 1
		if key.Matches(msg, v.keys.Left) {
			step = -1
		}
		switch {
		case v.editFocusIdx == fieldPriority:
			v.editPriority = cycle(models.Priorities, v.editPriority, step)
			return v, nil
		case v.editFocusIdx == fieldClass && v.variant == models.VariantCategories:
			v.editCategory = cycle(models.Categories, v.editCategory, step)
			return v, nil
		}

	case msg.String() == "up":
		if v.editFocusIdx == fieldClass && v.editTagCursor > 0 {
			v.editTagCursor--
			return v, nil
		}

	case msg.String() == "down":
		if v.editFocusIdx == fieldClass && v.editTagCursor < len(v.tags)-1 {
			v.editTagCursor++
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case fieldTitle:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case fieldDesc:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case fieldDue:
		v.editDue, cmd = v.editDue.Update(msg)
	}
	return v, cmd
}

// cycle steps through values, wrapping at both ends
func cycle[T comparable](values []T, cur T, step int) T {
	i := slices.Index(values, cur)
	if i < 0 {
		return values[0]
	}
	return values[(i+step+len(values))%len(values)]
}

// toggleEditTag toggles the currently selected tag in the edit form
func (v *TaskListView) toggleEditTag() {
	if v.editTagCursor >= len(v.tags) {
		return
	}
	tagID := v.tags[v.editTagCursor].ID

	if i := slices.Index(v.editTags, tagID); i >= 0 {
		v.editTags = slices.Delete(v.editTags, i, i+1)
		return
	}
	v.editTags = append(v.editTags, tagID)
}

func (v *TaskListView) cycleFocus(dir int) {
	v.searchInput.Blur()

	v.focus = FocusArea((int(v.focus) + dir + int(focusAreaCount)) % int(focusAreaCount))

	if v.focus == FocusSearchInput {
		v.searchInput.Focus()
	}
}

func (v *TaskListView) ensureVisible() {
	visibleItems := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

// visibleItems is how many three-line task items fit under the header
func (v *TaskListView) visibleItems() int {
	availableHeight := max(v.height-14, 3)
	return max(availableHeight/3, 1)
}

func (v *TaskListView) startNewTask() {
	v.editing = true
	v.editingNew = true
	v.editID = 0
	v.editFocusIdx = fieldTitle
	v.editTagCursor = 0
	v.editTags = []int64{}
	v.editPriority = models.PriorityMedium
	v.editCategory = models.CategoryOther
	if v.opts.Category != "" {
		v.editCategory = v.opts.Category
	}
	v.editDone = false
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.editDue.Reset()
	v.updateEditFocus()
}

func (v *TaskListView) startEditTask(task models.Task) {
	v.editing = true
	v.editingNew = false
	v.editID = task.ID
	v.editFocusIdx = fieldTitle
	v.editTagCursor = 0
	v.editTags = slices.Clone(task.Tags)
	v.editPriority = task.Priority
	v.editCategory = task.Category
	v.editDone = task.Completed
	v.editTitle.SetValue(task.Title)
	v.editDesc.SetValue(task.Description)
	v.editDue.Reset()
	if task.DueDate != nil {
		v.editDue.SetValue(task.DueDate.String())
	}
	v.updateEditFocus()
}

func (v *TaskListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()
	v.editDue.Blur()

	switch v.editFocusIdx {
	case fieldTitle:
		v.editTitle.Focus()
	case fieldDesc:
		v.editDesc.Focus()
	case fieldDue:
		v.editDue.Focus()
	}
}

// parseDue reads the due date field; blank means no due date
func parseDue(s string) (*civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// saveTask writes the form. A rejected form stays open so the user can fix it.
func (v *TaskListView) saveTask() tea.Cmd {
	due, err := parseDue(v.editDue.Value())
	if err != nil {
		v.editFocusIdx = fieldDue
		v.updateEditFocus()
		return v.notify(NoticeWarning, "dueDate: use YYYY-MM-DD")
	}

	ctx, cancel := storeContext()
	defer cancel()

	var tags []int64
	var category models.Category
	if v.variant == models.VariantTags {
		tags = slices.Clone(v.editTags)
	} else {
		category = v.editCategory
	}

	text := "Task updated"
	if v.editingNew {
		text = "Task created"
		var task models.Task
		task, err = v.store.CreateTask(ctx, store.NewTask{
			Title:       v.editTitle.Value(),
			Description: v.editDesc.Value(),
			Priority:    v.editPriority,
			DueDate:     due,
			Tags:        tags,
			Category:    category,
		})
		if err == nil && v.editDone {
			_, err = v.store.UpdateTask(ctx, task.ID, store.TaskPatch{Completed: store.Ptr(true)})
		}
	} else {
		patch := store.TaskPatch{
			Title:       store.Ptr(v.editTitle.Value()),
			Description: store.Ptr(v.editDesc.Value()),
			Priority:    store.Ptr(v.editPriority),
			DueDate:     due,
			Completed:   store.Ptr(v.editDone),
		}
		if due == nil {
			patch.ClearDueDate = true
		}
		if v.variant == models.VariantTags {
			patch.Tags = &tags
		} else {
			patch.Category = &category
		}
		_, err = v.store.UpdateTask(ctx, v.editID, patch)
	}

	if errors.Is(err, store.ErrValidation) {
		return v.notifyErr(err)
	}
	v.editing = false
	if err != nil {
		return tea.Batch(v.notifyErr(err), v.reload())
	}
	return tea.Batch(v.notify(NoticeSuccess, text), v.reload())
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.editing {
		return v.renderEditForm()
	}

	if v.assigningTags {
		return v.renderTagAssignment()
	}

	if v.viewingTask {
		return v.renderTaskView()
	}

	var b strings.Builder

	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(v.renderTaskList())

	b.WriteString("\n")
	if n := v.render(v.styles); n != "" {
		b.WriteString(n)
		b.WriteString("\n")
	}
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderStats() string {
	s := v.styles
	stat := func(label string, n int) string {
		return s.Stat.Render(label + " " + s.StatValue.Render(fmt.Sprint(n)))
	}

	line := lipgloss.JoinHorizontal(lipgloss.Top,
		stat("Total", v.stats.Total),
		stat("Done", v.stats.Completed),
		stat("Pending", v.stats.Pending),
	)
	if v.variant == models.VariantTags {
		return lipgloss.JoinHorizontal(lipgloss.Top, line, stat("Overdue", v.stats.Overdue))
	}

	cats := []string{stat("All", v.stats.Categories[view.CategoryAll])}
	for _, c := range models.Categories {
		label := string(c)
		if c == v.opts.Category {
			label = "[" + label + "]"
		}
		cats = append(cats, stat(label, v.stats.Categories[string(c)]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, line, lipgloss.JoinHorizontal(lipgloss.Top, cats...))
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	isNarrow := contentWidth < 60

	searchStyle := s.Input
	if v.focus == FocusSearchInput {
		searchStyle = s.InputFocused
	}
	searchWidth := clamp(contentWidth-8, 10, 30)
	searchBox := searchStyle.Width(searchWidth).Render(v.searchInput.View())

	filterStyle := s.Button
	if v.focus == FocusFilterDropdown {
		filterStyle = s.ButtonFocused
	}
	filterLabel := string(v.opts.Filter)
	if !isNarrow {
		filterLabel = "Show: " + filterLabel
	}
	filterBtn := filterStyle.Render(filterLabel + " ▼")

	dir := "↑"
	if !v.opts.Ascending {
		dir = "↓"
	}
	sortLabel := s.TitleMuted.Render("sort: " + string(v.opts.Sort) + " " + dir)
	if v.opts.Category != "" {
		sortLabel += s.TitleMuted.Render(" • category: " + string(v.opts.Category))
	}

	var header string
	if isNarrow {
		header = lipgloss.JoinVertical(lipgloss.Left,
			searchBox,
			filterBtn,
		)
	} else {
		header = lipgloss.JoinHorizontal(lipgloss.Center,
			searchBox, "  ", filterBtn,
		)
	}

	dropdown := ""
	if v.filterOpen {
		dropdown = "\n" + v.renderFilterDropdown()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Tasks"),
		v.renderStats(),
		header+dropdown,
		sortLabel,
	)
}

func (v *TaskListView) renderFilterDropdown() string {
	s := v.styles
	var items []string

	for i, f := range view.Filters {
		itemStyle := s.ListItem
		if v.filterCursor == i {
			itemStyle = s.ListSelected
		}
		items = append(items, itemStyle.Render(string(f)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, items...)
	return s.FilterBar.Render(content)
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.tasks) == 0 {
		if v.stats.Total > 0 {
			return s.TitleMuted.Render("No tasks match. Press 'f' or '/' to change the view.")
		}
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	var items []string
	endIdx := min(v.scrollY+v.visibleItems(), len(v.tasks))

	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor && v.focus == FocusTaskList))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

// dueLabel describes the due date relative to now
func (v *TaskListView) dueLabel(task models.Task) (string, bool) {
	if task.DueDate == nil {
		return "no due date", false
	}
	now := v.store.Now()
	switch {
	case task.IsDueOn(now):
		return "due today", !task.Completed
	case task.IsOverdue(now):
		return "overdue " + task.DueDate.String(), true
	}
	return "due " + task.DueDate.String(), false
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	checkbox := "[ ]"
	title := task.Title
	if task.Completed {
		checkbox = "[x]"
		title = s.TaskDone.Render(title)
	}
	priority := lipgloss.NewStyle().Foreground(styles.PriorityColor(task.Priority)).Render(string(task.Priority))
	titleLine := checkbox + " " + title + " " + priority

	due, late := v.dueLabel(task)
	if late {
		due = s.TaskOverdue.Render(due)
	} else {
		due = s.TitleMuted.Render(due)
	}

	var class string
	if v.variant == models.VariantTags {
		var tagStrs []string
		for _, id := range task.Tags {
			if tag, ok := v.tagByID(id); ok {
				tagStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(tag.Color))
				tagStrs = append(tagStrs, tagStyle.Render("#"+tag.Name))
			}
		}
		class = strings.Join(tagStrs, " ")
		if class == "" {
			class = s.TitleMuted.Render("no tags")
		}
	} else {
		class = s.TitleMuted.Render(string(task.Category))
	}
	detailLine := "    " + due + "  " + class

	var lineStyle lipgloss.Style
	if selected {
		lineStyle = s.ListSelected.Width(width)
	} else {
		lineStyle = s.ListItem.Width(width)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lineStyle.Render(titleLine),
		lineStyle.Render(detailLine),
	) + "\n"
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Task"
	if !v.editingNew {
		formTitle = "Edit Task"
	}

	fieldStyle := func(idx int) lipgloss.Style {
		if v.editFocusIdx == idx {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.Button
	if v.editFocusIdx == fieldSave {
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	priority := lipgloss.NewStyle().Foreground(styles.PriorityColor(v.editPriority)).Render(string(v.editPriority))

	var classLabel, classField string
	if v.variant == models.VariantTags {
		classLabel = "Tags:"
		classField = v.renderEditTagSelector(fieldStyle(fieldClass), inputWidth)
	} else {
		classLabel = "Category:"
		classField = fieldStyle(fieldClass).Width(inputWidth).Render("◀ " + string(v.editCategory) + " ▶")
	}

	done := "[ ] completed"
	if v.editDone {
		done = "[x] completed"
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(formTitle),
		"",
		"Title:",
		fieldStyle(fieldTitle).Width(inputWidth).Render(v.editTitle.View()),
		"",
		"Description:",
		fieldStyle(fieldDesc).Render(v.editDesc.View()),
		"",
		"Priority:",
		fieldStyle(fieldPriority).Width(20).Render("◀ "+priority+" ▶"),
		"",
		"Due date:",
		fieldStyle(fieldDue).Width(20).Render(v.editDue.View()),
		"",
		classLabel,
		classField,
		"",
		fieldStyle(fieldDone).Width(20).Render(done),
		"",
		btnStyle.Render(" Save "),
		"",
		v.render(s),
		s.TitleMuted.Render("Tab: next • ←→: change • Space/↵: toggle • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

// renderEditTagSelector renders the inline tag selector for the edit form
func (v *TaskListView) renderEditTagSelector(containerStyle lipgloss.Style, width int) string {
	s := v.styles

	if len(v.tags) == 0 {
		return containerStyle.Width(width).Render(s.TitleMuted.Render("No tags yet. Press T in the list to add some."))
	}

	var items []string
	for i, tag := range v.tags {
		checkbox := "[ ]"
		if slices.Contains(v.editTags, tag.ID) {
			checkbox = "[x]"
		}

		tagColor := lipgloss.NewStyle().Foreground(lipgloss.Color(tag.Color))
		itemText := checkbox + " " + tagColor.Render("●") + " " + tag.Name

		if v.editFocusIdx == fieldClass && i == v.editTagCursor {
			items = append(items, s.ListSelected.Render(itemText))
		} else {
			items = append(items, s.ListItem.Render(itemText))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, items...)
	return containerStyle.Width(width).Render(content)
}

func (v *TaskListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	hk := v.styles.HelpKey.Render
	classHelp := fmt.Sprintf("%s tags • %s manage", hk("t"), hk("T"))
	if v.variant == models.VariantCategories {
		classHelp = hk("c") + " category"
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s view • %s new • %s edit • %s done • %s del • %s search • %s filter • %s sort • %s order • %s • %s quit",
			hk("↵"), hk("n"), hk("e"), hk("space"), hk("d"), hk("/"), hk("f"), hk("s"), hk("o"),
			classHelp, hk("q"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      view task",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("e") + "      edit task",
		s.HelpKey.Render("space") + "  toggle done",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("/") + "      search",
		s.HelpKey.Render("f") + "      quick filter",
		s.HelpKey.Render("s") + "      sort key",
		s.HelpKey.Render("o") + "      sort order",
	}
	if v.variant == models.VariantTags {
		helpItems = append(helpItems,
			s.HelpKey.Render("t")+"      assign tags",
			s.HelpKey.Render("T")+"      manage tags",
		)
	} else {
		helpItems = append(helpItems, s.HelpKey.Render("c")+"      category filter")
	}
	helpItems = append(helpItems,
		s.HelpKey.Render("ctrl+t")+" theme",
		s.HelpKey.Render("esc")+"    clear search",
		s.HelpKey.Render("q")+"      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderTagAssignment() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	task, err := v.store.Task(v.assigningTaskID)
	if err != nil {
		return ""
	}

	var chips []string
	for _, id := range task.Tags {
		if tag, ok := v.tagByID(id); ok {
			chips = append(chips, lipgloss.NewStyle().Foreground(lipgloss.Color(tag.Color)).Render("#"+tag.Name))
		}
	}
	attached := s.TitleMuted.Render("no tags")
	if len(chips) > 0 {
		attached = strings.Join(chips, " ")
	}

	var items []string
	for i, tag := range v.suggestions.Tags {
		itemStyle := s.ListItem
		if i == v.suggestCursor {
			itemStyle = s.ListSelected
		}
		tagColor := lipgloss.NewStyle().Foreground(lipgloss.Color(tag.Color))
		items = append(items, itemStyle.Render(tagColor.Render("●")+" "+tag.Name))
	}
	if v.suggestions.Create != "" {
		items = append(items, s.ListSelected.Render(fmt.Sprintf("+ Create %q", v.suggestions.Create)))
	}
	if len(items) == 0 {
		items = append(items, s.TitleMuted.Render("Start typing to find or create a tag"))
	}

	inputWidth := clamp(contentWidth-10, 20, 40)
	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Tags for: "+task.Title),
		"",
		attached,
		"",
		s.InputFocused.Width(inputWidth).Render(v.tagQuery.View()),
		lipgloss.JoinVertical(lipgloss.Left, items...),
		"",
		v.render(s),
		s.TitleMuted.Render("↵: add • ↑↓: select • Backspace: remove last • Esc: done"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q will be removed.", v.deleteTargetName)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderTaskView() string {
	task, ok := v.selected()
	if !ok {
		return ""
	}

	s := v.styles
	maxContentWidth := styles.ContentWidth(v.width)
	textWidth := clamp(maxContentWidth-10, 20, 70)
	labelStyle := s.TitleMuted

	status := "Pending"
	if task.Completed {
		status = "Completed"
	}

	due, late := v.dueLabel(task)
	if late {
		due = s.TaskOverdue.Render(due)
	}

	var classLabel, classText string
	if v.variant == models.VariantTags {
		classLabel = "Tags"
		var tagStrs []string
		for _, id := range task.Tags {
			if tag, ok := v.tagByID(id); ok {
				tagStrs = append(tagStrs, lipgloss.NewStyle().Foreground(lipgloss.Color(tag.Color)).Render(tag.Name))
			}
		}
		classText = "None"
		if len(tagStrs) > 0 {
			classText = strings.Join(tagStrs, " ")
		}
	} else {
		classLabel = "Category"
		classText = string(task.Category)
	}

	descText := task.Description
	if descText == "" {
		descText = s.TitleMuted.Render("No description")
	}

	const stamp = "Jan 2, 2006 3:04 PM"
	loc := v.store.Now().Location()

	helpText := s.Help.Render(
		fmt.Sprintf("%s edit • %s done • %s tags • %s delete • %s back",
			s.HelpKey.Render("e"),
			s.HelpKey.Render("space"),
			s.HelpKey.Render("t"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("esc"),
		),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.MarginBottom(1).Render(task.Title),
		"",
		labelStyle.Render("Status"),
		status,
		"",
		labelStyle.Render("Priority"),
		lipgloss.NewStyle().Foreground(styles.PriorityColor(task.Priority)).Bold(true).Render(string(task.Priority)),
		"",
		labelStyle.Render("Due"),
		due,
		"",
		labelStyle.Render(classLabel),
		classText,
		"",
		labelStyle.Render("Description"),
		lipgloss.NewStyle().Width(textWidth).Render(descText),
		"",
		labelStyle.Render("Created "+task.CreatedAt.In(loc).Format(stamp)),
		labelStyle.Render("Updated "+task.UpdatedAt.In(loc).Format(stamp)),
		"",
		v.render(s),
		helpText,
	)

	padded := lipgloss.NewStyle().Padding(1, 2).Render(content)
	return styles.CenterView(padded, v.width, v.height)
}
