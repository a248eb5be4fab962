package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
	"github.com/tgienger/todo/internal/ui/styles"
	"github.com/tgienger/todo/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewTasks View = iota
	ViewTags
)

type App struct {
	store       *store.Store
	logger      *log.Logger
	currentView View
	taskList    *views.TaskListView
	tagManager  *views.TagManagerView
	width       int
	height      int
}

// Creates a new application. The saved theme is applied before any view
// builds its styles.
func NewApp(s *store.Store, logger *log.Logger) *App {
	dark, err := s.DarkTheme(context.Background())
	if err != nil {
		logger.Warn("reading theme preference", "err", err)
	}
	styles.SetDark(dark)

	a := &App{
		store:       s,
		logger:      logger,
		currentView: ViewTasks,
		taskList:    views.NewTaskListView(s),
	}
	if s.Variant() == models.VariantTags {
		a.tagManager = views.NewTagManagerView(s)
	}
	return a
}

func (a *App) Init() tea.Cmd {
	return a.taskList.Init()
}

func (a *App) resize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

func (a *App) toggleTheme() {
	dark := !styles.IsDark()
	styles.SetDark(dark)

	st := styles.NewStyles()
	a.taskList.SetStyles(st)
	if a.tagManager != nil {
		a.tagManager.SetStyles(st)
	}

	if err := a.store.SetDarkTheme(context.Background(), dark); err != nil {
		a.logger.Error("saving theme preference", "err", err)
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Keep the task list sized since it persists
		a.taskList.Update(msg)

	case views.OpenTagManager:
		if a.tagManager == nil {
			return a, nil
		}
		a.currentView = ViewTags
		return a, tea.Batch(a.tagManager.Init(), a.resize())

	case views.BackToTasks:
		a.currentView = ViewTasks
		return a, tea.Batch(a.taskList.Init(), a.resize())

	case views.ToggleTheme:
		a.toggleTheme()
		return a, nil
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewTags:
		_, cmd = a.tagManager.Update(msg)
	case ViewTasks:
		_, cmd = a.taskList.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	if a.currentView == ViewTags && a.tagManager != nil {
		return a.tagManager.View()
	}
	return a.taskList.View()
}
