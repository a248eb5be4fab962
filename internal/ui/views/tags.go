package views

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
	"github.com/tgienger/todo/internal/ui/keys"
	"github.com/tgienger/todo/internal/ui/styles"
)

type tagItem struct {
	tag   models.Tag
	usage int
}

func (i tagItem) Title() string { return i.tag.Name }
func (i tagItem) Description() string {
	if i.usage == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", i.usage)
}
func (i tagItem) FilterValue() string { return i.tag.Name }

type tagDelegate struct {
	styles *styles.Styles
	width  int
}

func (d tagDelegate) Height() int                               { return 2 }
func (d tagDelegate) Spacing() int                              { return 1 }
func (d tagDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d tagDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	t, ok := item.(tagItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	dot := lipgloss.NewStyle().Foreground(lipgloss.Color(t.tag.Color)).Render("●")
	title := titleStyle.Render(dot + " " + t.Title())
	desc := descStyle.Render("  " + t.Description() + " • " + t.tag.Color)

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

// BackToTasks asks the app to return to the task list
type BackToTasks struct{}

// TagManagerView lists tags with their usage and lets the user add and
// remove them
type TagManagerView struct {
	store    *store.Store
	list     list.Model
	delegate *tagDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	notifier

	width            int
	height           int
	creating         bool
	loaded           bool
	confirmingDelete bool
	deleteTargetID   int64
	deleteTargetName string
	deleteTargetUses int
	newName          textinput.Model
	newColor         textinput.Model
	matches          []models.Tag
	focusIdx         int // 0=name, 1=color, 2=confirm

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

func NewTagManagerView(s *store.Store) *TagManagerView {
	st := styles.NewStyles()

	newName := textinput.New()
	newName.Placeholder = "Tag name"
	newName.CharLimit = store.MaxTagNameLength

	newColor := textinput.New()
	newColor.Placeholder = store.DefaultTagColor
	newColor.CharLimit = 7

	delegate := &tagDelegate{styles: st, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Tags"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = st.Title
	l.SetShowHelp(false)

	return &TagManagerView{
		store:    s,
		list:     l,
		delegate: delegate,
		styles:   st,
		keys:     keys.DefaultKeyMap(),
		newName:  newName,
		newColor: newColor,
	}
}

// SetStyles replaces the view's styles after a theme change
func (v *TagManagerView) SetStyles(s *styles.Styles) {
	v.styles = s
	v.delegate.styles = s
	v.list.Styles.Title = s.Title
}

func (v *TagManagerView) Init() tea.Cmd {
	return v.loadTags
}

func (v *TagManagerView) loadTags() tea.Msg {
	tags, err := v.store.Tags()
	if err != nil {
		return err
	}
	return tagsLoadedMsg{tags: tags, usage: v.store.TagUsage()}
}

type tagsLoadedMsg struct {
	tags  []models.Tag
	usage map[int64]int
}

func (v *TagManagerView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		// Use content width (capped at MaxWidth) for internal layout
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-8)
		return v, nil

	case tagsLoadedMsg:
		items := make([]list.Item, len(msg.tags))
		for i, t := range msg.tags {
			items[i] = tagItem{tag: t, usage: msg.usage[t.ID]}
		}
		v.list.SetItems(items)
		if n := len(items); n > 0 && v.list.Index() >= n {
			v.list.Select(n - 1)
		}
		v.loaded = true
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

		if v.creating {
			return v.updateCreating(msg)
		}

		// the list's filter input owns the keyboard while typing
		if v.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			if v.list.FilterState() == list.FilterApplied {
				v.list.ResetFilter()
				return v, nil
			}
			return v, func() tea.Msg { return BackToTasks{} }
		case key.Matches(msg, v.keys.New):
			v.creating = true
			v.focusIdx = 0
			v.matches = nil
			v.newName.Reset()
			v.newColor.Reset()
			v.newName.Focus()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Delete):
			if item, ok := v.list.SelectedItem().(tagItem); ok {
				// an unused tag goes without asking
				if item.usage == 0 {
					return v, v.deleteTag(item.tag.ID)
				}
				v.confirmingDelete = true
				v.deleteTargetID = item.tag.ID
				v.deleteTargetName = item.tag.Name
				v.deleteTargetUses = item.usage
				return v, nil
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *TagManagerView) deleteTag(id int64) tea.Cmd {
	ctx, cancel := storeContext()
	defer cancel()

	if err := v.store.DeleteTag(ctx, id, store.AlwaysConfirm); err != nil {
		return tea.Batch(v.notifyErr(err), v.loadTags)
	}
	return tea.Batch(v.notify(NoticeSuccess, "Tag deleted"), v.loadTags)
}

func (v *TagManagerView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		return v, v.deleteTag(v.deleteTargetID)
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *TagManagerView) createTag() tea.Cmd {
	ctx, cancel := storeContext()
	defer cancel()

	tag, err := v.store.CreateTag(ctx, v.newName.Value(), v.newColor.Value())
	if errors.Is(err, store.ErrValidation) {
		return v.notifyErr(err)
	}
	v.creating = false
	if err != nil {
		return tea.Batch(v.notifyErr(err), v.loadTags)
	}
	return tea.Batch(v.notify(NoticeSuccess, fmt.Sprintf("Tag %q created", tag.Name)), v.loadTags)
}

func (v *TagManagerView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.createTag()

	case msg.String() == "shift+tab":
		v.focusIdx = (v.focusIdx + 2) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.focusIdx = (v.focusIdx + 1) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx == 0 || v.focusIdx == 1 {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		return v, v.createTag()
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.newName, cmd = v.newName.Update(msg)
		v.refreshMatches()
	case 1:
		v.newColor, cmd = v.newColor.Update(msg)
	}
	return v, cmd
}

// refreshMatches lists existing tags resembling the name being typed
func (v *TagManagerView) refreshMatches() {
	s, err := v.store.Suggest(v.newName.Value(), nil)
	if err != nil {
		v.matches = nil
		return
	}
	v.matches = s.Tags
}

func (v *TagManagerView) updateFocus() {
	v.newName.Blur()
	v.newColor.Blur()
	switch v.focusIdx {
	case 0:
		v.newName.Focus()
	case 1:
		v.newColor.Focus()
	}
}

// View renders the view
func (v *TagManagerView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.creating {
		return v.renderCreateForm()
	}

	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	content := v.list.View() + "\n"
	if n := v.render(v.styles); n != "" {
		content += n + "\n"
	}
	content += v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *TagManagerView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Tags"),
		"",
		s.TitleMuted.Render("Press 'n' to create a tag, 'esc' to go back"),
		"",
		s.ButtonPrimary.Render(" New Tag "),
		"",
		v.render(s),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TagManagerView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	nameStyle := s.Input
	colorStyle := s.Input
	btnStyle := s.Button

	switch v.focusIdx {
	case 0:
		nameStyle = s.InputFocused
	case 1:
		colorStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	color := strings.TrimSpace(v.newColor.Value())
	if color == "" {
		color = store.DefaultTagColor
	}
	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")

	var existing string
	if len(v.matches) > 0 {
		names := make([]string, len(v.matches))
		for i, t := range v.matches {
			names[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render(t.Name)
		}
		existing = s.TitleMuted.Render("Existing: ") + strings.Join(names, ", ")
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("New Tag"),
		"",
		"Name:",
		nameStyle.Width(inputWidth).Render(v.newName.View()),
		existing,
		"",
		"Color:",
		lipgloss.JoinHorizontal(lipgloss.Center,
			colorStyle.Width(12).Render(v.newColor.View()), " ", swatch,
		),
		"",
		btnStyle.Render(" Create "),
		"",
		v.render(s),
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TagManagerView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s new • %s del • %s filter • %s back • %s quit",
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("esc"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *TagManagerView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("n") + "      new tag",
		s.HelpKey.Render("d") + "      delete tag",
		s.HelpKey.Render("/") + "      filter tags",
		s.HelpKey.Render("esc") + "    back to tasks",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TagManagerView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Tag?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q is used by %d task(s).", v.deleteTargetName, v.deleteTargetUses)),
		s.TitleMuted.Render("It will be removed from them."),
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
