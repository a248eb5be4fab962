package views

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/todo/internal/store"
	"github.com/tgienger/todo/internal/ui/styles"
)

// noticeTTL is how long a notification stays on screen
const noticeTTL = 3 * time.Second

// cmdTimeout bounds every store call made from a view
const cmdTimeout = 3 * time.Second

type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeWarning
	NoticeError
)

type notice struct {
	kind NoticeKind
	text string
	seq  int
}

type noticeExpiredMsg struct {
	seq int
}

// notifier shows one status line message at a time. A newer message
// replaces the old one and restarts the timer.
type notifier struct {
	current *notice
	seq     int
}

func (n *notifier) notify(kind NoticeKind, text string) tea.Cmd {
	n.seq++
	seq := n.seq
	n.current = &notice{kind: kind, text: text, seq: seq}
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// notifyErr reports a failed store call
func (n *notifier) notifyErr(err error) tea.Cmd {
	var ve *store.ValidationError
	switch {
	case errors.As(err, &ve):
		return n.notify(NoticeWarning, ve.Error())
	case errors.Is(err, store.ErrPersist):
		return n.notify(NoticeError, "Not saved, kept in memory: "+err.Error())
	case errors.Is(err, store.ErrNotConfirmed):
		return n.notify(NoticeWarning, "Cancelled")
	}
	return n.notify(NoticeError, err.Error())
}

func (n *notifier) expire(msg noticeExpiredMsg) {
	if n.current != nil && n.current.seq == msg.seq {
		n.current = nil
	}
}

func (n *notifier) render(s *styles.Styles) string {
	if n.current == nil {
		return ""
	}
	switch n.current.kind {
	case NoticeWarning:
		return s.NoticeWarning.Render("! " + n.current.text)
	case NoticeError:
		return s.NoticeError.Render("✗ " + n.current.text)
	}
	return s.NoticeSuccess.Render("✓ " + n.current.text)
}

func storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cmdTimeout)
}
