package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/paging"
)

// listenCmd waits for the next snapshot on ch. The returned message carries
// the continuation command, so the stream is consumed one message at a time.
func listenCmd(res domain.Resource, ctrl *paging.Controller[domain.ListItem], ch <-chan paging.State[domain.ListItem]) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			// Controller closed; the screen has moved on.
			return nil
		}
		return StateMsg{
			Resource: res,
			Ctrl:     ctrl,
			State:    st,
			Next:     listenCmd(res, ctrl, ch),
		}
	}
}
