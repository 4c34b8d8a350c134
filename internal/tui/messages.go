package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/paging"
)

// Message types for the TUI

// StateMsg carries a snapshot from a screen's controller. Next keeps
// listening; it is nil once the stream has closed.
type StateMsg struct {
	Resource domain.Resource
	Ctrl     *paging.Controller[domain.ListItem]
	State    paging.State[domain.ListItem]
	Next     tea.Cmd
}

// PingResultMsg reports whether the server answered.
type PingResultMsg struct {
	Err     error
	Latency time.Duration
}

// ClearStatusMsg clears the status line if it still shows the message
// stamped with Seq.
type ClearStatusMsg struct {
	Seq int
}
