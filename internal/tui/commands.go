package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Pinger checks server reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCmd checks the server once at startup.
func PingCmd(ctx context.Context, p Pinger, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		start := time.Now()
		err := p.Ping(ctx)
		return PingResultMsg{Err: err, Latency: time.Since(start)}
	}
}

// ClearStatusCmd clears the status message after a delay
func ClearStatusCmd(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
