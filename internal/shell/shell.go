// ABOUTME: Bubbletea shell for exercising an adapter without a real client
// ABOUTME: Keyboard controls mirror what a remote client would send
package shell

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type tickMsg time.Time

// Model is the TUI state. It renders the demo player and feeds key presses
// into it, so state changes flow through the adapter like real ones.
type Model struct {
	player *Player
	addr   string
	width  int
}

// NewModel creates the shell model. addr is shown so clients can be pointed
// at the server manually.
func NewModel(player *Player, addr string) Model {
	return Model{player: player, addr: addr}
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles key presses and refresh ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "p":
			m.player.TogglePlayback()
		case "n":
			m.player.Next()
		case "b":
			m.player.Previous()
		case "s":
			m.player.ToggleShuffle()
		case "r":
			m.player.ToggleRepeat()
		case "+", "=":
			m.player.Volume(1)
		case "-":
			m.player.Volume(-1)
		case "m":
			m.player.Volume(0)
		case "left":
			m.player.Seek(-1)
		case "right":
			m.player.Seek(1)
		}
	}
	return m, nil
}

// View renders the player state.
func (m Model) View() string {
	s := m.player.State()

	state := "⏸ paused"
	if s.Playing {
		state = "▶ playing"
	}
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}

	return fmt.Sprintf(`┌─ Remuco Test Shell ──────────────────────────────────┐
│ Server:  %-43s │
│ State:   %-43s │
│ Track:   %-43s │
│ Artist:  %-43s │
│ Time:    %-43s │
│ Volume:  %-43s │
│ Modes:   %-43s │
├──────────────────────────────────────────────────────┤
│ space/p play  n/b skip  ←/→ seek  +/-/m volume       │
│ s shuffle  r repeat  q quit                          │
└──────────────────────────────────────────────────────┘
`,
		m.addr,
		state,
		fmt.Sprintf("%s (%s)", s.Track.Title, s.Position),
		s.Track.Artist,
		fmt.Sprintf("%d:%02d / %d:%02d", s.Elapsed/60, s.Elapsed%60, s.Track.Length/60, s.Track.Length%60),
		fmt.Sprintf("%d%%", s.Volume),
		fmt.Sprintf("shuffle %s, repeat %s", onOff(s.Shuffle), onOff(s.Repeat)),
	)
}

// Run blocks in the interactive shell until the user quits.
func Run(player *Player, addr string) error {
	_, err := tea.NewProgram(NewModel(player, addr)).Run()
	return err
}
