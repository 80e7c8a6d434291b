// ABOUTME: Demo player backing the interactive test shell
// ABOUTME: Simulates playback over a fixed track list and pushes state changes
package shell

import (
	"strconv"
	"sync"

	"github.com/gkfabs/remuco/pkg/protocol"
	"github.com/gkfabs/remuco/pkg/remuco"
)

// Track is one entry of the demo playlist.
type Track struct {
	ID     string
	Title  string
	Artist string
	Length int // seconds
}

// Player is a fake media player for trying out clients without a real
// player adapter. It implements the usual control and request capabilities.
type Player struct {
	mu      sync.Mutex
	adapter *remuco.Adapter

	tracks  []Track
	pos     int
	playing bool
	repeat  bool
	shuffle bool
	volume  int
	muted   int // volume before mute, -1 when not muted
	elapsed int
}

// NewPlayer creates the demo player with its built-in playlist.
func NewPlayer() *Player {
	return &Player{
		tracks: []Track{
			{ID: "d1", Title: "Here Comes The Sun", Artist: "The Beatles", Length: 185},
			{ID: "d2", Title: "Paranoid Android", Artist: "Radiohead", Length: 387},
			{ID: "d3", Title: "So What", Artist: "Miles Davis", Length: 562},
			{ID: "d4", Title: "Hoppípolla", Artist: "Sigur Rós", Length: 268},
		},
		volume: 65,
		muted:  -1,
	}
}

// Attach wires the player to its adapter and pushes the initial state.
func (p *Player) Attach(a *remuco.Adapter) {
	p.mu.Lock()
	p.adapter = a
	p.mu.Unlock()
	p.push()
}

// push sends the complete current state to the adapter, which broadcasts
// only what actually changed.
func (p *Player) push() {
	p.mu.Lock()
	a := p.adapter
	if a == nil {
		p.mu.Unlock()
		return
	}
	playing := p.playing
	volume := p.volume
	repeat, shuffle := p.repeat, p.shuffle
	pos, elapsed := p.pos, p.elapsed
	track := p.tracks[p.pos]
	p.mu.Unlock()

	playback := protocol.PlaybackPaused
	if playing {
		playback = protocol.PlaybackPlaying
	}
	a.UpdatePlayback(playback)
	a.UpdateVolume(volume)
	a.UpdateRepeat(repeat)
	a.UpdateShuffle(shuffle)
	a.UpdatePosition(pos, false)
	a.UpdateProgress(elapsed, track.Length)
	a.UpdateItem(track.ID, map[string]string{
		"title":  track.Title,
		"artist": track.Artist,
	}, "")
}

// TogglePlayback implements remuco.PlaybackControl.
func (p *Player) TogglePlayback() {
	p.mu.Lock()
	p.playing = !p.playing
	p.mu.Unlock()
	p.push()
}

// Next implements remuco.NextControl.
func (p *Player) Next() { p.skip(1) }

// Previous implements remuco.PrevControl.
func (p *Player) Previous() { p.skip(-1) }

func (p *Player) skip(step int) {
	p.mu.Lock()
	p.pos = (p.pos + step + len(p.tracks)) % len(p.tracks)
	p.elapsed = 0
	p.mu.Unlock()
	p.push()
}

// Seek implements remuco.SeekControl with 10 second steps.
func (p *Player) Seek(direction int) {
	p.mu.Lock()
	p.elapsed += direction * 10
	if p.elapsed < 0 {
		p.elapsed = 0
	}
	if max := p.tracks[p.pos].Length; p.elapsed > max {
		p.elapsed = max
	}
	p.mu.Unlock()
	p.push()
}

// Volume implements remuco.VolumeControl.
func (p *Player) Volume(direction int) {
	p.mu.Lock()
	switch {
	case direction == 0:
		if p.muted < 0 {
			p.muted = p.volume
			p.volume = 0
		} else {
			p.volume = p.muted
			p.muted = -1
		}
	case direction < 0:
		p.volume -= 5
		if p.volume < 0 {
			p.volume = 0
		}
	default:
		p.volume += 5
		if p.volume > 100 {
			p.volume = 100
		}
	}
	p.mu.Unlock()
	p.push()
}

// ToggleRepeat implements remuco.RepeatControl.
func (p *Player) ToggleRepeat() {
	p.mu.Lock()
	p.repeat = !p.repeat
	p.mu.Unlock()
	p.push()
}

// ToggleShuffle implements remuco.ShuffleControl.
func (p *Player) ToggleShuffle() {
	p.mu.Lock()
	p.shuffle = !p.shuffle
	p.mu.Unlock()
	p.push()
}

// Poll implements remuco.Poller and advances simulated playback.
func (p *Player) Poll() {
	p.mu.Lock()
	advance := false
	if p.playing {
		p.elapsed += 3
		if p.elapsed >= p.tracks[p.pos].Length {
			advance = true
		}
	}
	p.mu.Unlock()
	if advance {
		p.skip(1)
		return
	}
	p.push()
}

// RequestPlaylist implements remuco.PlaylistRequester.
func (p *Player) RequestPlaylist(reply *remuco.ListReply) {
	p.mu.Lock()
	tracks := append([]Track(nil), p.tracks...)
	p.mu.Unlock()

	for _, t := range tracks {
		reply.AddItem(t.ID, t.Artist+" - "+t.Title)
	}
	reply.Send()
}

// Snapshot is what the shell UI renders.
type Snapshot struct {
	Playing  bool
	Repeat   bool
	Shuffle  bool
	Volume   int
	Elapsed  int
	Track    Track
	Position string
}

// State returns a copy of the current player state.
func (p *Player) State() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Playing:  p.playing,
		Repeat:   p.repeat,
		Shuffle:  p.shuffle,
		Volume:   p.volume,
		Elapsed:  p.elapsed,
		Track:    p.tracks[p.pos],
		Position: strconv.Itoa(p.pos+1) + "/" + strconv.Itoa(len(p.tracks)),
	}
}
