// ABOUTME: Change-coalesced state synchronization to all registered clients
// ABOUTME: Updates compare against snapshots, broadcasts fire at most once per flush
package remuco

import (
	"github.com/gkfabs/remuco/internal/server"
	"github.com/gkfabs/remuco/pkg/protocol"
)

// volumeSentinel replaces volume values outside [0,100]. Out-of-range input
// is an adapter bug, so it is flagged instead of silently clamped.
const volumeSentinel = 50

// UpdatePlayback reports the player's playback state, one of
// protocol.PlaybackStopped/Paused/Playing. Callable from any goroutine.
func (a *Adapter) UpdatePlayback(playback int) {
	a.loop.Post(func() {
		if a.state.Playback == playback {
			return
		}
		a.state.Playback = playback
		a.scheduleState()
	})
}

// UpdateVolume reports the player volume in percent.
func (a *Adapter) UpdateVolume(volume int) {
	a.loop.Post(func() {
		if volume < 0 || volume > 100 {
			a.log.Warn("volume out of range, using default", "volume", volume)
			volume = volumeSentinel
		}
		if a.state.Volume == volume {
			return
		}
		a.state.Volume = volume
		a.scheduleState()
	})
}

// UpdateRepeat reports whether repeat mode is on.
func (a *Adapter) UpdateRepeat(on bool) {
	a.loop.Post(func() {
		if a.state.Repeat == on {
			return
		}
		a.state.Repeat = on
		a.scheduleState()
	})
}

// UpdateShuffle reports whether shuffle mode is on.
func (a *Adapter) UpdateShuffle(on bool) {
	a.loop.Post(func() {
		if a.state.Shuffle == on {
			return
		}
		a.state.Shuffle = on
		a.scheduleState()
	})
}

// UpdatePosition reports the current item's position in the playlist, or in
// the play queue when queue is true.
func (a *Adapter) UpdatePosition(position int, queue bool) {
	a.loop.Post(func() {
		if a.state.Position == int32(position) && a.state.Queue == queue {
			return
		}
		a.state.Position = int32(position)
		a.state.Queue = queue
		a.scheduleState()
	})
}

// UpdateProgress reports playback progress and item length in seconds.
// Progress is quantized to 5 second steps, so calling this once a second is
// fine and does not flood the clients.
func (a *Adapter) UpdateProgress(elapsed, length int) {
	a.loop.Post(func() {
		e, l := quantizeProgress(int32(elapsed), int32(length))
		if a.progress.Progress == e && a.progress.Length == l {
			return
		}
		a.progress.Progress = e
		a.progress.Length = l
		a.scheduleProgress()
	})
}

// UpdateItem reports the current item: an opaque id, display meta
// information and an optional resource (file path or URI) used to look up
// cover art. A nil info with an empty id means "nothing playing".
func (a *Adapter) UpdateItem(id string, info map[string]string, resource string) {
	a.loop.Post(func() {
		if a.item.id == id && a.item.resource == resource && equalInfo(a.item.info, info) {
			return
		}
		a.item = itemSnapshot{id: id, info: info, resource: resource}
		a.scheduleItem()
	})
}

func equalInfo(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// quantizeProgress clamps both values to ≥0, rounds elapsed to the nearest
// multiple of 5 and caps it at length when a length is known.
func quantizeProgress(elapsed, length int32) (int32, int32) {
	if elapsed < 0 {
		elapsed = 0
	}
	if length < 0 {
		length = 0
	}
	if rem := elapsed % 5; rem < 3 {
		elapsed -= rem
	} else {
		elapsed += 5 - rem
	}
	if length > 0 && elapsed > length {
		elapsed = length
	}
	return elapsed, length
}

// The schedule functions arm at most one deferred flush per channel. Updates
// arriving before the flush runs just overwrite the snapshot; the flush sends
// whatever is current then.

func (a *Adapter) scheduleState() {
	if a.pendingState {
		return
	}
	a.pendingState = true
	a.loop.Post(a.flushState)
}

func (a *Adapter) scheduleProgress() {
	if a.pendingProgress {
		return
	}
	a.pendingProgress = true
	a.loop.Post(a.flushProgress)
}

func (a *Adapter) scheduleItem() {
	if a.pendingItem {
		return
	}
	a.pendingItem = true
	a.loop.Post(a.flushItem)
}

func (a *Adapter) flushState() {
	a.pendingState = false
	state := a.state
	msg := protocol.BuildMessage(protocol.MsgSyncState, &state)
	if msg == nil {
		return
	}
	for _, s := range a.registry.All() {
		s.Send(msg)
	}
}

func (a *Adapter) flushProgress() {
	a.pendingProgress = false
	progress := a.progress
	msg := protocol.BuildMessage(protocol.MsgSyncProgress, &progress)
	if msg == nil {
		return
	}
	for _, s := range a.registry.All() {
		s.Send(msg)
	}
}

// flushItem re-encodes the item once per distinct negotiated image variant,
// because each client gets art in its own size and format.
func (a *Adapter) flushItem() {
	a.pendingItem = false

	type variant struct {
		size    int32
		imgType string
	}
	cache := map[variant][]byte{}

	for _, s := range a.registry.All() {
		v := variant{size: s.Info.ImgSize, imgType: s.Info.ImgType}
		msg, have := cache[v]
		if !have {
			msg = a.buildItemMessage(v.size, v.imgType)
			cache[v] = msg
		}
		if msg != nil {
			s.Send(msg)
		}
	}
}

func (a *Adapter) buildItemMessage(imgSize int32, imgType string) []byte {
	item := &protocol.Item{
		ID:   a.item.id,
		Info: protocol.FlattenInfo(a.item.info),
	}
	if a.item.resource != "" && imgSize > 0 {
		item.Image = a.art.Thumbnail(a.item.resource, imgSize, imgType)
	}
	msg := protocol.BuildMessage(protocol.MsgSyncItem, item)
	if msg == nil && item.Image != nil {
		// Probably art too large for the wire, retry without it.
		item.Image = nil
		msg = protocol.BuildMessage(protocol.MsgSyncItem, item)
	}
	return msg
}

// resync sends the full current state to one session, change or not. Runs on
// registration and on wakeup from powersave.
func (a *Adapter) resync(s *server.Session) {
	state := a.state
	if msg := protocol.BuildMessage(protocol.MsgSyncState, &state); msg != nil {
		s.Send(msg)
	}
	progress := a.progress
	if msg := protocol.BuildMessage(protocol.MsgSyncProgress, &progress); msg != nil {
		s.Send(msg)
	}
	if msg := a.buildItemMessage(s.Info.ImgSize, s.Info.ImgType); msg != nil {
		s.Send(msg)
	}
}
