// ABOUTME: Optional player capability interfaces and adapter options
// ABOUTME: Implementing an interface on the player value enables the feature
package remuco

import "time"

// The adapter inspects the player value for these interfaces at construction
// time. Every one is optional; clients only see controls for what the player
// actually implements.

// PlaybackControl toggles between playing and paused/stopped.
type PlaybackControl interface {
	TogglePlayback()
}

// RepeatControl toggles repeat mode.
type RepeatControl interface {
	ToggleRepeat()
}

// ShuffleControl toggles shuffle mode.
type ShuffleControl interface {
	ToggleShuffle()
}

// FullscreenControl toggles video fullscreen mode.
type FullscreenControl interface {
	ToggleFullscreen()
}

// NextControl skips to the next item.
type NextControl interface {
	Next()
}

// PrevControl skips to the previous item.
type PrevControl interface {
	Previous()
}

// SeekControl seeks within the current item. Direction is -1 (backward) or
// +1 (forward); the step width is the player's business.
type SeekControl interface {
	Seek(direction int)
}

// VolumeControl changes the player volume. Direction is -1 (down), +1 (up)
// or 0 (toggle mute).
type VolumeControl interface {
	Volume(direction int)
}

// RateControl rates the current item.
type RateControl interface {
	Rate(rating int)
}

// TagControl replaces the tags of an item.
type TagControl interface {
	Tag(id string, tags []string)
}

// NavigateControl sends a navigation event to the player UI, for players
// with menus (DVD playback and the like).
type NavigateControl interface {
	Navigate(code int)
}

// Poller is called periodically so pull-style players can refresh their
// state. Push-style players just call the Update methods and skip this.
type Poller interface {
	Poll()
}

// PlaylistRequester fills a reply with the current playlist.
type PlaylistRequester interface {
	RequestPlaylist(reply *ListReply)
}

// QueueRequester fills a reply with the current play queue.
type QueueRequester interface {
	RequestQueue(reply *ListReply)
}

// MLibRequester fills a reply with one level of the player's media library.
type MLibRequester interface {
	RequestMLib(reply *ListReply, path []string)
}

// SearchRequester fills a reply with the results for a search query. The
// query values are ordered like the adapter's search mask.
type SearchRequester interface {
	RequestSearch(reply *ListReply, query []string)
}

// PlaylistActor runs an item action on the playlist.
type PlaylistActor interface {
	ActionPlaylist(actionID int32, positions []int32, itemIDs []string)
}

// QueueActor runs an item action on the play queue.
type QueueActor interface {
	ActionQueue(actionID int32, positions []int32, itemIDs []string)
}

// MLibItemActor runs an item action inside a media library level.
type MLibItemActor interface {
	ActionMLibItem(actionID int32, path []string, positions []int32, itemIDs []string)
}

// MLibListActor runs a list action on a media library level itself.
type MLibListActor interface {
	ActionMLibList(actionID int32, path []string)
}

// FilesActor runs a file action on files picked in the file browser.
type FilesActor interface {
	ActionFiles(actionID int32, files []string)
}

// SearchActor runs an item action on search results.
type SearchActor interface {
	ActionSearch(actionID int32, positions []int32, itemIDs []string)
}

// Options configure an adapter at construction time. The Known flags state
// which parts of the player state the adapter actually reports; clients hide
// the corresponding displays otherwise.
type Options struct {
	PlaybackKnown bool
	VolumeKnown   bool
	RepeatKnown   bool
	ShuffleKnown  bool
	ProgressKnown bool

	// MaxRating is the player's rating scale maximum, 0 if rating is not
	// supported.
	MaxRating int

	// PollInterval is how often a Poller player gets polled. Zero means the
	// 2.5 second default.
	PollInterval time.Duration

	// SearchMask lists the field names a search query consists of. Search
	// is only offered to clients when this is non-empty and the player
	// implements SearchRequester.
	SearchMask []string

	// FileActions are offered on files in the file browser.
	FileActions []ItemAction

	// MimeTypes enables the built-in file browser for matching files, e.g.
	// "audio", "video". Empty disables file browsing.
	MimeTypes []string
}

const defaultPollInterval = 2500 * time.Millisecond
