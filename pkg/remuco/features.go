// ABOUTME: Feature flag bits advertised to clients in the player info
// ABOUTME: Derived from the interfaces the player value implements
package remuco

// Feature flags. The bit values are an adapter-visible contract shared with
// the clients; only add at the end.
const (
	FeatKnownPlayback int32 = 1 << iota
	FeatKnownVolume
	FeatKnownRepeat
	FeatKnownShuffle
	FeatKnownProgress

	FeatCtrlPlayback
	FeatCtrlVolume
	FeatCtrlSeek
	FeatCtrlRate
	FeatCtrlTag
	FeatCtrlNext
	FeatCtrlPrev
	FeatCtrlRepeat
	FeatCtrlShuffle
	FeatCtrlFullscreen
	FeatCtrlNavigate

	FeatReqPlaylist
	FeatReqQueue
	FeatReqMLib
	FeatReqSearch
	FeatReqFiles

	FeatShutdown
)

// computeFeatures folds the implemented player interfaces and the adapter
// options into the flag bitmask sent in the player info.
func computeFeatures(player any, opts Options, fileBrowser, shutdown bool) int32 {
	var flags int32

	set := func(on bool, bit int32) {
		if on {
			flags |= bit
		}
	}

	set(opts.PlaybackKnown, FeatKnownPlayback)
	set(opts.VolumeKnown, FeatKnownVolume)
	set(opts.RepeatKnown, FeatKnownRepeat)
	set(opts.ShuffleKnown, FeatKnownShuffle)
	set(opts.ProgressKnown, FeatKnownProgress)

	_, ok := player.(PlaybackControl)
	set(ok, FeatCtrlPlayback)
	_, ok = player.(VolumeControl)
	set(ok, FeatCtrlVolume)
	_, ok = player.(SeekControl)
	set(ok, FeatCtrlSeek)
	_, ok = player.(RateControl)
	set(ok && opts.MaxRating > 0, FeatCtrlRate)
	_, ok = player.(TagControl)
	set(ok, FeatCtrlTag)
	_, ok = player.(NextControl)
	set(ok, FeatCtrlNext)
	_, ok = player.(PrevControl)
	set(ok, FeatCtrlPrev)
	_, ok = player.(RepeatControl)
	set(ok, FeatCtrlRepeat)
	_, ok = player.(ShuffleControl)
	set(ok, FeatCtrlShuffle)
	_, ok = player.(FullscreenControl)
	set(ok, FeatCtrlFullscreen)
	_, ok = player.(NavigateControl)
	set(ok, FeatCtrlNavigate)

	_, ok = player.(PlaylistRequester)
	set(ok, FeatReqPlaylist)
	_, ok = player.(QueueRequester)
	set(ok, FeatReqQueue)
	_, ok = player.(MLibRequester)
	set(ok, FeatReqMLib)
	_, ok = player.(SearchRequester)
	set(ok && len(opts.SearchMask) > 0, FeatReqSearch)

	set(fileBrowser, FeatReqFiles)
	set(shutdown, FeatShutdown)

	return flags
}
