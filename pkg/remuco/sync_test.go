// ABOUTME: Unit tests for progress quantization and feature computation
// ABOUTME: The broadcast behavior itself is covered by the adapter tests
package remuco

import "testing"

func TestQuantizeProgress(t *testing.T) {
	cases := []struct {
		elapsed, length int32
		want            int32
	}{
		{62, 0, 60},     // remainder 2 rounds down
		{63, 0, 65},     // remainder 3 rounds up
		{0, 0, 0},       // zero stays zero
		{200, 180, 180}, // capped at length
		{-7, 100, 0},    // negative clamps to zero
		{58, 60, 60},    // rounds up to exactly length
		{4, 0, 5},
	}
	for _, c := range cases {
		got, _ := quantizeProgress(c.elapsed, c.length)
		if got != c.want {
			t.Errorf("quantize(%d, len=%d) = %d, want %d", c.elapsed, c.length, got, c.want)
		}
	}
}

func TestQuantizeClampsLength(t *testing.T) {
	_, l := quantizeProgress(10, -4)
	if l != 0 {
		t.Errorf("length = %d, want clamped 0", l)
	}
}

type fullPlayer struct{}

func (fullPlayer) TogglePlayback()                    {}
func (fullPlayer) ToggleRepeat()                      {}
func (fullPlayer) ToggleShuffle()                     {}
func (fullPlayer) Next()                              {}
func (fullPlayer) Previous()                          {}
func (fullPlayer) Seek(int)                           {}
func (fullPlayer) Volume(int)                         {}
func (fullPlayer) Rate(int)                           {}
func (fullPlayer) RequestPlaylist(*ListReply)         {}
func (fullPlayer) RequestSearch(*ListReply, []string) {}

func TestComputeFeatures(t *testing.T) {
	opts := Options{
		PlaybackKnown: true,
		VolumeKnown:   true,
		MaxRating:     5,
		SearchMask:    []string{"Artist", "Title"},
	}
	flags := computeFeatures(fullPlayer{}, opts, true, false)

	for _, want := range []int32{
		FeatKnownPlayback, FeatKnownVolume,
		FeatCtrlPlayback, FeatCtrlRepeat, FeatCtrlShuffle,
		FeatCtrlNext, FeatCtrlPrev, FeatCtrlSeek, FeatCtrlVolume, FeatCtrlRate,
		FeatReqPlaylist, FeatReqSearch, FeatReqFiles,
	} {
		if flags&want == 0 {
			t.Errorf("flag %#x missing from %#x", want, flags)
		}
	}
	for _, unwanted := range []int32{
		FeatKnownRepeat, FeatKnownShuffle, FeatKnownProgress,
		FeatCtrlTag, FeatCtrlNavigate, FeatCtrlFullscreen,
		FeatReqQueue, FeatReqMLib, FeatShutdown,
	} {
		if flags&unwanted != 0 {
			t.Errorf("flag %#x set without support", unwanted)
		}
	}
}

func TestSearchNeedsMask(t *testing.T) {
	flags := computeFeatures(fullPlayer{}, Options{}, false, false)
	if flags&FeatReqSearch != 0 {
		t.Error("search offered without a search mask")
	}
}

func TestRateNeedsMaxRating(t *testing.T) {
	flags := computeFeatures(fullPlayer{}, Options{}, false, false)
	if flags&FeatCtrlRate != 0 {
		t.Error("rating offered with max rating 0")
	}
}

func TestActionIDs(t *testing.T) {
	ia := NewItemAction("Enqueue", true)
	ia2 := NewItemAction("Play", false)
	if ia.ID <= 0 || ia2.ID <= 0 {
		t.Error("item action ids must be positive")
	}
	if ia.ID == ia2.ID {
		t.Error("item action ids must be unique")
	}

	la := NewListAction("Load")
	la2 := NewListAction("Append")
	if la.ID >= 0 || la2.ID >= 0 {
		t.Error("list action ids must be negative")
	}
	if la.ID == la2.ID {
		t.Error("list action ids must be unique")
	}
}
