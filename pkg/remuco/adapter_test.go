// ABOUTME: End-to-end adapter tests over a real TCP connection
// ABOUTME: Covers registration, coalescing, idempotence, volume sanitation, dispatch
package remuco

import (
	"image"
	"image/png"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gkfabs/remuco/pkg/protocol"
)

type testPlayer struct {
	controls chan string
}

func newTestPlayer() *testPlayer {
	return &testPlayer{controls: make(chan string, 16)}
}

func (p *testPlayer) TogglePlayback() { p.controls <- "playback" }
func (p *testPlayer) ToggleShuffle()  { p.controls <- "shuffle" }
func (p *testPlayer) Seek(d int) {
	if d > 0 {
		p.controls <- "seek+"
	} else {
		p.controls <- "seek-"
	}
}

func (p *testPlayer) RequestPlaylist(reply *ListReply) {
	reply.AddItem("t1", "Track One")
	reply.AddItem("t2", "Track Two")
	reply.Send()
}

func startAdapter(t *testing.T, player any) *Adapter {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	cfgDir := filepath.Join(dir, "config", "remuco")
	if err := os.MkdirAll(cfgDir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "remuco.cfg"),
		[]byte("wifi-port = 0\nlog-level = ERROR\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	a, err := New("Test Player", player, Options{PlaybackKnown: true, VolumeKnown: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(a.Stop)
	return a
}

// connect dials the adapter, completes the handshake and registration and
// consumes the initial sync (player info, state, progress, item).
func connect(t *testing.T, a *Adapter) net.Conn {
	t.Helper()

	conn, err := net.Dial("tcp", a.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(time.Second))
	token := make([]byte, len(protocol.HandshakeToken))
	if _, err := io.ReadFull(conn, token); err != nil {
		t.Fatalf("read handshake: %v", err)
	}

	cinfo := protocol.BuildMessage(protocol.MsgConnClientInfo, &protocol.ClientInfo{
		ImgSize: 0, ImgType: "JPEG", PageSize: 10,
		Device: map[string]string{"name": "test client"},
	})
	if _, err := conn.Write(cinfo); err != nil {
		t.Fatalf("send client info: %v", err)
	}

	for _, want := range []int16{
		protocol.MsgConnPlayerInfo, protocol.MsgSyncState,
		protocol.MsgSyncProgress, protocol.MsgSyncItem,
	} {
		id, _ := readMsg(t, conn)
		if id != want {
			t.Fatalf("initial sync sent id %d, want %d", id, want)
		}
	}
	return conn
}

func readMsg(t *testing.T, conn net.Conn) (int16, []byte) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	header := make([]byte, protocol.HeaderLen)
	if _, err := io.ReadFull(conn, header); err != nil {
		t.Fatalf("read header: %v", err)
	}
	id, size, err := protocol.DecodeHeader(header)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(conn, payload); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	return id, payload
}

// expectSilence fails if any message arrives within the grace window.
func expectSilence(t *testing.T, conn net.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, err := conn.Read(make([]byte, 1)); err == nil {
		t.Fatal("unexpected message")
	}
}

func TestCoalescedShuffleBroadcast(t *testing.T) {
	a := startAdapter(t, newTestPlayer())
	conn := connect(t, a)

	// Hold the loop so all three updates queue up before any flush runs.
	gate := make(chan struct{})
	a.loop.Post(func() { <-gate })
	a.UpdateShuffle(true)
	a.UpdateShuffle(false)
	a.UpdateShuffle(true)
	close(gate)

	id, payload := readMsg(t, conn)
	if id != protocol.MsgSyncState {
		t.Fatalf("got id %d, want state sync", id)
	}
	var state protocol.PlayerState
	if err := protocol.Unpack(&state, payload); err != nil {
		t.Fatalf("unpack state: %v", err)
	}
	if !state.Shuffle {
		t.Error("broadcast does not reflect the final value")
	}

	expectSilence(t, conn)
}

func TestProgressIdempotence(t *testing.T) {
	a := startAdapter(t, newTestPlayer())
	conn := connect(t, a)

	a.UpdateProgress(62, 300)
	a.UpdateProgress(62, 300)
	a.UpdateProgress(61, 300) // same after quantization

	id, payload := readMsg(t, conn)
	if id != protocol.MsgSyncProgress {
		t.Fatalf("got id %d, want progress sync", id)
	}
	var progress protocol.Progress
	if err := protocol.Unpack(&progress, payload); err != nil {
		t.Fatalf("unpack progress: %v", err)
	}
	if progress.Progress != 60 || progress.Length != 300 {
		t.Errorf("progress = %d/%d, want 60/300", progress.Progress, progress.Length)
	}

	expectSilence(t, conn)
}

func TestVolumeSanitation(t *testing.T) {
	a := startAdapter(t, newTestPlayer())
	conn := connect(t, a)

	a.UpdateVolume(150)

	id, payload := readMsg(t, conn)
	if id != protocol.MsgSyncState {
		t.Fatalf("got id %d, want state sync", id)
	}
	var state protocol.PlayerState
	if err := protocol.Unpack(&state, payload); err != nil {
		t.Fatalf("unpack state: %v", err)
	}
	if state.Volume != 50 {
		t.Errorf("volume = %d, want sentinel 50", state.Volume)
	}

	// The sentinel is already stored, another bad value changes nothing.
	a.UpdateVolume(-5)
	expectSilence(t, conn)
}

func TestControlDispatch(t *testing.T) {
	player := newTestPlayer()
	a := startAdapter(t, player)
	conn := connect(t, a)

	for _, msg := range [][]byte{
		protocol.BuildMessage(protocol.MsgCtrlPlayPause, nil),
		protocol.BuildMessage(protocol.MsgCtrlSeek, &protocol.Control{Param: -1}),
		protocol.BuildMessage(protocol.MsgCtrlShuffle, nil),
	} {
		if _, err := conn.Write(msg); err != nil {
			t.Fatalf("send control: %v", err)
		}
	}

	want := []string{"playback", "seek-", "shuffle"}
	for _, w := range want {
		select {
		case got := <-player.controls:
			if got != w {
				t.Errorf("control %q, want %q", got, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("player never saw %q", w)
		}
	}
}

func TestUnimplementedControlSurvives(t *testing.T) {
	a := startAdapter(t, newTestPlayer())
	conn := connect(t, a)

	// The test player has no next control; the session must stay usable.
	if _, err := conn.Write(protocol.BuildMessage(protocol.MsgCtrlNext, nil)); err != nil {
		t.Fatalf("send control: %v", err)
	}

	a.UpdatePlayback(protocol.PlaybackPlaying)
	if id, _ := readMsg(t, conn); id != protocol.MsgSyncState {
		t.Fatalf("got id %d, want state sync after bad control", id)
	}
}

func TestPlaylistRequest(t *testing.T) {
	a := startAdapter(t, newTestPlayer())
	conn := connect(t, a)

	req := protocol.BuildMessage(protocol.MsgReqPlaylist, &protocol.Request{RequestID: 42})
	if _, err := conn.Write(req); err != nil {
		t.Fatalf("send request: %v", err)
	}

	id, payload := readMsg(t, conn)
	if id != protocol.MsgReqPlaylist {
		t.Fatalf("reply id %d, want %d", id, protocol.MsgReqPlaylist)
	}
	var list protocol.ItemList
	if err := protocol.Unpack(&list, payload); err != nil {
		t.Fatalf("unpack reply: %v", err)
	}
	if list.RequestID != 42 {
		t.Errorf("requestID = %d, want 42", list.RequestID)
	}
	if len(list.ItemIDs) != 2 || list.ItemNames[1] != "Track Two" {
		t.Errorf("items = %v / %v", list.ItemIDs, list.ItemNames)
	}
}

func TestUnregisteredSessionGetsNoBroadcasts(t *testing.T) {
	a := startAdapter(t, newTestPlayer())

	conn, err := net.Dial("tcp", a.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	token := make([]byte, len(protocol.HandshakeToken))
	if _, err := io.ReadFull(conn, token); err != nil {
		t.Fatalf("read handshake: %v", err)
	}

	// No client info sent: broadcasts must not reach this session.
	a.UpdatePlayback(protocol.PlaybackPlaying)
	expectSilence(t, conn)
}

// connectWithImages registers like connect but asks for cover art.
func connectWithImages(t *testing.T, a *Adapter, imgSize int32, imgType string) net.Conn {
	t.Helper()

	conn, err := net.Dial("tcp", a.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(time.Second))
	token := make([]byte, len(protocol.HandshakeToken))
	if _, err := io.ReadFull(conn, token); err != nil {
		t.Fatalf("read handshake: %v", err)
	}

	cinfo := protocol.BuildMessage(protocol.MsgConnClientInfo, &protocol.ClientInfo{
		ImgSize: imgSize, ImgType: imgType, PageSize: 10,
	})
	if _, err := conn.Write(cinfo); err != nil {
		t.Fatalf("send client info: %v", err)
	}
	for i := 0; i < 4; i++ {
		readMsg(t, conn) // player info + initial sync
	}
	return conn
}

func TestOversizedArtDroppedFromItem(t *testing.T) {
	a := startAdapter(t, newTestPlayer())

	// High-entropy pixels make the PNG incompressible, far over the payload
	// cap at full size.
	img := image.NewRGBA(image.Rect(0, 0, 300, 300))
	seed := uint32(1)
	for i := range img.Pix {
		seed = seed*1664525 + 1013904223
		img.Pix[i] = byte(seed >> 24)
	}
	cover := filepath.Join(t.TempDir(), "cover.png")
	f, err := os.Create(cover)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	conn := connectWithImages(t, a, 300, "PNG")

	a.UpdateItem("big", map[string]string{"title": "Loud"}, cover)

	id, payload := readMsg(t, conn)
	if id != protocol.MsgSyncItem {
		t.Fatalf("got id %d, want item sync", id)
	}
	var item protocol.Item
	if err := protocol.Unpack(&item, payload); err != nil {
		t.Fatalf("unpack item: %v", err)
	}
	if item.ID != "big" || len(item.Info) == 0 {
		t.Errorf("item metadata lost: %+v", item)
	}
	if item.Image != nil {
		t.Errorf("item carries %d bytes of art over the payload cap", len(item.Image))
	}
}

func TestStopSaysGoodbye(t *testing.T) {
	a := startAdapter(t, newTestPlayer())
	conn := connect(t, a)

	a.Stop()

	id, _ := readMsg(t, conn)
	if id != protocol.MsgConnBye {
		t.Fatalf("got id %d, want bye", id)
	}
}
