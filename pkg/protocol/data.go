// ABOUTME: Payload structs exchanged with clients
// ABOUTME: Field order and wire types are a fixed client-visible contract
package protocol

import "sort"

// Playback states carried in PlayerState.
const (
	PlaybackStopped = 0
	PlaybackPaused  = 1
	PlaybackPlaying = 2
)

// PlayerInfo describes the player and its capabilities. Sent once to every
// client right after registration.
type PlayerInfo struct {
	Name       string
	Flags      int32
	MaxRating  byte
	FIAIDs     []int32  // file item action ids
	FIALabels  []string // file item action labels
	FIAMultis  []bool   // whether each file action applies to multiple files
	SearchMask []string
}

func (p *PlayerInfo) encode(w *writer) {
	w.writeString(p.Name)
	w.writeInt(p.Flags)
	w.writeByte(p.MaxRating)
	w.writeIntArray(p.FIAIDs)
	w.writeStringArray(p.FIALabels)
	w.writeBoolArray(p.FIAMultis)
	w.writeStringArray(p.SearchMask)
}

func (p *PlayerInfo) decode(r *reader) {
	p.Name = r.readString()
	p.Flags = r.readInt()
	p.MaxRating = r.readByte()
	p.FIAIDs = r.readIntArray()
	p.FIALabels = r.readStringArray()
	p.FIAMultis = r.readBoolArray()
	p.SearchMask = r.readStringArray()
}

// PlayerState is the state sync payload broadcast to clients.
type PlayerState struct {
	Playback int
	Volume   int
	Position int32
	Repeat   bool
	Shuffle  bool
	Queue    bool // current item comes from the play queue
}

func (s *PlayerState) encode(w *writer) {
	w.writeByte(byte(s.Playback))
	w.writeByte(byte(s.Volume))
	w.writeInt(s.Position)
	w.writeBool(s.Repeat)
	w.writeBool(s.Shuffle)
	w.writeBool(s.Queue)
}

func (s *PlayerState) decode(r *reader) {
	s.Playback = int(r.readByte())
	s.Volume = int(r.readByte())
	s.Position = r.readInt()
	s.Repeat = r.readBool()
	s.Shuffle = r.readBool()
	s.Queue = r.readBool()
}

// Progress is the playback progress sync payload, in seconds.
type Progress struct {
	Progress int32
	Length   int32
}

func (p *Progress) encode(w *writer) {
	w.writeInt(p.Progress)
	w.writeInt(p.Length)
}

func (p *Progress) decode(r *reader) {
	p.Progress = r.readInt()
	p.Length = r.readInt()
}

// Item is the current item sync payload. Info holds flattened key/value
// pairs; Image holds the thumbnail already encoded for the receiving client's
// negotiated size and type.
type Item struct {
	ID    string
	Info  []string
	Image []byte
}

func (i *Item) encode(w *writer) {
	w.writeString(i.ID)
	w.writeStringArray(i.Info)
	w.writeByteArray(i.Image)
}

func (i *Item) decode(r *reader) {
	i.ID = r.readString()
	i.Info = r.readStringArray()
	i.Image = r.readByteArray()
}

// FlattenInfo converts an item meta dictionary into the alternating key/value
// list the wire format wants, ordered by key for deterministic output.
func FlattenInfo(info map[string]string) []string {
	if len(info) == 0 {
		return nil
	}
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	flat := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		flat = append(flat, k, info[k])
	}
	return flat
}

// ItemList is the reply payload for a list request, already paginated.
type ItemList struct {
	RequestID  int32
	Path       []string
	Nested     []string
	ItemIDs    []string
	ItemNames  []string
	ItemOffset int32
	Page       int32
	PageMax    int32
	IAIDs      []int32
	IALabels   []string
	IAMultis   []bool
	LAIDs      []int32
	LALabels   []string
}

func (l *ItemList) encode(w *writer) {
	w.writeInt(l.RequestID)
	w.writeStringArray(l.Path)
	w.writeStringArray(l.Nested)
	w.writeStringArray(l.ItemIDs)
	w.writeStringArray(l.ItemNames)
	w.writeInt(l.ItemOffset)
	w.writeInt(l.Page)
	w.writeInt(l.PageMax)
	w.writeIntArray(l.IAIDs)
	w.writeStringArray(l.IALabels)
	w.writeBoolArray(l.IAMultis)
	w.writeIntArray(l.LAIDs)
	w.writeStringArray(l.LALabels)
}

func (l *ItemList) decode(r *reader) {
	l.RequestID = r.readInt()
	l.Path = r.readStringArray()
	l.Nested = r.readStringArray()
	l.ItemIDs = r.readStringArray()
	l.ItemNames = r.readStringArray()
	l.ItemOffset = r.readInt()
	l.Page = r.readInt()
	l.PageMax = r.readInt()
	l.IAIDs = r.readIntArray()
	l.IALabels = r.readStringArray()
	l.IAMultis = r.readBoolArray()
	l.LAIDs = r.readIntArray()
	l.LALabels = r.readStringArray()
}

// ClientInfo is sent by clients once after connecting and may be re-sent to
// renegotiate image size/type and page size.
type ClientInfo struct {
	ImgSize  int32
	ImgType  string
	PageSize int32
	Device   map[string]string
}

func (c *ClientInfo) encode(w *writer) {
	w.writeInt(c.ImgSize)
	w.writeString(c.ImgType)
	w.writeInt(c.PageSize)
	keys := make([]string, 0, len(c.Device))
	for k := range c.Device {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vals := make([]string, 0, len(keys))
	for _, k := range keys {
		vals = append(vals, c.Device[k])
	}
	w.writeStringArray(keys)
	w.writeStringArray(vals)
}

func (c *ClientInfo) decode(r *reader) {
	c.ImgSize = r.readInt()
	c.ImgType = r.readString()
	c.PageSize = r.readInt()
	keys := r.readStringArray()
	vals := r.readStringArray()
	if r.err != nil {
		return
	}
	c.Device = make(map[string]string, len(keys))
	for i, k := range keys {
		if i < len(vals) {
			c.Device[k] = vals[i]
		}
	}
}

// Control is the single-integer parameter of parameterized control messages.
type Control struct {
	Param int32
}

func (c *Control) encode(w *writer) { w.writeInt(c.Param) }
func (c *Control) decode(r *reader) { c.Param = r.readInt() }

// Action is the parameter of an item or list action message. For media
// library actions a negative ID denotes a list action and a positive ID an
// item action.
type Action struct {
	ID        int32
	Path      []string
	Positions []int32
	Items     []string // item ids or file names
}

func (a *Action) encode(w *writer) {
	w.writeInt(a.ID)
	w.writeStringArray(a.Path)
	w.writeIntArray(a.Positions)
	w.writeStringArray(a.Items)
}

func (a *Action) decode(r *reader) {
	a.ID = r.readInt()
	a.Path = r.readStringArray()
	a.Positions = r.readIntArray()
	a.Items = r.readStringArray()
}

// Tagging is the parameter of a tag control message.
type Tagging struct {
	ID   string
	Tags []string
}

func (t *Tagging) encode(w *writer) {
	w.writeString(t.ID)
	w.writeStringArray(t.Tags)
}

func (t *Tagging) decode(r *reader) {
	t.ID = r.readString()
	t.Tags = r.readStringArray()
}

// Request is the parameter of a list request message. For search requests the
// path carries the query values.
type Request struct {
	RequestID int32
	ID        string
	Path      []string
	Page      int32
}

func (q *Request) encode(w *writer) {
	w.writeInt(q.RequestID)
	w.writeString(q.ID)
	w.writeStringArray(q.Path)
	w.writeInt(q.Page)
}

func (q *Request) decode(r *reader) {
	q.RequestID = r.readInt()
	q.ID = r.readString()
	q.Path = r.readStringArray()
	q.Page = r.readInt()
}
