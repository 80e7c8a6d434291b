// ABOUTME: Paged reply for list requests (playlist, queue, library, files, search)
// ABOUTME: Providers fill it and call Send, paging happens against the client's page size
package remuco

import (
	"github.com/charmbracelet/log"

	"github.com/gkfabs/remuco/internal/loop"
	"github.com/gkfabs/remuco/internal/server"
	"github.com/gkfabs/remuco/pkg/protocol"
)

const fallbackPageSize = 25

// ListReply collects the full, unpaged result of one list request. The
// provider appends nested list names and items in display order and calls
// Send; only the requested page actually goes out.
type ListReply struct {
	loop     *loop.Loop
	registry *server.Registry
	session  *server.Session
	log      *log.Logger

	msgID     int16
	requestID int32
	path      []string
	page      int32
	pageSize  int32

	nested    []string
	itemIDs   []string
	itemNames []string

	// ItemActions and ListActions are offered on this list's contents.
	ItemActions []ItemAction
	ListActions []ListAction

	sent bool
}

// Path returns the requested list path. Empty means the root level.
func (r *ListReply) Path() []string { return r.path }

// AddNested appends a nested list entry.
func (r *ListReply) AddNested(name string) {
	r.nested = append(r.nested, name)
}

// AddItem appends an item entry.
func (r *ListReply) AddItem(id, name string) {
	r.itemIDs = append(r.itemIDs, id)
	r.itemNames = append(r.itemNames, name)
}

// Send pages the collected entries and queues the reply to the requesting
// session. Transmission is deferred to loop context, so providers may call
// this from wherever their data arrived. Send is a one-shot.
func (r *ListReply) Send() {
	if r.sent {
		r.log.Error("list reply sent twice")
		return
	}
	r.sent = true

	list := r.paged()
	msg := protocol.BuildMessage(r.msgID, list)
	if msg == nil {
		return
	}

	r.loop.Post(func() {
		if !r.registry.Contains(r.session) {
			r.log.Debug("list reply for a gone session dropped")
			return
		}
		r.session.Send(msg)
	})
}

// paged cuts the requested page out of the full result. Nested entries
// occupy the leading rows, items the trailing ones; a page may straddle the
// boundary. ItemOffset tells the client where in the item array its page
// starts.
func (r *ListReply) paged() *protocol.ItemList {
	p := r.pageSize
	if p <= 0 {
		p = fallbackPageSize
	}

	nNested := int32(len(r.nested))
	total := nNested + int32(len(r.itemIDs))

	pageMax := (total + p - 1) / p
	if pageMax > 0 {
		pageMax--
	}
	page := r.page
	if page < 0 {
		page = 0
	}
	if page > pageMax {
		// The list may have shrunk since the client got its page numbers.
		page = pageMax
	}

	start := page * p
	end := start + p
	if end > total {
		end = total
	}

	list := &protocol.ItemList{
		RequestID: r.requestID,
		Path:      r.path,
		Page:      page,
		PageMax:   pageMax,
	}

	if start < nNested {
		stop := end
		if stop > nNested {
			stop = nNested
		}
		list.Nested = r.nested[start:stop]
	}

	itemStart := start - nNested
	if itemStart < 0 {
		itemStart = 0
	}
	itemEnd := end - nNested
	if itemEnd > itemStart {
		list.ItemIDs = r.itemIDs[itemStart:itemEnd]
		list.ItemNames = r.itemNames[itemStart:itemEnd]
	}
	list.ItemOffset = itemStart

	for _, a := range r.ItemActions {
		list.IAIDs = append(list.IAIDs, a.ID)
		list.IALabels = append(list.IALabels, a.Label)
		list.IAMultis = append(list.IAMultis, a.Multiple)
	}
	for _, a := range r.ListActions {
		list.LAIDs = append(list.LAIDs, a.ID)
		list.LALabels = append(list.LALabels, a.Label)
	}

	return list
}
