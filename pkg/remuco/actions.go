// ABOUTME: Item and list actions offered to clients on browsed lists
// ABOUTME: Item action ids are positive, list action ids negative, by contract
package remuco

import "sync/atomic"

var (
	itemActionIDs atomic.Int32
	listActionIDs atomic.Int32
)

// ItemAction is something a client may do with one or more items of a list,
// like enqueueing or playing them. The id is assigned automatically and is
// always positive.
type ItemAction struct {
	ID       int32
	Label    string
	Multiple bool // action accepts more than one item at once
}

// NewItemAction creates an item action with a fresh id.
func NewItemAction(label string, multiple bool) ItemAction {
	return ItemAction{ID: itemActionIDs.Add(1), Label: label, Multiple: multiple}
}

// ListAction is something a client may do with a whole list in the media
// library, like loading it as the new playlist. The id is assigned
// automatically and is always negative, which is how the wire tells list
// actions apart from item actions.
type ListAction struct {
	ID    int32
	Label string
}

// NewListAction creates a list action with a fresh id.
func NewListAction(label string) ListAction {
	return ListAction{ID: -listActionIDs.Add(1), Label: label}
}
