// ABOUTME: Routes inbound client messages to player capabilities
// ABOUTME: Controls, actions and list requests; decode failures drop one message only
package remuco

import (
	"github.com/gkfabs/remuco/internal/server"
	"github.com/gkfabs/remuco/pkg/protocol"
)

// handleMessage is the session handler. Runs in loop context; connection
// management ids never get here.
func (a *Adapter) handleMessage(s *server.Session, id int16, payload []byte) {
	switch {
	case id == protocol.MsgPrivInitialSync:
		a.resync(s)
	case protocol.IsControl(id):
		a.handleControl(id, payload)
	case protocol.IsAction(id):
		var act protocol.Action
		if err := protocol.Unpack(&act, payload); err != nil {
			a.log.Warn("bad action payload", "id", id, "err", err)
			return
		}
		a.handleAction(id, &act)
	case protocol.IsRequest(id):
		var req protocol.Request
		if err := protocol.Unpack(&req, payload); err != nil {
			a.log.Warn("bad request payload", "id", id, "err", err)
			return
		}
		a.handleRequest(s, id, &req)
	default:
		a.log.Warn("unexpected message", "id", id)
	}
}

// missing logs a control/request for a capability the player never declared.
// Well-behaved clients only send what the player info offered, so this is an
// internal bug, not a user problem.
func (a *Adapter) missing(what string) {
	a.log.Error("player does not implement this, client should not have asked", "capability", what)
}

func (a *Adapter) handleControl(id int16, payload []byte) {
	// Controls with a parameter carry a single int.
	param := func() (int32, bool) {
		var c protocol.Control
		if err := protocol.Unpack(&c, payload); err != nil {
			a.log.Warn("bad control payload", "id", id, "err", err)
			return 0, false
		}
		return c.Param, true
	}

	switch id {
	case protocol.MsgCtrlPlayPause:
		if p, ok := a.player.(PlaybackControl); ok {
			p.TogglePlayback()
		} else {
			a.missing("playback")
		}
	case protocol.MsgCtrlNext:
		if p, ok := a.player.(NextControl); ok {
			p.Next()
		} else {
			a.missing("next")
		}
	case protocol.MsgCtrlPrev:
		if p, ok := a.player.(PrevControl); ok {
			p.Previous()
		} else {
			a.missing("previous")
		}
	case protocol.MsgCtrlSeek:
		if p, ok := a.player.(SeekControl); ok {
			if v, ok := param(); ok {
				p.Seek(int(v))
			}
		} else {
			a.missing("seek")
		}
	case protocol.MsgCtrlVolume:
		v, ok := param()
		if !ok {
			return
		}
		if a.cfg.MasterVolumeEnabled() {
			a.masterVolume(int(v))
		} else if p, ok := a.player.(VolumeControl); ok {
			p.Volume(int(v))
		} else {
			a.missing("volume")
		}
	case protocol.MsgCtrlRepeat:
		if p, ok := a.player.(RepeatControl); ok {
			p.ToggleRepeat()
		} else {
			a.missing("repeat")
		}
	case protocol.MsgCtrlShuffle:
		if p, ok := a.player.(ShuffleControl); ok {
			p.ToggleShuffle()
		} else {
			a.missing("shuffle")
		}
	case protocol.MsgCtrlRate:
		if p, ok := a.player.(RateControl); ok {
			if v, ok := param(); ok {
				p.Rate(int(v))
			}
		} else {
			a.missing("rate")
		}
	case protocol.MsgCtrlTag:
		var tag protocol.Tagging
		if err := protocol.Unpack(&tag, payload); err != nil {
			a.log.Warn("bad tagging payload", "err", err)
			return
		}
		if p, ok := a.player.(TagControl); ok {
			p.Tag(tag.ID, tag.Tags)
		} else {
			a.missing("tag")
		}
	case protocol.MsgCtrlNavigate:
		if p, ok := a.player.(NavigateControl); ok {
			if v, ok := param(); ok {
				p.Navigate(int(v))
			}
		} else {
			a.missing("navigate")
		}
	case protocol.MsgCtrlFullscreen:
		if p, ok := a.player.(FullscreenControl); ok {
			p.ToggleFullscreen()
		} else {
			a.missing("fullscreen")
		}
	case protocol.MsgCtrlShutdown:
		a.systemShutdown()
	default:
		a.log.Warn("unknown control", "id", id)
	}
}

func (a *Adapter) handleAction(id int16, act *protocol.Action) {
	switch id {
	case protocol.MsgActPlaylist:
		if p, ok := a.player.(PlaylistActor); ok {
			p.ActionPlaylist(act.ID, act.Positions, act.Items)
		} else {
			a.missing("playlist action")
		}
	case protocol.MsgActQueue:
		if p, ok := a.player.(QueueActor); ok {
			p.ActionQueue(act.ID, act.Positions, act.Items)
		} else {
			a.missing("queue action")
		}
	case protocol.MsgActMLib:
		// Negative ids are list actions, positive ids item actions. The
		// sign is part of the wire contract.
		if act.ID < 0 {
			if p, ok := a.player.(MLibListActor); ok {
				p.ActionMLibList(act.ID, act.Path)
			} else {
				a.missing("library list action")
			}
		} else {
			if p, ok := a.player.(MLibItemActor); ok {
				p.ActionMLibItem(act.ID, act.Path, act.Positions, act.Items)
			} else {
				a.missing("library item action")
			}
		}
	case protocol.MsgActFiles:
		if p, ok := a.player.(FilesActor); ok {
			p.ActionFiles(act.ID, act.Items)
		} else {
			a.missing("file action")
		}
	case protocol.MsgActSearch:
		if p, ok := a.player.(SearchActor); ok {
			p.ActionSearch(act.ID, act.Positions, act.Items)
		} else {
			a.missing("search action")
		}
	default:
		a.log.Warn("unknown action", "id", id)
	}
}

func (a *Adapter) handleRequest(s *server.Session, id int16, req *protocol.Request) {
	reply := a.newReply(s, id, req)

	switch id {
	case protocol.MsgReqPlaylist:
		if p, ok := a.player.(PlaylistRequester); ok {
			p.RequestPlaylist(reply)
		} else {
			a.missing("playlist")
		}
	case protocol.MsgReqQueue:
		if p, ok := a.player.(QueueRequester); ok {
			p.RequestQueue(reply)
		} else {
			a.missing("queue")
		}
	case protocol.MsgReqMLib:
		if p, ok := a.player.(MLibRequester); ok {
			p.RequestMLib(reply, req.Path)
		} else {
			a.missing("library")
		}
	case protocol.MsgReqFiles:
		a.requestFiles(reply, req.Path)
	case protocol.MsgReqSearch:
		if p, ok := a.player.(SearchRequester); ok {
			p.RequestSearch(reply, req.Path)
		} else {
			a.missing("search")
		}
	default:
		a.log.Warn("unknown request", "id", id)
	}
}

func (a *Adapter) newReply(s *server.Session, id int16, req *protocol.Request) *ListReply {
	return &ListReply{
		loop:      a.loop,
		registry:  a.registry,
		session:   s,
		log:       a.log,
		msgID:     id,
		requestID: req.RequestID,
		path:      req.Path,
		page:      req.Page,
		pageSize:  s.Info.PageSize,
	}
}

// requestFiles serves the built-in file browser.
func (a *Adapter) requestFiles(reply *ListReply, path []string) {
	if a.fileLib == nil {
		a.missing("file browser")
		return
	}
	nested, ids, names := a.fileLib.Level(path)
	for _, n := range nested {
		reply.AddNested(n)
	}
	for i := range ids {
		reply.AddItem(ids[i], names[i])
	}
	reply.ItemActions = a.opts.FileActions
	reply.Send()
}
