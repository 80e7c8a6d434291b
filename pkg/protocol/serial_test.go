// ABOUTME: Tests for the typed field serializer
// ABOUTME: Round trips the payload structs and probes malformed data handling
package protocol

import (
	"reflect"
	"testing"
)

func TestPlayerInfoRoundTrip(t *testing.T) {
	info := &PlayerInfo{
		Name:       "Demo Player",
		Flags:      0x0000beef,
		MaxRating:  5,
		FIAIDs:     []int32{1, 2},
		FIALabels:  []string{"Enqueue", "Play"},
		FIAMultis:  []bool{true, false},
		SearchMask: []string{"Artist", "Title", "Album"},
	}

	data, err := Pack(info)
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	var decoded PlayerInfo
	if err := Unpack(&decoded, data); err != nil {
		t.Fatalf("unpack failed: %v", err)
	}
	if !reflect.DeepEqual(&decoded, info) {
		t.Errorf("round trip gave %+v, want %+v", decoded, info)
	}
}

func TestItemListRoundTrip(t *testing.T) {
	list := &ItemList{
		RequestID:  77,
		Path:       []string{"Playlists", "Party"},
		Nested:     []string{"Sue's b-day"},
		ItemIDs:    []string{"id1", "id2"},
		ItemNames:  []string{"One", "Two"},
		ItemOffset: 17,
		Page:       2,
		PageMax:    2,
		IAIDs:      []int32{1},
		IALabels:   []string{"Enqueue"},
		IAMultis:   []bool{true},
		LAIDs:      []int32{-1},
		LALabels:   []string{"Load"},
	}

	data, err := Pack(list)
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	var decoded ItemList
	if err := Unpack(&decoded, data); err != nil {
		t.Fatalf("unpack failed: %v", err)
	}
	if !reflect.DeepEqual(&decoded, list) {
		t.Errorf("round trip gave %+v, want %+v", decoded, list)
	}
}

func TestClientInfoRoundTrip(t *testing.T) {
	info := &ClientInfo{
		ImgSize:  128,
		ImgType:  "JPEG",
		PageSize: 25,
		Device:   map[string]string{"name": "phone", "version": "1.2", "touch": "yes"},
	}

	data, err := Pack(info)
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	var decoded ClientInfo
	if err := Unpack(&decoded, data); err != nil {
		t.Fatalf("unpack failed: %v", err)
	}
	if !reflect.DeepEqual(&decoded, info) {
		t.Errorf("round trip gave %+v, want %+v", decoded, info)
	}
}

func TestActionRoundTrip(t *testing.T) {
	act := &Action{
		ID:        -3,
		Path:      []string{"Genres", "Jazz"},
		Positions: []int32{0, 4},
		Items:     []string{"a", "b"},
	}

	data, err := Pack(act)
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	var decoded Action
	if err := Unpack(&decoded, data); err != nil {
		t.Fatalf("unpack failed: %v", err)
	}
	if !reflect.DeepEqual(&decoded, act) {
		t.Errorf("round trip gave %+v, want %+v", decoded, act)
	}
}

func TestUnpackWrongTag(t *testing.T) {
	// A Control payload starts with an int tag; a Tagging payload expects a
	// string tag first.
	data, err := Pack(&Control{Param: 1})
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}
	var tag Tagging
	if err := Unpack(&tag, data); err == nil {
		t.Error("expected error for mismatched field type")
	}
}

func TestUnpackTruncated(t *testing.T) {
	data, err := Pack(&Request{RequestID: 5, Path: []string{"x"}, Page: 1})
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}
	var req Request
	if err := Unpack(&req, data[:len(data)-3]); err == nil {
		t.Error("expected error for truncated payload")
	}
}

func TestUnpackTrailingGarbage(t *testing.T) {
	data, err := Pack(&Control{Param: 9})
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}
	var ctl Control
	if err := Unpack(&ctl, append(data, 0x00)); err == nil {
		t.Error("expected error for unused trailing bytes")
	}
}

func TestFlattenInfo(t *testing.T) {
	flat := FlattenInfo(map[string]string{"title": "Song", "artist": "Band"})
	want := []string{"artist", "Band", "title", "Song"}
	if !reflect.DeepEqual(flat, want) {
		t.Errorf("flatten gave %v, want %v", flat, want)
	}
	if FlattenInfo(nil) != nil {
		t.Error("expected nil for empty info")
	}
}
