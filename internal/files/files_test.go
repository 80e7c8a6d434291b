// ABOUTME: Tests for the file browser library
// ABOUTME: Builds directory trees in temp dirs, checks labels, filtering and levels
package files

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestRootLabels(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"music", "videos"} {
		if err := os.Mkdir(filepath.Join(dir, d), 0o700); err != nil {
			t.Fatal(err)
		}
	}

	l := NewLibrary([]string{
		filepath.Join(dir, "music") + "/", // trailing slash gets trimmed
		filepath.Join(dir, "videos"),
		filepath.Join(dir, "missing"),
	}, nil, false, nil)

	want := []string{"Music", "Videos"}
	if got := l.RootLabels(); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestDuplicateLabelsGetNumbered(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	for _, base := range []string{a, b} {
		if err := os.Mkdir(filepath.Join(base, "music"), 0o700); err != nil {
			t.Fatal(err)
		}
	}

	l := NewLibrary([]string{filepath.Join(a, "music"), filepath.Join(b, "music")}, nil, false, nil)
	want := []string{"Music", "Music (2)"}
	if got := l.RootLabels(); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestLevelFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "tunes")
	touch(t, filepath.Join(root, "b-song.mp3"))
	touch(t, filepath.Join(root, "a-song.ogg"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, ".hidden.mp3"))
	touch(t, filepath.Join(root, "albums", "x.mp3"))
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o700); err != nil {
		t.Fatal(err)
	}

	l := NewLibrary([]string{root}, []string{"audio"}, false, nil)

	nested, ids, names := l.Level([]string{"Tunes"})
	if !reflect.DeepEqual(nested, []string{"albums"}) {
		t.Errorf("nested = %v, want [albums]", nested)
	}
	wantNames := []string{"a-song", "b-song"}
	if !reflect.DeepEqual(names, wantNames) {
		t.Errorf("names = %v, want %v", names, wantNames)
	}
	wantIDs := []string{filepath.Join(root, "a-song.ogg"), filepath.Join(root, "b-song.mp3")}
	if !reflect.DeepEqual(ids, wantIDs) {
		t.Errorf("ids = %v, want %v", ids, wantIDs)
	}

	nested, ids, names = l.Level([]string{"Tunes", "albums"})
	if len(nested) != 0 || len(ids) != 1 || names[0] != "x" {
		t.Errorf("sub level gave nested=%v ids=%v names=%v", nested, ids, names)
	}
}

func TestLevelShowExtensions(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "tunes")
	touch(t, filepath.Join(root, "song.mp3"))

	l := NewLibrary([]string{root}, []string{"audio"}, true, nil)
	_, _, names := l.Level([]string{"Tunes"})
	if len(names) != 1 || names[0] != "song.mp3" {
		t.Errorf("names = %v, want [song.mp3]", names)
	}
}

func TestLevelRootAndUnknown(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "tunes")
	if err := os.Mkdir(root, 0o700); err != nil {
		t.Fatal(err)
	}
	l := NewLibrary([]string{root}, nil, false, nil)

	nested, ids, names := l.Level(nil)
	if !reflect.DeepEqual(nested, []string{"Tunes"}) || ids != nil || names != nil {
		t.Errorf("root level gave nested=%v ids=%v names=%v", nested, ids, names)
	}

	nested, ids, names = l.Level([]string{"Nope"})
	if nested != nil || ids != nil || names != nil {
		t.Error("unknown root label produced entries")
	}
}
