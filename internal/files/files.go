// ABOUTME: Local file browser backing the client's file navigation
// ABOUTME: Maps configured root dirs to labeled levels of dirs and media files
package files

import (
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
)

// The system mime table does not reliably know media extensions, so the ones
// that matter for browsing get registered up front.
func init() {
	for ext, typ := range map[string]string{
		".mp3": "audio/mpeg", ".ogg": "audio/ogg", ".oga": "audio/ogg",
		".flac": "audio/flac", ".m4a": "audio/mp4", ".wav": "audio/x-wav",
		".wma": "audio/x-ms-wma", ".aac": "audio/aac",
		".mp4": "video/mp4", ".mkv": "video/x-matroska", ".avi": "video/x-msvideo",
		".mov": "video/quicktime", ".webm": "video/webm", ".ogv": "video/ogg",
		".wmv": "video/x-ms-wmv", ".mpg": "video/mpeg", ".mpeg": "video/mpeg",
	} {
		mime.AddExtensionType(ext, typ)
	}
}

type root struct {
	label string
	path  string
}

// Library exposes a set of root directories as a browsable tree. Only files
// whose mime type matches one of the configured prefixes show up.
type Library struct {
	roots          []root
	mimePrefixes   []string
	showExtensions bool
	log            *log.Logger
}

// NewLibrary builds a library from configured root dirs. The special value
// "auto" expands to the user's media directories matching the mime prefixes
// (audio -> music dir, video -> videos dir). Unusable dirs are skipped.
func NewLibrary(rootDirs, mimePrefixes []string, showExtensions bool, logger *log.Logger) *Library {
	if logger == nil {
		logger = log.Default()
	}
	l := &Library{mimePrefixes: mimePrefixes, showExtensions: showExtensions, log: logger}

	var dirs []string
	for _, dir := range rootDirs {
		if dir == "auto" {
			dirs = append(dirs, autoDirs(mimePrefixes)...)
			continue
		}
		dirs = append(dirs, dir)
	}

	used := map[string]int{}
	for _, dir := range dirs {
		dir = strings.TrimRight(dir, "/")
		if dir == "" {
			dir = "/"
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			l.log.Warn("ignoring unusable root dir", "dir", dir)
			continue
		}

		label := capitalize(filepath.Base(dir))
		used[label]++
		if n := used[label]; n > 1 {
			label = label + " (" + strconv.Itoa(n) + ")"
		}
		l.roots = append(l.roots, root{label: label, path: dir})
	}
	return l
}

// autoDirs picks the xdg user dirs matching the mime prefixes.
func autoDirs(mimePrefixes []string) []string {
	var dirs []string
	for _, prefix := range mimePrefixes {
		switch prefix {
		case "audio":
			if d := xdgUserDir("XDG_MUSIC_DIR", "Music"); d != "" {
				dirs = append(dirs, d)
			}
		case "video":
			if d := xdgUserDir("XDG_VIDEOS_DIR", "Videos"); d != "" {
				dirs = append(dirs, d)
			}
		}
	}
	return dirs
}

// xdgUserDir resolves one entry of ~/.config/user-dirs.dirs, falling back to
// a directory of the given name in the home dir.
func xdgUserDir(key, fallback string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	data, err := os.ReadFile(filepath.Join(home, ".config", "user-dirs.dirs"))
	if err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, key+"=") {
				continue
			}
			val := strings.Trim(strings.TrimPrefix(line, key+"="), `"`)
			val = strings.ReplaceAll(val, "$HOME", home)
			if val != "" {
				return val
			}
		}
	}
	return filepath.Join(home, fallback)
}

// RootLabels returns the labels clients see at the top level.
func (l *Library) RootLabels() []string {
	labels := make([]string, len(l.roots))
	for i, r := range l.roots {
		labels[i] = r.label
	}
	return labels
}

// Level lists one directory of the tree. An empty path means the root level,
// which only has nested entries. Returns nested dir labels and, for files,
// parallel id and display name lists. Ids are absolute file paths.
func (l *Library) Level(path []string) (nested, ids, names []string) {
	if len(path) == 0 {
		return l.RootLabels(), nil, nil
	}

	var base string
	for _, r := range l.roots {
		if r.label == path[0] {
			base = r.path
			break
		}
	}
	if base == "" {
		l.log.Warn("unknown file browser root", "label", path[0])
		return nil, nil, nil
	}
	dir := filepath.Join(append([]string{base}, path[1:]...)...)

	entries, err := os.ReadDir(dir)
	if err != nil {
		l.log.Warn("cannot list dir", "dir", dir, "err", err)
		return nil, nil, nil
	}

	type file struct{ id, name string }
	var fileList []file
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if e.IsDir() {
			nested = append(nested, name)
			continue
		}
		if !l.wantFile(name) {
			continue
		}
		display := name
		if !l.showExtensions {
			display = strings.TrimSuffix(name, filepath.Ext(name))
		}
		fileList = append(fileList, file{id: filepath.Join(dir, name), name: display})
	}

	sort.Strings(nested)
	sort.Slice(fileList, func(i, j int) bool { return fileList[i].name < fileList[j].name })
	for _, f := range fileList {
		ids = append(ids, f.id)
		names = append(names, f.name)
	}
	return nested, ids, names
}

// wantFile checks the file's extension-derived mime type against the
// configured prefixes. No prefixes means everything passes.
func (l *Library) wantFile(name string) bool {
	if len(l.mimePrefixes) == 0 {
		return true
	}
	mt := mime.TypeByExtension(filepath.Ext(name))
	if mt == "" {
		return false
	}
	for _, prefix := range l.mimePrefixes {
		if strings.HasPrefix(mt, prefix) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
