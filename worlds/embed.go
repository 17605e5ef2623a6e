// Package worlds ships the sample world files and controller scripts. Files
// under a worlds/ directory on disk take precedence over the embedded copies.
package worlds

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Dir is the disk directory checked before the embedded files.
const Dir = "worlds"

const ext = ".world"

//go:embed *.world
var WorldsFS embed.FS

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

// Load returns a world file by name. The .world extension is optional.
func Load(name string) ([]byte, error) {
	clean := cleanWorldPath(name)
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	data, err := WorldsFS.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("worlds: load %s: %w", name, err)
	}
	return data, nil
}

// LoadScript returns a controller script, accepting "pd.tengo",
// "scripts/pd.tengo" and "worlds/scripts/pd.tengo" alike.
func LoadScript(name string) ([]byte, error) {
	clean := cleanScriptPath(name)
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	data, err := ScriptsFS.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("worlds: load script %s: %w", name, err)
	}
	return data, nil
}

// Names lists the embedded worlds without extension.
func Names() []string {
	entries, err := fs.Glob(WorldsFS, "*"+ext)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e, ext))
	}
	sort.Strings(names)
	return names
}

// ModTime reports the modification time of a disk override.
func ModTime(name string) (time.Time, bool) {
	info, err := os.Stat(diskPath(cleanWorldPath(name)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// IsFile reports whether name refers to a file outside the worlds set, such
// as an absolute path or one with a directory other than worlds/.
func IsFile(name string) bool {
	s := filepath.ToSlash(name)
	if filepath.IsAbs(name) {
		return true
	}
	if strings.HasPrefix(s, Dir+"/") {
		return false
	}
	return strings.Contains(s, "/")
}

func cleanWorldPath(name string) string {
	if name == "" {
		return ""
	}
	s := filepath.ToSlash(name)
	s = strings.TrimPrefix(s, Dir+"/")
	if path.Ext(s) == "" {
		s += ext
	}
	return s
}

func cleanScriptPath(name string) string {
	if name == "" {
		return ""
	}
	s := filepath.ToSlash(name)
	if after, ok := strings.CutPrefix(s, Dir+"/"); ok {
		s = after
	}
	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}
	return "scripts/" + s
}

func diskPath(clean string) string {
	return filepath.Join(Dir, filepath.FromSlash(clean))
}
