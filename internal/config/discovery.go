package config

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/yuki-yano/vde-layout/internal/errors"
)

// DefaultPresetName is the preset applied when none is named.
const DefaultPresetName = "default"

// layoutFileNames in precedence order within one directory.
var layoutFileNames = []string{"layout.yml", "layout.yaml"}

// Store holds discovered presets as raw YAML values, keyed by preset name.
// Values stay untyped until compilation so key casing survives intact.
type Store struct {
	presets map[string]any
	sources map[string]string
}

// layoutDocument is the top-level shape of a layout file. Presets live under
// a presets mapping; a bare top-level layout is treated as the default
// preset.
type layoutDocument struct {
	Presets map[string]any `yaml:"presets"`
}

// SearchPaths returns candidate layout files, most specific first: the
// project .vde directory under the working directory, then the user config
// directory.
func SearchPaths(workDir string) []string {
	var paths []string
	for _, name := range layoutFileNames {
		paths = append(paths, filepath.Join(workDir, ".vde", name))
	}
	for _, name := range layoutFileNames {
		paths = append(paths, filepath.Join(ConfigDir(), name))
	}
	return paths
}

// Discover reads every existing layout file on the search paths and merges
// their presets, earlier paths winning per preset name.
func Discover(workDir string) (*Store, error) {
	store := &Store{
		presets: make(map[string]any),
		sources: make(map[string]string),
	}

	found := false
	for _, path := range SearchPaths(workDir) {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.New(errors.PresetParseError, "cannot read layout file").
				WithDetail("file", path).
				WithCause(err)
		}
		found = true
		if err := store.merge(path, data); err != nil {
			return nil, err
		}
	}

	if !found {
		return nil, errors.New(errors.ConfigNotFound, "no layout file found").
			WithDetail("searched", SearchPaths(workDir))
	}
	return store, nil
}

// merge adds the file's presets to the store without overwriting names
// already claimed by a more specific path.
func (s *Store) merge(path string, data []byte) error {
	var doc layoutDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.New(errors.PresetParseError, "layout file is not valid YAML").
			WithDetail("file", path).
			WithCause(err)
	}

	if doc.Presets == nil {
		// No presets mapping: the whole document is the default preset.
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil || raw == nil {
			return errors.New(errors.PresetInvalidDocument, "layout file root must be a mapping").
				WithDetail("file", path)
		}
		doc.Presets = map[string]any{DefaultPresetName: raw}
	}

	for name, value := range doc.Presets {
		if _, claimed := s.presets[name]; claimed {
			continue
		}
		s.presets[name] = value
		s.sources[name] = path
	}
	return nil
}

// Names returns all preset names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.presets))
	for name := range s.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the raw value of a named preset and the file it came from.
func (s *Store) Resolve(name string) (any, string, error) {
	if name == "" {
		name = DefaultPresetName
	}
	value, ok := s.presets[name]
	if !ok {
		return nil, "", errors.Newf(errors.PresetNotFound, "preset %q is not defined", name).
			WithDetail("available", s.Names())
	}
	return value, s.sources[name], nil
}

// Source returns the file a preset was loaded from.
func (s *Store) Source(name string) string {
	return s.sources[name]
}
