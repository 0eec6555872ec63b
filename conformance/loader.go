package conformance

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadDir walks dir and loads every *.yaml, *.yml and *.json file. Fixtures
// are returned in file order, files sorted by path.
func LoadDir(dir string) ([]Fixture, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %s", dir)
	}
	sort.Strings(files)

	var loaded []Fixture
	for _, path := range files {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		fixtures, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for i := range fixtures {
			fixtures[i].File = filepath.ToSlash(rel)
		}
		loaded = append(loaded, fixtures...)
	}
	return loaded, nil
}

// LoadFile loads one fixture file
func LoadFile(path string) ([]Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read fixture file")
	}
	fixtures, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i := range fixtures {
		if fixtures[i].Name == "" {
			fixtures[i].Name = fmt.Sprintf("%s#%d", base, i+1)
		}
		fixtures[i].File = path
	}
	return fixtures, nil
}

// Parse decodes fixtures from YAML or JSON. A document holds a single
// fixture or a sequence of them; a file may hold several documents.
func Parse(data []byte) ([]Fixture, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var out []Fixture
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		root := &doc
		if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
			root = root.Content[0]
		}
		switch root.Kind {
		case yaml.SequenceNode:
			var fixtures []Fixture
			if err := root.Decode(&fixtures); err != nil {
				return nil, err
			}
			out = append(out, fixtures...)
		case yaml.MappingNode:
			var f Fixture
			if err := root.Decode(&f); err != nil {
				return nil, err
			}
			out = append(out, f)
		default:
			return nil, fmt.Errorf("line %d: expected a fixture or a list of fixtures", root.Line)
		}
	}
	for i, f := range out {
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("fixture %d %q: %w", i+1, f.Name, err)
		}
	}
	return out, nil
}

func (f Fixture) validate() error {
	if strings.TrimSpace(f.Expression) == "" {
		return errors.New("missing expression")
	}
	if f.ReturnValue != nil && f.FailsWithException != nil {
		return errors.New("returnValue and failsWithException are exclusive")
	}
	if f.ReturnValue != nil {
		if _, _, err := f.ReturnValue.Decode(); err != nil {
			return errors.Wrap(err, "returnValue")
		}
	}
	for _, lists := range [][]Variable{f.VariableListBefore, f.VariableListAfter} {
		for _, v := range lists {
			if _, _, err := v.Decode(); err != nil {
				return err
			}
		}
	}
	return nil
}
