// Package library stores named transform sets and persists them as text.
//
// A [Library] is an ordered list of entries, each a fractal name with its
// transform rows. Order is preserved on load, on save and when listing, so the
// file a user edits by hand round-trips unchanged apart from number
// formatting.
//
// The built-in presets are available through [Default]; [Load] reads a user
// library from disk and [Library.Save] writes it back atomically.
package library

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
	"github.com/matzehuels/chaosgame/pkg/ifs"
)

// AutoPrefix prefixes names generated by [Library.AddAuto].
const AutoPrefix = "newTransf"

//go:embed presets.txt
var presets []byte

// Entry is one named transform set.
type Entry struct {
	Name string      `json:"name"`
	Rows [][]float64 `json:"rows"`
}

// TransformSet validates the entry's rows and builds a sampling set.
func (e Entry) TransformSet() (*ifs.TransformSet, error) {
	set, err := ifs.NewTransformSet(e.Rows)
	if err != nil {
		return nil, errs.Wrap(errs.GetCode(err), err, "fractal %q", e.Name)
	}
	return set, nil
}

// Library is an ordered collection of entries with unique names.
// It is not safe for concurrent mutation.
type Library struct {
	entries []Entry
	index   map[string]int
}

// New returns an empty library.
func New() *Library {
	return &Library{index: make(map[string]int)}
}

// Default returns a fresh copy of the built-in presets.
func Default() *Library {
	lib, err := Read(bytes.NewReader(presets))
	if err != nil {
		panic(fmt.Sprintf("library: invalid embedded presets: %v", err))
	}
	return lib
}

// Load reads a library file. A missing file yields ErrCodeFileNotFound.
func Load(path string) (*Library, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "library %s", path)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "open library")
	}
	defer f.Close()

	lib, err := Read(f)
	if err != nil {
		return nil, errs.Wrap(errs.GetCode(err), err, "%s", path)
	}
	return lib, nil
}

// LoadOrDefault reads path, falling back to [Default] when the file does not
// exist yet.
func LoadOrDefault(path string) (*Library, error) {
	lib, err := Load(path)
	if errs.Is(err, errs.ErrCodeFileNotFound) {
		return Default(), nil
	}
	return lib, err
}

// Save writes the library to path, replacing the file atomically.
func (l *Library) Save(path string) error {
	if err := errs.ValidatePath(path); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "create library dir")
	}

	tmp, err := os.CreateTemp(dir, ".library-*")
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if err := l.Write(tmp); err != nil {
		tmp.Close()
		return errs.Wrap(errs.ErrCodeInternal, err, "write library")
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "write library")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "replace library")
	}
	return nil
}

// Len returns the number of entries.
func (l *Library) Len() int { return len(l.entries) }

// Names returns entry names in library order.
func (l *Library) Names() []string {
	names := make([]string, len(l.entries))
	for i, e := range l.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of all entries in library order.
func (l *Library) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = Entry{Name: e.Name, Rows: cloneRows(e.Rows)}
	}
	return out
}

// Get returns the entry called name.
func (l *Library) Get(name string) (Entry, bool) {
	i, ok := l.index[name]
	if !ok {
		return Entry{}, false
	}
	e := l.entries[i]
	return Entry{Name: e.Name, Rows: cloneRows(e.Rows)}, true
}

// Lookup returns the entry called name or an ErrCodeNotFound error.
func (l *Library) Lookup(name string) (Entry, error) {
	e, ok := l.Get(name)
	if !ok {
		return Entry{}, errs.New(errs.ErrCodeNotFound, "fractal %q not found", name)
	}
	return e, nil
}

// Set stores rows under name, replacing an existing entry in place or
// appending a new one.
func (l *Library) Set(name string, rows [][]float64) {
	if i, ok := l.index[name]; ok {
		l.entries[i].Rows = cloneRows(rows)
		return
	}
	l.index[name] = len(l.entries)
	l.entries = append(l.entries, Entry{Name: name, Rows: cloneRows(rows)})
}

// Add appends a new entry after validating its name and rows.
func (l *Library) Add(name string, rows [][]float64) error {
	if err := errs.ValidateFractalName(name); err != nil {
		return err
	}
	if _, ok := l.index[name]; ok {
		return errs.New(errs.ErrCodeDuplicate, "fractal %q already exists", name)
	}
	if _, err := ifs.NewTransformSet(rows); err != nil {
		return err
	}
	l.Set(name, rows)
	return nil
}

// AddAuto adds rows under the next free generated name and returns it.
// Names are AutoPrefix followed by the entry count, skipping taken ones.
func (l *Library) AddAuto(rows [][]float64) (string, error) {
	n := len(l.entries)
	name := fmt.Sprintf("%s%d", AutoPrefix, n)
	for {
		if _, ok := l.index[name]; !ok {
			break
		}
		n++
		name = fmt.Sprintf("%s%d", AutoPrefix, n)
	}
	if err := l.Add(name, rows); err != nil {
		return "", err
	}
	return name, nil
}

// Remove deletes the entry called name and reports whether it existed.
func (l *Library) Remove(name string) bool {
	i, ok := l.index[name]
	if !ok {
		return false
	}
	l.entries = slices.Delete(l.entries, i, i+1)
	delete(l.index, name)
	for j := i; j < len(l.entries); j++ {
		l.index[l.entries[j].Name] = j
	}
	return true
}

func cloneRows(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}
