package library

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
)

func TestReadFormat(t *testing.T) {
	input := `
fern ; 0,0,0,0,0.16,0,0.01 ; 0.85, 0.04, 0, -0.04, 0.85, 1.6, 0.85

tri;0.5,0,0,0,0.5,0,1;0.5,0,0.5,,0,0.5,0,1;
`
	lib, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := lib.Names(); !slices.Equal(got, []string{"fern", "tri"}) {
		t.Fatalf("Names() = %v, want [fern tri]", got)
	}
	fern, _ := lib.Get("fern")
	if len(fern.Rows) != 2 || fern.Rows[1][5] != 1.6 {
		t.Errorf("fern rows = %v", fern.Rows)
	}
	tri, _ := lib.Get("tri")
	if len(tri.Rows) != 2 {
		t.Errorf("empty items and trailing separators should be ignored, rows = %v", tri.Rows)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  string
	}{
		{"bad number", "ok;1,0,0,0,1,0,1\nbad;1,0,x,0,1,0,1\n", "line 2"},
		{"short row", "short;1,0,0\n", "line 1"},
		{"long row", "long;1,0,0,0,1,0,1,9\n", "line 1"},
		{"empty name", ";1,0,0,0,1,0,1\n", "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errs.Is(err, errs.ErrCodeInvalidConfiguration) {
				t.Errorf("code = %s, want INVALID_CONFIGURATION", errs.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("error %q should mention %q", err, tt.line)
			}
		})
	}
}

func TestReadDuplicateKeepsPosition(t *testing.T) {
	input := "a;1,0,0,0,1,0,1\nb;1,0,0,0,1,0,1\na;0,0,2,0,0,2,1\n"
	lib, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := lib.Names(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Names() = %v, want [a b]", got)
	}
	a, _ := lib.Get("a")
	if a.Rows[0][2] != 2 {
		t.Errorf("later line should replace rows, got %v", a.Rows)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	lib := Default()
	var buf bytes.Buffer
	if err := lib.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	back, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !slices.Equal(back.Names(), lib.Names()) {
		t.Fatalf("names changed: %v -> %v", lib.Names(), back.Names())
	}
	for _, e := range lib.Entries() {
		got, _ := back.Get(e.Name)
		for i := range e.Rows {
			if !slices.Equal(got.Rows[i], e.Rows[i]) {
				t.Errorf("%s row %d: %v -> %v", e.Name, i, e.Rows[i], got.Rows[i])
			}
		}
	}
}

func TestWriteFormat(t *testing.T) {
	lib := New()
	lib.Set("x", [][]float64{{0.5, 0, -0.25, 0, 1e-7, 3, 1}})
	var buf bytes.Buffer
	if err := lib.Write(&buf); err != nil {
		t.Fatal(err)
	}
	want := "x;0.5,0,-0.25,0,1e-07,3,1\n"
	if buf.String() != want {
		t.Errorf("Write() = %q, want %q", buf.String(), want)
	}
}

func TestDefaultPresets(t *testing.T) {
	lib := Default()
	for _, name := range []string{"fern", "sierpinski", "carpet", "dragon", "maple", "tree"} {
		e, err := lib.Lookup(name)
		if err != nil {
			t.Errorf("preset %s: %v", name, err)
			continue
		}
		if _, err := e.TransformSet(); err != nil {
			t.Errorf("preset %s is not a valid set: %v", name, err)
		}
	}

	// Each call returns an independent copy.
	lib.Remove("fern")
	if _, ok := Default().Get("fern"); !ok {
		t.Error("Default() should not share state between calls")
	}
}

func TestAddValidation(t *testing.T) {
	lib := New()
	row := [][]float64{{0.5, 0, 0, 0, 0.5, 0, 1}}

	if err := lib.Add("a", row); err != nil {
		t.Fatalf("Add: %v", err)
	}
	tests := []struct {
		name string
		in   string
		rows [][]float64
		code errs.Code
	}{
		{"duplicate", "a", row, errs.ErrCodeDuplicate},
		{"bad name", "a;b", row, errs.ErrCodeInvalidName},
		{"bad rows", "c", [][]float64{{1, 2, 3}}, errs.ErrCodeInvalidConfiguration},
		{"no rows", "d", nil, errs.ErrCodeInvalidConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := lib.Add(tt.in, tt.rows)
			if !errs.Is(err, tt.code) {
				t.Errorf("Add(%q) error = %v, want code %s", tt.in, err, tt.code)
			}
		})
	}
	if lib.Len() != 1 {
		t.Errorf("failed adds should not change the library, Len() = %d", lib.Len())
	}
}

func TestAddAuto(t *testing.T) {
	lib := New()
	row := [][]float64{{0.5, 0, 0, 0, 0.5, 0, 1}}
	lib.Set("one", row)
	lib.Set("newTransf2", row)

	name, err := lib.AddAuto(row)
	if err != nil {
		t.Fatal(err)
	}
	if name != "newTransf3" {
		t.Errorf("AddAuto() = %q, want newTransf3 (newTransf2 is taken)", name)
	}
	name, _ = lib.AddAuto(row)
	if name != "newTransf4" {
		t.Errorf("AddAuto() = %q, want newTransf4", name)
	}
}

func TestRemoveReindexes(t *testing.T) {
	lib := New()
	row := [][]float64{{0.5, 0, 0, 0, 0.5, 0, 1}}
	for _, n := range []string{"a", "b", "c"} {
		lib.Set(n, row)
	}
	if !lib.Remove("a") {
		t.Fatal("Remove(a) should report true")
	}
	if lib.Remove("a") {
		t.Error("second Remove(a) should report false")
	}
	lib.Set("c", [][]float64{{0, 0, 9, 0, 0, 9, 1}})
	if got := lib.Names(); !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("Names() = %v, want [b c]", got)
	}
	c, _ := lib.Get("c")
	if c.Rows[0][2] != 9 {
		t.Errorf("Set after Remove updated the wrong entry: %v", c.Rows)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	lib := New()
	lib.Set("a", [][]float64{{0.5, 0, 0, 0, 0.5, 0, 1}})
	e, _ := lib.Get("a")
	e.Rows[0][0] = 99
	again, _ := lib.Get("a")
	if again.Rows[0][0] != 0.5 {
		t.Error("mutating a returned entry changed the library")
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "fractals.txt")

	lib := Default()
	if _, err := lib.AddAuto([][]float64{{0.5, 0, 0, 0, 0.5, 0, 1}}); err != nil {
		t.Fatal(err)
	}
	if err := lib.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !slices.Equal(back.Names(), lib.Names()) {
		t.Errorf("Load() names = %v, want %v", back.Names(), lib.Names())
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Save left temp files behind: %d entries", len(entries))
	}
}

func TestLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")
	if _, err := Load(path); !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
	lib, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if lib.Len() != Default().Len() {
		t.Error("LoadOrDefault should fall back to the presets")
	}
}

func TestParseRow(t *testing.T) {
	row, err := ParseRow(" 0.85, 0.04, 0, -0.04, 0.85, 1.6, 0.85 ")
	if err != nil {
		t.Fatalf("ParseRow: %v", err)
	}
	if FormatRow(row) != "0.85,0.04,0,-0.04,0.85,1.6,0.85" {
		t.Errorf("FormatRow() = %q", FormatRow(row))
	}
	if _, err := ParseRow("1,2"); !errs.Is(err, errs.ErrCodeInvalidConfiguration) {
		t.Errorf("ParseRow(short) error = %v", err)
	}
}

func TestNameWithInnerSpaceRoundTrips(t *testing.T) {
	lib := New()
	if err := lib.Add("barnsley fern", [][]float64{{0.5, 0, 0, 0, 0.5, 0, 1}}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	lib.Write(&buf)
	back, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := back.Get("barnsley fern"); !ok {
		t.Errorf("Names() after round trip = %v", back.Names())
	}
}
