package library

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
	"github.com/matzehuels/chaosgame/pkg/ifs"
)

// Field separators of the library file format.
//
// Each non-blank line holds one fractal:
//
//	name;a,b,c,d,e,f,w;a,b,c,d,e,f,w;...
const (
	entrySep = ";"
	valueSep = ","
)

// Read parses a library from r.
//
// Whitespace around names and numbers is ignored, as are blank lines and
// empty items between separators. A later line with an already seen name
// replaces that entry's rows but keeps its position.
func Read(r io.Reader) (*Library, error) {
	lib := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		name, rows, err := parseLine(line)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfiguration, err, "line %d", lineNo)
		}
		lib.Set(name, rows)
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "read library")
	}
	return lib, nil
}

// Write serializes the library to w, one entry per line, in library order.
func (l *Library) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range l.entries {
		bw.WriteString(e.Name)
		for _, row := range e.Rows {
			bw.WriteString(entrySep)
			bw.WriteString(FormatRow(row))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ParseRow parses one comma-separated transform row such as
// "0.85,0.04,0,-0.04,0.85,1.6,0.85".
func ParseRow(s string) ([]float64, error) {
	row, err := parseRow(s)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfiguration, err, "row %q", s)
	}
	return row, nil
}

// FormatRow renders a row in the form accepted by [ParseRow].
func FormatRow(row []float64) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, valueSep)
}

func parseLine(line string) (string, [][]float64, error) {
	fields := strings.Split(line, entrySep)
	name := strings.TrimSpace(fields[0])
	if err := errs.ValidateFractalName(name); err != nil {
		return "", nil, err
	}
	var rows [][]float64
	for _, f := range fields[1:] {
		if strings.TrimSpace(f) == "" {
			continue
		}
		row, err := parseRow(f)
		if err != nil {
			return "", nil, err
		}
		rows = append(rows, row)
	}
	return name, rows, nil
}

func parseRow(s string) ([]float64, error) {
	row := make([]float64, 0, ifs.RowLen)
	for _, item := range strings.Split(s, valueSep) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		v, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, errs.New(errs.ErrCodeInvalidConfiguration, "invalid number %q", item)
		}
		row = append(row, v)
	}
	if len(row) != ifs.RowLen {
		return nil, errs.New(errs.ErrCodeInvalidConfiguration, "row has %d values, want %d", len(row), ifs.RowLen)
	}
	return row, nil
}
