package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
	"github.com/matzehuels/chaosgame/pkg/library"
)

var (
	pickSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	pickDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// pickModel is the bubbletea model for choosing a library entry.
type pickModel struct {
	entries  []library.Entry
	cursor   int
	offset   int
	height   int
	selected *library.Entry
}

func newPickModel(entries []library.Entry) pickModel {
	return pickModel{entries: entries, height: 15}
}

func (m pickModel) Init() tea.Cmd { return nil }

func (m pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			if len(m.entries) == 0 {
				return m, tea.Quit
			}
			e := m.entries[m.cursor]
			m.selected = &e
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 3)
	}
	return m, nil
}

func (m pickModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Select Fractal"))
	b.WriteString("\n")
	b.WriteString(pickDimStyle.Render("↑/↓ navigate  ⏎ generate  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.entries))
	t := newTable("", "Name", "Maps", "Weights")
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		cursor := " "
		if i == m.cursor {
			cursor = "▸"
		}
		t.Row(cursor, e.Name, strconv.Itoa(len(e.Rows)), weightSummary(e.Rows))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row < 0 {
			return styleTableHeader.Padding(0, 1)
		}
		if m.offset+row == m.cursor {
			return pickSelectedStyle.Padding(0, 1)
		}
		return styleTableCell
	})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(pickDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.entries))))
	return b.String()
}

// weightSummary lists the raw weights of rows, e.g. "0.01 0.85 0.07 0.07".
func weightSummary(rows [][]float64) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = strconv.FormatFloat(r[len(r)-1], 'g', 3, 64)
	}
	s := strings.Join(parts, " ")
	if len(s) > 32 {
		s = s[:31] + "…"
	}
	return s
}

func (c *CLI) pickCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Choose a library fractal interactively and generate it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := library.LoadOrDefault(c.config.Library)
			if err != nil {
				return err
			}
			if lib.Len() == 0 {
				return errs.New(errs.ErrCodeNotFound, "the library is empty")
			}

			final, err := tea.NewProgram(newPickModel(lib.Entries()), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return fmt.Errorf("picker: %w", err)
			}
			m, ok := final.(pickModel)
			if !ok || m.selected == nil {
				printInfo("Nothing selected")
				return nil
			}
			return c.runGenerate(cmd, m.selected.Name, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, json (comma-separated)")
	f.StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the persistent cache")
	return cmd
}
