package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/druta"
	"github.com/wippyai/druta/exec"
	"github.com/wippyai/druta/transform"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	cmdStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	asyncStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C")).
			Bold(true)

	codeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// row is one flattened instruction.
type row struct {
	cmd   string
	text  string
	depth int
	async bool
}

// flattenCode lists every instruction depth-first with its nesting depth.
// Control instructions get a heading row and one labelled row per
// nested list.
func flattenCode(code exec.Code, depth int) []row {
	var rows []row
	for _, ins := range code {
		switch ins := ins.(type) {
		case *exec.Leaf:
			rows = append(rows, row{cmd: ins.Command, text: ins.Code, depth: depth, async: ins.Async})
		case *exec.If:
			rows = append(rows, row{cmd: ins.Command, text: ins.CondCode, depth: depth})
			rows = append(rows, section("then", ins.ThenCode, depth+1)...)
			rows = append(rows, section("else", ins.ElseCode, depth+1)...)
		case *exec.For:
			rows = append(rows, row{cmd: ins.Command, depth: depth})
			rows = append(rows, section("cond", ins.CondCode, depth+1)...)
			rows = append(rows, section("step", ins.StepCode, depth+1)...)
			rows = append(rows, section("body", ins.BodyCode, depth+1)...)
		case *exec.Defun:
			rows = append(rows, row{
				cmd:   ins.Command,
				text:  ins.Name + "(" + strings.Join(ins.Args, ", ") + ")",
				depth: depth,
			})
			rows = append(rows, flattenCode(ins.Code, depth+1)...)
		}
	}
	return rows
}

func section(label string, code exec.Code, depth int) []row {
	if len(code) == 0 {
		return nil
	}
	return append([]row{{cmd: label + ":", depth: depth}}, flattenCode(code, depth+1)...)
}

// filterRows keeps rows whose command or payload contains q.
func filterRows(rows []row, q string) []row {
	if q == "" {
		return rows
	}
	var out []row
	for _, r := range rows {
		if strings.Contains(r.cmd, q) || strings.Contains(r.text, q) {
			out = append(out, r)
		}
	}
	return out
}

type interactiveModel struct {
	err        error
	compiler   *druta.Compiler
	out        *transform.Output
	filename   string
	doc        []byte
	rows       []row
	visible    []row
	filter     textinput.Model
	selected   int
	height     int
	filtering  bool
	showSource bool
}

type compiledMsg struct {
	err error
	out *transform.Output
}

func newInteractiveModel(c *druta.Compiler, filename string, doc []byte) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "
	ti.Width = 40
	return &interactiveModel{
		compiler: c,
		filename: filename,
		doc:      doc,
		filter:   ti,
		height:   20,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.compile
}

func (m *interactiveModel) compile() tea.Msg {
	out, err := m.compiler.Compile(m.doc)
	return compiledMsg{out: out, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Height > 8 {
			m.height = msg.Height - 8
		}

	case compiledMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.out = msg.out
		m.rows = flattenCode(msg.out.Code, 0)
		m.visible = m.rows

	case tea.KeyMsg:
		if m.filtering {
			switch msg.String() {
			case "enter", "esc":
				m.filtering = false
				m.filter.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.visible = filterRows(m.rows, m.filter.Value())
			m.selected = 0
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.visible)-1 {
				m.selected++
			}

		case "/":
			m.filtering = true
			m.filter.Focus()
			return m, textinput.Blink

		case "s":
			m.showSource = !m.showSource

		case "esc":
			m.filter.SetValue("")
			m.visible = m.rows
			m.selected = 0
		}
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.out == nil {
		return "Compiling..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("druta"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString(fmt.Sprintf("  %d instructions, %d async, %d locals\n\n",
		m.out.Stats.Instructions, m.out.Stats.AsyncCalls, len(m.out.Locals)))

	if m.showSource {
		b.WriteString(codeStyle.Render(m.out.Source))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("s instructions • q quit"))
		return b.String()
	}

	start := 0
	if m.selected >= m.height {
		start = m.selected - m.height + 1
	}
	end := min(start+m.height, len(m.visible))
	for i := start; i < end; i++ {
		line := m.formatRow(m.visible[i])
		if i == m.selected {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.visible) == 0 {
		b.WriteString(helpStyle.Render("  no matching instructions"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ select • / filter • esc clear • s source • q quit"))
	return b.String()
}

func (m *interactiveModel) formatRow(r row) string {
	indent := strings.Repeat("  ", r.depth)
	cmd := cmdStyle.Render(r.cmd)
	if r.async {
		cmd = asyncStyle.Render(r.cmd + "*")
	}
	if r.text == "" {
		return indent + cmd
	}
	return indent + cmd + " " + codeStyle.Render(r.text)
}

func runInteractive(c *druta.Compiler, filename string, doc []byte) error {
	p := tea.NewProgram(newInteractiveModel(c, filename, doc), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
