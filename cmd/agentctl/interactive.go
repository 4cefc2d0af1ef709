package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vladymyr/antiagent/agent"
	"github.com/vladymyr/antiagent/classfile"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	methodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	rewrittenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	keptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type inspectModel struct {
	err      error
	files    []string
	target   agent.TargetMethod
	self     string
	rows     []methodRow
	filter   textinput.Model
	selected int
	state    inspectState
}

type methodRow struct {
	file      string
	class     string
	name      string
	desc      string
	before    []classfile.Instruction
	after     []classfile.Instruction
	rewritten bool
}

type inspectState int

const (
	stateSelectMethod inspectState = iota
	stateFilter
	stateShowDetail
)

func newInspectModel(files []string, target agent.TargetMethod, self string) *inspectModel {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "
	ti.Width = 40
	return &inspectModel{
		files:  files,
		target: target,
		self:   self,
		filter: ti,
		state:  stateSelectMethod,
	}
}

type packsLoadedMsg struct {
	err  error
	rows []methodRow
}

func (m *inspectModel) Init() tea.Cmd {
	return m.loadPacks
}

// loadPacks runs the full rewrite on every pack and records per-method
// before/after bodies so the view can show what the cleaners would do.
func (m *inspectModel) loadPacks() tea.Msg {
	codec := classfile.NewClasspackCodec()
	eng := agent.New(agent.Config{
		Transformers: cleaners(m.target, m.self),
		Codec:        codec,
	})

	var rows []methodRow
	for _, path := range m.files {
		before, data, err := loadPack(codec, path)
		if err != nil {
			return packsLoadedMsg{err: err}
		}

		after := before
		out, err := eng.Transform("agentctl", before.Name, offlineIdentity(before), data)
		if err != nil {
			return packsLoadedMsg{err: fmt.Errorf("transform %s: %w", path, err)}
		}
		if out != nil {
			after, err = codec.Decode(out)
			if err != nil {
				return packsLoadedMsg{err: fmt.Errorf("decode rewritten %s: %w", path, err)}
			}
		}

		for _, bm := range before.Methods {
			row := methodRow{
				file:   path,
				class:  before.Name,
				name:   bm.Name,
				desc:   bm.Desc,
				before: bm.Code,
			}
			if am := after.FindMethod(bm.Name, bm.Desc); am != nil {
				row.after = am.Code
				row.rewritten = !sameCode(bm.Code, am.Code)
			}
			rows = append(rows, row)
		}
	}
	return packsLoadedMsg{rows: rows}
}

func sameCode(a, b []classfile.Instruction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if formatInsn(a[i]) != formatInsn(b[i]) {
			return false
		}
	}
	return true
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateFilter {
			switch msg.String() {
			case "enter", "esc":
				m.filter.Blur()
				m.state = stateSelectMethod
				m.selected = 0
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.selected = 0
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectMethod && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectMethod && m.selected < len(m.visibleRows())-1 {
				m.selected++
			}

		case "/":
			if m.state == stateSelectMethod {
				m.state = stateFilter
				return m, m.filter.Focus()
			}

		case "enter":
			if m.state == stateSelectMethod && len(m.visibleRows()) > 0 {
				m.state = stateShowDetail
			}

		case "esc":
			if m.state == stateShowDetail {
				m.state = stateSelectMethod
			}
		}

	case packsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rows = msg.rows
	}

	return m, nil
}

func (m *inspectModel) visibleRows() []methodRow {
	query := strings.ToLower(m.filter.Value())
	if query == "" {
		return m.rows
	}
	var out []methodRow
	for _, r := range m.rows {
		if strings.Contains(strings.ToLower(r.class+"."+r.name+r.desc), query) {
			out = append(out, r)
		}
	}
	return out
}

func (m *inspectModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if len(m.rows) == 0 {
		return "Loading classpacks..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Agent Inspector"))
	b.WriteString(" ")
	b.WriteString(strings.Join(m.files, " "))
	b.WriteString("\n\n")

	rows := m.visibleRows()

	switch m.state {
	case stateSelectMethod, stateFilter:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		for i, r := range rows {
			line := m.formatRow(r)
			if i == m.selected && m.state == stateSelectMethod {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		if len(rows) == 0 {
			b.WriteString(helpStyle.Render("no methods match"))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateFilter {
			b.WriteString(helpStyle.Render("enter apply • esc cancel"))
		} else {
			b.WriteString(helpStyle.Render("↑/↓ select • enter inspect • / filter • q quit"))
		}

	case stateShowDetail:
		r := rows[m.selected]
		b.WriteString(fmt.Sprintf("%s.%s%s\n\n", r.class, methodStyle.Render(r.name), descStyle.Render(r.desc)))
		if r.rewritten {
			b.WriteString(rewrittenStyle.Render("rewritten"))
		} else {
			b.WriteString(keptStyle.Render("unchanged"))
		}
		b.WriteString("\n\nbefore:\n")
		writeCode(&b, r.before)
		if r.rewritten {
			b.WriteString("\nafter:\n")
			writeCode(&b, r.after)
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • q quit"))
	}

	return b.String()
}

func (m *inspectModel) formatRow(r methodRow) string {
	mark := keptStyle.Render("  keep   ")
	if r.rewritten {
		mark = rewrittenStyle.Render("  clean  ")
	}
	return mark + r.class + "." + methodStyle.Render(r.name) + descStyle.Render(r.desc)
}

func writeCode(b *strings.Builder, code []classfile.Instruction) {
	for i, insn := range code {
		fmt.Fprintf(b, "  %3d: %s\n", i, formatInsn(insn))
	}
	if len(code) == 0 {
		b.WriteString("  (empty)\n")
	}
}

func formatInsn(insn classfile.Instruction) string {
	op := fmt.Sprintf("0x%02x", insn.Opcode)
	switch imm := insn.Imm.(type) {
	case nil:
		return op
	case classfile.MemberImm:
		return fmt.Sprintf("%s %s.%s%s", op, imm.Owner, imm.Name, imm.Desc)
	case classfile.InvokeDynamicImm:
		return fmt.Sprintf("%s indy %s%s bootstrap=%s.%s", op, imm.Name, imm.Desc, imm.Bootstrap.Owner, imm.Bootstrap.Name)
	case classfile.VarImm:
		return fmt.Sprintf("%s slot=%d", op, imm.Index)
	case classfile.IntImm:
		return fmt.Sprintf("%s %d", op, imm.Value)
	case classfile.LdcImm:
		return fmt.Sprintf("%s ldc %v", op, imm.Const)
	case classfile.TypeImm:
		return fmt.Sprintf("%s %s", op, imm.Name)
	case classfile.BranchImm:
		return fmt.Sprintf("%s -> %d", op, imm.Target)
	case classfile.IincImm:
		return fmt.Sprintf("%s slot=%d by=%d", op, imm.Index, imm.Delta)
	default:
		return fmt.Sprintf("%s %v", op, imm)
	}
}

func runInteractive(files []string, target agent.TargetMethod, self string) error {
	p := tea.NewProgram(newInspectModel(files, target, self), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
