// Package tui renders the forecast form in a terminal with bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kalambet/m5front/internal/view"
)

// Focus positions: the three fields, then the submit button.
const (
	focusItem = iota
	focusStore
	focusDate
	focusSubmit
)

var fieldOrder = [...]string{view.FieldItem, view.FieldStore, view.FieldDate}

// optionsMsg delivers the outcome of the mount-time option load.
type optionsMsg struct {
	event view.Event
}

// settledMsg delivers the outcome of a submission.
type settledMsg struct {
	event view.Event
}

// Model is the bubbletea model of the form. All state transitions go through
// view.Reduce; the widgets only mirror view.State.
type Model struct {
	ctx       context.Context
	predictor view.Predictor
	options   view.OptionSource

	state   view.State
	inputs  [3]textinput.Model
	focus   int
	spinner spinner.Model
	styles  Styles
}

// New builds the model of a freshly mounted form. options may be nil.
func New(ctx context.Context, mode view.InputMode, p view.Predictor, options view.OptionSource) Model {
	styles := DefaultStyles()

	placeholders := [3]string{"Ej: HOBBIES_1_001", "Ej: CA_1", "AAAA-MM-DD"}
	var inputs [3]textinput.Model
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.Prompt = "│ "
		ti.CharLimit = 64
		ti.Width = 32
		inputs[i] = ti
	}
	inputs[focusItem].Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Focused

	return Model{
		ctx:       ctx,
		predictor: p,
		options:   options,
		state:     view.New(mode),
		inputs:    inputs,
		focus:     focusItem,
		spinner:   sp,
		styles:    styles,
	}
}

// State returns the current view state.
func (m Model) State() view.State {
	return m.state
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.state.Mode == view.ModeSelect && m.options != nil {
		cmds = append(cmds, loadOptions(m.ctx, m.options))
	}
	return tea.Batch(cmds...)
}

func loadOptions(ctx context.Context, src view.OptionSource) tea.Cmd {
	return func() tea.Msg {
		return optionsMsg{event: view.OptionsEvent(ctx, src)}
	}
}

func settle(ctx context.Context, p view.Predictor, f view.FormState) tea.Cmd {
	return func() tea.Msg {
		return settledMsg{event: view.Settle(ctx, p, f)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		width := msg.Width - 8
		if width < 16 {
			width = 16
		}
		for i := range m.inputs {
			m.inputs[i].Width = width
		}
		return m, nil

	case optionsMsg:
		m.state = view.Reduce(m.state, msg.event)
		m.syncInputs()
		return m, nil

	case settledMsg:
		m.state = view.Reduce(m.state, msg.event)
		return m, nil

	case spinner.TickMsg:
		if m.state.Busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m.updateFocusedInput(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "tab", "down":
		return m.setFocus((m.focus + 1) % (focusSubmit + 1))

	case "shift+tab", "up":
		return m.setFocus((m.focus + focusSubmit) % (focusSubmit + 1))

	case "left", "right":
		if m.focus < focusDate && m.state.UseSelect(fieldOrder[m.focus]) {
			step := 1
			if msg.String() == "left" {
				step = -1
			}
			m.cycleOption(step)
			return m, nil
		}

	case "enter":
		if m.focus == focusSubmit {
			return m.submit()
		}
		return m.setFocus(m.focus + 1)
	}

	return m.updateFocusedInput(msg)
}

// updateFocusedInput forwards msg to the focused text input and mirrors the
// resulting value into the view state.
func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus >= focusSubmit || m.state.UseSelect(fieldOrder[m.focus]) {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	m.state = view.Reduce(m.state, view.FieldChanged{
		Field: fieldOrder[m.focus],
		Value: strings.TrimSpace(m.inputs[m.focus].Value()),
	})
	return m, cmd
}

func (m Model) setFocus(focus int) (tea.Model, tea.Cmd) {
	m.focus = focus
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == focus {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return m, cmd
}

func (m *Model) cycleOption(step int) {
	field := fieldOrder[m.focus]
	list, current := m.state.Options.Items, m.state.Form.ItemID
	if field == view.FieldStore {
		list, current = m.state.Options.Stores, m.state.Form.StoreID
	}

	idx := indexOf(list, current)
	idx = (idx + step + len(list)) % len(list)
	m.state = view.Reduce(m.state, view.FieldChanged{Field: field, Value: list[idx]})
	m.inputs[m.focus].SetValue(list[idx])
}

func (m *Model) syncInputs() {
	m.inputs[focusItem].SetValue(m.state.Form.ItemID)
	m.inputs[focusStore].SetValue(m.state.Form.StoreID)
	m.inputs[focusDate].SetValue(m.state.Form.Date)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	next, ok := view.Begin(m.state)
	m.state = next
	if !ok {
		return m, nil
	}
	return m, tea.Batch(m.spinner.Tick, settle(m.ctx, m.predictor, m.state.Form))
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return 0
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("M5 Sales Predictor"))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render("Pronóstico de demanda basado en LightGBM"))
	b.WriteString("\n\n")

	labels := [3]string{"ID del Artículo", "ID de la Tienda", "Fecha de Predicción"}
	for i, label := range labels {
		style := m.styles.Label
		if m.focus == i {
			style = m.styles.Focused
		}
		b.WriteString(style.Render(label))
		b.WriteString("\n")
		b.WriteString(m.fieldView(i))
		b.WriteString("\n\n")
	}

	switch {
	case m.state.Busy:
		b.WriteString(m.styles.ButtonBusy.Render(m.spinner.View() + " Obteniendo predicción..."))
	case m.focus == focusSubmit:
		b.WriteString(m.styles.Button.Render("▶ Obtener Predicción"))
	default:
		b.WriteString(m.styles.ButtonBusy.Render("▶ Obtener Predicción"))
	}
	b.WriteString("\n\n")

	switch m.state.Panel() {
	case view.PanelError:
		b.WriteString(m.styles.Error.Render(m.state.Err))
		b.WriteString("\n\n")
	case view.PanelResult:
		b.WriteString(m.styles.Result.Render(
			m.styles.Caption.Render("DEMANDA ESTIMADA") + "\n" +
				m.state.ResultText() + " probabilidad de compra"))
		b.WriteString("\n\n")
	}

	b.WriteString(m.styles.Help.Render("tab/↑↓ moverse • ←→ elegir opción • enter confirmar • esc salir"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) fieldView(i int) string {
	field := fieldOrder[i]
	if !m.state.UseSelect(field) {
		return m.inputs[i].View()
	}

	list, current := m.state.Options.Items, m.state.Form.ItemID
	if field == view.FieldStore {
		list, current = m.state.Options.Stores, m.state.Form.StoreID
	}
	return m.styles.Choice.Render(fmt.Sprintf("◀ %s ▶  (%d/%d)", current, indexOf(list, current)+1, len(list)))
}

// Run starts the interactive form and blocks until the user quits. It
// returns the last view state.
func Run(ctx context.Context, mode view.InputMode, p view.Predictor, options view.OptionSource) (view.State, error) {
	prog := tea.NewProgram(New(ctx, mode, p, options), tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return view.State{}, fmt.Errorf("running terminal form: %w", err)
	}
	return final.(Model).State(), nil
}
