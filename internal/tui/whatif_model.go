package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/bytecarbon/internal/footprint"
	"github.com/rshade/bytecarbon/internal/survey"
)

// WhatIfState is the current mode of the what-if editor.
type WhatIfState int

const (
	// WhatIfStateBrowsing moves between rows.
	WhatIfStateBrowsing WhatIfState = iota
	// WhatIfStateEditing routes keys to the text input.
	WhatIfStateEditing
	// WhatIfStateQuitting indicates the program is exiting.
	WhatIfStateQuitting
)

const (
	keyCtrlC = "ctrl+c"
	keyQuit  = "q"
	keyEnter = "enter"
	keyEsc   = "esc"
	keyUp    = "up"
	keyDown  = "down"
	keyK     = "k"
	keyJ     = "j"
	keyReset = "r"

	inputCharLimit = 64
	inputWidth     = fieldValueWidth
)

// standardFields are the answers every form can carry, in display order.
// Each entry is an alias group; the row uses whichever alias the response
// already has, or the first.
//
//nolint:gochecknoglobals // Read-only field table.
var standardFields = [][]string{
	survey.FieldNoDevices,
	survey.FieldRenewableEnergy,
	survey.FieldChargingHabit,
	survey.FieldAcademicStreaming,
	survey.FieldEntertainmentStreaming,
	survey.FieldStreamingQuality,
	survey.FieldCloudUsage,
	survey.FieldBulkTransfer,
	survey.FieldAIInteractions,
	survey.FieldAISessionLength,
	survey.FieldAIType,
}

// FieldRow is one editable answer.
type FieldRow struct {
	Key           string
	OriginalValue string
	CurrentValue  string
	// DeltaKg is the change in total if only this row were modified.
	DeltaKg float64
}

// Changed reports whether the row differs from the original answer.
func (r FieldRow) Changed() bool {
	return r.CurrentValue != r.OriginalValue
}

// WhatIfModel is the Bubble Tea model for interactive footprint editing.
// Every committed edit recomputes the breakdown synchronously.
type WhatIfModel struct {
	original survey.Response
	current  survey.Response
	factors  footprint.Factors

	rows       []FieldRow
	focusedRow int
	input      textinput.Model

	baseline footprint.Breakdown
	modified footprint.Breakdown

	state  WhatIfState
	width  int
	height int
}

// NewWhatIfModel creates an editor over a copy of resp.
func NewWhatIfModel(resp survey.Response, f footprint.Factors) *WhatIfModel {
	if resp == nil {
		resp = survey.Response{}
	}

	m := &WhatIfModel{
		original: resp.Clone(),
		current:  resp.Clone(),
		factors:  f,
		input:    newTextInput(),
		state:    WhatIfStateBrowsing,
	}
	m.baseline = footprint.Calculate(m.original, f)
	m.modified = m.baseline
	m.rows = buildRows(m.original)
	return m
}

func newTextInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = inputCharLimit
	ti.Width = inputWidth
	return ti
}

// buildRows lists the standard answers followed by every per-device field
// present in the response.
func buildRows(r survey.Response) []FieldRow {
	rows := make([]FieldRow, 0, len(standardFields)+len(r))
	for _, aliases := range standardFields {
		key := aliases[0]
		for _, alias := range aliases {
			if r.Has(alias) {
				key = alias
				break
			}
		}
		rows = append(rows, newFieldRow(r, key))
	}

	for _, d := range survey.Devices(r) {
		rows = append(rows,
			newFieldRow(r, d.Category+"Count"),
			newFieldRow(r, d.Category+"Hours"))
		if age := d.Category + "Age"; r.Has(age) {
			rows = append(rows, newFieldRow(r, age))
		}
	}
	return rows
}

func newFieldRow(r survey.Response, key string) FieldRow {
	v := formatAnswer(r, key)
	return FieldRow{Key: key, OriginalValue: v, CurrentValue: v}
}

func formatAnswer(r survey.Response, key string) string {
	v, ok := r.Lookup(key)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Init initializes the model.
func (m *WhatIfModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m *WhatIfModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.state == WhatIfStateEditing {
			return m.handleEditKey(msg)
		}
		return m.handleBrowseKey(msg)
	}

	if m.state == WhatIfStateEditing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *WhatIfModel) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyCtrlC, keyQuit:
		m.state = WhatIfStateQuitting
		return m, tea.Quit

	case keyUp, keyK:
		if m.focusedRow > 0 {
			m.focusedRow--
		}

	case keyDown, keyJ:
		if m.focusedRow < len(m.rows)-1 {
			m.focusedRow++
		}

	case keyEnter:
		if m.focusedRow < len(m.rows) {
			m.state = WhatIfStateEditing
			m.input.SetValue(m.rows[m.focusedRow].CurrentValue)
			m.input.CursorEnd()
			return m, m.input.Focus()
		}

	case keyReset:
		if m.focusedRow < len(m.rows) {
			m.commit(m.focusedRow, m.rows[m.focusedRow].OriginalValue)
		}
	}
	return m, nil
}

func (m *WhatIfModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyCtrlC:
		m.state = WhatIfStateQuitting
		return m, tea.Quit

	case keyEnter:
		m.commit(m.focusedRow, m.input.Value())
		m.stopEditing()
		return m, nil

	case keyEsc:
		m.stopEditing()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *WhatIfModel) stopEditing() {
	m.input.Blur()
	m.input.SetValue("")
	m.state = WhatIfStateBrowsing
}

// commit applies text to the row and recomputes the breakdown.
func (m *WhatIfModel) commit(row int, text string) {
	r := &m.rows[row]
	text = strings.TrimSpace(text)
	if text == r.OriginalValue {
		r.CurrentValue = r.OriginalValue
		if orig, ok := m.original.Lookup(r.Key); ok {
			m.current.Set(r.Key, orig)
		} else {
			delete(m.current, r.Key)
		}
	} else {
		r.CurrentValue = text
		m.current.Apply(r.Key, text)
	}
	m.recalculate()
}

func (m *WhatIfModel) recalculate() {
	m.modified = footprint.Calculate(m.current, m.factors)

	for i := range m.rows {
		row := &m.rows[i]
		row.DeltaKg = 0
		if !row.Changed() {
			continue
		}
		single := m.original.Clone()
		single.Apply(row.Key, row.CurrentValue)
		row.DeltaKg = footprint.Calculate(single, m.factors).TotalKg - m.baseline.TotalKg
	}
}

// View renders the current view.
func (m *WhatIfModel) View() string {
	if m.state == WhatIfStateQuitting {
		return ""
	}

	editing := m.state == WhatIfStateEditing

	var sb strings.Builder
	sb.WriteString(RenderWhatIfHeader(survey.CityState(m.current)))
	sb.WriteString("\n\n")
	sb.WriteString(RenderBreakdownComparison(m.baseline, m.modified))
	sb.WriteString("\n\n")
	sb.WriteString(RenderFieldTable(m.rows, m.focusedRow, editing, m.input.View()))
	sb.WriteString("\n")
	sb.WriteString(RenderWhatIfHelp(editing))
	return sb.String()
}

// State returns the current mode.
func (m *WhatIfModel) State() WhatIfState { return m.state }

// Rows returns a copy of the editable rows.
func (m *WhatIfModel) Rows() []FieldRow { return slices.Clone(m.rows) }

// Baseline is the breakdown of the response as it was passed in.
func (m *WhatIfModel) Baseline() footprint.Breakdown { return m.baseline }

// Breakdown is the breakdown of the edited response.
func (m *WhatIfModel) Breakdown() footprint.Breakdown { return m.modified }

// Response returns a copy of the edited response.
func (m *WhatIfModel) Response() survey.Response { return m.current.Clone() }

// RunWhatIf runs the editor until the user quits and returns the edited
// response with its breakdown.
func RunWhatIf(
	ctx context.Context,
	resp survey.Response,
	f footprint.Factors,
	opts ...tea.ProgramOption,
) (survey.Response, footprint.Breakdown, error) {
	model := NewWhatIfModel(resp, f)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)

	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return nil, footprint.Breakdown{}, fmt.Errorf("running what-if editor: %w", err)
	}

	m, ok := final.(*WhatIfModel)
	if !ok {
		return nil, footprint.Breakdown{}, fmt.Errorf("unexpected model type: %T, expected *tui.WhatIfModel", final)
	}
	return m.Response(), m.Breakdown(), nil
}
