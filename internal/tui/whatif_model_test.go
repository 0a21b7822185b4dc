package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/bytecarbon/internal/footprint"
	"github.com/rshade/bytecarbon/internal/survey"
)

func phoneResponse() survey.Response {
	return survey.Response{"smartphoneCount": 1, "smartphoneHours": 4, "city": "Austin"}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m *WhatIfModel, msgs ...tea.Msg) *WhatIfModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(*WhatIfModel)
		require.True(t, ok)
	}
	return m
}

func focusKey(t *testing.T, m *WhatIfModel, key string) *WhatIfModel {
	t.Helper()
	for i, row := range m.Rows() {
		if row.Key == key {
			m.focusedRow = i
			return m
		}
	}
	require.Failf(t, "row not found", "key %q", key)
	return m
}

func TestNewWhatIfModel(t *testing.T) {
	t.Run("computes the baseline", func(t *testing.T) {
		m := NewWhatIfModel(phoneResponse(), footprint.DefaultFactors())

		assert.Equal(t, WhatIfStateBrowsing, m.State())
		assert.InDelta(t, 5.11, m.Baseline().TotalKg, 1e-9)
		assert.Equal(t, m.Baseline(), m.Breakdown())
	})

	t.Run("lists standard fields then device fields", func(t *testing.T) {
		m := NewWhatIfModel(phoneResponse(), footprint.DefaultFactors())
		rows := m.Rows()

		require.Len(t, rows, len(standardFields)+2)
		assert.Equal(t, "noDevices", rows[0].Key)
		assert.Equal(t, "smartphoneCount", rows[len(rows)-2].Key)
		assert.Equal(t, "smartphoneHours", rows[len(rows)-1].Key)
		assert.Equal(t, "4", rows[len(rows)-1].OriginalValue)
	})

	t.Run("uses the alias the response already has", func(t *testing.T) {
		m := NewWhatIfModel(survey.Response{"academicHoursPerWeek": 10}, footprint.DefaultFactors())

		keys := make([]string, 0)
		for _, row := range m.Rows() {
			keys = append(keys, row.Key)
		}
		assert.Contains(t, keys, "academicHoursPerWeek")
		assert.NotContains(t, keys, "academicStreaming")
	})

	t.Run("nil response", func(t *testing.T) {
		m := NewWhatIfModel(nil, footprint.DefaultFactors())

		assert.Equal(t, footprint.Breakdown{}, m.Baseline())
		assert.Len(t, m.Rows(), len(standardFields))
	})
}

func TestWhatIfModel_Navigation(t *testing.T) {
	m := NewWhatIfModel(phoneResponse(), footprint.DefaultFactors())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.focusedRow)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown}, runes("j"))
	assert.Equal(t, 2, m.focusedRow)

	m = send(t, m, runes("k"))
	assert.Equal(t, 1, m.focusedRow)

	for range 50 {
		m = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, len(m.Rows())-1, m.focusedRow)
}

func TestWhatIfModel_EditRecalculates(t *testing.T) {
	m := NewWhatIfModel(phoneResponse(), footprint.DefaultFactors())
	m = focusKey(t, m, "smartphoneHours")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, WhatIfStateEditing, m.State())
	assert.Equal(t, "4", m.input.Value())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyBackspace}, runes("8"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, WhatIfStateBrowsing, m.State())
	assert.InDelta(t, 10.22, m.Breakdown().TotalKg, 1e-9)
	assert.InDelta(t, 5.11, m.Baseline().TotalKg, 1e-9)

	row := m.Rows()[m.focusedRow]
	assert.True(t, row.Changed())
	assert.Equal(t, "8", row.CurrentValue)
	assert.InDelta(t, 5.11, row.DeltaKg, 1e-9)

	assert.Equal(t, "8", m.Response()["smartphoneHours"])
	assert.Contains(t, m.View(), "10.22 kg")
}

func TestWhatIfModel_NoDevicesToggle(t *testing.T) {
	m := NewWhatIfModel(phoneResponse(), footprint.DefaultFactors())
	m = focusKey(t, m, "noDevices")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runes("true"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, true, m.Response()["noDevices"])
	assert.Zero(t, m.Breakdown().TotalKg)
	assert.InDelta(t, -5.11, m.Rows()[0].DeltaKg, 1e-9)
}

func TestWhatIfModel_ClearingAnswerRemovesField(t *testing.T) {
	m := NewWhatIfModel(phoneResponse(), footprint.DefaultFactors())
	m = focusKey(t, m, "smartphoneCount")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyEnter})

	assert.NotContains(t, m.Response(), "smartphoneCount")
	assert.Zero(t, m.Breakdown().DeviceKg)
}

func TestWhatIfModel_EscCancelsEdit(t *testing.T) {
	m := NewWhatIfModel(phoneResponse(), footprint.DefaultFactors())
	m = focusKey(t, m, "smartphoneHours")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runes("0"), tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, WhatIfStateBrowsing, m.State())
	assert.Equal(t, phoneResponse(), m.Response())
	assert.InDelta(t, 5.11, m.Breakdown().TotalKg, 1e-9)
}

func TestWhatIfModel_ResetRow(t *testing.T) {
	m := NewWhatIfModel(phoneResponse(), footprint.DefaultFactors())
	m = focusKey(t, m, "smartphoneHours")

	m = send(t, m,
		tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyBackspace}, runes("8"), tea.KeyMsg{Type: tea.KeyEnter},
		runes("r"),
	)

	assert.False(t, m.Rows()[m.focusedRow].Changed())
	assert.Equal(t, 4, m.Response()["smartphoneHours"])
	assert.Equal(t, m.Baseline(), m.Breakdown())
}

func TestWhatIfModel_Quit(t *testing.T) {
	t.Run("q quits while browsing", func(t *testing.T) {
		m := NewWhatIfModel(phoneResponse(), footprint.DefaultFactors())

		next, cmd := m.Update(runes("q"))

		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Equal(t, WhatIfStateQuitting, next.(*WhatIfModel).State())
		assert.Empty(t, next.View())
	})

	t.Run("q is typed while editing", func(t *testing.T) {
		m := NewWhatIfModel(phoneResponse(), footprint.DefaultFactors())
		m = focusKey(t, m, "aiType")

		m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runes("q"))

		assert.Equal(t, WhatIfStateEditing, m.State())
		assert.Equal(t, "q", m.input.Value())
	})

	t.Run("ctrl+c quits while editing", func(t *testing.T) {
		m := NewWhatIfModel(phoneResponse(), footprint.DefaultFactors())
		m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})
}

func TestWhatIfModel_View(t *testing.T) {
	m := NewWhatIfModel(phoneResponse(), footprint.DefaultFactors())
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	view := m.View()

	assert.Contains(t, view, "What-If Footprint Analysis")
	assert.Contains(t, view, "Austin")
	assert.Contains(t, view, "Answers:")
	assert.Contains(t, view, "smartphoneHours")
	assert.Contains(t, view, "5.11 kg")
	assert.Equal(t, 120, m.width)
}
