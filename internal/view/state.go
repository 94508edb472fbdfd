// Package view holds the state of the forecast form and the reducer that
// advances it. Every surface (web page, terminal) renders a State and feeds
// user and network events back through Reduce.
package view

import (
	"fmt"
	"slices"
	"time"
)

// InputMode selects how item and store are entered.
type InputMode string

const (
	// ModeText uses free-text inputs for item and store.
	ModeText InputMode = "text"
	// ModeSelect offers the option lists loaded at mount. A field whose list
	// is empty falls back to free text.
	ModeSelect InputMode = "select"
)

// DateLayout is the ISO calendar date format expected by the service.
const DateLayout = "2006-01-02"

// Field names, matching the JSON keys of the prediction request.
const (
	FieldItem  = "item_id"
	FieldStore = "store_id"
	FieldDate  = "date"
)

// FormState is the set of user-editable fields driving a prediction request.
type FormState struct {
	ItemID  string
	StoreID string
	Date    string
}

// OptionLists holds the server-provided choices for item and store.
type OptionLists struct {
	Items  []string
	Stores []string
}

// Panel is the display state below the form. Exactly one is shown.
type Panel int

const (
	PanelNone Panel = iota
	PanelError
	PanelResult
)

func (p Panel) String() string {
	switch p {
	case PanelError:
		return "error"
	case PanelResult:
		return "result"
	default:
		return "none"
	}
}

// State is the complete view state. It is treated as immutable: Reduce
// returns a new value and never mutates its input.
type State struct {
	Mode    InputMode
	Form    FormState
	Options OptionLists
	Busy    bool
	Result  *float64
	Err     string
}

// New returns the state of a freshly mounted view.
func New(mode InputMode) State {
	if mode != ModeSelect {
		mode = ModeText
	}
	return State{Mode: mode}
}

// Panel reports which panel to render. An error always supersedes a stale
// result.
func (s State) Panel() Panel {
	switch {
	case s.Err != "":
		return PanelError
	case s.Result != nil:
		return PanelResult
	default:
		return PanelNone
	}
}

// ResultText renders the current result as a percentage, or "" when absent.
func (s State) ResultText() string {
	if s.Result == nil {
		return ""
	}
	return FormatPercent(*s.Result)
}

// UseSelect reports whether field should be rendered as a choice among the
// loaded options rather than as free text. A value missing from the list
// keeps the text input so the form never shows a different entry than the
// one it holds.
func (s State) UseSelect(field string) bool {
	if s.Mode != ModeSelect {
		return false
	}
	switch field {
	case FieldItem:
		return slices.Contains(s.Options.Items, s.Form.ItemID)
	case FieldStore:
		return slices.Contains(s.Options.Stores, s.Form.StoreID)
	default:
		return false
	}
}

// FormatPercent renders a probability in [0,1] as a percentage with two
// decimals: 0.4321 becomes "43.21%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

// Validate reports the first problem that would keep f from being submitted.
func Validate(f FormState) error {
	switch {
	case f.ItemID == "":
		return fmt.Errorf("el ID del artículo es obligatorio")
	case f.StoreID == "":
		return fmt.Errorf("el ID de la tienda es obligatorio")
	case f.Date == "":
		return fmt.Errorf("la fecha es obligatoria")
	}
	if _, err := time.Parse(DateLayout, f.Date); err != nil {
		return fmt.Errorf("fecha inválida %q: use el formato AAAA-MM-DD", f.Date)
	}
	return nil
}
