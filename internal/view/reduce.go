package view

// Event is anything that advances the view state.
type Event interface {
	isEvent()
}

// FieldChanged records a user edit of one form field.
type FieldChanged struct {
	Field string
	Value string
}

// OptionsLoaded carries the lists fetched at mount.
type OptionsLoaded struct {
	Options OptionLists
}

// OptionsFailed records a failed mount-time load. It leaves the lists empty.
type OptionsFailed struct {
	Err error
}

// SubmitStarted marks the beginning of a submission.
type SubmitStarted struct{}

// SubmitSucceeded carries the probability returned by the service.
type SubmitSucceeded struct {
	Prediction float64
}

// SubmitFailed carries the user-facing message of a failed submission.
type SubmitFailed struct {
	Message string
}

func (FieldChanged) isEvent()    {}
func (OptionsLoaded) isEvent()   {}
func (OptionsFailed) isEvent()   {}
func (SubmitStarted) isEvent()   {}
func (SubmitSucceeded) isEvent() {}
func (SubmitFailed) isEvent()    {}

// Reduce returns the state that follows s after ev. Both settlement events
// clear Busy.
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case FieldChanged:
		switch ev.Field {
		case FieldItem:
			s.Form.ItemID = ev.Value
		case FieldStore:
			s.Form.StoreID = ev.Value
		case FieldDate:
			s.Form.Date = ev.Value
		}

	case OptionsLoaded:
		s.Options = OptionLists{
			Items:  append([]string(nil), ev.Options.Items...),
			Stores: append([]string(nil), ev.Options.Stores...),
		}
		if len(s.Options.Items) > 0 {
			s.Form.ItemID = s.Options.Items[0]
		}
		if len(s.Options.Stores) > 0 {
			s.Form.StoreID = s.Options.Stores[0]
		}

	case OptionsFailed:
		s.Options = OptionLists{}

	case SubmitStarted:
		s.Busy = true
		s.Err = ""

	case SubmitSucceeded:
		p := ev.Prediction
		s.Busy = false
		s.Result = &p
		s.Err = ""

	case SubmitFailed:
		s.Busy = false
		s.Err = ev.Message
	}
	return s
}
