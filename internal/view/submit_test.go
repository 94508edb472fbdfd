package view

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kalambet/m5front/internal/predictor"
)

type fakePredictor struct {
	calls []predictor.Request
	resp  predictor.Response
	err   error
}

func (f *fakePredictor) Predict(ctx context.Context, req predictor.Request) (predictor.Response, error) {
	f.calls = append(f.calls, req)
	return f.resp, f.err
}

func filledState() State {
	s := New(ModeText)
	s = Reduce(s, FieldChanged{Field: FieldItem, Value: "HOBBIES_1_001"})
	s = Reduce(s, FieldChanged{Field: FieldStore, Value: "CA_1"})
	s = Reduce(s, FieldChanged{Field: FieldDate, Value: "2024-01-01"})
	return s
}

func TestSubmit_Success(t *testing.T) {
	p := &fakePredictor{resp: predictor.Response{Prediction: 0.4321}}

	var seen []State
	final := Submit(context.Background(), p, filledState(), func(s State) { seen = append(seen, s) })

	if len(p.calls) != 1 {
		t.Fatalf("predictor called %d times, want 1", len(p.calls))
	}
	want := predictor.Request{ItemID: "HOBBIES_1_001", StoreID: "CA_1", Date: "2024-01-01"}
	if p.calls[0] != want {
		t.Errorf("request = %+v, want %+v", p.calls[0], want)
	}

	if len(seen) != 2 {
		t.Fatalf("observer saw %d states, want 2", len(seen))
	}
	if !seen[0].Busy {
		t.Error("first observed state should be busy")
	}
	if seen[1].Busy || final.Busy {
		t.Error("busy must be cleared after settlement")
	}
	if final.Panel() != PanelResult {
		t.Errorf("panel = %s, want result", final.Panel())
	}
	if final.ResultText() != "43.21%" {
		t.Errorf("ResultText() = %q, want 43.21%%", final.ResultText())
	}
}

func TestSubmit_Failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "http status",
			err:     fmt.Errorf("predict: %w", &predictor.APIError{StatusCode: 500, Detail: "model exploded"}),
			wantMsg: ConnectionErrorMessage,
		},
		{
			name:    "network",
			err:     errors.New(`Post "http://127.0.0.1:8000/predict": dial tcp 127.0.0.1:8000: connect: connection refused`),
			wantMsg: `Post "http://127.0.0.1:8000/predict": dial tcp 127.0.0.1:8000: connect: connection refused`,
		},
		{
			name:    "parse",
			err:     fmt.Errorf("predict: %w: invalid character 'o' in literal null", predictor.ErrMalformedResponse),
			wantMsg: "predict: malformed response: invalid character 'o' in literal null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePredictor{err: tt.err}

			var seen []State
			start := Reduce(filledState(), SubmitSucceeded{Prediction: 0.9})
			final := Submit(context.Background(), p, start, func(s State) { seen = append(seen, s) })

			if len(p.calls) != 1 {
				t.Fatalf("predictor called %d times, want 1", len(p.calls))
			}
			if final.Busy {
				t.Error("busy must be cleared after a failure")
			}
			if final.Panel() != PanelError {
				t.Errorf("panel = %s, want error", final.Panel())
			}
			if final.Err != tt.wantMsg {
				t.Errorf("Err = %q, want %q", final.Err, tt.wantMsg)
			}
			if !seen[0].Busy || seen[0].Err != "" {
				t.Errorf("first observed state = %+v, want busy with no error", seen[0])
			}
		})
	}
}

func TestSubmit_ErrorThenSuccess(t *testing.T) {
	p := &fakePredictor{err: &predictor.APIError{StatusCode: 404}}
	s := Submit(context.Background(), p, filledState(), nil)
	if s.Panel() != PanelError {
		t.Fatalf("panel = %s, want error", s.Panel())
	}

	p.err = nil
	p.resp = predictor.Response{Prediction: 0.7}
	s = Submit(context.Background(), p, s, nil)
	if s.Panel() != PanelResult {
		t.Fatalf("panel = %s, want result", s.Panel())
	}
	if s.ResultText() != "70.00%" {
		t.Errorf("ResultText() = %q, want 70.00%%", s.ResultText())
	}
}

func TestSubmit_InvalidFormSkipsPost(t *testing.T) {
	p := &fakePredictor{}

	var seen []State
	s := Submit(context.Background(), p, New(ModeText), func(s State) { seen = append(seen, s) })

	if len(p.calls) != 0 {
		t.Errorf("predictor called %d times for an invalid form", len(p.calls))
	}
	if s.Panel() != PanelError || s.Busy {
		t.Errorf("state = %+v, want error panel and not busy", s)
	}
	if len(seen) != 1 || seen[0].Busy {
		t.Errorf("observer saw %+v, want a single non-busy state", seen)
	}
}

func TestBegin_IgnoresSubmitWhileBusy(t *testing.T) {
	busy, ok := Begin(filledState())
	if !ok || !busy.Busy {
		t.Fatalf("Begin on a valid form = %+v, %v", busy, ok)
	}

	again, ok := Begin(busy)
	if ok {
		t.Error("Begin while busy should refuse a second submission")
	}
	if !again.Busy {
		t.Error("refused Begin must leave the in-flight state untouched")
	}
}

func TestUserMessage_StripsMarkup(t *testing.T) {
	got := UserMessage(errors.New(`<b>upstream</b> said "no"`))
	if got != `upstream said "no"` {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestUserMessage_EmptyFallsBack(t *testing.T) {
	if got := UserMessage(errors.New("<br>")); got != ConnectionErrorMessage {
		t.Errorf("UserMessage = %q, want %q", got, ConnectionErrorMessage)
	}
}
