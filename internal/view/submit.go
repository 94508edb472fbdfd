package view

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/kalambet/m5front/internal/predictor"
)

// ConnectionErrorMessage is shown when the service answers with a non-2xx
// status.
const ConnectionErrorMessage = "Error al conectar con el modelo"

// Predictor turns a request into a probability.
type Predictor interface {
	Predict(ctx context.Context, req predictor.Request) (predictor.Response, error)
}

// Begin applies a submit request to s. When the form is valid it returns the
// busy state and true; the caller must then issue exactly one Settle call.
// An invalid form yields the error state and false, and so does a submit
// while another one is still in flight (s is returned unchanged).
func Begin(s State) (State, bool) {
	if s.Busy {
		return s, false
	}
	if err := Validate(s.Form); err != nil {
		return Reduce(s, SubmitFailed{Message: err.Error()}), false
	}
	return Reduce(s, SubmitStarted{}), true
}

// Settle posts f once and converts the outcome into a settlement event.
func Settle(ctx context.Context, p Predictor, f FormState) Event {
	resp, err := p.Predict(ctx, predictor.Request{
		ItemID:  f.ItemID,
		StoreID: f.StoreID,
		Date:    f.Date,
	})
	if err != nil {
		slog.Warn("prediction failed",
			"item_id", f.ItemID,
			"store_id", f.StoreID,
			"date", f.Date,
			"error", err,
		)
		return SubmitFailed{Message: UserMessage(err)}
	}
	slog.Debug("prediction received",
		"item_id", f.ItemID,
		"store_id", f.StoreID,
		"date", f.Date,
		"prediction", resp.Prediction,
	)
	return SubmitSucceeded{Prediction: resp.Prediction}
}

// Submit runs the whole submission flow: Begin, one Settle, and the final
// reduction. observe, if non-nil, sees every intermediate state in order.
func Submit(ctx context.Context, p Predictor, s State, observe func(State)) State {
	next, ok := Begin(s)
	if observe != nil {
		observe(next)
	}
	if !ok {
		return next
	}

	next = Reduce(next, Settle(ctx, p, next.Form))
	if observe != nil {
		observe(next)
	}
	return next
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// UserMessage collapses a submission error into the text shown to the user.
// Non-2xx answers get the fixed connection message; network and decoding
// failures show their own message, stripped of markup.
func UserMessage(err error) string {
	var apiErr *predictor.APIError
	if errors.As(err, &apiErr) {
		return ConnectionErrorMessage
	}

	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	msg := strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(err.Error())))
	if msg == "" {
		return ConnectionErrorMessage
	}
	return msg
}
