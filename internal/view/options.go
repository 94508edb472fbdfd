package view

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// OptionSource lists the valid items and stores.
type OptionSource interface {
	Items(ctx context.Context) ([]string, error)
	Stores(ctx context.Context) ([]string, error)
}

// LoadOptions fetches both lists concurrently and waits for both. If either
// request fails the other is cancelled and no lists are returned.
func LoadOptions(ctx context.Context, src OptionSource) (OptionLists, error) {
	var opts OptionLists
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := src.Items(gCtx)
		if err != nil {
			return fmt.Errorf("loading items: %w", err)
		}
		opts.Items = items
		return nil
	})
	g.Go(func() error {
		stores, err := src.Stores(gCtx)
		if err != nil {
			return fmt.Errorf("loading stores: %w", err)
		}
		opts.Stores = stores
		return nil
	})

	if err := g.Wait(); err != nil {
		return OptionLists{}, err
	}
	return opts, nil
}

// OptionsEvent runs the loader and converts the outcome into an event.
// Failures are logged here and never shown to the user.
func OptionsEvent(ctx context.Context, src OptionSource) Event {
	opts, err := LoadOptions(ctx, src)
	if err != nil {
		slog.Warn("could not load form options", "error", err)
		return OptionsFailed{Err: err}
	}
	slog.Debug("form options loaded", "items", len(opts.Items), "stores", len(opts.Stores))
	return OptionsLoaded{Options: opts}
}

// Mount returns the state of a freshly mounted view. In select mode it runs
// the option loader first; in text mode src is not consulted.
func Mount(ctx context.Context, mode InputMode, src OptionSource) State {
	s := New(mode)
	if s.Mode != ModeSelect || src == nil {
		return s
	}
	return Reduce(s, OptionsEvent(ctx, src))
}
