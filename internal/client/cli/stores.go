package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophloyalty/internal/geo"
)

// Stores ranks stores around the current position and prints them nearest
// first. The selected store is marked with '*'.
func (a *App) Stores(ctx context.Context) error {
	view := a.stores.Refresh(ctx)
	if view.Stale {
		a.printf("(offline: showing saved stores)\n")
	}
	if view.UsedFallback {
		a.printf("Location unavailable, distances are from the default location.\n")
	}
	if len(view.Ranked) == 0 {
		a.printf("No stores found.\n")
		return nil
	}

	for _, r := range view.Ranked {
		mark := " "
		if view.Selected != nil && view.Selected.ID == r.Store.ID {
			mark = "*"
		}
		dist := "-"
		if r.HasDistance {
			dist = geo.FormatDistance(r.DistanceKm)
		}
		a.printf("%s %-10s %-24s %9s  %s\n", mark, r.Store.ID, r.Store.Name, dist, r.Store.Address)
		if r.Store.Hours != nil {
			a.printf("  %-10s %s\n", "", *r.Store.Hours)
		}
	}
	return nil
}

// ChooseStore selects the store with id args[0].
func (a *App) ChooseStore(_ context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: choose <store id>")
	}
	s, ok := a.stores.Choose(args[0])
	if !ok {
		return errors.New("unknown store, run 'stores' first")
	}
	a.printf("Selected %s\n", s.Name)
	return nil
}

// Directions prints a maps link for args[0], or for the selected store.
func (a *App) Directions(_ context.Context, args []string) error {
	id := ""
	if len(args) > 0 {
		id = args[0]
	} else if sel := a.stores.View().Selected; sel != nil {
		id = sel.ID
	}
	if id == "" {
		return errors.New("usage: directions <store id>")
	}
	url, ok := a.stores.Directions(id)
	if !ok {
		return errors.New("unknown store, run 'stores' first")
	}
	a.printf("%s\n", url)
	return nil
}
