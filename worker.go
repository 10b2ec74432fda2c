package statusbar

import (
	"context"
	"sort"
)

// Worker is an independently scheduled producer of status items. The
// compositor reads its liveness and the cached output of each of its
// methods every tick, and asks it to drop its cache on a forced refresh.
type Worker interface {
	// Name is the worker's section name, as listed in the config order
	Name() string
	// IsAlive reports whether the worker's execution context still runs
	IsAlive() bool
	// ClearCache makes every method run at its next scheduling point
	ClearCache()
	// Methods returns the current output of every method
	Methods() []MethodOutput
}

// Clicker is implemented by workers that react to click events
type Clicker interface {
	OnClick(ctx context.Context, event ClickEvent) error
}

// MethodOutput is the cached output of one worker method.
type MethodOutput struct {
	// Method names the method
	Method string
	// Position is the declared display index
	Position int
	// LastOutput is the most recent output, nil before the first run
	LastOutput OutputItem
}

// sortedMethods returns w's methods ordered by method name
func sortedMethods(w Worker) []MethodOutput {
	methods := w.Methods()
	sort.SliceStable(methods, func(i, j int) bool {
		return methods[i].Method < methods[j].Method
	})
	return methods
}

// methodNames returns the method names of w, sorted
func methodNames(w Worker) []string {
	methods := sortedMethods(w)
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Method
	}
	return names
}
