package document

import (
	"sync"

	"github.com/andybalholm/cascadia"
)

// compiled selector groups are shared across extractions; profiles are
// static so the set stays small.
var selectorCache sync.Map // string -> cascadia.SelectorGroup

func compile(sel string) (cascadia.SelectorGroup, error) {
	if v, ok := selectorCache.Load(sel); ok {
		return v.(cascadia.SelectorGroup), nil
	}
	g, err := cascadia.ParseGroup(sel)
	if err != nil {
		return nil, err
	}
	selectorCache.Store(sel, g)
	return g, nil
}

// ValidSelector reports whether sel compiles as a CSS selector group.
func ValidSelector(sel string) bool {
	_, err := compile(sel)
	return err == nil
}
