package reqcache

import "strings"

// Navigation types reported by a navigation source.
const (
	NavigationNavigate    = "navigate"
	NavigationReload      = "reload"
	NavigationBackForward = "back_forward"
)

// Legacy numeric navigation types.
const (
	LegacyNavigate    = 0
	LegacyReload      = 1
	LegacyBackForward = 2
)

// NavigationTiming is one navigation entry as reported by the environment.
type NavigationTiming struct {
	Type string
}

// Navigation tells the cache how the current session was entered.
type Navigation interface {
	// NavigationEntries returns the navigation timing entries, most
	// relevant first. An empty result falls back to LegacyNavigationType.
	NavigationEntries() []NavigationTiming

	// LegacyNavigationType returns the numeric navigation type, if known.
	LegacyNavigationType() (int, bool)
}

// IsReload reports whether nav describes a hard reload. The first navigation
// entry wins; without entries the legacy type 1 means reload.
func IsReload(nav Navigation) bool {
	if nav == nil {
		return false
	}
	if entries := nav.NavigationEntries(); len(entries) > 0 {
		return entries[0].Type == NavigationReload
	}
	t, ok := nav.LegacyNavigationType()
	return ok && t == LegacyReload
}

// StaticNavigation reports a single fixed navigation entry.
type StaticNavigation string

func (s StaticNavigation) NavigationEntries() []NavigationTiming {
	if s == "" {
		return nil
	}
	return []NavigationTiming{{Type: string(s)}}
}

func (s StaticNavigation) LegacyNavigationType() (int, bool) {
	return 0, false
}

// LegacyNavigation reports only a numeric navigation type.
type LegacyNavigation int

func (l LegacyNavigation) NavigationEntries() []NavigationTiming {
	return nil
}

func (l LegacyNavigation) LegacyNavigationType() (int, bool) {
	return int(l), true
}

// ParseNavigation maps a flag or environment value to a navigation source.
// The empty string yields nil: no navigation is known and nothing is purged.
func ParseNavigation(value string) Navigation {
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case "":
		return nil
	case "1":
		return LegacyNavigation(LegacyReload)
	case "0":
		return LegacyNavigation(LegacyNavigate)
	default:
		return StaticNavigation(v)
	}
}
