package app

import "github.com/dkeye/SyncSound/internal/core"

// Visibility maps the active screen to the visibility of every screen.
// Exactly one entry is true.
func Visibility(active core.Screen) map[core.Screen]bool {
	out := make(map[core.Screen]bool, len(core.Screens))
	for _, s := range core.Screens {
		out[s] = s == active
	}
	return out
}

// Screens applies transitions to a View. Transitions are commands; nothing
// asks which screen is showing.
type Screens struct {
	view core.View
}

func NewScreens(view core.View) *Screens {
	return &Screens{view: view}
}

func (s *Screens) Show(screen core.Screen) {
	vis := Visibility(screen)
	for _, sc := range core.Screens {
		s.view.SetVisible(sc, vis[sc])
	}
}
