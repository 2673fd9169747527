package core

// Screen is the top-level view the navigation machine selects.
type Screen int

const (
	// ScreenLanding is the pre-dashboard connect screen.
	ScreenLanding Screen = iota

	// ScreenTransitioning is the short exit-animation window between
	// landing and dashboard.
	ScreenTransitioning

	// ScreenDashboard is the authenticated trading desk.
	ScreenDashboard
)

func (s Screen) String() string {
	switch s {
	case ScreenTransitioning:
		return "transitioning"
	case ScreenDashboard:
		return "dashboard"
	default:
		return "landing"
	}
}

// Tab is one of the fixed dashboard tabs.
type Tab string

const (
	TabOverview  Tab = "overview"
	TabArb       Tab = "arb"
	TabFunds     Tab = "funds"
	TabWatchlist Tab = "watchlist"
	TabActivity  Tab = "activity"
)

// ParseTab maps a persisted tab name back to a Tab, falling back to the
// overview tab for anything unknown so a corrupt value never breaks restore.
func ParseTab(s string) Tab {
	switch Tab(s) {
	case TabArb, TabFunds, TabWatchlist, TabActivity:
		return Tab(s)
	default:
		return TabOverview
	}
}
