package discovery

// State is a crawl phase.
type State int

const (
	StateIdle State = iota
	StatePageLoaded
	StateScrolling
	StateExtracting
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:       "idle",
	StatePageLoaded: "page_loaded",
	StateScrolling:  "scrolling",
	StateExtracting: "extracting",
	StateDone:       "done",
	StateFailed:     "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the state by name for json and yaml output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
