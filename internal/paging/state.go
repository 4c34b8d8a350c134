package paging

// Phase names the reachable configurations of a controller.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoadingInitial
	PhaseLoadingMore
	PhaseLoaded
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseLoadingInitial:
		return "loading"
	case PhaseLoadingMore:
		return "loading-more"
	case PhaseLoaded:
		return "loaded"
	case PhaseErrored:
		return "errored"
	default:
		return "idle"
	}
}

// State is an immutable snapshot of a controller.
type State[T any] struct {
	Items          []T
	LoadingInitial bool // fetching page 1
	LoadingMore    bool // fetching a page after the first
	HasMore        bool
	Error          string // message of the last failure, empty when none
	Err            error  // structured cause behind Error
	Page           int    // next page to fetch
	Pages          int    // pages loaded since the last refresh

	fetched bool
}

// Loading reports whether a fetch is in flight.
func (s State[T]) Loading() bool {
	return s.LoadingInitial || s.LoadingMore
}

// Phase derives the state-machine configuration from the snapshot.
func (s State[T]) Phase() Phase {
	switch {
	case s.LoadingInitial:
		return PhaseLoadingInitial
	case s.LoadingMore:
		return PhaseLoadingMore
	case s.Error != "":
		return PhaseErrored
	case s.fetched:
		return PhaseLoaded
	default:
		return PhaseIdle
	}
}

// Empty reports a settled list with nothing in it.
func (s State[T]) Empty() bool {
	return len(s.Items) == 0 && !s.Loading() && !s.HasMore && s.Error == ""
}

func (s State[T]) clone() State[T] {
	out := s
	if s.Items != nil {
		out.Items = make([]T, len(s.Items))
		copy(out.Items, s.Items)
	}
	return out
}
