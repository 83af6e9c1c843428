package state

// DefaultCapacity bounds the processed-article dedup set.
const DefaultCapacity = 1000

// State is the persistent poller state: the fetch checkpoint plus a bounded
// FIFO set of recently processed article ids. Only the orchestrator mutates
// a State, and only between cycles.
type State struct {
	lastCheckedAt *int64
	order         []string
	seen          map[string]struct{}
	capacity      int
}

// New returns an empty State with the given dedup capacity.
// Non-positive capacities fall back to DefaultCapacity.
func New(capacity int) *State {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &State{
		seen:     make(map[string]struct{}, capacity),
		capacity: capacity,
	}
}

// LastCheckedAt returns the checkpoint in milliseconds since epoch,
// or nil before the first successful cycle.
func (s *State) LastCheckedAt() *int64 {
	return s.lastCheckedAt
}

// Advance moves the checkpoint forward. Attempts to move it backward are
// ignored so the checkpoint stays monotonically non-decreasing.
func (s *State) Advance(timestampMS int64) {
	if s.lastCheckedAt != nil && timestampMS < *s.lastCheckedAt {
		return
	}
	s.lastCheckedAt = &timestampMS
}

// IsProcessed reports whether the article id is in the dedup set.
func (s *State) IsProcessed(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// MarkProcessed appends the id to the dedup set, evicting the oldest entry
// once capacity is exceeded. Duplicate ids are ignored.
func (s *State) MarkProcessed(id string) {
	if id == "" {
		return
	}
	if _, ok := s.seen[id]; ok {
		return
	}

	s.order = append(s.order, id)
	s.seen[id] = struct{}{}

	if len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.seen, oldest)
	}
}

// ProcessedCount returns the dedup set size.
func (s *State) ProcessedCount() int {
	return len(s.order)
}

// ProcessedIDs returns the dedup set in insertion order.
func (s *State) ProcessedIDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
