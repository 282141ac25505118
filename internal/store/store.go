package store

import (
	"sort"
	"sync"

	"grid_simulator/internal/env"
	"grid_simulator/internal/model"
)

// Store holds episode history in memory, indexed by episode ID.
type Store struct {
	mu       sync.RWMutex
	episodes map[string]model.Episode
	order    []string                      // episode IDs, oldest first
	turns    map[string][]model.TurnRecord // keyed by episode ID, sorted by turn
}

func New() *Store {
	return &Store{
		episodes: make(map[string]model.Episode),
		turns:    make(map[string][]model.TurnRecord),
	}
}

// AddEpisode registers an episode. Registering an ID again replaces its
// metadata and keeps its turns.
func (s *Store) AddEpisode(ep model.Episode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.episodes[ep.ID]; !ok {
		s.order = append(s.order, ep.ID)
	}
	s.episodes[ep.ID] = ep
}

// AddTurns adds turn records, then sorts each affected episode by turn.
func (s *Store) AddTurns(records []model.TurnRecord) {
	if len(records) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		s.turns[r.EpisodeID] = append(s.turns[r.EpisodeID], r)
	}

	seen := make(map[string]bool)
	for _, r := range records {
		if !seen[r.EpisodeID] {
			seen[r.EpisodeID] = true
			all := s.turns[r.EpisodeID]
			sort.SliceStable(all, func(i, j int) bool {
				return all[i].Turn < all[j].Turn
			})
		}
	}
}

// Episodes returns all registered episodes, oldest first.
func (s *Store) Episodes() []model.Episode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Episode, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.episodes[id])
	}
	return out
}

// Episode looks up one episode.
func (s *Store) Episode(id string) (model.Episode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ep, ok := s.episodes[id]
	return ep, ok
}

// Latest returns the most recently registered episode.
func (s *Store) Latest() (model.Episode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return model.Episode{}, false
	}
	return s.episodes[s.order[len(s.order)-1]], true
}

// TurnCount returns the number of turns recorded for an episode.
func (s *Store) TurnCount(episodeID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns[episodeID])
}

// Turns returns a copy of every turn of an episode.
func (s *Store) Turns(episodeID string) []model.TurnRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.turns[episodeID]
	if len(all) == 0 {
		return nil
	}
	out := make([]model.TurnRecord, len(all))
	copy(out, all)
	return out
}

// TurnsInRange returns turns between from (inclusive) and to (exclusive).
func (s *Store) TurnsInRange(episodeID string, from, to int) []model.TurnRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.turns[episodeID]
	if len(all) == 0 {
		return nil
	}

	startIdx := sort.Search(len(all), func(i int) bool {
		return all[i].Turn >= from
	})
	endIdx := sort.Search(len(all), func(i int) bool {
		return all[i].Turn >= to
	})

	if startIdx >= endIdx {
		return nil
	}

	result := make([]model.TurnRecord, endIdx-startIdx)
	copy(result, all[startIdx:endIdx])
	return result
}

// TurnAt returns the latest record at or before turn.
func (s *Store) TurnAt(episodeID string, turn int) (model.TurnRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.turns[episodeID]
	idx := sort.Search(len(all), func(i int) bool {
		return all[i].Turn > turn
	})
	if idx == 0 {
		return model.TurnRecord{}, false
	}
	return all[idx-1], true
}

// Recorder is an env.Callback that keeps every episode and turn in a Store.
type Recorder struct {
	store *Store
}

func NewRecorder(s *Store) *Recorder {
	return &Recorder{store: s}
}

func (r *Recorder) OnReset(e env.ResetEvent) {
	r.store.AddEpisode(e.Episode)
}

func (r *Recorder) OnTurn(e env.TurnEvent) {
	r.store.AddTurns([]model.TurnRecord{e.Record()})
}
