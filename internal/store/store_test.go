package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid_simulator/internal/env"
	"grid_simulator/internal/model"
)

func makeTurns(episodeID string, rewards []float64) []model.TurnRecord {
	records := make([]model.TurnRecord, len(rewards))
	score := 0.0
	for i, r := range rewards {
		score += r
		records[i] = model.TurnRecord{
			EpisodeID: episodeID,
			Turn:      i + 1,
			Reward:    r,
			Score:     score,
		}
	}
	return records
}

var (
	episodeID = "ep-1"
	startTime = time.Date(2024, 11, 21, 12, 0, 0, 0, time.UTC)
)

func TestStore_AddAndCount(t *testing.T) {
	s := New()
	s.AddTurns(makeTurns(episodeID, []float64{-1, -2, -3, -4, -5}))

	assert.Equal(t, 5, s.TurnCount(episodeID))
	assert.Equal(t, 0, s.TurnCount("nonexistent"))
	assert.Nil(t, s.Turns("nonexistent"))
}

func TestStore_Episodes(t *testing.T) {
	s := New()
	_, ok := s.Latest()
	assert.False(t, ok)

	s.AddEpisode(model.Episode{ID: "a", Seed: 1, StartedAt: startTime})
	s.AddEpisode(model.Episode{ID: "b", Seed: 2, StartedAt: startTime.Add(time.Hour)})
	s.AddEpisode(model.Episode{ID: "a", Seed: 3, StartedAt: startTime})

	eps := s.Episodes()
	require.Len(t, eps, 2)
	assert.Equal(t, "a", eps[0].ID)
	assert.Equal(t, uint64(3), eps[0].Seed)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "b", latest.ID)

	ep, ok := s.Episode("b")
	require.True(t, ok)
	assert.Equal(t, uint64(2), ep.Seed)
}

func TestStore_TurnsInRange(t *testing.T) {
	s := New()
	s.AddTurns(makeTurns(episodeID, []float64{-1, -2, -3, -4, -5}))

	// [2, 4) -> turns 2 and 3
	got := s.TurnsInRange(episodeID, 2, 4)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Turn)
	assert.Equal(t, 3, got[1].Turn)

	assert.Nil(t, s.TurnsInRange(episodeID, 10, 20))
	assert.Nil(t, s.TurnsInRange(episodeID, 4, 2))
	assert.Nil(t, s.TurnsInRange("nonexistent", 0, 10))
}

func TestStore_UnsortedInput(t *testing.T) {
	s := New()
	turns := makeTurns(episodeID, []float64{-1, -2, -3})
	s.AddTurns([]model.TurnRecord{turns[2], turns[0], turns[1]})

	got := s.Turns(episodeID)
	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, i+1, r.Turn)
	}
}

func TestStore_TurnAt(t *testing.T) {
	s := New()
	s.AddTurns([]model.TurnRecord{
		{EpisodeID: episodeID, Turn: 1, Reward: -1},
		{EpisodeID: episodeID, Turn: 3, Reward: -3},
	})

	r, ok := s.TurnAt(episodeID, 2)
	require.True(t, ok)
	assert.Equal(t, 1, r.Turn)

	r, ok = s.TurnAt(episodeID, 3)
	require.True(t, ok)
	assert.InDelta(t, -3, r.Reward, 0.001)

	_, ok = s.TurnAt(episodeID, 0)
	assert.False(t, ok)
}

func TestStore_TurnsReturnsCopy(t *testing.T) {
	s := New()
	s.AddTurns(makeTurns(episodeID, []float64{-1}))
	got := s.Turns(episodeID)
	got[0].Reward = 100
	assert.InDelta(t, -1, s.Turns(episodeID)[0].Reward, 0.001)
}

func TestRecorder_RecordsEpisode(t *testing.T) {
	s := New()
	e, err := env.New(model.DefaultScenario(), NewRecorder(s))
	require.NoError(t, err)

	_, info, err := e.Reset(42)
	require.NoError(t, err)

	var last env.StepResult
	for i := 0; i < 5; i++ {
		last, err = e.Step([]float64{0.3, 0.6, 1})
		require.NoError(t, err)
	}

	ep, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, info.EpisodeID, ep.ID)
	assert.Equal(t, uint64(42), ep.Seed)

	turns := s.Turns(ep.ID)
	require.Len(t, turns, 5)
	assert.Equal(t, 5, turns[4].Turn)
	assert.Equal(t, []float64{0.3, 0.6, 1}, turns[4].Action)
	assert.InDelta(t, last.Info.Summary.Score, turns[4].Score, 1e-9)
	assert.InDelta(t, last.Reward, turns[4].Reward, 1e-9)
	assert.Equal(t, last.Info.IsBlackout, turns[4].Blackout)
}
