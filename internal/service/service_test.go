package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"klask-tracker/internal/championship"
	"klask-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	doc      []byte
	version  int
	writes   []string
	readErr  error
	writeErr error
}

func (m *memStore) Name() string { return "memory" }

func (m *memStore) Close() error { return nil }

func (m *memStore) Read(ctx context.Context) (*domain.State, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, "", m.readErr
	}
	if m.doc == nil {
		return nil, "", nil
	}
	s, err := domain.Decode(m.doc)
	return s, strconv.Itoa(m.version), err
}

func (m *memStore) Write(ctx context.Context, s *domain.State, version, description string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return "", m.writeErr
	}
	doc, err := domain.Encode(s)
	if err != nil {
		return "", err
	}
	m.doc = doc
	m.version++
	m.writes = append(m.writes, description)
	return strconv.Itoa(m.version), nil
}

func (m *memStore) lastWrite() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.writes) == 0 {
		return ""
	}
	return m.writes[len(m.writes)-1]
}

type revisionStore struct {
	memStore
}

func (r *revisionStore) Revisions(ctx context.Context, limit int) ([]domain.Revision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Revision, 0, len(r.writes))
	for i := len(r.writes) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, domain.Revision{ID: strconv.Itoa(i + 1), Seq: int64(i + 1), Description: r.writes[i]})
	}
	return out, nil
}

type fixture struct {
	store    *memStore
	clock    *time.Time
	session  *StateSession
	players  *PlayerService
	matches  *MatchService
	champion *ChampionshipService
	stats    *StatsService
}

var wednesday = time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, &memStore{})
}

func newFixtureWithStore(t *testing.T, store *memStore) *fixture {
	t.Helper()
	now := wednesday
	engine := championship.NewEngine(time.UTC, func() time.Time { return now })
	session := NewStateSession(store, zerolog.Nop())
	return &fixture{
		store:    store,
		clock:    &now,
		session:  session,
		players:  NewPlayerService(session, engine, zerolog.Nop()),
		matches:  NewMatchService(session, engine, zerolog.Nop()),
		champion: NewChampionshipService(session, engine, zerolog.Nop()),
		stats:    NewStatsService(session, engine, zerolog.Nop()),
	}
}

func (f *fixture) addPlayers(t *testing.T, names ...string) []domain.PlayerID {
	t.Helper()
	ids := make([]domain.PlayerID, len(names))
	for i, name := range names {
		p, err := f.players.AddPlayer(context.Background(), name)
		require.NoError(t, err)
		ids[i] = p.ID
	}
	return ids
}

func (f *fixture) record(t *testing.T, p1, p2 domain.PlayerID, score1, score2 int) championship.MatchOutcome {
	t.Helper()
	out, err := f.matches.RecordMatch(context.Background(), championship.MatchResult{
		Player1ID: p1, Player2ID: p2, Score1: score1, Score2: score2,
	})
	require.NoError(t, err)
	return out
}

func TestSessionStartsEmptyWithoutDocument(t *testing.T) {
	f := newFixture(t)

	st, err := f.session.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.Players)
	assert.Nil(t, st.Championship.ChampionID)
	assert.Empty(t, f.store.writes)
}

func TestSessionSnapshotIsIsolated(t *testing.T) {
	f := newFixture(t)
	f.addPlayers(t, "Alice")

	st, err := f.session.Snapshot(context.Background())
	require.NoError(t, err)
	st.Players[0].Name = "Mallory"

	again, err := f.session.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.Players[0].Name)
}

func TestSessionKeepsStateWhenWriteFails(t *testing.T) {
	f := newFixture(t)
	f.addPlayers(t, "Alice")

	f.store.writeErr = errors.New("disk full")
	_, err := f.players.AddPlayer(context.Background(), "Bob")
	require.ErrorIs(t, err, domain.ErrStorage)

	st, version, err := f.session.Current(context.Background())
	require.NoError(t, err)
	assert.Len(t, st.Players, 1)
	assert.Equal(t, "1", version)
}

func TestSessionLoadFailures(t *testing.T) {
	f := newFixture(t)
	f.store.readErr = errors.New("connection refused")

	_, err := f.session.Snapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorage)

	f.store.readErr = nil
	f.store.doc = []byte(`{"players": [`)
	_, err = f.session.Snapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
	assert.NotErrorIs(t, err, domain.ErrStorage)
}

func TestSessionReload(t *testing.T) {
	f := newFixture(t)
	f.addPlayers(t, "Alice")

	f.store.doc = []byte(`{"players":[{"id":5,"name":"Edited"}]}`)
	require.NoError(t, f.session.Reload(context.Background()))

	players, err := f.players.List(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Edited", players[0].Name)
}

func TestSessionReplace(t *testing.T) {
	f := newFixture(t)
	f.addPlayers(t, "Alice")

	doc := domain.NewState()
	doc.Players = []domain.Player{{ID: 10, Name: "Imported"}}
	_, version, err := f.session.Replace(context.Background(), doc, "")
	require.NoError(t, err)
	assert.Equal(t, "Replace championship data", f.store.lastWrite())
	assert.Equal(t, "2", version)

	doc.Players[0].Name = "changed after import"
	st, err := f.session.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Imported", st.Players[0].Name)

	_, _, err = f.session.Replace(context.Background(), nil, "")
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestSessionRevisions(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.Revisions(context.Background(), 10)
	assert.ErrorIs(t, err, domain.ErrUnsupported)

	store := &revisionStore{}
	session := NewStateSession(store, zerolog.Nop())
	_, err = session.Mutate(context.Background(), func(*domain.State) (string, error) { return "first", nil })
	require.NoError(t, err)
	_, err = session.Mutate(context.Background(), func(*domain.State) (string, error) { return "second", nil })
	require.NoError(t, err)

	revs, err := session.Revisions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "second", revs[0].Description)
}

func TestAddPlayerRejectsBlankName(t *testing.T) {
	f := newFixture(t)

	_, err := f.players.AddPlayer(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidPlayer)
	assert.Empty(t, f.store.writes)
}

func TestRecordMatchDescribesChange(t *testing.T) {
	f := newFixture(t)
	ids := f.addPlayers(t, "Alice", "Bob")

	out := f.record(t, ids[0], ids[1], 6, 4)
	assert.True(t, out.FirstChampion)
	assert.Equal(t, "Match: Alice 6-4 Bob", f.store.lastWrite())

	games, err := f.matches.Games(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Alice", games[0].Player1Name)
	assert.Equal(t, ids[0], games[0].WinnerID)
}

func TestRecordMatchRejectsUnknownPlayer(t *testing.T) {
	f := newFixture(t)
	ids := f.addPlayers(t, "Alice")

	_, err := f.matches.RecordMatch(context.Background(), championship.MatchResult{
		Player1ID: ids[0], Player2ID: 999, Score1: 6, Score2: 2,
	})
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)

	_, err = f.matches.RecordMatch(context.Background(), championship.MatchResult{
		Player1ID: ids[0], Player2ID: 999, Score1: 6, Score2: 6,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMatch)

	st, err := f.session.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.Games)
}

func TestTitleChangeThroughService(t *testing.T) {
	f := newFixture(t)
	ids := f.addPlayers(t, "Alice", "Bob")
	alice, bob := ids[0], ids[1]

	f.record(t, alice, bob, 6, 0)
	*f.clock = wednesday.Add(24 * time.Hour)
	f.record(t, bob, alice, 6, 3)
	out := f.record(t, bob, alice, 6, 5)
	assert.True(t, out.ChampionChanged)

	standing, err := f.champion.Standing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bob", standing.ChampionName)
	assert.Nil(t, standing.ChallengerID)
	require.NotNil(t, standing.DaysAsChampion)
	assert.Equal(t, 0, *standing.DaysAsChampion)

	history, err := f.champion.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Bob", history[0].NewChampionName)
	assert.Equal(t, "Alice", history[0].PreviousChampionName)
	assert.Equal(t, domain.ReasonGame, history[0].Reason)
}

func TestSetChampion(t *testing.T) {
	f := newFixture(t)
	ids := f.addPlayers(t, "Alice", "Bob")

	changed, err := f.champion.SetChampion(context.Background(), ids[1])
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "Set champion: Bob", f.store.lastWrite())

	changed, err = f.champion.SetChampion(context.Background(), ids[1])
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = f.champion.SetChampion(context.Background(), 12345)
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestRemoveGameAndEvent(t *testing.T) {
	f := newFixture(t)
	ids := f.addPlayers(t, "Alice", "Bob")
	f.record(t, ids[0], ids[1], 6, 2)
	_, err := f.champion.SetChampion(context.Background(), ids[1])
	require.NoError(t, err)

	removed, err := f.matches.RemoveGame(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, removed.Score2)
	assert.Equal(t, "Remove game: Alice 6-2 Bob", f.store.lastWrite())

	_, err = f.matches.RemoveGame(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)

	ev, err := f.champion.RemoveEvent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, ids[1], *ev.NewChampionID)

	_, err = f.champion.RemoveEvent(context.Background(), 3)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)

	standing, err := f.champion.Standing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bob", standing.ChampionName, "removing history leaves the live state alone")
}

func TestStatsAndHeadToHead(t *testing.T) {
	f := newFixture(t)
	ids := f.addPlayers(t, "Alice", "Bob")
	f.record(t, ids[0], ids[1], 6, 4)
	f.record(t, ids[0], ids[1], 6, 3)
	f.record(t, ids[1], ids[0], 6, 5)

	stats, err := f.stats.Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 66.7, stats[0].WinPercent)

	h2h, err := f.stats.HeadToHead(context.Background(), ids[1])
	require.NoError(t, err)
	require.Len(t, h2h, 1)
	assert.Equal(t, -1, h2h[0].WinBalance)

	none, err := f.stats.HeadToHead(context.Background(), 4242)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHeadToHeadForPlayerOnlyInOldGames(t *testing.T) {
	f := newFixtureWithStore(t, &memStore{doc: []byte(`{
		"players": [{"id": 1, "name": "Alice"}],
		"games": [
			{"date": "2024-01-02T10:00:00.000Z", "player1Id": 1, "player2Id": 2, "score1": 6, "score2": 4},
			{"date": "2024-01-02T11:00:00.000Z", "player1Id": 2, "player2Id": 1, "score1": 6, "score2": 1}
		]
	}`)})

	rows, err := f.stats.HeadToHead(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.PlayerID(1), rows[0].OpponentID)
	assert.Equal(t, 2, rows[0].GamesAgainst)
	assert.Equal(t, 0, rows[0].WinBalance)
}

func TestCurrentPairsStateWithItsVersion(t *testing.T) {
	f := newFixture(t)
	f.addPlayers(t, "Alice")

	var wg sync.WaitGroup
	for _, name := range []string{"Bob", "Carol", "Dave", "Erin"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.players.AddPlayer(context.Background(), name)
			assert.NoError(t, err)
		}()
	}
	for range 20 {
		st, version, err := f.session.Current(context.Background())
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(len(st.Players)), version)
	}
	wg.Wait()
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ids := f.addPlayers(t, "Alice", "Bob", "Carol")
	f.record(t, ids[1], ids[0], 6, 1)
	f.record(t, ids[1], ids[2], 6, 2)
	f.record(t, ids[0], ids[2], 6, 2)

	d, err := f.stats.Dashboard(context.Background())
	require.NoError(t, err)

	require.Len(t, d.Leaderboard, 3)
	assert.Equal(t, "Bob", d.Leaderboard[0].Name)
	assert.Equal(t, "Alice", d.Leaderboard[1].Name)
	assert.Equal(t, "Carol", d.Leaderboard[2].Name)

	assert.Equal(t, "Bob", d.Standing.ChampionName)
	require.Len(t, d.HeadToHead, 3)
	assert.Equal(t, "Alice", d.HeadToHead[0].Name)
	assert.Len(t, d.HeadToHead[0].Opponents, 2)
	_, version, err := f.session.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, version, d.Version)
	assert.Empty(t, d.Reigns)
}

func TestLeaderboardBreaksTiesOnWins(t *testing.T) {
	rows := Leaderboard([]championship.PlayerStats{
		{Name: "few", Wins: 1, WinPercent: 50},
		{Name: "many", Wins: 3, WinPercent: 50},
		{Name: "best", Wins: 1, WinPercent: 100},
	})
	assert.Equal(t, []string{"best", "many", "few"}, []string{rows[0].Name, rows[1].Name, rows[2].Name})
}
