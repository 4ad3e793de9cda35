package indexer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goran-ethernal/ArcadeIndexor/internal/db"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/goran-ethernal/ArcadeIndexor/internal/metrics"
	"github.com/goran-ethernal/ArcadeIndexor/internal/migrations"
	"github.com/goran-ethernal/ArcadeIndexor/internal/notify"
	"github.com/goran-ethernal/ArcadeIndexor/internal/store"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/chain"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const (
	testContract = "0xc0ffee"
	testModule   = "multiplayer_game"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

// fakeReader serves a fixed page of transactions.
type fakeReader struct {
	mu    sync.Mutex
	txs   []chain.Transaction
	err   error
	calls int

	account string
	limit   int

	// onFetch runs after the page is served, outside the lock
	onFetch func()
}

func (f *fakeReader) AccountTransactions(_ context.Context, account string, limit int) ([]chain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.account = account
	f.limit = limit

	if f.err != nil {
		return nil, f.err
	}

	out := make([]chain.Transaction, len(f.txs))
	copy(out, f.txs)

	if hook := f.onFetch; hook != nil {
		f.mu.Unlock()
		hook()
		f.mu.Lock()
	}
	return out, nil
}

func (f *fakeReader) set(txs ...chain.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs = txs
	f.err = nil
}

// recordingPublisher keeps every published update.
type recordingPublisher struct {
	mu      sync.Mutex
	updates []notify.GameUpdate
}

func (r *recordingPublisher) PublishGameUpdate(_ context.Context, u notify.GameUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
	return nil
}

type testEnv struct {
	db      *sql.DB
	reader  *fakeReader
	state   *store.StateManager
	reads   *store.ReadModel
	pub     *recordingPublisher
	indexer *GameIndexer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "arcade.sqlite")}
	cfg.ApplyDefaults()

	sqlDB, err := db.NewSQLiteDBFromConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	log := logger.NewNopLogger()
	require.NoError(t, migrations.RunMigrationsDB(log, sqlDB))

	env := &testEnv{
		db:     sqlDB,
		reader: &fakeReader{},
		state:  store.NewStateManager(sqlDB, log, nil),
		reads:  store.NewReadModel(sqlDB, nil),
		pub:    &recordingPublisher{},
	}

	chainCfg := config.ChainConfig{
		NodeURL:         "http://node.invalid/v1",
		ContractAddress: testContract,
		ModuleName:      testModule,
		PageSize:        25,
	}

	env.indexer = NewGameIndexer(env.reader, sqlDB, env.state, chainCfg, log,
		WithClock(func() time.Time { return fixedNow }),
		WithPublisher(env.pub),
	)

	return env
}

func gameEvent(name string, data string) chain.Event {
	return chain.Event{
		Type: testContract + "::" + testModule + "::" + name,
		Data: json.RawMessage(data),
	}
}

func userTx(version uint64, hash string, evs ...chain.Event) chain.Transaction {
	return chain.Transaction{
		Version: version,
		Type:    chain.UserTransactionType,
		Hash:    hash,
		Events:  evs,
	}
}

func created(gameID, creator, amount string) chain.Event {
	return gameEvent("GameCreatedEvent",
		`{"game_id":"`+gameID+`","creator":"`+creator+`","bet_amount":"`+amount+`"}`)
}

func joined(gameID, player, amount string) chain.Event {
	return gameEvent("GameJoinedEvent",
		`{"game_id":"`+gameID+`","player":"`+player+`","bet_amount":"`+amount+`"}`)
}

func finished(gameID, winner, loser, prize string) chain.Event {
	return gameEvent("GameFinishedEvent",
		`{"game_id":"`+gameID+`","winner":"`+winner+`","loser":"`+loser+`","prize_amount":"`+prize+`"}`)
}

func countRows(t *testing.T, sqlDB *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestGameIndexer_FullGameLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// the node returns the page newest first
	env.reader.set(
		userTx(103, "0x103", finished("1", "0xB", "0xA", "95000000")),
		userTx(101, "0x101", created("1", "0xA", "50000000")),
		userTx(102, "0x102", joined("1", "0xB", "50000000")),
	)

	result, err := env.indexer.RunCycle(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, result.Processed)
	require.Equal(t, 3, result.Transactions)
	require.Zero(t, result.Rejected)
	require.Equal(t, uint64(103), result.LastVersion)

	require.Equal(t, testContract, env.reader.account)
	require.Equal(t, 25, env.reader.limit)

	game, err := env.reads.GameByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, store.StateFinished, game.State)
	require.Equal(t, 2, game.BetTier)
	require.Equal(t, "50000000", game.BetAmount.String())
	require.Equal(t, "0xA", game.Player1Address)
	require.Equal(t, "0xB", *game.Player2Address)
	require.Equal(t, "0xB", *game.WinnerAddress)
	require.Equal(t, "0x101", game.CreationTxHash)
	require.Equal(t, "0x102", *game.JoinTxHash)
	require.Equal(t, "0x103", *game.FinishTxHash)
	require.True(t, game.CreatedAt.Equal(fixedNow))
	require.True(t, game.JoinedAt.Equal(fixedNow))
	require.True(t, game.FinishedAt.Equal(fixedNow))
	require.True(t, game.Player1Finished)
	require.True(t, game.Player2Finished)

	creator, err := env.reads.PlayerStats(ctx, "0xA")
	require.NoError(t, err)
	require.Equal(t, int64(2), creator.GamesPlayed, "creator is seeded with 1 and bumped on join")
	require.Zero(t, creator.GamesWon)
	require.Equal(t, "50000000", creator.TotalWagered.String())
	require.True(t, creator.TotalWinnings.IsZero())

	joiner, err := env.reads.PlayerStats(ctx, "0xB")
	require.NoError(t, err)
	require.Equal(t, int64(1), joiner.GamesPlayed)
	require.Equal(t, int64(1), joiner.GamesWon)
	require.Equal(t, "50000000", joiner.TotalWagered.String())
	require.Equal(t, "95000000", joiner.TotalWinnings.String())
	require.True(t, joiner.LastActive.Equal(fixedNow))

	state, err := env.state.GetState(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(103), state.LastProcessedVersion)

	logged, err := env.reads.Events(ctx, store.EventFilter{})
	require.NoError(t, err)
	require.Len(t, logged, 3)
	require.Equal(t, "GameCreatedEvent", logged[0].EventType)
	require.Equal(t, uint64(101), logged[0].TransactionVersion)
	require.Equal(t, "0xA", *logged[0].PlayerAddress)
	require.Equal(t, uint64(1), *logged[0].GameID)
	require.Equal(t, "GameFinishedEvent", logged[2].EventType)
	require.Nil(t, logged[2].PlayerAddress)

	require.Len(t, env.pub.updates, 3)
	require.Equal(t, "GameCreatedEvent", env.pub.updates[0].EventType)
	require.Equal(t, uint64(101), env.pub.updates[0].TransactionVersion)
	// updates carry the committed state at publish time
	require.Equal(t, int(store.StateFinished), env.pub.updates[2].State)
	require.Equal(t, "0xB", *env.pub.updates[2].WinnerAddress)
}

func TestGameIndexer_ReplayIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	page := []chain.Transaction{
		userTx(101, "0x101", created("1", "0xA", "10000000")),
		userTx(102, "0x102", joined("1", "0xB", "10000000")),
	}
	env.reader.set(page...)

	_, err := env.indexer.RunCycle(ctx)
	require.NoError(t, err)

	// rewind the watermark to force the same page through again
	_, err = env.db.Exec(`UPDATE indexer_state SET last_processed_version = 0`)
	require.NoError(t, err)

	result, err := env.indexer.RunCycle(ctx)
	require.NoError(t, err)
	require.Zero(t, result.Processed)
	require.Equal(t, uint64(102), result.LastVersion)

	require.Equal(t, 1, countRows(t, env.db, "games"))
	require.Equal(t, 2, countRows(t, env.db, "event_log"))

	creator, err := env.reads.PlayerStats(ctx, "0xA")
	require.NoError(t, err)
	require.Equal(t, int64(2), creator.GamesPlayed)
	require.Equal(t, "10000000", creator.TotalWagered.String())
}

func TestGameIndexer_WatermarkIsMonotonic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.reader.set(userTx(103, "0x103", created("1", "0xA", "10000000")))
	_, err := env.indexer.RunCycle(ctx)
	require.NoError(t, err)

	env.reader.set(
		userTx(60, "0x60", created("2", "0xA", "10000000")),
		userTx(103, "0x103", created("1", "0xA", "10000000")),
	)
	result, err := env.indexer.RunCycle(ctx)
	require.NoError(t, err)
	require.Zero(t, result.Processed)
	require.Equal(t, uint64(103), result.LastVersion)

	_, err = env.reads.GameByID(ctx, 2)
	require.ErrorIs(t, err, store.ErrNotFound)

	version, err := env.state.LastProcessedVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(103), version)
}

func TestGameIndexer_ReportsStoredWatermarkWhenOvertaken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.reader.set(userTx(101, "0x101", created("1", "0xA", "10000000")))
	env.reader.onFetch = func() {
		advanced, err := env.state.SaveWatermark(ctx, 500, fixedNow)
		require.NoError(t, err)
		require.True(t, advanced)
	}

	result, err := env.indexer.RunCycle(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	require.Equal(t, uint64(500), result.LastVersion)

	version, err := env.state.LastProcessedVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(500), version)
}

func TestGameIndexer_FetchFailureKeepsWatermark(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.reader.set(userTx(10, "0x10", created("1", "0xA", "10000000")))
	_, err := env.indexer.RunCycle(ctx)
	require.NoError(t, err)

	env.reader.err = errors.New("connection refused")
	result, err := env.indexer.RunCycle(ctx)
	require.ErrorContains(t, err, "failed to fetch transactions")
	require.Equal(t, uint64(10), result.LastVersion)

	version, err := env.state.LastProcessedVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(10), version)
}

func TestGameIndexer_FailureMidPageRollsBackTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.db.Exec(`
		CREATE TRIGGER fail_game_two BEFORE INSERT ON games
		WHEN NEW.game_id = 2
		BEGIN SELECT RAISE(ABORT, 'boom'); END`)
	require.NoError(t, err)

	env.reader.set(
		userTx(101, "0x101", created("1", "0xA", "10000000")),
		userTx(102, "0x102", created("2", "0xB", "10000000")),
		userTx(103, "0x103", joined("1", "0xC", "10000000")),
	)

	_, err = env.indexer.RunCycle(ctx)
	require.ErrorContains(t, err, "failed to apply transaction 102")

	state, err := env.state.GetState(ctx)
	require.NoError(t, err)
	require.Nil(t, state, "watermark must not move when the page fails")

	// 101 committed on its own, 102 left nothing behind
	require.Equal(t, 1, countRows(t, env.db, "games"))
	require.Equal(t, 1, countRows(t, env.db, "event_log"))
	_, err = env.reads.PlayerStats(ctx, "0xB")
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, env.db, "players"))

	_, err = env.db.Exec(`DROP TRIGGER fail_game_two`)
	require.NoError(t, err)

	result, err := env.indexer.RunCycle(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, result.Processed, "101 is already indexed")
	require.Equal(t, uint64(103), result.LastVersion)

	creator, err := env.reads.PlayerStats(ctx, "0xA")
	require.NoError(t, err)
	require.Equal(t, "10000000", creator.TotalWagered.String())
	require.Equal(t, int64(2), creator.GamesPlayed)
}

func TestGameIndexer_RejectsOutOfOrderEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	before := testutil.ToFloat64(metrics.EventsRejected.WithLabelValues("GameJoinedEvent", "game_not_found"))

	env.reader.set(
		userTx(1, "0x1", joined("9", "0xB", "10000000")),
		userTx(2, "0x2", created("1", "0xA", "10000000")),
		userTx(3, "0x3", finished("1", "0xA", "0xB", "20000000")),
		userTx(4, "0x4", created("1", "0xZ", "50000000")),
		userTx(5, "0x5", joined("1", "0xB", "10000000")),
		userTx(6, "0x6", joined("1", "0xC", "10000000")),
	)

	result, err := env.indexer.RunCycle(ctx)
	require.NoError(t, err)
	require.Equal(t, 6, result.Processed)
	require.Equal(t, 4, result.Rejected)
	require.Equal(t, uint64(6), result.LastVersion)

	require.Equal(t, before+1,
		testutil.ToFloat64(metrics.EventsRejected.WithLabelValues("GameJoinedEvent", "game_not_found")))

	_, err = env.reads.GameByID(ctx, 9)
	require.ErrorIs(t, err, store.ErrNotFound)

	game, err := env.reads.GameByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, store.StateJoined, game.State)
	require.Equal(t, "0xA", game.Player1Address, "duplicate create must not overwrite the game")
	require.Equal(t, "0xB", *game.Player2Address, "second join must not replace the first")
	require.Nil(t, game.WinnerAddress)

	// rejected events never touch players
	unknown, err := env.reads.PlayerStats(ctx, "0xZ")
	require.NoError(t, err)
	require.Zero(t, unknown.GamesPlayed)
	late, err := env.reads.PlayerStats(ctx, "0xC")
	require.NoError(t, err)
	require.True(t, late.TotalWagered.IsZero())

	require.Equal(t, 6, countRows(t, env.db, "event_log"))
}

func TestGameIndexer_MalformedPayloadIsLoggedNotApplied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.reader.set(
		userTx(1, "0x1", gameEvent("GameCreatedEvent", `{"game_id":"1","bet_amount":"10000000"}`)),
		userTx(2, "0x2", gameEvent("GameCreatedEvent", `{"game_id":"2","creator":"0xA","bet_amount":"-5"}`)),
	)

	result, err := env.indexer.RunCycle(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, result.Processed)
	require.Equal(t, 2, result.Rejected)
	require.Equal(t, uint64(2), result.LastVersion)

	require.Zero(t, countRows(t, env.db, "games"))
	require.Equal(t, 2, countRows(t, env.db, "event_log"))
}

func TestGameIndexer_UnstorableGameIDDoesNotStall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	before := testutil.ToFloat64(metrics.EventsRejected.WithLabelValues("GameCreatedEvent", "malformed"))

	env.reader.set(
		userTx(101, "0x101", created("18446744073709551615", "0xA", "10000000")),
		userTx(102, "0x102", created("5", "0xB", "10000000")),
	)

	result, err := env.indexer.RunCycle(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, result.Processed)
	require.Equal(t, 1, result.Rejected)
	require.Equal(t, uint64(102), result.LastVersion)
	require.Equal(t, before+1,
		testutil.ToFloat64(metrics.EventsRejected.WithLabelValues("GameCreatedEvent", "malformed")))

	game, err := env.reads.GameByID(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "0xB", game.Player1Address)
	require.Equal(t, 1, countRows(t, env.db, "games"))

	var nullIDs int
	require.NoError(t, env.db.QueryRow(
		`SELECT COUNT(*) FROM event_log WHERE transaction_version = 101 AND game_id IS NULL`).Scan(&nullIDs))
	require.Equal(t, 1, nullIDs)

	version, err := env.state.LastProcessedVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(102), version)
}

func TestGameIndexer_UnknownEventsAreLoggedOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.reader.set(userTx(7, "0x7",
		chain.Event{Type: "0x1::coin::WithdrawEvent", Data: json.RawMessage(`{"amount":"10000000"}`)},
		created("1", "0xA", "10000000"),
		chain.Event{Type: "0x1::coin::DepositEvent"},
	))

	result, err := env.indexer.RunCycle(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, result.Processed)
	require.Zero(t, result.Rejected)

	logged, err := env.reads.Events(ctx, store.EventFilter{})
	require.NoError(t, err)
	require.Len(t, logged, 3)
	require.Equal(t, "WithdrawEvent", logged[0].EventType)
	require.Nil(t, logged[0].GameID)
	require.Equal(t, 0, logged[0].EventIndex)
	require.Equal(t, "GameCreatedEvent", logged[1].EventType)
	require.Equal(t, 1, logged[1].EventIndex)
	require.Equal(t, "DepositEvent", logged[2].EventType)
	require.JSONEq(t, `null`, string(logged[2].Data))

	require.Len(t, env.pub.updates, 1)
}

func TestGameIndexer_SkipsNonUserTransactions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.reader.set(
		userTx(5, "0x5", created("1", "0xA", "10000000")),
		chain.Transaction{
			Version: 6,
			Type:    "block_metadata_transaction",
			Hash:    "0x6",
			Events:  []chain.Event{created("2", "0xA", "10000000")},
		},
	)

	result, err := env.indexer.RunCycle(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	require.Equal(t, 1, result.Transactions)
	require.Equal(t, uint64(5), result.LastVersion)
	require.Equal(t, 1, countRows(t, env.db, "games"))
}

func TestGameIndexer_EmptyPage(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.indexer.RunCycle(context.Background())
	require.NoError(t, err)
	require.Zero(t, result.Processed)
	require.Zero(t, result.LastVersion)

	state, err := env.state.GetState(context.Background())
	require.NoError(t, err)
	require.Nil(t, state)
}

func TestGameIndexer_DefaultPageSize(t *testing.T) {
	reader := &fakeReader{}
	g := NewGameIndexer(reader, nil, nil, config.ChainConfig{ContractAddress: testContract}, logger.NewNopLogger())
	require.Equal(t, config.DefaultPageSize, g.pageSize)
	require.IsType(t, notify.NopPublisher{}, g.publisher)
}
