package users

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufcards.ru/cards-bot/internal/common"
)

var userCols = []string{
	"id", "tg_id", "vk_id", "display_name", "nickname", "balance", "record_balance",
	"last_draw_at", "last_activity_at", "created_at",
}

func ptr[T any](v T) *T { return &v }

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestResolveOrCreateInsertsThenReads(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (tg_id, display_name)")).
		WithArgs(int64(42), "neo").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE tg_id = $1")).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(
			int64(1), ptr(int64(42)), (*int64)(nil), "neo", (*string)(nil),
			int64(0), int64(0), (*time.Time)(nil), now, now,
		))

	u, err := repo.ResolveOrCreate(context.Background(), Telegram(42), "neo")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, int64(42), *u.TgID)
	assert.Nil(t, u.VkID)
	assert.False(t, u.HasNickname())
	assert.Nil(t, u.LastDrawAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveOrCreateVK(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (vk_id) DO NOTHING")).
		WithArgs(int64(7), "vk user").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE vk_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(
			int64(3), (*int64)(nil), ptr(int64(7)), "vk user", ptr("vasya"),
			int64(10), int64(50), ptr(now), now, now,
		))

	u, err := repo.ResolveOrCreate(context.Background(), Identity{Platform: PlatformVK, ExternalID: 7}, "vk user")
	require.NoError(t, err)
	assert.Equal(t, "vasya", u.DisplayNick())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveOrCreateUnknownPlatform(t *testing.T) {
	repo := NewRepository(newMock(t))
	_, err := repo.ResolveOrCreate(context.Background(), Identity{Platform: "icq", ExternalID: 1}, "")
	assert.Error(t, err)
}

func TestResolveOrCreateStorageFailure(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "08006"})

	_, err := repo.ResolveOrCreate(context.Background(), Telegram(1), "x")
	assert.True(t, common.IsStorageError(err))
}

func TestSetNicknameFirst(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT nickname FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"nickname"}).AddRow((*string)(nil)))
	mock.ExpectQuery(regexp.QuoteMeta("nickname_key = $1 AND id <> $2")).
		WithArgs("neo", int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET nickname = $2, nickname_key = $3 WHERE id = $1")).
		WithArgs(int64(1), "Neo", "neo").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	first, err := repo.SetNickname(context.Background(), 1, "Neo")
	require.NoError(t, err)
	assert.True(t, first)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetNicknameTaken(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"nickname"}).AddRow(ptr("smith")))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("neo", int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.SetNickname(context.Background(), 2, "NEO")
	assert.ErrorIs(t, err, common.ErrNicknameTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetNicknameRaceHitsUniqueIndex(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"nickname"}).AddRow((*string)(nil)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("neo", int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET nickname")).
		WithArgs(int64(2), "neo", "neo").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_nickname_key_key"})
	mock.ExpectRollback()

	_, err := repo.SetNickname(context.Background(), 2, "neo")
	assert.ErrorIs(t, err, common.ErrNicknameTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetNicknameCyrillicKey(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"nickname"}).AddRow((*string)(nil)))
	mock.ExpectQuery(regexp.QuoteMeta("nickname_key = $1")).
		WithArgs("вася", int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.SetNickname(context.Background(), 3, "ВАСЯ")
	assert.ErrorIs(t, err, common.ErrNicknameTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetNicknameMissingUser(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.SetNickname(context.Background(), 9, "neo")
	assert.ErrorIs(t, err, common.ErrUserNotFound)
	assert.False(t, common.IsStorageError(err))
}

func TestStats(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM owned_cards oc WHERE oc.user_id = u.id")).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"nickname", "balance", "record_balance", "last_draw_at", "count"}).
			AddRow(ptr("neo"), int64(100), int64(250), ptr(now), 4))

	s, err := repo.Stats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, s.OwnedCount)
	assert.Equal(t, int64(100), s.Balance)
	assert.Equal(t, int64(250), s.RecordBalance)
	assert.Equal(t, "neo", *s.Nickname)
}

func TestTouchActivityWrapsErrors(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_activity_at = NOW()")).
		WithArgs(int64(1)).
		WillReturnError(&pgconn.PgError{Code: "57P01"})

	err := repo.TouchActivity(context.Background(), 1)
	assert.True(t, common.IsStorageError(err))

	// а сервис ошибку глотает
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_activity_at = NOW()")).
		WithArgs(int64(1)).
		WillReturnError(&pgconn.PgError{Code: "57P01"})
	NewService(repo).TouchActivity(context.Background(), 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
