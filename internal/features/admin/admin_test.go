package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufcards.ru/cards-bot/internal/bot/reply"
	"ufcards.ru/cards-bot/internal/bot/session"
	"ufcards.ru/cards-bot/internal/common"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, VerifyPassword("s3cret", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("s3cret", "not-a-hash"))
	assert.False(t, VerifyPassword("s3cret", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"))
}

func TestIsAdmin(t *testing.T) {
	s := NewService([]int64{1}, []string{"@NextXB"}, "", session.NewMemory())

	assert.True(t, s.IsAdmin(1, ""))
	assert.True(t, s.IsAdmin(2, "nextxb"))
	assert.True(t, s.IsAdmin(2, "NextXB"))
	assert.False(t, s.IsAdmin(2, ""))
	assert.False(t, s.IsAdmin(2, "someone"))
}

func TestAuthorizeWithoutPassword(t *testing.T) {
	s := NewService([]int64{1}, nil, "", session.NewMemory())
	ctx := context.Background()

	assert.NoError(t, s.Authorize(ctx, 1, ""))
	assert.ErrorIs(t, s.Authorize(ctx, 2, ""), common.ErrNotAdmin)
	assert.NoError(t, s.Login(ctx, 1, "", "anything"))
}

func TestLoginLockout(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	s := NewService([]int64{1}, nil, hash, session.NewMemory())
	ctx := context.Background()

	assert.ErrorIs(t, s.Authorize(ctx, 1, ""), common.ErrLoginRequired)

	for range MaxLoginAttempts {
		assert.ErrorIs(t, s.Login(ctx, 1, "", "wrong"), common.ErrWrongPassword)
	}
	// даже правильный пароль не принимается до конца блокировки
	assert.ErrorIs(t, s.Login(ctx, 1, "", "s3cret"), common.ErrTooManyAttempts)
	assert.ErrorIs(t, s.Authorize(ctx, 1, ""), common.ErrLoginRequired)
}

func TestLoginOpensSession(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	sessions := session.NewMemory()
	s := NewService([]int64{1}, nil, hash, sessions)
	ctx := context.Background()

	assert.ErrorIs(t, s.Login(ctx, 1, "", "wrong"), common.ErrWrongPassword)
	require.NoError(t, s.Login(ctx, 1, "", "s3cret"))
	assert.NoError(t, s.Authorize(ctx, 1, ""))

	// счётчик неудач сброшен
	var failed int64
	assert.ErrorIs(t, sessions.Get(ctx, session.Key(attemptsKind, 1), &failed), session.ErrNotFound)

	require.NoError(t, s.Logout(ctx, 1))
	assert.ErrorIs(t, s.Authorize(ctx, 1, ""), common.ErrLoginRequired)
}

func TestHandlers(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	fake := &reply.FakeSender{}
	h := NewHandler(NewService([]int64{1}, nil, hash, session.NewMemory()), reply.New(fake))
	ctx := context.Background()

	assert.False(t, h.Guard(ctx, &reply.Incoming{ChatID: 5, TgUserID: 2}))
	assert.Equal(t, "❌ недостаточно прав", fake.Last())

	in := &reply.Incoming{ChatID: 5, TgUserID: 1, Private: true, MessageID: 9}
	assert.False(t, h.Guard(ctx, in))
	assert.Contains(t, fake.Last(), "/login")

	in.Args = []string{"s3cret"}
	h.HandleLogin(ctx, in)
	assert.Contains(t, fake.Last(), "аутентификация успешна")
	// сообщение с паролем удалено
	require.Len(t, fake.Requests, 1)
	assert.True(t, h.Guard(ctx, in))
}
