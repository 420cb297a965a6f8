package app

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufcards.ru/cards-bot/internal/catalog"
	"ufcards.ru/cards-bot/internal/common"
	"ufcards.ru/cards-bot/internal/config"
	"ufcards.ru/cards-bot/internal/db/postgres/postgrestest"
	"ufcards.ru/cards-bot/internal/features/cards"
	"ufcards.ru/cards-bot/internal/features/promo"
	"ufcards.ru/cards-bot/internal/features/users"
)

// Интеграционные тесты работают с одной базой, поэтому живут только в этом пакете.

const oneCard = `
tiers: [{name: жоская, weight: 1}]
cards: [{id: 7, name: Конор с тигром, tier: жоская, value: 200, image: tiger.jpg}]
`

func setup(t *testing.T, cooldown time.Duration) (*pgxpool.Pool, *Services) {
	t.Helper()
	pool := postgrestest.Pool(t)
	cat, err := catalog.Parse([]byte(oneCard))
	require.NoError(t, err)
	return pool, NewServices(pool, cat, &config.Config{CardCooldown: cooldown})
}

func newUser(t *testing.T, svc *Services, tgID int64) *users.User {
	t.Helper()
	u, err := svc.Users.ResolveOrCreate(t.Context(), users.Telegram(tgID), fmt.Sprintf("user%d", tgID))
	require.NoError(t, err)
	return u
}

func TestConcurrentResolveCreatesOneRow(t *testing.T) {
	pool, _ := setup(t, time.Hour)
	ctx := t.Context()

	const n = 16
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// свой репозиторий на горутину: проверяем базу, а не singleflight
			u, err := users.NewRepository(pool).ResolveOrCreate(ctx, users.Telegram(42), "neo")
			if assert.NoError(t, err) {
				ids[i] = u.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE tg_id = 42`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestPromoExactlyMaxActivations(t *testing.T) {
	pool, svc := setup(t, time.Hour)
	ctx := t.Context()

	_, err := svc.Promo.Create(ctx, promo.CreateRequest{Code: "free", Reward: 100, MaxActivations: 3, CreatedBy: 1})
	require.NoError(t, err)

	const players = 10
	userIDs := make([]int64, players)
	for i := range players {
		userIDs[i] = newUser(t, svc, int64(100+i)).ID
	}

	statuses := make([]promo.RedeemStatus, players)
	var wg sync.WaitGroup
	for i := range players {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := svc.Promo.Redeem(ctx, userIDs[i], "FrEe")
			if assert.NoError(t, err) {
				statuses[i] = out.Status
			}
		}()
	}
	wg.Wait()

	redeemed, limited := 0, 0
	for _, s := range statuses {
		switch s {
		case promo.RedeemRedeemed:
			redeemed++
		case promo.RedeemLimitReached:
			limited++
		}
	}
	assert.Equal(t, 3, redeemed)
	assert.Equal(t, 7, limited)

	var current, rows int
	var paid int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT current_activations FROM promo_codes`).Scan(&current))
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM promo_redemptions`).Scan(&rows))
	require.NoError(t, pool.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM users`).Scan(&paid))
	assert.Equal(t, 3, current)
	assert.Equal(t, 3, rows)
	assert.EqualValues(t, 300, paid)

	n, err := svc.Promo.DeactivateExhausted(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	out, err := svc.Promo.Redeem(ctx, userIDs[0], "free")
	require.NoError(t, err)
	assert.Equal(t, promo.RedeemInvalid, out.Status)
}

func TestPromoSameUserTwice(t *testing.T) {
	_, svc := setup(t, time.Hour)
	ctx := t.Context()
	u := newUser(t, svc, 1)

	_, err := svc.Promo.Create(ctx, promo.CreateRequest{Code: "SUMMER", Reward: 50, MaxActivations: 10, CreatedBy: 1})
	require.NoError(t, err)
	_, err = svc.Promo.Create(ctx, promo.CreateRequest{Code: "summer", Reward: 1, MaxActivations: 1, CreatedBy: 1})
	require.Error(t, err)

	first, err := svc.Promo.Redeem(ctx, u.ID, "summer")
	require.NoError(t, err)
	assert.Equal(t, promo.RedeemRedeemed, first.Status)

	second, err := svc.Promo.Redeem(ctx, u.ID, "SUMMER")
	require.NoError(t, err)
	assert.Equal(t, promo.RedeemAlreadyRedeemed, second.Status)

	st, err := svc.Users.Stats(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 50, st.Balance)
}

func TestTopBalances(t *testing.T) {
	_, svc := setup(t, time.Hour)
	ctx := t.Context()

	balances := []int64{10, 50, 50, 5, 0}
	ids := make([]int64, len(balances))
	for i, b := range balances {
		u := newUser(t, svc, int64(i+1))
		ids[i] = u.ID
		_, _, err := svc.Users.SetNickname(ctx, u.ID, fmt.Sprintf("player_%d", i+1))
		require.NoError(t, err)
		if b > 0 {
			_, err := svc.Economy.AddCoins(ctx, nil, u.ID, b, "test")
			require.NoError(t, err)
		}
	}
	// без ника в топ не попадает
	anon := newUser(t, svc, 99)
	_, err := svc.Economy.AddCoins(ctx, nil, anon.ID, 1000, "test")
	require.NoError(t, err)

	top, err := svc.Economy.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 5)

	got := make([]int64, len(top))
	for i, e := range top {
		got[i] = e.UserID
	}
	assert.Equal(t, []int64{ids[1], ids[2], ids[0], ids[3], ids[4]}, got)

	holder, err := svc.Economy.RecordHolder(ctx)
	require.NoError(t, err)
	require.NotNil(t, holder)
	assert.Equal(t, ids[1], holder.UserID)
}

func TestDrawRepeatAndRecord(t *testing.T) {
	_, svc := setup(t, time.Millisecond)
	ctx := t.Context()
	u := newUser(t, svc, 1)

	first, err := svc.Cards.Draw(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, cards.DrawDrawn, first.Status)
	assert.True(t, first.WasNew)
	assert.EqualValues(t, 200, first.Reward)

	time.Sleep(20 * time.Millisecond)

	second, err := svc.Cards.Draw(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, cards.DrawDrawn, second.Status)
	assert.False(t, second.WasNew)
	assert.EqualValues(t, 100, second.Reward)
	assert.EqualValues(t, 300, second.Balance)

	owned, err := svc.Cards.OwnedCards(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	b, err := svc.Economy.AddCoins(ctx, nil, u.ID, -250, "test")
	require.NoError(t, err)
	assert.EqualValues(t, 50, b.Balance)
	assert.EqualValues(t, 300, b.RecordBalance)

	view, err := svc.Profile.View(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, view.Progress)
	assert.GreaterOrEqual(t, view.RecordBalance, view.Balance)
}

func TestConcurrentDrawsGiveOneCard(t *testing.T) {
	_, svc := setup(t, time.Hour)
	ctx := t.Context()
	u := newUser(t, svc, 1)

	const n = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		drawn int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := svc.Cards.Draw(ctx, u.ID)
			if assert.NoError(t, err) && out.Status == cards.DrawDrawn {
				mu.Lock()
				drawn++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, drawn)

	cd, err := svc.Cards.CooldownStatus(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, cd.Ready)
	assert.InDelta(t, time.Hour.Seconds(), float64(cd.SecondsRemaining), 2)
}

func TestNicknameUniqueness(t *testing.T) {
	_, svc := setup(t, time.Hour)
	ctx := t.Context()
	a := newUser(t, svc, 1)
	b := newUser(t, svc, 2)

	nick, err := svc.Users.GetNickname(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, nick)

	_, first, err := svc.Users.SetNickname(ctx, a.ID, "Neo")
	require.NoError(t, err)
	assert.True(t, first)

	_, _, err = svc.Users.SetNickname(ctx, b.ID, "NEO")
	require.ErrorIs(t, err, common.ErrNicknameTaken)

	_, _, err = svc.Users.SetNickname(ctx, a.ID, "Вася")
	require.NoError(t, err)
	_, _, err = svc.Users.SetNickname(ctx, b.ID, "вАСЯ")
	require.ErrorIs(t, err, common.ErrNicknameTaken)

	// свой ник в другом регистре разрешён
	_, first, err = svc.Users.SetNickname(ctx, a.ID, "nEo")
	require.NoError(t, err)
	assert.False(t, first)

	got, err := svc.Users.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "nEo", got.DisplayNick())
}
