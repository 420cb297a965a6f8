package catalog

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 25, c.Len())
	require.Len(t, c.Tiers(), 3)
	assert.Equal(t, "обычная", c.Tiers()[0].Name)
	assert.Len(t, c.inTier("обычная"), 16)
	assert.Len(t, c.inTier("жоская"), 8)
	assert.Len(t, c.inTier("ИМБОВАЯ"), 1)

	card, ok := c.Get(25)
	require.True(t, ok)
	assert.Equal(t, "Конор в Самаре", card.Name)
	assert.EqualValues(t, 1000, card.Value)

	_, ok = c.Get(999)
	assert.False(t, ok)

	cards := c.Cards()
	for i := 1; i < len(cards); i++ {
		assert.Less(t, cards[i-1].ID, cards[i].ID)
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"zero weight": `
tiers: [{name: a, weight: 0}]
cards: [{id: 1, name: x, tier: a, value: 1}]`,
		"dup tier": `
tiers: [{name: a, weight: 1}, {name: a, weight: 2}]
cards: [{id: 1, name: x, tier: a, value: 1}]`,
		"dup card": `
tiers: [{name: a, weight: 1}]
cards: [{id: 1, name: x, tier: a, value: 1}, {id: 1, name: y, tier: a, value: 1}]`,
		"unknown tier": `
tiers: [{name: a, weight: 1}]
cards: [{id: 1, name: x, tier: b, value: 1}]`,
		"no cards": `
tiers: [{name: a, weight: 1}]`,
		"negative value": `
tiers: [{name: a, weight: 1}]
cards: [{id: 1, name: x, tier: a, value: -1}]`,
		"bad yaml": `tiers: [`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestEmptyTierExcluded(t *testing.T) {
	c, err := Parse([]byte(`
tiers:
  - {name: common, weight: 90, order: 1}
  - {name: empty, weight: 10, order: 2}
cards:
  - {id: 1, name: x, tier: common, value: 10}
`))
	require.NoError(t, err)
	require.Len(t, c.Tiers(), 1)

	s := NewSampler(c, rand.New(rand.NewPCG(1, 2)))
	assert.Equal(t, 1.0, s.Probability("common"))
	assert.Zero(t, s.Probability("empty"))
	for i := 0; i < 100; i++ {
		assert.Equal(t, 1, s.Pick().ID)
	}
}

func TestSamplerDistribution(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	s := NewSampler(c, rand.New(rand.NewPCG(42, 7)))

	const n = 100_000
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		card := s.Pick()
		counts[card.Tier]++
	}

	assert.InDelta(t, 0.70, float64(counts["обычная"])/n, 0.01)
	assert.InDelta(t, 0.29, float64(counts["жоская"])/n, 0.01)
	assert.InDelta(t, 0.01, float64(counts["ИМБОВАЯ"])/n, 0.005)
}

func TestTierIndexBounds(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	s := NewSampler(c, nil)

	assert.Equal(t, 0, s.tierIndex(0))
	assert.Equal(t, 0, s.tierIndex(69))
	assert.Equal(t, 1, s.tierIndex(70))
	assert.Equal(t, 1, s.tierIndex(98))
	assert.Equal(t, 2, s.tierIndex(99))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tiers: [{name: a, weight: 1}]
cards: [{id: 7, name: x, tier: a, value: 3, image: x.jpg}]
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 25, c.Len())
}
