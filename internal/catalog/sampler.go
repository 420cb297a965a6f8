package catalog

import "math/rand/v2"

// Sampler выбирает карточку: сначала редкость по весам, затем карточку равновероятно.
// Вероятность редкости t = weight(t) / сумма весов.
type Sampler struct {
	cat        *Catalog
	cumulative []int
	total      int
	rnd        *rand.Rand
}

// NewSampler строит сэмплер по каталогу.
// rnd == nil, используются глобальные функции math/rand/v2, они потокобезопасны.
// Свой *rand.Rand потокобезопасным не является, он нужен для детерминированных тестов.
func NewSampler(cat *Catalog, rnd *rand.Rand) *Sampler {
	s := &Sampler{cat: cat, rnd: rnd}
	for _, t := range cat.tiers {
		s.total += t.Weight
		s.cumulative = append(s.cumulative, s.total)
	}
	return s
}

// Pick возвращает случайную карточку.
func (s *Sampler) Pick() Card {
	tier := s.cat.tiers[s.tierIndex(s.intN(s.total))]
	cards := s.cat.byTier[tier.Name]
	return cards[s.intN(len(cards))]
}

// Probability возвращает вероятность выпадения редкости (0 для исключённой).
func (s *Sampler) Probability(tier string) float64 {
	for _, t := range s.cat.tiers {
		if t.Name == tier {
			return float64(t.Weight) / float64(s.total)
		}
	}
	return 0
}

func (s *Sampler) tierIndex(roll int) int {
	for i, bound := range s.cumulative {
		if roll < bound {
			return i
		}
	}
	return len(s.cumulative) - 1
}

func (s *Sampler) intN(n int) int {
	if s.rnd != nil {
		return s.rnd.IntN(n)
	}
	return rand.IntN(n)
}
