// Package catalog описывает неизменяемый набор карточек и таблицу редкостей.
// Каталог читается из YAML один раз при старте и дальше только читается,
// поэтому его можно без блокировок использовать из любых горутин.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// Tier: уровень редкости и его вес при выборке.
type Tier struct {
	Name   string `yaml:"name"`
	Weight int    `yaml:"weight"`
	Order  int    `yaml:"order"`
}

// Card описывает карточку каталога. ID стабилен между перезапусками, на него ссылается owned_cards.
type Card struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Tier  string `yaml:"tier"`
	Value int64  `yaml:"value"`
	Image string `yaml:"image"`
}

type file struct {
	Tiers []Tier `yaml:"tiers"`
	Cards []Card `yaml:"cards"`
}

// Catalog: проверенный каталог.
type Catalog struct {
	tiers  []Tier
	cards  []Card
	byID   map[int]Card
	byTier map[string][]Card
}

// Default возвращает встроенный каталог.
func Default() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// Load читает каталог из файла. Пустой путь означает встроенный каталог.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение каталога %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("каталог %s: %w", path, err)
	}
	return c, nil
}

// Parse разбирает и проверяет YAML каталога.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("разбор YAML: %w", err)
	}
	return build(f)
}

func build(f file) (*Catalog, error) {
	c := &Catalog{
		byID:   make(map[int]Card, len(f.Cards)),
		byTier: make(map[string][]Card, len(f.Tiers)),
	}

	known := make(map[string]bool, len(f.Tiers))
	for _, t := range f.Tiers {
		if t.Name == "" {
			return nil, fmt.Errorf("редкость без названия")
		}
		if t.Weight <= 0 {
			return nil, fmt.Errorf("редкость %q: вес должен быть > 0, получено %d", t.Name, t.Weight)
		}
		if known[t.Name] {
			return nil, fmt.Errorf("редкость %q указана дважды", t.Name)
		}
		known[t.Name] = true
	}

	for _, card := range f.Cards {
		if card.ID <= 0 {
			return nil, fmt.Errorf("карточка %q: id должен быть > 0", card.Name)
		}
		if _, dup := c.byID[card.ID]; dup {
			return nil, fmt.Errorf("карточка с id %d указана дважды", card.ID)
		}
		if !known[card.Tier] {
			return nil, fmt.Errorf("карточка %d: неизвестная редкость %q", card.ID, card.Tier)
		}
		if card.Value < 0 {
			return nil, fmt.Errorf("карточка %d: отрицательная стоимость", card.ID)
		}
		c.byID[card.ID] = card
		c.byTier[card.Tier] = append(c.byTier[card.Tier], card)
		c.cards = append(c.cards, card)
	}

	// Редкость без карточек не участвует в выборке.
	for _, t := range f.Tiers {
		if len(c.byTier[t.Name]) == 0 {
			log.WithField("tier", t.Name).Warn("Редкость без карточек исключена из выборки")
			continue
		}
		c.tiers = append(c.tiers, t)
	}
	if len(c.tiers) == 0 {
		return nil, fmt.Errorf("в каталоге нет ни одной редкости с карточками")
	}

	sort.SliceStable(c.tiers, func(i, j int) bool { return c.tiers[i].Order < c.tiers[j].Order })
	sort.Slice(c.cards, func(i, j int) bool { return c.cards[i].ID < c.cards[j].ID })
	for name := range c.byTier {
		cards := c.byTier[name]
		sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	}
	return c, nil
}

// Get ищет карточку по id.
func (c *Catalog) Get(id int) (Card, bool) {
	card, ok := c.byID[id]
	return card, ok
}

// Cards возвращает все карточки по возрастанию id. Срез, копия.
func (c *Catalog) Cards() []Card {
	return append([]Card(nil), c.cards...)
}

// Len: число карточек в каталоге.
func (c *Catalog) Len() int { return len(c.cards) }

// Tiers возвращает редкости, участвующие в выборке, в порядке Order.
func (c *Catalog) Tiers() []Tier {
	return append([]Tier(nil), c.tiers...)
}

// inTier возвращает карточки одной редкости.
func (c *Catalog) inTier(name string) []Card {
	return append([]Card(nil), c.byTier[name]...)
}
