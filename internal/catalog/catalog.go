// Package catalog holds the static reference tables: mock trains, the
// station list, station restaurants, seeded community posts and the
// leaderboard. The default tables are embedded; a replacement YAML file can be
// supplied at startup.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/example/railsahayak/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Train struct {
	Number string   `yaml:"number" validate:"required,len=5,numeric"`
	Name   string   `yaml:"name" validate:"required"`
	Start  string   `yaml:"start" validate:"required"`
	End    string   `yaml:"end" validate:"required"`
	Route  []string `yaml:"route" validate:"min=2,dive,required"`
}

type Station struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	Code string `yaml:"code" json:"code" validate:"required"`
}

type SeedUpdate struct {
	ID         string `yaml:"id" validate:"required"`
	Type       string `yaml:"type" validate:"oneof=ISSUE INFO CROWD"`
	Severity   string `yaml:"severity" validate:"oneof=LOW MEDIUM HIGH"`
	Text       string `yaml:"text" validate:"required"`
	Upvotes    int    `yaml:"upvotes" validate:"gte=0"`
	AgeMinutes int    `yaml:"age_minutes" validate:"gte=0"`
	Location   string `yaml:"location" validate:"required"`
	User       string `yaml:"user"`
	UserRank   string `yaml:"user_rank"`
}

type Catalog struct {
	Trains       []Train                  `yaml:"trains" validate:"min=1,dive"`
	DefaultTrain string                   `yaml:"default_train" validate:"required"`
	Stations     []Station                `yaml:"stations" validate:"min=3,dive"`
	Restaurants  []models.FoodItem        `yaml:"restaurants" validate:"dive"`
	Updates      []SeedUpdate             `yaml:"updates" validate:"dive"`
	Leaderboard  []models.LeaderboardUser `yaml:"leaderboard" validate:"dive"`
}

// Default returns the embedded catalog. It panics if the embedded document is
// invalid, which only a broken build can cause.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog from path, or returns the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(b)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := validator.New().Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	if _, ok := c.train(c.DefaultTrain); !ok {
		return nil, fmt.Errorf("invalid catalog: default train %s is not listed", c.DefaultTrain)
	}
	seen := make(map[string]bool, len(c.Stations))
	for _, s := range c.Stations {
		if seen[s.Code] {
			return nil, fmt.Errorf("invalid catalog: duplicate station code %s", s.Code)
		}
		seen[s.Code] = true
	}
	// numeric order keeps substring matching stable regardless of file order
	sort.Slice(c.Trains, func(i, j int) bool { return c.Trains[i].Number < c.Trains[j].Number })
	return &c, nil
}

func (c *Catalog) train(number string) (Train, bool) {
	for _, t := range c.Trains {
		if t.Number == number {
			return t, true
		}
	}
	return Train{}, false
}

// TrainFor returns the first known train whose number occurs in input, or the
// default train.
func (c *Catalog) TrainFor(input string) Train {
	for _, t := range c.Trains {
		if strings.Contains(input, t.Number) {
			return t
		}
	}
	t, _ := c.train(c.DefaultTrain)
	return t
}

func (c *Catalog) FoodItem(id string) (models.FoodItem, bool) {
	for _, f := range c.Restaurants {
		if f.ID == id {
			return f, true
		}
	}
	return models.FoodItem{}, false
}

func (c *Catalog) Menu() []models.FoodItem {
	return append([]models.FoodItem(nil), c.Restaurants...)
}

func (c *Catalog) LeaderboardUsers() []models.LeaderboardUser {
	return append([]models.LeaderboardUser(nil), c.Leaderboard...)
}

// SeedUpdates materialises the seeded community posts relative to now.
func (c *Catalog) SeedUpdates(now time.Time) []models.StationUpdate {
	out := make([]models.StationUpdate, 0, len(c.Updates))
	for _, u := range c.Updates {
		out = append(out, models.StationUpdate{
			ID:        u.ID,
			Type:      models.UpdateType(u.Type),
			Severity:  models.Severity(u.Severity),
			Text:      u.Text,
			Upvotes:   u.Upvotes,
			Timestamp: now.Add(-time.Duration(u.AgeMinutes) * time.Minute),
			Location:  u.Location,
			User:      u.User,
			UserRank:  u.UserRank,
		})
	}
	return out
}
