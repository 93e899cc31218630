package config

import (
	"errors"
	"log"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Rank is one step of the creator ladder. A user holds the highest rank whose
// MinDownloads they have reached.
type Rank struct {
	Badge        string `mapstructure:"badge"`
	MinDownloads int    `mapstructure:"minDownloads"`
	MaxCredits   int    `mapstructure:"maxCredits"`
}

type RankConfig struct {
	Ranks []Rank `mapstructure:"ranks"`
}

func DefaultRankConfig() RankConfig {
	return RankConfig{
		Ranks: []Rank{
			{Badge: "Legendary Composer", MinDownloads: 50, MaxCredits: 10},
			{Badge: "Sound Master", MinDownloads: 20, MaxCredits: 5},
			{Badge: "Rising Creator", MinDownloads: 5, MaxCredits: 3},
			{Badge: "Novice Creator", MinDownloads: 0, MaxCredits: 1},
		},
	}
}

type RankConfigHolder struct {
	current atomic.Value // holds RankConfig
}

// NewStaticRankConfigHolder wraps a fixed ladder without file watching.
func NewStaticRankConfigHolder(cfg RankConfig) *RankConfigHolder {
	holder := &RankConfigHolder{}
	holder.current.Store(normalizeRankConfig(cfg))
	return holder
}

func NewRankConfigHolder() (*RankConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("ranks")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/zalci/config")
	v.AddConfigPath("/etc/zalci")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ZALCI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// no ranks.yml, serve the built-in ladder
		return NewStaticRankConfigHolder(DefaultRankConfig()), nil
	}

	var cfg RankConfig
	if err := v.UnmarshalKey("credits", &cfg); err != nil {
		return nil, err
	}
	if err := validateRankConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RankConfigHolder{}
	holder.current.Store(normalizeRankConfig(cfg))

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RankConfig
		if err := v.UnmarshalKey("credits", &updated); err != nil {
			log.Printf("[rank-config] reload failed: %v", err)
			return
		}
		if err := validateRankConfig(updated); err != nil {
			log.Printf("[rank-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(normalizeRankConfig(updated))
		log.Printf("[rank-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *RankConfigHolder) Get() RankConfig {
	return h.current.Load().(RankConfig)
}

// RankFor returns the rank reached with the given download count.
func (c RankConfig) RankFor(downloads int) Rank {
	for _, rank := range c.Ranks {
		if downloads >= rank.MinDownloads {
			return rank
		}
	}
	return c.Ranks[len(c.Ranks)-1]
}

// RankByBadge looks a rank up by its badge label.
func (c RankConfig) RankByBadge(badge string) (Rank, bool) {
	for _, rank := range c.Ranks {
		if rank.Badge == badge {
			return rank, true
		}
	}
	return Rank{}, false
}

func normalizeRankConfig(cfg RankConfig) RankConfig {
	ranks := make([]Rank, len(cfg.Ranks))
	copy(ranks, cfg.Ranks)
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].MinDownloads > ranks[j].MinDownloads
	})
	return RankConfig{Ranks: ranks}
}

func validateRankConfig(cfg RankConfig) error {
	if len(cfg.Ranks) == 0 {
		return errors.New("credits.ranks cannot be empty")
	}
	hasFloor := false
	for _, rank := range cfg.Ranks {
		if strings.TrimSpace(rank.Badge) == "" {
			return errors.New("credits.ranks badge is required")
		}
		if rank.MinDownloads < 0 || rank.MaxCredits < 0 {
			return errors.New("credits.ranks values must be non-negative")
		}
		if rank.MinDownloads == 0 {
			hasFloor = true
		}
	}
	if !hasFloor {
		return errors.New("credits.ranks needs a rank with minDownloads 0")
	}
	return nil
}
