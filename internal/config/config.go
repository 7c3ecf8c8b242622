package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/timmy/figureimg/internal/domain"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Search  SearchConfig  `mapstructure:"search"`
	Lookup  LookupConfig  `mapstructure:"lookup"`
	Ranking RankingConfig `mapstructure:"ranking"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// HTTPConfig configures the client shared by every source adapter.
type HTTPConfig struct {
	UserAgent     string        `mapstructure:"user_agent"`
	Timeout       time.Duration `mapstructure:"timeout"`
	SearchTimeout time.Duration `mapstructure:"search_timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

type CatalogConfig struct {
	TTL         time.Duration          `mapstructure:"ttl"`
	WarmOnStart bool                   `mapstructure:"warm_on_start"`
	Catalogs    []domain.CatalogSource `mapstructure:"catalogs"`
}

type SearchConfig struct {
	Workers    int `mapstructure:"workers"`
	MaxResults int `mapstructure:"max_results"`
	// Sources enables adapters by id. Missing ids are disabled.
	Sources map[string]bool `mapstructure:"sources"`
}

// Enabled reports whether the adapter with the given id is switched on.
func (s SearchConfig) Enabled(id string) bool {
	return s.Sources[strings.ToLower(id)]
}

type LookupConfig struct {
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

type RankingConfig struct {
	// RulesPath overrides the built-in ranking rules when set.
	RulesPath string `mapstructure:"rules_path"`
}

// DefaultCatalogs are the visual guides served when no catalog list is configured.
func DefaultCatalogs() []domain.CatalogSource {
	const base = "https://www.actionfigure411.com/"
	return []domain.CatalogSource{
		{ID: "multiverse", URL: base + "dc/multiverse-visual-guide.php"},
		{ID: "page_punchers", URL: base + "dc/page-punchers-visual-guide.php"},
		{ID: "retro_66", URL: base + "dc/retro-66-visual-guide.php"},
		{ID: "super_powers", URL: base + "dc/mcfarlane-super-powers-visual-guide.php"},
		{ID: "batman_animated", URL: base + "dc/batman-animated-series-visual-guide.php"},
		{ID: "motu_origins", URL: base + "masters-of-the-universe/origins-visual-guide.php"},
		{ID: "motu_masterverse", URL: base + "masters-of-the-universe/masterverse-visual-guide.php"},
	}
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 5050)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.search_timeout", 15*time.Second)
	v.SetDefault("http.rate_per_second", 2.0)
	v.SetDefault("http.burst", 4)
	v.SetDefault("catalog.ttl", time.Hour)
	v.SetDefault("catalog.warm_on_start", true)
	v.SetDefault("search.workers", 4)
	v.SetDefault("search.max_results", 30)
	v.SetDefault("search.sources", map[string]interface{}{
		"actionfigure411": true,
		"google":          true,
		"legendsverse":    false,
	})
	v.SetDefault("lookup.allowed_hosts", []string{"https://www.actionfigure411.com/"})
	v.SetDefault("ranking.rules_path", "")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.BindEnv("server.port", "PORT")
	v.BindEnv("http.user_agent", "FIGUREIMG_USER_AGENT")
	v.BindEnv("ranking.rules_path", "RANKING_RULES_PATH")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(cfg.Catalog.Catalogs) == 0 {
		cfg.Catalog.Catalogs = DefaultCatalogs()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	seen := make(map[string]bool, len(c.Catalog.Catalogs))
	for i, cat := range c.Catalog.Catalogs {
		if cat.ID == "" || cat.URL == "" {
			return fmt.Errorf("catalog.catalogs[%d] needs both id and url", i)
		}
		if seen[cat.ID] {
			return fmt.Errorf("catalog.catalogs: duplicate id %q", cat.ID)
		}
		seen[cat.ID] = true
	}
	if c.Search.Workers <= 0 {
		return fmt.Errorf("search.workers must be positive, got %d", c.Search.Workers)
	}
	return nil
}
