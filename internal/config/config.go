// Package config loads the worker configuration from environment
// variables and an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jonesrussell/cinefeed/internal/logger"
)

const (
	// DateModeToday derives the run date from the configured timezone.
	DateModeToday = "today"
	// DateModeFixed pins the run date to FIXED_DATE.
	DateModeFixed = "fixed"
)

const (
	defaultBaseURL   = "https://cineplexx.me"
	defaultLocation  = "0"
	defaultTimezone  = "Europe/Podgorica"
	defaultOutDir    = "./out"
	defaultRSSName   = "cineplexx_rss.xml"
	defaultFeedTitle = "Cineplexx repertoire"

	defaultEventsLimit = 150
	defaultMaxEvents   = 5000
	defaultPostLimit   = 5

	defaultFilmTTLSeconds        = 604800
	defaultNegativeTTLSeconds    = 3600
	defaultScheduleTTLSeconds    = 21600
	defaultDescConcurrency       = 4
	defaultScheduleConcurrency   = 4
	defaultLookaheadDays         = 14
	defaultMaxSessionsPerMovie   = 50
	defaultMaxDatesPerMovie      = 10
	defaultCatalogIntervalSecond = 3600
	defaultChannelIntervalSecond = 1800
)

// Config carries every runtime knob of the worker.
type Config struct {
	BaseURL   string
	Location  string
	DateMode  string
	FixedDate string
	Timezone  string

	OutDir           string
	RSSFilename      string
	EventsLimit      int
	MaxEventsInState int

	TelegramChannels  []string
	TelegramPostLimit int

	RedisAddress string
	CacheEnabled bool

	FilmCacheTTL           time.Duration
	FilmCacheNegativeTTL   time.Duration
	DescriptionConcurrency int

	ScheduleEnabled             bool
	ScheduleMaxDaysAhead        int
	ScheduleMaxSessionsPerMovie int
	ScheduleMaxDatesPerMovie    int
	ScheduleConcurrency         int
	ScheduleCacheTTL            time.Duration
	ScheduleCacheNegativeTTL    time.Duration

	// A non-positive interval disables that job.
	CatalogSyncInterval time.Duration
	ChannelSyncInterval time.Duration

	FeedTitle       string
	FeedLink        string
	FeedDescription string

	LogLevel string
}

// CatalogJobEnabled reports whether the catalog-sync cadence runs.
func (c *Config) CatalogJobEnabled() bool {
	return c.CatalogSyncInterval > 0
}

// TelegramJobEnabled reports whether the channel-sync cadence runs.
func (c *Config) TelegramJobEnabled() bool {
	return c.ChannelSyncInterval > 0 && len(c.TelegramChannels) > 0
}

// Load reads configuration from the environment, loading a .env file
// first when one is present. Out-of-range values are replaced by their
// defaults with a warning, never a failure.
func Load(log logger.Interface) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("bind environment variables: %w", err)
	}
	return FromViper(v, log), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.base_url", defaultBaseURL)
	v.SetDefault("catalog.location", defaultLocation)
	v.SetDefault("catalog.date_mode", DateModeToday)
	v.SetDefault("catalog.fixed_date", "")
	v.SetDefault("catalog.timezone", defaultTimezone)

	v.SetDefault("output.dir", defaultOutDir)
	v.SetDefault("output.rss_filename", defaultRSSName)
	v.SetDefault("output.events_limit", defaultEventsLimit)
	v.SetDefault("output.max_events_in_state", defaultMaxEvents)

	v.SetDefault("telegram.channels", "")
	v.SetDefault("telegram.post_limit", defaultPostLimit)

	v.SetDefault("cache.redis_address", "")
	v.SetDefault("cache.enabled", "")

	v.SetDefault("film.cache_ttl_seconds", defaultFilmTTLSeconds)
	v.SetDefault("film.cache_negative_ttl_seconds", defaultNegativeTTLSeconds)
	v.SetDefault("film.concurrency", defaultDescConcurrency)

	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.max_days_ahead", defaultLookaheadDays)
	v.SetDefault("schedule.max_sessions_per_movie", defaultMaxSessionsPerMovie)
	v.SetDefault("schedule.max_dates_per_movie", defaultMaxDatesPerMovie)
	v.SetDefault("schedule.concurrency", defaultScheduleConcurrency)
	v.SetDefault("schedule.cache_ttl_seconds", defaultScheduleTTLSeconds)
	v.SetDefault("schedule.cache_negative_ttl_seconds", defaultNegativeTTLSeconds)

	v.SetDefault("sync.catalog_interval_seconds", defaultCatalogIntervalSecond)
	v.SetDefault("sync.channel_interval_seconds", defaultChannelIntervalSecond)

	v.SetDefault("feed.title", defaultFeedTitle)
	v.SetDefault("feed.link", defaultBaseURL)
	v.SetDefault("feed.description", "Now showing at Cineplexx")

	v.SetDefault("logger.level", "info")
}

func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"catalog.base_url":   "BASE_URL",
		"catalog.location":   "LOCATION",
		"catalog.date_mode":  "DATE_MODE",
		"catalog.fixed_date": "FIXED_DATE",
		"catalog.timezone":   "TIMEZONE",

		"output.dir":                 "OUT_DIR",
		"output.rss_filename":        "RSS_FILENAME",
		"output.events_limit":        "EVENTS_LIMIT",
		"output.max_events_in_state": "MAX_EVENTS_IN_STATE",

		"telegram.channels":   "TELEGRAM_CHANNELS",
		"telegram.post_limit": "TELEGRAM_POST_LIMIT",

		"cache.redis_address": "REDIS_ADDRESS",
		"cache.enabled":       "CACHE_ENABLED",

		"film.cache_ttl_seconds":          "FILM_CACHE_TTL_SECONDS",
		"film.cache_negative_ttl_seconds": "CACHE_NEGATIVE_TTL_SECONDS",
		"film.concurrency":                "MAX_FILM_PAGES_CONCURRENCY",

		"schedule.enabled":                    "SCHEDULE_ENABLED",
		"schedule.max_days_ahead":             "SCHEDULE_MAX_DAYS_AHEAD",
		"schedule.max_sessions_per_movie":     "SCHEDULE_MAX_SESSIONS_PER_MOVIE",
		"schedule.max_dates_per_movie":        "SCHEDULE_MAX_DATES_PER_MOVIE",
		"schedule.concurrency":                "SCHEDULE_CONCURRENCY",
		"schedule.cache_ttl_seconds":          "SCHEDULE_CACHE_TTL_SECONDS",
		"schedule.cache_negative_ttl_seconds": "SCHEDULE_CACHE_NEGATIVE_TTL_SECONDS",

		"sync.catalog_interval_seconds": "CATALOG_SYNC_INTERVAL_SECONDS",
		"sync.channel_interval_seconds": "CHANNEL_SYNC_INTERVAL_SECONDS",

		"feed.title":       "FEED_TITLE",
		"feed.link":        "FEED_LINK",
		"feed.description": "FEED_DESCRIPTION",

		"logger.level": "LOG_LEVEL",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

// FromViper builds a Config from an already-populated viper instance.
func FromViper(v *viper.Viper, log logger.Interface) *Config {
	redisAddress := strings.TrimSpace(v.GetString("cache.redis_address"))
	cacheEnabled := redisAddress != ""
	if raw := strings.TrimSpace(v.GetString("cache.enabled")); raw != "" {
		cacheEnabled = boolSetting(v, "cache.enabled", redisAddress != "", log)
	}

	return &Config{
		BaseURL:   strings.TrimRight(v.GetString("catalog.base_url"), "/"),
		Location:  v.GetString("catalog.location"),
		DateMode:  dateModeSetting(v, log),
		FixedDate: strings.TrimSpace(v.GetString("catalog.fixed_date")),
		Timezone:  v.GetString("catalog.timezone"),

		OutDir:           v.GetString("output.dir"),
		RSSFilename:      v.GetString("output.rss_filename"),
		EventsLimit:      intSetting(v, "output.events_limit", defaultEventsLimit, 0, log),
		MaxEventsInState: intSetting(v, "output.max_events_in_state", defaultMaxEvents, 1, log),

		TelegramChannels:  splitList(v.GetString("telegram.channels")),
		TelegramPostLimit: intSetting(v, "telegram.post_limit", defaultPostLimit, 1, log),

		RedisAddress: redisAddress,
		CacheEnabled: cacheEnabled,

		FilmCacheTTL:           secondsSetting(v, "film.cache_ttl_seconds", defaultFilmTTLSeconds, log),
		FilmCacheNegativeTTL:   secondsSetting(v, "film.cache_negative_ttl_seconds", defaultNegativeTTLSeconds, log),
		DescriptionConcurrency: intSetting(v, "film.concurrency", defaultDescConcurrency, 1, log),

		ScheduleEnabled:             v.GetBool("schedule.enabled"),
		ScheduleMaxDaysAhead:        intSetting(v, "schedule.max_days_ahead", defaultLookaheadDays, 1, log),
		ScheduleMaxSessionsPerMovie: intSetting(v, "schedule.max_sessions_per_movie", defaultMaxSessionsPerMovie, 1, log),
		ScheduleMaxDatesPerMovie:    intSetting(v, "schedule.max_dates_per_movie", defaultMaxDatesPerMovie, 1, log),
		ScheduleConcurrency:         intSetting(v, "schedule.concurrency", defaultScheduleConcurrency, 1, log),
		ScheduleCacheTTL:            secondsSetting(v, "schedule.cache_ttl_seconds", defaultScheduleTTLSeconds, log),
		ScheduleCacheNegativeTTL:    secondsSetting(v, "schedule.cache_negative_ttl_seconds", defaultNegativeTTLSeconds, log),

		CatalogSyncInterval: time.Duration(v.GetInt("sync.catalog_interval_seconds")) * time.Second,
		ChannelSyncInterval: time.Duration(v.GetInt("sync.channel_interval_seconds")) * time.Second,

		FeedTitle:       v.GetString("feed.title"),
		FeedLink:        v.GetString("feed.link"),
		FeedDescription: v.GetString("feed.description"),

		LogLevel: v.GetString("logger.level"),
	}
}

// intSetting returns the configured value, falling back to def with a
// warning when the value is below minimum.
func intSetting(v *viper.Viper, key string, def, minimum int, log logger.Interface) int {
	val := v.GetInt(key)
	if val < minimum {
		log.Warn("invalid config value, using default", "key", key, "value", v.GetString(key), "default", def)
		return def
	}
	return val
}

func secondsSetting(v *viper.Viper, key string, defSeconds int, log logger.Interface) time.Duration {
	return time.Duration(intSetting(v, key, defSeconds, 1, log)) * time.Second
}

func boolSetting(v *viper.Viper, key string, def bool, log logger.Interface) bool {
	switch strings.ToLower(strings.TrimSpace(v.GetString(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		log.Warn("invalid config value, using default", "key", key, "value", v.GetString(key), "default", def)
		return def
	}
}

func dateModeSetting(v *viper.Viper, log logger.Interface) string {
	mode := strings.ToLower(strings.TrimSpace(v.GetString("catalog.date_mode")))
	switch mode {
	case DateModeToday, DateModeFixed:
		return mode
	default:
		log.Warn("invalid config value, using default", "key", "catalog.date_mode", "value", mode, "default", DateModeToday)
		return DateModeToday
	}
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
