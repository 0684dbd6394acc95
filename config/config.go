package config

import (
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAPIURL = "https://automatic-irrigation-server.onrender.com"

type AppConfig struct {
	Port              string
	Timezone          string
	DBPath            string
	APIURL            string
	FeedURL           string
	NoticeRetention   time.Duration
	HousekeepingEvery time.Duration
}

func Load() AppConfig {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("[cfg] No .env file found or error loading: %v", err)
	}

	get := func(k, def string) string {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
		return def
	}
	dur := func(k string, def time.Duration) time.Duration {
		v := get(k, "")
		if v == "" {
			return def
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Printf("[cfg] ignoring %s=%q: %v", k, v, err)
			return def
		}
		return d
	}

	apiURL := strings.TrimRight(get("IRRIGATION_API_URL", DefaultAPIURL), "/")
	cfg := AppConfig{
		Port:              get("PORT", "8080"),
		Timezone:          get("TZ", "America/Sao_Paulo"),
		DBPath:            get("DB_PATH", ":memory:"),
		APIURL:            apiURL,
		FeedURL:           get("IRRIGATION_WS_URL", FeedURLFor(apiURL)),
		NoticeRetention:   dur("NOTICE_RETENTION", 24*time.Hour),
		HousekeepingEvery: dur("HOUSEKEEPING_EVERY", 10*time.Minute),
	}
	log.Printf("[cfg] %+v", cfg)
	return cfg
}

// Location resolves Timezone, falling back to the process local zone.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("[cfg] unknown TZ %q, using local: %v", c.Timezone, err)
		return time.Local
	}
	return loc
}

// FeedURLFor derives the push endpoint from the REST base URL.
func FeedURLFor(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = ""
	return u.String()
}
