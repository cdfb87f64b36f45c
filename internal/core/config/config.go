package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type CacheCfg struct {
	Size      int
	TTL       time.Duration
	OpTimeout time.Duration
	RedisAddr string
}

type ViewEventsCfg struct {
	Enabled bool
	Brokers []string
	Topic   string
	Queue   int
}

type Config struct {
	Addr         string
	LogLevel     string
	LogConsole   bool
	LogSampleN   int
	DefaultZoom  int
	DefaultLat   float64
	DefaultLng   float64
	StartupDelay time.Duration
	SessionMax   int
	LocateRPS    float64
	LocateBurst  int
	Cache        CacheCfg
	ViewEvents   ViewEventsCfg
}

func FromEnv() Config {
	return Config{
		Addr:         getenv("ADDR", ":8090"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogConsole:   getbool("LOG_CONSOLE", false),
		LogSampleN:   getint("LOG_SAMPLE_N", 0),
		DefaultZoom:  getint("DEFAULT_ZOOM", 5),
		DefaultLat:   getfloat("DEFAULT_LAT", 52),
		DefaultLng:   getfloat("DEFAULT_LNG", 5.1),
		StartupDelay: getduration("STARTUP_DELAY", 50*time.Millisecond),
		SessionMax:   getint("SESSION_MAX", 1024),
		LocateRPS:    getfloat("LOCATE_RPS", 20),
		LocateBurst:  getint("LOCATE_BURST", 40),
		Cache: CacheCfg{
			Size:      getint("CELLSET_CACHE_SIZE", 4096),
			TTL:       getduration("CELLSET_CACHE_TTL", 24*time.Hour),
			OpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
			RedisAddr: getenv("REDIS_ADDR", ""),
		},
		ViewEvents: ViewEventsCfg{
			Enabled: getbool("VIEW_EVENTS_ENABLED", false),
			Brokers: getlist("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "hexview-view-events"),
			Queue:   getint("VIEW_EVENTS_QUEUE", 1024),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// comma separated, blanks dropped
func getlist(k, def string) []string {
	var out []string
	for p := range strings.SplitSeq(getenv(k, def), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
