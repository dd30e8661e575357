package env

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"infratoolkit/cache"
	"infratoolkit/queue"
)

// newViper builds a viper instance that reads prefix-scoped environment
// variables (and, when APP_ENV is set to any value, a YAML file named
// DefaultEnv under configDir, as returned by GetAppEnv) the same way
// Read/read does, but handed back as plain
// cache.Options / queue.Options values instead of an arbitrary caller
// struct — the cores themselves never import viper.
func newViper(prefix string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()

	if appEnv, err := GetAppEnv(); err == nil && appEnv != "" {
		v.SetConfigName(appEnv)
		v.SetConfigType("yaml")
		v.AddConfigPath(getConfigDirPath(3))
		_ = v.ReadInConfig() // best-effort: env vars alone are a valid configuration
	}

	return v
}

// LoadCacheOptions reads MAX_SIZE, DEFAULT_TTL_SECONDS, ENABLE_METRICS,
// CLEANUP_INTERVAL_SECONDS and MAX_MEMORY_MB under prefix into a
// cache.Options. MaxSize is mandatory and must be > 0.
func LoadCacheOptions(prefix string) (cache.Options, error) {
	v := newViper(prefix)
	v.SetDefault("max_size", 1000)
	v.SetDefault("enable_metrics", true)

	maxSize := v.GetInt("max_size")
	if maxSize <= 0 {
		return cache.Options{}, errors.Errorf("%s_MAX_SIZE must be > 0, got %d", prefix, maxSize)
	}

	return cache.Options{
		MaxSize:         maxSize,
		DefaultTTL:      time.Duration(v.GetInt64("default_ttl_seconds")) * time.Second,
		EnableMetrics:   v.GetBool("enable_metrics"),
		CleanupInterval: time.Duration(v.GetInt64("cleanup_interval_seconds")) * time.Second,
		MaxMemoryMB:     v.GetInt("max_memory_mb"),
	}, nil
}

// LoadQueueOptions reads NAME, QUEUE_TYPE, MAXSIZE, ENABLE_PERSISTENCE,
// STORAGE_PATH, ENABLE_DEAD_LETTER and DEAD_LETTER_MAXSIZE under prefix
// into a queue.Options, matching the configuration surface spec.md §6
// names for the message queue.
func LoadQueueOptions(prefix string) (queue.Options, error) {
	v := newViper(prefix)
	v.SetDefault("name", "default")
	v.SetDefault("queue_type", "fifo")

	return queue.Options{
		Name:              v.GetString("name"),
		QueueType:         queue.Type(v.GetString("queue_type")),
		MaxSize:           v.GetInt("maxsize"),
		EnablePersistence: v.GetBool("enable_persistence"),
		StoragePath:       v.GetString("storage_path"),
		EnableDeadLetter:  v.GetBool("enable_dead_letter"),
		DeadLetterMaxSize: v.GetInt("dead_letter_maxsize"),
	}, nil
}

// rawCacheConfig mirrors cache.Options field-for-field for YAML/mapstructure
// decoding through the teacher's own Read/ReadWithConfigDirPath loaders.
type rawCacheConfig struct {
	MaxSize                int   `mapstructure:"max_size"`
	DefaultTTLSeconds      int64 `mapstructure:"default_ttl_seconds"`
	EnableMetrics          bool  `mapstructure:"enable_metrics"`
	CleanupIntervalSeconds int64 `mapstructure:"cleanup_interval_seconds"`
	MaxMemoryMB            int   `mapstructure:"max_memory_mb"`
}

// rawQueueConfig mirrors queue.Options for the same purpose.
type rawQueueConfig struct {
	Name              string `mapstructure:"name"`
	QueueType         string `mapstructure:"queue_type"`
	MaxSize           int    `mapstructure:"maxsize"`
	EnablePersistence bool   `mapstructure:"enable_persistence"`
	StoragePath       string `mapstructure:"storage_path"`
	EnableDeadLetter  bool   `mapstructure:"enable_dead_letter"`
	DeadLetterMaxSize int    `mapstructure:"dead_letter_maxsize"`
}

// MustLoadCacheOptionsFromFile loads a cache.Options entirely from a YAML
// file in cfgDirPath (named by GetAppEnv: DefaultEnv when APP_ENV is set),
// via the teacher's own
// ReadWithConfigDirPath — which, like the rest of the teacher's config
// package, logs and exits the process if the file is missing or
// malformed. Use this for fail-fast startup configuration; LoadCacheOptions
// above is the best-effort, environment-first alternative.
func MustLoadCacheOptionsFromFile(cfgDirPath string) cache.Options {
	var raw rawCacheConfig
	ReadWithConfigDirPath(&raw, cfgDirPath)
	return cache.Options{
		MaxSize:         raw.MaxSize,
		DefaultTTL:      time.Duration(raw.DefaultTTLSeconds) * time.Second,
		EnableMetrics:   raw.EnableMetrics,
		CleanupInterval: time.Duration(raw.CleanupIntervalSeconds) * time.Second,
		MaxMemoryMB:     raw.MaxMemoryMB,
	}
}

// MustLoadQueueOptionsFromFile is MustLoadCacheOptionsFromFile's queue
// counterpart, also built on ReadWithConfigDirPath.
func MustLoadQueueOptionsFromFile(cfgDirPath string) queue.Options {
	var raw rawQueueConfig
	ReadWithConfigDirPath(&raw, cfgDirPath)
	return queue.Options{
		Name:              raw.Name,
		QueueType:         queue.Type(raw.QueueType),
		MaxSize:           raw.MaxSize,
		EnablePersistence: raw.EnablePersistence,
		StoragePath:       raw.StoragePath,
		EnableDeadLetter:  raw.EnableDeadLetter,
		DeadLetterMaxSize: raw.DeadLetterMaxSize,
	}
}

// MustLoadCacheOptions loads a cache.Options via Read, which derives both
// the config directory (from the caller's own path under cmd/) and the
// YAML file name (from GetAppEnv) automatically. For callers not laid out
// under a cmd/ directory, use MustLoadCacheOptionsFromFile instead.
func MustLoadCacheOptions() cache.Options {
	var raw rawCacheConfig
	Read(&raw)
	return cache.Options{
		MaxSize:         raw.MaxSize,
		DefaultTTL:      time.Duration(raw.DefaultTTLSeconds) * time.Second,
		EnableMetrics:   raw.EnableMetrics,
		CleanupInterval: time.Duration(raw.CleanupIntervalSeconds) * time.Second,
		MaxMemoryMB:     raw.MaxMemoryMB,
	}
}

// MustLoadQueueOptions is MustLoadCacheOptions's queue counterpart.
func MustLoadQueueOptions() queue.Options {
	var raw rawQueueConfig
	Read(&raw)
	return queue.Options{
		Name:              raw.Name,
		QueueType:         queue.Type(raw.QueueType),
		MaxSize:           raw.MaxSize,
		EnablePersistence: raw.EnablePersistence,
		StoragePath:       raw.StoragePath,
		EnableDeadLetter:  raw.EnableDeadLetter,
		DeadLetterMaxSize: raw.DeadLetterMaxSize,
	}
}
