package config

import (
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/labelwise/labelwise/pkg/errors"
)

// envPrefix namespaces environment overrides: server.port becomes
// LABELWISE_SERVER_PORT.
const envPrefix = "LABELWISE"

// Loader reads, validates and watches the configuration. It is safe for
// concurrent use; Current returns the most recently validated snapshot.
type Loader struct {
	v  *viper.Viper
	mu sync.RWMutex

	current   *Config
	onChange  []func(*Config)
	watchOnce sync.Once
}

// NewLoader builds a Loader rooted at the optional config file path. An
// empty path means defaults plus environment only.
func NewLoader(path string) (*Loader, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Seed viper with the full default tree so environment overrides bind
	// even without a config file.
	var defaults map[string]any
	if err := mapstructure.Decode(Defaults(), &defaults); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigError, "encoding default configuration")
	}
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.CodeConfigError, "reading config file")
		}
	}

	l := &Loader{v: v}
	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

func (l *Loader) decode() (*Config, error) {
	cfg := Defaults()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigError, "decoding configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigError, "validating configuration")
	}
	return cfg, nil
}

// Current returns the latest validated configuration snapshot. Callers must
// not mutate it.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers fn to run after each successful hot reload. Register
// before calling Watch.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch begins watching the config file for edits. A reload that fails
// validation is discarded and the previous snapshot stays active; notify
// receives the error either way (nil on success) and may be nil.
func (l *Loader) Watch(notify func(error)) {
	l.watchOnce.Do(func() {
		l.v.OnConfigChange(func(fsnotify.Event) {
			cfg, err := l.decode()
			if err == nil {
				l.mu.Lock()
				l.current = cfg
				callbacks := append([]func(*Config){}, l.onChange...)
				l.mu.Unlock()
				for _, fn := range callbacks {
					fn(cfg)
				}
			}
			if notify != nil {
				notify(err)
			}
		})
		l.v.WatchConfig()
	})
}
