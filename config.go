package linhash

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/tuannm99/linhash/internal/storage"
)

// Config is the typed, YAML-loadable configuration for an on-disk map.
type Config struct {
	Storage struct {
		DataFile            string  `mapstructure:"data_file"`
		FSMFile             string  `mapstructure:"fsm_file"`
		InitialSize         uint32  `mapstructure:"initial_size"`
		LoadFactorThreshold float64 `mapstructure:"load_factor_threshold"`
		// PageSize exists only so a config file that tries to override it
		// fails LoadConfig's validation instead of silently producing a
		// file incompatible with the on-disk format's fixed 256-byte pages.
		PageSize int `mapstructure:"page_size"`
	} `mapstructure:"storage"`
}

// LoadConfig reads a YAML config file at path into a Config.
// Environment variables are not consulted.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("storage.initial_size", 1)
	v.SetDefault("storage.load_factor_threshold", 0.8)
	v.SetDefault("storage.page_size", storage.PageSize)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Storage.PageSize != storage.PageSize {
		return nil, fmt.Errorf("storage.page_size is fixed at %d by the on-disk format, got %d", storage.PageSize, cfg.Storage.PageSize)
	}
	return &cfg, nil
}

// OpenFile opens (or creates) the map described by cfg: it takes an
// advisory single-writer lock on the data file, opens both file-backed
// channels, and calls Open or OpenNew depending on whether the data
// file is empty.
func OpenFile(cfg Config) (*Map, error) {
	lock, err := lockFile(cfg.Storage.DataFile)
	if err != nil {
		return nil, err
	}

	dataCh, err := storage.OpenFileChannel(cfg.Storage.DataFile)
	if err != nil {
		_ = lock.unlock()
		return nil, err
	}
	fsmCh, err := storage.OpenFileChannel(cfg.Storage.FSMFile)
	if err != nil {
		_ = dataCh.Close()
		_ = lock.unlock()
		return nil, err
	}

	size, err := dataCh.Size()
	if err != nil {
		_ = dataCh.Close()
		_ = fsmCh.Close()
		_ = lock.unlock()
		return nil, err
	}

	var m *Map
	if size == 0 {
		m, err = OpenNew(dataCh, fsmCh, cfg.Storage.InitialSize)
	} else {
		m, err = Open(dataCh, fsmCh)
	}
	if err != nil {
		_ = dataCh.Close()
		_ = fsmCh.Close()
		_ = lock.unlock()
		return nil, err
	}

	m.lock = lock
	return m, nil
}
