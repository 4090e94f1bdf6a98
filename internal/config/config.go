// Package config loads .pegcrc, an INI file of flag defaults so repeated
// invocations in one project don't have to repeat -receiver-name or the
// output directory on every call.
package config

import (
	"os"

	"gopkg.in/ini.v1"
)

// Config holds the subset of settings .pegcrc may override. Zero values
// mean "not set"; callers overlay them under explicit flag values, never
// over them.
type Config struct {
	ReceiverName    string
	OutputDir       string
	WatchDebounceMS int
}

const defaultPath = ".pegcrc"

// Load reads path (or defaultPath if path is empty) and returns the parsed
// config. A missing default file is not an error; it yields a zero Config.
// A missing file explicitly named via -config IS an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return Config{}, nil
		}
		return Config{}, err
	}

	f, err := ini.Load(path)
	if err != nil {
		return Config{}, err
	}

	sec := f.Section("pegc")
	return Config{
		ReceiverName:    sec.Key("receiver_name").String(),
		OutputDir:       sec.Key("output_dir").String(),
		WatchDebounceMS: sec.Key("watch_debounce_ms").MustInt(0),
	}, nil
}

// Merge overlays non-zero fields of override onto c, returning the result.
// Flag values (override) always win over file defaults (c).
func (c Config) Merge(override Config) Config {
	if override.ReceiverName != "" {
		c.ReceiverName = override.ReceiverName
	}
	if override.OutputDir != "" {
		c.OutputDir = override.OutputDir
	}
	if override.WatchDebounceMS != 0 {
		c.WatchDebounceMS = override.WatchDebounceMS
	}
	return c
}
