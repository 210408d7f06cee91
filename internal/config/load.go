package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nesting levels: FOOTBALLDW_STORAGE__KIND sets storage.kind.
const EnvPrefix = "FOOTBALLDW_"

// DefaultConfigFile is looked up in the working directory when no explicit
// config path is given.
const DefaultConfigFile = "footballdw.yaml"

// flagKeys maps CLI flag names onto config keys. Flags not listed here are
// command-local and never reach the config.
var flagKeys = map[string]string{
	"matches":         "source.matches.path",
	"player-stats":    "source.player_stats.path",
	"storage-kind":    "storage.kind",
	"dsn":             "storage.dsn",
	"log-file":        "log.file",
	"verbose":         "log.verbose",
	"metrics-backend": "metrics.backend",
}

// Loaded is a resolved configuration plus where it came from.
type Loaded struct {
	Pipeline Pipeline
	// File is the config file that was read, empty when none was found.
	File string
}

// Load builds a Pipeline with precedence (lowest to highest):
// defaults < config file < environment < explicitly set flags.
//
// Relative paths coming from the config file resolve against the file's
// directory; paths given as flags resolve against the working directory.
func Load(cfgFile string, flags *pflag.FlagSet) (*Loaded, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", used, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	fromFlags := map[string]bool{}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			fromFlags[key] = true
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var p Pipeline
	if err := k.Unmarshal("", &p); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	baseDir := "."
	if used != "" {
		if abs, err := filepath.Abs(used); err == nil {
			baseDir = filepath.Dir(abs)
		}
	}
	resolve := func(key string, path *string) {
		if fromFlags[key] {
			*path = absFromCWD(*path)
			return
		}
		*path = resolvePathRelativeTo(*path, baseDir)
	}
	resolve("source.matches.path", &p.Source.Matches.Path)
	resolve("source.player_stats.path", &p.Source.PlayerStats.Path)
	resolve("log.file", &p.Log.File)
	if p.Storage.IsFileStore() && p.Storage.DSN != ":memory:" {
		resolve("storage.dsn", &p.Storage.DSN)
	}

	return &Loaded{Pipeline: p, File: used}, nil
}

// findConfigFile returns the explicit path, or the default file when it exists.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "." {
		return path
	}
	return filepath.Join(baseDir, path)
}

func absFromCWD(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
