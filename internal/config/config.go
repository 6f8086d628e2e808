// Package config loads revlog configuration from a CUE file.
//
// A configuration file is unified with the embedded #Config schema, so
// omitted fields take their schema defaults and constraint violations are
// reported with CUE positions. Example:
//
//	database: "/var/lib/revlog/wiki.db"
//	log: level: "debug"
//	max_range_limit: 200
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource []byte

// Config is the decoded configuration.
type Config struct {
	Database      string `json:"database"`
	Log           Log    `json:"log"`
	SiteID        int64  `json:"site_id"`
	MaxRangeLimit uint64 `json:"max_range_limit"`
	MaxNameBytes  int    `json:"max_name_bytes"`
}

// Log configures the logger.
type Log struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

// Default returns the schema defaults.
func Default() (Config, error) {
	return decode(nil, "")
}

// Load reads and validates the CUE file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return decode(data, path)
}

// Parse validates CUE source held in memory. filename is used in error
// positions only.
func Parse(data []byte, filename string) (Config, error) {
	return decode(data, filename)
}

func decode(data []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if len(data) > 0 {
		file := ctx.CompileBytes(data, cue.Filename(filename))
		if err := file.Err(); err != nil {
			return Config{}, fmt.Errorf("compile config: %s", errors.Details(err, nil))
		}
		v = v.Unify(file)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("invalid config: %s", errors.Details(err, nil))
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
