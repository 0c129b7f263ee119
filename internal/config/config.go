// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config locates the toolchain executables and working directories. The
// environment variable names mirror the original Makefile so existing CI
// setups keep working unchanged.
type Config struct {
	LamaPath   string `yaml:"lama_path"`   // LAMA_PATH
	Lamac      string `yaml:"lamac"`       // LAMAC, the compiler / reference implementation
	RuntimeDir string `yaml:"runtime_dir"` // RUNTIME_DIR
	StdLibDir  string `yaml:"stdlib_dir"`  // STD_LIB_DIR
	Lamarik    string `yaml:"lamarik"`     // LAMARIK, the target interpreter
	DumpDir    string `yaml:"dump_dir"`    // where compiled .bc artifacts are moved
	FailureLog string `yaml:"failure_log"`
}

// Load builds the configuration. Precedence, lowest to highest: built-in
// defaults, the optional YAML file, environment variables (a .env file in
// the working directory is loaded best-effort first).
func Load(file string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrideEnv(&c.LamaPath, "LAMA_PATH")
	overrideEnv(&c.Lamac, "LAMAC")
	overrideEnv(&c.RuntimeDir, "RUNTIME_DIR")
	overrideEnv(&c.StdLibDir, "STD_LIB_DIR")
	overrideEnv(&c.Lamarik, "LAMARIK")
}

func (c *Config) setDefaults() {
	if c.LamaPath == "" {
		c.LamaPath = filepath.Join("..", "Lama")
	}
	if c.Lamac == "" {
		c.Lamac = filepath.Join(c.LamaPath, "src", "lamac")
	}
	if c.RuntimeDir == "" {
		c.RuntimeDir = filepath.Join(c.LamaPath, "runtime")
	}
	if c.StdLibDir == "" {
		c.StdLibDir = filepath.Join(c.LamaPath, "stdlib", "x64")
	}
	if c.Lamarik == "" {
		c.Lamarik = filepath.Join(".", "target", "release", "lama-rs")
	}
	if c.DumpDir == "" {
		c.DumpDir = "dump"
	}
	if c.FailureLog == "" {
		c.FailureLog = "failures.log"
	}
}

func overrideEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}
