package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/crytic/manganis/registry"
	"github.com/crytic/manganis/utils"
)

const (
	// ConfigFileName is the name of the saved configuration inside the cache directory.
	ConfigFileName = "config.toml"
	// ConfigPathEnv overrides the configuration file path.
	ConfigPathEnv = "MANGANIS_CONFIG_PATH"
	// ServeLocationEnv overrides the saved assets serve location.
	ServeLocationEnv = "MANGANIS_SERVE_LOCATION"
	// BasePathEnv overrides the saved base path.
	BasePathEnv = "MG_BASEPATH"
)

// Config describes where processed assets are served from. It is shared by the declaration step, which embeds served
// paths into binaries, and the materialization step, which writes the files those paths point at.
type Config struct {
	// AssetsServeLocation is the URL prefix (or relative directory) every unique name is appended to.
	AssetsServeLocation string `toml:"assets_serve_location"`

	// BasePath is the path the application is mounted under. It is prepended to absolute serve locations.
	BasePath string `toml:"base_path,omitempty"`
}

// Default returns the configuration used when nothing was saved. Web targets serve from the site root, every other
// target from an assets directory next to the executable.
func Default(goos string) *Config {
	switch goos {
	case "js", "wasip1":
		return &Config{AssetsServeLocation: "/"}
	default:
		return &Config{AssetsServeLocation: "./assets/"}
	}
}

// DefaultPath returns the configuration file path: $MANGANIS_CONFIG_PATH if set, else config.toml in the cache
// directory.
func DefaultPath() (string, error) {
	if path := os.Getenv(ConfigPathEnv); path != "" {
		return filepath.Abs(path)
	}
	cacheDir, err := registry.DefaultCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, ConfigFileName), nil
}

// Load reads the configuration for goos from DefaultPath and applies environment overrides. A configuration that was
// never saved yields the defaults for goos.
func Load(goos string) (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return ReadConfigFromFile(path, goos)
}

// LoadCurrent is Load for the platform manganis runs on, unless GOOS is set in the environment.
func LoadCurrent() (*Config, error) {
	return Load(TargetOS())
}

// TargetOS returns the operating system the build targets: $GOOS if set, else the host.
func TargetOS() string {
	if goos := os.Getenv("GOOS"); goos != "" {
		return goos
	}
	return runtime.GOOS
}

// ReadConfigFromFile reads a configuration file and applies environment overrides. Fields absent from the file keep
// the defaults for goos, and a missing file is not an error.
func ReadConfigFromFile(path string, goos string) (*Config, error) {
	cfg, err := ReadSavedConfig(path, goos)
	if err != nil {
		return nil, err
	}

	cfg.applyEnvironment()
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration '%s': %w", path, err)
	}
	return cfg, nil
}

// ReadSavedConfig reads a configuration file without environment overrides, as it would be saved back.
func ReadSavedConfig(path string, goos string) (*Config, error) {
	cfg := Default(goos)

	b, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if _, err = toml.Decode(string(b), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration '%s': %w", path, err)
		}
	}
	return cfg, nil
}

// WriteToFile writes the configuration to path.
func (c *Config) WriteToFile(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, 0644, func(w io.Writer) error {
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Save writes the configuration to DefaultPath.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.WriteToFile(path)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AssetsServeLocation) == "" {
		return errors.New("assets_serve_location must not be empty")
	}
	if strings.ContainsAny(c.AssetsServeLocation, "\r\n") || strings.ContainsAny(c.BasePath, "\r\n") {
		return errors.New("paths must not contain line breaks")
	}
	return nil
}

// ServeRoot returns the prefix unique names are appended to. It always ends with a slash. An absolute serve location
// is placed under the base path.
func (c *Config) ServeRoot() string {
	location := c.AssetsServeLocation
	if !strings.HasSuffix(location, "/") {
		location += "/"
	}
	if c.BasePath != "" && strings.HasPrefix(location, "/") {
		location = strings.TrimSuffix(NormalizeBasePath(c.BasePath), "/") + location
	}
	return location
}

// NormalizeBasePath makes a base path start and end with a slash. An empty base path is the root.
func NormalizeBasePath(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "/"
	}
	return "/" + path + "/"
}

// applyEnvironment overrides saved settings with the environment.
func (c *Config) applyEnvironment() {
	if location := os.Getenv(ServeLocationEnv); location != "" {
		c.AssetsServeLocation = location
	}
	if basePath, ok := os.LookupEnv(BasePathEnv); ok {
		c.BasePath = basePath
	}
}
