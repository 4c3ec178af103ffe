package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AppName   = "tailr"
	EnvPrefix = "TAILR"
)

type Config struct {
	Browser   BrowserConfig   `mapstructure:"browser"`
	Detection DetectionConfig `mapstructure:"detection"`
	Network   NetworkConfig   `mapstructure:"network"`
	Parallel  ParallelConfig  `mapstructure:"parallel"`
	Output    OutputConfig    `mapstructure:"output"`
	Tailor    TailorConfig    `mapstructure:"tailor"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type BrowserConfig struct {
	Default  string `mapstructure:"default"`
	Cookies  bool   `mapstructure:"cookies"`
	Headless bool   `mapstructure:"headless"`
}

type DetectionConfig struct {
	Render                string   `mapstructure:"render"`
	JSTimeout             int      `mapstructure:"js_timeout"`
	WaitForSelector       string   `mapstructure:"wait_for_selector"`
	RetryBudget           int      `mapstructure:"retry_budget"`
	RetryDelayMS          int      `mapstructure:"retry_delay_ms"`
	MinRuleDescription    int      `mapstructure:"min_rule_description"`
	MinDescription        int      `mapstructure:"min_description"`
	MinGenericDescription int      `mapstructure:"min_generic_description"`
	RoleKeywords          []string `mapstructure:"role_keywords"`
	SectionKeywords       []string `mapstructure:"section_keywords"`
}

type NetworkConfig struct {
	Timeout      int    `mapstructure:"timeout"`
	UserAgent    string `mapstructure:"user_agent"`
	BrowserAgent string `mapstructure:"browser_agent"`
}

type ParallelConfig struct {
	MaxConcurrency int     `mapstructure:"max_concurrency"`
	RequestsPerSec float64 `mapstructure:"requests_per_sec"`
	Burst          int     `mapstructure:"burst"`
}

type OutputConfig struct {
	DefaultFormat string `mapstructure:"default_format"`
	LineWidth     int    `mapstructure:"line_width"`
}

type TailorConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Timeout        int    `mapstructure:"timeout"`
	KeyringAccount string `mapstructure:"keyring_account"`
}

type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Verbose bool `mapstructure:"verbose"`
	Quiet   bool `mapstructure:"quiet"`
}

func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Default:  "auto",
			Cookies:  true,
			Headless: true,
		},
		Detection: DetectionConfig{
			Render:                "auto",
			JSTimeout:             20,
			RetryBudget:           3,
			RetryDelayMS:          1000,
			MinRuleDescription:    100,
			MinDescription:        50,
			MinGenericDescription: 200,
			RoleKeywords:          []string{"engineer", "developer", "manager", "designer", "analyst"},
			SectionKeywords:       []string{"responsibilities", "qualifications", "requirements", "experience", "skills"},
		},
		Network: NetworkConfig{
			Timeout:      30,
			BrowserAgent: "auto",
		},
		Parallel: ParallelConfig{
			MaxConcurrency: 4,
			RequestsPerSec: 1,
			Burst:          2,
		},
		Output: OutputConfig{
			DefaultFormat: "text",
			LineWidth:     80,
		},
		Tailor: TailorConfig{
			BaseURL:        "http://localhost:8000",
			Timeout:        120,
			KeyringAccount: "default",
		},
		Storage: StorageConfig{
			DataDir: "",
		},
		Server: ServerConfig{
			Addr:           ":8787",
			AllowedOrigins: []string{"chrome-extension://*", "moz-extension://*"},
		},
	}
}

// Dir returns $XDG_CONFIG_HOME/tailr, falling back to ~/.config/tailr.
func Dir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error finding home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppName), nil
}

// DefaultPath is the config file used when --config is not given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir resolves where the résumé slot lives: the configured directory,
// else $XDG_DATA_HOME/tailr, else ~/.local/share/tailr.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return expandHome(c.Storage.DataDir)
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error finding home directory: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, AppName), nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// LoadDotEnv loads .env from the working directory if present. Variables
// already set in the environment win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading .env: %w", err)
	}
	return nil
}

// Load reads configFile, or the default path when it is empty, over the
// defaults. A missing default file is not an error. Environment variables
// such as TAILR_TAILOR_BASE_URL override file values.
func Load(configFile string) (*Config, error) {
	cfg := Default()
	v := viper.New()
	setDefaults(v, cfg)

	v.SetConfigType("toml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return cfg, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys the
// file does not mention.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("browser.default", cfg.Browser.Default)
	v.SetDefault("browser.cookies", cfg.Browser.Cookies)
	v.SetDefault("browser.headless", cfg.Browser.Headless)

	v.SetDefault("detection.render", cfg.Detection.Render)
	v.SetDefault("detection.js_timeout", cfg.Detection.JSTimeout)
	v.SetDefault("detection.wait_for_selector", cfg.Detection.WaitForSelector)
	v.SetDefault("detection.retry_budget", cfg.Detection.RetryBudget)
	v.SetDefault("detection.retry_delay_ms", cfg.Detection.RetryDelayMS)
	v.SetDefault("detection.min_rule_description", cfg.Detection.MinRuleDescription)
	v.SetDefault("detection.min_description", cfg.Detection.MinDescription)
	v.SetDefault("detection.min_generic_description", cfg.Detection.MinGenericDescription)
	v.SetDefault("detection.role_keywords", cfg.Detection.RoleKeywords)
	v.SetDefault("detection.section_keywords", cfg.Detection.SectionKeywords)

	v.SetDefault("network.timeout", cfg.Network.Timeout)
	v.SetDefault("network.user_agent", cfg.Network.UserAgent)
	v.SetDefault("network.browser_agent", cfg.Network.BrowserAgent)

	v.SetDefault("parallel.max_concurrency", cfg.Parallel.MaxConcurrency)
	v.SetDefault("parallel.requests_per_sec", cfg.Parallel.RequestsPerSec)
	v.SetDefault("parallel.burst", cfg.Parallel.Burst)

	v.SetDefault("output.default_format", cfg.Output.DefaultFormat)
	v.SetDefault("output.line_width", cfg.Output.LineWidth)

	v.SetDefault("tailor.base_url", cfg.Tailor.BaseURL)
	v.SetDefault("tailor.timeout", cfg.Tailor.Timeout)
	v.SetDefault("tailor.keyring_account", cfg.Tailor.KeyringAccount)

	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)

	v.SetDefault("logging.verbose", cfg.Logging.Verbose)
	v.SetDefault("logging.quiet", cfg.Logging.Quiet)
}

func (c *Config) CreateExampleConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	exampleContent := `# tailr configuration file

[browser]
default = "auto"        # cookie source: auto, chrome, firefox, safari, zen
cookies = true          # send browser cookies so logged-in boards show the full posting
headless = true

[detection]
render = "auto"         # auto, always, never
js_timeout = 20         # seconds allowed for page load in the browser
wait_for_selector = ""  # CSS selector to wait for after navigation (optional)
retry_budget = 3        # attempts before the final one
retry_delay_ms = 1000   # wait after each empty attempt
min_rule_description = 100
min_description = 50
min_generic_description = 200
role_keywords = ["engineer", "developer", "manager", "designer", "analyst"]
section_keywords = ["responsibilities", "qualifications", "requirements", "experience", "skills"]

[network]
timeout = 30            # seconds
user_agent = ""         # custom user agent (empty = rotate)
browser_agent = "auto"  # auto, chrome, firefox, safari, edge

[parallel]
max_concurrency = 4
requests_per_sec = 1.0  # per host
burst = 2

[output]
default_format = "text" # text, markdown, json
line_width = 80         # wrap descriptions in text output (0 = unlimited)

[tailor]
base_url = "http://localhost:8000"
timeout = 120           # seconds
keyring_account = "default"

[storage]
data_dir = ""           # empty = $XDG_DATA_HOME/tailr

[server]
addr = ":8787"
allowed_origins = ["chrome-extension://*", "moz-extension://*"]

[logging]
verbose = false
quiet = false
`

	return os.WriteFile(configPath, []byte(exampleContent), 0o644)
}
