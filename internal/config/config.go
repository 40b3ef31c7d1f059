package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "FILINGDRIFT_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	dataRootEnv       = "FILINGDRIFT_DATA_ROOT"
	logLevelEnv       = "FILINGDRIFT_LOG_LEVEL"
	userAgentEnv      = "SEC_USER_AGENT"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Data          DataConfig         `yaml:"data"`
	Workers       WorkerConfig       `yaml:"workers"`
	Segmentation  SegmentationConfig `yaml:"segmentation"`
	Similarity    SimilarityConfig   `yaml:"similarity"`
	Storage       StorageConfig      `yaml:"storage"`
	EDGAR         EDGARConfig        `yaml:"edgar"`
	Filers        []FilerConfig      `yaml:"filers"`
	Schedule      ScheduleConfig     `yaml:"schedule"`
	Notifications NotificationConfig `yaml:"notifications"`
	HTTP          HTTPConfig         `yaml:"http"`
}

// LoggingConfig selects the slog level and output format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DataConfig describes the on-disk filing tree.
type DataConfig struct {
	Root      string `yaml:"root"`
	Form      string `yaml:"form"`
	RawFile   string `yaml:"rawFile"`
	CleanFile string `yaml:"cleanFile"`
}

// WorkerConfig bounds the per-stage worker pools.
type WorkerConfig struct {
	Segment  int `yaml:"segment"`
	Compare  int `yaml:"compare"`
	Download int `yaml:"download"`
}

// SegmentationConfig names the round chooser.
type SegmentationConfig struct {
	Strategy string `yaml:"strategy"`
}

// SimilarityConfig lists the sections to compare and the CSV output path.
type SimilarityConfig struct {
	Sections []string `yaml:"sections"`
	Output   string   `yaml:"output"`
}

// StorageConfig selects the optional database sink: "", "postgres" or "sqlite".
type StorageConfig struct {
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	SQLitePath string `yaml:"sqlitePath"`
}

// EDGARConfig wires the archive endpoints used by the fetch stage.
type EDGARConfig struct {
	BaseURL      string `yaml:"baseUrl"`
	UserAgent    string `yaml:"userAgent"`
	Scanner      string `yaml:"scanner"`
	Form         string `yaml:"form"`
	StartDate    string `yaml:"startDate"`
	RequestDelay string `yaml:"requestDelay"`
	PageSize     int    `yaml:"pageSize"`
}

// ScannerName returns the listing strategy, "edgar" by default.
func (e EDGARConfig) ScannerName() string {
	if e.Scanner == "" {
		return "edgar"
	}
	return e.Scanner
}

// StartTime parses StartDate (YYYY-MM-DD); invalid or empty means no lower bound.
func (e EDGARConfig) StartTime() time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(e.StartDate))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Delay parses RequestDelay, defaulting to a polite 150ms between archive requests.
func (e EDGARConfig) Delay() time.Duration {
	d, err := time.ParseDuration(e.RequestDelay)
	if err != nil || d < 0 {
		return 150 * time.Millisecond
	}
	return d
}

// FilerConfig maps a filer id (ticker) to its archive key.
type FilerConfig struct {
	ID  string `yaml:"id"`
	CIK string `yaml:"cik"`
}

// ScheduleConfig defines how often watch mode runs the pipeline.
type ScheduleConfig struct {
	Interval string         `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the schedule timezone string to a time.Location.
func (s ScheduleConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Every parses Interval, falling back to daily runs.
func (s ScheduleConfig) Every() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// FilerIDs lists the configured filer ids in order.
func (c Config) FilerIDs() []string {
	ids := make([]string, 0, len(c.Filers))
	for _, f := range c.Filers {
		ids = append(ids, f.ID)
	}
	return ids
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if fileCfg, err := ReadFile(path); err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// ReadFile parses one YAML configuration file without applying defaults.
func ReadFile(path string) (Config, error) {
	var fileCfg Config

	raw, err := os.ReadFile(path)
	if err != nil {
		return fileCfg, err
	}
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return fileCfg, err
	}
	return fileCfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.DSN = v
	}

	if v := os.Getenv(dataRootEnv); v != "" {
		c.Data.Root = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(userAgentEnv); v != "" {
		c.EDGAR.UserAgent = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Schedule.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Schedule.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Data.Root != "" {
		base.Data.Root = override.Data.Root
	}
	if override.Data.Form != "" {
		base.Data.Form = override.Data.Form
	}
	if override.Data.RawFile != "" {
		base.Data.RawFile = override.Data.RawFile
	}
	if override.Data.CleanFile != "" {
		base.Data.CleanFile = override.Data.CleanFile
	}

	if override.Workers.Segment > 0 {
		base.Workers.Segment = override.Workers.Segment
	}
	if override.Workers.Compare > 0 {
		base.Workers.Compare = override.Workers.Compare
	}
	if override.Workers.Download > 0 {
		base.Workers.Download = override.Workers.Download
	}

	if override.Segmentation.Strategy != "" {
		base.Segmentation.Strategy = override.Segmentation.Strategy
	}

	if len(override.Similarity.Sections) > 0 {
		base.Similarity.Sections = override.Similarity.Sections
	}
	if override.Similarity.Output != "" {
		base.Similarity.Output = override.Similarity.Output
	}

	if override.Storage.Driver != "" {
		base.Storage.Driver = override.Storage.Driver
	}
	if override.Storage.DSN != "" {
		base.Storage.DSN = override.Storage.DSN
	}
	if override.Storage.SQLitePath != "" {
		base.Storage.SQLitePath = override.Storage.SQLitePath
	}

	if override.EDGAR.BaseURL != "" {
		base.EDGAR.BaseURL = override.EDGAR.BaseURL
	}
	if override.EDGAR.UserAgent != "" {
		base.EDGAR.UserAgent = override.EDGAR.UserAgent
	}
	if override.EDGAR.Scanner != "" {
		base.EDGAR.Scanner = override.EDGAR.Scanner
	}
	if override.EDGAR.Form != "" {
		base.EDGAR.Form = override.EDGAR.Form
	}
	if override.EDGAR.StartDate != "" {
		base.EDGAR.StartDate = override.EDGAR.StartDate
	}
	if override.EDGAR.RequestDelay != "" {
		base.EDGAR.RequestDelay = override.EDGAR.RequestDelay
	}
	if override.EDGAR.PageSize > 0 {
		base.EDGAR.PageSize = override.EDGAR.PageSize
	}

	if len(override.Filers) > 0 {
		base.Filers = override.Filers
	}

	if override.Schedule.Interval != "" {
		base.Schedule.Interval = override.Schedule.Interval
	}
	if override.Schedule.Timezone != "" {
		base.Schedule.Timezone = override.Schedule.Timezone
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Data: DataConfig{
			Root:      "data",
			Form:      "10-K",
			RawFile:   "full-submission.txt",
			CleanFile: "clean-full-submission.txt",
		},
		Workers:      WorkerConfig{Segment: 4, Compare: 4, Download: 2},
		Segmentation: SegmentationConfig{Strategy: "longest-span"},
		Similarity: SimilarityConfig{
			Sections: []string{"1A"},
			Output:   "similarity.csv",
		},
		Storage: StorageConfig{SQLitePath: "filingdrift.db"},
		EDGAR: EDGARConfig{
			BaseURL:      "https://www.sec.gov",
			UserAgent:    "FilingDrift research contact@example.com",
			Scanner:      "edgar",
			Form:         "10-K",
			StartDate:    "2006-01-01",
			RequestDelay: "150ms",
			PageSize:     100,
		},
		Schedule: ScheduleConfig{Interval: "24h", Timezone: defaultTimezone, location: tz},
		HTTP:     HTTPConfig{Addr: ":8080"},
	}
}
