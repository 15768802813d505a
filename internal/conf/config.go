// config.go: configuration for the WildScan application. It defines the
// settings struct and functions to load and access the settings.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// ErrNoDatabaseConfigured is returned when neither database backend is
// enabled in the configuration.
var ErrNoDatabaseConfigured = errors.New("no database is enabled in configuration")

// LogConfig contains settings for log files.
type LogConfig struct {
	Enabled bool   // true to enable this log
	Path    string // path to log file
}

// MainSettings contains general application settings.
type MainSettings struct {
	Name string    // name of this node, can be used to identify the source
	Log  LogConfig // main log file settings
}

// SQLiteSettings contains the SQLite database output settings.
type SQLiteSettings struct {
	Enabled bool   // true to enable sqlite output
	Path    string // path to sqlite database file
}

// MySQLSettings contains the MySQL database output settings.
type MySQLSettings struct {
	Enabled  bool   // true to enable mysql output
	Username string // username for the database
	Password string // password for the database
	Database string // database name
	Host     string // host of the database
	Port     string // port of the database
}

// DatabaseSettings contains the database output settings.
type DatabaseSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// ProviderSettings contains settings for the external vision and
// classification model provider.
type ProviderSettings struct {
	APIKey           string        // API key for the Generative Language API
	Model            string        // model name, e.g. gemini-2.0-flash
	Endpoint         string        // API endpoint base URL
	Timeout          time.Duration // per-request timeout
	ClassifyCacheTTL time.Duration // TTL for cached name classifications
}

// GCSSettings contains settings for the Google Cloud Storage blob backend.
type GCSSettings struct {
	Enabled         bool   // true to enable GCS uploads
	Bucket          string // bucket name
	CredentialsPath string // path to service account credentials file
	BasePath        string // object key prefix inside the bucket
}

// StorageSettings contains the blob storage settings.
type StorageSettings struct {
	GCS GCSSettings
}

// LocationSettings is the fixed region stub used in place of a live
// geolocation lookup.
type LocationSettings struct {
	Label     string  // full location label stored on scan records
	City      string
	Country   string
	Region    string
	Latitude  float64
	Longitude float64
}

// ScannerSettings contains limits and defaults for the scan pipeline.
type ScannerSettings struct {
	MaxFileSize     int64            // maximum accepted upload size in bytes
	DefaultLocation LocationSettings // fixed location stub
}

// MQTTSettings contains settings for publishing discovery events.
type MQTTSettings struct {
	Enabled  bool   // true to enable MQTT discovery notifications
	Broker   string // broker URL, e.g. tcp://localhost:1883
	Topic    string // topic for discovery events
	Username string
	Password string
}

// HTTPSettings contains settings for the HTTP API server.
type HTTPSettings struct {
	Host string // address to bind to
	Port string // port to listen on
}

// Settings contains all application settings
type Settings struct {
	Debug bool // true to enable debug mode

	Main     MainSettings
	Database DatabaseSettings
	Provider ProviderSettings
	Storage  StorageSettings
	Scanner  ScannerSettings
	MQTT     MQTTSettings
	HTTP     HTTPSettings
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
	once             sync.Once
)

// Load reads the configuration into a new Settings struct and stores it as
// the package-level instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with the config file and default values.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Defaults defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the
// first default config path.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// GetDefaultConfigPaths returns the paths where the config file is searched
// for: the user config directory and the current working directory.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user config directory: %w", err)
	}
	return []string{filepath.Join(configDir, "wildscan"), "."}, nil
}
