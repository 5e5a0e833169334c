package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Importer ImporterConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Archive  ArchiveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	// SnapshotLoadTimeoutSeconds bounds the snapshot load inside a
	// simulation request; past it the request fails as retryable.
	SnapshotLoadTimeoutSeconds int
	// SnapshotRefreshSeconds bounds how long a memoized snapshot may be
	// served before revalidating against the database, so snapshots
	// published by the importer process reach a running server.
	SnapshotRefreshSeconds int
}

type ImporterConfig struct {
	Port                string
	DriveFolderID       string
	DriveCredentialsEnv string
	SyncIntervalSeconds int
	DataDir             string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled              bool
	RedisURL             string
	RedisHost            string
	RedisPort            string
	RedisPassword        string
	RedisDB              int
	SimulationTTLSeconds int
}

type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("SERVER_SNAPSHOT_LOAD_TIMEOUT_SECONDS", 5)
		viper.SetDefault("SERVER_SNAPSHOT_REFRESH_SECONDS", 30)
		viper.SetDefault("IMPORTER_PORT", "8081")
		viper.SetDefault("IMPORTER_DRIVE_FOLDER_ID", "")
		viper.SetDefault("IMPORTER_DRIVE_CREDENTIALS_ENV", "GOOGLE_DRIVE_CREDENTIALS_JSON")
		viper.SetDefault("IMPORTER_SYNC_INTERVAL_SECONDS", 300)
		viper.SetDefault("IMPORTER_DATA_DIR", "./data/hotels")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "hotelrm")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_SIMULATION_TTL_SECONDS", 60)
		viper.SetDefault("ARCHIVE_ENABLED", false)
		viper.SetDefault("ARCHIVE_ENDPOINT", "")
		viper.SetDefault("ARCHIVE_ACCESS_KEY", "")
		viper.SetDefault("ARCHIVE_SECRET_KEY", "")
		viper.SetDefault("ARCHIVE_BUCKET", "hotel-snapshots")
		viper.SetDefault("ARCHIVE_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:                       viper.GetString("SERVER_PORT"),
				Mode:                       viper.GetString("SERVER_MODE"),
				ReadTimeout:                viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:               viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins:             viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
				SnapshotLoadTimeoutSeconds: viper.GetInt("SERVER_SNAPSHOT_LOAD_TIMEOUT_SECONDS"),
				SnapshotRefreshSeconds:     viper.GetInt("SERVER_SNAPSHOT_REFRESH_SECONDS"),
			},
			Importer: ImporterConfig{
				Port:                viper.GetString("IMPORTER_PORT"),
				DriveFolderID:       viper.GetString("IMPORTER_DRIVE_FOLDER_ID"),
				DriveCredentialsEnv: viper.GetString("IMPORTER_DRIVE_CREDENTIALS_ENV"),
				SyncIntervalSeconds: viper.GetInt("IMPORTER_SYNC_INTERVAL_SECONDS"),
				DataDir:             viper.GetString("IMPORTER_DATA_DIR"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:              viper.GetBool("CACHE_ENABLED"),
				RedisURL:             viper.GetString("REDIS_URL"),
				RedisHost:            viper.GetString("REDIS_HOST"),
				RedisPort:            viper.GetString("REDIS_PORT"),
				RedisPassword:        viper.GetString("REDIS_PASSWORD"),
				RedisDB:              viper.GetInt("REDIS_DB"),
				SimulationTTLSeconds: viper.GetInt("CACHE_SIMULATION_TTL_SECONDS"),
			},
			Archive: ArchiveConfig{
				Enabled:   viper.GetBool("ARCHIVE_ENABLED"),
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
		}
	})

	return instance
}
