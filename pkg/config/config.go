package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Blobstore    BlobstoreConfig
	CodeHost     CodeHostConfig
	Corpus       CorpusConfig
	Roster       RosterConfig
	Registration RegistrationConfig
	Reports      ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BlobstoreConfig selects and configures the remote file store backend.
type BlobstoreConfig struct {
	Backend      string // "s3" or "local"
	RootFolderID string
	LocalDir     string
	S3Bucket     string
	S3Region     string
	S3Endpoint   string
}

// CodeHostConfig configures submission pushes to the hosting repository.
type CodeHostConfig struct {
	BaseURL string
	Owner   string
	Repo    string
	Branch  string
	Token   string
}

// CorpusConfig names the shared corpus artifacts inside the blob store root.
type CorpusConfig struct {
	MetadataName   string
	DataFolderName string
}

// RosterConfig locates the static student roster.
type RosterConfig struct {
	Path string
}

// RegistrationConfig tunes the allocation routine.
type RegistrationConfig struct {
	AuthorsPerStudent int
	LockTTL           time.Duration
}

// ReportsConfig gates the admin export endpoints.
type ReportsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Blobstore = BlobstoreConfig{
		Backend:      v.GetString("BLOBSTORE_BACKEND"),
		RootFolderID: v.GetString("BLOBSTORE_ROOT_FOLDER_ID"),
		LocalDir:     v.GetString("BLOBSTORE_LOCAL_DIR"),
		S3Bucket:     v.GetString("BLOBSTORE_S3_BUCKET"),
		S3Region:     v.GetString("BLOBSTORE_S3_REGION"),
		S3Endpoint:   v.GetString("BLOBSTORE_S3_ENDPOINT"),
	}

	cfg.CodeHost = CodeHostConfig{
		BaseURL: v.GetString("CODEHOST_BASE_URL"),
		Owner:   v.GetString("CODEHOST_REPO_OWNER"),
		Repo:    v.GetString("CODEHOST_REPO_NAME"),
		Branch:  v.GetString("CODEHOST_BRANCH"),
		Token:   v.GetString("CODEHOST_TOKEN"),
	}

	cfg.Corpus = CorpusConfig{
		MetadataName:   v.GetString("CORPUS_METADATA_NAME"),
		DataFolderName: v.GetString("CORPUS_DATA_FOLDER"),
	}

	cfg.Roster = RosterConfig{
		Path: v.GetString("ROSTER_CSV_PATH"),
	}

	cfg.Registration = RegistrationConfig{
		AuthorsPerStudent: v.GetInt("REGISTRATION_AUTHORS_PER_STUDENT"),
		LockTTL:           parseDuration(v.GetString("REGISTRATION_LOCK_TTL"), 2*time.Minute),
	}

	cfg.Reports = ReportsConfig{
		Enabled: v.GetBool("ENABLE_REPORTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tp_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BLOBSTORE_BACKEND", "local")
	v.SetDefault("BLOBSTORE_ROOT_FOLDER_ID", "NLP_M1")
	v.SetDefault("BLOBSTORE_LOCAL_DIR", "./blobstore")
	v.SetDefault("BLOBSTORE_S3_BUCKET", "")
	v.SetDefault("BLOBSTORE_S3_REGION", "eu-west-1")
	v.SetDefault("BLOBSTORE_S3_ENDPOINT", "")

	v.SetDefault("CODEHOST_BASE_URL", "https://api.github.com")
	v.SetDefault("CODEHOST_REPO_OWNER", "")
	v.SetDefault("CODEHOST_REPO_NAME", "")
	v.SetDefault("CODEHOST_BRANCH", "main")
	v.SetDefault("CODEHOST_TOKEN", "")

	v.SetDefault("CORPUS_METADATA_NAME", "metadata.csv")
	v.SetDefault("CORPUS_DATA_FOLDER", "data")

	v.SetDefault("ROSTER_CSV_PATH", "./students_list.csv")

	v.SetDefault("REGISTRATION_AUTHORS_PER_STUDENT", 4)
	v.SetDefault("REGISTRATION_LOCK_TTL", "2m")

	v.SetDefault("ENABLE_REPORTS", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
