package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/alfredjeanlab/agritag/internal/model"
)

// Storage drivers for the persisted feature snapshot.
const (
	StorageBolt   = "bolt"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

type Config struct {
	Storage   string // AGRI_STORAGE (bolt, sqlite or memory; default "bolt")
	DataPath  string // AGRI_DATA_PATH (default "agritag.db")
	SlotName  string // AGRI_SLOT (default "agritag:features")
	HTTPAddr  string // AGRI_HTTP_ADDR (default ":8080")
	AuthToken string // AGRI_AUTH_TOKEN (optional, empty = auth disabled)
	NATSURL   string // AGRI_NATS_URL (optional, empty = no events)
	DrawColor string // AGRI_DRAW_COLOR (default "#10b981")
	VocabFile string // AGRI_VOCAB_FILE (optional TOML crop/season lists)

	Vocabulary model.Vocabulary // decoded from VocabFile, or the defaults

	// Export settings
	ExportInterval   time.Duration // AGRI_EXPORT_INTERVAL (default 0 = disabled)
	ExportDir        string        // AGRI_EXPORT_DIR (enables file backups when set)
	ExportS3Bucket   string        // AGRI_EXPORT_S3_BUCKET (enables S3 when set)
	ExportS3Endpoint string        // AGRI_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string        // AGRI_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Prefix   string        // AGRI_EXPORT_S3_PREFIX (default "agritag/")
	ExportGitRepo    string        // AGRI_EXPORT_GIT_REPO (enables git when set; path to clone)
	ExportGitFile    string        // AGRI_EXPORT_GIT_FILE (default "agritag.geojson")
	ExportGitBranch  string        // AGRI_EXPORT_GIT_BRANCH (default "main")

	LogLevel  string // LOG_LEVEL (debug, info, warn, error)
	LogFormat string // LOG_FORMAT (text or json)
}

// Load reads AGRI_ENV_FILE (default ".env") if it exists, then the
// environment. Variables already set win over the file.
func Load() (*Config, error) {
	if err := loadDotEnv(envOrDefault("AGRI_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	c := &Config{
		Storage:          strings.ToLower(envOrDefault("AGRI_STORAGE", StorageBolt)),
		DataPath:         envOrDefault("AGRI_DATA_PATH", "agritag.db"),
		SlotName:         envOrDefault("AGRI_SLOT", "agritag:features"),
		HTTPAddr:         envOrDefault("AGRI_HTTP_ADDR", ":8080"),
		AuthToken:        os.Getenv("AGRI_AUTH_TOKEN"),
		NATSURL:          os.Getenv("AGRI_NATS_URL"),
		DrawColor:        envOrDefault("AGRI_DRAW_COLOR", model.DefaultDrawColor),
		VocabFile:        os.Getenv("AGRI_VOCAB_FILE"),
		ExportDir:        os.Getenv("AGRI_EXPORT_DIR"),
		ExportS3Bucket:   os.Getenv("AGRI_EXPORT_S3_BUCKET"),
		ExportS3Endpoint: os.Getenv("AGRI_EXPORT_S3_ENDPOINT"),
		ExportS3Region:   envOrDefault("AGRI_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Prefix:   envOrDefault("AGRI_EXPORT_S3_PREFIX", "agritag/"),
		ExportGitRepo:    os.Getenv("AGRI_EXPORT_GIT_REPO"),
		ExportGitFile:    envOrDefault("AGRI_EXPORT_GIT_FILE", "agritag.geojson"),
		ExportGitBranch:  envOrDefault("AGRI_EXPORT_GIT_BRANCH", "main"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "text"),
	}

	switch c.Storage {
	case StorageBolt, StorageSQLite, StorageMemory:
	default:
		return nil, fmt.Errorf("AGRI_STORAGE: unknown driver %q (want bolt, sqlite or memory)", c.Storage)
	}

	if !model.IsHexColor(c.DrawColor) {
		return nil, fmt.Errorf("AGRI_DRAW_COLOR: must be #RRGGBB, got %q", c.DrawColor)
	}

	intervalStr := envOrDefault("AGRI_EXPORT_INTERVAL", "0")
	d, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("AGRI_EXPORT_INTERVAL: %w", err)
	}
	if d < 0 {
		return nil, fmt.Errorf("AGRI_EXPORT_INTERVAL: must not be negative, got %s", d)
	}
	c.ExportInterval = d

	vocab, err := LoadVocabulary(c.VocabFile)
	if err != nil {
		return nil, fmt.Errorf("AGRI_VOCAB_FILE: %w", err)
	}
	c.Vocabulary = vocab

	return c, nil
}

// ExportEnabled reports whether periodic export has an interval and at
// least one destination.
func (c *Config) ExportEnabled() bool {
	return c.ExportInterval > 0 && (c.ExportDir != "" || c.ExportS3Bucket != "" || c.ExportGitRepo != "")
}

// LoadVocabulary decodes a TOML vocabulary file:
//
//	crops = ["Rice", "Corn"]
//	seasons = ["Dry Season", "Wet Season"]
//	plot_label = "Plot"
//	point_label = "Point"
//
// An empty path yields the built-in vocabulary.
func LoadVocabulary(path string) (model.Vocabulary, error) {
	if path == "" {
		return model.DefaultVocabulary(), nil
	}
	var v model.Vocabulary
	if _, err := toml.DecodeFile(path, &v); err != nil {
		return model.Vocabulary{}, fmt.Errorf("decode %s: %w", path, err)
	}
	v = v.WithDefaults()
	if err := v.Validate(); err != nil {
		return model.Vocabulary{}, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
