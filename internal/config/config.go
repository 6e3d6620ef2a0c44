package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config holds all configuration values from environment.
type Config struct {
	AppPort        string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSSL       bool

	// Directory served under /data; processed previews are copied here.
	DataDir string

	// External raster-processing script settings
	PythonBin     string
	ScriptPath    string
	ScriptTimeout time.Duration

	// Imagery provider settings
	ImageryBaseURL string
	ImageryAPIKey  string

	// Upper bound for downloaded satellite images, in bytes.
	MaxImageBytes int64
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	minioSSL := false
	if sslEnv := os.Getenv("MINIO_SSL"); sslEnv != "" {
		val, err := strconv.ParseBool(sslEnv)
		if err != nil {
			return nil, fmt.Errorf("invalid MINIO_SSL value: %v", err)
		}
		minioSSL = val
	}

	scriptTimeout := 5 * time.Minute
	if timeoutEnv := os.Getenv("SCRIPT_TIMEOUT_SECONDS"); timeoutEnv != "" {
		val, err := strconv.Atoi(timeoutEnv)
		if err == nil && val > 0 {
			scriptTimeout = time.Duration(val) * time.Second
		}
	}

	maxImageBytes := int64(100 << 20) // 100MB default
	if sizeEnv := os.Getenv("MAX_IMAGE_MB"); sizeEnv != "" {
		val, err := strconv.ParseInt(sizeEnv, 10, 64)
		if err == nil && val > 0 {
			maxImageBytes = val << 20
		}
	}

	pythonBin := os.Getenv("PYTHON_BIN")
	if pythonBin == "" {
		pythonBin = "python3"
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	cfg := &Config{
		AppPort:        os.Getenv("SHAPEFILE_PORT"),
		DBHost:         os.Getenv("DB_HOST"),
		DBPort:         os.Getenv("DB_PORT"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    os.Getenv("MINIO_BUCKET"),
		MinioSSL:       minioSSL,

		DataDir:       dataDir,
		PythonBin:     pythonBin,
		ScriptPath:    os.Getenv("PROCESS_SCRIPT_PATH"),
		ScriptTimeout: scriptTimeout,

		ImageryBaseURL: os.Getenv("IMAGERY_BASE_URL"),
		ImageryAPIKey:  os.Getenv("IMAGERY_API_KEY"),

		MaxImageBytes: maxImageBytes,
	}
	// Basic validation for required fields
	if cfg.DBHost == "" || cfg.DBUser == "" || cfg.DBName == "" {
		return nil, fmt.Errorf("database configuration is incomplete")
	}
	if cfg.MinioEndpoint == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" || cfg.MinioBucket == "" {
		return nil, fmt.Errorf("minio configuration is incomplete")
	}
	if cfg.ScriptPath == "" {
		cfg.ScriptPath = "./scripts/process_satellite.py"
	}
	return cfg, nil
}

// ConnectDatabase initializes a GORM database connection to PostgreSQL.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}
