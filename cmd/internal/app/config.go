package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string // "json" (default) or "pretty"

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBSchema    string
	DBMaxConns  int32
	DBMinConns  int32

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Security policy:
	// If true, every domain API key below MUST be set at startup.
	RequireAPIKeys bool
	GroupAPIKey    string
	UserAPIKey     string
	FileAPIKey     string

	// Object storage for shared file content. Empty bucket disables S3 and
	// falls back to the in-memory blob store (dev only).
	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3UsePathStyle    bool

	// Redis history cache. Empty addr disables caching.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	// WebSocket origin policy.
	WSOriginRequired bool
	WSOrigins        []string
	WSDevInsecure    bool

	ChatRateEvents int
	ChatRateWindow time.Duration
	ChatReadIdle   time.Duration

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("SHAREBASE_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("SHAREBASE_LOG_LEVEL", "info"),
		LogFormat: EnvString("SHAREBASE_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("SHAREBASE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("SHAREBASE_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("SHAREBASE_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("SHAREBASE_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("SHAREBASE_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("SHAREBASE_DATABASE_URL", ""),
		DBSchema:    EnvString("SHAREBASE_DB_SCHEMA", "sharebase"),
		DBMaxConns:  EnvInt32("SHAREBASE_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("SHAREBASE_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("SHAREBASE_READINESS_REQUIRE_DB", false),

		RequireAPIKeys: EnvBool("SHAREBASE_REQUIRE_API_KEYS", false),
		GroupAPIKey:    EnvString("SHAREBASE_GROUP_API_KEY", ""),
		UserAPIKey:     EnvString("SHAREBASE_USERSERVICES_API_KEY", ""),
		FileAPIKey:     EnvString("SHAREBASE_FILE_API_KEY", ""),

		S3Endpoint:        EnvString("SHAREBASE_S3_ENDPOINT", ""),
		S3Region:          EnvString("SHAREBASE_S3_REGION", "us-east-1"),
		S3Bucket:          EnvString("SHAREBASE_S3_BUCKET", ""),
		S3AccessKeyID:     EnvString("SHAREBASE_S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: EnvString("SHAREBASE_S3_SECRET_ACCESS_KEY", ""),
		S3UsePathStyle:    EnvBool("SHAREBASE_S3_USE_PATH_STYLE", false),

		RedisAddr:     EnvString("SHAREBASE_REDIS_ADDR", ""),
		RedisPassword: EnvString("SHAREBASE_REDIS_PASSWORD", ""),
		RedisDB:       EnvInt("SHAREBASE_REDIS_DB", 0),
		RedisTTL:      EnvDuration("SHAREBASE_REDIS_TTL", 30*time.Second),

		WSOriginRequired: EnvBool("SHAREBASE_WS_ORIGIN_REQUIRED", true),
		WSOrigins:        EnvStringList("SHAREBASE_WS_ORIGINS", []string{"http://localhost", "http://127.0.0.1"}),
		WSDevInsecure:    EnvBool("SHAREBASE_WS_DEV_INSECURE", false),

		ChatRateEvents: EnvInt("SHAREBASE_CHAT_RATE_EVENTS", 120),
		ChatRateWindow: EnvDuration("SHAREBASE_CHAT_RATE_WINDOW", 10*time.Second),
		ChatReadIdle:   EnvDuration("SHAREBASE_CHAT_READ_IDLE", 2*time.Minute),

		CORSAllowedOrigins:   EnvStringList("SHAREBASE_CORS_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("SHAREBASE_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("SHAREBASE_CORS_MAX_AGE_SECONDS", 600),
	}
}
