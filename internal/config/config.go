package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/fluencykaizen/backend/internal/caption"
	"github.com/fluencykaizen/backend/internal/whisper"
)

type Config struct {
	Port          int
	ProjectsPath  string
	DataPath      string
	DBPath        string
	GeminiAPIKey  string
	WhisperModel  string
	JWTSecret     string
	AdminUsername string
	AdminPassword string
	CORSOrigins   []string
	Limits        caption.Limits
}

func Load() *Config {
	port, _ := strconv.Atoi(getEnv("PORT", "8080"))
	dataPath := getEnv("DATA_PATH", "/data")

	// JWT secret: require explicit setting or generate random
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatalf("Failed to generate random JWT secret: %v", err)
		}
		jwtSecret = hex.EncodeToString(b)
		log.Println("WARNING: JWT_SECRET not set, using random secret. Sessions will not survive restarts. Set JWT_SECRET env var for persistent sessions.")
	}

	// CORS origins: comma-separated list or "*" (default)
	corsOrigins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		corsOrigins = make([]string, 0, len(origins))
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	return &Config{
		Port:          port,
		ProjectsPath:  getEnv("PROJECTS_PATH", "/projects"),
		DataPath:      dataPath,
		DBPath:        getEnv("DB_PATH", dataPath+"/fluencykaizen.db"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		WhisperModel:  getEnv("WHISPER_MODEL", whisper.DefaultModel),
		JWTSecret:     jwtSecret,
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),
		CORSOrigins:   corsOrigins,
		Limits: caption.Limits{
			HookTitleJA: getEnvInt("HOOK_TITLE_JA_LIMIT", caption.DefaultLimits.HookTitleJA),
			HookTitleEN: getEnvInt("HOOK_TITLE_EN_LIMIT", caption.DefaultLimits.HookTitleEN),
			SubtitleEN:  getEnvInt("SUBTITLE_EN_LIMIT", caption.DefaultLimits.SubtitleEN),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
