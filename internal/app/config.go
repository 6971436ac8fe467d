package app

import (
	"strings"
	"time"

	"github.com/lumora/eduhub-backend/internal/logger"
	"github.com/lumora/eduhub-backend/internal/utils"
)

type Config struct {
	JWTSecretKey     string
	AccessTokenTTL   time.Duration
	FileStoreRoot    string
	FileStoreBaseURL string
	CORSOrigins      []string
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	fileStoreRoot := utils.GetEnv("FILE_STORE_ROOT", "./uploads", log)
	fileStoreBaseURL := utils.GetEnv("FILE_STORE_BASE_URL", "http://localhost:8080/files", log)
	corsOrigins := utils.GetEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173", log)
	return Config{
		JWTSecretKey:     jwtSecretKey,
		AccessTokenTTL:   time.Duration(accessTokenTTLSeconds) * time.Second,
		FileStoreRoot:    fileStoreRoot,
		FileStoreBaseURL: fileStoreBaseURL,
		CORSOrigins:      strings.Split(corsOrigins, ","),
	}
}
