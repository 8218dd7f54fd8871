package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI       string
	DBName         string
	JWTSecret      string
	DistanceAPIURL string
	PushGatewayURL string
	PushGatewayKey string
	UploadDir      string
	PublicBaseURL  string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:       getEnvOrDefault("MONGO_URI", ""),
		DBName:         getEnvOrDefault("DB_NAME", "regive"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		DistanceAPIURL: getEnvOrDefault("DISTANCE_API_URL", ""),
		PushGatewayURL: getEnvOrDefault("PUSH_GATEWAY_URL", ""),
		PushGatewayKey: getEnvOrDefault("PUSH_GATEWAY_KEY", ""),
		UploadDir:      getEnvOrDefault("UPLOAD_DIR", "/app/public/uploads"),
		PublicBaseURL:  getEnvOrDefault("PUBLIC_BASE_URL", ""),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
