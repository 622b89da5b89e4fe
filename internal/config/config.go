package config

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"

	"github.com/mahmoud-the-dev/Propmatch/internal/storage"
	"github.com/mahmoud-the-dev/Propmatch/internal/utils"
)

const AppName = "propmatch-listings"

type Config struct {
	AppName string
	AppPort string
	AppUrl  string

	// Database
	DBUrl string

	// Redis
	RedisAddr     string
	RedisPassword string

	// Object store
	Storage storage.Config

	// Auth: tokens are issued elsewhere; we only hold the verification key.
	RSAPublicKey *rsa.PublicKey
}

func LoadConfig() *Config {
	// .env is optional; real deployments inject env vars directly
	if err := godotenv.Load(); err != nil {
		utils.Logger.Debug("No .env file found, relying on environment")
	}

	utils.Logger.Info("Loading config for app: ", AppName)

	appPort := mustGetenv("APP_PORT")
	appUrl := mustGetenv("APP_URL")
	dbURL := mustGetenv("DB_URL")

	redisAddr := mustGetenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	storageCfg := storage.Config{
		AccessKey:     mustGetenv("S3_ACCESS_KEY"),
		SecretKey:     mustGetenv("S3_SECRET_KEY"),
		Bucket:        mustGetenv("S3_BUCKET"),
		Region:        mustGetenv("S3_REGION"),
		Endpoint:      mustGetenv("S3_ENDPOINT"),
		PublicBaseURL: mustGetenv("S3_PUBLIC_BASE_URL"),
	}

	pubB64 := mustGetenv("RSA_PUBLIC_KEY_BASE64")
	pubPEM, err := base64.StdEncoding.DecodeString(pubB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("RSA_PUBLIC_KEY_BASE64 is not valid base64")
	}
	if block, _ := pem.Decode(pubPEM); block == nil {
		utils.Logger.Fatal("Failed to decode PEM block for public key")
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}

	return &Config{
		AppName:       AppName,
		AppPort:       appPort,
		AppUrl:        appUrl,
		DBUrl:         dbURL,
		RedisAddr:     redisAddr,
		RedisPassword: redisPassword,
		Storage:       storageCfg,
		RSAPublicKey:  pubKey,
	}
}

func mustGetenv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		utils.Logger.Fatalf("%s env var is missing", key)
	}
	return v
}
