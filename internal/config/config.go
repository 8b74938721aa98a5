package config

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host string
	Port string
}

type RedisCache struct {
	Host     string
	Port     string
	Password string
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type Spotify struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Admin is the bootstrap admin account ensured on startup.
type Admin struct {
	Username string
	Email    string
	Password string
}

type Config struct {
	HTTP     HTTPServer
	Redis    RedisCache
	Postgres Postgres
	Spotify  Spotify
	Admin    Admin
}

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	cfg := &Config{
		HTTP:     *newHTTP(),
		Redis:    *newRedis(),
		Postgres: *newPostgres(),
		Spotify:  *newSpotify(),
		Admin:    *newAdmin(),
	}

	return cfg
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("HTTP_PORT", "1337"),
		Host: getenv("HTTP_HOST", "localhost"),
	}
}

func newRedis() *RedisCache {
	return &RedisCache{
		Port:     getenv("REDIS_PORT", "6379"),
		Host:     getenv("REDIS_HOST", "redis"),
		Password: getenv("REDIS_PASSWORD", "shared"),
	}
}

func newPostgres() *Postgres {
	return &Postgres{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenv("DB_PORT", "5432"),
		User:     getenv("DB_USER", "admin"),
		Password: getenv("DB_PASSWORD", "shared"),
		DBName:   getenv("DB_NAME", "vibe_vortex"),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
	}
}

func newSpotify() *Spotify {
	return &Spotify{
		ClientID:     getenv("SPOTIFY_CLIENT_ID", ""),
		ClientSecret: getenv("SPOTIFY_CLIENT_SECRET", ""),
		RedirectURI:  getenv("SPOTIFY_REDIRECT_URI", ""),
	}
}

func newAdmin() *Admin {
	return &Admin{
		Username: getenv("ADMIN_USERNAME", ""),
		Email:    getenv("ADMIN_EMAIL", ""),
		Password: getenv("ADMIN_PASSWORD", ""),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	return val
}
