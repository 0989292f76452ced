package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr       string
	Brokers        []string
	Topic          string
	GroupID        string
	PublishTimeout time.Duration
	StoreCapacity  int
	ShutdownGrace  time.Duration
	ArchiveEnabled bool
	DBUser         string
	DBPassword     string
	DBHost         string
	DBPort         string
	DBName         string
}

func Load() *Config {
	return &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		Brokers:        strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		Topic:          getEnv("KAFKA_TOPIC", "user-events"),
		GroupID:        getEnv("KAFKA_GROUP_ID", "user-events-consumer"),
		PublishTimeout: getEnvDuration("PUBLISH_TIMEOUT_MS", 30*time.Second),
		StoreCapacity:  getEnvInt("STORE_CAPACITY", 10000),
		ShutdownGrace:  getEnvDuration("SHUTDOWN_GRACE_MS", 5*time.Second),
		ArchiveEnabled: getEnvBool("ARCHIVE_ENABLED", false),
		DBUser:         getEnv("MYSQL_USER", "root"),
		DBPassword:     getEnv("MYSQL_ROOT_PASSWORD", "testpass"),
		DBHost:         getEnv("MYSQL_HOST", "localhost"),
		DBPort:         getEnv("MYSQL_PORT", "3306"),
		DBName:         getEnv("MYSQL_DATABASE", "eventdb"),
	}
}

func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Millisecond
		}
	}
	return fallback
}
