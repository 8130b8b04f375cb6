package environ

import (
	"os"
	"strconv"
	"time"

	"github.com/c2h5oh/datasize"
)

func GetString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func GetInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}

	return fallback
}

func GetBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}

	return fallback
}

func GetDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if t, err := time.ParseDuration(value); err == nil {
			return t
		}
	}
	return fallback
}

func GetSize(key string, fallback datasize.ByteSize) datasize.ByteSize {
	if value, ok := os.LookupEnv(key); ok {
		if s, err := datasize.ParseString(value); err == nil {
			return s
		}
	}
	return fallback
}
