package storage

import (
	"log"
	"os"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// Redis backs the short-lived state: refresh tokens parked by the session
// layer and outstanding OTP codes.
var Redis *redis.Client

func InitializeRedis() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
		log.Println("REDIS_ADDR not set, using localhost:6379 (development mode)")
	}

	db := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			log.Panic("REDIS_DB must be an integer: " + raw)
		}
		db = parsed
	}

	Redis = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	log.Println("Redis initialized with address:", addr)
}
