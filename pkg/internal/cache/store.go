package cache

import (
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// S is nil when no cache backend is configured; callers treat that as a miss.
var S store.StoreInterface

func NewStore() error {
	if len(viper.GetString("cache.addr")) == 0 {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     viper.GetString("cache.addr"),
		Password: viper.GetString("cache.password"),
		DB:       viper.GetInt("cache.db"),
	})

	S = redisstore.NewRedis(client)

	return nil
}
