package app

import (
	"fmt"

	"github.com/yungbote/dormguard-backend/internal/clients/gemini"
	rediscache "github.com/yungbote/dormguard-backend/internal/clients/redis"
	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
)

type Clients struct {
	Gemini gemini.Client
	Cache  rediscache.Cache
}

// wireClients builds the external clients. The scoring oracle is mandatory;
// Redis is optional and its absence only disables caching.
func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	geminiClient, err := gemini.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init gemini client: %w", err)
	}

	cache, err := rediscache.NewCache(log)
	if err != nil {
		log.Warn("Redis cache unavailable, continuing without it", "error", err)
		cache = nil
	}

	return Clients{Gemini: geminiClient, Cache: cache}, nil
}
