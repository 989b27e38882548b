package colly

import (
	"errors"
	"sync"

	"feedsync/internal/config"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog/log"
)

var (
	ErrCollectorNotInitialized = errors.New("colly client is not initialized")
)

var (
	client *colly.Collector
	once   sync.Once
)

// NewCollector builds the collector every fetch is cloned from. Feed fetches are
// single JSON requests, so crawling features are switched off.
func NewCollector(cfg config.CollyConfig) *colly.Collector {
	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.MaxBodySize(cfg.MaxSize),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
		colly.UserAgent(cfg.UserAgent),
	)
	c.SetRequestTimeout(cfg.TimeOut)
	return c
}

// InitCollyClient returns the process-wide collector, initialised only once.
func InitCollyClient() (*colly.Collector, error) {
	once.Do(func() {
		client = NewCollector(config.GetConfig().Colly)
		log.Debug().Msg("Colly client initialized")
	})
	if client == nil {
		return nil, ErrCollectorNotInitialized
	}
	return client, nil
}

func GetCollyClient() (*colly.Collector, error) {
	if client == nil {
		return nil, ErrCollectorNotInitialized
	}
	return client, nil
}
