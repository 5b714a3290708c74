package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/nsprime0-ui/prime-downloader-backend/internal/api"
	"github.com/nsprime0-ui/prime-downloader-backend/internal/cache"
	"github.com/nsprime0-ui/prime-downloader-backend/internal/pipeline"
	"github.com/nsprime0-ui/prime-downloader-backend/internal/probe"
	"github.com/nsprime0-ui/prime-downloader-backend/internal/ytdlp"
	"github.com/nsprime0-ui/prime-downloader-backend/pkg/logger"
)

var log = logger.Get("Core")

type (
	RunnableService interface {
		Run(context.Context) error
	}

	// primeImpl is the top-level object for the server, responsible
	// for constructing the pipeline collaborators and running the
	// REST gateway until stopped.
	primeImpl struct {
		config          PrimeConfig
		cacheStore      cache.Store
		pipelineService *pipeline.Service
		restGateway     RunnableService
	}
)

func New(config PrimeConfig) *primeImpl {
	log.Emit(logger.DEBUG, "Bootstrapping backend services using config: %#v\n", config)

	cacheStore := cache.New(config.Cache)
	extractor := ytdlp.NewExtractor(config.Extractor)
	resolver := probe.NewResolver(config.Probe)
	pipelineService := pipeline.New(extractor, resolver, cacheStore)

	policy := api.AccessPolicy{
		APIKey:         config.APIKey,
		AllowedOrigins: config.AllowedOrigins(),
		RateLimitRPS:   config.RateLimit,
	}

	return &primeImpl{
		config:          config,
		cacheStore:      cacheStore,
		pipelineService: pipelineService,
		restGateway:     api.NewRestGateway(&config.Rest, policy, pipelineService),
	}
}

// Run brings up the REST gateway and blocks until the provided context
// is cancelled or the gateway crashes.
func (prime *primeImpl) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	crashHandler := func(label string, err error) {
		log.Emit(logger.FATAL, "Service crash (%s)! %s\n", label, err.Error())
		cancel()
	}

	wg := &sync.WaitGroup{}
	prime.spawnAsyncService(ctx, wg, prime.restGateway, "rest-gateway", crashHandler)
	log.Emit(logger.SUCCESS, "Backend services spawned!\n")

	wg.Wait()
	return nil
}

// spawnAsyncService will run the provided service as its own
// go-routine, ensuring that the service waitgroup is updated correctly.
func (prime *primeImpl) spawnAsyncService(context context.Context, wg *sync.WaitGroup, service RunnableService, serviceLabel string, crashHandler func(string, error)) {
	log.Emit(logger.NEW, "Spawning %s\n", serviceLabel)
	wg.Add(1)

	go func(wg *sync.WaitGroup, label string, crash func(string, error)) {
		defer func() {
			if r := recover(); r != nil {
				crash(label, fmt.Errorf("panic %v", r))
			}
		}()

		defer wg.Done()
		if err := service.Run(context); err != nil {
			crash(label, err)
		}
	}(wg, serviceLabel, crashHandler)
}
