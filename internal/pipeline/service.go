package pipeline

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/nsprime0-ui/prime-downloader-backend/internal/media"
	"github.com/nsprime0-ui/prime-downloader-backend/pkg/logger"
)

var log = logger.Get("Pipeline")

type (
	// Extractor is the external metadata-extraction collaborator.
	Extractor interface {
		Extract(ctx context.Context, target string) (*media.ExtractionMetadata, error)
		Version(ctx context.Context) (string, error)
	}

	// SizeResolver backfills missing candidate sizes in place.
	SizeResolver interface {
		ResolveSizes(ctx context.Context, candidates []*media.Candidate) []*media.Candidate
	}

	// Store is the advisory lookup cache for serialized payloads.
	Store interface {
		Get(ctx context.Context, key string) ([]byte, bool)
		Set(ctx context.Context, key string, payload []byte)
	}

	// Service runs the extraction pipeline for a single request:
	// cache lookup, upstream extraction, normalization, size
	// resolution and assembly. Requests are independent; the only
	// shared state is the injected cache store, whose same-key races
	// are benign (entries are idempotent projections within the TTL).
	Service struct {
		extractor Extractor
		resolver  SizeResolver
		cache     Store
	}
)

func New(extractor Extractor, resolver SizeResolver, cache Store) *Service {
	return &Service{
		extractor: extractor,
		resolver:  resolver,
		cache:     cache,
	}
}

// Extract produces the normalized format listing for the given page
// URL. Only an upstream extraction failure is surfaced as an error;
// probing and caching degrade silently.
func (service *Service) Extract(ctx context.Context, target string) (*media.Payload, error) {
	if payload, ok := service.lookupCached(ctx, target); ok {
		log.Emit(logger.DEBUG, "Cache hit for %s\n", target)
		return payload, nil
	}

	requestID := uuid.New()
	log.Emit(logger.INFO, "Extraction %s started for %s\n", requestID, target)

	metadata, err := service.extractor.Extract(ctx, target)
	if err != nil {
		log.Emit(logger.ERROR, "Extraction %s failed: %v\n", requestID, err)
		return nil, err
	}

	candidates := media.Normalize(metadata.Formats)
	log.Emit(logger.DEBUG, "Extraction %s normalized %d of %d raw formats\n",
		requestID, len(candidates), len(metadata.Formats))

	service.resolver.ResolveSizes(ctx, candidates)
	payload := media.Assemble(metadata.Title, metadata.Thumbnail, candidates)

	service.storeCached(ctx, target, payload)
	log.Emit(logger.SUCCESS, "Extraction %s completed with %d formats\n", requestID, len(payload.Formats))

	return payload, nil
}

// CheckTool reports whether the external extraction tool is reachable,
// returning its version string when it is.
func (service *Service) CheckTool(ctx context.Context) (string, error) {
	return service.extractor.Version(ctx)
}

func (service *Service) lookupCached(ctx context.Context, target string) (*media.Payload, bool) {
	raw, ok := service.cache.Get(ctx, target)
	if !ok {
		return nil, false
	}

	var payload media.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		// A corrupt entry is a miss; it will be overwritten below.
		log.Emit(logger.WARNING, "Discarding corrupt cache entry for %s: %v\n", target, err)
		return nil, false
	}

	return &payload, true
}

func (service *Service) storeCached(ctx context.Context, target string, payload *media.Payload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Emit(logger.WARNING, "Failed to serialize payload for caching: %v\n", err)
		return
	}

	service.cache.Set(ctx, target, raw)
}
