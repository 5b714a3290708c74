package probe

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nsprime0-ui/prime-downloader-backend/internal/media"
	"github.com/nsprime0-ui/prime-downloader-backend/pkg/logger"
	"github.com/pkg/errors"
)

var log = logger.Get("Probe")

// Config controls the size resolver's concurrency window and the
// timeouts applied to each probing tier.
type Config struct {
	Window           int `yaml:"window" env:"PROBE_WINDOW" env-default:"6"`
	MaxPerRequest    int `yaml:"max_per_request" env:"PROBE_MAX_PER_REQUEST" env-default:"12"`
	MaxRedirects     int `yaml:"max_redirects" env:"PROBE_MAX_REDIRECTS" env-default:"5"`
	HeadTimeoutSecs  int `yaml:"head_timeout" env:"PROBE_HEAD_TIMEOUT" env-default:"10"`
	RangeTimeoutSecs int `yaml:"range_timeout" env:"PROBE_RANGE_TIMEOUT" env-default:"15"`
}

// Resolver backfills missing candidate sizes with best-effort network
// probes: a HEAD request first, then a single-byte ranged GET fallback.
// Failures are swallowed per candidate and only degrade the displayed
// size downstream.
type Resolver struct {
	config      Config
	headClient  *http.Client
	rangeClient *http.Client
}

func NewResolver(config Config) *Resolver {
	if config.Window <= 0 {
		config.Window = 1
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if len(via) >= config.MaxRedirects {
			return errors.Errorf("stopped after %d redirects", config.MaxRedirects)
		}
		return nil
	}

	return &Resolver{
		config: config,
		headClient: &http.Client{
			Timeout:       time.Duration(config.HeadTimeoutSecs) * time.Second,
			CheckRedirect: redirectPolicy,
		},
		rangeClient: &http.Client{
			Timeout:       time.Duration(config.RangeTimeoutSecs) * time.Second,
			CheckRedirect: redirectPolicy,
		},
	}
}

// ResolveSizes probes every candidate which lacks a declared size,
// mutating matches in place. At most 'Window' probes are in flight at
// once and at most 'MaxPerRequest' candidates are probed per call;
// candidates beyond the cap simply keep their unknown size. The method
// returns once every scheduled probe has completed or timed out.
func (resolver *Resolver) ResolveSizes(ctx context.Context, candidates []*media.Candidate) []*media.Candidate {
	unresolved := make([]*media.Candidate, 0)
	for _, candidate := range candidates {
		if candidate.Filesize == nil {
			unresolved = append(unresolved, candidate)
		}
	}

	if resolver.config.MaxPerRequest > 0 && len(unresolved) > resolver.config.MaxPerRequest {
		log.Emit(logger.VERBOSE, "Probe cap reached: resolving %d of %d unsized candidates\n",
			resolver.config.MaxPerRequest, len(unresolved))
		unresolved = unresolved[:resolver.config.MaxPerRequest]
	}

	window := make(chan struct{}, resolver.config.Window)
	wg := &sync.WaitGroup{}
	for _, candidate := range unresolved {
		wg.Add(1)
		go func(candidate *media.Candidate) {
			defer wg.Done()

			window <- struct{}{}
			defer func() { <-window }()

			if size, err := resolver.probe(ctx, candidate.URL); err == nil {
				candidate.Filesize = &size
			} else {
				log.Emit(logger.VERBOSE, "Size probe for %s abandoned: %v\n", candidate.URL, err)
			}
		}(candidate)
	}
	wg.Wait()

	return candidates
}

// probe attempts the two probing tiers in order, returning the first
// size discovered. Each tier is attempted exactly once.
func (resolver *Resolver) probe(ctx context.Context, target string) (int64, error) {
	size, headErr := resolver.probeHead(ctx, target)
	if headErr == nil {
		return size, nil
	}

	size, rangeErr := resolver.probeRange(ctx, target)
	if rangeErr == nil {
		return size, nil
	}

	return 0, errors.Wrapf(rangeErr, "HEAD failed (%v) and range fallback failed", headErr)
}

// probeHead issues a metadata-only request and reads the content length
// the server reports, if any.
func (resolver *Resolver) probeHead(ctx context.Context, target string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return 0, errors.Wrap(err, "building HEAD request")
	}

	resp, err := resolver.headClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "performing HEAD request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, errors.Errorf("HEAD returned status %d", resp.StatusCode)
	}
	if resp.ContentLength > 0 {
		return resp.ContentLength, nil
	}

	size, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil || size <= 0 {
		return 0, errors.New("no content length reported")
	}

	return size, nil
}

// probeRange requests only the first byte of the resource and reads the
// total size from the Content-Range header ("bytes 0-0/<total>") when
// the server reports it.
func (resolver *Resolver) probeRange(ctx context.Context, target string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, errors.Wrap(err, "building ranged request")
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err := resolver.rangeClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "performing ranged request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, errors.Errorf("ranged request returned status %d", resp.StatusCode)
	}

	contentRange := resp.Header.Get("Content-Range")
	slash := strings.LastIndex(contentRange, "/")
	if slash == -1 {
		return 0, errors.New("no content range reported")
	}

	size, err := strconv.ParseInt(contentRange[slash+1:], 10, 64)
	if err != nil || size <= 0 {
		return 0, errors.Errorf("unusable content range %q", contentRange)
	}

	return size, nil
}
