package verifier

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/adamscao/skillguard/internal/certcache"
	"github.com/adamscao/skillguard/internal/metrics"
)

// DefaultAuthorityDomain is the SAN the signing certificate must carry
const DefaultAuthorityDomain = "echo-api.amazon.com"

// maxAttempts bounds certificate acquisition: once from cache or network, and one
// more time after an outdated certificate was evicted.
const maxAttempts = 2

// Request is the authentication input extracted from one inbound request
type Request struct {
	Body           []byte
	CertURL        string
	Signature      string
	Timestamp      time.Time
	CheckSignature bool
	CheckTimestamp bool
}

// Options configures a Validator
type Options struct {
	Tolerance        int
	AuthorityDomain  string
	Cache            *certcache.Cache
	Client           HTTPClient
	DisableSignature bool
	Now              func() time.Time
	Logger           *zap.Logger
	Metrics          *metrics.Metrics
}

// Validator runs the full authentication pipeline. It is safe for concurrent use.
type Validator struct {
	tolerance        int
	domain           string
	cache            *certcache.Cache
	fetcher          *Fetcher
	disableSignature bool
	now              func() time.Time
	logger           *zap.Logger
	metrics          *metrics.Metrics
}

// New creates a Validator. A nil Cache falls back to an in-memory store.
func New(opts Options) *Validator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("verifier")

	domain := opts.AuthorityDomain
	if domain == "" {
		domain = DefaultAuthorityDomain
	}

	client := opts.Client
	if client == nil {
		client = NewStdClient(DefaultFetchTimeout)
	}

	cache := opts.Cache
	if cache == nil {
		cache = certcache.New(certcache.NewMemoryStore(), logger, opts.Metrics)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	if opts.DisableSignature {
		logger.Warn("signature validation is disabled, requests are not authenticated")
	}

	return &Validator{
		tolerance:        opts.Tolerance,
		domain:           domain,
		cache:            cache,
		fetcher:          NewFetcher(client, opts.Metrics),
		disableSignature: opts.DisableSignature,
		now:              now,
		logger:           logger,
		metrics:          opts.Metrics,
	}
}

// Validate returns nil when req is authentic, or one of the package verdict errors
func (v *Validator) Validate(ctx context.Context, req *Request) error {
	err := v.validate(ctx, req)

	reason := Reason(err)
	v.metrics.ObserveValidation(reason)
	if err != nil {
		v.logger.Info("request rejected",
			zap.String("reason", reason),
			zap.String("cert_url", req.CertURL),
			zap.Error(err))
	} else {
		v.logger.Debug("request valid", zap.String("cert_url", req.CertURL))
	}

	return err
}

func (v *Validator) validate(ctx context.Context, req *Request) error {
	now := v.now()

	if req.CheckTimestamp {
		if err := CheckTimestamp(req.Timestamp, now, v.tolerance); err != nil {
			return err
		}
	}

	if !req.CheckSignature || v.disableSignature {
		return nil
	}

	if err := CheckCertURL(req.CertURL); err != nil {
		return err
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = v.verifyWithCertificate(ctx, req, now)
		if !errors.Is(err, ErrOutdatedCertificate) {
			return err
		}

		v.cache.Evict(req.CertURL)
		if attempt < maxAttempts {
			v.logger.Debug("cached certificate outdated, refetching", zap.String("cert_url", req.CertURL))
		}
	}
	return err
}

func (v *Validator) verifyWithCertificate(ctx context.Context, req *Request, now time.Time) error {
	data, ok := v.cache.Lookup(req.CertURL)
	if ok {
		if _, err := ParseCertificate(data); err != nil {
			v.logger.Warn("cached certificate unreadable, refetching",
				zap.String("cert_url", req.CertURL), zap.Error(err))
			v.cache.Evict(req.CertURL)
			ok = false
		}
	}
	if !ok {
		fetched, err := v.fetcher.Fetch(ctx, req.CertURL)
		if err != nil {
			return err
		}
		v.cache.Store(req.CertURL, fetched)
		data = fetched
	}

	if err := VerifySignature(req.Body, req.Signature, data); err != nil {
		return err
	}

	info, err := ParseCertificate(data)
	if err != nil {
		return err
	}

	return CheckContent(info, v.domain, now)
}
