// Package portresolver discovers which local port the docpost server listens on.
//
// Discovery is an ordered ladder; the first candidate that answers a
// liveness probe wins:
//
//  1. port-info.json, only when younger than MaxDescriptorAge
//  2. server-port.txt
//  3. the port cached in the PortStore (evicted if it no longer answers)
//  4. the default port
//  5. a list of common development ports
//
// Every accepted port is written back to the PortStore for the next call.
package portresolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/Shimizu-Technology/docpost-api/internal/errors"
	"github.com/Shimizu-Technology/docpost-api/internal/fallback"
)

// Defaults mirror what the server advertises out of the box.
const (
	DefaultPort               = 64970
	DefaultMaxDescriptorAge   = 2 * time.Hour
	DefaultProbeTimeout       = 2 * time.Second
	DefaultCommonProbeTimeout = 1500 * time.Millisecond
)

// DefaultCommonPorts are tried, in order, when everything else failed.
var DefaultCommonPorts = []int{5000, 3000, 8080, 4000, 5001, 3001}

// Prober checks whether a docpost server answers on port.
// *backend.Client satisfies it.
type Prober interface {
	Probe(ctx context.Context, port int, timeout time.Duration) error
}

// Options tunes a Resolver. Zero values fall back to the defaults above.
type Options struct {
	DefaultPort        int
	CommonPorts        []int
	MaxDescriptorAge   time.Duration
	ProbeTimeout       time.Duration
	CommonProbeTimeout time.Duration
	Logger             *slog.Logger
	Now                func() time.Time // Injectable clock for staleness checks
}

// Resolver runs the discovery ladder.
type Resolver struct {
	source DescriptorSource
	store  PortStore
	prober Prober
	opts   Options
	log    *slog.Logger
}

// New creates a Resolver. source may be nil when no advertisement files are reachable.
func New(source DescriptorSource, store PortStore, prober Prober, opts Options) *Resolver {
	if opts.DefaultPort == 0 {
		opts.DefaultPort = DefaultPort
	}
	if opts.CommonPorts == nil {
		opts.CommonPorts = DefaultCommonPorts
	}
	if opts.MaxDescriptorAge == 0 {
		opts.MaxDescriptorAge = DefaultMaxDescriptorAge
	}
	if opts.ProbeTimeout == 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.CommonProbeTimeout == 0 {
		opts.CommonProbeTimeout = DefaultCommonProbeTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Resolver{
		source: source,
		store:  store,
		prober: prober,
		opts:   opts,
		log:    opts.Logger.With("component", "portresolver"),
	}
}

// Resolve returns the first live port, or a PORT_NOT_FOUND error listing
// every strategy that was attempted.
func (r *Resolver) Resolve(ctx context.Context) (int, error) {
	r.log.Debug("starting server port discovery")

	port, _, err := fallback.FirstSuccess(ctx, struct{}{}, r.strategies()...)
	if err != nil {
		var exhausted *fallback.ExhaustedError
		attempted := []string{}
		if errors.As(err, &exhausted) {
			attempted = exhausted.Names()
		}
		r.log.Warn("server port discovery failed", "attempted", attempted)
		return 0, apperrors.NewPortNotFound(attempted)
	}

	if err := r.store.Set(port); err != nil {
		r.log.Warn("failed to persist server port", "port", port, "error", err)
	}
	return port, nil
}

func (r *Resolver) strategies() []fallback.Strategy[struct{}, int] {
	return []fallback.Strategy[struct{}, int]{
		{Name: PortInfoFile, Run: r.fromPortInfo},
		{Name: PortTextFile, Run: r.fromPortText},
		{Name: "cached port", Run: r.fromStore},
		{Name: fmt.Sprintf("default port %d", r.opts.DefaultPort), Run: r.fromDefault},
		{Name: "common ports", Run: r.fromCommonPorts},
	}
}

func (r *Resolver) fromPortInfo(ctx context.Context, _ struct{}) (int, error) {
	if r.source == nil {
		return 0, errors.New("no descriptor source configured")
	}
	info, err := r.source.PortInfo(ctx)
	if err != nil {
		r.log.Debug("could not read port descriptor", "error", err)
		return 0, err
	}

	age := r.opts.Now().Sub(info.Timestamp)
	if age >= r.opts.MaxDescriptorAge {
		r.log.Debug("port descriptor is stale", "port", info.Port, "age", age.Round(time.Minute))
		return 0, fmt.Errorf("port info is too old (%s)", age.Round(time.Minute))
	}
	return r.verify(ctx, info.Port, r.opts.ProbeTimeout)
}

func (r *Resolver) fromPortText(ctx context.Context, _ struct{}) (int, error) {
	if r.source == nil {
		return 0, errors.New("no descriptor source configured")
	}
	text, err := r.source.PortText(ctx)
	if err != nil {
		r.log.Debug("could not read port file", "error", err)
		return 0, err
	}
	port, err := parsePort(text)
	if err != nil {
		return 0, err
	}
	return r.verify(ctx, port, r.opts.ProbeTimeout)
}

func (r *Resolver) fromStore(ctx context.Context, _ struct{}) (int, error) {
	port, ok := r.store.Get()
	if !ok {
		return 0, errors.New("no port cached")
	}
	if _, err := r.verify(ctx, port, r.opts.ProbeTimeout); err != nil {
		if delErr := r.store.Delete(); delErr != nil {
			r.log.Warn("failed to evict cached port", "port", port, "error", delErr)
		}
		return 0, err
	}
	return port, nil
}

func (r *Resolver) fromDefault(ctx context.Context, _ struct{}) (int, error) {
	return r.verify(ctx, r.opts.DefaultPort, r.opts.ProbeTimeout)
}

func (r *Resolver) fromCommonPorts(ctx context.Context, _ struct{}) (int, error) {
	for _, port := range r.opts.CommonPorts {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if p, err := r.verify(ctx, port, r.opts.CommonProbeTimeout); err == nil {
			return p, nil
		}
	}
	return 0, fmt.Errorf("no server on common ports %v", r.opts.CommonPorts)
}

func (r *Resolver) verify(ctx context.Context, port int, timeout time.Duration) (int, error) {
	if r.prober == nil {
		return 0, errors.New("no prober configured")
	}
	if err := r.prober.Probe(ctx, port, timeout); err != nil {
		r.log.Debug("port not responding", "port", port, "error", err)
		return 0, err
	}
	r.log.Debug("verified server port", "port", port)
	return port, nil
}
