package store

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ProbeStep is one connectivity check run by Probe.
type ProbeStep struct {
	Name    string
	OK      bool
	Skipped bool
	Elapsed time.Duration
	Err     error
}

// ProbeResult collects the checks for one backend.
type ProbeResult struct {
	Backend Backend
	Dialect string
	Target  string // host:port for remote, DSN for embedded
	Steps   []ProbeStep
}

// OK reports whether every step that ran passed.
func (r *ProbeResult) OK() bool {
	for _, s := range r.Steps {
		if !s.Skipped && !s.OK {
			return false
		}
	}
	return true
}

// Probe checks a backend without publishing it: for remote, a TCP dial to
// host:port followed by a full open; for embedded, just the open.
// The opened store is closed before returning.
func Probe(ctx context.Context, opts OpenOptions, logger *zap.Logger) *ProbeResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	res := &ProbeResult{Backend: opts.Backend}

	if opts.Backend == BackendRemote {
		d, ok := Lookup(opts.Remote.Driver)
		res.Dialect = opts.Remote.Driver
		port := opts.Remote.Port
		if ok {
			res.Dialect = d.Name
			port = opts.Remote.portOr(d.DefaultPort)
		}
		res.Target = net.JoinHostPort(opts.Remote.Host, strconv.Itoa(port))

		step := ProbeStep{Name: "tcp"}
		if opts.Remote.Host == "" {
			step.Skipped = true
			step.Err = errors.New("no remote host configured")
		} else {
			start := time.Now()
			dialer := net.Dialer{Timeout: opts.Remote.connectTimeout()}
			conn, err := dialer.DialContext(ctx, "tcp", res.Target)
			step.Elapsed = time.Since(start)
			if err != nil {
				step.Err = err
			} else {
				step.OK = true
				_ = conn.Close()
			}
		}
		res.Steps = append(res.Steps, step)
	} else {
		res.Dialect = "sqlite"
		res.Target = opts.Embedded.DSN
		if res.Target == "" {
			res.Target = EmbeddedMemoryDSN
		}
	}

	step := ProbeStep{Name: "open"}
	start := time.Now()
	s, err := Open(ctx, opts, logger)
	step.Elapsed = time.Since(start)
	if err != nil {
		step.Err = err
	} else {
		step.OK = true
		_ = s.Close()
	}
	res.Steps = append(res.Steps, step)

	logger.Debug("Store probe finished",
		zap.String("backend", string(res.Backend)),
		zap.String("dialect", res.Dialect),
		zap.Bool("ok", res.OK()))
	return res
}
