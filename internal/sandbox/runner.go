package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultMaxOutput = 64 * 1024
	waitDelay        = time.Second
)

type Config struct {
	Toolchain Toolchain
	Timeout   time.Duration
	MaxOutput int
	// WorkDir is the parent of the per-request directories; empty means os.TempDir().
	WorkDir string
}

// Runner executes ExecRequests. It holds no per-request state, so any
// number of runs may be in flight.
type Runner struct {
	cfg      Config
	inflight sync.WaitGroup
}

func NewRunner(cfg Config) *Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxOutput <= 0 {
		cfg.MaxOutput = DefaultMaxOutput
	}
	if cfg.Toolchain == (Toolchain{}) {
		cfg.Toolchain = DefaultToolchain()
	}
	return &Runner{cfg: cfg}
}

// Submit runs req on its own goroutine and calls done with the result.
// The working directory is removed after done returns.
func (r *Runner) Submit(ctx context.Context, req domain.ExecRequest, done func(domain.ExecResult)) {
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		res, dir := r.run(ctx, req)
		done(res)
		cleanup(dir)
	}()
}

// Run is the synchronous form of Submit.
func (r *Runner) Run(ctx context.Context, req domain.ExecRequest) domain.ExecResult {
	res, dir := r.run(ctx, req)
	cleanup(dir)
	return res
}

// Wait blocks until every submitted run has delivered its result.
func (r *Runner) Wait() {
	r.inflight.Wait()
}

func (r *Runner) run(ctx context.Context, req domain.ExecRequest) (domain.ExecResult, string) {
	start := time.Now()
	logger := log.With().Str("module", "sandbox").Str("room", string(req.Room)).Str("language", req.Language).Logger()

	lang, err := domain.ParseLanguage(req.Language)
	if err != nil {
		logger.Warn().Msg("unsupported language")
		return domain.ExecResult{
			Output: fmt.Sprintf("%v: %s", domain.ErrUnsupportedLanguage, req.Language),
			Failed: true,
		}, ""
	}

	dir, err := os.MkdirTemp(r.cfg.WorkDir, "run-*")
	if err != nil {
		logger.Error().Err(err).Msg("create workdir")
		return domain.ExecResult{Output: err.Error(), Failed: true}, ""
	}

	p := r.cfg.Toolchain.plan(lang, dir)
	if err := os.WriteFile(p.source, []byte(req.Code), 0o600); err != nil {
		logger.Error().Err(err).Msg("write source")
		return domain.ExecResult{Output: err.Error(), Failed: true}, dir
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	var res domain.ExecResult
	for _, argv := range p.steps {
		stdout, stderr, err := r.exec(ctx, dir, argv)
		if err != nil {
			res.Failed = true
			res.Output = stderr
			if res.Output == "" {
				res.Output = err.Error()
			}
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				res.TimedOut = true
				res.Output += fmt.Sprintf("\nexecution timed out after %s", r.cfg.Timeout)
			}
			break
		}
		res.Output = stdout
	}
	res.Duration = time.Since(start)

	logger.Info().Bool("failed", res.Failed).Bool("timed_out", res.TimedOut).
		Dur("duration", res.Duration).Msg("execution finished")
	return res, dir
}

func (r *Runner) exec(ctx context.Context, dir string, argv []string) (string, string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	stdout := &cappedBuffer{max: r.cfg.MaxOutput}
	stderr := &cappedBuffer{max: r.cfg.MaxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	isolate(cmd)
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// cleanup is best effort; failures only leave a stray temp dir.
func cleanup(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		log.Debug().Err(err).Str("module", "sandbox").Str("dir", dir).Msg("cleanup failed")
	}
}
