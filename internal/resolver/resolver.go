// Package resolver turns a channel's watch-page URL into a playable stream URL by asking yt-dlp.
package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// HLSMarker is the substring that identifies an HLS manifest URL in the tool's output.
const HLSMarker = ".m3u8"

// ErrResolution matches every *ResolutionError via errors.Is.
var ErrResolution = errors.New("stream resolution failed")

// ResolutionError is returned when every strategy failed or produced no output.
type ResolutionError struct {
	Source string
	Err    error // last tool failure; nil when the tool only returned empty output
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to resolve stream for %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("failed to resolve stream for %s: no output", e.Source)
}

func (e *ResolutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrResolution}
	}
	return []error{ErrResolution, e.Err}
}

// Runner runs the external tool with args and returns its stdout.
// A non-nil error means the tool failed; output is ignored in that case.
type Runner interface {
	Run(ctx context.Context, args []string) ([]byte, error)
}

// ExecRunner runs Path as a subprocess.
type ExecRunner struct {
	Path string // binary name or path; "yt-dlp" when empty
}

// Run executes the binary; stderr is folded into the returned error on failure.
func (r ExecRunner) Run(ctx context.Context, args []string) ([]byte, error) {
	path := r.Path
	if path == "" {
		path = "yt-dlp"
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		var ee *exec.ExitError
		if errors.As(err, &ee) && msg != "" {
			return nil, fmt.Errorf("%s exited %d: %s", path, ee.ExitCode(), lastLine(msg))
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return stdout.Bytes(), nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// Strategy is one way of asking the tool for a URL.
type Strategy struct {
	Name string
	Args []string // flags placed before ExtraArgs and the source URL
}

var (
	// StrategyHLS asks for the best format delivered over HLS.
	StrategyHLS = Strategy{Name: "hls", Args: []string{"--no-warnings", "--geo-bypass", "--get-url", "-f", "best[protocol^=m3u8]"}}
	// StrategyAny asks for any playable URL.
	StrategyAny = Strategy{Name: "any", Args: []string{"--no-warnings", "--geo-bypass", "-g"}}
)

// Attempt is reported to the Observer after each strategy.
type Attempt struct {
	Source   string
	Strategy string
	URL      string // empty unless the strategy produced a URL
	Err      error  // tool failure, if any
	Duration time.Duration
}

// Observer receives every attempt; used for metrics and debug logging.
type Observer func(Attempt)

// Resolver resolves source URLs with StrategyHLS then StrategyAny.
type Resolver struct {
	Runner     Runner
	ExtraArgs  []string
	Strategies []Strategy // nil = StrategyHLS, StrategyAny
	Observe    Observer
}

// New returns a Resolver that runs the yt-dlp binary at path with extra args.
func New(path string, extraArgs []string) *Resolver {
	return &Resolver{Runner: ExecRunner{Path: path}, ExtraArgs: extraArgs}
}

// Resolve returns a playable URL for source, preferring an HLS manifest.
// The first strategy that yields output wins; the next is only tried after a failure or empty output.
func (r *Resolver) Resolve(ctx context.Context, source string) (string, error) {
	strategies := r.Strategies
	if strategies == nil {
		strategies = []Strategy{StrategyHLS, StrategyAny}
	}
	var lastErr error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return "", &ResolutionError{Source: source, Err: err}
		}
		args := make([]string, 0, len(s.Args)+len(r.ExtraArgs)+1)
		args = append(args, s.Args...)
		args = append(args, r.ExtraArgs...)
		args = append(args, source)

		start := time.Now()
		out, err := r.Runner.Run(ctx, args)
		var url string
		if err == nil {
			url = PickURL(out)
		} else {
			lastErr = err
		}
		if r.Observe != nil {
			r.Observe(Attempt{Source: source, Strategy: s.Name, URL: url, Err: err, Duration: time.Since(start)})
		}
		if url != "" {
			return url, nil
		}
	}
	return "", &ResolutionError{Source: source, Err: lastErr}
}

// PickURL returns the first output line containing HLSMarker, else the first non-blank line.
func PickURL(out []byte) string {
	var first string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, HLSMarker) {
			return line
		}
		if first == "" {
			first = line
		}
	}
	return first
}
