// Package debug contains runtime introspection helpers used by the admin
// server: filtered goroutine dumps and approximate value sizes.
package debug

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
)

// FilterConfig defines what to include/exclude from the goroutine dump.
type FilterConfig struct {
	// Exclude goroutines whose stack contains any of these strings.
	ExcludePatterns []string
	// Only include goroutines whose stack contains any of these strings.
	IncludePatterns []string
	// Only include goroutines blocked for at least this long. The runtime
	// reports wait times in whole minutes, so anything below a minute
	// matches every goroutine that reports a wait.
	MinDuration time.Duration
	// Only show goroutines in these states (running, runnable, sleep, etc).
	States []string
}

// FormatSize formats a byte count for humans, e.g. 1.5K or 12M.
func FormatSize(size uint64) string {
	return bytefmt.ByteSize(size)
}

// GoroutineDump returns the stacks of all goroutines that pass cfg,
// separated by blank lines.
func GoroutineDump(cfg FilterConfig) string {
	var out strings.Builder

	for _, g := range bytes.Split(allStacks(), []byte("\n\n")) {
		stack := strings.TrimSpace(string(g))
		if stack == "" || !cfg.match(stack) {
			continue
		}

		out.WriteString(stack)
		out.WriteString("\n\n")
	}

	return out.String()
}

// StartDumper logs a filtered goroutine dump every interval until ctx is done.
func StartDumper(ctx context.Context, logger *slog.Logger, interval time.Duration, cfg FilterConfig) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Info("goroutine dump",
					slog.Int("goroutines", runtime.NumGoroutine()),
					slog.String("stacks", GoroutineDump(cfg)))
			}
		}
	}()
}

func allStacks() []byte {
	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return buf[:n]
		}
		buf = make([]byte, 2*len(buf))
	}
}

// header matches the first line of a goroutine stack, e.g.
// "goroutine 7 [chan receive, 3 minutes]:".
var header = regexp.MustCompile(`^goroutine \d+ \[([^,\]]+)(?:, (\d+) minutes)?`)

func (cfg FilterConfig) match(stack string) bool {
	for _, pattern := range cfg.ExcludePatterns {
		if strings.Contains(stack, pattern) {
			return false
		}
	}

	if len(cfg.IncludePatterns) > 0 && !containsAny(stack, cfg.IncludePatterns) {
		return false
	}

	m := header.FindStringSubmatch(stack)
	if m == nil {
		return len(cfg.States) == 0 && cfg.MinDuration <= 0
	}

	if len(cfg.States) > 0 && !hasPrefixAny(m[1], cfg.States) {
		return false
	}

	if cfg.MinDuration > 0 {
		if m[2] == "" {
			return false
		}
		minutes, err := strconv.Atoi(m[2])
		if err != nil || time.Duration(minutes)*time.Minute < cfg.MinDuration {
			return false
		}
	}

	return true
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}

	return false
}

func hasPrefixAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}

	return false
}

// SizeReport describes the approximate memory footprint of v, with a line
// per field when v is a struct.
func SizeReport(name string, v any) string {
	var b strings.Builder

	size := SizeOf(v)
	fmt.Fprintf(&b, "%s: %s (%s bytes)\n", name, FormatSize(size), addCommas(size))

	fields := fieldSizes(v)
	if len(fields) == 0 {
		return b.String()
	}

	b.WriteString("  Struct fields:\n")
	var total uint64
	for _, f := range fields {
		total += f.size
		fmt.Fprintf(&b, "    %s: %s (%s bytes)\n", f.name, FormatSize(f.size), addCommas(f.size))
	}
	fmt.Fprintf(&b, "  Total struct size: %s (%s bytes)\n", FormatSize(total), addCommas(total))

	return b.String()
}

func addCommas(n uint64) string {
	str := strconv.FormatUint(n, 10)
	if len(str) <= 3 {
		return str
	}

	var b strings.Builder
	lead := len(str) % 3
	if lead > 0 {
		b.WriteString(str[:lead])
	}
	for i := lead; i < len(str); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(str[i : i+3])
	}

	return b.String()
}
