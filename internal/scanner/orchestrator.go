package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

// MaxParallel bounds how many scanners run at once.
const MaxParallel = 6

// PlatformRoots are the resolved locations of one platform installation.
type PlatformRoots struct {
	Platform catalog.Platform
	Home     string
	// ClaudeJSON is the user-level claude.json; unused for other platforms.
	ClaudeJSON string
}

// Scanners builds the scanners that apply to the platform.
func (r PlatformRoots) Scanners(logger *zap.Logger) []Scanner {
	opts := Options{Platform: r.Platform, Origin: catalog.OriginInHouse, Logger: logger}
	switch r.Platform {
	case catalog.PlatformClaude:
		plugins := filepath.Join(r.Home, "plugins")
		return []Scanner{
			NewSkillScanner(filepath.Join(r.Home, "skills"), opts),
			NewPluginScanner(plugins, filepath.Join(r.Home, "settings.json"), opts),
			NewCommandScanner(filepath.Join(r.Home, "commands"), filepath.Join(plugins, "cache"), opts),
			NewHookScanner(filepath.Join(r.Home, "hooks"), opts),
			NewServerScanner(r.Home, r.ClaudeJSON, opts),
			NewBinaryScanner(filepath.Join(r.Home, "bin"), opts),
		}
	case catalog.PlatformCodex:
		return []Scanner{
			NewSkillScanner(filepath.Join(r.Home, "skills"), opts),
			NewCodexServerScanner(filepath.Join(r.Home, CodexConfigFile), opts),
		}
	}
	return nil
}

// WatchDirs lists the directories whose changes can alter a scan.
func (r PlatformRoots) WatchDirs() []string {
	var dirs []string
	add := func(parts ...string) {
		dirs = append(dirs, filepath.Join(parts...))
	}
	add(r.Home)
	add(r.Home, "skills")
	add(r.Home, "skills", DisabledDir)
	if r.Platform == catalog.PlatformClaude {
		for _, sub := range []string{"commands", "hooks", "bin"} {
			add(r.Home, sub)
			add(r.Home, sub, DisabledDir)
		}
		add(r.Home, "plugins")
		if r.ClaudeJSON != "" {
			add(filepath.Dir(r.ClaudeJSON))
		}
	}
	return dirs
}

// Orchestrator runs every scanner of the requested platforms and merges
// their output into one ScanResult.
type Orchestrator struct {
	roots    map[catalog.Platform]PlatformRoots
	logger   *zap.Logger
	now      func() time.Time
	scanners func(PlatformRoots) []Scanner
}

// NewOrchestrator creates an orchestrator over the given platform roots.
func NewOrchestrator(roots []PlatformRoots, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		roots:  make(map[catalog.Platform]PlatformRoots, len(roots)),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	o.scanners = func(r PlatformRoots) []Scanner { return r.Scanners(o.logger) }
	for _, r := range roots {
		o.roots[r.Platform] = r
	}
	return o
}

type task struct {
	platform catalog.Platform
	scanner  Scanner
}

type taskResult struct {
	entries []catalog.Entry
	errs    []string
}

// ScanAll scans every requested platform. With parallel set, scanners run
// concurrently (at most MaxParallel at a time); otherwise one after another.
// Both modes merge in the same order, so results are identical. A scanner
// that panics contributes no entries and one error string; its siblings
// are unaffected. Scanner errors are prefixed with "[platform] ".
func (o *Orchestrator) ScanAll(ctx context.Context, platforms []catalog.Platform, parallel bool) catalog.ScanResult {
	result := catalog.ScanResult{ScanTime: o.now()}

	var tasks []task
	for _, p := range platforms {
		roots, ok := o.roots[p]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("[%s] platform has no configured roots", p))
			continue
		}
		for _, s := range o.scanners(roots) {
			tasks = append(tasks, task{platform: p, scanner: s})
		}
	}

	slots := make([]taskResult, len(tasks))
	if parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(MaxParallel)
		for i := range tasks {
			g.Go(func() error {
				slots[i] = o.run(gctx, tasks[i])
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range tasks {
			slots[i] = o.run(ctx, tasks[i])
		}
	}

	for i, t := range tasks {
		result.Append(t.scanner.Type(), slots[i].entries...)
		for _, e := range slots[i].errs {
			result.Errors = append(result.Errors, fmt.Sprintf("[%s] %s", t.platform, e))
		}
	}

	// Second pass over everything so references can cross platforms.
	linked := make([]catalog.Entry, 0, len(result.Skills)+len(result.Commands))
	linked = append(linked, result.Skills...)
	linked = append(linked, result.Commands...)
	ResolveReferences(linked)

	o.logger.Debug("scan complete",
		zap.Int("tasks", len(tasks)),
		zap.Int("entries", result.Total()),
		zap.Int("errors", len(result.Errors)))
	return result
}

// run executes one scanner, converting a panic or a cancelled context into
// an error string. Reported errors are prefixed with the scanner type.
func (o *Orchestrator) run(ctx context.Context, t task) (res taskResult) {
	if err := ctx.Err(); err != nil {
		return taskResult{errs: []string{fmt.Sprintf("error scanning %s: %v", t.scanner.Type(), err)}}
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn("scanner panicked",
				zap.String("platform", string(t.platform)),
				zap.String("type", string(t.scanner.Type())),
				zap.Any("panic", r))
			res = taskResult{errs: []string{fmt.Sprintf("error scanning %s: %v", t.scanner.Type(), r)}}
		}
	}()

	entries, errs := t.scanner.Scan()
	if len(errs) > 0 {
		o.logger.Warn("scanner reported errors",
			zap.String("platform", string(t.platform)),
			zap.String("type", string(t.scanner.Type())),
			zap.Strings("errors", errs))
	}
	tagged := make([]string, len(errs))
	for i, e := range errs {
		tagged[i] = fmt.Sprintf("%s: %s", t.scanner.Type(), e)
	}
	return taskResult{entries: entries, errs: tagged}
}
