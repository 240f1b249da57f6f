package toggle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/platform"
	"github.com/agentx-labs/tooldex/internal/scanner"
)

// Locations are the platform roots whose config documents hold server
// descriptors.
type Locations struct {
	ClaudeHome string
	// ClaudeJSON is the user-level claude.json. Empty skips it.
	ClaudeJSON string
	CodexHome  string
}

// Result is the outcome of a successful toggle.
type Result struct {
	NewStatus catalog.Status
	Message   string
}

// Engine performs toggles against the artifacts under Locations. It holds
// no locks: concurrent toggles of the same entry from two processes race.
type Engine struct {
	loc    Locations
	logger *zap.Logger
}

// New creates an Engine. A nil logger discards output.
func New(loc Locations, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{loc: loc, logger: logger}
}

// Toggle flips e to the opposite of its recorded status. Entries that can
// not be toggled yield a NotSupportedError; toggles that apply but cannot
// complete yield a FailedError and leave the artifact untouched.
func (t *Engine) Toggle(e catalog.Entry) (Result, error) {
	if err := supported(e); err != nil {
		return Result{}, err
	}

	var (
		where string
		err   error
	)
	switch e.Type {
	case catalog.TypeSkill, catalog.TypeCommand, catalog.TypeHook, catalog.TypeBinary:
		where, err = t.toggleFile(e)
	case catalog.TypeServer:
		if e.Platform == catalog.PlatformCodex {
			where, err = t.toggleCodexServer(e)
		} else {
			where, err = t.toggleClaudeServer(e)
		}
	}
	if err != nil {
		return Result{}, err
	}

	next := e.Status.Opposite()
	verb := "Enabled"
	if next == catalog.StatusDisabled {
		verb = "Disabled"
	}
	t.logger.Info("toggled component",
		zap.String("identity", e.Identity.String()),
		zap.String("status", string(next)),
		zap.String("location", where))
	return Result{
		NewStatus: next,
		Message:   fmt.Sprintf("%s %s %s: %s (%s)", verb, e.Platform, e.Type, e.Name, where),
	}, nil
}

func supported(e catalog.Entry) error {
	reject := func(reason string) error {
		return &NotSupportedError{Identity: e.Identity, Reason: reason}
	}
	if !e.Status.Toggleable() {
		return reject(fmt.Sprintf("status %q is neither active nor disabled", e.Status))
	}

	switch e.Type {
	case catalog.TypeSkill, catalog.TypeHook, catalog.TypeBinary:
		return nil
	case catalog.TypeCommand:
		if d, ok := e.Detail.(*catalog.CommandDetail); ok && d.FromPlugin != "" {
			return reject("provided by plugin " + d.FromPlugin + "; toggle the plugin instead")
		}
		if e.Origin == catalog.OriginPlugin {
			return reject("provided by a plugin; toggle the plugin instead")
		}
		return nil
	case catalog.TypeServer:
		if e.Origin == catalog.OriginPlugin {
			return reject("provided by a plugin; toggle the plugin instead")
		}
		if d, ok := e.Detail.(*catalog.ServerDetail); (ok && d.Builtin) || e.Name == scanner.BuiltinChromeServer {
			return reject("built-in integration managed by the host")
		}
		if e.Platform != catalog.PlatformClaude && e.Platform != catalog.PlatformCodex {
			return reject(fmt.Sprintf("unknown platform %q", e.Platform))
		}
		return nil
	}
	return reject(fmt.Sprintf("type %q is reported only", e.Type))
}

// toggleFile moves a file or directory between its root and the root's
// .disabled sibling.
func (t *Engine) toggleFile(e catalog.Entry) (string, error) {
	fail := func(reason Reason, detail string, err error) (string, error) {
		return "", &FailedError{Identity: e.Identity, Reason: reason, Detail: detail, Err: err}
	}

	src := e.InstallPath
	if src == "" {
		return fail(ReasonMissing, "entry has no install path", nil)
	}
	if _, err := os.Lstat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fail(ReasonMissing, src+" not found", nil)
		}
		return fail(ReasonIO, "", err)
	}

	parent := filepath.Dir(src)
	inDisabled := filepath.Base(parent) == scanner.DisabledDir
	switch {
	case e.Status == catalog.StatusActive && inDisabled:
		return fail(ReasonInconsistent, src+" is already in the disabled area", nil)
	case e.Status == catalog.StatusDisabled && !inDisabled:
		return fail(ReasonInconsistent, src+" is not in the disabled area", nil)
	}

	var dst string
	if inDisabled {
		dst = filepath.Join(filepath.Dir(parent), filepath.Base(src))
	} else {
		dst = filepath.Join(parent, scanner.DisabledDir, filepath.Base(src))
	}

	if err := platform.Move(src, dst); err != nil {
		if errors.Is(err, platform.ErrExists) {
			return fail(ReasonCollision, dst+" already exists", nil)
		}
		return fail(ReasonIO, "", err)
	}
	return dst, nil
}
