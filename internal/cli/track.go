package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/platform"
)

// Hook environment variables read by track --from-hook.
const (
	ToolDataEnv  = "TOOL_DATA"
	SessionIDEnv = "SESSION_ID"
)

var (
	trackSession    string
	trackDurationMS int64
	trackFailed     bool
	trackError      string
	trackFromHook   bool
)

func init() {
	trackCmd.Flags().StringVar(&trackSession, "session", "", "Session id (default: generated)")
	trackCmd.Flags().Int64Var(&trackDurationMS, "duration-ms", -1, "Invocation duration in milliseconds")
	trackCmd.Flags().BoolVar(&trackFailed, "failed", false, "Record the invocation as failed")
	trackCmd.Flags().StringVar(&trackError, "error", "", "Error message of a failed invocation")
	trackCmd.Flags().BoolVar(&trackFromHook, "from-hook", false, "Read the invocation from the "+ToolDataEnv+" hook payload")
	rootCmd.AddCommand(trackCmd)
}

var trackCmd = &cobra.Command{
	Use:   "track [identity]",
	Short: "Record one invocation of a component",
	Long: `Record that a component was invoked. Invocations of components the catalog
does not know are ignored.

With --from-hook the invocation is read from the ` + ToolDataEnv + ` JSON payload of a
post-tool-use hook: Skill tools track the named skill, SlashCommand tools the
command, and mcp__<server>__<tool> tools the server. Other tools are ignored.
Hook mode never fails and does nothing until a catalog exists, so it cannot
break the calling hook.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrack,
}

func runTrack(cmd *cobra.Command, args []string) error {
	var (
		inv catalog.Invocation
		ok  bool
	)
	if trackFromHook {
		if !platform.Exists(app.paths.DBPath) {
			return nil
		}
		inv, ok = parseHookPayload(os.Getenv(ToolDataEnv))
		if !ok {
			app.logger.Debug("hook payload not tracked")
			return nil
		}
		if inv.SessionID == "" {
			inv.SessionID = os.Getenv(SessionIDEnv)
		}
	} else {
		if len(args) != 1 {
			return errors.New("track needs an identity or --from-hook")
		}
		id, err := parseIdentity(args[0])
		if err != nil {
			return err
		}
		inv = catalog.Invocation{
			Identity:  id,
			SessionID: trackSession,
			Success:   !trackFailed,
			Error:     trackError,
		}
		if trackDurationMS >= 0 {
			d := time.Duration(trackDurationMS) * time.Millisecond
			inv.Duration = &d
		}
	}
	if inv.SessionID == "" {
		inv.SessionID = uuid.NewString()
	}

	recorded, err := track(cmd, inv)
	if err != nil {
		if trackFromHook {
			app.logger.Warn("tracking hook invocation failed", zap.Error(err))
			return nil
		}
		return err
	}
	if !trackFromHook {
		if recorded {
			fmt.Fprintf(cmd.OutOrStdout(), "Tracked %s\n", inv.Identity)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is not in the catalog; invocation ignored\n", inv.Identity)
		}
	}
	return nil
}

func track(cmd *cobra.Command, inv catalog.Invocation) (bool, error) {
	st, err := openStore(cmd.Context())
	if err != nil {
		return false, err
	}
	defer st.Close()
	return st.Track(cmd.Context(), inv)
}

// hookPayload is the tool data a post-tool-use hook receives.
type hookPayload struct {
	Name       string          `json:"name"`
	ToolName   string          `json:"tool_name"`
	Input      json.RawMessage `json:"input"`
	ToolInput  json.RawMessage `json:"tool_input"`
	SessionID  string          `json:"session_id"`
	DurationMS *float64        `json:"duration_ms"`
	Success    *bool           `json:"success"`
	Error      string          `json:"error"`
}

// parseHookPayload maps a hook payload to an invocation. It reports false
// for payloads that do not name a tracked component.
func parseHookPayload(raw string) (catalog.Invocation, bool) {
	var p hookPayload
	if strings.TrimSpace(raw) == "" || json.Unmarshal([]byte(raw), &p) != nil {
		return catalog.Invocation{}, false
	}
	tool := firstNonEmpty(p.ToolName, p.Name)
	input := p.ToolInput
	if len(input) == 0 {
		input = p.Input
	}
	var fields struct {
		Skill   string `json:"skill"`
		Command string `json:"command"`
	}
	_ = json.Unmarshal(input, &fields)

	var (
		typ  catalog.ComponentType
		name string
	)
	switch {
	case tool == "Skill":
		typ, name = catalog.TypeSkill, fields.Skill
	case strings.HasPrefix(tool, "Skill:"):
		typ, name = catalog.TypeSkill, strings.TrimPrefix(tool, "Skill:")
	case tool == "SlashCommand":
		typ, name = catalog.TypeCommand, commandName(fields.Command)
	case strings.HasPrefix(tool, "/"):
		typ, name = catalog.TypeCommand, commandName(tool)
	case strings.HasPrefix(tool, "mcp__"):
		server, _, found := strings.Cut(strings.TrimPrefix(tool, "mcp__"), "__")
		if found {
			typ, name = catalog.TypeServer, server
		}
	}
	name = strings.TrimSpace(name)
	if typ == "" || name == "" {
		return catalog.Invocation{}, false
	}

	inv := catalog.Invocation{
		Identity:  catalog.Identity{Platform: catalog.PlatformClaude, Type: typ, Name: name},
		SessionID: p.SessionID,
		Success:   p.Success == nil || *p.Success,
		Error:     p.Error,
	}
	if p.Error != "" && p.Success == nil {
		inv.Success = false
	}
	if p.DurationMS != nil && *p.DurationMS >= 0 {
		d := time.Duration(*p.DurationMS * float64(time.Millisecond))
		inv.Duration = &d
	}
	return inv, true
}

// commandName extracts "deploy" from "/deploy prod".
func commandName(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "/")
	name, _, _ := strings.Cut(s, " ")
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
