package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

// Detail is the type-specific part of an entry. The set of implementations
// is closed; Kind reports which component type a detail belongs to.
type Detail interface {
	Kind() ComponentType
	isDetail()
}

// Field is one declared input or output of a skill or command.
type Field struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Tools groups tool invocations detected in code blocks.
type Tools struct {
	Composio []string `json:"composio_tools,omitempty"`
	MCP      []string `json:"mcp_tools,omitempty"`
	CLI      []string `json:"cli_tools,omitempty"`
}

// Empty reports whether no tools were detected.
func (t Tools) Empty() bool {
	return len(t.Composio) == 0 && len(t.MCP) == 0 && len(t.CLI) == 0
}

// Metric is one performance figure documented by a skill.
type Metric struct {
	Name    string `json:"name"`
	Value   string `json:"value,omitempty"`
	Speedup string `json:"speedup,omitempty"`
}

// Insights is the heuristic metadata extracted from markdown bodies of
// skills and commands.
type Insights struct {
	Inputs          []Field  `json:"inputs,omitempty"`
	Outputs         []Field  `json:"outputs,omitempty"`
	SafetyNotes     []string `json:"safety_notes,omitempty"`
	Gotchas         []string `json:"gotchas,omitempty"`
	Prerequisites   []string `json:"prerequisites,omitempty"`
	WhenToUse       []string `json:"when_to_use,omitempty"`
	RequiredEnvVars []string `json:"required_env_vars,omitempty"`
	TriggerTypes    []string `json:"trigger_types,omitempty"`
	CapabilityTags  []string `json:"capability_tags,omitempty"`
	SideEffects     []string `json:"side_effects,omitempty"`
	RiskLevel       string   `json:"risk_level,omitempty"`
	DetectedTools   Tools    `json:"detected_tools"`
	FileRefs        []string `json:"file_refs,omitempty"`
	// DependsOn holds referenced component names. After reference
	// resolution, resolved names are canonical and unresolved ones raw.
	DependsOn []string `json:"depends_on,omitempty"`
	UsedBy    []string `json:"used_by,omitempty"`
}

// SkillDetail describes a skill directory.
type SkillDetail struct {
	Description  string   `json:"description"`
	Tags         []string `json:"tags,omitempty"`
	AllowedTools []string `json:"allowed_tools,omitempty"`
	FileCount    int      `json:"file_count"`
	TotalLines   int      `json:"total_lines"`
	HasDocs      bool     `json:"has_docs"`
	Performance  []Metric `json:"performance,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	Insights
}

// CommandDetail describes a slash command.
type CommandDetail struct {
	Description           string   `json:"description"`
	ArgumentHint          string   `json:"argument_hint,omitempty"`
	AllowedTools          []string `json:"allowed_tools,omitempty"`
	FromPlugin            string   `json:"from_plugin,omitempty"`
	InvocationAliases     []string `json:"invocation_aliases,omitempty"`
	InvocationArguments   string   `json:"invocation_arguments,omitempty"`
	InvocationInstruction string   `json:"invocation_instruction,omitempty"`
	Warnings              []string `json:"warnings,omitempty"`
	Insights
}

// PluginDetail describes an installed plugin.
type PluginDetail struct {
	Marketplace      string     `json:"marketplace"`
	Description      string     `json:"description,omitempty"`
	Author           string     `json:"author,omitempty"`
	Homepage         string     `json:"homepage,omitempty"`
	Repository       string     `json:"repository,omitempty"`
	License          string     `json:"license,omitempty"`
	InstalledAt      *time.Time `json:"installed_at,omitempty"`
	LastUpdated      *time.Time `json:"last_updated,omitempty"`
	GitCommitSHA     string     `json:"git_commit_sha,omitempty"`
	ProvidesCommands []string   `json:"provides_commands,omitempty"`
	ProvidesServers  []string   `json:"provides_servers,omitempty"`
	OtherVersions    []string   `json:"other_versions,omitempty"`
}

// HookDetail describes a hook script.
type HookDetail struct {
	Trigger  string `json:"trigger"`
	Language string `json:"language"`
	FileSize int64  `json:"file_size"`
}

// ServerDetail describes an RPC (MCP) server descriptor.
type ServerDetail struct {
	Description string            `json:"description,omitempty"`
	Command     string            `json:"command,omitempty"`
	Args        []string          `json:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	Transport   string            `json:"transport"`
	URL         string            `json:"url,omitempty"`
	GitRemote   string            `json:"git_remote,omitempty"`
	// Source is the config document the descriptor was read from.
	Source  string         `json:"source,omitempty"`
	Scope   string         `json:"scope,omitempty"`
	Builtin bool           `json:"builtin,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// BinaryDetail describes an executable file.
type BinaryDetail struct {
	Language   string `json:"language"`
	FileSize   int64  `json:"file_size"`
	Executable bool   `json:"executable"`
}

func (*SkillDetail) Kind() ComponentType   { return TypeSkill }
func (*CommandDetail) Kind() ComponentType { return TypeCommand }
func (*PluginDetail) Kind() ComponentType  { return TypePlugin }
func (*HookDetail) Kind() ComponentType    { return TypeHook }
func (*ServerDetail) Kind() ComponentType  { return TypeServer }
func (*BinaryDetail) Kind() ComponentType  { return TypeBinary }

func (*SkillDetail) isDetail()   {}
func (*CommandDetail) isDetail() {}
func (*PluginDetail) isDetail()  {}
func (*HookDetail) isDetail()    {}
func (*ServerDetail) isDetail()  {}
func (*BinaryDetail) isDetail()  {}

type envelope struct {
	Kind ComponentType   `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// EncodeDetail serializes d into a {"kind","data"} envelope. A nil detail
// encodes as JSON null.
func EncodeDetail(d Detail) ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding %s detail: %w", d.Kind(), err)
	}
	return json.Marshal(envelope{Kind: d.Kind(), Data: data})
}

// DecodeDetail reverses EncodeDetail.
func DecodeDetail(raw []byte) (Detail, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding detail envelope: %w", err)
	}

	var d Detail
	switch env.Kind {
	case TypeSkill:
		d = &SkillDetail{}
	case TypeCommand:
		d = &CommandDetail{}
	case TypePlugin:
		d = &PluginDetail{}
	case TypeHook:
		d = &HookDetail{}
	case TypeServer:
		d = &ServerDetail{}
	case TypeBinary:
		d = &BinaryDetail{}
	default:
		return nil, fmt.Errorf("unknown detail kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Data, d); err != nil {
		return nil, fmt.Errorf("decoding %s detail: %w", env.Kind, err)
	}
	return d, nil
}
