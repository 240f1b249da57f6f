package scanner

import (
	"encoding/json"
	"path/filepath"
	"sort"
)

// TranscriptMetrics summarises token use and tool calls across the
// per-project JSONL transcripts.
type TranscriptMetrics struct {
	Transcripts         int            `json:"transcripts"`
	InputTokens         int64          `json:"input_tokens"`
	OutputTokens        int64          `json:"output_tokens"`
	CacheReadTokens     int64          `json:"cache_read_tokens"`
	CacheCreationTokens int64          `json:"cache_creation_tokens"`
	ToolCounts          map[string]int `json:"tool_counts"`
	TopTools            []NameCount    `json:"top_tools,omitempty"`
	ModelCounts         map[string]int `json:"model_counts"`
}

// CacheEfficiency is cache-read tokens as a share of input tokens.
func (m *TranscriptMetrics) CacheEfficiency() float64 {
	if m == nil || m.InputTokens == 0 {
		return 0
	}
	return float64(m.CacheReadTokens) / float64(m.InputTokens)
}

type transcriptLine struct {
	Type    string `json:"type"`
	Message *struct {
		Model string `json:"model"`
		Usage *struct {
			InputTokens         int64 `json:"input_tokens"`
			OutputTokens        int64 `json:"output_tokens"`
			CacheReadTokens     int64 `json:"cache_read_input_tokens"`
			CacheCreationTokens int64 `json:"cache_creation_input_tokens"`
		} `json:"usage"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// ScanTranscripts reads every projects/<project>/*.jsonl transcript.
// Unreadable files and malformed lines are skipped.
func ScanTranscripts(dir string) (*TranscriptMetrics, error) {
	if gone, err := missing(dir); gone || err != nil {
		return nil, err
	}
	projects, err := readDir(dir)
	if err != nil {
		return nil, err
	}

	m := &TranscriptMetrics{ToolCounts: map[string]int{}, ModelCounts: map[string]int{}}
	for _, project := range projects {
		if !project.IsDir() {
			continue
		}
		files, err := filepath.Glob(filepath.Join(dir, project.Name(), "*.jsonl"))
		if err != nil {
			continue
		}
		sort.Strings(files)
		for _, file := range files {
			m.Transcripts++
			_ = eachLine(file, m.addLine)
		}
	}
	m.TopTools = topCounts(m.ToolCounts, 20)
	return m, nil
}

func (m *TranscriptMetrics) addLine(line []byte) {
	var tl transcriptLine
	if json.Unmarshal(line, &tl) != nil || tl.Type != "assistant" || tl.Message == nil {
		return
	}
	msg := tl.Message
	if msg.Model != "" {
		m.ModelCounts[msg.Model]++
	}
	if u := msg.Usage; u != nil {
		m.InputTokens += u.InputTokens
		m.OutputTokens += u.OutputTokens
		m.CacheReadTokens += u.CacheReadTokens
		m.CacheCreationTokens += u.CacheCreationTokens
	}

	var content []map[string]any
	if json.Unmarshal(msg.Content, &content) != nil {
		return
	}
	for _, item := range content {
		if kind, _ := item["type"].(string); kind != "tool_use" {
			continue
		}
		if name, _ := item["name"].(string); name != "" {
			m.ToolCounts[name]++
		}
	}
}
