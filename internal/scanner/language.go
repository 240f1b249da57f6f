package scanner

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

var extLanguages = map[string]string{
	".py":   "python",
	".sh":   "bash",
	".bash": "bash",
	".zsh":  "bash",
	".js":   "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".ts":   "typescript",
	".rb":   "ruby",
	".pl":   "perl",
}

var machoMagic = [][]byte{
	{0xfe, 0xed, 0xfa, 0xce},
	{0xfe, 0xed, 0xfa, 0xcf},
	{0xce, 0xfa, 0xed, 0xfe},
	{0xcf, 0xfa, 0xed, 0xfe},
}

// detectLanguage classifies a script or executable by extension, then by
// magic bytes (ELF, Mach-O), then by shebang interpreter.
func detectLanguage(path string) string {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}

	f, err := os.Open(path)
	if err != nil {
		return "unknown"
	}
	defer f.Close()

	r := bufio.NewReader(f)
	head, _ := r.Peek(4)
	if bytes.Equal(head, []byte("\x7fELF")) {
		return "compiled"
	}
	for _, magic := range machoMagic {
		if bytes.Equal(head, magic) {
			return "compiled"
		}
	}

	first, _ := r.ReadString('\n')
	if strings.HasPrefix(first, "#!") {
		return shebangLanguage(first)
	}
	return "unknown"
}

// shebangLanguage maps "#!/usr/bin/env python3" or "#!/bin/bash" to a
// language name.
func shebangLanguage(line string) string {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "#!"))
	if len(fields) == 0 {
		return "unknown"
	}
	interp := filepath.Base(fields[0])
	if interp == "env" {
		for _, f := range fields[1:] {
			if !strings.HasPrefix(f, "-") {
				interp = filepath.Base(f)
				break
			}
		}
	}

	switch {
	case strings.HasPrefix(interp, "python"):
		return "python"
	case interp == "node" || interp == "deno" || interp == "bun":
		return "javascript"
	case interp == "bash" || interp == "sh" || interp == "zsh" || interp == "dash":
		return "bash"
	case strings.HasPrefix(interp, "ruby"):
		return "ruby"
	case strings.HasPrefix(interp, "perl"):
		return "perl"
	}
	return interp
}
