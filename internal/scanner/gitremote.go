package scanner

import (
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// GitRemote returns the origin URL of the git repository containing path,
// found by walking up to the nearest .git/config. Credentials embedded in
// the URL are dropped. It returns "" when there is no repository or remote.
func GitRemote(path string) string {
	dir := path
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		dir = filepath.Dir(path)
	}
	dir = filepath.Clean(dir)

	for {
		cfgPath := filepath.Join(dir, ".git", "config")
		if info, err := os.Stat(cfgPath); err == nil && info.Mode().IsRegular() {
			return originURL(cfgPath)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func originURL(cfgPath string) string {
	cfg, err := ini.Load(cfgPath)
	if err != nil {
		return ""
	}
	remote := cfg.Section(`remote "origin"`).Key("url").String()
	if u, err := url.Parse(remote); err == nil && u.User != nil {
		u.User = nil
		return u.String()
	}
	return remote
}
