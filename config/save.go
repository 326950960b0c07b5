package config

import (
	"bytes"
	"os"
	"path"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/xerrors"
)

func SaveConfig(cfg IHome) error {
	buf := new(bytes.Buffer)
	_, _ = buf.WriteString("# Default config:\n")
	e := toml.NewEncoder(buf)

	err := e.Encode(cfg)
	if err != nil {
		return err
	}
	cfgPath, err := cfg.ConfigPath()
	if err != nil {
		return err
	}

	_ = os.MkdirAll(path.Dir(cfgPath), os.ModePerm)
	return os.WriteFile(cfgPath, buf.Bytes(), 0644)
}

func LoadConfig(cfgPath string, cfg IHome) error {
	homeDir, err := homedir.Expand(cfgPath)
	if err != nil {
		return err
	}

	cfgBytes, err := os.ReadFile(homeDir)
	if err != nil {
		return err
	}
	return toml.Unmarshal(cfgBytes, cfg)
}

// LoadClientConfig reads <repo>/config.toml on top of the defaults. A missing
// file yields the defaults.
func LoadClientConfig(repo string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()
	cfg.HomeDir = repo
	cfgPath, err := cfg.ConfigPath()
	if err != nil {
		return nil, err
	}
	if err := LoadConfig(cfgPath, cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, xerrors.Errorf("load config %s: %w", cfgPath, err)
	}
	cfg.HomeDir = repo
	return cfg, cfg.Validate()
}
