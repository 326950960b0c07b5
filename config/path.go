package config

import (
	"os"
	"path"

	"github.com/mitchellh/go-homedir"
)

const (
	// RepoEnv overrides the repo directory when no flag is given.
	RepoEnv = "BANYAN_PATH"

	DefaultRepo    = "~/.banyan"
	ConfigFileName = "config.toml"
)

// IHome is implemented by configs that know where their repo lives.
type IHome interface {
	HomePath() (HomeDir, error)
	MustHomePath() string
	ConfigPath() (string, error)
}

type HomeDir string

type Home struct {
	HomeDir string
}

func (h *Home) HomePath() (HomeDir, error) {
	p, err := homedir.Expand(h.HomeDir)
	if err != nil {
		return "", err
	}
	return HomeDir(p), nil
}

func (h *Home) MustHomePath() string {
	p, err := h.HomePath()
	if err != nil {
		panic(err)
	}
	return string(p)
}

func (h *Home) HomeJoin(sep ...string) (string, error) {
	homeDir, err := homedir.Expand(h.HomeDir)
	if err != nil {
		return "", err
	}
	finalPath := homeDir
	for _, p := range sep {
		finalPath = path.Join(finalPath, p)
	}

	return finalPath, nil
}

func (h *Home) ConfigPath() (string, error) {
	return h.HomeJoin(ConfigFileName)
}

// RepoPath picks the repo directory: an explicit value wins, then
// $BANYAN_PATH, then DefaultRepo.
func RepoPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env, ok := os.LookupEnv(RepoEnv); ok && env != "" {
		return env
	}
	return DefaultRepo
}
