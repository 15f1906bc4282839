package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kkyr/fig"
)

const (
	EnvPrefix = "KASCA"
	FileName  = "config.yaml"
)

// LoadConfig loads a configuration file into the given struct.
// The path param specifies a custom path to the configuration file
// or the directory with it.
// Reads and puts environment variables with the prefix KASCA_.
// Params from the config should be in uppercase separated with _.
// It returns the path of the loaded file, or an empty string when
// no file was found and only the environment was used.
func LoadConfig(config any, path string) (string, error) {
	var dirs []string
	name := FileName
	switch {
	case path == "":
		dirs = append(dirs, ".", "configs", "../../configs")
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, filepath.Join(home, ".kasca"))
		}
	case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
		dirs, name = []string{filepath.Dir(path)}, filepath.Base(path)
	default:
		dirs = []string{path}
	}

	for _, dir := range dirs {
		file := filepath.Join(dir, name)
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := fig.Load(config, fig.File(name), fig.Dirs(dir), fig.UseEnv(EnvPrefix)); err != nil {
			return file, err
		}
		return file, nil
	}
	return "", LoadConfigEnv(config)
}

func LoadConfigEnv(config any) error {
	return fig.Load(config, fig.IgnoreFile(), fig.UseEnv(EnvPrefix))
}
