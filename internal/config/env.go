package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// environmentFiles maps environment names to their dotenv files.
var environmentFiles = map[string]string{
	"development": "desenvolvimento.env",
	"homologacao": "homologacao.env",
	"production":  "producao.env",
}

// EnvironmentFile returns the dotenv file for an environment name. Unknown
// names map to "<name>.env".
func EnvironmentFile(dir, name string) string {
	file, ok := environmentFiles[name]
	if !ok {
		file = name + ".env"
	}
	return filepath.Join(dir, file)
}

// LoadEnvironment loads the dotenv file of the named environment into the
// process environment. Variables already set win over the file.
func LoadEnvironment(dir, name string) (string, error) {
	path := EnvironmentFile(dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("configuration file for environment %q: %w", name, err)
	}
	if err := godotenv.Load(path); err != nil {
		return "", fmt.Errorf("load %s: %w", path, err)
	}
	return path, nil
}
