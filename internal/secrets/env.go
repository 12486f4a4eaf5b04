package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Env reads secrets from the process environment.
type Env struct{}

func (Env) Get(_ context.Context, key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("%w: environment variable %s", ErrNotFound, key)
	}
	return v, nil
}

// Dotenv reads secrets from one dotenv file without touching the process
// environment, so a second environment's keys can sit next to the first's.
type Dotenv struct {
	Path string
}

func (d Dotenv) Get(_ context.Context, key string) (string, error) {
	vals, err := godotenv.Read(d.Path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", d.Path, err)
	}
	v, ok := vals[key]
	if !ok {
		return "", fmt.Errorf("%w: %s in %s", ErrNotFound, key, d.Path)
	}
	return v, nil
}

// Dir reads one secret per file, the way mounted secret volumes are laid
// out. The key is a file name relative to Root; absolute keys are used as is.
type Dir struct {
	Root string
}

func (d Dir) Get(_ context.Context, key string) (string, error) {
	path := key
	if !filepath.IsAbs(key) {
		if d.Root == "" {
			return "", fmt.Errorf("relative secret file %q but no secrets directory configured", key)
		}
		path = filepath.Join(d.Root, filepath.Clean("/"+key))
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: file %s", ErrNotFound, path)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
