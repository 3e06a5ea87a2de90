package curriculum

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-content/internal/content"
)

//go:embed schema/material.schema.json
var materialSchema string

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(materialSchema))
})

// Seed is one material definition read from a YAML file.
type Seed struct {
	Path     string
	Material content.MaterialInput
}

// Loader loads material seed files from the filesystem.
type Loader struct {
	rootDir string
	seeds   []Seed
	skipped []string
	mu      sync.RWMutex
}

// NewLoader creates a seed loader and loads every *.yaml / *.yml file under
// rootDir. Files that fail to parse or do not match the material schema are
// skipped with a warning.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{rootDir: rootDir}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading seeds: %w", err)
	}

	slog.Info("material seeds loaded", "materials", len(l.seeds), "skipped", len(l.skipped))
	return l, nil
}

// Seeds returns the loaded seeds in file path order.
func (l *Loader) Seeds() []Seed {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.seeds)
}

// Materials returns the loaded material inputs in file path order.
func (l *Loader) Materials() []content.MaterialInput {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]content.MaterialInput, len(l.seeds))
	for i, s := range l.seeds {
		out[i] = s.Material
	}
	return out
}

// Skipped returns the paths of files that were not valid seeds.
func (l *Loader) Skipped() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.skipped)
}

func (l *Loader) loadAll() error {
	if _, err := os.Stat(l.rootDir); err != nil {
		return err
	}
	return filepath.WalkDir(l.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			return l.loadSeed(path)
		}
		return nil
	})
}

func (l *Loader) loadSeed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	m, err := ParseSeed(data)
	if err != nil {
		slog.Warn("skipping invalid material seed", "path", path, "error", err)
		l.mu.Lock()
		l.skipped = append(l.skipped, path)
		l.mu.Unlock()
		return nil
	}

	l.mu.Lock()
	l.seeds = append(l.seeds, Seed{Path: path, Material: m})
	l.mu.Unlock()
	return nil
}

// ParseSeed decodes one YAML material definition and validates it against
// the embedded material schema.
func ParseSeed(data []byte) (content.MaterialInput, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return content.MaterialInput{}, content.Invalid("yaml", "%v", err)
	}
	if err := validateSeed(doc); err != nil {
		return content.MaterialInput{}, err
	}

	var m content.MaterialInput
	if err := yaml.Unmarshal(data, &m); err != nil {
		return content.MaterialInput{}, content.Invalid("yaml", "%v", err)
	}
	return m, nil
}

func validateSeed(doc any) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile material schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return content.Invalid("seed", "%v", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return content.Invalid("seed", "%s", strings.Join(msgs, "; "))
}
