package thinkmodel

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
)

// ModelExt is the extension model files must carry to be picked up by a
// directory load.
const ModelExt = ".txt"

// index is one complete generation of loaded models. It is built off to the
// side and published atomically, so readers always see a full index.
type index struct {
	byID  map[string]Model
	order []string // IDs in load order.
}

func emptyIndex() *index {
	return &index{byID: map[string]Model{}}
}

// Library holds the thinking models loaded from a directory. All read
// methods are safe for unsynchronized concurrent use; Reload swaps the
// entire index in one atomic step.
type Library struct {
	dir string
	log *slog.Logger

	idx atomic.Pointer[index]
}

// NewLibrary creates an empty Library over the given directory. A nil
// logger falls back to slog.Default. Call Reload to populate it.
func NewLibrary(dir string, log *slog.Logger) *Library {
	if log == nil {
		log = slog.Default()
	}

	l := &Library{dir: dir, log: log}
	l.idx.Store(emptyIndex())

	return l
}

// Dir returns the directory the library loads from.
func (l *Library) Dir() string { return l.dir }

// Reload rebuilds the index from a full directory scan and publishes it in
// a single swap. Broken files are logged and skipped; a file whose ID was
// already loaded is skipped with a warning, keeping the first instance.
// Reload fails only when the directory itself cannot be read.
func (l *Library) Reload() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("thinkmodel: load dir %q: %w", l.dir, err)
	}

	next := emptyIndex()

	var files int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ModelExt) {
			continue
		}
		files++

		path := filepath.Join(l.dir, e.Name())

		m, err := ParseFile(path)
		if err != nil {
			l.log.Error("skipping model file", "path", path, "error", err)
			continue
		}

		if _, dup := next.byID[m.ID]; dup {
			l.log.Warn("duplicate model id, keeping first", "id", m.ID, "path", path)
			continue
		}

		next.byID[m.ID] = m
		next.order = append(next.order, m.ID)
	}

	if files == 0 {
		l.log.Warn("no model files found", "dir", l.dir, "ext", ModelExt)
	}

	l.idx.Store(next)
	l.log.Info("model library loaded", "models", len(next.order), "files", files)

	return nil
}

// Get returns the model with the given ID and whether it was found.
func (l *Library) Get(id string) (Model, bool) {
	m, ok := l.idx.Load().byID[id]
	return m, ok
}

// All returns every loaded model in load order.
func (l *Library) All() []Model {
	idx := l.idx.Load()

	models := make([]Model, 0, len(idx.order))
	for _, id := range idx.order {
		models = append(models, idx.byID[id])
	}

	return models
}

// IDs returns the loaded model IDs in load order.
func (l *Library) IDs() []string {
	idx := l.idx.Load()
	return append([]string(nil), idx.order...)
}

// Len returns the number of loaded models.
func (l *Library) Len() int {
	return len(l.idx.Load().order)
}

// ByKind returns all models of the given kind, in load order.
func (l *Library) ByKind(k Kind) []Model {
	var models []Model
	for _, m := range l.All() {
		if m.Kind == k {
			models = append(models, m)
		}
	}
	return models
}

// ByField returns all models tagged with the given field, in load order.
func (l *Library) ByField(field string) []Model {
	var models []Model
	for _, m := range l.All() {
		if m.Field == field {
			models = append(models, m)
		}
	}
	return models
}

// UniversalModels returns the models tagged with the wildcard field.
func (l *Library) UniversalModels() []Model {
	return l.ByField(UniversalField)
}

// Summary aggregates statistics over the current index.
type Summary struct {
	TotalModels  int            `json:"total_models"`
	Kinds        []string       `json:"types"`
	Fields       []string       `json:"fields"`
	CountsByKind map[string]int `json:"type_distribution"`
	ModelIDs     []string       `json:"model_ids"`
}

// Summary returns aggregate statistics for the loaded models. Kind and
// field lists are sorted; counts cover every loaded model.
func (l *Library) Summary() Summary {
	models := l.All()

	s := Summary{
		TotalModels:  len(models),
		CountsByKind: make(map[string]int),
		ModelIDs:     make([]string, 0, len(models)),
	}

	kinds := make(map[string]struct{})
	fields := make(map[string]struct{})

	for _, m := range models {
		s.ModelIDs = append(s.ModelIDs, m.ID)
		s.CountsByKind[m.Kind.String()]++
		kinds[m.Kind.String()] = struct{}{}
		fields[m.Field] = struct{}{}
	}

	for k := range kinds {
		s.Kinds = append(s.Kinds, k)
	}
	for f := range fields {
		s.Fields = append(s.Fields, f)
	}
	sort.Strings(s.Kinds)
	sort.Strings(s.Fields)

	return s
}
