// Package manifest records what a figures run read and wrote.
package manifest

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/KaramelBytes/rentlens-cli/internal/baseline"
	"github.com/KaramelBytes/rentlens-cli/internal/utils"
)

const fileName = "manifest.json"

// Artifact kinds.
const (
	KindChart    = "chart"
	KindTable    = "table"
	KindTrend    = "trend"
	KindWorkbook = "workbook"
)

// Inputs describes where a run read its data and how it filtered it.
type Inputs struct {
	BaselineDir   string   `json:"baseline_dir"`
	AssetFile     string   `json:"asset_file"`
	ExcludedUsers int      `json:"excluded_users"`
	Tolerance     float64  `json:"acceptance_tolerance"`
	Mode          string   `json:"mode"`
	Entities      []string `json:"entities,omitempty"`
}

// Artifact is one file written by a run. Path is relative to the figures dir.
type Artifact struct {
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	WrittenAt time.Time `json:"written_at"`
}

// Manifest is persisted as manifest.json in the figures directory.
type Manifest struct {
	ID         string             `json:"id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at,omitempty"`
	Inputs     Inputs             `json:"inputs"`
	Stats      baseline.LoadStats `json:"stats"`
	Artifacts  []Artifact         `json:"artifacts"`
	// Failures maps entity names to the reason their chart was skipped.
	Failures map[string]string `json:"failures,omitempty"`

	dir string
}

// New starts a manifest for a run writing into dir.
func New(dir string, in Inputs) *Manifest {
	return &Manifest{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Inputs:    in,
		dir:       dir,
	}
}

// Load reads manifest.json from dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, fileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(err, "manifest: not found at %s", path)
		}
		return nil, eris.Wrap(err, "manifest: read")
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, eris.Wrap(err, "manifest: parse")
	}
	m.dir = dir
	return &m, nil
}

// AddArtifact records a written file. Absolute paths under Dir are stored
// relative to it.
func (m *Manifest) AddArtifact(kind, name, path string) {
	if rel, err := filepath.Rel(m.dir, path); err == nil && filepath.IsLocal(rel) {
		path = rel
	}
	m.Artifacts = append(m.Artifacts, Artifact{
		Kind:      kind,
		Name:      name,
		Path:      filepath.ToSlash(path),
		WrittenAt: time.Now().UTC(),
	})
}

// AddFailure records an entity that could not be rendered.
func (m *Manifest) AddFailure(name string, err error) {
	if m.Failures == nil {
		m.Failures = make(map[string]string)
	}
	m.Failures[name] = err.Error()
}

// Artifact returns the most recent artifact of kind with name. Paths are
// relative to the figures directory and slash separated.
func (m *Manifest) Artifact(kind, name string) (Artifact, bool) {
	for i := len(m.Artifacts) - 1; i >= 0; i-- {
		a := m.Artifacts[i]
		if a.Kind == kind && a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}

// Save writes manifest.json atomically.
func (m *Manifest) Save() error {
	if m.dir == "" {
		return eris.New("manifest: directory not set")
	}
	m.FinishedAt = time.Now().UTC()
	sort.SliceStable(m.Artifacts, func(i, j int) bool { return m.Artifacts[i].Kind < m.Artifacts[j].Kind })
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return eris.Wrap(err, "manifest: encode")
	}
	if err := utils.SafeWriteFile(filepath.Join(m.dir, fileName), data); err != nil {
		return eris.Wrap(err, "manifest: write")
	}
	return nil
}
