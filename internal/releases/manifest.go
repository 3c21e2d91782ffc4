package releases

import (
	"errors"
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"git.home.luguber.info/inful/sitesync/internal/artifact"
)

// Record describes one published asset.
type Record struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	OS      string `json:"os"`
	Icon    string `json:"icon"`
	Path    string `json:"path"`
}

// Manifest is the ordered list of published assets.
type Manifest []Record

// NewRecord classifies name and builds its manifest record.
func NewRecord(name, version, publicPath string) Record {
	p := Classify(name)
	return Record{
		Name:    name,
		Version: version,
		OS:      p.OS,
		Icon:    p.Icon,
		Path:    publicURL(publicPath, name),
	}
}

func publicURL(publicPath, name string) string {
	base := strings.TrimRight(publicPath, "/")
	if base == "" {
		return name
	}
	return base + "/" + name
}

// ReadManifest loads a manifest file.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// LocalVersion returns the version of the first manifest record. A missing,
// empty or malformed manifest yields "" and a reason suitable for logging;
// it never prevents a sync.
func LocalVersion(path string) (string, error) {
	m, err := ReadManifest(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if len(m) == 0 || m[0].Version == "" {
		return "", errors.New("manifest is empty or has no version")
	}
	return m[0].Version, nil
}

// WriteManifest replaces the manifest file atomically.
func WriteManifest(path string, m Manifest, opts artifact.Options) error {
	if m == nil {
		m = Manifest{}
	}
	return artifact.WriteJSON(path, m, opts)
}
