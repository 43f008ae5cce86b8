package archive

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// ManifestName is the name of the manifest inside a bundle.
const ManifestName = "manifest.json"

// ManifestVersion is the manifest layout written by this package.
const ManifestVersion = "1"

// Manifest represents the manifest.json structure in a bundle.
type Manifest struct {
	Version        string            `json:"version"`
	CreatedAt      string            `json:"created_at,omitempty"`
	SourceLanguage string            `json:"source_language,omitempty"`
	TargetLanguage string            `json:"target_language,omitempty"`
	Files          []ManifestFile    `json:"files"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ManifestFile describes one bundled file.
type ManifestFile struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	BLAKE3 string `json:"blake3"`
}

// Fingerprint returns the hex BLAKE3 digest of data.
func Fingerprint(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// BundleID extracts the bundle ID from a filename by removing known extensions.
func BundleID(filename string) string {
	id := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	for _, ext := range []string{".bundle.tar.xz", ".bundle.tar.gz", ".tar.xz", ".tar.gz", ".tar"} {
		if strings.HasSuffix(id, ext) {
			return strings.TrimSuffix(id, ext)
		}
	}
	return id
}

// CreateBundle writes entries plus a manifest to dstPath. Entry names
// must be unique and must not collide with the manifest.
func CreateBundle(dstPath string, m Manifest, entries []Entry) error {
	seen := map[string]bool{ManifestName: true}
	m.Files = nil
	for _, e := range entries {
		if e.Name == "" || strings.HasPrefix(e.Name, "/") || strings.Contains(e.Name, "..") {
			return fmt.Errorf("invalid bundle entry name %q", e.Name)
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate bundle entry %q", e.Name)
		}
		seen[e.Name] = true
		m.Files = append(m.Files, ManifestFile{Name: e.Name, Size: int64(len(e.Data)), BLAKE3: Fingerprint(e.Data)})
	}
	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Name < m.Files[j].Name })
	if m.Version == "" {
		m.Version = ManifestVersion
	}
	if m.CreatedAt == "" {
		m.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	all := append([]Entry{{Name: ManifestName, Data: data}}, entries...)
	return Create(dstPath, BundleID(dstPath), all, true)
}

// ReadManifest reads the manifest of a bundle.
func ReadManifest(bundlePath string) (*Manifest, error) {
	data, err := ReadFile(bundlePath, ManifestName)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// Verify checks every file listed in the manifest against its size and
// fingerprint, and reports files missing from the manifest.
func Verify(bundlePath string) error {
	m, err := ReadManifest(bundlePath)
	if err != nil {
		return err
	}
	entries, err := ReadAll(bundlePath)
	if err != nil {
		return err
	}

	present := make(map[string][]byte, len(entries))
	for _, e := range entries {
		present[e.Name] = e.Data
	}
	for _, f := range m.Files {
		data, ok := present[f.Name]
		if !ok {
			return fmt.Errorf("bundle lacks %s", f.Name)
		}
		if int64(len(data)) != f.Size || Fingerprint(data) != f.BLAKE3 {
			return fmt.Errorf("checksum mismatch for %s", f.Name)
		}
		delete(present, f.Name)
	}
	delete(present, ManifestName)
	for name := range present {
		return fmt.Errorf("unlisted file %s in bundle", name)
	}
	return nil
}
