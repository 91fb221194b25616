// Package registry loads instrument and form-binding specifications from
// versioned filesystem registries. Specs are schema-validated on load and
// cached per (id, version) for the lifetime of the registry; loaded specs
// are treated as immutable and shared across submissions.
//
// Layout on disk:
//
//	<root>/instruments/<instrument_id>/<version>.json
//	<root>/bindings/<binding_id>/<version>.json
//
// where <version> uses dashes instead of dots (1-0-0.json for 1.0.0).
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/benthepsychologist/final-form/internal/schema"
)

// NotFoundError is returned when a spec does not exist in the registry.
type NotFoundError struct {
	Kind    string // "instrument" or "binding"
	ID      string
	Version string
	Path    string
}

func (e *NotFoundError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("%s spec not found: %s", e.Kind, e.ID)
	}
	return fmt.Sprintf("%s spec not found: %s@%s (expected at %s)", e.Kind, e.ID, e.Version, e.Path)
}

// InvalidSpecError is returned when a spec document fails schema
// validation or cannot be decoded.
type InvalidSpecError struct {
	Kind    string
	ID      string
	Version string
	Issues  []schema.Issue
	Err     error
}

func (e *InvalidSpecError) Error() string {
	if len(e.Issues) > 0 {
		msgs := make([]string, len(e.Issues))
		for i, issue := range e.Issues {
			msgs[i] = issue.String()
		}
		return fmt.Sprintf("%s spec %s@%s failed validation: %s",
			e.Kind, e.ID, e.Version, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("%s spec %s@%s is invalid: %v", e.Kind, e.ID, e.Version, e.Err)
}

func (e *InvalidSpecError) Unwrap() error { return e.Err }

// versionToFilename converts a version string to a registry filename
// (1.0.0 -> 1-0-0.json).
func versionToFilename(version string) string {
	return strings.ReplaceAll(version, ".", "-") + ".json"
}

// filenameToVersion converts a registry filename back to a version string
// (1-0-0.json -> 1.0.0).
func filenameToVersion(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), ".json")
	return strings.ReplaceAll(stem, "-", ".")
}

// listIDs returns the subdirectory names under dir.
func listIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	return ids, nil
}

// listVersions globs the version files under dir and returns the versions
// in sorted order. Simple string sort matches semver as long as components
// stay single-digit; registries with wider ranges should pin versions
// explicitly rather than rely on latest.
func listVersions(dir string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(matches))
	for _, m := range matches {
		versions = append(versions, filenameToVersion(m))
	}
	sort.Strings(versions)
	return versions, nil
}

// loadDocument reads a spec file and returns both the raw document (for
// schema validation) and the file bytes (for typed decoding).
func loadDocument(path string) (map[string]any, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, err
	}
	return doc, raw, nil
}
