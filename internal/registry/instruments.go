package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/benthepsychologist/final-form/internal/schema"
	"github.com/benthepsychologist/final-form/internal/spec"
)

// InstrumentRegistry loads and caches instrument specifications.
type InstrumentRegistry struct {
	instrumentsPath string
	validator       *schema.Validator

	mu    sync.RWMutex
	cache map[cacheKey]*spec.InstrumentSpec
}

type cacheKey struct {
	id      string
	version string
}

// NewInstrumentRegistry creates a registry rooted at registryPath. A nil
// validator disables schema validation; registries used by the pipeline
// should always pass one.
func NewInstrumentRegistry(registryPath string, validator *schema.Validator) *InstrumentRegistry {
	return &InstrumentRegistry{
		instrumentsPath: filepath.Join(registryPath, "instruments"),
		validator:       validator,
		cache:           make(map[cacheKey]*spec.InstrumentSpec),
	}
}

// Get returns the instrument spec for (instrumentID, version), loading and
// validating it on first use. The returned spec is shared and must not be
// mutated.
func (r *InstrumentRegistry) Get(instrumentID, version string) (*spec.InstrumentSpec, error) {
	key := cacheKey{instrumentID, version}

	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	path := filepath.Join(r.instrumentsPath, instrumentID, versionToFilename(version))
	doc, raw, err := loadDocument(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "instrument", ID: instrumentID, Version: version, Path: path}
		}
		return nil, &InvalidSpecError{Kind: "instrument", ID: instrumentID, Version: version, Err: err}
	}

	if r.validator != nil {
		if issues := r.validator.ValidateInstrument(doc); len(issues) > 0 {
			return nil, &InvalidSpecError{Kind: "instrument", ID: instrumentID, Version: version, Issues: issues}
		}
	}

	var loaded spec.InstrumentSpec
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return nil, &InvalidSpecError{Kind: "instrument", ID: instrumentID, Version: version, Err: err}
	}

	r.mu.Lock()
	r.cache[key] = &loaded
	r.mu.Unlock()
	return &loaded, nil
}

// List returns all instrument IDs present in the registry.
func (r *InstrumentRegistry) List() ([]string, error) {
	return listIDs(r.instrumentsPath)
}

// ListVersions returns the sorted versions available for an instrument.
func (r *InstrumentRegistry) ListVersions(instrumentID string) ([]string, error) {
	return listVersions(filepath.Join(r.instrumentsPath, instrumentID))
}

// GetLatest returns the highest available version of an instrument.
func (r *InstrumentRegistry) GetLatest(instrumentID string) (*spec.InstrumentSpec, error) {
	versions, err := r.ListVersions(instrumentID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, &NotFoundError{Kind: "instrument", ID: instrumentID}
	}
	return r.Get(instrumentID, versions[len(versions)-1])
}
