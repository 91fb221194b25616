package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/benthepsychologist/final-form/internal/schema"
	"github.com/benthepsychologist/final-form/internal/spec"
)

// BindingRegistry loads and caches form binding specifications.
type BindingRegistry struct {
	bindingsPath string
	validator    *schema.Validator

	mu    sync.RWMutex
	cache map[cacheKey]*spec.FormBindingSpec
}

// NewBindingRegistry creates a registry rooted at registryPath. A nil
// validator disables schema validation.
func NewBindingRegistry(registryPath string, validator *schema.Validator) *BindingRegistry {
	return &BindingRegistry{
		bindingsPath: filepath.Join(registryPath, "bindings"),
		validator:    validator,
		cache:        make(map[cacheKey]*spec.FormBindingSpec),
	}
}

// Get returns the binding spec for (bindingID, version), loading and
// validating it on first use. The returned spec is shared and must not be
// mutated.
func (r *BindingRegistry) Get(bindingID, version string) (*spec.FormBindingSpec, error) {
	key := cacheKey{bindingID, version}

	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	path := filepath.Join(r.bindingsPath, bindingID, versionToFilename(version))
	doc, raw, err := loadDocument(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "binding", ID: bindingID, Version: version, Path: path}
		}
		return nil, &InvalidSpecError{Kind: "binding", ID: bindingID, Version: version, Err: err}
	}

	if r.validator != nil {
		if issues := r.validator.ValidateBinding(doc); len(issues) > 0 {
			return nil, &InvalidSpecError{Kind: "binding", ID: bindingID, Version: version, Issues: issues}
		}
	}

	var loaded spec.FormBindingSpec
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return nil, &InvalidSpecError{Kind: "binding", ID: bindingID, Version: version, Err: err}
	}

	r.mu.Lock()
	r.cache[key] = &loaded
	r.mu.Unlock()
	return &loaded, nil
}

// List returns all binding IDs present in the registry.
func (r *BindingRegistry) List() ([]string, error) {
	return listIDs(r.bindingsPath)
}

// ListVersions returns the sorted versions available for a binding.
func (r *BindingRegistry) ListVersions(bindingID string) ([]string, error) {
	return listVersions(filepath.Join(r.bindingsPath, bindingID))
}

// GetLatest returns the highest available version of a binding.
func (r *BindingRegistry) GetLatest(bindingID string) (*spec.FormBindingSpec, error) {
	versions, err := r.ListVersions(bindingID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, &NotFoundError{Kind: "binding", ID: bindingID}
	}
	return r.Get(bindingID, versions[len(versions)-1])
}
