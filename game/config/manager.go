package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/trainprogram/game/engine"
	"github.com/wricardo/mcp-training/trainprogram/game/service"
)

var (
	ErrCatalogNotFound = service.ErrCatalogNotFound
	ErrInvalidCatalog  = service.ErrInvalidCatalog
)

// DefaultCatalogID is the catalog loaded as the default when present
const DefaultCatalogID = "classic"

var catalogExtensions = []string{".json", ".yaml", ".yml"}

// Manager handles catalog loading and caching
type Manager struct {
	catalogDir     string
	defaultID      string
	defaultCatalog *engine.Catalog
	catalogs       map[string]*engine.Catalog
	mu             sync.RWMutex
}

// NewManager creates a new catalog manager
func NewManager(catalogDir string) (*Manager, error) {
	if _, err := os.Stat(catalogDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("catalog directory does not exist: %s", catalogDir)
	}

	m := &Manager{
		catalogDir: catalogDir,
		defaultID:  DefaultCatalogID,
		catalogs:   make(map[string]*engine.Catalog),
	}
	m.loadDefaultCatalog()

	return m, nil
}

// catalogID strips a known extension from name
func catalogID(name string) string {
	for _, ext := range catalogExtensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// resolve finds the file backing a catalog id
func (m *Manager) resolve(name string) (string, error) {
	if strings.ContainsAny(name, `/\`) || name == "" || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrCatalogNotFound, name)
	}

	candidates := []string{name}
	if id := catalogID(name); id == name {
		candidates = candidates[:0]
		for _, ext := range catalogExtensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, candidate := range candidates {
		path := filepath.Join(m.catalogDir, candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrCatalogNotFound, name)
}

// LoadCatalog loads a catalog by id. name may carry a .json, .yaml or .yml extension.
func (m *Manager) LoadCatalog(name string) (*engine.Catalog, error) {
	id := catalogID(name)

	m.mu.RLock()
	if catalog, exists := m.catalogs[id]; exists {
		m.mu.RUnlock()
		return catalog, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if catalog, exists := m.catalogs[id]; exists {
		return catalog, nil
	}

	path, err := m.resolve(name)
	if err != nil {
		return nil, err
	}

	catalog, err := LoadCatalogFile(path)
	if err != nil {
		return nil, err
	}

	m.catalogs[id] = catalog
	return catalog, nil
}

// ListCatalogs returns information about all loadable catalogs, sorted by id
func (m *Manager) ListCatalogs() ([]*service.CatalogInfo, error) {
	entries, err := os.ReadDir(m.catalogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory: %w", err)
	}

	seen := make(map[string]bool)
	var infos []*service.CatalogInfo

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id := catalogID(entry.Name())
		if id == entry.Name() || seen[id] {
			continue
		}

		catalog, err := m.LoadCatalog(entry.Name())
		if err != nil {
			// Skip invalid catalogs
			continue
		}
		seen[id] = true

		infos = append(infos, &service.CatalogInfo{
			Filename:    entry.Name(),
			CatalogID:   id,
			Name:        catalog.Name,
			Description: catalog.Description,
			LevelCount:  catalog.Len(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].CatalogID < infos[j].CatalogID })
	return infos, nil
}

// GetDefault returns the default catalog
func (m *Manager) GetDefault() *engine.Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultCatalog
}

// SetDefault sets the default catalog by id. The choice survives RefreshCache.
func (m *Manager) SetDefault(name string) error {
	catalog, err := m.LoadCatalog(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = catalogID(name)
	m.defaultCatalog = catalog
	return nil
}

// RefreshCache drops cached catalogs and reloads the default from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.catalogs = make(map[string]*engine.Catalog)
	m.mu.Unlock()

	m.loadDefaultCatalog()
}

// loadDefaultCatalog picks the default id (classic unless SetDefault chose
// another), then the first valid catalog, then the built-in levels
func (m *Manager) loadDefaultCatalog() {
	m.mu.RLock()
	id := m.defaultID
	m.mu.RUnlock()

	catalog, err := m.LoadCatalog(id)
	if err != nil {
		catalog = engine.DefaultCatalog()
		if infos, listErr := m.ListCatalogs(); listErr == nil && len(infos) > 0 {
			if first, loadErr := m.LoadCatalog(infos[0].CatalogID); loadErr == nil {
				catalog = first
			}
		}
	}

	m.mu.Lock()
	m.defaultCatalog = catalog
	m.mu.Unlock()
}

// SaveCatalog validates catalog and writes it to the catalog directory. The
// extension of name selects the format; names without one are saved as JSON.
func (m *Manager) SaveCatalog(name string, catalog *engine.Catalog) error {
	if err := engine.ValidateCatalog(catalog); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	id := catalogID(name)
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: invalid catalog id %q", ErrInvalidCatalog, name)
	}

	filename := name
	if id == name {
		filename = name + ".json"
	}
	format := FormatFromPath(filename)

	data, err := MarshalCatalog(catalog, format)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.catalogDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}

	m.mu.Lock()
	m.catalogs[id] = catalog
	m.mu.Unlock()

	return nil
}
