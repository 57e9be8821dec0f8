package employee

import (
	"errors"
	"io/fs"
	"sort"

	log "github.com/sirupsen/logrus"

	"bakehouse/internal/jsonfile"
)

// Registry is the employees.json mirror, keyed by cropped name.
type Registry struct {
	Path string

	readFile  func(path string, v any) error
	writeFile func(path string, v any) error
}

func NewRegistry(path string) *Registry {
	return &Registry{Path: path, readFile: jsonfile.Load, writeFile: jsonfile.WriteAtomic}
}

// Load returns the registry contents. A missing file is empty; a corrupt
// file is reported and treated as empty. Other read errors are returned so
// that callers never save over a file they could not read.
func (r *Registry) Load() (map[string]RegistryEntry, error) {
	data := map[string]RegistryEntry{}
	if err := r.readFile(r.Path, &data); err != nil {
		if !errors.Is(err, jsonfile.ErrCorrupt) {
			logFault(r.Path, "읽기", err)
			return nil, err
		}
		log.WithError(err).WithField("file", r.Path).Warn("[Registry] employees.json이 손상되어 빈 상태로 시작합니다")
		return map[string]RegistryEntry{}, nil
	}
	return data, nil
}

// AddMissing adds names that have no entry yet with an empty email and
// is_verified=false. Existing entries are kept as they are.
func (r *Registry) AddMissing(names []string) ([]string, error) {
	data, err := r.Load()
	if err != nil {
		return nil, err
	}
	var added []string
	for _, n := range names {
		if _, ok := data[n]; ok {
			continue
		}
		data[n] = RegistryEntry{}
		added = append(added, n)
	}
	if len(added) == 0 {
		return nil, nil
	}
	if err := r.save(data); err != nil {
		return nil, err
	}
	return added, nil
}

// Set creates or replaces the entry for name.
func (r *Registry) Set(name string, entry RegistryEntry) error {
	data, err := r.Load()
	if err != nil {
		return err
	}
	data[name] = entry
	return r.save(data)
}

// Replace writes entries as the whole registry.
func (r *Registry) Replace(entries map[string]RegistryEntry) error {
	return r.save(entries)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() ([]string, error) {
	data, err := r.Load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(data))
	for n := range data {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (r *Registry) save(data map[string]RegistryEntry) error {
	if err := r.writeFile(r.Path, data); err != nil {
		logFault(r.Path, "쓰기", err)
		return err
	}
	return nil
}

// op is "읽기" or "쓰기".
func logFault(path, op string, err error) {
	entry := log.WithError(err).WithField("file", path)
	if errors.Is(err, fs.ErrPermission) {
		entry.WithField("severity", "critical").Errorf("[Registry] employees.json %s 권한이 없습니다", op)
		return
	}
	entry.Warnf("[Registry] employees.json %s 실패", op)
}
