package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"
	"github.com/imi-tools/imirun/internal/logger"
)

// registryVersion is the schema version of the registry file.
const registryVersion = 1

// registryFile is the on-disk JSON shape.
type registryFile struct {
	Version   int      `json:"version"`
	Instances []Record `json:"instances"`
}

// Store reads and writes instance records in a single JSON file.
//
// Every operation reads the file fresh; mutations rewrite it via a temp file
// and rename so an interrupted process never leaves a torn registry. An
// advisory flock serializes mutations from concurrent invocations.
type Store struct {
	path string
	log  logger.Logger
}

// NewStore creates a store backed by the given file path.
// The file and its directory are created lazily on first mutation.
func NewStore(path string) *Store {
	return &Store{path: path, log: logger.NewEnvLogger("[registry]")}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the record for the given index.
// Fails with NotFoundError when no record exists.
func (s *Store) Get(index int) (Record, error) {
	file, err := s.read()
	if err != nil {
		return Record{}, err
	}
	for _, rec := range file.Instances {
		if rec.Index == index {
			return rec, nil
		}
	}
	return Record{}, &NotFoundError{Index: index}
}

// List returns all records ordered by index.
func (s *Store) List() ([]Record, error) {
	file, err := s.read()
	if err != nil {
		return nil, err
	}
	return file.Instances, nil
}

// Put inserts or replaces the record for rec.Index.
func (s *Store) Put(rec Record) error {
	return s.mutate(func(file *registryFile) {
		for i := range file.Instances {
			if file.Instances[i].Index == rec.Index {
				file.Instances[i] = rec
				return
			}
		}
		file.Instances = append(file.Instances, rec)
	})
}

// Delete removes the record for the given index.
// Fails with NotFoundError when no record exists.
func (s *Store) Delete(index int) error {
	found := false
	err := s.mutate(func(file *registryFile) {
		kept := file.Instances[:0]
		for _, rec := range file.Instances {
			if rec.Index == index {
				found = true
				continue
			}
			kept = append(kept, rec)
		}
		file.Instances = kept
	})
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Index: index}
	}
	return nil
}

// read loads the registry file. A missing file is an empty registry.
func (s *Store) read() (*registryFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &registryFile{Version: registryVersion}, nil
		}
		return nil, err
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// mutate runs fn over a freshly-read registry under the advisory lock,
// then rewrites the file atomically.
func (s *Store) mutate(fn func(*registryFile)) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock() //nolint:errcheck // Unlock error is not actionable

	file, err := s.read()
	if err != nil {
		return err
	}

	fn(file)

	sort.Slice(file.Instances, func(i, j int) bool {
		return file.Instances[i].Index < file.Instances[j].Index
	})

	return s.write(file)
}

// write rewrites the registry via temp-file-then-rename.
func (s *Store) write(file *registryFile) error {
	file.Version = registryVersion

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".instances-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()           //nolint:errcheck // Best-effort cleanup
		os.Remove(tmpName)    //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return err
	}

	s.log.Debug("wrote %d record(s) to %s", len(file.Instances), s.path)
	return nil
}
