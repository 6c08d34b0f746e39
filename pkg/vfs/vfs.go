// Package vfs stages translation units and artifacts in memory between the
// host file system and the translator.
package vfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// validFilename accepts plain file names with an extension; no path separators.
var validFilename = regexp.MustCompile(`^[A-Za-z0-9_$][A-Za-z0-9_.$-]*\.[A-Za-z0-9]{1,8}$`)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrInvalidFilename = errors.New("invalid filename")
	ErrNoUnits         = errors.New("no matching files")
)

type FileEntry struct {
	Data []byte
}

// VirtualDisk is an in-memory set of named files.
type VirtualDisk struct {
	Mu         sync.RWMutex
	Files      map[string]*FileEntry
	DirtyFiles map[string]bool
	Dirty      bool

	staging map[string]bool
}

func NewVirtualDisk() *VirtualDisk {
	return &VirtualDisk{
		Files:      make(map[string]*FileEntry),
		DirtyFiles: make(map[string]bool),
		staging:    make(map[string]bool),
	}
}

// Write stores a deep copy of data under filename and marks it dirty.
func (vd *VirtualDisk) Write(filename string, data []byte) error {
	vd.Mu.Lock()
	defer vd.Mu.Unlock()

	if !validFilename.MatchString(filename) {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}

	newData := make([]byte, len(data))
	copy(newData, data)
	vd.Files[filename] = &FileEntry{Data: newData}

	vd.DirtyFiles[filename] = true
	vd.Dirty = true
	return nil
}

func (vd *VirtualDisk) Read(filename string) ([]byte, error) {
	vd.Mu.RLock()
	defer vd.Mu.RUnlock()

	entry, ok := vd.Files[filename]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFileNotFound, filename)
	}
	return entry.Data, nil
}

// List returns all file names in byte order.
func (vd *VirtualDisk) List() []string {
	vd.Mu.RLock()
	defer vd.Mu.RUnlock()

	keys := make([]string, 0, len(vd.Files))
	for k := range vd.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ListExt returns the sorted names whose extension matches ext, ignoring case.
func (vd *VirtualDisk) ListExt(ext string) []string {
	var out []string
	for _, name := range vd.List() {
		if HasExt(name, ext) {
			out = append(out, name)
		}
	}
	return out
}

// HasExt reports whether name ends in ext ("vm" or ".vm"), ignoring case.
func HasExt(name, ext string) bool {
	ext = "." + strings.TrimPrefix(ext, ".")
	return strings.EqualFold(filepath.Ext(name), ext)
}

// LoadFrom reads a single file, or the regular files of a directory whose
// extension matches ext. Subdirectories are not visited. Loaded files start
// clean.
func (vd *VirtualDisk) LoadFrom(path, ext string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.IsDir() || !HasExt(entry.Name(), ext) {
				continue
			}
			files = append(files, filepath.Join(path, entry.Name()))
		}
	} else {
		if !HasExt(path, ext) {
			return fmt.Errorf("%w: %s is not a .%s file", ErrNoUnits, path, strings.TrimPrefix(ext, "."))
		}
		files = append(files, path)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no .%s files in %s", ErrNoUnits, strings.TrimPrefix(ext, "."), path)
	}

	vd.Mu.Lock()
	defer vd.Mu.Unlock()

	for _, fullPath := range files {
		name := filepath.Base(fullPath)
		if !validFilename.MatchString(name) {
			return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
		}
		raw, err := os.ReadFile(fullPath)
		if err != nil {
			return err
		}

		vd.Files[name] = &FileEntry{Data: raw}
	}
	return nil
}

// PersistTo writes every dirty file into the host directory dir. Each file
// is written to a temporary sibling and renamed into place, so a reader never
// sees a partial artifact. The first error is returned; failed files stay dirty.
func (vd *VirtualDisk) PersistTo(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	vd.Mu.Lock()
	snapshot := make(map[string][]byte)
	for name := range vd.DirtyFiles {
		if entry, ok := vd.Files[name]; ok {
			data := make([]byte, len(entry.Data))
			copy(data, entry.Data)
			snapshot[name] = data
		}
		delete(vd.DirtyFiles, name)
	}
	vd.Dirty = false
	vd.Mu.Unlock()

	var firstErr error
	fail := func(name string, err error) {
		vd.Mu.Lock()
		vd.DirtyFiles[name] = true
		vd.Dirty = true
		vd.Mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for name, data := range snapshot {
		if err := vd.writeAtomic(filepath.Join(dir, name), data); err != nil {
			fail(name, err)
		}
	}
	return firstErr
}

func (vd *VirtualDisk) writeAtomic(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	vd.track(tmpName, true)
	defer vd.track(tmpName, false)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (vd *VirtualDisk) track(tmp string, pending bool) {
	vd.Mu.Lock()
	defer vd.Mu.Unlock()
	if pending {
		vd.staging[tmp] = true
	} else {
		delete(vd.staging, tmp)
	}
}

// Cleanup removes temporary files of a PersistTo that never completed.
func (vd *VirtualDisk) Cleanup() {
	vd.Mu.Lock()
	defer vd.Mu.Unlock()
	for tmp := range vd.staging {
		os.Remove(tmp)
		delete(vd.staging, tmp)
	}
}
