package contact

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SeedPersonIDs are B2B person ids observed being returned for unrelated
// courses. They are always blocked.
var SeedPersonIDs = []string{
	"54a73cae7468696220badd21",
}

// Blocklist is the process-wide set of known-duplicate person ids. It is
// safe for concurrent use.
type Blocklist struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewBlocklist returns a block-list holding the seed ids plus ids.
func NewBlocklist(ids ...string) *Blocklist {
	b := &Blocklist{ids: make(map[string]struct{}, len(SeedPersonIDs)+len(ids))}
	for _, id := range SeedPersonIDs {
		b.Add(id)
	}
	for _, id := range ids {
		b.Add(id)
	}
	return b
}

// LoadBlocklist builds a block-list from the seed ids, extra (usually from
// config) and the YAML file at path. A missing file is not an error.
func LoadBlocklist(path string, extra []string) (*Blocklist, error) {
	b := NewBlocklist(extra...)
	if path == "" {
		return b, nil
	}
	ids, err := ReadBlocklistFile(path)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		b.Add(id)
	}
	return b, nil
}

// Add blocks id. It reports whether id was newly added.
func (b *Blocklist) Add(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.ids[id]; ok {
		return false
	}
	b.ids[id] = struct{}{}
	return true
}

// Contains reports whether id is blocked.
func (b *Blocklist) Contains(id string) bool {
	if b == nil || id == "" {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.ids[strings.TrimSpace(id)]
	return ok
}

// IDs returns the blocked ids in sorted order.
func (b *Blocklist) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.ids))
	for id := range b.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of blocked ids.
func (b *Blocklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ids)
}

type blocklistFile struct {
	PersonIDs []string `yaml:"person_ids"`
}

// ReadBlocklistFile reads the person ids stored in the YAML file at path.
// A missing file yields no ids.
func ReadBlocklistFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "contact: read blocklist %s", path)
	}
	var f blocklistFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "contact: parse blocklist %s", path)
	}
	return f.PersonIDs, nil
}

// AppendBlocklistFile adds id to the YAML file at path, creating it when
// needed. It reports whether the file changed.
func AppendBlocklistFile(path, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, eris.New("contact: empty person id")
	}
	ids, err := ReadBlocklistFile(path)
	if err != nil {
		return false, err
	}
	for _, existing := range ids {
		if existing == id {
			return false, nil
		}
	}
	data, err := yaml.Marshal(blocklistFile{PersonIDs: append(ids, id)})
	if err != nil {
		return false, eris.Wrap(err, "contact: encode blocklist")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, eris.Wrapf(err, "contact: write blocklist %s", path)
	}
	return true, nil
}
