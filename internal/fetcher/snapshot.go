package fetcher

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Snapshots resolves pre-existing local data files. Several adapters work
// from committed leaderboard exports instead of live fetches.
type Snapshots struct {
	Dir string
}

// Resolve returns the absolute path for the named snapshot, or ErrNotFound
// when the file does not exist.
func (s Snapshots) Resolve(name string) (string, error) {
	path := filepath.Join(s.Dir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", eris.Wrapf(ErrNotFound, "snapshot %s", path)
		}
		return "", eris.Wrapf(err, "fetcher: stat snapshot %s", path)
	}
	return path, nil
}

// Read resolves and reads the named snapshot.
func (s Snapshots) Read(name string) ([]byte, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read snapshot %s", path)
	}
	return data, nil
}
