package persist

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/atlassian/gmetricd/pkg/store"
)

// minFileSize is the size below which a snapshot file is considered empty.
const minFileSize = 10

// FileStore keeps the snapshot in a file. Writes are not atomic.
type FileStore struct {
	Path string
}

// Load reads the snapshot. A missing file, or one too short to hold a document, is no prior state.
func (fs *FileStore) Load(ctx context.Context) (*store.Snapshot, error) {
	data, err := ioutil.ReadFile(fs.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return store.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("error reading snapshot: %v", err)
	}
	if len(data) < minFileSize {
		return store.NewSnapshot(), nil
	}
	return Decode(data)
}

// Save writes snap to the file, truncating it first.
func (fs *FileStore) Save(ctx context.Context, snap *store.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(fs.Path, data, 0644); err != nil {
		return fmt.Errorf("error writing snapshot: %v", err)
	}
	return nil
}
