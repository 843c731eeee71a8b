package watermark

import (
	"context"
	"os"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// File is the single-process fallback used when no database is configured.
// Writes go through a temp file plus rename so a crash never leaves a
// half-written state file.
type File struct {
	mu   sync.Mutex
	path string
}

func NewFile(path string) *File {
	if path == "" {
		path = "state.json"
	}
	return &File{path: path}
}

type fileState struct {
	LastIDs map[string]int64 `json:"last_ids"`
}

func (f *File) Load(_ context.Context, channelID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, err := f.read()
	if err != nil {
		return 0, err
	}
	return st.LastIDs[channelID], nil
}

func (f *File) Save(_ context.Context, channelID string, lastID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, err := f.read()
	if err != nil {
		return err
	}
	st.LastIDs[channelID] = lastID

	raw, err := sonic.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "marshal state")
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Wrap(err, "write state")
	}
	return errors.Wrap(os.Rename(tmp, f.path), "replace state")
}

func (f *File) read() (fileState, error) {
	st := fileState{LastIDs: map[string]int64{}}
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, errors.Wrap(err, "read state")
	}
	if err := sonic.Unmarshal(raw, &st); err != nil {
		// unreadable state is treated as absent
		return fileState{LastIDs: map[string]int64{}}, nil
	}
	if st.LastIDs == nil {
		st.LastIDs = map[string]int64{}
	}
	return st, nil
}
