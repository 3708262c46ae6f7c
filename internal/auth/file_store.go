package auth

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/casadocigano/fidelidade/internal/errors"
)

const (
	tokenFile = "token"
	userFile  = "user.json"
)

// FileStore persists the session as two files in a private directory:
// the raw token and the JSON user profile.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory holding the session files.
func (f *FileStore) Dir() string {
	return f.dir
}

// Save writes both files, each by atomic rename, token last.
func (f *FileStore) Save(_ context.Context, session Session) error {
	data, err := encodeUser(session.User)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "create session directory", err)
	}
	if err := writeFileAtomic(filepath.Join(f.dir, userFile), data); err != nil {
		return wrapSaveError("write user profile", err)
	}
	if err := writeFileAtomic(filepath.Join(f.dir, tokenFile), []byte(session.Token)); err != nil {
		return wrapSaveError("write token", err)
	}
	return nil
}

// Load reads the session files.
func (f *FileStore) Load(_ context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	token, err := readOptional(filepath.Join(f.dir, tokenFile))
	if err != nil {
		return nil, wrapBackendError("read token", err)
	}
	user, err := readOptional(filepath.Join(f.dir, userFile))
	if err != nil {
		return nil, wrapBackendError("read user profile", err)
	}

	// Only the line ending an editor may add is dropped. Any other byte is
	// part of the token, as it is for the other backends.
	return decodeSession(strings.TrimSuffix(strings.TrimSuffix(string(token), "\n"), "\r"), user), nil
}

// Clear removes both files.
func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, name := range []string{tokenFile, userFile} {
		if err := os.Remove(filepath.Join(f.dir, name)); err != nil && !os.IsNotExist(err) {
			return wrapClearError("remove "+name, err)
		}
	}
	return nil
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
