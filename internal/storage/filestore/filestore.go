package filestore

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/storage"
)

// FileStore keeps files under Root. The portal serves them itself, under Prefix.
type FileStore struct {
	Root   string
	Prefix string
}

func New(root, prefix string) (*FileStore, error) {
	s := &FileStore{
		Root:   root,
		Prefix: prefix,
	}

	info, err := os.Stat(root)
	if err == nil {
		if !info.IsDir() {
			log.Error().Str("path", root).Msg("not a directory")
			return nil, storage.ErrNotDir
		}
		return s, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		err = os.MkdirAll(root, 0o750)
	}
	if err != nil {
		log.Error().Err(err).Msg("internal error when setting up storage")
		return nil, storage.ErrInternal
	}
	return s, nil
}

// resolve joins path to the root, refusing paths that would leave it.
func (s *FileStore) resolve(path string) (string, error) {
	local := filepath.FromSlash(path)
	if !filepath.IsLocal(local) {
		return "", storage.ErrInvalidPath
	}
	return filepath.Join(s.Root, local), nil
}

func (s *FileStore) Open(ctx context.Context, path string) (content []byte, err error) {
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(path)
	if err != nil {
		return nil, storage.ErrNotExist
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotExist
		}
		log.Error().Err(err).Str("path", full).Msg("failed to open file")
		return nil, storage.ErrInternal
	}
	defer f.Close()

	content, err = io.ReadAll(f)
	if err != nil {
		log.Error().Err(err).Str("path", full).Msg("failed to read file")
		err = storage.ErrInternal
	}
	return
}

func (s *FileStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotExist
		}
		log.Error().Err(err).Str("path", full).Msg("file deletion error")
		return storage.ErrInternal
	}
	return nil
}

func (s *FileStore) Create(ctx context.Context, content io.Reader, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		log.Error().Err(err).Str("path", full).Msg("failed to create parent directory")
		return storage.ErrCreate
	}

	file, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return storage.ErrAlreadyExists
		}
		log.Error().Err(err).Str("path", full).Msg("failed to create file")
		return storage.ErrCreate
	}
	defer file.Close()

	if _, err = io.Copy(file, content); err != nil {
		log.Error().Err(err).Str("path", full).Msg("failed to copy from reader")
		os.Remove(full)
		return storage.ErrInternal
	}
	return nil
}

func (s *FileStore) URL(_ context.Context, path string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(path)) {
		return "", storage.ErrInvalidPath
	}
	return url.JoinPath(s.Prefix, path)
}
