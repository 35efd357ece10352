package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/himanishpuri/SceneScribe/pkg/models"
	"github.com/himanishpuri/SceneScribe/pkg/utils"
)

// Local stores objects as files under Root.
type Local struct {
	Root string
}

func NewLocal(root string) (*Local, error) {
	if err := utils.MakeDir(root); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Local{Root: root}, nil
}

func (l *Local) path(key string) (string, error) {
	clean := filepath.Clean("/" + strings.TrimPrefix(key, "/"))
	if clean == "/" {
		return "", models.NewValidationError(fmt.Sprintf("invalid blob key %q", key), nil)
	}
	return filepath.Join(l.Root, filepath.FromSlash(clean)), nil
}

func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	p, err := l.path(key)
	if err != nil {
		return false, err
	}
	return utils.FileExists(p), nil
}

func (l *Local) ReadText(_ context.Context, key string) (string, error) {
	p, err := l.path(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", models.NewNotFoundError(fmt.Sprintf("blob %s", key), err)
		}
		return "", err
	}
	return string(data), nil
}

func (l *Local) SaveFile(_ context.Context, path, key string) error {
	dst, err := l.path(key)
	if err != nil {
		return err
	}
	return utils.CopyFile(path, dst)
}

func (l *Local) DownloadFile(_ context.Context, key, path string) error {
	src, err := l.path(key)
	if err != nil {
		return err
	}
	if !utils.FileExists(src) {
		return models.NewNotFoundError(fmt.Sprintf("blob %s", key), nil)
	}
	return utils.CopyFile(src, path)
}

func (l *Local) Delete(_ context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) ListFiles(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		err := filepath.WalkDir(l.Root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(l.Root, p)
			if err != nil {
				return err
			}
			key := filepath.ToSlash(rel)
			if !strings.HasPrefix(key, prefix) {
				return nil
			}
			if !yield(key, nil) {
				return fs.SkipAll
			}
			return nil
		})
		if err != nil {
			yield("", err)
		}
	}
}
