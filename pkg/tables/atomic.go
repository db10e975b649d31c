package tables

import (
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/transitnet/pkg/errors"
)

// pending is a temporary file next to its destination that replaces the
// destination on commit.
type pending struct {
	path string
	tmp  *os.File
	done bool
}

func createPending(path string) (*pending, error) {
	if err := errors.ValidateOutputDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create temp file for %s", path)
	}
	return &pending{path: path, tmp: tmp}, nil
}

func (p *pending) write(fn func(io.Writer) error) error {
	if err := fn(p.tmp); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", p.path)
	}
	if err := p.tmp.Sync(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "sync %s", p.path)
	}
	if err := p.tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "close %s", p.path)
	}
	return nil
}

func (p *pending) commit() error {
	if err := os.Chmod(p.tmp.Name(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "chmod %s", p.path)
	}
	if err := os.Rename(p.tmp.Name(), p.path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "replace %s", p.path)
	}
	p.done = true
	return nil
}

// discard removes the temporary file unless it was committed.
func (p *pending) discard() {
	if p.done {
		return
	}
	p.tmp.Close()
	os.Remove(p.tmp.Name())
}

// WriteFileAtomic writes a file through fn and renames it into place.
func WriteFileAtomic(path string, fn func(io.Writer) error) error {
	p, err := createPending(path)
	if err != nil {
		return err
	}
	defer p.discard()
	if err := p.write(fn); err != nil {
		return err
	}
	return p.commit()
}
