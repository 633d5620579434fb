// Package vfs reads and writes single-value attribute files of kernel
// pseudo filesystems (sysfs, procfs) and applies ordered write plans to them.
package vfs

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// FS is the primitive accessor used by the DAMON control code.
type FS interface {
	ReadFile(name string) (string, error)
	WriteFile(name, content string) error
	DirExists(name string) bool
	FileExists(name string) bool
}

// AferoFS implements FS on top of an afero filesystem.
type AferoFS struct {
	fs afero.Fs
}

// New wraps fs.
func New(fs afero.Fs) *AferoFS { return &AferoFS{fs: fs} }

// OS returns an accessor for the host filesystem.
func OS() *AferoFS { return New(afero.NewOsFs()) }

// Afero exposes the underlying filesystem.
func (a *AferoFS) Afero() afero.Fs { return a.fs }

// ReadFile returns the whole content of name.
func (a *AferoFS) ReadFile(name string) (string, error) {
	b, err := afero.ReadFile(a.fs, name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(b), nil
}

// WriteFile writes content to an existing file.
//
// Attribute files are never created: sysfs rejects unknown names, and the
// in-memory filesystems used in tests must behave the same way.
func (a *AferoFS) WriteFile(name, content string) error {
	f, err := a.fs.OpenFile(name, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	_, err = io.WriteString(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// DirExists reports whether name is an existing directory.
func (a *AferoFS) DirExists(name string) bool {
	ok, err := afero.DirExists(a.fs, name)
	return err == nil && ok
}

// FileExists reports whether name exists and is not a directory.
func (a *AferoFS) FileExists(name string) bool {
	fi, err := a.fs.Stat(name)
	return err == nil && !fi.IsDir()
}

// ReadInt reads name and parses its trimmed content as a base-10 integer.
func ReadInt(fs FS, name string) (int, error) {
	s, err := fs.ReadFile(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", name, err)
	}
	return n, nil
}

// ReadUint reads name and parses its trimmed content as a base-10 unsigned integer.
func ReadUint(fs FS, name string) (uint64, error) {
	s, err := fs.ReadFile(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", name, err)
	}
	return n, nil
}
