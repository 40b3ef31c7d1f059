package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"FilingDrift/internal/domain"
	"FilingDrift/internal/ports"
)

// FileLayout names the files inside a filing directory.
type FileLayout struct {
	Form      string
	RawFile   string
	CleanFile string
}

// FileStore keeps filings under <root>/<filer>/<form>/<filing>/.
type FileStore struct {
	root   string
	layout FileLayout
}

var _ ports.FilingStore = (*FileStore)(nil)

// NewFileStore builds a store rooted at root.
func NewFileStore(root string, layout FileLayout) *FileStore {
	if layout.Form == "" {
		layout.Form = "10-K"
	}
	if layout.RawFile == "" {
		layout.RawFile = "full-submission.txt"
	}
	if layout.CleanFile == "" {
		layout.CleanFile = "clean-full-submission.txt"
	}
	return &FileStore{root: root, layout: layout}
}

// FilingDir returns the directory holding one filing.
func (s *FileStore) FilingDir(ref domain.FilingRef) string {
	return filepath.Join(s.root, ref.FilerID, s.layout.Form, ref.FilingID)
}

// ListFilers returns the filer directories found under the root.
func (s *FileStore) ListFilers(ctx context.Context) ([]string, error) {
	return listDirs(s.root)
}

// ListFilings returns the filings of one filer in directory-name order.
func (s *FileStore) ListFilings(ctx context.Context, filerID string) ([]domain.FilingRef, error) {
	names, err := listDirs(filepath.Join(s.root, filerID, s.layout.Form))
	if err != nil {
		return nil, err
	}

	refs := make([]domain.FilingRef, 0, len(names))
	for _, name := range names {
		refs = append(refs, domain.FilingRef{FilerID: filerID, FilingID: name})
	}
	return refs, nil
}

// ReadRaw loads the raw submission. Invalid UTF-8 sequences are dropped.
func (s *FileStore) ReadRaw(ctx context.Context, ref domain.FilingRef) (string, error) {
	return s.readText(filepath.Join(s.FilingDir(ref), s.layout.RawFile))
}

// OpenRaw streams the raw submission.
func (s *FileStore) OpenRaw(ctx context.Context, ref domain.FilingRef) (io.ReadCloser, error) {
	path := filepath.Join(s.FilingDir(ref), s.layout.RawFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrRead, path, err)
	}
	return f, nil
}

// WriteRaw stores a downloaded submission.
func (s *FileStore) WriteRaw(ctx context.Context, ref domain.FilingRef, r io.Reader) error {
	return writeAtomic(filepath.Join(s.FilingDir(ref), s.layout.RawFile), r)
}

// HasRaw reports whether the raw submission is already on disk.
func (s *FileStore) HasRaw(ref domain.FilingRef) bool {
	_, err := os.Stat(filepath.Join(s.FilingDir(ref), s.layout.RawFile))
	return err == nil
}

// ReadClean loads the normalized text.
func (s *FileStore) ReadClean(ctx context.Context, ref domain.FilingRef) (string, error) {
	return s.readText(filepath.Join(s.FilingDir(ref), s.layout.CleanFile))
}

// WriteClean stores the normalized text.
func (s *FileStore) WriteClean(ctx context.Context, ref domain.FilingRef, text string) error {
	return writeAtomic(filepath.Join(s.FilingDir(ref), s.layout.CleanFile), strings.NewReader(text))
}

// WriteSections writes one item<LABEL>.txt file per section.
func (s *FileStore) WriteSections(ctx context.Context, ref domain.FilingRef, sections []domain.Section) error {
	dir := s.FilingDir(ref)
	for _, sec := range sections {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeAtomic(filepath.Join(dir, sec.FileName()), strings.NewReader(sec.Text)); err != nil {
			return fmt.Errorf("section %s: %w", sec.Label, err)
		}
	}
	return nil
}

// ClearSections removes every item*.txt file of the filing.
func (s *FileStore) ClearSections(ctx context.Context, ref domain.FilingRef) error {
	matches, err := filepath.Glob(filepath.Join(s.FilingDir(ref), domain.SectionFileName("*")))
	if err != nil {
		return err
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return nil
}

// ReadSection loads one section file.
func (s *FileStore) ReadSection(ctx context.Context, ref domain.FilingRef, label string) (string, error) {
	return s.readText(filepath.Join(s.FilingDir(ref), domain.SectionFileName(label)))
}

func (s *FileStore) readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrRead, path, err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// writeAtomic writes to a temp file in the target directory and renames it
// into place, so readers never see a partial file.
func writeAtomic(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
