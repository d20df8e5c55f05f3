package content

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// LocalStore mirrors working directories under root/{document_uid}/.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create content root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Save(_ context.Context, documentUID, dir string) error {
	destination := filepath.Join(s.root, documentUID)

	// Replace-if-exists: the previous generation is removed entirely.
	if err := os.RemoveAll(destination); err != nil {
		return fmt.Errorf("clean destination %s: %w", destination, err)
	}
	if err := copyTree(dir, destination); err != nil {
		return fmt.Errorf("save content %s: %w", documentUID, err)
	}
	log.Printf("content: saved document %s to %s", documentUID, destination)
	return nil
}

func (s *LocalStore) Delete(_ context.Context, documentUID string) error {
	destination := filepath.Join(s.root, documentUID)
	if _, err := os.Stat(destination); os.IsNotExist(err) {
		log.Printf("content: delete for %s skipped, nothing stored", documentUID)
		return nil
	}
	return os.RemoveAll(destination)
}

func (s *LocalStore) GetRawStream(_ context.Context, documentUID string) (io.ReadCloser, string, error) {
	inputDir := filepath.Join(s.root, documentUID, "input")
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("read input dir for %s: %w", documentUID, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, "", ErrNotFound
	}
	sort.Strings(names)
	f, err := os.Open(filepath.Join(inputDir, names[0]))
	if err != nil {
		return nil, "", fmt.Errorf("open raw content for %s: %w", documentUID, err)
	}
	return f, names[0], nil
}

func (s *LocalStore) GetMarkdown(_ context.Context, documentUID string) (string, error) {
	mdPath := filepath.Join(s.root, documentUID, "output", "output.md")
	raw, err := os.ReadFile(mdPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read markdown for %s: %w", documentUID, err)
	}
	return string(raw), nil
}

// copyTree copies src into dst recursively, creating dst.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
