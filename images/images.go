// Package images stores listing photos outside the database. The pipeline
// only keeps the returned reference on the listing record.
package images

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Storage saves the image behind a URL and returns a stable reference.
type Storage interface {
	Save(imageURL string) (ref string, err error)
}

// Disk stores images as files under a base directory. The reference is the
// file name relative to the directory.
type Disk struct {
	dir    string
	client *http.Client
}

// NewDisk creates the base directory if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &Disk{
		dir:    dir,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (d *Disk) Save(imageURL string) (string, error) {
	resp, err := d.client.Get(imageURL)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	ext := extensionFor(resp.Header.Get("Content-Type"))
	name := uuid.NewString() + ext

	f, err := os.Create(filepath.Join(d.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	slog.Debug("stored listing image", "ref", name, "bytes", n)
	return name, nil
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".jpg"
	}
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
