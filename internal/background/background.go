// Package background remembers user-supplied board background images. Only
// the reference is stored; the image itself stays where it is.
package background

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Makepad-fr/board/internal/store/jsonstore"
)

const fileName = "backgrounds.json"

var ErrNotFound = errors.New("background not found")

type Image struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Source  string    `json:"source"`
	AddedAt time.Time `json:"added_at"`
}

type Cache struct {
	file *jsonstore.File[Image]
	now  func() time.Time
}

// Open uses <dir>/backgrounds.json.
func Open(dir string) *Cache {
	return &Cache{file: jsonstore.New[Image](filepath.Join(dir, fileName)), now: time.Now}
}

func (c *Cache) Add(name, source string) (Image, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Image{}, errors.New("background source is empty")
	}
	if strings.TrimSpace(name) == "" {
		name = filepath.Base(source)
	}
	img := Image{ID: uuid.NewString(), Name: name, Source: source, AddedAt: c.now().UTC()}
	err := c.file.Update(func(items []Image) ([]Image, error) {
		return append(items, img), nil
	})
	if err != nil {
		return Image{}, fmt.Errorf("add background: %w", err)
	}
	return img, nil
}

func (c *Cache) List() ([]Image, error) {
	return c.file.Load()
}

func (c *Cache) Get(id string) (Image, error) {
	items, err := c.file.Load()
	if err != nil {
		return Image{}, err
	}
	for _, img := range items {
		if img.ID == id {
			return img, nil
		}
	}
	return Image{}, ErrNotFound
}

func (c *Cache) Remove(id string) error {
	return c.file.Update(func(items []Image) ([]Image, error) {
		for i, img := range items {
			if img.ID == id {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}
