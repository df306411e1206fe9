// Package storage keeps photos and their per-language descriptions.
//
// Objects are addressed by slash-separated keys:
//
//	<owner>/photos/<name>
//	<owner>/descriptions/<name>_<lang>.txt
//
// Owners must pass models.ValidateIdentity so every owner maps to exactly
// one key prefix. A Backend stores the raw objects; Store adds the photo
// layout on top.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/cryptox"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
)

// Backend is a flat key/value object store. Get returns an error wrapping
// common.ErrorNotFound for missing keys. List returns the keys directly under
// prefix, without the prefix.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

type Store struct {
	b Backend
}

func New(b Backend) *Store {
	return &Store{b: b}
}

func photoKey(owner, name string) (string, error) {
	if err := models.ValidateIdentity(owner); err != nil {
		return "", err
	}
	if err := models.ValidatePhotoName(name); err != nil {
		return "", err
	}
	return path.Join(owner, "photos", name), nil
}

func descriptionKey(owner, name string, lang models.Language) (string, error) {
	if err := models.ValidateIdentity(owner); err != nil {
		return "", err
	}
	if err := models.ValidatePhotoName(name); err != nil {
		return "", err
	}
	return path.Join(owner, "descriptions", fmt.Sprintf("%s_%s.txt", name, lang)), nil
}

func (s *Store) PutPhoto(ctx context.Context, owner, name string, data []byte) error {
	key, err := photoKey(owner, name)
	if err != nil {
		return err
	}
	return s.b.Put(ctx, key, data)
}

func (s *Store) GetPhoto(ctx context.Context, owner, name string) ([]byte, error) {
	key, err := photoKey(owner, name)
	if err != nil {
		return nil, err
	}
	return s.b.Get(ctx, key)
}

func (s *Store) PhotoExists(ctx context.Context, owner, name string) (bool, error) {
	key, err := photoKey(owner, name)
	if err != nil {
		return false, nil
	}
	return s.b.Exists(ctx, key)
}

// ListPhotos returns the owner's photo names in lexical order.
func (s *Store) ListPhotos(ctx context.Context, owner string) ([]string, error) {
	if err := models.ValidateIdentity(owner); err != nil {
		return nil, err
	}
	names, err := s.b.List(ctx, path.Join(owner, "photos")+"/")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Stat describes a stored photo including its checksum.
func (s *Store) Stat(ctx context.Context, owner, name string) (models.Photo, error) {
	data, err := s.GetPhoto(ctx, owner, name)
	if err != nil {
		return models.Photo{}, err
	}
	return models.Photo{
		Owner:    owner,
		Name:     name,
		Size:     int64(len(data)),
		Checksum: cryptox.Checksum(data),
	}, nil
}

func (s *Store) PutDescription(ctx context.Context, owner, name string, lang models.Language, text string) error {
	key, err := descriptionKey(owner, name, lang)
	if err != nil {
		return err
	}
	return s.b.Put(ctx, key, []byte(text))
}

// Description returns the description in lang; ok is false when absent.
func (s *Store) Description(ctx context.Context, owner, name string, lang models.Language) (text string, ok bool, err error) {
	key, err := descriptionKey(owner, name, lang)
	if err != nil {
		return "", false, err
	}
	data, err := s.b.Get(ctx, key)
	if errors.Is(err, common.ErrorNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// Descriptions returns every description of a photo keyed by language.
func (s *Store) Descriptions(ctx context.Context, owner, name string) (map[models.Language]string, error) {
	out := make(map[models.Language]string, len(models.Languages))
	for _, lang := range models.Languages {
		text, ok, err := s.Description(ctx, owner, name, lang)
		if err != nil {
			return nil, err
		}
		if ok {
			out[lang] = text
		}
	}
	return out, nil
}
