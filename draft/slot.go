// Package draft persists the in-progress application between sessions.
package draft

import (
	"context"
	"fmt"

	"github.com/tbxark/formwizard/form"
)

const (
	DefaultNamespace = "draft"
	DefaultKey       = "application"
)

// Store is the draft contract the wizard controller depends on.
type Store interface {
	Load(ctx context.Context) (form.Application, bool, error)
	Save(ctx context.Context, app form.Application) error
	Clear(ctx context.Context) error
}

// Slot stores one application under one fixed key of a Cache.
type Slot struct {
	core Cache
	key  string
}

func NewSlot(core Cache, namespace, key string) *Slot {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if key == "" {
		key = DefaultKey
	}
	return &Slot{core: core, key: namespace + ":" + key}
}

func (s *Slot) Key() string {
	return s.key
}

func (s *Slot) Load(ctx context.Context) (form.Application, bool, error) {
	data, ok, err := s.core.Get(ctx, s.key)
	if err != nil {
		return form.Defaults(), false, fmt.Errorf("read draft %s: %w", s.key, err)
	}
	if !ok || len(data) == 0 {
		return form.Defaults(), false, nil
	}
	app, err := form.Unmarshal(data)
	if err != nil {
		return form.Defaults(), false, fmt.Errorf("decode draft %s: %w", s.key, err)
	}
	return app, true, nil
}

func (s *Slot) Save(ctx context.Context, app form.Application) error {
	data, err := form.Marshal(app)
	if err != nil {
		return err
	}
	if err := s.core.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("write draft %s: %w", s.key, err)
	}
	return nil
}

func (s *Slot) Clear(ctx context.Context) error {
	if err := s.core.Del(ctx, s.key); err != nil {
		return fmt.Errorf("delete draft %s: %w", s.key, err)
	}
	return nil
}

// Exists reports whether a draft is currently stored.
func (s *Slot) Exists(ctx context.Context) (bool, error) {
	return s.core.Exists(ctx, s.key)
}

var _ Store = (*Slot)(nil)
