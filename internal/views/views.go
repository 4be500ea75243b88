// Package views declares the console's list views: which resource each one
// lists, the filters it offers and the columns it shows.
package views

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tickerflow/tickerdesk/internal/listsync"
	"github.com/tickerflow/tickerdesk/internal/model"
)

//go:embed views.yml
var defaultViews []byte

// Filter declares one filter field of a view.
type Filter struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
	Kind  string `yaml:"kind"`
}

// View is one list page of the console.
type View struct {
	ID       string         `yaml:"id"`
	Title    string         `yaml:"title"`
	Resource model.Resource `yaml:"resource"`
	PageSize int            `yaml:"page-size"`
	Filters  []Filter       `yaml:"filters"`
	Columns  []string       `yaml:"columns"`
}

type document struct {
	Views []View `yaml:"views"`
}

// Default returns the built-in views.
func Default() ([]View, error) {
	return Load(bytes.NewReader(defaultViews))
}

// LoadFile reads views from a YAML file. An empty path returns Default.
func LoadFile(path string) ([]View, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open views: %w", err)
	}
	defer f.Close()

	views, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return views, nil
}

// Load decodes and validates a views document. Unknown fields are rejected.
func Load(r io.Reader) ([]View, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("views: empty document")
		}
		return nil, fmt.Errorf("views: %w", err)
	}
	if len(doc.Views) == 0 {
		return nil, errors.New("views: no views declared")
	}

	seen := make(map[string]bool, len(doc.Views))
	for i := range doc.Views {
		v := &doc.Views[i]
		if err := v.validate(); err != nil {
			return nil, err
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("views: duplicate id %q", v.ID)
		}
		seen[v.ID] = true
	}
	return doc.Views, nil
}

func (v *View) validate() error {
	v.ID = strings.TrimSpace(v.ID)
	if v.ID == "" {
		return errors.New("views: view with empty id")
	}
	if !v.Resource.Valid() {
		return fmt.Errorf("views: %s: unknown resource %q", v.ID, v.Resource)
	}
	if v.PageSize < 0 || v.PageSize > model.MaxPageSize {
		return fmt.Errorf("views: %s: page-size %d out of range 1..%d", v.ID, v.PageSize, model.MaxPageSize)
	}
	if v.Title == "" {
		v.Title = v.ID
	}
	if _, err := v.Decls(); err != nil {
		return fmt.Errorf("views: %s: %w", v.ID, err)
	}
	return nil
}

// Decls converts the view's filters to controller declarations.
func (v View) Decls() ([]listsync.FilterDecl, error) {
	decls := make([]listsync.FilterDecl, 0, len(v.Filters))
	seen := make(map[string]bool, len(v.Filters))
	for _, f := range v.Filters {
		if f.Key == "" {
			return nil, errors.New("filter with empty key")
		}
		if seen[f.Key] {
			return nil, fmt.Errorf("%w: %s", listsync.ErrDuplicateFilter, f.Key)
		}
		seen[f.Key] = true

		kind, err := listsync.ParseFilterKind(f.Kind)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Key, err)
		}
		label := f.Label
		if label == "" {
			label = f.Key
		}
		decls = append(decls, listsync.FilterDecl{Key: f.Key, Label: label, Kind: kind})
	}
	return decls, nil
}
