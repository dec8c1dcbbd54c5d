package quiz

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Settings is the "data" block of a descriptor. Which fields matter depends on the kind.
type Settings struct {
	QuestionPrefix string   `yaml:"question_prefix,omitempty"`
	Range          float64  `yaml:"range,omitempty"`
	Sets           []string `yaml:"sets,omitempty"`
}

// Descriptor is one item-set file: a leaf set with its items, or a union of other sets
type Descriptor struct {
	Name     string      `yaml:"name"`
	Kind     Kind        `yaml:"type"`
	Settings Settings    `yaml:"data"`
	Items    []yaml.Node `yaml:"items,omitempty"`
}

// Entry is a parsed item ready to be stored: its name within the set and its encoded payload
type Entry struct {
	Name string
	Data []byte
}

// DefaultItem is the payload of a default question
type DefaultItem struct {
	ID       string   `yaml:"id,omitempty"`
	Question string   `yaml:"question"`
	Answers  []string `yaml:"answers"`
}

// NumericItem is the payload of a numeric_range question
type NumericItem struct {
	ID       string `yaml:"id,omitempty"`
	Question string `yaml:"question"`
	Answer   int64  `yaml:"answer"`
}

// VocabItem is the payload of a vocab question
type VocabItem struct {
	ID           string   `yaml:"id,omitempty"`
	Word         string   `yaml:"word"`
	Definition   string   `yaml:"definition"`
	Example      string   `yaml:"example"`
	Translations []string `yaml:"translations"`
}

type rawDescriptor struct {
	Name     string      `yaml:"name"`
	Type     string      `yaml:"type"`
	LegacyT  string      `yaml:"type_"`
	Settings Settings    `yaml:"data"`
	Items    []yaml.Node `yaml:"items"`
}

// ParseDescriptor decodes and validates one descriptor document.
// Both "type" and the older "type_" key name the kind.
func ParseDescriptor(data []byte) (Descriptor, error) {
	var raw rawDescriptor
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	typ := raw.Type
	if typ == "" {
		typ = raw.LegacyT
	}
	kind, err := ParseKind(typ)
	if err != nil {
		return Descriptor{}, err
	}

	d := Descriptor{Name: raw.Name, Kind: kind, Settings: raw.Settings, Items: raw.Items}
	if err := d.validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

func (d Descriptor) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidDescriptor)
	}
	if d.Kind == KindUnion {
		if len(d.Settings.Sets) == 0 {
			return fmt.Errorf("%w: union %q lists no sets", ErrInvalidDescriptor, d.Name)
		}
		if len(d.Items) > 0 {
			return fmt.Errorf("%w: union %q has items of its own", ErrInvalidDescriptor, d.Name)
		}
		return nil
	}
	if len(d.Settings.Sets) > 0 {
		return fmt.Errorf("%w: %s set %q lists sets", ErrInvalidDescriptor, d.Kind, d.Name)
	}
	if d.Settings.Range < 0 {
		return fmt.Errorf("%w: %q has a negative range", ErrInvalidDescriptor, d.Name)
	}
	return nil
}

// Dependencies returns the sets a descriptor is built from; leaf sets have none
func (d Descriptor) Dependencies() []string {
	if d.Kind != KindUnion {
		return nil
	}
	return d.Settings.Sets
}

// Entries decodes every item, checks it builds into a question and re-encodes it for storage
func (d Descriptor) Entries() ([]Entry, error) {
	if !d.Kind.Leaf() {
		return nil, nil
	}

	entries := make([]Entry, 0, len(d.Items))
	seen := make(map[string]bool, len(d.Items))
	for i := range d.Items {
		node := &d.Items[i]
		payload, name, err := decodeItem(d.Kind, node)
		if err != nil {
			return nil, fmt.Errorf("%s item %d (line %d): %w", d.Name, i+1, node.Line, err)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %s has duplicate item %q", ErrInvalidDescriptor, d.Name, name)
		}
		seen[name] = true

		data, err := yaml.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s/%s: %w", d.Name, name, err)
		}
		if _, err := Build(d.Kind, d.Settings, data); err != nil {
			return nil, fmt.Errorf("%s/%s: %w", d.Name, name, err)
		}
		entries = append(entries, Entry{Name: name, Data: data})
	}
	return entries, nil
}

func decodeItem(kind Kind, node *yaml.Node) (any, string, error) {
	switch kind {
	case KindDefault:
		var item DefaultItem
		if err := node.Decode(&item); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
		}
		return item, firstNonEmpty(item.ID, item.Question), nil
	case KindNumericRange:
		var item NumericItem
		if err := node.Decode(&item); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
		}
		return item, firstNonEmpty(item.ID, item.Question), nil
	case KindVocab:
		var item VocabItem
		if err := node.Decode(&item); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
		}
		return item, firstNonEmpty(item.ID, item.Word), nil
	}
	return nil, "", fmt.Errorf("%w: %s sets have no items", ErrInvalidDescriptor, kind)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// NewDescriptor builds a leaf descriptor from typed items (DefaultItem, NumericItem, VocabItem)
func NewDescriptor(name string, kind Kind, settings Settings, items ...any) (Descriptor, error) {
	d := Descriptor{Name: name, Kind: kind, Settings: settings}
	for _, item := range items {
		var node yaml.Node
		if err := node.Encode(item); err != nil {
			return Descriptor{}, fmt.Errorf("failed to encode item: %w", err)
		}
		d.Items = append(d.Items, node)
	}
	if err := d.validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Marshal encodes the descriptor in the same layout ParseDescriptor reads
func (d Descriptor) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// EncodeSettings encodes the settings block for storage alongside the set name
func EncodeSettings(s Settings) ([]byte, error) {
	return yaml.Marshal(s)
}

// DecodeSettings is the inverse of EncodeSettings
func DecodeSettings(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	return s, nil
}

// LoadDir parses every *.yaml and *.yml file in dir, in file name order.
// Two files declaring the same set name are an error.
func LoadDir(dir string) ([]Descriptor, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", dir, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	descs := make([]Descriptor, 0, len(paths))
	byName := make(map[string]string, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read descriptor: %w", err)
		}
		d, err := ParseDescriptor(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if prev, ok := byName[d.Name]; ok {
			return nil, fmt.Errorf("%w: set %q declared in %s and %s", ErrInvalidDescriptor, d.Name, prev, path)
		}
		byName[d.Name] = path
		descs = append(descs, d)
	}
	return descs, nil
}
