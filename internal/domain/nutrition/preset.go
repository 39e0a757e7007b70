package nutrition

import "fmt"

// Preset is a named starting recipe with an advertised glycemic index.
// DeclaredGI is display metadata; it is never fed into calculations.
type Preset struct {
	ID         string
	Name       string
	DeclaredGI int
	Lines      []RecipeLine
}

// Recipe returns a fresh recipe snapshot seeded with the preset's lines
func (p Preset) Recipe() Recipe {
	return NewRecipe(p.Lines...)
}

// PresetBook is an ordered, read-only collection of presets
type PresetBook struct {
	presets []Preset
	index   map[string]int
}

// NewPresetBook builds a preset book. When store is non-nil every preset
// line must reference a known ingredient.
func NewPresetBook(presets []Preset, store ReferenceStore) (*PresetBook, error) {
	book := &PresetBook{
		presets: make([]Preset, 0, len(presets)),
		index:   make(map[string]int, len(presets)),
	}

	for _, preset := range presets {
		if preset.ID == "" {
			return nil, fmt.Errorf("%w: preset id is required", ErrInvalidProfile)
		}
		if _, exists := book.index[preset.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePreset, preset.ID)
		}
		if store != nil {
			for _, line := range preset.Lines {
				if _, ok := store.Profile(line.ID); !ok {
					return nil, fmt.Errorf("preset %s: %w: %s", preset.ID, ErrUnknownIngredient, line.ID)
				}
			}
		}

		preset.Lines = NewRecipe(preset.Lines...).Lines()
		book.index[preset.ID] = len(book.presets)
		book.presets = append(book.presets, preset)
	}

	return book, nil
}

// Get returns the preset with id
func (b *PresetBook) Get(id string) (Preset, error) {
	idx, ok := b.index[id]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrPresetNotFound, id)
	}
	return b.presets[idx].clone(), nil
}

// List returns all presets in declaration order
func (b *PresetBook) List() []Preset {
	out := make([]Preset, len(b.presets))
	for i, preset := range b.presets {
		out[i] = preset.clone()
	}
	return out
}

// Len returns the number of presets
func (b *PresetBook) Len() int {
	return len(b.presets)
}

func (p Preset) clone() Preset {
	p.Lines = append([]RecipeLine(nil), p.Lines...)
	return p
}
