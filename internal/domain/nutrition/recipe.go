package nutrition

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RecipeLine is one ingredient entry of a recipe
type RecipeLine struct {
	ID          IngredientID
	DisplayName string
	AmountGrams float64
}

// Recipe is an ordered, immutable snapshot of recipe lines. Every mutation
// returns a new Recipe and leaves the receiver untouched.
// Line order is display order only and never affects computed values.
type Recipe struct {
	lines []RecipeLine
}

// NewRecipe builds a recipe snapshot. Negative amounts clamp to zero.
func NewRecipe(lines ...RecipeLine) Recipe {
	out := make([]RecipeLine, len(lines))
	for i, line := range lines {
		line.AmountGrams = clampAmount(line.AmountGrams)
		out[i] = line
	}
	return Recipe{lines: out}
}

// Lines returns a copy of the recipe lines in display order
func (r Recipe) Lines() []RecipeLine {
	out := make([]RecipeLine, len(r.lines))
	copy(out, r.lines)
	return out
}

// Len returns the number of lines
func (r Recipe) Len() int {
	return len(r.lines)
}

// IsEmpty reports whether the recipe has no lines
func (r Recipe) IsEmpty() bool {
	return len(r.lines) == 0
}

// Contains reports whether any line references id
func (r Recipe) Contains(id IngredientID) bool {
	for _, line := range r.lines {
		if line.ID == id {
			return true
		}
	}
	return false
}

// Line returns the line at index
func (r Recipe) Line(index int) (RecipeLine, error) {
	if err := r.checkIndex(index); err != nil {
		return RecipeLine{}, err
	}
	return r.lines[index], nil
}

// Add appends a new line at zero grams
func (r Recipe) Add(id IngredientID, displayName string) Recipe {
	lines := r.Lines()
	lines = append(lines, RecipeLine{ID: id, DisplayName: displayName})
	return Recipe{lines: lines}
}

// Remove drops the line at index
func (r Recipe) Remove(index int) (Recipe, error) {
	if err := r.checkIndex(index); err != nil {
		return r, err
	}
	lines := make([]RecipeLine, 0, len(r.lines)-1)
	lines = append(lines, r.lines[:index]...)
	lines = append(lines, r.lines[index+1:]...)
	return Recipe{lines: lines}, nil
}

// AdjustAmount adds a signed delta to a line's amount, clamping at zero
func (r Recipe) AdjustAmount(index int, delta float64) (Recipe, error) {
	if err := r.checkIndex(index); err != nil {
		return r, err
	}
	lines := r.Lines()
	lines[index].AmountGrams = clampAmount(lines[index].AmountGrams + delta)
	return Recipe{lines: lines}, nil
}

// SetAmount replaces a line's amount, clamping at zero
func (r Recipe) SetAmount(index int, grams float64) (Recipe, error) {
	if err := r.checkIndex(index); err != nil {
		return r, err
	}
	lines := r.Lines()
	lines[index].AmountGrams = clampAmount(grams)
	return Recipe{lines: lines}, nil
}

// SetAmountText sets a line's amount from user input. Input that does not
// parse as a number becomes zero.
func (r Recipe) SetAmountText(index int, text string) (Recipe, error) {
	return r.SetAmount(index, ParseAmount(text))
}

// Move relocates the line at from so that it ends up at position to
func (r Recipe) Move(from, to int) (Recipe, error) {
	if err := r.checkIndex(from); err != nil {
		return r, err
	}
	if err := r.checkIndex(to); err != nil {
		return r, err
	}
	if from == to {
		return Recipe{lines: r.Lines()}, nil
	}

	moved := r.lines[from]
	lines := make([]RecipeLine, 0, len(r.lines))
	lines = append(lines, r.lines[:from]...)
	lines = append(lines, r.lines[from+1:]...)

	lines = append(lines, RecipeLine{})
	copy(lines[to+1:], lines[to:])
	lines[to] = moved

	return Recipe{lines: lines}, nil
}

func (r Recipe) checkIndex(index int) error {
	if index < 0 || index >= len(r.lines) {
		return fmt.Errorf("%w: %d (recipe has %d lines)", ErrLineIndexOutOfRange, index, len(r.lines))
	}
	return nil
}

// ParseAmount converts user-entered text to grams. Anything that is not a
// finite number yields 0; negatives clamp to 0.
func ParseAmount(text string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0
	}
	return clampAmount(value)
}

func clampAmount(grams float64) float64 {
	if math.IsNaN(grams) || math.IsInf(grams, 0) || grams < 0 {
		return 0
	}
	return grams
}
