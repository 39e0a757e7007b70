package nutrition

import "errors"

// Domain errors for reference data and recipe mutations

var (
	// Reference store errors
	ErrDuplicateIngredient = errors.New("ingredient id already exists in catalog")
	ErrInvalidProfile      = errors.New("invalid ingredient profile")
	ErrUnknownIngredient   = errors.New("ingredient not found in catalog")

	// Recipe mutation errors
	ErrLineIndexOutOfRange = errors.New("recipe line index out of range")
	ErrUnknownOperation    = errors.New("unknown recipe operation")

	// Preset errors
	ErrPresetNotFound  = errors.New("preset not found")
	ErrDuplicatePreset = errors.New("preset id already exists")
)
