// Package cloudconfig validates untrusted remote configuration payloads.
// Structural violations reject the whole payload; per-item violations drop
// the offending entry and keep the rest.
package cloudconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/calpane/calpane/internal/model"
)

// ErrInvalidConfig marks a whole-payload rejection. Callers map it to a
// 400-class result.
var ErrInvalidConfig = errors.New("invalid cloud config")

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Sanitize converts an arbitrary decoded JSON payload into a well-formed
// CloudConfig. Invalid array members are dropped silently; structural
// problems reject the payload as a whole with ErrInvalidConfig.
func Sanitize(raw []byte) (*model.CloudConfig, error) {
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidConfig)
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: payload is not an object", ErrInvalidConfig)
	}

	version, ok := finiteNumber(obj["version"])
	if !ok || version != float64(model.ConfigVersion) {
		return nil, fmt.Errorf("%w: unsupported version", ErrInvalidConfig)
	}

	updatedAt, ok := finiteNumber(obj["updatedAt"])
	if !ok {
		return nil, fmt.Errorf("%w: updatedAt is not a finite number", ErrInvalidConfig)
	}

	deviceID, ok := obj["deviceId"].(string)
	if !ok || len(deviceID) > model.MaxStringLength {
		return nil, fmt.Errorf("%w: bad deviceId", ErrInvalidConfig)
	}

	rawFilters, ok := obj["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: filters is not an array", ErrInvalidConfig)
	}
	if len(rawFilters) > model.MaxFilters {
		return nil, fmt.Errorf("%w: too many filters", ErrInvalidConfig)
	}

	rawCalendars, ok := obj["disabledCalendars"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: disabledCalendars is not an array", ErrInvalidConfig)
	}
	rawBuiltIns, ok := obj["disabledBuiltInCategories"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: disabledBuiltInCategories is not an array", ErrInvalidConfig)
	}
	rawCategories, ok := obj["customCategories"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: customCategories is not an array", ErrInvalidConfig)
	}

	cfg := &model.CloudConfig{
		Version:   model.ConfigVersion,
		UpdatedAt: int64(updatedAt),
		DeviceID:  deviceID,
		Filters:   sanitizeFilters(rawFilters),
		DisabledCalendars: sanitizeStrings(rawCalendars, func(string) bool {
			return true
		}),
		DisabledBuiltInCategories: sanitizeStrings(rawBuiltIns, model.IsBuiltInCategoryID),
		CustomCategories:          SanitizeCategories(rawCategories),
	}
	return cfg, nil
}

func sanitizeFilters(raw []any) []model.Filter {
	filters := make([]model.Filter, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, ok := obj["id"].(string)
		if !ok || id == "" {
			continue
		}
		pattern, ok := obj["pattern"].(string)
		if !ok || strings.TrimSpace(pattern) == "" || len(pattern) > model.MaxStringLength {
			continue
		}
		createdAt, ok := finiteNumber(obj["createdAt"])
		if !ok {
			continue
		}
		filters = append(filters, model.Filter{ID: id, Pattern: pattern, CreatedAt: createdAt})
	}
	return filters
}

func sanitizeStrings(raw []any, allowed func(string) bool) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" || len(s) > model.MaxStringLength {
			continue
		}
		if !allowed(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SanitizeCategories keeps only entries that satisfy every shape constraint
// locally created categories satisfy.
func SanitizeCategories(raw []any) []model.Category {
	out := make([]model.Category, 0, len(raw))
	for _, item := range raw {
		if c, ok := sanitizeCategory(item); ok {
			out = append(out, c)
		}
	}
	return out
}

func sanitizeCategory(item any) (model.Category, bool) {
	var zero model.Category
	obj, ok := item.(map[string]any)
	if !ok {
		return zero, false
	}
	id, ok := obj["id"].(string)
	if !ok || id == "" {
		return zero, false
	}
	label, ok := obj["label"].(string)
	if !ok || !ValidLabel(label) {
		return zero, false
	}
	color, ok := obj["color"].(string)
	if !ok || !ValidColor(color) {
		return zero, false
	}
	rawKeywords, ok := obj["keywords"].([]any)
	if !ok || len(rawKeywords) > model.MaxKeywords {
		return zero, false
	}
	keywords := make([]string, 0, len(rawKeywords))
	for _, k := range rawKeywords {
		s, ok := k.(string)
		if !ok || len(s) > model.MaxStringLength {
			return zero, false
		}
		keywords = append(keywords, s)
	}
	mode, ok := obj["matchMode"].(string)
	if !ok || (model.MatchMode(mode) != model.MatchAny && model.MatchMode(mode) != model.MatchAll) {
		return zero, false
	}
	createdAt, ok := finiteNumber(obj["createdAt"])
	if !ok {
		return zero, false
	}
	updatedAt, ok := finiteNumber(obj["updatedAt"])
	if !ok {
		return zero, false
	}
	isDefault, _ := obj["isDefault"].(bool)

	return model.Category{
		ID:        id,
		Label:     label,
		Color:     color,
		Keywords:  DedupeKeywords(keywords),
		MatchMode: model.MatchMode(mode),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		IsDefault: isDefault,
	}, true
}

// ValidLabel reports whether label is non-empty after trim and within the
// length limit.
func ValidLabel(label string) bool {
	return strings.TrimSpace(label) != "" && len(label) <= model.MaxLabelLength
}

// ValidColor reports whether color is a #RRGGBB value.
func ValidColor(color string) bool {
	return colorPattern.MatchString(color)
}

// DedupeKeywords removes case-insensitive duplicates, preserving original
// casing and first-seen order.
func DedupeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		lower := strings.ToLower(k)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, k)
	}
	return out
}

// finiteNumber returns the value as a float64 if it is a finite JSON number.
func finiteNumber(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
