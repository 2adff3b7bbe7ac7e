package model

// ConfigVersion is the only schema version this build reads or writes.
const ConfigVersion = 1

// MatchMode controls how a category's keywords are applied to an event title.
type MatchMode string

const (
	MatchAny MatchMode = "any"
	MatchAll MatchMode = "all"
)

// Field limits enforced both on local mutation and on untrusted remote payloads.
const (
	MaxLabelLength  = 32
	MaxStringLength = 1000
	MaxKeywords     = 500
	MaxFilters      = 500
	CustomIDPrefix  = "custom-"
	ConfigFileName  = "calpane-config.json"
)

// Category tags events whose titles match its keywords.
type Category struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Color     string    `json:"color"` // #RRGGBB
	Keywords  []string  `json:"keywords"`
	MatchMode MatchMode `json:"matchMode"`
	CreatedAt float64   `json:"createdAt"` // epoch ms
	UpdatedAt float64   `json:"updatedAt"` // epoch ms
	IsDefault bool      `json:"isDefault"`
}

// Filter hides events whose titles contain the pattern.
type Filter struct {
	ID        string  `json:"id"`
	Pattern   string  `json:"pattern"`
	CreatedAt float64 `json:"createdAt"` // epoch ms
}

// CloudConfig is the single remote artifact: the user's full personal
// configuration, always read and written as a whole.
type CloudConfig struct {
	Version                   int        `json:"version"`
	UpdatedAt                 int64      `json:"updatedAt"` // epoch ms
	DeviceID                  string     `json:"deviceId"`
	Filters                   []Filter   `json:"filters"`
	DisabledCalendars         []string   `json:"disabledCalendars"`
	DisabledBuiltInCategories []string   `json:"disabledBuiltInCategories"`
	CustomCategories          []Category `json:"customCategories"`
}

// SessionToken is the provider-issued credential held by the auth manager.
type SessionToken struct {
	AccessToken   string
	ExpiresAt     int64 // epoch ms
	GrantedScopes string
}

// DisplaySettings are local-only view preferences. They ride the same store
// and subscription machinery as the synced slices but are not part of
// CloudConfig v1.
type DisplaySettings struct {
	WeekStart    string `json:"weekStart"`   // "monday" or "sunday"
	TimeFormat   string `json:"timeFormat"`  // "12h" or "24h"
	DefaultView  string `json:"defaultView"` // "month", "week" or "day"
	ShowWeekends bool   `json:"showWeekends"`
}

// DefaultDisplaySettings returns the out-of-the-box view preferences.
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{
		WeekStart:    "monday",
		TimeFormat:   "24h",
		DefaultView:  "month",
		ShowWeekends: true,
	}
}

// DefaultCategories returns the built-in category set. IDs are stable and
// well-known; the validator only accepts these in disabledBuiltInCategories.
func DefaultCategories() []Category {
	return []Category{
		{ID: "work", Label: "Work", Color: "#4285F4", Keywords: []string{"standup", "1:1", "review", "sprint"}, MatchMode: MatchAny, IsDefault: true},
		{ID: "personal", Label: "Personal", Color: "#34A853", Keywords: []string{"gym", "errand", "appointment"}, MatchMode: MatchAny, IsDefault: true},
		{ID: "family", Label: "Family", Color: "#FBBC05", Keywords: []string{"birthday", "school", "dinner"}, MatchMode: MatchAny, IsDefault: true},
		{ID: "health", Label: "Health", Color: "#EA4335", Keywords: []string{"doctor", "dentist", "checkup"}, MatchMode: MatchAny, IsDefault: true},
		{ID: "travel", Label: "Travel", Color: "#A142F4", Keywords: []string{"flight", "hotel", "train"}, MatchMode: MatchAny, IsDefault: true},
	}
}

// IsBuiltInCategoryID reports whether id names one of the default categories.
func IsBuiltInCategoryID(id string) bool {
	for _, c := range DefaultCategories() {
		if c.ID == id {
			return true
		}
	}
	return false
}
