package storage

import "time"

// Well-known keys for the local state tables.
const (
	HandleDefaultDir   = "default-dir"
	PrefClosedViewUnit = "closed-view-unit"
	PrefTheme          = "theme"
)

// Handle remembers a location the desk exports to, such as the default
// export folder.
type Handle struct {
	Key       string    `gorm:"primarykey" json:"key"`
	UpdatedAt time.Time `json:"updated_at"`

	Path string `gorm:"not null" json:"path"`
}

// Preference is a persisted view setting.
type Preference struct {
	Key       string    `gorm:"primarykey" json:"key"`
	UpdatedAt time.Time `json:"updated_at"`

	Value string `gorm:"not null" json:"value"`
}
