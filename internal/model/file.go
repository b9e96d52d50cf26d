// Package model defines database models
package model

// Visibility is the base accessibility tier of a file, evaluated before
// any explicit grant.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityGroup   Visibility = "group"
)

// Storage backends a file's bytes can live on
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

type File struct {
	ID      uint   `gorm:"primaryKey;autoIncrement;index" json:"id"`
	OwnerID string `gorm:"index;not null" json:"-"`

	// StorageKey avoids file name conflicts between users. Nothing outside
	// the storage package interprets it.
	StorageKey     string `gorm:"uniqueIndex;not null" json:"-"`
	StorageBackend string `gorm:"not null" json:"-"`

	OriginalName string     `json:"name"`
	ContentType  string     `json:"content_type"`
	Size         int64      `json:"size"`
	Visibility   Visibility `gorm:"not null;default:private" json:"visibility"`

	// Argon2id hash. When set, content access additionally requires the
	// matching plaintext password. Metadata reads never need it.
	AccessPassword string `json:"-"`

	Views     int64 `gorm:"not null;default:0" json:"views"`
	Downloads int64 `gorm:"not null;default:0" json:"downloads"`

	// Unix millisecond timestamps
	CreatedAt int64  `gorm:"not null" json:"created_at"`
	ExpiresAt *int64 `json:"expires_at,omitzero"`
}
