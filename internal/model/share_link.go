package model

// ShareLink is a token-bearing, identity-independent access path into one
// file. There is no stored revoked state, revocation deletes the row.
type ShareLink struct {
	ID     uint `gorm:"primaryKey;autoIncrement" json:"id"`
	FileID uint `gorm:"index;not null" json:"file_id"`

	// CreatorID held canShare on the file at creation time
	CreatorID string `gorm:"index;not null" json:"-"`

	Token string `gorm:"uniqueIndex;not null" json:"token"`

	// Argon2id hash, empty means no password gate
	PasswordHash string `json:"-"`

	// Unix millisecond timestamp, nil means the link never expires
	ExpiresAt *int64 `json:"expires_at,omitzero"`

	// Nil means unlimited. ViewCount never exceeds MaxViews when set,
	// enforced by a conditional update in the share package.
	MaxViews  *int64 `json:"max_views,omitempty"`
	ViewCount int64  `gorm:"not null;default:0" json:"view_count"`

	CreatedAt int64 `gorm:"not null" json:"created_at"`
}

// Exhausted reports whether the link stopped being servable at the given
// wall-clock time (unix milliseconds). Derived, never stored.
func (s *ShareLink) Exhausted(nowMs int64) bool {
	if s.ExpiresAt != nil && *s.ExpiresAt <= nowMs {
		return true
	}

	if s.MaxViews != nil && s.ViewCount >= *s.MaxViews {
		return true
	}

	return false
}
