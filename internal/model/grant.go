package model

// PermissionGrant is one explicit access rule for a file. Exactly one of
// GranteeAccountID or GranteeGroupID is set; the access package rejects
// writes that violate this.
type PermissionGrant struct {
	ID     uint `gorm:"primaryKey;autoIncrement" json:"id"`
	FileID uint `gorm:"index:idx_grant_file;not null" json:"file_id"`

	GranteeAccountID *string `gorm:"index" json:"grantee_account_id,omitempty"`
	GranteeGroupID   *uint   `gorm:"index" json:"grantee_group_id,omitempty"`

	// Independent flags. Download does not imply view elsewhere and share
	// does not imply download.
	CanView     bool `gorm:"not null;default:false" json:"can_view"`
	CanDownload bool `gorm:"not null;default:false" json:"can_download"`
	CanShare    bool `gorm:"not null;default:false" json:"can_share"`

	CreatedAt int64 `gorm:"not null" json:"created_at"`
}
