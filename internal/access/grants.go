package access

import (
	"bitwise74/media-api/internal/model"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidGrantSpec means both or neither grantee was set.
var ErrInvalidGrantSpec = errors.New("exactly one of account or group grantee must be set")

// GrantSpec describes one explicit access rule to create or update.
type GrantSpec struct {
	GranteeAccountID *string `json:"grantee_account_id,omitempty"`
	GranteeGroupID   *uint   `json:"grantee_group_id,omitempty"`
	CanView          bool    `json:"can_view"`
	CanDownload      bool    `json:"can_download"`
	CanShare         bool    `json:"can_share"`
}

func (s *GrantSpec) valid() bool {
	return (s.GranteeAccountID != nil) != (s.GranteeGroupID != nil)
}

// canAdminister reports whether caller may change grants and visibility on
// f. Holding canShare on the file is enough, so is the edit-media
// capability. Checked before every write so the grant surface can't be used
// to self-escalate.
func canAdminister(db *gorm.DB, f *model.File, caller Caller) (Decision, error) {
	if caller.Caps.EditMedia {
		return Allow(), nil
	}

	return Resolve(db, f, caller, ActionShare)
}

// Grant upserts a rule for the given grantee. Granting the same grantee
// twice updates the flags instead of duplicating the row.
func Grant(db *gorm.DB, f *model.File, caller Caller, spec GrantSpec) (*model.PermissionGrant, Decision, error) {
	if !spec.valid() {
		return nil, Deny(DenyNoMatchingRule), ErrInvalidGrantSpec
	}

	dec, err := canAdminister(db, f, caller)
	if err != nil || !dec.Allowed {
		return nil, dec, err
	}

	var grant model.PermissionGrant

	err = granteeQuery(db, f.ID, spec.GranteeAccountID, spec.GranteeGroupID).
		First(&grant).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Deny(DenyNoMatchingRule), fmt.Errorf("failed to look up existing grant, %w", err)
		}

		grant = model.PermissionGrant{
			FileID:           f.ID,
			GranteeAccountID: spec.GranteeAccountID,
			GranteeGroupID:   spec.GranteeGroupID,
			CreatedAt:        time.Now().UnixMilli(),
		}
	}

	grant.CanView = spec.CanView
	grant.CanDownload = spec.CanDownload
	grant.CanShare = spec.CanShare

	if err := db.Save(&grant).Error; err != nil {
		return nil, Deny(DenyNoMatchingRule), fmt.Errorf("failed to save grant, %w", err)
	}

	return &grant, Allow(), nil
}

// Revoke removes the rule for the given grantee. Revoking a grantee that
// holds no grant is a no-op.
func Revoke(db *gorm.DB, f *model.File, caller Caller, granteeAccountID *string, granteeGroupID *uint) (Decision, error) {
	if (granteeAccountID != nil) == (granteeGroupID != nil) {
		return Deny(DenyNoMatchingRule), ErrInvalidGrantSpec
	}

	dec, err := canAdminister(db, f, caller)
	if err != nil || !dec.Allowed {
		return dec, err
	}

	err = granteeQuery(db, f.ID, granteeAccountID, granteeGroupID).
		Delete(model.PermissionGrant{}).
		Error
	if err != nil {
		return Deny(DenyNoMatchingRule), fmt.Errorf("failed to delete grant, %w", err)
	}

	return Allow(), nil
}

// SetVisibility changes the file's base tier.
func SetVisibility(db *gorm.DB, f *model.File, caller Caller, v model.Visibility) (Decision, error) {
	switch v {
	case model.VisibilityPublic, model.VisibilityPrivate, model.VisibilityGroup:
	default:
		return Deny(DenyNoMatchingRule), fmt.Errorf("unknown visibility %q", v)
	}

	dec, err := canAdminister(db, f, caller)
	if err != nil || !dec.Allowed {
		return dec, err
	}

	err = db.
		Model(model.File{}).
		Where("id = ?", f.ID).
		Update("visibility", v).
		Error
	if err != nil {
		return Deny(DenyNoMatchingRule), fmt.Errorf("failed to update visibility, %w", err)
	}

	f.Visibility = v
	return Allow(), nil
}

func granteeQuery(db *gorm.DB, fileID uint, accountID *string, groupID *uint) *gorm.DB {
	if accountID != nil {
		return db.Where("file_id = ? AND grantee_account_id = ?", fileID, *accountID)
	}

	return db.Where("file_id = ? AND grantee_group_id = ?", fileID, *groupID)
}
