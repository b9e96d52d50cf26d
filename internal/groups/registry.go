// Package groups is the membership registry. Resolution always queries it
// live, membership changes apply to the next check with no caching anywhere.
package groups

import (
	"bitwise74/media-api/internal/access"
	"bitwise74/media-api/internal/model"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var ErrGroupNotFound = errors.New("group not found")

// IsMember reports whether the account currently belongs to the group.
func IsMember(db *gorm.DB, accountID string, groupID uint) (bool, error) {
	var ok bool

	err := db.
		Model(model.GroupMember{}).
		Where("account_id = ? AND group_id = ?", accountID, groupID).
		Select("count(*) > 0").
		Find(&ok).
		Error
	if err != nil {
		return false, fmt.Errorf("failed to query membership, %w", err)
	}

	return ok, nil
}

// GroupsOf returns the IDs of every group the account belongs to.
func GroupsOf(db *gorm.DB, accountID string) ([]uint, error) {
	var ids []uint

	err := db.
		Model(model.GroupMember{}).
		Where("account_id = ?", accountID).
		Select("group_id").
		Find(&ids).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to query groups, %w", err)
	}

	return ids, nil
}

// Create makes a new named group. Requires the manage-groups capability,
// self-service groups are not supported.
func Create(db *gorm.DB, caller access.Caller, name string) (*model.Group, access.Decision, error) {
	if !caller.Caps.ManageGroups {
		return nil, access.Deny(access.DenyNoMatchingRule), nil
	}

	g := model.Group{
		Name:      name,
		CreatedAt: time.Now().UnixMilli(),
	}

	if err := db.Create(&g).Error; err != nil {
		return nil, access.Deny(access.DenyNoMatchingRule), fmt.Errorf("failed to create group, %w", err)
	}

	return &g, access.Allow(), nil
}

// Delete removes a group, its memberships and every grant scoped to it in
// one transaction. Files keep their visibility, callers that only had access
// through the group lose it on their next resolution.
func Delete(db *gorm.DB, caller access.Caller, groupID uint) (access.Decision, error) {
	if !caller.Caps.ManageGroups {
		return access.Deny(access.DenyNoMatchingRule), nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", groupID).Delete(model.Group{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return ErrGroupNotFound
		}

		if err := tx.Where("group_id = ?", groupID).Delete(model.GroupMember{}).Error; err != nil {
			return err
		}

		return tx.Where("grantee_group_id = ?", groupID).Delete(model.PermissionGrant{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return access.Deny(access.DenyNotFound), nil
		}

		return access.Deny(access.DenyNoMatchingRule), fmt.Errorf("failed to delete group, %w", err)
	}

	return access.Allow(), nil
}

// AddMember puts an account into a group. Adding an existing member just
// updates their in-group role.
func AddMember(db *gorm.DB, caller access.Caller, groupID uint, accountID, role string) (access.Decision, error) {
	if !caller.Caps.ManageGroups {
		return access.Deny(access.DenyNoMatchingRule), nil
	}

	var exists bool
	err := db.
		Model(model.Group{}).
		Where("id = ?", groupID).
		Select("count(*) > 0").
		Find(&exists).
		Error
	if err != nil {
		return access.Deny(access.DenyNoMatchingRule), fmt.Errorf("failed to check group, %w", err)
	}

	if !exists {
		return access.Deny(access.DenyNotFound), nil
	}

	if role == "" {
		role = "member"
	}

	var member model.GroupMember
	err = db.
		Where("group_id = ? AND account_id = ?", groupID, accountID).
		First(&member).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return access.Deny(access.DenyNoMatchingRule), fmt.Errorf("failed to look up membership, %w", err)
		}

		member = model.GroupMember{
			GroupID:   groupID,
			AccountID: accountID,
			CreatedAt: time.Now().UnixMilli(),
		}
	}

	member.Role = role

	if err := db.Save(&member).Error; err != nil {
		return access.Deny(access.DenyNoMatchingRule), fmt.Errorf("failed to save membership, %w", err)
	}

	return access.Allow(), nil
}

// RemoveMember takes an account out of a group, effective for every
// resolution after the row is gone.
func RemoveMember(db *gorm.DB, caller access.Caller, groupID uint, accountID string) (access.Decision, error) {
	if !caller.Caps.ManageGroups {
		return access.Deny(access.DenyNoMatchingRule), nil
	}

	err := db.
		Where("group_id = ? AND account_id = ?", groupID, accountID).
		Delete(model.GroupMember{}).
		Error
	if err != nil {
		return access.Deny(access.DenyNoMatchingRule), fmt.Errorf("failed to remove membership, %w", err)
	}

	return access.Allow(), nil
}
