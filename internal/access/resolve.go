package access

import (
	"bitwise74/media-api/internal/model"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// flagColumn maps an action to its grant flag column. Resolve and the grant
// queries share it so a new action can't silently match nothing.
func flagColumn(action Action) (string, error) {
	switch action {
	case ActionView:
		return "can_view", nil
	case ActionDownload:
		return "can_download", nil
	case ActionShare:
		return "can_share", nil
	default:
		return "", fmt.Errorf("unknown action %q", action)
	}
}

// Resolve decides whether caller may perform action on f. Rules are
// evaluated in a fixed order, first match wins:
//
//  1. expired file, caller is neither owner nor media manager -> expired
//  2. owner -> allow
//  3. manage-media capability -> allow
//  4. public file -> allow for view only (public means readable, not
//     redistributable)
//  5. direct grant naming the caller with the action's flag -> allow
//  6. group-visible file and the caller currently belongs to a group
//     holding a grant with the flag -> allow
//  7. deny
//
// Group membership is queried live on every call. Counters are never
// touched here, that's the serving boundary's job after the gates pass.
func Resolve(db *gorm.DB, f *model.File, caller Caller, action Action) (Decision, error) {
	isOwner := !caller.Anonymous() && caller.ID == f.OwnerID

	if f.ExpiresAt != nil && *f.ExpiresAt <= time.Now().UnixMilli() {
		if !isOwner && !caller.Caps.ManageMedia {
			return Deny(DenyExpired), nil
		}
	}

	if isOwner {
		return Allow(), nil
	}

	if caller.Caps.ManageMedia {
		return Allow(), nil
	}

	if f.Visibility == model.VisibilityPublic && action == ActionView {
		return Allow(), nil
	}

	if caller.Anonymous() {
		return Deny(DenyNoMatchingRule), nil
	}

	col, err := flagColumn(action)
	if err != nil {
		return Deny(DenyNoMatchingRule), err
	}

	var direct bool
	err = db.
		Model(model.PermissionGrant{}).
		Where("file_id = ? AND grantee_account_id = ? AND "+col+" = ?", f.ID, caller.ID, true).
		Select("count(*) > 0").
		Find(&direct).
		Error
	if err != nil {
		return Deny(DenyNoMatchingRule), fmt.Errorf("failed to query direct grants, %w", err)
	}

	if direct {
		return Allow(), nil
	}

	if f.Visibility == model.VisibilityGroup {
		var viaGroup bool
		err = db.
			Model(model.PermissionGrant{}).
			Joins("JOIN group_members ON group_members.group_id = permission_grants.grantee_group_id").
			Where("permission_grants.file_id = ? AND group_members.account_id = ? AND permission_grants."+col+" = ?", f.ID, caller.ID, true).
			Select("count(*) > 0").
			Find(&viaGroup).
			Error
		if err != nil {
			return Deny(DenyNoMatchingRule), fmt.Errorf("failed to query group grants, %w", err)
		}

		if viaGroup {
			return Allow(), nil
		}
	}

	return Deny(DenyNoMatchingRule), nil
}
