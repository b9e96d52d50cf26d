// Package share manages the lifecycle of time-boxed, password-protected,
// view-limited share links. Links bypass identity resolution entirely, the
// gates here are the only thing between a token holder and the file.
package share

import (
	"bitwise74/media-api/internal/access"
	"bitwise74/media-api/internal/model"
	"bitwise74/media-api/pkg/security"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// CreateOpts are the optional gates attached to a new link.
type CreateOpts struct {
	Password  string `json:"password,omitempty"`
	ExpiresAt *int64 `json:"expires_at,omitempty"`
	MaxViews  *int64 `json:"max_views,omitempty"`
}

// Create issues a new link for f. The creator must resolve to Allow for the
// share action. Tokens come from a CSPRNG and are never reused, the unique
// index holds even across deleted links because a fresh 128-bit value is
// drawn every time.
func Create(db *gorm.DB, argon passwordHasher, f *model.File, creator access.Caller, o CreateOpts) (*model.ShareLink, access.Decision, error) {
	dec, err := access.Resolve(db, f, creator, access.ActionShare)
	if err != nil || !dec.Allowed {
		return nil, dec, err
	}

	if o.MaxViews != nil && *o.MaxViews <= 0 {
		return nil, access.Deny(access.DenyNoMatchingRule), errors.New("max_views must be bigger than 0")
	}

	var hash string
	if o.Password != "" {
		hash, err = argon.GenerateFromPassword(o.Password)
		if err != nil {
			return nil, access.Deny(access.DenyNoMatchingRule), fmt.Errorf("failed to hash link password, %w", err)
		}
	}

	token, err := newToken(db)
	if err != nil {
		return nil, access.Deny(access.DenyNoMatchingRule), err
	}

	link := model.ShareLink{
		FileID:       f.ID,
		CreatorID:    creator.ID,
		Token:        token,
		PasswordHash: hash,
		ExpiresAt:    o.ExpiresAt,
		MaxViews:     o.MaxViews,
		CreatedAt:    time.Now().UnixMilli(),
	}

	if err := db.Create(&link).Error; err != nil {
		return nil, access.Deny(access.DenyNoMatchingRule), fmt.Errorf("failed to persist share link, %w", err)
	}

	return &link, access.Allow(), nil
}

// Validate runs the full gate order without touching the view counter:
// record exists, not expired, cap not reached, password matches. A client
// that still has to show a password prompt must not burn a view.
func Validate(db *gorm.DB, argon passwordHasher, token, suppliedPassword string) (*model.ShareLink, access.Decision, error) {
	var link model.ShareLink

	err := db.
		Where("token = ?", token).
		First(&link).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, access.Deny(access.DenyNotFound), nil
		}

		return nil, access.Deny(access.DenyNotFound), fmt.Errorf("failed to look up share link, %w", err)
	}

	now := time.Now().UnixMilli()

	if link.ExpiresAt != nil && *link.ExpiresAt <= now {
		return nil, access.Deny(access.DenyExpired), nil
	}

	if link.MaxViews != nil && link.ViewCount >= *link.MaxViews {
		return nil, access.Deny(access.DenyExhausted), nil
	}

	if link.PasswordHash != "" {
		if suppliedPassword == "" {
			return nil, access.Deny(access.DenyPasswordRequired), nil
		}

		ok, err := argon.VerifyPasswd(suppliedPassword, link.PasswordHash)
		if err != nil {
			return nil, access.Deny(access.DenyPasswordInvalid), err
		}

		if !ok {
			return nil, access.Deny(access.DenyPasswordInvalid), nil
		}
	}

	return &link, access.Allow(), nil
}

// RecordAccess consumes exactly one view. The cap check and the increment
// are a single conditional UPDATE so two concurrent requests against the
// last remaining view can't both pass, whichever loses the race gets
// exhausted back and must not serve.
func RecordAccess(db *gorm.DB, token string) (access.Decision, error) {
	res := db.
		Model(model.ShareLink{}).
		Where("token = ? AND (max_views IS NULL OR view_count < max_views)", token).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return access.Deny(access.DenyExhausted), fmt.Errorf("failed to record share access, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return access.Deny(access.DenyExhausted), nil
	}

	return access.Allow(), nil
}

// Revoke hard-deletes the link. Only the creator or a media manager may do
// it, and there is no way back, a revoked token is indistinguishable from
// one that never existed.
func Revoke(db *gorm.DB, linkID uint, caller access.Caller) (access.Decision, error) {
	var link model.ShareLink

	err := db.
		Where("id = ?", linkID).
		First(&link).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return access.Deny(access.DenyNotFound), nil
		}

		return access.Deny(access.DenyNotFound), fmt.Errorf("failed to look up share link, %w", err)
	}

	if link.CreatorID != caller.ID && !caller.Caps.ManageMedia {
		return access.Deny(access.DenyNoMatchingRule), nil
	}

	if err := db.Delete(&link).Error; err != nil {
		return access.Deny(access.DenyNoMatchingRule), fmt.Errorf("failed to delete share link, %w", err)
	}

	return access.Allow(), nil
}

// URLFor builds the externally visible link for a token.
func URLFor(token string) string {
	scheme := "http"
	if viper.GetBool("host.ssl.enabled") {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s/s/%s", scheme, viper.GetString("host.domain"), token)
}

type passwordHasher interface {
	GenerateFromPassword(p string) (string, error)
	VerifyPasswd(p, e string) (bool, error)
}

func newToken(db *gorm.DB) (string, error) {
	// One collision in 2^128 is already unreachable, the loop is only here
	// so a broken entropy source fails loudly instead of reusing a token.
	for range 3 {
		token, err := security.GenerateToken(security.ShareTokenBytes)
		if err != nil {
			return "", fmt.Errorf("failed to generate share token, %w", err)
		}

		var taken bool
		err = db.
			Model(model.ShareLink{}).
			Where("token = ?", token).
			Select("count(*) > 0").
			Find(&taken).
			Error
		if err != nil {
			return "", fmt.Errorf("failed to check token uniqueness, %w", err)
		}

		if !taken {
			return token, nil
		}
	}

	return "", errors.New("failed to generate a unique share token")
}
