package access

import (
	"bitwise74/media-api/internal/model"
	"bitwise74/media-api/pkg/security"
	"errors"
	"testing"
	"time"
)

func TestGrantExclusivity(t *testing.T) {
	db := testDB(t)
	f := makeFile(t, db, "owner", model.VisibilityPrivate)
	owner := Caller{ID: "owner"}

	accountID := "x"
	groupID := uint(1)

	tests := []struct {
		name string
		spec GrantSpec
	}{
		{"neither grantee", GrantSpec{CanView: true}},
		{"both grantees", GrantSpec{GranteeAccountID: &accountID, GranteeGroupID: &groupID, CanView: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Grant(db, f, owner, tt.spec)
			if !errors.Is(err, ErrInvalidGrantSpec) {
				t.Errorf("expected ErrInvalidGrantSpec, got %v", err)
			}
		})
	}

	t.Run("revoke validates too", func(t *testing.T) {
		_, err := Revoke(db, f, owner, nil, nil)
		if !errors.Is(err, ErrInvalidGrantSpec) {
			t.Errorf("expected ErrInvalidGrantSpec, got %v", err)
		}
	})
}

func TestGrantIdempotentUpsert(t *testing.T) {
	db := testDB(t)
	f := makeFile(t, db, "owner", model.VisibilityPrivate)
	owner := Caller{ID: "owner"}
	grantee := "x"

	_, dec, err := Grant(db, f, owner, GrantSpec{GranteeAccountID: &grantee, CanView: true})
	if err != nil || !dec.Allowed {
		t.Fatalf("first grant failed: %v %+v", err, dec)
	}

	_, dec, err = Grant(db, f, owner, GrantSpec{GranteeAccountID: &grantee, CanView: true, CanDownload: true})
	if err != nil || !dec.Allowed {
		t.Fatalf("second grant failed: %v %+v", err, dec)
	}

	var count int64
	if err := db.Model(model.PermissionGrant{}).Where("file_id = ?", f.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count grants: %v", err)
	}

	if count != 1 {
		t.Errorf("expected 1 grant row, got %d", count)
	}

	var grant model.PermissionGrant
	if err := db.Where("file_id = ?", f.ID).First(&grant).Error; err != nil {
		t.Fatalf("failed to fetch grant: %v", err)
	}

	if !grant.CanView || !grant.CanDownload || grant.CanShare {
		t.Errorf("unexpected flags after upsert: %+v", grant)
	}
}

func TestGrantNoSelfEscalation(t *testing.T) {
	db := testDB(t)
	f := makeFile(t, db, "owner", model.VisibilityPrivate)

	// A caller without share rights can't use the grant surface to give
	// themselves anything
	stranger := Caller{ID: "stranger"}
	me := "stranger"

	_, dec, err := Grant(db, f, stranger, GrantSpec{GranteeAccountID: &me, CanView: true, CanShare: true})
	if err != nil {
		t.Fatalf("Grant returned error: %v", err)
	}

	if dec.Allowed {
		t.Fatal("stranger was allowed to grant on a file they can't share")
	}

	var count int64
	if err := db.Model(model.PermissionGrant{}).Where("file_id = ?", f.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count grants: %v", err)
	}

	if count != 0 {
		t.Errorf("expected no grant rows, got %d", count)
	}
}

func TestGrantViaShareGrant(t *testing.T) {
	db := testDB(t)
	f := makeFile(t, db, "owner", model.VisibilityPrivate)
	owner := Caller{ID: "owner"}

	sharer := "sharer"
	_, dec, err := Grant(db, f, owner, GrantSpec{GranteeAccountID: &sharer, CanShare: true})
	if err != nil || !dec.Allowed {
		t.Fatalf("setup grant failed: %v %+v", err, dec)
	}

	// Holding canShare is enough to grant onward
	other := "other"
	_, dec, err = Grant(db, f, Caller{ID: sharer}, GrantSpec{GranteeAccountID: &other, CanView: true})
	if err != nil || !dec.Allowed {
		t.Fatalf("sharer couldn't grant view: %v %+v", err, dec)
	}
}

func TestSetVisibility(t *testing.T) {
	db := testDB(t)
	f := makeFile(t, db, "owner", model.VisibilityPrivate)
	owner := Caller{ID: "owner"}

	t.Run("owner can change", func(t *testing.T) {
		dec, err := SetVisibility(db, f, owner, model.VisibilityPublic)
		if err != nil || !dec.Allowed {
			t.Fatalf("SetVisibility failed: %v %+v", err, dec)
		}

		var stored model.File
		if err := db.Where("id = ?", f.ID).First(&stored).Error; err != nil {
			t.Fatalf("failed to fetch file: %v", err)
		}

		if stored.Visibility != model.VisibilityPublic {
			t.Errorf("visibility not persisted, got %q", stored.Visibility)
		}
	})

	t.Run("invalid tier rejected", func(t *testing.T) {
		if _, err := SetVisibility(db, f, owner, "world"); err == nil {
			t.Error("expected error for unknown visibility")
		}
	})

	t.Run("stranger denied", func(t *testing.T) {
		dec, err := SetVisibility(db, f, Caller{ID: "stranger"}, model.VisibilityPrivate)
		if err != nil {
			t.Fatalf("SetVisibility returned error: %v", err)
		}
		if dec.Allowed {
			t.Error("stranger changed visibility")
		}
	})
}

func TestCheckFilePassword(t *testing.T) {
	argon := security.New()

	hash, err := argon.GenerateFromPassword("hunter42")
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}

	f := &model.File{
		ID:             1,
		OwnerID:        "owner",
		AccessPassword: hash,
		CreatedAt:      time.Now().UnixMilli(),
	}

	tests := []struct {
		name     string
		caller   Caller
		supplied string
		allowed  bool
		reason   DenyReason
	}{
		{"missing password", Caller{ID: "x"}, "", false, DenyPasswordRequired},
		{"wrong password", Caller{ID: "x"}, "nope", false, DenyPasswordInvalid},
		{"correct password", Caller{ID: "x"}, "hunter42", true, ""},
		{"owner skips prompt", Caller{ID: "owner"}, "", true, ""},
		{"media manager skips prompt", Caller{ID: "a", Caps: Capabilities{ManageMedia: true}}, "", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := CheckFilePassword(argon, f, tt.caller, tt.supplied)
			if err != nil {
				t.Fatalf("CheckFilePassword returned error: %v", err)
			}

			if dec.Allowed != tt.allowed || dec.Reason != tt.reason {
				t.Errorf("got %+v, want allowed=%v reason=%q", dec, tt.allowed, tt.reason)
			}
		})
	}

	t.Run("no password set", func(t *testing.T) {
		plain := &model.File{ID: 2, OwnerID: "owner"}
		dec, err := CheckFilePassword(argon, plain, Caller{}, "")
		if err != nil || !dec.Allowed {
			t.Errorf("expected allow on passwordless file, got %+v %v", dec, err)
		}
	})
}
