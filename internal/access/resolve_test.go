package access

import (
	"bitwise74/media-api/internal/model"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db?_busy_timeout=10000")))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		model.Account{},
		model.File{},
		model.PermissionGrant{},
		model.Group{},
		model.GroupMember{},
		model.ShareLink{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func makeFile(t *testing.T, db *gorm.DB, owner string, v model.Visibility) *model.File {
	t.Helper()

	f := model.File{
		OwnerID:        owner,
		StorageKey:     "key-" + owner + "-" + string(v) + "-" + t.Name(),
		StorageBackend: model.BackendLocal,
		OriginalName:   "clip.mp4",
		Visibility:     v,
		CreatedAt:      time.Now().UnixMilli(),
	}

	if err := db.Create(&f).Error; err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	return &f
}

func mustResolve(t *testing.T, db *gorm.DB, f *model.File, caller Caller, action Action) Decision {
	t.Helper()

	dec, err := Resolve(db, f, caller, action)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	return dec
}

func TestResolveDefaultDeny(t *testing.T) {
	db := testDB(t)
	f := makeFile(t, db, "owner", model.VisibilityPrivate)

	tests := []struct {
		name   string
		caller Caller
		action Action
	}{
		{"anonymous view", Caller{}, ActionView},
		{"anonymous download", Caller{}, ActionDownload},
		{"stranger view", Caller{ID: "stranger"}, ActionView},
		{"stranger download", Caller{ID: "stranger"}, ActionDownload},
		{"stranger share", Caller{ID: "stranger"}, ActionShare},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := mustResolve(t, db, f, tt.caller, tt.action)
			if dec.Allowed {
				t.Errorf("expected deny for %s, got allow", tt.name)
			}
			if dec.Reason != DenyNoMatchingRule {
				t.Errorf("expected reason %q, got %q", DenyNoMatchingRule, dec.Reason)
			}
		})
	}
}

func TestResolveOwnerSupremacy(t *testing.T) {
	db := testDB(t)
	owner := Caller{ID: "owner"}

	past := time.Now().Add(-time.Hour).UnixMilli()

	for _, v := range []model.Visibility{model.VisibilityPrivate, model.VisibilityPublic, model.VisibilityGroup} {
		f := makeFile(t, db, "owner", v)
		f.ExpiresAt = &past
		if err := db.Save(f).Error; err != nil {
			t.Fatalf("failed to expire file: %v", err)
		}

		for _, action := range []Action{ActionView, ActionDownload, ActionShare} {
			dec := mustResolve(t, db, f, owner, action)
			if !dec.Allowed {
				t.Errorf("owner denied %s on expired %s file: %q", action, v, dec.Reason)
			}
		}
	}
}

func TestResolveExpiry(t *testing.T) {
	db := testDB(t)
	f := makeFile(t, db, "owner", model.VisibilityPublic)

	past := time.Now().Add(-time.Minute).UnixMilli()
	f.ExpiresAt = &past
	if err := db.Save(f).Error; err != nil {
		t.Fatalf("failed to expire file: %v", err)
	}

	t.Run("stranger denied with expired", func(t *testing.T) {
		dec := mustResolve(t, db, f, Caller{ID: "stranger"}, ActionView)
		if dec.Allowed || dec.Reason != DenyExpired {
			t.Errorf("expected Deny(expired), got %+v", dec)
		}
	})

	t.Run("media manager bypasses expiry", func(t *testing.T) {
		admin := Caller{ID: "admin", Caps: Capabilities{ManageMedia: true}}
		dec := mustResolve(t, db, f, admin, ActionDownload)
		if !dec.Allowed {
			t.Errorf("expected allow for media manager, got %q", dec.Reason)
		}
	})
}

func TestResolveManageMediaBypass(t *testing.T) {
	db := testDB(t)
	f := makeFile(t, db, "owner", model.VisibilityPrivate)

	admin := Caller{ID: "admin", Caps: CapabilitiesFor(model.RoleAdmin)}

	for _, action := range []Action{ActionView, ActionDownload, ActionShare} {
		dec := mustResolve(t, db, f, admin, action)
		if !dec.Allowed {
			t.Errorf("admin denied %s: %q", action, dec.Reason)
		}
	}
}

func TestResolvePublicReadableNotRedistributable(t *testing.T) {
	db := testDB(t)
	f := makeFile(t, db, "owner", model.VisibilityPublic)

	anon := Caller{}

	t.Run("anonymous can view", func(t *testing.T) {
		dec := mustResolve(t, db, f, anon, ActionView)
		if !dec.Allowed {
			t.Errorf("expected allow, got %q", dec.Reason)
		}
	})

	t.Run("anonymous cannot share", func(t *testing.T) {
		dec := mustResolve(t, db, f, anon, ActionShare)
		if dec.Allowed || dec.Reason != DenyNoMatchingRule {
			t.Errorf("expected Deny(no_matching_rule), got %+v", dec)
		}
	})

	t.Run("anonymous cannot download", func(t *testing.T) {
		dec := mustResolve(t, db, f, anon, ActionDownload)
		if dec.Allowed {
			t.Error("expected deny for download on public file")
		}
	})

	t.Run("granted account can share", func(t *testing.T) {
		grantee := "sharer"
		_, dec, err := Grant(db, f, Caller{ID: "owner"}, GrantSpec{
			GranteeAccountID: &grantee,
			CanShare:         true,
		})
		if err != nil || !dec.Allowed {
			t.Fatalf("grant failed: %v %+v", err, dec)
		}

		dec = mustResolve(t, db, f, Caller{ID: grantee}, ActionShare)
		if !dec.Allowed {
			t.Errorf("expected allow after share grant, got %q", dec.Reason)
		}
	})
}

func TestResolveDirectGrantFlags(t *testing.T) {
	db := testDB(t)
	f := makeFile(t, db, "owner", model.VisibilityPrivate)

	grantee := "viewer"
	_, dec, err := Grant(db, f, Caller{ID: "owner"}, GrantSpec{
		GranteeAccountID: &grantee,
		CanView:          true,
	})
	if err != nil || !dec.Allowed {
		t.Fatalf("grant failed: %v %+v", err, dec)
	}

	caller := Caller{ID: grantee}

	t.Run("granted action allowed", func(t *testing.T) {
		dec := mustResolve(t, db, f, caller, ActionView)
		if !dec.Allowed {
			t.Errorf("expected allow, got %q", dec.Reason)
		}
	})

	t.Run("ungranted actions denied", func(t *testing.T) {
		for _, action := range []Action{ActionDownload, ActionShare} {
			dec := mustResolve(t, db, f, caller, action)
			if dec.Allowed {
				t.Errorf("view-only grant allowed %s", action)
			}
		}
	})
}

func TestResolveGrantRevokeWindow(t *testing.T) {
	db := testDB(t)
	f := makeFile(t, db, "owner", model.VisibilityPrivate)
	owner := Caller{ID: "owner"}
	grantee := "x"
	x := Caller{ID: grantee}

	if dec := mustResolve(t, db, f, x, ActionView); dec.Allowed {
		t.Fatal("allowed before grant")
	}

	_, dec, err := Grant(db, f, owner, GrantSpec{GranteeAccountID: &grantee, CanView: true})
	if err != nil || !dec.Allowed {
		t.Fatalf("grant failed: %v %+v", err, dec)
	}

	if dec := mustResolve(t, db, f, x, ActionView); !dec.Allowed {
		t.Fatalf("denied inside window: %q", dec.Reason)
	}

	dec, err = Revoke(db, f, owner, &grantee, nil)
	if err != nil || !dec.Allowed {
		t.Fatalf("revoke failed: %v %+v", err, dec)
	}

	if dec := mustResolve(t, db, f, x, ActionView); dec.Allowed {
		t.Fatal("allowed after revoke")
	}
}

func TestResolveGroupGrantLiveMembership(t *testing.T) {
	db := testDB(t)
	f := makeFile(t, db, "owner", model.VisibilityGroup)

	g := model.Group{Name: "research", CreatedAt: time.Now().UnixMilli()}
	if err := db.Create(&g).Error; err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	_, dec, err := Grant(db, f, Caller{ID: "owner"}, GrantSpec{
		GranteeGroupID: &g.ID,
		CanDownload:    true,
	})
	if err != nil || !dec.Allowed {
		t.Fatalf("group grant failed: %v %+v", err, dec)
	}

	y := Caller{ID: "y"}

	if dec := mustResolve(t, db, f, y, ActionDownload); dec.Allowed {
		t.Fatal("allowed before membership")
	}

	member := model.GroupMember{GroupID: g.ID, AccountID: "y", Role: "member", CreatedAt: time.Now().UnixMilli()}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("failed to add member: %v", err)
	}

	if dec := mustResolve(t, db, f, y, ActionDownload); !dec.Allowed {
		t.Fatalf("denied immediately after joining: %q", dec.Reason)
	}

	t.Run("flag scoped", func(t *testing.T) {
		if dec := mustResolve(t, db, f, y, ActionShare); dec.Allowed {
			t.Error("download-only group grant allowed share")
		}
	})

	if err := db.Delete(&member).Error; err != nil {
		t.Fatalf("failed to remove member: %v", err)
	}

	if dec := mustResolve(t, db, f, y, ActionDownload); dec.Allowed {
		t.Fatal("allowed after leaving the group")
	}
}

func TestResolveGroupGrantNeedsGroupVisibility(t *testing.T) {
	db := testDB(t)

	// A group grant on a private file doesn't open it, the visibility tier
	// gates the whole group path
	f := makeFile(t, db, "owner", model.VisibilityPrivate)

	g := model.Group{Name: "ops", CreatedAt: time.Now().UnixMilli()}
	if err := db.Create(&g).Error; err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	_, dec, err := Grant(db, f, Caller{ID: "owner"}, GrantSpec{GranteeGroupID: &g.ID, CanView: true})
	if err != nil || !dec.Allowed {
		t.Fatalf("group grant failed: %v %+v", err, dec)
	}

	member := model.GroupMember{GroupID: g.ID, AccountID: "z", Role: "member", CreatedAt: time.Now().UnixMilli()}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("failed to add member: %v", err)
	}

	if dec := mustResolve(t, db, f, Caller{ID: "z"}, ActionView); dec.Allowed {
		t.Error("group grant bypassed private visibility")
	}
}
