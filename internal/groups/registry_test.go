package groups

import (
	"bitwise74/media-api/internal/access"
	"bitwise74/media-api/internal/model"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(model.Group{}, model.GroupMember{}, model.PermissionGrant{})
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

var admin = access.Caller{ID: "admin", Caps: access.Capabilities{ManageGroups: true}}

func TestMembershipLifecycle(t *testing.T) {
	db := testDB(t)

	g, dec, err := Create(db, admin, "research")
	if err != nil || !dec.Allowed {
		t.Fatalf("Create failed: %v %+v", err, dec)
	}

	ok, err := IsMember(db, "x", g.ID)
	if err != nil {
		t.Fatalf("IsMember returned error: %v", err)
	}
	if ok {
		t.Fatal("member before being added")
	}

	dec, err = AddMember(db, admin, g.ID, "x", "")
	if err != nil || !dec.Allowed {
		t.Fatalf("AddMember failed: %v %+v", err, dec)
	}

	ok, err = IsMember(db, "x", g.ID)
	if err != nil {
		t.Fatalf("IsMember returned error: %v", err)
	}
	if !ok {
		t.Fatal("not a member immediately after add")
	}

	ids, err := GroupsOf(db, "x")
	if err != nil {
		t.Fatalf("GroupsOf returned error: %v", err)
	}
	if len(ids) != 1 || ids[0] != g.ID {
		t.Errorf("GroupsOf = %v, want [%d]", ids, g.ID)
	}

	dec, err = RemoveMember(db, admin, g.ID, "x")
	if err != nil || !dec.Allowed {
		t.Fatalf("RemoveMember failed: %v %+v", err, dec)
	}

	ok, err = IsMember(db, "x", g.ID)
	if err != nil {
		t.Fatalf("IsMember returned error: %v", err)
	}
	if ok {
		t.Fatal("still a member after removal")
	}
}

func TestAddMemberUpsertsRole(t *testing.T) {
	db := testDB(t)

	g, dec, err := Create(db, admin, "ops")
	if err != nil || !dec.Allowed {
		t.Fatalf("Create failed: %v %+v", err, dec)
	}

	if dec, err := AddMember(db, admin, g.ID, "x", ""); err != nil || !dec.Allowed {
		t.Fatalf("AddMember failed: %v %+v", err, dec)
	}

	if dec, err := AddMember(db, admin, g.ID, "x", "lead"); err != nil || !dec.Allowed {
		t.Fatalf("second AddMember failed: %v %+v", err, dec)
	}

	var count int64
	if err := db.Model(model.GroupMember{}).Where("group_id = ?", g.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count members: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 membership row, got %d", count)
	}

	var m model.GroupMember
	if err := db.Where("group_id = ? AND account_id = ?", g.ID, "x").First(&m).Error; err != nil {
		t.Fatalf("failed to fetch membership: %v", err)
	}
	if m.Role != "lead" {
		t.Errorf("role = %q, want lead", m.Role)
	}
}

func TestGroupOpsNeedCapability(t *testing.T) {
	db := testDB(t)
	nobody := access.Caller{ID: "nobody"}

	if _, dec, err := Create(db, nobody, "x"); err != nil || dec.Allowed {
		t.Errorf("Create without capability: dec=%+v err=%v", dec, err)
	}

	g, _, err := Create(db, admin, "real")
	if err != nil {
		t.Fatalf("setup Create failed: %v", err)
	}

	if dec, err := AddMember(db, nobody, g.ID, "y", ""); err != nil || dec.Allowed {
		t.Errorf("AddMember without capability: dec=%+v err=%v", dec, err)
	}

	if dec, err := RemoveMember(db, nobody, g.ID, "y"); err != nil || dec.Allowed {
		t.Errorf("RemoveMember without capability: dec=%+v err=%v", dec, err)
	}

	if dec, err := Delete(db, nobody, g.ID); err != nil || dec.Allowed {
		t.Errorf("Delete without capability: dec=%+v err=%v", dec, err)
	}
}

func TestDeleteCascades(t *testing.T) {
	db := testDB(t)

	g, _, err := Create(db, admin, "doomed")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if dec, err := AddMember(db, admin, g.ID, "x", ""); err != nil || !dec.Allowed {
		t.Fatalf("AddMember failed: %v %+v", err, dec)
	}

	grant := model.PermissionGrant{
		FileID:         1,
		GranteeGroupID: &g.ID,
		CanView:        true,
		CreatedAt:      time.Now().UnixMilli(),
	}
	if err := db.Create(&grant).Error; err != nil {
		t.Fatalf("failed to create grant: %v", err)
	}

	dec, err := Delete(db, admin, g.ID)
	if err != nil || !dec.Allowed {
		t.Fatalf("Delete failed: %v %+v", err, dec)
	}

	var members, grants int64
	db.Model(model.GroupMember{}).Where("group_id = ?", g.ID).Count(&members)
	db.Model(model.PermissionGrant{}).Where("grantee_group_id = ?", g.ID).Count(&grants)

	if members != 0 || grants != 0 {
		t.Errorf("cascade left members=%d grants=%d", members, grants)
	}

	t.Run("second delete reports not found", func(t *testing.T) {
		dec, err := Delete(db, admin, g.ID)
		if err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
		if dec.Allowed || dec.Reason != access.DenyNotFound {
			t.Errorf("expected Deny(not_found), got %+v", dec)
		}
	})
}
