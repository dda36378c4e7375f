package database

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hospital-management-backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "schema.db")
	db, err := Open(sqlite.Open(path+"?_foreign_keys=on"), logger.Discard)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestMigrate_CreatesTables(t *testing.T) {
	db := openTestDB(t)

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// Running twice must be harmless.
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	for _, table := range []string{"hospitals", "users", "audit_logs"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("table %s should exist", table)
		}
	}
}

func TestOpen_TranslatesUniqueViolations(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	first := &models.Hospital{ExternalID: "h1", Name: "One", Email: "one@example.com"}
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("creating first hospital: %v", err)
	}

	dup := &models.Hospital{ExternalID: "H1", Name: "Dup", Email: "dup@example.com"}
	err := db.Create(dup).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("Create() error = %v, want gorm.ErrDuplicatedKey", err)
	}
}

type foreignKey struct {
	Table string `gorm:"column:table"`
	From  string `gorm:"column:from"`
	To    string `gorm:"column:to"`
}

func foreignKeys(t *testing.T, db *gorm.DB, table string) []foreignKey {
	t.Helper()
	var fks []foreignKey
	if err := db.Raw("SELECT \"table\", \"from\", \"to\" FROM pragma_foreign_key_list(?)", table).Scan(&fks).Error; err != nil {
		t.Fatalf("listing foreign keys of %s: %v", table, err)
	}
	return fks
}

func TestMigrate_SchemaShape(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if fks := foreignKeys(t, db, "hospitals"); len(fks) != 0 {
		t.Errorf("hospitals should not reference other tables, got %+v", fks)
	}

	tests := []struct {
		table string
		want  foreignKey
	}{
		{"users", foreignKey{Table: "hospitals", From: "hospital_id", To: "id"}},
		{"audit_logs", foreignKey{Table: "users", From: "user_id", To: "id"}},
	}
	for _, tt := range tests {
		found := false
		for _, fk := range foreignKeys(t, db, tt.table) {
			if fk == tt.want {
				found = true
			}
		}
		if !found {
			t.Errorf("%s is missing foreign key %+v", tt.table, tt.want)
		}
	}

	columns, err := db.Migrator().ColumnTypes(&models.Hospital{})
	if err != nil {
		t.Fatalf("ColumnTypes() error = %v", err)
	}
	var sawExternalID bool
	for _, c := range columns {
		if c.Name() != "hospital_id" {
			continue
		}
		sawExternalID = true
		if typ := strings.ToLower(c.DatabaseTypeName()); strings.Contains(typ, "int") {
			t.Errorf("hospitals.hospital_id type = %q, want a text type", typ)
		}
	}
	if !sawExternalID {
		t.Error("hospitals.hospital_id column should exist")
	}
}

func TestMigrate_UserNeedsExistingHospital(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	orphan := &models.User{HospitalID: 42, Username: "ghost", PasswordHash: "x", Role: models.RoleStaff}
	if err := db.Create(orphan).Error; err == nil {
		t.Error("creating a user of an unknown hospital should fail")
	}

	h := &models.Hospital{ExternalID: "h1", Name: "One", Email: "one@example.com"}
	if err := db.Create(h).Error; err != nil {
		t.Fatalf("creating hospital: %v", err)
	}
	u := &models.User{HospitalID: h.ID, Username: "admin", PasswordHash: "x", Role: models.RoleAdmin}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("creating user of an existing hospital: %v", err)
	}
}
