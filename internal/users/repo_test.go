package users

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/roomscout/roomscout-backend/pkg/db/models"
	"github.com/roomscout/roomscout-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate users: %v", err)
	}
	return conn
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:       "owner@example.com",
		DisplayName: "Owner",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.Role != enums.UserRoleMember {
		t.Fatalf("expected default role member, got %s", created.Role)
	}

	byEmail, err := repo.FindByEmail(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("id mismatch: %s vs %s", byEmail.ID, created.ID)
	}

	byID, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Email != "owner@example.com" {
		t.Fatalf("unexpected email %s", byID.Email)
	}
}

func TestRepositoryIncrementSubmissionCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{
		Email:       "owner@example.com",
		DisplayName: "Owner",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementSubmissionCount(ctx, user.ID); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	updated, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if updated.SubmissionCount != 3 {
		t.Fatalf("expected submission_count 3, got %d", updated.SubmissionCount)
	}
}
