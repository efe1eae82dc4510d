package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dormguard-backend/internal/repos/testutil"
	"github.com/yungbote/dormguard-backend/internal/types"
	"github.com/yungbote/dormguard-backend/internal/utils"
)

func seedUser(t *testing.T, tx *gorm.DB, building, room string) *types.User {
	t.Helper()
	u := &types.User{
		ID:         uuid.New(),
		Email:      uuid.New().String() + "@dorm.test",
		Password:   "x",
		Name:       "Resident " + room,
		RoomNumber: room,
		Building:   building,
		Role:       types.RoleStudent,
		IsActive:   true,
	}
	if err := tx.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedInspection(t *testing.T, tx *gorm.DB, repo InspectionRepo, u *types.User, status string, reinspect bool, at time.Time) *types.Inspection {
	t.Helper()
	row := &types.Inspection{
		ID:             uuid.New(),
		UserID:         u.ID,
		RoomNumber:     u.RoomNumber,
		Building:       u.Building,
		Score:          7,
		Status:         status,
		IsReInspection: reinspect,
		InspectionDate: utils.DateOnly(at),
		SubmittedAt:    at,
	}
	rows, err := repo.Create(context.Background(), tx, []*types.Inspection{row})
	if err != nil {
		t.Fatalf("create inspection: %v", err)
	}
	return rows[0]
}

func TestInspectionRepoListByUserAndDate(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewInspectionRepo(db, testutil.Logger(t))
	ctx := context.Background()

	u := seedUser(t, tx, "A", "301")
	now := time.Now()
	first := seedInspection(t, tx, repo, u, types.InspectionStatusFail, false, now.Add(-2*time.Hour))
	second := seedInspection(t, tx, repo, u, types.InspectionStatusFail, true, now.Add(-1*time.Hour))
	seedInspection(t, tx, repo, u, types.InspectionStatusPass, false, now.AddDate(0, 0, -1))

	rows, err := repo.ListByUserAndDate(ctx, tx, u.ID, now)
	if err != nil {
		t.Fatalf("ListByUserAndDate: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 same-day rows, got %d", len(rows))
	}
	if rows[0].ID != second.ID {
		t.Fatalf("expected newest first, got %s", rows[0].ID)
	}
	if rows[1].ID != first.ID {
		t.Fatalf("expected oldest last, got %s", rows[1].ID)
	}
}

func TestInspectionRepoCountSummary(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewInspectionRepo(db, testutil.Logger(t))
	ctx := context.Background()

	u1 := seedUser(t, tx, "A", "302")
	u2 := seedUser(t, tx, "A", "303")
	now := time.Now()
	seedInspection(t, tx, repo, u1, types.InspectionStatusFail, false, now)
	seedInspection(t, tx, repo, u1, types.InspectionStatusPass, true, now)
	seedInspection(t, tx, repo, u2, types.InspectionStatusPass, false, now)

	day := utils.DateOnly(now)
	sum, err := repo.CountSummary(ctx, tx, &day)
	if err != nil {
		t.Fatalf("CountSummary: %v", err)
	}
	if sum.Total != 3 {
		t.Fatalf("total = %d, want 3", sum.Total)
	}
	if sum.Passed != 2 {
		t.Fatalf("passed = %d, want 2", sum.Passed)
	}
	if sum.Failed != 1 {
		t.Fatalf("failed = %d, want 1", sum.Failed)
	}
	if sum.ReInspections != 1 {
		t.Fatalf("re_inspections = %d, want 1", sum.ReInspections)
	}
}

func TestInspectionRepoUpdateFields(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewInspectionRepo(db, testutil.Logger(t))
	ctx := context.Background()

	u := seedUser(t, tx, "B", "512")
	row := seedInspection(t, tx, repo, u, types.InspectionStatusFail, false, time.Now())

	if err := repo.UpdateFields(ctx, tx, row.ID, map[string]interface{}{
		"status":        types.InspectionStatusPass,
		"admin_comment": "verified in person",
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, row.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.InspectionStatusPass {
		t.Fatalf("status = %s, want PASS", got.Status)
	}
	if got.AdminComment != "verified in person" {
		t.Fatalf("admin_comment = %q", got.AdminComment)
	}
}

func TestInspectionRepoFullDelete(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewInspectionRepo(db, testutil.Logger(t))
	ctx := context.Background()

	u := seedUser(t, tx, "B", "513")
	row := seedInspection(t, tx, repo, u, types.InspectionStatusFail, false, time.Now())

	if err := repo.FullDeleteByIDs(ctx, tx, []uuid.UUID{row.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	got, err := repo.GetByID(ctx, tx, row.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("expected record gone, got %+v", got)
	}
}
