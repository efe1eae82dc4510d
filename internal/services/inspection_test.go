package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dormguard-backend/internal/clients/gemini"
	pkgerrors "github.com/yungbote/dormguard-backend/internal/pkg/errors"
	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
	"github.com/yungbote/dormguard-backend/internal/repos"
	"github.com/yungbote/dormguard-backend/internal/types"
	"github.com/yungbote/dormguard-backend/internal/utils"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*types.User
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.User) ([]*types.User, error) {
	for _, r := range rows {
		f.users[r.ID] = r
	}
	return rows, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
	var out []*types.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ListActiveByBuilding(ctx context.Context, tx *gorm.DB, building string) ([]*types.User, error) {
	var out []*types.User
	for _, u := range f.users {
		if u.IsActive && (building == "" || u.Building == building) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNumber < out[j].RoomNumber })
	return out, nil
}

func (f *fakeUserRepo) ListBuildings(ctx context.Context, tx *gorm.DB) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, u := range f.users {
		if u.Building != "" && !seen[u.Building] {
			seen[u.Building] = true
			out = append(out, u.Building)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeUserRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

type fakeInspectionRepo struct {
	rows      []*types.Inspection
	createErr error
}

func (f *fakeInspectionRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Inspection) ([]*types.Inspection, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.rows = append(f.rows, rows...)
	return rows, nil
}

func (f *fakeInspectionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Inspection, error) {
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeInspectionRepo) ListByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time) ([]*types.Inspection, error) {
	var out []*types.Inspection
	for _, r := range f.rows {
		if r.UserID == userID && r.InspectionDate.Equal(utils.DateOnly(date)) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (f *fakeInspectionRepo) ListByDate(ctx context.Context, tx *gorm.DB, date time.Time) ([]*types.Inspection, error) {
	var out []*types.Inspection
	for _, r := range f.rows {
		if r.InspectionDate.Equal(utils.DateOnly(date)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeInspectionRepo) ListByBuildingAndDate(ctx context.Context, tx *gorm.DB, building string, date time.Time) ([]*types.Inspection, error) {
	var out []*types.Inspection
	for _, r := range f.rows {
		if r.Building == building && r.InspectionDate.Equal(utils.DateOnly(date)) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (f *fakeInspectionRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Inspection, error) {
	return f.rows, nil
}

func (f *fakeInspectionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	for _, r := range f.rows {
		if r.ID != id {
			continue
		}
		if v, ok := updates["status"].(string); ok {
			r.Status = v
		}
		if v, ok := updates["admin_comment"].(string); ok {
			r.AdminComment = v
		}
	}
	return nil
}

func (f *fakeInspectionRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	var keep []*types.Inspection
	for _, r := range f.rows {
		drop := false
		for _, id := range ids {
			if r.ID == id {
				drop = true
			}
		}
		if !drop {
			keep = append(keep, r)
		}
	}
	f.rows = keep
	return nil
}

func (f *fakeInspectionRepo) CountSummary(ctx context.Context, tx *gorm.DB, date *time.Time) (*repos.InspectionSummary, error) {
	var sum repos.InspectionSummary
	for _, r := range f.rows {
		if date != nil && !r.InspectionDate.Equal(utils.DateOnly(*date)) {
			continue
		}
		sum.Total++
		if r.Status == types.InspectionStatusPass {
			sum.Passed++
		} else {
			sum.Failed++
		}
		if r.IsReInspection {
			sum.ReInspections++
		}
	}
	return &sum, nil
}

type fakeTemplateRepo struct {
	active *types.RoomTemplate
}

func (f *fakeTemplateRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.RoomTemplate) ([]*types.RoomTemplate, error) {
	return rows, nil
}

func (f *fakeTemplateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RoomTemplate, error) {
	return nil, nil
}

func (f *fakeTemplateRepo) GetActiveByBuilding(ctx context.Context, tx *gorm.DB, building string) (*types.RoomTemplate, error) {
	return f.active, nil
}

func (f *fakeTemplateRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.RoomTemplate, error) {
	return nil, nil
}

func (f *fakeTemplateRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

func (f *fakeTemplateRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	return nil
}

type fakeBuildingRepo struct {
	config *types.BuildingConfig
}

func (f *fakeBuildingRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.BuildingConfig) ([]*types.BuildingConfig, error) {
	return rows, nil
}

func (f *fakeBuildingRepo) GetByBuilding(ctx context.Context, tx *gorm.DB, building string) (*types.BuildingConfig, error) {
	return f.config, nil
}

func (f *fakeBuildingRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.BuildingConfig, error) {
	return nil, nil
}

func (f *fakeBuildingRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

func (f *fakeBuildingRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	return nil
}

type fakeSettings struct {
	decision *GateDecision
	err      error
}

func (f *fakeSettings) EnsureDefault(ctx context.Context) error { return nil }
func (f *fakeSettings) Create(ctx context.Context, row *types.InspectionSetting) (*types.InspectionSetting, error) {
	return row, nil
}
func (f *fakeSettings) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*types.InspectionSetting, error) {
	return nil, nil
}
func (f *fakeSettings) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeSettings) Get(ctx context.Context, id uuid.UUID) (*types.InspectionSetting, error) {
	return nil, nil
}
func (f *fakeSettings) List(ctx context.Context) ([]*types.InspectionSetting, error) {
	return nil, nil
}
func (f *fakeSettings) CheckSubmissionAllowed(ctx context.Context, now time.Time) (*GateDecision, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.decision != nil {
		return f.decision, nil
	}
	return &GateDecision{Allowed: true}, nil
}

type fakeExif struct {
	meta   *PhotoMeta
	result ForensicResult
}

func (f *fakeExif) Extract(data []byte) *PhotoMeta {
	if f.meta != nil {
		return f.meta
	}
	return &PhotoMeta{}
}

func (f *fakeExif) Validate(meta *PhotoMeta, now time.Time, params ForensicParams) ForensicResult {
	return f.result
}

type fakeScorer struct {
	outcome *ScoreOutcome
	err     error
	calls   int
}

func (f *fakeScorer) Score(ctx context.Context, photo gemini.ImageData, template *gemini.ImageData) (*ScoreOutcome, error) {
	f.calls++
	if f.err != nil {
		return &ScoreOutcome{}, f.err
	}
	return f.outcome, nil
}

type fakeFiles struct {
	stored map[string][]byte
}

func (f *fakeFiles) SaveInspectionPhoto(ctx context.Context, userID uuid.UUID, day time.Time, mimeType string, data []byte) (*StoredPhoto, error) {
	key := fmt.Sprintf("inspections/%s/%s", userID, day.Format("2006-01-02"))
	if f.stored == nil {
		f.stored = map[string][]byte{}
	}
	f.stored[key] = data
	return &StoredPhoto{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (f *fakeFiles) SaveTemplatePhoto(ctx context.Context, building string, mimeType string, data []byte) (*StoredPhoto, error) {
	return &StoredPhoto{Key: "templates/" + building}, nil
}

func (f *fakeFiles) FetchPhoto(ctx context.Context, key string) ([]byte, error) {
	return f.stored[key], nil
}

func (f *fakeFiles) DeletePhoto(ctx context.Context, key string) error {
	delete(f.stored, key)
	return nil
}

type pipeline struct {
	svc         InspectionService
	users       *fakeUserRepo
	inspections *fakeInspectionRepo
	scorer      *fakeScorer
	exif        *fakeExif
	settings    *fakeSettings
	templates   *fakeTemplateRepo
	resident    *types.User
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	resident := &types.User{
		ID:         uuid.New(),
		Email:      "resident@dorm.test",
		Name:       "Han Resident",
		RoomNumber: "301",
		Building:   "A",
		Role:       types.RoleStudent,
		IsActive:   true,
	}
	p := &pipeline{
		users:       &fakeUserRepo{users: map[uuid.UUID]*types.User{resident.ID: resident}},
		inspections: &fakeInspectionRepo{},
		scorer:      &fakeScorer{outcome: &ScoreOutcome{Score: 8, Feedback: "Tidy."}},
		exif:        &fakeExif{result: ForensicResult{Valid: true}},
		settings:    &fakeSettings{},
		templates:   &fakeTemplateRepo{},
		resident:    resident,
	}
	p.svc = NewInspectionService(
		nil, log,
		p.users, p.inspections, p.templates, &fakeBuildingRepo{},
		p.settings, p.exif, p.scorer, &fakeFiles{}, nil,
	)
	return p
}

func submitInput(p *pipeline) SubmitInput {
	return SubmitInput{
		UserID:   p.resident.ID,
		MimeType: "image/jpeg",
		Photo:    []byte{0xff, 0xd8, 0xff, 0x01},
		Now:      time.Date(2026, 8, 26, 21, 30, 0, 0, time.UTC),
	}
}

func TestSubmitHappyPathPasses(t *testing.T) {
	p := newPipeline(t)
	rec, err := p.svc.Submit(context.Background(), submitInput(p))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.Status != types.InspectionStatusPass {
		t.Fatalf("status = %s, want PASS", rec.Status)
	}
	if rec.Score != 8 {
		t.Fatalf("score = %d, want 8", rec.Score)
	}
	if rec.RoomNumber != "301" {
		t.Fatalf("room = %s, want profile room", rec.RoomNumber)
	}
	if rec.PhotoKey == "" {
		t.Fatalf("expected stored photo key")
	}
	if rec.IsReInspection {
		t.Fatalf("first submission must not be a re-inspection")
	}
}

func TestSubmitProfileRoomWinsOverRequest(t *testing.T) {
	p := newPipeline(t)
	in := submitInput(p)
	in.RoomNumber = "999"
	rec, err := p.svc.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.RoomNumber != "301" {
		t.Fatalf("room = %s, profile room should win", rec.RoomNumber)
	}
}

func TestSubmitBelowThresholdFails(t *testing.T) {
	p := newPipeline(t)
	p.scorer.outcome = &ScoreOutcome{Score: 5, Feedback: "Clothes everywhere."}
	rec, err := p.svc.Submit(context.Background(), submitInput(p))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.Status != types.InspectionStatusFail {
		t.Fatalf("status = %s, want FAIL at score 5", rec.Status)
	}
}

func TestSubmitDuplicatePassBlocked(t *testing.T) {
	p := newPipeline(t)
	if _, err := p.svc.Submit(context.Background(), submitInput(p)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := p.svc.Submit(context.Background(), submitInput(p))
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("expected ErrDuplicateSubmission, got %v", err)
	}
}

func TestSubmitNotSubjectPhotoFailsWithPrefixedFeedback(t *testing.T) {
	p := newPipeline(t)
	p.scorer.outcome = &ScoreOutcome{Score: 0, Feedback: "screenshot - this is not a dormitory room photo.", NotSubject: true}
	rec, err := p.svc.Submit(context.Background(), submitInput(p))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.Status != types.InspectionStatusFail || rec.Score != 0 {
		t.Fatalf("non-room photo should record FAIL score 0, got %s/%d", rec.Status, rec.Score)
	}
	if rec.Feedback != "Not a valid room photo: screenshot - this is not a dormitory room photo." {
		t.Fatalf("feedback = %q, want the not-a-room prefix", rec.Feedback)
	}
}

func TestSubmitDuplicateKeyRaceMapsToDuplicateSubmission(t *testing.T) {
	p := newPipeline(t)
	p.inspections.createErr = gorm.ErrDuplicatedKey
	_, err := p.svc.Submit(context.Background(), submitInput(p))
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("expected ErrDuplicateSubmission from a unique-index collision, got %v", err)
	}
}

func TestSubmitGateDenialPropagates(t *testing.T) {
	p := newPipeline(t)
	p.settings.err = &GateDeniedError{Reason: "outside the inspection window"}
	_, err := p.svc.Submit(context.Background(), submitInput(p))
	if !errors.Is(err, ErrGateDenied) {
		t.Fatalf("expected gate denial, got %v", err)
	}
	if len(p.inspections.rows) != 0 {
		t.Fatalf("denied submission must not persist a record")
	}
}

func TestSubmitForensicFailureSkipsOracle(t *testing.T) {
	p := newPipeline(t)
	p.settings.decision = &GateDecision{Allowed: true, Policy: &types.InspectionSetting{
		PassScore:        6,
		ExifEnabled:      true,
		TimeToleranceMin: 10,
		ExifFailPolicy:   types.ExifFailPolicyZero,
	}}
	p.exif.result = ForensicResult{Valid: false, Messages: []string{"photo captured 90 minutes from submission, allowed 10"}}

	rec, err := p.svc.Submit(context.Background(), submitInput(p))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.Status != types.InspectionStatusFail || rec.Score != 0 {
		t.Fatalf("forensic failure should record FAIL score 0, got %s/%d", rec.Status, rec.Score)
	}
	if p.scorer.calls != 0 {
		t.Fatalf("oracle must not be consulted after a forensic failure")
	}
}

func TestSubmitForensicPenaltyPolicy(t *testing.T) {
	p := newPipeline(t)
	p.settings.decision = &GateDecision{Allowed: true, Policy: &types.InspectionSetting{
		PassScore:        6,
		ExifEnabled:      true,
		TimeToleranceMin: 10,
		ExifFailPolicy:   types.ExifFailPolicyPenalty,
		ExifFailPenalty:  3,
	}}
	p.exif.result = ForensicResult{Valid: false, Messages: []string{"stale capture time"}}
	p.scorer.outcome = &ScoreOutcome{Score: 8, Feedback: "Tidy."}

	rec, err := p.svc.Submit(context.Background(), submitInput(p))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if p.scorer.calls != 1 {
		t.Fatalf("penalty policy still consults the oracle")
	}
	if rec.Score != 5 {
		t.Fatalf("score = %d, want 8-3", rec.Score)
	}
	if rec.Status != types.InspectionStatusFail {
		t.Fatalf("5 is below the threshold of 6")
	}
}

func TestResubmitRequiresFailedRecord(t *testing.T) {
	p := newPipeline(t)
	_, err := p.svc.Resubmit(context.Background(), submitInput(p))
	if !errors.Is(err, ErrNoFailedRecord) {
		t.Fatalf("expected ErrNoFailedRecord, got %v", err)
	}

	p.scorer.outcome = &ScoreOutcome{Score: 4, Feedback: "Messy."}
	if _, err := p.svc.Submit(context.Background(), submitInput(p)); err != nil {
		t.Fatalf("failed submit: %v", err)
	}

	p.scorer.outcome = &ScoreOutcome{Score: 9, Feedback: "Much better."}
	in := submitInput(p)
	in.Now = in.Now.Add(30 * time.Minute)
	rec, err := p.svc.Resubmit(context.Background(), in)
	if err != nil {
		t.Fatalf("Resubmit: %v", err)
	}
	if !rec.IsReInspection {
		t.Fatalf("expected re-inspection flag")
	}
	if rec.Status != types.InspectionStatusPass {
		t.Fatalf("status = %s, want PASS", rec.Status)
	}
}

func TestSubmitOracleFailureWithoutFallback(t *testing.T) {
	p := newPipeline(t)
	p.scorer.err = fmt.Errorf("%w: connection refused", ErrOracleFailure)
	_, err := p.svc.Submit(context.Background(), submitInput(p))
	if !errors.Is(err, ErrOracleFailure) {
		t.Fatalf("expected ErrOracleFailure, got %v", err)
	}
	if len(p.inspections.rows) != 0 {
		t.Fatalf("oracle failure without fallback must not persist")
	}
}

func TestManualPassIsIdempotent(t *testing.T) {
	p := newPipeline(t)
	p.scorer.outcome = &ScoreOutcome{Score: 3, Feedback: "Messy."}
	rec, err := p.svc.Submit(context.Background(), submitInput(p))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	first, err := p.svc.ManualPass(context.Background(), rec.ID, "checked in person")
	if err != nil {
		t.Fatalf("ManualPass: %v", err)
	}
	second, err := p.svc.ManualPass(context.Background(), rec.ID, "checked in person")
	if err != nil {
		t.Fatalf("second ManualPass: %v", err)
	}
	if first.Status != types.InspectionStatusPass || second.Status != types.InspectionStatusPass {
		t.Fatalf("manual pass must hold across repeats")
	}
	if second.AdminComment != "checked in person" {
		t.Fatalf("admin comment lost: %q", second.AdminComment)
	}
}

func TestRejectDeletesRecord(t *testing.T) {
	p := newPipeline(t)
	rec, err := p.svc.Submit(context.Background(), submitInput(p))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := p.svc.Reject(context.Background(), rec.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if _, err := p.svc.Get(context.Background(), rec.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected not found after reject, got %v", err)
	}
}

func TestStatisticsCounts(t *testing.T) {
	p := newPipeline(t)
	in := submitInput(p)

	p.scorer.outcome = &ScoreOutcome{Score: 4, Feedback: "Messy."}
	if _, err := p.svc.Submit(context.Background(), in); err != nil {
		t.Fatalf("submit: %v", err)
	}
	p.scorer.outcome = &ScoreOutcome{Score: 9, Feedback: "Fixed."}
	in2 := in
	in2.Now = in.Now.Add(time.Hour)
	if _, err := p.svc.Resubmit(context.Background(), in2); err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	day := utils.DateOnly(in.Now)
	sum, err := p.svc.Statistics(context.Background(), &day)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if sum.Total != 2 || sum.Passed != 1 || sum.Failed != 1 || sum.ReInspections != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestBuildingStatusMatrix(t *testing.T) {
	p := newPipeline(t)
	other := &types.User{
		ID: uuid.New(), Email: "neighbor@dorm.test", Name: "Neighbor",
		RoomNumber: "302", Building: "A", Role: types.RoleStudent, IsActive: true,
	}
	p.users.users[other.ID] = other

	rec, err := p.svc.Submit(context.Background(), submitInput(p))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	status, err := p.svc.BuildingStatus(context.Background(), "A", rec.InspectionDate)
	if err != nil {
		t.Fatalf("BuildingStatus: %v", err)
	}
	if len(status.Floors) != 1 || status.Floors[0].Floor != "3" {
		t.Fatalf("expected a single floor 3, got %+v", status.Floors)
	}
	byRoom := map[string]string{}
	for _, r := range status.Floors[0].Rooms {
		byRoom[r.Room] = r.Status
	}
	if byRoom["301"] != types.InspectionStatusPass {
		t.Fatalf("room 301 = %s, want PASS", byRoom["301"])
	}
	if byRoom["302"] != types.RoomStatusNotSubmitted {
		t.Fatalf("room 302 = %s, want NOT_SUBMITTED", byRoom["302"])
	}
}
