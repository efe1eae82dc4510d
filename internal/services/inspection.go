package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/dormguard-backend/internal/clients/gemini"
	rediscache "github.com/yungbote/dormguard-backend/internal/clients/redis"
	pkgerrors "github.com/yungbote/dormguard-backend/internal/pkg/errors"
	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
	"github.com/yungbote/dormguard-backend/internal/repos"
	"github.com/yungbote/dormguard-backend/internal/types"
	"github.com/yungbote/dormguard-backend/internal/utils"
)

const buildingStatusTTL = 30 * time.Second

// SubmitInput is one photo submission.
type SubmitInput struct {
	UserID     uuid.UUID
	RoomNumber string
	MimeType   string
	Photo      []byte
	// Now overrides the submission instant; zero means time.Now().
	Now time.Time
}

// AdminRecord is an inspection joined with the resident's name for the
// admin listings.
type AdminRecord struct {
	types.Inspection
	UserName string `json:"user_name"`
}

type RoomStatus struct {
	Room     string `json:"room"`
	Status   string `json:"status"`
	UserName string `json:"user_name,omitempty"`
	Score    *int   `json:"score,omitempty"`
}

type FloorStatus struct {
	Floor string       `json:"floor"`
	Rooms []RoomStatus `json:"rooms"`
}

type BuildingStatus struct {
	Building string        `json:"building"`
	Date     string        `json:"date"`
	Floors   []FloorStatus `json:"floors"`
}

type InspectionService interface {
	Submit(ctx context.Context, input SubmitInput) (*types.Inspection, error)
	Resubmit(ctx context.Context, input SubmitInput) (*types.Inspection, error)

	Get(ctx context.Context, id uuid.UUID) (*types.Inspection, error)
	GetToday(ctx context.Context, userID uuid.UUID) ([]*types.Inspection, error)
	ListByDate(ctx context.Context, date time.Time) ([]*AdminRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*AdminRecord, error)

	ManualPass(ctx context.Context, id uuid.UUID, comment string) (*types.Inspection, error)
	ManualFail(ctx context.Context, id uuid.UUID, comment string) (*types.Inspection, error)
	SetAdminComment(ctx context.Context, id uuid.UUID, comment string) (*types.Inspection, error)
	Reject(ctx context.Context, id uuid.UUID) error

	Statistics(ctx context.Context, date *time.Time) (*repos.InspectionSummary, error)
	BuildingStatus(ctx context.Context, building string, date time.Time) (*BuildingStatus, error)
	ListBuildings(ctx context.Context) ([]string, error)
}

type inspectionService struct {
	db             *gorm.DB
	log            *logger.Logger
	userRepo       repos.UserRepo
	inspectionRepo repos.InspectionRepo
	templateRepo   repos.RoomTemplateRepo
	buildingRepo   repos.BuildingConfigRepo
	settings       SettingsService
	exif           ExifService
	scorer         ScorerService
	files          FileService
	cache          rediscache.Cache
}

func NewInspectionService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	inspectionRepo repos.InspectionRepo,
	templateRepo repos.RoomTemplateRepo,
	buildingRepo repos.BuildingConfigRepo,
	settings SettingsService,
	exifService ExifService,
	scorer ScorerService,
	files FileService,
	cache rediscache.Cache,
) InspectionService {
	return &inspectionService{
		db:             db,
		log:            log.With("service", "InspectionService"),
		userRepo:       userRepo,
		inspectionRepo: inspectionRepo,
		templateRepo:   templateRepo,
		buildingRepo:   buildingRepo,
		settings:       settings,
		exif:           exifService,
		scorer:         scorer,
		files:          files,
		cache:          cache,
	}
}

func (s *inspectionService) Submit(ctx context.Context, input SubmitInput) (*types.Inspection, error) {
	return s.submit(ctx, input, false)
}

func (s *inspectionService) Resubmit(ctx context.Context, input SubmitInput) (*types.Inspection, error) {
	return s.submit(ctx, input, true)
}

// fallbackPolicy supplies the pipeline knobs when the gate failed open and
// no policy picked the window.
func fallbackPolicy() *types.InspectionSetting {
	return &types.InspectionSetting{
		PassScore:        6,
		ExifEnabled:      true,
		TimeToleranceMin: 10,
		ExifFailPolicy:   types.ExifFailPolicyZero,
		ExifFailPenalty:  3,
		GPSRadiusM:       100,
	}
}

func (s *inspectionService) submit(ctx context.Context, input SubmitInput, reinspect bool) (*types.Inspection, error) {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	if len(input.Photo) == 0 {
		return nil, fmt.Errorf("%w: photo required", pkgerrors.ErrInvalidArgument)
	}

	user, err := s.userRepo.GetByID(ctx, nil, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", pkgerrors.ErrNotFound, input.UserID)
	}

	// The profile room wins over whatever the client sent.
	room := strings.TrimSpace(user.RoomNumber)
	if room == "" {
		room = strings.TrimSpace(input.RoomNumber)
	}
	if room == "" {
		return nil, fmt.Errorf("%w: no room number on file or in request", pkgerrors.ErrInvalidArgument)
	}

	decision, err := s.settings.CheckSubmissionAllowed(ctx, now)
	if err != nil {
		return nil, err
	}
	policy := decision.Policy
	if policy == nil {
		policy = fallbackPolicy()
	}

	today, err := s.inspectionRepo.ListByUserAndDate(ctx, nil, user.ID, now)
	if err != nil {
		return nil, err
	}
	for _, rec := range today {
		if rec.Status == types.InspectionStatusPass {
			return nil, fmt.Errorf("%w: passed at %s", ErrDuplicateSubmission, rec.SubmittedAt.Format("15:04"))
		}
	}
	if reinspect {
		if len(today) == 0 || today[0].Status != types.InspectionStatusFail {
			return nil, ErrNoFailedRecord
		}
	}

	var (
		forensicMsg string
		penalty     int
	)
	if policy.ExifEnabled {
		meta := s.exif.Extract(input.Photo)
		result := s.exif.Validate(meta, now, ForensicParams{
			TimeToleranceMin: policy.TimeToleranceMin,
			GPSEnabled:       policy.GPSEnabled,
			Latitude:         policy.GPSLatitude,
			Longitude:        policy.GPSLongitude,
			RadiusM:          policy.GPSRadiusM,
		})
		if !result.Valid {
			forensicMsg = result.Message()
			if policy.ExifFailPolicy != types.ExifFailPolicyPenalty {
				// Hard forensic failure: record the FAIL without ever
				// consulting the oracle.
				rec, err := s.persist(ctx, user, room, now, reinspect, nil, 0, types.InspectionStatusFail,
					"Photo verification failed: "+forensicMsg, false)
				if err != nil {
					return nil, err
				}
				return rec, nil
			}
			penalty = policy.ExifFailPenalty
		}
	}

	stored, err := s.files.SaveInspectionPhoto(ctx, user.ID, now, input.MimeType, input.Photo)
	if err != nil {
		s.log.Warn("Photo upload failed, keeping record without blob", "error", err)
		stored = &StoredPhoto{}
	}

	var template *gemini.ImageData
	if tmpl, err := s.templateRepo.GetActiveByBuilding(ctx, nil, user.Building); err == nil && tmpl != nil {
		if raw, err := s.files.FetchPhoto(ctx, tmpl.PhotoKey); err == nil && len(raw) > 0 {
			template = &gemini.ImageData{MimeType: tmpl.MimeType, Data: raw}
		} else if err != nil {
			s.log.Warn("Could not fetch room template, scoring without comparison", "error", err)
		}
	}

	outcome, err := s.scorer.Score(ctx, gemini.ImageData{MimeType: input.MimeType, Data: input.Photo}, template)
	if err != nil {
		return nil, err
	}

	score := outcome.Score
	feedback := outcome.Feedback
	if outcome.NotSubject {
		feedback = "Not a valid room photo: " + feedback
	}
	if penalty > 0 {
		score -= penalty
		if score < 0 {
			score = 0
		}
		feedback = fmt.Sprintf("%s | Photo verification: %s (-%d)", feedback, forensicMsg, penalty)
	}
	status := types.InspectionStatusFail
	if score >= policy.PassScore {
		status = types.InspectionStatusPass
	}

	return s.persist(ctx, user, room, now, reinspect, stored, score, status, feedback, outcome.Fallback)
}

func (s *inspectionService) persist(
	ctx context.Context,
	user *types.User,
	room string,
	now time.Time,
	reinspect bool,
	stored *StoredPhoto,
	score int,
	status string,
	feedback string,
	fallbackScored bool,
) (*types.Inspection, error) {
	rec := &types.Inspection{
		ID:             uuid.New(),
		UserID:         user.ID,
		RoomNumber:     room,
		Building:       user.Building,
		Score:          score,
		Status:         status,
		Feedback:       feedback,
		IsReInspection: reinspect,
		FallbackScored: fallbackScored,
		InspectionDate: utils.DateOnly(now),
		SubmittedAt:    now,
	}
	if stored != nil {
		rec.PhotoKey = stored.Key
		rec.PhotoURL = stored.URL
	}
	if _, err := s.inspectionRepo.Create(ctx, nil, []*types.Inspection{rec}); err != nil {
		// The partial unique index closes the race two concurrent passing
		// submissions would otherwise win together.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateSubmission
		}
		return nil, err
	}
	s.invalidateBuilding(ctx, user.Building, now)
	return rec, nil
}

func (s *inspectionService) Get(ctx context.Context, id uuid.UUID) (*types.Inspection, error) {
	rec, err := s.inspectionRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: inspection %s", pkgerrors.ErrNotFound, id)
	}
	return rec, nil
}

func (s *inspectionService) GetToday(ctx context.Context, userID uuid.UUID) ([]*types.Inspection, error) {
	return s.inspectionRepo.ListByUserAndDate(ctx, nil, userID, time.Now())
}

func (s *inspectionService) ListByDate(ctx context.Context, date time.Time) ([]*AdminRecord, error) {
	rows, err := s.inspectionRepo.ListByDate(ctx, nil, date)
	if err != nil {
		return nil, err
	}
	return s.joinNames(ctx, rows)
}

func (s *inspectionService) ListRecent(ctx context.Context, limit int) ([]*AdminRecord, error) {
	rows, err := s.inspectionRepo.ListRecent(ctx, nil, limit)
	if err != nil {
		return nil, err
	}
	return s.joinNames(ctx, rows)
}

func (s *inspectionService) joinNames(ctx context.Context, rows []*types.Inspection) ([]*AdminRecord, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	seen := map[uuid.UUID]bool{}
	for _, r := range rows {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			ids = append(ids, r.UserID)
		}
	}
	users, err := s.userRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	out := make([]*AdminRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, &AdminRecord{Inspection: *r, UserName: names[r.UserID]})
	}
	return out, nil
}

func (s *inspectionService) override(ctx context.Context, id uuid.UUID, status, comment string) (*types.Inspection, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.inspectionRepo.UpdateFields(ctx, nil, id, map[string]interface{}{
		"status":        status,
		"admin_comment": comment,
	}); err != nil {
		return nil, err
	}
	s.invalidateBuilding(ctx, rec.Building, rec.InspectionDate)
	return s.Get(ctx, id)
}

func (s *inspectionService) ManualPass(ctx context.Context, id uuid.UUID, comment string) (*types.Inspection, error) {
	return s.override(ctx, id, types.InspectionStatusPass, comment)
}

func (s *inspectionService) ManualFail(ctx context.Context, id uuid.UUID, comment string) (*types.Inspection, error) {
	return s.override(ctx, id, types.InspectionStatusFail, comment)
}

func (s *inspectionService) SetAdminComment(ctx context.Context, id uuid.UUID, comment string) (*types.Inspection, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.inspectionRepo.UpdateFields(ctx, nil, id, map[string]interface{}{
		"admin_comment": comment,
	}); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *inspectionService) Reject(ctx context.Context, id uuid.UUID) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec.PhotoKey != "" {
		if err := s.files.DeletePhoto(ctx, rec.PhotoKey); err != nil {
			s.log.Warn("Could not delete rejected photo blob", "key", rec.PhotoKey, "error", err)
		}
	}
	if err := s.inspectionRepo.FullDeleteByIDs(ctx, nil, []uuid.UUID{id}); err != nil {
		return err
	}
	s.invalidateBuilding(ctx, rec.Building, rec.InspectionDate)
	return nil
}

func (s *inspectionService) Statistics(ctx context.Context, date *time.Time) (*repos.InspectionSummary, error) {
	return s.inspectionRepo.CountSummary(ctx, nil, date)
}

func (s *inspectionService) ListBuildings(ctx context.Context) ([]string, error) {
	fromUsers, err := s.userRepo.ListBuildings(ctx, nil)
	if err != nil {
		return nil, err
	}
	configs, err := s.buildingRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(fromUsers)+len(configs))
	for _, b := range fromUsers {
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	for _, c := range configs {
		if !seen[c.Building] {
			seen[c.Building] = true
			out = append(out, c.Building)
		}
	}
	sort.Strings(out)
	return out, nil
}

func buildingStatusKey(building string, date time.Time) string {
	return fmt.Sprintf("building_status:%s:%s", building, utils.DateOnly(date).Format("2006-01-02"))
}

func (s *inspectionService) invalidateBuilding(ctx context.Context, building string, date time.Time) {
	if s.cache == nil || building == "" {
		return
	}
	if err := s.cache.Delete(ctx, buildingStatusKey(building, date)); err != nil {
		s.log.Warn("Could not invalidate building status cache", "building", building, "error", err)
	}
}

func (s *inspectionService) BuildingStatus(ctx context.Context, building string, date time.Time) (*BuildingStatus, error) {
	if building == "" {
		return nil, fmt.Errorf("%w: building required", pkgerrors.ErrInvalidArgument)
	}

	key := buildingStatusKey(building, date)
	if s.cache != nil {
		var cached BuildingStatus
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	var (
		users   []*types.User
		records []*types.Inspection
		config  *types.BuildingConfig
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.userRepo.ListActiveByBuilding(gctx, nil, building)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.inspectionRepo.ListByBuildingAndDate(gctx, nil, building, date)
		return err
	})
	g.Go(func() error {
		var err error
		config, err = s.buildingRepo.GetByBuilding(gctx, nil, building)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Newest record per room decides; records arrive newest first.
	statusByRoom := map[string]*types.Inspection{}
	for _, r := range records {
		if _, ok := statusByRoom[r.RoomNumber]; !ok {
			statusByRoom[r.RoomNumber] = r
		}
	}
	nameByRoom := map[string]string{}
	for _, u := range users {
		if u.RoomNumber != "" && nameByRoom[u.RoomNumber] == "" {
			nameByRoom[u.RoomNumber] = u.Name
		}
	}

	layout := layoutFromConfig(config)
	if len(layout) == 0 {
		layout = layoutFromRoster(users)
	}

	floors := make([]string, 0, len(layout))
	for f := range layout {
		floors = append(floors, f)
	}
	sort.Strings(floors)

	out := &BuildingStatus{
		Building: building,
		Date:     utils.DateOnly(date).Format("2006-01-02"),
	}
	for _, f := range floors {
		fs := FloorStatus{Floor: f}
		for _, room := range layout[f] {
			rs := RoomStatus{Room: room, Status: types.RoomStatusNotSubmitted, UserName: nameByRoom[room]}
			if rec, ok := statusByRoom[room]; ok {
				rs.Status = rec.Status
				score := rec.Score
				rs.Score = &score
			}
			fs.Rooms = append(fs.Rooms, rs)
		}
		out.Floors = append(out.Floors, fs)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, out, buildingStatusTTL); err != nil {
			s.log.Warn("Could not cache building status", "building", building, "error", err)
		}
	}
	return out, nil
}

func layoutFromConfig(config *types.BuildingConfig) map[string][]string {
	if config == nil || len(config.Layout) == 0 {
		return nil
	}
	var layout map[string][]string
	if err := json.Unmarshal(config.Layout, &layout); err != nil {
		return nil
	}
	return layout
}

// layoutFromRoster derives floors from room numbers: the leading digit of a
// room number is its floor.
func layoutFromRoster(users []*types.User) map[string][]string {
	layout := map[string][]string{}
	seen := map[string]bool{}
	for _, u := range users {
		room := strings.TrimSpace(u.RoomNumber)
		if room == "" || seen[room] {
			continue
		}
		seen[room] = true
		floor := string(room[0])
		layout[floor] = append(layout[floor], room)
	}
	for f := range layout {
		sort.Strings(layout[f])
	}
	return layout
}
