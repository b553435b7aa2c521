package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/mchavez27/melipanel/internal/models"
	"github.com/mchavez27/melipanel/internal/transfer"
	"github.com/stretchr/testify/require"
)

type fakeMeliService struct {
	item       *transfer.MeliItem
	getErr     error
	createErr  error
	descErr    error
	created    []*transfer.ItemCreation
	descCalls  int
	nextListID string
}

func (f *fakeMeliService) GetItem(ctx context.Context, itemID, token string) (*transfer.MeliItem, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.item, nil
}

func (f *fakeMeliService) GetItemDescription(ctx context.Context, itemID, token string) (string, error) {
	return "", nil
}

func (f *fakeMeliService) CreateItem(ctx context.Context, payload *transfer.ItemCreation, token string) (*transfer.MeliPublishResponse, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, payload)
	return &transfer.MeliPublishResponse{ID: f.nextListID, Title: payload.Title}, nil
}

func (f *fakeMeliService) SetDescription(ctx context.Context, itemID, text, token string) error {
	f.descCalls++
	return f.descErr
}

func (f *fakeMeliService) SearchSellerItems(ctx context.Context, token string, offset, limit int) (*transfer.MeliSearchResponse, error) {
	return &transfer.MeliSearchResponse{}, nil
}

func (f *fakeMeliService) UploadPicture(ctx context.Context, file []byte, filename, token string) (*transfer.MeliPictureUpload, error) {
	return &transfer.MeliPictureUpload{}, nil
}

type fakeVariationService struct {
	variation transfer.Variation
	seen      []transfer.Variation
}

func (f *fakeVariationService) GenerateVariations(ctx context.Context, original transfer.Variation, varyDescription bool, category string) transfer.Variation {
	f.seen = append(f.seen, original)
	v := f.variation
	if !varyDescription {
		v.Description = ""
	}
	return v
}

type fakeScheduleRepo struct {
	advanced    []int64
	deactivated []int64
	advanceErr  error
}

func (f *fakeScheduleRepo) Create(ctx context.Context, s *models.Schedule) (int64, error) {
	return 1, nil
}

func (f *fakeScheduleRepo) GetByID(ctx context.Context, id int64) (*models.Schedule, error) {
	return nil, nil
}

func (f *fakeScheduleRepo) ListByUserID(ctx context.Context, userID int64, isActive *bool) ([]*models.Schedule, error) {
	return nil, nil
}

func (f *fakeScheduleRepo) ListDue(ctx context.Context, now time.Time) ([]*models.Schedule, error) {
	return nil, nil
}

func (f *fakeScheduleRepo) Update(ctx context.Context, s *models.Schedule) error {
	return nil
}

func (f *fakeScheduleRepo) Advance(ctx context.Context, id int64, frequency models.Frequency) error {
	if f.advanceErr != nil {
		return f.advanceErr
	}
	f.advanced = append(f.advanced, id)
	return nil
}

func (f *fakeScheduleRepo) Deactivate(ctx context.Context, id int64) error {
	f.deactivated = append(f.deactivated, id)
	return nil
}

func (f *fakeScheduleRepo) Remove(ctx context.Context, id int64) error {
	return nil
}

type fakeHistoryRepo struct {
	entries   []*models.PublicationHistory
	createErr error
	count     int64
	countErr  error
}

func (f *fakeHistoryRepo) Create(ctx context.Context, h *models.PublicationHistory) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.entries = append(f.entries, h)
	return int64(len(f.entries)), nil
}

func (f *fakeHistoryRepo) ListByScheduleID(ctx context.Context, scheduleID int64, limit, offset int) ([]*models.PublicationHistory, error) {
	return f.entries, nil
}

func (f *fakeHistoryRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.PublicationHistory, error) {
	return f.entries, nil
}

func (f *fakeHistoryRepo) CountByScheduleID(ctx context.Context, scheduleID int64) (int64, error) {
	return f.count, f.countErr
}

func newTestScheduler(meli *fakeMeliService, variations *fakeVariationService, sr *fakeScheduleRepo, hr *fakeHistoryRepo) *schedulerService {
	return &schedulerService{
		meli:       meli,
		variations: variations,
		schedules:  sr,
		history:    hr,
		// No pacing in tests.
		pacing: 0,
	}
}

func testSchedule(id int64) *models.Schedule {
	return &models.Schedule{
		ID:                  id,
		UserID:              7,
		ItemID:              "MLM123",
		OriginalTitle:       "Audífonos Bluetooth",
		OriginalDescription: "Descripción original",
		Frequency:           models.Frequency{Interval: 2, Unit: models.FrequencyUnitHours},
		VariateDescription:  true,
		IsActive:            true,
	}
}

func TestPublishScheduledItemSuccess(t *testing.T) {
	meli := &fakeMeliService{
		item:       &transfer.MeliItem{ID: "MLM123", Title: "Audífonos Bluetooth", CategoryID: "MLM1055"},
		nextListID: "MLM999",
	}
	variations := &fakeVariationService{variation: transfer.Variation{
		Title:       "Audífonos Premium",
		Description: "Nueva descripción",
	}}
	sr := &fakeScheduleRepo{}
	hr := &fakeHistoryRepo{}
	s := newTestScheduler(meli, variations, sr, hr)

	result := s.PublishScheduledItem(context.Background(), testSchedule(1), "token")

	require.True(t, result.Success)
	require.Equal(t, "MLM999", result.NewListingID)

	// Variation starts from the snapshot, not the live listing.
	require.Len(t, variations.seen, 1)
	require.Equal(t, "Audífonos Bluetooth", variations.seen[0].Title)
	require.Equal(t, "Descripción original", variations.seen[0].Description)

	require.Len(t, meli.created, 1)
	require.Equal(t, "Audífonos Premium", meli.created[0].Title)
	require.Equal(t, 1, meli.descCalls)

	require.Len(t, hr.entries, 1)
	entry := hr.entries[0]
	require.Equal(t, models.HistoryStatusSuccess, entry.Status)
	require.Equal(t, int64(1), entry.ScheduleID)
	require.Equal(t, "MLM999", entry.NewListingID)
	require.True(t, entry.PublishedAt.Valid)

	// Success advances the schedule inline.
	require.Equal(t, []int64{1}, sr.advanced)
}

func TestPublishScheduledItemFetchFailure(t *testing.T) {
	meli := &fakeMeliService{getErr: errors.New("item not found")}
	sr := &fakeScheduleRepo{}
	hr := &fakeHistoryRepo{}
	s := newTestScheduler(meli, &fakeVariationService{}, sr, hr)

	result := s.PublishScheduledItem(context.Background(), testSchedule(1), "token")

	require.False(t, result.Success)
	require.Equal(t, "item not found", result.Error)

	require.Len(t, hr.entries, 1)
	require.Equal(t, models.HistoryStatusFailed, hr.entries[0].Status)
	require.Equal(t, "item not found", hr.entries[0].ErrorMessage)

	// The single-item path leaves advancing to its caller on failure.
	require.Empty(t, sr.advanced)
}

func TestPublishScheduledItemCreateFailureKeepsVariationInHistory(t *testing.T) {
	meli := &fakeMeliService{
		item:      &transfer.MeliItem{ID: "MLM123", Title: "Audífonos"},
		createErr: errors.New("create item rejected with 400: invalid attributes"),
	}
	variations := &fakeVariationService{variation: transfer.Variation{Title: "Audífonos Premium"}}
	hr := &fakeHistoryRepo{}
	s := newTestScheduler(meli, variations, &fakeScheduleRepo{}, hr)

	result := s.PublishScheduledItem(context.Background(), testSchedule(1), "token")

	require.False(t, result.Success)
	require.Len(t, hr.entries, 1)
	require.Equal(t, "Audífonos Premium", hr.entries[0].PublishedTitle)
	require.Equal(t, "create item rejected with 400: invalid attributes", hr.entries[0].ErrorMessage)
}

func TestPublishScheduledItemDescriptionFailureStillSucceeds(t *testing.T) {
	meli := &fakeMeliService{
		item:       &transfer.MeliItem{ID: "MLM123", Title: "Audífonos"},
		nextListID: "MLM999",
		descErr:    errors.New("description service unavailable"),
	}
	variations := &fakeVariationService{variation: transfer.Variation{
		Title:       "Audífonos Premium",
		Description: "Nueva descripción",
	}}
	hr := &fakeHistoryRepo{}
	s := newTestScheduler(meli, variations, &fakeScheduleRepo{}, hr)

	result := s.PublishScheduledItem(context.Background(), testSchedule(1), "token")

	require.True(t, result.Success)
	require.Len(t, hr.entries, 1)
	require.Equal(t, models.HistoryStatusSuccess, hr.entries[0].Status)
}

func TestPublishScheduledItemHistoryFailureDoesNotMaskOutcome(t *testing.T) {
	meli := &fakeMeliService{
		item:       &transfer.MeliItem{ID: "MLM123", Title: "Audífonos"},
		nextListID: "MLM999",
	}
	hr := &fakeHistoryRepo{createErr: errors.New("history table unavailable")}
	s := newTestScheduler(meli, &fakeVariationService{variation: transfer.Variation{Title: "T"}}, &fakeScheduleRepo{}, hr)

	result := s.PublishScheduledItem(context.Background(), testSchedule(1), "token")
	require.True(t, result.Success)
}

func TestProcessScheduledPublicationsTally(t *testing.T) {
	meli := &fakeMeliService{
		item:       &transfer.MeliItem{ID: "MLM123", Title: "Audífonos"},
		nextListID: "MLM999",
	}
	sr := &fakeScheduleRepo{}
	hr := &fakeHistoryRepo{}
	s := newTestScheduler(meli, &fakeVariationService{variation: transfer.Variation{Title: "T"}}, sr, hr)

	good := testSchedule(1)
	alreadyDone := testSchedule(2)
	alreadyDone.LastPublishedAt = sql.NullTime{Time: time.Now().Add(-30 * time.Minute), Valid: true}
	alsoGood := testSchedule(3)

	result := s.ProcessScheduledPublications(context.Background(), []*models.Schedule{good, alreadyDone, alsoGood}, "token")

	require.Equal(t, 3, result.Processed)
	require.Equal(t, 2, result.Successful)
	require.Equal(t, 0, result.Failed)
	require.Equal(t, []int64{1, 3}, sr.advanced)
	require.Len(t, meli.created, 2)
}

func TestProcessScheduledPublicationsAdvancesFailures(t *testing.T) {
	meli := &fakeMeliService{getErr: errors.New("marketplace down")}
	sr := &fakeScheduleRepo{}
	hr := &fakeHistoryRepo{}
	s := newTestScheduler(meli, &fakeVariationService{}, sr, hr)

	result := s.ProcessScheduledPublications(context.Background(), []*models.Schedule{testSchedule(1), testSchedule(2)}, "token")

	require.Equal(t, 2, result.Processed)
	require.Equal(t, 0, result.Successful)
	require.Equal(t, 2, result.Failed)
	// Failed schedules still move forward so they are not retried every tick.
	require.Equal(t, []int64{1, 2}, sr.advanced)
}

func TestProcessScheduledPublicationsIsolatesFailures(t *testing.T) {
	meli := &fakeMeliService{
		item:       &transfer.MeliItem{ID: "MLM123", Title: "Audífonos"},
		nextListID: "MLM999",
		createErr:  errors.New("rejected"),
	}
	sr := &fakeScheduleRepo{}
	hr := &fakeHistoryRepo{}
	s := newTestScheduler(meli, &fakeVariationService{variation: transfer.Variation{Title: "T"}}, sr, hr)

	first := testSchedule(1)
	second := testSchedule(2)

	result := s.ProcessScheduledPublications(context.Background(), []*models.Schedule{first, second}, "token")

	// Both schedules were attempted despite the first failing.
	require.Equal(t, 2, result.Failed)
	require.Len(t, hr.entries, 2)
}

func TestProcessScheduledPublicationsDeactivatesAtLimit(t *testing.T) {
	meli := &fakeMeliService{
		item:       &transfer.MeliItem{ID: "MLM123", Title: "Audífonos"},
		nextListID: "MLM999",
	}
	sr := &fakeScheduleRepo{}
	hr := &fakeHistoryRepo{count: 5}
	s := newTestScheduler(meli, &fakeVariationService{variation: transfer.Variation{Title: "T"}}, sr, hr)

	capped := testSchedule(1)
	capped.MaxPublications = sql.NullInt64{Int64: 5, Valid: true}

	result := s.ProcessScheduledPublications(context.Background(), []*models.Schedule{capped}, "token")

	require.Equal(t, 0, result.Successful)
	require.Equal(t, 0, result.Failed)
	require.Equal(t, []int64{1}, sr.deactivated)
	require.Empty(t, meli.created)
}
