package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mchavez27/melipanel/internal/models"
	"github.com/mchavez27/melipanel/internal/transfer"
	"github.com/stretchr/testify/require"
)

type memScheduleRepo struct {
	fakeScheduleRepo
	byID    map[int64]*models.Schedule
	nextID  int64
	removed []int64
	updated []*models.Schedule
}

func newMemScheduleRepo() *memScheduleRepo {
	return &memScheduleRepo{byID: map[int64]*models.Schedule{}, nextID: 1}
}

func (m *memScheduleRepo) Create(ctx context.Context, s *models.Schedule) (int64, error) {
	id := m.nextID
	m.nextID++
	copied := *s
	copied.ID = id
	m.byID[id] = &copied
	return id, nil
}

func (m *memScheduleRepo) GetByID(ctx context.Context, id int64) (*models.Schedule, error) {
	return m.byID[id], nil
}

func (m *memScheduleRepo) Update(ctx context.Context, s *models.Schedule) error {
	m.updated = append(m.updated, s)
	m.byID[s.ID] = s
	return nil
}

func (m *memScheduleRepo) Remove(ctx context.Context, id int64) error {
	m.removed = append(m.removed, id)
	delete(m.byID, id)
	return nil
}

type fakeAuthService struct {
	token string
	err   error
}

func (f *fakeAuthService) AuthorizationURL() string { return "" }

func (f *fakeAuthService) ExchangeCode(ctx context.Context, code string) error { return nil }

func (f *fakeAuthService) Refresh(ctx context.Context) error { return nil }

func (f *fakeAuthService) GetToken(ctx context.Context) (string, error) { return f.token, f.err }

func (f *fakeAuthService) InjectToken(ctx context.Context, req *transfer.InjectTokenRequest) error {
	return nil
}

func (f *fakeAuthService) HasValidToken(ctx context.Context) bool { return f.err == nil }

type snapshotMeli struct {
	fakeMeliService
	description string
}

func (s *snapshotMeli) GetItemDescription(ctx context.Context, itemID, token string) (string, error) {
	return s.description, nil
}

func validCreateRequest() *transfer.CreateScheduleRequest {
	return &transfer.CreateScheduleRequest{
		ItemID:    "MLM123",
		Frequency: models.Frequency{Interval: 2, Unit: models.FrequencyUnitHours},
	}
}

func TestScheduleCreateSnapshotsListing(t *testing.T) {
	sr := newMemScheduleRepo()
	meli := &snapshotMeli{description: "Descripción original"}
	meli.item = &transfer.MeliItem{ID: "MLM123", Title: "Audífonos Bluetooth"}
	svc := NewScheduleService(sr, &fakeHistoryRepo{}, meli, &fakeAuthService{token: "token"})

	resp, err := svc.Create(context.Background(), 7, validCreateRequest())
	require.NoError(t, err)
	require.Equal(t, "Audífonos Bluetooth", resp.OriginalTitle)
	require.True(t, resp.IsActive)

	stored := sr.byID[resp.ID]
	require.Equal(t, "Descripción original", stored.OriginalDescription)
	// First publication is one cycle out, not immediate.
	require.WithinDuration(t, time.Now().Add(2*time.Hour), stored.NextPublishAt, time.Minute)
}

func TestScheduleCreateWithoutListingAccess(t *testing.T) {
	sr := newMemScheduleRepo()
	meli := &fakeMeliService{getErr: errors.New("unreachable")}
	svc := NewScheduleService(sr, &fakeHistoryRepo{}, meli, &fakeAuthService{token: "token"})

	resp, err := svc.Create(context.Background(), 7, validCreateRequest())
	require.NoError(t, err)
	require.Equal(t, "Sin título", resp.OriginalTitle)
}

func TestScheduleCreateValidation(t *testing.T) {
	svc := NewScheduleService(newMemScheduleRepo(), &fakeHistoryRepo{}, &fakeMeliService{}, &fakeAuthService{})

	t.Run("missing item", func(t *testing.T) {
		req := validCreateRequest()
		req.ItemID = ""
		_, err := svc.Create(context.Background(), 7, req)
		require.Error(t, err)
	})

	t.Run("zero interval", func(t *testing.T) {
		req := validCreateRequest()
		req.Frequency.Interval = 0
		_, err := svc.Create(context.Background(), 7, req)
		require.Error(t, err)
	})

	t.Run("bad unit", func(t *testing.T) {
		req := validCreateRequest()
		req.Frequency.Unit = "weeks"
		_, err := svc.Create(context.Background(), 7, req)
		require.Error(t, err)
	})

	t.Run("non-positive cap", func(t *testing.T) {
		req := validCreateRequest()
		zero := int64(0)
		req.MaxPublications = &zero
		_, err := svc.Create(context.Background(), 7, req)
		require.Error(t, err)
	})
}

func TestScheduleUpdateFrequencyRestartsCycle(t *testing.T) {
	sr := newMemScheduleRepo()
	svc := NewScheduleService(sr, &fakeHistoryRepo{}, &fakeMeliService{}, &fakeAuthService{})

	req := validCreateRequest()
	req.ItemTitle = "Audífonos"
	created, err := svc.Create(context.Background(), 7, req)
	require.NoError(t, err)

	newFrequency := models.Frequency{Interval: 1, Unit: models.FrequencyUnitDays}
	updated, err := svc.Update(context.Background(), 7, created.ID, &transfer.UpdateScheduleRequest{
		Frequency: &newFrequency,
	})
	require.NoError(t, err)
	require.Equal(t, newFrequency, updated.Frequency)

	stored := sr.byID[created.ID]
	require.WithinDuration(t, time.Now().Add(24*time.Hour), stored.NextPublishAt, time.Minute)
}

func TestScheduleOwnership(t *testing.T) {
	sr := newMemScheduleRepo()
	svc := NewScheduleService(sr, &fakeHistoryRepo{}, &fakeMeliService{}, &fakeAuthService{})

	req := validCreateRequest()
	req.ItemTitle = "Audífonos"
	created, err := svc.Create(context.Background(), 7, req)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 8, created.ID)
	require.ErrorIs(t, err, ErrScheduleNotFound)

	err = svc.Remove(context.Background(), 8, created.ID)
	require.ErrorIs(t, err, ErrScheduleNotFound)

	_, err = svc.Get(context.Background(), 7, 999)
	require.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestScheduleRemoveKeepsHistory(t *testing.T) {
	sr := newMemScheduleRepo()
	hr := &fakeHistoryRepo{entries: []*models.PublicationHistory{{ID: 1}}}
	svc := NewScheduleService(sr, hr, &fakeMeliService{}, &fakeAuthService{})

	req := validCreateRequest()
	req.ItemTitle = "Audífonos"
	created, err := svc.Create(context.Background(), 7, req)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), 7, created.ID))
	require.Equal(t, []int64{created.ID}, sr.removed)
	// History rows outlive the schedule.
	require.Len(t, hr.entries, 1)
}

func TestScheduleResponseShape(t *testing.T) {
	sr := newMemScheduleRepo()
	hr := &fakeHistoryRepo{count: 4}
	svc := NewScheduleService(sr, hr, &fakeMeliService{}, &fakeAuthService{})

	limit := int64(10)
	req := validCreateRequest()
	req.ItemTitle = "Audífonos"
	req.MaxPublications = &limit

	created, err := svc.Create(context.Background(), 7, req)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), 7, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4), got.PublicationCount)
	require.NotNil(t, got.MaxPublications)
	require.Equal(t, int64(10), *got.MaxPublications)
	require.Empty(t, got.LastPublishedAt)

	_, err = time.Parse(time.RFC3339, got.NextPublishAt)
	require.NoError(t, err)
}
