package equipment

import (
	"context"
	"testing"

	"github.com/dcervantes/equiplend-backend/pkg/db/models"
	"github.com/dcervantes/equiplend-backend/pkg/enums"
	pkgerrors "github.com/dcervantes/equiplend-backend/pkg/errors"
	"github.com/dcervantes/equiplend-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:equipment_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Equipment{}, &models.Request{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), testTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func seedRequest(t *testing.T, db *gorm.DB, equipmentID uuid.UUID, qty int, status enums.RequestStatus) {
	t.Helper()
	request := &models.Request{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		EquipmentID: equipmentID,
		Quantity:    qty,
		Status:      status,
	}
	require.NoError(t, db.Create(request).Error)
}

func TestCreateEquipment(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	row, err := svc.Create(context.Background(), CreateInput{
		Name:          "Microscope",
		Category:      "lab",
		TotalQuantity: 4,
	})
	require.NoError(t, err)
	require.Equal(t, 4, row.TotalQuantity)
	require.Equal(t, 4, row.AvailableQuantity)
	require.Equal(t, enums.EquipmentConditionGood, row.Condition)
}

func TestCreateEquipmentExplicitAvailability(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	available := 2
	row, err := svc.Create(ctx, CreateInput{
		Name:              "Soldering Iron",
		Category:          "lab",
		TotalQuantity:     5,
		AvailableQuantity: &available,
	})
	require.NoError(t, err)
	require.Equal(t, 5, row.TotalQuantity)
	require.Equal(t, 2, row.AvailableQuantity)

	for _, bad := range []int{-1, 6} {
		bad := bad
		_, err = svc.Create(ctx, CreateInput{
			Name:              "Oscilloscope " + uuid.NewString(),
			Category:          "lab",
			TotalQuantity:     5,
			AvailableQuantity: &bad,
		})
		require.Error(t, err)
		require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	}
}

func TestCreateEquipmentDuplicateName(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "Tripod", Category: "av", TotalQuantity: 2})
	require.NoError(t, err)

	// name comparison is case-insensitive
	_, err = svc.Create(ctx, CreateInput{Name: "tripod", Category: "av", TotalQuantity: 1})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeDuplicateName, pkgerrors.As(err).Code())
}

func TestUpdateResizeReconcilesAvailability(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	row, err := svc.Create(ctx, CreateInput{Name: "Laptop", Category: "computing", TotalQuantity: 10})
	require.NoError(t, err)

	// 3 units held by an approved request
	seedRequest(t, db, row.ID, 3, enums.RequestStatusApproved)
	require.NoError(t, db.Model(&models.Equipment{}).Where("id = ?", row.ID).
		Update("available_quantity", 7).Error)

	newTotal := 5
	updated, err := svc.Update(ctx, row.ID, UpdateInput{TotalQuantity: &newTotal})
	require.NoError(t, err)
	require.Equal(t, 5, updated.TotalQuantity)
	require.Equal(t, 2, updated.AvailableQuantity)
}

func TestUpdateResizeBelowReservedRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	row, err := svc.Create(ctx, CreateInput{Name: "Camera", Category: "av", TotalQuantity: 6})
	require.NoError(t, err)
	seedRequest(t, db, row.ID, 4, enums.RequestStatusIssued)

	newTotal := 3
	_, err = svc.Update(ctx, row.ID, UpdateInput{TotalQuantity: &newTotal})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeBelowReservedQuantity, pkgerrors.As(err).Code())
}

func TestDeleteBlockedByActiveRequests(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	row, err := svc.Create(ctx, CreateInput{Name: "Drone", Category: "av", TotalQuantity: 1})
	require.NoError(t, err)
	seedRequest(t, db, row.ID, 1, enums.RequestStatusPending)

	err = svc.Delete(ctx, row.ID, uuid.New())
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeHasActiveReservations, pkgerrors.As(err).Code())
}

func TestDeleteHidesRecord(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	row, err := svc.Create(ctx, CreateInput{Name: "Whiteboard", Category: "office", TotalQuantity: 2})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, row.ID, uuid.New()))

	_, err = svc.Get(ctx, row.ID)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	// the name frees up once the record is soft-deleted
	_, err = svc.Create(ctx, CreateInput{Name: "Whiteboard", Category: "office", TotalQuantity: 1})
	require.NoError(t, err)
}

func TestGetAvailability(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	row, err := svc.Create(ctx, CreateInput{Name: "Mixer", Category: "audio", TotalQuantity: 8})
	require.NoError(t, err)
	seedRequest(t, db, row.ID, 3, enums.RequestStatusApproved)
	seedRequest(t, db, row.ID, 2, enums.RequestStatusReturned)
	require.NoError(t, db.Model(&models.Equipment{}).Where("id = ?", row.ID).
		Update("available_quantity", 5).Error)

	availability, err := svc.GetAvailability(ctx, row.ID)
	require.NoError(t, err)
	require.Equal(t, 8, availability.Total)
	require.Equal(t, 5, availability.Available)
	require.Equal(t, 3, availability.Reserved)
	require.True(t, availability.IsAvailable)
}

func TestSaveQuantitiesDetectsStaleVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row := &models.Equipment{
		ID:                uuid.New(),
		Name:              "Speaker",
		Category:          "audio",
		Condition:         enums.EquipmentConditionGood,
		TotalQuantity:     4,
		AvailableQuantity: 4,
	}
	require.NoError(t, db.Create(row).Error)

	stale := *row
	row.AvailableQuantity = 3
	ok, err := repo.SaveQuantities(ctx, row)
	require.NoError(t, err)
	require.True(t, ok)

	// second writer still holds the old lock_version
	stale.AvailableQuantity = 2
	ok, err = repo.SaveQuantities(ctx, &stale)
	require.NoError(t, err)
	require.False(t, ok)

	reloaded := &models.Equipment{}
	require.NoError(t, db.First(reloaded, "id = ?", row.ID).Error)
	require.Equal(t, 3, reloaded.AvailableQuantity)
}

func TestListPaginates(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, CreateInput{
			Name:          uuid.NewString(),
			Category:      "misc",
			TotalQuantity: 1,
		})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Equipment, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := svc.List(ctx, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Equipment, 1)
	require.Empty(t, rest.NextCursor)
}
