package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/praveen-kumars/pillremander-sub001/internal/domain/entity"
	"github.com/praveen-kumars/pillremander-sub001/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// An in-memory database exists per connection; a second connection
	// would see an empty schema.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func sampleProfile(firstName string) *entity.PersonalInfo {
	return &entity.PersonalInfo{
		FirstName:   firstName,
		LastName:    "Kumar",
		Email:       "foo@bar.com",
		Phone:       "(555) 123-4567",
		DateOfBirth: "01/15/1990",
		Weight:      "150 lbs",
		Height:      `5'10"`,
		BloodType:   "O+",
	}
}

func TestInit_Idempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Init(ctx))
	require.NoError(t, repo.Init(ctx))

	info, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, info)
}

func TestSave_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	saved := sampleProfile("Praveen")
	require.NoError(t, repo.Save(ctx, saved))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Praveen", got.FirstName)
	require.Equal(t, "foo@bar.com", got.Email)
	require.Equal(t, `5'10"`, got.Height)

	// Display defaults apply on first save.
	require.Equal(t, entity.DefaultLanguage, got.PreferredLanguage)
	require.Equal(t, entity.DefaultTimeFormat, got.TimeFormat)
	require.Equal(t, entity.DefaultUnits, got.Units)
}

func TestSave_UpdateNotInsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	require.NoError(t, repo.Save(ctx, sampleProfile("First")))
	require.NoError(t, repo.Save(ctx, sampleProfile("Second")))

	var count int64
	require.NoError(t, db.Model(&entity.PersonalInfo{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "Second", got.FirstName)
}

func TestSave_ConcurrentSingleton(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	const writers = 10
	names := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		name := fmt.Sprintf("Writer-%d", i)
		names[name] = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Save(ctx, sampleProfile(name)))
		}()
	}
	wg.Wait()

	var count int64
	require.NoError(t, db.Model(&entity.PersonalInfo{}).Count(&count).Error)
	require.EqualValues(t, 1, count, "concurrent saves must not duplicate the singleton row")

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	require.True(t, names[got.FirstName], "surviving row must reflect one of the submitted writes")
}

func TestDelete_Idempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	require.NoError(t, repo.Delete(ctx)) // nothing there yet

	require.NoError(t, repo.Save(ctx, sampleProfile("Gone")))
	require.NoError(t, repo.Delete(ctx))
	require.NoError(t, repo.Delete(ctx))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestUpdate_RepairsDuplicateRows(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	// Simulate the race Save prevents: two rows in the table.
	require.NoError(t, db.Create(sampleProfile("Older")).Error)
	require.NoError(t, db.Create(sampleProfile("Newer")).Error)

	require.NoError(t, repo.Update(ctx, sampleProfile("Repaired")))

	var count int64
	require.NoError(t, db.Model(&entity.PersonalInfo{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "Repaired", got.FirstName)
}

func TestInit_ReconcilesLegacyTable(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Seed the legacy table before the store ever initializes.
	require.NoError(t, database.Migrate(db))
	require.NoError(t, db.Create(&entity.BasicPersonalInfo{
		FirstName:   "Legacy",
		LastName:    "User",
		Email:       "legacy@bar.com",
		Phone:       "5551234567",
		DateOfBirth: "03/20/1985",
	}).Error)

	repo := NewProfileRepository(db)
	require.NoError(t, repo.Init(ctx))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Legacy", got.FirstName)
	require.Equal(t, "legacy@bar.com", got.Email)
	require.Equal(t, entity.DefaultLanguage, got.PreferredLanguage)

	// A second Init must not duplicate the seeded row.
	repo2 := NewProfileRepository(db)
	require.NoError(t, repo2.Init(ctx))
	var count int64
	require.NoError(t, db.Model(&entity.PersonalInfo{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestPreferenceRepository_SetGetDelete(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, database.Migrate(db))
	repo := NewPreferenceRepository(db)
	ctx := context.Background()

	_, found, err := repo.Get(ctx, "theme")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, repo.Set(ctx, "theme", "dark"))
	require.NoError(t, repo.Set(ctx, "theme", "light")) // upsert, not duplicate

	value, found, err := repo.Get(ctx, "theme")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "light", value)

	var count int64
	require.NoError(t, db.Model(&entity.AppPreference{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	require.NoError(t, repo.Delete(ctx, "theme"))
	_, found, err = repo.Get(ctx, "theme")
	require.NoError(t, err)
	require.False(t, found)
}
