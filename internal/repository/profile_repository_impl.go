package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/praveen-kumars/pillremander-sub001/internal/domain/entity"
	domainRepo "github.com/praveen-kumars/pillremander-sub001/internal/domain/repository"
	"github.com/praveen-kumars/pillremander-sub001/internal/infrastructure/database"

	"gorm.io/gorm"
)

// ErrStorage marks failures of the embedded store. Callers may retry the
// operation; Init in particular is safe to re-invoke after a failure.
var ErrStorage = errors.New("embedded storage failure")

type profileRepository struct {
	db *gorm.DB

	// mu serializes the check-then-act save path. The singleton invariant
	// (row count <= 1) depends on a single in-flight write per store
	// handle, not on timing.
	mu          sync.Mutex
	initialized bool
}

func NewProfileRepository(db *gorm.DB) domainRepo.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return nil
	}

	if err := database.Migrate(r.db); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := r.reconcileLegacy(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	r.initialized = true
	return nil
}

func (r *profileRepository) Save(ctx context.Context, info *entity.PersonalInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.PersonalInfo
		err := tx.Order("id ASC").First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			applyDisplayDefaults(info)
			return tx.Create(info).Error
		case err != nil:
			return err
		default:
			info.ID = existing.ID
			info.CreatedAt = existing.CreatedAt
			applyDisplayDefaults(info)
			return tx.Save(info).Error
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func (r *profileRepository) Get(ctx context.Context) (*entity.PersonalInfo, error) {
	var info entity.PersonalInfo
	err := r.db.WithContext(ctx).Order("id ASC").First(&info).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return &info, nil
}

// Update targets the minimum-id row and drops any higher-id rows. This is a
// repair path in case duplicates ever slipped in; Save's serialized upsert
// is the primary invariant mechanism.
func (r *profileRepository) Update(ctx context.Context, info *entity.PersonalInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.PersonalInfo
		if err := tx.Order("id ASC").First(&existing).Error; err != nil {
			return err
		}

		if err := tx.Where("id > ?", existing.ID).Delete(&entity.PersonalInfo{}).Error; err != nil {
			return err
		}

		info.ID = existing.ID
		info.CreatedAt = existing.CreatedAt
		applyDisplayDefaults(info)
		return tx.Save(info).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gorm.ErrRecordNotFound
		}
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func (r *profileRepository) Delete(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&entity.PersonalInfo{}).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// reconcileLegacy seeds an empty personal_info table from the legacy
// basic_personal_info table. Lowest-id legacy row wins; the legacy table is
// left untouched and never written by current flows.
func (r *profileRepository) reconcileLegacy(ctx context.Context) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.PersonalInfo{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var legacy entity.BasicPersonalInfo
	err := r.db.WithContext(ctx).Order("id ASC").First(&legacy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	seeded := &entity.PersonalInfo{
		FirstName:   legacy.FirstName,
		LastName:    legacy.LastName,
		Email:       legacy.Email,
		Phone:       legacy.Phone,
		DateOfBirth: legacy.DateOfBirth,
	}
	applyDisplayDefaults(seeded)
	return r.db.WithContext(ctx).Create(seeded).Error
}

func applyDisplayDefaults(info *entity.PersonalInfo) {
	if info.PreferredLanguage == "" {
		info.PreferredLanguage = entity.DefaultLanguage
	}
	if info.TimeFormat == "" {
		info.TimeFormat = entity.DefaultTimeFormat
	}
	if info.Units == "" {
		info.Units = entity.DefaultUnits
	}
}
