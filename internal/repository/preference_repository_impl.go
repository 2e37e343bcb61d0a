package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/praveen-kumars/pillremander-sub001/internal/domain/entity"
	domainRepo "github.com/praveen-kumars/pillremander-sub001/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type preferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) domainRepo.PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) Set(ctx context.Context, key, value string) error {
	pref := &entity.AppPreference{Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(pref).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func (r *preferenceRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var pref entity.AppPreference
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return pref.Value, true, nil
}

func (r *preferenceRepository) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&entity.AppPreference{}).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}
