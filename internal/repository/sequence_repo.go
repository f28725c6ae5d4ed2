package repository

import (
	"context"
	"errors"

	"contapos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository hands out gap-free document numbers. Next must run
// inside a transaction so the row lock is held until commit.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	db := GetDB(ctx, r.db)

	var seq model.DocumentSequence
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("name = ?", name).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.DocumentSequence{Name: name}).Error; err != nil {
			return 0, err
		}
		err = db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("name = ?", name).First(&seq).Error
	}
	if err != nil {
		return 0, err
	}

	seq.Current++
	if err := db.Model(&model.DocumentSequence{}).Where("name = ?", name).Update("current", seq.Current).Error; err != nil {
		return 0, err
	}
	return seq.Current, nil
}
