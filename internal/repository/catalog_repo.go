package repository

import (
	"context"
	"fmt"

	"contapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository serves the four product classification tables through one API
type CatalogRepository interface {
	List(ctx context.Context, kind string, activeOnly bool) ([]model.CatalogItem, error)
	FindByID(ctx context.Context, kind string, id uuid.UUID) (*model.CatalogItem, error)
	Create(ctx context.Context, kind string, item *model.CatalogItem) error
	Update(ctx context.Context, kind string, item *model.CatalogItem) error
	SetActive(ctx context.Context, kind string, id uuid.UUID, active bool) error
	NameExists(ctx context.Context, kind, name string, excludeID uuid.UUID) (bool, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) table(ctx context.Context, kind string) (*gorm.DB, error) {
	name, ok := model.CatalogTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown catalog %q", kind)
	}
	return GetDB(ctx, r.db).Table(name), nil
}

func (r *catalogRepository) List(ctx context.Context, kind string, activeOnly bool) ([]model.CatalogItem, error) {
	db, err := r.table(ctx, kind)
	if err != nil {
		return nil, err
	}
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	items := []model.CatalogItem{}
	if err := db.Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *catalogRepository) FindByID(ctx context.Context, kind string, id uuid.UUID) (*model.CatalogItem, error) {
	db, err := r.table(ctx, kind)
	if err != nil {
		return nil, err
	}
	var item model.CatalogItem
	if err := db.Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *catalogRepository) Create(ctx context.Context, kind string, item *model.CatalogItem) error {
	db, err := r.table(ctx, kind)
	if err != nil {
		return err
	}
	return db.Create(item).Error
}

func (r *catalogRepository) Update(ctx context.Context, kind string, item *model.CatalogItem) error {
	db, err := r.table(ctx, kind)
	if err != nil {
		return err
	}
	return db.Where("id = ?", item.ID).Updates(map[string]interface{}{
		"name":        item.Name,
		"description": item.Description,
		"is_active":   item.IsActive,
	}).Error
}

func (r *catalogRepository) SetActive(ctx context.Context, kind string, id uuid.UUID, active bool) error {
	db, err := r.table(ctx, kind)
	if err != nil {
		return err
	}
	return db.Where("id = ?", id).Update("is_active", active).Error
}

func (r *catalogRepository) NameExists(ctx context.Context, kind, name string, excludeID uuid.UUID) (bool, error) {
	db, err := r.table(ctx, kind)
	if err != nil {
		return false, err
	}
	var count int64
	db = db.Where("LOWER(name) = LOWER(?)", name)
	if excludeID != uuid.Nil {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
