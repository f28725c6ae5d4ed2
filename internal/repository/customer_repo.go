package repository

import (
	"context"

	"contapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	Update(ctx context.Context, customer *model.Customer) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	DocumentExists(ctx context.Context, docType, docNumber string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context, customerType, search string, page, limit int) ([]model.Customer, int64, error)
	Search(ctx context.Context, customerType, q string, limit int) ([]model.Customer, error)
	Count(ctx context.Context) (int64, error)
	HasMovements(ctx context.Context, id uuid.UUID) (bool, error)

	ListDepartments(ctx context.Context) ([]model.Department, error)
	ListCities(ctx context.Context, departmentID *uuid.UUID) ([]model.City, error)
	FindCity(ctx context.Context, id uuid.UUID) (*model.City, error)
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Create(customer).Error
}

func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Omit("Department", "City").Save(customer).Error
}

func (r *customerRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return GetDB(ctx, r.db).Model(&model.Customer{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Customer{}, "id = ?", id).Error
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).Preload("Department").Preload("City").First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) DocumentExists(ctx context.Context, docType, docNumber string, excludeID uuid.UUID) (bool, error) {
	var count int64
	db := GetDB(ctx, r.db).Model(&model.Customer{}).Where("document_type = ? AND document_number = ?", docType, docNumber)
	if excludeID != uuid.Nil {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *customerRepository) filtered(ctx context.Context, customerType, search string) *gorm.DB {
	db := GetDB(ctx, r.db).Model(&model.Customer{})
	if customerType != "" {
		db = db.Where("type = ?", customerType)
	}
	if search != "" {
		like := "%" + search + "%"
		db = db.Where("LOWER(full_name) LIKE LOWER(?) OR document_number LIKE ? OR LOWER(email) LIKE LOWER(?)", like, like, like)
	}
	return db
}

func (r *customerRepository) List(ctx context.Context, customerType, search string, page, limit int) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	db := r.filtered(ctx, customerType, search)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("City").Order("full_name asc").Offset(offset).Limit(limit).Find(&customers).Error; err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *customerRepository) Search(ctx context.Context, customerType, q string, limit int) ([]model.Customer, error) {
	customers := []model.Customer{}
	err := r.filtered(ctx, customerType, q).Where("is_active = ?", true).
		Order("full_name asc").Limit(limit).Find(&customers).Error
	return customers, err
}

func (r *customerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Customer{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

// HasMovements reports whether the party appears on any sale or purchase
func (r *customerRepository) HasMovements(ctx context.Context, id uuid.UUID) (bool, error) {
	var sales, purchases int64
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Sale{}).Where("customer_id = ?", id).Count(&sales).Error; err != nil {
		return false, err
	}
	if err := db.Model(&model.Purchase{}).Where("supplier_id = ?", id).Count(&purchases).Error; err != nil {
		return false, err
	}
	return sales+purchases > 0, nil
}

func (r *customerRepository) ListDepartments(ctx context.Context) ([]model.Department, error) {
	var departments []model.Department
	err := GetDB(ctx, r.db).Order("name asc").Find(&departments).Error
	return departments, err
}

func (r *customerRepository) ListCities(ctx context.Context, departmentID *uuid.UUID) ([]model.City, error) {
	var cities []model.City
	db := GetDB(ctx, r.db)
	if departmentID != nil {
		db = db.Where("department_id = ?", *departmentID)
	}
	err := db.Order("name asc").Find(&cities).Error
	return cities, err
}

func (r *customerRepository) FindCity(ctx context.Context, id uuid.UUID) (*model.City, error) {
	var city model.City
	if err := GetDB(ctx, r.db).First(&city, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &city, nil
}
