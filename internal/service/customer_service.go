package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"contapos/internal/model"
	"contapos/internal/repository"

	"github.com/shopspring/decimal"
)

type CustomerRequest struct {
	Type              string          `json:"type" binding:"omitempty,oneof=client supplier employee other"`
	DocumentType      string          `json:"document_type" binding:"required,doctype"`
	DocumentNumber    string          `json:"document_number" binding:"required,max=20"`
	VerificationDigit string          `json:"verification_digit" binding:"max=1"`
	FirstName         string          `json:"first_name" binding:"max=100"`
	MiddleName        string          `json:"middle_name" binding:"max=100"`
	LastName          string          `json:"last_name" binding:"max=100"`
	SecondLastName    string          `json:"second_last_name" binding:"max=100"`
	BusinessName      string          `json:"business_name" binding:"max=200"`
	Email             string          `json:"email" binding:"omitempty,email,max=120"`
	Phone             string          `json:"phone" binding:"max=50"`
	Mobile            string          `json:"mobile" binding:"max=50"`
	Address           string          `json:"address" binding:"max=255"`
	DepartmentID      string          `json:"department_id"`
	CityID            string          `json:"city_id"`
	CreditLimit       decimal.Decimal `json:"credit_limit"`
	CreditDays        int             `json:"credit_days" binding:"min=0"`
	PriceLevel        int             `json:"price_level" binding:"omitempty,min=1,max=4"`
	Notes             string          `json:"notes"`
}

type CustomerService interface {
	ListCustomers(ctx context.Context, customerType, search string, page, limit int) ([]model.Customer, int64, error)
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)
	CreateCustomer(ctx context.Context, actorID string, req CustomerRequest) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, actorID, id string, req CustomerRequest) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, actorID, id string) error
	ToggleCustomerStatus(ctx context.Context, actorID, id string) (*model.Customer, error)
	SearchCustomers(ctx context.Context, customerType, q string) ([]model.Customer, error)
	ListDepartments(ctx context.Context) ([]model.Department, error)
	ListCities(ctx context.Context, departmentID string) ([]model.City, error)
}

type customerService struct {
	repo      repository.CustomerRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewCustomerService(repo repository.CustomerRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) CustomerService {
	return &customerService{repo: repo, auditRepo: auditRepo, txManager: txManager}
}

// nitWeights are the DIAN prime weights applied from the rightmost digit
var nitWeights = []int{3, 7, 13, 17, 19, 23, 29, 37, 41, 43, 47, 53, 59, 67, 71}

// NITVerificationDigit computes the modulo-11 check digit of a Colombian NIT.
func NITVerificationDigit(nit string) (string, error) {
	digits := strings.NewReplacer(".", "", "-", "", " ", "").Replace(nit)
	if digits == "" || len(digits) > len(nitWeights) {
		return "", validationError("invalid NIT %q", nit)
	}

	sum := 0
	for i := 0; i < len(digits); i++ {
		d := digits[len(digits)-1-i]
		if d < '0' || d > '9' {
			return "", validationError("invalid NIT %q", nit)
		}
		sum += int(d-'0') * nitWeights[i]
	}

	r := sum % 11
	if r > 1 {
		r = 11 - r
	}
	return strconv.Itoa(r), nil
}

func (s *customerService) ListCustomers(ctx context.Context, customerType, search string, page, limit int) ([]model.Customer, int64, error) {
	if customerType != "" && !model.IsValidCustomerType(customerType) {
		return nil, 0, validationError("unknown customer type %q", customerType)
	}
	page, limit = normalizePage(page, limit, 20)
	customers, total, err := s.repo.List(ctx, customerType, strings.TrimSpace(search), page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch customers: %w", err)
	}
	return customers, total, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	customerID, err := parseID(id, "customer")
	if err != nil {
		return nil, err
	}
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		return nil, notFound("customer", err)
	}
	return customer, nil
}

func (s *customerService) apply(ctx context.Context, customer *model.Customer, req CustomerRequest) error {
	customerType := req.Type
	if customerType == "" {
		customerType = model.CustomerTypeClient
	}
	priceLevel := req.PriceLevel
	if priceLevel == 0 {
		priceLevel = 1
	}
	if req.CreditLimit.IsNegative() {
		return validationError("credit_limit can not be negative")
	}

	docNumber := strings.TrimSpace(req.DocumentNumber)
	dv := strings.TrimSpace(req.VerificationDigit)
	if req.DocumentType == model.DocNIT {
		docNumber = strings.NewReplacer(".", "", " ", "").Replace(docNumber)
		if i := strings.IndexByte(docNumber, '-'); i >= 0 {
			if dv == "" {
				dv = docNumber[i+1:]
			}
			docNumber = docNumber[:i]
		}
		computed, err := NITVerificationDigit(docNumber)
		if err != nil {
			return err
		}
		if dv != "" && dv != computed {
			return validationError("verification digit %s does not match NIT %s", dv, docNumber)
		}
		dv = computed
	} else {
		dv = ""
	}

	exists, err := s.repo.DocumentExists(ctx, req.DocumentType, docNumber, customer.ID)
	if err != nil {
		return fmt.Errorf("failed to check document: %w", err)
	}
	if exists {
		return conflictError("document %s %s already registered", req.DocumentType, docNumber)
	}

	departmentID, err := parseOptionalID(req.DepartmentID, "department")
	if err != nil {
		return err
	}
	cityID, err := parseOptionalID(req.CityID, "city")
	if err != nil {
		return err
	}
	if cityID != nil {
		city, err := s.repo.FindCity(ctx, *cityID)
		if err != nil {
			return notFound("city", err)
		}
		if departmentID == nil {
			departmentID = &city.DepartmentID
		} else if *departmentID != city.DepartmentID {
			return validationError("city does not belong to the department")
		}
	}

	customer.Type = customerType
	customer.DocumentType = req.DocumentType
	customer.DocumentNumber = docNumber
	customer.VerificationDigit = dv
	customer.FirstName = strings.TrimSpace(req.FirstName)
	customer.MiddleName = strings.TrimSpace(req.MiddleName)
	customer.LastName = strings.TrimSpace(req.LastName)
	customer.SecondLastName = strings.TrimSpace(req.SecondLastName)
	customer.BusinessName = strings.TrimSpace(req.BusinessName)
	customer.FullName = customer.ComposeFullName()
	customer.Email = strings.ToLower(strings.TrimSpace(req.Email))
	customer.Phone = req.Phone
	customer.Mobile = req.Mobile
	customer.Address = req.Address
	customer.DepartmentID = departmentID
	customer.CityID = cityID
	customer.CreditLimit = req.CreditLimit
	customer.CreditDays = req.CreditDays
	customer.PriceLevel = priceLevel
	customer.Notes = req.Notes
	customer.Department, customer.City = nil, nil

	if customer.FullName == "" {
		return validationError("a business name or the person's names are required")
	}
	return nil
}

func (s *customerService) CreateCustomer(ctx context.Context, actorID string, req CustomerRequest) (*model.Customer, error) {
	customer := &model.Customer{IsActive: true}
	if err := s.apply(ctx, customer, req); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, customer); err != nil {
			return fmt.Errorf("failed to create customer: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionCreateCustomer, customer.ID.String(), customer.FullName, req)
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, actorID, id string, req CustomerRequest) (*model.Customer, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, customer, req); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, customer); err != nil {
			return fmt.Errorf("failed to update customer: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionUpdateCustomer, customer.ID.String(), customer.FullName, req)
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer removes a party without history; one referenced by sales or
// purchases is only deactivated.
func (s *customerService) DeleteCustomer(ctx context.Context, actorID, id string) error {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return err
	}
	used, err := s.repo.HasMovements(ctx, customer.ID)
	if err != nil {
		return fmt.Errorf("failed to check customer movements: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if used {
			if err := s.repo.SetActive(txCtx, customer.ID, false); err != nil {
				return fmt.Errorf("failed to deactivate customer: %w", err)
			}
		} else if err := s.repo.Delete(txCtx, customer.ID); err != nil {
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		details := fmt.Sprintf(`{"document": %q, "deactivated": %t}`, customer.DocumentNumber, used)
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionDeleteCustomer, customer.ID.String(), customer.FullName, details)
	})
}

func (s *customerService) ToggleCustomerStatus(ctx context.Context, actorID, id string) (*model.Customer, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	customer.IsActive = !customer.IsActive

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.SetActive(txCtx, customer.ID, customer.IsActive); err != nil {
			return fmt.Errorf("failed to toggle customer: %w", err)
		}
		details := fmt.Sprintf(`{"is_active": %t}`, customer.IsActive)
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionToggleCustomer, customer.ID.String(), customer.FullName, details)
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) SearchCustomers(ctx context.Context, customerType, q string) ([]model.Customer, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []model.Customer{}, nil
	}
	if customerType != "" && !model.IsValidCustomerType(customerType) {
		return nil, validationError("unknown customer type %q", customerType)
	}
	customers, err := s.repo.Search(ctx, customerType, q, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	return customers, nil
}

func (s *customerService) ListDepartments(ctx context.Context) ([]model.Department, error) {
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch departments: %w", err)
	}
	return departments, nil
}

func (s *customerService) ListCities(ctx context.Context, departmentID string) ([]model.City, error) {
	id, err := parseOptionalID(departmentID, "department")
	if err != nil {
		return nil, err
	}
	cities, err := s.repo.ListCities(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cities: %w", err)
	}
	return cities, nil
}
