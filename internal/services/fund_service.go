package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/models"
	"fundflow/internal/pagination"
)

// fundService handles fund and company business logic.
type fundService struct {
	db *gorm.DB
}

// NewFundService creates a new FundServicer.
func NewFundService(db *gorm.DB) FundServicer {
	return &fundService{db: db}
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// CreateCompany registers a fund issuer.
func (s *fundService) CreateCompany(name, description string) (*models.Company, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "company name is required")
	}

	company := &models.Company{
		Name:        name,
		Slug:        slugify(name),
		Description: description,
	}
	if err := s.db.Create(company).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return company, nil
}

// GetCompanyByID retrieves a company by ID.
func (s *fundService) GetCompanyByID(companyID uint) (*models.Company, error) {
	var company models.Company
	if err := s.db.First(&company, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCompanyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &company, nil
}

// CreateFund registers a fund under a company, a broker account, or both.
// The name must be unique within each parent it is attached to.
func (s *fundService) CreateFund(name, description string, companyID, brokerAccountID *uint) (*models.Fund, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "fund name is required")
	}
	if companyID == nil && brokerAccountID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "fund must belong to a company or a broker account")
	}

	available, err := s.FundNameAvailable(name, companyID, brokerAccountID)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, apperrors.ErrDuplicateFundName
	}

	fund := &models.Fund{
		Name:            name,
		Slug:            slugify(name),
		Description:     description,
		CompanyID:       companyID,
		BrokerAccountID: brokerAccountID,
	}
	if err := s.db.Create(fund).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return fund, nil
}

// GetFundByID retrieves a fund by ID.
func (s *fundService) GetFundByID(fundID uint) (*models.Fund, error) {
	var fund models.Fund
	if err := s.db.First(&fund, fundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFundNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &fund, nil
}

// GetBrokerFunds lists a broker account's funds, alphabetically.
func (s *fundService) GetBrokerFunds(brokerAccountID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Fund], error) {
	return s.listFunds("broker_account_id = ?", brokerAccountID, page)
}

// GetCompanyFunds lists a company's funds, alphabetically.
func (s *fundService) GetCompanyFunds(companyID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Fund], error) {
	return s.listFunds("company_id = ?", companyID, page)
}

func (s *fundService) listFunds(where string, id uint, page pagination.PageRequest) (*pagination.PageResponse[models.Fund], error) {
	page.Defaults()

	base := s.db.Model(&models.Fund{}).Where(where, id)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var funds []models.Fund
	if err := base.Order("name ASC").Scopes(pagination.Paginate(page)).
		Find(&funds).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(funds, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// FundNameAvailable reports whether a fund name is free within the given
// parents. Names only collide inside the same company or broker account.
func (s *fundService) FundNameAvailable(name string, companyID, brokerAccountID *uint) (bool, error) {
	query := s.db.Model(&models.Fund{}).Where("name = ?", name)
	switch {
	case companyID != nil && brokerAccountID != nil:
		query = query.Where("company_id = ? OR broker_account_id = ?", *companyID, *brokerAccountID)
	case companyID != nil:
		query = query.Where("company_id = ?", *companyID)
	case brokerAccountID != nil:
		query = query.Where("broker_account_id = ?", *brokerAccountID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count == 0, nil
}

// GetOrCreateFund resolves a broker account's fund by name, creating it on
// first sight. Statement imports name funds after the traded underlying.
func (s *fundService) GetOrCreateFund(tx *gorm.DB, name string, brokerAccountID uint) (*models.Fund, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "fund name is required")
	}

	fund := models.Fund{Name: name, BrokerAccountID: &brokerAccountID}
	if err := tx.Where("name = ? AND broker_account_id = ?", name, brokerAccountID).
		Attrs(models.Fund{Slug: slugify(name)}).
		FirstOrCreate(&fund).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &fund, nil
}
