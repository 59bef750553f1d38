package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/models"
)

// validBrokerCodes is the closed set of brokerages the system understands.
var validBrokerCodes = map[models.BrokerCode]bool{
	models.BrokerIBKR:         true,
	models.BrokerQuestrade:    true,
	models.BrokerWealthsimple: true,
}

// brokerService handles broker account business logic.
type brokerService struct {
	db *gorm.DB
}

// NewBrokerService creates a new BrokerServicer.
func NewBrokerService(db *gorm.DB) BrokerServicer {
	return &brokerService{db: db}
}

// CreateBrokerAccount registers a brokerage account for a user. A user has
// at most one account per broker code.
func (s *brokerService) CreateBrokerAccount(userID uint, code models.BrokerCode, accountNumber string) (*models.BrokerAccount, error) {
	if !validBrokerCodes[code] {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown broker code")
	}

	var count int64
	s.db.Model(&models.BrokerAccount{}).
		Where("user_id = ? AND broker_code = ?", userID, code).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateBroker
	}

	account := &models.BrokerAccount{
		UserID:        userID,
		BrokerCode:    code,
		AccountNumber: accountNumber,
		Slug:          strings.ToLower(string(code)),
	}
	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// GetUserBrokerAccounts lists all broker accounts belonging to a user.
func (s *brokerService) GetUserBrokerAccounts(userID uint) ([]models.BrokerAccount, error) {
	var accounts []models.BrokerAccount
	if err := s.db.Where("user_id = ?", userID).Order("broker_code ASC").
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// GetBrokerAccountByID retrieves one broker account, scoped to its owner.
func (s *brokerService) GetBrokerAccountByID(userID, brokerAccountID uint) (*models.BrokerAccount, error) {
	var account models.BrokerAccount
	err := s.db.Where("id = ? AND user_id = ?", brokerAccountID, userID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBrokerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// GetOrCreateBrokerAccount resolves the user's account for a broker code,
// creating it on first sight. Statement imports use this so a first IBKR
// import does not require manual account setup.
func (s *brokerService) GetOrCreateBrokerAccount(tx *gorm.DB, userID uint, code models.BrokerCode) (*models.BrokerAccount, error) {
	if !validBrokerCodes[code] {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown broker code")
	}

	account := models.BrokerAccount{UserID: userID, BrokerCode: code}
	if err := tx.Where("user_id = ? AND broker_code = ?", userID, code).
		Attrs(models.BrokerAccount{Slug: strings.ToLower(string(code))}).
		FirstOrCreate(&account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}
