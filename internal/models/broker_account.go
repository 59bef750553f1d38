package models

// BrokerCode identifies a supported brokerage.
type BrokerCode string

const (
	BrokerIBKR         BrokerCode = "IBKR" // Interactive Brokers
	BrokerQuestrade    BrokerCode = "QTRD"
	BrokerWealthsimple BrokerCode = "WS"
)

// BrokerAccount is a user's account at one brokerage. A user has at most one
// account per broker.
type BrokerAccount struct {
	Base
	UserID        uint       `gorm:"not null;uniqueIndex:uq_broker_accounts_user_broker" json:"user_id"`
	BrokerCode    BrokerCode `gorm:"size:20;not null;uniqueIndex:uq_broker_accounts_user_broker" json:"broker_code"`
	AccountNumber string     `gorm:"size:50" json:"account_number,omitempty"`
	Slug          string     `json:"slug"`

	User  User   `gorm:"foreignKey:UserID" json:"-"`
	Funds []Fund `gorm:"foreignKey:BrokerAccountID" json:"funds,omitempty"`
}

// DisplayName returns the human-readable broker name.
func (b BrokerCode) DisplayName() string {
	switch b {
	case BrokerIBKR:
		return "Interactive Brokers"
	case BrokerQuestrade:
		return "Questrade"
	case BrokerWealthsimple:
		return "Wealthsimple"
	}
	return string(b)
}
