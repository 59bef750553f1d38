package models

// Company is a fund issuer (e.g. YieldMax, Defiance) whose published trade
// files are imported on a schedule. A company groups funds for reporting.
type Company struct {
	Base
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string `gorm:"uniqueIndex" json:"slug"`
	Description string `json:"description"`

	Funds []Fund `gorm:"foreignKey:CompanyID" json:"funds,omitempty"`
}
