package models

import (
	"time"
)

// Certificate mirrors coa.coa_certificates. The certificate document is kept
// both as json text and as jsonb.
type Certificate struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	SaveDate     time.Time `json:"saveDate" gorm:"column:save_date;type:date;not null"`
	UserLDAP     string    `json:"user" gorm:"column:user_ldap;type:text;not null;index"`
	Certificate  string    `json:"certificateAsJson" gorm:"column:certificate;type:json"`
	CertificateB string    `json:"certificateAsJsonBinary" gorm:"column:certificateb;type:jsonb"`
}

func (Certificate) TableName() string {
	return "coa.coa_certificates"
}
