// Package domain distributor accounts, their profiles and category assignments
package domain

import (
	"time"

	authdomain "github.com/wyfcoding/distributorhub/internal/auth/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
)

// Account login identity. Staff accounts share the table with provisioned distributors.
type Account struct {
	ID            string          `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Username      string          `gorm:"column:username;type:varchar(64);uniqueIndex;not null" json:"username"`
	Email         string          `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash  string          `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Role          authdomain.Role `gorm:"column:role;type:varchar(20);index;not null" json:"role"`
	IsActive      bool            `gorm:"column:is_active;not null" json:"isActive"`
	IsVerified    bool            `gorm:"column:is_verified;not null" json:"isVerified"`
	ApplicationID *string         `gorm:"column:application_id;type:varchar(36);uniqueIndex" json:"applicationId,omitempty"`
	LastLoginAt   *time.Time      `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updatedAt"`

	Profile    *Profile             `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	Categories []CategoryAssignment `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
}

func (Account) TableName() string { return "accounts" }

// IsDistributor reports whether the account was provisioned for a distributor.
func (a *Account) IsDistributor() bool {
	return a.Role == authdomain.RoleDistributor
}

// Activate fails when the account is already active.
func (a *Account) Activate() error {
	if a.IsActive {
		return apperr.InvalidState("account is already active")
	}
	a.IsActive = true
	return nil
}

// Deactivate fails when the account is already inactive.
func (a *Account) Deactivate() error {
	if !a.IsActive {
		return apperr.InvalidState("account is already inactive")
	}
	a.IsActive = false
	return nil
}

// CategoryIDs ids of the assigned categories
func (a *Account) CategoryIDs() []string {
	ids := make([]string, 0, len(a.Categories))
	for _, c := range a.Categories {
		ids = append(ids, c.CategoryID)
	}
	return ids
}

// Profile company and contact details, one per account
type Profile struct {
	ID                 uint   `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	AccountID          string `gorm:"column:account_id;type:varchar(36);uniqueIndex;not null" json:"-"`
	FirstName          string `gorm:"column:first_name;type:varchar(100)" json:"firstName"`
	LastName           string `gorm:"column:last_name;type:varchar(100)" json:"lastName"`
	Phone              string `gorm:"column:phone;type:varchar(32)" json:"phone"`
	CompanyName        string `gorm:"column:company_name;type:varchar(255)" json:"companyName"`
	Address            string `gorm:"column:address;type:varchar(500)" json:"address"`
	TaxNumber          string `gorm:"column:tax_number;type:varchar(64)" json:"panVatNumber"`
	RegistrationNumber string `gorm:"column:registration_number;type:varchar(64)" json:"registrationNumber"`
	Territory          string `gorm:"column:territory;type:varchar(255)" json:"territory"`

	Documents []ProfileDocument `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Profile) TableName() string { return "account_profiles" }

// DocumentMap renders documents as kind -> path. Later entries of the same kind win.
func (p *Profile) DocumentMap() map[string]string {
	m := make(map[string]string, len(p.Documents))
	for _, d := range p.Documents {
		m[d.Kind] = d.Path
	}
	return m
}

// ProfileDocument uploaded document reference copied from the application
type ProfileDocument struct {
	ID        uint   `gorm:"column:id;primaryKey;autoIncrement"`
	ProfileID uint   `gorm:"column:profile_id;index;not null"`
	Kind      string `gorm:"column:kind;type:varchar(64);not null"`
	Path      string `gorm:"column:path;type:varchar(500);not null"`
}

func (ProfileDocument) TableName() string { return "account_profile_documents" }

// CategoryAssignment grants an account visibility into a product category.
type CategoryAssignment struct {
	AccountID  string    `gorm:"column:account_id;type:varchar(36);primaryKey" json:"-"`
	CategoryID string    `gorm:"column:category_id;type:varchar(36);primaryKey;index" json:"categoryId"`
	AssignedBy string    `gorm:"column:assigned_by;type:varchar(36)" json:"assignedBy"`
	AssignedAt time.Time `gorm:"column:assigned_at" json:"assignedAt"`
}

func (CategoryAssignment) TableName() string { return "account_categories" }
