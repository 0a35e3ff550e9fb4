// Package domain distributor applications and their review history
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	distributordomain "github.com/wyfcoding/distributorhub/internal/distributor/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
)

// Status application lifecycle state
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusUnderReview     Status = "UNDER_REVIEW"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusRequiresChanges Status = "REQUIRES_CHANGES"
)

// CancelNote is recorded on the history entry of a cancelled application.
const CancelNote = "Application cancelled"

// Statuses every status in lifecycle order
func Statuses() []Status {
	return []Status{StatusPending, StatusUnderReview, StatusApproved, StatusRejected, StatusRequiresChanges}
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected, StatusRequiresChanges:
		return true
	}
	return false
}

// ParseStatus accepts any letter case.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.IsValid()
}

// PersonalDetails applicant identity and contact
type PersonalDetails struct {
	FullName         string `gorm:"column:full_name;type:varchar(255);not null" json:"fullName"`
	NationalID       string `gorm:"column:national_id;type:varchar(64);index" json:"citizenshipNumber"`
	DateOfBirth      string `gorm:"column:date_of_birth;type:varchar(32)" json:"dateOfBirth"`
	Gender           string `gorm:"column:gender;type:varchar(16)" json:"gender"`
	Email            string `gorm:"column:email;type:varchar(255);index" json:"email"`
	Phone            string `gorm:"column:phone;type:varchar(32)" json:"phone"`
	PermanentAddress string `gorm:"column:permanent_address;type:varchar(500)" json:"permanentAddress"`
	TemporaryAddress string `gorm:"column:temporary_address;type:varchar(500)" json:"temporaryAddress"`
}

// BusinessDetails the applicant's company
type BusinessDetails struct {
	CompanyName        string `gorm:"column:company_name;type:varchar(255)" json:"companyName"`
	BusinessType       string `gorm:"column:business_type;type:varchar(64)" json:"businessType"`
	RegistrationNumber string `gorm:"column:registration_number;type:varchar(64)" json:"registrationNumber"`
	TaxNumber          string `gorm:"column:tax_number;type:varchar(64)" json:"panVatNumber"`
	OfficeAddress      string `gorm:"column:office_address;type:varchar(500)" json:"officeAddress"`
	DesiredTerritory   string `gorm:"column:desired_territory;type:varchar(255)" json:"desiredTerritory"`
	YearsInBusiness    int    `gorm:"column:years_in_business" json:"yearsInBusiness"`
}

// StaffingDetails staff counts and infrastructure
type StaffingDetails struct {
	SalesStaff        int `gorm:"column:sales_staff" json:"salesStaff"`
	DeliveryStaff     int `gorm:"column:delivery_staff" json:"deliveryStaff"`
	OtherStaff        int `gorm:"column:other_staff" json:"otherStaff"`
	WarehouseAreaSqFt int `gorm:"column:warehouse_area_sqft" json:"warehouseAreaSqFt"`
	VehicleCount      int `gorm:"column:vehicle_count" json:"vehicleCount"`
}

// FinancialDetails declared capacity and banking
type FinancialDetails struct {
	InvestmentCapacity decimal.Decimal `gorm:"column:investment_capacity;type:decimal(18,2)" json:"investmentCapacity"`
	AnnualTurnover     decimal.Decimal `gorm:"column:annual_turnover;type:decimal(18,2)" json:"annualTurnover"`
	BankName           string          `gorm:"column:bank_name;type:varchar(255)" json:"bankName"`
	BankAccountHolder  string          `gorm:"column:bank_account_holder;type:varchar(255)" json:"bankAccountHolder"`
	ExpectedCreditDays int             `gorm:"column:expected_credit_days" json:"expectedCreditDays"`
}

// Declaration agreement flags and signature
type Declaration struct {
	AgreementAccepted   bool   `gorm:"column:agreement_accepted" json:"agreementAccepted"`
	DeclarationAccepted bool   `gorm:"column:declaration_accepted" json:"declarationAccepted"`
	SignatoryName       string `gorm:"column:signatory_name;type:varchar(255)" json:"signatoryName"`
	SignedPlace         string `gorm:"column:signed_place;type:varchar(255)" json:"signedPlace"`
}

// Application distributor onboarding submission
type Application struct {
	ID     string `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Status Status `gorm:"column:status;type:varchar(20);index;not null" json:"status"`

	PersonalDetails PersonalDetails  `gorm:"embedded" json:"personalDetails"`
	BusinessDetails BusinessDetails  `gorm:"embedded" json:"businessDetails"`
	StaffingDetails StaffingDetails  `gorm:"embedded" json:"staffingDetails"`
	Financial       FinancialDetails `gorm:"embedded" json:"financialDetails"`
	Declaration     Declaration      `gorm:"embedded" json:"declaration"`

	CreatedBy   *string    `gorm:"column:created_by;type:varchar(36);index" json:"createdBy"`
	ReviewedBy  *string    `gorm:"column:reviewed_by;type:varchar(36);index" json:"reviewedBy"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at" json:"reviewedAt"`
	ReviewNotes string     `gorm:"column:review_notes;type:text" json:"reviewNotes"`
	CreatedAt   time.Time  `gorm:"column:created_at;index" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updatedAt"`

	BusinessTransactions []BusinessTransaction `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"businessTransactions"`
	ProductsToDistribute []ProductToDistribute `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"productsToDistribute"`
	AreaCoverage         []AreaCoverage        `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"areaCoverage"`
	Documents            []Document            `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"documents"`
	History              []History             `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"history"`
}

func (Application) TableName() string { return "applications" }

// BusinessTransaction prior business relationship of the applicant
type BusinessTransaction struct {
	ID             uint            `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ApplicationID  string          `gorm:"column:application_id;type:varchar(36);index;not null" json:"-"`
	CompanyName    string          `gorm:"column:company_name;type:varchar(255)" json:"companyName"`
	ProductLine    string          `gorm:"column:product_line;type:varchar(255)" json:"productLine"`
	AnnualTurnover decimal.Decimal `gorm:"column:annual_turnover;type:decimal(18,2)" json:"annualTurnover"`
	Years          int             `gorm:"column:years" json:"years"`
}

func (BusinessTransaction) TableName() string { return "application_business_transactions" }

// ProductToDistribute product line the applicant intends to carry
type ProductToDistribute struct {
	ID                    uint            `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ApplicationID         string          `gorm:"column:application_id;type:varchar(36);index;not null" json:"-"`
	ProductName           string          `gorm:"column:product_name;type:varchar(255)" json:"productName"`
	CategoryID            *string         `gorm:"column:category_id;type:varchar(36)" json:"categoryId"`
	ExpectedMonthlyVolume decimal.Decimal `gorm:"column:expected_monthly_volume;type:decimal(18,2)" json:"expectedMonthlyVolume"`
}

func (ProductToDistribute) TableName() string { return "application_products" }

// AreaCoverage market estimate for one area
type AreaCoverage struct {
	ID                 uint            `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ApplicationID      string          `gorm:"column:application_id;type:varchar(36);index;not null" json:"-"`
	AreaName           string          `gorm:"column:area_name;type:varchar(255)" json:"areaName"`
	PopulationEstimate int             `gorm:"column:population_estimate" json:"populationEstimate"`
	RetailerCount      int             `gorm:"column:retailer_count" json:"retailerCount"`
	MonthlyPotential   decimal.Decimal `gorm:"column:monthly_potential;type:decimal(18,2)" json:"monthlyPotential"`
}

func (AreaCoverage) TableName() string { return "application_area_coverage" }

// Document uploaded file reference; Kind is the form field the file arrived under.
type Document struct {
	ID            uint   `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ApplicationID string `gorm:"column:application_id;type:varchar(36);index;not null" json:"-"`
	Kind          string `gorm:"column:kind;type:varchar(64);not null" json:"kind"`
	Path          string `gorm:"column:path;type:varchar(500);not null" json:"path"`
}

func (Document) TableName() string { return "application_documents" }

// History one status change. Rows are only ever inserted.
type History struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ApplicationID string    `gorm:"column:application_id;type:varchar(36);index;not null" json:"-"`
	Status        Status    `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Notes         string    `gorm:"column:notes;type:text" json:"notes"`
	ChangedBy     string    `gorm:"column:changed_by;type:varchar(64)" json:"changedBy"`
	ChangedAt     time.Time `gorm:"column:changed_at;not null" json:"changedAt"`
}

func (History) TableName() string { return "application_history" }

// Submitter recorded as the author of the initial history entry of public submissions
const Submitter = "applicant"

// Open marks a new application PENDING and records the initial history entry.
func (a *Application) Open(id string, createdBy *string, at time.Time) {
	a.ID = id
	a.Status = StatusPending
	a.CreatedBy = createdBy
	a.CreatedAt = at
	a.UpdatedAt = at
	changedBy := Submitter
	if createdBy != nil {
		changedBy = *createdBy
	}
	a.History = []History{{
		ApplicationID: id,
		Status:        StatusPending,
		Notes:         "Application submitted",
		ChangedBy:     changedBy,
		ChangedAt:     at,
	}}
}

// Review records a decision. It returns the history entry to append, or nil when the
// status is unchanged, in which case only the notes and reviewer are refreshed.
func (a *Application) Review(status Status, notes, reviewer string, at time.Time) *History {
	changed := a.Status != status
	a.Status = status
	a.ReviewNotes = notes
	a.ReviewedBy = &reviewer
	a.ReviewedAt = &at
	a.UpdatedAt = at
	if !changed {
		return nil
	}
	return &History{
		ApplicationID: a.ID,
		Status:        status,
		Notes:         notes,
		ChangedBy:     reviewer,
		ChangedAt:     at,
	}
}

// CheckCancel only PENDING applications can be cancelled.
func (a *Application) CheckCancel() error {
	if a.Status != StatusPending {
		return apperr.InvalidState("only pending applications can be cancelled; current status is " + string(a.Status))
	}
	return nil
}

// VisibleTo reports whether the application was created or reviewed by userID.
func (a *Application) VisibleTo(userID string) bool {
	return (a.CreatedBy != nil && *a.CreatedBy == userID) || (a.ReviewedBy != nil && *a.ReviewedBy == userID)
}

// ToProvisionRequest copies the fields the distributor account is built from.
func (a *Application) ToProvisionRequest(approvedBy string) distributordomain.ProvisionRequest {
	address := a.BusinessDetails.OfficeAddress
	if address == "" {
		address = a.PersonalDetails.PermanentAddress
	}
	docs := make([]distributordomain.ProfileDocument, 0, len(a.Documents))
	for _, d := range a.Documents {
		docs = append(docs, distributordomain.ProfileDocument{Kind: d.Kind, Path: d.Path})
	}
	return distributordomain.ProvisionRequest{
		ApplicationID:      a.ID,
		FullName:           a.PersonalDetails.FullName,
		Email:              a.PersonalDetails.Email,
		Phone:              a.PersonalDetails.Phone,
		CompanyName:        a.BusinessDetails.CompanyName,
		Address:            address,
		TaxNumber:          a.BusinessDetails.TaxNumber,
		RegistrationNumber: a.BusinessDetails.RegistrationNumber,
		Territory:          a.BusinessDetails.DesiredTerritory,
		Documents:          docs,
		ApprovedBy:         approvedBy,
	}
}
