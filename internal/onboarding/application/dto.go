package application

import (
	"sort"
	"strings"

	"github.com/wyfcoding/distributorhub/internal/onboarding/domain"
)

// PersonalDetailsInput personal section of a submission
type PersonalDetailsInput struct {
	FullName          string `json:"fullName" binding:"required,max=255"`
	CitizenshipNumber string `json:"citizenshipNumber" binding:"max=64"`
	DateOfBirth       string `json:"dateOfBirth" binding:"max=32"`
	Gender            string `json:"gender" binding:"max=16"`
	Email             string `json:"email" binding:"omitempty,email,max=255"`
	Phone             string `json:"phone" binding:"max=32"`
	PermanentAddress  string `json:"permanentAddress" binding:"max=500"`
	TemporaryAddress  string `json:"temporaryAddress" binding:"max=500"`
}

// SubmitRequest application payload as posted by the applicant
type SubmitRequest struct {
	PersonalDetails      PersonalDetailsInput         `json:"personalDetails"`
	BusinessDetails      domain.BusinessDetails       `json:"businessDetails"`
	StaffingDetails      domain.StaffingDetails       `json:"staffingDetails"`
	FinancialDetails     domain.FinancialDetails      `json:"financialDetails"`
	Declaration          domain.Declaration           `json:"declaration"`
	BusinessTransactions []domain.BusinessTransaction `json:"businessTransactions"`
	ProductsToDistribute []domain.ProductToDistribute `json:"productsToDistribute"`
	AreaCoverage         []domain.AreaCoverage        `json:"areaCoverage"`
	// Documents references to files stored elsewhere, keyed by kind.
	Documents map[string]string `json:"documents"`
}

func (r *SubmitRequest) toDomain() *domain.Application {
	p := r.PersonalDetails
	app := &domain.Application{
		PersonalDetails: domain.PersonalDetails{
			FullName:         strings.TrimSpace(p.FullName),
			NationalID:       strings.TrimSpace(p.CitizenshipNumber),
			DateOfBirth:      p.DateOfBirth,
			Gender:           p.Gender,
			Email:            strings.ToLower(strings.TrimSpace(p.Email)),
			Phone:            strings.TrimSpace(p.Phone),
			PermanentAddress: p.PermanentAddress,
			TemporaryAddress: p.TemporaryAddress,
		},
		BusinessDetails: r.BusinessDetails,
		StaffingDetails: r.StaffingDetails,
		Financial:       r.FinancialDetails,
		Declaration:     r.Declaration,
	}
	app.BusinessTransactions = append([]domain.BusinessTransaction{}, r.BusinessTransactions...)
	app.ProductsToDistribute = append([]domain.ProductToDistribute{}, r.ProductsToDistribute...)
	app.AreaCoverage = append([]domain.AreaCoverage{}, r.AreaCoverage...)

	kinds := make([]string, 0, len(r.Documents))
	for kind := range r.Documents {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	app.Documents = make([]domain.Document, 0, len(kinds))
	for _, kind := range kinds {
		if path := strings.TrimSpace(r.Documents[kind]); path != "" {
			app.Documents = append(app.Documents, domain.Document{Kind: kind, Path: path})
		}
	}
	return app
}
