package domain

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	authdomain "github.com/wyfcoding/distributorhub/internal/auth/domain"
)

const (
	// UsernamePrefix prefix of every generated distributor username
	UsernamePrefix = "dist_"
	// DefaultEmailDomain used when the application carries no email
	DefaultEmailDomain = "distributor.local"
	// GeneratedPasswordLength length of generated passwords
	GeneratedPasswordLength = 12
	// MaskedPassword is returned wherever a password would be shown.
	MaskedPassword = "********"
)

// ProvisionRequest data copied from an approved application into the new account.
type ProvisionRequest struct {
	ApplicationID      string
	FullName           string
	Email              string
	Phone              string
	CompanyName        string
	Address            string
	TaxNumber          string
	RegistrationNumber string
	Territory          string
	Documents          []ProfileDocument
	ApprovedBy         string
}

// ProvisionResult outcome of provisioning. Password is set only when Created is true.
type ProvisionResult struct {
	Account  *Account
	Created  bool
	Password string
}

// UsernameFor derives the username of the account provisioned for an application:
// the prefix followed by the first 12 hex digits of the id with dashes removed.
func UsernameFor(applicationID string) string {
	compact := strings.ToLower(strings.ReplaceAll(applicationID, "-", ""))
	if len(compact) > 12 {
		compact = compact[:12]
	}
	return UsernamePrefix + compact
}

// DefaultEmail placeholder email for applicants that supplied none
func DefaultEmail(username string) string {
	return username + "@" + DefaultEmailDomain
}

// Deliverable reports whether email can reach the address; generated placeholder
// addresses cannot.
func Deliverable(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && !strings.HasSuffix(strings.ToLower(email), "@"+DefaultEmailDomain)
}

// SplitName splits on the first run of whitespace. A single token yields an empty last name.
func SplitName(fullName string) (first, last string) {
	trimmed := strings.TrimSpace(fullName)
	idx := strings.IndexFunc(trimmed, unicode.IsSpace)
	if idx < 0 {
		return trimmed, ""
	}
	return trimmed[:idx], strings.TrimSpace(trimmed[idx:])
}

// NewDistributorAccount builds the account, profile and documents for req. The caller
// supplies the password hash.
func NewDistributorAccount(req ProvisionRequest, passwordHash string) *Account {
	username := UsernameFor(req.ApplicationID)
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = DefaultEmail(username)
	}
	first, last := SplitName(req.FullName)
	appID := req.ApplicationID

	docs := make([]ProfileDocument, 0, len(req.Documents))
	for _, d := range req.Documents {
		docs = append(docs, ProfileDocument{Kind: d.Kind, Path: d.Path})
	}

	id := uuid.NewString()
	return &Account{
		ID:            id,
		Username:      username,
		Email:         strings.ToLower(email),
		PasswordHash:  passwordHash,
		Role:          authdomain.RoleDistributor,
		IsActive:      true,
		IsVerified:    true,
		ApplicationID: &appID,
		Profile: &Profile{
			AccountID:          id,
			FirstName:          first,
			LastName:           last,
			Phone:              req.Phone,
			CompanyName:        req.CompanyName,
			Address:            req.Address,
			TaxNumber:          req.TaxNumber,
			RegistrationNumber: req.RegistrationNumber,
			Territory:          req.Territory,
			Documents:          docs,
		},
	}
}
