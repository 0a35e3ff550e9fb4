// Package schema lists every persisted entity of the service.
package schema

import (
	"context"

	catalogdomain "github.com/wyfcoding/distributorhub/internal/catalog/domain"
	distributordomain "github.com/wyfcoding/distributorhub/internal/distributor/domain"
	notificationdomain "github.com/wyfcoding/distributorhub/internal/notification/domain"
	onboardingdomain "github.com/wyfcoding/distributorhub/internal/onboarding/domain"
	"github.com/wyfcoding/distributorhub/pkg/db"
)

// Models in dependency order
func Models() []any {
	return []any{
		&catalogdomain.Category{},
		&catalogdomain.Product{},
		&distributordomain.Account{},
		&distributordomain.Profile{},
		&distributordomain.ProfileDocument{},
		&distributordomain.CategoryAssignment{},
		&onboardingdomain.Application{},
		&onboardingdomain.BusinessTransaction{},
		&onboardingdomain.ProductToDistribute{},
		&onboardingdomain.AreaCoverage{},
		&onboardingdomain.Document{},
		&onboardingdomain.History{},
		&notificationdomain.Notification{},
	}
}

// Migrate creates or updates every table.
func Migrate(ctx context.Context, database *db.DB) error {
	return database.WithContext(ctx).AutoMigrate(Models()...)
}
