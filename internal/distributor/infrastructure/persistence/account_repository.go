// Package persistence GORM repositories of the distributor context
package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/wyfcoding/distributorhub/internal/distributor/domain"
	"github.com/wyfcoding/distributorhub/pkg/db"
	"github.com/wyfcoding/distributorhub/pkg/utils"
	"gorm.io/gorm"
)

type accountRepository struct {
	db *db.DB
}

// NewAccountRepository GORM AccountRepository
func NewAccountRepository(database *db.DB) domain.AccountRepository {
	return &accountRepository{db: database}
}

// Create runs inside a savepoint so a constraint violation leaves the enclosing
// transaction usable for a follow-up read.
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	return r.db.Conn(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(account).Error
	})
}

func (r *accountRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.Conn(ctx).
		Preload("Profile").
		Preload("Profile.Documents", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Categories", func(tx *gorm.DB) *gorm.DB { return tx.Order("assigned_at ASC, category_id ASC") })
}

func (r *accountRepository) first(ctx context.Context, query string, args ...any) (*domain.Account, error) {
	var account domain.Account
	err := r.preloaded(ctx).Where(query, args...).First(&account).Error
	if db.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Get(ctx context.Context, id string) (*domain.Account, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *accountRepository) GetByApplicationID(ctx context.Context, applicationID string) (*domain.Account, error) {
	return r.first(ctx, "application_id = ?", applicationID)
}

func (r *accountRepository) GetByLogin(ctx context.Context, identifier string) (*domain.Account, error) {
	identifier = strings.TrimSpace(identifier)
	return r.first(ctx, "username = ? OR email = ?", identifier, strings.ToLower(identifier))
}

func (r *accountRepository) exists(ctx context.Context, column, value, excludeID string) (bool, error) {
	var count int64
	q := r.db.Conn(ctx).Model(&domain.Account{}).Where(column+" = ?", value)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *accountRepository) UsernameTaken(ctx context.Context, username, excludeID string) (bool, error) {
	return r.exists(ctx, "username", username, excludeID)
}

func (r *accountRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	return r.exists(ctx, "email", strings.ToLower(email), excludeID)
}

func (r *accountRepository) UpdateLogin(ctx context.Context, id string, update domain.LoginUpdate) error {
	values := map[string]any{
		"username":   update.Username,
		"email":      strings.ToLower(update.Email),
		"updated_at": time.Now().UTC(),
	}
	if update.PasswordHash != nil {
		values["password_hash"] = *update.PasswordHash
	}
	return r.updates(ctx, id, values)
}

func (r *accountRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.updates(ctx, id, map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
}

func (r *accountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.updates(ctx, id, map[string]any{"last_login_at": at})
}

func (r *accountRepository) updates(ctx context.Context, id string, values map[string]any) error {
	res := r.db.Conn(ctx).Model(&domain.Account{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *accountRepository) ReplaceCategories(ctx context.Context, accountID string, assignments []domain.CategoryAssignment) error {
	conn := r.db.Conn(ctx)
	if err := conn.Where("account_id = ?", accountID).Delete(&domain.CategoryAssignment{}).Error; err != nil {
		return err
	}
	if len(assignments) == 0 {
		return nil
	}
	return conn.Create(&assignments).Error
}

func (r *accountRepository) List(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, int64, error) {
	page, limit := utils.NormalizePage(filter.Page, filter.Limit)

	q := r.db.Conn(ctx).Model(&domain.Account{})
	if filter.Role != "" {
		q = q.Where("accounts.role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		q = q.Where("accounts.is_active = ?", *filter.IsActive)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := utils.ContainsPattern(s)
		q = q.Joins("LEFT JOIN account_profiles ON account_profiles.account_id = accounts.id").
			Where(`(LOWER(accounts.username) LIKE ? ESCAPE '\' OR LOWER(accounts.email) LIKE ? ESCAPE '\' OR LOWER(account_profiles.company_name) LIKE ? ESCAPE '\' OR LOWER(account_profiles.first_name) LIKE ? ESCAPE '\' OR LOWER(account_profiles.last_name) LIKE ? ESCAPE '\')`,
				like, like, like, like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []*domain.Account
	err := q.Select("accounts.*").
		Preload("Profile").
		Preload("Categories").
		Order("accounts.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}
