package application

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/wyfcoding/distributorhub/internal/distributor/domain"
	"github.com/wyfcoding/distributorhub/internal/distributor/infrastructure/persistence"
	notificationdomain "github.com/wyfcoding/distributorhub/internal/notification/domain"
	"github.com/wyfcoding/distributorhub/internal/schema"
	"github.com/wyfcoding/distributorhub/pkg/db"
	"github.com/wyfcoding/distributorhub/pkg/db/dbtest"
)

// plainHasher keeps tests fast; bcrypt is covered in pkg/security.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }
func (plainHasher) Compare(hash, password string) bool  { return hash == "plain:"+password }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notificationdomain.Message
}

func (n *recordingNotifier) Notify(ctx context.Context, msg notificationdomain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) messages() []notificationdomain.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notificationdomain.Message(nil), n.sent...)
}

type fakeCategories map[string]domain.CategoryRef

func (f fakeCategories) Lookup(ctx context.Context, ids []string) ([]domain.CategoryRef, error) {
	out := make([]domain.CategoryRef, 0, len(ids))
	for _, id := range ids {
		if ref, ok := f[id]; ok {
			out = append(out, ref)
		}
	}
	return out, nil
}

type fixture struct {
	db       *db.DB
	repo     domain.AccountRepository
	notifier *recordingNotifier
	provis   *ProvisioningService
	cmd      *AccountCommandService
	query    *AccountQueryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := dbtest.Open(t, schema.Models()...)
	repo := persistence.NewAccountRepository(database)
	categories := fakeCategories{
		"cat-1": {ID: "cat-1", Title: "Beverages", Slug: "beverages", IsActive: true},
		"cat-2": {ID: "cat-2", Title: "Snacks", Slug: "snacks", IsActive: true},
	}
	notifier := &recordingNotifier{}
	return &fixture{
		db:       database,
		repo:     repo,
		notifier: notifier,
		provis:   NewProvisioningService(repo, plainHasher{}, nil),
		cmd:      NewAccountCommandService(repo, categories, plainHasher{}, database, notifier, nil, "https://portal.example.com"),
		query:    NewAccountQueryService(repo, categories),
	}
}

func (f *fixture) provision(t *testing.T, applicationID, email string) *domain.ProvisionResult {
	t.Helper()
	res, err := f.provis.Provision(context.Background(), domain.ProvisionRequest{
		ApplicationID: applicationID,
		FullName:      "Ram Bahadur Thapa",
		Email:         email,
		CompanyName:   "Thapa Traders",
	})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	return res
}

func newApplicationID(n int) string {
	return strings.Repeat(string(rune('a'+n)), 8) + "-0000-4000-8000-000000000000"
}
