package application

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	authdomain "github.com/wyfcoding/distributorhub/internal/auth/domain"
	distributorapp "github.com/wyfcoding/distributorhub/internal/distributor/application"
	distributordomain "github.com/wyfcoding/distributorhub/internal/distributor/domain"
	distributorpersistence "github.com/wyfcoding/distributorhub/internal/distributor/infrastructure/persistence"
	notificationdomain "github.com/wyfcoding/distributorhub/internal/notification/domain"
	"github.com/wyfcoding/distributorhub/internal/onboarding/domain"
	"github.com/wyfcoding/distributorhub/internal/onboarding/infrastructure/persistence"
	"github.com/wyfcoding/distributorhub/internal/schema"
	"github.com/wyfcoding/distributorhub/pkg/db"
	"github.com/wyfcoding/distributorhub/pkg/db/dbtest"
)

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

// memoryStore DocumentStore that keeps uploads in memory
type memoryStore struct {
	mu      sync.Mutex
	files   map[string]string
	removed []string
	next    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{files: make(map[string]string)}
}

func (s *memoryStore) Save(ctx context.Context, kind, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	path := fmt.Sprintf("uploads/%d-%s", s.next, filename)
	s.files[path] = string(data)
	return path, nil
}

func (s *memoryStore) Remove(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	s.removed = append(s.removed, path)
	return nil
}

// memoryCache cache.Cache over a map
type memoryCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (c *memoryCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = raw
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
	}
	c.deletes++
	return nil
}

type fixture struct {
	db       *db.DB
	repo     domain.Repository
	accounts distributordomain.AccountRepository
	store    *memoryStore
	cache    *memoryCache
	notifier *recordingNotifier
	intake   *IntakeService
	review   *ReviewService
	query    *QueryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := dbtest.Open(t, schema.Models()...)
	repo := persistence.NewApplicationRepository(database)
	accounts := distributorpersistence.NewAccountRepository(database)
	store := newMemoryStore()
	c := newMemoryCache()
	notifier := &recordingNotifier{}
	provisioner := distributorapp.NewProvisioningService(accounts, plainHasher{}, nil)

	return &fixture{
		db:       database,
		repo:     repo,
		accounts: accounts,
		store:    store,
		cache:    c,
		notifier: notifier,
		intake:   NewIntakeService(repo, store, database, c, nil),
		review:   NewReviewService(repo, provisioner, database, notifier, c, nil, "https://portal.example.com"),
		query:    NewQueryService(repo, authdomain.DefaultPolicy(), c, time.Minute),
	}
}

func request(fullName, email string) SubmitRequest {
	return SubmitRequest{
		PersonalDetails: PersonalDetailsInput{
			FullName:         fullName,
			Email:            email,
			Phone:            "9800000000",
			PermanentAddress: "Kathmandu",
		},
		BusinessDetails: domain.BusinessDetails{CompanyName: "Thapa Traders", DesiredTerritory: "Bagmati"},
		AreaCoverage:    []domain.AreaCoverage{{AreaName: "Kathmandu", RetailerCount: 40}},
	}
}

func (f *fixture) submit(t *testing.T, req SubmitRequest, createdBy *string) *domain.Application {
	t.Helper()
	app, err := f.intake.Submit(context.Background(), SubmitCommand{Request: req, CreatedBy: createdBy})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return app
}

func (f *fixture) transition(t *testing.T, id, status, reviewer string) *TransitionResult {
	t.Helper()
	res, err := f.review.Transition(context.Background(), TransitionCommand{
		ApplicationID: id,
		Status:        status,
		Notes:         "checked by " + reviewer,
		Reviewer:      reviewer,
	})
	if err != nil {
		t.Fatalf("transition to %s: %v", status, err)
	}
	return res
}

func principal(id string, role authdomain.Role) *authdomain.Principal {
	return &authdomain.Principal{UserID: id, Role: role}
}

func distributorFilter() distributordomain.AccountFilter {
	return distributordomain.AccountFilter{Role: authdomain.RoleDistributor}
}
