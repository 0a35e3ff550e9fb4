package application

import (
	"context"
	"strings"
	"sync"
	"testing"

	authdomain "github.com/wyfcoding/distributorhub/internal/auth/domain"
	"github.com/wyfcoding/distributorhub/internal/distributor/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
)

func TestProvisionCreatesAccountOnce(t *testing.T) {
	f := newFixture(t)
	appID := newApplicationID(0)

	first := f.provision(t, appID, "")
	if !first.Created {
		t.Fatal("expected first call to create the account")
	}
	if len(first.Password) != domain.GeneratedPasswordLength {
		t.Fatalf("expected %d character password, got %q", domain.GeneratedPasswordLength, first.Password)
	}
	if first.Account.PasswordHash != "plain:"+first.Password {
		t.Fatal("expected stored hash of the generated password")
	}
	if first.Account.Email != first.Account.Username+"@distributor.local" {
		t.Fatalf("unexpected placeholder email: %s", first.Account.Email)
	}

	second := f.provision(t, appID, "")
	if second.Created || second.Password != "" {
		t.Fatal("expected second call to return the existing account without a password")
	}
	if second.Account.ID != first.Account.ID {
		t.Fatalf("expected same account, got %s and %s", first.Account.ID, second.Account.ID)
	}

	stored, err := f.repo.GetByApplicationID(context.Background(), appID)
	if err != nil {
		t.Fatalf("get by application: %v", err)
	}
	if stored.Profile == nil || stored.Profile.FirstName != "Ram" || stored.Profile.LastName != "Bahadur Thapa" {
		t.Fatalf("unexpected stored profile: %+v", stored.Profile)
	}
}

func TestProvisionConcurrentCallsYieldOneAccount(t *testing.T) {
	f := newFixture(t)
	appID := newApplicationID(1)

	const callers = 4
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = make(map[string]struct{})
		errs    []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.provis.Provision(context.Background(), domain.ProvisionRequest{
				ApplicationID: appID,
				FullName:      "Sita Sharma",
				Email:         "sita@example.com",
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if res.Created {
				created++
			}
			ids[res.Account.ID] = struct{}{}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if created != 1 {
		t.Fatalf("expected exactly one creation, got %d", created)
	}
	if len(ids) != 1 {
		t.Fatalf("expected every caller to see the same account, got %d ids", len(ids))
	}
}

func TestProvisionRejectsEmailOfAnotherAccount(t *testing.T) {
	f := newFixture(t)
	f.provision(t, newApplicationID(2), "shared@example.com")

	_, err := f.provis.Provision(context.Background(), domain.ProvisionRequest{
		ApplicationID: newApplicationID(3),
		FullName:      "Other Person",
		Email:         "Shared@Example.com",
	})
	if !apperr.Is(err, apperr.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestProvisionRequiresApplicationID(t *testing.T) {
	f := newFixture(t)
	if _, err := f.provis.Provision(context.Background(), domain.ProvisionRequest{FullName: "X"}); !apperr.Is(err, apperr.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProvisionSuffixesUsernameHeldByAnotherAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appID := newApplicationID(4)
	derived := domain.UsernameFor(appID)
	if err := f.repo.Create(ctx, &domain.Account{ID: "squatter", Username: derived, Email: "squatter@example.com", PasswordHash: "x", Role: authdomain.RoleAdmin}); err != nil {
		t.Fatalf("create squatter: %v", err)
	}

	res := f.provision(t, appID, "")
	if !res.Created {
		t.Fatal("expected the account to be created")
	}
	acc := res.Account
	if !strings.HasPrefix(acc.Username, derived+"_") || len(acc.Username) != len(derived)+5 {
		t.Fatalf("expected a suffixed username, got %s", acc.Username)
	}
	if acc.Email != domain.DefaultEmail(acc.Username) {
		t.Fatalf("expected placeholder email to follow the username, got %s", acc.Email)
	}

	again := f.provision(t, appID, "")
	if again.Created || again.Account.ID != acc.ID {
		t.Fatalf("expected re-provisioning to return the suffixed account, got %+v", again)
	}
}

func TestProvisionGivesUpWhenSuffixesAreTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appID := newApplicationID(5)
	derived := domain.UsernameFor(appID)
	for i, username := range []string{derived, derived + "_beef"} {
		acc := &domain.Account{ID: newApplicationID(10 + i), Username: username, Email: username + "@example.com", PasswordHash: "x", Role: authdomain.RoleAdmin}
		if err := f.repo.Create(ctx, acc); err != nil {
			t.Fatalf("create %s: %v", username, err)
		}
	}
	f.provis.suffixes = func() (string, error) { return "beef", nil }

	_, err := f.provis.Provision(ctx, domain.ProvisionRequest{ApplicationID: appID, FullName: "Hari Karki"})
	if !apperr.Is(err, apperr.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if existing, _ := f.repo.GetByApplicationID(ctx, appID); existing != nil {
		t.Fatal("expected no account for the application")
	}
}
