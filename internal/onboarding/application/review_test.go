package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	distributorapp "github.com/wyfcoding/distributorhub/internal/distributor/application"
	"github.com/wyfcoding/distributorhub/internal/onboarding/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"gorm.io/gorm"
)

func TestApproveWithoutEmailProvisionsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submit(t, request("Ram Bahadur Thapa", ""), nil)

	first := f.transition(t, app.ID, "APPROVED", "manager-1")
	if !first.Created || first.Account == nil || first.Password == "" {
		t.Fatalf("expected account creation, got %+v", first)
	}
	acc := first.Account
	if !strings.HasPrefix(acc.Username, "dist_") || acc.Email != acc.Username+"@distributor.local" {
		t.Fatalf("unexpected generated login: %s %s", acc.Username, acc.Email)
	}
	if acc.Profile == nil || acc.Profile.FirstName != "Ram" || acc.Profile.LastName != "Bahadur Thapa" {
		t.Fatalf("unexpected profile: %+v", acc.Profile)
	}
	if acc.Profile.Address != "Kathmandu" || acc.Profile.CompanyName != "Thapa Traders" {
		t.Fatalf("expected business fields copied, got %+v", acc.Profile)
	}

	second := f.transition(t, app.ID, "approved", "manager-2")
	if second.Created || second.Password != "" || second.Account.ID != acc.ID {
		t.Fatalf("expected re-approval to reuse the account, got %+v", second)
	}

	stored, err := f.repo.Get(ctx, app.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(stored.History))
	}
	if stored.History[0].Status != domain.StatusPending || stored.History[1].Status != domain.StatusApproved {
		t.Fatalf("unexpected history order: %s, %s", stored.History[0].Status, stored.History[1].Status)
	}
	if stored.ReviewedBy == nil || *stored.ReviewedBy != "manager-2" {
		t.Fatal("expected latest reviewer to be recorded")
	}

	if msgs := f.notifier.messages(); len(msgs) != 0 {
		t.Fatalf("expected no email to a placeholder address, got %d", len(msgs))
	}
}

func TestApproveNotifiesCredentialsOnlyOnCreation(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, request("Sita Sharma", "sita@example.com"), nil)

	first := f.transition(t, app.ID, "APPROVED", "manager-1")
	f.transition(t, app.ID, "APPROVED", "manager-1")

	msgs := f.notifier.messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 approval emails, got %d", len(msgs))
	}
	if msgs[0].Recipient != "sita@example.com" || !strings.Contains(msgs[0].Body, first.Password) {
		t.Fatalf("expected first email to carry credentials, got %+v", msgs[0])
	}
	if strings.Contains(msgs[1].Body, "Password:") {
		t.Fatal("re-approval email must not carry credentials")
	}
}

func TestTransitionHistoryFollowsChanges(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, request("Sita Sharma", "sita@example.com"), nil)

	f.transition(t, app.ID, "UNDER_REVIEW", "rev-1")
	f.transition(t, app.ID, "UNDER_REVIEW", "rev-1")
	res := f.transition(t, app.ID, "REQUIRES_CHANGES", "rev-1")
	if res.Account != nil {
		t.Fatal("non-approval transitions must not provision")
	}

	stored, err := f.repo.Get(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := []domain.Status{domain.StatusPending, domain.StatusUnderReview, domain.StatusRequiresChanges}
	if len(stored.History) != len(want) {
		t.Fatalf("expected %d history entries, got %d", len(want), len(stored.History))
	}
	for i, s := range want {
		if stored.History[i].Status != s {
			t.Fatalf("history[%d] = %s, expected %s", i, stored.History[i].Status, s)
		}
	}

	msgs := f.notifier.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].Subject, "needs changes") {
		t.Fatalf("expected one change-request email, got %+v", msgs)
	}
}

func TestTransitionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submit(t, request("Sita Sharma", ""), nil)

	_, err := f.review.Transition(ctx, TransitionCommand{ApplicationID: app.ID, Status: "ARCHIVED", Reviewer: "r"})
	if !apperr.Is(err, apperr.CodeValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
	_, err = f.review.Transition(ctx, TransitionCommand{ApplicationID: app.ID, Status: "APPROVED"})
	if !apperr.Is(err, apperr.CodeUnauthenticated) {
		t.Fatalf("expected unauthenticated without reviewer, got %v", err)
	}
	_, err = f.review.Transition(ctx, TransitionCommand{ApplicationID: "missing", Status: "APPROVED", Reviewer: "r"})
	if !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, total, _ := f.accounts.List(ctx, distributorFilter()); total != 0 {
		t.Fatalf("failed transitions must not provision, got %d accounts", total)
	}
}

func TestApprovalRollsBackAccountWhenHistoryFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submit(t, request("Ram Bahadur Thapa", "ram@example.com"), nil)

	failHistory := func(tx *gorm.DB) {
		if tx.Statement.Table == "application_history" {
			_ = tx.AddError(errors.New("boom"))
		}
	}
	if err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_history", failHistory); err != nil {
		t.Fatalf("register callback: %v", err)
	}

	_, err := f.review.Transition(ctx, TransitionCommand{ApplicationID: app.ID, Status: "APPROVED", Reviewer: "manager-1"})
	if err == nil {
		t.Fatal("expected approval to fail")
	}
	if _, total, _ := f.accounts.List(ctx, distributorFilter()); total != 0 {
		t.Fatalf("expected the provisioned account to be rolled back, got %d accounts", total)
	}
	stored, err := f.repo.Get(ctx, app.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != domain.StatusPending || stored.ReviewedBy != nil {
		t.Fatalf("expected status change to be rolled back, got %s", stored.Status)
	}
	if len(stored.History) != 1 {
		t.Fatalf("expected only the submission history entry, got %d", len(stored.History))
	}
	if msgs := f.notifier.messages(); len(msgs) != 0 {
		t.Fatalf("expected no email for a failed approval, got %d", len(msgs))
	}
}

// lockRecordingRepo records which applications were read with a row lock.
type lockRecordingRepo struct {
	domain.Repository
	locked []string
}

func (r *lockRecordingRepo) GetForUpdate(ctx context.Context, id string) (*domain.Application, error) {
	r.locked = append(r.locked, id)
	return r.Repository.GetForUpdate(ctx, id)
}

func TestTransitionLocksApplicationRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submit(t, request("Sita Sharma", ""), nil)

	repo := &lockRecordingRepo{Repository: f.repo}
	provisioner := distributorapp.NewProvisioningService(f.accounts, plainHasher{}, nil)
	review := NewReviewService(repo, provisioner, f.db, f.notifier, f.cache, nil, "https://portal.example.com")

	for _, reviewer := range []string{"manager-1", "manager-2"} {
		if _, err := review.Transition(ctx, TransitionCommand{ApplicationID: app.ID, Status: "APPROVED", Reviewer: reviewer}); err != nil {
			t.Fatalf("approve by %s: %v", reviewer, err)
		}
	}
	if len(repo.locked) != 2 || repo.locked[0] != app.ID || repo.locked[1] != app.ID {
		t.Fatalf("expected every transition to read with a lock, got %v", repo.locked)
	}
	stored, err := f.repo.Get(ctx, app.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.History) != 2 {
		t.Fatalf("expected a single APPROVED entry after two approvals, got %d entries", len(stored.History))
	}

	err = f.db.Transaction(ctx, func(txCtx context.Context) error {
		locked, err := f.repo.GetForUpdate(txCtx, app.ID)
		if err != nil {
			return err
		}
		if locked == nil || locked.Status != domain.StatusApproved || len(locked.History) != 2 {
			t.Fatalf("expected the full aggregate under lock, got %+v", locked)
		}
		missing, err := f.repo.GetForUpdate(txCtx, "missing")
		if err != nil || missing != nil {
			t.Fatalf("expected nil for a missing application, got %v (%v)", missing, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestCancelOnlyWhilePending(t *testing.T) {
	for _, target := range domain.Statuses() {
		t.Run(string(target), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			app := f.submit(t, request("Sita Sharma", "sita@example.com"), nil)
			if target != domain.StatusPending {
				f.transition(t, app.ID, string(target), "rev-1")
			}
			before, _ := f.repo.Get(ctx, app.ID)
			sentBefore := len(f.notifier.messages())

			cancelled, err := f.review.Cancel(ctx, app.ID, "rev-2")
			if target != domain.StatusPending {
				if !apperr.Is(err, apperr.CodeInvalidState) {
					t.Fatalf("expected invalid state, got %v", err)
				}
				after, _ := f.repo.Get(ctx, app.ID)
				if after.Status != before.Status || len(after.History) != len(before.History) {
					t.Fatal("rejected cancel must leave the application untouched")
				}
				return
			}

			if err != nil {
				t.Fatalf("cancel: %v", err)
			}
			if cancelled.Status != domain.StatusRejected || cancelled.ReviewNotes != domain.CancelNote {
				t.Fatalf("unexpected cancelled application: %s %q", cancelled.Status, cancelled.ReviewNotes)
			}
			after, _ := f.repo.Get(ctx, app.ID)
			last := after.History[len(after.History)-1]
			if last.Status != domain.StatusRejected || last.Notes != domain.CancelNote || last.ChangedBy != "rev-2" {
				t.Fatalf("unexpected cancel history: %+v", last)
			}
			if len(f.notifier.messages()) != sentBefore {
				t.Fatal("cancel must not notify the applicant")
			}
		})
	}
}

func TestCancelMissingApplication(t *testing.T) {
	f := newFixture(t)
	if _, err := f.review.Cancel(context.Background(), "missing", "rev-1"); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
