package application

import (
	"context"
	"testing"
	"time"

	authdomain "github.com/wyfcoding/distributorhub/internal/auth/domain"
	"github.com/wyfcoding/distributorhub/internal/onboarding/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
)

func TestSalesRepSeesOnlyOwnApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := "rep-1"
	own := f.submit(t, request("Own Lead", ""), &rep)
	public := f.submit(t, request("Walk In", ""), nil)

	apps, total, err := f.query.List(ctx, principal(rep, authdomain.RoleSalesRep), domain.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(apps) != 1 || apps[0].ID != own.ID {
		t.Fatalf("expected only own application, got total=%d", total)
	}
	if _, err := f.query.Get(ctx, principal(rep, authdomain.RoleSalesRep), public.ID); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("expected out-of-scope read to be not found, got %v", err)
	}

	_, total, err = f.query.List(ctx, principal("admin-1", authdomain.RoleAdmin), domain.ListFilter{})
	if err != nil || total != 2 {
		t.Fatalf("expected admin to see both, got %d (%v)", total, err)
	}
}

func TestReviewedApplicationBecomesVisibleToReviewer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.submit(t, request("Walk In", ""), nil)
	f.transition(t, app.ID, "UNDER_REVIEW", "rep-2")

	got, err := f.query.Get(ctx, principal("rep-2", authdomain.RoleSalesRep), app.ID)
	if err != nil || got.ID != app.ID {
		t.Fatalf("expected reviewer to read the application, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := principal("admin-1", authdomain.RoleAdmin)
	a := f.submit(t, request("Ram Bahadur Thapa", "ram@example.com"), nil)
	f.submit(t, request("Sita Sharma", "sita@example.com"), nil)
	f.transition(t, a.ID, "REJECTED", "admin-1")

	apps, total, err := f.query.List(ctx, admin, domain.ListFilter{Status: domain.StatusRejected})
	if err != nil || total != 1 || apps[0].ID != a.ID {
		t.Fatalf("expected status filter to match one, got %d (%v)", total, err)
	}
	_, total, err = f.query.List(ctx, admin, domain.ListFilter{Search: "SHARMA"})
	if err != nil || total != 1 {
		t.Fatalf("expected case-insensitive search to match one, got %d (%v)", total, err)
	}

	future := time.Now().UTC().Add(24 * time.Hour)
	_, total, err = f.query.List(ctx, admin, domain.ListFilter{From: &future})
	if err != nil || total != 0 {
		t.Fatalf("expected no applications after tomorrow, got %d (%v)", total, err)
	}
}

func TestListSearchTreatsWildcardsLiterally(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := principal("admin-1", authdomain.RoleAdmin)
	req := request("Hari Karki", "hari@example.com")
	req.BusinessDetails.CompanyName = "Best_Deals 100%"
	deals := f.submit(t, req, nil)
	f.submit(t, request("Sita Sharma", "sita@example.com"), nil)

	for _, search := range []string{"%", "_", "0%"} {
		apps, total, err := f.query.List(ctx, admin, domain.ListFilter{Search: search})
		if err != nil || total != 1 || apps[0].ID != deals.ID {
			t.Fatalf("search %q: expected only the literal match, got %d (%v)", search, total, err)
		}
	}
	if _, total, err := f.query.List(ctx, admin, domain.ListFilter{Search: `\`}); err != nil || total != 0 {
		t.Fatalf("expected a backslash to match nothing, got %d (%v)", total, err)
	}
}

func TestListRejectsBadFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := principal("admin-1", authdomain.RoleAdmin)

	if _, _, err := f.query.List(ctx, admin, domain.ListFilter{Status: "ARCHIVED"}); !apperr.Is(err, apperr.CodeValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
	from := time.Now().UTC()
	to := from.Add(-time.Hour)
	if _, _, err := f.query.List(ctx, admin, domain.ListFilter{From: &from, To: &to}); !apperr.Is(err, apperr.CodeValidation) {
		t.Fatalf("expected validation error for inverted range, got %v", err)
	}
	if _, _, err := f.query.List(ctx, nil, domain.ListFilter{}); !apperr.Is(err, apperr.CodeUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestStatsCachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.submit(t, request("Ram Bahadur Thapa", ""), nil)
	f.submit(t, request("Sita Sharma", ""), nil)
	f.transition(t, a.ID, "APPROVED", "admin-1")

	stats, err := f.query.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.ByStatus[domain.StatusApproved] != 1 || stats.ByStatus[domain.StatusPending] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if last := stats.Monthly[len(stats.Monthly)-1]; last.Count != 2 {
		t.Fatalf("expected both applications in the current month, got %+v", last)
	}
	if _, ok := f.cache.values[StatsCacheKey]; !ok {
		t.Fatal("expected stats to be cached")
	}

	f.submit(t, request("Hari Prasad", ""), nil)
	if _, ok := f.cache.values[StatsCacheKey]; ok {
		t.Fatal("expected submission to invalidate cached stats")
	}
	stats, err = f.query.Stats(ctx)
	if err != nil || stats.Total != 3 {
		t.Fatalf("expected fresh stats after invalidation, got %+v (%v)", stats, err)
	}
}
