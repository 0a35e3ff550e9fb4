package domain

import (
	"strings"
	"testing"

	authdomain "github.com/wyfcoding/distributorhub/internal/auth/domain"
)

func TestSplitName(t *testing.T) {
	cases := []struct {
		in, first, last string
	}{
		{"Ram Bahadur Thapa", "Ram", "Bahadur Thapa"},
		{"  Sita   Sharma ", "Sita", "Sharma"},
		{"Madonna", "Madonna", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		first, last := SplitName(tc.in)
		if first != tc.first || last != tc.last {
			t.Fatalf("SplitName(%q) = %q, %q; expected %q, %q", tc.in, first, last, tc.first, tc.last)
		}
	}
}

func TestUsernameFor(t *testing.T) {
	got := UsernameFor("3F2A9C1B-77D0-4E5A-9B1C-0D2E3F4A5B6C")
	if got != "dist_3f2a9c1b77d0" {
		t.Fatalf("unexpected username: %s", got)
	}
	if short := UsernameFor("abc"); short != "dist_abc" {
		t.Fatalf("unexpected username for short id: %s", short)
	}
}

func TestDeliverable(t *testing.T) {
	if Deliverable("") || Deliverable("   ") {
		t.Fatal("empty email must not be deliverable")
	}
	if Deliverable("dist_abc@Distributor.Local") {
		t.Fatal("placeholder email must not be deliverable")
	}
	if !Deliverable("ram@example.com") {
		t.Fatal("expected real email to be deliverable")
	}
}

func TestNewDistributorAccountDefaults(t *testing.T) {
	req := ProvisionRequest{
		ApplicationID: "0a1b2c3d-4e5f-6789-abcd-ef0123456789",
		FullName:      "Ram Bahadur Thapa",
		Phone:         "9800000000",
		CompanyName:   "Thapa Traders",
		Documents:     []ProfileDocument{{Kind: "citizenshipFront", Path: "uploads/a.png"}},
	}
	a := NewDistributorAccount(req, "hash")

	if a.Username != "dist_0a1b2c3d4e5f" {
		t.Fatalf("unexpected username: %s", a.Username)
	}
	if a.Email != "dist_0a1b2c3d4e5f@distributor.local" {
		t.Fatalf("expected placeholder email, got %s", a.Email)
	}
	if a.Role != authdomain.RoleDistributor || !a.IsActive || !a.IsVerified {
		t.Fatalf("unexpected account flags: role=%s active=%v verified=%v", a.Role, a.IsActive, a.IsVerified)
	}
	if a.ApplicationID == nil || *a.ApplicationID != req.ApplicationID {
		t.Fatal("expected application id to be linked")
	}
	if a.Profile == nil || a.Profile.FirstName != "Ram" || a.Profile.LastName != "Bahadur Thapa" {
		t.Fatalf("unexpected profile: %+v", a.Profile)
	}
	if a.Profile.AccountID != a.ID {
		t.Fatal("profile must belong to the account")
	}
	if docs := a.Profile.DocumentMap(); docs["citizenshipFront"] != "uploads/a.png" {
		t.Fatalf("unexpected documents: %v", docs)
	}
}

func TestNewDistributorAccountLowercasesEmail(t *testing.T) {
	a := NewDistributorAccount(ProvisionRequest{ApplicationID: "x", Email: " Ram@Example.COM "}, "hash")
	if a.Email != "ram@example.com" {
		t.Fatalf("unexpected email: %s", a.Email)
	}
	if strings.Contains(a.PasswordHash, "ram") {
		t.Fatal("password hash must come from the caller")
	}
}

func TestAccountToggle(t *testing.T) {
	a := &Account{IsActive: true}
	if err := a.Activate(); err == nil {
		t.Fatal("expected error activating an active account")
	}
	if err := a.Deactivate(); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := a.Deactivate(); err == nil {
		t.Fatal("expected error deactivating an inactive account")
	}
	if err := a.Activate(); err != nil || !a.IsActive {
		t.Fatalf("activate: %v", err)
	}
}
