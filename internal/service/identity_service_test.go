package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/admin-api/internal/models"
)

type userDirectoryStub struct {
	byID       map[string]*models.UserRecord
	byEmail    map[string]*models.UserRecord
	idCalls    int
	emailCalls int
}

func (s *userDirectoryStub) FindByID(_ context.Context, id string) (*models.UserRecord, error) {
	s.idCalls++
	if r, ok := s.byID[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userDirectoryStub) FindByEmail(_ context.Context, email string) (*models.UserRecord, error) {
	s.emailCalls++
	if r, ok := s.byEmail[email]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

type adminDirectoryStub struct {
	byEmail map[string]*models.AdminRecord
	calls   int
}

func (s *adminDirectoryStub) FindByEmail(_ context.Context, email string) (*models.AdminRecord, error) {
	s.calls++
	if r, ok := s.byEmail[email]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func strPtr(s string) *string { return &s }

func newTestResolver(users *userDirectoryStub, admins *adminDirectoryStub) (*IdentityResolver, *IdentityCache) {
	cache := NewIdentityCache()
	return NewIdentityResolver(users, admins, cache, nil, nil), cache
}

func TestResolveAdminChannelSkipsLookups(t *testing.T) {
	users := &userDirectoryStub{}
	admins := &adminDirectoryStub{}
	resolver, cache := newTestResolver(users, admins)

	report := &models.Report{
		Barangay:       "Carig Sur",
		ReportedBy:     strPtr("admin"),
		ReporterUserID: strPtr("user-1"),
		CreatedByEmail: strPtr("admin@saferoute.ph"),
	}

	identity := resolver.Resolve(context.Background(), report)

	assert.Equal(t, "Carig Sur Barangay Admin", identity.Name)
	assert.Equal(t, "Carig Sur Barangay Office", identity.Address)
	assert.Equal(t, models.Dash, identity.Contact)
	assert.Zero(t, users.idCalls)
	assert.Zero(t, users.emailCalls)
	assert.Zero(t, admins.calls)
	assert.Zero(t, cache.Len())
}

func TestResolveActingAdminProvider(t *testing.T) {
	resolver := NewIdentityResolver(&userDirectoryStub{}, &adminDirectoryStub{}, nil, func(string) string {
		return "Maria Santos"
	}, nil)

	identity := resolver.Resolve(context.Background(), &models.Report{
		Barangay:   "Linao East",
		ReportedBy: strPtr("admin"),
	})

	assert.Equal(t, "Maria Santos", identity.Name)
	assert.Equal(t, "Linao East Barangay Office", identity.Address)
}

func TestResolveByReporterIDMemoizes(t *testing.T) {
	users := &userDirectoryStub{byID: map[string]*models.UserRecord{
		"user-1": {
			DisplayName: strPtr("Juan D."),
			Address:     strPtr("12 Mabini St"),
			Phone:       strPtr("0917-555-0101"),
		},
	}}
	resolver, cache := newTestResolver(users, &adminDirectoryStub{})

	report := &models.Report{ReporterUserID: strPtr("user-1")}

	first := resolver.Resolve(context.Background(), report)
	second := resolver.Resolve(context.Background(), report)

	assert.Equal(t, "Juan D.", first.Name)
	assert.Equal(t, "12 Mabini St", first.Address)
	assert.Equal(t, "0917-555-0101", first.Contact)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, users.idCalls, "second resolve must hit the memo")
	assert.Equal(t, 1, cache.Len())
}

func TestResolveNameFieldPriority(t *testing.T) {
	users := &userDirectoryStub{byID: map[string]*models.UserRecord{
		"user-1": {
			FullName:    strPtr("Juan Dela Cruz"),
			DisplayName: strPtr("jd"),
			Email:       strPtr("juan@example.com"),
		},
	}}
	resolver, _ := newTestResolver(users, &adminDirectoryStub{})

	identity := resolver.Resolve(context.Background(), &models.Report{ReporterUserID: strPtr("user-1")})
	assert.Equal(t, "Juan Dela Cruz", identity.Name)
	assert.Equal(t, models.Dash, identity.Address)
	assert.Equal(t, models.Dash, identity.Contact)
}

func TestResolveEmailLocalPartFallback(t *testing.T) {
	users := &userDirectoryStub{byID: map[string]*models.UserRecord{
		"user-1": {Email: strPtr("juan@example.com")},
	}}
	resolver, _ := newTestResolver(users, &adminDirectoryStub{})

	identity := resolver.Resolve(context.Background(), &models.Report{ReporterUserID: strPtr("user-1")})
	assert.Equal(t, "juan", identity.Name)
}

func TestResolveUserEmailBeatsPlaceholder(t *testing.T) {
	users := &userDirectoryStub{byEmail: map[string]*models.UserRecord{
		"resident@example.com": {Name: strPtr("Ana Reyes")},
	}}
	resolver, cache := newTestResolver(users, &adminDirectoryStub{})

	identity := resolver.Resolve(context.Background(), &models.Report{
		ReporterUserID: strPtr("deadbeef1234"),
		CreatedByEmail: strPtr("resident@example.com"),
	})

	assert.Equal(t, "Ana Reyes", identity.Name)
	// The email path has no user id to key on, so nothing is memoized.
	assert.Zero(t, cache.Len())
}

func TestResolveAdminEmailSynthesizesHallIdentity(t *testing.T) {
	admins := &adminDirectoryStub{byEmail: map[string]*models.AdminRecord{
		"hall@saferoute.ph": {Barangay: strPtr("linao west")},
	}}
	resolver, _ := newTestResolver(&userDirectoryStub{}, admins)

	identity := resolver.Resolve(context.Background(), &models.Report{
		CreatedByEmail: strPtr("hall@saferoute.ph"),
	})

	assert.Equal(t, "Linao West Admin", identity.Name)
	assert.Equal(t, "Linao West, Barangay Hall", identity.Address)
	assert.Equal(t, models.Dash, identity.Contact)
}

func TestResolveAdminEmailPrefersReportBarangay(t *testing.T) {
	admins := &adminDirectoryStub{byEmail: map[string]*models.AdminRecord{
		"hall@saferoute.ph": {Name: strPtr("Officer Cruz"), Barangay: strPtr("Linao West")},
	}}
	resolver, _ := newTestResolver(&userDirectoryStub{}, admins)

	identity := resolver.Resolve(context.Background(), &models.Report{
		Barangay:       "carig norte",
		CreatedByEmail: strPtr("hall@saferoute.ph"),
	})

	assert.Equal(t, "Officer Cruz", identity.Name)
	assert.Equal(t, "Carig Norte, Barangay Hall", identity.Address)
}

func TestResolvePlaceholderAfterEmailStepsFail(t *testing.T) {
	users := &userDirectoryStub{}
	admins := &adminDirectoryStub{}
	resolver, cache := newTestResolver(users, admins)

	report := &models.Report{
		ReporterUserID: strPtr("abcdef1234567890"),
		CreatedByEmail: strPtr("gone@example.com"),
	}

	identity := resolver.Resolve(context.Background(), report)
	require.Equal(t, "Unknown User (abcdef12...)", identity.Name)
	assert.Equal(t, models.Dash, identity.Address)
	assert.Equal(t, 1, users.emailCalls)
	assert.Equal(t, 1, admins.calls)

	// The dead reference is memoized once the full cascade has failed.
	assert.Equal(t, 1, cache.Len())
	again := resolver.Resolve(context.Background(), report)
	assert.Equal(t, identity, again)
	assert.Equal(t, 1, users.idCalls)
}

func TestResolvePlaceholderWithoutEmailCachesImmediately(t *testing.T) {
	users := &userDirectoryStub{}
	resolver, cache := newTestResolver(users, &adminDirectoryStub{})

	identity := resolver.Resolve(context.Background(), &models.Report{ReporterUserID: strPtr("short")})
	assert.Equal(t, "Unknown User (short...)", identity.Name)
	assert.Equal(t, 1, cache.Len())
	assert.Zero(t, users.emailCalls)
}

func TestResolveNoLinkageYieldsUnknown(t *testing.T) {
	users := &userDirectoryStub{}
	resolver, _ := newTestResolver(users, &adminDirectoryStub{})

	identity := resolver.Resolve(context.Background(), &models.Report{})
	assert.Equal(t, models.UnknownIdentity(), identity)
	assert.Zero(t, users.idCalls)
}
