package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/saferoute/admin-api/internal/models"
)

type userDirectory interface {
	FindByID(ctx context.Context, id string) (*models.UserRecord, error)
	FindByEmail(ctx context.Context, email string) (*models.UserRecord, error)
}

type adminDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.AdminRecord, error)
}

// resolveState carries per-call context between strategy steps.
type resolveState struct {
	// placeholder holds the unknown-user identity built by the reporter-id
	// step when the record is missing but an email cross-reference is still
	// worth attempting. It is only cached and returned once the email steps
	// have also failed.
	placeholder *models.Identity
}

type resolveStep func(ctx context.Context, r *models.Report, st *resolveState) *models.Identity

// IdentityResolver turns a report's raw ownership fields into a display
// identity via an ordered cascade of lookup strategies, memoizing per
// reporter user id. Resolve never fails: every miss and every lookup error
// degrades to a placeholder or the all-dash identity.
type IdentityResolver struct {
	users       userDirectory
	admins      adminDirectory
	cache       *IdentityCache
	actingAdmin func(barangay string) string
	logger      *zap.Logger
	steps       []resolveStep
}

// NewIdentityResolver constructs the resolver. actingAdmin supplies the
// display name used for admin-channel reports; when nil a generic
// "<barangay> Barangay Admin" is synthesized.
func NewIdentityResolver(users userDirectory, admins adminDirectory, cache *IdentityCache, actingAdmin func(barangay string) string, logger *zap.Logger) *IdentityResolver {
	if cache == nil {
		cache = NewIdentityCache()
	}
	if actingAdmin == nil {
		actingAdmin = func(barangay string) string {
			return models.NormalizeBarangay(barangay) + " Barangay Admin"
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &IdentityResolver{
		users:       users,
		admins:      admins,
		cache:       cache,
		actingAdmin: actingAdmin,
		logger:      logger,
	}
	// Strict cascade order: cheap locally-known facts first, then the id
	// lookup, then the email cross-references.
	s.steps = []resolveStep{
		s.fromAdminChannel,
		s.fromReporterID,
		s.fromUserEmail,
		s.fromAdminEmail,
	}
	return s
}

// Resolve evaluates the strategy steps in order and returns the first match.
func (s *IdentityResolver) Resolve(ctx context.Context, r *models.Report) models.Identity {
	st := &resolveState{}
	for _, step := range s.steps {
		if identity := step(ctx, r, st); identity != nil {
			return *identity
		}
	}
	if st.placeholder != nil {
		// Both email fallbacks failed; memoize the placeholder so the dead
		// reference is not re-queried on every batch.
		s.cache.Put(*r.ReporterUserID, *st.placeholder)
		return *st.placeholder
	}
	return models.UnknownIdentity()
}

// fromAdminChannel synthesizes the identity for admin-submitted reports.
// No cache, no store I/O.
func (s *IdentityResolver) fromAdminChannel(_ context.Context, r *models.Report, _ *resolveState) *models.Identity {
	if !r.ReportedByAdmin() {
		return nil
	}
	return &models.Identity{
		Name:    s.actingAdmin(r.Barangay),
		Address: r.Barangay + " Barangay Office",
		Contact: models.Dash,
	}
}

// fromReporterID resolves via the users directory keyed by reporter user id,
// consulting the memo first. A missing record yields a truncated-id
// placeholder, which is deferred when the report also carries an email the
// later steps can cross-reference.
func (s *IdentityResolver) fromReporterID(ctx context.Context, r *models.Report, st *resolveState) *models.Identity {
	if r.ReporterUserID == nil || *r.ReporterUserID == "" {
		return nil
	}
	userID := *r.ReporterUserID
	if cached, ok := s.cache.Get(userID); ok {
		return &cached
	}

	record, err := s.users.FindByID(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("user lookup failed", zap.String("userId", userID), zap.Error(err))
	}
	if err == nil && record != nil {
		identity := identityFromUser(record)
		s.cache.Put(userID, identity)
		return &identity
	}

	placeholder := models.Identity{
		Name:    fmt.Sprintf("Unknown User (%s...)", truncateID(userID)),
		Address: models.Dash,
		Contact: models.Dash,
	}
	if r.CreatedByEmail != nil && *r.CreatedByEmail != "" {
		// The id and email linkage fields are written by different
		// submission paths and can disagree; let the email steps run before
		// settling on the placeholder.
		st.placeholder = &placeholder
		return nil
	}
	s.cache.Put(userID, placeholder)
	return &placeholder
}

// fromUserEmail resolves via an equality query on the users directory email.
// The reporter user id for such records is unknown, so nothing is memoized.
func (s *IdentityResolver) fromUserEmail(ctx context.Context, r *models.Report, _ *resolveState) *models.Identity {
	if r.CreatedByEmail == nil || *r.CreatedByEmail == "" {
		return nil
	}
	record, err := s.users.FindByEmail(ctx, *r.CreatedByEmail)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("user email lookup failed", zap.String("email", *r.CreatedByEmail), zap.Error(err))
		}
		return nil
	}
	if record == nil {
		return nil
	}
	identity := identityFromUser(record)
	return &identity
}

// fromAdminEmail resolves reports created by an admin account, synthesizing
// the barangay-hall identity from the report's barangay or the admin's own.
func (s *IdentityResolver) fromAdminEmail(ctx context.Context, r *models.Report, _ *resolveState) *models.Identity {
	if r.CreatedByEmail == nil || *r.CreatedByEmail == "" {
		return nil
	}
	record, err := s.admins.FindByEmail(ctx, *r.CreatedByEmail)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("admin email lookup failed", zap.String("email", *r.CreatedByEmail), zap.Error(err))
		}
		return nil
	}
	if record == nil {
		return nil
	}

	barangay := r.Barangay
	if barangay == "" && record.Barangay != nil {
		barangay = *record.Barangay
	}
	if barangay == "" {
		barangay = "Unknown"
	}
	barangay = models.NormalizeBarangay(barangay)

	name := firstPresent(record.Name, record.FullName)
	if name == "" {
		name = barangay + " Admin"
	}
	return &models.Identity{
		Name:    name,
		Address: barangay + ", Barangay Hall",
		Contact: models.Dash,
	}
}

// identityFromUser builds a display identity from a users directory record,
// picking the first present field of each attribute family.
func identityFromUser(record *models.UserRecord) models.Identity {
	name := firstPresent(record.Name, record.FullName, record.DisplayName, record.Username)
	if name == "" && record.Email != nil {
		name = emailLocalPart(*record.Email)
	}
	if name == "" {
		name = models.Dash
	}
	address := firstPresent(record.Address)
	if address == "" {
		address = models.Dash
	}
	contact := firstPresent(record.Phone, record.Contact, record.PhoneNumber)
	if contact == "" {
		contact = models.Dash
	}
	return models.Identity{Name: name, Address: address, Contact: contact}
}

func firstPresent(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

func emailLocalPart(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
