package service

import (
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saferoute/admin-api/internal/models"
)

// Viewer identifies the operator a composer serves. Role and home barangay
// come from the request claims.
type Viewer struct {
	UserID   string
	Role     models.UserRole
	Barangay string
}

// AllBarangays reports whether the viewer may see every barangay.
func (v Viewer) AllBarangays() bool {
	return v.Role == models.RoleSuperAdmin
}

// Composer holds the five filter dimensions plus the latest enriched
// snapshot for one viewer, and recomputes the visible ordered list
// synchronously whenever either changes. There is no queue of intermediate
// states: only the latest combination is observable.
type Composer struct {
	mu     sync.Mutex
	viewer Viewer
	state  models.FilterState
	batch  []models.EnrichedReport
	out    []models.EnrichedReport
}

func newComposer(viewer Viewer) *Composer {
	return &Composer{viewer: viewer, state: models.DefaultFilterState()}
}

// SetStatusTab switches the active status tab.
func (c *Composer) SetStatusTab(tab models.ReportStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.StatusTab = tab
	c.recompute()
}

// SetSearchTerm updates the free-text search dimension.
func (c *Composer) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SearchTerm = term
	c.recompute()
}

// SetBarangayScope updates the barangay scope dimension.
func (c *Composer) SetBarangayScope(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.BarangayScope = scope
	c.recompute()
}

// SetPeriodFilter updates the YYYY-MM period dimension; empty clears it.
func (c *Composer) SetPeriodFilter(period string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.PeriodFilter = period
	c.recompute()
}

// SetSortOrder flips timestamp ordering.
func (c *Composer) SetSortOrder(order models.SortOrder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SortOrder = order
	c.recompute()
}

// SetState replaces all five dimensions at once with a single recomputation.
func (c *Composer) SetState(state models.FilterState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	c.recompute()
}

// State returns the current filter dimensions.
func (c *Composer) State() models.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns a copy of the latest composed list.
func (c *Composer) Current() []models.EnrichedReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.EnrichedReport, len(c.out))
	copy(out, c.out)
	return out
}

func (c *Composer) apply(batch []models.EnrichedReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batch = batch
	c.recompute()
}

// recompute runs the filter pipeline in its fixed order: status tab, search,
// barangay scope, period, timestamp attach, sort. Callers hold c.mu.
func (c *Composer) recompute() {
	term := strings.ToLower(strings.TrimSpace(c.state.SearchTerm))
	scope := models.NormalizeBarangay(c.state.BarangayScope)

	filtered := make([]models.EnrichedReport, 0, len(c.batch))
	for _, r := range c.batch {
		if r.EffectiveStatus() != c.state.StatusTab {
			continue
		}
		if term != "" && !matchesTerm(&r, term) {
			continue
		}
		// Scope is only meaningful for the all-barangay role; restricted
		// viewers already receive a pre-scoped feed.
		if c.viewer.AllBarangays() && scope != "" && scope != models.AllBarangays {
			if models.NormalizeBarangay(r.Barangay) != scope {
				continue
			}
		}
		if c.state.PeriodFilter != "" {
			ms := EpochMillisFromRaw(r.Datetime)
			if time.UnixMilli(ms).UTC().Format("2006-01") != c.state.PeriodFilter {
				continue
			}
		}
		r.EpochMs = EpochMillisFromRaw(r.Datetime)
		filtered = append(filtered, r)
	}

	desc := c.state.SortOrder == models.SortDesc
	sort.SliceStable(filtered, func(i, j int) bool {
		if desc {
			return filtered[i].EpochMs > filtered[j].EpochMs
		}
		return filtered[i].EpochMs < filtered[j].EpochMs
	})
	c.out = filtered
}

func matchesTerm(r *models.EnrichedReport, term string) bool {
	for _, field := range []string{
		r.Category,
		deref(r.Location),
		deref(r.Landmark),
		r.Barangay,
		deref(r.Description),
		r.ReporterName,
	} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ViewService tracks one composer per viewer and fans every enriched
// snapshot out to all of them. It implements the enrichment pipeline's
// subscriber contract.
type ViewService struct {
	mu        sync.RWMutex
	latest    []models.EnrichedReport
	composers map[string]*Composer
	logger    *zap.Logger
}

// NewViewService constructs the registry.
func NewViewService(logger *zap.Logger) *ViewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewService{composers: make(map[string]*Composer), logger: logger}
}

// Apply distributes a new enriched snapshot to every composer. Restricted
// viewers receive a feed pre-scoped to their home barangay, mirroring the
// scoped backing query they would otherwise subscribe to.
func (s *ViewService) Apply(batch []models.EnrichedReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = batch
	for _, c := range s.composers {
		c.apply(scopeBatch(c.viewer, batch))
	}
}

// ComposerFor returns the viewer's composer, creating and seeding it with
// the latest snapshot on first use.
func (s *ViewService) ComposerFor(viewer Viewer) *Composer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.composers[viewer.UserID]; ok {
		return c
	}
	c := newComposer(viewer)
	c.apply(scopeBatch(viewer, s.latest))
	s.composers[viewer.UserID] = c
	s.logger.Debug("composer created",
		zap.String("userId", viewer.UserID), zap.String("role", string(viewer.Role)))
	return c
}

func scopeBatch(viewer Viewer, batch []models.EnrichedReport) []models.EnrichedReport {
	if viewer.AllBarangays() {
		return batch
	}
	home := models.NormalizeBarangay(viewer.Barangay)
	scoped := make([]models.EnrichedReport, 0, len(batch))
	for _, r := range batch {
		if models.NormalizeBarangay(r.Barangay) == home {
			scoped = append(scoped, r)
		}
	}
	return scoped
}
