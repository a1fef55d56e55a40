package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deathrjj/age-github-search-tui/github"
	"github.com/deathrjj/age-github-search-tui/metrics"
	"github.com/deathrjj/age-github-search-tui/models"
)

// UserSearcher fetches one page of user search results.
type UserSearcher interface {
	SearchUsers(ctx context.Context, query string, page, perPage int) (*models.SearchPage, error)
}

// Options tunes a Session.
type Options struct {
	// Timeout bounds every search request.
	Timeout time.Duration
	// NotificationDuration is the default notification lifetime.
	NotificationDuration time.Duration
	// ExceededDuration is the lifetime of the rate-limit-exceeded notification.
	ExceededDuration time.Duration

	RateLimitWarning  string
	RateLimitExceeded string
	DuplicateSkipped  string
}

// DefaultOptions returns the session defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:              10 * time.Second,
		NotificationDuration: 3 * time.Second,
		ExceededDuration:     6 * time.Second,
		RateLimitWarning:     "Careful, only a few searches left before GitHub's rate limit kicks in.",
		RateLimitExceeded:    "GitHub's search rate limit is exhausted, please wait a minute.",
		DuplicateSkipped:     "Copies can't be duplicated and each user gets a single copy.",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.NotificationDuration <= 0 {
		o.NotificationDuration = d.NotificationDuration
	}
	if o.ExceededDuration <= 0 {
		o.ExceededDuration = d.ExceededDuration
	}
	if o.RateLimitWarning == "" {
		o.RateLimitWarning = d.RateLimitWarning
	}
	if o.RateLimitExceeded == "" {
		o.RateLimitExceeded = d.RateLimitExceeded
	}
	if o.DuplicateSkipped == "" {
		o.DuplicateSkipped = d.DuplicateSkipped
	}
	return o
}

// Listener receives every new state snapshot. Snapshots are read-only.
type Listener func(models.SearchState)

type listenerEntry struct {
	id int
	fn Listener
}

// request is the cancellation handle of the in-flight search.
type request struct {
	id     string
	cancel context.CancelFunc
}

// Session owns the search state and is its single dispatch point. At most one
// search request is in flight; starting a new one cancels the previous one and
// a cancelled request never reaches the state.
type Session struct {
	client UserSearcher
	opts   Options
	logger *zap.Logger

	mu           sync.Mutex
	state        models.SearchState
	listeners    []listenerEntry
	nextListener int
	inflight     *request
	notifyTimer  *time.Timer
	notifyGen    uint64
}

// NewSession creates a session with an initial state.
func NewSession(client UserSearcher, opts Options, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		client: client,
		opts:   opts.withDefaults(),
		logger: logger,
		state:  models.NewSearchState(),
	}
}

// State returns the current snapshot.
func (s *Session) State() models.SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for state changes and returns a function removing it.
// Listeners run outside the session lock, on the goroutine that dispatched,
// so snapshots from different goroutines may arrive out of order; State()
// always has the latest.
func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// UpdateQuery replaces the query text without searching.
func (s *Session) UpdateQuery(query string) {
	s.dispatch(SetQuery{Query: query})
}

// SearchUsers fetches page of query and folds it into the state. It blocks
// until the request resolves or is superseded. A blank query clears the results.
func (s *Session) SearchUsers(ctx context.Context, query string, page int) {
	if strings.TrimSpace(query) == "" {
		s.dispatch(ClearResults{})
		return
	}
	if page < 1 {
		page = 1
	}
	isNewSearch := page == 1

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	req := &request{id: uuid.New().String(), cancel: cancel}

	s.mu.Lock()
	if s.inflight != nil {
		s.inflight.cancel()
	}
	s.inflight = req
	perPage := s.state.Pagination.PerPage
	snapshot, listeners := s.reduceLocked(SearchStart{Query: query, IsNewSearch: isNewSearch})
	s.mu.Unlock()
	notifyAll(snapshot, listeners)

	log := s.logger.With(
		zap.String("request_id", req.id),
		zap.String("query", query),
		zap.Int("page", page),
	)
	log.Debug("Search started")

	timeoutCtx, cancelTimeout := context.WithTimeout(reqCtx, s.opts.Timeout)
	defer cancelTimeout()

	start := time.Now()
	result, err := s.client.SearchUsers(timeoutCtx, query, page, perPage)
	duration := time.Since(start)
	if err == nil && result == nil {
		result = &models.SearchPage{}
	}

	if err == nil {
		ok := s.complete(req, SearchSuccess{
			Items:          result.Items,
			TotalCount:     result.TotalCount,
			Page:           page,
			APILimitations: result.Limits,
			IsNewSearch:    isNewSearch,
		})
		if !ok {
			metrics.SearchRequestsTotal.WithLabelValues("aborted").Inc()
			log.Debug("Search result discarded, request was superseded", zap.Duration("duration", duration))
			return
		}
		metrics.SearchRequestsTotal.WithLabelValues("success").Inc()
		log.Info("Search succeeded",
			zap.Int("items", len(result.Items)),
			zap.Int("total_count", result.TotalCount),
			zap.Duration("duration", duration),
		)
		return
	}

	// A request cancelled through its caller's context is still current and
	// must stop loading; superseded ones are dropped by complete.
	if isAbort(reqCtx, err) {
		s.complete(req, AbortSearch{})
		metrics.SearchRequestsTotal.WithLabelValues("aborted").Inc()
		log.Debug("Search aborted", zap.Duration("duration", duration))
		return
	}

	message := s.errorMessage(err)
	if !s.complete(req, SearchError{Message: message, IsNewSearch: isNewSearch}) {
		metrics.SearchRequestsTotal.WithLabelValues("aborted").Inc()
		return
	}
	metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
	log.Error("Search failed", zap.Duration("duration", duration), zap.Error(err))
}

// AbortSearch cancels the in-flight request, if any, and stops loading.
// Query, results and error are kept.
func (s *Session) AbortSearch() {
	s.mu.Lock()
	if s.inflight != nil {
		s.inflight.cancel()
		s.inflight = nil
	}
	snapshot, listeners := s.reduceLocked(AbortSearch{})
	s.mu.Unlock()
	notifyAll(snapshot, listeners)
}

// GuardedSearch applies the rate-limit policy before searching: with no quota
// left it shows a notification and suppresses the request, with little quota
// left it warns and searches anyway. It reports whether a search was issued.
func (s *Session) GuardedSearch(ctx context.Context, query string, page int) bool {
	if !s.admitByRateLimit(s.State()) {
		return false
	}
	s.SearchUsers(ctx, query, page)
	return true
}

// LoadNextPage requests the page after the current one when there is a query,
// a next page and nothing loading, under the same rate-limit policy as
// GuardedSearch.
func (s *Session) LoadNextPage(ctx context.Context) bool {
	st := s.State()
	if !s.admitByRateLimit(st) {
		return false
	}
	if st.Query == "" || !st.Pagination.HasNextPage || st.Loading {
		return false
	}
	s.SearchUsers(ctx, st.Query, st.Pagination.CurrentPage+1)
	return true
}

// DebouncedTrigger returns a Trigger running GuardedSearch for page 1, meant
// to be wrapped by a Gate or an InputDebouncer.
func (s *Session) DebouncedTrigger(ctx context.Context) Trigger {
	return func(query string, _ ...any) {
		s.GuardedSearch(ctx, query, 1)
	}
}

// ToggleUserSelection flips the selection of id.
func (s *Session) ToggleUserSelection(id any) {
	s.dispatch(ToggleUser{UserID: id})
}

// ToggleSelectAllUsers selects every result, or clears the selection.
func (s *Session) ToggleSelectAllUsers(selectAll bool) {
	s.dispatch(SelectAll{SelectAll: selectAll})
}

// DeleteUserSelection removes the selected results and clears the selection.
func (s *Session) DeleteUserSelection() {
	s.dispatch(DeleteSelected{})
}

// DuplicateUserSelection inserts a copy after each selected result. When some
// selected entries could not be copied the user is told so.
func (s *Session) DuplicateUserSelection() {
	s.mu.Lock()
	_, _, skipped := DuplicateSelectedInOrder(s.state.Results, s.state.ResultsOrder, s.state.SelectedUsers)
	snapshot, listeners := s.reduceLocked(DuplicateSelected{})
	s.mu.Unlock()
	notifyAll(snapshot, listeners)

	if skipped {
		s.logger.Debug("Some selected users were not duplicated")
		s.ShowNotification(s.opts.DuplicateSkipped, 0)
	}
}

// ClearResults empties the results.
func (s *Session) ClearResults() {
	s.dispatch(ClearResults{})
}

// Close cancels the in-flight request and the pending notification timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight != nil {
		s.inflight.cancel()
		s.inflight = nil
	}
	if s.notifyTimer != nil {
		s.notifyTimer.Stop()
		s.notifyTimer = nil
	}
	s.notifyGen++
}

func (s *Session) admitByRateLimit(st models.SearchState) bool {
	switch CheckRateLimit(st.APILimitations) {
	case RateLimitExceeded:
		metrics.NotificationsTotal.WithLabelValues("exceeded").Inc()
		metrics.SearchRequestsTotal.WithLabelValues("suppressed").Inc()
		msg := s.opts.RateLimitExceeded
		if reset := st.APILimitations.Reset; reset != nil {
			msg = fmt.Sprintf("%s (resets at %s)", msg, reset.Local().Format("15:04:05"))
		}
		s.logger.Warn("Search suppressed, rate limit exhausted")
		s.ShowNotification(msg, s.opts.ExceededDuration)
		return false
	case RateLimitWarning:
		metrics.NotificationsTotal.WithLabelValues("warning").Inc()
		s.ShowNotification(s.opts.RateLimitWarning, 0)
	}
	return true
}

// complete applies action if req is still the current request.
func (s *Session) complete(req *request, action Action) bool {
	s.mu.Lock()
	if s.inflight != req {
		s.mu.Unlock()
		return false
	}
	s.inflight = nil
	snapshot, listeners := s.reduceLocked(action)
	s.mu.Unlock()
	notifyAll(snapshot, listeners)
	return true
}

func (s *Session) errorMessage(err error) string {
	var apiErr *github.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("Request timed out after %s", s.opts.Timeout)
	case errors.As(err, &apiErr) && apiErr.IsRateLimited():
		return s.opts.RateLimitExceeded
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case err.Error() != "":
		return err.Error()
	default:
		return "Failed to search users"
	}
}

// isAbort reports a deliberate cancellation: the request's own context was
// cancelled, or the error says so.
func isAbort(reqCtx context.Context, err error) bool {
	return errors.Is(reqCtx.Err(), context.Canceled) || errors.Is(err, context.Canceled)
}

func (s *Session) dispatch(action Action) {
	s.mu.Lock()
	snapshot, listeners := s.reduceLocked(action)
	s.mu.Unlock()
	notifyAll(snapshot, listeners)
}

func (s *Session) reduceLocked(action Action) (models.SearchState, []Listener) {
	s.state = Reduce(s.state, action)
	listeners := make([]Listener, len(s.listeners))
	for i, l := range s.listeners {
		listeners[i] = l.fn
	}
	return s.state, listeners
}

func notifyAll(state models.SearchState, listeners []Listener) {
	for _, fn := range listeners {
		fn(state)
	}
}
