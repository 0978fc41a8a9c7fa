package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jo-2640/firstmyapp/internal/apperrors"
	"github.com/jo-2640/firstmyapp/internal/models"
	"github.com/jo-2640/firstmyapp/internal/repository"
	"github.com/sirupsen/logrus"
)

// DirectoryPageSize is how many profiles one "load more" returns.
const DirectoryPageSize = 6

// UserPager fetches uid-ordered pages of profiles. Implemented by
// repository.UserRepository.
type UserPager interface {
	ListPage(ctx context.Context, q repository.PageQuery) ([]models.User, error)
	GetUserByID(ctx context.Context, uid string) (*models.User, error)
}

// BrowseFilter is the caller-supplied directory filter. Empty or "all"
// fields do not restrict.
type BrowseFilter struct {
	Gender      string `json:"gender"`
	Region      string `json:"region"`
	MinAgeGroup string `json:"minAgeGroup"`
	MaxAgeGroup string `json:"maxAgeGroup"`
}

// browseSession is one cyclic walk over the filtered uid space. The
// walk starts at a random seed uid, runs to the top of the space,
// wraps to the bottom, and stops just below the seed, so a full cycle
// visits every qualifying user exactly once.
type browseSession struct {
	mu       sync.Mutex
	id       string
	ownerUID string
	base     repository.PageQuery

	seed       string
	lastSeenID string
	wrapped    bool
	done       bool

	// Emitted uids; guards the seam between the pre-wrap and post-wrap
	// phases and any re-fetch overlap.
	seen map[string]struct{}

	// Self plus friends at session open. Never emitted.
	excluded map[string]struct{}

	lastAccess time.Time
}

// DirectoryPage is one page of browse results.
type DirectoryPage struct {
	SessionID string              `json:"sessionId"`
	Users     []models.PublicUser `json:"users"`
	Done      bool                `json:"done"`
}

// DirectoryService owns browse sessions. Each session's cursor state
// belongs to exactly one caller; applying a new filter means opening a
// new session.
type DirectoryService struct {
	pager  UserPager
	images *ImageService

	mu       sync.Mutex
	sessions map[string]*browseSession
}

func NewDirectoryService(pager UserPager, images *ImageService) *DirectoryService {
	return &DirectoryService{
		pager:    pager,
		images:   images,
		sessions: make(map[string]*browseSession),
	}
}

// OpenSession starts a browse session for ownerUID with the given
// filter and returns the first page. Any previous session the caller
// held simply goes unused; state is never shared between sessions.
func (s *DirectoryService) OpenSession(ctx context.Context, ownerUID string, filter BrowseFilter) (*DirectoryPage, error) {
	owner, err := s.pager.GetUserByID(ctx, ownerUID)
	if err != nil {
		return nil, err
	}

	base, err := s.buildQuery(filter)
	if err != nil {
		return nil, err
	}

	excluded := map[string]struct{}{ownerUID: {}}
	for _, friend := range owner.FriendIDs {
		excluded[friend] = struct{}{}
	}

	sess := &browseSession{
		id:         uuid.NewString(),
		ownerUID:   ownerUID,
		base:       base,
		seed:       uuid.NewString(),
		seen:       make(map[string]struct{}),
		excluded:   excluded,
		lastAccess: time.Now(),
	}

	users, err := s.fetchPage(ctx, sess)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"session": sess.id,
		"owner":   ownerUID,
		"seed":    sess.seed,
	}).Info("Browse session opened")

	return &DirectoryPage{SessionID: sess.id, Users: users, Done: sess.done}, nil
}

// NextPage advances the caller's session by one page.
func (s *DirectoryService) NextPage(ctx context.Context, ownerUID, sessionID string) (*DirectoryPage, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, apperrors.NotFoundf("browse session %s", sessionID)
	}
	if sess.ownerUID != ownerUID {
		return nil, apperrors.ErrPermission
	}

	users, err := s.fetchPage(ctx, sess)
	if err != nil {
		return nil, err
	}

	if sess.done {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
	}

	return &DirectoryPage{SessionID: sess.id, Users: users, Done: sess.done}, nil
}

// CloseSession drops a session early.
func (s *DirectoryService) CloseSession(ownerUID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok && sess.ownerUID == ownerUID {
		delete(s.sessions, sessionID)
	}
}

// SweepIdleSessions drops sessions that have not been paged for longer
// than maxIdle. Clients that abandon a browse mid-cycle never call
// CloseSession, so without the sweep their cursor state would sit in
// memory forever. Returns how many sessions were dropped.
func (s *DirectoryService) SweepIdleSessions(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastAccess.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		logrus.WithField("count", removed).Info("Dropped idle browse sessions")
	}
	return removed
}

// fetchPage fills up to DirectoryPageSize emissions, advancing through
// the two cursor phases as short pages mark their ends. All cursor
// mutations happen on shadow variables and commit only after every
// store fetch succeeded, so a failed fetch leaves the session exactly
// where it was and a retry resumes cleanly.
func (s *DirectoryService) fetchPage(ctx context.Context, sess *browseSession) ([]models.PublicUser, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.lastAccess = time.Now()

	lastSeen := sess.lastSeenID
	wrapped := sess.wrapped
	done := sess.done
	var emitted []models.User

	for len(emitted) < DirectoryPageSize && !done {
		q := sess.base
		q.Limit = DirectoryPageSize
		if !wrapped {
			if lastSeen == "" {
				// First fetch of the cycle: the seed itself is a valid
				// boundary value, so the lower bound is inclusive.
				q.FromID = sess.seed
			} else {
				q.AfterID = lastSeen
			}
		} else {
			q.AfterID = lastSeen
			q.BeforeID = sess.seed
		}

		users, err := s.pager.ListPage(ctx, q)
		if err != nil {
			return nil, err
		}

		for _, u := range users {
			if _, skip := sess.excluded[u.UID]; skip {
				continue
			}
			if _, dup := sess.seen[u.UID]; dup {
				continue
			}
			emitted = append(emitted, u)
			if len(emitted) == DirectoryPageSize {
				// Park the cursor on this uid; the rest of the raw page
				// is re-fetched next time.
				break
			}
		}

		if len(emitted) == DirectoryPageSize {
			lastSeen = emitted[len(emitted)-1].UID
			break
		}

		if len(users) > 0 {
			lastSeen = users[len(users)-1].UID
		}
		if int64(len(users)) < q.Limit {
			// Phase exhausted: wrap once, then finish.
			if !wrapped {
				wrapped = true
				lastSeen = ""
			} else {
				done = true
			}
		}
	}

	// Commit the cursor.
	sess.lastSeenID = lastSeen
	sess.wrapped = wrapped
	sess.done = done
	for _, u := range emitted {
		sess.seen[u.UID] = struct{}{}
	}

	page := make([]models.PublicUser, 0, len(emitted))
	for _, u := range emitted {
		imageURL := DefaultImage(u.Gender)
		if s.images != nil {
			imageURL = s.images.ResolveProfileImageURL(u.ProfileImageRef, u.Gender)
		}
		page = append(page, models.PublicUser{
			UID:             u.UID,
			Nickname:        u.Nickname,
			Bio:             u.Bio,
			Region:          u.Region,
			Gender:          u.Gender,
			BirthYear:       u.BirthYear,
			ProfileImageURL: imageURL,
		})
	}
	return page, nil
}

// buildQuery translates the browse filter into a store query,
// converting the age-group preference into a birth-year window.
func (s *DirectoryService) buildQuery(filter BrowseFilter) (repository.PageQuery, error) {
	q := repository.PageQuery{
		Gender: filter.Gender,
		Region: filter.Region,
	}

	hasMin := filter.MinAgeGroup != "" && filter.MinAgeGroup != "all"
	hasMax := filter.MaxAgeGroup != "" && filter.MaxAgeGroup != "all"
	if hasMin && hasMax {
		minAge, maxAge, err := models.AgeRangeForGroups(filter.MinAgeGroup, filter.MaxAgeGroup)
		if err != nil {
			return repository.PageQuery{}, apperrors.Validationf("%v", err)
		}
		currentYear := time.Now().Year()
		q.MinBirthYear = currentYear - maxAge
		q.MaxBirthYear = currentYear - minAge
	}
	return q, nil
}
