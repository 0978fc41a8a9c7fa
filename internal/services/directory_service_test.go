package services

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/jo-2640/firstmyapp/internal/apperrors"
	"github.com/jo-2640/firstmyapp/internal/models"
	"github.com/jo-2640/firstmyapp/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePager serves uid-ordered pages from an in-memory slice with the
// same bound semantics as the Mongo query: FromID inclusive, AfterID
// and BeforeID strict.
type fakePager struct {
	users   []models.User
	queries []repository.PageQuery

	// When > 0, the next ListPage calls fail.
	failNext int
}

func newFakePager(users ...models.User) *fakePager {
	sorted := append([]models.User{}, users...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].UID < sorted[j].UID })
	return &fakePager{users: sorted}
}

func (f *fakePager) ListPage(ctx context.Context, q repository.PageQuery) ([]models.User, error) {
	f.queries = append(f.queries, q)
	if f.failNext > 0 {
		f.failNext--
		return nil, apperrors.Transientf("store unavailable")
	}

	var out []models.User
	for _, u := range f.users {
		if q.Gender != "" && q.Gender != "all" && u.Gender != q.Gender {
			continue
		}
		if q.Region != "" && q.Region != "all" && u.Region != q.Region {
			continue
		}
		if q.MinBirthYear != 0 && u.BirthYear < q.MinBirthYear {
			continue
		}
		if q.MaxBirthYear != 0 && u.BirthYear > q.MaxBirthYear {
			continue
		}
		if q.FromID != "" && u.UID < q.FromID {
			continue
		}
		if q.AfterID != "" && u.UID <= q.AfterID {
			continue
		}
		if q.BeforeID != "" && u.UID >= q.BeforeID {
			continue
		}
		out = append(out, u)
		if q.Limit > 0 && int64(len(out)) == q.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakePager) GetUserByID(ctx context.Context, uid string) (*models.User, error) {
	for _, u := range f.users {
		if u.UID == uid {
			copied := u
			return &copied, nil
		}
	}
	return nil, apperrors.NotFoundf("user %s", uid)
}

func directoryUser(uid string) models.User {
	return models.User{
		UID:       uid,
		Nickname:  "nick-" + uid,
		Gender:    "female",
		Region:    "seoul",
		BirthYear: 1995,
	}
}

// collectCycle drains a browse session to completion and returns every
// emitted uid in order.
func collectCycle(t *testing.T, svc *DirectoryService, ownerUID string, filter BrowseFilter) []string {
	t.Helper()
	ctx := context.Background()

	page, err := svc.OpenSession(ctx, ownerUID, filter)
	require.NoError(t, err)

	var uids []string
	for _, u := range page.Users {
		uids = append(uids, u.UID)
	}
	for !page.Done {
		page, err = svc.NextPage(ctx, ownerUID, page.SessionID)
		require.NoError(t, err)
		for _, u := range page.Users {
			uids = append(uids, u.UID)
		}
	}
	return uids
}

func TestBrowseFullCycleEmitsEveryoneExactlyOnce(t *testing.T) {
	// Uids spread across the uuid alphabet so the random seed lands
	// between some of them and the walk has to wrap.
	var users []models.User
	users = append(users, directoryUser("owner"))
	for i := 0; i < 20; i++ {
		users = append(users, directoryUser(fmt.Sprintf("%x%02d", i%16, i)))
	}
	pager := newFakePager(users...)
	svc := NewDirectoryService(pager, nil)

	uids := collectCycle(t, svc, "owner", BrowseFilter{})

	seen := make(map[string]int)
	for _, uid := range uids {
		seen[uid]++
	}
	assert.Len(t, uids, 20)
	for uid, n := range seen {
		assert.Equalf(t, 1, n, "uid %s emitted %d times", uid, n)
	}
	assert.NotContains(t, seen, "owner")
}

func TestBrowseExcludesSelfAndFriends(t *testing.T) {
	owner := directoryUser("owner")
	owner.FriendIDs = []string{"a1", "b2"}
	pager := newFakePager(owner, directoryUser("a1"), directoryUser("b2"), directoryUser("c3"), directoryUser("d4"))
	svc := NewDirectoryService(pager, nil)

	uids := collectCycle(t, svc, "owner", BrowseFilter{})

	assert.ElementsMatch(t, []string{"c3", "d4"}, uids)
}

func TestBrowsePageSize(t *testing.T) {
	var users []models.User
	users = append(users, directoryUser("owner"))
	for i := 0; i < 15; i++ {
		users = append(users, directoryUser(fmt.Sprintf("%x-user-%02d", i%16, i)))
	}
	pager := newFakePager(users...)
	svc := NewDirectoryService(pager, nil)

	page, err := svc.OpenSession(context.Background(), "owner", BrowseFilter{})
	require.NoError(t, err)
	assert.Len(t, page.Users, DirectoryPageSize)
	assert.False(t, page.Done)
}

func TestBrowseFilterBuildsBirthYearWindow(t *testing.T) {
	pager := newFakePager(directoryUser("owner"))
	svc := NewDirectoryService(pager, nil)

	_, err := svc.OpenSession(context.Background(), "owner", BrowseFilter{
		Gender:      "female",
		Region:      "seoul",
		MinAgeGroup: "20-early",
		MaxAgeGroup: "30-late",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pager.queries)

	minAge, maxAge, err := models.AgeRangeForGroups("20-early", "30-late")
	require.NoError(t, err)

	currentYear := time.Now().Year()
	q := pager.queries[0]
	assert.Equal(t, "female", q.Gender)
	assert.Equal(t, "seoul", q.Region)
	assert.Equal(t, currentYear-maxAge, q.MinBirthYear)
	assert.Equal(t, currentYear-minAge, q.MaxBirthYear)
}

func TestBrowseInvalidAgeGroupRejected(t *testing.T) {
	pager := newFakePager(directoryUser("owner"))
	svc := NewDirectoryService(pager, nil)

	_, err := svc.OpenSession(context.Background(), "owner", BrowseFilter{
		MinAgeGroup: "30-late",
		MaxAgeGroup: "20-early",
	})
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBrowseSessionOwnership(t *testing.T) {
	pager := newFakePager(directoryUser("owner"), directoryUser("intruder"), directoryUser("x1"),
		directoryUser("x2"), directoryUser("x3"), directoryUser("x4"),
		directoryUser("x5"), directoryUser("x6"), directoryUser("x7"))
	svc := NewDirectoryService(pager, nil)

	page, err := svc.OpenSession(context.Background(), "owner", BrowseFilter{})
	require.NoError(t, err)
	require.False(t, page.Done)

	_, err = svc.NextPage(context.Background(), "intruder", page.SessionID)
	require.ErrorIs(t, err, apperrors.ErrPermission)
}

func TestBrowseUnknownSession(t *testing.T) {
	svc := NewDirectoryService(newFakePager(directoryUser("owner")), nil)
	_, err := svc.NextPage(context.Background(), "owner", "no-such-session")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBrowseFailedFetchLeavesCursorResumable(t *testing.T) {
	var users []models.User
	users = append(users, directoryUser("owner"))
	for i := 0; i < 20; i++ {
		users = append(users, directoryUser(fmt.Sprintf("%x%02d", i%16, i)))
	}
	pager := newFakePager(users...)
	svc := NewDirectoryService(pager, nil)
	ctx := context.Background()

	page, err := svc.OpenSession(ctx, "owner", BrowseFilter{})
	require.NoError(t, err)

	uids := make(map[string]int)
	for _, u := range page.Users {
		uids[u.UID]++
	}

	// A failed advance must not lose or repeat anyone once the store
	// recovers.
	pager.failNext = 1
	_, err = svc.NextPage(ctx, "owner", page.SessionID)
	require.ErrorIs(t, err, apperrors.ErrTransient)

	for !page.Done {
		page, err = svc.NextPage(ctx, "owner", page.SessionID)
		require.NoError(t, err)
		for _, u := range page.Users {
			uids[u.UID]++
		}
	}

	assert.Len(t, uids, 20)
	for uid, n := range uids {
		assert.Equalf(t, 1, n, "uid %s emitted %d times", uid, n)
	}
}

func TestBrowseSweepReclaimsAbandonedSessions(t *testing.T) {
	pager := newFakePager(directoryUser("owner"), directoryUser("x1"), directoryUser("x2"),
		directoryUser("x3"), directoryUser("x4"), directoryUser("x5"),
		directoryUser("x6"), directoryUser("x7"))
	svc := NewDirectoryService(pager, nil)
	ctx := context.Background()

	// Sessions opened and never paged to completion nor closed.
	var abandoned []string
	for i := 0; i < 50; i++ {
		page, err := svc.OpenSession(ctx, "owner", BrowseFilter{})
		require.NoError(t, err)
		require.False(t, page.Done)
		abandoned = append(abandoned, page.SessionID)
	}

	live, err := svc.OpenSession(ctx, "owner", BrowseFilter{})
	require.NoError(t, err)

	svc.mu.Lock()
	require.Len(t, svc.sessions, 51)
	for _, id := range abandoned {
		svc.sessions[id].lastAccess = time.Now().Add(-time.Hour)
	}
	svc.mu.Unlock()

	assert.Equal(t, 50, svc.SweepIdleSessions(30*time.Minute))

	svc.mu.Lock()
	assert.Len(t, svc.sessions, 1)
	svc.mu.Unlock()

	_, err = svc.NextPage(ctx, "owner", abandoned[0])
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// The recently touched session is untouched and still pageable.
	_, err = svc.NextPage(ctx, "owner", live.SessionID)
	assert.NoError(t, err)
}

func TestBrowseCloseSessionDropsState(t *testing.T) {
	pager := newFakePager(directoryUser("owner"), directoryUser("x1"), directoryUser("x2"),
		directoryUser("x3"), directoryUser("x4"), directoryUser("x5"),
		directoryUser("x6"), directoryUser("x7"))
	svc := NewDirectoryService(pager, nil)

	page, err := svc.OpenSession(context.Background(), "owner", BrowseFilter{})
	require.NoError(t, err)
	require.False(t, page.Done)

	svc.CloseSession("owner", page.SessionID)
	_, err = svc.NextPage(context.Background(), "owner", page.SessionID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
