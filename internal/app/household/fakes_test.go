package household_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/dalemusser/larder/internal/app/household"
	householdstore "github.com/dalemusser/larder/internal/app/store/households"
	userstore "github.com/dalemusser/larder/internal/app/store/users"
	"github.com/dalemusser/larder/internal/domain/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errBoom = errors.New("boom: connection reset")

// world is an in-memory rendition of the five collections with per-method
// fault injection. Method names are "collection.Method".
type world struct {
	mu         sync.Mutex
	households map[string]models.Household
	users      map[string]models.User
	items      map[string]models.FoodItem
	acts       map[string]models.Activity
	images     map[string]models.ProfilePicture

	calls  map[string]int
	faults map[string]fault
	before map[string]func()
}

type fault struct {
	nth  int // fail on this call (1-based); 0 fails every call
	err  error
	used bool
}

func newWorld() *world {
	return &world{
		households: map[string]models.Household{},
		users:      map[string]models.User{},
		items:      map[string]models.FoodItem{},
		acts:       map[string]models.Activity{},
		images:     map[string]models.ProfilePicture{},
		calls:      map[string]int{},
		faults:     map[string]fault{},
		before:     map[string]func(){},
	}
}

// failOn makes the nth call (counted from now) to method fail.
func (w *world) failOn(method string, nth int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls[method] = 0
	w.faults[method] = fault{nth: nth, err: errBoom}
}

func (w *world) heal() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.faults = map[string]fault{}
}

func (w *world) callCount(method string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls[method]
}

// beforeNext runs fn, with w.mu held, ahead of the next call to method. It
// stands in for a concurrent writer landing between a read and a write.
func (w *world) beforeNext(method string, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.before[method] = fn
}

// hit records a call; callers hold w.mu.
func (w *world) hit(method string) error {
	w.calls[method]++
	if fn, ok := w.before[method]; ok {
		delete(w.before, method)
		fn()
	}
	f, ok := w.faults[method]
	if !ok || f.used {
		return nil
	}
	if f.nth == 0 {
		return f.err
	}
	if w.calls[method] == f.nth {
		f.used = true
		w.faults[method] = f
		return f.err
	}
	return nil
}

func (w *world) service(opts ...household.Option) *household.Service {
	return household.New(
		&fakeHouseholds{w}, &fakeUsers{w}, &fakeFoodItems{w}, &fakeActivities{w}, &fakeImages{w},
		zap.NewNop(), opts...)
}

func (w *world) addUser(id, householdID string) {
	w.users[id] = models.User{ID: id, HouseholdID: householdID}
}

func (w *world) addItem(id, userID, householdID, imageID string) {
	w.items[id] = models.FoodItem{ID: id, UserID: userID, HouseholdID: householdID, ImageID: imageID}
	if imageID != "" {
		w.images[imageID] = models.ProfilePicture{ID: imageID, UserID: userID}
	}
}

func (w *world) addActivity(id, householdID string) {
	w.acts[id] = models.Activity{ID: id, HouseholdID: householdID}
}

func (w *world) household(t *testing.T, id string) models.Household {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	h, ok := w.households[id]
	require.True(t, ok, "household %s missing", id)
	return h
}

func (w *world) user(id string) models.User {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.users[id]
}

// requireConsistent checks the bidirectional users/householdId link across
// the whole world.
func (w *world) requireConsistent(t *testing.T) {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range w.households {
		require.Contains(t, h.Users, h.OwnerID, "household %s must list its owner", h.ID)
		for _, uid := range h.Users {
			require.Equal(t, h.ID, w.users[uid].HouseholdID, "user %s listed in %s must point back", uid, h.ID)
		}
	}
	for _, u := range w.users {
		if u.HouseholdID == "" {
			continue
		}
		h, ok := w.households[u.HouseholdID]
		require.True(t, ok, "user %s points at missing household %s", u.ID, u.HouseholdID)
		require.Contains(t, h.Users, u.ID, "user %s must be listed in %s", u.ID, h.ID)
	}
}

func cloneHousehold(h models.Household) models.Household {
	h.Users = append([]string{}, h.Users...)
	h.Invites = append([]string{}, h.Invites...)
	return h
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

type fakeHouseholds struct{ w *world }

func (f *fakeHouseholds) Get(_ context.Context, id string) (models.Household, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("households.Get"); err != nil {
		return models.Household{}, err
	}
	h, ok := f.w.households[id]
	if !ok {
		return models.Household{}, householdstore.ErrNotFound
	}
	return cloneHousehold(h), nil
}

func (f *fakeHouseholds) GetByMember(_ context.Context, userID string) (models.Household, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("households.GetByMember"); err != nil {
		return models.Household{}, err
	}
	for _, id := range sortedKeys(f.w.households) {
		if h := f.w.households[id]; contains(h.Users, userID) {
			return cloneHousehold(h), nil
		}
	}
	return models.Household{}, householdstore.ErrNotFound
}

func (f *fakeHouseholds) GetByInvite(_ context.Context, token string) (models.Household, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("households.GetByInvite"); err != nil {
		return models.Household{}, err
	}
	for _, id := range sortedKeys(f.w.households) {
		if h := f.w.households[id]; contains(h.Invites, token) {
			return cloneHousehold(h), nil
		}
	}
	return models.Household{}, householdstore.ErrNotFound
}

func (f *fakeHouseholds) Create(_ context.Context, h models.Household) (models.Household, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("households.Create"); err != nil {
		return models.Household{}, err
	}
	if _, ok := f.w.households[h.ID]; ok {
		return models.Household{}, householdstore.ErrAlreadyExists
	}
	for _, other := range f.w.households {
		if other.OwnerID == h.OwnerID {
			return models.Household{}, householdstore.ErrAlreadyExists
		}
	}
	f.w.households[h.ID] = cloneHousehold(h)
	return cloneHousehold(h), nil
}

func (f *fakeHouseholds) UpdateField(_ context.Context, id, field string, value any) error {
	return f.update("households.UpdateField", id, func(h *models.Household) {
		switch field {
		case householdstore.FieldName:
			h.Name = value.(string)
		case householdstore.FieldType:
			h.Type = models.HouseholdType(value.(string))
		case householdstore.FieldOwnerID:
			h.OwnerID = value.(string)
		}
	})
}

func (f *fakeHouseholds) AddMember(_ context.Context, id, userID string) error {
	return f.update("households.AddMember", id, func(h *models.Household) {
		if !contains(h.Users, userID) {
			h.Users = append(h.Users, userID)
		}
	})
}

func (f *fakeHouseholds) RemoveMembers(_ context.Context, id string, userIDs ...string) error {
	return f.update("households.RemoveMembers", id, func(h *models.Household) {
		var kept []string
		for _, u := range h.Users {
			if !contains(userIDs, u) {
				kept = append(kept, u)
			}
		}
		h.Users = kept
	})
}

func (f *fakeHouseholds) AddInvite(_ context.Context, id, token string) error {
	return f.update("households.AddInvite", id, func(h *models.Household) {
		if !contains(h.Invites, token) {
			h.Invites = append(h.Invites, token)
		}
	})
}

func (f *fakeHouseholds) RemoveInvite(_ context.Context, id, token string) error {
	return f.update("households.RemoveInvite", id, func(h *models.Household) {
		var kept []string
		for _, x := range h.Invites {
			if x != token {
				kept = append(kept, x)
			}
		}
		h.Invites = kept
	})
}

func (f *fakeHouseholds) update(method, id string, fn func(*models.Household)) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit(method); err != nil {
		return err
	}
	h, ok := f.w.households[id]
	if !ok {
		return householdstore.ErrNotFound
	}
	fn(&h)
	f.w.households[id] = h
	return nil
}

func (f *fakeHouseholds) Delete(_ context.Context, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("households.Delete"); err != nil {
		return err
	}
	delete(f.w.households, id)
	return nil
}

type fakeUsers struct{ w *world }

func (f *fakeUsers) Get(_ context.Context, id string) (models.User, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("users.Get"); err != nil {
		return models.User{}, err
	}
	u, ok := f.w.users[id]
	if !ok {
		return models.User{}, userstore.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListByHousehold(_ context.Context, householdID string) ([]models.User, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("users.ListByHousehold"); err != nil {
		return nil, err
	}
	var out []models.User
	for _, id := range sortedKeys(f.w.users) {
		if u := f.w.users[id]; u.HouseholdID == householdID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) SetHousehold(_ context.Context, userID, householdID string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("users.SetHousehold"); err != nil {
		return err
	}
	u, ok := f.w.users[userID]
	if !ok {
		return userstore.ErrNotFound
	}
	u.HouseholdID = householdID
	f.w.users[userID] = u
	return nil
}

func (f *fakeUsers) LinkHousehold(_ context.Context, userID, householdID string) (bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("users.LinkHousehold"); err != nil {
		return false, err
	}
	u, ok := f.w.users[userID]
	if !ok {
		return false, userstore.ErrNotFound
	}
	if u.HouseholdID != "" && u.HouseholdID != householdID {
		return false, nil
	}
	u.HouseholdID = householdID
	f.w.users[userID] = u
	return true, nil
}

func (f *fakeUsers) ClearHousehold(_ context.Context, userID, householdID string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("users.ClearHousehold"); err != nil {
		return err
	}
	f.w.clearUser(userID, householdID)
	return nil
}

func (f *fakeUsers) ClearHouseholdMany(_ context.Context, userIDs []string, householdID string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("users.ClearHouseholdMany"); err != nil {
		return err
	}
	for _, id := range userIDs {
		f.w.clearUser(id, householdID)
	}
	return nil
}

func (w *world) clearUser(userID, householdID string) {
	if u, ok := w.users[userID]; ok && u.HouseholdID == householdID {
		u.HouseholdID = ""
		w.users[userID] = u
	}
}

type fakeFoodItems struct{ w *world }

func (f *fakeFoodItems) list(method string, match func(models.FoodItem) bool) ([]models.FoodItem, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit(method); err != nil {
		return nil, err
	}
	var out []models.FoodItem
	for _, id := range sortedKeys(f.w.items) {
		if it := f.w.items[id]; match(it) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeFoodItems) ListByUser(_ context.Context, userID string) ([]models.FoodItem, error) {
	return f.list("foodItems.ListByUser", func(it models.FoodItem) bool { return it.UserID == userID })
}

func (f *fakeFoodItems) ListByHousehold(_ context.Context, householdID string) ([]models.FoodItem, error) {
	return f.list("foodItems.ListByHousehold", func(it models.FoodItem) bool { return it.HouseholdID == householdID })
}

func (f *fakeFoodItems) SetHousehold(_ context.Context, ids []string, householdID string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("foodItems.SetHousehold"); err != nil {
		return err
	}
	for _, id := range ids {
		if it, ok := f.w.items[id]; ok {
			it.HouseholdID = householdID
			f.w.items[id] = it
		}
	}
	return nil
}

func (f *fakeFoodItems) DeleteMany(_ context.Context, ids []string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("foodItems.DeleteMany"); err != nil {
		return err
	}
	for _, id := range ids {
		delete(f.w.items, id)
	}
	return nil
}

type fakeActivities struct{ w *world }

func (f *fakeActivities) ListByHousehold(_ context.Context, householdID string) ([]models.Activity, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("activities.ListByHousehold"); err != nil {
		return nil, err
	}
	var out []models.Activity
	for _, id := range sortedKeys(f.w.acts) {
		if a := f.w.acts[id]; a.HouseholdID == householdID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeActivities) DeleteMany(_ context.Context, ids []string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("activities.DeleteMany"); err != nil {
		return err
	}
	for _, id := range ids {
		delete(f.w.acts, id)
	}
	return nil
}

type fakeImages struct{ w *world }

func (f *fakeImages) DeleteMany(_ context.Context, ids []string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if err := f.w.hit("images.DeleteMany"); err != nil {
		return err
	}
	for _, id := range ids {
		delete(f.w.images, id)
	}
	return nil
}
