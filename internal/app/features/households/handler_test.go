package households_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/larder/internal/app/features/households"
	"github.com/dalemusser/larder/internal/app/household"
	"github.com/dalemusser/larder/internal/app/system/actor"
	"github.com/dalemusser/larder/internal/app/system/ratelimit"
	"github.com/dalemusser/larder/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService answers from function fields; unset fields fail the call.
type stubService struct {
	get          func(ctx context.Context, id string) (models.Household, error)
	forUser      func(ctx context.Context, userID string) (models.Household, error)
	create       func(ctx context.Context, actorID, name string, typ models.HouseholdType) (models.Household, error)
	join         func(ctx context.Context, actorID, id string) (models.Household, error)
	leave        func(ctx context.Context, actorID, id string) (models.Household, error)
	addMember    func(ctx context.Context, ownerID, userID string) (models.Household, error)
	retype       func(ctx context.Context, actorID, id string, typ models.HouseholdType, selected string) ([]string, error)
	del          func(ctx context.Context, actorID, id string) (household.DeleteResult, error)
	rename       func(ctx context.Context, ownerID, id, name string) (models.Household, error)
	transfer     func(ctx context.Context, ownerID, id, newOwner string) (models.Household, error)
	createInvite func(ctx context.Context, ownerID, id string) (string, error)
	revokeInvite func(ctx context.Context, ownerID, id, token string) error
	acceptInvite func(ctx context.Context, actorID, token string) (models.Household, error)
	repair       func(ctx context.Context, id string) (household.RepairResult, error)
}

var errUnstubbed = errors.New("unstubbed call")

func (s *stubService) Get(ctx context.Context, id string) (models.Household, error) {
	if s.get == nil {
		return models.Household{}, errUnstubbed
	}
	return s.get(ctx, id)
}

func (s *stubService) GetHouseholdForUser(ctx context.Context, userID string) (models.Household, error) {
	if s.forUser == nil {
		return models.Household{}, errUnstubbed
	}
	return s.forUser(ctx, userID)
}

func (s *stubService) Create(ctx context.Context, actorID, name string, typ models.HouseholdType) (models.Household, error) {
	if s.create == nil {
		return models.Household{}, errUnstubbed
	}
	return s.create(ctx, actorID, name, typ)
}

func (s *stubService) Join(ctx context.Context, actorID, id string) (models.Household, error) {
	if s.join == nil {
		return models.Household{}, errUnstubbed
	}
	return s.join(ctx, actorID, id)
}

func (s *stubService) Leave(ctx context.Context, actorID, id string) (models.Household, error) {
	if s.leave == nil {
		return models.Household{}, errUnstubbed
	}
	return s.leave(ctx, actorID, id)
}

func (s *stubService) AddMember(ctx context.Context, ownerID, userID string) (models.Household, error) {
	if s.addMember == nil {
		return models.Household{}, errUnstubbed
	}
	return s.addMember(ctx, ownerID, userID)
}

func (s *stubService) Retype(ctx context.Context, actorID, id string, typ models.HouseholdType, selected string) ([]string, error) {
	if s.retype == nil {
		return nil, errUnstubbed
	}
	return s.retype(ctx, actorID, id, typ, selected)
}

func (s *stubService) Delete(ctx context.Context, actorID, id string) (household.DeleteResult, error) {
	if s.del == nil {
		return household.DeleteResult{}, errUnstubbed
	}
	return s.del(ctx, actorID, id)
}

func (s *stubService) Rename(ctx context.Context, ownerID, id, name string) (models.Household, error) {
	if s.rename == nil {
		return models.Household{}, errUnstubbed
	}
	return s.rename(ctx, ownerID, id, name)
}

func (s *stubService) TransferOwnership(ctx context.Context, ownerID, id, newOwner string) (models.Household, error) {
	if s.transfer == nil {
		return models.Household{}, errUnstubbed
	}
	return s.transfer(ctx, ownerID, id, newOwner)
}

func (s *stubService) CreateInvite(ctx context.Context, ownerID, id string) (string, error) {
	if s.createInvite == nil {
		return "", errUnstubbed
	}
	return s.createInvite(ctx, ownerID, id)
}

func (s *stubService) RevokeInvite(ctx context.Context, ownerID, id, token string) error {
	if s.revokeInvite == nil {
		return errUnstubbed
	}
	return s.revokeInvite(ctx, ownerID, id, token)
}

func (s *stubService) AcceptInvite(ctx context.Context, actorID, token string) (models.Household, error) {
	if s.acceptInvite == nil {
		return models.Household{}, errUnstubbed
	}
	return s.acceptInvite(ctx, actorID, token)
}

func (s *stubService) Repair(ctx context.Context, id string) (household.RepairResult, error) {
	if s.repair == nil {
		return household.RepairResult{}, errUnstubbed
	}
	return s.repair(ctx, id)
}

var home = models.Household{
	ID:      "h1",
	Name:    "Home",
	Type:    models.HouseholdGroup,
	OwnerID: "u1",
	Users:   []string{"u1", "u2"},
	Invites: []string{"tok1"},
}

func do(t *testing.T, svc *stubService, method, path, actorID, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := households.Routes(households.NewHandler(svc, nil, nil))
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if actorID != "" {
		req.Header.Set(actor.Header, actorID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), "body: %s", rec.Body.String())
	return m
}

func TestRoutes_RequireActor(t *testing.T) {
	rec := do(t, &stubService{}, http.MethodGet, "/mine", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decodeBody(t, rec)["kind"])
}

func TestCreate(t *testing.T) {
	svc := &stubService{
		create: func(_ context.Context, actorID, name string, typ models.HouseholdType) (models.Household, error) {
			assert.Equal(t, "u1", actorID)
			assert.Equal(t, "Home", name)
			assert.Equal(t, models.HouseholdPair, typ)
			return home, nil
		},
	}
	rec := do(t, svc, http.MethodPost, "/", "u1", `{"name":"Home","type":"Pair"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "h1", body["id"])
	assert.Equal(t, []any{"tok1"}, body["invites"], "owner sees invites")
}

func TestCreate_RejectsUnknownFields(t *testing.T) {
	rec := do(t, &stubService{}, http.MethodPost, "/", "u1", `{"name":"Home","owner":"u9"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeHousehold_MembersOnly(t *testing.T) {
	svc := &stubService{
		get: func(context.Context, string) (models.Household, error) { return home, nil },
	}

	rec := do(t, svc, http.MethodGet, "/h1", "u3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, svc, http.MethodGet, "/h1", "u2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []any{"u1", "u2"}, body["users"])
	assert.NotContains(t, body, "invites", "members other than the owner do not see invites")
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		kind   household.Kind
		status int
	}{
		{household.KindNotFound, http.StatusNotFound},
		{household.KindUserNotFound, http.StatusNotFound},
		{household.KindAlreadyMember, http.StatusConflict},
		{household.KindAlreadyExists, http.StatusConflict},
		{household.KindOwnerCannotLeave, http.StatusConflict},
		{household.KindInvalidArgument, http.StatusBadRequest},
		{household.KindStoreUnavailable, http.StatusServiceUnavailable},
		{household.KindPartialFailure, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			svc := &stubService{
				leave: func(context.Context, string, string) (models.Household, error) {
					return models.Household{}, &household.Error{Kind: tt.kind, Op: "leave", HouseholdID: "h1"}
				},
			}
			rec := do(t, svc, http.MethodPost, "/h1/leave", "u1", "")
			assert.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, string(tt.kind), body["kind"])
			if tt.kind.Retryable() {
				assert.Equal(t, true, body["retryable"])
			}
		})
	}
}

func TestPartialFailureBody(t *testing.T) {
	svc := &stubService{
		del: func(context.Context, string, string) (household.DeleteResult, error) {
			return household.DeleteResult{}, &household.Error{
				Kind:        household.KindPartialFailure,
				Op:          "delete",
				Phase:       household.PhaseDeleteActivities,
				HouseholdID: "h1",
				Done:        4,
				Err:         errors.New("socket closed"),
			}
		},
	}
	rec := do(t, svc, http.MethodDelete, "/h1", "u1", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "deleteActivities", body["phase"])
	assert.Equal(t, "h1", body["householdId"])
	assert.Equal(t, float64(4), body["done"])
}

func TestUnexpectedErrorIsInternal(t *testing.T) {
	svc := &stubService{
		join: func(context.Context, string, string) (models.Household, error) {
			return models.Household{}, errors.New("kaboom")
		},
	}
	rec := do(t, svc, http.MethodPost, "/h1/join", "u2", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Internal", body["kind"])
	assert.NotContains(t, body["error"], "kaboom")
}

func TestWritesIgnoreClientCancellation(t *testing.T) {
	svc := &stubService{
		join: func(ctx context.Context, _, _ string) (models.Household, error) {
			assert.NoError(t, ctx.Err(), "membership writes must not be cut short by the client")
			return home, nil
		},
	}
	router := households.Routes(households.NewHandler(svc, nil, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/h1/join", nil).WithContext(ctx)
	req.Header.Set(actor.Header, "u2")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAddMember(t *testing.T) {
	var added string
	svc := &stubService{
		forUser: func(_ context.Context, userID string) (models.Household, error) {
			if userID == "u1" {
				return home, nil
			}
			return models.Household{}, &household.Error{Kind: household.KindNotFound}
		},
		addMember: func(_ context.Context, ownerID, userID string) (models.Household, error) {
			added = userID
			h := home
			h.Users = append([]string{}, home.Users...)
			h.Users = append(h.Users, userID)
			return h, nil
		},
	}

	rec := do(t, svc, http.MethodPost, "/h2/members", "u1", `{"userId":"u3"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "owner of a different household")

	rec = do(t, svc, http.MethodPost, "/h1/members", "u1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, svc, http.MethodPost, "/h1/members", "u1", `{"userId":"u3"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u3", added)
	assert.Equal(t, []any{"u1", "u2", "u3"}, decodeBody(t, rec)["users"])
}

func TestRetype(t *testing.T) {
	svc := &stubService{
		retype: func(_ context.Context, actorID, id string, typ models.HouseholdType, selected string) ([]string, error) {
			assert.Equal(t, "u1", actorID)
			assert.Equal(t, "h1", id)
			assert.Equal(t, models.HouseholdPair, typ)
			assert.Equal(t, "u2", selected)
			return []string{"u1", "u2"}, nil
		},
	}
	rec := do(t, svc, http.MethodPost, "/h1/retype", "u1", `{"type":"Pair","selectedUserId":"u2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Pair", body["type"])
	assert.Equal(t, []any{"u1", "u2"}, body["users"])
}

func TestInvites(t *testing.T) {
	svc := &stubService{
		createInvite: func(_ context.Context, ownerID, id string) (string, error) {
			return "tok9", nil
		},
		revokeInvite: func(_ context.Context, ownerID, id, token string) error {
			assert.Equal(t, "tok9", token)
			return nil
		},
		acceptInvite: func(_ context.Context, actorID, token string) (models.Household, error) {
			assert.Equal(t, "u3", actorID)
			assert.Equal(t, "tok9", token)
			return home, nil
		},
	}

	rec := do(t, svc, http.MethodPost, "/h1/invites", "u1", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "tok9", decodeBody(t, rec)["token"])

	rec = do(t, svc, http.MethodPost, "/invites/tok9/accept", "u3", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, svc, http.MethodDelete, "/h1/invites/tok9", "u1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAcceptInvite_Throttled(t *testing.T) {
	calls := 0
	svc := &stubService{
		acceptInvite: func(context.Context, string, string) (models.Household, error) {
			calls++
			return models.Household{}, household.ErrNotFound
		},
	}
	h := households.NewHandler(svc, nil, nil)
	h.InviteLimit = ratelimit.NewInviteLimiter(2, time.Minute, 100, time.Minute)
	defer h.InviteLimit.Stop()
	router := households.Routes(h)

	accept := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/invites/guess/accept", nil)
		req.Header.Set(actor.Header, "u3")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNotFound, accept().Code)
	assert.Equal(t, http.StatusNotFound, accept().Code)
	rec := accept()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RateLimited", decodeBody(t, rec)["kind"])
	assert.Equal(t, 2, calls, "throttled attempts never reach the engine")
}

func TestRepair_MembersOnly(t *testing.T) {
	repaired := false
	svc := &stubService{
		get: func(context.Context, string) (models.Household, error) { return home, nil },
		repair: func(context.Context, string) (household.RepairResult, error) {
			repaired = true
			return household.RepairResult{HouseholdID: "h1", Linked: []string{"u2"}}, nil
		},
	}

	rec := do(t, svc, http.MethodPost, "/h1/repair", "u9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, repaired)

	rec = do(t, svc, http.MethodPost, "/h1/repair", "u2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"u2"}, decodeBody(t, rec)["linked"])
}
