package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Irvanev/hvala-dvisor-sub000/authz"
	"github.com/Irvanev/hvala-dvisor-sub000/controllers"
	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/events"
	"github.com/Irvanev/hvala-dvisor-sub000/identity"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/testdb"
	"github.com/Irvanev/hvala-dvisor-sub000/repository"
	"github.com/Irvanev/hvala-dvisor-sub000/services"
	"github.com/Irvanev/hvala-dvisor-sub000/utils"
	"github.com/Irvanev/hvala-dvisor-sub000/ws"
)

const bootstrapKey = "let-me-in"

type testServer struct {
	router      *gin.Engine
	local       *identity.Local
	users       *repository.UserRepository
	restaurants *repository.RestaurantRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, utils.RegisterValidators())

	db := testdb.Open(t)
	users := repository.NewUserRepository(db)
	restaurants := repository.NewRestaurantRepository(db)
	reviews := repository.NewReviewRepository(db)
	likes := repository.NewLikeRepository(db)
	notifications := repository.NewNotificationRepository(db)
	actions := repository.NewModerationRepository(db)

	local := identity.NewLocal(users, "test-secret", time.Hour)
	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)

	bus, err := events.NewBus(nil)
	require.NoError(t, err)
	hub := ws.NewNotificationHub()

	notificationSvc := services.NewNotificationService(notifications, hub)
	bus.OnRestaurantModerated("push-owner", notificationSvc.PushRestaurantModerated)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{}, 2)
	go func() { _ = bus.Serve(ctx); done <- struct{}{} }()
	go func() { _ = hub.Serve(ctx); done <- struct{}{} }()
	t.Cleanup(func() {
		cancel()
		<-done
		<-done
		_ = bus.Close()
	})
	select {
	case <-bus.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("event bus did not start")
	}

	roleSvc := services.NewRoleService(users, local, enforcer)
	moderationSvc := services.NewModerationService(users, restaurants, actions, local, enforcer, notificationSvc, bus)

	r := gin.New()
	RegisterRoutes(r, Deps{
		Identity:               local,
		CORSOrigins:            []string{"*"},
		BootstrapRatePerMinute: 100,

		Auth:          controllers.NewAuthController(services.NewAuthService(users, local)),
		Restaurants:   controllers.NewRestaurantController(services.NewRestaurantService(db, restaurants, users, enforcer)),
		Reviews:       controllers.NewReviewController(services.NewReviewService(db, reviews, restaurants, users, enforcer)),
		Favorites:     controllers.NewFavoriteController(services.NewFavoriteService(db, likes, restaurants, users)),
		Moderation:    controllers.NewModerationController(moderationSvc),
		Notifications: controllers.NewNotificationController(notificationSvc),
		Admin:         controllers.NewAdminController(roleSvc),
		Functions: controllers.NewFunctionsController(roleSvc, moderationSvc,
			services.NewBootstrapService(users, local, bootstrapKey), time.Minute),
		Hub: hub,
	})

	return &testServer{router: r, local: local, users: users, restaurants: restaurants}
}

func (s *testServer) signUp(t *testing.T, email string, role entity.Role) (*entity.User, string) {
	t.Helper()
	u := &entity.User{Email: email, DisplayName: email, Role: role}
	require.NoError(t, s.users.Create(context.Background(), u))
	tok, err := s.local.IssueToken(u)
	require.NoError(t, err)
	return u, tok
}

func (s *testServer) restaurant(t *testing.T, title, ownerID string, status entity.ModerationStatus) *entity.Restaurant {
	t.Helper()
	r := &entity.Restaurant{
		Title:      title,
		OwnerID:    ownerID,
		PriceRange: entity.PriceModerate,
		Moderation: entity.Moderation{Status: status},
	}
	require.NoError(t, s.restaurants.Create(context.Background(), r))
	return r
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type callableResponse struct {
	Result *controllers.CallableResult `json:"result"`
	Error  *struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeCallable(t *testing.T, w *httptest.ResponseRecorder) callableResponse {
	t.Helper()
	var out callableResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func moderate(id, status string) gin.H {
	return gin.H{"data": gin.H{"restaurantId": id, "status": status}}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestModerateRestaurantApproveFlow(t *testing.T) {
	s := newTestServer(t)
	_, modTok := s.signUp(t, "mod@example.com", entity.RoleModerator)
	owner, ownerTok := s.signUp(t, "owner@example.com", entity.RoleRegistered)
	rest := s.restaurant(t, "Konoba", owner.ID, entity.ModerationPending)

	w := s.do(t, http.MethodPost, "/functions/moderateRestaurant", modTok, moderate(rest.ID, "approved"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decodeCallable(t, w)
	require.NotNil(t, out.Result)
	assert.True(t, out.Result.Success)
	assert.Equal(t, "Restaurant approved", out.Result.Message)

	stored, err := s.users.FindByID(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleOwner, stored.Role)
	assert.Equal(t, "owner", stored.Claims["role"])

	w = s.do(t, http.MethodGet, "/notifications", ownerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []entity.Notification
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, entity.NotificationRestaurantApproved, items[0].Type)
	assert.Equal(t, rest.ID, items[0].RelatedID)

	// approved restaurants show up in the public listing
	w = s.do(t, http.MethodGet, "/restaurants", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []entity.Restaurant
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, rest.ID, listed[0].ID)
}

func TestModerateRestaurantErrors(t *testing.T) {
	s := newTestServer(t)
	_, modTok := s.signUp(t, "mod@example.com", entity.RoleModerator)
	_, userTok := s.signUp(t, "user@example.com", entity.RoleRegistered)
	decided := s.restaurant(t, "Decided", entity.GuestOwner, entity.ModerationRejected)
	pending := s.restaurant(t, "Pending", entity.GuestOwner, entity.ModerationPending)

	cases := []struct {
		name   string
		token  string
		body   any
		code   int
		status string
	}{
		{"anonymous", "", moderate(pending.ID, "approved"), http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"bad token", "garbage", moderate(pending.ID, "approved"), http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"not a moderator", userTok, moderate(pending.ID, "approved"), http.StatusForbidden, "PERMISSION_DENIED"},
		{"unknown status", modTok, moderate(pending.ID, "archived"), http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"missing id", modTok, moderate("", "approved"), http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"unknown restaurant", modTok, moderate("nope", "approved"), http.StatusNotFound, "NOT_FOUND"},
		{"already decided", modTok, moderate(decided.ID, "approved"), http.StatusBadRequest, "FAILED_PRECONDITION"},
		{"malformed body", modTok, []int{1}, http.StatusBadRequest, "INVALID_ARGUMENT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/functions/moderateRestaurant", tc.token, tc.body)
			assert.Equal(t, tc.code, w.Code, w.Body.String())
			out := decodeCallable(t, w)
			require.NotNil(t, out.Error)
			assert.Equal(t, tc.status, out.Error.Status)
			assert.NotEmpty(t, out.Error.Message)
		})
	}
}

func TestSetUserRole(t *testing.T) {
	s := newTestServer(t)
	_, adminTok := s.signUp(t, "admin@example.com", entity.RoleAdmin)
	target, targetTok := s.signUp(t, "target@example.com", entity.RoleRegistered)

	body := gin.H{"data": gin.H{"userId": target.ID, "newRole": "moderator"}}

	w := s.do(t, http.MethodPost, "/functions/setUserRole", targetTok, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PERMISSION_DENIED", decodeCallable(t, w).Error.Status)

	w = s.do(t, http.MethodPost, "/functions/setUserRole", adminTok, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decodeCallable(t, w).Result.Success)

	stored, err := s.users.FindByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleModerator, stored.Role)
	assert.Equal(t, "moderator", stored.Claims["role"])

	w = s.do(t, http.MethodPost, "/functions/setUserRole", adminTok,
		gin.H{"data": gin.H{"userId": target.ID, "newRole": "superuser"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ARGUMENT", decodeCallable(t, w).Error.Status)
}

func TestCreateInitialAdmin(t *testing.T) {
	s := newTestServer(t)
	u, _ := s.signUp(t, "first@example.com", entity.RoleRegistered)

	w := s.do(t, http.MethodGet, "/functions/createInitialAdmin?key=wrong&email=first@example.com", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Forbidden: ")

	w = s.do(t, http.MethodGet, "/functions/createInitialAdmin?key="+bootstrapKey+"&email=ghost@example.com", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/functions/createInitialAdmin?key="+bootstrapKey+"&email=first@example.com", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "User first@example.com is now an administrator", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	stored, err := s.users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, stored.Role)

	w = s.do(t, http.MethodGet, "/functions/createInitialAdmin?key="+bootstrapKey+"&email=first@example.com", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitAnonymousRestaurant(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/restaurants", "", gin.H{
		"title":         "Pod Volat",
		"priceRange":    "$$",
		"contactPerson": gin.H{"name": "Ana", "phone": "+382 20 000 000"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rest entity.Restaurant
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &rest))
	assert.Equal(t, entity.GuestOwner, rest.OwnerID)
	assert.Equal(t, entity.ModerationPending, rest.Moderation.Status)

	// pending submissions stay hidden from anonymous readers
	w = s.do(t, http.MethodGet, "/restaurants/"+rest.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, decodeEnvelope(t, w).OK)

	_, modTok := s.signUp(t, "mod@example.com", entity.RoleModerator)
	w = s.do(t, http.MethodGet, "/restaurants/"+rest.ID, modTok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitRejectsBadPriceRange(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/restaurants", "", gin.H{
		"title":         "Pod Volat",
		"priceRange":    "cheap",
		"contactPerson": gin.H{"email": "a@example.com"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decodeEnvelope(t, w).OK)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/profile/favorites", "/notifications", "/moderation/restaurants", "/admin/users"} {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		env := decodeEnvelope(t, w)
		assert.False(t, env.OK)
		assert.NotEmpty(t, env.Error)
	}

	w := s.do(t, http.MethodGet, "/notifications", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestModerationQueueRequiresModerator(t *testing.T) {
	s := newTestServer(t)
	_, userTok := s.signUp(t, "user@example.com", entity.RoleRegistered)
	_, modTok := s.signUp(t, "mod@example.com", entity.RoleModerator)
	s.restaurant(t, "Waiting", entity.GuestOwner, entity.ModerationPending)

	w := s.do(t, http.MethodGet, "/moderation/restaurants", userTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/moderation/restaurants?status=pending", modTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var queue []entity.Restaurant
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &queue))
	assert.Len(t, queue, 1)
}

func TestListFiltersAreValidated(t *testing.T) {
	s := newTestServer(t)
	_, modTok := s.signUp(t, "mod@example.com", entity.RoleModerator)
	_, adminTok := s.signUp(t, "admin@example.com", entity.RoleAdmin)

	w := s.do(t, http.MethodGet, "/moderation/restaurants?status=archived", modTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decodeEnvelope(t, w).OK)

	w = s.do(t, http.MethodGet, "/moderation/restaurants?status=rejected", modTok, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/admin/users?role=superuser", adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/admin/users?role=moderator", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var users []entity.User
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "mod@example.com", users[0].Email)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/health", "", nil)

	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
