package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-bodytrack/internal/config"
	"github.com/pribylovaa/go-bodytrack/internal/models"
	"github.com/pribylovaa/go-bodytrack/internal/storage"
	"github.com/pribylovaa/go-bodytrack/mocks"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "access-unit-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenSecret: "refresh-unit-secret",
		RefreshTokenTTL:    24 * time.Hour,
		Issuer:             "bodytrack",
		Audience:           []string{"bodytrack-web"},
		BcryptCost:         4,
	}
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	svc := New(st, testCfg())
	return svc, st, ctrl
}

func mustHashPW(t *testing.T, pw string) string {
	t.Helper()
	h, err := hashPassword(pw, 4)
	require.NoError(t, err)
	return h
}

func intp(v int) *int { return &v }
func floatp(v float64) *float64 { return &v }

func validInput() models.UserInput {
	return models.UserInput{
		Username:        "alice",
		Email:           "Alice@Example.com",
		Password:        "longenough1",
		PasswordConfirm: "longenough1",
		Age:             intp(30),
		Height:          floatp(170),
	}
}

func storedUser(t *testing.T, role models.Role) *models.User {
	t.Helper()
	return &models.User{
		ID:           uuid.New(),
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: mustHashPW(t, "longenough1"),
		Role:         role,
		Age:          30,
		Height:       170,
	}
}

// recorder запоминает события метрик.
type recorder struct{ events []string }

func (r *recorder) AuthEvent(event, outcome string) { r.events = append(r.events, event+":"+outcome) }

func TestPassword_HashAndCheck(t *testing.T) {
	t.Parallel()

	h1 := mustHashPW(t, "secret-pass")
	h2 := mustHashPW(t, "secret-pass")
	require.NotEqual(t, h1, h2, "соль уникальна для каждого вызова")

	require.True(t, checkPassword("secret-pass", h1))
	require.False(t, checkPassword("other-pass", h1))
	require.False(t, checkPassword("secret-pass", "not-a-bcrypt-hash"))
	require.False(t, checkPassword("secret-pass", ""))
}

func TestVerifyCredentials_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	u := storedUser(t, models.RoleUser)
	st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").Return(u, nil)

	got, err := svc.VerifyCredentials(context.Background(), " Alice@Example.com ", "longenough1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}

func TestVerifyCredentials_UnknownEmailAndWrongPassword_SameError(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").Return(nil, storage.ErrNotFound)
	st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").Return(storedUser(t, models.RoleUser), nil)

	_, errUnknown := svc.VerifyCredentials(context.Background(), "ghost@example.com", "longenough1")
	_, errWrong := svc.VerifyCredentials(context.Background(), "alice@example.com", "wrong-password")

	require.ErrorIs(t, errUnknown, ErrWrongCredentials)
	require.ErrorIs(t, errWrong, ErrWrongCredentials)
	require.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestVerifyCredentials_StorageError_Propagated(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, err := svc.VerifyCredentials(context.Background(), "alice@example.com", "x")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrWrongCredentials)
}

func TestIssue_SavesHashBeforeReturn(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	u := storedUser(t, models.RoleUser)

	var saved *models.RefreshToken
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *models.RefreshToken) error {
			saved = rt
			return nil
		})

	pair, err := svc.Issue(context.Background(), u)
	require.NoError(t, err)
	require.NotNil(t, saved)

	require.Equal(t, u.ID, saved.UserID)
	require.Equal(t, svc.refreshHash(pair.RefreshToken), saved.TokenHash)
	require.Len(t, saved.TokenHash, 64)
	require.NotEqual(t, pair.RefreshToken, saved.TokenHash, "сырой токен не хранится")
	require.True(t, saved.ExpiresAt.Equal(pair.RefreshExpiresAt))
	require.WithinDuration(t, time.Now().Add(24*time.Hour), pair.RefreshExpiresAt, 2*time.Second)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), pair.AccessExpiresAt, 2*time.Second)
}

func TestIssue_SaveFails_NoTokensReturned(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	pair, err := svc.Issue(context.Background(), storedUser(t, models.RoleUser))
	require.Error(t, err)
	require.Nil(t, pair)
}

func TestLogin_Validation(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	tcs := []struct {
		name, email, password string
		want                  []FieldError
	}{
		{"empty_both", "", "", []FieldError{
			{Field: "email", Message: "Email is required"},
			{Field: "password", Message: "Password is required"},
		}},
		{"bad_email", "not-an-email", "x", []FieldError{{Field: "email", Message: "Email is invalid"}}},
		{"spaces_only", "   ", "x", []FieldError{{Field: "email", Message: "Email is required"}}},
	}

	for _, tc := range tcs {
		_, _, err := svc.Login(context.Background(), tc.email, tc.password)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve, tc.name)
		require.Equal(t, tc.want, ve.Fields, tc.name)
	}
}

func TestLogin_AdminLiteralAccepted(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "admin").Return(nil, storage.ErrNotFound)

	_, _, err := svc.Login(context.Background(), "admin", "whatever")
	require.ErrorIs(t, err, ErrWrongCredentials)
}

func TestLogin_OK_RecordsEvent(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	rec := &recorder{}
	svc.SetEventRecorder(rec)

	u := storedUser(t, models.RoleUser)
	st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").Return(u, nil)
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	got, pair, err := svc.Login(context.Background(), "alice@example.com", "longenough1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, []string{"login:success"}, rec.events)
}

// fakeLimiter — ограничитель в памяти для unit-тестов.
type fakeLimiter struct {
	fails    map[string]int
	max      int
	allowErr error
	resets   int
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.allowErr != nil {
		return false, l.allowErr
	}
	return l.fails[key] < l.max, nil
}

func (l *fakeLimiter) Fail(_ context.Context, key string) error {
	l.fails[key]++
	return nil
}

func (l *fakeLimiter) Reset(_ context.Context, key string) error {
	delete(l.fails, key)
	l.resets++
	return nil
}

func TestLogin_Throttled(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	lim := &fakeLimiter{fails: map[string]int{}, max: 2}
	svc.SetLoginLimiter(lim)

	st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").Return(nil, storage.ErrNotFound).Times(2)

	for i := 0; i < 2; i++ {
		_, _, err := svc.Login(context.Background(), "alice@example.com", "bad-password")
		require.ErrorIs(t, err, ErrWrongCredentials)
	}

	_, _, err := svc.Login(context.Background(), "Alice@example.com", "bad-password")
	require.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestLogin_LimiterError_FailsOpen(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	lim := &fakeLimiter{fails: map[string]int{}, max: 1, allowErr: errors.New("redis down")}
	svc.SetLoginLimiter(lim)

	st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").Return(storedUser(t, models.RoleUser), nil)
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	_, _, err := svc.Login(context.Background(), "alice@example.com", "longenough1")
	require.NoError(t, err)
	require.Equal(t, 1, lim.resets)
}

func TestSignup_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").Return(nil, storage.ErrNotFound)

	var saved *models.User
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		})
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	in := validInput()
	in.Role = models.RoleAdmin // signup не даёт повышать роль

	u, pair, err := svc.Signup(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.Equal(t, models.RoleUser, u.Role)
	require.Equal(t, "alice@example.com", saved.Email)
	require.True(t, checkPassword("longenough1", saved.PasswordHash))
	require.Equal(t, 30, saved.Age)
}

func TestSignup_ValidationErrors(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	in := models.UserInput{
		Username:        "a-very-long-username-here",
		Email:           "bad",
		Password:        "short",
		PasswordConfirm: "other",
		Age:             intp(0),
	}

	_, _, err := svc.Signup(context.Background(), in)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, []FieldError{
		{Field: "username", Message: "Username is too long"},
		{Field: "email", Message: "Email is invalid"},
		{Field: "age", Message: "Age is invalid"},
		{Field: "height", Message: "Height is required"},
		{Field: "password", Message: "Password MUST be at least 8 characters long"},
		{Field: "passwordConfirm", Message: "Passwords DO NOT match"},
	}, ve.Fields)
}

func TestSignup_EmailTaken_OnLookup(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").Return(storedUser(t, models.RoleUser), nil)

	_, _, err := svc.Signup(context.Background(), validInput())

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, []FieldError{{Field: "email", Message: "E-mail already in use"}}, ve.Fields)
}

func TestSignup_EmailTaken_OnInsertRace(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)

	_, _, err := svc.Signup(context.Background(), validInput())

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "E-mail already in use", ve.Fields[0].Message)
}

func TestCreateUser_InvalidRole(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	in := validInput()
	in.Role = "root"

	_, err := svc.CreateUser(context.Background(), in)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "role", ve.Fields[0].Field)
}

func TestEnsureAdmin_ExistingUser_NoOp(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "admin").Return(storedUser(t, models.RoleAdmin), nil)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin", "adminpassword"))
}

func TestEnsureAdmin_Creates(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "admin").Return(nil, storage.ErrNotFound).Times(2)

	var saved *models.User
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		})

	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin", "adminpassword"))
	require.Equal(t, models.RoleAdmin, saved.Role)
	require.Equal(t, "admin", saved.Username)
}

func TestRefresh_MissingCookie(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, _, err := svc.Refresh(context.Background(), "")

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.Equal(t, ReasonNoRefreshToken, ae.Reason)
	require.Equal(t, RealmReauth, ae.Realm)
}

func TestRefresh_StorageError_IsNotAuthError(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	u := storedUser(t, models.RoleUser)
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)
	pair, err := svc.Issue(context.Background(), u)
	require.NoError(t, err)

	st.EXPECT().RefreshToken(gomock.Any(), u.ID, svc.refreshHash(pair.RefreshToken)).
		Return(nil, errors.New("db down"))

	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestLogout_UserMissing(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	st.EXPECT().UserByID(gomock.Any(), id).Return(nil, storage.ErrNotFound)

	require.ErrorIs(t, svc.Logout(context.Background(), id, "raw"), ErrUserNotFound)
}

func TestLogout_NoCookie_NoOp(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	u := storedUser(t, models.RoleUser)
	st.EXPECT().UserByID(gomock.Any(), u.ID).Return(u, nil)

	require.NoError(t, svc.Logout(context.Background(), u.ID, ""))
}

func TestLogout_DeletesByHash(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	u := storedUser(t, models.RoleUser)
	st.EXPECT().UserByID(gomock.Any(), u.ID).Return(u, nil)
	st.EXPECT().DeleteRefreshToken(gomock.Any(), u.ID, svc.refreshHash("raw-token")).Return(nil)

	require.NoError(t, svc.Logout(context.Background(), u.ID, "raw-token"))
}

func TestLogoutAll(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	u := storedUser(t, models.RoleUser)
	st.EXPECT().UserByID(gomock.Any(), u.ID).Return(u, nil)
	st.EXPECT().DeleteUserRefreshTokens(gomock.Any(), u.ID).Return(int64(3), nil)

	require.NoError(t, svc.LogoutAll(context.Background(), u.ID))
}

func TestPurgeExpiredTokens_UsesServiceClock(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	st.EXPECT().DeleteExpiredTokens(gomock.Any(), now).Return(int64(7), nil)

	n, err := svc.PurgeExpiredTokens(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(7), n)
}

func TestAuthenticate_SchemeErrors(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	for _, h := range []string{"", "Bearer", "Basic abc", "Token xyz", "Bearer    "} {
		_, err := svc.Authenticate(context.Background(), h)

		var ae *AuthError
		require.ErrorAs(t, err, &ae, h)
		require.Equal(t, ReasonInvalidAccessToken, ae.Reason, h)
		require.Equal(t, RealmDefault, ae.Realm, h)
	}
}

func TestAuthenticate_RefreshTokenIsNotAccessToken(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)
	pair, err := svc.Issue(context.Background(), storedUser(t, models.RoleUser))
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "Bearer "+pair.RefreshToken)

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, ReasonInvalidAccessToken, ae.Reason)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	admin := &models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}
	user := &models.Identity{UserID: uuid.New(), Role: models.RoleUser}

	require.NoError(t, RequireRole(admin, models.RoleAdmin))
	require.NoError(t, RequireRole(user, models.RoleUser))
	require.ErrorIs(t, RequireRole(user, models.RoleAdmin), ErrForbidden)
	require.ErrorIs(t, RequireRole(admin, models.RoleUser), ErrForbidden)
	require.ErrorIs(t, RequireRole(nil, models.RoleAdmin), ErrUnauthenticated)
}

func TestProfileAndDeleteUser_NotFound(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	id := uuid.New()
	st.EXPECT().UserByID(gomock.Any(), id).Return(nil, storage.ErrNotFound)
	st.EXPECT().DeleteUser(gomock.Any(), id).Return(storage.ErrNotFound)

	_, err := svc.Profile(context.Background(), id)
	require.ErrorIs(t, err, ErrUserNotFound)
	require.ErrorIs(t, svc.DeleteUser(context.Background(), id), ErrUserNotFound)
}

func TestAuthError_Message(t *testing.T) {
	t.Parallel()

	err := &AuthError{Kind: ErrUnauthenticated, Reason: ReasonExpiredAccessToken, Description: "access token has expired"}
	require.Equal(t, "unauthenticated: expired_access_token (access token has expired)", err.Error())
	require.True(t, err.Expired())
	require.True(t, errors.Is(err, ErrUnauthenticated))
}
