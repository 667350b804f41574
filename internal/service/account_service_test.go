package service

import (
	"context"
	"testing"
	"time"

	"storefront-api/internal/auth"
	"storefront-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccountStore struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{users: make(map[int64]*models.User)}
}

func (f *fakeAccountStore) CreateUser(ctx context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return models.ErrDuplicateEmail
		}
	}
	f.nextID++
	user.ID = f.nextID
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeAccountStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeAccountStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeAccountStore) UpdateUserProfile(ctx context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return models.ErrNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeAccountStore) UpdateUserAddresses(ctx context.Context, userID int64, addrs models.AddressList) error {
	u, ok := f.users[userID]
	if !ok {
		return models.ErrNotFound
	}
	u.Addresses = addrs
	return nil
}

func accountFixture(t *testing.T) (*AccountService, *fakeAccountStore) {
	t.Helper()
	fs := newFakeAccountStore()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAccountService(fs, tokens), fs
}

func validRegistration() *RegisterRequest {
	return &RegisterRequest{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     "Asha@Example.com",
		Password:  "Str0ng!Pass",
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc, _ := accountFixture(t)

	user, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.NotEqual(t, "Str0ng!Pass", user.PasswordHash)
	assert.True(t, auth.CheckPassword(user.PasswordHash, "Str0ng!Pass"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := accountFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	_, err = svc.Register(ctx, validRegistration())
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc, _ := accountFixture(t)
	ctx := context.Background()

	short := validRegistration()
	short.FirstName = "A"
	_, err := svc.Register(ctx, short)
	assert.ErrorIs(t, err, ErrValidation)

	badEmail := validRegistration()
	badEmail.Email = "not-an-email"
	_, err = svc.Register(ctx, badEmail)
	assert.ErrorIs(t, err, ErrValidation)

	weak := validRegistration()
	weak.Password = "password"
	_, err = svc.Register(ctx, weak)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoginIssuesToken(t *testing.T) {
	svc, _ := accountFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, &LoginRequest{Email: "asha@example.com", Password: "Str0ng!Pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "asha@example.com", user.Email)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := accountFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, _, wrongPass := svc.Login(ctx, &LoginRequest{Email: "asha@example.com", Password: "wrong"})
	_, _, unknown := svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "wrong"})

	assert.ErrorIs(t, wrongPass, models.ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, models.ErrInvalidCredentials)
	assert.Equal(t, wrongPass, unknown)
}

func TestAddressBookLifecycle(t *testing.T) {
	svc, _ := accountFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	home := models.Address{FullName: "Asha Rao", Phone: "9876543210", Line1: "12 MG Road",
		City: "Bengaluru", State: "Karnataka", PostalCode: "560001"}
	office := home
	office.Line1 = "4 Residency Road"

	addrs, err := svc.AddAddress(ctx, user.ID, home)
	require.NoError(t, err)
	assert.Len(t, addrs, 1)
	assert.Equal(t, "India", addrs[0].Country, "country defaults when blank")

	addrs, err = svc.AddAddress(ctx, user.ID, office)
	require.NoError(t, err)
	assert.Len(t, addrs, 2)

	office.City = "Mysuru"
	addrs, err = svc.UpdateAddress(ctx, user.ID, 1, office)
	require.NoError(t, err)
	assert.Equal(t, "Mysuru", addrs[1].City)

	_, err = svc.UpdateAddress(ctx, user.ID, 5, office)
	assert.ErrorIs(t, err, models.ErrNotFound)

	addrs, err = svc.RemoveAddress(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, addrs, 1)
	assert.Equal(t, "4 Residency Road", addrs[0].Line1)
}

func TestUpdateProfilePatchesOnlyGivenFields(t *testing.T) {
	svc, _ := accountFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{Phone: "9876543210"})
	require.NoError(t, err)
	assert.Equal(t, "Asha", updated.FirstName)
	require.True(t, updated.Phone.Valid)
	assert.Equal(t, "9876543210", updated.Phone.String)
}
