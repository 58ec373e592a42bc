package storefront

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"
	"time"

	"plant-shop/internal/auth/adapter/remote"
	authmodel "plant-shop/internal/auth/domain/model"
	"plant-shop/internal/auth/usecase"
	"plant-shop/internal/catalog/adapter/persistence/memory"
	"plant-shop/internal/catalog/domain/model"
	"plant-shop/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductAdmin_AddListDelete(t *testing.T) {
	admin := NewProductAdmin(memory.NewDocumentStore(), nil)
	ctx := context.Background()
	require.NoError(t, admin.Mount(ctx))

	res, err := admin.Add(ctx, ProductForm{Name: " Fern ", Price: "12", Category: "plant"})
	require.NoError(t, err)
	require.False(t, res.Skipped)

	_, err = admin.Add(ctx, ProductForm{Name: "Monstera", Price: "24.50", Category: "plant", ImageURL: "https://img/monstera.jpg"})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, admin.Render(&out))
	assert.Contains(t, out.String(), "Fern - €12")
	assert.Contains(t, out.String(), "Monstera - €24.5")
	assert.Contains(t, out.String(), res.ID)

	_, err = admin.Delete(ctx, res.ID)
	require.NoError(t, err)
	items := admin.Resource().Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Monstera", items[0].Name)
}

func TestProductAdmin_BlankFieldsSkip(t *testing.T) {
	admin := NewProductAdmin(memory.NewDocumentStore(), nil)
	ctx := context.Background()

	for _, form := range []ProductForm{
		{Name: "Fern", Price: "", Category: "plant"},
		{Name: "Fern", Price: "   ", Category: "plant"},
		{Name: "", Price: "3", Category: "plant"},
		{Name: "Fern", Price: "3", Category: " "},
		{Name: "", Price: "abc", Category: "plant"},
		{Name: "Fern", Price: "lots", Category: ""},
	} {
		res, err := admin.Add(ctx, form)
		require.NoError(t, err)
		assert.True(t, res.Skipped, "%+v", form)
	}
	assert.Equal(t, 0, admin.Resource().Len())
}

func TestProductAdmin_BadPrice(t *testing.T) {
	admin := NewProductAdmin(memory.NewDocumentStore(), nil)

	_, err := admin.Add(context.Background(), ProductForm{Name: "Fern", Price: "twelve", Category: "plant"})
	assert.True(t, errors.IsValidation(err))

	_, err = admin.Add(context.Background(), ProductForm{Name: "Fern", Price: "-4", Category: "plant"})
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, 0, admin.Resource().Len())
}

func TestProductAdmin_NonFinitePrice(t *testing.T) {
	store := memory.NewDocumentStore()
	admin := NewProductAdmin(store, nil)
	ctx := context.Background()

	for _, price := range []string{"Inf", "+Inf", "-Inf", "NaN"} {
		res, err := admin.Add(ctx, ProductForm{Name: "Fern", Price: price, Category: "plant"})
		assert.True(t, errors.IsValidation(err), price)
		assert.False(t, res.Skipped, price)
	}

	docs, err := store.List(ctx, model.CollectionProducts)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestProductListPage_RenderCards(t *testing.T) {
	store := memory.NewDocumentStore()
	ctx := context.Background()
	_, err := store.Add(ctx, model.CollectionProducts, map[string]interface{}{"name": "Fern", "price": 12, "category": "plant"})
	require.NoError(t, err)
	_, err = store.Add(ctx, model.CollectionProducts, map[string]interface{}{
		"name": "Rose", "price": 3.5, "category": "flower", "imageUrl": "https://img/rose.jpg",
	})
	require.NoError(t, err)

	page := NewProductListPage(store, nil)
	require.NoError(t, page.Mount(ctx))

	var out bytes.Buffer
	require.NoError(t, page.Render(&out))
	text := out.String()
	assert.Contains(t, text, "All Products")
	assert.Contains(t, text, "€12")
	assert.Contains(t, text, "€3.5")
	assert.Contains(t, text, PlaceholderImage)
	assert.Contains(t, text, "https://img/rose.jpg")

	page.Unmount()
	out.Reset()
	require.NoError(t, page.Render(&out))
	assert.NotContains(t, out.String(), "Fern")
}

// slowStore holds List until release is closed.
type slowStore struct {
	*memory.DocumentStore
	entered chan struct{}
	release chan struct{}
}

func (s *slowStore) List(ctx context.Context, collection string) ([]*model.Document, error) {
	close(s.entered)
	<-s.release
	return s.DocumentStore.List(ctx, collection)
}

func TestProductListPage_ShowsLoading(t *testing.T) {
	store := &slowStore{DocumentStore: memory.NewDocumentStore(), entered: make(chan struct{}), release: make(chan struct{})}
	page := NewProductListPage(store, nil)

	done := make(chan error, 1)
	go func() { done <- page.Mount(context.Background()) }()

	select {
	case <-store.entered:
	case <-time.After(time.Second):
		t.Fatal("mount never reached the store")
	}

	var out bytes.Buffer
	require.NoError(t, page.Render(&out))
	assert.Equal(t, "Loading...\n", out.String())

	close(store.release)
	require.NoError(t, <-done)
	out.Reset()
	require.NoError(t, page.Render(&out))
	assert.Contains(t, out.String(), "All Products")
}

type failingStore struct {
	*memory.DocumentStore
}

func (failingStore) List(context.Context, string) ([]*model.Document, error) {
	return nil, stderrors.New("connection reset")
}

func TestProductListPage_MountFailure(t *testing.T) {
	page := NewProductListPage(failingStore{memory.NewDocumentStore()}, nil)
	err := page.Mount(context.Background())
	assert.True(t, errors.IsStoreUnavailable(err))

	var out bytes.Buffer
	require.NoError(t, page.Render(&out))
	assert.Contains(t, out.String(), "All Products")
}

func TestCategoryAdmin(t *testing.T) {
	admin := NewCategoryAdmin(memory.NewDocumentStore(), nil)
	ctx := context.Background()

	res, err := admin.Add(ctx, CategoryForm{Name: "Flowers", Value: "flower"})
	require.NoError(t, err)
	skipped, err := admin.Add(ctx, CategoryForm{Name: "Trees"})
	require.NoError(t, err)
	assert.True(t, skipped.Skipped)

	var out bytes.Buffer
	require.NoError(t, admin.Render(&out))
	assert.Contains(t, out.String(), "Flowers")
	assert.Contains(t, out.String(), "flower")
	assert.NotContains(t, out.String(), "Trees")

	_, err = admin.Delete(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, admin.Resource().Len())
}

type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) SignInWithPassword(ctx context.Context, email, password string) (*remote.AuthenticatedUser, error) {
	args := m.Called(ctx, email, password)
	if u := args.Get(0); u != nil {
		return u.(*remote.AuthenticatedUser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentity) SignUpWithPassword(ctx context.Context, req usecase.SignUpRequest) (*remote.AuthenticatedUser, error) {
	args := m.Called(ctx, req)
	if u := args.Get(0); u != nil {
		return u.(*remote.AuthenticatedUser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentity) FederatedRedirectURL(ctx context.Context, provider string) (string, error) {
	args := m.Called(ctx, provider)
	return args.String(0), args.Error(1)
}

func TestAuthFlows(t *testing.T) {
	idp := &mockIdentity{}
	signedIn := &remote.AuthenticatedUser{
		User:  &authmodel.User{ID: "u1", Email: "fern@example.com", FirstName: "Fern", LastName: "Gully"},
		Token: "tok",
	}
	idp.On("SignInWithPassword", mock.Anything, "fern@example.com", "photosynthesis").Return(signedIn, nil)
	idp.On("SignInWithPassword", mock.Anything, "fern@example.com", "wrong").Return(nil, &remote.Error{Status: 401, Code: "auth_failed"})
	idp.On("SignUpWithPassword", mock.Anything, usecase.SignUpRequest{
		Email: "fern@example.com", Password: "photosynthesis", FirstName: "Fern", LastName: "Gully",
	}).Return(signedIn, nil)
	idp.On("FederatedRedirectURL", mock.Anything, "google").Return("https://accounts.example.com/consent", nil)
	idp.On("FederatedRedirectURL", mock.Anything, "myspace").Return("", &remote.Error{Status: 404, Code: "not_found"})

	flows := NewAuthFlows(idp, nil)
	ctx := context.Background()

	user, err := flows.SignIn(ctx, "fern@example.com", "photosynthesis")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.User.ID)

	_, err = flows.SignIn(ctx, "fern@example.com", "wrong")
	var remoteErr *remote.Error
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 401, remoteErr.Status)

	_, err = flows.SignUp(ctx, SignUpForm{FirstName: "Fern", LastName: "Gully", Email: "fern@example.com", Password: "photosynthesis"})
	require.NoError(t, err)

	target, err := flows.FederatedSignIn(ctx, "google")
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.example.com/consent", target)
	_, err = flows.FederatedSignIn(ctx, "myspace")
	assert.Error(t, err)

	idp.AssertExpectations(t)

	var out bytes.Buffer
	require.NoError(t, RenderUser(&out, user, false))
	assert.Contains(t, out.String(), "fern@example.com")
	assert.Contains(t, out.String(), "Fern Gully")
	assert.NotContains(t, out.String(), "tok")
}
