package storefront

import (
	"context"
	"fmt"
	"io"

	"plant-shop/internal/auth/adapter/remote"
	"plant-shop/internal/auth/usecase"
	"plant-shop/internal/shared/logger"
)

// IdentityProvider is the client side of the /auth endpoints.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*remote.AuthenticatedUser, error)
	SignUpWithPassword(ctx context.Context, req usecase.SignUpRequest) (*remote.AuthenticatedUser, error)
	FederatedRedirectURL(ctx context.Context, provider string) (string, error)
}

// SignUpForm is the registration form.
type SignUpForm struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AuthFlows runs the sign-in and sign-up screens against an identity provider.
// The signed-in user is returned to the caller and not kept anywhere.
type AuthFlows struct {
	idp IdentityProvider
	log logger.Logger
}

func NewAuthFlows(idp IdentityProvider, log logger.Logger) *AuthFlows {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &AuthFlows{idp: idp, log: log.WithComponent("auth-flows")}
}

func (f *AuthFlows) SignIn(ctx context.Context, email, password string) (*remote.AuthenticatedUser, error) {
	user, err := f.idp.SignInWithPassword(ctx, email, password)
	if err != nil {
		f.log.Errorf("Login error: %v", err)
		return nil, err
	}
	f.log.WithFields(map[string]interface{}{"userId": user.User.ID}).Info("Logged in")
	return user, nil
}

func (f *AuthFlows) SignUp(ctx context.Context, form SignUpForm) (*remote.AuthenticatedUser, error) {
	user, err := f.idp.SignUpWithPassword(ctx, usecase.SignUpRequest{
		Email:     form.Email,
		Password:  form.Password,
		FirstName: form.FirstName,
		LastName:  form.LastName,
	})
	if err != nil {
		f.log.Errorf("Registration error: %v", err)
		return nil, err
	}
	f.log.WithFields(map[string]interface{}{"userId": user.User.ID}).Info("Registered")
	return user, nil
}

// FederatedSignIn returns the consent URL the user has to open to finish
// signing in with provider.
func (f *AuthFlows) FederatedSignIn(ctx context.Context, provider string) (string, error) {
	target, err := f.idp.FederatedRedirectURL(ctx, provider)
	if err != nil {
		f.log.Errorf("%s login error: %v", provider, err)
		return "", err
	}
	f.log.Infof("Redirecting to %s", provider)
	return target, nil
}

// RenderUser prints who is signed in. The token is only printed when asked for.
func RenderUser(w io.Writer, user *remote.AuthenticatedUser, withToken bool) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Signed in as\t%s\n", user.User.Email)
	if name := user.User.DisplayName(); name != "" && name != user.User.Email {
		fmt.Fprintf(tw, "Name\t%s\n", name)
	}
	fmt.Fprintf(tw, "User ID\t%s\n", user.User.ID)
	if withToken {
		fmt.Fprintf(tw, "Token\t%s\n", user.Token)
	}
	return tw.Flush()
}
