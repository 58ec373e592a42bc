package usecase

import (
	"context"
	stderrors "errors"
	"reflect"
	"sort"
	"strings"
	"time"

	"plant-shop/internal/auth/config"
	"plant-shop/internal/auth/domain/model"
	"plant-shop/internal/auth/domain/repository"
	"plant-shop/internal/shared/errors"
	"plant-shop/internal/shared/eventbus"
	"plant-shop/internal/shared/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const eventSource = "auth-usecase"

// AuthUsecaseInterface defines the contract for authentication use cases.
type AuthUsecaseInterface interface {
	SignUp(ctx context.Context, req SignUpRequest) (*AuthResult, error)
	SignIn(ctx context.Context, req SignInRequest) (*AuthResult, error)
	FederatedProviders() []string
	StartFederated(ctx context.Context, provider string) (string, error)
	CompleteFederated(ctx context.Context, provider, code, state string) (*AuthResult, error)
	ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error)
	Me(ctx context.Context, userID string) (*model.User, error)
}

// SignUpRequest represents the registration request
type SignUpRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"firstName,omitempty" validate:"max=100"`
	LastName  string `json:"lastName,omitempty" validate:"max=100"`
}

// SignInRequest represents the login request
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is the signed-in user and their access token.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// AuthUsecase implements the authentication logic.
type AuthUsecase struct {
	users     repository.UserRepository
	tokenSvc  repository.TokenService
	providers map[string]repository.FederatedProvider
	bus       eventbus.EventBusInterface
	validate  *validator.Validate
	config    *config.Config
	logger    logger.Logger
}

// NewAuthUsecase creates a new instance of AuthUsecase. bus may be nil.
func NewAuthUsecase(
	users repository.UserRepository,
	tokenSvc repository.TokenService,
	bus eventbus.EventBusInterface,
	cfg *config.Config,
	log logger.Logger,
	providers ...repository.FederatedProvider,
) *AuthUsecase {
	byKind := make(map[string]repository.FederatedProvider, len(providers))
	for _, p := range providers {
		byKind[p.Kind()] = p
	}
	return &AuthUsecase{
		users:     users,
		tokenSvc:  tokenSvc,
		providers: byKind,
		bus:       bus,
		validate:  newValidator(),
		config:    cfg,
		logger:    log.WithComponent(eventSource),
	}
}

// SignUp registers an email/password user and signs them in.
func (uc *AuthUsecase) SignUp(ctx context.Context, req SignUpRequest) (*AuthResult, error) {
	req.Email = model.NormalizeEmail(req.Email)
	if err := uc.validate.StructCtx(ctx, req); err != nil {
		return nil, validationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password").WithCause(err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Provider:     model.ProviderPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		if stderrors.Is(err, model.ErrUserExists) {
			uc.logger.WithContext(ctx).Infof("Sign-up rejected, email already registered: %s", req.Email)
			return nil, errors.NewConflictError("email already registered").WithCause(errors.ErrConflict)
		}
		uc.logger.WithContext(ctx).Errorf("Failed to create user: %v", err)
		return nil, errors.NewInternalError("failed to create user").WithCause(err)
	}

	result, err := uc.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	uc.logger.WithContext(ctx).WithFields(map[string]interface{}{"userId": user.ID}).Info("User signed up")
	uc.publish(ctx, eventbus.EventTypeUserSignedUp, user)
	return result, nil
}

// SignIn checks email and password. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (uc *AuthUsecase) SignIn(ctx context.Context, req SignInRequest) (*AuthResult, error) {
	req.Email = model.NormalizeEmail(req.Email)
	if err := uc.validate.StructCtx(ctx, req); err != nil {
		return nil, validationError(err)
	}

	user, err := uc.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if stderrors.Is(err, model.ErrUserNotFound) {
			return nil, invalidCredentials()
		}
		uc.logger.WithContext(ctx).Errorf("Failed to load user: %v", err)
		return nil, errors.NewInternalError("failed to load user").WithCause(err)
	}
	if user.PasswordHash == "" {
		return nil, invalidCredentials().WithDetail("reason", model.ErrFederatedOnly.Error())
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalidCredentials()
	}

	result, err := uc.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	uc.logger.WithContext(ctx).WithFields(map[string]interface{}{"userId": user.ID}).Info("User signed in")
	uc.publish(ctx, eventbus.EventTypeUserSignedIn, user)
	return result, nil
}

// FederatedProviders lists the configured provider kinds, sorted.
func (uc *AuthUsecase) FederatedProviders() []string {
	kinds := make([]string, 0, len(uc.providers))
	for k := range uc.providers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// StartFederated returns the consent URL to redirect the browser to.
func (uc *AuthUsecase) StartFederated(ctx context.Context, provider string) (string, error) {
	p, ok := uc.providers[provider]
	if !ok {
		return "", errors.NewNotFoundError("identity provider " + provider)
	}
	state, err := uc.tokenSvc.GenerateState(ctx, provider)
	if err != nil {
		return "", errors.NewInternalError("failed to sign state").WithCause(err)
	}
	return p.AuthCodeURL(state), nil
}

// CompleteFederated verifies state, exchanges code and finds or creates the user.
func (uc *AuthUsecase) CompleteFederated(ctx context.Context, provider, code, state string) (*AuthResult, error) {
	p, ok := uc.providers[provider]
	if !ok {
		return nil, errors.NewNotFoundError("identity provider " + provider)
	}
	if err := uc.tokenSvc.ValidateState(ctx, state, provider); err != nil {
		uc.logger.WithContext(ctx).Warnf("Rejected %s callback state: %v", provider, err)
		return nil, errors.NewAuthenticationError("invalid federated state").WithCause(errors.ErrInvalidToken)
	}
	if code == "" {
		return nil, errors.NewAuthenticationError("missing authorization code")
	}

	identity, err := p.Identity(ctx, code)
	if err != nil {
		uc.logger.WithContext(ctx).Warnf("%s identity exchange failed: %v", provider, err)
		return nil, errors.NewAuthenticationError("federated sign-in failed").WithCause(err)
	}
	email := model.NormalizeEmail(identity.Email)
	if email == "" {
		return nil, errors.NewAuthenticationError("provider returned no email")
	}

	user, err := uc.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case stderrors.Is(err, model.ErrUserNotFound):
		if user, err = uc.createFederatedUser(ctx, identity, email); err != nil {
			return nil, err
		}
	default:
		return nil, errors.NewInternalError("failed to load user").WithCause(err)
	}

	result, err := uc.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	uc.logger.WithContext(ctx).WithFields(map[string]interface{}{"userId": user.ID, "provider": provider}).
		Info("User signed in with federated provider")
	uc.publish(ctx, eventbus.EventTypeUserSignedIn, user)
	return result, nil
}

func (uc *AuthUsecase) createFederatedUser(ctx context.Context, identity *model.Identity, email string) (*model.User, error) {
	now := time.Now().UTC()
	user := &model.User{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Provider:  identity.Provider,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.users.Create(ctx, user)
	if stderrors.Is(err, model.ErrUserExists) {
		// lost a race with a concurrent callback for the same email
		return uc.users.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to create user").WithCause(err)
	}
	uc.publish(ctx, eventbus.EventTypeUserSignedUp, user)
	return user, nil
}

// ValidateToken validates a JWT token and returns the claims
func (uc *AuthUsecase) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, errors.NewAuthenticationError("invalid token").WithCause(errors.ErrInvalidToken)
	}
	return claims, nil
}

// Me returns the user behind an authenticated request.
func (uc *AuthUsecase) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, model.ErrUserNotFound) {
			return nil, errors.NewNotFoundError("user")
		}
		return nil, errors.NewInternalError("failed to load user").WithCause(err)
	}
	return user, nil
}

func (uc *AuthUsecase) issue(ctx context.Context, user *model.User) (*AuthResult, error) {
	token, err := uc.tokenSvc.GenerateToken(ctx, user.ID, user.Email)
	if err != nil {
		return nil, errors.NewInternalError("failed to generate token").WithCause(err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (uc *AuthUsecase) publish(ctx context.Context, eventType string, user *model.User) {
	if uc.bus == nil {
		return
	}
	uc.bus.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(eventType, map[string]interface{}{
		"userId":   user.ID,
		"provider": user.Provider,
	}, eventSource))
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func invalidCredentials() *errors.AppError {
	return errors.NewAuthenticationError("invalid email or password").WithCause(errors.ErrInvalidCredentials)
}

func validationError(err error) *errors.AppError {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewValidationError(err.Error())
	}
	ve := errors.NewValidationErrors()
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), fieldMessage(fe), nil)
	}
	return ve.ToAppError()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "invalid email format"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}
