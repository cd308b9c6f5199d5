package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/flowtrade/portal/internal/database"
	apperrors "github.com/flowtrade/portal/internal/errors"
	portalDomain "github.com/flowtrade/portal/internal/portal/domain"
	portalService "github.com/flowtrade/portal/internal/portal/service"
	appValidation "github.com/flowtrade/portal/internal/validation"
)

// tokenUseCase implements TokenUseCase.
type tokenUseCase struct {
	txManager    database.TxManager
	tokenRepo    TokenRepository
	tokenService portalService.TokenService
	defaultTTL   time.Duration
	now          func() time.Time
}

var notNilUUID = validation.By(func(value any) error {
	if id, ok := value.(uuid.UUID); ok && id == uuid.Nil {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
})

var knownTokenType = validation.By(func(value any) error {
	if t, ok := value.(portalDomain.TokenType); ok && !t.IsValid() {
		return validation.NewError("validation_token_type", "must be one of quote, invoice, job, dashboard")
	}
	return nil
})

func validateIssueTokenInput(input *portalDomain.IssueTokenInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.TokenType, validation.Required, knownTokenType),
		validation.Field(&input.ResourceID,
			validation.When(
				input.TokenType == portalDomain.TokenTypeDashboard,
				validation.Nil.Error("must be empty for dashboard tokens"),
			).Else(
				validation.NotNil.Error("is required"),
			),
		),
		validation.Field(&input.CustomerID, notNilUUID),
		validation.Field(&input.OrgID, notNilUUID),
		validation.Field(&input.TTL, validation.Min(time.Duration(0))),
	)
	return appValidation.WrapValidationError(err)
}

// Issue validates the input, generates a token and stores its hash.
//
// The plain token in the output is never stored and cannot be recovered later; it is
// meant to be embedded in the link sent to the customer.
func (t *tokenUseCase) Issue(
	ctx context.Context,
	input *portalDomain.IssueTokenInput,
) (*portalDomain.IssueTokenOutput, error) {
	if err := validateIssueTokenInput(input); err != nil {
		return nil, err
	}

	plainToken, tokenHash, err := t.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	ttl := t.defaultTTL
	if input.TTL > 0 {
		ttl = input.TTL
	}

	now := t.now()
	token := &portalDomain.PortalToken{
		ID:         uuid.Must(uuid.NewV7()),
		TokenHash:  tokenHash,
		TokenType:  input.TokenType,
		ResourceID: input.ResourceID,
		CustomerID: input.CustomerID,
		OrgID:      input.OrgID,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}

	if err := t.tokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	return &portalDomain.IssueTokenOutput{Token: token, PlainToken: plainToken}, nil
}

// Revoke invalidates a token. The first revocation instant is kept.
func (t *tokenUseCase) Revoke(ctx context.Context, tokenID uuid.UUID) (*portalDomain.PortalToken, error) {
	var token *portalDomain.PortalToken

	err := t.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := t.tokenRepo.Get(ctx, tokenID); err != nil {
			return err
		}
		if _, err := t.tokenRepo.Revoke(ctx, tokenID, t.now()); err != nil {
			return err
		}

		var err error
		token, err = t.tokenRepo.Get(ctx, tokenID)
		return err
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to revoke portal token")
	}

	return token, nil
}

// Get retrieves a token by ID.
func (t *tokenUseCase) Get(ctx context.Context, tokenID uuid.UUID) (*portalDomain.PortalToken, error) {
	return t.tokenRepo.Get(ctx, tokenID)
}

// NewTokenUseCase creates a new TokenUseCase. defaultTTL applies when an issue request
// does not set its own lifetime.
func NewTokenUseCase(
	txManager database.TxManager,
	tokenRepo TokenRepository,
	tokenService portalService.TokenService,
	defaultTTL time.Duration,
) TokenUseCase {
	return &tokenUseCase{
		txManager:    txManager,
		tokenRepo:    tokenRepo,
		tokenService: tokenService,
		defaultTTL:   defaultTTL,
		now:          func() time.Time { return time.Now().UTC() },
	}
}
