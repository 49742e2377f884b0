package services

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
	"pixtouch/internal/models/db_models"
	"pixtouch/internal/models/request_models"
	"pixtouch/internal/models/response_models"
	"pixtouch/internal/repositories"
	"pixtouch/pkg/utils"
)

const (
	verificationBonusCredits = 3
	verificationTokenTTL     = 24 * time.Hour
	resetTokenTTL            = 1 * time.Hour
)

type AccountServiceInterface interface {
	CreateAccount(ctx context.Context, request request_models.SignUpRequest, ip string) error
	Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error)
	VerifyEmail(ctx context.Context, token string) (*response_models.VerifyEmailResponse, error)
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, request request_models.ResetPasswordRequest) error
}

type AccountService struct {
	db          *gorm.DB
	accountRepo repositories.AccountRepository
	tokenRepo   repositories.TokenRepository
	guard       GuardService
	ledger      LedgerService
	mail        IMailService
}

func NewAccountService(
	db *gorm.DB,
	accountRepo repositories.AccountRepository,
	tokenRepo repositories.TokenRepository,
	guard GuardService,
	ledger LedgerService,
	mail IMailService,
) AccountServiceInterface {
	return &AccountService{
		db:          db,
		accountRepo: accountRepo,
		tokenRepo:   tokenRepo,
		guard:       guard,
		ledger:      ledger,
		mail:        mail,
	}
}

// CreateAccount registers a new account with zero credits and mails the
// verification link. If the mail cannot be sent the account and its
// token are removed again, so the address stays free to retry.
func (a *AccountService) CreateAccount(ctx context.Context, request request_models.SignUpRequest, ip string) error {
	if !utils.ValidateEmail(request.Email) {
		return utils.ErrInvalidCredentials
	}
	if err := utils.ValidatePassword(request.Password); err != nil {
		return err
	}

	if err := a.guard.RecordSignupAttempt(ctx, ip, request.Email); err != nil {
		return err
	}

	existingAccount, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if existingAccount != nil {
		return utils.ErrEmailAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(request.Password)
	if err != nil {
		return utils.ErrDatabaseError
	}

	newAccount := &db_models.Account{
		Name:         request.Name,
		Email:        request.Email,
		PasswordHash: hashedPassword,
		SignupIP:     ip,
		PlanTier:     db_models.TierFree,
		UsageResetAt: time.Now().Unix(),
	}

	if err := a.accountRepo.Insert(ctx, newAccount); err != nil {
		// Two racing signups can both pass the FindByEmail check; the
		// unique index breaks the tie.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ErrEmailAlreadyExists
		}
		return utils.ErrDatabaseError
	}

	token, err := a.issueVerificationToken(ctx, request.Email)
	if err != nil {
		a.rollbackSignup(ctx, newAccount)
		return utils.ErrDatabaseError
	}

	if err := a.mail.SendVerificationEmail(request.Email, token); err != nil {
		log.Printf("Verification mail failed for %s, rolling back signup: %v", request.Email, err)
		a.rollbackSignup(ctx, newAccount)
		return utils.ErrEmailDelivery
	}

	a.guard.MarkSignupSucceeded(ctx, ip, request.Email)
	return nil
}

func (a *AccountService) rollbackSignup(ctx context.Context, account *db_models.Account) {
	if err := a.tokenRepo.DeleteByIdentifier(ctx, account.Email); err != nil {
		log.Printf("Signup rollback: failed to delete tokens for %s: %v", account.Email, err)
	}
	if err := a.accountRepo.Delete(ctx, account.ID); err != nil {
		log.Printf("Signup rollback: failed to delete account %s: %v", account.ID, err)
	}
}

func (a *AccountService) issueVerificationToken(ctx context.Context, email string) (string, error) {
	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return "", err
	}
	err = a.tokenRepo.Insert(ctx, &db_models.VerificationToken{
		Identifier: email,
		Token:      token,
		ExpiresAt:  time.Now().Add(verificationTokenTTL).Unix(),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (a *AccountService) Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error) {
	if err := a.guard.CheckLoginAllowed(request.Email); err != nil {
		return nil, err
	}

	account, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		a.guard.RecordLoginFailure(request.Email)
		return nil, utils.ErrInvalidCredentials
	}

	if err := utils.ComparePasswords(account.PasswordHash, request.Password); err != nil {
		a.guard.RecordLoginFailure(request.Email)
		return nil, utils.ErrInvalidCredentials
	}

	a.guard.ClearLoginFailures(request.Email)

	token, err := utils.CreateToken(account.ID, account.SessionVersion)
	if err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	return &response_models.AccountLoginResponse{
		Token:         token,
		EmailVerified: account.EmailVerifiedAt != nil,
	}, nil
}

// VerifyEmail consumes the token and grants the one-time bonus. The
// bonus, the verified flag and the token delete share one transaction,
// so a replayed link can never pay out twice.
func (a *AccountService) VerifyEmail(ctx context.Context, token string) (*response_models.VerifyEmailResponse, error) {
	row, err := a.tokenRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if row == nil {
		return nil, utils.ErrInvalidToken
	}

	if time.Now().Unix() > row.ExpiresAt {
		if err := a.tokenRepo.DeleteByIdentifier(ctx, row.Identifier); err != nil {
			log.Printf("Failed to delete expired token for %s: %v", row.Identifier, err)
		}
		return nil, utils.ErrInvalidToken
	}

	account, err := a.accountRepo.FindByEmail(ctx, row.Identifier)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrInvalidToken
	}

	if account.EmailVerifiedAt != nil {
		if _, err := a.tokenRepo.Consume(a.db.WithContext(ctx), token); err != nil {
			return nil, utils.ErrDatabaseError
		}
		return &response_models.VerifyEmailResponse{AlreadyVerified: true}, nil
	}

	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		consumed, err := a.tokenRepo.Consume(tx, token)
		if err != nil {
			return err
		}
		if !consumed {
			// Lost the race against a concurrent verify with the same link.
			return utils.ErrInvalidToken
		}
		if err := a.accountRepo.MarkVerified(tx, account.ID, time.Now()); err != nil {
			return err
		}
		_, err = a.ledger.CreditTx(tx, account.ID, verificationBonusCredits, db_models.ReasonVerificationBonus)
		return err
	})
	if err != nil {
		if err == utils.ErrInvalidToken {
			return nil, err
		}
		return nil, utils.ErrDatabaseError
	}

	return &response_models.VerifyEmailResponse{CreditsGranted: verificationBonusCredits}, nil
}

func (a *AccountService) ResendVerification(ctx context.Context, email string) error {
	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return utils.ErrDatabaseError
	}
	// Same answer for unknown and already-verified addresses.
	if account == nil || account.EmailVerifiedAt != nil {
		return nil
	}

	if err := a.tokenRepo.DeleteByIdentifier(ctx, email); err != nil {
		return utils.ErrDatabaseError
	}
	token, err := a.issueVerificationToken(ctx, email)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if err := a.mail.SendVerificationEmail(email, token); err != nil {
		return utils.ErrEmailDelivery
	}
	return nil
}

func (a *AccountService) ForgotPassword(ctx context.Context, email string) error {
	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if account == nil {
		// Do not reveal whether the address exists.
		return nil
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if err := a.accountRepo.SetResetToken(ctx, account.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
		return utils.ErrDatabaseError
	}
	if err := a.mail.SendPasswordResetEmail(email, token); err != nil {
		return utils.ErrEmailDelivery
	}
	return nil
}

func (a *AccountService) ResetPassword(ctx context.Context, request request_models.ResetPasswordRequest) error {
	if err := utils.ValidatePassword(request.NewPassword); err != nil {
		return err
	}

	account, err := a.accountRepo.FindByResetToken(ctx, request.Token, time.Now())
	if err != nil {
		return utils.ErrDatabaseError
	}
	if account == nil {
		return utils.ErrInvalidToken
	}

	hashedPassword, err := utils.HashPassword(request.NewPassword)
	if err != nil {
		return utils.ErrDatabaseError
	}

	if err := a.accountRepo.UpdatePassword(ctx, account.ID, hashedPassword); err != nil {
		return utils.ErrDatabaseError
	}
	return nil
}
