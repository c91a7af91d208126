package user

import (
	"context"
	"fmt"
	"strings"

	"kirana-be/internal/logger"
	"kirana-be/internal/notify"
	"kirana-be/internal/otp"

	"go.uber.org/zap"
)

type Service interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	Register(ctx context.Context, name, email, password string) (string, User, error)
	Login(ctx context.Context, email, password string) (string, User, error)
	Profile(ctx context.Context, id uint) (User, error)
	UpdateProfile(ctx context.Context, id uint, p UpdateProfileParams) (User, error)
}

type service struct {
	repo     Repository
	codes    *otp.Store
	mailer   notify.Mailer
	dispatch notify.Runner

	storeName     string
	adminEmail    string
	adminPassword string
}

func NewService(
	repo Repository,
	codes *otp.Store,
	mailer notify.Mailer,
	dispatch notify.Runner,
	storeName, adminEmail, adminPassword string,
) Service {
	return &service{
		repo:          repo,
		codes:         codes,
		mailer:        mailer,
		dispatch:      dispatch,
		storeName:     storeName,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
	}
}

func (s *service) SendOTP(ctx context.Context, email string) error {
	log := logger.FromCtx(ctx).With(zap.String("email", email))

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		log.Error("failed to check for existing account", zap.Error(err))
		return err
	}
	if exists {
		return ErrEmailExists
	}

	code, err := s.codes.Issue(email)
	if err != nil {
		log.Error("failed to issue verification code", zap.Error(err))
		return err
	}

	subject := fmt.Sprintf("Your OTP for %s Account Verification", s.storeName)
	body := otpEmailHTML(s.storeName, code)
	s.dispatch.Go("otp-mail", func(ctx context.Context) error {
		return s.mailer.Send(ctx, email, subject, body)
	})

	log.Info("verification code issued")
	return nil
}

func (s *service) VerifyOTP(ctx context.Context, email, code string) error {
	return s.codes.Verify(email, strings.TrimSpace(code))
}

func (s *service) Register(ctx context.Context, name, email, password string) (string, User, error) {
	log := logger.FromCtx(ctx).With(zap.String("email", email))

	if !s.codes.IsVerified(email) {
		return "", User{}, ErrEmailNotVerified
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return "", User{}, err
	}
	if exists {
		return "", User{}, ErrEmailExists
	}

	hashed, err := HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", User{}, err
	}

	u, err := s.repo.Create(ctx, name, email, hashed)
	if err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return "", User{}, ErrEmailExists
		}
		return "", User{}, err
	}

	s.codes.Consume(email)

	token, err := GenerateJWT(u.ID, string(u.Role), u.Email)
	if err != nil {
		log.Error("failed to generate jwt", zap.Uint("user_id", u.ID), zap.Error(err))
		return "", User{}, err
	}

	log.Info("user registered", zap.Uint("user_id", u.ID))
	return token, u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, User, error) {
	// Operator login short-circuits against env credentials; the operator
	// has no stored profile row.
	if s.adminEmail != "" && email == s.adminEmail && password == s.adminPassword {
		token, err := GenerateJWT(0, string(RoleAdmin), email)
		if err != nil {
			return "", User{}, err
		}
		return token, User{Name: "Admin", Email: email, Role: RoleAdmin}, nil
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", User{}, ErrInvalidCredentials
	}

	if !CheckPasswordHash(password, u.Password) {
		return "", User{}, ErrInvalidCredentials
	}

	token, err := GenerateJWT(u.ID, string(u.Role), u.Email)
	return token, u, err
}

func (s *service) Profile(ctx context.Context, id uint) (User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id uint, p UpdateProfileParams) (User, error) {
	return s.repo.UpdateProfile(ctx, id, p)
}
