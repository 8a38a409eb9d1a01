package usecase

import (
	"context"
	"time"

	"clinic-scheduling/internal/converter"
	"clinic-scheduling/internal/delivery/dto"
	"clinic-scheduling/internal/domain/entity"
	"clinic-scheduling/internal/domain/repository"
	"clinic-scheduling/internal/infrastructure/database"
	"clinic-scheduling/internal/service"
	"clinic-scheduling/pkg/apperror"
	"clinic-scheduling/pkg/jwt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthUsecase interface {
	RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, claims *entity.Claims) error
	// EnsureAdmin creates the administrator account if no user with that
	// email exists yet.
	EnsureAdmin(ctx context.Context, email, password string) error
}

type authUsecase struct {
	tx           database.Transactor
	log          *logrus.Logger
	userRepo     repository.UserRepository
	roleRepo     repository.RoleRepository
	patientRepo  repository.PatientProfileRepository
	auditService service.AuditService
	jwtService   *jwt.JWTService
	tokens       service.TokenStore
}

func NewAuthUsecase(
	tx database.Transactor,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	patientRepo repository.PatientProfileRepository,
	auditService service.AuditService,
	jwtService *jwt.JWTService,
	tokens service.TokenStore,
) AuthUsecase {
	return &authUsecase{
		tx:           tx,
		log:          log,
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		patientRepo:  patientRepo,
		auditService: auditService,
		jwtService:   jwtService,
		tokens:       tokens,
	}
}

func (u *authUsecase) RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error) {
	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse(entity.DateLayout, req.DateOfBirth)
		if err != nil {
			return nil, ErrInvalidDate
		}
		dob = &parsed
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, apperror.Internal(err)
	}

	user := entity.NewUser(entity.RoleIDPatient, req.Email, req.FullName, string(hashedPassword))
	profile := &entity.PatientProfile{
		UserID:      user.ID,
		PhoneNumber: req.PhoneNumber,
		DateOfBirth: dob,
		Address:     req.Address,
	}

	err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		role, err := u.roleRepo.FindByName(ctx, tx, entity.RolePatient)
		if err != nil {
			u.log.Warnf("Failed to find patient role: %+v", err)
			return apperror.Internal(err)
		}
		if role == nil {
			u.log.Warn("Patient role is missing, run the migrations")
			return apperror.New(apperror.KindInternal, "patient role is not configured")
		}
		user.RoleID = role.ID

		if err := u.userRepo.Create(ctx, tx, user); err != nil {
			if database.IsUniqueViolation(err, "email") {
				return ErrEmailAlreadyExists
			}
			u.log.Warnf("Failed to create user: %+v", err)
			return apperror.Internal(err)
		}

		if err := u.patientRepo.Create(ctx, tx, profile); err != nil {
			u.log.Warnf("Failed to create patient profile: %+v", err)
			return apperror.Internal(err)
		}

		u.auditService.Record(ctx, tx, user.ID, entity.AuditActionUserRegister, nil, nil, map[string]string{"email": user.Email})
		return nil
	})
	if err != nil {
		return nil, err
	}

	user.PatientProfile = profile
	return converter.UserToResponse(user, entity.RolePatient), nil
}

// Login issues an access token and registers it in the token store so it
// can be revoked by Logout.
func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(ctx, u.tx.DB(ctx), entity.NormalizeEmail(req.Email))
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, apperror.Internal(err)
	}
	if user == nil || !user.Active() {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	role, ok := user.UserRole()
	if !ok {
		u.log.Warnf("User %s has unknown role id %d", user.ID, user.RoleID)
		return nil, ErrInvalidCredentials
	}

	accessToken, tokenID, err := u.jwtService.GenerateAccessToken(user.ID, user.Email, role.String())
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, apperror.Internal(err)
	}

	if err := u.tokens.Save(ctx, user.ID, tokenID, u.jwtService.GetAccessExpiry()); err != nil {
		u.log.Warnf("Failed to store access token: %+v", err)
		return nil, apperror.Internal(err)
	}

	u.auditService.Record(ctx, u.tx.DB(ctx), user.ID, entity.AuditActionUserLogin, nil, nil, nil)

	return &dto.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

func (u *authUsecase) Logout(ctx context.Context, claims *entity.Claims) error {
	if !claims.Valid() {
		return ErrUnauthorized
	}

	if err := u.tokens.Revoke(ctx, claims.UserID, claims.TokenID); err != nil {
		u.log.Warnf("Failed to revoke access token: %+v", err)
		return apperror.Internal(err)
	}

	u.auditService.Record(ctx, u.tx.DB(ctx), claims.UserID, entity.AuditActionUserLogout, nil, nil, nil)
	return nil
}

func (u *authUsecase) EnsureAdmin(ctx context.Context, email, password string) error {
	email = entity.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	existing, err := u.userRepo.FindByEmail(ctx, u.tx.DB(ctx), email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := entity.NewUser(entity.RoleIDAdmin, email, "Administrator", string(hashedPassword))
	if err := u.userRepo.Create(ctx, u.tx.DB(ctx), admin); err != nil {
		if database.IsUniqueViolation(err, "email") {
			return nil
		}
		return err
	}

	u.log.Infof("Administrator account created: %s", email)
	return nil
}
