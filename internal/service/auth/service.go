package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medilink/care-api/pkg/auth"
	apperrors "github.com/medilink/care-api/pkg/errors"
	"github.com/medilink/care-api/pkg/security"

	"github.com/medilink/care-api/internal/email"
	"github.com/medilink/care-api/internal/model"
	"github.com/medilink/care-api/internal/repository"
)

type Service struct {
	doctorRepo  repository.DoctorRepository
	patientRepo repository.PatientRepository
	jwtSvc      auth.JWTService
	hasher      security.PasswordHasher
	emailSvc    email.Service
}

func NewService(
	doctorRepo repository.DoctorRepository,
	patientRepo repository.PatientRepository,
	jwtSvc auth.JWTService,
	hasher security.PasswordHasher,
	emailSvc email.Service,
) *Service {
	return &Service{
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		jwtSvc:      jwtSvc,
		hasher:      hasher,
		emailSvc:    emailSvc,
	}
}

// RegisterDoctor creates the doctor account and logs it in.
func (s *Service) RegisterDoctor(ctx context.Context, req *model.RegisterDoctorRequest) (*model.TokenResponse, error) {
	if _, err := s.doctorRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Conflict("email is already registered", "email")
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	doctor := &model.Doctor{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Designation:  req.Designation,
		Gender:       req.Gender,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.doctorRepo.Create(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}
	return s.issue(doctor.ID, auth.RoleDoctor, doctor.Email)
}

// RegisterPatient creates the patient account and logs it in.
func (s *Service) RegisterPatient(ctx context.Context, req *model.RegisterPatientRequest) (*model.TokenResponse, error) {
	if _, err := s.patientRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Conflict("email is already registered", "email")
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	patient := &model.Patient{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Gender:       req.Gender,
		DateOfBirth:  req.DateOfBirth,
		Email:        req.Email,
		Mobile:       req.Mobile,
		PasswordHash: hash,
	}
	if err := s.patientRepo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return s.issue(patient.ID, auth.RolePatient, patient.Email)
}

// LoginDoctor checks credentials and issues an access token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Service) LoginDoctor(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	doctor, err := s.doctorRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized(fmt.Errorf("invalid credentials"))
		}
		return nil, err
	}
	if err := s.hasher.Compare(doctor.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("invalid credentials"))
	}
	return s.issue(doctor.ID, auth.RoleDoctor, doctor.Email)
}

// LoginPatient is the patient-side mirror of LoginDoctor.
func (s *Service) LoginPatient(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	patient, err := s.patientRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized(fmt.Errorf("invalid credentials"))
		}
		return nil, err
	}
	if err := s.hasher.Compare(patient.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("invalid credentials"))
	}
	return s.issue(patient.ID, auth.RolePatient, patient.Email)
}

// RequestPasswordReset mails a time-boxed signed reset token to the
// account's address. Unknown addresses succeed silently so the endpoint
// can't be used to probe for accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string, role auth.Role) error {
	userID, err := s.lookupByEmail(ctx, emailAddr, role)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	token, err := s.jwtSvc.GenerateResetToken(userID, role)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	if err := s.emailSvc.SendPasswordReset(ctx, emailAddr, token); err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the account's
// password hash.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.jwtSvc.ValidateResetToken(token)
	if err != nil {
		return apperrors.Unauthorized(fmt.Errorf("invalid reset token: %w", err))
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	switch claims.Role {
	case auth.RoleDoctor:
		return s.doctorRepo.UpdatePassword(ctx, claims.UserID, hash)
	case auth.RolePatient:
		return s.patientRepo.UpdatePassword(ctx, claims.UserID, hash)
	default:
		return apperrors.Validation("unknown role", "role")
	}
}

func (s *Service) lookupByEmail(ctx context.Context, emailAddr string, role auth.Role) (uuid.UUID, error) {
	switch role {
	case auth.RoleDoctor:
		doctor, err := s.doctorRepo.GetByEmail(ctx, emailAddr)
		if err != nil {
			return uuid.Nil, err
		}
		return doctor.ID, nil
	case auth.RolePatient:
		patient, err := s.patientRepo.GetByEmail(ctx, emailAddr)
		if err != nil {
			return uuid.Nil, err
		}
		return patient.ID, nil
	default:
		return uuid.Nil, apperrors.Validation("unknown role", "role")
	}
}

func (s *Service) issue(userID uuid.UUID, role auth.Role, emailAddr string) (*model.TokenResponse, error) {
	token, err := s.jwtSvc.GenerateAccessToken(userID, role, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &model.TokenResponse{
		AccessToken: token,
		UserID:      userID,
		Role:        string(role),
	}, nil
}
