package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tixlabs/tix-server/config"
	"github.com/tixlabs/tix-server/internal/models"
	repo "github.com/tixlabs/tix-server/internal/repository/postgres"
	pkgLog "github.com/tixlabs/tix-server/pkg/logger"
)

// GoogleVerifier validates a Google ID token and returns the account's
// email and display name. Kept behind an interface so tests never dial
// Google's certs endpoint.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (email, name string, err error)
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthOutput, error)
	Login(ctx context.Context, in LoginInput) (*AuthOutput, error)

	// GoogleLogin signs in via a Google ID token, creating an attendee
	// account on first sight of the email.
	GoogleLogin(ctx context.Context, idToken string) (*AuthOutput, error)

	ParseToken(tokenStr string) (*Claims, error)
}

type authService struct {
	userRepo repo.UserRepository
	google   GoogleVerifier
	jwtCfg   config.JWTConfig
	l        pkgLog.Logger
}

func NewAuthService(userRepo repo.UserRepository, google GoogleVerifier, jwtCfg config.JWTConfig, l pkgLog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		google:   google,
		jwtCfg:   jwtCfg,
		l:        l,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthOutput, error) {
	role := models.Role(in.Role)
	if in.Role == "" {
		role = models.RoleAttendee
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", in.Role)
	}

	// Two lookups then insert is racy, but the unique indexes backstop it;
	// the Create below maps the violation to the same errors.
	if _, err := s.userRepo.GetByUsername(ctx, in.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		s.l.Errorf(ctx, "service.authService.Register: %v", err)
		return nil, err
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		FullName:     in.FullName,
		Role:         role,
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		s.l.Errorf(ctx, "service.authService.Register: %v", err)
		return nil, err
	}

	s.l.Infof(ctx, "User registered - id: %s, username: %s, role: %s", u.ID, u.Username, u.Role)

	return s.authOutput(ctx, u)
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*AuthOutput, error) {
	u, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.l.Errorf(ctx, "service.authService.Login: %v", err)
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.authOutput(ctx, u)
}

func (s *authService) GoogleLogin(ctx context.Context, idToken string) (*AuthOutput, error) {
	email, name, err := s.google.Verify(ctx, idToken)
	if err != nil {
		s.l.Warnf(ctx, "service.authService.GoogleLogin: %v", err)
		return nil, ErrInvalidCredentials
	}

	u, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return s.authOutput(ctx, u)
	}
	if !errors.Is(err, repo.ErrNotFound) {
		s.l.Errorf(ctx, "service.authService.GoogleLogin: %v", err)
		return nil, err
	}

	// First sign-in: provision an attendee. The random password hash keeps
	// the password login path closed for this account.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		s.l.Errorf(ctx, "service.authService.GoogleLogin: %v", err)
		return nil, err
	}

	u = &models.User{
		ID:           uuid.NewString(),
		Username:     email,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     name,
		Role:         models.RoleAttendee,
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Concurrent first sign-in: the other request won, use its row.
			if u, err = s.userRepo.GetByEmail(ctx, email); err == nil {
				return s.authOutput(ctx, u)
			}
		}
		s.l.Errorf(ctx, "service.authService.GoogleLogin: %v", err)
		return nil, err
	}

	s.l.Infof(ctx, "User provisioned via Google - id: %s, email: %s", u.ID, u.Email)

	return s.authOutput(ctx, u)
}

type jwtClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) authOutput(ctx context.Context, u *models.User) (*AuthOutput, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.Expiry)),
		},
	})

	signed, err := token.SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		s.l.Errorf(ctx, "service.authService.authOutput: %v", err)
		return nil, err
	}

	return &AuthOutput{
		User:        *u,
		AccessToken: signed,
	}, nil
}

func (s *authService) ParseToken(tokenStr string) (*Claims, error) {
	var claims jwtClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	role := models.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return nil, ErrInvalidCredentials
	}

	return &Claims{
		UserID: claims.Subject,
		Role:   role,
	}, nil
}
