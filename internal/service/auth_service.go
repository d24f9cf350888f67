package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"saferoute/internal/domain"
	"saferoute/internal/models"
	"saferoute/internal/repository"
	"saferoute/pkg/mediastore"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

type RegisterInput struct {
	Username   string
	Email      string
	FirstName  string
	LastName   string
	Phone      string
	Password1  string
	Password2  string
	IDDocument *Upload
}

type ProfileInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// GoogleProfile is the subset of the userinfo response used for sign-in.
type GoogleProfile struct {
	ID         string
	Email      string
	GivenName  string
	FamilyName string
	Picture    string
}

type AuthService struct {
	userRepo *repository.UserRepository
	media    mediastore.Store
	validate *validator.Validate
	cost     int
	now      func() time.Time
}

func NewAuthService(userRepo *repository.UserRepository, media mediastore.Store) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		media:    media,
		validate: validator.New(),
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// SetHashCost lowers the bcrypt cost; tests use bcrypt.MinCost.
func (s *AuthService) SetHashCost(cost int) { s.cost = cost }

// Register creates an unverified account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)

	verr := domain.NewValidationError()
	switch {
	case in.Username == "":
		verr.Add("username", msgRequired)
	case len(in.Username) > 150 || !usernamePattern.MatchString(in.Username):
		verr.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	default:
		taken, err := s.userRepo.UsernameExists(in.Username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			verr.Add("username", msgUsernameTaken)
		}
	}
	s.checkEmail(verr, in.Email)
	if in.FirstName == "" {
		verr.Add("first_name", msgRequired)
	}
	if in.LastName == "" {
		verr.Add("last_name", msgRequired)
	}
	if len(in.Phone) > 20 {
		verr.Add("phone", "Ensure this value has at most 20 characters.")
	}
	if in.Password1 == "" {
		verr.Add("password1", msgRequired)
	}
	if in.Password2 == "" {
		verr.Add("password2", msgRequired)
	}
	if in.Password1 != "" && in.Password2 != "" {
		if in.Password1 != in.Password2 {
			verr.Add("password2", "The two password fields didn't match.")
		} else if msg := passwordProblem(in.Password1); msg != "" {
			verr.Add("password2", msg)
		}
	}
	if in.IDDocument != nil && !isImage(*in.IDDocument) {
		verr.Add("id_document", msgInvalidImage)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password1), s.cost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		PasswordHash: string(hash),
	}
	if in.IDDocument != nil {
		ref, err := saveUpload(ctx, s.media, mediastore.FolderIDDocuments, *in.IDDocument)
		if err != nil {
			return nil, err
		}
		u.IDDocument = ref
	}
	if err := s.userRepo.Create(u); err != nil {
		purge(ctx, s.media, []string{u.IDDocument})
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.FieldError("username", msgUsernameTaken)
		}
		return nil, err
	}
	return u, nil
}

// Login checks a username/password pair and stamps last_login.
func (s *AuthService) Login(username, password string) (*models.User, error) {
	u, err := s.userRepo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.touch(u), nil
}

// LoginWithGoogle finds the account by Google ID, then links by email, and
// otherwise creates an unverified account. created reports the last case.
func (s *AuthService) LoginWithGoogle(p GoogleProfile) (u *models.User, created bool, err error) {
	if p.ID == "" {
		return nil, false, ErrInvalidCredentials
	}
	u, err = s.userRepo.GetByGoogleID(p.ID)
	if err == nil {
		return s.touch(u), false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}
	gid := p.ID
	if p.Email != "" {
		existing, err := s.userRepo.GetByEmail(p.Email)
		if err == nil {
			existing.GoogleID = &gid
			if existing.ProfilePicture == "" {
				existing.ProfilePicture = p.Picture
			}
			if err := s.userRepo.Update(existing); err != nil {
				return nil, false, err
			}
			return s.touch(existing), false, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, err
		}
	}

	username, err := s.freeUsername(googleUsername(p))
	if err != nil {
		return nil, false, err
	}
	u = &models.User{
		Username:       username,
		Email:          p.Email,
		FirstName:      p.GivenName,
		LastName:       p.FamilyName,
		GoogleID:       &gid,
		ProfilePicture: p.Picture,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, false, err
	}
	return s.touch(u), true, nil
}

func (s *AuthService) touch(u *models.User) *models.User {
	now := s.now()
	u.LastLogin = &now
	if err := s.userRepo.TouchLastLogin(u.ID, now); err != nil {
		slog.Warn("last login not recorded", "component", "auth", "user_id", u.ID, "err", err)
	}
	return u
}

func googleUsername(p GoogleProfile) string {
	base := strings.Split(p.Email, "@")[0]
	base = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_.@+-", r) {
			return r
		}
		return -1
	}, base)
	if base == "" {
		base = "user"
	}
	if len(base) > 140 {
		base = base[:140]
	}
	return base
}

func (s *AuthService) freeUsername(base string) (string, error) {
	name := base
	for i := 1; i < 1000; i++ {
		taken, err := s.userRepo.UsernameExists(name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
		name = fmt.Sprintf("%s%d", base, i)
	}
	return fmt.Sprintf("%s%d", base, s.now().UnixNano()%100000), nil
}

func (s *AuthService) GetUser(id uint) (*models.User, error) {
	u, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// UpdateProfile edits the caller's own contact fields. Verification and
// staff flags are not reachable from here.
func (s *AuthService) UpdateProfile(userID uint, in ProfileInput) (*models.User, error) {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, notFound(err)
	}
	in.Email = strings.TrimSpace(in.Email)
	verr := domain.NewValidationError()
	if in.Email != "" {
		s.checkEmail(verr, in.Email)
	}
	if len(in.FirstName) > 150 {
		verr.Add("first_name", "Ensure this value has at most 150 characters.")
	}
	if len(in.LastName) > 150 {
		verr.Add("last_name", "Ensure this value has at most 150 characters.")
	}
	if len(in.Phone) > 20 {
		verr.Add("phone", "Ensure this value has at most 20 characters.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	u.FirstName = strings.TrimSpace(in.FirstName)
	u.LastName = strings.TrimSpace(in.LastName)
	u.Email = in.Email
	u.Phone = strings.TrimSpace(in.Phone)
	if err := s.userRepo.UpdateProfile(u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateProfilePicture stores the new picture and drops the old object.
func (s *AuthService) UpdateProfilePicture(ctx context.Context, userID uint, up Upload) (*models.User, error) {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, notFound(err)
	}
	if !isImage(up) {
		return nil, domain.FieldError("profile_picture", msgInvalidImage)
	}
	ref, err := saveUpload(ctx, s.media, mediastore.FolderProfiles, up)
	if err != nil {
		return nil, err
	}
	old := u.ProfilePicture
	u.ProfilePicture = ref
	if err := s.userRepo.UpdateProfile(u); err != nil {
		purge(ctx, s.media, []string{ref})
		return nil, err
	}
	if old != "" && !strings.HasPrefix(old, "https://lh3.googleusercontent.com/") {
		purge(ctx, s.media, []string{old})
	}
	return u, nil
}

// CreateSuperuser creates a verified staff superuser. It does not check
// whether one already exists; see SuperuserExists.
func (s *AuthService) CreateSuperuser(username, email, password string) (*models.User, error) {
	verr := domain.NewValidationError()
	if strings.TrimSpace(username) == "" {
		verr.Add("username", msgRequired)
	}
	if email != "" {
		s.checkEmail(verr, email)
	}
	if msg := passwordProblem(password); msg != "" {
		verr.Add("password", msg)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: string(hash),
		IsVerified:   true,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	if err := s.userRepo.Create(u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.FieldError("username", msgUsernameTaken)
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) SuperuserExists() (bool, error) {
	return s.userRepo.SuperuserExists()
}

func (s *AuthService) checkEmail(verr *domain.ValidationError, email string) {
	if email == "" {
		verr.Add("email", msgRequired)
		return
	}
	if err := s.validate.Var(email, "email,max=254"); err != nil {
		verr.Add("email", "Enter a valid email address.")
	}
}

func passwordProblem(pw string) string {
	if len([]rune(pw)) < minPasswordLength {
		return fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength)
	}
	numeric := true
	for _, r := range pw {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		return "This password is entirely numeric."
	}
	return ""
}
