package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourguide-auth/internal/domain/entity"
	repo "github.com/oksasatya/tourguide-auth/internal/domain/repository"
)

// UserIndexer keeps a searchable projection of users. Index failures never fail the request.
type UserIndexer interface {
	Index(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]string, error)
}

// PhotoStorage uploads an object and returns its public URL.
type PhotoStorage interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// UserService covers profile self-service and admin user management.
type UserService struct {
	Users   repo.UserRepository
	Indexer UserIndexer
	Photos  PhotoStorage
	Logger  *logrus.Logger
}

func NewUserService(users repo.UserRepository, indexer UserIndexer, photos PhotoStorage, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &UserService{Users: users, Indexer: indexer, Photos: photos, Logger: logger}
}

// UpdateMeInput is what a user may change about themselves. Password fields are present only so
// they can be rejected with a pointer to /updatePassword.
type UpdateMeInput struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"passwordConfirm"`
}

// UpdateUserInput is the admin edit. Passwords are never changed through it.
type UpdateUserInput struct {
	Name  *string      `json:"name"`
	Email *string      `json:"email"`
	Role  *entity.Role `json:"role"`
}

func (s *UserService) GetMe(ctx context.Context, userID string) (*entity.User, error) {
	return s.GetUser(ctx, userID)
}

func (s *UserService) UpdateMe(ctx context.Context, userID string, in UpdateMeInput) (*entity.User, error) {
	if in.Password != "" || in.PasswordConfirm != "" {
		return nil, invalidField("password", "this route is not for password updates, please use /updatePassword")
	}
	return s.update(ctx, userID, in.Name, in.Email, nil)
}

// DeleteMe deactivates the account. Lookups and tokens stop resolving it immediately.
func (s *UserService) DeleteMe(ctx context.Context, userID string) error {
	return s.DeactivateUser(ctx, userID)
}

// UploadPhoto stores the image under photos/<user>/ and records its URL on the profile.
func (s *UserService) UploadPhoto(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*entity.User, error) {
	if s.Photos == nil {
		return nil, ErrStorageUnavailable
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, invalidField("photo", "not an image, please upload only images")
	}
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("photos", u.ID, uuid.NewString()+ext))
	url, err := s.Photos.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("photo upload failed")
		return nil, err
	}

	u.Photo = url
	if err := s.Users.Save(ctx, u, repo.SaveOptions{}); err != nil {
		return nil, classifyWrite("save photo", err)
	}
	s.index(ctx, u)
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context, opts repo.ListOptions) ([]*entity.User, error) {
	users, err := s.Users.List(ctx, opts)
	if err != nil {
		return nil, persistenceFailure("list users", err)
	}
	return users, nil
}

// SearchUsers resolves index hits back through the directory so deactivated users never leak.
func (s *UserService) SearchUsers(ctx context.Context, q string, size int) ([]*entity.User, error) {
	if s.Indexer == nil {
		return s.ListUsers(ctx, repo.ListOptions{Limit: size})
	}
	ids, err := s.Indexer.Search(ctx, q, size)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.Users.FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, persistenceFailure("find by id", err)
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Users.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, persistenceFailure("find by id", err)
	}
	return u, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*entity.User, error) {
	if in.Role != nil && !in.Role.Valid() {
		return nil, invalidField("role", "must be one of: admin, user, lead-guide, guide")
	}
	return s.update(ctx, id, in.Name, in.Email, in.Role)
}

func (s *UserService) DeactivateUser(ctx context.Context, id string) error {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	u.Active = false
	if err := s.Users.Save(ctx, u, repo.SaveOptions{SkipValidation: true}); err != nil {
		return classifyWrite("deactivate user", err)
	}
	if s.Indexer != nil {
		if err := s.Indexer.Delete(ctx, u.ID); err != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es delete failed")
		}
	}
	s.Logger.WithField("user_id", u.ID).Info("user deactivated")
	return nil
}

func (s *UserService) update(ctx context.Context, id string, name, email *string, role *entity.Role) (*entity.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		u.Name = strings.TrimSpace(*name)
	}
	if email != nil {
		u.Email = entity.NormalizeEmail(*email)
	}
	if role != nil {
		u.Role = *role
	}
	if err := s.Users.Save(ctx, u, repo.SaveOptions{}); err != nil {
		return nil, classifyWrite("update user", err)
	}
	s.index(ctx, u)
	return u, nil
}

func (s *UserService) index(ctx context.Context, u *entity.User) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.Index(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
	}
}
