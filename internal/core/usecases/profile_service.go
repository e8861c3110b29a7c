package usecases

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
)

const avatarBucket = "avatars"

// ProfileService handles user profiles.
type ProfileService struct {
	profiles ports.ProfileRepository
	storage  ports.ObjectStorage
}

// NewProfileService creates a new ProfileService. storage may be nil.
func NewProfileService(profiles ports.ProfileRepository, storage ports.ObjectStorage) *ProfileService {
	return &ProfileService{profiles: profiles, storage: storage}
}

func (s *ProfileService) Get(ctx context.Context, id string) (*domain.Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

func (s *ProfileService) Exists(ctx context.Context, id string) (bool, error) {
	return s.profiles.Exists(ctx, id)
}

// ProfileInput is the user-editable part of a profile.
type ProfileInput struct {
	Name    string `json:"name"`
	AboutMe string `json:"about_me"`
	Email   string `json:"email"`
}

// Save creates or updates the caller's profile. Rewards, rating and
// achievements are never taken from input.
func (s *ProfileService) Save(ctx context.Context, userID string, in ProfileInput) (*domain.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
		}
	}

	p := &domain.Profile{ID: userID, Name: in.Name, AboutMe: in.AboutMe, Email: in.Email}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return s.profiles.GetByID(ctx, userID)
}

// UploadAvatar stores a new avatar and points the profile at it. The previous
// avatar is removed on a best-effort basis.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID, filename, contentType string, size int, body io.Reader) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("object storage is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: only image files are allowed", domain.ErrInvalidInput)
	}
	if size <= 0 || size > maxImageBytes {
		return "", fmt.Errorf("%w: image must be at most 5 MB", domain.ErrInvalidInput)
	}

	current, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	path := fmt.Sprintf("%s/%s.%s", userID, uuid.NewString(), imageExtension(filename, contentType))
	url, err := s.storage.Upload(ctx, avatarBucket, path, contentType, body, size)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	if err := s.profiles.SetAvatarURL(ctx, userID, &url); err != nil {
		return "", fmt.Errorf("set avatar url: %w", err)
	}

	s.removeObject(ctx, current.AvatarURL)
	return url, nil
}

// DeleteAvatar clears the caller's avatar.
func (s *ProfileService) DeleteAvatar(ctx context.Context, userID string) error {
	current, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if current.AvatarURL == nil {
		return nil
	}
	if err := s.profiles.SetAvatarURL(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear avatar url: %w", err)
	}
	s.removeObject(ctx, current.AvatarURL)
	return nil
}

func (s *ProfileService) removeObject(ctx context.Context, url *string) {
	if url == nil || s.storage == nil {
		return
	}
	path, ok := objectPath(*url, avatarBucket)
	if !ok {
		return
	}
	if err := s.storage.Remove(ctx, avatarBucket, path); err != nil {
		slog.WarnContext(ctx, "remove old avatar", "path", path, "error", err)
	}
}

// objectPath returns the part of a public object URL after "/<bucket>/".
func objectPath(url, bucket string) (string, bool) {
	marker := "/" + bucket + "/"
	i := strings.LastIndex(url, marker)
	if i < 0 || i+len(marker) >= len(url) {
		return "", false
	}
	return url[i+len(marker):], true
}
