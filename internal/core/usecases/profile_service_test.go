package usecases_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/usecases"
)

func TestProfileService_Save(t *testing.T) {
	var saved *domain.Profile
	repo := &mockProfileRepo{
		upsertFn: func(ctx context.Context, p *domain.Profile) error { saved = p; return nil },
	}
	svc := usecases.NewProfileService(repo, nil)

	_, err := svc.Save(context.Background(), "u1", usecases.ProfileInput{Name: " Ada ", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "u1", saved.ID)
	assert.Equal(t, "Ada", saved.Name)
	assert.Zero(t, saved.Rewards)

	_, err = svc.Save(context.Background(), "u1", usecases.ProfileInput{Name: "Ada", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Save(context.Background(), "u1", usecases.ProfileInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProfileService_UploadAvatar_ReplacesOld(t *testing.T) {
	old := "https://cdn.example.com/storage/v1/object/public/avatars/u1/old.png"
	var current *string
	repo := &mockProfileRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Profile, error) {
			return &domain.Profile{ID: id, AvatarURL: &old}, nil
		},
		setAvatarFn: func(ctx context.Context, id string, url *string) error { current = url; return nil },
	}
	store := &mockStorage{}
	svc := usecases.NewProfileService(repo, store)

	url, err := svc.UploadAvatar(context.Background(), "u1", "me.jpg", "image/jpeg", 2048, strings.NewReader("jpg"))
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, url, *current)
	assert.True(t, strings.HasPrefix(store.uploads[0], "avatars/u1/"))
	assert.Equal(t, []string{"avatars/u1/old.png"}, store.removed)
}

func TestProfileService_DeleteAvatar(t *testing.T) {
	old := "https://cdn.example.com/storage/v1/object/public/avatars/u1/old.png"
	cleared := false
	repo := &mockProfileRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Profile, error) {
			return &domain.Profile{ID: id, AvatarURL: &old}, nil
		},
		setAvatarFn: func(ctx context.Context, id string, url *string) error { cleared = url == nil; return nil },
	}
	store := &mockStorage{}
	svc := usecases.NewProfileService(repo, store)

	require.NoError(t, svc.DeleteAvatar(context.Background(), "u1"))
	assert.True(t, cleared)
	assert.Equal(t, []string{"avatars/u1/old.png"}, store.removed)
}
