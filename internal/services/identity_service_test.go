package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/moritama/project-board-api/internal/models"
	"github.com/moritama/project-board-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupIdentityService(t *testing.T) (*IdentityService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return NewIdentityService(repository.NewUserRepository(db)), db
}

func TestIdentityService_ResolveUser_CreatesOnFirstLogin(t *testing.T) {
	service, db := setupIdentityService(t)

	profile := ExternalProfile{
		ID:          "google-123",
		DisplayName: "Jane Doe",
		FirstName:   "Jane",
		LastName:    "Doe",
		Emails:      []string{"jane@example.com", "jane@work.example.com"},
		Photos:      []string{"https://lh3.googleusercontent.com/a", "https://lh3.googleusercontent.com/b"},
	}

	user, err := service.ResolveUser(profile)
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.Equal(t, "Jane Doe", user.DisplayName)

	// The first email and photo from the provider win.
	require.Equal(t, "jane@example.com", user.Email)
	require.Equal(t, "https://lh3.googleusercontent.com/a", user.Image)

	var count int64
	db.Model(&models.User{}).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestIdentityService_ResolveUser_Idempotent(t *testing.T) {
	service, db := setupIdentityService(t)

	profile := ExternalProfile{
		ID:          "google-123",
		DisplayName: "Jane Doe",
	}

	first, err := service.ResolveUser(profile)
	require.NoError(t, err)

	// A second login with the same external ID returns the same record even
	// when the profile fields changed upstream.
	profile.DisplayName = "Jane D."
	second, err := service.ResolveUser(profile)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Jane Doe", second.DisplayName)

	var count int64
	db.Model(&models.User{}).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestIdentityService_ResolveUser_EmptyProfileLists(t *testing.T) {
	service, _ := setupIdentityService(t)

	user, err := service.ResolveUser(ExternalProfile{ID: "google-456", DisplayName: "No Extras"})
	require.NoError(t, err)
	require.Empty(t, user.Email)
	require.Empty(t, user.Image)
}

func TestIdentityService_SearchUsers(t *testing.T) {
	service, db := setupIdentityService(t)

	for _, name := range []string{"alice cooper", "alice jones", "bob"} {
		require.NoError(t, db.Create(&models.User{GoogleID: "g-" + name, DisplayName: name}).Error)
	}

	users, err := service.SearchUsers("alice")
	require.NoError(t, err)
	require.Len(t, users, 2)

	users, err = service.SearchUsers("zelda")
	require.NoError(t, err)
	require.Empty(t, users)
}
