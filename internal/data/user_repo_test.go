package data

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseq/courseq/internal/domain/model"
	"github.com/courseq/courseq/internal/testutil"
)

func createTestUser(t *testing.T, db *sql.DB, netID string) *model.User {
	t.Helper()
	repo := NewUserRepo(db)
	u, err := repo.Create(context.Background(), &model.CreateUserRequest{
		NetID:     netID,
		FirstName: "Test",
		LastName:  "User",
		Email:     netID + "@example.edu",
	})
	require.NoError(t, err)
	return u
}

func TestUserRepo_Create_Get(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewUserRepo(db)

		netID := fmt.Sprintf("u%d", time.Now().UnixNano()%1e9)
		created, err := repo.Create(ctx, &model.CreateUserRequest{
			NetID:     netID,
			FirstName: "Bella",
			LastName:  "Mars",
			Email:     netID + "@example.edu",
			Year:      testutil.IntPtr(2027),
		})
		require.NoError(t, err)
		assert.Equal(t, netID, created.NetID)
		assert.Equal(t, model.UserRoleStudent, created.Role)
		assert.Equal(t, model.DefaultTimeZone, created.TimeZone)
		require.NotNil(t, created.Year)
		assert.Equal(t, 2027, *created.Year)

		got, err := repo.GetByNetID(ctx, netID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewUserRepo(db)

		u := createTestUser(t, db, "dup1")
		_, err := repo.Create(ctx, &model.CreateUserRequest{
			NetID:     u.NetID,
			FirstName: "Other",
			LastName:  "Person",
			Email:     "other@example.edu",
		})
		assert.ErrorIs(t, err, ErrUserExists)
	})
}

func TestUserRepo_GetByNetID_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		_, err := repo.GetByNetID(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserRepo_Create_Invalid(t *testing.T) {
	repo := NewUserRepo(nil)

	_, err := repo.Create(context.Background(), &model.CreateUserRequest{
		NetID: "", FirstName: "A", LastName: "B", Email: "a@example.edu",
	})
	require.Error(t, err)

	_, err = repo.Create(context.Background(), nil)
	require.Error(t, err)
}
