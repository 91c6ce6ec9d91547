package repository

import (
	"Glimpse/internal/model"
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: 每个连接都是独立的库
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.UserDetail{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id uint64, nickname string, deleted bool) {
	t.Helper()
	email := nickname + "@example.com"
	user := &model.User{
		ID:         id,
		Email:      &email,
		IsDelete:   deleted,
		UserDetail: model.UserDetail{Nickname: nickname, AvatarURL: "avatars/" + nickname + ".png"},
	}
	require.NoError(t, db.Create(user).Error)
}

func TestUserRepoGetUserById(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, "alice", false)
	seedUser(t, db, 2, "bob", true)
	repo := NewUserRepo(db)
	ctx := context.Background()

	user, err := repo.GetUserById(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.UserDetail.Nickname)
	assert.Equal(t, "alice@example.com", *user.Email)

	user, err = repo.GetUserById(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.GetUserById(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepoGetUserByIds(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, "alice", false)
	seedUser(t, db, 2, "bob", true)
	seedUser(t, db, 3, "carol", false)
	repo := NewUserRepo(db)

	users, err := repo.GetUserByIds(context.Background(), []uint64{1, 2, 3, 4})
	require.NoError(t, err)
	require.Len(t, users, 2)

	names := []string{users[0].UserDetail.Nickname, users[1].UserDetail.Nickname}
	assert.ElementsMatch(t, []string{"alice", "carol"}, names)

	users, err = repo.GetUserByIds(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}
