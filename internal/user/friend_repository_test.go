package user

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}

func TestFriendRepository_FriendIDs(t *testing.T) {
	gormDB, mock, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewFriendRepository(gormDB)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "friend_user_id", "status", "requested_at", "accepted_at", "updated_at",
	}).
		// User 1 initiated with 2; user 3 initiated with 1.
		AddRow(1, 1, 2, "accepted", now, now, now).
		AddRow(2, 3, 1, "accepted", now, now, now)

	mock.ExpectQuery("SELECT \\* FROM `friends`").WillReturnRows(rows)

	ids, err := repo.FriendIDs(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, ids, "both directions of the friendship count")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendRepository_NoFriends(t *testing.T) {
	gormDB, mock, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewFriendRepository(gormDB)

	mock.ExpectQuery("SELECT \\* FROM `friends`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "friend_user_id", "status"}))

	ids, err := repo.FriendIDs(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, ids)
}
