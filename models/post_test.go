package models

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return db, mock
}

func TestDeletePostRemovesCommentsFirst(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `comments` WHERE post_id = ").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM `posts`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, DeletePost(db, 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePostRollsBackOnFailure(t *testing.T) {
	db, mock := setupMockDB(t)

	boom := errors.New("deadlock")
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `comments` WHERE post_id = ").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM `posts`").
		WillReturnError(boom)
	mock.ExpectRollback()

	require.ErrorIs(t, DeletePost(db, 1), boom)
	require.NoError(t, mock.ExpectationsWereMet(), "a failed delete must roll back the comment removal")
}
