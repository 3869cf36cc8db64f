package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func expectLoadPost(mock sqlmock.Sqlmock, postID, authorID uint) {
	mock.ExpectQuery("SELECT (.+) FROM `posts` WHERE `posts`.`id` = ").
		WillReturnRows(sqlmock.NewRows([]string{"id", "text", "pub_date", "author_id", "group_id", "image"}).
			AddRow(postID, "original text", time.Now(), authorID, nil, ""))
	mock.ExpectQuery("SELECT (.+) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(authorID, "leo"))
}

func TestCreateForcesAuthorFromIdentity(t *testing.T) {
	db, mock := setupMockDB(t)
	posts := NewPostController(db)

	mock.ExpectBegin()
	// Author comes from the session, never from the form; the smuggled
	// author field below must not reach the insert.
	mock.ExpectExec("INSERT INTO `posts`").
		WithArgs("hello world", sqlmock.AnyArg(), 7, nil, "").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectCommit()

	ctx, w := newTestContext(t, http.MethodPost, "/create/")
	ctx.Request = formRequest("/create/", url.Values{
		"text":   {"hello world"},
		"author": {"999"},
	})
	authenticate(ctx, 7, "leo")
	invoke(ctx, posts.Create)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/leo/", w.Header().Get("Location"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEmptyTextRerendersForm(t *testing.T) {
	db, mock := setupMockDB(t)
	posts := NewPostController(db)

	mock.ExpectQuery("SELECT (.+) FROM `groups`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "description"}))

	ctx, w := newTestContext(t, http.MethodPost, "/create/")
	ctx.Request = formRequest("/create/", url.Values{"text": {"   "}})
	authenticate(ctx, 7, "leo")
	invoke(ctx, posts.Create)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "error=post text cannot be empty")
	require.NoError(t, mock.ExpectationsWereMet(), "a rejected post must not be written")
}

func TestCreateAnonymousRedirectsToLogin(t *testing.T) {
	db, mock := setupMockDB(t)
	posts := NewPostController(db)

	ctx, w := newTestContext(t, http.MethodPost, "/create/")
	ctx.Request = formRequest("/create/", url.Values{"text": {"hello"}})
	invoke(ctx, posts.Create)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next="+url.QueryEscape("/create/"), w.Header().Get("Location"))
	require.NoError(t, mock.ExpectationsWereMet(), "anonymous requests must never touch the store")
}

func TestEditByNonOwnerRedirectsWithoutMutation(t *testing.T) {
	db, mock := setupMockDB(t)
	posts := NewPostController(db)

	expectLoadPost(mock, 1, 7)

	ctx, w := newTestContext(t, http.MethodPost, "/posts/1/edit/")
	ctx.Request = formRequest("/posts/1/edit/", url.Values{"text": {"hijacked"}})
	ctx.Params = gin.Params{{Key: "id", Value: "1"}}
	authenticate(ctx, 8, "stranger")
	invoke(ctx, posts.Edit)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/posts/1/", w.Header().Get("Location"))
	require.NoError(t, mock.ExpectationsWereMet(), "a non-owner edit must not update the post")
}

func TestEditByOwnerUpdatesOnlyEditableFields(t *testing.T) {
	db, mock := setupMockDB(t)
	posts := NewPostController(db)

	expectLoadPost(mock, 1, 7)
	mock.ExpectBegin()
	// Three args: group_id, text, primary key. Author and pub_date are
	// not part of the update.
	mock.ExpectExec("UPDATE `posts` SET").
		WithArgs(nil, "updated text", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx, w := newTestContext(t, http.MethodPost, "/posts/1/edit/")
	ctx.Request = formRequest("/posts/1/edit/", url.Values{"text": {"updated text"}})
	ctx.Params = gin.Params{{Key: "id", Value: "1"}}
	authenticate(ctx, 7, "leo")
	invoke(ctx, posts.Edit)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/posts/1/", w.Header().Get("Location"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCommentUnknownPost(t *testing.T) {
	db, mock := setupMockDB(t)
	posts := NewPostController(db)

	mock.ExpectQuery("SELECT (.+) FROM `posts` WHERE `posts`.`id` = ").
		WillReturnRows(sqlmock.NewRows([]string{"id", "text", "pub_date", "author_id", "group_id", "image"}))

	ctx, w := newTestContext(t, http.MethodPost, "/posts/99/comment/")
	ctx.Request = formRequest("/posts/99/comment/", url.Values{"text": {"hi"}})
	ctx.Params = gin.Params{{Key: "id", Value: "99"}}
	authenticate(ctx, 2, "ana")
	invoke(ctx, posts.AddComment)

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCommentCreatesAndRedirectsToDetail(t *testing.T) {
	db, mock := setupMockDB(t)
	posts := NewPostController(db)

	expectLoadPost(mock, 1, 7)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `comments`").
		WithArgs(1, 2, "nice post", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()

	ctx, w := newTestContext(t, http.MethodPost, "/posts/1/comment/")
	ctx.Request = formRequest("/posts/1/comment/", url.Values{"text": {"nice post"}})
	ctx.Params = gin.Params{{Key: "id", Value: "1"}}
	authenticate(ctx, 2, "ana")
	invoke(ctx, posts.AddComment)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/posts/1/", w.Header().Get("Location"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCommentEmptyTextStillRedirectsToDetail(t *testing.T) {
	db, mock := setupMockDB(t)
	posts := NewPostController(db)

	expectLoadPost(mock, 1, 7)

	ctx, w := newTestContext(t, http.MethodPost, "/posts/1/comment/")
	ctx.Request = formRequest("/posts/1/comment/", url.Values{"text": {"  "}})
	ctx.Params = gin.Params{{Key: "id", Value: "1"}}
	authenticate(ctx, 2, "ana")
	invoke(ctx, posts.AddComment)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/posts/1/", w.Header().Get("Location"))
	require.NoError(t, mock.ExpectationsWereMet(), "an empty comment must not be written")
}

func TestDetailRendersPostWithComments(t *testing.T) {
	db, mock := setupMockDB(t)
	posts := NewPostController(db)

	expectLoadPost(mock, 1, 7)
	mock.ExpectQuery("SELECT (.+) FROM `comments` WHERE post_id = ").
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "author_id", "text", "created"}).
			AddRow(1, 1, 2, "first", time.Now()).
			AddRow(2, 1, 3, "second", time.Now()))
	mock.ExpectQuery("SELECT (.+) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).
			AddRow(2, "ana").
			AddRow(3, "bob"))

	ctx, w := newTestContext(t, http.MethodGet, "/posts/1/")
	ctx.Params = gin.Params{{Key: "id", Value: "1"}}
	invoke(ctx, posts.Detail)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "comments=2")
	require.NoError(t, mock.ExpectationsWereMet())
}
