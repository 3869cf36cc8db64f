package controllers

import (
	"html/template"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Inozem/hw05-final/config"
	"github.com/Inozem/hw05-final/middleware"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.SetForTesting(config.AppConfig{
		AppPort:          "8080",
		JWTSecret:        "test-secret",
		PostsPerPage:     10,
		FeedCacheSeconds: 1,
		StaticDir:        os.TempDir(),
	})
	os.Exit(m.Run())
}

// setupMockDB opens a gorm connection backed by sqlmock, so tests can pin
// the SQL each operation is allowed to run.
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

// stub templates: rendering is exercised only as far as "the handler hands
// a context to a template of this name".
var testTemplates = template.Must(template.New("").Parse(`
{{define "index.html"}}index{{end}}
{{define "group_list.html"}}group{{end}}
{{define "profile.html"}}profile following={{.following}}{{end}}
{{define "post_detail.html"}}detail comments={{len .comments}}{{end}}
{{define "create_post.html"}}form is_edit={{.is_edit}} error={{.error}}{{end}}
{{define "follow.html"}}follow feed posts={{len .page_obj}}{{end}}
{{define "follow_done.html"}}followed {{.author.Username}}{{end}}
{{define "unfollow_done.html"}}unfollowed {{.author.Username}}{{end}}
{{define "login.html"}}login next={{.next}} error={{.error}}{{end}}
{{define "signup.html"}}signup error={{.error}}{{end}}
`))

// newTestContext builds a gin context whose engine knows the stub templates.
func newTestContext(t *testing.T, method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	ctx, engine := gin.CreateTestContext(w)
	engine.SetHTMLTemplate(testTemplates)
	ctx.Request = httptest.NewRequest(method, target, nil)
	return ctx, w
}

// invoke runs a handler and flushes any pending status to the recorder, as
// the engine does when it finalizes a request. Without the flush a
// bodyless POST redirect never reaches the recorder.
func invoke(ctx *gin.Context, handler gin.HandlerFunc) {
	handler(ctx)
	ctx.Writer.WriteHeaderNow()
}

func authenticate(ctx *gin.Context, id uint, username string) {
	ctx.Set(middleware.ContextUserIDKey, id)
	ctx.Set(middleware.ContextUsernameKey, username)
}
