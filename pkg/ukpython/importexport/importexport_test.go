package importexport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ukpython/ukpython/pkg/ukpython/auth"
	"github.com/ukpython/ukpython/pkg/ukpython/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	return db
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func sampleTree() map[string]string {
	return map[string]string{
		"user-groups/python-leeds.yml":       "name: Python Leeds\nurl: https://pythonleeds.org\n",
		"user-groups/python-york.yml":        "name: Python York\n",
		"events/python-leeds/2024-03-15.yml": "name: Talk night\ntime: \"18:30\"\nvenue: The Tetley\n",
		"events/python-leeds/2024-04-19.yml": "name: Project night\n",
		"sponsors/acme.yml":                  "name: Acme Ltd\nurl: https://acme.example\n",
		"sponsored-news/2024-03-01-acme.md":  "---\nnewsletter_month: 2024-03\n---\nAcme is hiring.\n",
		"news/2024-03-15-pycon-uk.md":        "---\ntitle: PyCon UK announced\nnewsletter_month: 2024-03\n---\nSee you in Cardiff.\n",
		"news/2024-02-01-members-only.md":    "---\ntitle: Members only\nnewsletter_only: true\n---\nHush.\n",
		"pages/about.md":                     "---\ntitle: About\n---\n# About UK Python\n",
	}
}

func newTestImporter(t *testing.T) (*Importer, *gorm.DB) {
	db := setupTestDB(t)
	return NewImporter(db, zap.NewNop()), db
}

func TestLoad(t *testing.T) {
	im, db := newTestImporter(t)
	root := t.TempDir()
	writeTree(t, root, sampleTree())

	result, err := im.Load(root)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, map[string]int{
		DirUserGroups:    2,
		DirEvents:        2,
		DirSponsors:      1,
		DirSponsoredNews: 1,
		DirNews:          2,
		DirPages:         1,
	}, result.Imported)

	var ev models.Event
	require.NoError(t, db.Where(map[string]interface{}{"key": "python-leeds/2024-03-15"}).Take(&ev).Error)
	assert.Equal(t, "Talk night", ev.Name)
	require.NotNil(t, ev.Time)
	assert.Equal(t, "18:30", *ev.Time)
	require.NotNil(t, ev.Date)
	assert.True(t, ev.Date.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))

	var leeds models.UserGroup
	require.NoError(t, db.Where(map[string]interface{}{"key": "python-leeds"}).Take(&leeds).Error)
	assert.Equal(t, leeds.ID, ev.UserGroupID)

	var item models.NewsItem
	require.NoError(t, db.Where(map[string]interface{}{"key": "2024-03-15-pycon-uk"}).Take(&item).Error)
	assert.Equal(t, "pycon-uk", item.Slug)
	assert.Equal(t, "PyCon UK announced", item.Title)
	assert.Equal(t, "See you in Cardiff.\n", item.Body)
	require.NotNil(t, item.NewsletterMonth)
	assert.Equal(t, "2024-03", *item.NewsletterMonth)
	assert.True(t, item.Date.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))

	var hidden models.NewsItem
	require.NoError(t, db.Where(map[string]interface{}{"key": "2024-02-01-members-only"}).Take(&hidden).Error)
	assert.True(t, hidden.NewsletterOnly)

	var sponsored models.SponsoredNewsItem
	require.NoError(t, db.Where(map[string]interface{}{"key": "2024-03-01-acme"}).Take(&sponsored).Error)
	assert.Equal(t, "Acme is hiring.\n", sponsored.Body)

	var page models.Page
	require.NoError(t, db.Where(map[string]interface{}{"key": "about"}).Take(&page).Error)
	assert.Equal(t, "About", page.Title)
}

func TestLoadIsIdempotent(t *testing.T) {
	im, db := newTestImporter(t)
	root := t.TempDir()
	writeTree(t, root, sampleTree())

	_, err := im.Load(root)
	require.NoError(t, err)

	var before models.UserGroup
	require.NoError(t, db.Where(map[string]interface{}{"key": "python-leeds"}).Take(&before).Error)

	writeTree(t, root, map[string]string{
		"user-groups/python-leeds.yml": "name: Leeds Python\n",
	})
	_, err = im.Load(root)
	require.NoError(t, err)

	var count int64
	db.Model(&models.UserGroup{}).Count(&count)
	assert.Equal(t, int64(2), count)
	db.Model(&models.Event{}).Count(&count)
	assert.Equal(t, int64(2), count)

	var after models.UserGroup
	require.NoError(t, db.Where(map[string]interface{}{"key": "python-leeds"}).Take(&after).Error)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "Leeds Python", after.Name)
}

func TestLoadSkipsBadFiles(t *testing.T) {
	im, db := newTestImporter(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"user-groups/python-leeds.yml":        "name: Python Leeds\n",
		"events/python-leeds/2024-02-30.yml":  "name: Impossible\n",
		"events/python-hull/2024-03-01.yml":   "name: Orphan\n",
		"news/bad-key.md":                     "---\ntitle: Bad\n---\n",
		"news/2024-03-01-no-front-matter.md":  "just text\n",
		"news/2024-03-02-good.md":             "---\ntitle: Good\n---\nBody\n",
		"sponsored-news/2024-03-01-nobody.md": "---\n---\nWho?\n",
		"pages/untitled.md":                   "---\n---\n",
	})

	result, err := im.Load(root)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported[DirUserGroups])
	assert.Equal(t, 0, result.Imported[DirEvents])
	assert.Equal(t, 2, result.Skipped[DirEvents])
	assert.Equal(t, 1, result.Imported[DirNews])
	assert.Equal(t, 2, result.Skipped[DirNews])
	assert.Equal(t, 1, result.Skipped[DirSponsoredNews])
	assert.Equal(t, 1, result.Skipped[DirPages])
	assert.Len(t, result.Errors, 6)

	joined := strings.Join(result.Errors, "\n")
	assert.Contains(t, joined, "bad-key")
	assert.Contains(t, joined, `unknown user group "python-hull"`)
	assert.Contains(t, joined, `unknown sponsor "nobody"`)

	var count int64
	db.Model(&models.NewsItem{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestLoadKeepsLooseFieldValues(t *testing.T) {
	im, db := newTestImporter(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"user-groups/python-leeds.yml":       "name: Python Leeds\n",
		"events/python-leeds/2024-03-15.yml": "name: Talk night\ntime: \"19:00:00\"\n",
		"news/2024-03-15-loose-tag.md":       "---\ntitle: Loose tag\nnewsletter_month: \"2024-3\"\n---\nBody\n",
	})

	result, err := im.Load(root)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	var ev models.Event
	require.NoError(t, db.Where(map[string]interface{}{"key": "python-leeds/2024-03-15"}).Take(&ev).Error)
	require.NotNil(t, ev.Time)
	assert.Equal(t, "19:00", *ev.Time)

	var item models.NewsItem
	require.NoError(t, db.Where(map[string]interface{}{"key": "2024-03-15-loose-tag"}).Take(&item).Error)
	require.NotNil(t, item.NewsletterMonth)
	assert.Equal(t, "2024-3", *item.NewsletterMonth)
}

func TestLoadMissingTree(t *testing.T) {
	im, _ := newTestImporter(t)

	result, err := im.Load(filepath.Join(t.TempDir(), "nothing-here"))
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Empty(t, result.Skipped)
	assert.Empty(t, result.Pruned)
}

func TestLoadPrunesRemovedFiles(t *testing.T) {
	im, db := newTestImporter(t)
	root := t.TempDir()
	writeTree(t, root, sampleTree())

	_, err := im.Load(root)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "news", "2024-02-01-members-only.md")))
	require.NoError(t, os.Remove(filepath.Join(root, "user-groups", "python-leeds.yml")))
	require.NoError(t, os.RemoveAll(filepath.Join(root, "sponsors")))
	writeTree(t, root, map[string]string{
		"pages/about.md": "---\n---\nno title\n",
	})

	result, err := im.Load(root)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pruned[DirNews])
	assert.Equal(t, 1, result.Pruned[DirUserGroups])
	assert.Equal(t, 0, result.Pruned[DirPages])
	_, ok := result.Pruned[DirSponsors]
	assert.False(t, ok, "a missing directory is not pruned")

	var count int64
	db.Model(&models.NewsItem{}).Where(map[string]interface{}{"key": "2024-02-01-members-only"}).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&models.UserGroup{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// the group's events went with it, so their files no longer resolve
	db.Model(&models.Event{}).Count(&count)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, 2, result.Skipped[DirEvents])

	db.Model(&models.Sponsor{}).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, result.Imported[DirSponsoredNews])

	// a file that fails to load keeps the row stored from the last good load
	var page models.Page
	require.NoError(t, db.Where(map[string]interface{}{"key": "about"}).Take(&page).Error)
	assert.Equal(t, "About", page.Title)
	assert.Equal(t, 1, result.Skipped[DirPages])
}

func TestLoadPrunesEmptiedDirectory(t *testing.T) {
	im, db := newTestImporter(t)
	root := t.TempDir()
	writeTree(t, root, sampleTree())

	_, err := im.Load(root)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "pages", "about.md")))
	result, err := im.Load(root)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pruned[DirPages])

	var count int64
	db.Model(&models.Page{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestLoadMissingTreeKeepsRows(t *testing.T) {
	im, db := newTestImporter(t)
	root := t.TempDir()
	writeTree(t, root, sampleTree())

	_, err := im.Load(root)
	require.NoError(t, err)

	result, err := im.Load(filepath.Join(t.TempDir(), "nothing-here"))
	require.NoError(t, err)
	assert.Empty(t, result.Pruned)

	var count int64
	db.Model(&models.NewsItem{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestDumpRoundTrip(t *testing.T) {
	im, _ := newTestImporter(t)
	src := t.TempDir()
	writeTree(t, src, sampleTree())

	loaded, err := im.Load(src)
	require.NoError(t, err)

	out := t.TempDir()
	exported, err := im.Dump(out)
	require.NoError(t, err)
	assert.Equal(t, loaded.Imported, exported.Exported)

	for _, name := range []string{
		"user-groups/python-leeds.yml",
		"events/python-leeds/2024-03-15.yml",
		"sponsored-news/2024-03-01-acme.md",
		"news/2024-03-15-pycon-uk.md",
		"pages/about.md",
	} {
		_, err := os.Stat(filepath.Join(out, filepath.FromSlash(name)))
		assert.NoError(t, err, name)
	}

	// a fresh database loaded from the dump holds the same content
	other, db := newTestImporter(t)
	reloaded, err := other.Load(out)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Errors)
	assert.Equal(t, loaded.Imported, reloaded.Imported)

	var item models.NewsItem
	require.NoError(t, db.Where(map[string]interface{}{"key": "2024-03-15-pycon-uk"}).Take(&item).Error)
	assert.Equal(t, "See you in Cardiff.\n", item.Body)
	require.NotNil(t, item.NewsletterMonth)
	assert.Equal(t, "2024-03", *item.NewsletterMonth)

	var ev models.Event
	require.NoError(t, db.Where(map[string]interface{}{"key": "python-leeds/2024-03-15"}).Take(&ev).Error)
	require.NotNil(t, ev.Time)
	assert.Equal(t, "18:30", *ev.Time)
	assert.Equal(t, "The Tetley", ev.Venue)
}

func TestDumpSkipsKeysOutsideTree(t *testing.T) {
	im, db := newTestImporter(t)
	require.NoError(t, db.Create(&models.Page{Record: models.Record{Key: "../escape"}, Title: "Escape"}).Error)
	require.NoError(t, db.Create(&models.Page{Record: models.Record{Key: "about"}, Title: "About"}).Error)

	parent := t.TempDir()
	out := filepath.Join(parent, "dump")
	result, err := im.Dump(out)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Exported[DirPages])
	assert.Equal(t, 1, result.Skipped[DirPages])
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "../escape")

	_, err = os.Stat(filepath.Join(out, "escape.md"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(parent, "escape.md"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(out, "pages", "about.md"))
	assert.NoError(t, err)
}

func TestKeyPath(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{"about", filepath.Join("root", "pages", "about.md"), false},
		{"python-leeds/2024-03-15", filepath.Join("root", "pages", "python-leeds", "2024-03-15.md"), false},
		{"../escape", "", true},
		{"a/../../escape", "", true},
		{"/etc/passwd", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := keyPath("root", DirPages, tt.key, extContent)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsafeKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMeta string
		wantBody string
		wantErr  bool
	}{
		{"meta and body", "---\ntitle: A\n---\nbody\n", "title: A\n", "body\n", false},
		{"empty meta", "---\n---\nbody", "", "body", false},
		{"no body", "---\ntitle: A\n---", "title: A\n", "", false},
		{"windows line endings", "---\r\ntitle: A\r\n---\r\nbody\r\n", "title: A\n", "body\n", false},
		{"missing opening", "title: A\n---\nbody", "", "", true},
		{"unterminated", "---\ntitle: A\nbody", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, body, err := splitFrontMatter([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMeta, string(meta))
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func setupTestRouter(t *testing.T, dumpDir string) (*gin.Engine, *auth.Manager, *gorm.DB) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	manager := auth.NewManager("test-secret", "admin", "")
	handler := NewHandler(db, NewImporter(db, zap.NewNop()), dumpDir, zap.NewNop())

	r := gin.New()
	admin := r.Group("/api/admin")
	admin.Use(manager.Middleware(), auth.RequireAdmin())
	handler.RegisterRoutes(admin)
	return r, manager, db
}

func adminRequest(t *testing.T, r *gin.Engine, manager *auth.Manager, method, target string) *httptest.ResponseRecorder {
	token, err := manager.GenerateToken("admin")
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r, _, _ := setupTestRouter(t, t.TempDir())

	for _, target := range []string{"/api/admin/import", "/api/admin/export"} {
		req := httptest.NewRequest(http.MethodPost, target, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}
}

func TestImportAndStatsHandlers(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, sampleTree())
	r, manager, _ := setupTestRouter(t, root)

	w := adminRequest(t, r, manager, http.MethodPost, "/api/admin/import")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Imported[DirUserGroups])

	w = adminRequest(t, r, manager, http.MethodGet, "/api/admin/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var stats StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, StatsResponse{
		UserGroups:         2,
		Events:             2,
		NewsItems:          2,
		NewsletterOnlyNews: 1,
		Sponsors:           1,
		SponsoredNewsItems: 1,
		Pages:              1,
	}, stats)
}

func TestExportHandler(t *testing.T) {
	root := t.TempDir()
	r, manager, db := setupTestRouter(t, root)

	require.NoError(t, db.Create(&models.Page{Record: models.Record{Key: "code-of-conduct"}, Title: "Code of Conduct", Content: models.Content{Body: "Be nice."}}).Error)

	w := adminRequest(t, r, manager, http.MethodPost, "/api/admin/export")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data, err := os.ReadFile(filepath.Join(root, "pages", "code-of-conduct.md"))
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Code of Conduct\n---\nBe nice.", string(data))
}
