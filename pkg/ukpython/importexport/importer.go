package importexport

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ukpython/ukpython/pkg/ukpython/keys"
	"github.com/ukpython/ukpython/pkg/ukpython/metrics"
	"github.com/ukpython/ukpython/pkg/ukpython/models"
	"github.com/ukpython/ukpython/pkg/ukpython/news"
)

// ImportResult represents the result of loading a dump tree
type ImportResult struct {
	Imported map[string]int `json:"imported"`
	Skipped  map[string]int `json:"skipped"`
	Pruned   map[string]int `json:"pruned"`
	Errors   []string       `json:"errors,omitempty"`
}

func newImportResult() *ImportResult {
	return &ImportResult{
		Imported: map[string]int{},
		Skipped:  map[string]int{},
		Pruned:   map[string]int{},
		Errors:   []string{},
	}
}

func (r *ImportResult) skip(kind, key string, err error) {
	r.Skipped[kind]++
	r.Errors = append(r.Errors, fmt.Sprintf("%s %s: %v", kind, key, err))
}

// Importer loads and dumps the content tree. Loads and dumps are serialized
// so a scheduled reload cannot interleave with one triggered by an admin.
type Importer struct {
	db     *gorm.DB
	logger *zap.Logger
	mu     sync.Mutex
}

// NewImporter creates an importer writing to db
func NewImporter(db *gorm.DB, logger *zap.Logger) *Importer {
	return &Importer{db: db, logger: logger}
}

// dumpFile is one file of the tree, identified by its key.
type dumpFile struct {
	key  string
	path string
}

// listFiles returns the files with extension ext below root/dir, keyed by
// their slash-separated path relative to root/dir without the extension.
// found is false when root/dir does not exist.
func listFiles(root, dir, ext string) (files []dumpFile, found bool, err error) {
	base := filepath.Join(root, dir)
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ext {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		files = append(files, dumpFile{
			key:  strings.TrimSuffix(filepath.ToSlash(rel), ext),
			path: p,
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].key < files[j].key })
	return files, true, nil
}

// saveByKey inserts rec, or overwrites the row already stored under its key.
func saveByKey[T any, PT interface {
	*T
	Base() *models.Record
}](tx *gorm.DB, rec PT) error {
	var existing T
	err := tx.Where(map[string]interface{}{"key": rec.Base().Key}).Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(rec).Error
	}
	if err != nil {
		return err
	}
	prev := PT(&existing).Base()
	rec.Base().ID = prev.ID
	rec.Base().CreatedAt = prev.CreatedAt
	return tx.Save(rec).Error
}

// pruneMissing deletes the rows of T whose key is not in keep. Rows are
// deleted one at a time so their delete hooks run.
func pruneMissing[T any](tx *gorm.DB, keep []string) (int, error) {
	q := tx.Model(new(T))
	if len(keep) > 0 {
		q = q.Not(map[string]interface{}{"key": keep})
	}
	var stale []T
	if err := q.Find(&stale).Error; err != nil {
		return 0, err
	}
	for i := range stale {
		if err := tx.Delete(&stale[i]).Error; err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

func findByKey[T any](tx *gorm.DB, key string) (*T, error) {
	var rec T
	if err := tx.Where(map[string]interface{}{"key": key}).Take(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// Load reads the tree under root and upserts every record by key. Owners
// load before the records that reference them. Files that cannot be parsed
// or saved are reported in the result and skipped; I/O failures abort the
// load and roll it back.
//
// Rows whose file is gone from the tree are deleted in the same transaction.
// A kind whose directory is missing is left untouched, and a file that is
// present but skipped keeps its stored row.
func (im *Importer) Load(root string) (*ImportResult, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	start := time.Now()
	result := newImportResult()

	err := im.db.Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			kind, dir, ext string
			load           func(tx *gorm.DB, f dumpFile) error
			prune          func(tx *gorm.DB, keep []string) (int, error)
		}{
			{DirUserGroups, DirUserGroups, extFields, loadUserGroup, pruneMissing[models.UserGroup]},
			{DirEvents, DirEvents, extFields, loadEvent, pruneMissing[models.Event]},
			{DirSponsors, DirSponsors, extFields, loadSponsor, pruneMissing[models.Sponsor]},
			{DirSponsoredNews, DirSponsoredNews, extContent, loadSponsoredNewsItem, pruneMissing[models.SponsoredNewsItem]},
			{DirNews, DirNews, extContent, loadNewsItem, pruneMissing[models.NewsItem]},
			{DirPages, DirPages, extContent, loadPage, pruneMissing[models.Page]},
		}

		for _, step := range steps {
			files, found, err := listFiles(root, step.dir, step.ext)
			if err != nil {
				return fmt.Errorf("list %s: %w", step.dir, err)
			}
			if found {
				keep := make([]string, 0, len(files))
				for _, f := range files {
					keep = append(keep, f.key)
				}
				n, err := step.prune(tx, keep)
				if err != nil {
					return fmt.Errorf("prune %s: %w", step.dir, err)
				}
				result.Pruned[step.kind] = n
			}
			for _, f := range files {
				if err := step.load(tx, f); err != nil {
					var perr *fs.PathError
					if errors.As(err, &perr) {
						return err
					}
					result.skip(step.kind, f.key, err)
					continue
				}
				result.Imported[step.kind]++
			}
		}
		return nil
	})

	metrics.RecordImport(result.Imported, result.Skipped, err, time.Since(start))
	if err != nil {
		im.logger.Error("content load failed", zap.String("root", root), zap.Error(err))
		return nil, err
	}

	im.logger.Info("content loaded",
		zap.String("root", root),
		zap.Any("imported", result.Imported),
		zap.Any("skipped", result.Skipped),
		zap.Any("pruned", result.Pruned),
		zap.Duration("duration", time.Since(start)),
	)
	for _, msg := range result.Errors {
		im.logger.Warn("content file skipped", zap.String("error", msg))
	}
	return result, nil
}

func loadUserGroup(tx *gorm.DB, f dumpFile) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	var in userGroupFile
	if err := decodeFields(data, &in); err != nil {
		return err
	}
	return saveByKey(tx, &models.UserGroup{
		Record: models.Record{Key: f.key},
		Name:   in.Name,
		URL:    in.URL,
	})
}

func loadEvent(tx *gorm.DB, f dumpFile) error {
	k, err := keys.ParseEvent(f.key)
	if err != nil {
		return err
	}
	group, err := findByKey[models.UserGroup](tx, k.UserGroup)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("unknown user group %q", k.UserGroup)
		}
		return err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	var in eventFile
	if err := decodeFields(data, &in); err != nil {
		return err
	}

	date := k.Date
	return saveByKey(tx, &models.Event{
		Record:      models.Record{Key: f.key},
		UserGroupID: group.ID,
		Name:        in.Name,
		URL:         in.URL,
		Date:        &date,
		Time:        in.Time,
		Venue:       in.Venue,
	})
}

func loadSponsor(tx *gorm.DB, f dumpFile) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	var in sponsorFile
	if err := decodeFields(data, &in); err != nil {
		return err
	}
	return saveByKey(tx, &models.Sponsor{
		Record: models.Record{Key: f.key},
		Name:   in.Name,
		URL:    in.URL,
	})
}

func loadSponsoredNewsItem(tx *gorm.DB, f dumpFile) error {
	fields, err := news.SponsoredFieldsFromKey(f.key)
	if err != nil {
		return err
	}
	sponsor, err := findByKey[models.Sponsor](tx, fields.Sponsor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("unknown sponsor %q", fields.Sponsor)
		}
		return err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	var in sponsoredNewsFile
	body, err := decodeContent(data, &in)
	if err != nil {
		return err
	}

	return saveByKey(tx, &models.SponsoredNewsItem{
		Record:          models.Record{Key: f.key},
		Content:         models.Content{Body: body},
		SponsorID:       sponsor.ID,
		Date:            fields.Date,
		NewsletterMonth: in.NewsletterMonth,
	})
}

func loadNewsItem(tx *gorm.DB, f dumpFile) error {
	fields, err := news.FieldsFromKey(f.key)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	var in newsFile
	body, err := decodeContent(data, &in)
	if err != nil {
		return err
	}

	return saveByKey(tx, &models.NewsItem{
		Record:          models.Record{Key: f.key},
		Content:         models.Content{Body: body},
		Title:           in.Title,
		Slug:            fields.Slug,
		Date:            fields.Date,
		NewsletterMonth: in.NewsletterMonth,
		NewsletterOnly:  in.NewsletterOnly,
	})
}

func loadPage(tx *gorm.DB, f dumpFile) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	var in pageFile
	body, err := decodeContent(data, &in)
	if err != nil {
		return err
	}
	return saveByKey(tx, &models.Page{
		Record:  models.Record{Key: f.key},
		Content: models.Content{Body: body},
		Title:   in.Title,
	})
}
