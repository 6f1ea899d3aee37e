package importexport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ukpython/ukpython/pkg/ukpython/models"
)

// ErrUnsafeKey is reported for keys that would place a file outside its dump directory.
var ErrUnsafeKey = errors.New("key escapes the dump directory")

// ExportResult represents the result of writing a dump tree
type ExportResult struct {
	Exported map[string]int `json:"exported"`
	Skipped  map[string]int `json:"skipped"`
	Errors   []string       `json:"errors,omitempty"`
}

func (r *ExportResult) skip(kind, key string, err error) {
	r.Skipped[kind]++
	r.Errors = append(r.Errors, fmt.Sprintf("%s %s: %v", kind, key, err))
}

// keyPath turns a slash-separated key into a file path below root/dir.
func keyPath(root, dir, key, ext string) (string, error) {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeKey, key)
	}
	return filepath.Join(root, dir, rel+ext), nil
}

func writeFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// exporter writes one kind of record, counting written and skipped files.
type exporter struct {
	root   string
	kind   string
	ext    string
	result *ExportResult
}

func (e *exporter) write(key string, data []byte) error {
	p, err := keyPath(e.root, e.kind, key, e.ext)
	if err != nil {
		e.result.skip(e.kind, key, err)
		return nil
	}
	if err := writeFile(p, data); err != nil {
		return err
	}
	e.result.Exported[e.kind]++
	return nil
}

// Dump writes every record to the tree under root in the layout Load reads.
// Existing files are overwritten; files for records no longer stored are left alone.
// Records whose key would escape the tree are skipped and reported.
func (im *Importer) Dump(root string) (*ExportResult, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	start := time.Now()
	result := &ExportResult{
		Exported: map[string]int{},
		Skipped:  map[string]int{},
		Errors:   []string{},
	}

	steps := []struct {
		kind, ext string
		dump      func(db *gorm.DB, e *exporter) error
	}{
		{DirUserGroups, extFields, dumpUserGroups},
		{DirEvents, extFields, dumpEvents},
		{DirSponsors, extFields, dumpSponsors},
		{DirSponsoredNews, extContent, dumpSponsoredNews},
		{DirNews, extContent, dumpNews},
		{DirPages, extContent, dumpPages},
	}
	for _, step := range steps {
		result.Exported[step.kind] = 0
		e := &exporter{root: root, kind: step.kind, ext: step.ext, result: result}
		if err := step.dump(im.db, e); err != nil {
			im.logger.Error("content dump failed", zap.String("kind", step.kind), zap.Error(err))
			return nil, fmt.Errorf("dump %s: %w", step.kind, err)
		}
	}

	im.logger.Info("content dumped",
		zap.String("root", root),
		zap.Any("exported", result.Exported),
		zap.Any("skipped", result.Skipped),
		zap.Duration("duration", time.Since(start)),
	)
	for _, msg := range result.Errors {
		im.logger.Warn("content record not dumped", zap.String("error", msg))
	}
	return result, nil
}

func dumpUserGroups(db *gorm.DB, e *exporter) error {
	var groups []models.UserGroup
	if err := db.Scopes(models.OrderUserGroups).Find(&groups).Error; err != nil {
		return err
	}
	for _, g := range groups {
		data, err := encodeFields(userGroupFile{Name: g.Name, URL: g.URL})
		if err != nil {
			return err
		}
		if err := e.write(g.Key, data); err != nil {
			return err
		}
	}
	return nil
}

func dumpEvents(db *gorm.DB, e *exporter) error {
	var evs []models.Event
	if err := db.Scopes(models.OrderEvents).Find(&evs).Error; err != nil {
		return err
	}
	for _, ev := range evs {
		data, err := encodeFields(eventFile{Name: ev.Name, URL: ev.URL, Time: ev.Time, Venue: ev.Venue})
		if err != nil {
			return err
		}
		if err := e.write(ev.Key, data); err != nil {
			return err
		}
	}
	return nil
}

func dumpSponsors(db *gorm.DB, e *exporter) error {
	var sponsors []models.Sponsor
	if err := db.Scopes(models.OrderSponsors).Find(&sponsors).Error; err != nil {
		return err
	}
	for _, s := range sponsors {
		data, err := encodeFields(sponsorFile{Name: s.Name, URL: s.URL})
		if err != nil {
			return err
		}
		if err := e.write(s.Key, data); err != nil {
			return err
		}
	}
	return nil
}

func dumpSponsoredNews(db *gorm.DB, e *exporter) error {
	var items []models.SponsoredNewsItem
	if err := db.Scopes(models.OrderSponsoredNewsItems).Find(&items).Error; err != nil {
		return err
	}
	for _, item := range items {
		data, err := encodeContent(sponsoredNewsFile{NewsletterMonth: item.NewsletterMonth}, item.Body)
		if err != nil {
			return err
		}
		if err := e.write(item.Key, data); err != nil {
			return err
		}
	}
	return nil
}

func dumpNews(db *gorm.DB, e *exporter) error {
	var items []models.NewsItem
	if err := db.Scopes(models.OrderNewsItems).Find(&items).Error; err != nil {
		return err
	}
	for _, item := range items {
		meta := newsFile{
			Title:           item.Title,
			NewsletterMonth: item.NewsletterMonth,
			NewsletterOnly:  item.NewsletterOnly,
		}
		data, err := encodeContent(meta, item.Body)
		if err != nil {
			return err
		}
		if err := e.write(item.Key, data); err != nil {
			return err
		}
	}
	return nil
}

func dumpPages(db *gorm.DB, e *exporter) error {
	var pages []models.Page
	if err := db.Scopes(models.OrderPages).Find(&pages).Error; err != nil {
		return err
	}
	for _, p := range pages {
		data, err := encodeContent(pageFile{Title: p.Title}, p.Body)
		if err != nil {
			return err
		}
		if err := e.write(p.Key, data); err != nil {
			return err
		}
	}
	return nil
}
