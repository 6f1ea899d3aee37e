package importexport

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// Dump tree directories, one per content type.
const (
	DirUserGroups    = "user-groups"
	DirEvents        = "events"
	DirSponsors      = "sponsors"
	DirSponsoredNews = "sponsored-news"
	DirNews          = "news"
	DirPages         = "pages"
)

// Records without a body are stored as plain YAML; records with one as
// Markdown files with YAML front matter.
const (
	extFields  = ".yml"
	extContent = ".md"
)

const frontMatterDelim = "---"

var errNoFrontMatter = errors.New("missing front matter")

type userGroupFile struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url,omitempty"`
}

type eventFile struct {
	Name  string  `yaml:"name"`
	URL   string  `yaml:"url,omitempty"`
	Time  *string `yaml:"time,omitempty"`
	Venue string  `yaml:"venue,omitempty"`
}

type sponsorFile struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url,omitempty"`
}

type newsFile struct {
	Title           string  `yaml:"title"`
	NewsletterMonth *string `yaml:"newsletter_month,omitempty"`
	NewsletterOnly  bool    `yaml:"newsletter_only,omitempty"`
}

type sponsoredNewsFile struct {
	NewsletterMonth *string `yaml:"newsletter_month,omitempty"`
}

type pageFile struct {
	Title string `yaml:"title"`
}

// splitFrontMatter separates "---\n<yaml>\n---\n<body>" into its parts.
func splitFrontMatter(data []byte) (meta, body []byte, err error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	open := []byte(frontMatterDelim + "\n")
	if !bytes.HasPrefix(data, open) {
		return nil, nil, errNoFrontMatter
	}
	rest := data[len(open):]

	// empty front matter
	if bytes.HasPrefix(rest, open) {
		return nil, rest[len(open):], nil
	}
	if bytes.Equal(rest, []byte(frontMatterDelim)) {
		return nil, nil, nil
	}

	closing := []byte("\n" + frontMatterDelim + "\n")
	if end := bytes.Index(rest, closing); end >= 0 {
		return rest[:end+1], rest[end+len(closing):], nil
	}
	if trailer := []byte("\n" + frontMatterDelim); bytes.HasSuffix(rest, trailer) {
		return rest[:len(rest)-len(frontMatterDelim)], nil, nil
	}
	return nil, nil, errNoFrontMatter
}

func decodeFields(data []byte, out interface{}) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return yaml.Unmarshal(data, out)
}

func decodeContent(data []byte, out interface{}) (string, error) {
	meta, body, err := splitFrontMatter(data)
	if err != nil {
		return "", err
	}
	if err := decodeFields(meta, out); err != nil {
		return "", err
	}
	return string(body), nil
}

func encodeFields(in interface{}) ([]byte, error) {
	return yaml.Marshal(in)
}

func encodeContent(in interface{}, body string) ([]byte, error) {
	meta, err := yaml.Marshal(in)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(frontMatterDelim + "\n")
	buf.Write(meta)
	buf.WriteString(frontMatterDelim + "\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}
