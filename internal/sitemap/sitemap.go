// Package sitemap renders the site's sitemap family from the published
// catalog: a static-page sitemap, per-entity sitemaps for servers, categories
// and tags, one combined sitemap, and an index tying them together.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/magicmcp/hub/internal/database"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

// URL is one <url> entry of a sitemap.
type URL struct {
	Loc        string `xml:"loc"`
	Lastmod    string `xml:"lastmod,omitempty"`
	Changefreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// URLSet is a sitemap document.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// IndexEntry is one <sitemap> entry of a sitemap index.
type IndexEntry struct {
	Loc     string `xml:"loc"`
	Lastmod string `xml:"lastmod,omitempty"`
}

// Index is a sitemap index document.
type Index struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Xmlns    string       `xml:"xmlns,attr"`
	Sitemaps []IndexEntry `xml:"sitemap"`
}

// File is one rendered sitemap, ready to write.
type File struct {
	Name    string
	Content string
}

// Generator renders the sitemap family for one site.
type Generator struct {
	BaseURL string
	// Now stamps lastmod for pages without their own update time.
	Now time.Time
}

// NewGenerator returns a Generator rooted at baseURL.
func NewGenerator(baseURL string) *Generator {
	return &Generator{BaseURL: baseURL, Now: time.Now().UTC()}
}

func (g *Generator) today() string {
	return g.Now.Format("2006-01-02")
}

func (g *Generator) staticPages() []URL {
	today := g.today()
	return []URL{
		{Loc: g.BaseURL + "/", Changefreq: "daily", Priority: "1.0", Lastmod: today},
		{Loc: g.BaseURL + "/servers", Changefreq: "daily", Priority: "0.9", Lastmod: today},
		{Loc: g.BaseURL + "/categories", Changefreq: "weekly", Priority: "0.8", Lastmod: today},
		{Loc: g.BaseURL + "/docs", Changefreq: "monthly", Priority: "0.7", Lastmod: today},
		{Loc: g.BaseURL + "/favorites", Changefreq: "weekly", Priority: "0.6", Lastmod: today},
		{Loc: g.BaseURL + "/tags", Changefreq: "daily", Priority: "0.8", Lastmod: today},
	}
}

func (g *Generator) serverURLs(servers []database.PublishedServer) []URL {
	urls := make([]URL, 0, len(servers))
	for _, s := range servers {
		lastmod := g.today()
		if t, err := time.Parse(time.RFC3339, s.LastUpdated); err == nil {
			lastmod = t.UTC().Format("2006-01-02")
		}
		// Popular servers crawl first.
		priority := "0.7"
		switch {
		case s.Stars > 1000:
			priority = "0.9"
		case s.Stars > 100:
			priority = "0.8"
		}
		urls = append(urls, URL{
			Loc:        g.BaseURL + "/servers/" + s.Slug,
			Changefreq: "weekly",
			Priority:   priority,
			Lastmod:    lastmod,
		})
	}
	return urls
}

func (g *Generator) categoryURLs(categories []database.PublishedCategory) []URL {
	urls := make([]URL, 0, len(categories))
	for _, c := range categories {
		urls = append(urls, URL{
			Loc:        g.BaseURL + "/categories/" + c.ID,
			Changefreq: "weekly",
			Priority:   "0.7",
			Lastmod:    g.today(),
		})
	}
	return urls
}

func (g *Generator) tagURLs(tags []string) []URL {
	urls := make([]URL, 0, len(tags))
	for _, tag := range tags {
		urls = append(urls, URL{
			Loc:        g.BaseURL + "/tags/" + url.PathEscape(tag),
			Changefreq: "weekly",
			Priority:   "0.6",
			Lastmod:    g.today(),
		})
	}
	return urls
}

// Generate renders all six sitemap files from the published catalog data.
func (g *Generator) Generate(servers []database.PublishedServer, categories []database.PublishedCategory, tags []string) ([]File, error) {
	static := g.staticPages()
	serverURLs := g.serverURLs(servers)
	categoryURLs := g.categoryURLs(categories)
	tagURLs := g.tagURLs(tags)

	complete := make([]URL, 0, len(static)+len(serverURLs)+len(categoryURLs)+len(tagURLs))
	complete = append(complete, static...)
	complete = append(complete, serverURLs...)
	complete = append(complete, categoryURLs...)
	complete = append(complete, tagURLs...)

	index := Index{Xmlns: xmlns}
	for _, name := range []string{
		"sitemap.xml",
		"sitemap-servers.xml",
		"sitemap-categories.xml",
		"sitemap-tags.xml",
		"sitemap-complete.xml",
	} {
		index.Sitemaps = append(index.Sitemaps, IndexEntry{
			Loc:     g.BaseURL + "/" + name,
			Lastmod: g.today(),
		})
	}

	files := make([]File, 0, 6)
	for _, doc := range []struct {
		name string
		v    any
	}{
		{"sitemap.xml", URLSet{Xmlns: xmlns, URLs: static}},
		{"sitemap-servers.xml", URLSet{Xmlns: xmlns, URLs: serverURLs}},
		{"sitemap-categories.xml", URLSet{Xmlns: xmlns, URLs: categoryURLs}},
		{"sitemap-tags.xml", URLSet{Xmlns: xmlns, URLs: tagURLs}},
		{"sitemap-complete.xml", URLSet{Xmlns: xmlns, URLs: complete}},
		{"sitemapindex.xml", index},
	} {
		body, err := xml.MarshalIndent(doc.v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", doc.name, err)
		}
		files = append(files, File{
			Name:    doc.name,
			Content: xml.Header + string(body) + "\n",
		})
	}
	return files, nil
}

// Write writes rendered sitemap files into dir, creating it if needed.
func Write(dir string, files []File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create sitemap directory: %w", err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	return nil
}
