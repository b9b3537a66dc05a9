package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"joetracker-engine/internal/domain"
)

type SectionConfig struct {
	Key    string `yaml:"key" json:"key"`
	Label  string `yaml:"label" json:"label"`
	Filter string `yaml:"filter" json:"filter"` // empty keeps every posting
}

// FetchSection is a job-board section id and its short file name.
type FetchSection struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
		DBFile  string `yaml:"db_file" json:"db_file"`
	} `yaml:"app" json:"app"`

	Sections []SectionConfig `yaml:"sections" json:"sections"`

	Fetch struct {
		Enabled           bool           `yaml:"enabled" json:"enabled"`
		BaseURL           string         `yaml:"base_url" json:"base_url"`
		ListingsPath      string         `yaml:"listings_path" json:"listings_path"`
		ExportPath        string         `yaml:"export_path" json:"export_path"`
		UserAgent         string         `yaml:"user_agent" json:"user_agent"`
		Years             []int          `yaml:"years" json:"years"`
		Sections          []FetchSection `yaml:"sections" json:"sections"`
		RequestsPerSecond float64        `yaml:"requests_per_second" json:"requests_per_second"`
		Burst             int            `yaml:"burst" json:"burst"`
		TimeoutSeconds    int            `yaml:"timeout_seconds" json:"timeout_seconds"`
		RespectRobots     bool           `yaml:"respect_robots" json:"respect_robots"`
	} `yaml:"fetch" json:"fetch"`

	Site struct {
		OutDir string `yaml:"out_dir" json:"out_dir"`
		Title  string `yaml:"title" json:"title"`
	} `yaml:"site" json:"site"`

	Cache struct {
		TTLSeconds int `yaml:"ttl_seconds" json:"ttl_seconds"`
	} `yaml:"cache" json:"cache"`
}

func Default() Config {
	var c Config
	c.App.Port = 38471
	c.App.DataDir = "joe_data"
	c.App.DBFile = "joetracker.db"

	c.Sections = []SectionConfig{
		{Key: "all_sections", Label: "All Sections"},
		{Key: "us_academic", Label: "US: Full-Time Academic", Filter: "US: Full-Time Academic"},
		{Key: "us_other_academic", Label: "US: Other Academic", Filter: "US: Other Academic"},
		{Key: "intl_academic", Label: "International: Full-Time Academic", Filter: "International: Full-Time Academic"},
		{Key: "intl_other_academic", Label: "International: Other Academic", Filter: "International: Other Academic"},
		{Key: "nonacademic", Label: "Nonacademic", Filter: "Nonacademic"},
	}

	c.Fetch.BaseURL = "https://www.aeaweb.org"
	c.Fetch.ListingsPath = "/joe/listings.php"
	c.Fetch.ExportPath = "/joe/resultset_xls_output.php"
	c.Fetch.UserAgent = "joetracker/1.0 (+local)"
	c.Fetch.Sections = []FetchSection{
		{ID: "1", Name: "us_academic"},
		{ID: "5", Name: "intl_academic"},
		{ID: "9", Name: "nonacademic"},
	}
	c.Fetch.RequestsPerSecond = 0.5
	c.Fetch.Burst = 1
	c.Fetch.TimeoutSeconds = 60
	c.Fetch.RespectRobots = true

	c.Site.OutDir = "docs"
	c.Site.Title = "JOE Market Tracker"

	c.Cache.TTLSeconds = 3600
	return c
}

// Load reads path over the defaults, so keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (c Config) DomainSections() []domain.Section {
	out := make([]domain.Section, 0, len(c.Sections))
	for _, s := range c.Sections {
		out = append(out, domain.Section{Key: s.Key, Label: s.Label, Filter: s.Filter})
	}
	return out
}

// DBPath resolves db_file against the data dir unless it is absolute.
func (c Config) DBPath() string {
	if filepath.IsAbs(c.App.DBFile) {
		return c.App.DBFile
	}
	return filepath.Join(c.App.DataDir, c.App.DBFile)
}

func (c Config) ScrapedDir() string {
	return filepath.Join(c.App.DataDir, "scraped")
}
