package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the optional YAML file supplying defaults for a watch. Command-line values win.
//
//	subreddit: golang
//	sort: new
//	interval: 2m
//	backend: json
//	format: text
//	filter: 'title.length > 10'
//	retries: 2
//	seen_limit: 50000
type Document struct {
	Subreddit string `yaml:"subreddit,omitempty"`
	Sort      string `yaml:"sort,omitempty"`
	Interval  string `yaml:"interval,omitempty"`
	Backend   string `yaml:"backend,omitempty"`
	Format    string `yaml:"format,omitempty"`
	Filter    string `yaml:"filter,omitempty"`
	Cron      string `yaml:"cron,omitempty"`
	Retries   *int   `yaml:"retries,omitempty"`
	SeenLimit *int   `yaml:"seen_limit,omitempty"`
}

func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config document: %w", err)
	}
	return ParseDocument(data)
}

// ParseDocument decodes a document, rejecting unknown keys.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config document: %w", err)
	}
	if doc.Retries != nil && *doc.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0")
	}
	if doc.SeenLimit != nil && *doc.SeenLimit < 0 {
		return nil, fmt.Errorf("seen_limit must be >= 0")
	}
	return &doc, nil
}
