// SPDX-License-Identifier: MIT

// Package site declares the static-site generator layout of the marketing
// site: source and output directories, template formats and the assets that
// are copied into the output tree verbatim. Nothing here renders or copies;
// the generator consumes the declaration and the CLI checks it.
package site

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lyle-ventures/fredproxy/internal/netutil"
	"github.com/lyle-ventures/fredproxy/internal/validate"
)

// Dir names the generator directories. Includes and Data are relative to Input.
type Dir struct {
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Includes string `yaml:"includes"`
	Data     string `yaml:"data"`
}

// Passthrough copies From into the output tree unchanged. An empty To keeps
// the path of From relative to the input directory.
type Passthrough struct {
	From string `yaml:"from"`
	To   string `yaml:"to,omitempty"`
}

// Sector is one investment sector shown on the site.
type Sector struct {
	Name         string `yaml:"name"`
	Code         string `yaml:"code"`
	Color        string `yaml:"color"`
	Deemphasized bool   `yaml:"deemphasized,omitempty"`
}

// Metadata is the global site data file.
type Metadata struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	URL         string   `yaml:"url"`
	Sectors     []Sector `yaml:"sectors,omitempty"`
}

// Config is the full generator declaration.
type Config struct {
	Dir                Dir           `yaml:"dir"`
	TemplateFormats    []string      `yaml:"templateFormats"`
	HTMLTemplateEngine string        `yaml:"htmlTemplateEngine"`
	Passthrough        []Passthrough `yaml:"passthrough"`
	Metadata           Metadata      `yaml:"site"`
}

// CopyStep is a resolved passthrough entry. Dest is relative to the
// working directory, inside Dir.Output.
type CopyStep struct {
	Source string
	Dest   string
}

// ErrUnknownField classifies strict parse failures caused by unknown keys.
var ErrUnknownField = errors.New("unknown site config field")

// knownFormats are the template languages the generator understands.
var knownFormats = []string{"njk", "md", "html", "liquid", "hbs", "mustache", "ejs", "haml", "pug", "11ty.js"}

// Default returns the layout the site has always been built with.
func Default() Config {
	return Config{
		Dir: Dir{
			Input:    "src",
			Output:   "_site",
			Includes: "_includes",
			Data:     "_data",
		},
		TemplateFormats:    []string{"njk", "md", "html"},
		HTMLTemplateEngine: "njk",
		Passthrough: []Passthrough{
			{From: "src/css/output.css"},
			{From: "src/robots.txt"},
			{From: "src/llms.txt"},
			{From: "logos", To: "logos"},
			{From: "portfolio", To: "portfolio"},
		},
		Metadata: Metadata{
			Title:       "Lyle Ventures",
			Description: "Venture capital for creators and builders at the technology frontier.",
			URL:         "https://lyle-ventures.xyz",
			Sectors: []Sector{
				{Name: "AI", Code: "AI", Color: "#00B4D8"},
				{Name: "Crypto", Code: "CRY", Color: "#9B5DE5"},
				{Name: "Defense", Code: "DEF", Color: "#E63956"},
				{Name: "Energy", Code: "NRG", Color: "#00C46A"},
				{Name: "Health", Code: "BIO", Color: "#E5A500"},
				{Name: "Fund of Funds", Code: "FOF", Color: "#9CA3AF", Deemphasized: true},
			},
		},
	}
}

// Load reads a YAML declaration over the defaults. Keys that are present
// replace the default value; unknown keys are rejected.
func Load(p string) (Config, error) {
	p = filepath.Clean(p)
	ext := strings.ToLower(filepath.Ext(p))
	if ext != ".yaml" && ext != ".yml" {
		return Config{}, fmt.Errorf("unsupported site config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- path is provided by the operator via CLI/config
	data, err := os.ReadFile(p)
	if err != nil {
		return Config{}, fmt.Errorf("read site config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML declaration over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return Config{}, fmt.Errorf("site config parse error: %w: %w", ErrUnknownField, err)
		}
		return Config{}, fmt.Errorf("site config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("site config contains multiple documents or trailing content")
	}
	return cfg, nil
}

// Validate checks the declaration for unusable or unsafe values.
func (c Config) Validate() error {
	v := validate.New()

	v.NotEmpty("dir.input", c.Dir.Input)
	v.NotEmpty("dir.output", c.Dir.Output)
	v.LocalPath("dir.input", c.Dir.Input)
	v.LocalPath("dir.output", c.Dir.Output)
	v.LocalPath("dir.includes", c.Dir.Includes)
	v.LocalPath("dir.data", c.Dir.Data)
	if c.Dir.Input != "" && filepath.Clean(c.Dir.Input) == filepath.Clean(c.Dir.Output) {
		v.AddError("dir.output", "must differ from dir.input", c.Dir.Output)
	}

	if len(c.TemplateFormats) == 0 {
		v.AddError("templateFormats", "at least one template format is required", c.TemplateFormats)
	}
	for i, f := range c.TemplateFormats {
		v.OneOf(fmt.Sprintf("templateFormats[%d]", i), f, knownFormats)
	}
	if c.HTMLTemplateEngine != "" {
		v.OneOf("htmlTemplateEngine", c.HTMLTemplateEngine, knownFormats)
	}

	for i, p := range c.Passthrough {
		field := fmt.Sprintf("passthrough[%d]", i)
		v.NotEmpty(field+".from", p.From)
		v.LocalPath(field+".from", p.From)
		v.LocalPath(field+".to", p.To)
	}

	if c.Metadata.URL != "" {
		v.HTTPURL("site.url", c.Metadata.URL)
	}

	if err := v.Err(); err != nil {
		return err
	}

	_, err := c.Plan()
	return err
}

// Plan resolves every passthrough entry to its destination in the output
// tree, in declaration order. Two entries may not share a destination.
func (c Config) Plan() ([]CopyStep, error) {
	input := path.Clean(filepath.ToSlash(c.Dir.Input))
	output := filepath.Clean(c.Dir.Output)

	steps := make([]CopyStep, 0, len(c.Passthrough))
	seen := make(map[string]string, len(c.Passthrough))
	for _, p := range c.Passthrough {
		from := path.Clean(filepath.ToSlash(p.From))

		rel := filepath.ToSlash(p.To)
		if rel == "" {
			rel = from
			if trimmed, ok := strings.CutPrefix(from, input+"/"); ok {
				rel = trimmed
			}
		}
		rel = path.Clean(rel)
		if rel == "." || !filepath.IsLocal(filepath.FromSlash(rel)) {
			return nil, fmt.Errorf("passthrough %q escapes the output directory", p.From)
		}

		dest := filepath.Join(output, filepath.FromSlash(rel))
		if prev, dup := seen[dest]; dup {
			return nil, fmt.Errorf("passthrough %q and %q both write %s", prev, p.From, dest)
		}
		seen[dest] = p.From

		steps = append(steps, CopyStep{
			Source: filepath.FromSlash(from),
			Dest:   dest,
		})
	}
	return steps, nil
}

// Origins returns the browser origins the site is served from: the apex
// host and its www. variant, with the scheme of the site URL.
func (m Metadata) Origins() ([]string, error) {
	if m.URL == "" {
		return nil, fmt.Errorf("site url is empty")
	}
	u, err := url.Parse(m.URL)
	if err != nil {
		return nil, fmt.Errorf("site url: %w", err)
	}
	origin, err := netutil.NormalizeOrigin(u.Scheme + "://" + u.Host)
	if err != nil {
		return nil, fmt.Errorf("site url: %w", err)
	}
	scheme, host, _ := strings.Cut(origin, "://")
	host = strings.TrimPrefix(host, "www.")

	return []string{scheme + "://" + host, scheme + "://www." + host}, nil
}
