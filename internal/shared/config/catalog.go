package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/catalog.yaml
var defaultCatalog []byte

// Catalog lists the positions offered on the form and the display labels of
// applicant statuses. It also carries the flyer defaults.
type Catalog struct {
	Positions    []string          `yaml:"positions" json:"positions"`
	StatusLabels map[string]string `yaml:"status_labels" json:"statusLabels"`
	Flyer        FlyerDefaults     `yaml:"flyer" json:"flyer"`
	QRPanel      QRPanelText       `yaml:"qr_panel" json:"qrPanel"`
}

// FlyerDefaults seeds the flyer editor.
type FlyerDefaults struct {
	Headline    string `yaml:"headline" json:"headline"`
	Subtext     string `yaml:"subtext" json:"subtext"`
	AccentColor string `yaml:"accent_color" json:"accentColor"`
}

// QRPanelText is printed around the downloadable QR code.
type QRPanelText struct {
	Title    string `yaml:"title" json:"title"`
	Subtitle string `yaml:"subtitle" json:"subtitle"`
	Caption  string `yaml:"caption" json:"caption"`
	Footer   string `yaml:"footer" json:"footer"`
}

// LoadCatalog reads the catalog file at path, overlaying it on the embedded
// defaults. An empty path returns the defaults.
func LoadCatalog(path string) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(defaultCatalog, &cat); err != nil {
		return Catalog{}, fmt.Errorf("parse default catalog: %w", err)
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return cat, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var overlay Catalog
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	if len(overlay.Positions) > 0 {
		cat.Positions = overlay.Positions
	}
	for k, v := range overlay.StatusLabels {
		cat.StatusLabels[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	if overlay.Flyer.Headline != "" {
		cat.Flyer.Headline = overlay.Flyer.Headline
	}
	if overlay.Flyer.Subtext != "" {
		cat.Flyer.Subtext = overlay.Flyer.Subtext
	}
	if overlay.Flyer.AccentColor != "" {
		cat.Flyer.AccentColor = overlay.Flyer.AccentColor
	}
	if overlay.QRPanel.Title != "" {
		cat.QRPanel.Title = overlay.QRPanel.Title
	}
	if overlay.QRPanel.Subtitle != "" {
		cat.QRPanel.Subtitle = overlay.QRPanel.Subtitle
	}
	if overlay.QRPanel.Caption != "" {
		cat.QRPanel.Caption = overlay.QRPanel.Caption
	}
	if overlay.QRPanel.Footer != "" {
		cat.QRPanel.Footer = overlay.QRPanel.Footer
	}
	return cat, nil
}

// HasPosition reports whether position is one of the catalog entries.
func (c Catalog) HasPosition(position string) bool {
	for _, p := range c.Positions {
		if strings.EqualFold(p, strings.TrimSpace(position)) {
			return true
		}
	}
	return false
}

// Label returns the display label for a status, falling back to the raw value.
func (c Catalog) Label(status string) string {
	if label, ok := c.StatusLabels[status]; ok {
		return label
	}
	return status
}
