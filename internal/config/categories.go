package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Ultramusic201/Anzu/internal/core"
)

// Catalog is the category palette exposed to chart consumers. The
// built-in set can be replaced wholesale from a YAML file.
type Catalog struct {
	Categories []CategoryColor `yaml:"categorias" json:"categorias"`
}

type CategoryColor struct {
	Name  string `yaml:"nombre" json:"nombre"`
	Color string `yaml:"color" json:"color"`
}

// fallbackColor covers labels outside the catalog.
const fallbackColor = "#6b7280"

var defaultColors = map[string]string{
	"COMIDA":           "#ef4444",
	"COMIDA CHATARRA":  "#f59e0b",
	"SERVICIOS":        "#10b981",
	"JUEGOS":           "#3b82f6",
	"OCIO":             "#8b5cf6",
	"SALUD":            "#ec4899",
	"PERSONAS":         "#14b8a6",
	"ROPA":             "#84cc16",
	"AHORRO":           "#f97316",
	"CRIPTO":           "#06b6d4",
	"DEUDAS":           "#b91c1c",
	"CREDITOS":         "#2563eb",
	core.Uncategorized: "#9ca3af",
	"INGRESO":          "#16a34a",
}

// DefaultCatalog lists the fixed expense categories plus the two
// synthetic labels (uncategorized, income) in display order.
func DefaultCatalog() Catalog {
	var c Catalog
	for _, name := range core.Categories {
		c.Categories = append(c.Categories, CategoryColor{Name: name, Color: defaultColors[name]})
	}
	c.Categories = append(c.Categories,
		CategoryColor{Name: core.Uncategorized, Color: defaultColors[core.Uncategorized]},
		CategoryColor{Name: "INGRESO", Color: defaultColors["INGRESO"]},
	)
	return c
}

// LoadCatalog reads a catalog override from path, or returns the
// default when path is empty.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read categories file: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse categories file: %w", err)
	}
	if len(c.Categories) == 0 {
		return Catalog{}, fmt.Errorf("categories file %q defines no categories", path)
	}
	for i, cc := range c.Categories {
		if cc.Name == "" {
			return Catalog{}, fmt.Errorf("categories file %q: entry %d has no name", path, i)
		}
		if cc.Color == "" {
			c.Categories[i].Color = fallbackColor
		}
	}
	return c, nil
}

// Color resolves the display color for a chart label.
func (c Catalog) Color(label string) string {
	for _, cc := range c.Categories {
		if cc.Name == label {
			return cc.Color
		}
	}
	return fallbackColor
}
