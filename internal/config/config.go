// Package config handles importer configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/swbf-import/internal/scene"
)

// Texture output formats.
const (
	TexturePNG  = "png"
	TextureWebP = "webp"
	TextureTGA  = "tga"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all importer settings.
type Config struct {
	Import  ImportConfig  `yaml:"import" toml:"import"`
	Physics PhysicsConfig `yaml:"physics" toml:"physics"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ImportConfig controls what gets written and how colliders are post-processed.
type ImportConfig struct {
	OutputDir      string `yaml:"output_dir" toml:"output_dir"`
	ExportTextures bool   `yaml:"export_textures" toml:"export_textures"`
	TextureFormat  string `yaml:"texture_format" toml:"texture_format"`
	MaxTextureSize int    `yaml:"max_texture_size" toml:"max_texture_size"` // 0 = keep source size

	// DisableCollisionMesh turns off the first mesh collider of every
	// instance that also has primitive colliders.
	DisableCollisionMesh bool `yaml:"disable_collision_mesh" toml:"disable_collision_mesh"`
	ImportTerrain        bool `yaml:"import_terrain" toml:"import_terrain"`
}

// PhysicsConfig describes the host physics layers and name-based mask overrides.
type PhysicsConfig struct {
	Layers        []string       `yaml:"layers" toml:"layers"`
	NameOverrides []NameOverride `yaml:"name_overrides" toml:"name_overrides"`
}

// NameOverride forces a collision mask on nodes whose name contains Substring.
type NameOverride struct {
	Substring string   `yaml:"substring" toml:"substring"`
	Mask      []string `yaml:"mask" toml:"mask"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// DefaultLayers are the physics layers the collision mapper resolves to.
var DefaultLayers = []string{
	"Default",
	"VehicleAll", "VehicleOrdnance", "VehicleBuilding", "VehicleSoldier", "VehicleTerrain", "VehicleVehicle",
	"BuildingAll", "BuildingOrdnance", "BuildingSoldier", "BuildingVehicle",
	"SoldierAll", "TerrainAll", "OrdnanceAll",
	"All", "Flag", "Vehicle", "Soldier", "Building", "Ordnance", "Terrain",
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			OutputDir:      "imported",
			ExportTextures: true,
			TextureFormat:  TexturePNG,
			MaxTextureSize: 0,
			ImportTerrain:  true,
		},
		Physics: PhysicsConfig{
			Layers: append([]string(nil), DefaultLayers...),
			NameOverrides: []NameOverride{
				{Substring: "vehicle", Mask: []string{"Vehicle"}},
				{Substring: "soldier", Mask: []string{"Soldier"}},
				{Substring: "ordnance", Mask: []string{"Ordnance"}},
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks value ranges that would otherwise fail late in an import.
func (c *Config) Validate() error {
	switch c.Import.TextureFormat {
	case TexturePNG, TextureWebP, TextureTGA:
	default:
		return fmt.Errorf("%w: texture_format %q", ErrInvalidConfig, c.Import.TextureFormat)
	}
	if c.Import.MaxTextureSize < 0 {
		return fmt.Errorf("%w: max_texture_size %d", ErrInvalidConfig, c.Import.MaxTextureSize)
	}
	if _, err := scene.NewLayers(c.Physics.Layers...); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for _, o := range c.Physics.NameOverrides {
		if o.Substring == "" {
			return fmt.Errorf("%w: name override with empty substring", ErrInvalidConfig)
		}
	}
	return nil
}
