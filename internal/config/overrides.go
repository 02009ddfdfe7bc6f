package config

// Overrides are command-line settings applied on top of the loaded file.
// Zero values leave the config untouched.
type Overrides struct {
	Debug          bool
	OutputDir      string
	TextureFormat  string
	MaxTextureSize int
	NoTextures     bool
	NoTerrain      bool
	LogFile        string
}

// Apply applies the overrides to cfg.
func (o Overrides) Apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.OutputDir != "" {
		cfg.Import.OutputDir = o.OutputDir
	}
	if o.TextureFormat != "" {
		cfg.Import.TextureFormat = o.TextureFormat
	}
	if o.MaxTextureSize > 0 {
		cfg.Import.MaxTextureSize = o.MaxTextureSize
	}
	if o.NoTextures {
		cfg.Import.ExportTextures = false
	}
	if o.NoTerrain {
		cfg.Import.ImportTerrain = false
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
}
