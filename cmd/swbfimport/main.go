// swbfimport imports decoded SWBF2 level dumps into scene hierarchies and
// reports how their colliders map onto physics layers.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/Faultbox/swbf-import/internal/config"
	"github.com/Faultbox/swbf-import/internal/logger"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

var CLI struct {
	Version kong.VersionFlag `help:"Print version information and exit." short:"v"`
	Debug   bool             `help:"Enable debug logging."`
	Config  string           `help:"Config file (YAML or TOML). Defaults to the standard locations." short:"c" type:"path"`
	LogFile string           `help:"Also write JSON logs to this file." type:"path"`

	Import struct {
		Dumps          []string `arg:"" name:"dumps" help:"Level dump files (.yaml, .yml, .cbor)." type:"existingfile"`
		Output         string   `help:"Output directory." short:"o" type:"path"`
		TextureFormat  string   `help:"Texture format: png, webp or tga."`
		MaxTextureSize int      `help:"Downscale textures larger than this (0 keeps the source size)."`
		NoTextures     bool     `help:"Do not write textures."`
		NoTerrain      bool     `help:"Skip terrain."`
	} `cmd:"" help:"Import level dumps."`

	Inspect struct {
		Dump string `arg:"" help:"Level dump file." type:"existingfile"`
	} `cmd:"" help:"Show the contents of a level dump."`

	Layers struct {
		Mask []string `arg:"" optional:"" help:"Collision categories to resolve, e.g. Soldier Terrain."`
	} `cmd:"" help:"Show how collision masks resolve to physics layers."`

	Watch struct {
		Dir    string `arg:"" help:"Directory of level dumps." type:"existingdir"`
		Output string `help:"Output directory." short:"o" type:"path"`
	} `cmd:"" help:"Re-import level dumps whenever they change."`

	Convert struct {
		In  string `arg:"" help:"Source dump." type:"existingfile"`
		Out string `arg:"" help:"Destination dump; the extension picks the encoding." type:"path"`
	} `cmd:"" help:"Convert a level dump between YAML and CBOR."`

	DefaultConfig struct {
		Out string `arg:"" optional:"" help:"Write to this file instead of standard output." type:"path"`
	} `cmd:"" name:"default-config" help:"Write the default configuration."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	logger.Sync()
	os.Exit(1)
}

// newParser builds the command-line parser. Extra options are appended to
// the defaults.
func newParser(options ...kong.Option) (*kong.Kong, error) {
	return kong.New(&CLI, append([]kong.Option{
		kong.Name("swbfimport"),
		kong.Description("SWBF2 level importer"),
		kong.Vars{"version": "swbfimport " + version},
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	}, options...)...)
}

func main() {
	parser, err := newParser()
	if err != nil {
		writeError(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cfg, err := loadConfig()
	if err != nil {
		writeError(err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		writeError(fmt.Errorf("initializing logger: %w", err))
	}
	defer logger.Sync()
	logger.Debug("config loaded", zap.String("output", cfg.Import.OutputDir), zap.Int("layers", len(cfg.Physics.Layers)))

	switch ctx.Command() {
	case "import <dumps>":
		err = cmdImport(cfg, CLI.Import.Dumps)
	case "inspect <dump>":
		err = cmdInspect(CLI.Inspect.Dump)
	case "layers", "layers <mask>":
		err = cmdLayers(cfg, CLI.Layers.Mask)
	case "watch <dir>":
		err = cmdWatch(cfg, CLI.Watch.Dir)
	case "convert <in> <out>":
		err = cmdConvert(CLI.Convert.In, CLI.Convert.Out)
	case "default-config", "default-config <out>":
		err = cmdDefaultConfig(CLI.DefaultConfig.Out)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}
	if err != nil {
		writeError(err)
	}
}

// loadConfig loads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}

	output := CLI.Import.Output
	if CLI.Watch.Output != "" {
		output = CLI.Watch.Output
	}
	config.Overrides{
		Debug:          CLI.Debug,
		OutputDir:      output,
		TextureFormat:  CLI.Import.TextureFormat,
		MaxTextureSize: CLI.Import.MaxTextureSize,
		NoTextures:     CLI.Import.NoTextures,
		NoTerrain:      CLI.Import.NoTerrain,
		LogFile:        CLI.LogFile,
	}.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
