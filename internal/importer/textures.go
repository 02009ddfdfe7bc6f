package importer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/cespare/xxhash/v2"
	"github.com/ftrvxmtrx/tga"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/swbf-import/internal/config"
	"github.com/Faultbox/swbf-import/internal/logger"
	"github.com/Faultbox/swbf-import/pkg/level"
)

// Texture errors.
var (
	ErrTextureData   = errors.New("texture pixel data does not match its size")
	ErrTextureFormat = errors.New("unsupported texture format")
)

// Textures decodes level textures and writes them to the output directory.
// Identical pixel data is written once and shared.
type Textures struct {
	session *Session
	level   *level.Level
	cfg     config.ImportConfig
	log     *zap.Logger
}

// NewTextures creates a texture importer for lvl.
func NewTextures(s *Session, lvl *level.Level, cfg config.ImportConfig) *Textures {
	return &Textures{session: s, level: lvl, cfg: cfg, log: logger.Named("textures")}
}

// Import returns the reference materials use for the named texture: the
// written file path when export is enabled, the texture name otherwise.
// Missing or broken textures are logged and reported as not found.
func (t *Textures) Import(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if ref, ok := t.session.Textures.Get(name); ok {
		return ref, true
	}

	tex, ok := t.level.Texture(name)
	if !ok {
		t.log.Warn("texture not found", zap.String("texture", name))
		return "", false
	}
	ref, err := t.build(tex)
	if err != nil {
		t.log.Warn("texture skipped", zap.String("texture", name), zap.Error(err))
		return "", false
	}
	t.session.Textures.Set(name, ref)
	return ref, true
}

func (t *Textures) build(tex *level.Texture) (string, error) {
	img, err := Decode(tex)
	if err != nil {
		return "", err
	}
	if !t.cfg.ExportTextures || t.cfg.OutputDir == "" {
		return tex.Name, nil
	}

	img = Downscale(img, t.cfg.MaxTextureSize)
	sum := contentHash(img, t.cfg.TextureFormat)
	if path, ok := t.session.hashes[sum]; ok {
		t.log.Debug("texture deduplicated", zap.String("texture", tex.Name), zap.String("path", path))
		return path, nil
	}

	dir := filepath.Join(t.cfg.OutputDir, "textures")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fileName(tex.Name)+"."+t.cfg.TextureFormat)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Encode(f, img, t.cfg.TextureFormat); err != nil {
		f.Close()
		return "", fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	t.session.hashes[sum] = path
	t.log.Debug("texture written",
		zap.String("texture", tex.Name),
		zap.String("path", path),
		zap.Int("width", img.Rect.Dx()),
		zap.Int("height", img.Rect.Dy()))
	return path, nil
}

// contentHash keys exported textures by format, size and pixels. Equal
// pixel bytes at different sizes are different images.
func contentHash(img *image.NRGBA, format string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(strings.ToLower(format))
	_ = binary.Write(d, binary.LittleEndian, [2]int32{int32(img.Rect.Dx()), int32(img.Rect.Dy())})
	_, _ = d.Write(img.Pix)
	return d.Sum64()
}

// Decode converts raw level pixels to an image, swizzling BGRA input.
func Decode(tex *level.Texture) (*image.NRGBA, error) {
	if tex.Width <= 0 || tex.Height <= 0 || len(tex.Pixels) != tex.Width*tex.Height*4 {
		return nil, fmt.Errorf("%w: %s %dx%d with %d bytes", ErrTextureData, tex.Name, tex.Width, tex.Height, len(tex.Pixels))
	}

	img := image.NewNRGBA(image.Rect(0, 0, tex.Width, tex.Height))
	switch strings.ToLower(tex.Format) {
	case "", "rgba":
		copy(img.Pix, tex.Pixels)
	case "bgra":
		for i := 0; i < len(tex.Pixels); i += 4 {
			img.Pix[i+0] = tex.Pixels[i+2]
			img.Pix[i+1] = tex.Pixels[i+1]
			img.Pix[i+2] = tex.Pixels[i+0]
			img.Pix[i+3] = tex.Pixels[i+3]
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrTextureFormat, tex.Format)
	}
	return img, nil
}

// Downscale shrinks img so neither side exceeds limit, keeping the aspect
// ratio. A limit of zero or an image already within bounds is returned as is.
func Downscale(img *image.NRGBA, limit int) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if limit <= 0 || (w <= limit && h <= limit) {
		return img
	}

	nw, nh := limit, limit
	if w > h {
		nh = h * limit / w
	} else if h > w {
		nw = w * limit / h
	}
	nw, nh = max(nw, 1), max(nh, 1)

	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Encode writes img in the given output format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case config.TexturePNG:
		return png.Encode(w, img)
	case config.TextureWebP:
		return nativewebp.Encode(w, img, nil)
	case config.TextureTGA:
		return tga.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrTextureFormat, format)
	}
}

// fileName makes a texture name safe to use as a file name.
func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.ToLower(name))
}
