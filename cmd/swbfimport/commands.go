package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/swbf-import/internal/collision"
	"github.com/Faultbox/swbf-import/internal/config"
	"github.com/Faultbox/swbf-import/internal/importer"
	"github.com/Faultbox/swbf-import/internal/logger"
	"github.com/Faultbox/swbf-import/internal/scene"
	"github.com/Faultbox/swbf-import/pkg/level"
)

func newImporter(cfg *config.Config) (*importer.Session, *importer.LevelImporter, error) {
	layers, err := scene.NewLayers(cfg.Physics.Layers...)
	if err != nil {
		return nil, nil, fmt.Errorf("physics layers: %w", err)
	}
	s := importer.NewSession(layers)
	li, err := importer.NewLevelImporter(s, cfg)
	if err != nil {
		return nil, nil, err
	}
	return s, li, nil
}

func cmdImport(cfg *config.Config, dumps []string) error {
	s, li, err := newImporter(cfg)
	if err != nil {
		return err
	}
	for _, path := range dumps {
		res, err := importer.Reimport(s, li, path)
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		printResult(res)
	}
	return nil
}

func printResult(res *importer.Result) {
	fmt.Printf("Level:     %s\n", res.Level)
	fmt.Printf("Worlds:    %d (%d terrain)\n", len(res.Worlds), len(res.Terrains))
	fmt.Printf("Instances: %d placed, %d skipped\n", len(res.Instances), res.Skipped)
	fmt.Printf("Colliders: %d\n", res.CollidersTotal)
	for _, bit := range collision.Every.Bits() {
		if n := res.Colliders[bit]; n > 0 {
			fmt.Printf("  %-10s %d\n", bit, n)
		}
	}
	fmt.Printf("Cache:     models %d/%d, materials %d/%d, textures %d/%d (hit/miss)\n",
		res.Stats.ModelHits, res.Stats.ModelMisses,
		res.Stats.MaterialHits, res.Stats.MaterialMisses,
		res.Stats.TextureHits, res.Stats.TextureMisses)
	fmt.Printf("Took:      %s\n", res.Duration)
	fmt.Println()
}

func cmdInspect(path string) error {
	lvl, err := level.Load(path)
	if err != nil {
		return err
	}

	fmt.Printf("Level:    %s\n", lvl.Name)
	fmt.Printf("Models:   %d\n", len(lvl.Models))
	fmt.Printf("Textures: %d\n", len(lvl.Textures))
	fmt.Printf("Classes:  %d\n", len(lvl.Classes))
	fmt.Println()

	for _, w := range lvl.Worlds {
		terrain := "no terrain"
		if w.Terrain != nil {
			terrain = fmt.Sprintf("terrain %dx%d", w.Terrain.GridSize, w.Terrain.GridSize)
		}
		fmt.Printf("World %s: %d instances, %s\n", w.Name, len(w.Instances), terrain)
	}
	fmt.Println()

	fmt.Println("Models:")
	for _, m := range lvl.Models {
		mesh := ""
		if m.CollisionMesh != nil {
			mesh = fmt.Sprintf(", collision mesh %d tris", len(m.CollisionMesh.Indices)/3)
		}
		fmt.Printf("  %-28s %3d bones %3d segments %3d primitives%s\n",
			m.Name, len(m.Bones), len(m.Segments), len(m.Primitives), mesh)
	}
	fmt.Println()

	fmt.Println("Classes:")
	classes := append([]level.EntityClass(nil), lvl.Classes...)
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	for i := range classes {
		c := &classes[i]
		label := lvl.ClassLabel(c)
		role := "-"
		if r, ok := collision.RoleFromClassLabel(label); ok {
			role = r.String()
		}
		geometry, _ := lvl.Property(c, importer.PropGeometryName)
		fmt.Printf("  %-28s label=%-12s role=%-9s geometry=%s\n", c.Name, orDash(label), role, orDash(geometry))
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var allRoles = []collision.Role{
	collision.RoleVehicle, collision.RoleBuilding, collision.RoleSoldier, collision.RoleOrdnance, collision.RoleTerrain,
}

func cmdLayers(cfg *config.Config, names []string) error {
	layers, err := scene.NewLayers(cfg.Physics.Layers...)
	if err != nil {
		return err
	}
	mapper := collision.NewMapper(layers)

	masks := []collision.Mask{collision.All}
	if len(names) > 0 {
		m, err := collision.ParseMask(names...)
		if err != nil {
			return err
		}
		masks = []collision.Mask{m}
	} else {
		masks = append(masks, collision.Every.Bits()[1:]...)
	}

	fmt.Println("Registered layers:")
	for i, name := range layers.Names() {
		fmt.Printf("  %2d %s\n", i, name)
	}
	fmt.Println()

	fmt.Printf("%-24s", "mask")
	for _, r := range allRoles {
		fmt.Printf(" %-18s", r)
	}
	fmt.Printf(" %s\n", "priority")
	for _, m := range masks {
		fmt.Printf("%-24s", m)
		for _, r := range allRoles {
			name := collision.RoleLayerName(r, m)
			if _, ok := mapper.MapRoleAndMaskToLayer(r, m); !ok {
				name += "?"
			}
			fmt.Printf(" %-18s", name)
		}
		prio, _ := collision.PriorityLayerName(m)
		fmt.Printf(" %s\n", prio)
	}
	return nil
}

func cmdWatch(cfg *config.Config, dir string) error {
	s, li, err := newImporter(cfg)
	if err != nil {
		return err
	}
	w, err := importer.NewWatcher(importer.DefaultDebounce, dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching for level dumps", zap.String("dir", dir))
	err = importer.Watch(ctx, w, func(path string) error {
		res, err := importer.Reimport(s, li, path)
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func cmdConvert(in, out string) error {
	lvl, err := level.Load(in)
	if err != nil {
		return err
	}
	if err := level.Save(lvl, out); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Printf("%s -> %s\n", in, out)
	return nil
}

func cmdDefaultConfig(out string) error {
	cfg := config.Default()
	if out != "" {
		return cfg.SaveTo(out)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
