package progression

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/tutu-network/focusera/internal/domain"
)

//go:embed eras.toml
var embeddedCatalog string

// Policy names used in the catalog file.
const (
	policyThreshold = "threshold"
	policyLevel     = "level"
)

// eraOrder is the fixed progression order.
var eraOrder = []domain.Era{domain.EraAncient, domain.EraRenaissance, domain.EraFuture}

var eraNames = map[domain.Era]string{
	domain.EraAncient:     "Ancient Egypt",
	domain.EraRenaissance: "Renaissance",
	domain.EraFuture:      "Future",
}

// EraName returns the display name of an era.
func EraName(e domain.Era) string {
	if name, ok := eraNames[e]; ok {
		return name
	}
	return string(e)
}

// ParseEra accepts an era id, case-insensitively.
func ParseEra(s string) (domain.Era, error) {
	e := domain.Era(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := eraNames[e]; !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownEra, s)
	}
	return e, nil
}

// ─── File Format ────────────────────────────────────────────────────────────

type catalogFile struct {
	Thresholds domain.ThresholdTable `toml:"thresholds"`
	Eras       []eraFile             `toml:"eras"`
}

type eraFile struct {
	ID     string      `toml:"id"`
	Layout string      `toml:"layout"`
	Policy string      `toml:"policy"`
	Assets []assetFile `toml:"assets"`
}

type assetFile struct {
	ID        string   `toml:"id"`
	Threshold int64    `toml:"threshold"`
	X         int      `toml:"x"`
	Y         int      `toml:"y"`
	Images    []string `toml:"images"`
}

// ─── Catalog ────────────────────────────────────────────────────────────────

// Catalog is the immutable era configuration: boundaries, scenes, badges and
// the asset image enumeration. Safe for concurrent use once loaded.
type Catalog struct {
	Table  domain.ThresholdTable
	scenes map[domain.Era]domain.EraScene
	images map[domain.Era]map[string][]string // era -> asset -> image per variant
	badges []domain.Badge
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return ParseCatalog([]byte(embeddedCatalog))
})

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() *Catalog {
	c, err := defaultCatalog()
	if err != nil {
		panic(fmt.Sprintf("embedded era catalog: %v", err))
	}
	return c
}

// LoadCatalog reads an operator-supplied catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a TOML catalog. Unknown keys are
// rejected so typos do not silently fall back to zero thresholds.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %q", domain.ErrInvalidCatalog, undecoded[0].String())
	}

	c := &Catalog{
		Table:  f.Thresholds,
		scenes: make(map[domain.Era]domain.EraScene, len(f.Eras)),
		images: make(map[domain.Era]map[string][]string, len(f.Eras)),
	}
	if err := ValidateTable(c.Table); err != nil {
		return nil, err
	}

	for _, ef := range f.Eras {
		scene, images, err := buildScene(ef, c.Table.LevelsPerEra)
		if err != nil {
			return nil, err
		}
		if _, dup := c.scenes[scene.Era]; dup {
			return nil, fmt.Errorf("%w: era %q declared twice", domain.ErrInvalidCatalog, scene.Era)
		}
		c.scenes[scene.Era] = scene
		c.images[scene.Era] = images
	}
	for _, e := range eraOrder {
		if _, ok := c.scenes[e]; !ok {
			return nil, fmt.Errorf("%w: missing era %q", domain.ErrInvalidCatalog, e)
		}
	}

	c.badges = Badges(c.Table)
	return c, nil
}

// ValidateTable checks the boundary invariants the classifier relies on.
func ValidateTable(t domain.ThresholdTable) error {
	switch {
	case t.SecondsPerLevel <= 0:
		return fmt.Errorf("%w: seconds_per_level must be positive", domain.ErrInvalidCatalog)
	case t.LevelsPerEra < 1:
		return fmt.Errorf("%w: levels_per_era must be at least 1", domain.ErrInvalidCatalog)
	case t.AncientStart < 0:
		return fmt.Errorf("%w: ancient_start must not be negative", domain.ErrInvalidCatalog)
	case !(t.AncientStart < t.RenaissanceStart && t.RenaissanceStart < t.FutureStart && t.FutureStart < t.FutureEnd):
		return fmt.Errorf("%w: era boundaries must be strictly increasing", domain.ErrInvalidCatalog)
	}

	// The last level of each era must keep a positive width.
	minSpan := int64(t.LevelsPerEra-1) * t.SecondsPerLevel
	for _, b := range Bounds(t) {
		if b.End-b.Start <= minSpan {
			return fmt.Errorf("%w: era %q spans %ds, needs more than %ds for %d levels",
				domain.ErrInvalidCatalog, b.Era, b.End-b.Start, minSpan, t.LevelsPerEra)
		}
	}
	return nil
}

func buildScene(ef eraFile, levels int) (domain.EraScene, map[string][]string, error) {
	era, err := ParseEra(ef.ID)
	if err != nil {
		return domain.EraScene{}, nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}

	scene := domain.EraScene{Era: era, Name: EraName(era), Layout: domain.Layout(ef.Layout)}
	if scene.Layout != domain.LayoutGrid && scene.Layout != domain.LayoutAbsolute {
		return scene, nil, fmt.Errorf("%w: era %q has unknown layout %q", domain.ErrInvalidCatalog, era, ef.Layout)
	}

	images := make(map[string][]string, len(ef.Assets))
	for _, a := range ef.Assets {
		if a.ID == "" {
			return scene, nil, fmt.Errorf("%w: era %q has an asset without id", domain.ErrInvalidCatalog, era)
		}
		if _, dup := images[a.ID]; dup {
			return scene, nil, fmt.Errorf("%w: era %q repeats asset %q", domain.ErrInvalidCatalog, era, a.ID)
		}
		images[a.ID] = a.Images
	}

	switch ef.Policy {
	case policyThreshold:
		p := domain.PerAssetThreshold{Assets: make([]domain.ThresholdAsset, 0, len(ef.Assets))}
		for _, a := range ef.Assets {
			if a.Threshold < 0 || len(a.Images) != 1 {
				return scene, nil, fmt.Errorf("%w: asset %s/%s needs a non-negative threshold and one image",
					domain.ErrInvalidCatalog, era, a.ID)
			}
			p.Assets = append(p.Assets, domain.ThresholdAsset{
				ID: a.ID, Threshold: a.Threshold, Position: domain.Position{X: a.X, Y: a.Y},
			})
		}
		scene.Policy = p

	case policyLevel:
		p := domain.LevelKeyed{Variants: levels, Assets: make([]domain.LeveledAsset, 0, len(ef.Assets))}
		for _, a := range ef.Assets {
			if len(a.Images) != levels {
				return scene, nil, fmt.Errorf("%w: asset %s/%s has %d variants, want %d",
					domain.ErrInvalidCatalog, era, a.ID, len(a.Images), levels)
			}
			p.Assets = append(p.Assets, domain.LeveledAsset{ID: a.ID, Position: domain.Position{X: a.X, Y: a.Y}})
		}
		scene.Policy = p

	default:
		return scene, nil, fmt.Errorf("%w: era %q has unknown policy %q", domain.ErrInvalidCatalog, era, ef.Policy)
	}

	return scene, images, nil
}

// Scene returns the static configuration of one era.
func (c *Catalog) Scene(e domain.Era) (domain.EraScene, error) {
	s, ok := c.scenes[e]
	if !ok {
		return domain.EraScene{}, fmt.Errorf("%w: %q", domain.ErrUnknownEra, e)
	}
	return s, nil
}

// Scenes returns every era scene in progression order.
func (c *Catalog) Scenes() []domain.EraScene {
	out := make([]domain.EraScene, 0, len(eraOrder))
	for _, e := range eraOrder {
		out = append(out, c.scenes[e])
	}
	return out
}

// Image resolves an asset variant to its image handle. Variant 0 is the
// single image of a threshold asset; level-keyed variants are 1-based.
func (c *Catalog) Image(e domain.Era, assetID string, variant int) (string, bool) {
	imgs := c.images[e][assetID]
	idx := variant - 1
	if variant == 0 {
		idx = 0
	}
	if idx < 0 || idx >= len(imgs) {
		return "", false
	}
	return imgs[idx], true
}

// Badges returns the badge catalog bound to this threshold table.
func (c *Catalog) Badges() []domain.Badge { return c.badges }

// Classify is Classify over this catalog's table.
func (c *Catalog) Classify(total int64) domain.EraState { return Classify(total, c.Table) }

// Resolve renders the given era scene for a cumulative total.
func (c *Catalog) Resolve(e domain.Era, total int64) ([]domain.RenderedAsset, error) {
	scene, err := c.Scene(e)
	if err != nil {
		return nil, err
	}
	return Resolve(scene, total, c.Table), nil
}
