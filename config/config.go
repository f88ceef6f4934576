package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

//go:embed schema.json
var schemaSrc string

const schemaURL = "mem://vimy-tactics/config.schema.json"

// Config holds the static tunables for a match. It is loaded once and never
// mutated afterwards.
type Config struct {
	Targeting  Targeting     `yaml:"targeting"`
	Repulsion  Repulsion     `yaml:"repulsion"`
	Rally      Rally         `yaml:"rally"`
	Formation  Formation     `yaml:"formation"`
	Destroyer  Destroyer     `yaml:"destroyer"`
	Prong      Prong         `yaml:"prong"`
	Tech       Tech          `yaml:"tech"`
	Production Production    `yaml:"production"`
	Requests   []RequestRule `yaml:"requests"`
}

type Targeting struct {
	HighValue   []string `yaml:"high_value"`   // splash, siege, caster and capital-ship classes
	LowPriority []string `yaml:"low_priority"` // summons, larva/eggs, decoys
}

// Field is one repulsion source: full strength Weight at zero distance,
// falling linearly to nothing at Radius.
type Field struct {
	Weight float64 `yaml:"weight"`
	Radius float64 `yaml:"radius"`
}

type Repulsion struct {
	Enemy       Field    `yaml:"enemy"`
	Structure   Field    `yaml:"structure"`
	Terrain     Field    `yaml:"terrain"`
	Splash      Field    `yaml:"splash"`
	SplashTypes []string `yaml:"splash_types"`
	// SteerThreshold is the repulsion magnitude above which ranged units
	// step away instead of attack-moving.
	SteerThreshold float64 `yaml:"steer_threshold"`
	SteerStep      float64 `yaml:"steer_step"`
}

type Rally struct {
	ForwardStep    float64 `yaml:"forward_step"`
	GatherDistance float64 `yaml:"gather_distance"` // re-issue moves beyond this
	TightDistance  float64 `yaml:"tight_distance"`  // counts as gathered within this
	GatheredRatio  float64 `yaml:"gathered_ratio"`
}

type Formation struct {
	EffectiveRange float64 `yaml:"effective_range"`
	MeleeScreen    float64 `yaml:"melee_screen"`
	MeleeRange     float64 `yaml:"melee_range"` // weapon range at or below this is melee
	OutnumberRatio float64 `yaml:"outnumber_ratio"`
	ClusterSpread  float64 `yaml:"cluster_spread"`
}

type Destroyer struct {
	Townhall          []string `yaml:"townhall"`
	Production        []string `yaml:"production"`
	Tech              []string `yaml:"tech"`
	StaticDefense     []string `yaml:"static_defense"`
	MinUnitsPerTarget int      `yaml:"min_units_per_target"`
	MinArmySupply     float64  `yaml:"min_army_supply"`
}

type Prong struct {
	MinArmySupply    float64  `yaml:"min_army_supply"`
	HarassTypes      []string `yaml:"harass_types"`
	MinHarass        int      `yaml:"min_harass"`
	MainShare        float64  `yaml:"main_share"`
	ArmyCacheSeconds float64  `yaml:"army_cache_seconds"`
	// MineralLineOffset is how far behind a base, away from the map center,
	// the run-by prong aims.
	MineralLineOffset float64 `yaml:"mineral_line_offset"`
}

type Tech struct {
	Structures    map[string]model.Cost `yaml:"structures"`
	MultiInstance []string              `yaml:"multi_instance"`
}

// UnitSpec describes how a unit type is trained.
type UnitSpec struct {
	Producer   string `yaml:"producer"`
	model.Cost `yaml:",inline"`
}

type Production struct {
	Units      map[string]UnitSpec `yaml:"units"`
	MaxPerTick int                 `yaml:"max_per_tick"`
	Supply     SupplyPolicy        `yaml:"supply"`
	Authority  []AuthorityMode     `yaml:"authority"`
}

// SupplyPolicy controls the unconditional supply override.
type SupplyPolicy struct {
	Unit           string  `yaml:"unit"`
	Structure      bool    `yaml:"structure"` // requested via the tech coordinator
	Provides       float64 `yaml:"provides"`
	Priority       int     `yaml:"priority"`
	Buffer         float64 `yaml:"buffer"`
	EarlySeconds   float64 `yaml:"early_seconds"`
	EarlyBuffer    float64 `yaml:"early_buffer"`
	GasOverflow    int     `yaml:"gas_overflow"`
	OverflowBuffer float64 `yaml:"overflow_buffer"`
}

// AuthorityMode is selected when its When condition holds; requests from
// Favor requesters get Bias added to their priority while it is active.
type AuthorityMode struct {
	Name  string   `yaml:"name"`
	When  string   `yaml:"when"`
	Favor []string `yaml:"favor"`
	Bias  int      `yaml:"bias"`
}

// RequestRule is a condition-driven request producer. Exactly one of
// Structure or Unit is set.
type RequestRule struct {
	Name      string `yaml:"name"`
	When      string `yaml:"when"`
	Structure string `yaml:"structure"`
	Unit      string `yaml:"unit"`
	Quantity  int    `yaml:"quantity"`
	Priority  int    `yaml:"priority"`
	Category  string `yaml:"category"`
	Exclusive bool   `yaml:"exclusive"`
}

// Load reads a YAML tunables file, validates it and layers it over Default.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	return Parse(raw)
}

// Parse validates a YAML document against the schema and decodes it over
// Default.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	if err := validate(raw); err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if doc == nil {
		return nil
	}
	// Round-trip through JSON so the validator sees json.Number and
	// map[string]any rather than YAML's Go types.
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config to json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("config to json: %w", err)
	}

	schema, err := compileSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader([]byte(schemaSrc))); err != nil {
		return nil, fmt.Errorf("load config schema: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	return s, nil
}
