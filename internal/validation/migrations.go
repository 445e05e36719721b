package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"slices"
	"sort"
	"strconv"

	"github.com/rendis/diagramir/internal/expressions"
	"github.com/rendis/diagramir/pkg/schema"
)

// Migration rewrites a legacy payload shape into the current one. Migrations
// run in ascending Version order; When decides whether one applies.
type Migration struct {
	Version int
	Name    string
	Kinds   []schema.Kind
	When    *expressions.JQProgram
	Apply   *expressions.JQProgram
}

// DefaultMigrations returns the built-in migration chain.
func DefaultMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "mind_map_nodes_to_children",
			Kinds:   []schema.Kind{schema.KindMindMap},
			When:    expressions.MustCompileJQ(`has("nodes")`),
			Apply:   expressions.MustCompileJQ(`(if has("children") then . else .children = .nodes end) | del(.nodes)`),
		},
	}
}

// Migrator applies a fixed, ordered migration chain.
type Migrator struct {
	chain []Migration
}

// NewMigrator sorts migrations by version. A nil slice selects DefaultMigrations.
func NewMigrator(migrations []Migration) *Migrator {
	if migrations == nil {
		migrations = DefaultMigrations()
	}
	chain := slices.Clone(migrations)
	sort.SliceStable(chain, func(i, j int) bool { return chain[i].Version < chain[j].Version })
	return &Migrator{chain: chain}
}

// Latest returns the highest version in the chain.
func (m *Migrator) Latest() int {
	if len(m.chain) == 0 {
		return 0
	}
	return m.chain[len(m.chain)-1].Version
}

// Migrate runs every migration for kind whose When matches data and returns
// the rewritten payload together with the resulting version, the higher of
// from and Latest. A payload declaring a current version but still carrying a
// legacy shape is migrated too. jq only ever sees copies of data, and numbers
// in the result keep the literal text they had in data.
func (m *Migrator) Migrate(ctx context.Context, kind schema.Kind, data map[string]any, from int, report *schema.Report) (map[string]any, int, error) {
	version := max(from, m.Latest())
	for _, mig := range m.chain {
		if !slices.Contains(mig.Kinds, kind) {
			continue
		}

		hit, err := mig.When.Test(ctx, copyJSON(data))
		if err != nil {
			return nil, from, migrationError(kind, mig, err)
		}
		if !hit {
			continue
		}

		out, err := mig.Apply.Run(ctx, copyJSON(data))
		if err != nil {
			return nil, from, migrationError(kind, mig, err)
		}
		rewritten, ok := restoreNumbers(out, numberLiterals(data, nil)).(map[string]any)
		if !ok {
			return nil, from, migrationError(kind, mig, fmt.Errorf("migration produced %T, want object", out))
		}
		data = rewritten
		report.Add("/", schema.NoticeMigrationApplied,
			fmt.Sprintf("applied migration v%d %s", mig.Version, mig.Name))
	}
	return data, version, nil
}

// copyJSON deep-copies the maps and slices of a decoded JSON value.
func copyJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, x := range val {
			out[k] = copyJSON(x)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, x := range val {
			out[i] = copyJSON(x)
		}
		return out
	default:
		return v
	}
}

// numberLiterals indexes every json.Number in v by its float64 value. A value
// spelled two different ways maps to "".
func numberLiterals(v any, lits map[float64]string) map[float64]string {
	if lits == nil {
		lits = make(map[float64]string)
	}
	switch val := v.(type) {
	case map[string]any:
		for _, x := range val {
			numberLiterals(x, lits)
		}
	case []any:
		for _, x := range val {
			numberLiterals(x, lits)
		}
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			break
		}
		if prev, seen := lits[f]; seen && prev != val.String() {
			lits[f] = ""
		} else {
			lits[f] = val.String()
		}
	}
	return lits
}

// restoreNumbers turns the numbers jq produced back into json.Number, reusing
// the literal text from lits when the value came from the input.
func restoreNumbers(v any, lits map[float64]string) any {
	switch val := v.(type) {
	case map[string]any:
		for k, x := range val {
			val[k] = restoreNumbers(x, lits)
		}
		return val
	case []any:
		for i, x := range val {
			val[i] = restoreNumbers(x, lits)
		}
		return val
	case int:
		return numberFor(float64(val), strconv.Itoa(val), lits)
	case float64:
		return numberFor(val, strconv.FormatFloat(val, 'g', -1, 64), lits)
	case *big.Int:
		f, _ := new(big.Float).SetInt(val).Float64()
		return numberFor(f, val.String(), lits)
	default:
		return v
	}
}

func numberFor(f float64, text string, lits map[float64]string) json.Number {
	if lit := lits[f]; lit != "" {
		return json.Number(lit)
	}
	return json.Number(text)
}

func migrationError(kind schema.Kind, mig Migration, err error) error {
	return schema.NewErrorf(schema.ErrCodeShape, "migration v%d %s failed", mig.Version, mig.Name).
		WithKind(string(kind)).
		WithCause(err)
}

// payloadVersion reads meta.ir_version. Absent means 0; anything that is not a
// non-negative integer is dropped with a notice.
func payloadVersion(meta map[string]any, report *schema.Report) int {
	raw, ok := meta[schema.MetaIRVersion]
	if !ok || raw == nil {
		return 0
	}

	var f float64
	switch v := raw.(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			f = -1
		} else {
			f = parsed
		}
	case float64:
		f = v
	case int:
		f = float64(v)
	default:
		f = -1
	}

	if f < 0 || f != math.Trunc(f) {
		delete(meta, schema.MetaIRVersion)
		report.Add("/meta/"+schema.MetaIRVersion, schema.NoticeMetaDropped,
			fmt.Sprintf("ignoring invalid ir_version %v", raw))
		return 0
	}
	return int(f)
}
