package template

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
)

// generator produces the template's `fake_*`/`random_choice`/`property_range`
// values. When a scenario sets [determinism] seed, every call is reproducible
// run to run; otherwise it falls back to a time-seeded source, same as any
// other non-deterministic fixture generator.
type generator struct {
	rng  *rand.Rand
	seed int64
}

func newGenerator(opts config.RenderOptions) *generator {
	seed := opts.Seed
	if !opts.HasSeed {
		seed = time.Now().UnixNano()
	}
	return &generator{rng: rand.New(rand.NewSource(seed)), seed: seed}
}

func (g *generator) uuid() string {
	b := make([]byte, 16)
	g.rng.Read(b)
	id, _ := uuid.FromBytes(b)
	return id.String()
}

// uuidSeeded derives a UUID deterministically from an explicit seed value,
// independent of the generator's own RNG cursor, for callers that want a
// stable id tied to a specific logical key (e.g. `fake_uuid_seeded(i)` in a
// `{% for %}` loop).
func (g *generator) uuidSeeded(seed int64) string {
	return uuid.NewMD5(uuid.Nil, []byte(fmt.Sprintf("%d:%d", g.seed, seed))).String()
}

var firstNames = []string{"Ada", "Grace", "Alan", "Barbara", "Dennis", "Margaret", "Ken", "Radia", "Edsger", "Katherine"}
var lastNames = []string{"Lovelace", "Hopper", "Turing", "Liskov", "Ritchie", "Hamilton", "Thompson", "Perlman", "Dijkstra", "Johnson"}

func (g *generator) name() string {
	return firstNames[g.rng.Intn(len(firstNames))] + " " + lastNames[g.rng.Intn(len(lastNames))]
}

func (g *generator) email() string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	local := make([]byte, 8)
	for i := range local {
		local[i] = letters[g.rng.Intn(len(letters))]
	}
	return string(local) + "@example.test"
}

func (g *generator) ipv4() string {
	return fmt.Sprintf("%d.%d.%d.%d", g.rng.Intn(256), g.rng.Intn(256), g.rng.Intn(256), g.rng.Intn(256))
}

func (g *generator) int(min, max int) int {
	if max <= min {
		return min
	}
	return min + g.rng.Intn(max-min+1)
}

func (g *generator) string(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[g.rng.Intn(len(letters))]
	}
	return string(b)
}

func (g *generator) bool() bool {
	return g.rng.Intn(2) == 1
}

func (g *generator) choice(options ...string) string {
	if len(options) == 0 {
		return ""
	}
	return options[g.rng.Intn(len(options))]
}

// propertyRange returns count deterministic integers drawn from [min, max],
// the building block for property-style scenarios that want to exercise a
// handful of values in one run rather than pick a single fixed one.
func (g *generator) propertyRange(min, max, count int) []int {
	out := make([]int, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, g.int(min, max))
	}
	return out
}
