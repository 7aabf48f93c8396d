package simulate

import (
	"math"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/okian/wastewise/internal/domain/model"
)

var (
	wasteTypes = []string{"Paper", "Plastic", "Glass", "Food", "Mixed", "Electronics", "Metal", ""}
	locations  = []string{"Office Kitchen", "Meeting Room", "Main office", "Entrance", "Warehouse", "Canteen"}
)

const (
	minWeightKg = 0.01
	maxWeightKg = 5.0
)

// Generator produces realistic submissions for a fixed set of businesses.
type Generator struct {
	faker      *gofakeit.Faker
	businesses []int64
	users      map[int64][]user
}

type user struct {
	id   int64
	name string
}

// NewGenerator seeds a generator. seed 0 picks a random seed.
func NewGenerator(seed uint64, businesses []int64) *Generator {
	g := &Generator{
		faker:      gofakeit.New(seed),
		businesses: businesses,
		users:      make(map[int64][]user, len(businesses)),
	}
	next := int64(1000)
	for _, b := range businesses {
		n := g.faker.Number(1, 6)
		for i := 0; i < n; i++ {
			g.users[b] = append(g.users[b], user{id: next, name: g.faker.Username()})
			next++
		}
	}
	return g
}

// Next returns one submission. Weights are in kilograms with two decimals
// and about one in five omits the location.
func (g *Generator) Next() Submission {
	b := g.businesses[g.faker.Number(0, len(g.businesses)-1)]
	staff := g.users[b]
	u := staff[g.faker.Number(0, len(staff)-1)]

	sub := model.Submission{
		BusinessID: b,
		UserID:     u.id,
		Username:   u.name,
		WasteType:  g.faker.RandomString(wasteTypes),
		Weight:     math.Round(g.faker.Float64Range(minWeightKg, maxWeightKg)*100) / 100,
	}
	if g.faker.Number(1, 5) != 1 {
		sub.Location = model.StringPtr(g.faker.RandomString(locations))
	}
	return Submission{Key: uuid.NewString(), Submission: sub}
}

// Batch returns n submissions.
func (g *Generator) Batch(n int) []Submission {
	out := make([]Submission, n)
	for i := range out {
		out[i] = g.Next()
	}
	return out
}
