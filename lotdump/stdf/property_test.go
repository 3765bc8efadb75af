// ABOUTME: Property-based tests for the STDF parser
// ABOUTME: Generates random well-formed logs and checks invariants of the decoded lot

package stdf

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prateek/stdflens/lot"
)

// generatedLog is a random log plus the facts it was built from.
type generatedLog struct {
	data    []byte
	lotID   string
	wafers  []string
	parts   int
	passed  int
	results int
	tests   map[uint32]string // first name written per test number
	fails   int
}

func generateLog(seed uint64) generatedLog {
	faker := gofakeit.New(seed)

	var order byteOrder = binary.LittleEndian
	if faker.Bool() {
		order = binary.BigEndian
	}

	g := generatedLog{
		lotID: faker.LetterN(uint(faker.IntRange(1, 12))),
		tests: make(map[uint32]string),
	}
	s := newStream(order).far().mir(g.lotID)

	numTests := faker.IntRange(1, 15)
	numWafers := faker.IntRange(0, 4)
	for w := 0; w < numWafers; w++ {
		waferID := fmt.Sprintf("W%d", w+1)
		g.wafers = append(g.wafers, waferID)
		s.wir(1, waferID)

		good := 0
		parts := faker.IntRange(0, 20)
		for p := 0; p < parts; p++ {
			s.pir(1, 1)
			for n := 0; n < numTests; n++ {
				num := uint32(n * 10)
				var flag uint8
				if faker.Float32() < 0.1 {
					flag = testFailed
					g.fails++
				}

				name := ""
				if faker.Bool() {
					name = faker.Noun()
					s.ptr(num, 1, flag, faker.Float32Range(-5, 5), name)
				} else {
					s.ftr(num, 1, flag)
				}
				if _, ok := g.tests[num]; !ok {
					g.tests[num] = name
				}
				g.results++
			}

			var partFlag uint8
			if faker.Float32() < 0.2 {
				partFlag = partFailed
			} else {
				good++
				g.passed++
			}
			s.prr(1, 1, partFlag, 1, uint16(faker.IntRange(1, 8)), int16(p), int16(w))
			g.parts++

			// unsupported records between parts must not disturb anything
			if faker.Bool() {
				s.add(50, 10, s.fields().u2(1).u1(0))
			}
		}
		s.wrr(1, uint32(parts), uint32(good))
	}
	g.data = s.mrr(1).bytes()
	return g
}

// Property: every part is created exactly once with a unique, deterministic id
func TestPropertyPartIDs(t *testing.T) {
	for seed := uint64(0); seed < 100; seed++ {
		g := generateLog(seed)
		l := parse(t, g.data)

		require.Len(t, l.Parts, g.parts, "seed %d", seed)
		seen := make(map[string]bool)
		for i, p := range l.Parts {
			want := fmt.Sprintf("%s_%s_%d", g.lotID, p.WaferID, i+1)
			assert.Equal(t, want, p.PartID, "seed %d", seed)
			assert.False(t, seen[p.PartID], "seed %d: duplicate part id %s", seed, p.PartID)
			seen[p.PartID] = true
		}
		assert.Equal(t, g.passed, l.PassedParts(), "seed %d", seed)
	}
}

// Property: one definition per distinct test number, one row per occurrence
func TestPropertyTestDefinitions(t *testing.T) {
	for seed := uint64(0); seed < 100; seed++ {
		g := generateLog(seed)
		l := parse(t, g.data)

		assert.Len(t, l.TestResults, g.results, "seed %d", seed)
		assert.Len(t, l.Tests, len(g.tests), "seed %d", seed)

		fails := 0
		for _, r := range l.TestResults {
			def, ok := l.Test(r.TestNum)
			require.True(t, ok, "seed %d: result for undefined test %d", seed, r.TestNum)
			assert.Equal(t, g.tests[r.TestNum], def.TestName, "seed %d", seed)
			assert.Equal(t, def.TestName, r.TestName, "seed %d", seed)
			if !r.Passed {
				fails++
			}
			if r.RecType == lot.KindFTR {
				assert.False(t, r.HasResult(), "seed %d", seed)
			}
		}
		assert.Equal(t, g.fails, fails, "seed %d", seed)
	}
}

// Property: wafers appear in stream order and carry their results counters
func TestPropertyWafers(t *testing.T) {
	for seed := uint64(0); seed < 100; seed++ {
		g := generateLog(seed)
		l := parse(t, g.data)

		require.Len(t, l.Wafers, len(g.wafers), "seed %d", seed)
		total := 0
		for i, w := range l.Wafers {
			assert.Equal(t, g.wafers[i], w.WaferID, "seed %d", seed)
			assert.Equal(t, g.lotID, w.LotID, "seed %d", seed)
			total += int(w.PartCount)
		}
		assert.Equal(t, g.parts, total, "seed %d", seed)
	}
}

// Property: a log cut at any byte still decodes without error
func TestPropertyTruncationIsSafe(t *testing.T) {
	g := generateLog(42)
	full := parse(t, g.data)

	for cut := 0; cut <= len(g.data); cut += 7 {
		l := parse(t, g.data[:cut])
		assert.LessOrEqual(t, len(l.Parts), len(full.Parts), "cut %d", cut)
		assert.LessOrEqual(t, len(l.TestResults), len(full.TestResults), "cut %d", cut)
	}
}
