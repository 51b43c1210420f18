package tokens

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/apperr"
)

// fixtureVocab assigns each known word a fixed token cost per scheme. Unknown
// words cost one token per byte.
var fixtureVocab = map[Scheme]map[string]int{
	Cl100kBase: {"hello": 1, "world": 1, "fine": 1, "tune": 2},
	P50kBase:   {"hello": 2, "world": 3, "fine": 1, "tune": 1},
	R50kBase:   {"hello": 4, "world": 5, "fine": 2, "tune": 3},
}

var fixtureEncoder = EncoderFunc(func(s Scheme, text string) int {
	n := 0
	for _, w := range strings.Fields(text) {
		if cost, ok := fixtureVocab[s][w]; ok {
			n += cost
		} else {
			n += len(w)
		}
	}
	return n
})

func writeJSONL(t testing.TB, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))
	return path
}

func TestCountFile_TwoLineScenario(t *testing.T) {
	path := writeJSONL(t,
		`{"messages":[{"role":"user","content":"hello"}]}`,
		`{"messages":[{"role":"user","content":"hello"},{"role":"assistant","content":"world"}]}`,
	)

	tally, err := CountFile(path, fixtureEncoder)
	require.NoError(t, err)

	for _, s := range Schemes() {
		want := 2*fixtureVocab[s]["hello"] + fixtureVocab[s]["world"]
		assert.Equal(t, want, tally[s], "scheme %s", s)
	}
}

func TestCountFile_EmptyFile(t *testing.T) {
	path := writeJSONL(t)

	tally, err := CountFile(path, fixtureEncoder)
	require.NoError(t, err)
	assert.Equal(t, NewTally(), tally)
	assert.Len(t, tally, 3)
}

func TestCountFile_ZeroMessages(t *testing.T) {
	path := writeJSONL(t, `{"messages":[]}`)

	tally, err := CountFile(path, fixtureEncoder)
	require.NoError(t, err)
	for _, s := range Schemes() {
		assert.Zero(t, tally[s])
	}
}

func TestCountFile_TrailingBlankLines(t *testing.T) {
	path := writeJSONL(t,
		`{"messages":[{"content":"fine"}]}`,
		`{"messages":[{"content":"tune"}]}`,
		``,
		`   `,
		``,
	)

	tally, err := CountFile(path, fixtureEncoder)
	require.NoError(t, err)
	assert.Equal(t, 3, tally[Cl100kBase])
	assert.Equal(t, 2, tally[P50kBase])
	assert.Equal(t, 5, tally[R50kBase])
}

func TestCountFile_BlankLineBetweenRecords(t *testing.T) {
	path := writeJSONL(t,
		`{"messages":[{"content":"fine"}]}`,
		``,
		`   `,
		`{"messages":[{"content":"tune"}]}`,
	)

	tally, err := CountFile(path, fixtureEncoder)
	require.Error(t, err)
	assert.Nil(t, tally)

	var parseErr *apperr.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line, "the first blank line is reported")
	assert.Equal(t, path, parseErr.Path)
}

func TestCountFile_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.jsonl")

	tally, err := CountFile(path, fixtureEncoder)
	require.Error(t, err)
	assert.Nil(t, tally)

	var fileErr *apperr.FileAccessError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, path, fileErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCountFile_MalformedLine(t *testing.T) {
	path := writeJSONL(t,
		`{"messages":[{"content":"hello"}]}`,
		`{"messages":[{"content":"hello"}`,
		`{"messages":[{"content":"world"}]}`,
	)

	tally, err := CountFile(path, fixtureEncoder)
	require.Error(t, err)
	assert.Nil(t, tally, "partial results are discarded")

	var parseErr *apperr.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)
	assert.Equal(t, path, parseErr.Path)
}

func TestCountFile_SchemaErrors(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantField string
	}{
		{name: "missing messages", line: `{"prompt":"hi"}`, wantField: "messages"},
		{name: "null messages", line: `{"messages":null}`, wantField: "messages"},
		{name: "null record", line: `null`, wantField: "messages"},
		{name: "missing content", line: `{"messages":[{"role":"user","content":"a"},{"role":"user"}]}`, wantField: "messages[1].content"},
		{name: "null content", line: `{"messages":[{"role":"user","content":null}]}`, wantField: "messages[0].content"},
		{name: "numeric content", line: `{"messages":[{"role":"user","content":"a"},{"content":5}]}`, wantField: "messages[1].content"},
		{name: "object content", line: `{"messages":[{"content":{"text":"a"}}]}`, wantField: "messages[0].content"},
		{name: "messages not a list", line: `{"messages":"hello"}`, wantField: "messages"},
		{name: "record not an object", line: `[1,2,3]`, wantField: "record"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeJSONL(t, `{"messages":[]}`, tt.line)

			tally, err := CountFile(path, fixtureEncoder)
			require.Error(t, err)
			assert.Nil(t, tally)

			var schemaErr *apperr.SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.wantField, schemaErr.Field)
			assert.Equal(t, 2, schemaErr.Line)
		})
	}
}

func TestCount_Reader(t *testing.T) {
	input := `{"messages":[{"role":"system","content":"fine tune"}]}` + "\n"

	tally, err := Count(strings.NewReader(input), fixtureEncoder)
	require.NoError(t, err)
	assert.Equal(t, Tally{Cl100kBase: 3, P50kBase: 2, R50kBase: 5}, tally)
}

func TestCount_ReaderSchemaErrorNamesInput(t *testing.T) {
	_, err := Count(strings.NewReader(`{}`), fixtureEncoder)

	var schemaErr *apperr.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "input", schemaErr.Source)
	assert.Equal(t, 1, schemaErr.Line)
}

func TestSchemes(t *testing.T) {
	assert.Equal(t, []Scheme{Cl100kBase, P50kBase, R50kBase}, Schemes())
	assert.True(t, P50kBase.valid())
	assert.False(t, Scheme("o200k_base").valid())

	// callers cannot mutate the fixed set
	s := Schemes()
	s[0] = "bogus"
	assert.Equal(t, Cl100kBase, Schemes()[0])
}

func TestCountFile_OrderIndependent(t *testing.T) {
	words := []string{"hello", "world", "fine", "tune", "x", "abc"}
	content := rapid.Custom(func(t *rapid.T) string {
		return strings.Join(rapid.SliceOfN(rapid.SampledFrom(words), 0, 5).Draw(t, "words"), " ")
	})
	record := rapid.Custom(func(t *rapid.T) Record {
		texts := rapid.SliceOfN(content, 0, 4).Draw(t, "messages")
		rec := Record{Messages: make([]Message, len(texts))}
		for i, text := range texts {
			rec.Messages[i] = Message{Role: "user", Content: text}
		}
		return rec
	})

	rapid.Check(t, func(rt *rapid.T) {
		records := rapid.SliceOfN(record, 0, 8).Draw(rt, "records")
		shuffled := rapid.Permutation(records).Draw(rt, "shuffled")

		want := NewTally()
		for _, rec := range records {
			for _, m := range rec.Messages {
				for _, s := range Schemes() {
					want[s] += fixtureEncoder(s, m.Content)
				}
			}
		}

		got, err := Count(strings.NewReader(encodeRecords(rt, records)), fixtureEncoder)
		if err != nil {
			rt.Fatalf("count: %v", err)
		}
		gotShuffled, err := Count(strings.NewReader(encodeRecords(rt, shuffled)), fixtureEncoder)
		if err != nil {
			rt.Fatalf("count shuffled: %v", err)
		}

		for _, s := range Schemes() {
			if got[s] != want[s] {
				rt.Fatalf("%s: got %d, want %d", s, got[s], want[s])
			}
			if gotShuffled[s] != want[s] {
				rt.Fatalf("%s shuffled: got %d, want %d", s, gotShuffled[s], want[s])
			}
		}
	})
}

func encodeRecords(t *rapid.T, records []Record) string {
	var b strings.Builder
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	return b.String()
}
