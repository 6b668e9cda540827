package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	registerWidgets(t, newWidgetStore())

	def, ok := Get(widgetKind)
	require.True(t, ok)
	assert.Equal(t, "Widgets", def.Info.Label)
	assert.Equal(t, []string{"name"}, def.Info.NaturalKey)

	_, ok = Get("nope")
	assert.False(t, ok)

	found := false
	for _, info := range Kinds() {
		if info.Key == widgetKind {
			found = true
		}
	}
	assert.True(t, found)
	assert.Equal(t, len(All()), KindCount())

	assert.Panics(t, func() { Register(def) }, "duplicate registration must panic")
}

func TestKindDefinitionDecode(t *testing.T) {
	registerWidgets(t, newWidgetStore())
	def, _ := Get(widgetKind)

	rec, err := def.Decode(json.RawMessage(`{"name":"  spaced  ","size":2}`))
	require.NoError(t, err)
	assert.Equal(t, NaturalKey{"spaced"}, def.NaturalKey(rec), "normalize runs after decode")

	_, err = def.Decode(json.RawMessage(`{"name":`))
	assert.Error(t, err)
}

func TestNaturalKeyString(t *testing.T) {
	assert.Equal(t, "Frieren | anime", NaturalKey{"Frieren", "anime"}.String())
	assert.Equal(t, "Madhouse", NaturalKey{"Madhouse"}.String())
}

func TestRecordChecker(t *testing.T) {
	start := NewDate(2024, time.April, 1)
	end := NewDate(2024, time.March, 1)

	var c RecordChecker
	c.Required("title", nil)
	c.Required("blank", Ptr("  "))
	c.Length("short", Ptr(""), 1, 10)
	c.Length("long", Ptr("abcdef"), 0, 5)
	c.Length("ok", Ptr("abc"), 1, 5)
	c.Length("absent", nil, 1, 5)
	c.Enum("kind", Ptr("novel"), "anime", "manga")
	c.Enum("kind_ok", Ptr("anime"), "anime", "manga")
	c.NonNegative("count", Ptr(-1))
	c.NonNegative("count_ok", Ptr(0))
	c.DateOrder("start", &start, "end", &end)
	c.DateOrder("start", &start, "missing", nil)

	err := c.Err()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))

	fields := make([]string, len(verrs))
	for i, v := range verrs {
		fields[i] = v.Field
	}
	assert.Equal(t, []string{"title", "blank", "short", "long", "kind", "count", "end"}, fields)
	assert.True(t, verrs.Has(ViolationOrder))
	assert.Contains(t, err.Error(), "validation failed: title: required field is empty")

	var clean RecordChecker
	clean.Required("title", Ptr("x"))
	assert.NoError(t, clean.Err())
}

func TestClassifyFailure(t *testing.T) {
	assert.Equal(t, CategoryValidation, classifyFailure(ValidationErrors{{Field: "name"}}))
	assert.Equal(t, CategoryValidation, classifyFailure(errors.Wrap(ValidationErrors{{Field: "name"}}, "merged")))
	assert.Equal(t, CategoryIntegrity, classifyFailure(uniqueViolation("x")))
	assert.Equal(t, CategoryIntegrity, classifyFailure(errors.Wrap(uniqueViolation("x"), "insert")))
	assert.Equal(t, CategoryIntegrity, classifyFailure(ErrIntegrityViolation))
	assert.Equal(t, CategoryUnknown, classifyFailure(errors.New("connection reset by peer")))
}

func TestPrimaryLineUsesServerMessage(t *testing.T) {
	err := errors.Wrap(uniqueViolation("Madhouse"), "insert studio")
	assert.Equal(t, `duplicate key value violates unique constraint "widgets_name_key"`, primaryLine(err))
	assert.Equal(t, "first", primaryLine(errors.New("first\nsecond")))
}

func TestImportConfigJSONDefaults(t *testing.T) {
	cfg := DefaultImportConfig()
	require.NoError(t, json.Unmarshal([]byte(`{"on_conflict":"update"}`), &cfg))

	assert.True(t, cfg.SkipDuplicates, "omitted fields keep their defaults")
	assert.Equal(t, OnConflictUpdate, cfg.OnConflict)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.NoError(t, cfg.Validate())
}
