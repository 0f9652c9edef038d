package mapping

import (
	"errors"
	"testing"

	"github.com/hupe1980/vecfield/engine"
	"github.com/hupe1980/vecfield/method"
	"github.com/hupe1980/vecfield/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *engine.Table {
	t.Helper()
	table, err := engine.NewTable("libA",
		engine.Capability{
			ID:           "libA",
			MaxDimension: 16,
			SpaceTypes:   []engine.SpaceType{engine.SpaceL2},
			Methods: []engine.MethodSpec{
				{Name: "hnsw", Params: []engine.ParamSpec{{Key: "m", Min: 2}}},
			},
		},
		engine.Capability{
			ID:           "libB",
			MaxDimension: 4,
			NativeCodec:  true,
			SpaceTypes:   []engine.SpaceType{engine.SpaceL2},
			Methods:      []engine.MethodSpec{{Name: "hnsw"}},
		},
	)
	require.NoError(t, err)
	return table
}

func configErr(t *testing.T, err error) *ConfigError {
	t.Helper()
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	return cerr
}

func TestCompileLegacyForEveryDimension(t *testing.T) {
	ctx := Context{Engines: testTable(t)}
	for d := 1; d <= 16; d++ {
		f, err := Compile("v", map[string]any{"dimension": d}, ctx)
		require.NoError(t, err)
		assert.Equal(t, KindLegacy, f.Variant().Kind())
		assert.Equal(t, d, f.Dimension())
	}

	_, err := Compile("v", map[string]any{"dimension": 17}, ctx)
	cerr := configErr(t, err)
	assert.ErrorIs(t, err, ErrDimensionTooLarge)
	assert.Equal(t, 16, cerr.Limit)
	assert.Equal(t, engine.ID("libA"), cerr.Engine)
}

func TestCompileEngineNative(t *testing.T) {
	ctx := Context{Engines: testTable(t)}

	f, err := Compile("v", map[string]any{
		"dimension": 4,
		"method":    map[string]any{"engine": "libA", "space_type": "l2"},
	}, ctx)
	require.NoError(t, err)

	v, ok := f.Variant().(EngineNative)
	require.True(t, ok)
	assert.Equal(t, StorageSideChannel, v.Storage)
	assert.Equal(t, engine.ID("libA"), v.Method.Engine())
	assert.Equal(t, 4, f.Dimension())

	f, err = Compile("v", map[string]any{
		"dimension": 4,
		"method":    map[string]any{"engine": "libB"},
	}, ctx)
	require.NoError(t, err)
	assert.Equal(t, StorageNativeCodec, f.Variant().(EngineNative).Storage)
}

func TestDimensionLimitFollowsMethodEngine(t *testing.T) {
	ctx := Context{Engines: testTable(t)}

	_, err := Compile("v", map[string]any{
		"dimension": 8,
		"method":    map[string]any{"engine": "libB"},
	}, ctx)
	assert.ErrorIs(t, err, ErrDimensionTooLarge)
	assert.Equal(t, 4, configErr(t, err).Limit)
}

func TestCompileModelReference(t *testing.T) {
	f, err := Compile("v", map[string]any{"model_id": "m1"}, Context{})
	require.NoError(t, err)

	v, ok := f.Variant().(ModelReference)
	require.True(t, ok)
	assert.Equal(t, "m1", v.ModelID)
	assert.Equal(t, Unresolved, f.Dimension())
}

func TestConflictingMethodAndModel(t *testing.T) {
	for _, node := range []map[string]any{
		{"dimension": 4, "method": map[string]any{}, "model_id": "m1"},
		{"method": map[string]any{"engine": "libA"}, "model_id": "m1"},
	} {
		_, err := Compile("v", node, Context{Engines: testTable(t)})
		assert.ErrorIs(t, err, ErrConflictingMethodAndModel)
	}
}

func TestMissingDimension(t *testing.T) {
	_, err := Compile("v", map[string]any{}, Context{})
	assert.ErrorIs(t, err, ErrMissingDimension)

	_, err = Compile("v", map[string]any{"method": map[string]any{}}, Context{})
	assert.ErrorIs(t, err, ErrMissingDimension)
}

func TestTrainingNotSupportedInline(t *testing.T) {
	_, err := Compile("v", map[string]any{
		"method": map[string]any{"engine": "libA", "space_type": "l2", "training_required": true},
	}, Context{Engines: testTable(t)})
	assert.ErrorIs(t, err, ErrTrainingNotSupportedInline)

	_, err = Compile("v", map[string]any{
		"dimension": 4,
		"method": map[string]any{
			"engine":     "faiss",
			"name":       "ivf",
			"parameters": map[string]any{"nlist": 0},
		},
	}, Context{})
	cerr := configErr(t, err)
	assert.ErrorIs(t, err, ErrTrainingNotSupportedInline)
	require.Len(t, cerr.Methods, 1)
	assert.Equal(t, "parameters.nlist", cerr.Methods[0].Path)
}

func TestMethodErrorsAreAggregated(t *testing.T) {
	_, err := Compile("v", map[string]any{
		"dimension": 4,
		"method": map[string]any{
			"engine":     "lucene",
			"space_type": "innerproduct",
			"parameters": map[string]any{"m": 1024, "ef_construction": 1},
		},
	}, Context{})

	cerr := configErr(t, err)
	assert.ErrorIs(t, err, ErrMethodValidationFailed)
	assert.Equal(t, "v", cerr.Field)
	assert.Equal(t, []string{"space_type", "parameters.ef_construction", "parameters.m"}, paths(cerr.Methods))
}

func paths(errs []method.Error) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Path
	}
	return out
}

func TestInvalidDimension(t *testing.T) {
	cases := []struct {
		name string
		raw  any
	}{
		{"zero", 0},
		{"negative", -3},
		{"null", nil},
		{"bool", true},
		{"word", "four"},
		{"overflow", int64(1) << 40},
		{"list", []any{4}},
		{"truncated to zero", 0.9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile("v", map[string]any{"dimension": tc.raw}, Context{})
			assert.ErrorIs(t, err, ErrInvalidDimension)
		})
	}
}

func TestDimensionCoercion(t *testing.T) {
	for _, raw := range []any{4, int64(4), float64(4), 4.7, "4", uint8(4)} {
		f, err := Compile("v", map[string]any{"dimension": raw}, Context{})
		require.NoError(t, err, "%#v", raw)
		assert.Equal(t, 4, f.Dimension())
	}
}

func TestCheckOrder(t *testing.T) {
	// Parameter errors come before the conflict and dimension checks.
	_, err := Compile("v", map[string]any{
		"dimension": 0,
		"method":    map[string]any{},
		"model_id":  "m1",
	}, Context{})
	assert.ErrorIs(t, err, ErrInvalidDimension)

	table := testTable(t)
	_, err = Compile("v", map[string]any{
		"method":   map[string]any{"engine": "libA"},
		"model_id": "m1",
	}, Context{Engines: table})
	assert.ErrorIs(t, err, ErrConflictingMethodAndModel)
}

func TestUnknownAndInvalidParameters(t *testing.T) {
	_, err := Compile("v", map[string]any{"dimension": 4, "similarity": "l2"}, Context{})
	assert.ErrorIs(t, err, ErrUnknownParameter)
	assert.Equal(t, "similarity", configErr(t, err).Param)

	_, err = Compile("v", map[string]any{"dimension": 4, "type": "keyword"}, Context{})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	for _, typ := range []string{"vector", "knn_vector"} {
		_, err = Compile("v", map[string]any{"dimension": 4, "type": typ}, Context{})
		assert.NoError(t, err)
	}

	_, err = Compile("v", map[string]any{"dimension": 4, "store": "yes"}, Context{})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Equal(t, "store", configErr(t, err).Param)

	_, err = Compile("v", map[string]any{"dimension": 4, "meta": map[string]any{"unit": 1}}, Context{})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = Compile("v", map[string]any{"model_id": 7}, Context{})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestIgnoreMalformedPrecedence(t *testing.T) {
	index := settings.Map{settings.KeyIgnoreMalformed: "true"}

	f, err := Compile("v", map[string]any{"dimension": 2}, Context{})
	require.NoError(t, err)
	assert.Equal(t, Explicit[bool]{}, f.Config().IgnoreMalformed)

	f, err = Compile("v", map[string]any{"dimension": 2}, Context{Settings: index})
	require.NoError(t, err)
	assert.Equal(t, Explicit[bool]{Value: true}, f.Config().IgnoreMalformed)

	f, err = Compile("v", map[string]any{"dimension": 2, "ignore_malformed": false}, Context{Settings: index})
	require.NoError(t, err)
	assert.Equal(t, Explicit[bool]{Value: false, Explicit: true}, f.Config().IgnoreMalformed)
}

func TestLegacyBackfill(t *testing.T) {
	index := settings.Map{
		settings.KeySpaceType:      "cosinesimil",
		settings.KeyM:              "32",
		settings.KeyEfConstruction: "128",
	}
	f, err := Compile("v", map[string]any{"dimension": 2}, Context{Settings: index})
	require.NoError(t, err)
	assert.Equal(t, Legacy{SpaceType: engine.SpaceCosine, M: 32, EfConstruction: 128}, f.Variant())

	f, err = Compile("v", map[string]any{"dimension": 2}, Context{})
	require.NoError(t, err)
	assert.Equal(t, Legacy{SpaceType: engine.SpaceL2, M: 16, EfConstruction: 512}, f.Variant())
}

func TestDispatchIsDeterministic(t *testing.T) {
	cfg, err := Resolve("v", map[string]any{"dimension": 2}, Context{})
	require.NoError(t, err)

	ctx := Context{Settings: settings.Map{settings.KeyM: "24"}}
	assert.Equal(t, Dispatch(cfg, ctx), Dispatch(cfg, ctx))

	cfg.Legacy = LegacyParams{M: 8}
	assert.Equal(t, Legacy{SpaceType: engine.SpaceL2, M: 8, EfConstruction: 512}, Dispatch(cfg, ctx))
}

func TestMerge(t *testing.T) {
	ctx := Context{Settings: settings.Map{settings.KeyM: "24"}}
	old, err := Compile("v", map[string]any{"dimension": 3, "meta": map[string]any{"unit": "m"}}, ctx)
	require.NoError(t, err)

	later := Context{Settings: settings.Map{settings.KeyM: "48"}}
	merged, err := old.Merge(map[string]any{
		"dimension":        3,
		"meta":             map[string]any{"unit": "cm"},
		"ignore_malformed": true,
	}, later)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"unit": "cm"}, merged.Config().Meta)
	assert.True(t, merged.IgnoreMalformed())
	assert.Equal(t, 24, merged.Variant().(Legacy).M)

	// The old field is unchanged.
	assert.Equal(t, map[string]string{"unit": "m"}, old.Config().Meta)
	assert.False(t, old.IgnoreMalformed())
}

func TestMergeRereadsIgnoreMalformedSetting(t *testing.T) {
	on := Context{Settings: settings.Map{settings.KeyIgnoreMalformed: "true"}}
	off := Context{Settings: settings.Map{settings.KeyIgnoreMalformed: "false"}}

	old, err := Compile("v", map[string]any{"dimension": 2}, on)
	require.NoError(t, err)
	require.True(t, old.IgnoreMalformed())

	merged, err := old.Merge(map[string]any{"meta": map[string]any{"owner": "search"}}, off)
	require.NoError(t, err)
	assert.False(t, merged.IgnoreMalformed())

	fresh, err := Compile("v", map[string]any{"dimension": 2}, off)
	require.NoError(t, err)
	assert.Equal(t, fresh.Config().IgnoreMalformed, merged.Config().IgnoreMalformed)

	explicit, err := Compile("v", map[string]any{"dimension": 2, "ignore_malformed": true}, off)
	require.NoError(t, err)
	merged, err = explicit.Merge(map[string]any{"meta": map[string]any{"owner": "search"}}, off)
	require.NoError(t, err)
	assert.Equal(t, Explicit[bool]{Value: true, Explicit: true}, merged.Config().IgnoreMalformed)
}

func TestMergeRejectsNonUpdatable(t *testing.T) {
	old, err := Compile("v", map[string]any{"dimension": 3}, Context{})
	require.NoError(t, err)

	for key, value := range map[string]any{
		"dimension":  4,
		"store":      true,
		"doc_values": false,
		"method":     map[string]any{},
		"model_id":   "m1",
	} {
		_, err := old.Merge(map[string]any{key: value}, Context{})
		assert.ErrorIs(t, err, ErrParameterNotUpdatable, key)
		assert.Equal(t, key, configErr(t, err).Param)
	}

	_, err = old.Merge(map[string]any{"dimension": 3.0, "store": false}, Context{})
	assert.NoError(t, err)
}

func TestMergeValidates(t *testing.T) {
	old, err := Compile("v", map[string]any{"dimension": 3}, Context{})
	require.NoError(t, err)

	_, err = old.Merge(map[string]any{"meta": "x"}, Context{})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestFieldTypeOperations(t *testing.T) {
	f, err := Compile("v", map[string]any{"dimension": 3}, Context{})
	require.NoError(t, err)

	assert.Equal(t, "vector", f.TypeName())
	assert.Equal(t, ExistsQuery{FieldName: "v"}, f.ExistsQuery())

	_, err = f.TermQuery([]float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrTermQueryUnsupported)
	var uerr *UsageError
	assert.True(t, errors.As(err, &uerr))

	assert.ErrorIs(t, f.ValueFetcher(), ErrFieldRetrievalUnsupported)

	fd, err := f.FieldData()
	require.NoError(t, err)
	assert.Equal(t, FieldData{FieldName: "v", Dimension: 3}, fd)

	f, err = Compile("v", map[string]any{"dimension": 3, "doc_values": false}, Context{})
	require.NoError(t, err)
	_, err = f.FieldData()
	assert.ErrorIs(t, err, ErrDocValuesDisabled)
}

func TestExport(t *testing.T) {
	f, err := Compile("v", map[string]any{"dimension": 3}, Context{Settings: settings.Map{settings.KeyIgnoreMalformed: "true"}})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"type": "vector", "dimension": 3}, f.Export(false))
	assert.Equal(t, map[string]any{
		"type":             "vector",
		"dimension":        3,
		"store":            false,
		"doc_values":       true,
		"meta":             map[string]any{},
		"ignore_malformed": true,
	}, f.Export(true))

	f, err = Compile("v", map[string]any{
		"dimension":        3,
		"ignore_malformed": false,
		"method":           map[string]any{"engine": "nmslib", "parameters": map[string]any{"m": 8}},
	}, Context{})
	require.NoError(t, err)
	out := f.Export(false)
	assert.Equal(t, false, out["ignore_malformed"])
	assert.Equal(t, map[string]any{
		"name":       "hnsw",
		"engine":     "nmslib",
		"space_type": "l2",
		"parameters": map[string]any{"m": 8},
	}, out["method"])

	again, err := Compile("v", out, Context{})
	require.NoError(t, err)
	assert.Equal(t, f.Config(), again.Config())
}

func TestIsVectorNode(t *testing.T) {
	assert.True(t, IsVectorNode(map[string]any{"type": "vector"}))
	assert.True(t, IsVectorNode(map[string]any{"type": "knn_vector"}))
	assert.False(t, IsVectorNode(map[string]any{"type": "keyword"}))
	assert.False(t, IsVectorNode(map[string]any{"dimension": 3}))
}
