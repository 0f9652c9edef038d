package mapping

import (
	"github.com/hupe1980/vecfield/engine"
	"github.com/hupe1980/vecfield/method"
	"github.com/hupe1980/vecfield/settings"
)

// VariantKind names a Variant case.
type VariantKind string

// Variant kinds.
const (
	KindEngineNative   VariantKind = "engine_native"
	KindModelReference VariantKind = "model_reference"
	KindLegacy         VariantKind = "legacy"
)

// Variant is the resolved shape of a field. The set of implementations is
// closed: EngineNative, ModelReference and Legacy.
type Variant interface {
	Kind() VariantKind
	sealed()
}

// Storage is how an EngineNative field stores its vectors.
type Storage string

// Storage strategies.
const (
	// StorageSideChannel writes vectors next to the engine's own files.
	StorageSideChannel Storage = "side_channel"
	// StorageNativeCodec writes vectors through the engine's doc values codec.
	StorageNativeCodec Storage = "native_codec"
)

// EngineNative is a field with an inline method.
type EngineNative struct {
	Method  method.Descriptor
	Storage Storage
}

// ModelReference is a field whose parameters come from a trained model.
type ModelReference struct {
	ModelID string
}

// Legacy is a field configured from index-wide settings.
type Legacy struct {
	SpaceType      engine.SpaceType
	M              int
	EfConstruction int
}

func (EngineNative) Kind() VariantKind   { return KindEngineNative }
func (ModelReference) Kind() VariantKind { return KindModelReference }
func (Legacy) Kind() VariantKind         { return KindLegacy }

func (EngineNative) sealed()   {}
func (ModelReference) sealed() {}
func (Legacy) sealed()         {}

// Dispatch selects the variant of cfg. A method wins over a model reference,
// which wins over the legacy fallback. Legacy values bound on cfg take
// precedence over index settings, which are consulted only for unset values.
func Dispatch(cfg Config, ctx Context) Variant {
	if cfg.Method != nil {
		storage := StorageSideChannel
		if c, ok := ctx.engines().Lookup(cfg.Method.Engine()); ok && c.NativeCodec {
			storage = StorageNativeCodec
		}
		return EngineNative{Method: *cfg.Method, Storage: storage}
	}

	if cfg.ModelID != "" {
		return ModelReference{ModelID: cfg.ModelID}
	}

	l := Legacy{
		SpaceType:      cfg.Legacy.SpaceType,
		M:              cfg.Legacy.M,
		EfConstruction: cfg.Legacy.EfConstruction,
	}
	if l.SpaceType == "" {
		l.SpaceType = settings.SpaceType(ctx.Settings)
	}
	if l.M == 0 {
		l.M = settings.M(ctx.Settings)
	}
	if l.EfConstruction == 0 {
		l.EfConstruction = settings.EfConstruction(ctx.Settings)
	}
	return l
}
