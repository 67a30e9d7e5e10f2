// Package material resolves and decodes .vmt material definitions.
package material

import (
	"image"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Material is the renderer-facing description of one surface.
type Material struct {
	Name        string
	Shader      string
	BaseTexture string
	BumpMap     string
	Detail      string
	EnvMap      string
	SurfaceProp string

	Color         mgl32.Vec3
	Alpha         float32
	AlphaTest     bool
	AlphaTestRef  float32
	Translucent   bool
	Additive      bool
	NoCull        bool
	SelfIllum     bool
	Phong         bool
	PhongExponent float32

	// Params keeps every parameter by lowercase name, including those
	// without a dedicated field.
	Params map[string]Value

	// Texture is the decoded base texture; nil when none could be loaded.
	Texture *image.NRGBA

	// Default marks a stand-in for a material that failed to resolve.
	Default bool
}

// Default returns the stand-in used when a material cannot be resolved.
func Default(name string) *Material {
	m := newMaterial(name, "VertexLitGeneric")
	m.Default = true
	return m
}

func newMaterial(name, shader string) *Material {
	return &Material{
		Name:         name,
		Shader:       shader,
		Color:        mgl32.Vec3{1, 1, 1},
		Alpha:        1,
		AlphaTestRef: 0.5,
		Params:       make(map[string]Value),
	}
}

type paramHandler func(m *Material, v Value)

// params maps recognized parameter names to the field they set.
var params = map[string]paramHandler{
	"$basetexture":        func(m *Material, v Value) { m.BaseTexture = v.Raw },
	"$bumpmap":            func(m *Material, v Value) { m.BumpMap = v.Raw },
	"$normalmap":          func(m *Material, v Value) { m.BumpMap = v.Raw },
	"$detail":             func(m *Material, v Value) { m.Detail = v.Raw },
	"$envmap":             func(m *Material, v Value) { m.EnvMap = v.Raw },
	"$surfaceprop":        func(m *Material, v Value) { m.SurfaceProp = v.Raw },
	"$alphatest":          func(m *Material, v Value) { m.AlphaTest = v.Bool() },
	"$translucent":        func(m *Material, v Value) { m.Translucent = v.Bool() },
	"$additive":           func(m *Material, v Value) { m.Additive = v.Bool() },
	"$nocull":             func(m *Material, v Value) { m.NoCull = v.Bool() },
	"$selfillum":          func(m *Material, v Value) { m.SelfIllum = v.Bool() },
	"$phong":              func(m *Material, v Value) { m.Phong = v.Bool() },
	"$phongexponent":      func(m *Material, v Value) { setFloat(&m.PhongExponent, v) },
	"$alphatestreference": func(m *Material, v Value) { setFloat(&m.AlphaTestRef, v) },
	"$alpha":              func(m *Material, v Value) { setFloat(&m.Alpha, v) },
	"$color":              setColor,
	"$color2":             setColor,
}

func setFloat(dst *float32, v Value) {
	if v.Kind == Number {
		*dst = float32(v.Number)
	}
}

func setColor(m *Material, v Value) {
	switch {
	case v.Kind == Vector && len(v.Vector) >= 3:
		m.Color = mgl32.Vec3{float32(v.Vector[0]), float32(v.Vector[1]), float32(v.Vector[2])}
	case v.Kind == Number:
		c := float32(v.Number)
		m.Color = mgl32.Vec3{c, c, c}
	}
}

// FromKeyValues builds a material from a decoded document. Nested blocks
// such as Proxies are ignored.
func FromKeyValues(name string, kv *KeyValues) *Material {
	m := newMaterial(name, kv.Name)
	apply(m, kv)
	return m
}

func apply(m *Material, kv *KeyValues) {
	for _, e := range kv.Entries {
		if e.Block != nil {
			continue
		}
		key := strings.ToLower(e.Key)
		v := ParseValue(e.Value)
		m.Params[key] = v
		if h, ok := params[key]; ok {
			h(m, v)
		}
	}
}
