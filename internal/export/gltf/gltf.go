// Package gltf writes the static models of one category to a binary glTF file.
// Each model becomes one mesh and one node; nodes are laid out on a grid so
// they do not overlap.
package gltf

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/rcforge/levelcore/internal/level"
)

// ErrNoGeometry is returned when no model of the category has vertices.
var ErrNoGeometry = errors.New("no model with geometry")

const gap = 1

// NodeName is the node and mesh name of a model.
func NodeName(m *level.StaticModel) string {
	return fmt.Sprintf("%s_%d", m.Category, m.ID)
}

// SaveModels writes models to a .glb file at path.
func SaveModels(path string, c level.Category, models []*level.StaticModel) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteModels(f, c, models); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteModels encodes the models of category c as binary glTF. Models
// without vertices are skipped. Collision models carry POSITION only; the
// others also carry NORMAL and TEXCOORD_0.
func WriteModels(w io.Writer, c level.Category, models []*level.StaticModel) error {
	doc, err := Document(c, models)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return enc.Encode(doc)
}

// Document builds the glTF document for the models of category c.
func Document(c level.Category, models []*level.StaticModel) (*gltf.Document, error) {
	var meshes []meshData
	for _, m := range models {
		if m.Category != c {
			return nil, fmt.Errorf("model %d is %s, not %s", m.ID, m.Category, c)
		}
		md, err := split(m)
		if err != nil {
			return nil, err
		}
		if len(md.positions) == 0 {
			continue
		}
		meshes = append(meshes, md)
	}
	if len(meshes) == 0 {
		return nil, fmt.Errorf("%w in category %s", ErrNoGeometry, c)
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "levelcore"

	pbr := &gltf.PBRMetallicRoughness{BaseColorFactor: &[4]float64{1, 1, 1, 1}, MetallicFactor: gltf.Float(0), RoughnessFactor: gltf.Float(1)}
	doc.Materials = []*gltf.Material{{Name: string(c), PBRMetallicRoughness: pbr, AlphaMode: gltf.AlphaOpaque}}

	step := float64(gap)
	for _, md := range meshes {
		if w := float64(md.width()); w+gap > step {
			step = w + gap
		}
	}
	cols := int(math.Ceil(math.Sqrt(float64(len(meshes)))))

	for i, md := range meshes {
		attrs := gltf.PrimitiveAttributes{
			gltf.POSITION: modeler.WritePosition(doc, md.positions),
		}
		if md.normals != nil {
			attrs[gltf.NORMAL] = modeler.WriteNormal(doc, md.normals)
			attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, md.uvs)
		}
		prim := &gltf.Primitive{
			Attributes: attrs,
			Material:   gltf.Index(0),
		}
		if len(md.indices) > 0 {
			prim.Indices = gltf.Index(modeler.WriteIndices(doc, md.indices))
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: md.name, Primitives: []*gltf.Primitive{prim}})
		node := &gltf.Node{Name: md.name, Mesh: gltf.Index(len(doc.Meshes) - 1)}
		node.Translation = [3]float64{float64(i%cols) * step, 0, float64(i/cols) * step}
		doc.Nodes = append(doc.Nodes, node)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}
	return doc, nil
}

type meshData struct {
	name      string
	positions [][3]float32
	normals   [][3]float32
	uvs       [][2]float32
	indices   []uint16
}

// width is the largest horizontal extent of the mesh.
func (md meshData) width() float32 {
	minX, maxX := md.positions[0][0], md.positions[0][0]
	minZ, maxZ := md.positions[0][2], md.positions[0][2]
	for _, p := range md.positions[1:] {
		minX, maxX = min(minX, p[0]), max(maxX, p[0])
		minZ, maxZ = min(minZ, p[2]), max(maxZ, p[2])
	}
	return max(maxX-minX, maxZ-minZ)
}

// split unpacks the interleaved vertex buffer of m.
func split(m *level.StaticModel) (meshData, error) {
	stride := m.Category.VertexStride()
	if len(m.Vertices)%stride != 0 {
		return meshData{}, fmt.Errorf("model %s: %d floats is not a multiple of %d", NodeName(m), len(m.Vertices), stride)
	}
	n := len(m.Vertices) / stride
	for _, idx := range m.Indices {
		if int(idx) >= n {
			return meshData{}, fmt.Errorf("model %s: index %d past %d vertices", NodeName(m), idx, n)
		}
	}

	md := meshData{
		name:      NodeName(m),
		positions: make([][3]float32, n),
		indices:   m.Indices,
	}
	if stride == 8 {
		md.normals = make([][3]float32, n)
		md.uvs = make([][2]float32, n)
	}
	for i := 0; i < n; i++ {
		v := m.Vertices[i*stride : (i+1)*stride]
		md.positions[i] = [3]float32{v[0], v[1], v[2]}
		if stride == 8 {
			md.normals[i] = [3]float32{v[3], v[4], v[5]}
			md.uvs[i] = [2]float32{v[6], v[7]}
		}
	}
	return md, nil
}
