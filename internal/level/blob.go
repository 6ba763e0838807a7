package level

import (
	"bytes"

	xxhash "github.com/cespare/xxhash/v2"
)

// Region tags of the opaque blobs a level carries.
const (
	RegionRenderDef       = "renderDef"
	RegionCollisionBytes  = "collisionBytes"
	RegionBillboard       = "billboard"
	RegionSoundConfig     = "soundConfig"
	RegionLightConfig     = "lightConfig"
	RegionTerrainBytes    = "terrainBytes"
	RegionTieData         = "tieData"
	RegionShrubData       = "shrubData"
	RegionPvar            = "pvar"
	RegionPlayerAnimation = "playerAnimation"
	RegionLevelVariables  = "levelVariables"
	RegionVramOrphan      = "vramOrphan"
)

// OpaqueBlob is a byte region kept verbatim because its layout is not modeled.
// The zero value is an absent region.
type OpaqueBlob struct {
	Region string
	Offset int64
	Data   []byte
}

// NewBlob copies data into a blob tagged with region.
func NewBlob(region string, offset int64, data []byte) OpaqueBlob {
	cp := make([]byte, len(data))
	copy(cp, data)
	return OpaqueBlob{Region: region, Offset: offset, Data: cp}
}

// Len is the exact byte length of the region.
func (b OpaqueBlob) Len() int { return len(b.Data) }

// Empty reports whether the region holds no bytes.
func (b OpaqueBlob) Empty() bool { return len(b.Data) == 0 }

// Digest is the xxhash64 of the region bytes.
func (b OpaqueBlob) Digest() uint64 { return xxhash.Sum64(b.Data) }

// Equal reports whether two blobs carry the same tag and bytes.
func (b OpaqueBlob) Equal(o OpaqueBlob) bool {
	return b.Region == o.Region && bytes.Equal(b.Data, o.Data)
}
