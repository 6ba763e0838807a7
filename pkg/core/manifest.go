// Package core holds the level manifest: a digest summary of one decoded
// level that the catalog backends store and compare.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
)

// ErrNotCatalogued is returned when a catalog has no manifest for a level.
var ErrNotCatalogued = errors.New("level not catalogued")

// BlobDigest identifies one verbatim region by length and content hash.
type BlobDigest struct {
	Region string `json:"region" yaml:"region"`
	Offset int64  `json:"offset" yaml:"offset"`
	Length int    `json:"length" yaml:"length"`
	XXHash string `json:"xxhash" yaml:"xxhash"`
}

// TextureStats summarizes how the texture table was filled from vram.
type TextureStats struct {
	Total        int `json:"total" yaml:"total"`
	Filled       int `json:"filled" yaml:"filled"`
	Orphans      int `json:"orphans" yaml:"orphans"`
	PayloadBytes int `json:"payloadBytes" yaml:"payloadBytes"`
}

// Manifest is the catalog entry of one decode.
type Manifest struct {
	Path       string         `json:"path" yaml:"path"`
	Variant    string         `json:"variant" yaml:"variant"`
	Valid      bool           `json:"valid" yaml:"valid"`
	DecodedAt  time.Time      `json:"decodedAt" yaml:"decodedAt"`
	Models     map[string]int `json:"models" yaml:"models"`
	Instances  map[string]int `json:"instances" yaml:"instances"`
	Textures   TextureStats   `json:"textures" yaml:"textures"`
	Blobs      []BlobDigest   `json:"blobs" yaml:"blobs"`
	Unresolved int            `json:"unresolved" yaml:"unresolved"`
}

// content is the part of a manifest that depends only on the decoded bytes.
type content struct {
	Variant    string
	Valid      bool
	Models     [][2]any
	Instances  [][2]any
	Textures   TextureStats
	Blobs      []BlobDigest
	Unresolved int
}

func sortedPairs(m map[string]int) [][2]any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]any, len(keys))
	for i, k := range keys {
		out[i] = [2]any{k, m[k]}
	}
	return out
}

// Digest hashes everything but Path and DecodedAt, so two decodes of the
// same bytes agree wherever they were read from.
func (m *Manifest) Digest() string {
	b, err := json.Marshal(content{
		Variant:    m.Variant,
		Valid:      m.Valid,
		Models:     sortedPairs(m.Models),
		Instances:  sortedPairs(m.Instances),
		Textures:   m.Textures,
		Blobs:      m.Blobs,
		Unresolved: m.Unresolved,
	})
	if err != nil {
		// only plain values above
		panic(err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}

// Equal reports whether two manifests describe the same level bytes.
func (m *Manifest) Equal(o *Manifest) bool {
	return m.Digest() == o.Digest()
}

// Diff lists what differs between two manifests, one line per difference.
func (m *Manifest) Diff(o *Manifest) []string {
	var out []string
	if m.Variant != o.Variant {
		out = append(out, fmt.Sprintf("variant: %s != %s", m.Variant, o.Variant))
	}
	if m.Valid != o.Valid {
		out = append(out, fmt.Sprintf("valid: %t != %t", m.Valid, o.Valid))
	}
	out = append(out, diffCounts("models", m.Models, o.Models)...)
	out = append(out, diffCounts("instances", m.Instances, o.Instances)...)
	if m.Textures != o.Textures {
		out = append(out, fmt.Sprintf("textures: %+v != %+v", m.Textures, o.Textures))
	}
	if m.Unresolved != o.Unresolved {
		out = append(out, fmt.Sprintf("unresolved: %d != %d", m.Unresolved, o.Unresolved))
	}

	theirs := make(map[string]BlobDigest, len(o.Blobs))
	for _, b := range o.Blobs {
		theirs[b.Region] = b
	}
	for _, b := range m.Blobs {
		ob, ok := theirs[b.Region]
		switch {
		case !ok:
			out = append(out, fmt.Sprintf("blob %s: missing", b.Region))
		case ob.Length != b.Length || ob.XXHash != b.XXHash:
			out = append(out, fmt.Sprintf("blob %s: %d/%s != %d/%s", b.Region, b.Length, b.XXHash, ob.Length, ob.XXHash))
		}
		delete(theirs, b.Region)
	}
	extra := make([]string, 0, len(theirs))
	for region := range theirs {
		extra = append(extra, region)
	}
	sort.Strings(extra)
	for _, region := range extra {
		out = append(out, fmt.Sprintf("blob %s: unexpected", region))
	}
	return out
}

func diffCounts(name string, a, b map[string]int) []string {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var out []string
	for _, k := range sorted {
		if a[k] != b[k] {
			out = append(out, fmt.Sprintf("%s.%s: %d != %d", name, k, a[k], b[k]))
		}
	}
	return out
}
