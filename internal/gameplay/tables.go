package gameplay

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/rcforge/levelcore/internal/binfile"
	"github.com/rcforge/levelcore/internal/format"
	"github.com/rcforge/levelcore/internal/level"
)

const levelVariablesSize = 0x40

type levelVariablesRecord struct {
	BackgroundColor  level.Color
	FogColor         level.Color
	FogNearDistance  float32
	FogFarDistance   float32
	FogNearIntensity float32
	FogFarIntensity  float32
	DeathPlaneZ      float32
	IsSpherical      int32
	SphereCenter     mgl32.Vec3
	ShipPosition     mgl32.Vec3
	ShipRotation     float32
	ShipPathID       int32
}

type pvarEntry struct {
	DataOffset uint32
	Length     int32
}

type occlusionHeader struct {
	MobyCount  int32
	TieCount   int32
	ShrubCount int32
	Pad        int32
}

// LevelVariables decodes the level-wide settings. The section is required.
func (d *Decoder) LevelVariables() (level.LevelVariables, error) {
	desc, err := d.descriptor(format.GameplayLevelVariables)
	if err != nil {
		return level.LevelVariables{}, err
	}
	if !desc.Present() {
		return level.LevelVariables{}, format.Wrap(format.GameplayLevelVariables, format.Corruptf("section missing"))
	}
	if desc.Count < levelVariablesSize {
		return level.LevelVariables{}, format.Wrap(format.GameplayLevelVariables,
			format.Corruptf("%d bytes, need at least %d", desc.Count, levelVariablesSize))
	}
	rec, err := binfile.ReadRecord[levelVariablesRecord](d.src, int64(desc.Offset))
	if err != nil {
		return level.LevelVariables{}, format.Wrap(format.GameplayLevelVariables, err)
	}
	tail, err := d.src.ReadAt(int64(desc.Offset)+levelVariablesSize, int64(desc.Count)-levelVariablesSize)
	if err != nil {
		return level.LevelVariables{}, format.Wrap(format.GameplayLevelVariables, err)
	}
	if len(tail) == 0 {
		tail = nil
	}
	return level.LevelVariables{
		BackgroundColor:  rec.BackgroundColor,
		FogColor:         rec.FogColor,
		FogNearDistance:  rec.FogNearDistance,
		FogFarDistance:   rec.FogFarDistance,
		FogNearIntensity: rec.FogNearIntensity,
		FogFarIntensity:  rec.FogFarIntensity,
		DeathPlaneZ:      rec.DeathPlaneZ,
		IsSpherical:      rec.IsSpherical != 0,
		SphereCenter:     rec.SphereCenter,
		ShipPosition:     rec.ShipPosition,
		ShipRotation:     rec.ShipRotation,
		ShipPathID:       rec.ShipPathID,
		Tail:             tail,
	}, nil
}

var languageSections = []format.GameplaySection{
	format.GameplayLangEnglish, format.GameplayLangUKEnglish, format.GameplayLangFrench,
	format.GameplayLangGerman, format.GameplayLangSpanish, format.GameplayLangItalian,
	format.GameplayLang7, format.GameplayLang8,
}

// LocalizationTables returns the eight language slots in file order, each
// verbatim. A missing slot is an empty table.
func (d *Decoder) LocalizationTables() ([]level.LocalizationTable, error) {
	tables := make([]level.LocalizationTable, len(level.LanguageTags))
	for i, tag := range level.LanguageTags {
		data, off, err := d.blob(languageSections[i])
		if err != nil {
			return nil, err
		}
		tables[i] = level.LocalizationTable{
			Language: tag,
			Blob:     level.OpaqueBlob{Region: string(tag), Offset: off, Data: data},
		}
	}
	return tables, nil
}

// BehaviorVariables returns one blob per moby that declares behavior data.
// The table must hold exactly that many entries, every declared index must
// fall inside it and no two mobies may share an index.
func (d *Decoder) BehaviorVariables(mobies []level.Moby) ([]level.OpaqueBlob, error) {
	declared := 0
	for i := range mobies {
		if mobies[i].HasPvars() {
			declared++
		}
	}

	desc, err := d.descriptor(format.GameplayPvars)
	if err != nil {
		return nil, err
	}
	count := 0
	if desc.Present() {
		count = int(desc.Count)
	}
	if count != declared {
		return nil, format.Wrap(format.GameplayPvars,
			format.Corruptf("table has %d entries, mobies declare %d", count, declared))
	}
	owner := make(map[int32]int32, declared)
	for i := range mobies {
		if !mobies[i].HasPvars() {
			continue
		}
		idx := mobies[i].PvarIndex
		if idx >= int32(count) {
			return nil, format.Wrap(format.GameplayPvars,
				format.Corruptf("moby %d uses pvar %d of %d", mobies[i].MobyID, idx, count))
		}
		if prev, taken := owner[idx]; taken {
			return nil, format.Wrap(format.GameplayPvars,
				format.Corruptf("pvar %d used by mobies %d and %d", idx, prev, mobies[i].MobyID))
		}
		owner[idx] = mobies[i].MobyID
	}
	if count == 0 {
		return nil, nil
	}

	entries, err := binfile.ReadRecords[pvarEntry](d.src, int64(desc.Offset), count)
	if err != nil {
		return nil, format.Wrap(format.GameplayPvars, err)
	}
	pvars := make([]level.OpaqueBlob, len(entries))
	for i, e := range entries {
		if e.Length < 0 {
			return nil, format.Wrap(describe(format.GameplayPvars, i), format.Corruptf("negative length %d", e.Length))
		}
		data, err := d.src.ReadAt(int64(e.DataOffset), int64(e.Length))
		if err != nil {
			return nil, format.Wrap(describe(format.GameplayPvars, i), err)
		}
		pvars[i] = level.OpaqueBlob{Region: level.RegionPvar, Offset: int64(e.DataOffset), Data: data}
	}
	return pvars, nil
}

// TypedRecords returns the fixed-size records of one opaque category verbatim.
func (d *Decoder) TypedRecords(tag format.TypeTag) (level.TypedRecordList, error) {
	l, err := d.Layout()
	if err != nil {
		return level.TypedRecordList{}, err
	}
	s, ok := tag.Section()
	size := l.TypeRecordSizes[tag]
	list := level.TypedRecordList{Tag: tag, RecordSize: size}
	if !ok || size == 0 {
		return list, fmt.Errorf("unknown record category %q", tag)
	}

	desc, err := d.descriptor(s)
	if err != nil || !desc.Present() {
		return list, err
	}
	data, err := d.src.ReadAt(int64(desc.Offset), int64(desc.Count)*int64(size))
	if err != nil {
		return list, format.Wrap(s, err)
	}
	list.Records = make([][]byte, desc.Count)
	for i := range list.Records {
		list.Records[i] = data[i*size : (i+1)*size : (i+1)*size]
	}
	return list, nil
}

// Pairs returns a list stored as {int32, int32} entries.
func (d *Decoder) Pairs(tag format.TypeTag) ([]level.IDPair, error) {
	if tag != format.Type50 && tag != format.Type5C {
		return nil, fmt.Errorf("%q is not a pair list", tag)
	}
	s, _ := tag.Section()
	desc, err := d.descriptor(s)
	if err != nil || !desc.Present() {
		return nil, err
	}
	pairs, err := binfile.ReadRecords[level.IDPair](d.src, int64(desc.Offset), int(desc.Count))
	if err != nil {
		return nil, format.Wrap(s, err)
	}
	return pairs, nil
}

// UnknownBlob returns one of the unidentified gameplay blobs verbatim.
func (d *Decoder) UnknownBlob(tag string) (level.OpaqueBlob, error) {
	s, ok := format.UnknownSection(tag)
	if !ok {
		return level.OpaqueBlob{}, fmt.Errorf("unknown blob tag %q", tag)
	}
	data, off, err := d.blob(s)
	if err != nil {
		return level.OpaqueBlob{}, err
	}
	return level.OpaqueBlob{Region: tag, Offset: off, Data: data}, nil
}

// InstanceData returns the per-instance block of ties or shrubs. Its length
// is count times the stride of the variant.
func (d *Decoder) InstanceData(kind level.Category, count int) (level.OpaqueBlob, error) {
	l, err := d.Layout()
	if err != nil {
		return level.OpaqueBlob{}, err
	}
	var (
		s      format.GameplaySection
		stride int
		region string
	)
	switch kind {
	case level.CategoryTie:
		s, stride, region = format.GameplayTieData, l.TieDataStride, level.RegionTieData
	case level.CategoryShrub:
		s, stride, region = format.GameplayShrubData, l.ShrubDataStride, level.RegionShrubData
	default:
		return level.OpaqueBlob{}, fmt.Errorf("no instance data for %s", kind)
	}

	desc, err := d.descriptor(s)
	if err != nil || !desc.Present() || count == 0 {
		return level.OpaqueBlob{Region: region}, err
	}
	data, err := d.src.ReadAt(int64(desc.Offset), int64(count)*int64(stride))
	if err != nil {
		return level.OpaqueBlob{}, format.Wrap(s, err)
	}
	return level.OpaqueBlob{Region: region, Offset: int64(desc.Offset), Data: data}, nil
}

func (d *Decoder) int32List(s format.GameplaySection) ([]int32, error) {
	desc, err := d.descriptor(s)
	if err != nil || !desc.Present() {
		return nil, err
	}
	ids, err := binfile.ReadRecords[int32](d.src, int64(desc.Offset), int(desc.Count))
	if err != nil {
		return nil, format.Wrap(s, err)
	}
	return ids, nil
}

// IDTables decodes the record-order tables of mobies, ties and shrubs.
func (d *Decoder) IDTables() (level.IDTables, error) {
	var t level.IDTables
	var err error
	if t.MobyIDs, err = d.int32List(format.GameplayMobyIDs); err != nil {
		return t, err
	}
	if t.TieIDs, err = d.int32List(format.GameplayTieIDs); err != nil {
		return t, err
	}
	if t.ShrubIDs, err = d.int32List(format.GameplayShrubIDs); err != nil {
		return t, err
	}
	return t, nil
}

// OcclusionData decodes the three occlusion lists. An absent section is empty.
func (d *Decoder) OcclusionData() (level.OcclusionData, error) {
	desc, err := d.descriptor(format.GameplayOcclusion)
	if err != nil || !desc.Present() {
		return level.OcclusionData{}, err
	}
	h, err := binfile.ReadRecord[occlusionHeader](d.src, int64(desc.Offset))
	if err != nil {
		return level.OcclusionData{}, format.Wrap(format.GameplayOcclusion, err)
	}
	if h.MobyCount < 0 || h.TieCount < 0 || h.ShrubCount < 0 {
		return level.OcclusionData{}, format.Wrap(format.GameplayOcclusion,
			format.Corruptf("negative count in %d/%d/%d", h.MobyCount, h.TieCount, h.ShrubCount))
	}

	at := int64(desc.Offset) + 0x10
	read := func(n int32) ([]level.IDPair, error) {
		if n == 0 {
			return nil, nil
		}
		pairs, err := binfile.ReadRecords[level.IDPair](d.src, at, int(n))
		at += int64(n) * 8
		return pairs, err
	}
	var occ level.OcclusionData
	if occ.Mobies, err = read(h.MobyCount); err != nil {
		return occ, format.Wrap(format.GameplayOcclusion, err)
	}
	if occ.Ties, err = read(h.TieCount); err != nil {
		return occ, format.Wrap(format.GameplayOcclusion, err)
	}
	if occ.Shrubs, err = read(h.ShrubCount); err != nil {
		return occ, format.Wrap(format.GameplayOcclusion, err)
	}
	return occ, nil
}
