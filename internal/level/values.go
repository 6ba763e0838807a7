package level

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/rcforge/levelcore/internal/format"
)

// UiElement groups the texture indices of one HUD sprite set.
type UiElement struct {
	ID      uint16
	Sprites []int32
}

// Animation is one player animation; its frame data is kept verbatim.
type Animation struct {
	Index      int
	Speed      float32
	FrameCount int32
	FrameSize  int32
	Frames     OpaqueBlob
}

// LevelVariables holds the level-wide settings of the gameplay file.
type LevelVariables struct {
	BackgroundColor  Color
	FogColor         Color
	FogNearDistance  float32
	FogFarDistance   float32
	FogNearIntensity float32
	FogFarIntensity  float32
	DeathPlaneZ      float32
	IsSpherical      bool
	SphereCenter     mgl32.Vec3
	ShipPosition     mgl32.Vec3
	ShipRotation     float32
	ShipPathID       int32
	Tail             []byte
}

// IDPair is an {id, value} entry.
type IDPair struct {
	Key   int32
	Value int32
}

// OcclusionData maps instance ids to occlusion slots per instance kind.
type OcclusionData struct {
	Mobies []IDPair
	Ties   []IDPair
	Shrubs []IDPair
}

// IDTables map gameplay record order back to engine asset order.
type IDTables struct {
	MobyIDs  []int32
	TieIDs   []int32
	ShrubIDs []int32
}

// TypedRecordList is a list of fixed-size records of one opaque category.
type TypedRecordList struct {
	Tag        format.TypeTag
	RecordSize int
	Records    [][]byte
}

// Count returns the number of records.
func (l TypedRecordList) Count() int { return len(l.Records) }

// ByteLen returns the total size of all records.
func (l TypedRecordList) ByteLen() int { return l.RecordSize * len(l.Records) }

// LanguageTag names one of the eight localization slots.
type LanguageTag string

const (
	LangEnglish   LanguageTag = "english"
	LangUKEnglish LanguageTag = "ukEnglish"
	LangFrench    LanguageTag = "french"
	LangGerman    LanguageTag = "german"
	LangSpanish   LanguageTag = "spanish"
	LangItalian   LanguageTag = "italian"
	Lang7         LanguageTag = "lang7"
	Lang8         LanguageTag = "lang8"
)

// LanguageTags lists the slots in file order.
var LanguageTags = []LanguageTag{
	LangEnglish, LangUKEnglish, LangFrench, LangGerman,
	LangSpanish, LangItalian, Lang7, Lang8,
}

// Identified reports whether the slot's language is known.
func (t LanguageTag) Identified() bool {
	return t != Lang7 && t != Lang8
}

// LocalizationTable is one language slot, kept verbatim.
type LocalizationTable struct {
	Language LanguageTag
	Blob     OpaqueBlob
}

// LocalizedString is one entry of a string table.
type LocalizedString struct {
	ID       int32
	SecondID int32
	Text     string
}

const stringEntrySize = 0x10

// Entries reads the table as a string table. Unidentified slots and tables
// that do not parse return an error; the blob itself is never touched.
func (t LocalizationTable) Entries() ([]LocalizedString, error) {
	if !t.Language.Identified() {
		return nil, fmt.Errorf("language slot %s has no known layout", t.Language)
	}
	data := t.Blob.Data
	if len(data) < 8 {
		return nil, fmt.Errorf("string table %s: %d bytes is shorter than its header", t.Language, len(data))
	}
	count := int32(binary.BigEndian.Uint32(data[0:]))
	if count < 0 || 8+int(count)*stringEntrySize > len(data) {
		return nil, fmt.Errorf("string table %s: bad entry count %d", t.Language, count)
	}
	out := make([]LocalizedString, 0, count)
	for i := 0; i < int(count); i++ {
		e := data[8+i*stringEntrySize:]
		textOff := binary.BigEndian.Uint32(e[0:])
		if int(textOff) >= len(data) {
			return nil, fmt.Errorf("string table %s: entry %d text offset 0x%X outside table", t.Language, i, textOff)
		}
		text := data[textOff:]
		if end := bytes.IndexByte(text, 0); end >= 0 {
			text = text[:end]
		}
		out = append(out, LocalizedString{
			ID:       int32(binary.BigEndian.Uint32(e[4:])),
			SecondID: int32(binary.BigEndian.Uint32(e[8:])),
			Text:     string(text),
		})
	}
	return out, nil
}
