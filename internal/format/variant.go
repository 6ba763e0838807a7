package format

import "fmt"

// GameVariant selects the binary layout of a level.
type GameVariant uint32

const (
	VariantUnknown    GameVariant = 0
	VariantRaC1       GameVariant = 1
	VariantRaC2       GameVariant = 2
	VariantRaC3       GameVariant = 3
	VariantDeadlocked GameVariant = 4
)

// File names of a level directory. The vram and gameplay files sit next to
// the engine file.
const (
	EngineFileName   = "engine.ps3"
	VramFileName     = "vram.ps3"
	GameplayFileName = "gameplay_ntsc"
)

// SignatureOffset is where both the engine and gameplay files keep their layout word.
const SignatureOffset = 0x00

func (v GameVariant) String() string {
	switch v {
	case VariantRaC1:
		return "rac1"
	case VariantRaC2:
		return "rac2"
	case VariantRaC3:
		return "rac3"
	case VariantDeadlocked:
		return "deadlocked"
	default:
		return fmt.Sprintf("unknown(0x%08X)", uint32(v))
	}
}

// VariantFromSignature maps a layout word to its variant.
func VariantFromSignature(word uint32) (GameVariant, error) {
	v := GameVariant(word)
	if _, ok := layouts[v]; !ok {
		return VariantUnknown, fmt.Errorf("%w: signature 0x%08X", ErrUnsupportedVariant, word)
	}
	return v, nil
}
