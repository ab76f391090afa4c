package roast

import (
	"github.com/kapu/roast-rag-go/internal/constants"
	"github.com/kapu/roast-rag-go/internal/util"
)

// ProcessTaste strips control characters and caps the length of the taste
// description. Spacing and line breaks are kept as typed.
func ProcessTaste(taste string) string {
	return util.CutRunes(util.StripControlChars(taste), constants.AIInputLimits.MaxTasteLength)
}
