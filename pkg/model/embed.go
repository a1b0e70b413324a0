package model

import _ "embed"

//go:embed schema/cardio.yaml
var embeddedCardioSchema []byte

// EmbeddedSchema returns the raw bundled schema document.
func EmbeddedSchema() []byte {
	return append([]byte(nil), embeddedCardioSchema...)
}
