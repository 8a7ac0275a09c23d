package postgres

import (
	"strconv"
	"strings"
)

// formatVector renders a float32 slice as a pgvector literal: "[f1,f2,...]".
func formatVector(vec []float32) string {
	var b strings.Builder
	b.Grow(len(vec)*10 + 2)
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// tsConfig maps a language code to the Postgres text-search configuration
// used for the fulltext projection.
func tsConfig(language string) string {
	if language == "fr" {
		return "french"
	}
	return "english"
}
