package agentrt

import (
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// readWithFallback reads path as UTF-8; if the bytes are not valid
// UTF-8 it retries decoding as Latin-1 then CP1252, re-encoding the
// result to UTF-8 before returning — mirroring
// original_source/managers/map_manager.py's _read_file fallback chain
// (spec.md §4.6 step 4).
func readWithFallback(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}

	for _, enc := range []*charmap.Charmap{charmap.ISO8859_1, charmap.Windows1252} {
		decoded, decErr := enc.NewDecoder().Bytes(data)
		if decErr == nil && utf8.Valid(decoded) {
			return string(decoded), nil
		}
	}
	return "", fmt.Errorf("decoding %s: no supported encoding produced valid UTF-8", path)
}
