package request

import (
	"crypto/rand"
	"encoding/binary"
	"reflect"
	"strings"
	"time"
)

// RandomSeed genera una seed nueva para experimentos que no fijan una.
// La seed usada queda registrada en el resultado, así la corrida se puede repetir.
func RandomSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// jsonName hace que validator reporte los campos con su nombre JSON (a_pos, n_bins...).
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}
