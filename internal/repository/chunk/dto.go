package chunk

import (
	"encoding/binary"
	"math"
	"strconv"

	domchunk "github.com/silodex/silodex/internal/domain/chunk"
	domsilo "github.com/silodex/silodex/internal/domain/silo"
)

// chunkToFields converts a domain Chunk into a flat map[string]string for HSET.
func chunkToFields(c *domchunk.Chunk) map[string]string {
	m := make(map[string]string, 6+len(c.Tags())+len(c.Numerics()))
	m["__content"] = c.Text()
	m["__vector"] = vectorToBytes(c.Vector())
	m["media_id"] = c.MediaID()
	m["chunk_index"] = strconv.Itoa(c.Index())
	m["start_time"] = strconv.FormatFloat(c.Start(), 'f', -1, 64)
	m["end_time"] = strconv.FormatFloat(c.End(), 'f', -1, 64)
	m["created_at"] = strconv.FormatInt(c.CreatedAt(), 10)
	for k, v := range c.Tags() {
		m[k] = v
	}
	for k, v := range c.Numerics() {
		m[k] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return m
}

// fieldsToChunk converts a flat hash map back into a domain Chunk. The silo's
// declared schema decides which metadata fields are numeric; everything else
// stays a tag, whatever its value looks like.
func fieldsToChunk(mediaID string, index int, m map[string]string, s domsilo.Silo) domchunk.Chunk {
	var text string
	var vector []float32
	var start, end float64
	var createdAt int64
	tags := make(map[string]string)
	numerics := make(map[string]float64)

	for k, v := range m {
		switch k {
		case "__content":
			text = v
		case "__vector":
			vector = bytesToVector(v)
		case "media_id", "chunk_index":
			// carried in the key
		case "start_time":
			start, _ = strconv.ParseFloat(v, 64)
		case "end_time":
			end, _ = strconv.ParseFloat(v, 64)
		case "created_at":
			createdAt, _ = strconv.ParseInt(v, 10, 64)
		default:
			if s.IsNumericField(k) {
				f, _ := strconv.ParseFloat(v, 64)
				numerics[k] = f
			} else {
				tags[k] = v
			}
		}
	}

	if len(tags) == 0 {
		tags = nil
	}
	if len(numerics) == 0 {
		numerics = nil
	}
	return domchunk.Reconstruct(mediaID, index, text, start, end, tags, numerics, vector, createdAt)
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
