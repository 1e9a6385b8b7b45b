package content

import "strings"

// Chunk splits text on line boundaries into pieces of at most maxSize bytes,
// counting one byte per line for its newline. A line is never split, so a
// single line longer than maxSize becomes its own oversized chunk. Joining
// the chunks with "\n" reproduces text.
func Chunk(text string, maxSize int) []string {
	var chunks []string
	var current []string
	size := 0

	for _, line := range strings.Split(text, "\n") {
		lineSize := len(line) + 1
		if size+lineSize > maxSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = nil
			size = 0
		}
		current = append(current, line)
		size += lineSize
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}

// Split returns text as a single chunk when it fits within maxSize and
// chunks it otherwise. A non-positive maxSize uses DefaultChunkSize.
func Split(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	if len(text) <= maxSize {
		return []string{text}
	}
	return Chunk(text, maxSize)
}
