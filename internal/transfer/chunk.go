package transfer

// Split cuts data into exactly n chunks of ceil(len/n) bytes. Trailing chunks
// may be shorter or empty. n < 1 is treated as 1.
func Split(data []byte, n int) [][]byte {
	if n < 1 {
		n = 1
	}
	size := (len(data) + n - 1) / n

	chunks := make([][]byte, n)
	for i := range chunks {
		start := min(i*size, len(data))
		end := min(start+size, len(data))
		chunks[i] = data[start:end]
	}
	return chunks
}
