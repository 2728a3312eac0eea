package capture

// How far into a segment to look for a frame header. One frame at 128 kbps
// is under 500 bytes, so a real MP3 stream syncs well before this.
const syncWindow = 4096

// frameSync returns the offset of the first MP3 frame header in data, or -1
// if none appears within the sync window. A header begins with eleven set
// bits: 0xFF followed by a byte with the top three bits set.
func frameSync(data []byte) int {
	limit := len(data)
	if limit > syncWindow {
		limit = syncWindow
	}
	for i := 0; i+1 < limit; i++ {
		if data[i] == 0xFF && data[i+1]&0xE0 == 0xE0 {
			return i
		}
	}
	return -1
}
