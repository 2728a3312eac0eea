package shazam

import "encoding/json"

// Result is the body of one detect response. A nil Track with a successful
// call means the service heard the segment but matched nothing (speech,
// noise, jingles).
type Result struct {
	Matches   []Match `json:"matches"`
	Track     *Track  `json:"track,omitempty"`
	TagID     string  `json:"tagid,omitempty"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// Match carries the signature-level match details the API returns alongside
// the track. The monitor only cares about track presence; these are kept for
// logging and passthrough completeness.
type Match struct {
	ID            string  `json:"id"`
	Offset        float64 `json:"offset"`
	TimeSkew      float64 `json:"timeskew"`
	FrequencySkew float64 `json:"frequencyskew"`
}

// Track is one recognized work. Key is the stable identifier used for
// dedup; it can be empty, in which case a detection is always treated as
// new. Fields holds the complete track object exactly as returned so it
// can be published unmodified.
type Track struct {
	Key      string
	Title    string
	Subtitle string
	Fields   map[string]any
}

func (t *Track) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.Key, _ = raw["key"].(string)
	t.Title, _ = raw["title"].(string)
	t.Subtitle, _ = raw["subtitle"].(string)
	t.Fields = raw

	return nil
}

func (t *Track) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Fields)
}
