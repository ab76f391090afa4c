package domain

// CorpusEntry is one reference roast in the text corpus.
type CorpusEntry struct {
	ID       string
	Text     string
	Metadata Metadata
}

type Metadata struct {
	Source string `json:"source"`
}

// FaceReference is one row of the face corpus: a face encoding and the roast
// associated with that lookalike.
type FaceReference struct {
	ID             string
	Embedding      []float32
	AssociatedText string
	Metadata       Metadata
}

// Match is a single nearest-neighbour hit. Lower Distance means more similar.
type Match struct {
	ID       string
	Text     string
	Metadata Metadata
	Distance float64
}

// Texts returns the match texts in result order.
func Texts(matches []Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Text)
	}
	return out
}
