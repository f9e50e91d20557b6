package capture

// Source identifies which physical input produced a chunk.
type Source string

const (
	SourceMicrophone Source = "microphone"
	SourceSystem     Source = "system"
)

// Chunk is one batch of mono 16-bit samples delivered by a backend. Ownership
// transfers to the receiver; the backend never touches the payload again.
type Chunk struct {
	Source     Source
	Payload    []int16
	SampleRate int
	Seq        int
}
