// If you are AI: This file defines the JSON wire shapes of the inbound metadata and frames channels.

package videosource

// metadataMessage is the inbound metadata channel shape:
// {codec, width, height, extra_data_base64, additional_data?}.
type metadataMessage struct {
	Codec           string `json:"codec"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	ExtraDataBase64 string `json:"extra_data_base64"`
}

// frameMessage is the inbound frames channel shape:
// {i: [i1,i2], chunk, chunks, d: base64, key, t: timestamp}.
type frameMessage struct {
	I      [2]int64 `json:"i"`
	Chunk  int      `json:"chunk"`
	Chunks int      `json:"chunks"`
	D      string   `json:"d"`
	Key    bool     `json:"key"`
	T      int64    `json:"t"`
}
