package types

// Box is a bounding box. Vision models report it normalized to [0,1]; reports use source pixels.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FaceLocation is one face reported by a vision model
type FaceLocation struct {
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// FaceLocations is the JSON document a vision model returns for face localization
type FaceLocations struct {
	Faces []FaceLocation `json:"faces"`
}

// FaceAttributes is the JSON document a vision model returns for a single face crop
type FaceAttributes struct {
	Age               float64            `json:"age"`
	Gender            string             `json:"gender"`
	GenderProbability float64            `json:"gender_probability"`
	Expressions       map[string]float64 `json:"expressions"`
}

// Point is a landmark position in source image pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FaceRecord is the report entry for one face. Pixel coordinates refer to the source image.
type FaceRecord struct {
	Index       int                `json:"index"`
	Score       float64            `json:"score"`
	Box         Box                `json:"box"`
	AlignedBox  *Box               `json:"aligned_box,omitempty"`
	Landmarks   []Point            `json:"landmarks,omitempty"`
	Age         *float64           `json:"age,omitempty"`
	Gender      string             `json:"gender,omitempty"`
	GenderProb  float64            `json:"gender_probability,omitempty"`
	Expressions map[string]float64 `json:"expressions,omitempty"`
	Expression  string             `json:"dominant_expression,omitempty"`
	Descriptor  []float32          `json:"descriptor,omitempty"`
	CropPath    string             `json:"crop_path,omitempty"`
}

// FaceReport is the document the CLI writes per input image
type FaceReport struct {
	Source string       `json:"source"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Faces  []FaceRecord `json:"faces"`
}

// CropConfig defines how face crops are written to disk
type CropConfig struct {
	Width     int
	Height    int
	Quality   int
	Lossless  bool
	Extension string
}
