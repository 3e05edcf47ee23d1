package blockmodel

// Definition is a block definition file. Unset fields are inherited from
// Parent. Texture references starting with "#" name an entry of Textures.
type Definition struct {
	Parent      string            `json:"parent"`
	Abstract    bool              `json:"abstract"`
	Shape       string            `json:"shape"`
	Transparent *bool             `json:"transparent"`
	Collider    *bool             `json:"collider"`
	Directions  []string          `json:"directions"`
	Textures    map[string]string `json:"textures"`
	Faces       map[string]string `json:"faces"`
}

// Face groups accepted as keys of Faces in addition to single face names.
const (
	FaceAll  = "all"
	FaceSide = "side"
)

var (
	allFaces  = []string{"front", "back", "top", "bottom", "right", "left"}
	sideFaces = []string{"front", "back", "right", "left"}
)

// FaceTextures expands the face groups into one entry per face. Specific
// faces win over "side", which wins over "all".
func (d *Definition) FaceTextures() map[string]string {
	out := make(map[string]string, len(allFaces))
	if tex, ok := d.Faces[FaceAll]; ok {
		for _, f := range allFaces {
			out[f] = tex
		}
	}
	if tex, ok := d.Faces[FaceSide]; ok {
		for _, f := range sideFaces {
			out[f] = tex
		}
	}
	for k, tex := range d.Faces {
		if k == FaceAll || k == FaceSide {
			continue
		}
		out[k] = tex
	}
	return out
}

func (d *Definition) clone() *Definition {
	c := *d
	c.Directions = append([]string(nil), d.Directions...)
	c.Textures = make(map[string]string, len(d.Textures))
	for k, v := range d.Textures {
		c.Textures[k] = v
	}
	c.Faces = make(map[string]string, len(d.Faces))
	for k, v := range d.Faces {
		c.Faces[k] = v
	}
	return &c
}
