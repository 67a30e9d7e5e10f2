package vtx

// Compare checks the strip hierarchy against the model header layout,
// given as mesh counts per model per body part. Every disagreement is
// reported; callers walk the smaller of the two counts.
func Compare(sd *StripData, layout [][]int) []CountMismatch {
	var out []CountMismatch
	if len(sd.BodyParts) != len(layout) {
		out = append(out, CountMismatch{BodyPart: -1, Model: -1, Level: "body parts", Header: len(layout), Strips: len(sd.BodyParts)})
	}
	for i := 0; i < len(sd.BodyParts) && i < len(layout); i++ {
		models := sd.BodyParts[i].Models
		if len(models) != len(layout[i]) {
			out = append(out, CountMismatch{BodyPart: i, Model: -1, Level: "models", Header: len(layout[i]), Strips: len(models)})
		}
		for j := 0; j < len(models) && j < len(layout[i]); j++ {
			if n := len(models[j].Meshes); n != layout[i][j] {
				out = append(out, CountMismatch{BodyPart: i, Model: j, Level: "meshes", Header: layout[i][j], Strips: n})
			}
		}
	}
	return out
}
