package mdl

import (
	"github.com/pkg/errors"

	"github.com/gkjohnson/source-engine-model-loader/internal/binread"
)

const (
	boneSize           = 216
	boneControllerSize = 56
)

func decodeBones(r *binread.Reader, h binread.Record, d *ModelDescriptor) error {
	recs, err := r.Table(int(h.I32(160)), h.I32(156), boneSize)
	if err != nil {
		return err
	}
	d.Bones = make([]Bone, len(recs))
	for i, rec := range recs {
		b := &d.Bones[i]
		if b.Name, err = rec.String(0); err != nil {
			return errors.Wrapf(err, "bone %d name", i)
		}
		b.Parent = int(rec.I32(4))
		for c := range b.BoneController {
			b.BoneController[c] = rec.I32(8 + c*4)
		}
		b.Position = rec.Vec3(32)
		b.Rotation = rec.Quat(44)
		b.RadianEuler = rec.Vec3(60)
		b.PositionScale = rec.Vec3(72)
		b.RotationScale = rec.Vec3(84)
		b.PoseToBone = rec.Mat3x4(96)
		b.Alignment = rec.Quat(144)
		b.Flags = rec.I32(160)
		b.ProcType = rec.I32(164)
		b.ProcIndex = rec.I32(168)
		b.PhysicsBone = rec.I32(172)
		if b.SurfaceProp, err = rec.String(176); err != nil {
			return errors.Wrapf(err, "bone %d surface prop", i)
		}
		b.Contents = rec.I32(180)
	}
	return validateBoneGraph(d.Bones)
}

// validateBoneGraph checks that every parent index names an existing bone
// and that following parents always ends at a root. Parents are not
// required to precede their children.
func validateBoneGraph(bones []Bone) error {
	for i, b := range bones {
		if b.Parent < -1 || b.Parent >= len(bones) || b.Parent == i {
			return errors.Wrapf(ErrMalformedHeader, "bone %d (%s) has parent %d", i, b.Name, b.Parent)
		}
	}
	// 0 unvisited, 1 on the current path, 2 known to reach a root
	state := make([]uint8, len(bones))
	for i := range bones {
		var path []int
		j := i
		for j >= 0 && state[j] == 0 {
			state[j] = 1
			path = append(path, j)
			j = bones[j].Parent
		}
		if j >= 0 && state[j] == 1 {
			return errors.Wrapf(ErrMalformedHeader, "bone %d (%s) is part of a parent cycle", j, bones[j].Name)
		}
		for _, p := range path {
			state[p] = 2
		}
	}
	return nil
}

func decodeBoneControllers(r *binread.Reader, h binread.Record, d *ModelDescriptor) error {
	recs, err := r.Table(int(h.I32(168)), h.I32(164), boneControllerSize)
	if err != nil {
		return err
	}
	d.BoneControllers = make([]BoneController, len(recs))
	for i, rec := range recs {
		d.BoneControllers[i] = BoneController{
			Bone:       rec.I32(0),
			Type:       rec.I32(4),
			Start:      rec.F32(8),
			End:        rec.F32(12),
			Rest:       rec.I32(16),
			InputField: rec.I32(20),
		}
	}
	return nil
}
