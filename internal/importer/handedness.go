package importer

import "github.com/Faultbox/swbf-import/pkg/math"

// Level data is right-handed; the scene is left-handed. Every position,
// normal and rotation passes through these helpers, and every triangle
// list through flipWinding.

func flipPoint(p [3]float32) [3]float32 {
	return [3]float32{-p[0], p[1], p[2]}
}

func flipVec(p [3]float32) math.Vec3 {
	return math.V3(p).MirrorX()
}

func flipRotation(q [4]float32) math.Quat {
	if q == ([4]float32{}) {
		return math.QuatIdentity()
	}
	return math.Q4(q).MirrorX()
}

func flipPoints(src [][3]float32) [][3]float32 {
	out := make([][3]float32, len(src))
	for i, p := range src {
		out[i] = flipPoint(p)
	}
	return out
}

// flipWinding appends src to dst with every triangle reversed and offset
// added to each index.
func flipWinding(dst, src []uint32, offset uint32) []uint32 {
	for i := 0; i+2 < len(src); i += 3 {
		dst = append(dst, src[i]+offset, src[i+2]+offset, src[i+1]+offset)
	}
	return dst
}
