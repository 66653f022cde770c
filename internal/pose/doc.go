// Package pose owns the keypoint data model and the per-frame signal
// conditioning applied to it.
//
// Responsibilities: keypoint/pose types, skeletal layouts (33-joint
// detector layout, 17-joint reference layout), shared geometry
// (joint angles, distances), temporal smoothing, hip-centred
// normalization, and the best-effort remap from the detector layout to
// the reference layout used by the correction service.
// Key types: Keypoint, Pose, Layout, Smoother.
//
// Dependency rule: pose depends on no other internal package. Form
// rules, rep counting and the session pipeline all build on it.
package pose
