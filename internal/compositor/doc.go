// Package compositor synthesizes object-detection training scenes by pasting
// transparent object cutouts onto augmented backgrounds.
//
// # Pipeline
//
// For every scene the Generator:
//
//  1. Picks a background uniformly at random (with replacement across scenes)
//     and runs the photometric augmentation of package augment over it.
//  2. Draws an object count in [1, MaxObjectsPerImage].
//  3. For each object: picks a cutout, scales it to a fraction of the
//     background width (the fraction range depends on the background's size
//     tier), optionally compresses it vertically, rotates it on an expanded
//     canvas, and searches for a collision-free position. Objects that find
//     no position are dropped silently.
//  4. Draws a blurred drop shadow (optional) and then the object itself.
//  5. Optionally blends occlusion rectangles over the finished scene.
//  6. Flattens the canvas and saves it as scene_NNNN.jpg.
//
// # Collision Model
//
// Every placed object reserves its bounding box grown by the placement margin.
// A candidate position is accepted only when its own margin-expanded box
// intersects none of the reserved boxes, where touching edges count as
// intersecting. The boxes of a finished scene are therefore pairwise disjoint.
//
// # Randomness
//
// All randomness flows through an explicit Rand. The Generator derives one
// PCG stream per scene from (Seed, scene index), so a run is reproducible
// for a fixed seed regardless of the worker count.
//
// # Known Limitations
//
// Occlusion rectangles are drawn without looking at the placed boxes, so an
// object may end up partly hidden. No annotation files are written; labelling
// the generated scenes is left to an annotation tool.
package compositor
