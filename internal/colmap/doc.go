// Package colmap decodes the binary sparse-reconstruction export written by
// COLMAP (cameras.bin, images.bin, points3D.bin) into typed collections.
//
// Records are decoded back to back from a single stream. Each decoder reads
// exactly the bytes of its record through the cursor primitives, so any
// short read or malformed count aborts the whole file: once one record is
// off, every following offset is wrong.
//
// Cross references (image → camera, image → file) are not checked here.
// They are resolved later by the assembly pipeline.
package colmap
