// Package imaging provides the image I/O and small raster helpers shared by the
// scene compositor and the dataset tools.
//
// This package covers loading source images (with a shared decode cache),
// trimming transparent borders off cutouts, flattening composited scenes to
// opaque images, encoding them as JPEG, PNG or WebP, and drawing box overlays
// for preview images. All operations use a coordinate system where (0,0) is
// the top-left corner, X increases rightward, and Y increases downward.
//
// # Supported Formats
//
// Decoding: PNG, JPEG, GIF (standard library), BMP, TIFF and WebP
// (golang.org/x/image). Encoding: JPEG and PNG via disintegration/imaging,
// WebP via chai2010/webp.
//
// # Thread Safety
//
// ImageCache and SourceSet are safe for concurrent use. Images returned from
// the cache are shared and must not be modified; use SourceSet.LoadNRGBA to
// obtain a private copy.
package imaging
