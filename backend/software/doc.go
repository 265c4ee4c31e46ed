// Package software implements a CPU rendering backend.
//
// Texture pages live in memory as *image.Alpha (R8Unorm) and *image.RGBA
// (RGBA8Unorm) images. Display lists are drawn into an *image.RGBA target
// with golang.org/x/image/draw, mirroring the blend and sampling rules of
// the batch shaders: premultiplied source-over, masks tinted by the
// vertex color, images tinted by its alpha.
//
// Importing the package registers it as backend.BackendSoftware.
package software
