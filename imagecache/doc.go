// Package imagecache packs images into texture pages and evicts them by
// frame epoch.
//
// Pages are square textures of a single pixel format. Images are placed
// with a shelf allocator; released space is reused by later allocations.
// Every page change is queued as a TextureEvent that the GPU backend must
// apply in order before drawing the frame:
//
//	id, ok := cache.Allocate(epoch, imagecache.AddImage{...})
//	...
//	cache.DrainEvents(func(ev imagecache.TextureEvent) {
//		if err := sink.ApplyEvent(ev); err != nil {
//			...
//		}
//	})
//
// An ImageID may go stale once its image is unused for longer than the
// retention window. Callers resolve ids with Get in the epoch they draw.
package imagecache
