package index

var (
	bRanges = []byte("ranges") // start(16) -> end(16) + country
	bMeta   = []byte("meta")   // stats about the last import

	kCount      = []byte("count")
	kImportedAt = []byte("imported_at")
)
