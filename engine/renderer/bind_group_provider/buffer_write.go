package bind_group_provider

// BufferWrite is one queued upload into the buffer at Binding on Provider.
// Data is copied to the GPU starting at Offset bytes.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
