package compute

// SerialBackend runs every dispatch to completion before returning.
type SerialBackend struct {
	err error
}

func NewSerialBackend() *SerialBackend {
	return &SerialBackend{}
}

func (s *SerialBackend) Name() string    { return "serial" }
func (s *SerialBackend) Available() bool { return true }
func (s *SerialBackend) Cleanup()        {}

func (s *SerialBackend) Dispatch(stage Stage, workItems int, kernel Kernel) {
	if s.err != nil || workItems <= 0 {
		return
	}
	if err := kernel(0, workItems); err != nil {
		s.err = stageError(stage, err)
	}
}

func (s *SerialBackend) Barrier() error {
	err := s.err
	s.err = nil
	return err
}
