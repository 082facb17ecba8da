package capture

import "errors"

// fakeSource is a test-only transport.FrameSource: frames are pushed onto
// an internal channel (by the test, playing the role of a packet
// sender), and an explicit call to fail() ends the stream the same way a
// real handle's read error would.
type fakeSource struct {
	frames chan []byte
	err    chan error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		frames: make(chan []byte, 64),
		err:    make(chan error, 1),
	}
}

func (s *fakeSource) inject(frame []byte) {
	s.frames <- frame
}

func (s *fakeSource) fail(err error) {
	s.err <- err
}

func (s *fakeSource) Next() ([]byte, error) {
	select {
	case f := <-s.frames:
		return f, nil
	case err := <-s.err:
		return nil, err
	}
}

func (s *fakeSource) Close() error { return nil }

var errFakeRead = errors.New("fake read error")
