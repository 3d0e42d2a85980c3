package modem_test

import (
	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/espnet/modem"
)

// MockSequenceBuilder scripts MockTransport calls for AT exchanges. Every
// line is delivered by its own Read so a test fails on any read beyond the
// scripted ones.
type MockSequenceBuilder struct {
	transport *modem.MockTransport
	calls     []any
}

func NewMockSequence(transport *modem.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
}

// Command expects cmd to be written and answers with its echo.
func (b *MockSequenceBuilder) Command(cmd string) *MockSequenceBuilder {
	wire := cmd + "\r\n"
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte(wire)).Return(len(wire), nil),
	)
	return b.Line(cmd)
}

// Line delivers one CRLF terminated line.
func (b *MockSequenceBuilder) Line(line string) *MockSequenceBuilder {
	resp := line + "\r\n"
	b.calls = append(b.calls,
		b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			return copy(p, resp), nil
		}),
	)
	return b
}

func (b *MockSequenceBuilder) AT() *MockSequenceBuilder {
	return b.Command("AT").Line("OK")
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}

func initMockCalls(transport *modem.MockTransport) []any {
	return NewMockSequence(transport).AT().Build()
}
