package workbook

import "context"

// unavailableHost is installed when sheetpipe runs outside a workbook host.
// Every operation reports ErrHostUnavailable so materialization can degrade
// into a structured failure instead of a crash.
type unavailableHost struct{}

// NewUnavailableHost returns a host whose operations all fail with
// ErrHostUnavailable.
func NewUnavailableHost() Host {
	return unavailableHost{}
}

func (unavailableHost) Available() bool { return false }

func (unavailableHost) ListTables(_ context.Context) ([]TableInfo, error) {
	return nil, ErrHostUnavailable
}

func (unavailableHost) GetTable(_ context.Context, _ string) (*Table, error) {
	return nil, ErrHostUnavailable
}

func (unavailableHost) CreateTable(_ context.Context, _, _ string, _ []string, _ [][]interface{}) error {
	return ErrHostUnavailable
}

func (unavailableHost) ReplaceHeaderValues(_ context.Context, _ string, _ []string) error {
	return ErrHostUnavailable
}

func (unavailableHost) ClearDataRows(_ context.Context, _ string) error {
	return ErrHostUnavailable
}

func (unavailableHost) AppendRows(_ context.Context, _ string, _ [][]interface{}) error {
	return ErrHostUnavailable
}

func (unavailableHost) DeleteTable(_ context.Context, _ string) error {
	return ErrHostUnavailable
}

func (unavailableHost) ActivateLocation(_ context.Context, _, _ string) error {
	return ErrHostUnavailable
}

func (unavailableHost) ReadSheetRows(_ context.Context, _ string) ([][]string, error) {
	return nil, ErrHostUnavailable
}

func (unavailableHost) WriteSheetRows(_ context.Context, _ string, _ [][]string) error {
	return ErrHostUnavailable
}

var _ Host = unavailableHost{}
