package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig matches any ConfigError via errors.Is
	ErrInvalidConfig = errors.New("invalid grid configuration")
	// ErrNoData matches any NoDataError via errors.Is
	ErrNoData = errors.New("not enough price data")
	// ErrInvalidData matches any DataError via errors.Is
	ErrInvalidData = errors.New("invalid price data")
)

// ConfigError reports a grid configuration that cannot be simulated.
// It is returned before any simulation state exists.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s %s", e.Field, e.Message)
}

// Is reports whether target is ErrInvalidConfig
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NoDataError reports a price series too short to contain a single step
type NoDataError struct {
	Samples int
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data: need at least 2 price samples, got %d", e.Samples)
}

// Is reports whether target is ErrNoData
func (e *NoDataError) Is(target error) bool {
	return target == ErrNoData
}

// DataError reports a malformed sample in an otherwise long enough series
type DataError struct {
	Index   int
	Message string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error at sample %d: %s", e.Index, e.Message)
}

// Is reports whether target is ErrInvalidData
func (e *DataError) Is(target error) bool {
	return target == ErrInvalidData
}
