package model

import "fmt"

// InvalidRangeError is returned for a malformed request, before any fetch.
type InvalidRangeError struct {
	Msg string
}

func (e *InvalidRangeError) Error() string { return e.Msg }

// NewInvalidRange builds an InvalidRangeError.
func NewInvalidRange(format string, args ...any) *InvalidRangeError {
	return &InvalidRangeError{Msg: fmt.Sprintf(format, args...)}
}

// DataSourceError wraps a failure of the market data provider.
type DataSourceError struct {
	Source string
	Err    error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data download failed (%s): %v", e.Source, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// InsufficientDataError means the fetch succeeded but left too few usable observations.
type InsufficientDataError struct {
	Msg string
}

func (e *InsufficientDataError) Error() string { return e.Msg }

// NewInsufficientData builds an InsufficientDataError.
func NewInsufficientData(format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{Msg: fmt.Sprintf(format, args...)}
}
